// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package secrets

import (
	"encoding/json"
	"errors"
	"log/slog"
	"slices"

	"github.com/zalando/go-keyring"

	conserr "github.com/consensus-dev/consensus/pkg/errors"
)

// go-keyring cannot enumerate entries, so each service keeps a JSON list of
// its key names under this suffix.
const indexSuffix = "::index"

// KeyringStore implements Store on the OS keyring (Keychain, Secret
// Service or Credential Manager).
type KeyringStore struct{}

var _ Store = (*KeyringStore)(nil)

func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func checkAddress(op, service, key string) error {
	if service == "" {
		return conserr.Errorf(conserr.CodeSecretInvalidInput, "secret %s: service must not be empty", op)
	}
	if key == "" {
		return conserr.Errorf(conserr.CodeSecretInvalidInput, "secret %s: key must not be empty", op)
	}
	return nil
}

func (s *KeyringStore) Store(service, key, value string) error {
	if err := checkAddress("store", service, key); err != nil {
		return err
	}
	if err := keyring.Set(service, key, value); err != nil {
		return conserr.Wrapf(err, conserr.CodeSecretStoreFailure, "storing secret %s/%s", service, key)
	}

	keys, err := s.index(service)
	if err != nil {
		return err
	}
	if slices.Contains(keys, key) {
		return nil
	}
	return s.writeIndex(service, append(keys, key))
}

func (s *KeyringStore) Retrieve(service, key string) (string, error) {
	if err := checkAddress("retrieve", service, key); err != nil {
		return "", err
	}

	val, err := keyring.Get(service, key)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return "", conserr.Errorf(conserr.CodeSecretNotFound, "secret %s/%s not found", service, key)
	case err != nil:
		return "", conserr.Wrapf(err, conserr.CodeSecretStoreFailure, "retrieving secret %s/%s", service, key)
	}
	return val, nil
}

func (s *KeyringStore) Delete(service, key string) error {
	if err := checkAddress("delete", service, key); err != nil {
		return err
	}

	err := keyring.Delete(service, key)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return conserr.Errorf(conserr.CodeSecretNotFound, "secret %s/%s not found", service, key)
	case err != nil:
		return conserr.Wrapf(err, conserr.CodeSecretDeleteFailure, "deleting secret %s/%s", service, key)
	}

	keys, err := s.index(service)
	if err != nil {
		return err
	}
	return s.writeIndex(service, slices.DeleteFunc(keys, func(k string) bool { return k == key }))
}

func (s *KeyringStore) List(service string) ([]string, error) {
	return s.index(service)
}

func (s *KeyringStore) index(service string) ([]string, error) {
	raw, err := keyring.Get(service, service+indexSuffix)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, conserr.Wrapf(err, conserr.CodeSecretListFailure, "loading key index for %s", service)
	}

	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return nil, conserr.Wrapf(err, conserr.CodeSecretListFailure, "decoding key index for %s", service)
	}
	return keys, nil
}

func (s *KeyringStore) writeIndex(service string, keys []string) error {
	indexKey := service + indexSuffix

	if len(keys) == 0 {
		if err := keyring.Delete(service, indexKey); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			slog.Debug("failed to remove empty key index", "service", service, "error", err)
		}
		return nil
	}

	data, err := json.Marshal(keys)
	if err != nil {
		return conserr.Wrapf(err, conserr.CodeSecretListFailure, "encoding key index for %s", service)
	}
	if err := keyring.Set(service, indexKey, string(data)); err != nil {
		return conserr.Wrapf(err, conserr.CodeSecretListFailure, "saving key index for %s", service)
	}
	return nil
}
