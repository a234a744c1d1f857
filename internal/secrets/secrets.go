// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

// Package secrets stores provider API keys in the OS keyring and resolves
// keyring:// references found in configuration.
package secrets

// DefaultService is the keyring service consensus stores its keys under.
const DefaultService = "consensus"

// Store is a service/key addressed secret store.
type Store interface {
	// Store saves value under service/key, replacing any previous value.
	Store(service, key, value string) error

	// Retrieve returns the value for service/key. A missing entry carries
	// CodeSecretNotFound.
	Retrieve(service, key string) (string, error)

	// Delete removes service/key. A missing entry carries CodeSecretNotFound.
	Delete(service, key string) error

	// List returns the key names stored under service.
	List(service string) ([]string, error)
}

// ProviderKey is the keyring key holding the API key for an embedding
// provider, e.g. "openai-api-key".
func ProviderKey(provider string) string {
	return provider + "-api-key"
}

// ProviderKeyURI is the config reference for ProviderKey under
// DefaultService.
func ProviderKeyURI(provider string) string {
	return keyringScheme + DefaultService + "/" + ProviderKey(provider)
}
