// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	conserr "github.com/consensus-dev/consensus/pkg/errors"
)

func TestSecretSet(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		stdin    string
		wantKey  string
		wantVal  string
		wantCode conserr.Code
	}{
		{
			name:    "value flag",
			args:    []string{"secret", "set", "openai", "--value", "sk-flag"},
			wantKey: "openai-api-key",
			wantVal: "sk-flag",
		},
		{
			name:    "stdin",
			args:    []string{"secret", "set", "Voyage"},
			stdin:   "pa-stdin\n",
			wantKey: "voyage-api-key",
			wantVal: "pa-stdin",
		},
		{
			name:     "unknown provider",
			args:     []string{"secret", "set", "anthropic", "--value", "x"},
			wantCode: conserr.CodeCLIInputInvalid,
		},
		{
			name:     "empty stdin",
			args:     []string{"secret", "set", "google"},
			stdin:    "\n",
			wantCode: conserr.CodeCLIInputInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateHome(t)
			mock := newMockSecretStore()
			useSecretStore(t, mock)

			out, err := execute(t, tt.stdin, tt.args...)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, conserr.HasCode(err, tt.wantCode), "got %s", conserr.CodeOf(err))
				assert.Empty(t, mock.data)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVal, mock.data[tt.wantKey])
			assert.Contains(t, out, "keyring://consensus/"+tt.wantKey)
		})
	}
}

func TestSecretList(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want string
	}{
		{name: "empty store", want: "No secrets stored.\n"},
		{name: "sorted", keys: []string{"voyage-api-key", "google-api-key"}, want: "google-api-key\nvoyage-api-key\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateHome(t)
			useSecretStore(t, newMockSecretStore(tt.keys...))

			out, err := execute(t, "", "secret", "list")
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestSecretDelete(t *testing.T) {
	isolateHome(t)
	mock := newMockSecretStore("openai-api-key")
	useSecretStore(t, mock)

	out, err := execute(t, "", "secret", "delete", "openai-api-key")
	require.NoError(t, err)
	assert.Equal(t, "Deleted secret: openai-api-key\n", out)
	assert.Empty(t, mock.data)

	_, err = execute(t, "", "secret", "delete", "openai-api-key")
	require.Error(t, err)
	assert.True(t, conserr.HasCode(err, conserr.CodeSecretNotFound))
}
