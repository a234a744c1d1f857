// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Consensus Contributors

package embedding_test

import (
	"context"
	"errors"
	"sync"
)

// fakeProvider embeds each text as {len(text), 1} and records every call.
// With dims set it returns zero vectors of that size instead.
type fakeProvider struct {
	mu    sync.Mutex
	calls [][]string
	err   error
	dims  int
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-model" }
func (f *fakeProvider) Close() error  { return nil }

func (f *fakeProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), texts...))
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if f.dims > 0 {
			out[i] = make([]float32, f.dims)
			continue
		}
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

type memCache struct {
	mu      sync.Mutex
	entries map[string][]float32
	getErr  error
	putErr  error
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]float32{}}
}

func (c *memCache) Get(_ context.Context, keys []string) (map[string][]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	out := map[string][]float32{}
	for _, k := range keys {
		if v, ok := c.entries[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (c *memCache) Put(_ context.Context, entries map[string][]float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.putErr != nil {
		return c.putErr
	}
	for k, v := range entries {
		c.entries[k] = v
	}
	return nil
}

var errBoom = errors.New("boom")
