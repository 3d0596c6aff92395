package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestFileBackedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	require.True(t, s.useFile)

	ctx := context.Background()
	in := []record{{ID: "1", Name: "Phulkari Dupatta"}, {ID: "2", Name: "Jutti"}}
	require.NoError(t, s.Set(ctx, "products", in))

	var out []record
	require.NoError(t, s.Get(ctx, "products", &out))
	assert.Equal(t, in, out)

	// The array lands in a plain JSON file under the data dir.
	data, err := os.ReadFile(filepath.Join(dir, "products.json"))
	require.NoError(t, err)
	var onDisk []record
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, in, onDisk)
}

func TestMissingKeyYieldsEmptyArray(t *testing.T) {
	s := NewMemory()
	var out []record
	require.NoError(t, s.Get(context.Background(), "orders", &out))
	assert.Empty(t, out)

	n, err := s.Count(context.Background(), "orders")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryRoundTripAndCount(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	in := []record{{ID: "a", Name: "Kurta"}}
	require.NoError(t, s.Set(ctx, "products", in))

	var out []record
	require.NoError(t, s.Get(ctx, "products", &out))
	assert.Equal(t, in, out)

	n, err := s.Count(ctx, "products")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemorySeedsFromExistingFiles(t *testing.T) {
	dir := t.TempDir()
	seed := []record{{ID: "9", Name: "Patiala Salwar"}}
	data, err := json.Marshal(seed)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "products.json"), data, 0o644))

	s := &Store{dir: dir, mem: make(map[string]json.RawMessage)}
	s.seedFromFiles()

	var out []record
	require.NoError(t, s.Get(context.Background(), "products", &out))
	assert.Equal(t, seed, out)
}
