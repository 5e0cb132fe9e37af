package artifact

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDir_Put(t *testing.T) {
	store := NewDir(t.TempDir())

	err := store.Put(context.Background(), "run-1/schema.dbml", "text/plain", []byte("Table users {}"))
	require.NoError(t, err)

	data, err := os.ReadFile(store.Path("run-1/schema.dbml"))
	require.NoError(t, err)
	assert.Equal(t, "Table users {}", string(data))
}

func TestDir_PutOverwrites(t *testing.T) {
	store := NewDir(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "report.txt", "text/plain", []byte("first")))
	require.NoError(t, store.Put(ctx, "report.txt", "text/plain", []byte("second")))

	data, err := os.ReadFile(store.Path("report.txt"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}
