package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ndavault/internal/core/domain"
)

func TestBlobStore(t *testing.T) {
	store := NewBlobStore()
	ctx := context.Background()

	data := []byte("%PDF-1.4")
	require.NoError(t, store.Put(ctx, "a.pdf", data))
	data[0] = 'X'

	got, err := store.Get(ctx, "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), got)

	require.NoError(t, store.Delete(ctx, "a.pdf"))
	require.NoError(t, store.Delete(ctx, "a.pdf"))
	_, err = store.Get(ctx, "a.pdf")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
