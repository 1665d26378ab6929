package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorIndex_Similar(t *testing.T) {
	idx := NewVectorIndex()
	ctx := context.Background()

	require.NoError(t, idx.Add(ctx, "f1", []float32{1, 0}))
	require.NoError(t, idx.Add(ctx, "f2", []float32{0, 1}))
	require.NoError(t, idx.Add(ctx, "f3", []float32{1, 1}))

	scores, err := idx.Similar(ctx, []float32{1, 0}, []string{"f1", "f2", "unknown"})
	require.NoError(t, err)
	assert.Len(t, scores, 2)
	assert.InDelta(t, 1.0, scores["f1"], 1e-9)
	assert.InDelta(t, 0.0, scores["f2"], 1e-9)

	all, err := idx.Similar(ctx, []float32{1, 0}, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, idx.Delete(ctx, []string{"f1", "nope"}))
	assert.Equal(t, 2, idx.Len())
}

func TestVectorIndex_CancelledContext(t *testing.T) {
	idx := NewVectorIndex()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.Similar(ctx, []float32{1}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
