package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySequenceAllocator_MonotonicPerName(t *testing.T) {
	ctx := context.Background()
	alloc := NewMemorySequenceAllocator()

	first, err := alloc.Next(ctx, "doc_number")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first)

	second, err := alloc.Next(ctx, "doc_number")
	require.NoError(t, err)
	assert.Equal(t, int64(2), second)

	otherSeq, err := alloc.Next(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, int64(1), otherSeq)
}

func TestNextDocNumber_Formatting(t *testing.T) {
	assert.Equal(t, "REG-TMF-00001", NextDocNumber(1))
	assert.Equal(t, "REG-TMF-12345", NextDocNumber(12345))
}
