package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIEmbedderWithoutKey(t *testing.T) {
	embedder := NewOpenAIEmbedder("   ", "")

	assert.False(t, embedder.Ready())
	assert.Zero(t, embedder.Dimensions())

	_, err := embedder.Embed(context.Background(), "How many vacation days do I get?")
	require.Error(t, err)
}

func TestNewOpenAIEmbedderModelWidth(t *testing.T) {
	assert.Equal(t, 1536, NewOpenAIEmbedder("sk-test", "").Dimensions())
	assert.Equal(t, 1536, NewOpenAIEmbedder("sk-test", "text-embedding-ada-002").Dimensions())
	assert.Equal(t, 3072, NewOpenAIEmbedder("sk-test", "text-embedding-3-large").Dimensions())
	assert.Equal(t, 1536, NewOpenAIEmbedder("sk-test", "some-future-model").Dimensions())
}
