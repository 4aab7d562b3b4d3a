package anthropic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBuildCachedSystemBlocks(t *testing.T) {
	blocks := BuildCachedSystemBlocks("shared extraction context")
	require.Len(t, blocks, 1)
	assert.Equal(t, "shared extraction context", blocks[0].Text)
	require.NotNil(t, blocks[0].CacheControl)
	assert.Equal(t, "1h", blocks[0].CacheControl.TTL)
}

func TestPrimerRequest(t *testing.T) {
	mc := &MockClient{}
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(&MessageResponse{
		ID: "msg_primer",
		Usage: TokenUsage{
			CacheCreationInputTokens: 4000,
		},
	}, nil)

	resp, err := PrimerRequest(context.Background(), mc, MessageRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 16,
		System:    BuildCachedSystemBlocks("context"),
		Messages:  []Message{{Role: "user", Content: "ok"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4000), resp.Usage.CacheCreationInputTokens)
}

func TestPrimerRequest_Error(t *testing.T) {
	mc := &MockClient{}
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	_, err := PrimerRequest(context.Background(), mc, MessageRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic: primer request")
}
