package xcontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xuperchain/xabi/lib/logs"
)

func TestGetLog(t *testing.T) {
	def, err := logs.NewLogger("def", "test")
	require.NoError(t, err)
	opLog, err := logs.NewLogger("op", "test")
	require.NoError(t, err)

	assert.Equal(t, def, GetLog(context.Background(), def))

	ctx := NewBaseCtx(nil, opLog)
	assert.Equal(t, opLog, GetLog(ctx, def))
	assert.NotNil(t, ctx.GetTimer())
	assert.NoError(t, ctx.Err())
}
