package authctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()

	_, ok := SessionIDFromContext(ctx)
	require.False(t, ok)
	_, ok = IdentityFromContext(ctx)
	require.False(t, ok)

	ctx = WithSessionID(ctx, "sid-1")
	ctx = WithIdentity(ctx, Identity{UserID: "u-1", IsAdmin: true})

	sid, ok := SessionIDFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "sid-1", sid)

	id, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "u-1", id.UserID)
	require.True(t, id.IsAdmin)
}
