package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetUser(ctx))
	assert.Empty(t, GetUserID(ctx))

	ctx = WithUser(ctx, &UserContext{UserID: "u-1", Roles: []string{"warehouse"}})
	assert.Equal(t, "u-1", GetUserID(ctx))
	assert.True(t, GetUser(ctx).HasRole("warehouse"))
	assert.False(t, GetUser(ctx).HasRole("admin"))

	var none *UserContext
	assert.False(t, none.HasRole("warehouse"))
}

func TestTrace(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))

	ctx = WithTrace(ctx, &TraceContext{TraceID: "t-1", RequestID: "r-1"})
	assert.Equal(t, "r-1", GetRequestID(ctx))
	assert.Equal(t, "t-1", GetTrace(ctx).TraceID)
}
