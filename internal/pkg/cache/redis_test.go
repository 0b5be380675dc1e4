package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthy_Nil(t *testing.T) {
	var r *Redis
	assert.False(t, r.Healthy(context.Background()))
	assert.NoError(t, r.Close())
}

func TestHealthy_Unreachable(t *testing.T) {
	// nothing listens on port 1
	r := NewRedis("127.0.0.1:1", "", 0)
	defer r.Close()

	assert.False(t, r.Healthy(context.Background()))
}
