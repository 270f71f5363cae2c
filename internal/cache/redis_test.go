package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/config"
	"github.com/cevicheriapuertoprado-pixel/cevicheria-pos/internal/model"
)

func TestRedisCache_Disabled(t *testing.T) {
	c, err := NewRedisCache(config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	ctx := context.Background()

	assert.False(t, c.Enabled())
	_, err = c.GetMenu(ctx, "Ceviches")
	assert.Equal(t, ErrDisabled, err)
	assert.Equal(t, ErrDisabled, c.SetMenu(ctx, "Ceviches", []model.Dish{{Name: "Ceviche"}}))
	assert.NoError(t, c.InvalidateMenu(ctx))
	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}

func TestRedisCache_Unreachable(t *testing.T) {
	_, err := NewRedisCache(config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1})
	assert.Error(t, err)
}

func TestMenuField(t *testing.T) {
	assert.Equal(t, "*", MenuField(""))
	assert.Equal(t, "category:Bebidas", MenuField("Bebidas"))
}
