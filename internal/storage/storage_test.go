package storage

import (
	"context"
	"os"
	"testing"

	"github.com/domain-cutover/internal/database"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStorage 对任意实现执行同一组读写检查
func exerciseStorage(t *testing.T, p Provider) {
	t.Helper()
	ctx := context.Background()
	nsA := "test-" + uuid.NewString()
	nsB := "test-" + uuid.NewString()

	a := p.Namespace(nsA)
	b := p.Namespace(nsB)

	_, ok, err := a.GetItem(ctx, "cloudflare_email")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.SetItem(ctx, "cloudflare_email", "e@x.com"))
	v, ok, err := a.GetItem(ctx, "cloudflare_email")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "e@x.com", v)

	require.NoError(t, a.SetItem(ctx, "cloudflare_email", "f@x.com"))
	v, _, err = a.GetItem(ctx, "cloudflare_email")
	require.NoError(t, err)
	assert.Equal(t, "f@x.com", v)

	// 空字符串也是一个存在的值
	require.NoError(t, a.SetItem(ctx, "registrar_api_key", ""))
	v, ok, err = a.GetItem(ctx, "registrar_api_key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "", v)

	_, ok, err = b.GetItem(ctx, "cloudflare_email")
	require.NoError(t, err)
	assert.False(t, ok, "namespaces must not share keys")
}

func TestMemoryProvider(t *testing.T) {
	exerciseStorage(t, NewMemoryProvider())
}

func TestGormProvider(t *testing.T) {
	dsn := os.Getenv("CUTOVER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CUTOVER_TEST_POSTGRES_DSN not set")
	}
	db, err := database.Open(dsn)
	require.NoError(t, err)
	exerciseStorage(t, NewGormProvider(db))
}

func TestRedisProvider(t *testing.T) {
	addr := os.Getenv("CUTOVER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CUTOVER_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	exerciseStorage(t, NewRedisProvider(client))
}
