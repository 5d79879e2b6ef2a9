package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoragePutGetDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	key := ArchiveKey("budget_execution", 2025, "report.xlsx")
	assert.Equal(t, "reports/budget_execution/2025/report.xlsx", key)

	size, err := s.Put(ctx, key, "application/octet-stream", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)

	rc, err := s.Get(ctx, key)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(body))

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key))

	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestCleanKey(t *testing.T) {
	k, err := cleanKey("reports/a/b.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "reports/a/b.xlsx", k)

	for _, bad := range []string{"", "  ", "../etc/passwd", "reports/../../x", "/"} {
		_, err := cleanKey(bad)
		assert.ErrorIs(t, err, ErrInvalidKey, bad)
	}
}
