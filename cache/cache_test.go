package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ShouldGetWhatWasSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0)

	_, err := s.Get(ctx, "bootstrap_regular__alarm")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set(ctx, "bootstrap_regular__alarm", "<svg/>"))
	v, err := s.Get(ctx, "bootstrap_regular__alarm")
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", v)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_ShouldReportUnavailableWhenFull(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(1)

	require.NoError(t, s.Set(ctx, "a", "1"))
	require.NoError(t, s.Set(ctx, "a", "2"))
	assert.ErrorIs(t, s.Set(ctx, "b", "3"), ErrUnavailable)
}

func TestSQLiteStore_ShouldPersistValues(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)

	_, err = s.Get(ctx, "lucide_regular__heart")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set(ctx, "lucide_regular__heart", "<svg>1</svg>"))
	require.NoError(t, s.Set(ctx, "lucide_regular__heart", "<svg>2</svg>"))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.Get(ctx, "lucide_regular__heart")
	require.NoError(t, err)
	assert.Equal(t, "<svg>2</svg>", v)

	n, err := s.Purge(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteStore_ShouldBeUnavailableOnceClosed(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, s.Set(context.Background(), "x", "y"), ErrUnavailable)
}

func TestSQLiteStore_ShouldRefusePurgeWithoutDatabase(t *testing.T) {
	var s *SQLiteStore
	_, err := s.Purge(context.Background(), time.Hour)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = (&SQLiteStore{}).Purge(context.Background(), time.Hour)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSQLiteStore_ShouldPurgeEntriesOlderThanMaxAge(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(ctx, "a", "<svg/>"))
	require.NoError(t, s.Set(ctx, "b", "<svg/>"))

	// A negative age moves the cutoff into the future.
	n, err := s.Purge(ctx, -time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCache_ShouldOpenBackends(t *testing.T) {
	s, err := Open(BackendMemory, "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(BackendNone, "")
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = Open(BackendSQLite, filepath.Join(t.TempDir(), "c.db"))
	require.NoError(t, err)
	assert.NoError(t, Close(s))

	_, err = Open("redis", "")
	assert.Error(t, err)
}
