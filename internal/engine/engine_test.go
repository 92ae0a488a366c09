package engine_test

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.treestore/internal/config"
	"go.treestore/internal/engine"
	"go.treestore/internal/metrics"
	"go.treestore/internal/storage"
)

func openTestDB(t *testing.T) *engine.Database {
	t.Helper()

	db, err := engine.OpenPath(filepath.Join(t.TempDir(), "test.db"), nil, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAscendingInsertAndGet(t *testing.T) {
	db := openTestDB(t)

	const N = 5000

	for i := 0; i < N; i++ {
		k := fmt.Sprintf("%08d", i)
		require.NoError(t, db.Set(k, []byte("x"+k)), "Set %s", k)
	}

	for i := 0; i < N; i++ {
		k := fmt.Sprintf("%08d", i)
		val, err := db.Get(k)
		require.NoError(t, err, "Get %s", k)
		assert.Equal(t, "x"+k, string(val))
	}

	require.NoError(t, db.Check())
}

func TestGetMissing(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Get("nope")
	assert.ErrorIs(t, err, engine.ErrKeyNotFound)

	require.NoError(t, db.Set("yes", []byte("1")))

	_, err = db.Get("nope")
	assert.ErrorIs(t, err, engine.ErrKeyNotFound)
}

func TestSetTooLarge(t *testing.T) {
	db := openTestDB(t)

	err := db.Set(string(make([]byte, 300)), []byte("v"))
	assert.ErrorIs(t, err, storage.ErrEncodingTooLarge)
}

func TestScan(t *testing.T) {
	db := openTestDB(t)

	for _, k := range []string{"pear", "apple", "fig", "banana"} {
		require.NoError(t, db.Set(k, []byte(k+"!")))
	}

	var keys, vals []string
	require.NoError(t, db.Scan(func(key, value []byte) error {
		keys = append(keys, string(key))
		vals = append(vals, string(value))
		return nil
	}))

	assert.Equal(t, []string{"apple", "banana", "fig", "pear"}, keys)
	assert.Equal(t, []string{"apple!", "banana!", "fig!", "pear!"}, vals)
}

func TestStats(t *testing.T) {
	db := openTestDB(t)

	st, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, storage.PageNum(0), st.Root)
	assert.Equal(t, storage.PageNum(1), st.FreelistPage)
	assert.Equal(t, 0, st.Nodes)

	for i := 1; i <= 6; i++ {
		require.NoError(t, db.Set(fmt.Sprintf("Key%d", i), []byte(fmt.Sprintf("Value%d", i))))
	}

	st, err = db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, st.Depth)
	assert.Equal(t, 3, st.Nodes)
	assert.Equal(t, 2, st.Leaves)
	assert.Equal(t, 6, st.Items)

	// [Key5 Key6] encodes to 51 bytes, under the 51.2 minimum
	assert.Equal(t, 1, st.Underpopulated)
}

func TestConcurrentSet(t *testing.T) {
	db := openTestDB(t)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				assert.NoError(t, db.Set(fmt.Sprintf("w%d-%04d", w, i), []byte("v")))
			}
		}(w)
	}
	wg.Wait()

	require.NoError(t, db.Check())

	st, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 800, st.Items)
}

func TestOpenByName(t *testing.T) {
	cfg, err := config.LoadConfig(t.TempDir(), "")
	require.NoError(t, err)

	_, err = engine.Open("users", cfg, nil)
	assert.ErrorIs(t, err, engine.ErrNoDatabase)

	require.NoError(t, engine.Create("users", cfg))
	assert.Error(t, engine.Create("users", cfg))
	assert.FileExists(t, cfg.DBPath("users"))

	m := metrics.New()
	db, err := engine.Open("users", cfg, m)
	require.NoError(t, err)
	assert.Equal(t, "users", db.Name())

	require.NoError(t, db.Set("alice", []byte("admin")))
	require.NoError(t, db.Close())

	db, err = engine.Open("users", cfg, m)
	require.NoError(t, err)
	val, err := db.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("admin"), val)
	require.NoError(t, db.Close())

	assert.FileExists(t, cfg.DBLogPath("users"))

	require.NoError(t, engine.Drop("users", cfg))
	_, err = os.Stat(cfg.DBDir("users"))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, engine.Drop("users", cfg), engine.ErrNoDatabase)
	assert.Error(t, engine.Create("../escape", cfg))
}

func TestOpenRejectsPaths(t *testing.T) {
	cfg, err := config.LoadConfig(t.TempDir(), "")
	require.NoError(t, err)
	require.NoError(t, engine.Create("users", cfg))

	for _, name := range []string{"./users", "users/", "../users", "data/../users", "", ".."} {
		_, err := engine.Open(name, cfg, nil)
		assert.ErrorIs(t, err, engine.ErrInvalidName, "name %q", name)
	}

	assert.ErrorIs(t, engine.Drop("./users", cfg), engine.ErrInvalidName)
	assert.DirExists(t, cfg.DBDir("users"))
}
