package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.treestore/internal/logger"
	"go.treestore/internal/metrics"
)

func openTestDal(t *testing.T, path string, opts *Options) *Dal {
	t.Helper()

	if path == "" {
		path = filepath.Join(t.TempDir(), "test.db")
	}

	dal, err := Open(path, opts, logger.Nop(), metrics.New())
	require.NoError(t, err)
	t.Cleanup(func() { dal.Close() })
	return dal
}

func TestDalBootstrap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.db")
	dal := openTestDal(t, path, nil)

	assert.Equal(t, PageNum(1), dal.Meta().FreelistPage)
	assert.Equal(t, PageNum(0), dal.Meta().Root)
	assert.Equal(t, PageNum(1), dal.Freelist().MaxPage())
	assert.Empty(t, dal.Freelist().ReleasedPages())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(2*PageSize), info.Size())
}

func TestDalReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	dal, err := Open(path, nil, logger.Nop(), nil)
	require.NoError(t, err)

	a := dal.allocatePage()
	b := dal.allocatePage()
	dal.ReleasePage(a)

	p := dal.AllocateEmptyPage(b)
	copy(p.Data, "hello")
	require.NoError(t, dal.WritePage(p))
	require.NoError(t, dal.SetRoot(b))
	require.NoError(t, dal.Close())

	dal = openTestDal(t, path, nil)

	assert.Equal(t, b, dal.Meta().Root)
	assert.Equal(t, PageNum(1), dal.Meta().FreelistPage)
	assert.Equal(t, b, dal.Freelist().MaxPage())
	assert.Equal(t, []PageNum{a}, dal.Freelist().ReleasedPages())

	got, err := dal.ReadPage(b)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got.Data[:5])
	assert.Len(t, got.Data, PageSize)
}

func TestDalReservedPages(t *testing.T) {
	dal := openTestDal(t, "", nil)

	dal.ReleasePage(MetaPageNum)
	dal.ReleasePage(dal.Meta().FreelistPage)
	assert.Empty(t, dal.Freelist().ReleasedPages())

	_, err := dal.GetNode(MetaPageNum)
	assert.ErrorIs(t, err, ErrCorruptTree)

	_, err = dal.GetNode(dal.Meta().FreelistPage)
	assert.ErrorIs(t, err, ErrCorruptTree)

	_, err = dal.GetNode(dal.Freelist().MaxPage() + 1)
	assert.ErrorIs(t, err, ErrCorruptTree)
}

func TestDalErrors(t *testing.T) {
	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.db")
		require.NoError(t, os.WriteFile(path, nil, 0666))

		_, err := Open(path, nil, nil, nil)
		assert.ErrorIs(t, err, ErrNotInitialized)
	})

	t.Run("zeroed meta page", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "zero.db")
		require.NoError(t, os.WriteFile(path, make([]byte, 2*PageSize), 0666))

		_, err := Open(path, nil, nil, nil)
		assert.ErrorIs(t, err, ErrNotInitialized)
	})

	t.Run("read past end of file", func(t *testing.T) {
		dal := openTestDal(t, "", nil)

		_, err := dal.ReadPage(50)
		assert.ErrorIs(t, err, ErrIO)
	})

	t.Run("missing directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nope", "x.db")

		_, err := Open(path, nil, nil, nil)
		assert.ErrorIs(t, err, ErrIO)
	})

	t.Run("bad options", func(t *testing.T) {
		opts := &Options{PageSize: PageSize, MinFillPercent: 0.5, MaxFillPercent: 0.4}

		_, err := Open(filepath.Join(t.TempDir(), "x.db"), opts, nil, nil)
		assert.Error(t, err)
	})

	t.Run("page too small for one item", func(t *testing.T) {
		opts := &Options{PageSize: 512, MinFillPercent: 0.4, MaxFillPercent: 0.95}
		assert.Error(t, opts.Validate())

		opts.PageSize = minPageSize
		assert.NoError(t, opts.Validate())
	})
}

func TestDalPageSizeMismatch(t *testing.T) {
	opts := func(size int) *Options {
		return &Options{PageSize: size, MinFillPercent: 0.4, MaxFillPercent: 0.95}
	}

	t.Run("larger", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fresh.db")
		dal, err := Open(path, nil, logger.Nop(), nil)
		require.NoError(t, err)
		require.NoError(t, dal.Close())

		_, err = Open(path, opts(2*PageSize), logger.Nop(), nil)
		assert.ErrorIs(t, err, ErrCorruptTree)
	})

	t.Run("smaller", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "full.db")
		dal, err := Open(path, nil, logger.Nop(), nil)
		require.NoError(t, err)

		c := NewCollection([]byte("c"))
		for i := 0; i < 50; i++ {
			require.NoError(t, c.Put(dal, []byte{byte(i)}, []byte("v")))
		}
		require.NoError(t, dal.Close())

		_, err = Open(path, opts(PageSize/2), logger.Nop(), nil)
		assert.ErrorIs(t, err, ErrCorruptTree)

		dal = openTestDal(t, path, nil)
		require.NoError(t, OpenCollection(dal, []byte("c")).Check(dal))
	})

	t.Run("truncated page", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "torn.db")
		dal, err := Open(path, nil, logger.Nop(), nil)
		require.NoError(t, err)
		require.NoError(t, dal.Close())

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0666)
		require.NoError(t, err)
		_, err = f.Write([]byte("partial"))
		require.NoError(t, err)
		require.NoError(t, f.Close())

		_, err = Open(path, nil, logger.Nop(), nil)
		assert.ErrorIs(t, err, ErrCorruptTree)
	})
}

func TestDalAbandonedBootstrap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "half.db")

	// what a failed bootstrap leaves behind before cleanup
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
	require.NoError(t, err)
	_, err = f.Write([]byte("meta"))
	require.NoError(t, err)

	dal := &Dal{file: f, path: path, log: logger.Nop()}
	dal.abandon()
	assert.NoFileExists(t, path)

	dal = openTestDal(t, path, nil)
	assert.Equal(t, PageNum(1), dal.Meta().FreelistPage)
}

func TestThresholds(t *testing.T) {
	dal := openTestDal(t, "", nil)

	assert.InDelta(t, 102.4, dal.MaxThreshold(), 1e-9)
	assert.InDelta(t, 51.2, dal.MinThreshold(), 1e-9)

	var items []*Item
	for i := 0; i < 5; i++ {
		items = append(items, NewItem([]byte("Key1"), []byte("Value1")))
	}
	n := NewNode(items[:4], nil)
	assert.False(t, dal.IsOverPopulated(n))

	n = NewNode(items, nil)
	assert.True(t, dal.IsOverPopulated(n))
	assert.Equal(t, 3, dal.getSplitIndex(n))

	// the last item can never be the split point
	n = NewNode(items[:3], nil)
	assert.Equal(t, -1, dal.getSplitIndex(n))
}
