package storage

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreelist(t *testing.T) {
	t.Run("new freelist hands out increasing pages", func(t *testing.T) {
		fr := NewFreelist()

		assert.Equal(t, PageNum(1), fr.GetNextPage())
		assert.Equal(t, PageNum(2), fr.GetNextPage())
		assert.Equal(t, PageNum(2), fr.MaxPage())
	})

	t.Run("released pages are reused before growing", func(t *testing.T) {
		fr := NewFreelist()
		for i := 0; i < 5; i++ {
			fr.GetNextPage()
		}

		fr.ReleasePage(3)
		fr.ReleasePage(4)

		got := []PageNum{fr.GetNextPage(), fr.GetNextPage()}
		assert.ElementsMatch(t, []PageNum{3, 4}, got)
		assert.Empty(t, fr.ReleasedPages())

		assert.Equal(t, PageNum(6), fr.GetNextPage())
	})

	t.Run("round trip", func(t *testing.T) {
		fr := NewFreelist()
		for i := 0; i < 10; i++ {
			fr.GetNextPage()
		}
		fr.ReleasePage(7)
		fr.ReleasePage(2)
		fr.ReleasePage(9)

		buf := make([]byte, PageSize)
		require.NoError(t, fr.Serialize(buf))

		got := NewFreelist()
		require.NoError(t, got.Deserialize(buf))

		assert.Equal(t, fr.MaxPage(), got.MaxPage())
		assert.Equal(t, fr.ReleasedPages(), got.ReleasedPages())
	})

	t.Run("empty round trip", func(t *testing.T) {
		buf := make([]byte, 16)
		require.NoError(t, NewFreelist().Serialize(buf))

		got := NewFreelist()
		require.NoError(t, got.Deserialize(buf))
		assert.Equal(t, PageNum(0), got.MaxPage())
		assert.Empty(t, got.ReleasedPages())
	})

	t.Run("serialize refuses a buffer that is too small", func(t *testing.T) {
		fr := NewFreelist()
		fr.ReleasePage(4)
		fr.ReleasePage(5)

		err := fr.Serialize(make([]byte, 8*3))
		assert.ErrorIs(t, err, ErrEncodingTooLarge)

		assert.NoError(t, fr.Serialize(make([]byte, 8*4)))
	})

	t.Run("deserialize rejects a count past the buffer", func(t *testing.T) {
		fr := NewFreelist()
		fr.ReleasePage(4)
		fr.ReleasePage(5)

		buf := make([]byte, 32)
		require.NoError(t, fr.Serialize(buf))

		err := NewFreelist().Deserialize(buf[:24])
		assert.ErrorIs(t, err, ErrEncodingTooLarge)
	})

	t.Run("never hands out a page still in use", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		fr := NewFreelist()
		inUse := map[PageNum]bool{}
		lastMax := fr.MaxPage()

		for i := 0; i < 5000; i++ {
			if len(inUse) > 0 && rng.Intn(3) == 0 {
				for num := range inUse {
					delete(inUse, num)
					fr.ReleasePage(num)
					break
				}
			} else {
				num := fr.GetNextPage()
				require.False(t, inUse[num], "page %d handed out twice", num)
				inUse[num] = true
			}

			require.GreaterOrEqual(t, fr.MaxPage(), lastMax)
			lastMax = fr.MaxPage()
		}
	})
}
