package mapitem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupLayout_TileLayerShift(t *testing.T) {
	old := lookupLayout(layoutTileLayer, 2)
	assert.Equal(t, -1, old.nameAt)
	assert.Equal(t, 15, old.teleAt)
	assert.Equal(t, 16, old.speedupAt)

	cur := lookupLayout(layoutTileLayer, 3)
	assert.Equal(t, 15, cur.nameAt)
	assert.Equal(t, cur.teleAt+1, cur.speedupAt)
	assert.Equal(t, old.teleAt+3, cur.teleAt)
}

func TestLookupLayout_NameGates(t *testing.T) {
	assert.Equal(t, -1, lookupLayout(layoutQuadLayer, 1).nameAt)
	assert.Equal(t, 7, lookupLayout(layoutQuadLayer, 2).nameAt)
	assert.Equal(t, -1, lookupLayout(layoutGroup, 2).nameAt)
	assert.Equal(t, 12, lookupLayout(layoutGroup, 3).nameAt)
}

func TestCheckLayout_TooShort(t *testing.T) {
	_, _, err := checkLayout(layoutGroup, make([]int32, 11), 0)
	assert.ErrorIs(t, err, ErrVersionLayoutMismatch)

	_, _, err = checkLayout(layoutTileLayer, make([]int32, 3), layerBaseWords)
	assert.ErrorIs(t, err, ErrVersionLayoutMismatch)

	l, version, err := checkLayout(layoutGroup, []int32{3, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(3), version)
	assert.Equal(t, "", l.optionalName([]int32{3, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}))
}

func TestOptionalWord(t *testing.T) {
	words := []int32{1, 2, 3}
	v, ok := optionalWord(words, 2)
	assert.True(t, ok)
	assert.Equal(t, int32(3), v)

	_, ok = optionalWord(words, 3)
	assert.False(t, ok)
	_, ok = optionalWord(words, -1)
	assert.False(t, ok)
}
