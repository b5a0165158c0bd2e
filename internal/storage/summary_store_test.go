package storage

import (
	"testing"
	"time"

	"github.com/annel0/teemap/internal/teemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSummary(checksum uint64) teemap.Summary {
	return teemap.Summary{
		Checksum: checksum,
		LoadID:   "3f1c2a9e-0000-4000-8000-000000000001",
		Author:   "nameless tee",
		Settings: []string{"sv_gametype race"},
		Images: []teemap.ImageSummary{
			{Name: "grass_main", Resolution: "1024x1024", External: true},
		},
		Groups:   2,
		Layers:   3,
		Width:    100,
		Height:   50,
		HasTele:  true,
		LoadedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newTestStore(t *testing.T) *SummaryStore {
	t.Helper()
	store, err := NewSummaryStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSummaryStore_SaveLoad(t *testing.T) {
	store := newTestStore(t)
	want := sampleSummary(0xdeadbeef)

	require.NoError(t, store.Save(want))

	got, err := store.Load(0xdeadbeef)
	require.NoError(t, err)
	assert.Equal(t, want.Author, got.Author)
	assert.Equal(t, want.Images, got.Images)
	assert.Equal(t, want.Settings, got.Settings)
	assert.True(t, want.LoadedAt.Equal(got.LoadedAt))
	assert.True(t, got.HasTele)
}

func TestSummaryStore_Overwrite(t *testing.T) {
	store := newTestStore(t)
	s := sampleSummary(1)
	require.NoError(t, store.Save(s))

	s.Author = "someone else"
	require.NoError(t, store.Save(s))

	got, err := store.Load(1)
	require.NoError(t, err)
	assert.Equal(t, "someone else", got.Author)

	all, err := store.List()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSummaryStore_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load(42)
	assert.ErrorIs(t, err, ErrSummaryNotFound)
}

func TestSummaryStore_ListOrderedByChecksum(t *testing.T) {
	store := newTestStore(t)
	for _, sum := range []uint64{0x30, 0x10, 0x20} {
		require.NoError(t, store.Save(sampleSummary(sum)))
	}

	all, err := store.List()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, uint64(0x10), all[0].Checksum)
	assert.Equal(t, uint64(0x20), all[1].Checksum)
	assert.Equal(t, uint64(0x30), all[2].Checksum)
}

func TestSummaryStore_Closed(t *testing.T) {
	store, err := NewSummaryStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Close())
	assert.NoError(t, store.Close())

	assert.Error(t, store.Save(sampleSummary(1)))
	_, err = store.Load(1)
	assert.Error(t, err)
	_, err = store.List()
	assert.Error(t, err)
}
