package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySummaryRepo(t *testing.T) {
	repo := NewMemorySummaryRepo()

	t.Run("Save and Load", func(t *testing.T) {
		require.NoError(t, repo.Save(sampleSummary(0x20)))
		got, err := repo.Load(0x20)
		require.NoError(t, err)
		assert.Equal(t, "nameless tee", got.Author)
	})

	t.Run("Load missing", func(t *testing.T) {
		_, err := repo.Load(0x99)
		assert.ErrorIs(t, err, ErrSummaryNotFound)
	})

	t.Run("List sorted", func(t *testing.T) {
		require.NoError(t, repo.Save(sampleSummary(0x10)))
		all, err := repo.List()
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, uint64(0x10), all[0].Checksum)
		assert.Equal(t, 2, repo.Count())
	})

	assert.NoError(t, repo.Close())
}

func TestOpen(t *testing.T) {
	repo, err := Open(Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemorySummaryRepo{}, repo)

	repo, err = Open(Options{Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &SummaryStore{}, repo)
	require.NoError(t, repo.Close())

	_, err = Open(Options{})
	assert.Error(t, err)
	_, err = Open(Options{Backend: "cassandra"})
	assert.Error(t, err)
}

func TestChecksumKey(t *testing.T) {
	assert.Equal(t, "00000000000000ff", checksumKey(0xff))
	v, err := parseChecksumKey(checksumKey(0xdeadbeefcafebabe))
	require.NoError(t, err)
	assert.Equal(t, uint64(0xdeadbeefcafebabe), v)
}
