package knowledge

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "outcomes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestReliability_NoHistoryIsUnknown(t *testing.T) {
	store := openTestStore(t)

	_, known := store.Reliability("file.create")
	assert.False(t, known)
}

func TestReliability_LaplaceSmoothing(t *testing.T) {
	store := openTestStore(t)

	// 3 successes, 1 failure: (3+1)/(4+2) = 2/3.
	for i := 0; i < 3; i++ {
		require.NoError(t, store.RecordOutcome("shell.exec", true))
	}
	require.NoError(t, store.RecordOutcome("shell.exec", false))

	r, known := store.Reliability("shell.exec")
	require.True(t, known)
	assert.InDelta(t, 2.0/3.0, r, 1e-9)
}

func TestReliability_SingleFailureStaysAboveZero(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.RecordOutcome("ai.query", false))

	r, known := store.Reliability("ai.query")
	require.True(t, known)
	// Smoothing keeps one bad observation from zeroing the factor.
	assert.InDelta(t, 1.0/3.0, r, 1e-9)
}

func TestReliability_PerOperationIsolation(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.RecordOutcome("file.create", true))

	_, known := store.Reliability("file.delete")
	assert.False(t, known)
}

func TestOutcomeCount(t *testing.T) {
	store := openTestStore(t)

	count, err := store.OutcomeCount("file.create")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, store.RecordOutcome("file.create", true))
	require.NoError(t, store.RecordOutcome("file.create", false))

	count, err = store.OutcomeCount("file.create")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
