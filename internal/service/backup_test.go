package service

import (
	"errors"
	"testing"

	"vocabdeck/internal/codec"
	"vocabdeck/internal/domain"
	"vocabdeck/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) *codec.Codec {
	t.Helper()
	c, err := codec.New()
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func tokenOf(t *testing.T, c *codec.Codec, snap domain.Snapshot) string {
	t.Helper()
	token, err := c.EncodeCompact(snap)
	require.NoError(t, err)
	return token
}

func TestBackupService_MergeKeepsLargerCounter(t *testing.T) {
	c := newTestCodec(t)
	ws, saver := newTestWorkspace(Callbacks{})
	words := NewWordService(ws)
	study := NewStudyService(ws)
	backup := NewBackupService(ws, c)

	cat, err := words.AddWord("cat", "n.", "貓")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		study.Next()
	}
	require.Equal(t, 10, study.Exposures(cat.ID))

	token := tokenOf(t, c, testutil.NewTestSnapshot(
		domain.Counters{"remote-cat": 3},
		testutil.NewTestEntry("remote-cat", "Cat", "n.", "貓"),
	))

	report, err := backup.Preview(token, domain.ModeMerge)
	require.NoError(t, err)
	assert.Equal(t, 0, report.WillAdd)
	assert.Equal(t, 1, report.WillUpdate)
	assert.Equal(t, 0, report.WillChange)

	_, err = backup.Commit(token, domain.ModeMerge)
	require.NoError(t, err)

	assert.Equal(t, 10, study.Exposures(cat.ID))
	assert.Equal(t, 1, words.Count())
	state, _ := saver.Last()
	assert.Equal(t, 10, state.Counters[cat.ID])
	assert.Equal(t, 3, state.Counters["remote-cat"])
	_, pending := backup.Pending()
	assert.False(t, pending)
}

func TestBackupService_MergeTwiceIsIdempotent(t *testing.T) {
	c := newTestCodec(t)
	ws, _ := newTestWorkspace(Callbacks{})
	words := NewWordService(ws)
	backup := NewBackupService(ws, c)
	_, err := words.AddWord("dog", "n.", "狗")
	require.NoError(t, err)

	token := tokenOf(t, c, testutil.NewTestSnapshot(
		domain.Counters{"b-1": 4, "b-2": 2},
		testutil.NewTestEntry("b-1", "dog", "n.", "犬"),
		testutil.NewTestEntry("b-2", "bird", "n.", "鳥"),
	))

	_, err = backup.Preview(token, domain.ModeMerge)
	require.NoError(t, err)
	_, err = backup.Commit(token, domain.ModeMerge)
	require.NoError(t, err)
	once := ws.State()

	report, err := backup.Preview(token, domain.ModeMerge)
	require.NoError(t, err)
	assert.Equal(t, 0, report.WillAdd)
	assert.Equal(t, 0, report.WillChange)
	_, err = backup.Commit(token, domain.ModeMerge)
	require.NoError(t, err)
	twice := ws.State()

	assert.Equal(t, once.Entries, twice.Entries)
	assert.Equal(t, once.Counters, twice.Counters)
	dog, ok := words.FindWord("DOG")
	require.True(t, ok)
	assert.Equal(t, "犬", dog.Translation)
}

func TestBackupService_OverwriteThenMergePreviewIsNoop(t *testing.T) {
	c := newTestCodec(t)
	ws, _ := newTestWorkspace(Callbacks{})
	words := NewWordService(ws)
	backup := NewBackupService(ws, c)
	_, err := words.AddWord("old", "adj.", "舊")
	require.NoError(t, err)

	token := tokenOf(t, c, testutil.NewTestSnapshot(
		domain.Counters{"x-1": 1},
		testutil.NewTestEntry("x-1", "new", "adj.", "新"),
		testutil.NewTestEntry("x-2", "fresh", "adj.", "新鮮"),
	))

	report, err := backup.Preview(token, domain.ModeOverwrite)
	require.NoError(t, err)
	assert.Equal(t, 1, report.CurrentCount)
	assert.Equal(t, 2, report.ResultCount)

	_, err = backup.Commit(token, domain.ModeOverwrite)
	require.NoError(t, err)
	_, found := words.FindWord("old")
	assert.False(t, found)

	report, err = backup.Preview(token, domain.ModeMerge)
	require.NoError(t, err)
	assert.Equal(t, 0, report.WillAdd)
	assert.Equal(t, 0, report.WillChange)
}

func TestBackupService_CommitRequiresMatchingPreview(t *testing.T) {
	c := newTestCodec(t)
	ws, saver := newTestWorkspace(Callbacks{})
	backup := NewBackupService(ws, c)

	token := tokenOf(t, c, testutil.NewTestSnapshot(nil, testutil.NewTestEntry("a", "apple", "n.", "蘋果")))
	other := tokenOf(t, c, testutil.NewTestSnapshot(nil, testutil.NewTestEntry("b", "pear", "n.", "梨")))

	_, err := backup.Commit(token, domain.ModeMerge)
	assert.ErrorIs(t, err, domain.ErrNoPendingRestore)

	_, err = backup.Preview(token, domain.ModeMerge)
	require.NoError(t, err)

	_, err = backup.Commit(token, domain.ModeOverwrite)
	assert.ErrorIs(t, err, domain.ErrNoPendingRestore)
	_, err = backup.Commit(other, domain.ModeMerge)
	assert.ErrorIs(t, err, domain.ErrNoPendingRestore)
	assert.Equal(t, 0, saver.Count())

	backup.Discard()
	_, err = backup.Commit(token, domain.ModeMerge)
	assert.ErrorIs(t, err, domain.ErrNoPendingRestore)
	assert.Equal(t, 0, saver.Count())
}

func TestBackupService_PreviewErrors(t *testing.T) {
	tests := []struct {
		name          string
		token         string
		expectedError []error
	}{
		{name: "empty token", token: "   ", expectedError: []error{domain.ErrEmptyInput}},
		{name: "garbage token", token: "not-a-real-token", expectedError: []error{domain.ErrCorruptToken, domain.ErrMalformedPayload}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCodec(t)
			ws, _ := newTestWorkspace(Callbacks{})
			backup := NewBackupService(ws, c)

			good := tokenOf(t, c, testutil.NewTestSnapshot(nil))
			_, err := backup.Preview(good, domain.ModeMerge)
			require.NoError(t, err)

			_, err = backup.Preview(tt.token, domain.ModeMerge)
			require.Error(t, err)
			matched := false
			for _, target := range tt.expectedError {
				if errors.Is(err, target) {
					matched = true
				}
			}
			assert.True(t, matched, "unexpected error %v", err)

			_, pending := backup.Pending()
			assert.False(t, pending, "a failed preview discards the pending restore")
			assert.NotEmpty(t, DescribeError(err))
		})
	}
}

func TestBackupService_PreviewCallback(t *testing.T) {
	c := newTestCodec(t)
	var reports []domain.PreviewReport
	ws, _ := newTestWorkspace(Callbacks{
		OnRestorePreview: func(r domain.PreviewReport) { reports = append(reports, r) },
	})
	backup := NewBackupService(ws, c)

	token := tokenOf(t, c, testutil.NewTestSnapshot(nil,
		testutil.NewTestEntry("a", "apple", "n.", "蘋果"),
		testutil.NewTestEntry("b", "  ", "n.", "空"),
	))
	_, err := backup.Preview(token, domain.ModeMerge)
	require.NoError(t, err)

	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].WillAdd)
	assert.Equal(t, 1, reports[0].Dropped)
}

func TestBackupService_ExportRoundTrip(t *testing.T) {
	c := newTestCodec(t)
	ws, _ := newTestWorkspace(Callbacks{})
	words := NewWordService(ws)
	backup := NewBackupService(ws, c)
	_, err := words.AddWord("apple", "n.", "蘋果")
	require.NoError(t, err)

	token, err := backup.ExportToken()
	require.NoError(t, err)
	name, data, err := backup.ExportFile()
	require.NoError(t, err)
	assert.Regexp(t, `^vocab-backup-\d{4}-\d{2}-\d{2}\.json$`, name)

	fromFile, err := backup.TokenFromFile(data)
	require.NoError(t, err)

	a, err := c.DecodeCompact(token)
	require.NoError(t, err)
	b, err := c.DecodeCompact(fromFile)
	require.NoError(t, err)
	assert.Equal(t, a.Entries, b.Entries)
	assert.Equal(t, a.Counters, b.Counters)
}

func TestDescribeError(t *testing.T) {
	assert.Empty(t, DescribeError(nil))
	assert.Contains(t, DescribeError(domain.ErrNoPendingRestore), "Preview")
	assert.Contains(t, DescribeError(domain.ErrEmptyInput), "empty")
}
