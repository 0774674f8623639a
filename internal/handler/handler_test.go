package handler

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"vocabdeck/internal/codec"
	"vocabdeck/internal/domain"
	"vocabdeck/internal/service"
	"vocabdeck/internal/store"
	"vocabdeck/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
)

type fakeContext struct {
	tele.Context
	sender    *tele.User
	text      string
	callback  *tele.Callback
	message   *tele.Message
	sent      []interface{}
	edited    []interface{}
	markups   []*tele.ReplyMarkup
	responses []*tele.CallbackResponse
}

func (f *fakeContext) Sender() *tele.User       { return f.sender }
func (f *fakeContext) Text() string             { return f.text }
func (f *fakeContext) Callback() *tele.Callback { return f.callback }
func (f *fakeContext) Message() *tele.Message   { return f.message }

func (f *fakeContext) Send(what interface{}, _ ...interface{}) error {
	f.sent = append(f.sent, what)
	return nil
}

func (f *fakeContext) Edit(what interface{}, opts ...interface{}) error {
	f.edited = append(f.edited, what)
	for _, opt := range opts {
		if markup, ok := opt.(*tele.ReplyMarkup); ok {
			f.markups = append(f.markups, markup)
		}
	}
	return nil
}

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	f.responses = append(f.responses, resp...)
	return nil
}

func (f *fakeContext) lastSent() string {
	if len(f.sent) == 0 {
		return ""
	}
	s, _ := f.sent[len(f.sent)-1].(string)
	return s
}

const testUserID = 1

func message(text string) *fakeContext {
	return &fakeContext{sender: &tele.User{ID: testUserID}, text: text}
}

func callback(data string) *fakeContext {
	return &fakeContext{
		sender:   &tele.User{ID: testUserID},
		callback: &tele.Callback{ID: "cb", Data: data},
	}
}

func newTestHandler(t *testing.T) *Handler {
	return newTestHandlerWithIDs(t, testutil.SequentialIDs("id"))
}

func newTestHandlerWithIDs(t *testing.T, newID func() string) *Handler {
	t.Helper()
	c, err := codec.New()
	require.NoError(t, err)
	t.Cleanup(c.Close)

	st := store.New(store.WithIDGenerator(newID))
	ws := service.NewWorkspace(st, new(testutil.RecordingSaver), rand.New(rand.NewSource(1)), service.Callbacks{}, testutil.NewTestLogger())
	return NewHandler(
		nil,
		service.NewWordService(ws),
		service.NewStudyService(ws),
		service.NewBackupService(ws, c),
		service.NewStatsService(ws),
		nil,
		testutil.NewTestLogger(),
	)
}

func TestHandler_AddWordFlow(t *testing.T) {
	h := newTestHandler(t)

	require.NoError(t, h.handleAdd(message("/add")))
	assert.Equal(t, domain.StateWaitingWord, h.GetSession(testUserID).State)

	c := message("  apple ")
	require.NoError(t, h.handleText(c))
	assert.Equal(t, domain.StateWaitingPOS, h.GetSession(testUserID).State)
	assert.Equal(t, "apple", h.GetSession(testUserID).Word)

	require.NoError(t, h.handleText(message("n.")))
	assert.Equal(t, domain.StateWaitingTranslation, h.GetSession(testUserID).State)

	c = message("蘋果")
	require.NoError(t, h.handleText(c))
	assert.Contains(t, c.lastSent(), "Saved")
	assert.Equal(t, domain.StateWaitingWord, h.GetSession(testUserID).State)
	assert.Equal(t, 1, h.wordService.Count())
}

func TestHandler_RejectsNonEnglishWord(t *testing.T) {
	h := newTestHandler(t)

	c := message("蘋果")
	require.NoError(t, h.handleText(c))

	assert.Contains(t, c.lastSent(), "English word")
	assert.Equal(t, domain.StateIdle, h.GetSession(testUserID).State)
}

func TestHandler_DuplicateOffersReplace(t *testing.T) {
	h := newTestHandler(t)
	_, err := h.wordService.AddWord("apple", "n.", "蘋果")
	require.NoError(t, err)

	for _, text := range []string{"Apple", "n.", "蘋果 (水果)"} {
		require.NoError(t, h.handleText(message(text)))
	}
	session := h.GetSession(testUserID)
	assert.Equal(t, domain.StateConfirmReplace, session.State)
	assert.Equal(t, "id-1", session.ReplaceID)

	require.NoError(t, h.handleReplace(callback("")))

	entry, ok := h.wordService.GetWord("id-1")
	require.True(t, ok)
	assert.Equal(t, "Apple", entry.Word)
	assert.Equal(t, "蘋果 (水果)", entry.Translation)
	assert.Equal(t, 1, h.wordService.Count())
}

func TestHandler_OverwriteRestoreNeedsTwoConfirmations(t *testing.T) {
	h := newTestHandler(t)
	_, err := h.wordService.AddWord("apple", "n.", "蘋果")
	require.NoError(t, err)
	token, err := h.backupService.ExportToken()
	require.NoError(t, err)
	_, err = h.wordService.AddWord("pear", "n.", "梨")
	require.NoError(t, err)

	require.NoError(t, h.handleRestore(message("/restore")))
	require.NoError(t, h.handleText(message(token)))
	assert.Equal(t, domain.StateChoosingMode, h.GetSession(testUserID).State)

	require.NoError(t, h.handleMode(callback(string(domain.ModeOverwrite))))
	assert.Equal(t, domain.StateConfirmRestore, h.GetSession(testUserID).State)
	_, pending := h.backupService.Pending()
	assert.True(t, pending)

	require.NoError(t, h.handleConfirm(callback("")))
	assert.Equal(t, 2, h.wordService.Count(), "first confirmation does not restore")
	assert.Equal(t, 1, h.GetSession(testUserID).Confirmations)

	require.NoError(t, h.handleConfirm(callback("")))
	assert.Equal(t, 1, h.wordService.Count())
	_, found := h.wordService.FindWord("pear")
	assert.False(t, found)
	assert.Equal(t, domain.StateIdle, h.GetSession(testUserID).State)
}

func TestHandler_CancelDiscardsPendingRestore(t *testing.T) {
	h := newTestHandler(t)
	token, err := h.backupService.ExportToken()
	require.NoError(t, err)

	require.NoError(t, h.handleRestore(message("/restore")))
	require.NoError(t, h.handleText(message(token)))
	require.NoError(t, h.handleMode(callback(string(domain.ModeMerge))))
	_, pending := h.backupService.Pending()
	require.True(t, pending)

	require.NoError(t, h.handleCancel(callback("")))

	_, pending = h.backupService.Pending()
	assert.False(t, pending)
	assert.Equal(t, domain.StateIdle, h.GetSession(testUserID).State)
}

func TestHandler_BadTokenAsksAgain(t *testing.T) {
	h := newTestHandler(t)

	require.NoError(t, h.handleRestore(message("/restore")))
	require.NoError(t, h.handleText(message("not-a-real-token")))
	c := callback(string(domain.ModeMerge))
	require.NoError(t, h.handleMode(c))

	require.NotEmpty(t, c.edited)
	assert.Contains(t, c.edited[len(c.edited)-1], "malformed")
	assert.Equal(t, domain.StateWaitingBackup, h.GetSession(testUserID).State)
}

func TestHandler_DocumentStartsRestore(t *testing.T) {
	h := newTestHandler(t)
	_, err := h.wordService.AddWord("apple", "n.", "蘋果")
	require.NoError(t, err)
	_, data, err := h.backupService.ExportFile()
	require.NoError(t, err)

	h.fetch = func(*tele.File) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	c := message("")
	c.message = &tele.Message{Document: &tele.Document{FileName: "vocab-backup.json"}}

	require.NoError(t, h.handleDocument(c))

	session := h.GetSession(testUserID)
	assert.Equal(t, domain.StateChoosingMode, session.State)
	assert.NotEmpty(t, session.Token)
}

func TestHandler_DocumentNotABackup(t *testing.T) {
	h := newTestHandler(t)
	h.fetch = func(*tele.File) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader([]byte("hello"))), nil
	}
	c := message("")
	c.message = &tele.Message{Document: &tele.Document{FileName: "notes.txt"}}

	require.NoError(t, h.handleDocument(c))

	assert.Contains(t, c.lastSent(), "malformed")
	assert.Equal(t, domain.StateIdle, h.GetSession(testUserID).State)
}

func TestHandler_StudyCards(t *testing.T) {
	h := newTestHandler(t)

	c := message("/study")
	require.NoError(t, h.handleStudy(c))
	assert.Contains(t, c.lastSent(), "no words")

	_, err := h.wordService.AddWord("apple", "n.", "蘋果")
	require.NoError(t, err)

	c = message("/study")
	require.NoError(t, h.handleStudy(c))
	assert.Contains(t, c.lastSent(), "🃏 apple")
	assert.Contains(t, c.lastSent(), "📊 1 / 1")

	flip := callback("1")
	require.NoError(t, h.handleFlip(flip))
	require.Len(t, flip.edited, 1)
	assert.Contains(t, flip.edited[0], "n. · 蘋果")

	prev := callback("")
	require.NoError(t, h.handlePrev(prev))
	require.Len(t, prev.responses, 1)
	assert.True(t, prev.responses[0].ShowAlert)
}

func TestRenderCard(t *testing.T) {
	card := service.Card{
		Entry: testutil.NewTestEntry("a", "apple", "n.", "蘋果"),
		Seen:  2,
		Total: 3,
	}

	front := renderCard(card, false)
	assert.Contains(t, front, "apple")
	assert.NotContains(t, front, "蘋果")
	assert.Contains(t, front, "2 / 3")

	back := renderCard(card, true)
	assert.Contains(t, back, "n. · 蘋果")
}

func TestRenderStats(t *testing.T) {
	assert.Equal(t, "📊 No words yet.", renderStats(service.Summary{}))

	text := renderStats(service.Summary{
		Words:          2,
		TotalExposures: 5,
		OrphanCounters: 1,
		MostSeen:       domain.ListedWord{Entry: domain.Entry{Word: "apple"}, Exposures: 5},
		LeastSeen:      domain.ListedWord{Entry: domain.Entry{Word: "pear"}},
	})
	assert.Contains(t, text, "Words: 2")
	assert.Contains(t, text, "Most seen: apple (5)")
	assert.Contains(t, text, "removed words kept: 1")
}
