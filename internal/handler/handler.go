package handler

import (
	"io"
	"sync"

	"vocabdeck/internal/domain"
	"vocabdeck/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// maxBackupFileSize caps uploaded backup documents
const maxBackupFileSize = 8 << 20

// Handler manages all bot interactions
type Handler struct {
	bot           *tele.Bot
	wordService   *service.WordService
	studyService  *service.StudyService
	backupService *service.BackupService
	statsService  *service.StatsService
	logger        *zap.Logger

	// fetch downloads an uploaded file; bot.File outside tests
	fetch func(*tele.File) (io.ReadCloser, error)

	// per-chat flow state (in-memory state machine)
	sessions   map[int64]*domain.Session
	sessionMux sync.RWMutex

	status *StatusBoard
}

// NewHandler creates a new handler instance
func NewHandler(
	bot *tele.Bot,
	wordService *service.WordService,
	studyService *service.StudyService,
	backupService *service.BackupService,
	statsService *service.StatsService,
	status *StatusBoard,
	logger *zap.Logger,
) *Handler {
	h := &Handler{
		bot:           bot,
		wordService:   wordService,
		studyService:  studyService,
		backupService: backupService,
		statsService:  statsService,
		logger:        logger,
		sessions:      make(map[int64]*domain.Session),
		status:        status,
	}
	if bot != nil {
		h.fetch = bot.File
	}
	if h.status == nil {
		h.status = NewStatusBoard()
	}
	return h
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	// Commands
	h.bot.Handle("/start", h.handleStart)
	h.bot.Handle("/study", h.handleStudy)
	h.bot.Handle("/add", h.handleAdd)
	h.bot.Handle("/list", h.handleList)
	h.bot.Handle("/backup", h.handleExport)
	h.bot.Handle("/restore", h.handleRestore)
	h.bot.Handle("/stats", h.handleStats)
	h.bot.Handle("/cancel", h.handleCancel)

	// Messages
	h.bot.Handle(tele.OnText, h.handleText)
	h.bot.Handle(tele.OnDocument, h.handleDocument)

	// Inline buttons
	h.bot.Handle(&btnStudy, h.handleStudy)
	h.bot.Handle(&btnAdd, h.handleAdd)
	h.bot.Handle(&btnList, h.handleList)
	h.bot.Handle(&btnExport, h.handleExport)
	h.bot.Handle(&btnRestore, h.handleRestore)
	h.bot.Handle(&btnStats, h.handleStats)
	h.bot.Handle(&btnPrev, h.handlePrev)
	h.bot.Handle(&btnFlip, h.handleFlip)
	h.bot.Handle(&btnNext, h.handleNext)
	h.bot.Handle(&btnCancel, h.handleCancel)
	h.bot.Handle(&btnMainMenu, h.handleStart)
	h.bot.Handle(&btnReplace, h.handleReplace)
	h.bot.Handle(&btnMerge, h.handleMode)
	h.bot.Handle(&btnOverwrite, h.handleMode)
	h.bot.Handle(&btnConfirm, h.handleConfirm)

	// Generic callback handler for dynamic data
	h.bot.Handle(tele.OnCallback, h.handleCallback)
}

// GetSession returns the chat's current session
func (h *Handler) GetSession(userID int64) *domain.Session {
	h.sessionMux.RLock()
	defer h.sessionMux.RUnlock()

	session, exists := h.sessions[userID]
	if !exists {
		return &domain.Session{State: domain.StateIdle}
	}
	return session
}

// SetSession sets the chat's session
func (h *Handler) SetSession(userID int64, session *domain.Session) {
	h.sessionMux.Lock()
	defer h.sessionMux.Unlock()
	h.sessions[userID] = session
}

// ResetSession returns the chat to idle. A restore awaiting confirmation is
// discarded.
func (h *Handler) ResetSession(userID int64) {
	if h.GetSession(userID).State == domain.StateConfirmRestore {
		h.backupService.Discard()
	}
	h.SetSession(userID, &domain.Session{State: domain.StateIdle})
}

// Inline keyboard buttons
var (
	btnStudy     = tele.Btn{Unique: "study", Text: "🃏 Study"}
	btnAdd       = tele.Btn{Unique: "add", Text: "➕ Add word"}
	btnList      = tele.Btn{Unique: "list", Text: "📚 Words"}
	btnExport    = tele.Btn{Unique: "export", Text: "📤 Backup"}
	btnRestore   = tele.Btn{Unique: "restore", Text: "📥 Restore"}
	btnStats     = tele.Btn{Unique: "stats", Text: "📊 Stats"}
	btnPrev      = tele.Btn{Unique: "prev", Text: "◀"}
	btnFlip      = tele.Btn{Unique: "flip", Text: "🔄"}
	btnNext      = tele.Btn{Unique: "next", Text: "▶"}
	btnCancel    = tele.Btn{Unique: "cancel", Text: "❌ Cancel"}
	btnMainMenu  = tele.Btn{Unique: "main_menu", Text: "🏠 Menu"}
	btnReplace   = tele.Btn{Unique: "replace", Text: "✏️ Replace it"}
	btnMerge     = tele.Btn{Unique: "mode_merge", Text: "🔀 Merge", Data: string(domain.ModeMerge)}
	btnOverwrite = tele.Btn{Unique: "mode_overwrite", Text: "♻️ Overwrite", Data: string(domain.ModeOverwrite)}
	btnConfirm   = tele.Btn{Unique: "confirm", Text: "✅ Restore"}
)

// mainMenuMarkup returns the main menu keyboard
func mainMenuMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(btnStudy),
		menu.Row(btnAdd, btnList),
		menu.Row(btnExport, btnRestore),
		menu.Row(btnStats),
	)
	return menu
}

func cancelMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(btnCancel))
	return markup
}
