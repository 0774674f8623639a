package domain

// SessionState is where a chat is in a multi-step bot flow
type SessionState string

const (
	StateIdle               SessionState = "idle"
	StateWaitingWord        SessionState = "waiting_word"
	StateWaitingPOS         SessionState = "waiting_pos"
	StateWaitingTranslation SessionState = "waiting_translation"
	StateConfirmReplace     SessionState = "confirm_replace"
	StateWaitingBackup      SessionState = "waiting_backup"
	StateChoosingMode       SessionState = "choosing_mode"
	StateConfirmRestore     SessionState = "confirm_restore"
)

// Session holds the data collected so far in the current flow
type Session struct {
	State SessionState

	// add / edit
	EditID       string // empty when adding
	Word         string
	PartOfSpeech string
	Translation  string
	ReplaceID    string // existing entry offered for replacement

	// restore
	Token         string
	Mode          RestoreMode
	Confirmations int
}

// ConfirmationsNeeded returns how many confirmations mode requires
func ConfirmationsNeeded(mode RestoreMode) int {
	if mode == ModeOverwrite {
		return 2
	}
	return 1
}
