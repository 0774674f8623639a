package repository

// StateRepository stores the whole word store as one JSON document per
// namespace key
type StateRepository interface {
	// LoadState returns nil data when nothing was saved under key
	LoadState(key string) ([]byte, error)
	SaveState(key string, data []byte) error
}
