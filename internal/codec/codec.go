// Package codec converts snapshots to and from backup codes and JSON files.
package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"vocabdeck/internal/domain"

	"github.com/klauspost/compress/zstd"
)

// maxCount bounds coerced counters to integers a float64 represents exactly
const maxCount = 1 << 53

// Codec encodes snapshots as compact backup codes. It is safe for
// concurrent use.
type Codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// New creates a codec
func New() (*Codec, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedBestCompression),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(64<<20),
	)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	return &Codec{enc: enc, dec: dec}, nil
}

// Close releases the decoder
func (c *Codec) Close() {
	c.dec.Close()
	_ = c.enc.Close()
}

// EncodeCompact returns a single-line printable backup code for s
func (c *Codec) EncodeCompact(s domain.Snapshot) (string, error) {
	data, err := EncodeState(s)
	if err != nil {
		return "", err
	}
	compressed := c.enc.EncodeAll(data, make([]byte, 0, len(data)/2))
	return base64.StdEncoding.EncodeToString(compressed), nil
}

// DecodeCompact parses a backup code. Whitespace anywhere in the code is
// ignored so wrapped pastes still decode.
func (c *Codec) DecodeCompact(token string) (domain.Snapshot, error) {
	compact := strings.Join(strings.Fields(token), "")
	if compact == "" {
		return domain.Snapshot{}, domain.ErrEmptyInput
	}

	compressed, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", domain.ErrCorruptToken, err)
	}
	data, err := c.dec.DecodeAll(compressed, nil)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: %v", domain.ErrCorruptToken, err)
	}
	if len(data) == 0 {
		return domain.Snapshot{}, fmt.Errorf("%w: no data", domain.ErrCorruptToken)
	}

	return DecodeJSON(data)
}

// EncodeFile returns s as indented JSON for a downloadable backup file
func (c *Codec) EncodeFile(s domain.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(wireOf(s), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeFile parses an uploaded JSON backup file
func (c *Codec) DecodeFile(data []byte) (domain.Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.Snapshot{}, domain.ErrEmptyInput
	}
	return DecodeJSON(data)
}

// TokenFromFile validates an uploaded JSON backup and re-encodes it as a
// backup code
func (c *Codec) TokenFromFile(data []byte) (string, error) {
	s, err := c.DecodeFile(data)
	if err != nil {
		return "", err
	}
	return c.EncodeCompact(s)
}

// FileName returns the backup file name for the given day
func FileName(t time.Time) string {
	return "vocab-backup-" + t.Format("2006-01-02") + ".json"
}

// EncodeState returns compact JSON for s. It is the persisted form.
func EncodeState(s domain.Snapshot) ([]byte, error) {
	data, err := json.Marshal(wireOf(s))
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeJSON parses a snapshot document. The top level must be an object,
// "words" an array and "counts" an object. Malformed individual entries are
// kept as blank entries so restore can count and skip them.
func DecodeJSON(data []byte) (domain.Snapshot, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil || top == nil {
		return domain.Snapshot{}, fmt.Errorf("%w: not a JSON object", domain.ErrMalformedPayload)
	}

	var words []json.RawMessage
	if !isKind(top["words"], '[') || json.Unmarshal(top["words"], &words) != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: words must be an array", domain.ErrMalformedPayload)
	}
	var counts map[string]json.RawMessage
	if !isKind(top["counts"], '{') || json.Unmarshal(top["counts"], &counts) != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: counts must be an object", domain.ErrMalformedPayload)
	}

	s := domain.Snapshot{
		FormatVersion: domain.FormatVersion,
		Entries:       make([]domain.Entry, 0, len(words)),
		Counters:      make(domain.Counters, len(counts)),
	}
	if raw, ok := top["version"]; ok {
		var v int
		if json.Unmarshal(raw, &v) == nil && v > 0 {
			s.FormatVersion = v
		}
	}
	if raw, ok := top["updatedAt"]; ok {
		_ = json.Unmarshal(raw, &s.ExportedAt)
	}

	for _, raw := range words {
		var e domain.Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			e = domain.Entry{}
		}
		s.Entries = append(s.Entries, e)
	}
	for id, raw := range counts {
		s.Counters[id] = coerceCount(raw)
	}
	return s, nil
}

type wireSnapshot struct {
	Version   int             `json:"version"`
	Words     []domain.Entry  `json:"words"`
	Counts    domain.Counters `json:"counts"`
	UpdatedAt domain.Millis   `json:"updatedAt"`
}

func wireOf(s domain.Snapshot) wireSnapshot {
	w := wireSnapshot{
		Version:   s.FormatVersion,
		Words:     s.Entries,
		Counts:    s.Counters,
		UpdatedAt: s.ExportedAt,
	}
	if w.Words == nil {
		w.Words = []domain.Entry{}
	}
	if w.Counts == nil {
		w.Counts = domain.Counters{}
	}
	return w
}

func isKind(raw json.RawMessage, open byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == open
}

// coerceCount turns any JSON value into a non-negative integer count.
// Numbers are floored, numeric strings parsed, true is 1, the rest is 0.
func coerceCount(raw json.RawMessage) int {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}

	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if t {
			f = 1
		}
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	if f > maxCount {
		return maxCount
	}
	return int(math.Floor(f))
}
