package session

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Flash levels.
const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

const flashKey = "_messages"

type Flash struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// Session is one visitor's key-value bag. Values are kept as raw JSON so the
// store never needs to know their Go types.
type Session struct {
	ID       string
	values   map[string]json.RawMessage
	modified bool
}

func New() *Session {
	return &Session{
		ID:     uuid.NewString(),
		values: make(map[string]json.RawMessage),
	}
}

func newWithValues(id string, values map[string]json.RawMessage) *Session {
	if values == nil {
		values = make(map[string]json.RawMessage)
	}
	return &Session{ID: id, values: values}
}

// Get decodes the value under key into dst and reports whether it was present.
func (s *Session) Get(key string, dst any) (bool, error) {
	raw, ok := s.values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("decode session key %q: %w", key, err)
	}
	return true, nil
}

func (s *Session) GetString(key string) string {
	var v string
	if ok, err := s.Get(key, &v); !ok || err != nil {
		return ""
	}
	return v
}

func (s *Session) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode session key %q: %w", key, err)
	}
	s.values[key] = raw
	s.modified = true
	return nil
}

func (s *Session) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Delete removes key. Deleting an absent key does not mark the session modified.
func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.modified = true
}

func (s *Session) Modified() bool {
	return s.modified
}

func (s *Session) AddFlash(level, text string) {
	var flashes []Flash
	_, _ = s.Get(flashKey, &flashes)
	flashes = append(flashes, Flash{Level: level, Text: text})
	_ = s.Set(flashKey, flashes)
}

// PopFlashes returns and clears the pending flash messages.
func (s *Session) PopFlashes() []Flash {
	var flashes []Flash
	if ok, err := s.Get(flashKey, &flashes); !ok || err != nil {
		s.Delete(flashKey)
		return nil
	}
	s.Delete(flashKey)
	return flashes
}
