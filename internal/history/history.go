package history

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/studiowebux/clicker/internal/kv"
)

const (
	// StorageKey is the kv key holding the serialized list
	StorageKey = "clicker_connection_history"
	// MaxEntries caps the list length
	MaxEntries = 5
)

// Entry is one recently used endpoint
type Entry struct {
	URL           string `json:"url"`
	Name          string `json:"name"`
	LastConnected int64  `json:"lastConnected"` // Unix milliseconds
}

// LastConnectedAt returns LastConnected as a time
func (e Entry) LastConnectedAt() time.Time {
	return time.UnixMilli(e.LastConnected)
}

// Store keeps the most-recently-used endpoints, newest first
type Store struct {
	kv  kv.Store
	now func() time.Time
}

// NewStore creates a history store on top of a kv store
func NewStore(store kv.Store) *Store {
	return &Store{kv: store, now: time.Now}
}

// List returns the stored entries, newest first.
// Unreadable data yields an empty list.
func (s *Store) List() []Entry {
	raw, ok, err := s.kv.Get(StorageKey)
	if err != nil || !ok || raw == "" {
		return []Entry{}
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return []Entry{}
	}
	if entries == nil {
		return []Entry{}
	}
	return entries
}

// Record moves address to the front of the list, adding it if needed.
// An empty label is derived from the address host.
func (s *Store) Record(address, label string) error {
	if label == "" {
		label = labelFor(address)
	}

	// Remove duplicate if exists
	entries := []Entry{}
	for _, e := range s.List() {
		if e.URL != address {
			entries = append(entries, e)
		}
	}

	// Add to front
	entries = append([]Entry{{
		URL:           address,
		Name:          label,
		LastConnected: s.now().UnixMilli(),
	}}, entries...)

	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}

	return s.save(entries)
}

// Remove drops a single address from the list
func (s *Store) Remove(address string) error {
	entries := []Entry{}
	for _, e := range s.List() {
		if e.URL != address {
			entries = append(entries, e)
		}
	}
	return s.save(entries)
}

// Clear empties the history
func (s *Store) Clear() error {
	if err := s.kv.Delete(StorageKey); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

func (s *Store) save(entries []Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := s.kv.Set(StorageKey, string(data)); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

// labelFor extracts the host from a wire address
func labelFor(address string) string {
	if u, err := url.Parse(address); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	trimmed := strings.TrimPrefix(strings.TrimPrefix(address, "ws://"), "wss://")
	return strings.Split(trimmed, ":")[0]
}
