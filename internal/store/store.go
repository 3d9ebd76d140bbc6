package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/pretorin-ai/govbizops/internal/model"
)

// storeFileMode keeps the store private to the owner; entries can carry
// procurement detail the owner may not want world-readable.
const storeFileMode = 0o600

// ErrCorruptStore is returned by Open when the store file exists but does
// not parse. The file is left untouched so it can be inspected or
// recovered by hand; starting over silently would lose the dedup history.
var ErrCorruptStore = errors.New("store file is corrupt")

// Store is the deduplicating opportunity store backed by one JSON file.
//
// All methods are safe for concurrent use. Mutations only touch the
// in-memory map; nothing reaches disk until Persist is called, so a
// failed collection cycle can abandon its changes by not persisting.
type Store struct {
	mu sync.RWMutex

	// path is the JSON file backing the store.
	path string

	// records maps notice ID to its stored entry.
	records map[string]*model.StoredRecord

	// logger is used for load/persist diagnostics.
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open loads the store file at path. A missing file yields an empty
// store; the file is created on the first Persist. A file that exists
// but does not parse returns ErrCorruptStore.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path:    path,
		records: make(map[string]*model.StoredRecord),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("store file not found, starting empty", "path", path)
			return s, nil
		}
		return nil, fmt.Errorf("failed to read store file %s: %w", path, err)
	}

	if len(data) == 0 {
		return s, nil
	}

	if err := json.Unmarshal(data, &s.records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptStore, path, err)
	}

	s.logger.Debug("store loaded", "path", path, "records", len(s.records))
	return s, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// IsNew reports whether the notice ID has not been collected before.
func (s *Store) IsNew(noticeID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[noticeID]
	return !ok
}

// Accept adds the opportunity to the store with the given collection
// timestamp. If the notice ID is already present the stored entry is left
// untouched and Accept reports false. Records without a notice ID are
// rejected: they cannot participate in deduplication.
func (s *Store) Accept(op model.Opportunity, collectedAt time.Time) bool {
	if op.NoticeID == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[op.NoticeID]; ok {
		return false
	}
	s.records[op.NoticeID] = &model.StoredRecord{
		CollectedDate: collectedAt,
		Data:          op,
	}
	return true
}

// Get returns a copy of the stored entry for the notice ID.
func (s *Store) Get(noticeID string) (model.StoredRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[noticeID]
	if !ok {
		return model.StoredRecord{}, false
	}
	return *r, true
}

// SetDescription caches a resolved detail description on an existing
// entry. Reports false when the notice ID is not in the store.
func (s *Store) SetDescription(noticeID, description string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[noticeID]
	if !ok {
		return false
	}
	r.Description = description
	return true
}

// All returns every stored entry ordered by collection time, oldest
// first. Ties are broken by notice ID so the order is deterministic.
func (s *Store) All() []model.StoredRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.StoredRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CollectedDate.Equal(out[j].CollectedDate) {
			return out[i].CollectedDate.Before(out[j].CollectedDate)
		}
		return out[i].Data.NoticeID < out[j].Data.NoticeID
	})
	return out
}

// ByWindow returns the entries collected within the window, inclusive at
// both ends, ordered oldest first.
func (s *Store) ByWindow(w model.Window) []model.StoredRecord {
	all := s.All()
	out := make([]model.StoredRecord, 0, len(all))
	for _, r := range all {
		if r.CollectedDate.Before(w.From) || r.CollectedDate.After(w.To) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ByCode returns the entries whose NAICS code list contains the given
// code, ordered oldest first.
func (s *Store) ByCode(code string) []model.StoredRecord {
	all := s.All()
	out := make([]model.StoredRecord, 0, len(all))
	for _, r := range all {
		for _, c := range r.Data.Codes() {
			if c == code {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Summary aggregates the store contents for reporting.
type Summary struct {
	// Total is the number of stored records.
	Total int

	// ByCode counts records per NAICS code. Records carrying several codes
	// count once per code.
	ByCode map[string]int

	// ByType counts records per upstream type string.
	ByType map[string]int

	// Oldest and Newest are the collection-time bounds. Zero when the
	// store is empty.
	Oldest time.Time
	Newest time.Time
}

// Summarize builds a Summary of the current store contents.
func (s *Store) Summarize() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{
		Total:  len(s.records),
		ByCode: make(map[string]int),
		ByType: make(map[string]int),
	}
	for _, r := range s.records {
		for _, c := range r.Data.Codes() {
			sum.ByCode[c]++
		}
		if r.Data.Type != "" {
			sum.ByType[r.Data.Type]++
		}
		if sum.Oldest.IsZero() || r.CollectedDate.Before(sum.Oldest) {
			sum.Oldest = r.CollectedDate
		}
		if r.CollectedDate.After(sum.Newest) {
			sum.Newest = r.CollectedDate
		}
	}
	return sum
}

// Persist writes the store to disk atomically: the full contents go to a
// temporary file in the same directory, which then replaces the store
// file by rename. A crash mid-persist leaves the previous file intact.
func (s *Store) Persist() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.records, "", "  ")
	n := len(s.records)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create store directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary store file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temporary store file: %w", err)
	}
	if err := tmp.Chmod(storeFileMode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to set store file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temporary store file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace store file %s: %w", s.path, err)
	}

	s.logger.Debug("store persisted", "path", s.path, "records", n)
	return nil
}
