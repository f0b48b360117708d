package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/aoideee/libraryhub/internal/storage"
	"github.com/aoideee/libraryhub/internal/validator"
)

// Storage keys. The library document holds the five core collections; the
// side collections live under their own keys.
const (
	DocumentKey = "library_data"
	FeedbackKey = "library_feedback"
	ResearchKey = "library_research_papers"
)

// Document is the serialized shape stored under DocumentKey.
type Document struct {
	Books                  []*Book                  `json:"books"`
	Borrowers              []*Borrower              `json:"borrowers"`
	Librarians             []*Librarian             `json:"librarians"`
	Borrowings             []*Borrowing             `json:"borrowings"`
	MembershipApplications []*MembershipApplication `json:"membershipApplications"`
}

// EmptyDocument returns the default document with every collection present.
func EmptyDocument() *Document {
	return &Document{
		Books:                  []*Book{},
		Borrowers:              []*Borrower{},
		Librarians:             []*Librarian{},
		Borrowings:             []*Borrowing{},
		MembershipApplications: []*MembershipApplication{},
	}
}

// RecoveryMode controls what AggressiveCleanup discards.
type RecoveryMode string

const (
	// RecoverReset replaces the whole document when any collection is corrupted.
	RecoverReset RecoveryMode = "reset"
	// RecoverIsolate empties only the corrupted collections.
	RecoverIsolate RecoveryMode = "isolate"
)

// ParseRecoveryMode maps a config value onto a RecoveryMode. Empty means reset.
func ParseRecoveryMode(s string) (RecoveryMode, error) {
	switch RecoveryMode(s) {
	case "", RecoverReset:
		return RecoverReset, nil
	case RecoverIsolate:
		return RecoverIsolate, nil
	default:
		return "", fmt.Errorf("unknown recovery mode %q", s)
	}
}

// Options tune a Store. Zero values pick sensible defaults.
type Options struct {
	Logger   *slog.Logger
	Recovery RecoveryMode
	Now      func() time.Time
	NewID    func() int64
}

// Store owns the serialized documents behind a storage.Backend. All record
// stores share one Store; its mutex serializes every load-modify-persist cycle.
type Store struct {
	backend  storage.Backend
	logger   *slog.Logger
	recovery RecoveryMode
	now      func() time.Time
	newID    func() int64

	mu sync.Mutex
}

// NewStore wraps backend.
func NewStore(backend storage.Backend, opts Options) *Store {
	s := &Store{
		backend:  backend,
		logger:   opts.Logger,
		recovery: opts.Recovery,
		now:      opts.Now,
		newID:    opts.NewID,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.recovery == "" {
		s.recovery = RecoverReset
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() int64 { return time.Now().UnixMilli() + rand.Int64N(1000) }
	}
	return s
}

// errNoChange aborts an update without writing anything back.
var errNoChange = errors.New("no change")

// nextID draws ids until one is not taken.
func (s *Store) nextID(taken func(int64) bool) int64 {
	for {
		if id := s.newID(); id > 0 && !taken(id) {
			return id
		}
	}
}

func (s *Store) today() string {
	return s.now().UTC().Format(validator.DateLayout)
}

// readRaw returns the stored blob, or nil when the key is empty.
func (s *Store) readRaw(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return raw, nil
}

func (s *Store) writeJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.backend.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

// persistRepaired writes a cleaned value back. Failures are logged only: the
// caller already holds a usable in-memory copy.
func (s *Store) persistRepaired(ctx context.Context, key string, report RepairReport, v any) {
	for name, n := range report.Dropped {
		s.logger.Warn("dropped invalid records", "key", key, "collection", name, "count", n)
	}
	if report.Malformed {
		s.logger.Warn("stored document was unreadable, reinitialized", "key", key)
	}
	if err := s.writeJSON(ctx, key, v); err != nil {
		s.logger.Error("persist repaired document", "key", key, "error", err)
	}
}

// loadDocument reads and repairs the library document. Must hold s.mu.
func (s *Store) loadDocument(ctx context.Context) (*Document, error) {
	raw, err := s.readRaw(ctx, DocumentKey)
	if err != nil {
		return nil, err
	}
	doc, report := RepairDocument(raw)
	if report.Dirty() {
		s.persistRepaired(ctx, DocumentKey, report, doc)
	}
	return doc, nil
}

// view runs fn against a freshly loaded document.
func (s *Store) view(ctx context.Context, fn func(*Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.loadDocument(ctx)
	if err != nil {
		return err
	}
	return fn(doc)
}

// update runs fn against a freshly loaded document and persists the whole
// document when fn succeeds. errNoChange skips the write.
func (s *Store) update(ctx context.Context, fn func(*Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.loadDocument(ctx)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	}
	return s.writeJSON(ctx, DocumentKey, doc)
}

// Snapshot returns the repaired library document.
func (s *Store) Snapshot(ctx context.Context) (*Document, error) {
	var out *Document
	err := s.view(ctx, func(doc *Document) error {
		out = doc
		return nil
	})
	return out, err
}

// Repair loads every stored document through the repair filter, persisting
// cleaned copies, and reports what was dropped per key.
func (s *Store) Repair(ctx context.Context) (map[string]RepairReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports := make(map[string]RepairReport, 3)

	raw, err := s.readRaw(ctx, DocumentKey)
	if err != nil {
		return nil, err
	}
	doc, report := RepairDocument(raw)
	if report.Dirty() {
		s.persistRepaired(ctx, DocumentKey, report, doc)
	}
	reports[DocumentKey] = report

	if reports[FeedbackKey], err = repairStored[Feedback](ctx, s, feedbackList); err != nil {
		return nil, err
	}
	if reports[ResearchKey], err = repairStored[ResearchPaper](ctx, s, researchList); err != nil {
		return nil, err
	}
	return reports, nil
}

// listSpec describes a side collection stored under its own key.
type listSpec struct {
	key   string
	name  string
	shape shapeCheck
}

var (
	feedbackList = listSpec{key: FeedbackKey, name: "feedback", shape: idOnly}
	researchList = listSpec{key: ResearchKey, name: "researchPapers", shape: idOnly}
)

// repairList decodes a side collection, dropping invalid records.
func repairList[T any](raw []byte, list listSpec) ([]*T, RepairReport) {
	report := newRepairReport()
	return filterRecords[T](raw, list.name, list.shape, &report), report
}

// loadList reads and repairs a side collection. Must hold s.mu.
func loadList[T any](ctx context.Context, s *Store, list listSpec) ([]*T, RepairReport, error) {
	raw, err := s.readRaw(ctx, list.key)
	if err != nil {
		return nil, RepairReport{}, err
	}
	items, report := repairList[T](raw, list)
	if report.Dirty() {
		s.persistRepaired(ctx, list.key, report, items)
	}
	return items, report, nil
}

func repairStored[T any](ctx context.Context, s *Store, list listSpec) (RepairReport, error) {
	_, report, err := loadList[T](ctx, s, list)
	return report, err
}

func viewList[T any](ctx context.Context, s *Store, list listSpec, fn func([]*T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, _, err := loadList[T](ctx, s, list)
	if err != nil {
		return err
	}
	return fn(items)
}

func updateList[T any](ctx context.Context, s *Store, list listSpec, fn func(*[]*T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, _, err := loadList[T](ctx, s, list)
	if err != nil {
		return err
	}
	if err := fn(&items); err != nil {
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	}
	return s.writeJSON(ctx, list.key, items)
}
