// Package applications owns the merged set of assessed applications: the
// built-in sample applicants plus whatever has been persisted.
package applications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"credit-risk-console/internal/common/logger"
	"credit-risk-console/internal/common/metrics"
	"credit-risk-console/internal/scoring"
)

// ErrRecordNotFound is returned by Find for an unknown id.
var ErrRecordNotFound = errors.New("application not found")

// errUndecodable marks a stored payload that is not a record list. Only
// this failure lets Add replace the stored set.
var errUndecodable = errors.New("stored payload is not a record list")

// StorageError reports a failed read or write of the persisted set. The
// store stays usable after one: loads fall back to seed data, records added
// while storage is unreadable are held as pending, and failed saves are kept
// in session memory.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("application store %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Store merges seed records with persisted ones. Safe for concurrent use
// within a process.
type Store struct {
	storage Storage
	seed    []Record
	logger  logger.Logger
	ids     *idGenerator

	mu sync.Mutex
	// session holds the last set that could not be persisted.
	session []Record
	// pending holds records added while storage could not be read, newest
	// first. They are overlaid on every load until a save succeeds.
	pending []Record
}

// NewStore builds a store over storage. A nil seed means no sample records.
func NewStore(storage Storage, seed []Record, log logger.Logger) *Store {
	return &Store{
		storage: storage,
		seed:    cloneRecords(seed),
		logger:  log.Named("store"),
		ids:     newIDGenerator(time.Now),
	}
}

// Load returns seed records overlaid with stored ones, stored winning on id.
// Order is the first-seen order of ids across seed then storage. On a read
// or decode failure the seed set is returned together with a *StorageError.
// Pending records sit in front either way.
func (s *Store) Load(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) ([]Record, error) {
	if s.session != nil {
		return cloneRecords(s.session), nil
	}

	raw, err := s.storage.Get(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return s.withPending(cloneRecords(s.seed)), nil
		}
		return s.withPending(cloneRecords(s.seed)), s.storageFailure("load", err)
	}

	var stored []Record
	if err := json.Unmarshal(raw, &stored); err != nil {
		return s.withPending(cloneRecords(s.seed)), s.storageFailure("load", fmt.Errorf("%w: %v", errUndecodable, err))
	}
	return s.withPending(merge(s.seed, stored)), nil
}

func (s *Store) withPending(records []Record) []Record {
	for i := len(s.pending) - 1; i >= 0; i-- {
		records = prepend(records, s.pending[i])
	}
	return records
}

// prepend puts record first and drops any other record with its id.
func prepend(records []Record, record Record) []Record {
	next := make([]Record, 0, len(records)+1)
	next = append(next, record)
	for _, r := range records {
		if r.ID != record.ID {
			next = append(next, r)
		}
	}
	return next
}

// Save overwrites the persisted set. On failure the set is kept in session
// memory so later loads in this process still see it.
func (s *Store) Save(ctx context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, records)
}

func (s *Store) save(ctx context.Context, records []Record) error {
	raw, err := json.Marshal(records)
	if err != nil {
		s.session = cloneRecords(records)
		return s.storageFailure("save", fmt.Errorf("encode: %w", err))
	}
	if err := s.storage.Set(ctx, raw); err != nil {
		s.session = cloneRecords(records)
		return s.storageFailure("save", err)
	}
	s.session = nil
	s.pending = nil
	return nil
}

// Add puts record first, replacing any record with the same id, and saves
// the whole set. When storage cannot be read the stored set is never
// overwritten: the record is held as pending and the load error returned.
// An undecodable payload is replaced by seed records plus record.
func (s *Store) Add(ctx context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		if !errors.Is(err, errUndecodable) {
			s.pending = prepend(s.pending, record)
			s.logger.Warn("storage unreadable, record held for this session", map[string]interface{}{
				"id":      record.ID,
				"pending": len(s.pending),
			})
			return err
		}
		s.logger.Warn("replacing undecodable stored payload", map[string]interface{}{"error": err})
	}

	return s.save(ctx, prepend(current, record))
}

// GenerateID returns a new APP-<YYYYMMDDHHMMSS>-<NNN> id.
func (s *Store) GenerateID() string {
	return s.ids.next()
}

// Find returns the record with the given id.
func (s *Store) Find(ctx context.Context, id string) (Record, error) {
	for _, r := range s.view(ctx) {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, ErrRecordNotFound
}

// Query filters the merged set. Search matches name or id without regard to
// case; tier and status must match exactly.
func (s *Store) Query(ctx context.Context, f Filter) []Record {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := []Record{}
	for _, r := range s.view(ctx) {
		if search != "" &&
			!strings.Contains(strings.ToLower(r.Name), search) &&
			!strings.Contains(strings.ToLower(r.ID), search) {
			continue
		}
		if !matchesAll(f.RiskTier, r.RiskTier) || !matchesAll(f.Status, r.Status) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Stats counts records per tier and averages their default probability.
func (s *Store) Stats(ctx context.Context) Stats {
	return Summarize(s.view(ctx))
}

// Summarize computes Stats over an arbitrary record slice.
func Summarize(records []Record) Stats {
	var st Stats
	var sum float64
	for _, r := range records {
		st.Total++
		sum += r.DefaultProbability
		switch r.RiskTier {
		case scoring.RiskLow:
			st.Low++
		case scoring.RiskMedium:
			st.Medium++
		case scoring.RiskHigh:
			st.High++
		}
	}
	if st.Total > 0 {
		st.AvgDefaultProbability = sum / float64(st.Total)
	}
	return st
}

// SortByRecency orders records with a creation time newest first; records
// without one keep their relative order after them.
func SortByRecency(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].CreatedAt, records[j].CreatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}

func (s *Store) view(ctx context.Context) []Record {
	records, err := s.Load(ctx)
	if err != nil {
		s.logger.Warn("serving seed records after load failure", map[string]interface{}{"error": err})
	}
	return records
}

func (s *Store) storageFailure(op string, err error) error {
	metrics.StorageFailures.WithLabelValues(op).Inc()
	s.logger.Warn("application storage failure", map[string]interface{}{
		"op":    op,
		"error": err,
	})
	return &StorageError{Op: op, Err: err}
}

func merge(seed, stored []Record) []Record {
	byID := make(map[string]int, len(seed)+len(stored))
	out := make([]Record, 0, len(seed)+len(stored))
	for _, group := range [][]Record{seed, stored} {
		for _, r := range group {
			if i, ok := byID[r.ID]; ok {
				out[i] = r
				continue
			}
			byID[r.ID] = len(out)
			out = append(out, r)
		}
	}
	return out
}

func matchesAll(want, got string) bool {
	return want == "" || strings.EqualFold(want, "ALL") || want == got
}
