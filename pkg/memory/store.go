package memory

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/engramhq/engram/config"
)

// Default metadata for records stored without explicit values.
const (
	DefaultTag        = "neutral"
	DefaultImportance = 0.5
)

// Associative scoring weights. The direct match dominates, the tag match is
// secondary, and importance, recency, and access frequency contribute small
// adjustments on top.
const (
	weightDirectMatch = 0.5
	weightTagMatch    = 0.3
	weightImportance  = 0.2
	weightRecency     = 0.1
	accessBonusStep   = 0.01
	accessBonusCap    = 0.1

	// coordinateBase is the score of a coordinate match at distance zero.
	coordinateBase = 0.9
)

// storeLogger is the minimal logger interface used by Store.
type storeLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// nopStoreLogger is a no-op logger.
type nopStoreLogger struct{}

func (n *nopStoreLogger) Debug(msg string, args ...any) {}
func (n *nopStoreLogger) Info(msg string, args ...any)  {}
func (n *nopStoreLogger) Warn(msg string, args ...any)  {}
func (n *nopStoreLogger) Error(msg string, args ...any) {}

// Store owns the record set, the primary key index, the derived coordinate
// index, and the symmetric link graph. Records are append-only: they are
// never evicted, and unbounded growth is an accepted property of the design.
type Store struct {
	mu sync.RWMutex

	cfg     *config.StoreConfig
	coordFn CoordinateFunc
	now     func() time.Time
	logger  storeLogger

	records map[string]*Record
	order   []string // keys in insertion order, for stable tie-breaking
	links   map[string]map[string]struct{}
	coords  map[string]Point
}

// Option customizes Store construction.
type Option func(*Store)

// WithCoordinateFunc overrides the coordinate derivation. Tests use this to
// force coordinate collisions between unrelated keys.
func WithCoordinateFunc(fn CoordinateFunc) Option {
	return func(s *Store) {
		if fn != nil {
			s.coordFn = fn
		}
	}
}

// WithClock overrides the time source used for created-at stamps and
// recency scoring.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty Store from configuration.
func NewStore(cfg *config.StoreConfig, logger storeLogger, opts ...Option) *Store {
	if cfg == nil {
		def := config.DefaultConfig().Store
		cfg = &def
	}
	if logger == nil {
		logger = &nopStoreLogger{}
	}

	s := &Store{
		cfg:     cfg,
		coordFn: HashCoordinate,
		now:     time.Now,
		logger:  logger,
		records: make(map[string]*Record),
		links:   make(map[string]map[string]struct{}),
		coords:  make(map[string]Point),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store inserts or overwrites a record and returns its key. On overwrite
// the value, tag, and importance are replaced, CreatedAt is reset, and the
// record's links are cleared (symmetrically, so the link-graph invariant
// holds), but AccessCount is preserved.
func (s *Store) Store(key, value, tag string, importance float64) string {
	if tag == "" {
		tag = DefaultTag
	}
	importance = clamp01(importance)

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.records[key]
	rec := &Record{
		Key:        key,
		Value:      value,
		Tag:        tag,
		Importance: importance,
		CreatedAt:  s.now(),
	}
	if exists {
		rec.AccessCount = prev.AccessCount
		s.unlinkAllLocked(key)
		s.logger.Debug("memory record overwritten", "key", key)
	} else {
		s.order = append(s.order, key)
	}

	s.records[key] = rec
	s.links[key] = make(map[string]struct{})
	s.coords[key] = s.coordFn(key)
	return key
}

// Link adds a bidirectional edge between two existing keys. Linking a
// missing key, or a key to itself, is a no-op.
func (s *Store) Link(a, b string) {
	if a == b {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[a]; !ok {
		return
	}
	if _, ok := s.records[b]; !ok {
		return
	}
	s.links[a][b] = struct{}{}
	s.links[b][a] = struct{}{}
}

// Linked returns the keys linked to the given key, in sorted order.
func (s *Store) Linked(key string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.links[key]
	if !ok || len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Touch increments the access counter of a record. Touching a missing key
// is a no-op.
func (s *Store) Touch(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[key]; ok {
		rec.AccessCount++
	}
}

// Recall returns every record scoring at or above the recall threshold on
// the associative channel, plus every record within the coordinate radius
// of the query's coordinate, sorted by score descending. Ties keep
// insertion order. The same key may appear once per channel.
func (s *Store) Recall(query string) []RecallResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	queryLower := strings.ToLower(query)
	var results []RecallResult

	for _, key := range s.order {
		rec := s.records[key]
		score := s.associativeScoreLocked(queryLower, rec, now)
		if score >= s.cfg.RecallThreshold {
			results = append(results, RecallResult{
				Key:     key,
				Score:   score,
				Channel: ChannelAssociative,
				Value:   rec.Value,
				Tag:     rec.Tag,
			})
		}
	}

	target := s.coordFn(query)
	for _, key := range s.order {
		d := target.Distance(s.coords[key])
		if d <= s.cfg.CoordinateRadius {
			rec := s.records[key]
			results = append(results, RecallResult{
				Key:      key,
				Score:    coordinateBase - d,
				Channel:  ChannelCoordinate,
				Value:    rec.Value,
				Tag:      rec.Tag,
				Distance: d,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// associativeScoreLocked computes the associative relevance of one record.
func (s *Store) associativeScoreLocked(queryLower string, rec *Record, now time.Time) float64 {
	score := 0.0

	if strings.Contains(strings.ToLower(rec.Key), queryLower) ||
		strings.Contains(strings.ToLower(rec.Value), queryLower) {
		score += weightDirectMatch
	}
	if strings.Contains(strings.ToLower(rec.Tag), queryLower) {
		score += weightTagMatch
	}

	score += rec.Importance * weightImportance

	ageDays := now.Sub(rec.CreatedAt).Hours() / 24
	recency := 1 - ageDays/s.cfg.RecencyWindowDays
	if recency < 0 {
		recency = 0
	}
	score += recency * weightRecency

	bonus := float64(rec.AccessCount) * accessBonusStep
	if bonus > accessBonusCap {
		bonus = accessBonusCap
	}
	score += bonus

	return score
}

// Get returns a copy of the record for the given key.
func (s *Store) Get(key string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[key]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Coordinate returns the derived coordinate for a key. The result is the
// same whether or not the key is stored.
func (s *Store) Coordinate(key string) Point {
	return s.coordFn(key)
}

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// List returns records in insertion order with pagination, plus the total.
func (s *Store) List(limit, offset int) ([]Record, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.order)
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 || offset >= total {
		return nil, total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	out := make([]Record, 0, end-offset)
	for _, key := range s.order[offset:end] {
		out = append(out, *s.records[key])
	}
	return out, total
}

// Stats returns aggregate statistics.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Records: len(s.records)}
	if len(s.records) == 0 {
		return stats
	}

	totalImportance := 0.0
	edges := 0
	for _, rec := range s.records {
		totalImportance += rec.Importance
		stats.TotalAccesses += rec.AccessCount
	}
	for _, set := range s.links {
		edges += len(set)
	}
	stats.AverageImportance = totalImportance / float64(len(s.records))
	stats.Links = edges / 2
	return stats
}

// Export returns a portable snapshot of the full store state.
func (s *Store) Export() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Records: make([]RecordSnapshot, 0, len(s.order)),
		Links:   make(map[string][]string),
	}
	for _, key := range s.order {
		rec := s.records[key]
		snap.Records = append(snap.Records, RecordSnapshot{
			Key:         rec.Key,
			Value:       rec.Value,
			Tag:         rec.Tag,
			Importance:  rec.Importance,
			CreatedAt:   rec.CreatedAt,
			AccessCount: rec.AccessCount,
		})
	}
	for key, set := range s.links {
		if len(set) == 0 {
			continue
		}
		neighbors := make([]string, 0, len(set))
		for k := range set {
			neighbors = append(neighbors, k)
		}
		sort.Strings(neighbors)
		snap.Links[key] = neighbors
	}
	return snap
}

// Restore replaces the store contents with a snapshot. The existing state
// is left untouched if the snapshot is invalid. Link entries referencing
// unknown keys are rejected; links are re-symmetrized on load.
func (s *Store) Restore(snap Snapshot) error {
	records := make(map[string]*Record, len(snap.Records))
	order := make([]string, 0, len(snap.Records))
	links := make(map[string]map[string]struct{}, len(snap.Records))
	coords := make(map[string]Point, len(snap.Records))

	for _, rs := range snap.Records {
		if rs.Key == "" {
			return fmt.Errorf("memory: snapshot record with empty key")
		}
		if _, dup := records[rs.Key]; dup {
			return fmt.Errorf("memory: duplicate key %q in snapshot", rs.Key)
		}
		records[rs.Key] = &Record{
			Key:         rs.Key,
			Value:       rs.Value,
			Tag:         rs.Tag,
			Importance:  clamp01(rs.Importance),
			CreatedAt:   rs.CreatedAt,
			AccessCount: rs.AccessCount,
		}
		order = append(order, rs.Key)
		links[rs.Key] = make(map[string]struct{})
	}

	for key, neighbors := range snap.Links {
		if _, ok := records[key]; !ok {
			return fmt.Errorf("memory: link source %q not in snapshot", key)
		}
		for _, n := range neighbors {
			if _, ok := records[n]; !ok {
				return fmt.Errorf("memory: link target %q not in snapshot", n)
			}
			if n == key {
				continue
			}
			links[key][n] = struct{}{}
			links[n][key] = struct{}{}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range order {
		coords[key] = s.coordFn(key)
	}
	s.records = records
	s.order = order
	s.links = links
	s.coords = coords
	return nil
}

// unlinkAllLocked removes every edge touching key. Caller holds the lock.
func (s *Store) unlinkAllLocked(key string) {
	for neighbor := range s.links[key] {
		delete(s.links[neighbor], key)
	}
	s.links[key] = make(map[string]struct{})
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
