// Package feed provides the Observation source: per-pair sequences of macro
// indicator readings loaded from disk, with an in-memory cache and a
// deterministic sample-data generator for pairs with no recorded history.
package feed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/atlas-desktop/macrosignal/pkg/types"
)

// Record is one on-disk, timestamped Observation. Values round-trip through
// decimal.Decimal at the storage boundary so the JSON on disk keeps the
// precision it was recorded with; the engine core itself only ever sees the
// float64 conversion (spec.md §3 defines Observation as indicator -> f64).
type Record struct {
	Timestamp time.Time                  `json:"timestamp"`
	Values    map[string]decimal.Decimal `json:"values"`
}

// SeriesMetadata describes what a pair has on disk, mirroring the teacher's
// SymbolMetadata but keyed by pair name instead of exchange symbol.
type SeriesMetadata struct {
	Pair      string    `json:"pair"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	RecordCount int     `json:"recordCount"`
}

// Store loads and caches Observation series for instrument pairs.
type Store struct {
	mu       sync.RWMutex
	logger   *zap.Logger
	dataDir  string
	cache    map[string][]Record
	metadata map[string]*SeriesMetadata
}

// NewStore creates a Store rooted at dataDir, creating the directory if
// necessary and loading any previously saved metadata index.
func NewStore(logger *zap.Logger, dataDir string) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	store := &Store{
		logger:   logger.Named("feed"),
		dataDir:  dataDir,
		cache:    make(map[string][]Record),
		metadata: make(map[string]*SeriesMetadata),
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("feed: creating data directory: %w", err)
	}

	if err := store.loadMetadata(); err != nil {
		store.logger.Warn("failed to load feed metadata", zap.Error(err))
	}

	return store, nil
}

// LoadSeries returns the Observation records for pair within [start, end],
// sorted by timestamp. A pair with no file on disk gets a deterministic
// generated series instead of an error, matching the teacher's sample-data
// fallback so a fresh checkout is runnable without external data.
func (s *Store) LoadSeries(pair string, start, end time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.cache[pair]; ok {
		return filterByRange(cached, start, end), nil
	}

	filename := s.filenameFor(pair)
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("no recorded series found, generating sample observations", zap.String("pair", pair))
			generated := generateSampleSeries(pair, start, end)
			s.cache[pair] = generated
			return filterByRange(generated, start, end), nil
		}
		return nil, fmt.Errorf("feed: reading %s: %w", filename, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("feed: parsing %s: %w", filename, err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	s.cache[pair] = records
	return filterByRange(records, start, end), nil
}

// SaveSeries writes records to disk for pair and refreshes its metadata.
func (s *Store) SaveSeries(pair string, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("feed: marshaling %s: %w", pair, err)
	}

	if err := os.WriteFile(s.filenameFor(pair), data, 0644); err != nil {
		return fmt.Errorf("feed: writing %s: %w", pair, err)
	}

	s.cache[pair] = records
	if len(records) > 0 {
		s.metadata[pair] = &SeriesMetadata{
			Pair:        pair,
			StartDate:   records[0].Timestamp,
			EndDate:     records[len(records)-1].Timestamp,
			RecordCount: len(records),
		}
	}

	return s.saveMetadata()
}

// ToObservation converts a Record's decimal values into the float64-valued
// Observation the engine core consumes.
func ToObservation(r Record) types.Observation {
	obs := make(types.Observation, len(r.Values))
	for k, v := range r.Values {
		f, _ := v.Float64()
		obs[k] = f
	}
	return obs
}

// AvailablePairs returns every pair this store currently has metadata for.
func (s *Store) AvailablePairs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pairs := make([]string, 0, len(s.metadata))
	for pair := range s.metadata {
		pairs = append(pairs, pair)
	}
	sort.Strings(pairs)
	return pairs
}

// ClearCache drops the in-memory series cache, forcing the next LoadSeries
// call to re-read from disk (or regenerate sample data).
func (s *Store) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string][]Record)
}

func (s *Store) filenameFor(pair string) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("%s.json", pair))
}

func filterByRange(records []Record, start, end time.Time) []Record {
	var filtered []Record
	for _, r := range records {
		if (r.Timestamp.Equal(start) || r.Timestamp.After(start)) &&
			(r.Timestamp.Equal(end) || r.Timestamp.Before(end)) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func (s *Store) loadMetadata() error {
	filename := filepath.Join(s.dataDir, "metadata.json")
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var metadata map[string]*SeriesMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return err
	}
	s.metadata = metadata
	return nil
}

func (s *Store) saveMetadata() error {
	filename := filepath.Join(s.dataDir, "metadata.json")
	data, err := json.MarshalIndent(s.metadata, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}
