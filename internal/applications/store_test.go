package applications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"credit-risk-console/internal/common/logger/loggertest"
	"credit-risk-console/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type failingStorage struct {
	getErr  error
	setErr  error
	payload []byte
}

func (f *failingStorage) Get(_ context.Context) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.payload == nil {
		return nil, ErrNotFound
	}
	return f.payload, nil
}

func (f *failingStorage) Set(_ context.Context, payload []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.payload = payload
	return nil
}

func createTestStore(t *testing.T, storage Storage) *Store {
	t.Helper()
	if storage == nil {
		storage = NewMemoryStorage()
	}
	return NewStore(storage, Seed(), loggertest.New(t))
}

func createRecord(id, name, tier string, p float64) Record {
	return Record{
		ID:                 id,
		Name:               name,
		DefaultProbability: p,
		RiskTier:           tier,
		Status:             StatusForTier(tier),
		Timestamp:          "Just now",
		Insights: Insights{
			Summary:         "AI-generated insights for " + name,
			TopFactors:      []scoring.RiskFactor{},
			Recommendations: []string{"Proceed with standard terms"},
		},
	}
}

func ids(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

var seedIDs = []string{"APP-2025-001", "APP-2025-002", "APP-2025-003", "APP-2025-004", "APP-2025-005"}

// ==========================
// Seed / Status
// ==========================

func TestSeed_SampleApplicants(t *testing.T) {
	seed := Seed()
	require.Len(t, seed, 5)
	assert.Equal(t, seedIDs, ids(seed))

	for _, r := range seed {
		assert.Equal(t, StatusForTier(r.RiskTier), r.Status, r.ID)
		assert.Len(t, r.Insights.TopFactors, 3, r.ID)
		assert.NotEmpty(t, r.Insights.TopFactors[0].Reason, r.ID)
		assert.NotZero(t, r.Insights.ApplicantData.FicoScore, r.ID)
	}

	emily := seed[2]
	assert.Equal(t, "Emily Rodriguez", emily.Name)
	assert.Equal(t, 0.5, emily.Insights.ApplicantData.Employment())
	assert.Equal(t, float64(20000), emily.Insights.ApplicantData.Loan())
}

func TestStatusForTier(t *testing.T) {
	tests := []struct {
		tier     string
		expected string
	}{
		{tier: scoring.RiskLow, expected: StatusAutoApproved},
		{tier: scoring.RiskMedium, expected: StatusReview},
		{tier: scoring.RiskHigh, expected: StatusManualHold},
		{tier: "UNKNOWN", expected: StatusManualHold},
		{tier: "", expected: StatusManualHold},
		{tier: "low", expected: StatusManualHold},
	}
	for _, tt := range tests {
		t.Run(tt.tier, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusForTier(tt.tier))
		})
	}
}

// ==========================
// Load
// ==========================

func TestStore_Load(t *testing.T) {
	override := createRecord("APP-2025-003", "Emily Rodriguez-Diaz", scoring.RiskLow, 0.2)
	fresh := createRecord("APP-20251017093000-512", "New Applicant", scoring.RiskHigh, 0.9)

	tests := []struct {
		name           string
		payload        string
		expectLoadErr  bool
		validateOutput func(t *testing.T, records []Record)
	}{
		{
			name: "nothing stored returns seed",
			validateOutput: func(t *testing.T, records []Record) {
				assert.Equal(t, seedIDs, ids(records))
			},
		},
		{
			name:    "stored record overrides seed in place and new ids follow",
			payload: mustJSON(t, []Record{fresh, override}),
			validateOutput: func(t *testing.T, records []Record) {
				assert.Equal(t, append(append([]string{}, seedIDs...), fresh.ID), ids(records))
				assert.Equal(t, "Emily Rodriguez-Diaz", records[2].Name)
				assert.Equal(t, StatusAutoApproved, records[2].Status)
			},
		},
		{
			name:    "empty stored array",
			payload: `[]`,
			validateOutput: func(t *testing.T, records []Record) {
				assert.Equal(t, seedIDs, ids(records))
			},
		},
		{
			name:          "corrupt payload falls back to seed",
			payload:       `{not json`,
			expectLoadErr: true,
			validateOutput: func(t *testing.T, records []Record) {
				assert.Equal(t, seedIDs, ids(records))
			},
		},
		{
			name:          "structurally incompatible payload falls back to seed",
			payload:       `{"id": "APP-1"}`,
			expectLoadErr: true,
			validateOutput: func(t *testing.T, records []Record) {
				assert.Equal(t, seedIDs, ids(records))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := NewMemoryStorage()
			if tt.payload != "" {
				require.NoError(t, storage.Set(context.Background(), []byte(tt.payload)))
			}
			store := createTestStore(t, storage)

			records, err := store.Load(context.Background())
			if tt.expectLoadErr {
				var se *StorageError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, "load", se.Op)
			} else {
				require.NoError(t, err)
			}
			tt.validateOutput(t, records)
		})
	}
}

func TestStore_Load_StorageUnavailable(t *testing.T) {
	store := createTestStore(t, &failingStorage{getErr: errors.New("connection refused")})

	records, err := store.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, seedIDs, ids(records))
}

func TestStore_Load_ReturnsCopies(t *testing.T) {
	store := createTestStore(t, nil)

	records, err := store.Load(context.Background())
	require.NoError(t, err)
	records[0].Name = "mutated"

	again, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Sarah Johnson", again[0].Name)
}

// ==========================
// Add / Save
// ==========================

func TestStore_Add_PrependsAndPersists(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	store := createTestStore(t, storage)
	record := createRecord("APP-20251017093000-101", "Ada Park", scoring.RiskLow, 0.1)

	require.NoError(t, store.Add(ctx, record))

	raw, err := storage.Get(ctx)
	require.NoError(t, err)
	var saved []Record
	require.NoError(t, json.Unmarshal(raw, &saved))
	require.Len(t, saved, 6)
	assert.Equal(t, record.ID, saved[0].ID)
	assert.Equal(t, seedIDs, ids(saved[1:]))

	found, err := store.Find(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record, found)
}

func TestStore_Add_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t, nil)

	first := createRecord("APP-20251017093000-202", "Ben Ortiz", scoring.RiskMedium, 0.5)
	second := createRecord("APP-20251017093000-202", "Ben Ortiz", scoring.RiskHigh, 0.8)
	other := createRecord("APP-20251017093001-303", "Cara Liu", scoring.RiskLow, 0.1)

	for _, r := range []Record{first, other, first, second} {
		require.NoError(t, store.Add(ctx, r))
	}

	records, err := store.Load(ctx)
	require.NoError(t, err)

	count := 0
	for _, r := range records {
		if r.ID == first.ID {
			count++
			assert.Equal(t, second, r)
		}
	}
	assert.Equal(t, 1, count)
	assert.Len(t, records, 7)
}

func TestStore_Add_OverridesSeedRecord(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t, nil)
	updated := createRecord("APP-2025-001", "Sarah Johnson", scoring.RiskMedium, 0.45)

	require.NoError(t, store.Add(ctx, updated))

	records, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 5)
	found, err := store.Find(ctx, "APP-2025-001")
	require.NoError(t, err)
	assert.Equal(t, StatusReview, found.Status)
}

func TestStore_Save_FailureKeepsSessionView(t *testing.T) {
	ctx := context.Background()
	storage := &failingStorage{setErr: errors.New("quota exceeded")}
	store := createTestStore(t, storage)
	record := createRecord("APP-20251017093000-404", "Dana Kim", scoring.RiskLow, 0.2)

	err := store.Add(ctx, record)
	var se *StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "save", se.Op)
	assert.Contains(t, se.Error(), "quota exceeded")

	found, err := store.Find(ctx, record.ID)
	require.NoError(t, err, "unsaved record must stay visible for the session")
	assert.Equal(t, "Dana Kim", found.Name)

	storage.setErr = nil
	require.NoError(t, store.Save(ctx, []Record{record}))

	records, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, append(append([]string{}, seedIDs...), record.ID), ids(records))
}

func TestStore_Add_AfterLoadFailure(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set(ctx, []byte(`garbage`)))
	store := createTestStore(t, storage)
	record := createRecord("APP-20251017093000-505", "Eli Novak", scoring.RiskMedium, 0.4)

	require.NoError(t, store.Add(ctx, record))

	records, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 6)
}

func TestStore_Add_ReadFailureKeepsStoredRecords(t *testing.T) {
	ctx := context.Background()
	storage := &failingStorage{}
	store := createTestStore(t, storage)

	earlier := []Record{
		createRecord("APP-20251017093000-101", "Ana Silva", scoring.RiskLow, 0.1),
		createRecord("APP-20251017093000-102", "Ben Okafor", scoring.RiskMedium, 0.35),
		createRecord("APP-20251017093000-103", "Chen Wei", scoring.RiskHigh, 0.7),
	}
	for _, r := range earlier {
		require.NoError(t, store.Add(ctx, r))
	}
	persisted := append([]byte(nil), storage.payload...)

	storage.getErr = errors.New("redis: i/o timeout")
	during := createRecord("APP-20251017093000-104", "Dana Kim", scoring.RiskLow, 0.12)

	err := store.Add(ctx, during)
	require.Error(t, err)
	var se *StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "load", se.Op)
	assert.Equal(t, persisted, storage.payload, "stored set must not be overwritten")

	found, err := store.Find(ctx, during.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dana Kim", found.Name)

	storage.getErr = nil
	records, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, len(seedIDs)+4)
	assert.Equal(t, during.ID, records[0].ID)
	for _, r := range earlier {
		assert.Contains(t, ids(records), r.ID)
	}

	after := createRecord("APP-20251017093000-105", "Eve Moreau", scoring.RiskMedium, 0.3)
	require.NoError(t, store.Add(ctx, after))

	var stored []Record
	require.NoError(t, json.Unmarshal(storage.payload, &stored))
	for _, id := range []string{earlier[0].ID, earlier[1].ID, earlier[2].ID, during.ID, after.ID} {
		assert.Contains(t, ids(stored), id)
	}
}

func TestStore_Add_RepeatedReadFailures(t *testing.T) {
	ctx := context.Background()
	storage := &failingStorage{getErr: errors.New("connection refused")}
	store := createTestStore(t, storage)

	first := createRecord("APP-20251017093000-201", "Farah Aziz", scoring.RiskLow, 0.1)
	second := createRecord("APP-20251017093000-202", "Gus Lind", scoring.RiskLow, 0.1)
	assert.Error(t, store.Add(ctx, first))
	assert.Error(t, store.Add(ctx, second))
	assert.Nil(t, storage.payload)

	records, err := store.Load(ctx)
	require.Error(t, err)
	assert.Equal(t, append([]string{second.ID, first.ID}, seedIDs...), ids(records))
}

func TestStore_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := createRecord(store.GenerateID(), fmt.Sprintf("Applicant %d", i), scoring.RiskLow, 0.1)
			assert.NoError(t, store.Add(ctx, r))
		}(i)
	}
	wg.Wait()

	records, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 25)
}

// ==========================
// GenerateID
// ==========================

var idPattern = regexp.MustCompile(`^APP-\d{14}-\d{3}$`)

func TestStore_GenerateID_Unique(t *testing.T) {
	store := createTestStore(t, nil)
	seen := make(map[string]struct{}, 1000)

	for i := 0; i < 1000; i++ {
		id := store.GenerateID()
		require.Regexp(t, idPattern, id)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s after %d calls", id, i)
		seen[id] = struct{}{}
	}
}

func TestIDGenerator_RollsOverWhenSecondExhausted(t *testing.T) {
	fixed := time.Date(2025, 10, 17, 9, 30, 0, 0, time.UTC)
	gen := newIDGenerator(func() time.Time { return fixed })

	for i := 0; i < suffixSpan; i++ {
		assert.Contains(t, gen.next(), "APP-20251017093000-")
	}
	assert.Contains(t, gen.next(), "APP-20251017093001-")
}

func TestIDGenerator_UsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	gen := newIDGenerator(func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, loc) })

	assert.Contains(t, gen.next(), "APP-20250101220405-")
}

func TestIDGenerator_NeverGoesBackwards(t *testing.T) {
	now := time.Date(2025, 10, 17, 9, 30, 5, 0, time.UTC)
	gen := newIDGenerator(func() time.Time { return now })

	first := gen.next()
	now = now.Add(-3 * time.Second)
	second := gen.next()

	assert.Equal(t, first[:18], second[:18])
}

// ==========================
// Find / Query / Stats
// ==========================

func TestStore_Find_Unknown(t *testing.T) {
	store := createTestStore(t, nil)

	_, err := store.Find(context.Background(), "APP-0000")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestStore_Query(t *testing.T) {
	tests := []struct {
		name     string
		filter   Filter
		expected []string
	}{
		{name: "no filter", filter: Filter{}, expected: seedIDs},
		{name: "ALL filters", filter: Filter{RiskTier: "ALL", Status: "ALL"}, expected: seedIDs},
		{name: "search name any case", filter: Filter{Search: "chen"}, expected: []string{"APP-2025-002"}},
		{name: "search id", filter: Filter{Search: "app-2025-00"}, expected: seedIDs},
		{name: "risk tier", filter: Filter{RiskTier: "HIGH"}, expected: []string{"APP-2025-001", "APP-2025-005"}},
		{name: "status", filter: Filter{Status: StatusReview}, expected: []string{"APP-2025-003"}},
		{name: "combined", filter: Filter{Search: "a", RiskTier: "LOW", Status: StatusAutoApproved}, expected: []string{"APP-2025-002", "APP-2025-004"}},
		{name: "no match", filter: Filter{Search: "zzz"}, expected: []string{}},
	}

	store := createTestStore(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ids(store.Query(context.Background(), tt.filter)))
		})
	}
}

func TestStore_Stats(t *testing.T) {
	store := createTestStore(t, nil)

	st := store.Stats(context.Background())
	assert.Equal(t, 5, st.Total)
	assert.Equal(t, 2, st.Low)
	assert.Equal(t, 1, st.Medium)
	assert.Equal(t, 2, st.High)
	assert.InDelta(t, (0.72+0.23+0.48+0.15+0.81)/5, st.AvgDefaultProbability, 1e-9)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, Stats{}, Summarize(nil))
}

func TestSortByRecency(t *testing.T) {
	older := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	a := createRecord("A", "a", scoring.RiskLow, 0.1)
	b := createRecord("B", "b", scoring.RiskLow, 0.1)
	b.CreatedAt = &older
	c := createRecord("C", "c", scoring.RiskLow, 0.1)
	d := createRecord("D", "d", scoring.RiskLow, 0.1)
	d.CreatedAt = &newer

	records := []Record{a, b, c, d}
	SortByRecency(records)
	assert.Equal(t, []string{"D", "B", "A", "C"}, ids(records))
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}
