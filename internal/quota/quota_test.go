package quota

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	records map[int64]*Record
	saves   int
}

func newMemStore() *memStore {
	return &memStore{records: make(map[int64]*Record)}
}

func (m *memStore) GetRecord(_ context.Context, userID int64) (*Record, error) {
	if rec, ok := m.records[userID]; ok {
		cp := *rec
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) SaveRecord(_ context.Context, rec *Record) error {
	m.saves++
	cp := *rec
	m.records[rec.UserID] = &cp
	return nil
}

func testLimits() TierLimits {
	return TierLimits{"free": 1000, "pro": 10000}
}

func TestAdmitAllowsWithinLimit(t *testing.T) {
	store := newMemStore()
	store.records[1] = &Record{UserID: 1, Tier: "free", LastResetDate: truncateToDay(time.Now())}
	gate := NewGate(store, testLimits(), "free", nil)

	d, err := gate.Admit(context.Background(), 1, 500)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestAdmitRejectsOverLimit(t *testing.T) {
	store := newMemStore()
	store.records[1] = &Record{UserID: 1, Tier: "free", DailyUsed: 900, LastResetDate: truncateToDay(time.Now())}
	gate := NewGate(store, testLimits(), "free", nil)

	d, err := gate.Admit(context.Background(), 1, 200)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.NotEmpty(t, d.Reason)
}

func TestAdmitBypassesForAdmin(t *testing.T) {
	store := newMemStore()
	store.records[1] = &Record{UserID: 1, Tier: "free", DailyUsed: 999999, LastResetDate: truncateToDay(time.Now())}
	gate := NewGate(store, testLimits(), "free", func(id int64) bool { return id == 1 })

	d, err := gate.Admit(context.Background(), 1, 999999)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestAdmitResetsDailyUsageOnDateRollover(t *testing.T) {
	store := newMemStore()
	yesterday := truncateToDay(time.Now()).AddDate(0, 0, -1)
	store.records[1] = &Record{UserID: 1, Tier: "free", DailyUsed: 999, LastResetDate: yesterday}
	gate := NewGate(store, testLimits(), "free", nil)

	d, err := gate.Admit(context.Background(), 1, 500)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(0), d.DailyUsed)
	assert.Equal(t, int64(0), store.records[1].DailyUsed)
}

func TestAdmitRevertsExpiredTierToDefault(t *testing.T) {
	store := newMemStore()
	expired := truncateToDay(time.Now()).AddDate(0, 0, -1)
	store.records[1] = &Record{UserID: 1, Tier: "pro", PlanExpiry: &expired, LastResetDate: truncateToDay(time.Now())}
	gate := NewGate(store, testLimits(), "free", nil)

	_, err := gate.Admit(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "free", store.records[1].Tier)
	assert.Nil(t, store.records[1].PlanExpiry)
}

func TestCommitIncrementsUsageAndFileCount(t *testing.T) {
	store := newMemStore()
	store.records[1] = &Record{UserID: 1, Tier: "free", LastResetDate: truncateToDay(time.Now())}
	gate := NewGate(store, testLimits(), "free", nil)

	err := gate.Commit(context.Background(), 1, 300)
	require.NoError(t, err)
	rec := store.records[1]
	assert.Equal(t, int64(300), rec.DailyUsed)
	assert.Equal(t, int64(300), rec.TotalUsed)
	assert.Equal(t, int64(1), rec.FilesProcessed)

	err = gate.Commit(context.Background(), 1, 100)
	require.NoError(t, err)
	rec = store.records[1]
	assert.Equal(t, int64(400), rec.DailyUsed)
	assert.Equal(t, int64(400), rec.TotalUsed)
	assert.Equal(t, int64(2), rec.FilesProcessed)
}

func TestSetTierAndFooterPersist(t *testing.T) {
	store := newMemStore()
	gate := NewGate(store, testLimits(), "free", nil)
	ctx := context.Background()

	require.NoError(t, gate.SetTier(ctx, 2, "pro", nil))
	rec, err := store.GetRecord(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "pro", rec.Tier)

	require.NoError(t, gate.SetFooter(ctx, 2, "shared via f2lnk"))
	footer, err := gate.Footer(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "shared via f2lnk", footer)
}

func TestNewUserGetsDefaultTierAndToday(t *testing.T) {
	store := newMemStore()
	gate := NewGate(store, testLimits(), "free", nil)

	d, err := gate.Admit(context.Background(), 99, 10)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(1000), d.TierLimit)
}

func TestGiBToLimitsConverts(t *testing.T) {
	limits := GiBToLimits(map[string]float64{"free": 2, "pro": 0.5})
	assert.Equal(t, int64(2*1024*1024*1024), limits["free"])
	assert.Equal(t, int64(0.5*1024*1024*1024), limits["pro"])
}
