package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"smartswapSimulator/internal/domain"
	"smartswapSimulator/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}
func (m *mockLogger) Fatal(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "simulator-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	repo, err := NewRepository(Config{
		DBPath: dbPath,
		Logger: &mockLogger{},
	})
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}

	return repo, cleanup
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func openPosition(sim, pair string, buyDate time.Time, buyPrice float64, buyIndex, slot int) *domain.Position {
	return &domain.Position{
		SimulationName: sim,
		Pair:           pair,
		BuyDate:        buyDate,
		BuyPrice:       buyPrice,
		BuyIndex:       buyIndex,
		BuySignal:      "strength=1.000",
		FundSlot:       slot,
	}
}

func closeFields(pos *domain.Position, sellDate time.Time, sellPrice float64, sellIndex int) {
	signal := "strength=1.000"
	pos.SellDate = &sellDate
	pos.SellPrice = &sellPrice
	pos.SellIndex = &sellIndex
	pos.SellSignal = &signal
	pos.Duration = domain.DaysBetween(pos.BuyDate, sellDate)
	pos.Ratio = domain.Ratio(sellPrice, pos.BuyPrice)
}

func TestRepository_CreateAndFindPosition(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	pos := openPosition("sim1", "BTC/USDT", day(2024, 1, 2), 42000.5, 1, 1)
	id, err := repo.Create(ctx, pos)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))
	assert.Equal(t, id, pos.ID)

	found, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "sim1", found.SimulationName)
	assert.Equal(t, "BTC/USDT", found.Pair)
	assert.True(t, found.BuyDate.Equal(day(2024, 1, 2)))
	assert.Equal(t, 42000.5, found.BuyPrice)
	assert.Equal(t, 1, found.BuyIndex)
	assert.Equal(t, 1, found.FundSlot)
	assert.True(t, found.IsOpen())
	assert.Nil(t, found.SellDate)
}

func TestRepository_FindByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	found, err := repo.FindByID(context.Background(), 9999)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRepository_ClosePosition(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	pos := openPosition("sim1", "BTC/USDT", day(2024, 1, 2), 100, 1, 1)
	_, err := repo.Create(ctx, pos)
	require.NoError(t, err)

	closeFields(pos, day(2024, 1, 5), 110, 4)
	err = repo.ClosePosition(ctx, pos)
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, pos.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.False(t, found.IsOpen())
	assert.True(t, found.SellDate.Equal(day(2024, 1, 5)))
	assert.Equal(t, 110.0, *found.SellPrice)
	assert.Equal(t, 4, *found.SellIndex)
	assert.Equal(t, 3, found.Duration)
	assert.Equal(t, 1.1, found.Ratio)
}

func TestRepository_ClosePosition_AlreadyClosed(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	pos := openPosition("sim1", "BTC/USDT", day(2024, 1, 2), 100, 1, 1)
	_, err := repo.Create(ctx, pos)
	require.NoError(t, err)

	closeFields(pos, day(2024, 1, 5), 110, 4)
	require.NoError(t, repo.ClosePosition(ctx, pos))

	// Second close must hit zero rows and fail
	err = repo.ClosePosition(ctx, pos)
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrAlreadyClosed)
}

func TestRepository_ClosePosition_MissingSellFields(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	pos := openPosition("sim1", "BTC/USDT", day(2024, 1, 2), 100, 1, 1)
	_, err := repo.Create(ctx, pos)
	require.NoError(t, err)

	err = repo.ClosePosition(ctx, pos)
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrUpdateFailed)
}

func TestRepository_FindOpenByPair(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	// Two open for the pair, one closed, one open on another pair
	p1 := openPosition("sim1", "BTC/USDT", day(2024, 1, 3), 100, 2, 1)
	p2 := openPosition("sim1", "BTC/USDT", day(2024, 1, 1), 95, 0, 2)
	p3 := openPosition("sim1", "BTC/USDT", day(2024, 1, 2), 98, 1, 3)
	p4 := openPosition("sim1", "ETH/USDT", day(2024, 1, 1), 50, 0, 1)
	for _, p := range []*domain.Position{p1, p2, p3, p4} {
		_, err := repo.Create(ctx, p)
		require.NoError(t, err)
	}
	closeFields(p3, day(2024, 1, 4), 105, 3)
	require.NoError(t, repo.ClosePosition(ctx, p3))

	open, err := repo.FindOpenByPair(ctx, "sim1", "BTC/USDT")
	require.NoError(t, err)
	require.Len(t, open, 2)
	// Oldest buy first
	assert.Equal(t, p2.ID, open[0].ID)
	assert.Equal(t, p1.ID, open[1].ID)
}

func TestRepository_OccupiedSlots(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	btc := openPosition("sim1", "BTC/USDT", day(2024, 1, 1), 100, 0, 2)
	eth := openPosition("sim1", "ETH/USDT", day(2024, 1, 1), 50, 0, 1)
	closed := openPosition("sim1", "BTC/USDT", day(2024, 1, 1), 100, 0, 3)
	unslotted := openPosition("sim1", "BTC/USDT", day(2024, 1, 2), 100, 1, 0)
	for _, p := range []*domain.Position{btc, eth, closed, unslotted} {
		_, err := repo.Create(ctx, p)
		require.NoError(t, err)
	}
	closeFields(closed, day(2024, 1, 3), 110, 2)
	require.NoError(t, repo.ClosePosition(ctx, closed))

	// Pair scope only sees the pair's open positions
	slots, err := repo.OccupiedSlots(ctx, "sim1", "BTC/USDT", ports.SlotScopePair)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, slots)

	// Simulation scope sees every pair
	slots, err = repo.OccupiedSlots(ctx, "sim1", "BTC/USDT", ports.SlotScopeSimulation)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, slots)
}

func TestRepository_MostRecentDate(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	// Empty simulation has no date
	date, err := repo.MostRecentDate(ctx, "sim1")
	require.NoError(t, err)
	assert.Nil(t, date)

	p1 := openPosition("sim1", "BTC/USDT", day(2024, 1, 10), 100, 5, 1)
	p2 := openPosition("sim1", "ETH/USDT", day(2024, 1, 2), 50, 0, 2)
	for _, p := range []*domain.Position{p1, p2} {
		_, err := repo.Create(ctx, p)
		require.NoError(t, err)
	}

	date, err = repo.MostRecentDate(ctx, "sim1")
	require.NoError(t, err)
	require.NotNil(t, date)
	assert.True(t, date.Equal(day(2024, 1, 10)))

	// A later sell date wins over every buy date
	closeFields(p2, day(2024, 1, 15), 60, 10)
	require.NoError(t, repo.ClosePosition(ctx, p2))

	date, err = repo.MostRecentDate(ctx, "sim1")
	require.NoError(t, err)
	require.NotNil(t, date)
	assert.True(t, date.Equal(day(2024, 1, 15)))
}

func TestRepository_MaxIndexForPair(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	idx, err := repo.MaxIndexForPair(ctx, "sim1", "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, -1, idx)

	pos := openPosition("sim1", "BTC/USDT", day(2024, 1, 3), 100, 2, 1)
	_, err = repo.Create(ctx, pos)
	require.NoError(t, err)

	idx, err = repo.MaxIndexForPair(ctx, "sim1", "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	closeFields(pos, day(2024, 1, 8), 110, 7)
	require.NoError(t, repo.ClosePosition(ctx, pos))

	idx, err = repo.MaxIndexForPair(ctx, "sim1", "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, 7, idx)

	// Other pairs do not leak in
	idx, err = repo.MaxIndexForPair(ctx, "sim1", "ETH/USDT")
	require.NoError(t, err)
	assert.Equal(t, -1, idx)
}

func TestRepository_FundRecords(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	// No record yet
	rec, err := repo.LatestCapital(ctx, "sim1", 1)
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, err = repo.AppendCapital(ctx, &domain.FundRecord{SimulationName: "sim1", Slot: 1, Capital: 250})
	require.NoError(t, err)
	_, err = repo.AppendCapital(ctx, &domain.FundRecord{SimulationName: "sim1", Slot: 2, Capital: 250})
	require.NoError(t, err)
	_, err = repo.AppendCapital(ctx, &domain.FundRecord{SimulationName: "sim1", Slot: 1, LastPositionID: 7, Capital: 275})
	require.NoError(t, err)

	rec, err = repo.LatestCapital(ctx, "sim1", 1)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 275.0, rec.Capital)
	assert.Equal(t, int64(7), rec.LastPositionID)

	capitals, err := repo.LatestCapitals(ctx, "sim1")
	require.NoError(t, err)
	assert.Equal(t, map[int]float64{1: 275, 2: 250}, capitals)

	history, err := repo.SlotHistory(ctx, "sim1", 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 250.0, history[0].Capital)
	assert.Equal(t, 275.0, history[1].Capital)
}

func TestRepository_Benefits(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	total, err := repo.TotalBenefits(ctx, "sim1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)

	_, err = repo.AppendBenefit(ctx, &domain.BenefitRecord{SimulationName: "sim1", Slot: 1, PositionID: 1, Amount: 25})
	require.NoError(t, err)
	_, err = repo.AppendBenefit(ctx, &domain.BenefitRecord{SimulationName: "sim1", Slot: 2, PositionID: 2, Amount: -5.5})
	require.NoError(t, err)
	_, err = repo.AppendBenefit(ctx, &domain.BenefitRecord{SimulationName: "other", Slot: 1, PositionID: 3, Amount: 100})
	require.NoError(t, err)

	total, err = repo.TotalBenefits(ctx, "sim1")
	require.NoError(t, err)
	assert.Equal(t, 19.5, total)
}

func TestRepository_Checkpoint(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	cp, err := repo.GetCheckpoint(ctx, "sim1")
	require.NoError(t, err)
	assert.Nil(t, cp)

	require.NoError(t, repo.SaveCheckpoint(ctx, "sim1", day(2024, 1, 10)))
	cp, err = repo.GetCheckpoint(ctx, "sim1")
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.True(t, cp.Equal(day(2024, 1, 10)))

	// Advances forward
	require.NoError(t, repo.SaveCheckpoint(ctx, "sim1", day(2024, 1, 12)))
	cp, err = repo.GetCheckpoint(ctx, "sim1")
	require.NoError(t, err)
	assert.True(t, cp.Equal(day(2024, 1, 12)))

	// Never moves backwards
	require.NoError(t, repo.SaveCheckpoint(ctx, "sim1", day(2024, 1, 5)))
	cp, err = repo.GetCheckpoint(ctx, "sim1")
	require.NoError(t, err)
	assert.True(t, cp.Equal(day(2024, 1, 12)))
}

func TestRepository_DeleteSimulation(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	pos := openPosition("sim1", "BTC/USDT", day(2024, 1, 2), 100, 1, 1)
	_, err := repo.Create(ctx, pos)
	require.NoError(t, err)
	_, err = repo.AppendCapital(ctx, &domain.FundRecord{SimulationName: "sim1", Slot: 1, Capital: 250})
	require.NoError(t, err)
	_, err = repo.AppendBenefit(ctx, &domain.BenefitRecord{SimulationName: "sim1", Slot: 1, PositionID: pos.ID, Amount: 5})
	require.NoError(t, err)
	require.NoError(t, repo.SaveCheckpoint(ctx, "sim1", day(2024, 1, 2)))

	// Another simulation's data must survive
	other := openPosition("sim2", "BTC/USDT", day(2024, 1, 2), 100, 1, 1)
	_, err = repo.Create(ctx, other)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteSimulation(ctx, "sim1"))

	positions, err := repo.FindBySimulation(ctx, "sim1")
	require.NoError(t, err)
	assert.Empty(t, positions)
	rec, err := repo.LatestCapital(ctx, "sim1", 1)
	require.NoError(t, err)
	assert.Nil(t, rec)
	total, err := repo.TotalBenefits(ctx, "sim1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)
	cp, err := repo.GetCheckpoint(ctx, "sim1")
	require.NoError(t, err)
	assert.Nil(t, cp)

	kept, err := repo.FindBySimulation(ctx, "sim2")
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestRepository_ClosedDatabaseReportsStoreOutage(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.Close())

	// A dead database must surface as a store outage so the host aborts the
	// whole pass instead of moving on to the next simulation.
	_, err := repo.Create(ctx, openPosition("sim1", "BTC/USDT", day(2024, 1, 2), 100, 1, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrQueryFailed)
	assert.ErrorIs(t, err, ports.ErrUpstreamUnavailable)

	err = repo.SaveCheckpoint(ctx, "sim1", day(2024, 1, 2))
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrUpdateFailed)
	assert.ErrorIs(t, err, ports.ErrUpstreamUnavailable)
}
