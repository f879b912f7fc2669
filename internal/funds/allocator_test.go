package funds

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"smartswapSimulator/internal/adapters/sqlite"
	"smartswapSimulator/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}
func (m *mockLogger) Fatal(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func setupAllocator(t *testing.T) (*Allocator, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "funds-test-*")
	require.NoError(t, err)

	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: filepath.Join(tmpDir, "test.db"),
		Logger: &mockLogger{},
	})
	require.NoError(t, err)

	a, err := New(repo, &mockLogger{})
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}
	return a, cleanup
}

func TestAllocator_Initialize(t *testing.T) {
	a, cleanup := setupAllocator(t)
	defer cleanup()
	ctx := context.Background()

	// 1000 across 4 slots of 25% each
	require.NoError(t, a.Initialize(ctx, "sim1", 4, 1000))

	capitals, err := a.SlotCapitals(ctx, "sim1")
	require.NoError(t, err)
	assert.Equal(t, map[int]float64{1: 250, 2: 250, 3: 250, 4: 250}, capitals)
}

func TestAllocator_Initialize_Idempotent(t *testing.T) {
	a, cleanup := setupAllocator(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, a.Initialize(ctx, "sim1", 2, 500))

	// Grow slot 1, then re-run initialization
	_, _, err := a.UpdateAfterClose(ctx, "sim1", 1, 1.2, 7, true)
	require.NoError(t, err)
	require.NoError(t, a.Initialize(ctx, "sim1", 2, 500))

	capitals, err := a.SlotCapitals(ctx, "sim1")
	require.NoError(t, err)
	assert.Equal(t, 300.0, capitals[1]) // not reset to 250
	assert.Equal(t, 250.0, capitals[2])

	// No duplicate seed record either
	history, err := a.SlotHistory(ctx, "sim1", 1)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestAllocator_Initialize_InvalidSlots(t *testing.T) {
	a, cleanup := setupAllocator(t)
	defer cleanup()

	err := a.Initialize(context.Background(), "sim1", 0, 1000)
	assert.ErrorIs(t, err, ports.ErrConfiguration)
}

func TestAllocator_UpdateAfterClose_Reinvest(t *testing.T) {
	a, cleanup := setupAllocator(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, a.Initialize(ctx, "sim1", 4, 1000))

	capital, benefits, err := a.UpdateAfterClose(ctx, "sim1", 2, 1.1, 11, true)
	require.NoError(t, err)
	assert.Equal(t, 275.0, capital) // 250 * 1.1
	assert.Equal(t, 0.0, benefits)

	// Next close compounds on the updated capital
	capital, _, err = a.UpdateAfterClose(ctx, "sim1", 2, 0.9, 12, true)
	require.NoError(t, err)
	assert.Equal(t, 247.5, capital)

	history, err := a.SlotHistory(ctx, "sim1", 2)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []float64{250, 275, 247.5}, []float64{history[0].Capital, history[1].Capital, history[2].Capital})
}

func TestAllocator_UpdateAfterClose_NoReinvest(t *testing.T) {
	a, cleanup := setupAllocator(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, a.Initialize(ctx, "sim1", 4, 1000))

	// Gain goes to benefits, capital stays nominal
	capital, benefits, err := a.UpdateAfterClose(ctx, "sim1", 1, 1.1, 11, false)
	require.NoError(t, err)
	assert.Equal(t, 250.0, capital)
	assert.Equal(t, 25.0, benefits)

	// A loss produces a negative benefit delta
	capital, benefits, err = a.UpdateAfterClose(ctx, "sim1", 1, 0.96, 12, false)
	require.NoError(t, err)
	assert.Equal(t, 250.0, capital)
	assert.Equal(t, 15.0, benefits) // 25 - 10

	total, err := a.TotalBenefits(ctx, "sim1")
	require.NoError(t, err)
	assert.Equal(t, 15.0, total)
}

func TestAllocator_UpdateAfterClose_Uninitialized(t *testing.T) {
	a, cleanup := setupAllocator(t)
	defer cleanup()

	_, _, err := a.UpdateAfterClose(context.Background(), "sim1", 1, 1.1, 11, true)
	assert.ErrorIs(t, err, ports.ErrConfiguration)
}
