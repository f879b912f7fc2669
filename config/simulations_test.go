package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"smartswapSimulator/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSimulations(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "simulations.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSimulations(t *testing.T) {
	path := writeSimulations(t, `{
		"btc_rsi": {
			"pairs": ["BTC/USDT"],
			"strategy": "rsi_reversal",
			"start_date": "2024-01-01",
			"end_date": "2024-06-30",
			"percent_invest": 25,
			"reinvest_gains": true,
			"initial_capital": 1000
		},
		"all_pairs_ma": {
			"pairs": ["BTC/USDT", "ETH/USDT"],
			"strategy": "ma_crossover",
			"start_date": "2024-02-01",
			"percent_invest": 0,
			"slot_scope": "simulation"
		}
	}`)

	sims, err := LoadSimulations(path)
	require.NoError(t, err)
	require.Len(t, sims, 2)

	// Sorted by name
	assert.Equal(t, "all_pairs_ma", sims[0].Name)
	assert.Equal(t, "btc_rsi", sims[1].Name)

	ma := sims[0]
	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT"}, ma.Pairs)
	assert.Nil(t, ma.EndDate)
	assert.False(t, ma.FundsEnabled())
	assert.Equal(t, 0, ma.MaxSlots())
	assert.Equal(t, ports.SlotScopeSimulation, ma.SlotScope)

	rsi := sims[1]
	assert.True(t, rsi.StartDate.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NotNil(t, rsi.EndDate)
	assert.True(t, rsi.EndDate.Equal(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)))
	assert.True(t, rsi.FundsEnabled())
	assert.Equal(t, 4, rsi.MaxSlots())
	assert.True(t, rsi.ReinvestGains)
	assert.Equal(t, 1000.0, rsi.InitialCapital)
	assert.Equal(t, ports.SlotScopePair, rsi.SlotScope) // default scope
}

func TestLoadSimulations_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "missing pairs",
			content: `{"s": {"pairs": [], "strategy": "x", "start_date": "2024-01-01"}}`,
		},
		{
			name:    "missing strategy",
			content: `{"s": {"pairs": ["BTC/USDT"], "strategy": "", "start_date": "2024-01-01"}}`,
		},
		{
			name:    "bad start date",
			content: `{"s": {"pairs": ["BTC/USDT"], "strategy": "x", "start_date": "01/01/2024"}}`,
		},
		{
			name:    "end before start",
			content: `{"s": {"pairs": ["BTC/USDT"], "strategy": "x", "start_date": "2024-06-01", "end_date": "2024-01-01"}}`,
		},
		{
			name:    "percent over 100",
			content: `{"s": {"pairs": ["BTC/USDT"], "strategy": "x", "start_date": "2024-01-01", "percent_invest": 150}}`,
		},
		{
			name:    "funds without capital",
			content: `{"s": {"pairs": ["BTC/USDT"], "strategy": "x", "start_date": "2024-01-01", "percent_invest": 25}}`,
		},
		{
			name:    "bad slot scope",
			content: `{"s": {"pairs": ["BTC/USDT"], "strategy": "x", "start_date": "2024-01-01", "slot_scope": "global"}}`,
		},
		{
			name:    "not json",
			content: `pairs: [BTC/USDT]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSimulations(t, tt.content)
			_, err := LoadSimulations(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadSimulations_MissingFile(t *testing.T) {
	_, err := LoadSimulations(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestSimulation_MaxSlots(t *testing.T) {
	tests := []struct {
		percent int
		want    int
	}{
		{percent: 100, want: 1},
		{percent: 50, want: 2},
		{percent: 25, want: 4},
		{percent: 33, want: 3},
		{percent: 10, want: 10},
		{percent: 0, want: 0},
		{percent: -5, want: 0},
	}
	for _, tt := range tests {
		sim := Simulation{PercentInvest: tt.percent}
		assert.Equal(t, tt.want, sim.MaxSlots(), "percent_invest %d", tt.percent)
	}
}
