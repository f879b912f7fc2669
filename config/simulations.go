package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"smartswapSimulator/internal/ports"
)

// Simulation is one simulation definition from the simulations JSON file.
type Simulation struct {
	Name           string     // Key in the JSON file
	Pairs          []string   // Trading pairs, processed in listed order
	Strategy       string     // Registry identifier
	StartDate      time.Time  // Inclusive window start
	EndDate        *time.Time // Inclusive window end, nil = up to "now"
	PercentInvest  int        // Percent of capital per position; <= 0 disables slot tracking
	ReinvestGains  bool       // Compound slot capital vs divert deltas to benefits
	InitialCapital float64    // Total capital split evenly across slots
	SlotScope      ports.SlotScope
}

// MaxSlots derives the number of fund slots from the percent invested per
// position. Zero means slot tracking is disabled.
func (s Simulation) MaxSlots() int {
	if s.PercentInvest <= 0 {
		return 0
	}
	return 100 / s.PercentInvest
}

// FundsEnabled reports whether fund-slot tracking applies to this simulation.
func (s Simulation) FundsEnabled() bool {
	return s.PercentInvest > 0
}

// simulationJSON is the on-disk shape of one simulation entry.
type simulationJSON struct {
	Pairs          []string `json:"pairs"`
	Strategy       string   `json:"strategy"`
	StartDate      string   `json:"start_date"`
	EndDate        string   `json:"end_date"`
	PercentInvest  int      `json:"percent_invest"`
	ReinvestGains  bool     `json:"reinvest_gains"`
	InitialCapital float64  `json:"initial_capital"`
	SlotScope      string   `json:"slot_scope"`
}

// LoadSimulations reads and validates the simulations definition file.
// Results are sorted by name so every run processes simulations in the same order.
func LoadSimulations(path string) ([]Simulation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read simulations file '%s': %w", path, err)
	}

	var entries map[string]simulationJSON
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse simulations file '%s': %w", path, err)
	}

	sims := make([]Simulation, 0, len(entries))
	var errs []string
	for name, entry := range entries {
		sim, err := buildSimulation(name, entry)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		sims = append(sims, sim)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("simulations validation failed: %s", strings.Join(errs, "; "))
	}

	sort.Slice(sims, func(i, j int) bool { return sims[i].Name < sims[j].Name })
	return sims, nil
}

func buildSimulation(name string, entry simulationJSON) (Simulation, error) {
	sim := Simulation{
		Name:           name,
		Pairs:          entry.Pairs,
		Strategy:       entry.Strategy,
		PercentInvest:  entry.PercentInvest,
		ReinvestGains:  entry.ReinvestGains,
		InitialCapital: entry.InitialCapital,
	}

	if len(entry.Pairs) == 0 {
		return sim, fmt.Errorf("simulation %s: at least one pair is required", name)
	}
	if entry.Strategy == "" {
		return sim, fmt.Errorf("simulation %s: strategy is required", name)
	}

	start, err := time.Parse("2006-01-02", entry.StartDate)
	if err != nil {
		return sim, fmt.Errorf("simulation %s: invalid start_date '%s'", name, entry.StartDate)
	}
	sim.StartDate = start

	if entry.EndDate != "" {
		end, err := time.Parse("2006-01-02", entry.EndDate)
		if err != nil {
			return sim, fmt.Errorf("simulation %s: invalid end_date '%s'", name, entry.EndDate)
		}
		if end.Before(start) {
			return sim, fmt.Errorf("simulation %s: end_date precedes start_date", name)
		}
		sim.EndDate = &end
	}

	if entry.PercentInvest > 100 {
		return sim, fmt.Errorf("simulation %s: percent_invest cannot exceed 100", name)
	}
	if entry.PercentInvest > 0 && entry.InitialCapital <= 0 {
		return sim, fmt.Errorf("simulation %s: initial_capital must be positive when percent_invest is set", name)
	}

	switch entry.SlotScope {
	case "", string(ports.SlotScopePair):
		sim.SlotScope = ports.SlotScopePair
	case string(ports.SlotScopeSimulation):
		sim.SlotScope = ports.SlotScopeSimulation
	default:
		return sim, fmt.Errorf("simulation %s: slot_scope must be 'pair' or 'simulation', got '%s'", name, entry.SlotScope)
	}

	return sim, nil
}
