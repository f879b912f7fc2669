package domain

// FundRecord is one entry in a slot's append-only capital history.
// The newest record (highest ID) holds the slot's current capital.
type FundRecord struct {
	ID             int64
	SimulationName string
	Slot           int     // 1..maxSlots, stable for the simulation's lifetime
	LastPositionID int64   // Position whose close produced this record, 0 for the initial allocation
	Capital        float64 // Rounded to 3 decimals
}

// BenefitRecord accumulates realised gains diverted away from a slot when the
// simulation is configured not to reinvest.
type BenefitRecord struct {
	ID             int64
	SimulationName string
	Slot           int
	PositionID     int64
	Amount         float64 // Rounded to 3 decimals, may be negative
}
