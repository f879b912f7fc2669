package domain

// Signal is a strategy's verdict at one bar. Strength > 0 means "act";
// Price is the fill price to record, which may differ from the raw series
// price to model slippage.
type Signal struct {
	Strength float64
	Price    float64
}

// Fires reports whether the signal asks for an action.
func (s Signal) Fires() bool {
	return s.Strength > 0
}
