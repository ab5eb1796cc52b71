package apportion

import "fmt"

// Policy names accepted by NewPolicy.
const (
	PolicyArea     = "area"
	PolicyElectors = "electors"
)

// Default constants for the two allowances.
const (
	DefaultAreaThreshold     = 100_000.0   // sq km
	DefaultAreaRate          = 0.015       // phantom electors per sq km
	DefaultElectorsThreshold = 1_000_000.0 // sq km
	DefaultElectorsRate      = 0.6         // phantom electors per enrolled elector
)

// PhantomPolicy computes the provisional phantom-elector allowance for a
// district (or an origin group within one) from its enrolled electors and
// its area in square kilometres.
type PhantomPolicy interface {
	Name() string
	Phantom(current int, area float64) float64
}

// AreaAllowance grants Rate phantom electors per square kilometre once the
// area exceeds Threshold.
type AreaAllowance struct {
	Threshold float64 `json:"threshold"`
	Rate      float64 `json:"rate"`
}

func (AreaAllowance) Name() string { return PolicyArea }

func (p AreaAllowance) Phantom(_ int, area float64) float64 {
	if area > p.Threshold {
		return area * p.Rate
	}
	return 0
}

// ElectorsAllowance grants Rate phantom electors per enrolled elector once
// the area exceeds Threshold.
type ElectorsAllowance struct {
	Threshold float64 `json:"threshold"`
	Rate      float64 `json:"rate"`
}

func (ElectorsAllowance) Name() string { return PolicyElectors }

func (p ElectorsAllowance) Phantom(current int, area float64) float64 {
	if area > p.Threshold {
		return float64(current) * p.Rate
	}
	return 0
}

// NewPolicy returns the named policy. A zero threshold or rate keeps that
// policy's default. There is no implicit choice between the two: an empty
// or unknown name is an error.
func NewPolicy(name string, threshold, rate float64) (PhantomPolicy, error) {
	if threshold < 0 || rate < 0 {
		return nil, fmt.Errorf("phantom policy %q: threshold and rate must be non-negative", name)
	}
	switch name {
	case PolicyArea:
		p := AreaAllowance{Threshold: DefaultAreaThreshold, Rate: DefaultAreaRate}
		if threshold > 0 {
			p.Threshold = threshold
		}
		if rate > 0 {
			p.Rate = rate
		}
		return p, nil
	case PolicyElectors:
		p := ElectorsAllowance{Threshold: DefaultElectorsThreshold, Rate: DefaultElectorsRate}
		if threshold > 0 {
			p.Threshold = threshold
		}
		if rate > 0 {
			p.Rate = rate
		}
		return p, nil
	case "":
		return nil, fmt.Errorf("phantom policy not set: choose %q or %q", PolicyArea, PolicyElectors)
	}
	return nil, fmt.Errorf("unknown phantom policy %q: choose %q or %q", name, PolicyArea, PolicyElectors)
}
