// Package validation collects the diagnostics raised while loading SA1 data
// and analysing a proposal.
package validation

import "fmt"

// Level names the stage of an analysis that raised a finding.
type Level string

const (
	LevelLoad     Level = "load"     // malformed source records
	LevelRange    Level = "range"    // range pairs that cannot be expanded
	LevelUnit     Level = "unit"     // SA1 ids missing from the registry
	LevelCoverage Level = "coverage" // unclaimed or repeatedly claimed SA1s
	LevelGeometry Level = "geometry" // district shapes that would not merge
)

// Severity decides which list of a Report a finding lands in. Any error
// makes the report invalid.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Result is one finding. Severity is set by the Report method that records
// it.
type Result struct {
	Level    Level    `json:"level"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	// District is the proposed district whose ranges raised the finding. It
	// is empty for load and coverage findings, which belong to no district.
	District string `json:"district,omitempty"`
	// UnitIDs are the SA1s the finding is about, if any.
	UnitIDs []int64 `json:"unit_ids,omitempty"`
	// ActualValue is the offending input as found, such as a raw field value
	// or the districts claiming an SA1.
	ActualValue any `json:"actual_value,omitempty"`
	// Expected describes an acceptable value.
	Expected    string   `json:"expected,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Report gathers the findings of one load or analysis. Summary is kept in
// step with the three lists.
type Report struct {
	Valid    bool     `json:"valid"`
	Errors   []Result `json:"errors"`
	Warnings []Result `json:"warnings"`
	Info     []Result `json:"info"`
	Summary  string   `json:"summary"`
}

// NewReport returns a report with no findings.
func NewReport() *Report {
	r := &Report{
		Valid:    true,
		Errors:   []Result{},
		Warnings: []Result{},
		Info:     []Result{},
	}
	r.updateSummary()
	return r
}

// AddError records result as an error. The report is no longer Valid.
func (r *Report) AddError(result Result) {
	result.Severity = SeverityError
	r.Errors = append(r.Errors, result)
	r.Valid = false
	r.updateSummary()
}

// AddWarning records result as a warning.
func (r *Report) AddWarning(result Result) {
	result.Severity = SeverityWarning
	r.Warnings = append(r.Warnings, result)
	r.updateSummary()
}

// AddInfo records result as information only.
func (r *Report) AddInfo(result Result) {
	result.Severity = SeverityInfo
	r.Info = append(r.Info, result)
	r.updateSummary()
}

// Merge appends the findings of other, which may be nil.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Info = append(r.Info, other.Info...)
	if !other.Valid {
		r.Valid = false
	}
	r.updateSummary()
}

// ByLevel returns every result of the given level, errors first.
func (r *Report) ByLevel(level Level) []Result {
	var out []Result
	for _, group := range [][]Result{r.Errors, r.Warnings, r.Info} {
		for _, res := range group {
			if res.Level == level {
				out = append(out, res)
			}
		}
	}
	return out
}

func (r *Report) updateSummary() {
	r.Summary = fmt.Sprintf("%d errors, %d warnings, %d info",
		len(r.Errors), len(r.Warnings), len(r.Info))
}
