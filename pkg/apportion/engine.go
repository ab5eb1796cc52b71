package apportion

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dlwalsh/wa2019/pkg/proposal"
	"github.com/dlwalsh/wa2019/pkg/sa1"
	"github.com/dlwalsh/wa2019/pkg/validation"
)

// Engine analyses proposals against one registry. Its assignment counters
// accumulate across calls, so use a fresh registry (sa1.Registry.Clone) for
// each independent run.
type Engine struct {
	registry *sa1.Registry
	policy   PhantomPolicy
	geometry GeometryProvider
	workers  int
	logger   *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithGeometry unions each district's shapes with p and uses the merged
// area for its metrics.
func WithGeometry(p GeometryProvider) Option {
	return func(e *Engine) { e.geometry = p }
}

// WithWorkers bounds how many districts are processed at once. Values below
// one mean GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine creates an engine for the registry using the given phantom
// policy.
func NewEngine(reg *sa1.Registry, policy PhantomPolicy, opts ...Option) *Engine {
	e := &Engine{
		registry: reg,
		policy:   policy,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	return e
}

// Policy returns the active phantom policy.
func (e *Engine) Policy() PhantomPolicy { return e.policy }

// Registry returns the registry the engine claims against.
func (e *Engine) Registry() *sa1.Registry { return e.registry }

// Run is the complete output of analysing one proposal.
type Run struct {
	Policy    string             `json:"policy"`
	Districts []DistrictResult   `json:"districts"`
	Total     Totals             `json:"total"`
	Coverage  CoverageReport     `json:"coverage"`
	Report    *validation.Report `json:"report"`
}

// ProcessDistrict expands, claims and aggregates one district. Problems are
// recorded on the result rather than returned: a district always yields
// figures for the SA1s it validly claims. Pairs are claimed one at a time so
// range and unit issues appear in the order their pairs were listed.
func (e *Engine) ProcessDistrict(d proposal.District) DistrictResult {
	e.logger.Debug("processing district", zap.String("district", d.Name), zap.Int("ranges", len(d.Ranges)))

	var (
		units  []sa1.UnitRecord
		issues []error
	)
	for _, pair := range d.Ranges {
		ids, err := d.ExpandPair(pair)
		if err != nil {
			issues = append(issues, err)
			continue
		}
		claimed, errs := Claim(e.registry, d.Name, ids)
		units = append(units, claimed...)
		issues = append(issues, errs...)
	}

	result := Aggregate(d.Name, units, e.policy)
	if e.geometry != nil {
		merged, area, err := MergeGeometry(e.geometry, d.Name, units)
		switch {
		case err != nil:
			e.logger.Warn("geometry union failed, using summed area",
				zap.String("district", d.Name), zap.Error(err))
			issues = append(issues, err)
		case merged != nil:
			result.UseGeometry(merged, area, e.policy)
		}
	}
	result.Issues = issues
	return result
}

// Run processes every district concurrently, then computes the grand total
// and the coverage report once all claims are in. Results keep proposal
// order. The only error is cancellation of ctx.
func (e *Engine) Run(ctx context.Context, p *proposal.Proposal) (*Run, error) {
	results := make([]DistrictResult, len(p.Districts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, d := range p.Districts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.ProcessDistrict(d)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("processing districts: %w", err)
	}

	run := &Run{
		Policy:    e.policy.Name(),
		Districts: results,
		Total:     GrandTotal(results),
		Coverage:  Coverage(e.registry, results),
	}
	run.Report = buildReport(run)

	e.logger.Info("proposal analysed",
		zap.String("policy", run.Policy),
		zap.Int("districts", len(results)),
		zap.Int("missing", len(run.Coverage.Missing)),
		zap.Int("duplicates", len(run.Coverage.Duplicates)),
		zap.String("report", run.Report.Summary))
	return run, nil
}

func buildReport(run *Run) *validation.Report {
	report := validation.NewReport()
	for _, r := range run.Districts {
		for _, issue := range r.Issues {
			report.AddWarning(issueResult(r.Name, issue))
		}
	}

	if n := len(run.Coverage.Missing); n > 0 {
		report.AddError(validation.Result{
			Level:       validation.LevelCoverage,
			Message:     fmt.Sprintf("%d SA1s are not claimed by any district", n),
			UnitIDs:     sa1.Int64s(run.Coverage.Missing),
			Suggestions: []string{"Add the missing SA1s to a neighbouring district"},
		})
	}
	for _, id := range run.Coverage.Duplicates {
		claimants := run.Coverage.Claimants[id]
		report.AddError(validation.Result{
			Level:       validation.LevelCoverage,
			Message:     fmt.Sprintf("SA1 %s is claimed %d times", id, len(claimants)),
			UnitIDs:     []int64{int64(id)},
			ActualValue: claimants,
			Expected:    "exactly one district",
		})
	}
	return report
}

func issueResult(district string, issue error) validation.Result {
	res := validation.Result{District: district, Message: issue.Error()}

	var (
		rangeErr *proposal.RangeError
		unitErr  *UnitError
	)
	switch {
	case errors.As(issue, &rangeErr):
		res.Level = validation.LevelRange
		res.ActualValue = rangeErr.Pair.String()
		res.Expected = fmt.Sprintf("end - start < %d", proposal.MaxSpan)
	case errors.As(issue, &unitErr):
		res.Level = validation.LevelUnit
		res.UnitIDs = []int64{int64(unitErr.ID)}
	case errors.Is(issue, ErrGeometryUnion):
		res.Level = validation.LevelGeometry
		res.Suggestions = []string{"Area falls back to the sum of SA1 areas"}
	default:
		res.Level = validation.LevelUnit
	}
	return res
}
