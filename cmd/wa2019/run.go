package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/dlwalsh/wa2019/internal/server"
	"github.com/dlwalsh/wa2019/internal/store"
	"github.com/dlwalsh/wa2019/pkg/apportion"
	"github.com/dlwalsh/wa2019/pkg/export"
	"github.com/dlwalsh/wa2019/pkg/geo"
	"github.com/dlwalsh/wa2019/pkg/proposal"
	"github.com/dlwalsh/wa2019/pkg/sa1"
	"github.com/dlwalsh/wa2019/pkg/validation"
)

// loadRegistry reads the SA1 reference file.
func (a *app) loadRegistry(geometry bool) (*sa1.Registry, *validation.Report, error) {
	reg, report, err := sa1.LoadGeoJSON(a.cfg.Data.Units, sa1.LoadOptions{Geometry: geometry})
	if err != nil {
		return nil, nil, fmt.Errorf("loading SA1s: %w", err)
	}
	a.logger.Debug("reference data loaded",
		zap.String("path", a.cfg.Data.Units),
		zap.Int("sa1s", reg.Len()),
		zap.String("report", report.Summary))
	return reg, report, nil
}

func (a *app) engineOptions(geometry bool) []apportion.Option {
	opts := []apportion.Option{
		apportion.WithWorkers(a.cfg.Apportion.Workers),
		apportion.WithLogger(a.logger),
	}
	if geometry {
		opts = append(opts, apportion.WithGeometry(geo.Dissolver{}))
	}
	return opts
}

// analyse loads the reference data and proposal and runs the engine. Load
// findings come first in the returned report.
func (a *app) analyse(ctx context.Context, geometry bool) (*apportion.Run, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := a.cfg.Policy()
	if err != nil {
		return nil, err
	}

	reg, loadReport, err := a.loadRegistry(geometry)
	if err != nil {
		return nil, err
	}
	p, err := proposal.Load(a.cfg.Data.Proposal)
	if err != nil {
		return nil, fmt.Errorf("loading proposal: %w", err)
	}

	run, err := apportion.NewEngine(reg, policy, a.engineOptions(geometry)...).Run(ctx, p)
	if err != nil {
		return nil, err
	}
	loadReport.Merge(run.Report)
	run.Report = loadReport
	return run, nil
}

func (a *app) runFigures(ctx context.Context, w io.Writer, save bool) error {
	run, err := a.analyse(ctx, a.cfg.Apportion.Geometry)
	if err != nil {
		return err
	}

	printFigures(w, run)
	if len(run.Report.Errors) > 0 || len(run.Report.Warnings) > 0 {
		fmt.Fprintln(w)
		printValidationReport(w, run.Report)
	}

	if !save {
		return nil
	}
	db, err := a.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := db.SaveRun(ctx, run)
	if err != nil {
		return err
	}
	a.logger.Info("run saved", zap.String("run_id", id))
	fmt.Fprintf(w, "\nSaved run %s\n", id)
	return nil
}

func (a *app) runCheck(ctx context.Context, w io.Writer) error {
	run, err := a.analyse(ctx, false)
	if err != nil {
		return err
	}

	printCoverage(w, run.Coverage)
	printValidationReport(w, run.Report)
	if !run.Report.Valid {
		return fmt.Errorf("proposal has errors (%s)", run.Report.Summary)
	}
	return nil
}

func (a *app) runProposal(ctx context.Context, w io.Writer) error {
	if a.cfg.Data.Output == "" {
		return errors.New("data.output is required")
	}
	run, err := a.analyse(ctx, true)
	if err != nil {
		return err
	}
	if err := export.WriteFile(a.cfg.Data.Output, run.Districts); err != nil {
		return err
	}

	merged := 0
	for _, d := range run.Districts {
		if d.Geometry != nil {
			merged++
		}
	}
	a.logger.Info("proposal written",
		zap.String("path", a.cfg.Data.Output),
		zap.Int("districts", len(run.Districts)),
		zap.Int("merged", merged))
	fmt.Fprintf(w, "Wrote %d districts (%d with merged shapes) to %s\n", len(run.Districts), merged, a.cfg.Data.Output)

	if geom := run.Report.ByLevel(validation.LevelGeometry); len(geom) > 0 {
		for _, g := range geom {
			fmt.Fprintf(w, "  * %s\n", g.Message)
		}
	}
	return nil
}

func (a *app) runSelect(w io.Writer, args []string) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	policy, err := a.cfg.Policy()
	if err != nil {
		return err
	}
	ids, err := parseSelection(args)
	if err != nil {
		return err
	}
	reg, _, err := a.loadRegistry(false)
	if err != nil {
		return err
	}

	printSelection(w, apportion.Summarize(reg, ids, policy))
	return nil
}

// parseSelection accepts ids and start-end ranges.
func parseSelection(args []string) ([]sa1.ID, error) {
	var pairs []proposal.RangePair
	for _, arg := range args {
		startStr, endStr, isRange := strings.Cut(arg, "-")
		start, err := strconv.ParseInt(startStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SA1 %q", arg)
		}
		if !isRange {
			pairs = append(pairs, proposal.Single(sa1.ID(start)))
			continue
		}
		end, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SA1 range %q", arg)
		}
		pairs = append(pairs, proposal.Span(sa1.ID(start), sa1.ID(end)))
	}

	ids, errs := proposal.Expand(pairs)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return ids, nil
}

func (a *app) runServe(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	policy, err := a.cfg.Policy()
	if err != nil {
		return err
	}
	reg, report, err := a.loadRegistry(a.cfg.Apportion.Geometry)
	if err != nil {
		return err
	}
	if len(report.Warnings) > 0 {
		a.logger.Warn("reference data has warnings", zap.String("report", report.Summary))
	}

	cfg := server.Config{
		Registry:     reg,
		ProposalPath: a.cfg.Data.Proposal,
		Policy:       policy,
		Workers:      a.cfg.Apportion.Workers,
		Port:         a.cfg.Server.Port,
		Logger:       a.logger,
	}
	if a.cfg.Apportion.Geometry {
		cfg.Geometry = geo.Dissolver{}
	}
	return server.New(cfg).Start(ctx)
}

func (a *app) openStore() (*store.DB, error) {
	path := a.cfg.Store.Path
	if path == "" {
		return nil, errors.New("store.path is not set (config or WA2019_DB_PATH)")
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating store directory: %w", err)
			}
		}
	}
	return store.Open(path)
}

func (a *app) runHistory(ctx context.Context, w io.Writer, limit int) error {
	db, err := a.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	printRuns(w, runs)
	return nil
}

func (a *app) runHistoryDistricts(ctx context.Context, w io.Writer, runID string) error {
	db, err := a.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	districts, err := db.Districts(ctx, runID)
	if err != nil {
		return err
	}
	printDistrictRows(w, districts)
	return nil
}
