// Package job runs the configured view generation followed by the union update.
package job

import (
	"context"
	"log/slog"

	"github.com/reloquent/kvpview/internal/config"
	"github.com/reloquent/kvpview/internal/database"
	"github.com/reloquent/kvpview/internal/union"
	"github.com/reloquent/kvpview/internal/viewgen"
)

// ViewSpec maps the job config onto a viewgen.Spec.
func ViewSpec(j config.JobConfig) viewgen.Spec {
	return viewgen.Spec{
		SourceSchema:  j.Source.Schema,
		SourceView:    j.Source.View,
		TargetSchema:  j.Target.Schema,
		TargetView:    j.Target.View,
		Ranking:       j.Constants.Ranking,
		Year:          j.Year,
		RankingDetail: j.Constants.RankingDetail,
	}
}

// UnionSpec maps the job config onto a union.Spec for year. ok is false when
// no union view is configured.
func UnionSpec(j config.JobConfig, year int) (spec union.Spec, ok bool) {
	if j.Union.View == "" {
		return union.Spec{}, false
	}
	return union.Spec{
		TargetSchema: j.Target.Schema,
		UnionView:    j.Union.View,
		YearlyPrefix: j.Union.Prefix,
		Year:         year,
	}, true
}

// Report collects the results of a run. Union is nil when the union step
// was not configured.
type Report struct {
	View  *viewgen.Result
	Union *union.Result
}

// Runner wires the generator and maintainer to one database.
type Runner struct {
	db         database.TxBeginner
	generator  *viewgen.Generator
	maintainer *union.Maintainer
	logger     *slog.Logger
}

// NewRunner creates a Runner using the default field catalog.
func NewRunner(db database.TxBeginner, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		db:         db,
		generator:  viewgen.New(nil, logger),
		maintainer: union.New(logger),
		logger:     logger,
	}
}

// Run validates both specs up front, then creates the yearly view and folds
// it into the union view. The union step runs only after the view succeeds.
func (r *Runner) Run(ctx context.Context, j config.JobConfig) (*Report, error) {
	vs := ViewSpec(j)
	if err := vs.Validate(); err != nil {
		return nil, err
	}
	us, withUnion := UnionSpec(j, j.Year)
	if withUnion {
		if err := us.Validate(); err != nil {
			return nil, err
		}
	}

	report := &Report{}
	res, err := r.generator.CreateOrReplace(ctx, r.db, vs)
	if err != nil {
		return nil, err
	}
	report.View = res

	if !withUnion {
		r.logger.InfoContext(ctx, "no union view configured, skipping union step")
		return report, nil
	}
	if us.YearlyView() != vs.TargetView {
		r.logger.WarnContext(ctx, "yearly view name differs from generated view",
			"yearly", us.YearlyView(), "generated", vs.TargetView)
	}

	ures, err := r.maintainer.Append(ctx, r.db, us)
	if err != nil {
		return report, err
	}
	report.Union = ures
	return report, nil
}
