// Package union grows a multi-year UNION ALL view by one yearly view at a time.
package union

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/reloquent/kvpview/internal/catalog"
	"github.com/reloquent/kvpview/internal/database"
	"github.com/reloquent/kvpview/internal/ident"
)

// Spec identifies the union view and the yearly view to fold into it.
type Spec struct {
	TargetSchema string
	UnionView    string
	YearlyPrefix string
	Year         int
}

// YearlyView is {prefix}_{year}_vw.
func (s Spec) YearlyView() string {
	return fmt.Sprintf("%s_%d_vw", s.YearlyPrefix, s.Year)
}

// Validate checks the identifiers that end up in DDL and the year.
func (s Spec) Validate() error {
	if s.Year <= 0 {
		return fmt.Errorf("year must be positive, got %d", s.Year)
	}
	if err := ident.Validate("target schema", s.TargetSchema); err != nil {
		return err
	}
	if err := ident.Validate("union view", s.UnionView); err != nil {
		return err
	}
	return ident.Validate("yearly view", s.YearlyView())
}

// Outcome says what Append did.
type Outcome string

const (
	Appended               Outcome = "appended"
	SkippedMissingYearly   Outcome = "yearly_view_missing"
	SkippedMissingUnion    Outcome = "union_view_missing"
	SkippedAlreadyIncluded Outcome = "already_included"
)

// Result reports the outcome of Append.
type Result struct {
	Outcome    Outcome
	YearlyView string // qualified
	UnionView  string // qualified
	Definition string // new union body; set only when Appended
}

// Changed reports whether the union view was rewritten.
func (r *Result) Changed() bool {
	return r.Outcome == Appended
}

// Message is a one-line human readable summary.
func (r *Result) Message() string {
	switch r.Outcome {
	case Appended:
		return fmt.Sprintf("Added %s to %s.", r.YearlyView, r.UnionView)
	case SkippedMissingYearly:
		return fmt.Sprintf("View %s not found, skipping update.", r.YearlyView)
	case SkippedMissingUnion:
		return fmt.Sprintf("Union view %s not found.", r.UnionView)
	case SkippedAlreadyIncluded:
		return fmt.Sprintf("%s is already included in %s. No update needed.", r.YearlyView, r.UnionView)
	default:
		return string(r.Outcome)
	}
}

// Maintainer appends yearly views to a union view.
type Maintainer struct {
	logger *slog.Logger
}

// New creates a Maintainer.
func New(logger *slog.Logger) *Maintainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Maintainer{logger: logger}
}

// Append adds spec's yearly view to the union view when the yearly view
// exists, the union view exists, and the union does not reference it yet.
// Every check and the rewrite share one transaction. Skips are not errors.
func (m *Maintainer) Append(ctx context.Context, db database.TxBeginner, spec Spec) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	yearly := spec.YearlyView()
	res := &Result{
		YearlyView: ident.Qualified(spec.TargetSchema, yearly),
		UnionView:  ident.Qualified(spec.TargetSchema, spec.UnionView),
	}

	err := database.WithTx(ctx, db, func(tx *sql.Tx) error {
		exists, err := catalog.ViewExists(ctx, tx, spec.TargetSchema, yearly)
		if err != nil {
			return err
		}
		if !exists {
			res.Outcome = SkippedMissingYearly
			return nil
		}

		view, err := catalog.GetView(ctx, tx, spec.TargetSchema, spec.UnionView)
		if err != nil {
			return err
		}
		if view == nil {
			res.Outcome = SkippedMissingUnion
			return nil
		}

		if Includes(view.Definition, yearly) {
			res.Outcome = SkippedAlreadyIncluded
			return nil
		}

		body := Extend(view.Definition, spec.TargetSchema, yearly)
		if err := database.ExecDDL(ctx, tx,
			fmt.Sprintf("DROP VIEW IF EXISTS %s CASCADE", res.UnionView),
			fmt.Sprintf("CREATE VIEW %s AS\n%s", res.UnionView, body),
		); err != nil {
			return err
		}
		res.Outcome = Appended
		res.Definition = body
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("appending %s to %s: %w", res.YearlyView, res.UnionView, err)
	}

	m.logger.InfoContext(ctx, res.Message(), "outcome", string(res.Outcome), "union", res.UnionView, "yearly", res.YearlyView)
	return res, nil
}

// Extend returns the union body with one more UNION ALL branch selecting from
// schema.view. Surrounding whitespace and trailing terminators are removed
// from definition first.
func Extend(definition, schema, view string) string {
	body := strings.TrimRight(strings.TrimSpace(definition), ";")
	return body + "\nUNION ALL\nSELECT * FROM " + ident.Qualified(schema, view)
}

const identChars = `a-zA-Z0-9_$`

// Includes reports whether definition mentions name as a whole identifier, so
// kvp_arab_2026_vw does not match inside kvp_arab_20260_vw.
func Includes(definition, name string) bool {
	re := regexp.MustCompile(`(^|[^` + identChars + `])` + regexp.QuoteMeta(name) + `($|[^` + identChars + `])`)
	return re.MatchString(definition)
}

var fromPattern = regexp.MustCompile(`(?i)\bFROM\s+(?:"?([a-z_][a-z0-9_$]*)"?\.)?"?([a-z_][a-z0-9_$]*)"?`)

// ReferencedViews lists the relations a union definition selects from, in
// order of appearance, schema-qualified when the definition qualifies them.
func ReferencedViews(definition string) []string {
	var out []string
	for _, m := range fromPattern.FindAllStringSubmatch(definition, -1) {
		if m[1] != "" {
			out = append(out, ident.Qualified(m[1], m[2]))
			continue
		}
		out = append(out, m[2])
	}
	return out
}
