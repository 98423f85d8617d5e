// Package viewgen builds and (re)creates the yearly unpivot view that turns
// wide ranking rows into one (id, field) row per catalog field.
package viewgen

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"text/template"

	"github.com/reloquent/kvpview/internal/database"
	"github.com/reloquent/kvpview/internal/ident"
	"github.com/reloquent/kvpview/internal/kvp"
)

// Spec describes one yearly view.
type Spec struct {
	SourceSchema  string
	SourceView    string
	TargetSchema  string
	TargetView    string
	Ranking       string
	Year          int
	RankingDetail string
}

// Validate checks every identifier against the allow-list and the year.
func (s Spec) Validate() error {
	for _, id := range []struct{ field, value string }{
		{"source schema", s.SourceSchema},
		{"source view", s.SourceView},
		{"target schema", s.TargetSchema},
		{"target view", s.TargetView},
	} {
		if err := ident.Validate(id.field, id.value); err != nil {
			return err
		}
	}
	if s.Year <= 0 {
		return fmt.Errorf("year must be positive, got %d", s.Year)
	}
	return nil
}

// Source is the qualified source view name.
func (s Spec) Source() string { return ident.Qualified(s.SourceSchema, s.SourceView) }

// Target is the qualified target view name.
func (s Spec) Target() string { return ident.Qualified(s.TargetSchema, s.TargetView) }

// Result reports a created view.
type Result struct {
	View   string
	Fields int
	DDL    string
}

const selectTemplate = `SELECT s.id, {{.Ranking}}::text AS ranking, {{.Year}} AS year,
       {{.RankingDetail}}::text AS ranking_detail,
       v.field, v.value, v.type
FROM {{.Source}} s
CROSS JOIN LATERAL (VALUES
{{- range $i, $r := .Rows}}{{if $i}},{{end}}
    ({{$r.Field}}::text, {{$r.Expr}}, {{$r.Type}}::text)
{{- end}}
) AS v(field, value, type)`

var selectTmpl = template.Must(template.New("select").Parse(selectTemplate))

type templateData struct {
	Ranking       string
	Year          string
	RankingDetail string
	Source        string
	Rows          []rowData
}

type rowData struct {
	Field string
	Expr  string
	Type  string
}

// Generator renders and applies unpivot views for a field catalog.
type Generator struct {
	catalog *kvp.Catalog
	logger  *slog.Logger
}

// New creates a Generator. A nil catalog uses kvp.Default.
func New(catalog *kvp.Catalog, logger *slog.Logger) *Generator {
	if catalog == nil {
		catalog = kvp.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{catalog: catalog, logger: logger}
}

// Select renders the view body.
func (g *Generator) Select(spec Spec) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}

	data := templateData{
		Ranking:       ident.Literal(spec.Ranking),
		Year:          strconv.Itoa(spec.Year),
		RankingDetail: ident.Literal(spec.RankingDetail),
		Source:        spec.Source(),
	}
	for _, f := range g.catalog.Fields() {
		data.Rows = append(data.Rows, rowData{
			Field: ident.Literal(f.Name()),
			Expr:  f.Expr,
			Type:  ident.Literal(string(f.Type)),
		})
	}

	var buf bytes.Buffer
	if err := selectTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// Statements returns the DROP and CREATE statements, without terminators.
func (g *Generator) Statements(spec Spec) ([]string, error) {
	body, err := g.Select(spec)
	if err != nil {
		return nil, err
	}
	return []string{
		fmt.Sprintf("DROP VIEW IF EXISTS %s CASCADE", spec.Target()),
		fmt.Sprintf("CREATE VIEW %s AS\n%s", spec.Target(), body),
	}, nil
}

// Render returns the full DDL script for spec.
func (g *Generator) Render(spec Spec) (string, error) {
	stmts, err := g.Statements(spec)
	if err != nil {
		return "", err
	}
	return strings.Join(stmts, ";\n") + ";\n", nil
}

// CreateOrReplace drops and recreates the target view in one transaction.
func (g *Generator) CreateOrReplace(ctx context.Context, db database.TxBeginner, spec Spec) (*Result, error) {
	stmts, err := g.Statements(spec)
	if err != nil {
		return nil, err
	}

	g.logger.Debug("replacing view", "view", spec.Target(), "source", spec.Source(), "fields", g.catalog.Len())

	err = database.WithTx(ctx, db, func(tx *sql.Tx) error {
		return database.ExecDDL(ctx, tx, stmts...)
	})
	if err != nil {
		return nil, fmt.Errorf("replacing view %s: %w", spec.Target(), err)
	}

	g.logger.Info("view created/refreshed", "view", spec.Target(), "year", spec.Year, "fields", g.catalog.Len())

	return &Result{
		View:   spec.Target(),
		Fields: g.catalog.Len(),
		DDL:    strings.Join(stmts, ";\n") + ";\n",
	}, nil
}
