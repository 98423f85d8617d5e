// Package catalog reads view metadata from pg_views.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/reloquent/kvpview/internal/database"
	"github.com/reloquent/kvpview/internal/ident"
)

// View is one row of pg_views.
type View struct {
	Schema     string
	Name       string
	Definition string
}

// QualifiedName returns schema.name.
func (v *View) QualifiedName() string {
	return ident.Qualified(v.Schema, v.Name)
}

const viewExistsQuery = `
	SELECT EXISTS (
		SELECT 1 FROM pg_views
		WHERE schemaname = $1
		  AND viewname = $2
	)`

const viewDefinitionQuery = `
	SELECT definition
	FROM pg_views
	WHERE schemaname = $1
	  AND viewname = $2`

// ViewExists reports whether schema.name is a view.
func ViewExists(ctx context.Context, q database.Querier, schema, name string) (bool, error) {
	var exists bool
	if err := q.QueryRowContext(ctx, viewExistsQuery, schema, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking view %s: %w", ident.Qualified(schema, name), err)
	}
	return exists, nil
}

// GetView returns the stored definition of schema.name, or nil when the view
// does not exist.
func GetView(ctx context.Context, q database.Querier, schema, name string) (*View, error) {
	var def sql.NullString
	err := q.QueryRowContext(ctx, viewDefinitionQuery, schema, name).Scan(&def)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading definition of %s: %w", ident.Qualified(schema, name), err)
	}
	return &View{Schema: schema, Name: name, Definition: def.String}, nil
}
