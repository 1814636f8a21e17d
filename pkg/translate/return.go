package translate

import (
	"fmt"
	"strings"

	"github.com/kgraph-dev/cyphersql/pkg/ast"
	"github.com/kgraph-dev/cyphersql/pkg/cerr"
	"github.com/kgraph-dev/cyphersql/pkg/schema"
)

// projection is the shared SELECT-clause lowering behind RETURN and
// WITH (§4.3.3): both project a list of items, optionally DISTINCT,
// with ORDER BY / SKIP / LIMIT.
type projection struct {
	distinct bool
	items    []ast.ReturnItem
	orderBy  []ast.OrderItem
	skip     ast.Expr
	limit    ast.Expr
	// hydrate expands a bare node variable into its JSON id/labels/
	// properties object. RETURN sets this; WITH leaves it false so a
	// re-projected node variable stays a plain node_id a later MATCH
	// can still join against.
	hydrate bool
}

// buildSelect assembles one complete SELECT statement from the
// context's accumulated FROM/JOIN/WHERE state plus a projection.
func (t *Translator) buildSelect(c *Context, p projection) (string, error) {
	var cols []string
	for _, item := range p.items {
		itemCols, err := t.lowerReturnItem(c, item, p.hydrate)
		if err != nil {
			return "", err
		}
		cols = append(cols, itemCols...)
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	if p.distinct {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(" ")
	b.WriteString(strings.Join(c.joins, " "))
	if len(c.where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(c.where, " AND "))
	}

	if len(p.orderBy) > 0 {
		parts := make([]string, len(p.orderBy))
		for i, o := range p.orderBy {
			sql, err := t.lowerExpr(c, o.Expr)
			if err != nil {
				return "", err
			}
			if o.Descending {
				sql += " DESC"
			}
			parts[i] = sql
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(parts, ", "))
	}

	if p.limit != nil {
		n, err := resolveIntLiteral(t, p.limit)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, " LIMIT %d", n)
	}
	if p.skip != nil {
		n, err := resolveIntLiteral(t, p.skip)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, " OFFSET %d", n)
	}

	sql := b.String()
	if len(c.ctes) > 0 {
		defs := make([]string, len(c.ctes))
		for i, d := range c.ctes {
			defs[i] = d.sql
		}
		sql = "WITH " + strings.Join(defs, ", ") + " " + sql
	}
	return sql, nil
}

// resolveIntLiteral resolves SKIP/LIMIT to a plain integer at
// translation time: these are never parameterized (testable property
// 2 — no `?` placeholder is emitted for them).
func resolveIntLiteral(t *Translator, e ast.Expr) (int64, error) {
	switch v := e.(type) {
	case *ast.Literal:
		if v.Kind == ast.IntLit {
			return v.Int, nil
		}
		return 0, &cerr.ParameterError{Message: "SKIP/LIMIT must be an integer literal"}
	case *ast.ParameterRef:
		val, ok := t.params[v.Name]
		if !ok {
			return 0, &cerr.ParameterError{Name: v.Name, Message: "no value supplied for this parameter"}
		}
		switch n := val.(type) {
		case int:
			return int64(n), nil
		case int64:
			return n, nil
		default:
			return 0, &cerr.ParameterError{Name: v.Name, Message: "SKIP/LIMIT parameter must be an integer"}
		}
	default:
		return 0, &cerr.ParameterError{Message: "SKIP/LIMIT must be an integer literal or parameter"}
	}
}

// lowerReturnItem renders one projected item as one or more output
// columns. A hydrated bare node variable expands to the three columns
// §4.3.3 names: node_id, node_labels, node_props.
func (t *Translator) lowerReturnItem(c *Context, item ast.ReturnItem, hydrate bool) ([]string, error) {
	if v, ok := item.Expr.(*ast.Variable); ok && hydrate && c.nodeVars[v.Name] {
		alias, _ := c.aliasOf(v.Name)
		return hydrateNode(c, alias, c.idColumn(v.Name), item.Alias), nil
	}
	sql, err := t.lowerExpr(c, item.Expr)
	if err != nil {
		return nil, err
	}
	alias := item.Alias
	if alias == "" {
		if v, ok := item.Expr.(*ast.Variable); ok {
			alias = v.Name
		}
	}
	if alias != "" {
		sql += " AS " + alias
	}
	return []string{sql}, nil
}

// hydrateNode expands a bare node variable into node_id, node_labels
// (a JSON array of label strings), and node_props (a JSON array of
// {key, value} objects), each via a correlated subquery against the
// label/property tables. alias prefixes the column names when the
// RETURN item carries one, disambiguating multiple hydrated variables
// in the same projection.
func hydrateNode(c *Context, tableAlias, idCol, itemAlias string) []string {
	labels := c.namer.Table(schema.TableLabels)
	props := c.namer.Table(schema.TableProps)

	prefix := ""
	if itemAlias != "" {
		prefix = itemAlias + "_"
	}

	idExpr := fmt.Sprintf("%s.%s AS %snode_id", tableAlias, idCol, prefix)
	labelsExpr := fmt.Sprintf(
		"(SELECT JSON_ARRAYAGG(%s) FROM %s WHERE %s = %s.%s) AS %snode_labels",
		schema.ColLabel, labels, schema.ColLabelS, tableAlias, idCol, prefix,
	)
	propsExpr := fmt.Sprintf(
		"(SELECT JSON_ARRAYAGG(JSON_OBJECT('key', %s, 'value', %s)) FROM %s WHERE %s = %s.%s) AS %snode_props",
		schema.ColPropKey, schema.ColPropVal, props, schema.ColPropS, tableAlias, idCol, prefix,
	)
	return []string{idExpr, labelsExpr, propsExpr}
}
