// Package translate walks a resolved Cypher AST and lowers it to one
// or more parameterized SQL statements against the fixed relational
// schema in pkg/schema. A Translator is pure with respect to its
// (*ast.Query, parameters) input: it holds no connection, no cache, and
// no mutable state beyond what a single Translate call allocates.
package translate

import (
	"fmt"

	"github.com/kgraph-dev/cyphersql/pkg/ast"
	"github.com/kgraph-dev/cyphersql/pkg/cerr"
	"github.com/kgraph-dev/cyphersql/pkg/schema"
)

// Translator configures how a query is lowered: the schema prefix
// tables are qualified with and whether label comparisons are
// case-sensitive.
type Translator struct {
	namer               schema.Namer
	caseSensitiveLabels bool
	params              map[string]any
}

// Option configures a Translator.
type Option func(*Translator)

// WithSchemaPrefix qualifies every table reference with the given
// prefix (e.g. "Graph_KG"), matching the host engine's namespace.
func WithSchemaPrefix(prefix string) Option {
	return func(t *Translator) { t.namer = schema.NewNamer(prefix) }
}

// WithCaseSensitiveLabels sets whether label comparisons are
// case-sensitive (the default). Passing false wraps both sides of every
// label comparison in UPPER().
func WithCaseSensitiveLabels(sensitive bool) Option {
	return func(t *Translator) { t.caseSensitiveLabels = sensitive }
}

// New builds a Translator with the given options applied over
// defaults: no schema prefix, plain case-sensitive label/type equality
// (§4.3.1's unconditional `label = ?`).
func New(opts ...Option) *Translator {
	t := &Translator{caseSensitiveLabels: true}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate resolves and lowers a parsed query against a caller-
// supplied parameter mapping for its $name references, per §5: the
// AST is first checked by pkg/schema.Resolver, then walked clause by
// clause, dispatching reads to a single accumulating SQL SELECT and
// writes to an ordered list of statements.
func (t *Translator) Translate(q *ast.Query, params map[string]any, compileID string) (*SQLProgram, error) {
	if err := schema.NewResolver().Resolve(q); err != nil {
		return nil, err
	}
	t.params = params
	if t.params == nil {
		t.params = map[string]any{}
	}

	c := NewContext(t.namer, t.caseSensitiveLabels, compileID)

	var writeStages []Stage
	var returnClause *ast.ReturnClause
	var withClauses []*ast.WithClause

	for _, clause := range q.Clauses {
		switch cl := clause.(type) {
		case *ast.ProcedureCall:
			if err := t.lowerCall(c, cl); err != nil {
				return nil, err
			}
		case *ast.MatchClause:
			if err := t.lowerMatch(c, cl); err != nil {
				return nil, err
			}
		case *ast.UnwindClause:
			if err := t.lowerUnwind(c, cl); err != nil {
				return nil, err
			}
		case *ast.WithClause:
			withClauses = append(withClauses, cl)
			if err := t.lowerWith(c, cl); err != nil {
				return nil, err
			}
		case *ast.CreateClause:
			stages, err := t.lowerCreate(c, cl)
			if err != nil {
				return nil, err
			}
			writeStages = append(writeStages, stages...)
		case *ast.MergeClause:
			stages, err := t.lowerMerge(c, cl)
			if err != nil {
				return nil, err
			}
			writeStages = append(writeStages, stages...)
		case *ast.SetClause:
			stages, err := t.lowerSet(c, cl)
			if err != nil {
				return nil, err
			}
			writeStages = append(writeStages, stages...)
		case *ast.RemoveClause:
			stages, err := t.lowerRemove(c, cl)
			if err != nil {
				return nil, err
			}
			writeStages = append(writeStages, stages...)
		case *ast.DeleteClause:
			stages, err := t.lowerDelete(c, cl)
			if err != nil {
				return nil, err
			}
			writeStages = append(writeStages, stages...)
		case *ast.ReturnClause:
			returnClause = cl
		default:
			return nil, &cerr.TranslationError{Message: fmt.Sprintf("unhandled clause type %T", clause)}
		}
	}

	if returnClause != nil {
		if len(writeStages) > 0 {
			return nil, &cerr.UnsupportedError{Pos: returnClause.Pos(), Feature: "RETURN in a query that also writes"}
		}
		sql, err := t.buildSelect(c, projection{
			distinct: returnClause.Distinct,
			items:    returnClause.Items,
			orderBy:  returnClause.OrderBy,
			skip:     returnClause.Skip,
			limit:    returnClause.Limit,
			hydrate:  true,
		})
		if err != nil {
			return nil, err
		}
		return &SQLProgram{
			SQL:             []string{sql},
			Parameters:      [][]any{c.params},
			IsTransactional: false,
			Metadata:        &Metadata{CompileID: compileID},
		}, nil
	}

	if len(writeStages) == 0 {
		return nil, &cerr.TranslationError{Message: "query has no RETURN projection and no write clause to execute"}
	}
	sqls := make([]string, len(writeStages))
	paramSets := make([][]any, len(writeStages))
	for i, s := range writeStages {
		sqls[i] = s.SQL
		paramSets[i] = s.Params
	}
	return &SQLProgram{
		SQL:             sqls,
		Parameters:      paramSets,
		IsTransactional: len(writeStages) > 1,
		Metadata:        &Metadata{CompileID: compileID},
	}, nil
}

// lowerUnwind flattens a literal list into one synthetic row source per
// element, joined as a derived table — UNWIND has no standing source
// this subset models as a table, so only a list literal is supported.
func (t *Translator) lowerUnwind(c *Context, cl *ast.UnwindClause) error {
	lit, ok := cl.Source.(*ast.Literal)
	if !ok || lit.Kind != ast.ListLit {
		return &cerr.UnsupportedError{Pos: cl.Pos(), Feature: "UNWIND of a non-literal-list expression"}
	}
	rows := make([]string, len(lit.List))
	for i, el := range lit.List {
		elLit, ok := el.(*ast.Literal)
		if !ok {
			return &cerr.UnsupportedError{Pos: el.Pos(), Feature: "UNWIND list elements must be literals"}
		}
		sql, err := t.lowerLiteral(c, elLit)
		if err != nil {
			return err
		}
		rows[i] = fmt.Sprintf("SELECT %s AS val", sql)
	}
	alias := fmt.Sprintf("u%d", len(c.joins))
	cteName := "Unwind" + alias
	c.addCTE(cteName, fmt.Sprintf("%s AS (%s)", cteName, joinUnion(rows)))
	if len(c.joins) == 0 {
		c.joins = append(c.joins, fmt.Sprintf("FROM %s AS %s", cteName, alias))
	} else {
		c.joins = append(c.joins, fmt.Sprintf(", %s AS %s", cteName, alias))
	}
	c.scalar[cl.Variable] = alias + ".val"
	return nil
}

func joinUnion(rows []string) string {
	out := rows[0]
	for _, r := range rows[1:] {
		out += " UNION ALL " + r
	}
	return out
}

// lowerWith lowers a WITH clause as an intermediate SELECT folded into
// a CTE: downstream clauses see only the variables WITH re-projects,
// matching the scope-narrowing the resolver already enforces.
func (t *Translator) lowerWith(c *Context, cl *ast.WithClause) error {
	sql, err := t.buildSelect(c, projection{
		distinct: cl.Distinct,
		items:    cl.Items,
		orderBy:  cl.OrderBy,
		skip:     cl.Skip,
		limit:    cl.Limit,
	})
	if err != nil {
		return err
	}

	cteName := fmt.Sprintf("With%d", len(c.ctes))
	// sql already carries any CTEs it depends on inlined as a WITH
	// prefix; strip that prefix back off since addCTE will own it.
	sql = stripLeadingWith(sql)
	c.ctes = nil
	c.cteSeen = map[string]bool{}
	c.joins = nil
	c.where = nil

	colNames := make([]string, len(cl.Items))
	for i, item := range cl.Items {
		name := item.Alias
		if name == "" {
			if v, ok := item.Expr.(*ast.Variable); ok {
				name = v.Name
			} else {
				name = fmt.Sprintf("col%d", i)
			}
		}
		colNames[i] = name
	}

	c.addCTE(cteName, fmt.Sprintf("%s (%s) AS (%s)", cteName, joinCols(colNames), sql))
	alias := fmt.Sprintf("w%d", len(c.alias))
	c.joins = append(c.joins, fmt.Sprintf("FROM %s AS %s", cteName, alias))

	for i, item := range cl.Items {
		name := colNames[i]
		if v, ok := item.Expr.(*ast.Variable); ok && c.nodeVars[v.Name] {
			c.alias[name] = alias
			c.nodeVars[name] = true
			// the CTE projects this node's id under its own column
			// name (name), not the physical "node_id" column.
			c.nodeCol[name] = name
		} else {
			c.scalar[name] = alias + "." + name
		}
	}
	if cl.Where != nil {
		whereSQL, err := t.lowerExpr(c, cl.Where)
		if err != nil {
			return err
		}
		c.where = append(c.where, whereSQL)
	}
	return nil
}

func joinCols(cols []string) string {
	out := cols[0]
	for _, c := range cols[1:] {
		out += ", " + c
	}
	return out
}

func stripLeadingWith(sql string) string {
	const prefix = "WITH "
	if len(sql) < len(prefix) || sql[:len(prefix)] != prefix {
		return sql
	}
	// Find the SELECT that follows the CTE definitions by tracking
	// paren depth; the outer SELECT starts at depth 0.
	depth := 0
	for i := len(prefix); i < len(sql); i++ {
		switch sql[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 && i+7 <= len(sql) && sql[i:i+7] == "SELECT " {
			return sql[i:]
		}
	}
	return sql
}
