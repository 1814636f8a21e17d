package schema

import (
	"github.com/kgraph-dev/cyphersql/pkg/ast"
	"github.com/kgraph-dev/cyphersql/pkg/cerr"
)

// Resolver checks the variable-binding invariant from the AST contract:
// every variable referenced in WHERE/RETURN/SET/DELETE/REMOVE must have
// been introduced by an earlier MATCH/CREATE/MERGE/UNWIND/YIELD, and no
// variable is bound twice in the same scope. It is grounded in the
// teacher's switch-on-statement-type validation shape, adapted to a
// single ordered clause list instead of a statement tree.
type Resolver struct {
	bound map[string]bool
}

// NewResolver creates an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{bound: map[string]bool{}}
}

// Resolve walks q's clauses in order, threading the bound-variable set
// through them. It returns the first *cerr.ResolutionError or
// *cerr.RebindError encountered.
func (r *Resolver) Resolve(q *ast.Query) error {
	for _, c := range q.Clauses {
		if err := r.resolveClause(c); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) resolveClause(c ast.Clause) error {
	switch cl := c.(type) {
	case *ast.MatchClause:
		return r.resolveMatch(cl)
	case *ast.CreateClause:
		for _, path := range cl.Paths {
			if err := r.bindPath(path, true); err != nil {
				return err
			}
		}
		return nil
	case *ast.MergeClause:
		if err := r.bindPath(cl.Path, true); err != nil {
			return err
		}
		for _, action := range cl.Actions {
			if err := r.resolveClause(action.Set); err != nil {
				return err
			}
		}
		return nil
	case *ast.ProcedureCall:
		for _, a := range cl.Args {
			if err := r.checkExpr(a); err != nil {
				return err
			}
		}
		for _, y := range cl.Yield {
			r.bound[y] = true
		}
		return nil
	case *ast.UnwindClause:
		if err := r.checkExpr(cl.Source); err != nil {
			return err
		}
		r.bound[cl.Variable] = true
		return nil
	case *ast.WithClause:
		if err := r.checkItems(cl.Items); err != nil {
			return err
		}
		if cl.Where != nil {
			if err := r.checkExpr(cl.Where); err != nil {
				return err
			}
		}
		next := map[string]bool{}
		for _, item := range cl.Items {
			if item.Alias != "" {
				next[item.Alias] = true
				continue
			}
			if v, ok := item.Expr.(*ast.Variable); ok {
				next[v.Name] = true
			}
		}
		r.bound = next
		return nil
	case *ast.SetClause:
		for _, item := range cl.Items {
			if !r.bound[item.Variable] {
				return &cerr.ResolutionError{Pos: cl.Pos(), Variable: item.Variable}
			}
			if item.Value != nil {
				if err := r.checkExpr(item.Value); err != nil {
					return err
				}
			}
		}
		return nil
	case *ast.RemoveClause:
		for _, item := range cl.Items {
			if !r.bound[item.Variable] {
				return &cerr.ResolutionError{Pos: cl.Pos(), Variable: item.Variable}
			}
		}
		return nil
	case *ast.DeleteClause:
		for _, e := range cl.Exprs {
			if err := r.checkExpr(e); err != nil {
				return err
			}
		}
		return nil
	case *ast.ReturnClause:
		if err := r.checkItems(cl.Items); err != nil {
			return err
		}
		for _, oi := range cl.OrderBy {
			if err := r.checkExpr(oi.Expr); err != nil {
				return err
			}
		}
		if cl.Skip != nil {
			if err := r.checkExpr(cl.Skip); err != nil {
				return err
			}
		}
		if cl.Limit != nil {
			if err := r.checkExpr(cl.Limit); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

func (r *Resolver) resolveMatch(cl *ast.MatchClause) error {
	for _, path := range cl.Paths {
		if err := r.bindPath(path, false); err != nil {
			return err
		}
	}
	if cl.Where != nil {
		return r.checkExpr(cl.Where)
	}
	return nil
}

// bindPath introduces every variable in path into scope. allowRebind
// is true for CREATE/MERGE, where reusing a variable a MATCH already
// bound — to attach a new edge to it, say — is expected rather than an
// error. It is false for MATCH, where a node pattern that restates
// labels or properties on an already-bound variable is an ambiguous
// redeclaration and rejected (no variable is bound twice in the same
// scope); a bare repeated variable with no labels or properties just
// continues a path across clauses (e.g. `MATCH (a)-->(b) MATCH
// (b)-->(c)`) and is always allowed.
func (r *Resolver) bindPath(path *ast.PathPattern, allowRebind bool) error {
	for _, n := range path.Nodes {
		if n.Variable == "" {
			continue
		}
		if r.bound[n.Variable] && !allowRebind && (len(n.Labels) > 0 || len(n.Props) > 0) {
			return &cerr.RebindError{Pos: n.Pos(), Variable: n.Variable}
		}
		r.bound[n.Variable] = true
	}
	for _, e := range path.Rels {
		if e.Variable != "" {
			r.bound[e.Variable] = true
		}
	}
	return nil
}

func (r *Resolver) checkItems(items []ast.ReturnItem) error {
	for _, item := range items {
		if err := r.checkExpr(item.Expr); err != nil {
			return err
		}
	}
	return nil
}

// checkExpr recurses through an expression tree verifying every
// Variable reference names a bound variable.
func (r *Resolver) checkExpr(e ast.Expr) error {
	switch ex := e.(type) {
	case *ast.Variable:
		if !r.bound[ex.Name] {
			return &cerr.ResolutionError{Pos: ex.Pos(), Variable: ex.Name}
		}
		return nil
	case *ast.PropertyAccess:
		return r.checkExpr(ex.Target)
	case *ast.FunctionCall:
		for _, a := range ex.Args {
			if err := r.checkExpr(a); err != nil {
				return err
			}
		}
		return nil
	case *ast.BinaryOp:
		if err := r.checkExpr(ex.Left); err != nil {
			return err
		}
		if ex.Right != nil {
			return r.checkExpr(ex.Right)
		}
		return nil
	case *ast.UnaryOp:
		return r.checkExpr(ex.Operand)
	case *ast.Literal:
		for _, item := range ex.List {
			if err := r.checkExpr(item); err != nil {
				return err
			}
		}
		for _, entry := range ex.Map {
			if err := r.checkExpr(entry.Value); err != nil {
				return err
			}
		}
		return nil
	default: // ParameterRef and any other leaf carry no variable reference
		return nil
	}
}
