package translate

import (
	"fmt"
	"strings"

	"github.com/kgraph-dev/cyphersql/pkg/ast"
	"github.com/kgraph-dev/cyphersql/pkg/cerr"
)

// stringFuncs maps the openCypher string functions this subset
// supports onto their SQL equivalents (§4.3.2, testable property 5).
var stringFuncs = map[string]string{
	"tolower": "LOWER",
	"toupper": "UPPER",
	"trim":    "TRIM",
	"size":    "LENGTH",
}

// lowerExpr translates an expression to a SQL fragment, pushing any
// literal or parameter value it touches onto the context's parameter
// buffer in left-to-right emission order.
func (t *Translator) lowerExpr(c *Context, e ast.Expr) (string, error) {
	switch ex := e.(type) {
	case *ast.Literal:
		return t.lowerLiteral(c, ex)
	case *ast.ParameterRef:
		return t.lowerParamRef(c, ex)
	case *ast.Variable:
		if sql, ok := c.scalar[ex.Name]; ok {
			return sql, nil
		}
		alias, ok := c.aliasOf(ex.Name)
		if !ok {
			return "", &cerr.ResolutionError{Pos: ex.Pos(), Variable: ex.Name}
		}
		return alias + "." + c.idColumn(ex.Name), nil
	case *ast.PropertyAccess:
		return t.lowerPropertyAccess(c, ex)
	case *ast.FunctionCall:
		return t.lowerFunctionCall(c, ex)
	case *ast.UnaryOp:
		return t.lowerUnaryOp(c, ex)
	case *ast.BinaryOp:
		return t.lowerBinaryOp(c, ex)
	default:
		return "", &cerr.TranslationError{Message: fmt.Sprintf("unhandled expression type %T", e)}
	}
}

func (t *Translator) lowerLiteral(c *Context, lit *ast.Literal) (string, error) {
	switch lit.Kind {
	case ast.BoolLit:
		if lit.Bool {
			return "1", nil
		}
		return "0", nil
	case ast.NullLit:
		return "NULL", nil
	case ast.IntLit:
		return c.push(lit.Int), nil
	case ast.FloatLit:
		return c.push(lit.Flt), nil
	case ast.StringLit:
		return c.push(lit.Str), nil
	case ast.ListLit:
		parts := make([]string, len(lit.List))
		for i, el := range lit.List {
			elLit, ok := el.(*ast.Literal)
			if !ok {
				return "", &cerr.TranslationError{Message: "list literal elements must themselves be literals in this context"}
			}
			s, err := t.lowerLiteral(c, elLit)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "(" + strings.Join(parts, ", ") + ")", nil
	default:
		return "", &cerr.TranslationError{Message: "map literals cannot appear as a scalar SQL expression"}
	}
}

// lowerParamRef resolves $name against the caller-supplied parameter
// mapping and pushes its value, per §3.2 ("ParameterRef ... resolved
// at translation time from a caller-supplied mapping").
func (t *Translator) lowerParamRef(c *Context, ref *ast.ParameterRef) (string, error) {
	v, ok := t.params[ref.Name]
	if !ok {
		return "", &cerr.ParameterError{Name: ref.Name, Message: "no value supplied for this parameter"}
	}
	return c.push(v), nil
}

func (t *Translator) lowerPropertyAccess(c *Context, pa *ast.PropertyAccess) (string, error) {
	v, ok := pa.Target.(*ast.Variable)
	if !ok {
		return "", &cerr.UnsupportedError{Pos: pa.Pos(), Feature: "property access on a non-variable expression"}
	}
	alias, ok := c.aliasOf(v.Name)
	if !ok {
		return "", &cerr.ResolutionError{Pos: v.Pos(), Variable: v.Name}
	}
	joinAlias := c.propertyJoin(alias, pa.Key)
	return joinAlias + "." + "val", nil
}

func (t *Translator) lowerFunctionCall(c *Context, fn *ast.FunctionCall) (string, error) {
	args := make([]string, len(fn.Args))
	for i, a := range fn.Args {
		s, err := t.lowerExpr(c, a)
		if err != nil {
			return "", err
		}
		args[i] = s
	}
	name := strings.ToLower(fn.Name)
	sqlName, ok := stringFuncs[name]
	if !ok {
		sqlName = strings.ToUpper(fn.Name)
	}
	return sqlName + "(" + strings.Join(args, ", ") + ")", nil
}

func (t *Translator) lowerUnaryOp(c *Context, op *ast.UnaryOp) (string, error) {
	operand, err := t.lowerExpr(c, op.Operand)
	if err != nil {
		return "", err
	}
	switch op.Op {
	case ast.OpNot:
		return "NOT (" + operand + ")", nil
	case ast.OpNeg:
		return "-(" + operand + ")", nil
	default:
		return "", &cerr.TranslationError{Message: "unknown unary operator"}
	}
}

func (t *Translator) lowerBinaryOp(c *Context, op *ast.BinaryOp) (string, error) {
	switch op.Op {
	case ast.OpIsNull:
		left, err := t.lowerExpr(c, op.Left)
		if err != nil {
			return "", err
		}
		return left + " IS NULL", nil
	case ast.OpIsNotNull:
		left, err := t.lowerExpr(c, op.Left)
		if err != nil {
			return "", err
		}
		return left + " IS NOT NULL", nil
	case ast.OpAnd:
		return t.lowerBoolPair(c, op.Left, op.Right, "AND")
	case ast.OpOr:
		return t.lowerBoolPair(c, op.Left, op.Right, "OR")
	case ast.OpContains:
		return t.lowerLike(c, op.Left, op.Right, "'%%' || %s || '%%'")
	case ast.OpStartsWith:
		return t.lowerLike(c, op.Left, op.Right, "%s || '%%'")
	case ast.OpEndsWith:
		return t.lowerLike(c, op.Left, op.Right, "'%%' || %s")
	case ast.OpIn:
		return t.lowerIn(c, op.Left, op.Right)
	default:
		return t.lowerComparison(c, op)
	}
}

func (t *Translator) lowerBoolPair(c *Context, l, r ast.Expr, joiner string) (string, error) {
	left, err := t.lowerExpr(c, l)
	if err != nil {
		return "", err
	}
	right, err := t.lowerExpr(c, r)
	if err != nil {
		return "", err
	}
	return "(" + left + " " + joiner + " " + right + ")", nil
}

func (t *Translator) lowerLike(c *Context, l, r ast.Expr, pattern string) (string, error) {
	left, err := t.lowerExpr(c, l)
	if err != nil {
		return "", err
	}
	right, err := t.lowerExpr(c, r)
	if err != nil {
		return "", err
	}
	return left + " LIKE " + fmt.Sprintf(pattern, right), nil
}

func (t *Translator) lowerIn(c *Context, l, r ast.Expr) (string, error) {
	left, err := t.lowerExpr(c, l)
	if err != nil {
		return "", err
	}
	list, ok := r.(*ast.Literal)
	if !ok || list.Kind != ast.ListLit {
		return "", &cerr.TranslationError{Message: "IN requires a list literal on the right-hand side"}
	}
	parts := make([]string, len(list.List))
	for i, el := range list.List {
		s, err := t.lowerExpr(c, el)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return left + " IN (" + strings.Join(parts, ", ") + ")", nil
}

// isNumericLiteral reports whether e is a bare numeric literal, used
// to decide whether a comparison against a property access needs the
// CAST(... AS DOUBLE) treatment of §4.3.2.
func isNumericLiteral(e ast.Expr) bool {
	lit, ok := e.(*ast.Literal)
	return ok && (lit.Kind == ast.IntLit || lit.Kind == ast.FloatLit)
}

func isPropertyAccess(e ast.Expr) bool {
	_, ok := e.(*ast.PropertyAccess)
	return ok
}

func (t *Translator) lowerComparison(c *Context, op *ast.BinaryOp) (string, error) {
	sym, err := comparisonSymbol(op.Op)
	if err != nil {
		return "", err
	}

	numericOnProperty := (isPropertyAccess(op.Left) && isNumericLiteral(op.Right)) ||
		(isPropertyAccess(op.Right) && isNumericLiteral(op.Left))

	left, err := t.lowerExpr(c, op.Left)
	if err != nil {
		return "", err
	}
	right, err := t.lowerExpr(c, op.Right)
	if err != nil {
		return "", err
	}
	if numericOnProperty {
		if isPropertyAccess(op.Left) {
			left = "CAST(" + left + " AS DOUBLE)"
		}
		if isPropertyAccess(op.Right) {
			right = "CAST(" + right + " AS DOUBLE)"
		}
		if isNumericLiteral(op.Left) {
			left = "CAST(" + left + " AS DOUBLE)"
		}
		if isNumericLiteral(op.Right) {
			right = "CAST(" + right + " AS DOUBLE)"
		}
	}
	return left + " " + sym + " " + right, nil
}

func comparisonSymbol(op ast.BinOp) (string, error) {
	switch op {
	case ast.OpEq:
		return "=", nil
	case ast.OpNeq:
		return "<>", nil
	case ast.OpLt:
		return "<", nil
	case ast.OpLte:
		return "<=", nil
	case ast.OpGt:
		return ">", nil
	case ast.OpGte:
		return ">=", nil
	default:
		return "", &cerr.TranslationError{Message: "unsupported comparison operator"}
	}
}
