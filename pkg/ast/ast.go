// Package ast defines the Cypher abstract syntax tree produced by the
// parser. Each node is a tagged-sum variant: a closed set of structs
// implementing a small marker interface, matched by the translator
// with a type switch rather than virtual dispatch. The tree owns its
// children outright; nothing here stores a parent pointer.
package ast

// Node is implemented by every AST node; Pos is the byte offset of its
// first token, used for error reporting.
type Node interface {
	Pos() int
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// Clause is implemented by every top-level query clause.
type Clause interface {
	Node
	clauseNode()
}

// Base carries the position common to all nodes; every variant embeds
// it, matching the teacher's BaseNode embedding pattern. It is exported
// so the parser can set it directly in struct literals.
type Base struct{ pos int }

func (b Base) Pos() int { return b.pos }

// At builds a Base from a byte offset.
func At(pos int) Base { return Base{pos: pos} }

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

// Literal is a constant value: exactly one of the typed fields below
// is meaningful, selected by Kind.
type Literal struct {
	Base
	Kind LiteralKind
	Int  int64
	Flt  float64
	Str  string
	Bool bool
	List []Expr     // LiteralKind == ListLit
	Map  []MapEntry // LiteralKind == MapLit
}

type LiteralKind int

const (
	IntLit LiteralKind = iota
	FloatLit
	StringLit
	BoolLit
	NullLit
	ListLit
	MapLit
)

func (*Literal) exprNode() {}

// MapEntry is one key:value pair of a map literal or inline property map.
type MapEntry struct {
	Key   string
	Value Expr
}

// Variable is a bound name in the query scope (e.g. `n` in `MATCH (n)`).
type Variable struct {
	Base
	Name string
}

func (*Variable) exprNode() {}

// ParameterRef is `$name`, resolved at translation time.
type ParameterRef struct {
	Base
	Name string
}

func (*ParameterRef) exprNode() {}

// PropertyAccess is `expr.key`.
type PropertyAccess struct {
	Base
	Target Expr
	Key    string
}

func (*PropertyAccess) exprNode() {}

// FunctionCall is `name(args...)`.
type FunctionCall struct {
	Base
	Name string
	Args []Expr
}

func (*FunctionCall) exprNode() {}

// BinaryOp is a two-operand operator.
type BinaryOp struct {
	Base
	Op    BinOp
	Left  Expr
	Right Expr // nil for IS NULL / IS NOT NULL, which carry no right operand
}

func (*BinaryOp) exprNode() {}

type BinOp int

const (
	OpEq BinOp = iota
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpAnd
	OpOr
	OpContains
	OpStartsWith
	OpEndsWith
	OpIn
	OpIsNull
	OpIsNotNull
)

// UnaryOp is a one-operand prefix operator: NOT or unary minus.
type UnaryOp struct {
	Base
	Op      UnOp
	Operand Expr
}

func (*UnaryOp) exprNode() {}

type UnOp int

const (
	OpNot UnOp = iota
	OpNeg
)

// ----------------------------------------------------------------------------
// Patterns
// ----------------------------------------------------------------------------

// NodePattern is `(variable? :Label* propMap?)`.
type NodePattern struct {
	Base
	Variable string // "" if anonymous
	Labels   []string
	Props    []MapEntry // desugared into WHERE equality conjuncts by the translator
}

// Direction of a RelationshipPattern.
type Direction int

const (
	Outgoing Direction = iota
	Incoming
	Undirected
)

// RelationshipPattern is `-[variable? :TYPE? *min..max? propMap?]-` with
// an arrow on one or neither side.
type RelationshipPattern struct {
	Base
	Variable  string
	Type      string // "" if untyped
	Direction Direction
	MinHops   int // default 1
	MaxHops   int // default 1; MinHops==MaxHops==1 for a plain single-hop edge
	Props     []MapEntry
}

// PathPattern alternates node and relationship patterns, starting and
// ending in a node: Nodes[i] is joined to Nodes[i+1] by Rels[i].
type PathPattern struct {
	Base
	Nodes []*NodePattern
	Rels  []*RelationshipPattern
}

// ----------------------------------------------------------------------------
// Clauses
// ----------------------------------------------------------------------------

// MatchClause is `OPTIONAL? MATCH pathPattern (',' pathPattern)* WHERE?`.
type MatchClause struct {
	Base
	Optional bool
	Paths    []*PathPattern
	Where    Expr // nil if absent
}

func (*MatchClause) clauseNode() {}

// ReturnItem is one projected expression with an optional alias.
type ReturnItem struct {
	Expr  Expr
	Alias string // "" if absent
}

// OrderItem is one ORDER BY entry.
type OrderItem struct {
	Expr       Expr
	Descending bool
}

// ReturnClause is the final projection of a query.
type ReturnClause struct {
	Base
	Distinct bool
	Items    []ReturnItem
	OrderBy  []OrderItem
	Skip     Expr // int literal or ParameterRef; nil if absent
	Limit    Expr // int literal or ParameterRef; nil if absent
}

func (*ReturnClause) clauseNode() {}

// WithClause is the pipeline form of RETURN: it re-projects the current
// scope's variables (optionally renaming them) before further clauses
// continue matching against the narrowed set.
type WithClause struct {
	Base
	Distinct bool
	Items    []ReturnItem
	OrderBy  []OrderItem
	Skip     Expr
	Limit    Expr
	Where    Expr // nil if absent
}

func (*WithClause) clauseNode() {}

// CreateClause is `CREATE pathPattern (',' pathPattern)*`.
type CreateClause struct {
	Base
	Paths []*PathPattern
}

func (*CreateClause) clauseNode() {}

// MergeAction is `ON MATCH|CREATE SET ...` attached to a MERGE.
type MergeAction struct {
	OnCreate bool // false => ON MATCH
	Set      *SetClause
}

// MergeClause is `MERGE pathPattern mergeAction*`.
type MergeClause struct {
	Base
	Path    *PathPattern
	Actions []MergeAction
}

func (*MergeClause) clauseNode() {}

// SetItem is one `v.k = expr` or `v:Label` assignment.
type SetItem struct {
	Variable string
	Property string // "" for a label assignment
	Labels   []string
	Value    Expr // nil for a label assignment
}

// SetClause is `SET item (',' item)*`.
type SetClause struct {
	Base
	Items []SetItem
}

func (*SetClause) clauseNode() {}

// DeleteClause is `DETACH? DELETE expr (',' expr)*`.
type DeleteClause struct {
	Base
	Detach bool
	Exprs  []Expr
}

func (*DeleteClause) clauseNode() {}

// RemoveItem is the inverse of a SetItem: a label or property removal.
type RemoveItem struct {
	Variable string
	Property string // "" for a label removal
	Labels   []string
}

// RemoveClause is `REMOVE item (',' item)*` (supplemented from the
// original implementation; see SPEC_FULL.md §E).
type RemoveClause struct {
	Base
	Items []RemoveItem
}

func (*RemoveClause) clauseNode() {}

// UnwindClause is `UNWIND expr AS variable` (supplemented; see
// SPEC_FULL.md §E).
type UnwindClause struct {
	Base
	Source   Expr
	Variable string
}

func (*UnwindClause) clauseNode() {}

// ProcedureCall is `CALL dotted.name(args) YIELD col, col...`. At most
// one may appear in a Query, preceding other reading clauses.
type ProcedureCall struct {
	Base
	Name    string // dotted, e.g. "ivg.vector.search"
	Args    []Expr
	Yield   []string
	Options []MapEntry // brace-delimited map following the last positional argument
}

func (*ProcedureCall) clauseNode() {}

// Query is the ordered sequence of clauses that make up one compiled
// unit.
type Query struct {
	Base
	Clauses []Clause
}
