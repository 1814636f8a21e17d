package translate

import (
	"fmt"

	"github.com/kgraph-dev/cyphersql/pkg/schema"
)

// Context is the mutable translation state threaded through one
// Translate call: alias allocation, the read-path FROM/JOIN/WHERE
// fragments, the CTE registry, and the positional parameter buffer.
// Separate invocations must use separate Contexts (§5 of the design:
// the lexer and parser are stateless, the translator is not).
type Context struct {
	namer               schema.Namer
	caseSensitiveLabels bool
	compileID           string

	nodeSeq, edgeSeq, propSeq int

	alias    map[string]string // cypher variable -> SQL alias (n0, n1... / e0, e1...)
	nodeVars map[string]bool   // variable names bound to a node row, eligible for RETURN hydration
	nodeCol  map[string]string // variable name -> id column name within its alias; "" means the default "node_id"
	scalar   map[string]string // variable name -> full SQL expression, for CTE-yielded scalars like a vector-search score
	propJoin map[string]string // "alias\x00key" -> shared property LEFT JOIN alias (p0, p1...)

	joins []string // FROM ... / JOIN ... fragments, in emission order
	where []string // WHERE conjuncts, ANDed together

	ctes    []cteDef
	cteSeen map[string]bool

	params []any
}

type cteDef struct {
	name string
	sql  string
}

// NewContext creates an empty Context.
func NewContext(namer schema.Namer, caseSensitiveLabels bool, compileID string) *Context {
	return &Context{
		namer:               namer,
		caseSensitiveLabels: caseSensitiveLabels,
		compileID:           compileID,
		alias:               map[string]string{},
		nodeVars:            map[string]bool{},
		nodeCol:             map[string]string{},
		scalar:              map[string]string{},
		propJoin:            map[string]string{},
		cteSeen:             map[string]bool{},
	}
}

// nodeAlias returns the SQL alias bound to a node variable, allocating
// a fresh one (n0, n1, ...) the first time it is seen. An anonymous
// pattern (v == "") always gets a fresh alias.
func (c *Context) nodeAlias(v string) string {
	if v != "" {
		if a, ok := c.alias[v]; ok {
			return a
		}
	}
	a := fmt.Sprintf("n%d", c.nodeSeq)
	c.nodeSeq++
	if v != "" {
		c.alias[v] = a
		c.nodeVars[v] = true
	}
	return a
}

// edgeAlias is nodeAlias's counterpart for relationship variables.
func (c *Context) edgeAlias(v string) string {
	if v != "" {
		if a, ok := c.alias[v]; ok {
			return a
		}
	}
	a := fmt.Sprintf("e%d", c.edgeSeq)
	c.edgeSeq++
	if v != "" {
		c.alias[v] = a
	}
	return a
}

// aliasOf looks up an already-bound variable's SQL alias.
func (c *Context) aliasOf(v string) (string, bool) {
	a, ok := c.alias[v]
	return a, ok
}

// idColumn returns the column name holding v's node id within its
// alias: "node_id" for a row sourced straight from the nodes table or
// a vector-search CTE, or the projected column name a WITH clause gave
// it when forwarding the variable under its own name.
func (c *Context) idColumn(v string) string {
	if col, ok := c.nodeCol[v]; ok && col != "" {
		return col
	}
	return schema.ColNodeID
}

// push appends a parameter value and returns its `?` placeholder.
func (c *Context) push(v any) string {
	c.params = append(c.params, v)
	return "?"
}

// propertyJoin returns the alias of the shared LEFT JOIN against
// rdf_props for (nodeAlias, key), emitting the join the first time the
// pair is requested and reusing it afterwards — the optimization named
// in §4.3.2.
func (c *Context) propertyJoin(nodeAlias, key string) string {
	k := nodeAlias + "\x00" + key
	if a, ok := c.propJoin[k]; ok {
		return a
	}
	a := fmt.Sprintf("p%d", c.propSeq)
	c.propSeq++
	c.propJoin[k] = a
	c.joins = append(c.joins, fmt.Sprintf(
		"LEFT JOIN %s AS %s ON %s.%s = %s.%s AND %s.%s = %s",
		c.namer.Table(schema.TableProps), a,
		a, schema.ColPropS, nodeAlias, schema.ColNodeID,
		a, schema.ColPropKey, c.push(key),
	))
	return a
}

// addCTE registers a common table expression if its name has not
// already been emitted.
func (c *Context) addCTE(name, sql string) {
	if c.cteSeen[name] {
		return
	}
	c.cteSeen[name] = true
	c.ctes = append(c.ctes, cteDef{name: name, sql: sql})
}
