package translate

import (
	"fmt"
	"strings"

	"github.com/kgraph-dev/cyphersql/pkg/ast"
	"github.com/kgraph-dev/cyphersql/pkg/cerr"
	"github.com/kgraph-dev/cyphersql/pkg/schema"
)

const maxFixedHops = 6

// lowerMatch emits the FROM/JOIN chain and WHERE conjuncts for one
// MATCH clause (§4.3.1). OPTIONAL MATCH uses LEFT JOIN throughout.
func (t *Translator) lowerMatch(c *Context, m *ast.MatchClause) error {
	joinKeyword := "INNER JOIN"
	if m.Optional {
		joinKeyword = "LEFT JOIN"
	}
	for _, path := range m.Paths {
		if err := t.lowerPath(c, path, joinKeyword); err != nil {
			return err
		}
	}
	if m.Where != nil {
		sql, err := t.lowerExpr(c, m.Where)
		if err != nil {
			return err
		}
		c.where = append(c.where, sql)
	}
	return nil
}

// lowerPath joins one path pattern's node and relationship patterns
// onto the accumulating FROM/JOIN chain.
func (t *Translator) lowerPath(c *Context, path *ast.PathPattern, joinKeyword string) error {
	first := path.Nodes[0]
	_, alreadyBound := c.aliasOf(first.Variable)
	leftAlias := c.nodeAlias(first.Variable)
	if !alreadyBound {
		source := c.namer.Table(schema.TableNodes)
		if len(c.joins) == 0 {
			c.joins = append(c.joins, fmt.Sprintf("FROM %s AS %s", source, leftAlias))
		} else {
			c.joins = append(c.joins, fmt.Sprintf(", %s AS %s", source, leftAlias))
		}
	}
	if err := t.lowerNodeConstraints(c, leftAlias, first); err != nil {
		return err
	}

	for i, rel := range path.Rels {
		right := path.Nodes[i+1]
		rightAlias, err := t.lowerRel(c, leftAlias, right, rel, joinKeyword)
		if err != nil {
			return err
		}
		if err := t.lowerNodeConstraints(c, rightAlias, right); err != nil {
			return err
		}
		leftAlias = rightAlias
	}
	return nil
}

// lowerNodeConstraints joins the label and inline-property filters of
// a node pattern, adding the property filters as WHERE conjuncts since
// property maps in patterns desugar to equality conditions (§3.2).
func (t *Translator) lowerNodeConstraints(c *Context, alias string, n *ast.NodePattern) error {
	for i, label := range n.Labels {
		lAlias := fmt.Sprintf("l%d_%d", c.nodeSeqForLabels(), i)
		cmpLeft, cmpRight := lAlias+"."+schema.ColLabel, c.push(label)
		if !c.caseSensitiveLabels {
			cmpLeft = "UPPER(" + cmpLeft + ")"
			cmpRight = "UPPER(" + cmpRight + ")"
		}
		c.joins = append(c.joins, fmt.Sprintf(
			"INNER JOIN %s AS %s ON %s.%s = %s.%s AND %s = %s",
			c.namer.Table(schema.TableLabels), lAlias,
			lAlias, schema.ColLabelS, alias, schema.ColNodeID,
			cmpLeft, cmpRight,
		))
	}
	for _, prop := range n.Props {
		propLit, ok := prop.Value.(*ast.Literal)
		if !ok {
			return &cerr.UnsupportedError{Pos: prop.Value.Pos(), Feature: "non-literal inline property values"}
		}
		joinAlias := c.propertyJoin(alias, prop.Key)
		rhs, err := t.lowerLiteral(c, propLit)
		if err != nil {
			return err
		}
		c.where = append(c.where, fmt.Sprintf("%s.%s = %s", joinAlias, schema.ColPropVal, rhs))
	}
	return nil
}

// nodeSeqForLabels gives each label join a stable, collision-free
// suffix without growing the alias table with non-variable entries.
func (c *Context) nodeSeqForLabels() int {
	c.propSeq++ // borrow the same monotonic counter; labels and property joins never collide on alias text
	return c.propSeq
}

// lowerRel joins a relationship pattern between leftAlias and the node
// pattern `right`, returning right's freshly allocated alias. A fixed
// hop count (`*n`, or the implicit `*1`) unrolls into a chain of plain
// joins; a bounded range (`*min..max`) unions each chain length from
// min to max into one CTE of (left_id, right_id) id pairs, joined once
// (§4.4: multi-hop fixed-length patterns are desugared to explicit
// chained joins; only unbounded or over-long ranges are refused).
func (t *Translator) lowerRel(c *Context, leftAlias string, right *ast.NodePattern, rel *ast.RelationshipPattern, joinKeyword string) (string, error) {
	minHops, maxHops := rel.MinHops, rel.MaxHops
	if minHops < 1 {
		minHops = 1
	}
	if maxHops < minHops {
		maxHops = minHops
	}
	if maxHops > maxFixedHops {
		return "", &cerr.UnsupportedError{Pos: rel.Pos(), Feature: "relationship pattern spans too many hops"}
	}

	// A variable the query already bound (reused across two relationship
	// patterns, e.g. `MATCH (a)-->(b) MATCH (b)-->(c)`) already has a
	// nodes-table join; only a variable seen here for the first time
	// needs one added.
	_, rightAlreadyBound := c.aliasOf(right.Variable)
	rightAlias := c.nodeAlias(right.Variable)

	if minHops == maxHops {
		if err := t.lowerHopChain(c, leftAlias, rightAlias, rel, joinKeyword, maxHops, rightAlreadyBound); err != nil {
			return "", err
		}
		return rightAlias, nil
	}

	if err := t.lowerHopRange(c, leftAlias, rightAlias, rel, joinKeyword, minHops, maxHops, rightAlreadyBound); err != nil {
		return "", err
	}
	return rightAlias, nil
}

// lowerHopChain joins exactly `hops` edges between leftAlias and
// rightAlias, allocating a fresh node alias for each intermediate hop
// target and joining it (and the final rightAlias, unless it was
// already joined by an earlier reference to the same variable) to the
// nodes table in turn.
func (t *Translator) lowerHopChain(c *Context, leftAlias, rightAlias string, rel *ast.RelationshipPattern, joinKeyword string, hops int, rightAlreadyBound bool) error {
	cur := leftAlias
	for h := 0; h < hops; h++ {
		final := h == hops-1
		next := rightAlias
		if !final {
			next = c.nodeAlias("")
		}
		if !final || !rightAlreadyBound {
			c.joins = append(c.joins, fmt.Sprintf("%s %s AS %s", joinKeyword, c.namer.Table(schema.TableNodes), next))
		}
		edgeVar := ""
		if h == 0 {
			edgeVar = rel.Variable
		}
		eAlias := c.edgeAlias(edgeVar)
		if err := t.lowerOneHop(c, cur, next, eAlias, rel, joinKeyword); err != nil {
			return err
		}
		cur = next
	}
	return nil
}

// lowerHopRange lowers a bounded variable-length relationship pattern
// by unioning the (left_id, right_id) id pairs reachable by exactly h
// edges, for every h in [minHops, maxHops], into a single CTE — the
// same CTE-of-pairs shape lowerOneHop already uses for a single
// undirected hop — then joins leftAlias/rightAlias against it once.
func (t *Translator) lowerHopRange(c *Context, leftAlias, rightAlias string, rel *ast.RelationshipPattern, joinKeyword string, minHops, maxHops int, rightAlreadyBound bool) error {
	if rel.Direction == ast.Undirected {
		return &cerr.UnsupportedError{Pos: rel.Pos(), Feature: "undirected variable-length relationship pattern"}
	}

	eAlias := c.edgeAlias(rel.Variable)
	cteName := "HopRange" + eAlias

	branches := make([]string, 0, maxHops-minHops+1)
	for h := minHops; h <= maxHops; h++ {
		branches = append(branches, t.hopChainPairs(c, rel, h))
	}
	c.addCTE(cteName, fmt.Sprintf("%s (left_id, right_id) AS (%s)", cteName, joinUnion(branches)))

	c.joins = append(c.joins, fmt.Sprintf(
		"%s %s AS %s ON %s.left_id = %s.%s AND %s.right_id = %s.%s",
		joinKeyword, cteName, eAlias, eAlias, leftAlias, schema.ColNodeID, eAlias, rightAlias, schema.ColNodeID,
	))
	if !rightAlreadyBound {
		c.joins = append(c.joins, fmt.Sprintf("%s %s AS %s", joinKeyword, c.namer.Table(schema.TableNodes), rightAlias))
	}
	return nil
}

// hopChainPairs returns a standalone SELECT of (left_id, right_id) id
// pairs connected by exactly h edges of rel's type and direction, self
// contained so chain lengths of different h can be UNION ALL'd into
// one CTE by lowerHopRange.
func (t *Translator) hopChainPairs(c *Context, rel *ast.RelationshipPattern, h int) string {
	edges := c.namer.Table(schema.TableEdges)
	srcCol, dstCol := schema.ColEdgeS, schema.ColEdgeO
	if rel.Direction == ast.Incoming {
		srcCol, dstCol = schema.ColEdgeO, schema.ColEdgeS
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT e0.%s AS left_id, e%d.%s AS right_id FROM %s AS e0", srcCol, h-1, dstCol, edges)
	for i := 1; i < h; i++ {
		fmt.Fprintf(&b, " INNER JOIN %s AS e%d ON e%d.%s = e%d.%s", edges, i, i-1, dstCol, i, srcCol)
	}
	if rel.Type != "" {
		conds := make([]string, h)
		for i := 0; i < h; i++ {
			conds[i] = fmt.Sprintf("e%d.%s = %s", i, schema.ColEdgeP, c.push(rel.Type))
		}
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	return b.String()
}

// lowerOneHop emits the join for a single edge hop between cur and
// next, honoring direction semantics (§4.3.1).
func (t *Translator) lowerOneHop(c *Context, cur, next, eAlias string, rel *ast.RelationshipPattern, joinKeyword string) error {
	edges := c.namer.Table(schema.TableEdges)

	if rel.Direction == ast.Undirected {
		cteName := "Undir" + eAlias
		// The type filter appears twice in the UNION ALL below (once per
		// branch), so its parameter must be pushed twice in the same order.
		filterSQL := func() string {
			if rel.Type == "" {
				return ""
			}
			return " WHERE " + schema.ColEdgeP + " = " + c.push(rel.Type)
		}
		firstFilter := filterSQL()
		secondFilter := filterSQL()
		sql := fmt.Sprintf(
			"%s AS (SELECT %s AS left_id, %s AS right_id FROM %s%s UNION ALL SELECT %s AS left_id, %s AS right_id FROM %s%s)",
			cteName,
			schema.ColEdgeS, schema.ColEdgeO, edges, firstFilter,
			schema.ColEdgeO, schema.ColEdgeS, edges, secondFilter,
		)
		c.addCTE(cteName, sql)
		c.joins = append(c.joins, fmt.Sprintf(
			"%s %s AS %s ON %s.left_id = %s.node_id AND %s.right_id = %s.node_id",
			joinKeyword, cteName, eAlias, eAlias, cur, eAlias, next,
		))
		return nil
	}

	srcAlias, dstAlias := cur, next
	if rel.Direction == ast.Incoming {
		srcAlias, dstAlias = next, cur
	}
	cond := fmt.Sprintf("%s.%s = %s.%s AND %s.%s = %s.%s",
		eAlias, schema.ColEdgeS, srcAlias, schema.ColNodeID,
		eAlias, schema.ColEdgeO, dstAlias, schema.ColNodeID,
	)
	if rel.Type != "" {
		cond += fmt.Sprintf(" AND %s.%s = %s", eAlias, schema.ColEdgeP, c.push(rel.Type))
	}
	c.joins = append(c.joins, fmt.Sprintf("%s %s AS %s ON %s", joinKeyword, edges, eAlias, cond))
	return nil
}
