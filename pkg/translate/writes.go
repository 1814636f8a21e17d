package translate

import (
	"fmt"
	"strings"

	"github.com/kgraph-dev/cyphersql/pkg/ast"
	"github.com/kgraph-dev/cyphersql/pkg/cerr"
	"github.com/kgraph-dev/cyphersql/pkg/schema"
	"github.com/kgraph-dev/cyphersql/pkg/vector"
)

// Stage is one statement of a write program: its SQL text and the
// positional parameter values bound to its `?` placeholders, in order.
type Stage struct {
	SQL    string
	Params []any
}

// stageBuilder accumulates `?` placeholders for a single statement,
// independent of a read Context's shared parameter buffer: each write
// statement is executed on its own, so each gets its own list.
type stageBuilder struct {
	params []any
}

func (b *stageBuilder) push(v any) string {
	b.params = append(b.params, v)
	return "?"
}

// literalID extracts the `id` property of a node pattern as a plain Go
// value, required for CREATE/MERGE (§4.3.4): this subset has no
// surrogate-key generator, so every created node names its own key.
func literalID(n *ast.NodePattern) (any, error) {
	for _, p := range n.Props {
		if p.Key != "id" {
			continue
		}
		lit, ok := p.Value.(*ast.Literal)
		if !ok {
			return nil, &cerr.UnsupportedError{Pos: p.Value.Pos(), Feature: "non-literal id property"}
		}
		switch lit.Kind {
		case ast.IntLit:
			return lit.Int, nil
		case ast.StringLit:
			return lit.Str, nil
		default:
			return nil, &cerr.UnsupportedError{Pos: lit.Pos(), Feature: "id property must be an integer or string literal"}
		}
	}
	return nil, &cerr.TranslationError{Message: "CREATE/MERGE requires an explicit literal \"id\" property on every node pattern"}
}

// embeddingPropertyKey is the node-property name that triggers the
// kg_NodeEmbeddings insert of §4.3.4's CREATE lowering, step 4.
const embeddingPropertyKey = "embedding"

// lowerCreateNode emits the insert statements for one node pattern
// that already has a resolved literal id.
func lowerCreateNode(c *Context, id any, n *ast.NodePattern) ([]Stage, error) {
	var stages []Stage

	b := &stageBuilder{}
	stages = append(stages, Stage{
		SQL:    fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", c.namer.Table(schema.TableNodes), schema.ColNodeID, b.push(id)),
		Params: b.params,
	})

	for _, label := range n.Labels {
		lb := &stageBuilder{}
		stages = append(stages, Stage{
			SQL: fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (%s, %s)",
				c.namer.Table(schema.TableLabels), schema.ColLabelS, schema.ColLabel,
				lb.push(id), lb.push(label)),
			Params: lb.params,
		})
	}

	for _, p := range n.Props {
		// id is both the primary key in nodes and a regular property
		// row in rdf_props (scenario S3): the triple store does not
		// special-case it on read.
		lit, ok := p.Value.(*ast.Literal)
		if !ok {
			return nil, &cerr.UnsupportedError{Pos: p.Value.Pos(), Feature: "non-literal property value in CREATE"}
		}

		if p.Key == embeddingPropertyKey && lit.Kind == ast.ListLit {
			encoded, err := vector.EncodeLiteral(lit)
			if err != nil {
				return nil, err
			}
			eb := &stageBuilder{}
			stages = append(stages, Stage{
				SQL: fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (%s, TO_VECTOR(%s))",
					c.namer.Table(schema.TableEmbeddings), schema.ColEmbID, schema.ColEmbVector,
					eb.push(id), eb.push(encoded)),
				Params: eb.params,
			})
			continue
		}

		pb := &stageBuilder{}
		stages = append(stages, Stage{
			SQL: fmt.Sprintf("INSERT INTO %s (%s, %s, %s) VALUES (%s, %s, %s)",
				c.namer.Table(schema.TableProps), schema.ColPropS, schema.ColPropKey, schema.ColPropVal,
				pb.push(id), pb.push(p.Key), pb.push(scalarOf(lit))),
			Params: pb.params,
		})
	}

	return stages, nil
}

func scalarOf(lit *ast.Literal) any {
	switch lit.Kind {
	case ast.IntLit:
		return lit.Int
	case ast.FloatLit:
		return lit.Flt
	case ast.BoolLit:
		return lit.Bool
	case ast.StringLit:
		return lit.Str
	default:
		return nil
	}
}

// lowerCreate lowers a CREATE clause into an ordered insert program
// (§4.3.4, scenario S3): nodes first, then the edges between them.
// An edge is only supported when both endpoints are node patterns
// created in this same clause, each carrying a literal id.
func (t *Translator) lowerCreate(c *Context, cl *ast.CreateClause) ([]Stage, error) {
	var stages []Stage
	ids := map[string]any{}

	for _, path := range cl.Paths {
		for _, n := range path.Nodes {
			id, err := literalID(n)
			if err != nil {
				return nil, err
			}
			if n.Variable != "" {
				ids[n.Variable] = id
			}
			nodeStages, err := lowerCreateNode(c, id, n)
			if err != nil {
				return nil, err
			}
			stages = append(stages, nodeStages...)
		}
		for i, rel := range path.Rels {
			left, right := path.Nodes[i], path.Nodes[i+1]
			leftID, err := literalID(left)
			if err != nil {
				return nil, err
			}
			rightID, err := literalID(right)
			if err != nil {
				return nil, err
			}
			if rel.Direction == ast.Incoming {
				leftID, rightID = rightID, leftID
			}
			if rel.Direction == ast.Undirected {
				return nil, &cerr.UnsupportedError{Pos: rel.Pos(), Feature: "undirected relationship in CREATE"}
			}
			if rel.Type == "" {
				return nil, &cerr.TranslationError{Message: "CREATE requires a relationship type"}
			}
			eb := &stageBuilder{}
			stages = append(stages, Stage{
				SQL: fmt.Sprintf("INSERT INTO %s (%s, %s, %s) VALUES (%s, %s, %s)",
					c.namer.Table(schema.TableEdges), schema.ColEdgeS, schema.ColEdgeP, schema.ColEdgeO,
					eb.push(leftID), eb.push(rel.Type), eb.push(rightID)),
				Params: eb.params,
			})
		}
	}
	return stages, nil
}

// lowerMerge lowers a MERGE clause into an idempotent insert program:
// each row insert is guarded by NOT EXISTS so re-running the statement
// is a no-op. ON MATCH and ON CREATE actions both lower to the same
// unconditional SET statements appended after the guarded inserts —
// documented as an accepted simplification, since this subset has no
// portable way to run one SET sequence only when the guard fired and a
// different one when it didn't.
func (t *Translator) lowerMerge(c *Context, cl *ast.MergeClause) ([]Stage, error) {
	if len(cl.Path.Rels) > 0 {
		return nil, &cerr.UnsupportedError{Pos: cl.Pos(), Feature: "MERGE on a relationship pattern"}
	}
	n := cl.Path.Nodes[0]
	id, err := literalID(n)
	if err != nil {
		return nil, err
	}

	var stages []Stage
	nodes := c.namer.Table(schema.TableNodes)
	nb := &stageBuilder{}
	idPH := nb.push(id)
	guardPH := nb.push(id)
	stages = append(stages, Stage{
		SQL:    fmt.Sprintf("INSERT INTO %s (%s) SELECT %s WHERE NOT EXISTS (SELECT 1 FROM %s WHERE %s = %s)", nodes, schema.ColNodeID, idPH, nodes, schema.ColNodeID, guardPH),
		Params: nb.params,
	})

	for _, label := range n.Labels {
		labels := c.namer.Table(schema.TableLabels)
		lb := &stageBuilder{}
		sPH, lPH := lb.push(id), lb.push(label)
		guard1, guard2 := lb.push(id), lb.push(label)
		stages = append(stages, Stage{
			SQL: fmt.Sprintf("INSERT INTO %s (%s, %s) SELECT %s, %s WHERE NOT EXISTS (SELECT 1 FROM %s WHERE %s = %s AND %s = %s)",
				labels, schema.ColLabelS, schema.ColLabel, sPH, lPH, labels, schema.ColLabelS, guard1, schema.ColLabel, guard2),
			Params: lb.params,
		})
	}

	for _, p := range n.Props {
		lit, ok := p.Value.(*ast.Literal)
		if !ok {
			continue
		}
		props := c.namer.Table(schema.TableProps)
		pb := &stageBuilder{}
		sPH, kPH, vPH := pb.push(id), pb.push(p.Key), pb.push(scalarOf(lit))
		guardS, guardK := pb.push(id), pb.push(p.Key)
		stages = append(stages, Stage{
			SQL: fmt.Sprintf("INSERT INTO %s (%s, %s, %s) SELECT %s, %s, %s WHERE NOT EXISTS (SELECT 1 FROM %s WHERE %s = %s AND %s = %s)",
				props, schema.ColPropS, schema.ColPropKey, schema.ColPropVal, sPH, kPH, vPH, props, schema.ColPropS, guardS, schema.ColPropKey, guardK),
			Params: pb.params,
		})
	}

	for _, action := range cl.Actions {
		actionStages, err := lowerSetItems(c, id, action.Set.Items)
		if err != nil {
			return nil, err
		}
		stages = append(stages, actionStages...)
	}

	return stages, nil
}

// lowerSetItems emits delete-then-insert statements for a fixed node id —
// used by MERGE's ON MATCH/ON CREATE actions, which always target the
// single node the MERGE pattern just resolved.
func lowerSetItems(c *Context, id any, items []ast.SetItem) ([]Stage, error) {
	var stages []Stage
	for _, item := range items {
		if item.Property != "" {
			lit, ok := item.Value.(*ast.Literal)
			if !ok {
				return nil, &cerr.UnsupportedError{Pos: item.Value.Pos(), Feature: "non-literal SET value"}
			}
			props := c.namer.Table(schema.TableProps)
			delB := &stageBuilder{}
			delSQL := fmt.Sprintf("DELETE FROM %s WHERE %s = %s AND %s = %s",
				props, schema.ColPropS, delB.push(id), schema.ColPropKey, delB.push(item.Property))
			stages = append(stages, Stage{SQL: delSQL, Params: delB.params})

			insB := &stageBuilder{}
			insSQL := fmt.Sprintf("INSERT INTO %s (%s, %s, %s) VALUES (%s, %s, %s)",
				props, schema.ColPropS, schema.ColPropKey, schema.ColPropVal,
				insB.push(id), insB.push(item.Property), insB.push(scalarOf(lit)))
			stages = append(stages, Stage{SQL: insSQL, Params: insB.params})
		}
		for _, label := range item.Labels {
			labels := c.namer.Table(schema.TableLabels)
			b := &stageBuilder{}
			sPH, lPH := b.push(id), b.push(label)
			guard1, guard2 := b.push(id), b.push(label)
			stages = append(stages, Stage{
				SQL: fmt.Sprintf("INSERT INTO %s (%s, %s) SELECT %s, %s WHERE NOT EXISTS (SELECT 1 FROM %s WHERE %s = %s AND %s = %s)",
					labels, schema.ColLabelS, schema.ColLabel, sPH, lPH, labels, schema.ColLabelS, guard1, schema.ColLabel, guard2),
				Params: b.params,
			})
		}
	}
	return stages, nil
}

// scopeSelect builds the SELECT that resolves a previously MATCHed
// variable's candidate node ids under the joins/filters accumulated so
// far in c, used by SET/REMOVE/DELETE to locate their targets. idCol is
// the column holding the variable's id within its alias — "node_id" for
// a row sourced from the nodes table, or the column a WITH clause
// projected it under when forwarding it by name.
func scopeSelect(c *Context, alias, idCol string) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(alias)
	b.WriteString(".")
	b.WriteString(idCol)
	b.WriteString(" ")
	b.WriteString(strings.Join(c.joins, " "))
	if len(c.where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(c.where, " AND "))
	}
	return b.String()
}

// lowerSet lowers a SET clause applied against variables already bound
// by an earlier MATCH in the same query (§4.3.4). Each statement here
// embeds `scope`, which itself carries `?` placeholders already bound
// in c.params by the preceding MATCH lowering — those values must be
// spliced into the Stage's Params at the exact text position `scope`
// occupies, not merely appended.
func (t *Translator) lowerSet(c *Context, cl *ast.SetClause) ([]Stage, error) {
	var stages []Stage
	for _, item := range cl.Items {
		alias, ok := c.aliasOf(item.Variable)
		if !ok {
			return nil, &cerr.ResolutionError{Pos: cl.Pos(), Variable: item.Variable}
		}
		scope := scopeSelect(c, alias, c.idColumn(item.Variable))

		if item.Property != "" {
			lit, ok := item.Value.(*ast.Literal)
			if !ok {
				return nil, &cerr.UnsupportedError{Pos: item.Value.Pos(), Feature: "non-literal SET value"}
			}
			props := c.namer.Table(schema.TableProps)

			delSQL := fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND %s IN (%s)", props, schema.ColPropKey, schema.ColPropS, scope)
			delParams := append([]any{item.Property}, c.params...)
			stages = append(stages, Stage{SQL: delSQL, Params: delParams})

			insSQL := fmt.Sprintf("INSERT INTO %s (%s, %s, %s) SELECT %s, ?, ? FROM (%s) AS scoped(%s)",
				props, schema.ColPropS, schema.ColPropKey, schema.ColPropVal, "scoped."+schema.ColNodeID, scope, schema.ColNodeID)
			insParams := append([]any{item.Property, scalarOf(lit)}, c.params...)
			stages = append(stages, Stage{SQL: insSQL, Params: insParams})
		}
		for _, label := range item.Labels {
			labels := c.namer.Table(schema.TableLabels)
			insSQL := fmt.Sprintf("INSERT INTO %s (%s, %s) SELECT %s, ? FROM (%s) AS scoped(%s) WHERE NOT EXISTS (SELECT 1 FROM %s WHERE %s = scoped.%s AND %s = ?)",
				labels, schema.ColLabelS, schema.ColLabel, "scoped."+schema.ColNodeID, scope, schema.ColNodeID, labels, schema.ColLabelS, schema.ColNodeID, schema.ColLabel)
			insParams := append(append([]any{label}, c.params...), label)
			stages = append(stages, Stage{SQL: insSQL, Params: insParams})
		}
	}
	return stages, nil
}

// lowerRemove lowers a REMOVE clause — the inverse of SET (SPEC_FULL.md
// §E): it deletes the named property or label rows for the scoped
// nodes rather than inserting them.
func (t *Translator) lowerRemove(c *Context, cl *ast.RemoveClause) ([]Stage, error) {
	var stages []Stage
	for _, item := range cl.Items {
		alias, ok := c.aliasOf(item.Variable)
		if !ok {
			return nil, &cerr.ResolutionError{Pos: cl.Pos(), Variable: item.Variable}
		}
		scope := scopeSelect(c, alias, c.idColumn(item.Variable))

		if item.Property != "" {
			props := c.namer.Table(schema.TableProps)
			stages = append(stages, Stage{
				SQL:    fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND %s IN (%s)", props, schema.ColPropKey, schema.ColPropS, scope),
				Params: append([]any{item.Property}, c.params...),
			})
		}
		for _, label := range item.Labels {
			labels := c.namer.Table(schema.TableLabels)
			stages = append(stages, Stage{
				SQL:    fmt.Sprintf("DELETE FROM %s WHERE %s = ? AND %s IN (%s)", labels, schema.ColLabel, schema.ColLabelS, scope),
				Params: append([]any{label}, c.params...),
			})
		}
	}
	return stages, nil
}

// lowerDelete lowers a DELETE/DETACH DELETE clause (§4.3.4, scenario
// S4). Plain DELETE fails at the database if edges still reference the
// node; DETACH DELETE removes every dependent row first, in the fixed
// order kg_NodeEmbeddings, rdf_edges, rdf_props, rdf_labels, nodes
// (testable property 8).
func (t *Translator) lowerDelete(c *Context, cl *ast.DeleteClause) ([]Stage, error) {
	var stages []Stage
	for _, e := range cl.Exprs {
		v, ok := e.(*ast.Variable)
		if !ok {
			return nil, &cerr.UnsupportedError{Pos: e.Pos(), Feature: "DELETE of a non-variable expression"}
		}
		alias, ok := c.aliasOf(v.Name)
		if !ok {
			return nil, &cerr.ResolutionError{Pos: e.Pos(), Variable: v.Name}
		}
		scope := scopeSelect(c, alias, c.idColumn(v.Name))

		if cl.Detach {
			emb := c.namer.Table(schema.TableEmbeddings)
			edges := c.namer.Table(schema.TableEdges)
			props := c.namer.Table(schema.TableProps)
			labels := c.namer.Table(schema.TableLabels)

			stages = append(stages, Stage{
				SQL:    fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)", emb, schema.ColEmbID, scope),
				Params: append([]any{}, c.params...),
			})

			// scope appears twice in this statement's text, so its
			// placeholders must be bound twice.
			stages = append(stages, Stage{
				SQL:    fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s) OR %s IN (%s)", edges, schema.ColEdgeS, scope, schema.ColEdgeO, scope),
				Params: append(append([]any{}, c.params...), c.params...),
			})

			stages = append(stages, Stage{
				SQL:    fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)", props, schema.ColPropS, scope),
				Params: append([]any{}, c.params...),
			})

			stages = append(stages, Stage{
				SQL:    fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)", labels, schema.ColLabelS, scope),
				Params: append([]any{}, c.params...),
			})
		}

		nodes := c.namer.Table(schema.TableNodes)
		stages = append(stages, Stage{
			SQL:    fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)", nodes, schema.ColNodeID, scope),
			Params: append([]any{}, c.params...),
		})
	}
	return stages, nil
}
