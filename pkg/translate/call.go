package translate

import (
	"fmt"

	"github.com/kgraph-dev/cyphersql/pkg/ast"
	"github.com/kgraph-dev/cyphersql/pkg/cerr"
	"github.com/kgraph-dev/cyphersql/pkg/schema"
	"github.com/kgraph-dev/cyphersql/pkg/vector"
)

const vectorSearchProcedure = "ivg.vector.search"

// lowerCall lowers `ivg.vector.search(label, property, target, limit[, options])`
// into a VecSearch CTE the rest of the query can join against by the
// YIELDed column names (§4.3.5). The CTE reads kg_NodeEmbeddings joined
// to rdf_labels on the given label, computes similarity against target,
// and keeps the top `limit` rows.
//
// Mode 1 takes a literal vector bound via TO_VECTOR(?); Mode 2 takes
// free text plus an embedding_config option bound via EMBEDDING(?, ?) —
// the translator cannot probe whether the named config exists, so Mode
// 2 always lowers successfully and any "unknown config" failure
// surfaces at execution time.
func (t *Translator) lowerCall(c *Context, call *ast.ProcedureCall) error {
	if call.Name != vectorSearchProcedure {
		return &cerr.UnsupportedError{Pos: call.Pos(), Feature: fmt.Sprintf("procedure %q", call.Name)}
	}
	if len(call.Args) < 4 {
		return &cerr.TranslationError{Message: vectorSearchProcedure + " requires (label, property, target, limit) arguments"}
	}

	labelLit, ok := call.Args[0].(*ast.Literal)
	if !ok || labelLit.Kind != ast.StringLit {
		return &cerr.TranslationError{Message: vectorSearchProcedure + "'s label argument must be a string literal"}
	}
	// The property argument names which node property the embedding
	// logically belongs to. The physical schema has a single
	// embeddings table regardless, so it is validated but not otherwise
	// used in the lowered SQL.
	if propLit, ok := call.Args[1].(*ast.Literal); !ok || propLit.Kind != ast.StringLit {
		return &cerr.TranslationError{Message: vectorSearchProcedure + "'s property argument must be a string literal"}
	}

	similarity := vector.Cosine
	var embeddingConfig string
	for _, opt := range call.Options {
		optLit, ok := opt.Value.(*ast.Literal)
		if !ok || optLit.Kind != ast.StringLit {
			return &cerr.TranslationError{Message: fmt.Sprintf("option %q must be a string literal", opt.Key)}
		}
		switch opt.Key {
		case "similarity":
			sim, err := vector.ParseSimilarity(optLit.Str)
			if err != nil {
				return err
			}
			similarity = sim
		case "embedding_config":
			embeddingConfig = optLit.Str
		default:
			return &cerr.TranslationError{Message: fmt.Sprintf("unknown option %q for %s", opt.Key, vectorSearchProcedure)}
		}
	}

	var queryVectorSQL string
	if lit, ok := call.Args[2].(*ast.Literal); ok && lit.Kind == ast.ListLit {
		encoded, err := vector.EncodeLiteral(lit)
		if err != nil {
			return err
		}
		queryVectorSQL = "TO_VECTOR(" + c.push(encoded) + ")"
	} else {
		if embeddingConfig == "" {
			return &cerr.TranslationError{Message: vectorSearchProcedure + " with a text target requires the embedding_config option"}
		}
		textSQL, err := t.lowerExpr(c, call.Args[2])
		if err != nil {
			return err
		}
		queryVectorSQL = fmt.Sprintf("EMBEDDING(%s, %s)", textSQL, c.push(embeddingConfig))
	}

	topKVal, err := resolveIntLiteral(t, call.Args[3])
	if err != nil {
		return err
	}
	topK := fmt.Sprintf("%d", topKVal)

	nodeYield, scoreYield := "node", "score"
	for i, y := range call.Yield {
		switch i {
		case 0:
			nodeYield = y
		case 1:
			scoreYield = y
		}
	}

	emb := c.namer.Table(schema.TableEmbeddings)
	labels := c.namer.Table(schema.TableLabels)
	const embAlias, labelAlias = "VecEmb", "VecLabel"
	cteName := "VecSearch"
	sql := fmt.Sprintf(
		"%s AS (SELECT TOP %s %s.%s AS %s, %s(%s.%s, %s) AS %s FROM %s AS %s JOIN %s AS %s ON %s.%s = %s.%s AND %s.%s = %s ORDER BY %s DESC)",
		cteName, topK,
		embAlias, schema.ColEmbID, schema.ColNodeID,
		similarity.SQLFunc(), embAlias, schema.ColEmbVector, queryVectorSQL, scoreYield,
		emb, embAlias, labels, labelAlias,
		labelAlias, schema.ColLabelS, embAlias, schema.ColEmbID,
		labelAlias, schema.ColLabel, c.push(labelLit.Str),
		scoreYield,
	)
	c.addCTE(cteName, sql)

	c.scalar[scoreYield] = cteName + "." + scoreYield

	// CALL always precedes MATCH in this grammar, so the yielded node
	// variable is never already bound here; introduce it into the FROM
	// list immediately so RETURN can use it even with no later MATCH.
	alias := c.nodeAlias(nodeYield)
	c.joins = append(c.joins, fmt.Sprintf("FROM %s AS %s", cteName, alias))
	return nil
}
