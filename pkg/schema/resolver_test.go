package schema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kgraph-dev/cyphersql/pkg/cerr"
	"github.com/kgraph-dev/cyphersql/pkg/parser"
	"github.com/kgraph-dev/cyphersql/pkg/schema"
)

func TestResolverAcceptsBoundReference(t *testing.T) {
	q, err := parser.Parse(`MATCH (n:Drug) RETURN n.name`)
	require.NoError(t, err)
	require.NoError(t, schema.NewResolver().Resolve(q))
}

func TestResolverRejectsUnboundReference(t *testing.T) {
	q, err := parser.Parse(`MATCH (n:Drug) RETURN m.name`)
	require.NoError(t, err)
	err = schema.NewResolver().Resolve(q)
	require.Error(t, err)
}

func TestResolverNarrowsScopeAtWith(t *testing.T) {
	q, err := parser.Parse(`MATCH (n:Drug)-[:TREATS]->(d:Disease) WITH d RETURN n.name`)
	require.NoError(t, err)
	err = schema.NewResolver().Resolve(q)
	require.Error(t, err)
}

func TestResolverAllowsYieldedVariables(t *testing.T) {
	q, err := parser.Parse(`CALL ivg.vector.search('Gene','embedding',[1.0], 3) YIELD node, score RETURN node, score`)
	require.NoError(t, err)
	require.NoError(t, schema.NewResolver().Resolve(q))
}

// No variable is bound twice in the same scope: a second MATCH
// restating labels on an already-bound variable is a rebind, not a
// reference, and must be rejected.
func TestResolverRejectsMatchRebindWithNewLabels(t *testing.T) {
	q, err := parser.Parse(`MATCH (n:Drug) MATCH (n:Disease) RETURN n`)
	require.NoError(t, err)
	err = schema.NewResolver().Resolve(q)
	require.Error(t, err)
	var rebindErr *cerr.RebindError
	require.ErrorAs(t, err, &rebindErr)
}

// A bare repeated variable with no labels or properties continues a
// path across clauses rather than redeclaring it, so it is never a
// rebind error.
func TestResolverAllowsMatchContinuationAcrossClauses(t *testing.T) {
	q, err := parser.Parse(`MATCH (a:Drug)-[:TREATS]->(b) MATCH (b)-[:CAUSES]->(c:Disease) RETURN c.name`)
	require.NoError(t, err)
	require.NoError(t, schema.NewResolver().Resolve(q))
}

// CREATE reusing a variable a prior MATCH bound (to attach a new edge
// to it) is expected, not an error.
func TestResolverAllowsCreateRebindToAttachEdge(t *testing.T) {
	q, err := parser.Parse(`MATCH (a:Drug) CREATE (a)-[:TREATS]->(b:Disease {id:'D:1'})`)
	require.NoError(t, err)
	require.NoError(t, schema.NewResolver().Resolve(q))
}
