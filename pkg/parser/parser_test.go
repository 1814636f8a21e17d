package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgraph-dev/cyphersql/pkg/ast"
	"github.com/kgraph-dev/cyphersql/pkg/cerr"
	"github.com/kgraph-dev/cyphersql/pkg/parser"
)

func TestParseAcceptsSimpleMatchReturn(t *testing.T) {
	q, err := parser.Parse(`MATCH (n:Drug) WHERE n.active = TRUE RETURN n.name LIMIT 10`)
	require.NoError(t, err)
	require.Len(t, q.Clauses, 2)
	_, ok := q.Clauses[0].(*ast.MatchClause)
	assert.True(t, ok)
	_, ok = q.Clauses[1].(*ast.ReturnClause)
	assert.True(t, ok)
}

func TestParseAcceptsOptionalMatch(t *testing.T) {
	q, err := parser.Parse(`OPTIONAL MATCH (n:Drug) RETURN n`)
	require.NoError(t, err)
	m := q.Clauses[0].(*ast.MatchClause)
	assert.True(t, m.Optional)
}

func TestParseAcceptsRelationshipPathWithType(t *testing.T) {
	q, err := parser.Parse(`MATCH (n:Drug)-[:TREATS]->(d:Disease) RETURN n, d`)
	require.NoError(t, err)
	m := q.Clauses[0].(*ast.MatchClause)
	require.Len(t, m.Paths, 1)
	require.Len(t, m.Paths[0].Rels, 1)
	assert.Equal(t, "TREATS", m.Paths[0].Rels[0].Type)
	assert.Equal(t, ast.Outgoing, m.Paths[0].Rels[0].Direction)
}

func TestParseAcceptsCreateWithInlineProperties(t *testing.T) {
	_, err := parser.Parse(`CREATE (p:Protein {id:'P:1', name:'TP53'})`)
	require.NoError(t, err)
}

func TestParseAcceptsProcedureCallWithOptions(t *testing.T) {
	q, err := parser.Parse(`CALL ivg.vector.search('Gene','embedding',[1.0,0.0], 3, {similarity:'dot_product'}) YIELD node, score RETURN node, score`)
	require.NoError(t, err)
	call := q.Clauses[0].(*ast.ProcedureCall)
	assert.Equal(t, "ivg.vector.search", call.Name)
	assert.Len(t, call.Args, 4)
	require.Len(t, call.Options, 1)
	assert.Equal(t, "similarity", call.Options[0].Key)
}

func TestParseRejectsUnknownCharacterWithPosition(t *testing.T) {
	_, err := parser.Parse("MATCH (n) RETURN n `")
	require.Error(t, err)
	var lexErr *cerr.LexError
	assert.ErrorAs(t, err, &lexErr)
}

func TestParseRejectsUnexpectedToken(t *testing.T) {
	_, err := parser.Parse(`MATCH (n:Drug RETURN n`)
	require.Error(t, err)
	var parseErr *cerr.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestParseAcceptsDeleteAndDetachDelete(t *testing.T) {
	q, err := parser.Parse(`MATCH (n) WHERE n.id = 'P:1' DETACH DELETE n`)
	require.NoError(t, err)
	del := q.Clauses[1].(*ast.DeleteClause)
	assert.True(t, del.Detach)
}

func TestParseAcceptsFixedHopCount(t *testing.T) {
	q, err := parser.Parse(`MATCH (a)-[:KNOWS*2]->(b) RETURN b`)
	require.NoError(t, err)
	m := q.Clauses[0].(*ast.MatchClause)
	rel := m.Paths[0].Rels[0]
	assert.Equal(t, 2, rel.MinHops)
	assert.Equal(t, 2, rel.MaxHops)
}

func TestParseAcceptsBoundedHopRange(t *testing.T) {
	q, err := parser.Parse(`MATCH (a)-[:KNOWS*1..2]->(b) RETURN b`)
	require.NoError(t, err)
	m := q.Clauses[0].(*ast.MatchClause)
	rel := m.Paths[0].Rels[0]
	assert.Equal(t, 1, rel.MinHops)
	assert.Equal(t, 2, rel.MaxHops)
}

func TestParseRejectsInvertedHopRange(t *testing.T) {
	_, err := parser.Parse(`MATCH (a)-[:KNOWS*3..1]->(b) RETURN b`)
	require.Error(t, err)
	var parseErr *cerr.ParseError
	assert.ErrorAs(t, err, &parseErr)
}
