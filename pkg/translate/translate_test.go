package translate_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgraph-dev/cyphersql/pkg/parser"
	"github.com/kgraph-dev/cyphersql/pkg/translate"
)

func compile(t *testing.T, query string, params map[string]any) *translate.SQLProgram {
	t.Helper()
	q, err := parser.Parse(query)
	require.NoError(t, err)
	tr := translate.New()
	program, err := tr.Translate(q, params, "test-compile")
	require.NoError(t, err)
	return program
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// S1: MATCH (n:Drug) WHERE n.active = TRUE RETURN n.name LIMIT 10
func TestScenarioS1_LabelFilterAndBooleanIdentity(t *testing.T) {
	p := compile(t, `MATCH (n:Drug) WHERE n.active = TRUE RETURN n.name LIMIT 10`, nil)
	require.Len(t, p.SQL, 1)
	sql := normalize(p.SQL[0])
	assert.Contains(t, sql, "rdf_labels")
	assert.Contains(t, sql, "= 1")
	assert.Contains(t, sql, "LIMIT 10")
	assert.False(t, p.IsTransactional)
	assert.Equal(t, []any{"Drug", "active", "name"}, p.Parameters[0])
}

// Testable property 4: WHERE b = TRUE and WHERE b = 1 normalize identically.
func TestBooleanIdentity(t *testing.T) {
	p1 := compile(t, `MATCH (n:Drug) WHERE n.active = TRUE RETURN n.name`, nil)
	p2 := compile(t, `MATCH (n:Drug) WHERE n.active = 1 RETURN n.name`, nil)
	assert.Equal(t, normalize(p1.SQL[0]), normalize(p2.SQL[0]))
}

// S2: MATCH (n:Drug) RETURN n SKIP $o LIMIT $l, no placeholders for SKIP/LIMIT.
func TestScenarioS2_SkipLimitNotParameterized(t *testing.T) {
	p := compile(t, `MATCH (n:Drug) RETURN n SKIP $o LIMIT $l`, map[string]any{"o": 20, "l": 50})
	sql := normalize(p.SQL[0])
	assert.True(t, strings.HasSuffix(sql, "LIMIT 50 OFFSET 20"), sql)
	// the only pushed parameter is the label filter; SKIP/LIMIT never push.
	assert.Equal(t, []any{"Drug"}, p.Parameters[0])
}

// Testable property 3: a non-integer SKIP/LIMIT parameter fails with ParameterError.
func TestParameterSafety_NonIntegerLimitRejected(t *testing.T) {
	q, err := parser.Parse(`MATCH (n:Drug) RETURN n LIMIT $x`)
	require.NoError(t, err)
	tr := translate.New()
	_, err = tr.Translate(q, map[string]any{"x": "0; DROP TABLE nodes;--"}, "test")
	require.Error(t, err)
}

// S3: CREATE (p:Protein {id:'P:1', name:'TP53'}) -> four insert statements.
func TestScenarioS3_CreateNodeOrder(t *testing.T) {
	p := compile(t, `CREATE (p:Protein {id:'P:1', name:'TP53'})`, nil)
	require.Len(t, p.SQL, 4)
	assert.Contains(t, p.SQL[0], "INSERT INTO nodes")
	assert.Contains(t, p.SQL[1], "INSERT INTO rdf_labels")
	assert.Equal(t, []any{"P:1", "Protein"}, p.Parameters[1])
	assert.Contains(t, p.SQL[2], "INSERT INTO rdf_props")
	assert.Equal(t, []any{"P:1", "id", "P:1"}, p.Parameters[2])
	assert.Contains(t, p.SQL[3], "INSERT INTO rdf_props")
	assert.Equal(t, []any{"P:1", "name", "TP53"}, p.Parameters[3])
	assert.True(t, p.IsTransactional)
}

// §4.3.4 step 4: CREATE with an "embedding" property additionally
// inserts into kg_NodeEmbeddings via TO_VECTOR, instead of storing the
// vector as a string in rdf_props. The id property still gets its own
// rdf_props row, as in S3.
func TestCreateWithEmbeddingPropertyInsertsVector(t *testing.T) {
	p := compile(t, `CREATE (g:Gene {id:'G:1', embedding:[1.0,0.0,0.0]})`, nil)
	require.Len(t, p.SQL, 4)
	assert.Contains(t, p.SQL[0], "INSERT INTO nodes")
	assert.Contains(t, p.SQL[1], "INSERT INTO rdf_labels")
	assert.Contains(t, p.SQL[2], "INSERT INTO rdf_props")
	assert.Equal(t, []any{"G:1", "id", "G:1"}, p.Parameters[2])
	assert.Contains(t, p.SQL[3], "INSERT INTO kg_NodeEmbeddings")
	assert.Contains(t, p.SQL[3], "TO_VECTOR(")
	require.Len(t, p.Parameters[3], 2)
	assert.Equal(t, "G:1", p.Parameters[3][0])
	assert.Equal(t, "[1.0,0.0,0.0]", p.Parameters[3][1])
}

// S4: MATCH (n) WHERE n.id = 'P:1' DETACH DELETE n -> five deletes in the
// fixed order (testable property 8).
func TestScenarioS4_DetachDeleteOrder(t *testing.T) {
	p := compile(t, `MATCH (n) WHERE n.id = 'P:1' DETACH DELETE n`, nil)
	require.Len(t, p.SQL, 5)
	assert.Contains(t, p.SQL[0], "kg_NodeEmbeddings")
	assert.Contains(t, p.SQL[1], "rdf_edges")
	assert.Contains(t, p.SQL[2], "rdf_props")
	assert.Contains(t, p.SQL[3], "rdf_labels")
	assert.Contains(t, p.SQL[4], "DELETE FROM nodes")
	assert.True(t, p.IsTransactional)
}

// §4.4: a fixed hop count unrolls into a chain of plain joins.
func TestFixedHopCountUnrollsChainedJoins(t *testing.T) {
	p := compile(t, `MATCH (a:Drug)-[:TREATS*2]->(b:Disease) RETURN b.name`, nil)
	sql := normalize(p.SQL[0])
	assert.Equal(t, 2, strings.Count(sql, "INNER JOIN rdf_edges"))
	assert.Equal(t, 2, strings.Count(sql, "INNER JOIN nodes"))
}

// §4.4: a bounded range (*1..2) unions each chain length from min to
// max into one CTE rather than being rejected outright.
func TestBoundedHopRangeUnionsChainLengths(t *testing.T) {
	p := compile(t, `MATCH (a:Drug)-[:TREATS*1..2]->(b:Disease) RETURN b.name`, nil)
	sql := normalize(p.SQL[0])
	assert.Contains(t, sql, "WITH HopRange")
	assert.Contains(t, sql, "UNION ALL")
	assert.Contains(t, sql, "left_id")
	assert.Contains(t, sql, "right_id")
}

// An over-long range still fails with UnsupportedError.
func TestHopRangeBeyondMaxFixedHopsRejected(t *testing.T) {
	q, err := parser.Parse(`MATCH (a)-[:TREATS*1..10]->(b) RETURN b`)
	require.NoError(t, err)
	tr := translate.New()
	_, err = tr.Translate(q, nil, "test")
	require.Error(t, err)
}

// S5 / testable property 9: vector search CTE shape and composability.
func TestScenarioS5_VectorSearchCTE(t *testing.T) {
	p := compile(t, `CALL ivg.vector.search('Gene','embedding',[1.0,0.0,0.0], 2) YIELD node, score RETURN node, score`, nil)
	require.Len(t, p.SQL, 1)
	sql := normalize(p.SQL[0])
	assert.Contains(t, sql, "WITH VecSearch AS (SELECT TOP 2")
	assert.Contains(t, sql, "VECTOR_COSINE(")
	assert.Contains(t, sql, "TO_VECTOR(?)")
	assert.Contains(t, sql, "ORDER BY score DESC")
	assert.Contains(t, sql, "VecSearch.score AS score")
	assert.Equal(t, "[1.0,0.0,0.0]", p.Parameters[0][0])
	assert.Equal(t, "Gene", p.Parameters[0][1])
}

// Testable property 10: a CALL followed by MATCH on the yielded node
// variable compiles and joins against the CTE, not the nodes table again.
func TestComposability_CallThenMatch(t *testing.T) {
	p := compile(t, `CALL ivg.vector.search('Gene','embedding',[1.0,0.0,0.0], 5) YIELD node, score MATCH (node)-[:INTERACTS_WITH]->(m:Protein) RETURN m.name, score`, nil)
	require.Len(t, p.SQL, 1)
	sql := normalize(p.SQL[0])
	assert.Contains(t, sql, "FROM VecSearch AS n0")
	assert.NotContains(t, sql, "FROM nodes AS n0")
}

// S6: MATCH (n:Drug) WHERE toLower(n.name) CONTAINS $t RETURN n
func TestScenarioS6_StringFunctionsAndContains(t *testing.T) {
	p := compile(t, `MATCH (n:Drug) WHERE toLower(n.name) CONTAINS $t RETURN n`, map[string]any{"t": "asp"})
	sql := normalize(p.SQL[0])
	assert.Contains(t, sql, "LOWER(")
	assert.Contains(t, sql, "LIKE '%' || ? || '%'")
	assert.Contains(t, p.Parameters[0], "asp")
}

// Testable property 6: MERGE is idempotent — re-translating the same
// clause produces the same guarded-insert shape every time.
func TestMergeIsIdempotentByConstruction(t *testing.T) {
	p1 := compile(t, `MERGE (n:Drug {id:'x'})`, nil)
	p2 := compile(t, `MERGE (n:Drug {id:'x'})`, nil)
	require.Equal(t, len(p1.SQL), len(p2.SQL))
	for i := range p1.SQL {
		assert.Equal(t, normalize(p1.SQL[i]), normalize(p2.SQL[i]))
		assert.Contains(t, p1.SQL[i], "NOT EXISTS")
	}
}

// Hydration contract (§4.3.3): a bare RETURN'd node variable expands
// into node_id, node_labels, node_props.
func TestHydrationColumns(t *testing.T) {
	p := compile(t, `MATCH (n:Drug) RETURN n`, nil)
	sql := normalize(p.SQL[0])
	assert.Contains(t, sql, "AS node_id")
	assert.Contains(t, sql, "AS node_labels")
	assert.Contains(t, sql, "AS node_props")
}

// WITH re-projects a node variable without hydrating it, so a later
// MATCH can still join on it by raw id.
func TestWithDoesNotHydrate(t *testing.T) {
	p := compile(t, `MATCH (n:Drug) WITH n MATCH (n)-[:TREATS]->(d:Disease) RETURN d.name`, nil)
	sql := normalize(p.SQL[0])
	assert.Contains(t, sql, "WITH With0")
	assert.NotContains(t, sql, "node_labels")
}

func TestUnsupportedProcedureRejected(t *testing.T) {
	q, err := parser.Parse(`CALL some.other.proc() YIELD x RETURN x`)
	require.NoError(t, err)
	tr := translate.New()
	_, err = tr.Translate(q, nil, "test")
	require.Error(t, err)
}

func TestQueryWithNoReturnOrWriteClauseFails(t *testing.T) {
	q, err := parser.Parse(`MATCH (n:Drug) WHERE n.active = TRUE`)
	require.NoError(t, err)
	tr := translate.New()
	_, err = tr.Translate(q, nil, "test")
	require.Error(t, err)
}
