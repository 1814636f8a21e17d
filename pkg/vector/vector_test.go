package vector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgraph-dev/cyphersql/pkg/ast"
	"github.com/kgraph-dev/cyphersql/pkg/vector"
)

func floatLit(v float64) *ast.Literal {
	return &ast.Literal{Kind: ast.FloatLit, Flt: v}
}

func intLit(v int64) *ast.Literal {
	return &ast.Literal{Kind: ast.IntLit, Int: v}
}

func TestParseSimilarityDefaultsToCosine(t *testing.T) {
	sim, err := vector.ParseSimilarity("")
	require.NoError(t, err)
	assert.Equal(t, vector.Cosine, sim)
	assert.Equal(t, "VECTOR_COSINE", sim.SQLFunc())
}

func TestParseSimilarityDotProduct(t *testing.T) {
	sim, err := vector.ParseSimilarity("dot_product")
	require.NoError(t, err)
	assert.Equal(t, vector.DotProduct, sim)
	assert.Equal(t, "VECTOR_DOT_PRODUCT", sim.SQLFunc())
}

func TestParseSimilarityUnknownIsTranslationError(t *testing.T) {
	_, err := vector.ParseSimilarity("manhattan")
	require.Error(t, err)
}

func TestEncodeLiteralMixedIntAndFloat(t *testing.T) {
	lit := &ast.Literal{Kind: ast.ListLit, List: []ast.Expr{intLit(1), intLit(0), floatLit(0)}}
	encoded, err := vector.EncodeLiteral(lit)
	require.NoError(t, err)
	assert.Equal(t, "[1.0,0.0,0.0]", encoded)
}

func TestEncodeLiteralPreservesFractionalDigits(t *testing.T) {
	lit := &ast.Literal{Kind: ast.ListLit, List: []ast.Expr{floatLit(0.5), floatLit(-1.25), intLit(3)}}
	encoded, err := vector.EncodeLiteral(lit)
	require.NoError(t, err)
	assert.Equal(t, "[0.5,-1.25,3.0]", encoded)
}

func TestEncodeLiteralRejectsNonList(t *testing.T) {
	_, err := vector.EncodeLiteral(&ast.Literal{Kind: ast.StringLit, Str: "oops"})
	require.Error(t, err)
}

func TestEncodeLiteralRejectsNonNumericElements(t *testing.T) {
	lit := &ast.Literal{Kind: ast.ListLit, List: []ast.Expr{&ast.Literal{Kind: ast.StringLit, Str: "x"}}}
	_, err := vector.EncodeLiteral(lit)
	require.Error(t, err)
}
