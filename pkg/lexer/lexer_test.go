package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kgraph-dev/cyphersql/pkg/lexer"
	"github.com/kgraph-dev/cyphersql/pkg/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizePunctuationAndKeywords(t *testing.T) {
	toks, err := lexer.Tokenize("MATCH (n:Drug) WHERE n.active = TRUE RETURN n.name LIMIT 10")
	require.NoError(t, err)
	require.NotEmpty(t, toks)
	assert.Equal(t, token.MATCH, toks[0].Kind)
	assert.Equal(t, token.EOF, toks[len(toks)-1].Kind)
}

func TestKeywordsAreCaseInsensitive(t *testing.T) {
	toks, err := lexer.Tokenize("match (n) return n")
	require.NoError(t, err)
	assert.Equal(t, token.MATCH, toks[0].Kind)
	assert.Equal(t, token.RETURN, toks[len(toks)-3].Kind)
}

func TestIdentifiersPreserveCase(t *testing.T) {
	toks, err := lexer.Tokenize("MATCH (TP53)")
	require.NoError(t, err)
	var ident *token.Token
	for i := range toks {
		if toks[i].Kind == token.IDENT {
			ident = &toks[i]
			break
		}
	}
	require.NotNil(t, ident)
	assert.Equal(t, "TP53", ident.Literal)
}

func TestStringEscapes(t *testing.T) {
	toks, err := lexer.Tokenize(`RETURN 'a\'b\n'`)
	require.NoError(t, err)
	var str *token.Token
	for i := range toks {
		if toks[i].Kind == token.STRING {
			str = &toks[i]
		}
	}
	require.NotNil(t, str)
	assert.Equal(t, "a'b\n", str.Literal)
}

func TestNumberClassification(t *testing.T) {
	toks, err := lexer.Tokenize("1 2.5 3e10")
	require.NoError(t, err)
	assert.Equal(t, []token.Kind{token.INT, token.FLOAT, token.FLOAT, token.EOF}, kinds(toks))
}

func TestParamToken(t *testing.T) {
	toks, err := lexer.Tokenize("$limit")
	require.NoError(t, err)
	require.Equal(t, token.PARAM, toks[0].Kind)
	assert.Equal(t, "limit", toks[0].Literal)
}

func TestUnterminatedStringIsLexError(t *testing.T) {
	_, err := lexer.Tokenize(`RETURN 'unterminated`)
	require.Error(t, err)
}

func TestUnknownCharacterIsLexError(t *testing.T) {
	_, err := lexer.Tokenize("MATCH (n) RETURN n `")
	require.Error(t, err)
}

func TestCommentsAreSkipped(t *testing.T) {
	toks, err := lexer.Tokenize("MATCH (n) // a comment\nRETURN n /* block */")
	require.NoError(t, err)
	assert.Equal(t, []token.Kind{
		token.MATCH, token.LPAREN, token.IDENT, token.RPAREN,
		token.RETURN, token.IDENT, token.EOF,
	}, kinds(toks))
}
