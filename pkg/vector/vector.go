// Package vector encodes the literal-vector argument of the
// ivg.vector.search procedure call into the wire format bound as its
// TO_VECTOR parameter.
package vector

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kgraph-dev/cyphersql/pkg/ast"
	"github.com/kgraph-dev/cyphersql/pkg/cerr"
)

// Similarity identifies which distance function the VecSearch CTE uses.
type Similarity int

const (
	Cosine Similarity = iota
	DotProduct
)

// SQLFunc is the SQL vector-primitive name for the similarity mode.
func (s Similarity) SQLFunc() string {
	if s == DotProduct {
		return "VECTOR_DOT_PRODUCT"
	}
	return "VECTOR_COSINE"
}

// ParseSimilarity maps the `similarity` option value to a Similarity,
// failing with *cerr.TranslationError for anything else.
func ParseSimilarity(value string) (Similarity, error) {
	switch value {
	case "", "cosine":
		return Cosine, nil
	case "dot_product":
		return DotProduct, nil
	default:
		return 0, &cerr.TranslationError{Message: fmt.Sprintf("unknown similarity option %q", value)}
	}
}

// EncodeLiteral renders a Cypher list-of-number literal as the JSON
// array bound to a TO_VECTOR(?) placeholder: `[1.0,0.0,0.0]`, each
// component keeping a decimal point and at least one fractional digit
// even when whole, so the wire value is unambiguously a float vector
// regardless of whether the literal wrote `1` or `1.0`.
func EncodeLiteral(lit *ast.Literal) (string, error) {
	if lit.Kind != ast.ListLit {
		return "", &cerr.ParameterError{Message: "vector literal must be a list of numbers"}
	}
	parts := make([]string, len(lit.List))
	for i, elem := range lit.List {
		n, ok := elem.(*ast.Literal)
		if !ok {
			return "", &cerr.ParameterError{Message: "vector literal elements must be numeric literals"}
		}
		var v float64
		switch n.Kind {
		case ast.IntLit:
			v = float64(n.Int)
		case ast.FloatLit:
			v = n.Flt
		default:
			return "", &cerr.ParameterError{Message: "vector literal elements must be numeric literals"}
		}
		parts[i] = formatVectorComponent(v)
	}
	return "[" + strings.Join(parts, ",") + "]", nil
}

func formatVectorComponent(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
