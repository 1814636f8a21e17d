package translate

// SQLProgram is the output contract of a translation: either a single
// read statement or an ordered list of write statements the caller
// must execute as one transaction.
type SQLProgram struct {
	SQL             []string  `json:"sql"`
	Parameters      [][]any   `json:"parameters"`
	IsTransactional bool      `json:"is_transactional"`
	Metadata        *Metadata `json:"metadata,omitempty"`
}

// Metadata is informational only; it must never affect execution
// semantics, matching the teacher's own ExecutionPlan shape.
type Metadata struct {
	EstimatedRows    int64    `json:"estimated_rows"`
	IndexHints       []string `json:"index_hints,omitempty"`
	OptimizationTags []string `json:"optimization_tags,omitempty"`
	CompileID        string   `json:"compile_id,omitempty"`
}
