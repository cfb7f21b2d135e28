// Package embedding declares the embedding model contract. The model itself
// is an external collaborator (consumed as a function text -> vector); this
// package only pins the single source of truth for its dimensionality and
// the interface callers code against.
package embedding

import "context"

// Dimension is the single source of truth for the vector size every
// collection in internal/vectorstore is bootstrapped with. If the embedding
// model changes dimensionality, this is the only constant that must move.
const Dimension = 384

// Prefix distinguishes how text is embedded: "query" for search inputs,
// "passage" for stored content, per the model's documented convention.
type Prefix string

const (
	PrefixQuery   Prefix = "query"
	PrefixPassage Prefix = "passage"
)

// Model embeds text into a mean-pooled, L2-normalised vector of length
// Dimension. Implementations must prepend "{prefix}: " to the input before
// tokenisation.
type Model interface {
	Embed(ctx context.Context, text string, prefix Prefix) ([]float32, error)
}

// ZeroVector returns the fixed-dimension zero vector used for aggregate and
// history payloads whose store requires a vector even though similarity
// search is never performed over them.
func ZeroVector() []float32 {
	return make([]float32, Dimension)
}
