// Package assetindex talks to the remote asset-search service. The catalog
// uses it to turn a free-text filter into the set of asset public ids that
// the local query is then restricted to.
package assetindex

import "context"

// Searcher resolves a filter expression to matching asset public ids.
// An empty result for a non-empty expression means "nothing matches",
// which callers must treat as an empty IN-set, not as no filter.
type Searcher interface {
	Search(ctx context.Context, expression string) ([]string, error)
}
