package pipeline

import (
	"context"
	"sort"
)

// Handler is one step of the per-card processing chain.
type Handler interface {
	// Name identifies the step in logs and failure reasons.
	Name() string
	// Order positions the step in the chain; lower runs first. The order is
	// data, not inferred: new steps pick an unused value between neighbors.
	Order() int
	// Handle mutates the card context. An error aborts this card only.
	Handle(ctx context.Context, cc *CardContext) error
}

// Step order constants. Gaps leave room for new steps without renumbering.
const (
	OrderMarkProcessing = 10
	OrderDownload       = 20
	OrderCrop           = 30
	OrderUpload         = 40
	OrderExtractDetails = 45
	OrderMarkComplete   = 50
)

// sortHandlers returns the handlers in execution order without mutating the input.
func sortHandlers(handlers []Handler) []Handler {
	sorted := make([]Handler, len(handlers))
	copy(sorted, handlers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order() < sorted[j].Order()
	})
	return sorted
}
