package orders

import (
	"context"
	"sort"
)

// Store is the shared order store. UpdateStatus must be atomic per row and
// must refuse Done -> Pending with ErrInvalidTransition. It reports whether the
// row actually changed, so a repeated Done is (false, nil). Unknown ids yield ErrNotFound.
type Store interface {
	Insert(ctx context.Context, order Order) (string, error)
	ListByStatus(ctx context.Context, status Status) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) (bool, error)
	Delete(ctx context.Context, id string) error
}

// sortBySubmitted orders oldest first, the pickup queue order.
func sortBySubmitted(list []Order) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].SubmittedAt.Before(list[j].SubmittedAt)
	})
}
