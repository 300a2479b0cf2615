package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/kitchenline/internal/domain"
)

// OrderArchive stores one snapshot of the whole order table per calendar day.
// Load returns an empty table, not an error, when the day has no snapshot.
type OrderArchive interface {
	Load(ctx context.Context, day time.Time) (map[string]*domain.Order, error)
	Save(ctx context.Context, day time.Time, orders map[string]*domain.Order) error
}

// ArchiveKey is the per-day key shared by all archive drivers.
func ArchiveKey(day time.Time) string {
	return day.Format("20060102")
}
