package kitchen

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/YelzhanWeb/kitchenline/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T, initial map[string]int) *Ledger {
	t.Helper()
	l, err := NewLedger([]string{"Burger", "Fries", "Pasta", "Pizza"}, initial)
	require.NoError(t, err)
	return l
}

func TestNewLedger_RejectsBadInitialStock(t *testing.T) {
	_, err := NewLedger([]string{"Burger"}, map[string]int{"Sushi": 1})
	assert.ErrorIs(t, err, domain.ErrUnknownItem)

	_, err = NewLedger([]string{"Burger"}, map[string]int{"Burger": -1})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestLedger_Restock(t *testing.T) {
	l := newTestLedger(t, nil)

	count, err := l.Restock("Burger", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	_, err = l.Restock("Burger", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = l.Restock("Sushi", 1)
	assert.ErrorIs(t, err, domain.ErrUnknownItem)

	_, err = l.Count("Sushi")
	assert.ErrorIs(t, err, domain.ErrUnknownItem)
}

func TestLedger_ReserveIsAllOrNothing(t *testing.T) {
	l := newTestLedger(t, map[string]int{"Burger": 10, "Fries": 1})

	_, err := l.Reserve(map[string]int{"Burger": 2, "Fries": 2})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, map[string]int{"Burger": 10, "Fries": 1, "Pasta": 0, "Pizza": 0}, l.Snapshot())

	_, err = l.Reserve(map[string]int{"Burger": 2, "Sushi": 1})
	require.ErrorIs(t, err, domain.ErrUnknownItem)
	assert.Equal(t, 10, l.Snapshot()["Burger"])

	remaining, err := l.Reserve(map[string]int{"Burger": 2, "Fries": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Burger": 8, "Fries": 0}, remaining)
}

func TestLedger_ConcurrentReservationsNeverGoNegative(t *testing.T) {
	l := newTestLedger(t, map[string]int{"Burger": 50, "Fries": 30})

	var wg sync.WaitGroup
	var succeeded atomic.Int64
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := map[string]int{"Burger": 1}
			if i%2 == 0 {
				req["Fries"] = 1
			}
			if _, err := l.Reserve(req); err == nil {
				succeeded.Add(1)
			}
			if i%10 == 0 {
				_, _ = l.Restock("Fries", 1)
			}
		}(i)
	}
	wg.Wait()

	snap := l.Snapshot()
	assert.Equal(t, 0, snap["Burger"])
	assert.GreaterOrEqual(t, snap["Fries"], 0)
	assert.Equal(t, int64(50), succeeded.Load())
}
