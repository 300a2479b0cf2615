package kitchen

import (
	"fmt"
	"sort"
	"sync"

	"github.com/YelzhanWeb/kitchenline/internal/domain"
)

type stock struct {
	mu    sync.Mutex
	count int
}

// Ledger is the inventory of the fixed catalog. Each item has its own lock;
// multi-item reservations take the locks in name order.
type Ledger struct {
	items map[string]*stock
}

func NewLedger(names []string, initial map[string]int) (*Ledger, error) {
	l := &Ledger{items: make(map[string]*stock, len(names))}
	for _, name := range names {
		l.items[name] = &stock{}
	}
	for name, count := range initial {
		s, ok := l.items[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownItem, name)
		}
		if count < 0 {
			return nil, fmt.Errorf("%w: initial %s count %d", domain.ErrInvalidQuantity, name, count)
		}
		s.count = count
	}
	return l, nil
}

func (l *Ledger) Count(name string) (int, error) {
	s, ok := l.items[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrUnknownItem, name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count, nil
}

// Restock adds delta to an item and returns the new count.
func (l *Ledger) Restock(name string, delta int) (int, error) {
	if delta <= 0 {
		return 0, fmt.Errorf("%w: restock %s by %d", domain.ErrInvalidQuantity, name, delta)
	}
	s, ok := l.items[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrUnknownItem, name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count += delta
	return s.count, nil
}

// Reserve decrements every requested item or none of them.
func (l *Ledger) Reserve(request map[string]int) (map[string]int, error) {
	names := domain.SortedItemNames(request)
	locked := make([]*stock, 0, len(names))
	defer func() {
		for _, s := range locked {
			s.mu.Unlock()
		}
	}()

	for _, name := range names {
		qty := request[name]
		if qty <= 0 {
			return nil, fmt.Errorf("%w: %s quantity %d", domain.ErrInvalidQuantity, name, qty)
		}
		s, ok := l.items[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownItem, name)
		}
		s.mu.Lock()
		locked = append(locked, s)
		if s.count < qty {
			return nil, fmt.Errorf("%w: %s has %d, need %d", domain.ErrInsufficientStock, name, s.count, qty)
		}
	}

	remaining := make(map[string]int, len(names))
	for i, name := range names {
		locked[i].count -= request[name]
		remaining[name] = locked[i].count
	}
	return remaining, nil
}

// Snapshot returns all counts. Items are read one at a time, so the result
// may straddle concurrent updates.
func (l *Ledger) Snapshot() map[string]int {
	names := make([]string, 0, len(l.items))
	for name := range l.items {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]int, len(names))
	for _, name := range names {
		s := l.items[name]
		s.mu.Lock()
		out[name] = s.count
		s.mu.Unlock()
	}
	return out
}
