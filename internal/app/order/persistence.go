package order

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/kitchenline/internal/domain"
)

// refresh merges today's archive into memory. Records missing locally are
// added; for records present on both sides the more advanced status wins.
func (s *Service) refresh(ctx context.Context) error {
	if s.archive == nil {
		return nil
	}
	stored, err := s.archive.Load(ctx, s.now())
	if err != nil {
		return fmt.Errorf("failed to load archive: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range stored {
		if rec == nil || !rec.Status.IsValid() {
			continue
		}
		current, ok := s.orders[id]
		if !ok {
			s.orders[id] = rec.Clone()
			continue
		}
		if current.Status.CanTransitionTo(rec.Status) {
			current.Status = rec.Status
			current.UpdatedAt = rec.UpdatedAt
		}
	}
	return nil
}

func (s *Service) refreshOrLog(ctx context.Context) {
	if err := s.refresh(ctx); err != nil {
		s.logger.Error("archive_load_failed", "Failed to reload saved orders", "", nil, err)
	}
}

const saveTimeout = 5 * time.Second

// persist writes the whole table for today. It outlives the caller's
// cancellation so an order the caller already owns is saved. Failures are
// logged and counted.
func (s *Service) persist(ctx context.Context) {
	if s.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	snapshot := make(map[string]*domain.Order, len(s.orders))
	for id, o := range s.orders {
		snapshot[id] = o.Clone()
	}
	s.mu.RUnlock()

	if err := s.archive.Save(ctx, s.now(), snapshot); err != nil {
		s.metrics.ArchiveSaveFailures.Inc()
		s.logger.Error("archive_save_failed", "Failed to save orders", "", map[string]interface{}{
			"orders": len(snapshot),
		}, err)
		return
	}
	s.logger.Debug("archive_saved", "Saved orders", "", map[string]interface{}{
		"orders": len(snapshot),
	})
}
