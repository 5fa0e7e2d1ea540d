package task

import (
	"context"
	"log/slog"

	"github.com/GoCodeAlone/tasklist/events"
)

// Service performs list operations against a Store and announces each change
// on a Bus. Both the HTML pages and the JSON API go through it.
type Service struct {
	store  Store
	bus    events.Bus
	logger *slog.Logger
}

// NewService wires a Service. bus and logger may be nil.
func NewService(store Store, bus events.Bus, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, bus: bus, logger: logger}
}

// List returns the current tasks in insertion order.
func (s *Service) List() ([]string, error) {
	return s.store.List()
}

// Add appends text to the list.
func (s *Service) Add(ctx context.Context, text string) error {
	if err := s.store.Append(text); err != nil {
		return err
	}
	s.logger.Debug("task added", slog.String("task", text))
	s.publish(ctx, events.TypeAdded, text)
	return nil
}

// Delete removes the first occurrence of text. Deleting a task that is not
// in the list is a no-op and reports false.
func (s *Service) Delete(ctx context.Context, text string) (bool, error) {
	removed, err := s.store.Remove(text)
	if err != nil {
		return false, err
	}
	if !removed {
		s.logger.Debug("task not found for delete", slog.String("task", text))
		return false, nil
	}
	s.logger.Debug("task removed", slog.String("task", text))
	s.publish(ctx, events.TypeRemoved, text)
	return true, nil
}

// publish never fails the mutation; subscriber errors are only logged.
func (s *Service) publish(ctx context.Context, t events.Type, text string) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, events.New(t, text)); err != nil {
		s.logger.Error("publish task event", slog.String("type", string(t)), slog.Any("err", err))
	}
}
