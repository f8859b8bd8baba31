package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/billed/bill-review/internal/application/dispatcher"
	"github.com/billed/bill-review/internal/application/port"
	"github.com/billed/bill-review/internal/domain/entity"
	"github.com/billed/bill-review/internal/domain/event"
	"github.com/billed/bill-review/internal/domain/ordering"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ErrNoBillID is returned when a decision targets a bill without an id
var ErrNoBillID = errors.New("bill has no id")

// ReviewService records reviewer decisions on bills
type ReviewService interface {
	Accept(ctx context.Context, bill entity.Bill) error
	Refuse(ctx context.Context, bill entity.Bill) error
}

type reviewServiceImpl struct {
	store      port.BillStore
	comments   port.CommentSource
	navigator  port.Navigator
	snapshot   *Snapshot
	dispatcher dispatcher.Dispatcher
	logger     Logger
}

// NewReviewService creates a ReviewService. store may be nil, in which case
// decisions are not persisted and the snapshot is left as is.
func NewReviewService(
	store port.BillStore,
	comments port.CommentSource,
	navigator port.Navigator,
	snapshot *Snapshot,
	disp dispatcher.Dispatcher,
	logger Logger,
) ReviewService {
	if comments == nil {
		comments = port.StaticComment("")
	}
	return &reviewServiceImpl{
		store:      store,
		comments:   comments,
		navigator:  navigator,
		snapshot:   snapshot,
		dispatcher: disp,
		logger:     logger,
	}
}

// Accept marks the bill accepted
func (s *reviewServiceImpl) Accept(ctx context.Context, bill entity.Bill) error {
	return s.decide(ctx, bill, entity.StatusAccepted, event.TypeBillAccepted)
}

// Refuse marks the bill refused
func (s *reviewServiceImpl) Refuse(ctx context.Context, bill entity.Bill) error {
	return s.decide(ctx, bill, entity.StatusRefused, event.TypeBillRefused)
}

func (s *reviewServiceImpl) decide(ctx context.Context, bill entity.Bill, status entity.Status, evtType event.Type) error {
	if bill.ID == "" {
		return ErrNoBillID
	}

	updated := bill.WithDecision(status, s.comments.Comment())

	if s.store == nil {
		s.logger.Info("No bill store configured, decision not persisted",
			"bill_id", bill.ID,
			"status", status,
		)
		s.navigate()
		return nil
	}

	data, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("encode bill %s: %w", bill.ID, err)
	}

	if _, err := s.store.Update(ctx, port.UpdateRequest{Data: string(data), Selector: bill.ID}); err != nil {
		s.logger.Error("Failed to update bill", "bill_id", bill.ID, "status", status, "error", err)
		return fmt.Errorf("update bill %s: %w", bill.ID, err)
	}

	bills, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("Failed to refresh bills", "bill_id", bill.ID, "error", err)
		return fmt.Errorf("refresh bills after %s: %w", status, err)
	}
	if s.snapshot != nil {
		s.snapshot.Replace(ordering.SortForReview(bills))
	}

	s.logger.Info("Bill reviewed", "bill_id", bill.ID, "status", status, "bills", len(bills))
	s.publish(ctx, evtType, updated)
	s.navigate()
	return nil
}

func (s *reviewServiceImpl) publish(ctx context.Context, evtType event.Type, bill entity.Bill) {
	if s.dispatcher == nil {
		return
	}
	evt := event.NewEvent(evtType, bill.ID, "", map[string]interface{}{
		event.KeyStatus: bill.Status,
	})
	if err := s.dispatcher.Dispatch(ctx, evt); err != nil {
		s.logger.Error("Failed to publish review event", "bill_id", bill.ID, "event_type", evtType, "error", err)
	}
}

func (s *reviewServiceImpl) navigate() {
	if s.navigator != nil {
		s.navigator.Navigate(port.RouteDashboard)
	}
}
