package service

import (
	"context"
	"fmt"

	"github.com/billed/bill-review/internal/application/port"
	"github.com/billed/bill-review/internal/domain/ordering"
	"github.com/billed/bill-review/internal/domain/visibility"
)

const pageBills = "bills"

// BillsService renders the employee's own bills
type BillsService interface {
	// Show renders a loading page, then either the rows or the store error
	Show(ctx context.Context, r port.Renderer) error

	// Rows returns the viewer's bills, most recent first
	Rows(ctx context.Context) ([]BillRow, error)
}

type billsServiceImpl struct {
	store    port.BillStore
	resolver port.ViewerResolver
	logger   Logger
}

// NewBillsService creates a BillsService; store may be nil
func NewBillsService(store port.BillStore, resolver port.ViewerResolver, logger Logger) BillsService {
	return &billsServiceImpl{
		store:    store,
		resolver: resolver,
		logger:   logger,
	}
}

func (s *billsServiceImpl) Show(ctx context.Context, r port.Renderer) error {
	if err := r.Render(ctx, port.Page{Name: pageBills, Mode: port.ModeLoading}); err != nil {
		return fmt.Errorf("render loading: %w", err)
	}

	rows, err := s.Rows(ctx)
	if err != nil {
		s.logger.Error("Failed to list employee bills", "error", err)
		return r.Render(ctx, port.Page{Name: pageBills, Mode: port.ModeError, Error: err.Error()})
	}
	return r.Render(ctx, port.Page{Name: pageBills, Mode: port.ModeData, Data: rows})
}

func (s *billsServiceImpl) Rows(ctx context.Context) ([]BillRow, error) {
	if s.store == nil {
		return []BillRow{}, nil
	}

	viewer := visibility.Anonymous
	if s.resolver != nil {
		viewer = s.resolver.Viewer(ctx)
	}
	if viewer.Email == "" {
		return []BillRow{}, nil
	}

	bills, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}

	own := visibility.OwnedBy(bills, viewer.Email)
	return buildRows(ordering.SortRows(own)), nil
}
