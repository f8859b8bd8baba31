package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/billed/bill-review/internal/application/port"
	"github.com/billed/bill-review/internal/domain/entity"
	"github.com/billed/bill-review/internal/infrastructure/persistence/sqlite"
)

var (
	ErrBillNotFound     = errors.New("bill not found")
	ErrInvalidStatus    = errors.New("invalid bill status")
	ErrSelectorMismatch = errors.New("record id does not match selector")
	ErrStatusRegression = errors.New("reviewed bill cannot return to pending")
	ErrMissingSelector  = errors.New("update selector is empty")
)

const billColumns = `id, type, name, date, amount, vat, pct, commentary, comment_admin,
	status, email, file_url, file_name`

// BillRepository implements port.BillRepository on SQLite
type BillRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewBillRepository creates a new bill repository
func NewBillRepository(db *sqlite.DB, logger *zap.Logger) *BillRepository {
	return &BillRepository{db: db, logger: logger}
}

// Create stores a new bill. An empty id is replaced by a fresh UUID and an
// empty status by pending.
func (r *BillRepository) Create(ctx context.Context, bill *entity.Bill) error {
	if bill.ID == "" {
		bill.ID = uuid.NewString()
	}
	if bill.Status == "" {
		bill.Status = entity.StatusPending
	}
	if !bill.Status.IsKnown() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, bill.Status)
	}

	query := `INSERT INTO bills (` + billColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		bill.ID, bill.Type, bill.Name, bill.Date,
		nullFloat(bill.Amount), nullFloat(bill.VAT), nullFloat(bill.Pct),
		bill.Commentary, bill.CommentAdmin, bill.Status,
		bill.Email, bill.FileURL, bill.FileName,
	)
	if err != nil {
		r.logger.Error("Failed to create bill", zap.String("id", bill.ID), zap.Error(err))
		return fmt.Errorf("failed to create bill: %w", err)
	}
	return nil
}

// GetByID returns the bill or ErrBillNotFound
func (r *BillRepository) GetByID(ctx context.Context, id string) (*entity.Bill, error) {
	row := r.db.Executor(ctx).QueryRowContext(ctx, `SELECT `+billColumns+` FROM bills WHERE id = ?`, id)

	bill, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrBillNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get bill", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	return bill, nil
}

// List returns every bill in insertion order
func (r *BillRepository) List(ctx context.Context) ([]entity.Bill, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `SELECT `+billColumns+` FROM bills ORDER BY created_at, rowid`)
	if err != nil {
		r.logger.Error("Failed to list bills", zap.Error(err))
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	bills := []entity.Bill{}
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, *bill)
	}
	return bills, rows.Err()
}

// Update replaces the bill named by req.Selector with the record in req.Data.
// The id never changes and a reviewed bill never goes back to pending.
func (r *BillRepository) Update(ctx context.Context, req port.UpdateRequest) (*entity.Bill, error) {
	if req.Selector == "" {
		return nil, ErrMissingSelector
	}

	var next entity.Bill
	if err := json.Unmarshal([]byte(req.Data), &next); err != nil {
		return nil, fmt.Errorf("failed to decode bill record: %w", err)
	}
	if next.ID != "" && next.ID != req.Selector {
		return nil, fmt.Errorf("%w: %s != %s", ErrSelectorMismatch, next.ID, req.Selector)
	}
	if !next.Status.IsKnown() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, next.Status)
	}
	next.ID = req.Selector

	err := r.db.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := r.GetByID(ctx, req.Selector)
		if err != nil {
			return err
		}
		if current.Status.IsDecision() && next.Status == entity.StatusPending {
			return fmt.Errorf("%w: %s", ErrStatusRegression, req.Selector)
		}

		_, err = r.db.Executor(ctx).ExecContext(ctx, `
			UPDATE bills SET
				type = ?, name = ?, date = ?, amount = ?, vat = ?, pct = ?,
				commentary = ?, comment_admin = ?, status = ?, email = ?,
				file_url = ?, file_name = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`,
			next.Type, next.Name, next.Date,
			nullFloat(next.Amount), nullFloat(next.VAT), nullFloat(next.Pct),
			next.Commentary, next.CommentAdmin, next.Status, next.Email,
			next.FileURL, next.FileName,
			next.ID,
		)
		return err
	})
	if err != nil {
		r.logger.Error("Failed to update bill", zap.String("id", req.Selector), zap.Error(err))
		return nil, fmt.Errorf("failed to update bill: %w", err)
	}

	r.logger.Info("Bill updated", zap.String("id", next.ID), zap.String("status", next.Status.String()))
	return &next, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBill(s scanner) (*entity.Bill, error) {
	var (
		b                entity.Bill
		amount, vat, pct sql.NullFloat64
		status           string
	)
	if err := s.Scan(
		&b.ID, &b.Type, &b.Name, &b.Date,
		&amount, &vat, &pct,
		&b.Commentary, &b.CommentAdmin, &status,
		&b.Email, &b.FileURL, &b.FileName,
	); err != nil {
		return nil, err
	}
	b.Status = entity.Status(status)
	b.Amount = floatPtr(amount)
	b.VAT = floatPtr(vat)
	b.Pct = floatPtr(pct)
	return &b, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

var _ port.BillRepository = (*BillRepository)(nil)
