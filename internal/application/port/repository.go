package port

import (
	"context"

	"github.com/billed/bill-review/internal/domain/entity"
)

// UpdateRequest is the payload of a store update: the full serialized record
// and the id of the bill it replaces.
type UpdateRequest struct {
	Data     string `json:"data"`
	Selector string `json:"selector"`
}

// BillStore is the backing store consumed by the review engine
type BillStore interface {
	// List returns every bill known to the store
	List(ctx context.Context) ([]entity.Bill, error)

	// Update replaces the bill identified by req.Selector with req.Data
	Update(ctx context.Context, req UpdateRequest) (*entity.Bill, error)
}

// BillRepository adds the operations the upload side and the CLI tools need
type BillRepository interface {
	BillStore
	Create(ctx context.Context, bill *entity.Bill) error
	GetByID(ctx context.Context, id string) (*entity.Bill, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
