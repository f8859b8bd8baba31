package dispatcher

import (
	"context"

	"github.com/billed/bill-review/internal/domain/event"
)

// Handler reacts to a domain event
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo describes a subscription
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}
