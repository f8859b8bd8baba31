package port

import (
	"context"
	"io"

	"github.com/billed/bill-review/internal/domain/entity"
	"github.com/billed/bill-review/internal/domain/visibility"
)

// Route is a navigation token understood by the router
type Route string

const (
	RouteLogin     Route = "/"
	RouteBills     Route = "#employee/bills"
	RouteNewBill   Route = "#employee/bill/new"
	RouteDashboard Route = "#admin/dashboard"
)

// Navigator performs page transitions
type Navigator interface {
	Navigate(route Route)
}

// CommentSource exposes the reviewer's comment field
type CommentSource interface {
	Comment() string
}

// StaticComment is a CommentSource holding a fixed text
type StaticComment string

// Comment returns the text
func (c StaticComment) Comment() string {
	return string(c)
}

// RenderMode selects which variant of a page the renderer produces
type RenderMode string

const (
	ModeLoading RenderMode = "loading"
	ModeError   RenderMode = "error"
	ModeData    RenderMode = "data"
)

// Page is what the core hands to the template collaborator
type Page struct {
	Name  string      `json:"page"`
	Mode  RenderMode  `json:"mode"`
	Error string      `json:"error,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// Renderer turns a page into markup or any other presentation
type Renderer interface {
	Render(ctx context.Context, page Page) error
}

// ViewerResolver identifies who is looking at the page
type ViewerResolver interface {
	Viewer(ctx context.Context) visibility.ViewerContext
}

// Preview is a rendered receipt image
type Preview struct {
	ContentType string
	Data        []byte
}

// ReceiptPreviewer renders an uploaded receipt for the eye-icon modal
type ReceiptPreviewer interface {
	Preview(ctx context.Context, bill entity.Bill) (*Preview, error)
}

// ReportWriter writes a review report of the given bills
type ReportWriter interface {
	Write(ctx context.Context, w io.Writer, bills []entity.Bill) error
}
