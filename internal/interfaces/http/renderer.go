package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/billed/bill-review/internal/application/port"
)

// jsonRenderer is the API's template collaborator. The loading variant has
// no JSON form and is skipped; error pages map to 502 since they carry a
// store failure.
type jsonRenderer struct {
	c *gin.Context
}

func newRenderer(c *gin.Context) *jsonRenderer {
	return &jsonRenderer{c: c}
}

func (r *jsonRenderer) Render(_ context.Context, page port.Page) error {
	switch page.Mode {
	case port.ModeLoading:
		return nil
	case port.ModeError:
		r.c.JSON(http.StatusBadGateway, Response{Success: false, Error: page.Error})
	default:
		r.c.JSON(http.StatusOK, Response{Success: true, Data: page.Data})
	}
	return nil
}

var _ port.Renderer = (*jsonRenderer)(nil)
