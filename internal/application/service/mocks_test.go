package service

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/billed/bill-review/internal/application/port"
	"github.com/billed/bill-review/internal/domain/entity"
	"github.com/billed/bill-review/internal/domain/visibility"
)

func ptr(f float64) *float64 { return &f }

// fixtureBills mirrors the seed fixtures
func fixtureBills() []entity.Bill {
	return []entity.Bill{
		{ID: "47qAXb6fIm2zOKkLzMro", Name: "encore", Type: "Hôtel et logement", Date: "2004-04-04", Amount: ptr(400), Status: entity.StatusPending, Email: "a@a", Commentary: "séminaire billed"},
		{ID: "BeKy5Mo4jkmdfPGYpTxZ", Name: "test1", Type: "Transports", Date: "2001-01-01", Amount: ptr(100), Status: entity.StatusAccepted, Email: "a@a", CommentAdmin: "bon bah d'accord"},
		{ID: "UIUZtnPQvnbFnB0ozvJh", Name: "test3", Type: "Services en ligne", Date: "2003-03-03", Amount: ptr(300), Status: entity.StatusRefused, Email: "a@a"},
		{ID: "qcCK3SzECmaZAGRrHjaC", Name: "test2", Type: "Restaurants et bars", Date: "2002-02-02", Amount: ptr(200), Status: entity.StatusRefused, Email: "a@a"},
	}
}

type mockStore struct {
	mu       sync.Mutex
	bills    []entity.Bill
	updates  []port.UpdateRequest
	lists    int
	listErr  error
	updateFn func(ctx context.Context, req port.UpdateRequest) (*entity.Bill, error)
}

func (m *mockStore) List(ctx context.Context) ([]entity.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return entity.CloneBills(m.bills), nil
}

func (m *mockStore) Update(ctx context.Context, req port.UpdateRequest) (*entity.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, req)
	if m.updateFn != nil {
		return m.updateFn(ctx, req)
	}

	var b entity.Bill
	if err := json.Unmarshal([]byte(req.Data), &b); err != nil {
		return nil, err
	}
	for i := range m.bills {
		if m.bills[i].ID == req.Selector {
			m.bills[i] = b
		}
	}
	return &b, nil
}

type mockNavigator struct {
	routes []port.Route
}

func (m *mockNavigator) Navigate(route port.Route) {
	m.routes = append(m.routes, route)
}

type countingComments struct {
	text  string
	reads int
}

func (c *countingComments) Comment() string {
	c.reads++
	return c.text
}

type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

type recordingRenderer struct {
	pages []port.Page
	err   error
}

func (r *recordingRenderer) Render(ctx context.Context, page port.Page) error {
	r.pages = append(r.pages, page)
	return r.err
}

func (r *recordingRenderer) modes() []port.RenderMode {
	out := make([]port.RenderMode, len(r.pages))
	for i, p := range r.pages {
		out[i] = p.Mode
	}
	return out
}

func (r *recordingRenderer) last() port.Page {
	return r.pages[len(r.pages)-1]
}

type staticResolver struct {
	viewer visibility.ViewerContext
}

func (s staticResolver) Viewer(ctx context.Context) visibility.ViewerContext {
	return s.viewer
}

type mockPreviewer struct {
	seen []string
}

func (m *mockPreviewer) Preview(ctx context.Context, bill entity.Bill) (*port.Preview, error) {
	m.seen = append(m.seen, bill.ID)
	return &port.Preview{ContentType: "image/png", Data: []byte("png")}, nil
}

type mockReport struct {
	bills []entity.Bill
}

func (m *mockReport) Write(ctx context.Context, w io.Writer, bills []entity.Bill) error {
	m.bills = bills
	_, err := w.Write([]byte("xlsx"))
	return err
}
