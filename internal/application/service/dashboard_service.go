package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/billed/bill-review/internal/application/dispatcher"
	"github.com/billed/bill-review/internal/application/port"
	"github.com/billed/bill-review/internal/domain/disclosure"
	"github.com/billed/bill-review/internal/domain/entity"
	"github.com/billed/bill-review/internal/domain/event"
	"github.com/billed/bill-review/internal/domain/ordering"
	"github.com/billed/bill-review/internal/domain/visibility"
)

const pageDashboard = "dashboard"

var (
	ErrBillNotFound  = errors.New("bill not found in dashboard")
	ErrNotReviewable = errors.New("bill is not pending review")
	ErrUnavailable   = errors.New("feature not configured")
)

// DashboardService hands out one dashboard session per viewer
type DashboardService interface {
	Session(viewer visibility.ViewerContext) *DashboardSession
	Close(viewer visibility.ViewerContext)
}

type dashboardServiceImpl struct {
	mu       sync.Mutex
	sessions map[visibility.ViewerContext]*DashboardSession

	store      port.BillStore
	previewer  port.ReceiptPreviewer
	report     port.ReportWriter
	dispatcher dispatcher.Dispatcher
	logger     Logger
}

// NewDashboardService creates a DashboardService. store, previewer, report
// and disp may each be nil.
func NewDashboardService(
	store port.BillStore,
	previewer port.ReceiptPreviewer,
	report port.ReportWriter,
	disp dispatcher.Dispatcher,
	logger Logger,
) DashboardService {
	return &dashboardServiceImpl{
		sessions:   make(map[visibility.ViewerContext]*DashboardSession),
		store:      store,
		previewer:  previewer,
		report:     report,
		dispatcher: disp,
		logger:     logger,
	}
}

// Session returns the viewer's session, creating it on first use
func (s *dashboardServiceImpl) Session(viewer visibility.ViewerContext) *DashboardSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[viewer]; ok {
		return sess
	}
	sess := &DashboardSession{
		viewer:     viewer,
		snapshot:   NewSnapshot(nil),
		board:      disclosure.NewBoard(),
		store:      s.store,
		previewer:  s.previewer,
		report:     s.report,
		dispatcher: s.dispatcher,
		logger:     s.logger,
	}
	s.sessions[viewer] = sess
	s.logger.Info("Dashboard session opened", "viewer", viewer.Email, "reviewing", viewer.Reviewing)
	return sess
}

// Close forgets the viewer's session
func (s *dashboardServiceImpl) Close(viewer visibility.ViewerContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, viewer)
}

// DashboardSession is one reviewer's dashboard: the bill snapshot, the
// disclosure board and the last navigation. Calls are serialized.
type DashboardSession struct {
	mu       sync.Mutex
	viewer   visibility.ViewerContext
	snapshot *Snapshot
	board    *disclosure.Board
	loaded   bool
	route    port.Route

	store      port.BillStore
	previewer  port.ReceiptPreviewer
	report     port.ReportWriter
	dispatcher dispatcher.Dispatcher
	logger     Logger
}

// Viewer returns who the session belongs to
func (d *DashboardSession) Viewer() visibility.ViewerContext {
	return d.viewer
}

// Load fetches the bills and renders the dashboard. A store failure is
// rendered as an error page rather than returned.
func (d *DashboardSession) Load(ctx context.Context, r port.Renderer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := r.Render(ctx, port.Page{Name: pageDashboard, Mode: port.ModeLoading}); err != nil {
		return fmt.Errorf("render loading: %w", err)
	}

	if err := d.refresh(ctx); err != nil {
		d.logger.Error("Failed to load dashboard", "viewer", d.viewer.Email, "error", err)
		return r.Render(ctx, port.Page{Name: pageDashboard, Mode: port.ModeError, Error: err.Error()})
	}
	return r.Render(ctx, d.page())
}

// Render renders the current state without touching the store
func (d *DashboardSession) Render(ctx context.Context, r port.Renderer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return r.Render(ctx, d.page())
}

// View returns the current derived dashboard
func (d *DashboardSession) View() DashboardView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.view()
}

// Toggle expands or collapses a status group
func (d *DashboardSession) Toggle(ctx context.Context, index int) (disclosure.ToggleResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureLoaded(ctx); err != nil {
		return disclosure.ToggleResult{}, err
	}

	res, err := d.board.Toggle(index)
	if err != nil {
		return disclosure.ToggleResult{}, err
	}

	d.publish(ctx, event.NewEvent(event.TypeGroupToggled, "", d.viewer.Email, map[string]interface{}{
		event.KeyIndex:    res.Index,
		event.KeyStatus:   res.Status,
		event.KeyExpanded: res.Expanded,
		event.KeyCount:    visibility.Count(d.snapshot.Bills(), res.Status, d.viewer),
	}))
	return res, nil
}

// Select opens the edit form for a bill, or closes it when already open
func (d *DashboardSession) Select(ctx context.Context, billID string) (disclosure.EditResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureLoaded(ctx); err != nil {
		return disclosure.EditResult{}, err
	}

	bill, index, err := d.visibleBill(billID, true)
	if err != nil {
		return disclosure.EditResult{}, err
	}

	res := d.board.RequestEdit(bill.ID, index)

	d.publish(ctx, event.NewEvent(event.TypeEditRequested, bill.ID, d.viewer.Email, map[string]interface{}{
		event.KeyIndex:  index,
		event.KeyOpened: res.Opened,
	}))
	return res, nil
}

// Accept accepts a pending bill with the reviewer's comment
func (d *DashboardSession) Accept(ctx context.Context, billID string, comments port.CommentSource) error {
	return d.decide(ctx, billID, comments, ReviewService.Accept)
}

// Refuse refuses a pending bill with the reviewer's comment
func (d *DashboardSession) Refuse(ctx context.Context, billID string, comments port.CommentSource) error {
	return d.decide(ctx, billID, comments, ReviewService.Refuse)
}

func (d *DashboardSession) decide(ctx context.Context, billID string, comments port.CommentSource, op func(ReviewService, context.Context, entity.Bill) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureLoaded(ctx); err != nil {
		return err
	}

	bill, _, err := d.visibleBill(billID, false)
	if err != nil {
		return err
	}
	if bill.Status != entity.StatusPending {
		return fmt.Errorf("%w: %s is %s", ErrNotReviewable, billID, bill.Status)
	}

	review := NewReviewService(d.store, comments, sessionNavigator{d}, d.snapshot, d.dispatcher, d.logger)
	return op(review, ctx, bill)
}

// Export writes the bills the viewer may see as a review report
func (d *DashboardSession) Export(ctx context.Context, w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.report == nil {
		return fmt.Errorf("%w: report export", ErrUnavailable)
	}
	if err := d.ensureLoaded(ctx); err != nil {
		return err
	}

	bills := d.snapshot.Bills()
	var visible []entity.Bill
	for _, idx := range entity.GroupIndexes {
		status, _ := entity.StatusForGroup(idx)
		visible = append(visible, visibility.Select(bills, status, d.viewer)...)
	}
	return d.report.Write(ctx, w, ordering.SortForReview(visible))
}

// Receipt renders the receipt attached to a bill
func (d *DashboardSession) Receipt(ctx context.Context, billID string) (*port.Preview, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.previewer == nil {
		return nil, fmt.Errorf("%w: receipt preview", ErrUnavailable)
	}
	if err := d.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	bill, _, err := d.visibleBill(billID, false)
	if err != nil {
		return nil, err
	}
	return d.previewer.Preview(ctx, bill)
}

func (d *DashboardSession) ensureLoaded(ctx context.Context) error {
	if d.loaded {
		return nil
	}
	return d.refresh(ctx)
}

func (d *DashboardSession) refresh(ctx context.Context) error {
	if d.store == nil {
		d.logger.Info("No bill store configured, dashboard is empty", "viewer", d.viewer.Email)
		d.loaded = true
		return nil
	}

	bills, err := d.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list bills: %w", err)
	}
	d.snapshot.Replace(ordering.SortForReview(bills))
	d.loaded = true

	// a form left open on a bill that is gone or hidden now is closed
	if id := d.board.OpenBillID(); id != "" {
		if _, _, err := d.visibleBill(id, false); err != nil {
			d.board.CloseEdit()
		}
	}

	d.publish(ctx, event.NewEvent(event.TypeSnapshotLoaded, "", d.viewer.Email, map[string]interface{}{
		event.KeyCount: len(bills),
	}))
	return nil
}

// visibleBill resolves billID among the bills the viewer may see in their
// status group. With onCard set the group must also be expanded, as it is
// when the card is on screen. Anything else is ErrBillNotFound.
func (d *DashboardSession) visibleBill(billID string, onCard bool) (entity.Bill, int, error) {
	bill, ok := d.snapshot.Find(billID)
	if !ok || !visibility.Visible(bill, d.viewer) {
		return entity.Bill{}, 0, fmt.Errorf("%w: %s", ErrBillNotFound, billID)
	}
	index, known := entity.GroupForStatus(bill.Status)
	if !known || (onCard && !d.board.IsExpanded(index)) {
		return entity.Bill{}, 0, fmt.Errorf("%w: %s", ErrBillNotFound, billID)
	}
	return bill, index, nil
}

func (d *DashboardSession) view() DashboardView {
	view := buildDashboardView(d.snapshot.Bills(), d.board, d.viewer)
	view.Route = string(d.route)
	return view
}

func (d *DashboardSession) page() port.Page {
	return port.Page{Name: pageDashboard, Mode: port.ModeData, Data: d.view()}
}

func (d *DashboardSession) publish(ctx context.Context, evt *event.Event) {
	if d.dispatcher == nil {
		return
	}
	if err := d.dispatcher.Dispatch(ctx, evt); err != nil {
		d.logger.Error("Failed to publish dashboard event", "event_type", evt.Type, "error", err)
	}
}

// sessionNavigator records navigation on the session. Landing on the
// dashboard starts from a fresh board, as a newly opened page would.
// It runs with the session lock held.
type sessionNavigator struct {
	d *DashboardSession
}

func (n sessionNavigator) Navigate(route port.Route) {
	n.d.route = route
	if route == port.RouteDashboard {
		n.d.board = disclosure.NewBoard()
	}
}
