package service

import (
	"strings"

	"github.com/billed/bill-review/internal/domain/disclosure"
	"github.com/billed/bill-review/internal/domain/entity"
	"github.com/billed/bill-review/internal/domain/ordering"
	"github.com/billed/bill-review/internal/domain/visibility"
)

var groupTitles = map[int]string{
	entity.GroupPending:  "En attente",
	entity.GroupAccepted: "Validé",
	entity.GroupRefused:  "Refusé",
}

// CardView is one summary card in an expanded group
type CardView struct {
	ID        string   `json:"id"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Date      string   `json:"date"`
	Amount    *float64 `json:"amount,omitempty"`
	Selected  bool     `json:"selected"`
}

// GroupView is one status group header plus its cards when expanded
type GroupView struct {
	Index    int           `json:"index"`
	Status   entity.Status `json:"status"`
	Title    string        `json:"title"`
	Count    int           `json:"count"`
	Expanded bool          `json:"expanded"`
	Cards    []CardView    `json:"cards"`
}

// EditView is the right-hand panel: the open bill's form or a placeholder
type EditView struct {
	Open      bool         `json:"open"`
	Bill      *entity.Bill `json:"bill,omitempty"`
	Decidable bool         `json:"decidable"`
}

// DashboardView is the whole admin dashboard
type DashboardView struct {
	Viewer string      `json:"viewer,omitempty"`
	Groups []GroupView `json:"groups"`
	Edit   EditView    `json:"edit"`
	Route  string      `json:"route,omitempty"`
}

// BillRow is one line of the employee bills table
type BillRow struct {
	ID       string        `json:"id"`
	Type     string        `json:"type"`
	Name     string        `json:"name"`
	Date     string        `json:"date"`
	Amount   *float64      `json:"amount,omitempty"`
	Status   entity.Status `json:"status"`
	FileURL  string        `json:"fileUrl"`
	FileName string        `json:"fileName"`
}

// SplitName derives the card name from the email local part:
// "first.last@x" gives ("first", "last"), "solo@x" gives ("", "solo").
func SplitName(email string) (first, last string) {
	local, _, _ := strings.Cut(email, "@")
	if !strings.Contains(local, ".") {
		return "", local
	}
	parts := strings.Split(local, ".")
	return parts[0], parts[1]
}

func buildCard(b entity.Bill, board *disclosure.Board) CardView {
	first, last := SplitName(b.Email)
	return CardView{
		ID:        b.ID,
		FirstName: first,
		LastName:  last,
		Name:      b.Name,
		Type:      b.Type,
		Date:      ordering.Display(b.Date),
		Amount:    b.Amount,
		Selected:  board.IsSelected(b.ID),
	}
}

// buildDashboardView derives the rendered state from the snapshot and board.
// Collapsed groups carry no cards.
func buildDashboardView(bills []entity.Bill, board *disclosure.Board, viewer visibility.ViewerContext) DashboardView {
	view := DashboardView{Viewer: viewer.Email, Groups: make([]GroupView, 0, len(entity.GroupIndexes))}

	for _, idx := range entity.GroupIndexes {
		status, _ := entity.StatusForGroup(idx)
		visible := visibility.Select(bills, status, viewer)

		group := GroupView{
			Index:    idx,
			Status:   status,
			Title:    groupTitles[idx],
			Count:    len(visible),
			Expanded: board.IsExpanded(idx),
			Cards:    []CardView{},
		}
		if group.Expanded {
			for _, b := range visible {
				group.Cards = append(group.Cards, buildCard(b, board))
			}
		}
		view.Groups = append(view.Groups, group)
	}

	if id := board.OpenBillID(); id != "" {
		for _, b := range bills {
			if b.ID == id && visibility.Visible(b, viewer) {
				open := b
				view.Edit = EditView{Open: true, Bill: &open, Decidable: open.Status == entity.StatusPending}
				break
			}
		}
	}
	return view
}

func buildRows(bills []entity.Bill) []BillRow {
	rows := make([]BillRow, 0, len(bills))
	for _, b := range bills {
		rows = append(rows, BillRow{
			ID:       b.ID,
			Type:     b.Type,
			Name:     b.Name,
			Date:     ordering.Display(b.Date),
			Amount:   b.Amount,
			Status:   b.Status,
			FileURL:  b.FileURL,
			FileName: b.FileName,
		})
	}
	return rows
}
