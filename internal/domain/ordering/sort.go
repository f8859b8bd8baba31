package ordering

import (
	"slices"

	"github.com/billed/bill-review/internal/domain/entity"
)

// SortRows orders bills for the employee table: most recent first,
// unparseable dates last, ties keep their input order.
// The input slice is left untouched.
func SortRows(bills []entity.Bill) []entity.Bill {
	return sortDescending(bills)
}

// SortForReview orders the admin "all users" listing. Any unparseable date is
// pushed to the end; two unparseable dates keep their relative input order.
func SortForReview(bills []entity.Bill) []entity.Bill {
	return sortDescending(bills)
}

func sortDescending(bills []entity.Bill) []entity.Bill {
	if len(bills) == 0 {
		return []entity.Bill{}
	}

	type ranked struct {
		bill entity.Bill
		rank Rank
	}

	items := make([]ranked, len(bills))
	for i, b := range bills {
		items[i] = ranked{bill: b, rank: Parse(b.Date)}
	}

	slices.SortStableFunc(items, func(a, b ranked) int {
		return CompareDescending(a.rank, b.rank)
	})

	out := make([]entity.Bill, len(items))
	for i, it := range items {
		out[i] = it.bill
	}
	return out
}

// CompareDescending is the comparator behind both listings: newer before
// older, sentinel after everything valid.
func CompareDescending(a, b Rank) int {
	switch {
	case !a.valid && !b.valid:
		return 0
	case !a.valid:
		return 1
	case !b.valid:
		return -1
	}
	return b.t.Compare(a.t)
}
