package entity

// Bill represents one expense report submitted by an employee.
// JSON field names are the store payload contract and must not change.
type Bill struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	Name         string   `json:"name"`
	Date         string   `json:"date"` // untrusted, not guaranteed to be a calendar date
	Amount       *float64 `json:"amount,omitempty"`
	VAT          *float64 `json:"vat,omitempty"`
	Pct          *float64 `json:"pct,omitempty"`
	Commentary   string   `json:"commentary"`
	CommentAdmin string   `json:"commentAdmin"`
	Status       Status   `json:"status"`
	Email        string   `json:"email"`
	FileURL      string   `json:"fileUrl"`
	FileName     string   `json:"fileName"`
}

// WithDecision returns a shallow copy of the bill carrying a reviewer decision.
func (b Bill) WithDecision(status Status, commentAdmin string) Bill {
	b.Status = status
	b.CommentAdmin = commentAdmin
	return b
}

// CloneBills copies a slice of bills so callers never share backing arrays.
func CloneBills(bills []Bill) []Bill {
	out := make([]Bill, len(bills))
	copy(out, bills)
	return out
}
