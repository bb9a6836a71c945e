package models

import "github.com/mmynk/settleup/pkg/money"

// Expense is an amount paid by one member on behalf of several.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// Description is what the money was spent on (e.g., "Groceries").
	Description string

	// Amount is the total paid.
	Amount money.Amount

	// PaidBy is the member ID of the payer.
	PaidBy string

	// SplitBetween lists who shares the expense, in entry order.
	SplitBetween []Split

	// Category is an optional free-form category ("food", "transport", ...).
	Category string

	// Date is the Unix timestamp the expense happened at.
	Date int64

	// CreatedBy is the user ID who logged the expense, if known.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// Split is one member's part of an expense.
type Split struct {
	MemberID string

	// Amount is a custom share. Nil means an equal share of the expense.
	Amount *money.Amount
}
