package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/pkg/money"
)

var (
	ErrNonPositiveAmount = errors.New("expense amount must be positive")
	ErrUnknownPayer      = errors.New("payer is not a group member")
	ErrEmptySplit        = errors.New("expense must be split between at least one member")
	ErrUnknownMember     = errors.New("split references a member outside the group")
	ErrNegativeShare     = errors.New("custom share cannot be negative")
	ErrShareMismatch     = errors.New("shares do not add up to the expense amount")
)

// Share is one member's resolved portion of an expense, kept exact.
type Share struct {
	MemberID string
	Amount   decimal.Decimal
}

// ResolveShares computes each split entry's portion of the expense.
// Entries with a custom amount keep it; the rest get amount / len(SplitBetween).
func ResolveShares(expense Expense) []Share {
	if len(expense.SplitBetween) == 0 {
		return nil
	}

	equal := expense.Amount.Decimal().Div(decimal.NewFromInt(int64(len(expense.SplitBetween))))
	shares := make([]Share, len(expense.SplitBetween))
	for i, split := range expense.SplitBetween {
		share := equal
		if split.Amount != nil {
			share = split.Amount.Decimal()
		}
		shares[i] = Share{MemberID: split.MemberID, Amount: share}
	}
	return shares
}

// ValidateExpense checks the invariants the balance calculator relies on.
// The calculator itself never rejects input; callers run this before
// persisting an expense.
func ValidateExpense(members []Member, expense Expense) error {
	if expense.Amount <= 0 {
		return ErrNonPositiveAmount
	}
	if !expense.Amount.InRange() {
		return money.ErrOutOfRange
	}

	known := make(map[string]bool, len(members))
	for _, m := range members {
		known[m.ID] = true
	}

	if !known[expense.PaidBy] {
		return fmt.Errorf("%w: %s", ErrUnknownPayer, expense.PaidBy)
	}
	if len(expense.SplitBetween) == 0 {
		return ErrEmptySplit
	}

	for _, split := range expense.SplitBetween {
		if !known[split.MemberID] {
			return fmt.Errorf("%w: %s", ErrUnknownMember, split.MemberID)
		}
		if split.Amount != nil && *split.Amount < 0 {
			return fmt.Errorf("%w: %s", ErrNegativeShare, split.MemberID)
		}
		if split.Amount != nil && !split.Amount.InRange() {
			return fmt.Errorf("%w: share of %s", money.ErrOutOfRange, split.MemberID)
		}
	}

	total := decimal.Zero
	for _, share := range ResolveShares(expense) {
		total = total.Add(share.Amount)
	}
	diff := total.Sub(expense.Amount.Decimal()).Abs()
	if diff.GreaterThan(money.Epsilon.Decimal()) {
		return fmt.Errorf("%w: shares total %s, expense is %s",
			ErrShareMismatch, total.StringFixed(money.Places), expense.Amount)
	}

	return nil
}

// TotalExpenses sums the amounts of all expenses.
func TotalExpenses(expenses []Expense) money.Amount {
	var total money.Amount
	for _, e := range expenses {
		total += e.Amount
	}
	return total
}

// MemberExpenses sums the expenses paid by one member.
func MemberExpenses(expenses []Expense, memberID string) money.Amount {
	var total money.Amount
	for _, e := range expenses {
		if e.PaidBy == memberID {
			total += e.Amount
		}
	}
	return total
}
