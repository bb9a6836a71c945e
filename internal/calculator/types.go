package calculator

import "github.com/mmynk/settleup/pkg/money"

// Member is a group member as seen by the calculator.
type Member struct {
	ID   string
	Name string
}

// Split assigns part of an expense to one member.
// A nil Amount means the member takes an equal share.
type Split struct {
	MemberID string
	Amount   *money.Amount
}

// Expense represents an expense with the minimal information needed for balance calculations.
type Expense struct {
	ID           string
	Amount       money.Amount
	PaidBy       string
	SplitBetween []Split
}

// Payment is a recorded settlement between two members.
type Payment struct {
	From   string // Who paid (debtor settling up)
	To     string // Who received (creditor being paid)
	Amount money.Amount
}

// Balance is one member's net position in a group.
type Balance struct {
	MemberID   string
	MemberName string
	Balance    money.Amount // Positive = owed money, Negative = owes money
	Currency   string
}

// Transaction is one recommended payment from a debtor to a creditor.
type Transaction struct {
	From     string
	To       string
	Amount   money.Amount
	FromName string
	ToName   string
	Currency string
}

// OptimizationStats summarizes a simplified settlement plan.
type OptimizationStats struct {
	TotalTransactions int
	TotalAmount       money.Amount
	MaxTransaction    money.Amount
}
