// Package api defines the request and response messages of the settleup.v1
// Connect services. Messages are plain structs encoded as JSON by
// apiconnect.Codec; field names follow the protobuf JSON mapping
// (lowerCamelCase).
package api

import "github.com/mmynk/settleup/pkg/money"

// Group is a set of members sharing expenses in one currency.
type Group struct {
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	Members   []*Member `json:"members"`
	CreatedAt int64     `json:"createdAt"`
}

// Member is one participant of a group.
type Member struct {
	Id       string `json:"id"`
	Name     string `json:"name"`
	UserId   string `json:"userId,omitempty"`
	JoinedAt int64  `json:"joinedAt,omitempty"`
}

// Split is one member's part of an expense. A nil Amount is an equal share.
type Split struct {
	MemberId string        `json:"memberId"`
	Amount   *money.Amount `json:"amount,omitempty"`
}

// Expense is an amount paid by one member and shared between members.
type Expense struct {
	Id           string       `json:"id"`
	GroupId      string       `json:"groupId"`
	Description  string       `json:"description"`
	Amount       money.Amount `json:"amount"`
	PaidBy       string       `json:"paidBy"`
	SplitBetween []*Split     `json:"splitBetween"`
	Category     string       `json:"category,omitempty"`
	Date         int64        `json:"date,omitempty"`
	CreatedBy    string       `json:"createdBy,omitempty"`
	CreatedAt    int64        `json:"createdAt"`
}

// Balance is a member's net position. Positive means the member is owed money.
type Balance struct {
	MemberId   string       `json:"memberId"`
	MemberName string       `json:"memberName"`
	Balance    money.Amount `json:"balance"`
	Currency   string       `json:"currency"`
	TotalPaid  money.Amount `json:"totalPaid"`
}

// Transaction is a suggested payment from a debtor to a creditor.
type Transaction struct {
	From        string       `json:"from"`
	To          string       `json:"to"`
	FromName    string       `json:"fromName"`
	ToName      string       `json:"toName"`
	Amount      money.Amount `json:"amount"`
	Currency    string       `json:"currency"`
	Description string       `json:"description"`
}

// OptimizationStats summarizes a suggested settlement plan.
type OptimizationStats struct {
	TotalTransactions int          `json:"totalTransactions"`
	TotalAmount       money.Amount `json:"totalAmount"`
	MaxTransaction    money.Amount `json:"maxTransaction"`
}

// Settlement is a recorded payment between two members.
type Settlement struct {
	Id           string       `json:"id"`
	GroupId      string       `json:"groupId"`
	FromMemberId string       `json:"fromMemberId"`
	ToMemberId   string       `json:"toMemberId"`
	Amount       money.Amount `json:"amount"`
	SettledAt    int64        `json:"settledAt"`
	CreatedBy    string       `json:"createdBy,omitempty"`
	Note         string       `json:"note,omitempty"`
}

type CreateGroupRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency,omitempty"`
	// Members are the display names of the initial roster, in order.
	Members []string `json:"members"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupId string `json:"groupId"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type AddMemberRequest struct {
	GroupId string `json:"groupId"`
	Name    string `json:"name"`
	UserId  string `json:"userId,omitempty"`
}

type AddMemberResponse struct {
	Member *Member `json:"member"`
}

type AddExpenseRequest struct {
	GroupId      string       `json:"groupId"`
	Description  string       `json:"description"`
	Amount       money.Amount `json:"amount"`
	PaidBy       string       `json:"paidBy"`
	SplitBetween []*Split     `json:"splitBetween"`
	Category     string       `json:"category,omitempty"`
	Date         int64        `json:"date,omitempty"`
}

type AddExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ListExpensesRequest struct {
	GroupId string `json:"groupId"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type DeleteExpenseRequest struct {
	ExpenseId string `json:"expenseId"`
}

type DeleteExpenseResponse struct{}

type GetBalancesRequest struct {
	GroupId string `json:"groupId"`
}

type GetBalancesResponse struct {
	Balances     []*Balance         `json:"balances"`
	Transactions []*Transaction     `json:"transactions"`
	Stats        *OptimizationStats `json:"stats"`
	TotalSpent   money.Amount       `json:"totalSpent"`
	// Residue lists balances left unsettled after applying Transactions.
	// It is only non-empty when the ledger does not sum to zero.
	Residue []*Balance `json:"residue,omitempty"`
}

type RecordSettlementRequest struct {
	GroupId      string       `json:"groupId"`
	FromMemberId string       `json:"fromMemberId"`
	ToMemberId   string       `json:"toMemberId"`
	Amount       money.Amount `json:"amount"`
	Note         string       `json:"note,omitempty"`
}

type RecordSettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type ListSettlementsRequest struct {
	GroupId string `json:"groupId"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}
