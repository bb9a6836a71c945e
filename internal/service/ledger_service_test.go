package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/pkg/api"
	"github.com/mmynk/settleup/pkg/money"
)

func amountPtr(s string) *money.Amount {
	a := money.MustParse(s)
	return &a
}

func equalSplit(ids ...string) []*api.Split {
	splits := make([]*api.Split, len(ids))
	for i, id := range ids {
		splits[i] = &api.Split{MemberId: id}
	}
	return splits
}

func addExpense(t *testing.T, c testClients, req *api.AddExpenseRequest) *api.Expense {
	t.Helper()

	resp, err := c.ledger.AddExpense(context.Background(), connect.NewRequest(req))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	return resp.Msg.Expense
}

func TestAddExpense(t *testing.T) {
	c := setupTestServer(t)
	group, ids := createGroup(t, c, "", "Alice", "Bob", "Charlie")

	expense := addExpense(t, c, &api.AddExpenseRequest{
		GroupId:     group.Id,
		Description: "Groceries",
		Amount:      money.MustParse("45.50"),
		PaidBy:      ids["Alice"],
		SplitBetween: []*api.Split{
			{MemberId: ids["Alice"], Amount: amountPtr("15")},
			{MemberId: ids["Bob"], Amount: amountPtr("15")},
			{MemberId: ids["Charlie"], Amount: amountPtr("15.50")},
		},
		Category: "food",
	})

	if expense.Id == "" {
		t.Error("expected expense ID")
	}
	if expense.CreatedBy != testUserID {
		t.Errorf("CreatedBy = %q, want %q", expense.CreatedBy, testUserID)
	}
	if expense.Date == 0 {
		t.Error("expected Date to default to creation time")
	}

	listResp, err := c.ledger.ListExpenses(context.Background(), connect.NewRequest(&api.ListExpensesRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(listResp.Msg.Expenses) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(listResp.Msg.Expenses))
	}
	got := listResp.Msg.Expenses[0]
	if got.Amount != money.MustParse("45.50") || len(got.SplitBetween) != 3 {
		t.Errorf("unexpected expense: %+v", got)
	}
	if got.SplitBetween[2].Amount == nil || *got.SplitBetween[2].Amount != money.MustParse("15.50") {
		t.Errorf("custom share lost: %+v", got.SplitBetween[2])
	}
}

func TestAddExpense_Invalid(t *testing.T) {
	c := setupTestServer(t)
	group, ids := createGroup(t, c, "", "Alice", "Bob")
	alice, bob := ids["Alice"], ids["Bob"]

	tests := []struct {
		name string
		req  *api.AddExpenseRequest
		want connect.Code
	}{
		{
			name: "missing description",
			req:  &api.AddExpenseRequest{GroupId: group.Id, Amount: 1000, PaidBy: alice, SplitBetween: equalSplit(alice, bob)},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "unknown group",
			req:  &api.AddExpenseRequest{GroupId: "missing", Description: "x", Amount: 1000, PaidBy: alice, SplitBetween: equalSplit(alice)},
			want: connect.CodeNotFound,
		},
		{
			name: "zero amount",
			req:  &api.AddExpenseRequest{GroupId: group.Id, Description: "x", PaidBy: alice, SplitBetween: equalSplit(alice, bob)},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "payer outside group",
			req:  &api.AddExpenseRequest{GroupId: group.Id, Description: "x", Amount: 1000, PaidBy: "stranger", SplitBetween: equalSplit(alice, bob)},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "split member outside group",
			req:  &api.AddExpenseRequest{GroupId: group.Id, Description: "x", Amount: 1000, PaidBy: alice, SplitBetween: equalSplit(alice, "stranger")},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "empty split",
			req:  &api.AddExpenseRequest{GroupId: group.Id, Description: "x", Amount: 1000, PaidBy: alice},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "shares do not add up",
			req: &api.AddExpenseRequest{GroupId: group.Id, Description: "x", Amount: 1000, PaidBy: alice, SplitBetween: []*api.Split{
				{MemberId: alice, Amount: amountPtr("2")},
				{MemberId: bob, Amount: amountPtr("3")},
			}},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "unknown category",
			req:  &api.AddExpenseRequest{GroupId: group.Id, Description: "x", Amount: 1000, PaidBy: alice, SplitBetween: equalSplit(alice, bob), Category: "yachts"},
			want: connect.CodeInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ledger.AddExpense(context.Background(), connect.NewRequest(tt.req))
			assertCode(t, err, tt.want)
		})
	}
}

func TestAddExpense_AmountOutOfRange(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	group, ids := createGroup(t, c, "", "Alice", "Bob")

	_, err := c.ledger.AddExpense(ctx, connect.NewRequest(&api.AddExpenseRequest{
		GroupId:      group.Id,
		Description:  "Island",
		Amount:       money.Max + 1,
		PaidBy:       ids["Alice"],
		SplitBetween: equalSplit(ids["Alice"], ids["Bob"]),
	}))
	assertCode(t, err, connect.CodeInvalidArgument)

	listResp, err := c.ledger.ListExpenses(ctx, connect.NewRequest(&api.ListExpensesRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("ListExpenses failed: %v", err)
	}
	if len(listResp.Msg.Expenses) != 0 {
		t.Errorf("expected nothing stored, got %+v", listResp.Msg.Expenses)
	}
}

func TestDeleteExpense(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	group, ids := createGroup(t, c, "", "Alice", "Bob")

	expense := addExpense(t, c, &api.AddExpenseRequest{
		GroupId:      group.Id,
		Description:  "Taxi",
		Amount:       2000,
		PaidBy:       ids["Bob"],
		SplitBetween: equalSplit(ids["Alice"], ids["Bob"]),
	})

	if _, err := c.ledger.DeleteExpense(ctx, connect.NewRequest(&api.DeleteExpenseRequest{ExpenseId: expense.Id})); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}

	_, err := c.ledger.DeleteExpense(ctx, connect.NewRequest(&api.DeleteExpenseRequest{ExpenseId: expense.Id}))
	assertCode(t, err, connect.CodeNotFound)

	balResp, err := c.ledger.GetBalances(ctx, connect.NewRequest(&api.GetBalancesRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("GetBalances failed: %v", err)
	}
	if len(balResp.Msg.Transactions) != 0 {
		t.Errorf("expected no transactions after delete, got %d", len(balResp.Msg.Transactions))
	}
}

func TestGetBalances(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	group, ids := createGroup(t, c, "", "Alice", "Bob", "Charlie")

	addExpense(t, c, &api.AddExpenseRequest{
		GroupId:      group.Id,
		Description:  "Dinner",
		Amount:       money.MustParse("30"),
		PaidBy:       ids["Alice"],
		SplitBetween: equalSplit(ids["Alice"], ids["Bob"], ids["Charlie"]),
	})

	resp, err := c.ledger.GetBalances(ctx, connect.NewRequest(&api.GetBalancesRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("GetBalances failed: %v", err)
	}
	msg := resp.Msg

	wantBalances := []struct {
		name    string
		balance string
		paid    string
	}{
		{"Alice", "20", "30"},
		{"Bob", "-10", "0"},
		{"Charlie", "-10", "0"},
	}
	if len(msg.Balances) != len(wantBalances) {
		t.Fatalf("expected %d balances, got %d", len(wantBalances), len(msg.Balances))
	}
	for i, want := range wantBalances {
		got := msg.Balances[i]
		if got.MemberName != want.name || got.Balance != money.MustParse(want.balance) || got.TotalPaid != money.MustParse(want.paid) {
			t.Errorf("balance %d = %+v, want %+v", i, got, want)
		}
		if got.Currency != "EUR" {
			t.Errorf("balance %d currency = %q, want EUR", i, got.Currency)
		}
	}

	wantDescriptions := []string{
		"Bob owes €10.00 to Alice",
		"Charlie owes €10.00 to Alice",
	}
	if len(msg.Transactions) != len(wantDescriptions) {
		t.Fatalf("expected %d transactions, got %d", len(wantDescriptions), len(msg.Transactions))
	}
	for i, want := range wantDescriptions {
		if msg.Transactions[i].Description != want {
			t.Errorf("transaction %d = %q, want %q", i, msg.Transactions[i].Description, want)
		}
	}

	if msg.Stats.TotalTransactions != 2 || msg.Stats.TotalAmount != money.MustParse("20") || msg.Stats.MaxTransaction != money.MustParse("10") {
		t.Errorf("unexpected stats: %+v", msg.Stats)
	}
	if msg.TotalSpent != money.MustParse("30") {
		t.Errorf("TotalSpent = %v, want 30.00", msg.TotalSpent)
	}
	if len(msg.Residue) != 0 {
		t.Errorf("expected no residue, got %+v", msg.Residue)
	}
}

func TestGetBalances_EmptyGroup(t *testing.T) {
	c := setupTestServer(t)
	group, _ := createGroup(t, c, "", "Alice", "Bob")

	resp, err := c.ledger.GetBalances(context.Background(), connect.NewRequest(&api.GetBalancesRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("GetBalances failed: %v", err)
	}
	if len(resp.Msg.Balances) != 2 {
		t.Errorf("expected a zero balance per member, got %d", len(resp.Msg.Balances))
	}
	if len(resp.Msg.Transactions) != 0 || resp.Msg.Stats.TotalTransactions != 0 {
		t.Errorf("expected empty plan, got %+v", resp.Msg.Transactions)
	}
}

func TestGetBalances_NotFound(t *testing.T) {
	c := setupTestServer(t)

	_, err := c.ledger.GetBalances(context.Background(), connect.NewRequest(&api.GetBalancesRequest{GroupId: "missing"}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestRecordSettlement(t *testing.T) {
	c := setupTestServer(t)
	ctx := context.Background()
	group, ids := createGroup(t, c, "USD", "Alice", "Bob", "Charlie")

	addExpense(t, c, &api.AddExpenseRequest{
		GroupId:      group.Id,
		Description:  "Cabin",
		Amount:       money.MustParse("30"),
		PaidBy:       ids["Alice"],
		SplitBetween: equalSplit(ids["Alice"], ids["Bob"], ids["Charlie"]),
	})

	settleResp, err := c.ledger.RecordSettlement(ctx, connect.NewRequest(&api.RecordSettlementRequest{
		GroupId:      group.Id,
		FromMemberId: ids["Bob"],
		ToMemberId:   ids["Alice"],
		Amount:       money.MustParse("10"),
		Note:         "venmo",
	}))
	if err != nil {
		t.Fatalf("RecordSettlement failed: %v", err)
	}
	if settleResp.Msg.Settlement.CreatedBy != testUserID {
		t.Errorf("CreatedBy = %q, want %q", settleResp.Msg.Settlement.CreatedBy, testUserID)
	}

	balResp, err := c.ledger.GetBalances(ctx, connect.NewRequest(&api.GetBalancesRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("GetBalances failed: %v", err)
	}
	txs := balResp.Msg.Transactions
	if len(txs) != 1 {
		t.Fatalf("expected 1 remaining transaction, got %d", len(txs))
	}
	if txs[0].Description != "Charlie owes $10.00 to Alice" {
		t.Errorf("unexpected transaction: %q", txs[0].Description)
	}
	if balResp.Msg.Balances[1].Balance != 0 {
		t.Errorf("expected Bob settled, got %v", balResp.Msg.Balances[1].Balance)
	}

	listResp, err := c.ledger.ListSettlements(ctx, connect.NewRequest(&api.ListSettlementsRequest{GroupId: group.Id}))
	if err != nil {
		t.Fatalf("ListSettlements failed: %v", err)
	}
	if len(listResp.Msg.Settlements) != 1 || listResp.Msg.Settlements[0].Note != "venmo" {
		t.Errorf("unexpected settlements: %+v", listResp.Msg.Settlements)
	}
}

func TestRecordSettlement_Invalid(t *testing.T) {
	c := setupTestServer(t)
	group, ids := createGroup(t, c, "", "Alice", "Bob")
	alice, bob := ids["Alice"], ids["Bob"]

	tests := []struct {
		name string
		req  *api.RecordSettlementRequest
		want connect.Code
	}{
		{"zero amount", &api.RecordSettlementRequest{GroupId: group.Id, FromMemberId: bob, ToMemberId: alice}, connect.CodeInvalidArgument},
		{"negative amount", &api.RecordSettlementRequest{GroupId: group.Id, FromMemberId: bob, ToMemberId: alice, Amount: -100}, connect.CodeInvalidArgument},
		{"amount out of range", &api.RecordSettlementRequest{GroupId: group.Id, FromMemberId: bob, ToMemberId: alice, Amount: money.Max + 1}, connect.CodeInvalidArgument},
		{"self payment", &api.RecordSettlementRequest{GroupId: group.Id, FromMemberId: bob, ToMemberId: bob, Amount: 100}, connect.CodeInvalidArgument},
		{"stranger", &api.RecordSettlementRequest{GroupId: group.Id, FromMemberId: "stranger", ToMemberId: alice, Amount: 100}, connect.CodeInvalidArgument},
		{"unknown group", &api.RecordSettlementRequest{GroupId: "missing", FromMemberId: bob, ToMemberId: alice, Amount: 100}, connect.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ledger.RecordSettlement(context.Background(), connect.NewRequest(tt.req))
			assertCode(t, err, tt.want)
		})
	}
}
