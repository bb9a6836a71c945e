package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/api"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
	"github.com/mmynk/settleup/pkg/money"
)

// LedgerService implements the Connect LedgerService: expenses, settlements
// and the balances derived from them.
type LedgerService struct {
	apiconnect.UnimplementedLedgerServiceHandler
	store     storage.Store
	formatter *calculator.Formatter
	metrics   *metrics.Metrics
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(store storage.Store, formatter *calculator.Formatter, m *metrics.Metrics) *LedgerService {
	return &LedgerService{store: store, formatter: formatter, metrics: m}
}

// AddExpense validates and records an expense.
func (s *LedgerService) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	slog.Info("AddExpense request received",
		"group_id", req.Msg.GroupId,
		"amount", req.Msg.Amount,
		"splits_count", len(req.Msg.SplitBetween),
	)

	description := strings.TrimSpace(req.Msg.Description)
	if req.Msg.GroupId == "" || description == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("group_id and description required"))
	}
	if !models.IsCategory(req.Msg.Category) {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown category %q", req.Msg.Category))
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupId)
	if err != nil {
		slog.Error("AddExpense failed - group not found", "group_id", req.Msg.GroupId, "error", err)
		return nil, toConnectError(err)
	}

	splits := make([]models.Split, len(req.Msg.SplitBetween))
	for i, split := range req.Msg.SplitBetween {
		if split == nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("split entry must not be null"))
		}
		splits[i] = models.Split{MemberID: split.MemberId, Amount: split.Amount}
	}

	expense := &models.Expense{
		GroupID:      group.ID,
		Description:  description,
		Amount:       req.Msg.Amount,
		PaidBy:       req.Msg.PaidBy,
		SplitBetween: splits,
		Category:     req.Msg.Category,
		Date:         req.Msg.Date,
		CreatedBy:    middleware.GetUserID(ctx),
	}

	// Reject what the balance calculator would otherwise silently drop
	if err := calculator.ValidateExpense(calcMembers(group), calcExpense(expense)); err != nil {
		slog.Warn("AddExpense rejected", "group_id", group.ID, "error", err)
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		slog.Error("AddExpense failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Expense added", "group_id", group.ID, "expense_id", expense.ID)

	return connect.NewResponse(&api.AddExpenseResponse{Expense: expenseToAPI(expense)}), nil
}

// ListExpenses returns a group's expenses, newest first.
func (s *LedgerService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	slog.Info("ListExpenses request received", "group_id", req.Msg.GroupId)

	if _, err := s.requireGroup(ctx, req.Msg.GroupId); err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, req.Msg.GroupId)
	if err != nil {
		slog.Error("ListExpenses failed", "group_id", req.Msg.GroupId, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = expenseToAPI(e)
	}

	slog.Info("ListExpenses successful", "group_id", req.Msg.GroupId, "count", len(out))

	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// DeleteExpense removes an expense.
func (s *LedgerService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	slog.Info("DeleteExpense request received", "expense_id", req.Msg.ExpenseId)

	if req.Msg.ExpenseId == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("expense_id required"))
	}

	if err := s.store.DeleteExpense(ctx, req.Msg.ExpenseId); err != nil {
		slog.Error("DeleteExpense failed", "expense_id", req.Msg.ExpenseId, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Expense deleted", "expense_id", req.Msg.ExpenseId)

	return connect.NewResponse(&api.DeleteExpenseResponse{}), nil
}

// GetBalances derives every member's balance from the ledger and suggests
// the payments that settle the group.
func (s *LedgerService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	groupID := req.Msg.GroupId
	slog.Info("GetBalances request received", "group_id", groupID)

	group, err := s.requireGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		slog.Error("GetBalances failed - could not list expenses", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}

	settlements, err := s.store.ListSettlementsByGroup(ctx, groupID)
	if err != nil {
		slog.Error("GetBalances failed - could not list settlements", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}

	calcExp := calcExpenses(expenses)
	balances := calculator.CalculateGroupBalances(calcMembers(group), calcExp, calcPayments(settlements), group.Currency)
	transactions := calculator.SimplifyDebts(balances)
	stats := calculator.StatsFor(transactions)
	residue := calculator.Unsettled(calculator.ApplyTransactions(balances, transactions))

	s.metrics.ObservePlan(len(transactions), len(residue))
	if len(residue) > 0 {
		slog.Warn("Balances left unsettled after simplification",
			"group_id", groupID,
			"residue_count", len(residue),
		)
	}

	pbBalances := make([]*api.Balance, len(balances))
	for i, b := range balances {
		pbBalances[i] = balanceToAPI(b)
		pbBalances[i].TotalPaid = calculator.MemberExpenses(calcExp, b.MemberID)
	}

	pbTransactions := make([]*api.Transaction, len(transactions))
	for i, tx := range transactions {
		pbTransactions[i] = &api.Transaction{
			From:        tx.From,
			To:          tx.To,
			FromName:    tx.FromName,
			ToName:      tx.ToName,
			Amount:      tx.Amount,
			Currency:    tx.Currency,
			Description: s.formatter.FormatTransactionDescription(tx),
		}
	}

	var pbResidue []*api.Balance
	for _, b := range residue {
		pbResidue = append(pbResidue, balanceToAPI(b))
	}

	slog.Info("GetBalances successful",
		"group_id", groupID,
		"expenses_count", len(expenses),
		"settlements_count", len(settlements),
		"transactions_count", stats.TotalTransactions,
	)

	return connect.NewResponse(&api.GetBalancesResponse{
		Balances:     pbBalances,
		Transactions: pbTransactions,
		Stats: &api.OptimizationStats{
			TotalTransactions: stats.TotalTransactions,
			TotalAmount:       stats.TotalAmount,
			MaxTransaction:    stats.MaxTransaction,
		},
		TotalSpent: calculator.TotalExpenses(calcExp),
		Residue:    pbResidue,
	}), nil
}

// RecordSettlement records a payment between two members of a group.
func (s *LedgerService) RecordSettlement(ctx context.Context, req *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error) {
	msg := req.Msg
	slog.Info("RecordSettlement request received",
		"group_id", msg.GroupId,
		"from", msg.FromMemberId,
		"to", msg.ToMemberId,
		"amount", msg.Amount,
	)

	if msg.Amount <= 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("amount must be positive"))
	}
	if !msg.Amount.InRange() {
		return nil, connect.NewError(connect.CodeInvalidArgument, money.ErrOutOfRange)
	}
	if msg.FromMemberId == msg.ToMemberId {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("cannot settle with yourself"))
	}

	group, err := s.requireGroup(ctx, msg.GroupId)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(msg.FromMemberId) || !group.HasMember(msg.ToMemberId) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("both members must belong to the group"))
	}

	settlement := &models.Settlement{
		GroupID:      group.ID,
		FromMemberID: msg.FromMemberId,
		ToMemberID:   msg.ToMemberId,
		Amount:       msg.Amount,
		CreatedBy:    middleware.GetUserID(ctx),
		Note:         strings.TrimSpace(msg.Note),
	}

	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		slog.Error("RecordSettlement failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.metrics.ObserveSettlement(group.Currency, settlement.Amount.Float64())

	slog.Info("Settlement recorded", "group_id", group.ID, "settlement_id", settlement.ID)

	return connect.NewResponse(&api.RecordSettlementResponse{Settlement: settlementToAPI(settlement)}), nil
}

// ListSettlements returns a group's recorded settlements, newest first.
func (s *LedgerService) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	slog.Info("ListSettlements request received", "group_id", req.Msg.GroupId)

	if _, err := s.requireGroup(ctx, req.Msg.GroupId); err != nil {
		return nil, err
	}

	settlements, err := s.store.ListSettlementsByGroup(ctx, req.Msg.GroupId)
	if err != nil {
		slog.Error("ListSettlements failed", "group_id", req.Msg.GroupId, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = settlementToAPI(st)
	}

	return connect.NewResponse(&api.ListSettlementsResponse{Settlements: out}), nil
}

// requireGroup loads a group, mapping a missing ID or group to Connect errors.
func (s *LedgerService) requireGroup(ctx context.Context, groupID string) (*models.Group, error) {
	if groupID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("group_id required"))
	}
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		slog.Error("Group lookup failed", "group_id", groupID, "error", err)
		return nil, toConnectError(err)
	}
	return group, nil
}

func balanceToAPI(b calculator.Balance) *api.Balance {
	return &api.Balance{
		MemberId:   b.MemberID,
		MemberName: b.MemberName,
		Balance:    b.Balance,
		Currency:   b.Currency,
	}
}
