package service

import (
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/pkg/api"
)

func groupToAPI(g *models.Group) *api.Group {
	members := make([]*api.Member, len(g.Members))
	for i := range g.Members {
		members[i] = memberToAPI(&g.Members[i])
	}
	return &api.Group{
		Id:        g.ID,
		Name:      g.Name,
		Currency:  g.Currency,
		Members:   members,
		CreatedAt: g.CreatedAt,
	}
}

func memberToAPI(m *models.Member) *api.Member {
	return &api.Member{
		Id:       m.ID,
		Name:     m.Name,
		UserId:   m.UserID,
		JoinedAt: m.JoinedAt,
	}
}

func expenseToAPI(e *models.Expense) *api.Expense {
	splits := make([]*api.Split, len(e.SplitBetween))
	for i, s := range e.SplitBetween {
		splits[i] = &api.Split{MemberId: s.MemberID, Amount: s.Amount}
	}
	return &api.Expense{
		Id:           e.ID,
		GroupId:      e.GroupID,
		Description:  e.Description,
		Amount:       e.Amount,
		PaidBy:       e.PaidBy,
		SplitBetween: splits,
		Category:     e.Category,
		Date:         e.Date,
		CreatedBy:    e.CreatedBy,
		CreatedAt:    e.CreatedAt,
	}
}

func settlementToAPI(s *models.Settlement) *api.Settlement {
	return &api.Settlement{
		Id:           s.ID,
		GroupId:      s.GroupID,
		FromMemberId: s.FromMemberID,
		ToMemberId:   s.ToMemberID,
		Amount:       s.Amount,
		SettledAt:    s.SettledAt,
		CreatedBy:    s.CreatedBy,
		Note:         s.Note,
	}
}

// Calculator inputs

func calcMembers(g *models.Group) []calculator.Member {
	members := make([]calculator.Member, len(g.Members))
	for i, m := range g.Members {
		members[i] = calculator.Member{ID: m.ID, Name: m.Name}
	}
	return members
}

func calcExpense(e *models.Expense) calculator.Expense {
	splits := make([]calculator.Split, len(e.SplitBetween))
	for i, s := range e.SplitBetween {
		splits[i] = calculator.Split{MemberID: s.MemberID, Amount: s.Amount}
	}
	return calculator.Expense{
		ID:           e.ID,
		Amount:       e.Amount,
		PaidBy:       e.PaidBy,
		SplitBetween: splits,
	}
}

func calcExpenses(expenses []*models.Expense) []calculator.Expense {
	out := make([]calculator.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = calcExpense(e)
	}
	return out
}

func calcPayments(settlements []*models.Settlement) []calculator.Payment {
	out := make([]calculator.Payment, len(settlements))
	for i, s := range settlements {
		out[i] = calculator.Payment{From: s.FromMemberID, To: s.ToMemberID, Amount: s.Amount}
	}
	return out
}
