package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/pkg/money"
)

// CalculateBalances reduces a member roster and expense ledger to one net
// balance per member, in member-list order.
//
// Algorithm:
// - Every member starts at zero
// - For each expense: payer is credited the full amount, each split member
//   is debited their resolved share
// - Totals are kept exact and rounded to the minor unit once at the end
//
// Ids that are not in the member list are skipped; ValidateExpense rejects
// such expenses before they reach the ledger.
func CalculateBalances(members []Member, expenses []Expense, currency string) []Balance {
	totals := make(map[string]decimal.Decimal, len(members))
	for _, m := range members {
		totals[m.ID] = decimal.Zero
	}

	for _, expense := range expenses {
		if total, ok := totals[expense.PaidBy]; ok {
			totals[expense.PaidBy] = total.Add(expense.Amount.Decimal())
		}

		for _, share := range ResolveShares(expense) {
			if total, ok := totals[share.MemberID]; ok {
				totals[share.MemberID] = total.Sub(share.Amount)
			}
		}
	}

	balances := make([]Balance, len(members))
	for i, m := range members {
		balances[i] = Balance{
			MemberID:   m.ID,
			MemberName: m.Name,
			Balance:    money.FromDecimal(totals[m.ID]),
			Currency:   currency,
		}
	}
	return balances
}

// CalculateGroupBalances computes balances across expenses and recorded
// settlements. A payment counts as an expense paid by From and owed
// entirely by To: the payer's balance improves, the receiver's decreases.
func CalculateGroupBalances(members []Member, expenses []Expense, payments []Payment, currency string) []Balance {
	ledger := make([]Expense, 0, len(expenses)+len(payments))
	ledger = append(ledger, expenses...)
	for _, p := range payments {
		ledger = append(ledger, Expense{
			Amount:       p.Amount,
			PaidBy:       p.From,
			SplitBetween: []Split{{MemberID: p.To}},
		})
	}
	return CalculateBalances(members, ledger, currency)
}
