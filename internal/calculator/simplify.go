package calculator

import (
	"cmp"
	"slices"

	"github.com/mmynk/settleup/pkg/money"
)

// working is a mutable balance used while simplifying.
type working struct {
	id       string
	name     string
	currency string
	balance  money.Amount
}

// SimplifyDebts computes an ordered list of payments that settles every
// balance, preferring payments that take a member out of the problem
// entirely.
//
// Each round partitions the working balances into creditors (largest first)
// and debtors (most negative first) and picks one payment:
//  1. the first creditor/debtor pair whose transfer fully settles either side
//  2. a debt chain collapsed through an intermediate member
//  3. largest debtor pays largest creditor
//
// Every round zeroes at least one participant, so the loop ends after at
// most len(balances)-1 rounds. Transactions are returned in the order found.
func SimplifyDebts(balances []Balance) []Transaction {
	all, byID := workingSet(balances)
	var transactions []Transaction

	for {
		creditors, debtors := partition(all)
		if len(creditors) == 0 || len(debtors) == 0 {
			break
		}

		tx, ok := findOptimalTransaction(creditors, debtors, all)
		if !ok {
			break
		}
		transactions = append(transactions, tx)

		byID[tx.To].balance -= tx.Amount
		byID[tx.From].balance += tx.Amount
	}

	return transactions
}

// ApplyTransactions returns a copy of balances with every transaction
// applied. Balances that do not sum to zero leave a residue here.
func ApplyTransactions(balances []Balance, transactions []Transaction) []Balance {
	out := make([]Balance, len(balances))
	copy(out, balances)

	index := make(map[string]int, len(out))
	for i, b := range out {
		if _, seen := index[b.MemberID]; !seen {
			index[b.MemberID] = i
		}
	}

	for _, tx := range transactions {
		if i, ok := index[tx.To]; ok {
			out[i].Balance -= tx.Amount
		}
		if i, ok := index[tx.From]; ok {
			out[i].Balance += tx.Amount
		}
	}
	return out
}

// Unsettled returns the balances that are further than one minor unit from zero.
func Unsettled(balances []Balance) []Balance {
	var out []Balance
	for _, b := range balances {
		if !b.Balance.IsSettled() {
			out = append(out, b)
		}
	}
	return out
}

// workingSet copies balances keyed by member id, keeping input order.
// Repeated ids are merged into the first occurrence.
func workingSet(balances []Balance) ([]*working, map[string]*working) {
	all := make([]*working, 0, len(balances))
	byID := make(map[string]*working, len(balances))
	for _, b := range balances {
		if w, ok := byID[b.MemberID]; ok {
			w.balance += b.Balance
			continue
		}
		w := &working{id: b.MemberID, name: b.MemberName, currency: b.Currency, balance: b.Balance}
		byID[b.MemberID] = w
		all = append(all, w)
	}
	return all, byID
}

func partition(all []*working) (creditors, debtors []*working) {
	for _, w := range all {
		switch {
		case w.balance > money.Epsilon:
			creditors = append(creditors, w)
		case w.balance < -money.Epsilon:
			debtors = append(debtors, w)
		}
	}

	slices.SortStableFunc(creditors, func(a, b *working) int { return cmp.Compare(b.balance, a.balance) })
	slices.SortStableFunc(debtors, func(a, b *working) int { return cmp.Compare(a.balance, b.balance) })
	return creditors, debtors
}

func findOptimalTransaction(creditors, debtors, all []*working) (Transaction, bool) {
	if len(creditors) == 0 || len(debtors) == 0 {
		return Transaction{}, false
	}

	if tx, ok := findSettlingPair(creditors, debtors); ok {
		return tx, true
	}
	if tx, ok := findDebtChain(creditors, debtors, all); ok {
		return tx, true
	}
	return largestPair(creditors, debtors)
}

// findSettlingPair scans pairs creditor-major and takes the first transfer
// that leaves either side within epsilon of zero.
func findSettlingPair(creditors, debtors []*working) (Transaction, bool) {
	for _, c := range creditors {
		for _, d := range debtors {
			amount := money.Min(c.balance, d.balance.Abs())
			if amount <= money.Epsilon {
				continue
			}

			settlesCreditor := (c.balance - amount).IsSettled()
			settlesDebtor := (d.balance + amount).IsSettled()
			if settlesCreditor || settlesDebtor {
				return newTransaction(d, c, amount), true
			}
		}
	}
	return Transaction{}, false
}

// findDebtChain looks for a member that is both owed and owing (A owes B,
// B owes C) and routes A's payment straight to C.
func findDebtChain(creditors, debtors, all []*working) (Transaction, bool) {
	isCreditor := make(map[*working]bool, len(creditors))
	for _, c := range creditors {
		isCreditor[c] = true
	}
	isDebtor := make(map[*working]bool, len(debtors))
	for _, d := range debtors {
		isDebtor[d] = true
	}

	for _, intermediate := range all {
		if !isCreditor[intermediate] || !isDebtor[intermediate] {
			continue
		}

		for _, d := range debtors {
			if d.id == intermediate.id {
				continue
			}
			for _, c := range creditors {
				if c.id == intermediate.id {
					continue
				}

				amount := money.Min(d.balance.Abs(), money.Min(intermediate.balance.Abs(), c.balance))
				if amount > money.Epsilon {
					return newTransaction(d, c, amount), true
				}
			}
		}
	}
	return Transaction{}, false
}

func largestPair(creditors, debtors []*working) (Transaction, bool) {
	c, d := creditors[0], debtors[0]
	amount := money.Min(c.balance, d.balance.Abs())
	if amount <= money.Epsilon {
		return Transaction{}, false
	}
	return newTransaction(d, c, amount), true
}

func newTransaction(debtor, creditor *working, amount money.Amount) Transaction {
	return Transaction{
		From:     debtor.id,
		To:       creditor.id,
		Amount:   amount,
		FromName: debtor.name,
		ToName:   creditor.name,
		Currency: debtor.currency,
	}
}
