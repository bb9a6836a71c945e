package calculator

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/mmynk/settleup/pkg/money"
)

func bal(id, amount string) Balance {
	return Balance{MemberID: id, MemberName: "name-" + id, Balance: money.MustParse(amount), Currency: "EUR"}
}

type wantTx struct {
	from, to, amount string
}

func assertTransactions(t *testing.T, got []Transaction, want []wantTx) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d transactions %v, want %d", len(got), got, len(want))
	}
	for i, w := range want {
		if got[i].From != w.from || got[i].To != w.to || got[i].Amount != money.MustParse(w.amount) {
			t.Errorf("transaction %d = %s->%s %s, want %s->%s %s",
				i, got[i].From, got[i].To, got[i].Amount, w.from, w.to, w.amount)
		}
	}
}

func TestSimplifyDebts(t *testing.T) {
	tests := []struct {
		name     string
		balances []Balance
		want     []wantTx
	}{
		{
			name:     "one debtor one creditor",
			balances: []Balance{bal("a", "15"), bal("b", "-15")},
			want:     []wantTx{{"b", "a", "15"}},
		},
		{
			name:     "two debtors one creditor, largest debt first",
			balances: []Balance{bal("a", "40"), bal("b", "-5"), bal("c", "-35")},
			want:     []wantTx{{"c", "a", "35"}, {"b", "a", "5"}},
		},
		{
			name:     "all settled",
			balances: []Balance{bal("a", "0"), bal("b", "0"), bal("c", "0")},
		},
		{
			name:     "chain through a settled member",
			balances: []Balance{bal("a", "-10"), bal("b", "0"), bal("c", "10")},
			want:     []wantTx{{"a", "c", "10"}},
		},
		{
			name:     "equal creditors keep input order",
			balances: []Balance{bal("a", "10"), bal("b", "10"), bal("c", "-20")},
			want:     []wantTx{{"c", "a", "10"}, {"c", "b", "10"}},
		},
		{
			name:     "partial settlement continues with remainder",
			balances: []Balance{bal("a", "10"), bal("b", "10"), bal("c", "-15"), bal("d", "-5")},
			want:     []wantTx{{"c", "a", "10"}, {"c", "b", "5"}, {"d", "b", "5"}},
		},
		{
			name:     "one cent residues are ignored",
			balances: []Balance{bal("a", "0.01"), bal("b", "-0.01")},
		},
		{
			name:     "two cents are settled",
			balances: []Balance{bal("a", "0.02"), bal("b", "-0.02")},
			want:     []wantTx{{"b", "a", "0.02"}},
		},
		{
			name:     "repeated member ids are merged",
			balances: []Balance{bal("a", "5"), bal("b", "-10"), bal("a", "5")},
			want:     []wantTx{{"b", "a", "10"}},
		},
		{
			name:     "no input",
			balances: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertTransactions(t, SimplifyDebts(tt.balances), tt.want)
		})
	}
}

func TestSimplifyDebts_FromLedger(t *testing.T) {
	members := []Member{alice, bob, charlie}
	expenses := []Expense{
		{Amount: money.MustParse("60"), PaidBy: "a", SplitBetween: equalSplit("a", "b", "c")},
		{Amount: money.MustParse("30"), PaidBy: "b", SplitBetween: equalSplit("b", "c")},
	}

	txs := SimplifyDebts(CalculateBalances(members, expenses, "EUR"))
	assertTransactions(t, txs, []wantTx{{"c", "a", "35"}, {"b", "a", "5"}})

	if txs[0].FromName != "Charlie" || txs[0].ToName != "Alice" {
		t.Errorf("names = %s->%s, want Charlie->Alice", txs[0].FromName, txs[0].ToName)
	}
	if txs[0].Currency != "EUR" {
		t.Errorf("currency = %s, want EUR", txs[0].Currency)
	}
}

func TestSimplifyDebts_DoesNotMutateInput(t *testing.T) {
	balances := []Balance{bal("a", "40"), bal("b", "-5"), bal("c", "-35")}
	SimplifyDebts(balances)

	if balances[0].Balance != money.MustParse("40") || balances[2].Balance != money.MustParse("-35") {
		t.Errorf("input balances were modified: %v", balances)
	}
}

func TestSimplifyDebts_Deterministic(t *testing.T) {
	balances := []Balance{bal("a", "12.34"), bal("b", "-7.00"), bal("c", "20"), bal("d", "-25.34")}
	first := SimplifyDebts(balances)
	for i := 0; i < 10; i++ {
		again := SimplifyDebts(balances)
		if fmt.Sprint(again) != fmt.Sprint(first) {
			t.Fatalf("run %d produced %v, want %v", i, again, first)
		}
	}
}

// randomBalances builds n balances that sum to exactly zero. Only the last
// one can fall within epsilon of zero.
func randomBalances(r *rand.Rand, n int) []Balance {
	balances := make([]Balance, n)
	var sum money.Amount
	for i := 0; i < n-1; i++ {
		amount := money.Amount(2 + r.Int63n(19999))
		if r.Intn(2) == 0 {
			amount = -amount
		}
		balances[i] = Balance{MemberID: fmt.Sprintf("m%d", i), MemberName: fmt.Sprintf("Member %d", i), Balance: amount}
		sum += amount
	}
	balances[n-1] = Balance{MemberID: fmt.Sprintf("m%d", n-1), MemberName: "Last", Balance: -sum}
	return balances
}

func TestSimplifyDebts_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		balances := randomBalances(r, 2+r.Intn(12))
		txs := SimplifyDebts(balances)

		var creditors, debtors int
		for _, b := range balances {
			switch {
			case b.Balance > money.Epsilon:
				creditors++
			case b.Balance < -money.Epsilon:
				debtors++
			}
		}

		for _, tx := range txs {
			if tx.From == tx.To {
				t.Fatalf("case %d: self payment %v", i, tx)
			}
			if tx.Amount <= money.Epsilon {
				t.Fatalf("case %d: transaction amount %s not above epsilon", i, tx.Amount)
			}
		}

		if creditors > 0 && debtors > 0 && len(txs) > creditors+debtors-1 {
			t.Fatalf("case %d: %d transactions for %d creditors and %d debtors", i, len(txs), creditors, debtors)
		}

		if left := Unsettled(ApplyTransactions(balances, txs)); len(left) != 0 {
			t.Fatalf("case %d: unsettled after applying plan: %v", i, left)
		}
	}
}

func TestSimplifyDebts_SingleSidedBoundByLargerSide(t *testing.T) {
	balances := []Balance{bal("a", "90"), bal("b", "-10"), bal("c", "-20"), bal("d", "-60")}
	txs := SimplifyDebts(balances)
	if len(txs) > 3 {
		t.Errorf("got %d transactions, want at most 3", len(txs))
	}
}

func TestApplyTransactions_SurfacesResidue(t *testing.T) {
	balances := []Balance{bal("a", "10"), bal("b", "-5")}
	txs := SimplifyDebts(balances)
	assertTransactions(t, txs, []wantTx{{"b", "a", "5"}})

	left := Unsettled(ApplyTransactions(balances, txs))
	if len(left) != 1 || left[0].MemberID != "a" || left[0].Balance != money.MustParse("5") {
		t.Errorf("expected residue of 5 on a, got %v", left)
	}
	if balances[0].Balance != money.MustParse("10") {
		t.Errorf("ApplyTransactions modified its input")
	}
}

func TestFindSettlingPair_FirstMatchWins(t *testing.T) {
	c1 := &working{id: "c1", balance: money.MustParse("30")}
	c2 := &working{id: "c2", balance: money.MustParse("10")}
	d1 := &working{id: "d1", balance: money.MustParse("-25")}
	d2 := &working{id: "d2", balance: money.MustParse("-15")}

	tx, ok := findSettlingPair([]*working{c1, c2}, []*working{d1, d2})
	if !ok {
		t.Fatal("expected a settling pair")
	}
	if tx.From != "d1" || tx.To != "c1" || tx.Amount != money.MustParse("25") {
		t.Errorf("got %s->%s %s, want d1->c1 25", tx.From, tx.To, tx.Amount)
	}
}

func TestFindDebtChain(t *testing.T) {
	a := &working{id: "a", name: "Alice", balance: money.MustParse("-10")}
	b := &working{id: "b", name: "Bob", balance: money.MustParse("-5")}
	c := &working{id: "c", name: "Charlie", balance: money.MustParse("20")}

	t.Run("collapses through intermediate", func(t *testing.T) {
		tx, ok := findDebtChain([]*working{c, b}, []*working{a, b}, []*working{a, b, c})
		if !ok {
			t.Fatal("expected a chain transaction")
		}
		if tx.From != "a" || tx.To != "c" || tx.Amount != money.MustParse("5") {
			t.Errorf("got %s->%s %s, want a->c 5", tx.From, tx.To, tx.Amount)
		}
		if tx.FromName != "Alice" || tx.ToName != "Charlie" {
			t.Errorf("got names %s->%s", tx.FromName, tx.ToName)
		}
	})

	t.Run("no intermediate in disjoint sets", func(t *testing.T) {
		if _, ok := findDebtChain([]*working{c}, []*working{a, b}, []*working{a, b, c}); ok {
			t.Error("expected no chain for disjoint creditors and debtors")
		}
	})
}

func TestLargestPair(t *testing.T) {
	c := &working{id: "c", balance: money.MustParse("20")}
	d := &working{id: "d", balance: money.MustParse("-50")}

	tx, ok := largestPair([]*working{c}, []*working{d})
	if !ok || tx.From != "d" || tx.To != "c" || tx.Amount != money.MustParse("20") {
		t.Errorf("got %v %v, want d->c 20", tx, ok)
	}

	tiny := &working{id: "t", balance: money.Epsilon}
	if _, ok := largestPair([]*working{tiny}, []*working{d}); ok {
		t.Error("expected no transaction at epsilon")
	}
}
