package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/money"
)

// newTestStore connects to the database named by SETTLEUP_TEST_POSTGRES_URL
// and skips the test when it is unset.
func newTestStore(t *testing.T) *PostgresStore {
	t.Helper()

	url := os.Getenv("SETTLEUP_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("SETTLEUP_TEST_POSTGRES_URL not set")
	}

	store, err := New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPostgresStore_Ledger(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := &models.Group{
		Name:     "Trip",
		Currency: "USD",
		Members:  []models.Member{{Name: "Alice"}, {Name: "Bob"}},
	}
	require.NoError(t, store.CreateGroup(ctx, group))

	carol := &models.Member{GroupID: group.ID, Name: "Carol"}
	require.NoError(t, store.AddMember(ctx, carol))

	got, err := store.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, got.Members, 3)
	assert.Equal(t, "Carol", got.Members[2].Name)

	alice, bob := group.Members[0].ID, group.Members[1].ID
	custom := money.MustParse("4.00")
	expense := &models.Expense{
		GroupID:      group.ID,
		Description:  "Dinner",
		Amount:       money.MustParse("30"),
		PaidBy:       alice,
		SplitBetween: []models.Split{{MemberID: alice}, {MemberID: bob}, {MemberID: carol.ID, Amount: &custom}},
	}
	require.NoError(t, store.CreateExpense(ctx, expense))

	list, err := store.ListExpensesByGroup(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].SplitBetween, 3)
	assert.Nil(t, list[0].SplitBetween[0].Amount)
	require.NotNil(t, list[0].SplitBetween[2].Amount)
	assert.Equal(t, custom, *list[0].SplitBetween[2].Amount)

	settlement := &models.Settlement{GroupID: group.ID, FromMemberID: bob, ToMemberID: alice, Amount: 1300}
	require.NoError(t, store.CreateSettlement(ctx, settlement))

	settlements, err := store.ListSettlementsByGroup(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, settlements, 1)
	assert.Equal(t, money.Amount(1300), settlements[0].Amount)

	require.NoError(t, store.DeleteExpense(ctx, expense.ID))
	_, err = store.GetExpense(ctx, expense.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, store.DeleteExpense(ctx, expense.ID), storage.ErrNotFound)

	_, err = store.GetGroup(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
