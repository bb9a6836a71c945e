package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/money"
)

const expenseColumns = `id, group_id, description, amount_cents, paid_by, COALESCE(category, ''), date, COALESCE(created_by, ''), created_at`

// CreateExpense persists a new expense and its split entries.
func (s *PostgresStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if expense.Date == 0 {
		expense.Date = expense.CreatedAt
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO expenses (id, group_id, description, amount_cents, paid_by, category, date, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, NULLIF($8, ''), $9)`,
		expense.ID, expense.GroupID, expense.Description, expense.Amount.Cents(), expense.PaidBy,
		expense.Category, expense.Date, expense.CreatedBy, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	batch := &pgx.Batch{}
	for i, split := range expense.SplitBetween {
		var cents *int64
		if split.Amount != nil {
			c := split.Amount.Cents()
			cents = &c
		}
		batch.Queue(
			`INSERT INTO expense_splits (expense_id, member_id, position, amount_cents) VALUES ($1, $2, $3, $4)`,
			expense.ID, split.MemberID, i, cents,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert expense splits: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID, including its split entries.
func (s *PostgresStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := scanExpense(s.pool.QueryRow(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, expenseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := s.loadSplits(ctx, []*models.Expense{expense}); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpensesByGroup retrieves all expenses of a group, newest first.
func (s *PostgresStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE group_id = $1 ORDER BY date DESC, created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses by group: %w", err)
	}

	expenses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Expense, error) {
		return scanExpense(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan expenses: %w", err)
	}

	if err := s.loadSplits(ctx, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// DeleteExpense removes an expense by ID. Split entries cascade.
func (s *PostgresStore) DeleteExpense(ctx context.Context, expenseID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

// loadSplits fills SplitBetween for all expenses with a single query.
func (s *PostgresStore) loadSplits(ctx context.Context, expenses []*models.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	ids := make([]string, len(expenses))
	byID := make(map[string]*models.Expense, len(expenses))
	for i, e := range expenses {
		ids[i] = e.ID
		byID[e.ID] = e
	}

	rows, err := s.pool.Query(ctx,
		`SELECT expense_id, member_id, amount_cents FROM expense_splits
		 WHERE expense_id = ANY($1) ORDER BY expense_id, position`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("failed to get expense splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID string
		var split models.Split
		var cents *int64
		if err := rows.Scan(&expenseID, &split.MemberID, &cents); err != nil {
			return fmt.Errorf("failed to scan expense split: %w", err)
		}
		if cents != nil {
			amount := money.FromCents(*cents)
			split.Amount = &amount
		}
		e := byID[expenseID]
		e.SplitBetween = append(e.SplitBetween, split)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expense splits: %w", err)
	}
	return nil
}

func scanExpense(row pgx.Row) (*models.Expense, error) {
	var expense models.Expense
	var cents int64
	if err := row.Scan(
		&expense.ID, &expense.GroupID, &expense.Description, &cents, &expense.PaidBy,
		&expense.Category, &expense.Date, &expense.CreatedBy, &expense.CreatedAt,
	); err != nil {
		return nil, err
	}
	expense.Amount = money.FromCents(cents)
	return &expense, nil
}

// CreateSettlement persists a new settlement.
func (s *PostgresStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.SettledAt == 0 {
		settlement.SettledAt = time.Now().Unix()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO settlements (id, group_id, from_member, to_member, amount_cents, settled_at, created_by, note)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''))`,
		settlement.ID, settlement.GroupID, settlement.FromMemberID, settlement.ToMemberID,
		settlement.Amount.Cents(), settlement.SettledAt, settlement.CreatedBy, settlement.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}
	return nil
}

// ListSettlementsByGroup retrieves all settlements for a group, newest first.
func (s *PostgresStore) ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, group_id, from_member, to_member, amount_cents, settled_at,
		       COALESCE(created_by, ''), COALESCE(note, '')
		FROM settlements WHERE group_id = $1 ORDER BY settled_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by group: %w", err)
	}

	settlements, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Settlement, error) {
		st := &models.Settlement{}
		var cents int64
		err := row.Scan(&st.ID, &st.GroupID, &st.FromMemberID, &st.ToMemberID,
			&cents, &st.SettledAt, &st.CreatedBy, &st.Note)
		st.Amount = money.FromCents(cents)
		return st, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan settlements: %w", err)
	}
	return settlements, nil
}
