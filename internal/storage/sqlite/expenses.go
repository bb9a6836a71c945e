package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/money"
)

const expenseColumns = "id, group_id, description, amount_cents, paid_by, category, date, created_by, created_at"

// CreateExpense persists a new expense and its split entries.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if expense.Date == 0 {
		expense.Date = expense.CreatedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		expense.ID, expense.GroupID, expense.Description, expense.Amount.Cents(), expense.PaidBy,
		nullString(expense.Category), expense.Date, nullString(expense.CreatedBy), expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, split := range expense.SplitBetween {
		var amount interface{}
		if split.Amount != nil {
			amount = split.Amount.Cents()
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_splits (expense_id, member_id, position, amount_cents) VALUES (?, ?, ?, ?)",
			expense.ID, split.MemberID, i, amount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID, including its split entries.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := scanExpense(s.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?",
		expenseID,
	))
	if errors.Is(err, sql.ErrNoRows) {
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
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE group_id = ? ORDER BY date DESC, created_at DESC, id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses by group: %w", err)
	}

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	// Splits are loaded after the expense rows are closed so the two
	// queries never hold connections at the same time.
	if err := s.loadSplits(ctx, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// DeleteExpense removes an expense by ID. Split entries cascade.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

// loadSplits fills SplitBetween for each expense, in entry order.
func (s *SQLiteStore) loadSplits(ctx context.Context, expenses []*models.Expense) error {
	for _, expense := range expenses {
		rows, err := s.db.QueryContext(ctx,
			"SELECT member_id, amount_cents FROM expense_splits WHERE expense_id = ? ORDER BY position",
			expense.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to get expense splits: %w", err)
		}

		for rows.Next() {
			var split models.Split
			var cents sql.NullInt64
			if err := rows.Scan(&split.MemberID, &cents); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan expense split: %w", err)
			}
			if cents.Valid {
				amount := money.FromCents(cents.Int64)
				split.Amount = &amount
			}
			expense.SplitBetween = append(expense.SplitBetween, split)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate expense splits: %w", err)
		}
	}
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (*models.Expense, error) {
	var expense models.Expense
	var cents int64
	var category, createdBy sql.NullString

	if err := s.Scan(
		&expense.ID, &expense.GroupID, &expense.Description, &cents, &expense.PaidBy,
		&category, &expense.Date, &createdBy, &expense.CreatedAt,
	); err != nil {
		return nil, err
	}

	expense.Amount = money.FromCents(cents)
	expense.Category = category.String
	expense.CreatedBy = createdBy.String
	return &expense, nil
}
