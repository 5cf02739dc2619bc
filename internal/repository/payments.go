package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/inventory-orders/internal/model"
)

// ListBankAccounts возвращает неудалённые счета владельца.
func (r *PostgresRepository) ListBankAccounts(ctx context.Context, owner string) ([]model.BankAccount, error) {
	var res []model.BankAccount

	err := r.withRetry(ctx, func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, owner, bank_name, account_number, backup_amount
			 FROM bank_accounts
			 WHERE owner = $1 AND deleted_at IS NULL
			 ORDER BY id`,
			owner,
		)
		if err != nil {
			return fmt.Errorf("select bank accounts: %w", err)
		}

		res, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.BankAccount, error) {
			var a model.BankAccount
			err := row.Scan(&a.ID, &a.Owner, &a.BankName, &a.AccountNumber, &a.BackupAmount)
			return a, err
		})
		if err != nil {
			return fmt.Errorf("scan bank accounts: %w", err)
		}
		return nil
	})

	return res, err
}

// CreateBankAccount добавляет счёт и возвращает его с присвоенным идентификатором.
func (r *PostgresRepository) CreateBankAccount(ctx context.Context, a model.BankAccount) (model.BankAccount, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO bank_accounts (owner, bank_name, account_number, backup_amount)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		a.Owner, a.BankName, a.AccountNumber, a.BackupAmount,
	).Scan(&a.ID)
	if err != nil {
		return model.BankAccount{}, fmt.Errorf("insert bank account: %w", err)
	}
	return a, nil
}

// UpdateBankAccount изменяет счёт, если он принадлежит a.Owner.
func (r *PostgresRepository) UpdateBankAccount(ctx context.Context, a model.BankAccount) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE bank_accounts SET bank_name = $3, account_number = $4, backup_amount = $5
		 WHERE id = $1 AND owner = $2 AND deleted_at IS NULL`,
		a.ID, a.Owner, a.BankName, a.AccountNumber, a.BackupAmount,
	)
	if err != nil {
		return fmt.Errorf("update bank account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", model.ErrBankAccountNotFound, a.ID)
	}
	return nil
}

// DeleteBankAccount помечает счёт удалённым. Проведённые оплаты сохраняются.
func (r *PostgresRepository) DeleteBankAccount(ctx context.Context, owner string, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE bank_accounts SET deleted_at = NOW()
		 WHERE id = $1 AND owner = $2 AND deleted_at IS NULL`,
		id, owner,
	)
	if err != nil {
		return fmt.Errorf("delete bank account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", model.ErrBankAccountNotFound, id)
	}
	return nil
}

// PaySupplier списывает сумму принятого заказа со счёта и сохраняет оплату в одной транзакции.
func (r *PostgresRepository) PaySupplier(ctx context.Context, p model.Payment) (model.Payment, error) {
	var paid model.Payment

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		// Блокируем счёт для предотвращения параллельных списаний, превышающих остаток.
		var balance decimal.Decimal
		err = tx.QueryRow(ctx,
			`SELECT backup_amount FROM bank_accounts
			 WHERE id = $1 AND owner = $2 AND deleted_at IS NULL
			 FOR UPDATE`,
			p.AccountID, p.Owner,
		).Scan(&balance)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %d", model.ErrBankAccountNotFound, p.AccountID)
			}
			return fmt.Errorf("lock bank account for update: %w", err)
		}

		var (
			status string
			amount decimal.Decimal
			res    = p
		)
		err = tx.QueryRow(ctx,
			`SELECT supplier_id, total_amount, status FROM orders WHERE number = $1 FOR UPDATE`,
			p.OrderNumber,
		).Scan(&res.SupplierID, &amount, &status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %d", model.ErrOrderNotFound, p.OrderNumber)
			}
			return fmt.Errorf("lock order for update: %w", err)
		}

		if model.OrderStatus(status) != model.OrderStatusReceived {
			return fmt.Errorf("%w: %d", model.ErrOrderNotReceived, p.OrderNumber)
		}

		var paidBefore bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM payments WHERE order_number = $1)`,
			p.OrderNumber,
		).Scan(&paidBefore)
		if err != nil {
			return fmt.Errorf("check payment: %w", err)
		}
		if paidBefore {
			return fmt.Errorf("%w: %d", model.ErrAlreadyPaid, p.OrderNumber)
		}

		if balance.LessThan(amount) {
			return fmt.Errorf("%w: account %d has %s, order %d costs %s",
				model.ErrInsufficientFunds, p.AccountID, balance.StringFixed(2), p.OrderNumber, amount.StringFixed(2))
		}

		err = tx.QueryRow(ctx,
			`UPDATE bank_accounts SET backup_amount = backup_amount - $2 WHERE id = $1 RETURNING backup_amount`,
			p.AccountID, amount,
		).Scan(&res.Balance)
		if err != nil {
			return fmt.Errorf("debit bank account: %w", err)
		}

		res.Amount = amount
		_, err = tx.Exec(ctx,
			`INSERT INTO payments (order_number, account_id, owner, supplier_id, amount, balance_after, paid_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			res.OrderNumber, res.AccountID, res.Owner, res.SupplierID, res.Amount, res.Balance, res.PaidAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				return fmt.Errorf("%w: %d", model.ErrAlreadyPaid, p.OrderNumber)
			}
			return fmt.Errorf("insert payment: %w", err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}

		paid = res
		return nil
	})

	return paid, err
}

// ListPayments возвращает оплаты владельца от новых к старым.
func (r *PostgresRepository) ListPayments(ctx context.Context, owner string) ([]model.Payment, error) {
	var res []model.Payment

	err := r.withRetry(ctx, func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT order_number, supplier_id, account_id, owner, amount, balance_after, paid_at
			 FROM payments
			 WHERE owner = $1
			 ORDER BY paid_at DESC, order_number DESC`,
			owner,
		)
		if err != nil {
			return fmt.Errorf("select payments: %w", err)
		}

		res, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Payment, error) {
			var p model.Payment
			err := row.Scan(&p.OrderNumber, &p.SupplierID, &p.AccountID, &p.Owner, &p.Amount, &p.Balance, &p.PaidAt)
			return p, err
		})
		if err != nil {
			return fmt.Errorf("scan payments: %w", err)
		}
		return nil
	})

	return res, err
}
