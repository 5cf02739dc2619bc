package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/inventory-orders/internal/model"
)

// FetchProducts возвращает неудалённые товары каталога.
func (r *PostgresRepository) FetchProducts(ctx context.Context) ([]model.Product, error) {
	var res []model.Product

	err := r.withRetry(ctx, func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, name, price, quantity
			 FROM products
			 WHERE deleted_at IS NULL
			 ORDER BY id`,
		)
		if err != nil {
			return fmt.Errorf("select products: %w", err)
		}

		res, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Product, error) {
			var p model.Product
			err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity)
			return p, err
		})
		if err != nil {
			return fmt.Errorf("scan products: %w", err)
		}
		return nil
	})

	return res, err
}

// FetchSuppliers возвращает неудалённых поставщиков.
func (r *PostgresRepository) FetchSuppliers(ctx context.Context) ([]model.Supplier, error) {
	var res []model.Supplier

	err := r.withRetry(ctx, func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, name, contact_number, bank_name, account_number, sort_code
			 FROM suppliers
			 WHERE deleted_at IS NULL
			 ORDER BY id`,
		)
		if err != nil {
			return fmt.Errorf("select suppliers: %w", err)
		}

		res, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Supplier, error) {
			var s model.Supplier
			err := row.Scan(&s.ID, &s.Name, &s.ContactNumber, &s.Bank.BankName, &s.Bank.AccountNumber, &s.Bank.SortCode)
			return s, err
		})
		if err != nil {
			return fmt.Errorf("scan suppliers: %w", err)
		}
		return nil
	})

	return res, err
}

// CreateProduct добавляет товар и возвращает его с присвоенным идентификатором.
func (r *PostgresRepository) CreateProduct(ctx context.Context, p model.Product) (model.Product, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (name, price, quantity) VALUES ($1, $2, $3) RETURNING id`,
		p.Name, p.Price, p.Quantity,
	).Scan(&p.ID)
	if err != nil {
		return model.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

// UpdateProduct изменяет товар.
func (r *PostgresRepository) UpdateProduct(ctx context.Context, p model.Product) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET name = $2, price = $3, quantity = $4
		 WHERE id = $1 AND deleted_at IS NULL`,
		p.ID, p.Name, p.Price, p.Quantity,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", model.ErrProductNotFound, p.ID)
	}
	return nil
}

// DeleteProduct помечает товар удалённым. Позиции размещённых заказов сохраняются.
func (r *PostgresRepository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", model.ErrProductNotFound, id)
	}
	return nil
}

// CreateSupplier добавляет поставщика и возвращает его с присвоенным идентификатором.
func (r *PostgresRepository) CreateSupplier(ctx context.Context, s model.Supplier) (model.Supplier, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO suppliers (name, contact_number, bank_name, account_number, sort_code)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		s.Name, s.ContactNumber, s.Bank.BankName, s.Bank.AccountNumber, s.Bank.SortCode,
	).Scan(&s.ID)
	if err != nil {
		return model.Supplier{}, fmt.Errorf("insert supplier: %w", err)
	}
	return s, nil
}

// UpdateSupplier изменяет поставщика.
func (r *PostgresRepository) UpdateSupplier(ctx context.Context, s model.Supplier) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE suppliers
		 SET name = $2, contact_number = $3, bank_name = $4, account_number = $5, sort_code = $6
		 WHERE id = $1 AND deleted_at IS NULL`,
		s.ID, s.Name, s.ContactNumber, s.Bank.BankName, s.Bank.AccountNumber, s.Bank.SortCode,
	)
	if err != nil {
		return fmt.Errorf("update supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", model.ErrSupplierNotFound, s.ID)
	}
	return nil
}

// DeleteSupplier помечает поставщика удалённым.
func (r *PostgresRepository) DeleteSupplier(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE suppliers SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("delete supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", model.ErrSupplierNotFound, id)
	}
	return nil
}
