package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/inventory-orders/internal/model"
)

// CreateOrder сохраняет заказ вместе с позициями в одной транзакции.
func (r *PostgresRepository) CreateOrder(ctx context.Context, order model.Order) (model.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO orders (supplier_id, requester, total_amount, status, ordered_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING number`,
		order.SupplierID, order.Requester, order.TotalAmount, string(order.Status), order.OrderedAt,
	).Scan(&order.Number)
	if err != nil {
		return model.Order{}, fmt.Errorf("insert order: %w", err)
	}

	batch := &pgx.Batch{}
	for _, l := range order.Lines {
		batch.Queue(
			`INSERT INTO order_lines (order_number, product_id, quantity_ordered, quantity_received, unit_price)
			 VALUES ($1, $2, $3, $4, $5)`,
			order.Number, l.ProductID, l.QuantityOrdered, l.QuantityReceived, l.UnitPrice,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range order.Lines {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return model.Order{}, fmt.Errorf("insert order line: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return model.Order{}, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Order{}, fmt.Errorf("commit tx: %w", err)
	}

	return order, nil
}

// GetOrder возвращает заказ с позициями.
func (r *PostgresRepository) GetOrder(ctx context.Context, number int64) (model.Order, error) {
	var order model.Order

	err := r.withRetry(ctx, func() error {
		var err error
		order, err = loadOrder(ctx, r.pool, number)
		return err
	})

	return order, err
}

// ListOrders возвращает заказы сессии requester от новых к старым; пустой requester означает все заказы.
func (r *PostgresRepository) ListOrders(ctx context.Context, requester string) ([]model.Order, error) {
	var orders []model.Order

	err := r.withRetry(ctx, func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT number, supplier_id, requester, total_amount, status, ordered_at
			 FROM orders
			 WHERE $1 = '' OR requester = $1
			 ORDER BY ordered_at DESC, number DESC`,
			requester,
		)
		if err != nil {
			return fmt.Errorf("select orders: %w", err)
		}

		orders, err = pgx.CollectRows(rows, scanOrder)
		if err != nil {
			return fmt.Errorf("scan orders: %w", err)
		}

		if len(orders) == 0 {
			return nil
		}

		byNumber := make(map[int64]*model.Order, len(orders))
		numbers := make([]int64, 0, len(orders))
		for i := range orders {
			byNumber[orders[i].Number] = &orders[i]
			numbers = append(numbers, orders[i].Number)
		}

		lineRows, err := r.pool.Query(ctx,
			`SELECT order_number, product_id, quantity_ordered, quantity_received, unit_price
			 FROM order_lines
			 WHERE order_number = ANY($1)
			 ORDER BY order_number, product_id`,
			numbers,
		)
		if err != nil {
			return fmt.Errorf("select order lines: %w", err)
		}
		defer lineRows.Close()

		for lineRows.Next() {
			var (
				number int64
				l      model.OrderLine
			)
			if err := lineRows.Scan(&number, &l.ProductID, &l.QuantityOrdered, &l.QuantityReceived, &l.UnitPrice); err != nil {
				return fmt.Errorf("scan order line: %w", err)
			}
			if o, ok := byNumber[number]; ok {
				o.Lines = append(o.Lines, l)
			}
		}

		if err := lineRows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}
		return nil
	})

	return orders, err
}

// ApplyReceipt записывает полученные количества и переводит заказ в RECEIVED под блокировкой строки заказа.
// Если хотя бы одна позиция не найдена, транзакция откатывается целиком.
func (r *PostgresRepository) ApplyReceipt(ctx context.Context, number int64, lines []model.ReceivedLine) (model.Order, error) {
	var updated model.Order

	err := r.withRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback(ctx)

		// Блокируем строку заказа, чтобы параллельные квитанции применялись по очереди.
		var status string
		err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE number = $1 FOR UPDATE`, number).Scan(&status)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %d", model.ErrOrderNotFound, number)
			}
			return fmt.Errorf("lock order for update: %w", err)
		}

		if model.OrderStatus(status) == model.OrderStatusReceived {
			return fmt.Errorf("%w: %d", model.ErrAlreadyReceived, number)
		}

		for _, l := range lines {
			tag, err := tx.Exec(ctx,
				`UPDATE order_lines SET quantity_received = $3
				 WHERE order_number = $1 AND product_id = $2`,
				number, l.ProductID, l.QuantityReceived,
			)
			if err != nil {
				return fmt.Errorf("update order line: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%w: product %d is not in order %d", model.ErrLineMismatch, l.ProductID, number)
			}
		}

		_, err = tx.Exec(ctx,
			`UPDATE orders SET status = $2 WHERE number = $1`,
			number, string(model.OrderStatusReceived),
		)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}

		updated, err = loadOrder(ctx, tx, number)
		if err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit tx: %w", err)
		}
		return nil
	})

	return updated, err
}

func loadOrder(ctx context.Context, q querier, number int64) (model.Order, error) {
	rows, err := q.Query(ctx,
		`SELECT number, supplier_id, requester, total_amount, status, ordered_at
		 FROM orders WHERE number = $1`,
		number,
	)
	if err != nil {
		return model.Order{}, fmt.Errorf("select order: %w", err)
	}

	order, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Order{}, fmt.Errorf("%w: %d", model.ErrOrderNotFound, number)
		}
		return model.Order{}, fmt.Errorf("scan order: %w", err)
	}

	lineRows, err := q.Query(ctx,
		`SELECT product_id, quantity_ordered, quantity_received, unit_price
		 FROM order_lines
		 WHERE order_number = $1
		 ORDER BY product_id`,
		number,
	)
	if err != nil {
		return model.Order{}, fmt.Errorf("select order lines: %w", err)
	}

	order.Lines, err = pgx.CollectRows(lineRows, func(row pgx.CollectableRow) (model.OrderLine, error) {
		var l model.OrderLine
		err := row.Scan(&l.ProductID, &l.QuantityOrdered, &l.QuantityReceived, &l.UnitPrice)
		return l, err
	})
	if err != nil {
		return model.Order{}, fmt.Errorf("scan order lines: %w", err)
	}

	return order, nil
}

func scanOrder(row pgx.CollectableRow) (model.Order, error) {
	var (
		o      model.Order
		status string
	)
	err := row.Scan(&o.Number, &o.SupplierID, &o.Requester, &o.TotalAmount, &status, &o.OrderedAt)
	o.Status = model.OrderStatus(status)
	return o, err
}
