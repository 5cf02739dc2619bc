package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mmeshcher/inventory-orders/internal/model"
	"github.com/mmeshcher/inventory-orders/internal/receipt"
	"github.com/mmeshcher/inventory-orders/internal/service"
)

// orderService описывает операции, доступные из командной строки.
type orderService interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	ListSuppliers(ctx context.Context) ([]model.Supplier, error)
	ListOrders(ctx context.Context, requester string) ([]model.Order, error)
	PlaceOrder(ctx context.Context, requester string, supplierID int64, selections service.Selections) (model.Order, error)
	ReceivePayload(ctx context.Context, raw []byte) (model.Order, error)
	OrderReceipt(ctx context.Context, number int64, pngSize int) ([]byte, error)

	ListBankAccounts(ctx context.Context, owner string) ([]model.BankAccount, error)
	CreateBankAccount(ctx context.Context, a model.BankAccount) (model.BankAccount, error)
	PaySupplier(ctx context.Context, owner string, orderNo, accountID int64) (model.Payment, error)
	ListPayments(ctx context.Context, owner string) ([]model.Payment, error)
}

type serviceFactory func(ctx context.Context) (orderService, func() error, error)

const cliRequester = "orderctl"

func newRootCmd(open serviceFactory) *cobra.Command {
	root := &cobra.Command{
		Use:          "orderctl",
		Short:        "Place and reconcile supplier orders from the command line",
		SilenceUsage: true,
	}

	// run открывает сервис, выполняет fn и печатает результат в формате JSON.
	run := func(cmd *cobra.Command, fn func(ctx context.Context, svc orderService) (any, error)) error {
		svc, closeFn, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		res, err := fn(cmd.Context(), svc)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	root.AddCommand(&cobra.Command{
		Use:   "products",
		Short: "List catalog products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, svc orderService) (any, error) {
				return svc.ListProducts(ctx)
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "suppliers",
		Short: "List suppliers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, svc orderService) (any, error) {
				return svc.ListSuppliers(ctx)
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "orders",
		Short: "List all orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, svc orderService) (any, error) {
				return svc.ListOrders(ctx, "")
			})
		},
	})

	var (
		supplierID int64
		items      []string
	)
	place := &cobra.Command{
		Use:     "place",
		Short:   "Place an order with a supplier",
		Example: "orderctl place --supplier 7 --item 1=5 --item 2=3",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			selections, err := parseItems(items)
			if err != nil {
				return err
			}
			return run(cmd, func(ctx context.Context, svc orderService) (any, error) {
				return svc.PlaceOrder(ctx, cliRequester, supplierID, selections)
			})
		},
	}
	place.Flags().Int64Var(&supplierID, "supplier", 0, "supplier id")
	place.Flags().StringArrayVar(&items, "item", nil, "product selection as productId=quantity, repeatable")
	_ = place.MarkFlagRequired("supplier")
	root.AddCommand(place)

	root.AddCommand(&cobra.Command{
		Use:   "receive <payload-file|->",
		Short: "Apply a receipt payload to its order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readPayload(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			return run(cmd, func(ctx context.Context, svc orderService) (any, error) {
				return svc.ReceivePayload(ctx, raw)
			})
		},
	})

	var qrFile string
	receiptCmd := &cobra.Command{
		Use:     "receipt <order-number>",
		Short:   "Print the full-delivery receipt of a placed order",
		Example: "orderctl receipt 3 --qr order-3.png",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			return run(cmd, func(ctx context.Context, svc orderService) (any, error) {
				if qrFile == "" {
					data, err := svc.OrderReceipt(ctx, number, 0)
					return json.RawMessage(data), err
				}

				data, err := svc.OrderReceipt(ctx, number, receipt.DefaultQRSize)
				if err != nil {
					return nil, err
				}
				if err := os.WriteFile(qrFile, data, 0o644); err != nil {
					return nil, fmt.Errorf("write qr code: %w", err)
				}
				return map[string]any{"orderNo": number, "qrFile": qrFile}, nil
			})
		},
	}
	receiptCmd.Flags().StringVar(&qrFile, "qr", "", "write the receipt as a QR code PNG to this file")
	root.AddCommand(receiptCmd)

	accounts := &cobra.Command{
		Use:   "accounts",
		Short: "List bank accounts used to pay suppliers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, svc orderService) (any, error) {
				return svc.ListBankAccounts(ctx, cliRequester)
			})
		},
	}

	var bankName, accountNumber, backupAmount string
	addAccount := &cobra.Command{
		Use:     "add",
		Short:   "Add a bank account",
		Example: "orderctl accounts add --bank \"SBI Bank\" --number 1234567890 --amount 5000",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(backupAmount)
			if err != nil {
				return fmt.Errorf("amount %q: %w", backupAmount, err)
			}
			return run(cmd, func(ctx context.Context, svc orderService) (any, error) {
				return svc.CreateBankAccount(ctx, model.BankAccount{
					Owner:         cliRequester,
					BankName:      bankName,
					AccountNumber: accountNumber,
					BackupAmount:  amount,
				})
			})
		},
	}
	addAccount.Flags().StringVar(&bankName, "bank", "", "bank name")
	addAccount.Flags().StringVar(&accountNumber, "number", "", "account number")
	addAccount.Flags().StringVar(&backupAmount, "amount", "0", "funds available for supplier payments")
	_ = addAccount.MarkFlagRequired("bank")
	_ = addAccount.MarkFlagRequired("number")
	accounts.AddCommand(addAccount)
	root.AddCommand(accounts)

	var accountID int64
	pay := &cobra.Command{
		Use:   "pay <order-number>",
		Short: "Pay the supplier for a received order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			return run(cmd, func(ctx context.Context, svc orderService) (any, error) {
				return svc.PaySupplier(ctx, cliRequester, number, accountID)
			})
		},
	}
	pay.Flags().Int64Var(&accountID, "account", 0, "bank account id, the first account when omitted")
	root.AddCommand(pay)

	root.AddCommand(&cobra.Command{
		Use:   "payments",
		Short: "List supplier payments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, svc orderService) (any, error) {
				return svc.ListPayments(ctx, cliRequester)
			})
		},
	})

	return root
}

func parseNumber(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("order number %q: want a positive integer", s)
	}
	return n, nil
}

// parseItems разбирает значения вида productId=quantity.
func parseItems(items []string) (service.Selections, error) {
	sel := make(service.Selections, len(items))
	for _, it := range items {
		idStr, qtyStr, ok := strings.Cut(it, "=")
		if !ok {
			return nil, fmt.Errorf("item %q: want productId=quantity", it)
		}

		id, err := strconv.ParseInt(strings.TrimSpace(idStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("item %q: product id: %w", it, err)
		}
		qty, err := strconv.ParseInt(strings.TrimSpace(qtyStr), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("item %q: quantity: %w", it, err)
		}

		if _, dup := sel[id]; dup {
			return nil, fmt.Errorf("item %q: product %d listed twice", it, id)
		}
		sel[id] = qty
	}
	return sel, nil
}

func readPayload(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
