package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/inventory-orders/internal/middleware"
	"github.com/mmeshcher/inventory-orders/internal/model"
	"github.com/mmeshcher/inventory-orders/internal/receipt"
)

// ListBankAccounts возвращает счета текущей сессии.
func (h *Handler) ListBankAccounts(w http.ResponseWriter, r *http.Request) {
	owner, _ := middleware.GetRequesterFromContext(r.Context())

	accounts, err := h.service.ListBankAccounts(r.Context(), owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]bankAccountResponse, 0, len(accounts))
	for _, a := range accounts {
		resp = append(resp, newBankAccountResponse(a))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// CreateBankAccount добавляет счёт текущей сессии.
func (h *Handler) CreateBankAccount(w http.ResponseWriter, r *http.Request) {
	a, ok := h.decodeBankAccount(w, r)
	if !ok {
		return
	}

	created, err := h.service.CreateBankAccount(r.Context(), a)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, newBankAccountResponse(created))
}

// UpdateBankAccount изменяет счёт текущей сессии.
func (h *Handler) UpdateBankAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	a, ok := h.decodeBankAccount(w, r)
	if !ok {
		return
	}
	a.ID = id

	if err := h.service.UpdateBankAccount(r.Context(), a); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newBankAccountResponse(a))
}

// DeleteBankAccount удаляет счёт текущей сессии.
func (h *Handler) DeleteBankAccount(w http.ResponseWriter, r *http.Request) {
	owner, _ := middleware.GetRequesterFromContext(r.Context())

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteBankAccount(r.Context(), owner, id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PaySupplier оплачивает принятый заказ со счёта текущей сессии.
// Без тела запроса или с accountId 0 используется первый счёт.
func (h *Handler) PaySupplier(w http.ResponseWriter, r *http.Request) {
	owner, _ := middleware.GetRequesterFromContext(r.Context())

	number, ok := pathID(w, r, "number")
	if !ok {
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	payment, err := h.service.PaySupplier(r.Context(), owner, number, req.AccountID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newPaymentResponse(payment))
}

// ListPayments возвращает оплаты текущей сессии.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	owner, _ := middleware.GetRequesterFromContext(r.Context())

	payments, err := h.service.ListPayments(r.Context(), owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if len(payments) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, newPaymentResponse(p))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// OrderReceipt отдаёт квитанцию размещённого заказа в JSON или, с format=png, как QR-код.
func (h *Handler) OrderReceipt(w http.ResponseWriter, r *http.Request) {
	number, ok := pathID(w, r, "number")
	if !ok {
		return
	}

	contentType, size := "application/json", 0
	if r.URL.Query().Get("format") == "png" {
		contentType, size = "image/png", receipt.DefaultQRSize
	}

	data, err := h.service.OrderReceipt(r.Context(), number, size)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("write receipt error", zap.Error(err))
	}
}

func (h *Handler) decodeBankAccount(w http.ResponseWriter, r *http.Request) (model.BankAccount, bool) {
	owner, _ := middleware.GetRequesterFromContext(r.Context())

	var req bankAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return model.BankAccount{}, false
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return model.BankAccount{}, false
	}
	if req.BackupAmount.IsNegative() {
		http.Error(w, "backup amount must not be negative", http.StatusUnprocessableEntity)
		return model.BankAccount{}, false
	}

	return model.BankAccount{
		Owner:         owner,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		BackupAmount:  req.BackupAmount,
	}, true
}
