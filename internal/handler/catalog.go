package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mmeshcher/inventory-orders/internal/model"
)

// CreateProduct добавляет товар в каталог.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	created, err := h.service.CreateProduct(r.Context(), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, created)
}

// UpdateProduct изменяет товар каталога.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	p, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}
	p.ID = id

	if err := h.service.UpdateProduct(r.Context(), p); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, p)
}

// DeleteProduct удаляет товар из каталога.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateSupplier добавляет поставщика.
func (h *Handler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	s, ok := h.decodeSupplier(w, r)
	if !ok {
		return
	}

	created, err := h.service.CreateSupplier(r.Context(), s)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, created)
}

// UpdateSupplier изменяет поставщика.
func (h *Handler) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	s, ok := h.decodeSupplier(w, r)
	if !ok {
		return
	}
	s.ID = id

	if err := h.service.UpdateSupplier(r.Context(), s); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, s)
}

// DeleteSupplier удаляет поставщика.
func (h *Handler) DeleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteSupplier(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeProduct(w http.ResponseWriter, r *http.Request) (model.Product, bool) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return model.Product{}, false
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return model.Product{}, false
	}
	if req.Price.IsNegative() {
		http.Error(w, "price must not be negative", http.StatusUnprocessableEntity)
		return model.Product{}, false
	}

	return req.toModel(), true
}

func (h *Handler) decodeSupplier(w http.ResponseWriter, r *http.Request) (model.Supplier, bool) {
	var req supplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return model.Supplier{}, false
	}

	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return model.Supplier{}, false
	}

	return req.toModel(), true
}
