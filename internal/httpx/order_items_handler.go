package httpx

import (
	"encoding/json"
	"net/http"
)

func (h *Handler) addOrderItem(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req struct {
		ProductID int64 `json:"product_id"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.store.AddOrderItem(r.Context(), tenantID(r), orderID, req.ProductID, req.Quantity)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, item)
}

func (h *Handler) listOrderItems(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), tenantID(r), orderID)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, items)
}

func (h *Handler) getOrderItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid order item id")
		return
	}

	item, err := h.store.GetOrderItem(r.Context(), tenantID(r), id)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, item)
}

func (h *Handler) updateOrderItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid order item id")
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.store.UpdateOrderItemQuantity(r.Context(), tenantID(r), id, req.Quantity)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, item)
}

func (h *Handler) deleteOrderItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid order item id")
		return
	}

	if err := h.store.DeleteOrderItem(r.Context(), tenantID(r), id); err != nil {
		h.respondStoreError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
