package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/giygas/diagnostic-api/entities"
	"github.com/giygas/diagnostic-api/logging"
	"github.com/giygas/diagnostic-api/store"
)

const maxMessageLength = 2000

type createOrderRequest struct {
	Items  []entities.OrderItem `json:"items"`
	Total  *float64             `json:"total,omitempty"`
	Status entities.OrderStatus `json:"status,omitempty"`
}

type updateOrderRequest struct {
	ID     string               `json:"id"`
	Status entities.OrderStatus `json:"status,omitempty"`
}

type createMessageRequest struct {
	Content string `json:"content"`
}

type createBilanRequest struct {
	DiagnosticSessionID string                      `json:"diagnosticSessionId"`
	PathologyID         string                      `json:"pathologyId"`
	ProductKitID        string                      `json:"productKitId"`
	FollowUpDate        *time.Time                  `json:"followUpDate,omitempty"`
	Completed           *bool                       `json:"completed,omitempty"`
	Notes               string                      `json:"notes,omitempty"`
	Results             []entities.DiagnosticResult `json:"results,omitempty"`
}

func (h *HTTPHandlerImpl) storeError(w http.ResponseWriter, action string, err error) {
	logging.Error("Records store failure", "action", action, "error", err)
	h.RespondWithError(w, http.StatusInternalServerError, "Could not "+action)
}

// ListOrders returns the user's orders, newest first
func (h *HTTPHandlerImpl) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	orders, err := h.deps.Records.ListOrders(r.Context(), userID)
	if err != nil {
		h.storeError(w, "list orders", err)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, orders)
}

// CreateOrder places an order. Status defaults to pending and a tracking code is generated.
func (h *HTTPHandlerImpl) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Items) == 0 {
		h.RespondWithError(w, http.StatusBadRequest, "items are required")
		return
	}
	if req.Status != "" && !req.Status.Valid() {
		h.RespondWithError(w, http.StatusBadRequest, "invalid order status")
		return
	}
	for _, item := range req.Items {
		if item.Quantity < 0 {
			h.RespondWithError(w, http.StatusBadRequest, "item quantity cannot be negative")
			return
		}
	}

	order, err := h.deps.Records.CreateOrder(r.Context(), entities.Order{
		UserID: userID,
		Items:  req.Items,
		Total:  req.Total,
		Status: req.Status,
	})
	if err != nil {
		h.storeError(w, "create order", err)
		return
	}

	logging.Info("Order created", "user_id", userID, "order_id", order.ID, "tracking_code", order.TrackingCode)
	h.RespondWithJSON(w, http.StatusCreated, order)
}

// UpdateOrder changes the status of one of the user's orders
func (h *HTTPHandlerImpl) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req updateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		h.RespondWithError(w, http.StatusBadRequest, "order id is required")
		return
	}
	if req.Status != "" && !req.Status.Valid() {
		h.RespondWithError(w, http.StatusBadRequest, "invalid order status")
		return
	}

	order, err := h.deps.Records.UpdateOrderStatus(r.Context(), userID, strings.TrimSpace(req.ID), req.Status)
	if errors.Is(err, store.ErrNotFound) {
		h.RespondWithError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		h.storeError(w, "update order", err)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, order)
}

// ListMessages returns the support conversation, oldest first
func (h *HTTPHandlerImpl) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	messages, err := h.deps.Records.ListMessages(r.Context(), userID)
	if err != nil {
		h.storeError(w, "list messages", err)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, messages)
}

// CreateMessage posts a patient message
func (h *HTTPHandlerImpl) CreateMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req createMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		h.RespondWithError(w, http.StatusBadRequest, "content is required")
		return
	}
	if len(content) > maxMessageLength {
		h.RespondWithError(w, http.StatusBadRequest, "message too long")
		return
	}

	msg, err := h.deps.Records.AddMessage(r.Context(), entities.Message{
		UserID:  userID,
		From:    entities.FromPatient,
		Content: content,
	})
	if err != nil {
		h.storeError(w, "send message", err)
		return
	}
	h.RespondWithJSON(w, http.StatusCreated, msg)
}

// ListBilans returns the user's saved bilans, newest first
func (h *HTTPHandlerImpl) ListBilans(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	bilans, err := h.deps.Records.ListBilans(r.Context(), userID)
	if err != nil {
		h.storeError(w, "list bilans", err)
		return
	}
	h.RespondWithJSON(w, http.StatusOK, bilans)
}

// CreateBilan saves a diagnostic run. Completed defaults to true.
func (h *HTTPHandlerImpl) CreateBilan(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req createBilanRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	completed := true
	if req.Completed != nil {
		completed = *req.Completed
	}

	bilan, err := h.deps.Records.CreateBilan(r.Context(), entities.Bilan{
		UserID:              userID,
		DiagnosticSessionID: strings.TrimSpace(req.DiagnosticSessionID),
		PathologyID:         strings.TrimSpace(req.PathologyID),
		ProductKitID:        strings.TrimSpace(req.ProductKitID),
		FollowUpDate:        req.FollowUpDate,
		Completed:           completed,
		Notes:               req.Notes,
		Results:             req.Results,
	})
	if err != nil {
		h.storeError(w, "save bilan", err)
		return
	}
	h.RespondWithJSON(w, http.StatusCreated, bilan)
}
