package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/rl1809/vending-machine/internal/core/domain"
	"github.com/rl1809/vending-machine/internal/core/service"
)

type HTTPHandler struct {
	vendingService *service.VendingService
	validate       *validator.Validate
}

type DepositHTTPRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type VendHTTPRequest struct {
	RequestID string `json:"request_id"`
	Selection string `json:"selection" validate:"required"`
	Quantity  int    `json:"quantity"`
}

type VendHTTPResponse struct {
	Success   bool             `json:"success"`
	Message   string           `json:"message"`
	ReceiptID string           `json:"receipt_id,omitempty"`
	Total     *decimal.Decimal `json:"total,omitempty"`
	Balance   *decimal.Decimal `json:"balance,omitempty"`
	Required  *decimal.Decimal `json:"required,omitempty"`
}

type BalanceHTTPResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type ItemHTTPResponse struct {
	Selection string          `json:"selection"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type QuoteHTTPResponse struct {
	Selection string          `json:"selection"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

type errorHTTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewHTTPHandler(vendingService *service.VendingService) *HTTPHandler {
	return &HTTPHandler{
		vendingService: vendingService,
		validate:       validator.New(),
	}
}

// Routes registers every endpoint on a fresh mux.
func (h *HTTPHandler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/api/balance", h.Balance)
	mux.HandleFunc("/api/deposit", h.Deposit)
	mux.HandleFunc("/api/items", h.Items)
	mux.HandleFunc("/api/item", h.Item)
	mux.HandleFunc("/api/quote", h.Quote)
	mux.HandleFunc("/api/vend", h.Vend)
	return mux
}

func (h *HTTPHandler) Vend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req VendHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	selection, err := domain.ParseSelection(req.Selection)
	if err != nil {
		writeJSON(w, http.StatusNotFound, VendHTTPResponse{
			Success: false,
			Message: vendFailureMessage(domain.ErrInvalidSelection),
		})
		return
	}

	receipt, err := h.vendingService.Vend(r.Context(), req.RequestID, selection, req.Quantity)
	if err != nil {
		resp := VendHTTPResponse{Success: false, Message: vendFailureMessage(err)}

		var fundsErr *domain.InsufficientFundsError
		if errors.As(err, &fundsErr) {
			resp.Required = &fundsErr.Required
		}

		writeJSON(w, vendFailureStatus(err), resp)
		return
	}

	writeJSON(w, http.StatusOK, VendHTTPResponse{
		Success:   true,
		Message:   "enjoy your " + selection.String(),
		ReceiptID: receipt.ID,
		Total:     &receipt.Total,
		Balance:   &receipt.BalanceAfter,
	})
}

func (h *HTTPHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req DepositHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	balance, err := h.vendingService.Deposit(r.Context(), req.Amount)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAmount) {
			writeError(w, http.StatusBadRequest, "amount must be positive")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, BalanceHTTPResponse{Balance: balance})
}

func (h *HTTPHandler) Balance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, BalanceHTTPResponse{Balance: h.vendingService.Balance()})
}

func (h *HTTPHandler) Items(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entries := h.vendingService.Catalog()
	items := make([]ItemHTTPResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, ItemHTTPResponse{
			Selection: e.Selection.String(),
			Price:     e.Item.Price,
			Quantity:  e.Item.Quantity,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *HTTPHandler) Item(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	selection, err := domain.ParseSelection(r.URL.Query().Get("selection"))
	if err != nil {
		writeError(w, http.StatusNotFound, vendFailureMessage(domain.ErrInvalidSelection))
		return
	}
	item, ok := h.vendingService.Lookup(selection)
	if !ok {
		writeError(w, http.StatusNotFound, vendFailureMessage(domain.ErrInvalidSelection))
		return
	}

	writeJSON(w, http.StatusOK, ItemHTTPResponse{
		Selection: selection.String(),
		Price:     item.Price,
		Quantity:  item.Quantity,
	})
}

func (h *HTTPHandler) Quote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	quantity := 1
	if raw := q.Get("quantity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "quantity must be an integer")
			return
		}
		quantity = n
	}

	selection, err := domain.ParseSelection(q.Get("selection"))
	if err != nil {
		writeError(w, http.StatusNotFound, vendFailureMessage(domain.ErrInvalidSelection))
		return
	}

	total, err := h.vendingService.Quote(selection, quantity)
	if err != nil {
		writeError(w, vendFailureStatus(err), vendFailureMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, QuoteHTTPResponse{
		Selection: selection.String(),
		Quantity:  quantity,
		Total:     total,
	})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func vendFailureStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidSelection):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrOutOfStock):
		return http.StatusGone
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrDuplicateRequest):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func vendFailureMessage(err error) string {
	var fundsErr *domain.InsufficientFundsError
	switch {
	case errors.As(err, &fundsErr):
		return "you need $" + fundsErr.Required.StringFixed(2) + " to complete transaction"
	case errors.Is(err, domain.ErrInvalidSelection):
		return "invalid selection, please make another selection"
	case errors.Is(err, domain.ErrOutOfStock):
		return "out of stock, this item is unavailable"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return "quantity must be positive"
	case errors.Is(err, service.ErrDuplicateRequest):
		return "duplicate request"
	default:
		return "internal error"
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorHTTPResponse{Success: false, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
