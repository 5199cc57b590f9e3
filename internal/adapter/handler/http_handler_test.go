package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/vending-machine/internal/adapter/storage"
	"github.com/rl1809/vending-machine/internal/core/domain"
	"github.com/rl1809/vending-machine/internal/core/service"
)

func newTestVendingService(balance string) *service.VendingService {
	machine := domain.NewMachine(domain.Catalog{
		domain.SelectionSoda:  {Price: decimal.RequireFromString("1.50"), Quantity: 5},
		domain.SelectionChips: {Price: decimal.RequireFromString("1.00"), Quantity: 0},
	}, decimal.RequireFromString(balance))
	return service.NewVendingService(machine, storage.NewMemoryIdempotencyStore(), 0, zap.NewNop())
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeVendResponse(t *testing.T, rec *httptest.ResponseRecorder) VendHTTPResponse {
	t.Helper()
	var resp VendHTTPResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	return resp
}

func TestHTTPVend_Success(t *testing.T) {
	h := NewHTTPHandler(newTestVendingService("10.00")).Routes()

	rec := doRequest(t, h, http.MethodPost, "/api/vend", `{"request_id":"r1","selection":"soda","quantity":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}

	resp := decodeVendResponse(t, rec)
	if !resp.Success || resp.ReceiptID == "" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Balance == nil || !resp.Balance.Equal(decimal.RequireFromString("7")) {
		t.Errorf("expected balance 7, got %v", resp.Balance)
	}
}

func TestHTTPVend_Failures(t *testing.T) {
	tests := []struct {
		name    string
		balance string
		body    string
		status  int
	}{
		{"unknown selection", "10", `{"selection":"coffee","quantity":1}`, http.StatusNotFound},
		{"selection not stocked", "10", `{"selection":"gum","quantity":1}`, http.StatusNotFound},
		{"out of stock", "10", `{"selection":"chips","quantity":1}`, http.StatusGone},
		{"insufficient funds", "0.50", `{"selection":"soda","quantity":1}`, http.StatusPaymentRequired},
		{"zero quantity", "10", `{"selection":"soda","quantity":0}`, http.StatusBadRequest},
		{"unknown selection zero quantity", "10", `{"selection":"coffee","quantity":0}`, http.StatusNotFound},
		{"unstocked selection zero quantity", "10", `{"selection":"gum","quantity":0}`, http.StatusNotFound},
		{"missing selection", "10", `{"quantity":1}`, http.StatusBadRequest},
		{"bad json", "10", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHTTPHandler(newTestVendingService(tt.balance)).Routes()
			rec := doRequest(t, h, http.MethodPost, "/api/vend", tt.body)
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body)
			}
		})
	}
}

func TestHTTPVend_InsufficientFundsReportsRequired(t *testing.T) {
	h := NewHTTPHandler(newTestVendingService("0.50")).Routes()

	rec := doRequest(t, h, http.MethodPost, "/api/vend", `{"selection":"soda","quantity":1}`)
	resp := decodeVendResponse(t, rec)

	if resp.Required == nil || !resp.Required.Equal(decimal.RequireFromString("1.00")) {
		t.Errorf("expected required 1.00, got %v", resp.Required)
	}
	if resp.Message != "you need $1.00 to complete transaction" {
		t.Errorf("unexpected message: %s", resp.Message)
	}
}

func TestHTTPVend_Duplicate(t *testing.T) {
	h := NewHTTPHandler(newTestVendingService("10")).Routes()
	body := `{"request_id":"same","selection":"soda","quantity":1}`

	if rec := doRequest(t, h, http.MethodPost, "/api/vend", body); rec.Code != http.StatusOK {
		t.Fatalf("first vend: expected 200, got %d", rec.Code)
	}
	if rec := doRequest(t, h, http.MethodPost, "/api/vend", body); rec.Code != http.StatusConflict {
		t.Errorf("second vend: expected 409, got %d", rec.Code)
	}
}

func TestHTTPVend_MethodNotAllowed(t *testing.T) {
	h := NewHTTPHandler(newTestVendingService("10")).Routes()
	if rec := doRequest(t, h, http.MethodGet, "/api/vend", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestHTTPDepositThenVend(t *testing.T) {
	h := NewHTTPHandler(newTestVendingService("0")).Routes()

	rec := doRequest(t, h, http.MethodPost, "/api/deposit", `{"amount":"5.00"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("deposit: expected 200, got %d", rec.Code)
	}

	rec = doRequest(t, h, http.MethodPost, "/api/vend", `{"selection":"soda","quantity":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("vend: expected 200, got %d: %s", rec.Code, rec.Body)
	}

	rec = doRequest(t, h, http.MethodGet, "/api/balance", "")
	var bal BalanceHTTPResponse
	json.NewDecoder(rec.Body).Decode(&bal)
	if !bal.Balance.Equal(decimal.RequireFromString("3.50")) {
		t.Errorf("expected balance 3.50, got %s", bal.Balance)
	}
}

func TestHTTPDeposit_Invalid(t *testing.T) {
	h := NewHTTPHandler(newTestVendingService("0")).Routes()

	for _, body := range []string{`{"amount":-5}`, `{}`, `{"amount":"lots"}`} {
		if rec := doRequest(t, h, http.MethodPost, "/api/deposit", body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestHTTPItems(t *testing.T) {
	h := NewHTTPHandler(newTestVendingService("0")).Routes()

	rec := doRequest(t, h, http.MethodGet, "/api/items", "")
	var items []ItemHTTPResponse
	if err := json.NewDecoder(rec.Body).Decode(&items); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if len(items) != 2 || items[0].Selection != "soda" || items[1].Selection != "chips" {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestHTTPItem(t *testing.T) {
	h := NewHTTPHandler(newTestVendingService("0")).Routes()

	rec := doRequest(t, h, http.MethodGet, "/api/item?selection=soda", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var item ItemHTTPResponse
	json.NewDecoder(rec.Body).Decode(&item)
	if item.Quantity != 5 {
		t.Errorf("expected quantity 5, got %d", item.Quantity)
	}

	if rec := doRequest(t, h, http.MethodGet, "/api/item?selection=gum", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unstocked selection, got %d", rec.Code)
	}
}

func TestHTTPQuote(t *testing.T) {
	h := NewHTTPHandler(newTestVendingService("0")).Routes()

	rec := doRequest(t, h, http.MethodGet, "/api/quote?selection=soda&quantity=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var quote QuoteHTTPResponse
	json.NewDecoder(rec.Body).Decode(&quote)
	if !quote.Total.Equal(decimal.RequireFromString("4.50")) {
		t.Errorf("expected total 4.50, got %s", quote.Total)
	}

	if rec := doRequest(t, h, http.MethodGet, "/api/quote?selection=soda&quantity=x", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
