package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"kiosk-inventory-backend/internal/domain"
	"kiosk-inventory-backend/internal/logger"
	"kiosk-inventory-backend/internal/service"
)

// StockHandler serves read-only stock snapshots to kiosk displays
type StockHandler struct {
	ledger service.StockLedger
}

// NewStockHandler creates a new snapshot handler
func NewStockHandler(ledger service.StockLedger) *StockHandler {
	return &StockHandler{
		ledger: ledger,
	}
}

// HandleSnapshot handles GET requests for one equipment item
func (h *StockHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	equipmentID := mux.Vars(r)["equipmentId"]
	if equipmentID == "" {
		writeError(w, domain.NewValidationError("equipment_id", "is required"))
		return
	}

	rec, err := h.ledger.Snapshot(r.Context(), equipmentID)
	if err != nil {
		writeError(w, err)
		return
	}

	// Snapshots may be stale by the time they render
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, rec)
}

// HandleHealth reports liveness
func (h *StockHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RegisterStockRoutes registers the snapshot endpoints
func RegisterStockRoutes(router *mux.Router, ledger service.StockLedger) {
	handler := NewStockHandler(ledger)
	router.HandleFunc("/api/v1/stock/{equipmentId}", handler.HandleSnapshot).Methods("GET")
	router.HandleFunc("/healthz", handler.HandleHealth).Methods("GET")
}

// NewRouter builds the status API with CORS for browser based kiosk screens
func NewRouter(ledger service.StockLedger, allowedOrigins []string) http.Handler {
	router := mux.NewRouter()
	RegisterStockRoutes(router, ledger)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(router)
}

type errorBody struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, domain.ErrBusy):
		code = http.StatusServiceUnavailable
		w.Header().Set("Retry-After", "1")
	default:
		logger.Error("Snapshot request failed", "error", err)
		writeJSON(w, code, errorBody{Error: "internal error"})
		return
	}
	writeJSON(w, code, errorBody{Error: err.Error(), Retryable: domain.IsRetryable(err)})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Failed to write response", "error", err)
	}
}
