package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// handleTransactions dispatches POST (record) and GET (full history).
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateTransaction(w, r)
	case http.MethodGet:
		s.handleListTransactions(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var draft TransactionDraft
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := draft.ToTransaction()
	if err != nil {
		slog.InfoContext(r.Context(), "Transaction rejected",
			"operation", "create", "error", err.Error())
		writeValidationError(w, err)
		return
	}

	if err := s.store.Append(r.Context(), tx); err != nil {
		slog.ErrorContext(r.Context(), "Failed to save transaction",
			"transaction_id", tx.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save transaction")
		return
	}

	s.reportCache.Clear()
	slog.InfoContext(r.Context(), "Transaction recorded",
		"transaction_id", tx.ID,
		"income_type", string(tx.Source.Type),
		"amount", tx.Source.Amount.String(),
		"investments", len(tx.Allocations.Investments))

	writeJSON(w, http.StatusCreated, toTransactionView(tx))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.store.LoadAll(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	views := make([]transactionView, 0, len(txs))
	for _, tx := range txs {
		views = append(views, toTransactionView(tx))
	}
	writeJSON(w, http.StatusOK, views)
}
