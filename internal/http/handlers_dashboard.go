package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finboard/internal/core"
)

// handleDashboard runs the aggregation pipeline over the full history with
// the requested filter. Responses are cached per filter until the next
// recorded transaction.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	filter, err := parseReportFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := fmt.Sprintf("%d-%d-%s", filter.Year, int(filter.Month), filter.InvestmentType)
	if cached, ok := s.reportCache.Get(key); ok {
		slog.DebugContext(r.Context(), "Dashboard cache hit", "key", key)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(cached)
		return
	}

	txs, err := s.store.LoadAll(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load transactions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	report := core.BuildReport(txs, filter)
	body, err := encodeDashboard(report)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode dashboard", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.reportCache.Set(key, body)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// parseReportFilter reads year/month/type query parameters. Absent values
// and the literals "all" / "All" / "All Time" widen the filter; anything
// else must parse.
func parseReportFilter(r *http.Request) (core.Filter, error) {
	var filter core.Filter
	q := r.URL.Query()

	if v := strings.TrimSpace(q.Get("year")); v != "" && !isAllToken(v) {
		year, err := strconv.Atoi(v)
		if err != nil || year < 1 {
			return core.Filter{}, fmt.Errorf("invalid year %q", v)
		}
		filter.Year = year
	}

	if v := strings.TrimSpace(q.Get("month")); v != "" && !isAllToken(v) {
		month, err := strconv.Atoi(v)
		if err != nil || month < 1 || month > 12 {
			return core.Filter{}, fmt.Errorf("invalid month %q: must be 1-12", v)
		}
		filter.Month = time.Month(month)
	}

	if v := strings.TrimSpace(q.Get("type")); v != "" && !isAllToken(v) {
		invType := core.InvestmentType(v)
		if !invType.Valid() {
			return core.Filter{}, fmt.Errorf("unknown investment type %q", v)
		}
		filter.InvestmentType = invType
	}

	return filter, nil
}

func isAllToken(v string) bool {
	switch strings.ToLower(v) {
	case "all", "all time":
		return true
	default:
		return false
	}
}
