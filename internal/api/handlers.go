// Package api exposes HTTP handlers for the carbon tracker service.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"

	"example.com/carbon/internal/auth"
	"example.com/carbon/internal/domain"
	"example.com/carbon/internal/emissions"
	"example.com/carbon/internal/logger"
	"example.com/carbon/internal/persistence"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxBodyBytes    = 1 << 20
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	log     *logger.Logger
}

// NewHandler builds a Handler. A nil log discards output.
func NewHandler(service *domain.Service, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{service: service, log: log}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/factors", h.factors)
	mux.HandleFunc("/v1/emissions/calculate", h.calculate)
	mux.HandleFunc("/v1/records", h.records)
	mux.HandleFunc("/v1/records/", h.recordSubresource)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) factors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := h.authorize(w, r, auth.ScopeEmissionsRead, ""); !ok {
		return
	}

	writeJSON(w, http.StatusOK, FactorsResponse{
		Factors:      h.service.Factors(),
		DailyLimitKg: h.service.DailyLimitKg(),
	})
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := h.authorize(w, r, auth.ScopeEmissionsRead, ""); !ok {
		return
	}

	var req CalculateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	daily, err := h.service.Report(req.Activities)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, daily)
}

func (h *Handler) records(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.submitRecord(w, r)
	case http.MethodGet:
		h.listRecords(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) recordSubresource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	switch segment := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/records/"), "/"); segment {
	case "":
		h.listRecords(w, r)
	case "summary":
		h.summary(w, r)
	case "period":
		h.period(w, r)
	default:
		date, err := civil.ParseDate(segment)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", segment))
			return
		}
		h.getRecord(w, r, date)
	}
}

func (h *Handler) submitRecord(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	var req SubmitRecordRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = claims.Subject
	}
	if _, ok := h.authorize(w, r, auth.ScopeEmissionsWrite, userID); !ok {
		return
	}

	var date civil.Date
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := civil.ParseDate(strings.TrimSpace(req.Date))
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	rec, replaced, err := h.service.SubmitRecord(r.Context(), domain.SubmitRecordInput{
		TenantID:   claims.TenantID,
		UserID:     userID,
		Date:       date,
		Activities: req.Activities,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if replaced {
		status = http.StatusOK
	}
	writeJSON(w, status, SubmitRecordResponse{
		Record:   toRecordView(*rec),
		Replaced: replaced,
	})
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request, date civil.Date) {
	claims, userID, ok := h.readAccess(w, r)
	if !ok {
		return
	}

	rec, err := h.service.GetRecord(r.Context(), claims.TenantID, userID, date)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordView(*rec))
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	claims, userID, ok := h.readAccess(w, r)
	if !ok {
		return
	}

	limit := defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = min(parsed, maxPageSize)
		}
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	records, next, err := h.service.ListRecords(r.Context(), claims.TenantID, userID, cursor, limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	items := make([]RecordView, 0, len(records))
	for _, rec := range records {
		items = append(items, toRecordView(rec))
	}
	writeJSON(w, http.StatusOK, ListRecordsResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	claims, userID, ok := h.readAccess(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	ref, ok := parseDateParam(w, query.Get("reference_date"), "reference_date")
	if !ok {
		return
	}
	weekLength := emissions.DefaultWeekLength
	if raw := query.Get("week_length"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 366 {
			writeError(w, http.StatusBadRequest, "validation_failed", "week_length must be between 1 and 366")
			return
		}
		weekLength = parsed
	}

	summary, err := h.service.Summary(r.Context(), claims.TenantID, userID, ref, weekLength)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryResponse(userID, weekLength, summary))
}

func (h *Handler) period(w http.ResponseWriter, r *http.Request) {
	claims, userID, ok := h.readAccess(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	if query.Get("from") == "" || query.Get("to") == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "from and to are required")
		return
	}
	from, ok := parseDateParam(w, query.Get("from"), "from")
	if !ok {
		return
	}
	to, ok := parseDateParam(w, query.Get("to"), "to")
	if !ok {
		return
	}

	total, err := h.service.PeriodTotal(r.Context(), claims.TenantID, userID, from, to)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PeriodResponse{
		UserID: userID,
		From:   total.From,
		To:     total.To,
		Total:  total.Total,
	})
}

// readAccess resolves the target user (defaulting to the caller) and checks read access to it.
func (h *Handler) readAccess(w http.ResponseWriter, r *http.Request) (*auth.Claims, string, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return nil, "", false
	}
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		userID = claims.Subject
	}
	if _, ok := h.authorize(w, r, auth.ScopeEmissionsRead, userID); !ok {
		return nil, "", false
	}
	return claims, userID, true
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, scope, userID string) (*auth.Claims, bool) {
	claims, _ := auth.FromContext(r.Context())
	switch err := auth.Authorize(claims, scope, userID); {
	case err == nil:
		return claims, true
	case errors.Is(err, auth.ErrMissingToken):
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", fmt.Sprintf("scope %s required", scope))
	default:
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	}
	return nil, false
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case emissions.IsValidation(err), errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		h.log.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return false
	}
	return true
}

func parseDateParam(w http.ResponseWriter, raw, name string) (civil.Date, bool) {
	if raw == "" {
		return civil.Date{}, true
	}
	date, err := civil.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", fmt.Sprintf("%s must be YYYY-MM-DD", name))
		return civil.Date{}, false
	}
	return date, true
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

// writeJSON encodes payload before writing the status line so an unencodable
// payload becomes a 500 problem body instead of a truncated success.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(map[string]string{
			"type":   "server_error",
			"detail": "response could not be encoded",
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
