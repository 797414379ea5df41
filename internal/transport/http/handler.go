package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"headlines/internal/display"
	"headlines/internal/domain"
	"headlines/internal/usecase"
	"headlines/internal/worker"

	"golang.org/x/time/rate"
)

type headlinesGetter interface {
	GetHeadlines(ctx context.Context, limit int) (domain.Snapshot, error)
}

type refresher interface {
	Trigger(source string) bool
}

type reportSource interface {
	LastReport() (usecase.Report, bool)
}

type Handler struct {
	log         *slog.Logger
	getter      headlinesGetter
	refresher   refresher
	reports     reportSource
	limiter     *rate.Limiter
	placeholder string
}

// NewHandler создает обработчики API. Обновление разрешено не чаще
// одного раза в refreshInterval; нулевой интервал снимает ограничение.
func NewHandler(
	log *slog.Logger,
	getter headlinesGetter,
	refresher refresher,
	reports reportSource,
	refreshInterval time.Duration,
	placeholder string,
) *Handler {
	limit := rate.Inf
	if refreshInterval > 0 {
		limit = rate.Every(refreshInterval)
	}
	return &Handler{
		log:         log,
		getter:      getter,
		refresher:   refresher,
		reports:     reports,
		limiter:     rate.NewLimiter(limit, 1),
		placeholder: placeholder,
	}
}

// getHeadlines - хендлер для эндпоинта GET /api/headlines
func (h *Handler) getHeadlines(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/getHeadlines"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", getRequestID(r.Context())),
	)
	if r.Method != http.MethodGet {
		log.Warn("method not allowed")
		respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	limitStr := r.URL.Query().Get("limit")
	limit := 0
	if limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			log.Warn("invalid limit parameter", slog.String("limit", limitStr))
			respondWithError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
	}

	snap, err := h.getter.GetHeadlines(r.Context(), limit)
	if err != nil {
		log.Error("Failed to get headlines", slog.Any("error", err))
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondWithJSON(w, http.StatusOK, display.View(snap, h.placeholder))
}

// refresh - хендлер для эндпоинта POST /api/refresh
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/refresh"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", getRequestID(r.Context())),
	)
	if r.Method != http.MethodPost {
		log.Warn("method not allowed")
		respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	if !h.limiter.Allow() {
		log.Warn("refresh rate limited")
		w.Header().Set("Retry-After", "1")
		respondWithError(w, http.StatusTooManyRequests, "Too Many Requests")
		return
	}
	status := "accepted"
	if !h.refresher.Trigger(worker.SourceHTTP) {
		status = "pending"
	}
	log.Info("refresh requested", slog.String("status", status))
	respondWithJSON(w, http.StatusAccepted, map[string]string{"status": status})
}

type healthResponse struct {
	Status    string `json:"status"`
	LastRunID string `json:"last_run_id,omitempty"`
	Outcome   string `json:"last_outcome,omitempty"`
	Country   string `json:"country,omitempty"`
	Language  string `json:"language,omitempty"`
}

// healthCheck - хендлер для проверки состояния сервиса
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if h.reports != nil {
		if report, ok := h.reports.LastReport(); ok {
			resp.LastRunID = report.RunID
			resp.Outcome = string(report.Outcome)
			resp.Country = string(report.Region.Country)
			resp.Language = string(report.Region.Language)
		}
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// Вспомогательные функции для ответов
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
