package health

import (
	"net/http"
	"time"

	"slotbook/transport/http/response"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	startedAt time.Time
}

func New() Handler {
	return Handler{
		startedAt: time.Now(),
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Get("/health", handler.Health)
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

// Health reports liveness.
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} response.Data[healthResponse] "Service is healthy"
// @Router /v1/health [get]
func (handler *Handler) Health(writer http.ResponseWriter, _ *http.Request) {
	response.WithJSON(writer, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(handler.startedAt).Round(time.Second).String(),
	})
}
