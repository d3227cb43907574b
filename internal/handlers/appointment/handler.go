package appointment

import (
	"net/http"

	"slotbook/infras/otel"
	"slotbook/internal/domains/appointment/model/dto"
	"slotbook/internal/domains/appointment/service"
	"slotbook/shared/constant"
	"slotbook/shared/validator"
	"slotbook/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Appointment
	otel    otel.Otel
}

func New(service service.Appointment, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/appointments", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateAppointment)
		routerGroup.Get("/", handler.GetDaySchedule)
		routerGroup.Delete("/{id}", handler.CancelAppointment)
	})

	router.Get("/metrics", handler.GetMetrics)
}

// CreateAppointment books a time slot.
// @Summary Book an appointment
// @Description Book one slot of the business-hours grid for the given date and start time.
// @Tags Appointment
// @Accept json
// @Produce json
// @Param request body dto.CreateAppointmentRequest true "Create Appointment Request"
// @Success 201 {object} response.Data[dto.CreateAppointmentResponse] "Appointment created"
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/appointments [post]
func (handler *Handler) CreateAppointment(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateAppointment")
	defer scope.End()

	req := dto.CreateAppointmentRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	res, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create appointment")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Appointment created for slot " + req.Date + " " + req.StartTime)

	response.WithJSON(writer, http.StatusCreated, res)
}

// GetDaySchedule returns the slot grid and appointments for one date.
// @Summary Get the schedule for a date
// @Description Return every slot of the date with its availability, plus the appointments booked on it.
// @Tags Appointment
// @Accept json
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Data[dto.DayScheduleResponse] "Day schedule"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/appointments [get]
func (handler *Handler) GetDaySchedule(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetDaySchedule")
	defer scope.End()

	date := request.URL.Query().Get(constant.RequestParamDate)

	res, err := handler.service.DaySchedule(ctx, date)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get day schedule")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Day schedule retrieved for " + date)

	response.WithJSON(writer, http.StatusOK, res)
}

// CancelAppointment cancels an appointment by id.
// @Summary Cancel an appointment
// @Description Cancel an active appointment, subject to the cancellation lead-time buffer.
// @Tags Appointment
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param request body dto.CancelAppointmentRequest false "Cancel Appointment Request"
// @Success 200 {object} response.Data[dto.CancelAppointmentResponse] "Appointment cancelled"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/appointments/{id} [delete]
func (handler *Handler) CancelAppointment(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CancelAppointment")
	defer scope.End()

	id := chi.URLParam(request, constant.RequestParamID)

	req := dto.CancelAppointmentRequest{}
	if request.Body != nil && request.ContentLength > 0 {
		if err := validator.Validate(request.Body, &req); err != nil {
			scope.TraceError(err)
			log.Error().Err(err).Msg("failed to validate request body")

			response.WithError(writer, err)

			return
		}
	}

	res, err := handler.service.Cancel(ctx, id, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to cancel appointment")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Appointment cancelled: " + id)

	response.WithJSON(writer, http.StatusOK, res)
}

// GetMetrics returns booking metrics for a date and its week.
// @Summary Get booking metrics
// @Description Return aggregate counts for the date (today by default) and its Monday-start week.
// @Tags Appointment
// @Accept json
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Data[dto.MetricsResponse] "Metrics"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/metrics [get]
func (handler *Handler) GetMetrics(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetMetrics")
	defer scope.End()

	date := request.URL.Query().Get(constant.RequestParamDate)

	res, err := handler.service.Metrics(ctx, date)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get metrics")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}
