package events

import (
	"context"
	"time"

	"slotbook/config"
	"slotbook/infras/kafka"
	"slotbook/infras/otel"
	"slotbook/internal/domains/appointment/model"
	"slotbook/shared/constant"

	"github.com/rs/zerolog/log"
)

const (
	TypeCreated   = "appointment.created"
	TypeCancelled = "appointment.cancelled"
)

// Event is the payload published for every appointment lifecycle change.
// The key is the appointment id so all events of one appointment land on
// the same partition, in order.
type Event struct {
	Type          string    `json:"type"`
	AppointmentID string    `json:"appointment_id"`
	Date          string    `json:"date"`
	StartTime     string    `json:"start_time"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher announces appointment lifecycle changes. Publishing is best
// effort: failures are logged and never fail the booking that caused them.
type Publisher interface {
	Created(ctx context.Context, appointment model.Appointment)
	Cancelled(ctx context.Context, appointment model.Appointment)
}

type publisherImpl struct {
	cfg    *config.Config
	client kafka.Client
	otel   otel.Otel
}

// New returns the kafka-backed publisher, or a no-op one when the broker
// integration is disabled.
func New(cfg *config.Config, client kafka.Client, ot otel.Otel) Publisher {
	if !cfg.Kafka.Enable {
		return &noopPublisher{}
	}

	return &publisherImpl{
		cfg:    cfg,
		client: client,
		otel:   ot,
	}
}

func (p *publisherImpl) Created(ctx context.Context, appointment model.Appointment) {
	p.publish(ctx, TypeCreated, appointment)
}

func (p *publisherImpl) Cancelled(ctx context.Context, appointment model.Appointment) {
	p.publish(ctx, TypeCancelled, appointment)
}

func (p *publisherImpl) publish(ctx context.Context, eventType string, appointment model.Appointment) {
	ctx, scope := p.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".publish")
	defer scope.End()

	scope.SetAttribute("event.type", eventType)

	event := Event{
		Type:          eventType,
		AppointmentID: appointment.ID,
		Date:          appointment.Date,
		StartTime:     appointment.StartTime,
		Status:        appointment.Status,
		OccurredAt:    time.Now().UTC(),
	}

	err := p.client.SendMessages(ctx, p.cfg.Kafka.TopicAppointment, kafka.Message{
		Key:   appointment.ID,
		Value: event,
	})
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("type", eventType).Str("appointmentID", appointment.ID).Msg("failed to publish appointment event")
	}
}

type noopPublisher struct{}

func (n *noopPublisher) Created(_ context.Context, _ model.Appointment)   {}
func (n *noopPublisher) Cancelled(_ context.Context, _ model.Appointment) {}
