package notify

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/salonkit/reserve-core/internal/models"
)

// Notifier is the post-commit notification hook. Implementations must treat
// delivery as best-effort: a failed notification never rolls back the
// reservation that triggered it, so errors are logged and swallowed by the
// caller.
type Notifier interface {
	ReservationCreated(ctx context.Context, appt *models.Appointment)
	ReservationUpdated(ctx context.Context, appt *models.Appointment)
	ReservationCancelled(ctx context.Context, appt *models.Appointment)
}

// LogNotifier writes notification events to the log only. The real email
// dispatcher lives outside this module; this keeps the hook exercised.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) ReservationCreated(ctx context.Context, appt *models.Appointment) {
	n.emit("reservation_created", appt)
}

func (n *LogNotifier) ReservationUpdated(ctx context.Context, appt *models.Appointment) {
	n.emit("reservation_updated", appt)
}

func (n *LogNotifier) ReservationCancelled(ctx context.Context, appt *models.Appointment) {
	n.emit("reservation_cancelled", appt)
}

func (n *LogNotifier) emit(event string, appt *models.Appointment) {
	log.Info().
		Str("event", event).
		Str("appointment_id", appt.ID.String()).
		Str("customer_id", appt.CustomerID.String()).
		Str("date", appt.Date.Format("2006-01-02")).
		Str("start", appt.StartTime.String()).
		Str("end", appt.EndTime.String()).
		Msg("notification dispatched")
}
