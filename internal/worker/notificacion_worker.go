package worker

// notificacion_worker.go
// Processes notification jobs from QueueNotificacion: refund status changes
// and liquidation statements. A failure here never affects the originating
// operation — the state was already committed.

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/alonsonavastack/api-plataforma-sub001/internal/infra"
	"github.com/alonsonavastack/api-plataforma-sub001/internal/repository"
)

// NotificacionJobPayload is the job envelope sent to QueueNotificacion.
type NotificacionJobPayload struct {
	UsuarioID string `json:"usuario_id"`
	Tipo      string `json:"tipo"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	PDFPath   string `json:"pdf_path,omitempty"`
}

// NotificacionWorker resolves the recipient and sends the email via SMTP.
type NotificacionWorker struct {
	mailer      *infra.Mailer
	usuarioRepo repository.UsuarioRepository
}

func NewNotificacionWorker(mailer *infra.Mailer, usuarioRepo repository.UsuarioRepository) *NotificacionWorker {
	return &NotificacionWorker{mailer: mailer, usuarioRepo: usuarioRepo}
}

// Process sends a single notification email, with optional PDF attachment.
func (w *NotificacionWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload NotificacionJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("notificacion_worker: invalid payload")
		return
	}

	uid, err := uuid.Parse(payload.UsuarioID)
	if err != nil {
		log.Error().Str("usuario_id", payload.UsuarioID).Msg("notificacion_worker: invalid usuario_id")
		return
	}
	user, err := w.usuarioRepo.FindByID(ctx, uid)
	if err != nil {
		log.Warn().Err(err).Str("usuario_id", payload.UsuarioID).Msg("notificacion_worker: usuario no encontrado")
		return
	}

	if err := w.mailer.SendNotificacion(user.Email, payload.Subject, payload.Body, payload.PDFPath); err != nil {
		log.Error().Err(err).Str("to", user.Email).Str("tipo", payload.Tipo).
			Msg("notificacion_worker: failed to send email")
		return
	}
	log.Info().Str("to", user.Email).Str("tipo", payload.Tipo).Msg("notificacion_worker: email sent")
}
