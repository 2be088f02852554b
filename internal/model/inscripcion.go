package model

import (
	"time"

	"github.com/google/uuid"
)

// Inscripcion representa el acceso de un usuario a un curso. Un usuario puede
// tener varias inscripciones al mismo curso (recompras independientes); por
// eso la aprobación de un reembolso borra exactamente UNA — la más reciente —
// y nunca todas.
// Los proyectos no tienen tabla de inscripción; su acceso se filtra en otra capa.
type Inscripcion struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID uuid.UUID `gorm:"type:uuid;not null;index:idx_inscripciones_usuario_curso"`
	CursoID   uuid.UUID `gorm:"type:uuid;not null;index:idx_inscripciones_usuario_curso"`
	VentaID   *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time  `gorm:"index"`
}

// TableName overrides GORM's default pluralization (inscripcions → inscripciones).
func (Inscripcion) TableName() string { return "inscripciones" }
