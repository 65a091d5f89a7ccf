// file: internals/features/assessment/sessions/model/assessment_session_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status lifecycle sesi asesmen.
// draft ada untuk kompatibilitas ke depan; jalur create selalu menghasilkan in_progress.
const (
	SessionStatusDraft      = "draft"
	SessionStatusInProgress = "in_progress"
	SessionStatusCompleted  = "completed"
	SessionStatusAbandoned  = "abandoned"
)

// Durasi lease lock sesi (create & renew)
const SessionLockTTL = 30 * time.Minute

type AssessmentSessionModel struct {
	AssessmentSessionID uuid.UUID `gorm:"type:uuid;primaryKey;column:assessment_session_id" json:"assessment_session_id"`

	AssessmentSessionManagerID uuid.UUID `gorm:"type:uuid;not null;index:idx_assessment_sessions_manager;column:assessment_session_manager_id" json:"assessment_session_manager_id"`

	// Urutan kanonik (sorted ascending) — dinormalisasi saat create/update
	AssessmentSessionEmployeeIDs []string `gorm:"serializer:json;not null;column:assessment_session_employee_ids" json:"assessment_session_employee_ids"`

	AssessmentSessionLocation *string   `gorm:"type:varchar(160);column:assessment_session_location" json:"assessment_session_location,omitempty"`
	AssessmentSessionDate     time.Time `gorm:"type:date;not null;column:assessment_session_date" json:"assessment_session_date"`

	AssessmentSessionStatus string `gorm:"type:varchar(16);not null;default:in_progress;index:idx_assessment_sessions_status;column:assessment_session_status" json:"assessment_session_status"`

	// Lock fields: terisi iff status ∈ {draft, in_progress}
	AssessmentSessionLockedBy  *uuid.UUID `gorm:"type:uuid;column:assessment_session_locked_by" json:"assessment_session_locked_by,omitempty"`
	AssessmentSessionLockedAt  *time.Time `gorm:"column:assessment_session_locked_at" json:"assessment_session_locked_at,omitempty"`
	AssessmentSessionExpiresAt *time.Time `gorm:"index:idx_assessment_sessions_expires;column:assessment_session_expires_at" json:"assessment_session_expires_at,omitempty"`

	AssessmentSessionCreatedAt time.Time      `gorm:"column:assessment_session_created_at;autoCreateTime" json:"assessment_session_created_at"`
	AssessmentSessionUpdatedAt *time.Time     `gorm:"column:assessment_session_updated_at;autoUpdateTime" json:"assessment_session_updated_at,omitempty"`
	AssessmentSessionDeletedAt gorm.DeletedAt `gorm:"column:assessment_session_deleted_at;index" json:"assessment_session_deleted_at,omitempty"`
}

func (AssessmentSessionModel) TableName() string { return "assessment_sessions" }

// ID digenerate aplikasi (bukan DB default) supaya insert batch & test deterministik
func (m *AssessmentSessionModel) BeforeCreate(tx *gorm.DB) error {
	if m.AssessmentSessionID == uuid.Nil {
		m.AssessmentSessionID = uuid.New()
	}
	return nil
}

// IsLive: sesi masih memegang claim atas karyawan-karyawannya
func (m *AssessmentSessionModel) IsLive() bool {
	return m.AssessmentSessionStatus == SessionStatusDraft ||
		m.AssessmentSessionStatus == SessionStatusInProgress
}

func (m *AssessmentSessionModel) IsTerminal() bool { return !m.IsLive() }

// IsExpiredAt: lease lewat pada saat asOf (hanya bermakna saat sesi live)
func (m *AssessmentSessionModel) IsExpiredAt(asOf time.Time) bool {
	return m.IsLive() &&
		m.AssessmentSessionExpiresAt != nil &&
		m.AssessmentSessionExpiresAt.Before(asOf)
}

// IsOwnedBy: pemegang lock = manager pemanggil
func (m *AssessmentSessionModel) IsOwnedBy(managerID uuid.UUID) bool {
	return m.AssessmentSessionLockedBy != nil && *m.AssessmentSessionLockedBy == managerID
}

// EmployeeUUIDs parse kolom array ke []uuid.UUID (entri rusak dilewati)
func (m *AssessmentSessionModel) EmployeeUUIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(m.AssessmentSessionEmployeeIDs))
	for _, raw := range m.AssessmentSessionEmployeeIDs {
		if id, err := uuid.Parse(raw); err == nil {
			out = append(out, id)
		}
	}
	return out
}
