// file: internals/features/assessment/sessions/model/session_employee_lock_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionEmployeeLockModel = LockGrant eksplisit: satu baris per (sesi, karyawan).
// Baris dihapus keras saat complete/abandon/karyawan dilepas, sehingga unique index
// di employee_id menjamin invariant "satu sesi live per karyawan" di level DB.
type SessionEmployeeLockModel struct {
	SessionEmployeeLockID uuid.UUID `gorm:"type:uuid;primaryKey;column:session_employee_lock_id" json:"session_employee_lock_id"`

	SessionEmployeeLockSessionID  uuid.UUID `gorm:"type:uuid;not null;index:idx_session_employee_locks_session;column:session_employee_lock_session_id" json:"session_employee_lock_session_id"`
	SessionEmployeeLockEmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_session_employee_locks_employee;column:session_employee_lock_employee_id" json:"session_employee_lock_employee_id"`
	SessionEmployeeLockManagerID  uuid.UUID `gorm:"type:uuid;not null;column:session_employee_lock_manager_id" json:"session_employee_lock_manager_id"`

	SessionEmployeeLockCreatedAt time.Time `gorm:"column:session_employee_lock_created_at;autoCreateTime" json:"session_employee_lock_created_at"`
}

func (SessionEmployeeLockModel) TableName() string { return "session_employee_locks" }

func (m *SessionEmployeeLockModel) BeforeCreate(tx *gorm.DB) error {
	if m.SessionEmployeeLockID == uuid.Nil {
		m.SessionEmployeeLockID = uuid.New()
	}
	return nil
}
