// file: internals/features/assessment/progress/model/step_progress_record_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	OutcomeCorrect       = "correct"
	OutcomeVerbalPrompt  = "verbal_prompt"
	OutcomeNotApplicable = "not_applicable"
)

const (
	ProgressStatusDraft     = "draft"
	ProgressStatusSubmitted = "submitted"
)

// StepProgressRecordModel: satu observasi outcome per step goal.
// Natural key draft: (step, employee, recorder, session, date) — saveDraft
// meng-update in place, tidak menduplikasi. Baris submitted = bukti permanen,
// tidak pernah dihapus jalur aplikasi normal.
type StepProgressRecordModel struct {
	StepProgressRecordID uuid.UUID `gorm:"type:uuid;primaryKey;column:step_progress_record_id" json:"step_progress_record_id"`

	StepProgressRecordGoalStepID uuid.UUID `gorm:"type:uuid;not null;index:idx_step_progress_records_step;column:step_progress_record_goal_step_id" json:"step_progress_record_goal_step_id"`
	// denormalisasi goal id supaya evaluasi mastery tidak perlu join steps
	StepProgressRecordGoalID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_step_progress_records_goal;column:step_progress_record_goal_id" json:"step_progress_record_goal_id"`
	StepProgressRecordEmployeeID uuid.UUID  `gorm:"type:uuid;not null;index:idx_step_progress_records_employee;column:step_progress_record_employee_id" json:"step_progress_record_employee_id"`
	StepProgressRecordSessionID  *uuid.UUID `gorm:"type:uuid;index:idx_step_progress_records_session;column:step_progress_record_session_id" json:"step_progress_record_session_id,omitempty"`
	StepProgressRecordRecorderID uuid.UUID  `gorm:"type:uuid;not null;index:idx_step_progress_records_recorder;column:step_progress_record_recorder_id" json:"step_progress_record_recorder_id"`

	StepProgressRecordDate    time.Time `gorm:"type:date;not null;column:step_progress_record_date" json:"step_progress_record_date"`
	StepProgressRecordOutcome string    `gorm:"type:varchar(16);not null;column:step_progress_record_outcome" json:"step_progress_record_outcome"`
	StepProgressRecordNotes   *string   `gorm:"type:text;column:step_progress_record_notes" json:"step_progress_record_notes,omitempty"`

	// metadata timing bebas bentuk: {"latency_sec": 12, "prompt_delay_sec": 3, ...}
	StepProgressRecordTiming datatypes.JSON `gorm:"column:step_progress_record_timing" json:"step_progress_record_timing,omitempty"`

	StepProgressRecordStatus string `gorm:"type:varchar(12);not null;default:draft;index:idx_step_progress_records_status;column:step_progress_record_status" json:"step_progress_record_status"`

	StepProgressRecordCreatedAt time.Time      `gorm:"column:step_progress_record_created_at;autoCreateTime" json:"step_progress_record_created_at"`
	StepProgressRecordUpdatedAt *time.Time     `gorm:"column:step_progress_record_updated_at;autoUpdateTime" json:"step_progress_record_updated_at,omitempty"`
	StepProgressRecordDeletedAt gorm.DeletedAt `gorm:"column:step_progress_record_deleted_at;index" json:"step_progress_record_deleted_at,omitempty"`
}

func (StepProgressRecordModel) TableName() string { return "step_progress_records" }

func (m *StepProgressRecordModel) BeforeCreate(tx *gorm.DB) error {
	if m.StepProgressRecordID == uuid.Nil {
		m.StepProgressRecordID = uuid.New()
	}
	return nil
}

// EnsureDraftKeyIndex: unique index parsial atas natural key draft — backstop
// store-level supaya dua saveDraft konkuren tidak bisa sama-sama insert.
// Ekspresi COALESCE + partial index tidak bisa dinyatakan lewat tag gorm,
// jadi DDL-nya eksplisit di sini. Baris submitted sengaja tidak kena index
// (bukti historis boleh menumpuk di key yang sama).
func EnsureDraftKeyIndex(db *gorm.DB) error {
	sessionExpr := "(COALESCE(step_progress_record_session_id, ''))"
	if db.Dialector.Name() == "postgres" {
		sessionExpr = "(COALESCE(step_progress_record_session_id, '00000000-0000-0000-0000-000000000000'::uuid))"
	}
	ddl := "CREATE UNIQUE INDEX IF NOT EXISTS uq_step_progress_records_draft_key " +
		"ON step_progress_records (" +
		"step_progress_record_goal_step_id, " +
		"step_progress_record_employee_id, " +
		"step_progress_record_recorder_id, " +
		sessionExpr + ", " +
		"step_progress_record_date) " +
		"WHERE step_progress_record_status = 'draft' AND step_progress_record_deleted_at IS NULL"
	return db.Exec(ddl).Error
}

func IsValidOutcome(v string) bool {
	switch v {
	case OutcomeCorrect, OutcomeVerbalPrompt, OutcomeNotApplicable:
		return true
	}
	return false
}
