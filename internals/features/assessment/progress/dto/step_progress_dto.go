// file: internals/features/assessment/progress/dto/step_progress_dto.go
package dto

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	model "coachtrack_backend/internals/features/assessment/progress/model"
)

/* ========================================================
   1) Requests
   ======================================================== */

type SaveDraftProgressRequest struct {
	GoalStepID uuid.UUID       `json:"goal_step_id" validate:"required"`
	EmployeeID uuid.UUID       `json:"employee_id" validate:"required"`
	SessionID  *uuid.UUID      `json:"session_id,omitempty"`
	Date       string          `json:"date" validate:"required,datetime=2006-01-02"`
	Outcome    string          `json:"outcome" validate:"required,oneof=correct verbal_prompt not_applicable"`
	Notes      *string         `json:"notes,omitempty" validate:"omitempty,max=4000"`
	Timing     json.RawMessage `json:"timing,omitempty"`
}

func (r *SaveDraftProgressRequest) Normalize() {
	r.Outcome = strings.TrimSpace(strings.ToLower(r.Outcome))
	r.Date = strings.TrimSpace(r.Date)
	if r.Notes != nil {
		v := strings.TrimSpace(*r.Notes)
		if v == "" {
			r.Notes = nil
		} else {
			r.Notes = &v
		}
	}
}

func (r *SaveDraftProgressRequest) ParsedDate() (time.Time, error) {
	return time.Parse("2006-01-02", r.Date)
}

type SubmitProgressRequest struct {
	EmployeeID uuid.UUID  `json:"employee_id" validate:"required"`
	SessionID  *uuid.UUID `json:"session_id,omitempty"`
	Date       string     `json:"date" validate:"required,datetime=2006-01-02"`
}

func (r *SubmitProgressRequest) ParsedDate() (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(r.Date))
}

/* ========================================================
   2) Responses
   ======================================================== */

type StepProgressRecordResponse struct {
	ID         uuid.UUID       `json:"step_progress_record_id"`
	GoalStepID uuid.UUID       `json:"step_progress_record_goal_step_id"`
	GoalID     uuid.UUID       `json:"step_progress_record_goal_id"`
	EmployeeID uuid.UUID       `json:"step_progress_record_employee_id"`
	SessionID  *uuid.UUID      `json:"step_progress_record_session_id,omitempty"`
	RecorderID uuid.UUID       `json:"step_progress_record_recorder_id"`
	Date       string          `json:"step_progress_record_date"`
	Outcome    string          `json:"step_progress_record_outcome"`
	Notes      *string         `json:"step_progress_record_notes,omitempty"`
	Timing     json.RawMessage `json:"step_progress_record_timing,omitempty"`
	Status     string          `json:"step_progress_record_status"`
	UpdatedAt  *time.Time      `json:"step_progress_record_updated_at,omitempty"`
}

func ToStepProgressRecordResponse(m *model.StepProgressRecordModel) StepProgressRecordResponse {
	return StepProgressRecordResponse{
		ID:         m.StepProgressRecordID,
		GoalStepID: m.StepProgressRecordGoalStepID,
		GoalID:     m.StepProgressRecordGoalID,
		EmployeeID: m.StepProgressRecordEmployeeID,
		SessionID:  m.StepProgressRecordSessionID,
		RecorderID: m.StepProgressRecordRecorderID,
		Date:       m.StepProgressRecordDate.Format("2006-01-02"),
		Outcome:    m.StepProgressRecordOutcome,
		Notes:      m.StepProgressRecordNotes,
		Timing:     json.RawMessage(m.StepProgressRecordTiming),
		Status:     m.StepProgressRecordStatus,
		UpdatedAt:  m.StepProgressRecordUpdatedAt,
	}
}
