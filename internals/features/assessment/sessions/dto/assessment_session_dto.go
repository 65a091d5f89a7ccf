// file: internals/features/assessment/sessions/dto/assessment_session_dto.go
package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	model "coachtrack_backend/internals/features/assessment/sessions/model"
	service "coachtrack_backend/internals/features/assessment/sessions/service"
)

/* ========================================================
   1) Requests
   ======================================================== */

type AssessmentSessionCreateRequest struct {
	EmployeeIDs []uuid.UUID `json:"employee_ids" validate:"required,min=1,dive,required"`
	Location    *string     `json:"location,omitempty" validate:"omitempty,max=160"`
	Date        string      `json:"date" validate:"required,datetime=2006-01-02"`
}

func (r *AssessmentSessionCreateRequest) Normalize() {
	if r.Location != nil {
		v := strings.TrimSpace(*r.Location)
		if v == "" {
			r.Location = nil
		} else {
			r.Location = &v
		}
	}
	r.Date = strings.TrimSpace(r.Date)
}

func (r *AssessmentSessionCreateRequest) ParsedDate() (time.Time, error) {
	return time.Parse("2006-01-02", r.Date)
}

type AssessmentSessionUpdateRequest struct {
	EmployeeIDs []uuid.UUID `json:"employee_ids,omitempty" validate:"omitempty,min=1,dive,required"`
	Location    *string     `json:"location,omitempty" validate:"omitempty,max=160"`
	Date        *string     `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (r *AssessmentSessionUpdateRequest) Normalize() {
	if r.Location != nil {
		v := strings.TrimSpace(*r.Location)
		if v == "" {
			r.Location = nil
		} else {
			r.Location = &v
		}
	}
	if r.Date != nil {
		v := strings.TrimSpace(*r.Date)
		r.Date = &v
	}
}

type CheckLocksRequest struct {
	EmployeeIDs []uuid.UUID `json:"employee_ids" validate:"required,min=1,dive,required"`
}

/* ========================================================
   2) Responses
   ======================================================== */

type AssessmentSessionResponse struct {
	ID          uuid.UUID  `json:"assessment_session_id"`
	ManagerID   uuid.UUID  `json:"assessment_session_manager_id"`
	EmployeeIDs []string   `json:"assessment_session_employee_ids"`
	Location    *string    `json:"assessment_session_location,omitempty"`
	Date        string     `json:"assessment_session_date"`
	Status      string     `json:"assessment_session_status"`
	LockedBy    *uuid.UUID `json:"assessment_session_locked_by,omitempty"`
	LockedAt    *time.Time `json:"assessment_session_locked_at,omitempty"`
	ExpiresAt   *time.Time `json:"assessment_session_expires_at,omitempty"`
	CreatedAt   time.Time  `json:"assessment_session_created_at"`
}

func ToAssessmentSessionResponse(m *model.AssessmentSessionModel) AssessmentSessionResponse {
	return AssessmentSessionResponse{
		ID:          m.AssessmentSessionID,
		ManagerID:   m.AssessmentSessionManagerID,
		EmployeeIDs: append([]string(nil), m.AssessmentSessionEmployeeIDs...),
		Location:    m.AssessmentSessionLocation,
		Date:        m.AssessmentSessionDate.Format("2006-01-02"),
		Status:      m.AssessmentSessionStatus,
		LockedBy:    m.AssessmentSessionLockedBy,
		LockedAt:    m.AssessmentSessionLockedAt,
		ExpiresAt:   m.AssessmentSessionExpiresAt,
		CreatedAt:   m.AssessmentSessionCreatedAt,
	}
}

// Detail konflik untuk 409 — cukup buat pesan yang bisa diselesaikan manusia
type LockConflictDetail struct {
	EmployeeID uuid.UUID `json:"employee_id"`
	SessionID  uuid.UUID `json:"session_id"`
	ManagerID  uuid.UUID `json:"manager_id"`
}

func ToLockConflictDetails(e *service.LockConflictError) []LockConflictDetail {
	out := make([]LockConflictDetail, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		out = append(out, LockConflictDetail{
			EmployeeID: c.EmployeeID,
			SessionID:  c.SessionID,
			ManagerID:  c.ManagerID,
		})
	}
	return out
}
