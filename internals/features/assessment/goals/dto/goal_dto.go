// file: internals/features/assessment/goals/dto/goal_dto.go
package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	model "coachtrack_backend/internals/features/assessment/goals/model"
)

/* ========================================================
   1) Template DTOs
   ======================================================== */

// GoalTemplateStepDef: definisi step di dalam JSONB template
type GoalTemplateStepDef struct {
	Name       string  `json:"name" validate:"required,max=200"`
	Prompt     *string `json:"prompt,omitempty" validate:"omitempty,max=2000"`
	Order      int     `json:"order"`
	IsRequired bool    `json:"is_required"`
}

type GoalTemplateCreateRequest struct {
	Name        string                `json:"name" validate:"required,max=200"`
	Description *string               `json:"description,omitempty" validate:"omitempty,max=2000"`
	Steps       []GoalTemplateStepDef `json:"steps" validate:"required,min=1,dive"`
}

func (r *GoalTemplateCreateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	if r.Description != nil {
		v := strings.TrimSpace(*r.Description)
		if v == "" {
			r.Description = nil
		} else {
			r.Description = &v
		}
	}
	for i := range r.Steps {
		r.Steps[i].Name = strings.TrimSpace(r.Steps[i].Name)
		if r.Steps[i].Order == 0 {
			r.Steps[i].Order = i + 1
		}
	}
}

type GoalTemplateResponse struct {
	ID          uuid.UUID             `json:"goal_template_id"`
	Name        string                `json:"goal_template_name"`
	Description *string               `json:"goal_template_description,omitempty"`
	Steps       []GoalTemplateStepDef `json:"goal_template_steps"`
	CreatedAt   time.Time             `json:"goal_template_created_at"`
}

/* ========================================================
   2) Goal DTOs
   ======================================================== */

type AssignGoalRequest struct {
	TemplateID uuid.UUID `json:"template_id" validate:"required"`
	EmployeeID uuid.UUID `json:"employee_id" validate:"required"`
}

type GoalStepResponse struct {
	ID         uuid.UUID `json:"goal_step_id"`
	Order      int       `json:"goal_step_order"`
	Name       string    `json:"goal_step_name"`
	Prompt     *string   `json:"goal_step_prompt,omitempty"`
	IsRequired bool      `json:"goal_step_is_required"`
}

type DevelopmentGoalResponse struct {
	ID                    uuid.UUID          `json:"development_goal_id"`
	EmployeeID            uuid.UUID          `json:"development_goal_employee_id"`
	TemplateID            *uuid.UUID         `json:"development_goal_template_id,omitempty"`
	Name                  string             `json:"development_goal_name"`
	Description           *string            `json:"development_goal_description,omitempty"`
	Status                string             `json:"development_goal_status"`
	ConsecutiveAllCorrect int                `json:"development_goal_consecutive_all_correct"`
	MasteryAchieved       bool               `json:"development_goal_mastery_achieved"`
	MasteryDate           *string            `json:"development_goal_mastery_date,omitempty"`
	Steps                 []GoalStepResponse `json:"steps,omitempty"`
}

func ToGoalStepResponse(m *model.GoalStepModel) GoalStepResponse {
	return GoalStepResponse{
		ID:         m.GoalStepID,
		Order:      m.GoalStepOrder,
		Name:       m.GoalStepName,
		Prompt:     m.GoalStepPrompt,
		IsRequired: m.GoalStepIsRequired,
	}
}

func ToDevelopmentGoalResponse(m *model.DevelopmentGoalModel) DevelopmentGoalResponse {
	resp := DevelopmentGoalResponse{
		ID:                    m.DevelopmentGoalID,
		EmployeeID:            m.DevelopmentGoalEmployeeID,
		TemplateID:            m.DevelopmentGoalTemplateID,
		Name:                  m.DevelopmentGoalName,
		Description:           m.DevelopmentGoalDescription,
		Status:                m.DevelopmentGoalStatus,
		ConsecutiveAllCorrect: m.DevelopmentGoalConsecutiveAllCorrect,
		MasteryAchieved:       m.DevelopmentGoalMasteryAchieved,
	}
	if m.DevelopmentGoalMasteryDate != nil {
		d := m.DevelopmentGoalMasteryDate.Format("2006-01-02")
		resp.MasteryDate = &d
	}
	for i := range m.Steps {
		resp.Steps = append(resp.Steps, ToGoalStepResponse(&m.Steps[i]))
	}
	return resp
}
