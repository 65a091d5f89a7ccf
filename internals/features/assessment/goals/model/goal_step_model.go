// file: internals/features/assessment/goals/model/goal_step_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GoalStepModel struct {
	GoalStepID uuid.UUID `gorm:"type:uuid;primaryKey;column:goal_step_id" json:"goal_step_id"`

	GoalStepGoalID uuid.UUID `gorm:"type:uuid;not null;index:idx_goal_steps_goal;column:goal_step_goal_id" json:"goal_step_goal_id"`

	GoalStepOrder      int     `gorm:"not null;default:0;column:goal_step_order" json:"goal_step_order"`
	GoalStepName       string  `gorm:"type:varchar(200);not null;column:goal_step_name" json:"goal_step_name"`
	GoalStepPrompt     *string `gorm:"type:text;column:goal_step_prompt" json:"goal_step_prompt,omitempty"`
	GoalStepIsRequired bool    `gorm:"not null;default:true;column:goal_step_is_required" json:"goal_step_is_required"`

	GoalStepCreatedAt time.Time      `gorm:"column:goal_step_created_at;autoCreateTime" json:"goal_step_created_at"`
	GoalStepDeletedAt gorm.DeletedAt `gorm:"column:goal_step_deleted_at;index" json:"goal_step_deleted_at,omitempty"`
}

func (GoalStepModel) TableName() string { return "goal_steps" }

func (m *GoalStepModel) BeforeCreate(tx *gorm.DB) error {
	if m.GoalStepID == uuid.Nil {
		m.GoalStepID = uuid.New()
	}
	return nil
}
