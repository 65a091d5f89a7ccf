// file: internals/features/assessment/goals/model/development_goal_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed" // mastered / maintenance
	GoalStatusArchived  = "archived"
)

type DevelopmentGoalModel struct {
	DevelopmentGoalID uuid.UUID `gorm:"type:uuid;primaryKey;column:development_goal_id" json:"development_goal_id"`

	DevelopmentGoalEmployeeID uuid.UUID  `gorm:"type:uuid;not null;index:idx_development_goals_employee;column:development_goal_employee_id" json:"development_goal_employee_id"`
	DevelopmentGoalTemplateID *uuid.UUID `gorm:"type:uuid;column:development_goal_template_id" json:"development_goal_template_id,omitempty"`

	DevelopmentGoalName        string  `gorm:"type:varchar(200);not null;column:development_goal_name" json:"development_goal_name"`
	DevelopmentGoalDescription *string `gorm:"type:text;column:development_goal_description" json:"development_goal_description,omitempty"`

	DevelopmentGoalStatus string `gorm:"type:varchar(16);not null;default:active;index:idx_development_goals_status;column:development_goal_status" json:"development_goal_status"`

	// Counter pass sempurna berturut-turut; hanya Mastery Engine yang menyentuh ini
	DevelopmentGoalConsecutiveAllCorrect int        `gorm:"not null;default:0;column:development_goal_consecutive_all_correct" json:"development_goal_consecutive_all_correct"`
	DevelopmentGoalMasteryAchieved       bool       `gorm:"not null;default:false;column:development_goal_mastery_achieved" json:"development_goal_mastery_achieved"`
	DevelopmentGoalMasteryDate           *time.Time `gorm:"type:date;column:development_goal_mastery_date" json:"development_goal_mastery_date,omitempty"`

	DevelopmentGoalCreatedAt time.Time      `gorm:"column:development_goal_created_at;autoCreateTime" json:"development_goal_created_at"`
	DevelopmentGoalUpdatedAt *time.Time     `gorm:"column:development_goal_updated_at;autoUpdateTime" json:"development_goal_updated_at,omitempty"`
	DevelopmentGoalDeletedAt gorm.DeletedAt `gorm:"column:development_goal_deleted_at;index" json:"development_goal_deleted_at,omitempty"`

	// Relasi (Preload)
	Steps []GoalStepModel `gorm:"foreignKey:GoalStepGoalID;references:DevelopmentGoalID" json:"steps,omitempty"`
}

func (DevelopmentGoalModel) TableName() string { return "development_goals" }

func (m *DevelopmentGoalModel) BeforeCreate(tx *gorm.DB) error {
	if m.DevelopmentGoalID == uuid.Nil {
		m.DevelopmentGoalID = uuid.New()
	}
	return nil
}

func (m *DevelopmentGoalModel) IsActive() bool {
	return m.DevelopmentGoalStatus == GoalStatusActive
}
