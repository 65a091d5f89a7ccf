// file: internals/features/assessment/goals/model/goal_template_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GoalTemplateModel: definisi goal yang bisa di-assign berulang ke karyawan.
// Step definitions disimpan sebagai JSONB; saat assign dimaterialisasi jadi
// baris goal_steps milik goal instance.
type GoalTemplateModel struct {
	GoalTemplateID uuid.UUID `gorm:"type:uuid;primaryKey;column:goal_template_id" json:"goal_template_id"`

	GoalTemplateName        string  `gorm:"type:varchar(200);not null;column:goal_template_name" json:"goal_template_name"`
	GoalTemplateDescription *string `gorm:"type:text;column:goal_template_description" json:"goal_template_description,omitempty"`

	// [{"name": "...", "order": 1, "is_required": true, "prompt": "..."}]
	GoalTemplateSteps datatypes.JSON `gorm:"column:goal_template_steps" json:"goal_template_steps"`

	GoalTemplateCreatedAt time.Time      `gorm:"column:goal_template_created_at;autoCreateTime" json:"goal_template_created_at"`
	GoalTemplateUpdatedAt *time.Time     `gorm:"column:goal_template_updated_at;autoUpdateTime" json:"goal_template_updated_at,omitempty"`
	GoalTemplateDeletedAt gorm.DeletedAt `gorm:"column:goal_template_deleted_at;index" json:"goal_template_deleted_at,omitempty"`
}

func (GoalTemplateModel) TableName() string { return "goal_templates" }

func (m *GoalTemplateModel) BeforeCreate(tx *gorm.DB) error {
	if m.GoalTemplateID == uuid.Nil {
		m.GoalTemplateID = uuid.New()
	}
	return nil
}
