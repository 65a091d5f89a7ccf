package seeds

import (
	templates "coachtrack_backend/internals/seeds/goals/templates"

	"gorm.io/gorm"
)

// RunAllSeeds dipanggil sekali saat boot kalau DB_SEED=true (dev only).
func RunAllSeeds(db *gorm.DB) {
	templates.SeedGoalTemplatesFromJSON(db, "internals/seeds/goals/templates/data_goal_templates.json")
}
