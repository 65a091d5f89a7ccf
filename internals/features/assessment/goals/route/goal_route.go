package route

import (
	goalCtrl "coachtrack_backend/internals/features/assessment/goals/controller"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GoalManagerRoutes: surface read/assign untuk manager
func GoalManagerRoutes(r fiber.Router, db *gorm.DB) {
	ctl := goalCtrl.NewGoalController(db)

	gGroup := r.Group("/development-goals")
	gGroup.Get("/", ctl.ListGoals)
	gGroup.Post("/assign", ctl.AssignGoal)
}

// GoalAdminRoutes: kelola template goal
func GoalAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctl := goalCtrl.NewGoalController(db)

	tGroup := r.Group("/goal-templates")
	tGroup.Post("/", ctl.CreateGoalTemplate)
	tGroup.Get("/", ctl.ListGoalTemplates)
}
