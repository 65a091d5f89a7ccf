// file: internals/route/index.go
package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"coachtrack_backend/internals/constants"
	goalRoute "coachtrack_backend/internals/features/assessment/goals/route"
	progressRoute "coachtrack_backend/internals/features/assessment/progress/route"
	sessionRoute "coachtrack_backend/internals/features/assessment/sessions/route"
	authMw "coachtrack_backend/internals/middlewares/auth"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	BaseRoutes(app, db)

	api := app.Group("/api", authMw.AuthMiddleware())

	// =====================
	// /api/a — surface manager (sesi, progres, goal read/assign)
	// =====================
	managerArea := api.Group("/a",
		authMw.OnlyRolesSlice(constants.RoleErrorManager("asesmen"), constants.ManagerAndAbove))
	sessionRoute.AssessmentSessionManagerRoutes(managerArea, db)
	progressRoute.StepProgressManagerRoutes(managerArea, db)
	goalRoute.GoalManagerRoutes(managerArea, db)

	// =====================
	// /api/adm — kelola template goal
	// =====================
	adminArea := api.Group("/adm",
		authMw.OnlyRolesSlice(constants.RoleErrorAdmin("template goal"), constants.AdminAndAbove))
	goalRoute.GoalAdminRoutes(adminArea, db)
}
