package route

import (
	sessCtrl "coachtrack_backend/internals/features/assessment/sessions/controller"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func AssessmentSessionManagerRoutes(r fiber.Router, db *gorm.DB) {
	ctl := sessCtrl.NewAssessmentSessionController(db)

	// =====================
	// Assessment Sessions
	// =====================
	sGroup := r.Group("/assessment-sessions")
	sGroup.Post("/", ctl.CreateAssessmentSession)
	sGroup.Get("/", ctl.ListMyAssessmentSessions)
	sGroup.Post("/check-locks", ctl.CheckLocks)
	sGroup.Get("/:id", ctl.GetAssessmentSessionByID)
	sGroup.Put("/:id", ctl.UpdateAssessmentSession)
	sGroup.Post("/:id/renew", ctl.RenewAssessmentSession)
	sGroup.Post("/:id/complete", ctl.CompleteAssessmentSession)
}
