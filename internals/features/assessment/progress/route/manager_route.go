package route

import (
	progressCtrl "coachtrack_backend/internals/features/assessment/progress/controller"
	middlewares "coachtrack_backend/internals/middlewares"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func StepProgressManagerRoutes(r fiber.Router, db *gorm.DB) {
	ctl := progressCtrl.NewStepProgressController(db)

	pGroup := r.Group("/progress-records")
	pGroup.Post("/draft", ctl.SaveDraftProgress)
	pGroup.Get("/drafts", ctl.ListDrafts)
	pGroup.Post("/submit", middlewares.SubmitRateLimiter(), ctl.SubmitProgress)
}
