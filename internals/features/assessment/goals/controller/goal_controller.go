// file: internals/features/assessment/goals/controller/goal_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	goalDTO "coachtrack_backend/internals/features/assessment/goals/dto"
	goalModel "coachtrack_backend/internals/features/assessment/goals/model"
	helper "coachtrack_backend/internals/helpers"
)

type GoalController struct {
	DB        *gorm.DB
	Validator *validator.Validate
}

func NewGoalController(db *gorm.DB) *GoalController {
	return &GoalController{DB: db, Validator: validator.New()}
}

/*
========================================================

	POST /goal-templates  (admin)
	========================================================
*/
func (ctl *GoalController) CreateGoalTemplate(c *fiber.Ctx) error {
	var req goalDTO.GoalTemplateCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	req.Normalize()
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	stepsJSON, err := json.Marshal(req.Steps)
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Step definitions tidak valid")
	}

	tpl := goalModel.GoalTemplateModel{
		GoalTemplateName:        req.Name,
		GoalTemplateDescription: req.Description,
		GoalTemplateSteps:       datatypes.JSON(stepsJSON),
	}
	if err := ctl.DB.WithContext(c.UserContext()).Create(&tpl).Error; err != nil {
		log.Printf("[CreateGoalTemplate] insert err: %v", err)
		return helper.Error(c, fiber.StatusInternalServerError, "failed to create template")
	}

	return helper.SuccessWithCode(c, fiber.StatusCreated, "Template goal dibuat", goalDTO.GoalTemplateResponse{
		ID:          tpl.GoalTemplateID,
		Name:        tpl.GoalTemplateName,
		Description: tpl.GoalTemplateDescription,
		Steps:       req.Steps,
		CreatedAt:   tpl.GoalTemplateCreatedAt,
	})
}

/*
========================================================

	GET /goal-templates
	========================================================
*/
func (ctl *GoalController) ListGoalTemplates(c *fiber.Ctx) error {
	paging := helper.ResolvePaging(c, 20, 100)

	var total int64
	if err := ctl.DB.WithContext(c.UserContext()).
		Model(&goalModel.GoalTemplateModel{}).Count(&total).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "failed to count templates")
	}

	var rows []goalModel.GoalTemplateModel
	if err := ctl.DB.WithContext(c.UserContext()).
		Order("goal_template_created_at DESC").
		Limit(paging.Limit).Offset(paging.Offset).
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "failed to list templates")
	}

	items := make([]goalDTO.GoalTemplateResponse, 0, len(rows))
	for i := range rows {
		var steps []goalDTO.GoalTemplateStepDef
		if err := json.Unmarshal(rows[i].GoalTemplateSteps, &steps); err != nil {
			log.Printf("[ListGoalTemplates] template=%s steps rusak: %v", rows[i].GoalTemplateID, err)
		}
		items = append(items, goalDTO.GoalTemplateResponse{
			ID:          rows[i].GoalTemplateID,
			Name:        rows[i].GoalTemplateName,
			Description: rows[i].GoalTemplateDescription,
			Steps:       steps,
			CreatedAt:   rows[i].GoalTemplateCreatedAt,
		})
	}
	return helper.Success(c, "Daftar template goal", fiber.Map{
		"items":      items,
		"pagination": helper.BuildPagination(paging, total, len(items)),
	})
}

/*
========================================================

	POST /development-goals/assign
	Materialisasi template → goal instance + goal_steps, satu transaksi.
	========================================================
*/
func (ctl *GoalController) AssignGoal(c *fiber.Ctx) error {
	var req goalDTO.AssignGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	var tpl goalModel.GoalTemplateModel
	if err := ctl.DB.WithContext(c.UserContext()).
		Where("goal_template_id = ?", req.TemplateID).
		First(&tpl).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "Template tidak ditemukan")
		}
		return helper.Error(c, fiber.StatusInternalServerError, "failed to load template")
	}

	var stepDefs []goalDTO.GoalTemplateStepDef
	if err := json.Unmarshal(tpl.GoalTemplateSteps, &stepDefs); err != nil || len(stepDefs) == 0 {
		return helper.Error(c, fiber.StatusUnprocessableEntity, "Template tidak punya step definitions yang valid")
	}

	var goal goalModel.DevelopmentGoalModel
	err := ctl.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		goal = goalModel.DevelopmentGoalModel{
			DevelopmentGoalEmployeeID:  req.EmployeeID,
			DevelopmentGoalTemplateID:  &tpl.GoalTemplateID,
			DevelopmentGoalName:        tpl.GoalTemplateName,
			DevelopmentGoalDescription: tpl.GoalTemplateDescription,
			DevelopmentGoalStatus:      goalModel.GoalStatusActive,
		}
		if err := tx.Create(&goal).Error; err != nil {
			return err
		}

		steps := make([]goalModel.GoalStepModel, 0, len(stepDefs))
		for _, def := range stepDefs {
			steps = append(steps, goalModel.GoalStepModel{
				GoalStepGoalID:     goal.DevelopmentGoalID,
				GoalStepOrder:      def.Order,
				GoalStepName:       def.Name,
				GoalStepPrompt:     def.Prompt,
				GoalStepIsRequired: def.IsRequired,
			})
		}
		return tx.Create(&steps).Error
	})
	if err != nil {
		log.Printf("[AssignGoal] err: %v", err)
		return helper.Error(c, fiber.StatusInternalServerError, "failed to assign goal")
	}

	// ambil lagi dengan steps untuk response
	if err := ctl.DB.WithContext(c.UserContext()).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("goal_step_order ASC") }).
		Where("development_goal_id = ?", goal.DevelopmentGoalID).
		First(&goal).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "failed to reload goal")
	}

	return helper.SuccessWithCode(c, fiber.StatusCreated, "Goal di-assign ke karyawan",
		goalDTO.ToDevelopmentGoalResponse(&goal))
}

/*
========================================================

	GET /development-goals?employee_id=&status=
	========================================================
*/
func (ctl *GoalController) ListGoals(c *fiber.Ctx) error {
	paging := helper.ResolvePaging(c, 20, 100)

	q := ctl.DB.WithContext(c.UserContext()).Model(&goalModel.DevelopmentGoalModel{})
	if raw := c.Query("employee_id"); raw != "" {
		employeeID, err := uuid.Parse(raw)
		if err != nil {
			return helper.Error(c, fiber.StatusBadRequest, "employee_id tidak valid")
		}
		q = q.Where("development_goal_employee_id = ?", employeeID)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("development_goal_status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "failed to count goals")
	}

	var rows []goalModel.DevelopmentGoalModel
	if err := q.
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("goal_step_order ASC") }).
		Order("development_goal_created_at DESC").
		Limit(paging.Limit).Offset(paging.Offset).
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "failed to list goals")
	}

	items := make([]goalDTO.DevelopmentGoalResponse, 0, len(rows))
	for i := range rows {
		items = append(items, goalDTO.ToDevelopmentGoalResponse(&rows[i]))
	}
	return helper.Success(c, "Daftar development goal", fiber.Map{
		"items":      items,
		"pagination": helper.BuildPagination(paging, total, len(items)),
	})
}
