package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	goalModel "coachtrack_backend/internals/features/assessment/goals/model"
)

func newGoalTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&goalModel.GoalTemplateModel{},
		&goalModel.DevelopmentGoalModel{},
		&goalModel.GoalStepModel{},
	))
	return db
}

func newGoalTestApp(db *gorm.DB) *fiber.App {
	app := fiber.New()
	ctl := &GoalController{DB: db, Validator: validator.New()}
	app.Post("/goal-templates", ctl.CreateGoalTemplate)
	app.Get("/goal-templates", ctl.ListGoalTemplates)
	app.Post("/development-goals/assign", ctl.AssignGoal)
	app.Get("/development-goals", ctl.ListGoals)
	return app
}

func goalDoJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var envelope map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp, envelope
}

func TestAssignGoal_MaterializesTemplateSteps(t *testing.T) {
	db := newGoalTestDB(t)
	app := newGoalTestApp(db)

	resp, envelope := goalDoJSON(t, app, "POST", "/goal-templates", fiber.Map{
		"name": "Memanggil rekan kerja dengan nama",
		"steps": []fiber.Map{
			{"name": "Kontak mata", "is_required": true},
			{"name": "Menyebut nama", "is_required": true},
			{"name": "Variasi intonasi", "is_required": false},
		},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, "envelope: %v", envelope)
	tplData := envelope["data"].(map[string]interface{})
	templateID := tplData["goal_template_id"].(string)

	employeeID := uuid.New()
	resp, envelope = goalDoJSON(t, app, "POST", "/development-goals/assign", fiber.Map{
		"template_id": templateID,
		"employee_id": employeeID,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, "envelope: %v", envelope)

	var goal goalModel.DevelopmentGoalModel
	require.NoError(t, db.Preload("Steps").
		First(&goal, "development_goal_employee_id = ?", employeeID).Error)
	require.Equal(t, goalModel.GoalStatusActive, goal.DevelopmentGoalStatus)
	require.Equal(t, "Memanggil rekan kerja dengan nama", goal.DevelopmentGoalName)
	require.Zero(t, goal.DevelopmentGoalConsecutiveAllCorrect)
	require.Len(t, goal.Steps, 3)

	// urutan step terisi dari Normalize (1..n) dan flag required dipertahankan
	required := 0
	for _, s := range goal.Steps {
		require.NotZero(t, s.GoalStepOrder)
		if s.GoalStepIsRequired {
			required++
		}
	}
	require.Equal(t, 2, required)
}

func TestListGoalTemplates_SurvivesMalformedSteps(t *testing.T) {
	db := newGoalTestDB(t)
	app := newGoalTestApp(db)

	require.NoError(t, db.Create(&goalModel.GoalTemplateModel{
		GoalTemplateName:  "Template korup",
		GoalTemplateSteps: datatypes.JSON("bukan-json"),
	}).Error)

	resp, envelope := goalDoJSON(t, app, "GET", "/goal-templates", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := envelope["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	require.Equal(t, "Template korup", item["goal_template_name"])
	require.Nil(t, item["goal_template_steps"])
}

func TestAssignGoal_UnknownTemplateIsNotFound(t *testing.T) {
	db := newGoalTestDB(t)
	app := newGoalTestApp(db)

	resp, _ := goalDoJSON(t, app, "POST", "/development-goals/assign", fiber.Map{
		"template_id": uuid.New(),
		"employee_id": uuid.New(),
	})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestListGoals_FiltersByEmployeeAndStatus(t *testing.T) {
	db := newGoalTestDB(t)
	app := newGoalTestApp(db)

	employeeID := uuid.New()
	for _, status := range []string{goalModel.GoalStatusActive, goalModel.GoalStatusCompleted} {
		require.NoError(t, db.Create(&goalModel.DevelopmentGoalModel{
			DevelopmentGoalEmployeeID: employeeID,
			DevelopmentGoalName:       "Goal " + status,
			DevelopmentGoalStatus:     status,
		}).Error)
	}
	// goal karyawan lain tidak boleh ikut
	require.NoError(t, db.Create(&goalModel.DevelopmentGoalModel{
		DevelopmentGoalEmployeeID: uuid.New(),
		DevelopmentGoalName:       "Goal orang lain",
		DevelopmentGoalStatus:     goalModel.GoalStatusActive,
	}).Error)

	resp, envelope := goalDoJSON(t, app, "GET",
		"/development-goals?employee_id="+employeeID.String()+"&status=active", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := envelope["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	require.Equal(t, "Goal active", item["development_goal_name"])
}
