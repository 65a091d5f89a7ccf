// file: internals/features/assessment/progress/controller/step_progress_controller.go
package controller

import (
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	goalModel "coachtrack_backend/internals/features/assessment/goals/model"
	goalService "coachtrack_backend/internals/features/assessment/goals/service"
	progressDTO "coachtrack_backend/internals/features/assessment/progress/dto"
	progressModel "coachtrack_backend/internals/features/assessment/progress/model"
	sessionModel "coachtrack_backend/internals/features/assessment/sessions/model"
	helper "coachtrack_backend/internals/helpers"
)

type StepProgressController struct {
	DB        *gorm.DB
	Validator *validator.Validate
	Mastery   *goalService.MasteryService
}

func NewStepProgressController(db *gorm.DB) *StepProgressController {
	return &StepProgressController{
		DB:        db,
		Validator: validator.New(),
		Mastery:   goalService.NewMasteryService(),
	}
}

/*
========================================================

	POST /progress-records/draft
	Upsert by natural key (step, employee, recorder, session, date):
	manager bisa revisi jawaban sebelum submit tanpa menduplikasi baris.
	========================================================
*/
func (ctl *StepProgressController) SaveDraftProgress(c *fiber.Ctx) error {
	recorderID, err := helper.GetManagerIDFromToken(c)
	if err != nil {
		return err
	}

	var req progressDTO.SaveDraftProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	req.Normalize()
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}
	date, err := req.ParsedDate()
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Format tanggal harus YYYY-MM-DD")
	}

	db := ctl.DB.WithContext(c.UserContext())

	// step harus ada & milik goal karyawan yang sama
	var step goalModel.GoalStepModel
	if err := db.Where("goal_step_id = ?", req.GoalStepID).First(&step).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "Goal step tidak ditemukan")
		}
		return helper.Error(c, fiber.StatusInternalServerError, "failed to load goal step")
	}
	var goal goalModel.DevelopmentGoalModel
	if err := db.Where("development_goal_id = ?", step.GoalStepGoalID).First(&goal).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "failed to load goal")
	}
	if goal.DevelopmentGoalEmployeeID != req.EmployeeID {
		return helper.Error(c, fiber.StatusUnprocessableEntity, "Step ini bukan milik goal karyawan tersebut")
	}

	// kalau dicatat dalam sesi: sesi harus live & milik recorder
	if req.SessionID != nil {
		var sess sessionModel.AssessmentSessionModel
		if err := db.Where("assessment_session_id = ?", *req.SessionID).First(&sess).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return helper.Error(c, fiber.StatusNotFound, "Sesi tidak ditemukan")
			}
			return helper.Error(c, fiber.StatusInternalServerError, "failed to load session")
		}
		if sess.IsTerminal() {
			return helper.Error(c, fiber.StatusNotFound, "Sesi sudah berakhir")
		}
		if !sess.IsOwnedBy(recorderID) {
			return helper.Error(c, fiber.StatusForbidden, "Bukan pemilik lock sesi ini")
		}
	}

	var timing datatypes.JSON
	if len(req.Timing) > 0 {
		timing = datatypes.JSON(req.Timing)
	}

	// upsert by natural key, diserialisasi per key: advisory lock (postgres)
	// + transaksi, dengan unique index parsial sebagai backstop store-level.
	// Tanpa ini dua saveDraft konkuren bisa sama-sama miss di First lalu
	// sama-sama insert.
	var (
		rec     progressModel.StepProgressRecordModel
		created bool
	)
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := lockDraftKey(tx, req.GoalStepID, req.EmployeeID, recorderID, req.SessionID, req.Date); err != nil {
			return err
		}

		q := tx.Where("step_progress_record_goal_step_id = ?", req.GoalStepID).
			Where("step_progress_record_employee_id = ?", req.EmployeeID).
			Where("step_progress_record_recorder_id = ?", recorderID).
			Where("step_progress_record_date = ?", date).
			Where("step_progress_record_status = ?", progressModel.ProgressStatusDraft)
		if req.SessionID != nil {
			q = q.Where("step_progress_record_session_id = ?", *req.SessionID)
		} else {
			q = q.Where("step_progress_record_session_id IS NULL")
		}

		ferr := q.First(&rec).Error
		switch {
		case ferr == nil:
			// overwrite in place + sentuh updated_at
			if err := tx.Model(&rec).Updates(map[string]interface{}{
				"step_progress_record_outcome": req.Outcome,
				"step_progress_record_notes":   req.Notes,
				"step_progress_record_timing":  timing,
			}).Error; err != nil {
				return err
			}
			rec.StepProgressRecordOutcome = req.Outcome
			rec.StepProgressRecordNotes = req.Notes
			rec.StepProgressRecordTiming = timing
			return nil

		case errors.Is(ferr, gorm.ErrRecordNotFound):
			rec = progressModel.StepProgressRecordModel{
				StepProgressRecordGoalStepID: req.GoalStepID,
				StepProgressRecordGoalID:     goal.DevelopmentGoalID,
				StepProgressRecordEmployeeID: req.EmployeeID,
				StepProgressRecordSessionID:  req.SessionID,
				StepProgressRecordRecorderID: recorderID,
				StepProgressRecordDate:       date,
				StepProgressRecordOutcome:    req.Outcome,
				StepProgressRecordNotes:      req.Notes,
				StepProgressRecordTiming:     timing,
				StepProgressRecordStatus:     progressModel.ProgressStatusDraft,
			}
			created = true
			return tx.Create(&rec).Error

		default:
			return ferr
		}
	})
	if err != nil {
		log.Printf("[SaveDraft] upsert err: %v", err)
		return helper.Error(c, fiber.StatusInternalServerError, "failed to save draft")
	}

	if created {
		return helper.SuccessWithCode(c, fiber.StatusCreated, "Draft progres disimpan",
			progressDTO.ToStepProgressRecordResponse(&rec))
	}
	return helper.Success(c, "Draft progres diperbarui", progressDTO.ToStepProgressRecordResponse(&rec))
}

// lockDraftKey: mutual exclusion per natural key draft, scoped ke transaksi.
// SQLite single-writer, jadi cukup di postgres (pola yang sama dengan ledger).
func lockDraftKey(tx *gorm.DB, stepID, employeeID, recorderID uuid.UUID, sessionID *uuid.UUID, date string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	sess := ""
	if sessionID != nil {
		sess = sessionID.String()
	}
	key := strings.Join([]string{stepID.String(), employeeID.String(), recorderID.String(), sess, date}, "|")
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", key).Error
}

/*
========================================================

	GET /progress-records/drafts?employee_id=&session_id=&date=
	Draft di-scope ke recorder (dipakai UI untuk resume kerja).
	========================================================
*/
func (ctl *StepProgressController) ListDrafts(c *fiber.Ctx) error {
	recorderID, err := helper.GetManagerIDFromToken(c)
	if err != nil {
		return err
	}
	paging := helper.ResolvePaging(c, 50, 200)

	q := ctl.DB.WithContext(c.UserContext()).
		Model(&progressModel.StepProgressRecordModel{}).
		Where("step_progress_record_recorder_id = ?", recorderID).
		Where("step_progress_record_status = ?", progressModel.ProgressStatusDraft)

	if raw := c.Query("employee_id"); raw != "" {
		employeeID, perr := uuid.Parse(raw)
		if perr != nil {
			return helper.Error(c, fiber.StatusBadRequest, "employee_id tidak valid")
		}
		q = q.Where("step_progress_record_employee_id = ?", employeeID)
	}
	if raw := c.Query("session_id"); raw != "" {
		sessionID, perr := uuid.Parse(raw)
		if perr != nil {
			return helper.Error(c, fiber.StatusBadRequest, "session_id tidak valid")
		}
		q = q.Where("step_progress_record_session_id = ?", sessionID)
	}
	if raw := c.Query("date"); raw != "" {
		date, perr := timeParseDate(raw)
		if perr != nil {
			return helper.Error(c, fiber.StatusBadRequest, "Format tanggal harus YYYY-MM-DD")
		}
		q = q.Where("step_progress_record_date = ?", date)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "failed to count drafts")
	}

	var rows []progressModel.StepProgressRecordModel
	if err := q.Order("step_progress_record_created_at ASC").
		Limit(paging.Limit).Offset(paging.Offset).
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "failed to list drafts")
	}

	items := make([]progressDTO.StepProgressRecordResponse, 0, len(rows))
	for i := range rows {
		items = append(items, progressDTO.ToStepProgressRecordResponse(&rows[i]))
	}
	return helper.Success(c, "Daftar draft progres", fiber.Map{
		"items":      items,
		"pagination": helper.BuildPagination(paging, total, len(items)),
	})
}

/*
========================================================

	POST /progress-records/submit
	Satu-satunya tempat draft jadi permanen. Flip batch → submitted,
	lalu Mastery Engine dievaluasi per goal terdampak — SEMUA dalam
	satu transaksi (counter goal tidak boleh kena lost update).
	========================================================
*/
func (ctl *StepProgressController) SubmitProgress(c *fiber.Ctx) error {
	recorderID, err := helper.GetManagerIDFromToken(c)
	if err != nil {
		return err
	}

	var req progressDTO.SubmitProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}
	date, err := req.ParsedDate()
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Format tanggal harus YYYY-MM-DD")
	}

	// ========== TX ==========
	tx := ctl.DB.WithContext(c.UserContext()).Begin()
	if tx.Error != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "failed to start transaction")
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[SubmitProgress] panic: %+v, rollback tx", r)
			tx.Rollback()
			panic(r)
		}
	}()

	q := helper.ForUpdate(tx).
		Where("step_progress_record_employee_id = ?", req.EmployeeID).
		Where("step_progress_record_recorder_id = ?", recorderID).
		Where("step_progress_record_date = ?", date).
		Where("step_progress_record_status = ?", progressModel.ProgressStatusDraft)
	if req.SessionID != nil {
		q = q.Where("step_progress_record_session_id = ?", *req.SessionID)
	} else {
		q = q.Where("step_progress_record_session_id IS NULL")
	}

	var drafts []progressModel.StepProgressRecordModel
	if err := q.Find(&drafts).Error; err != nil {
		tx.Rollback()
		return helper.Error(c, fiber.StatusInternalServerError, "failed to load drafts")
	}
	if len(drafts) == 0 {
		tx.Rollback()
		return helper.Error(c, fiber.StatusNotFound, "Tidak ada draft progres untuk disubmit")
	}

	draftIDs := make([]uuid.UUID, 0, len(drafts))
	goalIDSet := make(map[uuid.UUID]struct{})
	for i := range drafts {
		draftIDs = append(draftIDs, drafts[i].StepProgressRecordID)
		goalIDSet[drafts[i].StepProgressRecordGoalID] = struct{}{}
	}

	if err := tx.Model(&progressModel.StepProgressRecordModel{}).
		Where("step_progress_record_id IN ?", draftIDs).
		Update("step_progress_record_status", progressModel.ProgressStatusSubmitted).Error; err != nil {
		tx.Rollback()
		log.Printf("[SubmitProgress] flip err: %v", err)
		return helper.Error(c, fiber.StatusInternalServerError, "failed to submit drafts")
	}

	// urutkan goal id biar deterministik (dan konsisten lock order antar submit)
	goalIDs := make([]uuid.UUID, 0, len(goalIDSet))
	for id := range goalIDSet {
		goalIDs = append(goalIDs, id)
	}
	sort.Slice(goalIDs, func(i, j int) bool { return goalIDs[i].String() < goalIDs[j].String() })

	evaluations := make([]goalService.GoalEvaluation, 0, len(goalIDs))
	masteredGoalIDs := make([]uuid.UUID, 0)
	for _, goalID := range goalIDs {
		eval, err := ctl.Mastery.EvaluateGoal(tx, goalID, date)
		if err != nil {
			tx.Rollback()
			log.Printf("[SubmitProgress] evaluate goal=%s err: %v", goalID, err)
			return helper.Error(c, fiber.StatusInternalServerError, "failed to evaluate goal mastery")
		}
		evaluations = append(evaluations, *eval)
		if eval.NewlyMastered {
			masteredGoalIDs = append(masteredGoalIDs, eval.GoalID)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "failed to commit")
	}

	log.Printf("[SubmitProgress] recorder=%s employee=%s submitted=%d goals=%d mastered=%d",
		recorderID, req.EmployeeID, len(draftIDs), len(goalIDs), len(masteredGoalIDs))

	return helper.Success(c, "Progres disubmit", fiber.Map{
		"submitted_count":   len(draftIDs),
		"affected_goal_ids": goalIDs,
		"mastered_goal_ids": masteredGoalIDs,
		"evaluations":       evaluations,
	})
}

func timeParseDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(raw))
}
