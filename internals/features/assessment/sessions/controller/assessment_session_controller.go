// file: internals/features/assessment/sessions/controller/assessment_session_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	sessionDTO "coachtrack_backend/internals/features/assessment/sessions/dto"
	sessionModel "coachtrack_backend/internals/features/assessment/sessions/model"
	sessionService "coachtrack_backend/internals/features/assessment/sessions/service"
	helper "coachtrack_backend/internals/helpers"
)

type AssessmentSessionController struct {
	DB        *gorm.DB
	Validator *validator.Validate
	Ledger    *sessionService.LockLedgerService
}

func NewAssessmentSessionController(db *gorm.DB) *AssessmentSessionController {
	return &AssessmentSessionController{
		DB:        db,
		Validator: validator.New(),
		Ledger:    sessionService.NewLockLedgerService(),
	}
}

/*
========================================================

	POST /assessment-sessions
	Create = acquire lock + insert sesi dalam SATU transaksi.
	Konflik → 409 dengan daftar karyawan + manager pemegangnya.
	========================================================
*/
func (ctl *AssessmentSessionController) CreateAssessmentSession(c *fiber.Ctx) error {
	managerID, err := helper.GetManagerIDFromToken(c)
	if err != nil {
		return err
	}

	var req sessionDTO.AssessmentSessionCreateRequest
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

	sorted := sessionService.SortEmployeeIDs(req.EmployeeIDs)
	if len(sorted) == 0 {
		return helper.Error(c, fiber.StatusBadRequest, "Minimal satu karyawan")
	}

	// ========== TX ==========
	tx := ctl.DB.WithContext(c.UserContext()).Begin()
	if tx.Error != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "failed to start transaction")
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[CreateSession] panic: %+v, rollback tx", r)
			tx.Rollback()
			panic(r)
		}
	}()

	// lepaskan dulu sesi-sesi yang lease-nya sudah lewat (lazy expiry)
	now := time.Now()
	if _, err := ctl.Ledger.SweepExpired(tx, now); err != nil {
		tx.Rollback()
		log.Printf("[CreateSession] sweep err: %v", err)
		return helper.Error(c, fiber.StatusInternalServerError, "failed to sweep expired sessions")
	}

	exp := now.Add(sessionModel.SessionLockTTL)
	sess := sessionModel.AssessmentSessionModel{
		AssessmentSessionManagerID:   managerID,
		AssessmentSessionEmployeeIDs: sessionService.ToStringArray(sorted),
		AssessmentSessionLocation:    req.Location,
		AssessmentSessionDate:        date,
		AssessmentSessionStatus:      sessionModel.SessionStatusInProgress,
		AssessmentSessionLockedBy:    &managerID,
		AssessmentSessionLockedAt:    &now,
		AssessmentSessionExpiresAt:   &exp,
	}
	if err := tx.Create(&sess).Error; err != nil {
		tx.Rollback()
		log.Printf("[CreateSession] insert err: %v", err)
		return helper.Error(c, fiber.StatusInternalServerError, "failed to create session")
	}

	if err := ctl.Ledger.AcquireForSet(tx, &sess, sorted); err != nil {
		tx.Rollback()
		var conflict *sessionService.LockConflictError
		if errors.As(err, &conflict) {
			log.Printf("[CreateSession] conflict: manager=%s employees=%d", managerID, len(conflict.Conflicts))
			return helper.ErrorWithDetails(c, fiber.StatusConflict,
				"Sebagian karyawan sedang dalam sesi asesmen manager lain",
				sessionDTO.ToLockConflictDetails(conflict))
		}
		log.Printf("[CreateSession] acquire err: %v", err)
		return helper.Error(c, fiber.StatusInternalServerError, "failed to acquire employee locks")
	}

	if err := tx.Commit().Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "failed to commit")
	}

	return helper.SuccessWithCode(c, fiber.StatusCreated, "Sesi asesmen dimulai",
		sessionDTO.ToAssessmentSessionResponse(&sess))
}

/*
========================================================

	POST /assessment-sessions/:id/renew
	Perpanjang lease 30 menit dari sekarang. Hanya pemilik lock.
	========================================================
*/
func (ctl *AssessmentSessionController) RenewAssessmentSession(c *fiber.Ctx) error {
	managerID, err := helper.GetManagerIDFromToken(c)
	if err != nil {
		return err
	}
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "session id tidak valid")
	}

	tx := ctl.DB.WithContext(c.UserContext()).Begin()
	if tx.Error != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "failed to start transaction")
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	now := time.Now()
	if _, err := ctl.Ledger.SweepExpired(tx, now); err != nil {
		tx.Rollback()
		return helper.Error(c, fiber.StatusInternalServerError, "failed to sweep expired sessions")
	}

	var sess sessionModel.AssessmentSessionModel
	if err := helper.ForUpdate(tx).
		Where("assessment_session_id = ?", sessionID).
		First(&sess).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "Sesi tidak ditemukan")
		}
		return helper.Error(c, fiber.StatusInternalServerError, "failed to load session")
	}
	if sess.IsTerminal() {
		tx.Rollback()
		return helper.Error(c, fiber.StatusNotFound, "Sesi sudah berakhir")
	}
	if !sess.IsOwnedBy(managerID) {
		tx.Rollback()
		return helper.Error(c, fiber.StatusForbidden, "Bukan pemilik lock sesi ini")
	}

	exp := now.Add(sessionModel.SessionLockTTL)
	if err := tx.Model(&sess).
		Update("assessment_session_expires_at", exp).Error; err != nil {
		tx.Rollback()
		return helper.Error(c, fiber.StatusInternalServerError, "failed to renew session")
	}
	sess.AssessmentSessionExpiresAt = &exp

	if err := tx.Commit().Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "failed to commit")
	}
	return helper.Success(c, "Lease sesi diperpanjang", sessionDTO.ToAssessmentSessionResponse(&sess))
}

/*
========================================================

	POST /assessment-sessions/:id/complete
	Status → completed, lock fields dibersihkan, lock rows dilepas — atomik.
	========================================================
*/
func (ctl *AssessmentSessionController) CompleteAssessmentSession(c *fiber.Ctx) error {
	managerID, err := helper.GetManagerIDFromToken(c)
	if err != nil {
		return err
	}
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "session id tidak valid")
	}

	tx := ctl.DB.WithContext(c.UserContext()).Begin()
	if tx.Error != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "failed to start transaction")
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	now := time.Now()
	if _, err := ctl.Ledger.SweepExpired(tx, now); err != nil {
		tx.Rollback()
		return helper.Error(c, fiber.StatusInternalServerError, "failed to sweep expired sessions")
	}

	var sess sessionModel.AssessmentSessionModel
	if err := helper.ForUpdate(tx).
		Where("assessment_session_id = ?", sessionID).
		First(&sess).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "Sesi tidak ditemukan")
		}
		return helper.Error(c, fiber.StatusInternalServerError, "failed to load session")
	}
	if sess.IsTerminal() {
		tx.Rollback()
		return helper.Error(c, fiber.StatusNotFound, "Sesi sudah berakhir")
	}
	if !sess.IsOwnedBy(managerID) {
		tx.Rollback()
		return helper.Error(c, fiber.StatusForbidden, "Bukan pemilik lock sesi ini")
	}

	if err := tx.Model(&sess).Updates(map[string]interface{}{
		"assessment_session_status":     sessionModel.SessionStatusCompleted,
		"assessment_session_locked_by":  nil,
		"assessment_session_locked_at":  nil,
		"assessment_session_expires_at": nil,
	}).Error; err != nil {
		tx.Rollback()
		return helper.Error(c, fiber.StatusInternalServerError, "failed to complete session")
	}
	if err := ctl.Ledger.ReleaseSession(tx, sessionID); err != nil {
		tx.Rollback()
		return helper.Error(c, fiber.StatusInternalServerError, "failed to release locks")
	}

	if err := tx.Commit().Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "failed to commit")
	}

	sess.AssessmentSessionStatus = sessionModel.SessionStatusCompleted
	sess.AssessmentSessionLockedBy = nil
	sess.AssessmentSessionLockedAt = nil
	sess.AssessmentSessionExpiresAt = nil
	return helper.Success(c, "Sesi asesmen selesai", sessionDTO.ToAssessmentSessionResponse(&sess))
}

/*
========================================================

	PUT /assessment-sessions/:id
	Set-diff karyawan: yang dihapus dilepas, yang BARU divalidasi
	ulang lewat lock ledger (perilaku versi lama tidak memvalidasi
	ulang — lubang itu ditutup di sini).
	========================================================
*/
func (ctl *AssessmentSessionController) UpdateAssessmentSession(c *fiber.Ctx) error {
	managerID, err := helper.GetManagerIDFromToken(c)
	if err != nil {
		return err
	}
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "session id tidak valid")
	}

	var req sessionDTO.AssessmentSessionUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	req.Normalize()
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	tx := ctl.DB.WithContext(c.UserContext()).Begin()
	if tx.Error != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "failed to start transaction")
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	now := time.Now()
	if _, err := ctl.Ledger.SweepExpired(tx, now); err != nil {
		tx.Rollback()
		return helper.Error(c, fiber.StatusInternalServerError, "failed to sweep expired sessions")
	}

	var sess sessionModel.AssessmentSessionModel
	if err := helper.ForUpdate(tx).
		Where("assessment_session_id = ?", sessionID).
		First(&sess).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "Sesi tidak ditemukan")
		}
		return helper.Error(c, fiber.StatusInternalServerError, "failed to load session")
	}
	if sess.AssessmentSessionStatus == sessionModel.SessionStatusAbandoned {
		tx.Rollback()
		return helper.Error(c, fiber.StatusNotFound, "Sesi sudah berakhir")
	}

	// Boleh edit: sesi completed (koreksi historis) atau pemilik lock
	isCompleted := sess.AssessmentSessionStatus == sessionModel.SessionStatusCompleted
	if !isCompleted && !sess.IsOwnedBy(managerID) {
		tx.Rollback()
		return helper.Error(c, fiber.StatusForbidden, "Bukan pemilik lock sesi ini")
	}

	updates := map[string]interface{}{}
	if req.Location != nil {
		updates["assessment_session_location"] = *req.Location
	}
	if req.Date != nil {
		date, perr := time.Parse("2006-01-02", *req.Date)
		if perr != nil {
			tx.Rollback()
			return helper.Error(c, fiber.StatusBadRequest, "Format tanggal harus YYYY-MM-DD")
		}
		updates["assessment_session_date"] = date
	}

	if req.EmployeeIDs != nil {
		newSet := sessionService.SortEmployeeIDs(req.EmployeeIDs)
		oldSet := sess.EmployeeUUIDs()
		removed, added := diffUUIDSets(oldSet, newSet)

		if !isCompleted {
			if len(removed) > 0 {
				if err := ctl.Ledger.ReleaseEmployees(tx, sessionID, removed); err != nil {
					tx.Rollback()
					return helper.Error(c, fiber.StatusInternalServerError, "failed to release removed employees")
				}
			}
			if len(added) > 0 {
				if err := ctl.Ledger.AcquireForSet(tx, &sess, added); err != nil {
					tx.Rollback()
					var conflict *sessionService.LockConflictError
					if errors.As(err, &conflict) {
						return helper.ErrorWithDetails(c, fiber.StatusConflict,
							"Karyawan yang ditambahkan sedang dalam sesi manager lain",
							sessionDTO.ToLockConflictDetails(conflict))
					}
					return helper.Error(c, fiber.StatusInternalServerError, "failed to acquire employee locks")
				}
			}
		}
		// Updates berbasis map tidak lewat serializer model, jadi encode manual
		idsJSON, jerr := json.Marshal(sessionService.ToStringArray(newSet))
		if jerr != nil {
			tx.Rollback()
			return helper.Error(c, fiber.StatusInternalServerError, "failed to encode employee ids")
		}
		updates["assessment_session_employee_ids"] = string(idsJSON)
		sess.AssessmentSessionEmployeeIDs = sessionService.ToStringArray(newSet)
	}

	if len(updates) > 0 {
		if err := tx.Model(&sess).Updates(updates).Error; err != nil {
			tx.Rollback()
			return helper.Error(c, fiber.StatusInternalServerError, "failed to update session")
		}
	}

	if err := tx.Commit().Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "failed to commit")
	}

	// reload ringan untuk response
	if err := ctl.DB.WithContext(c.UserContext()).
		Where("assessment_session_id = ?", sessionID).
		First(&sess).Error; err == nil {
		return helper.Success(c, "Sesi asesmen diperbarui", sessionDTO.ToAssessmentSessionResponse(&sess))
	}
	return helper.Success(c, "Sesi asesmen diperbarui", nil)
}

/*
========================================================

	POST /assessment-sessions/check-locks
	========================================================
*/
func (ctl *AssessmentSessionController) CheckLocks(c *fiber.Ctx) error {
	managerID, err := helper.GetManagerIDFromToken(c)
	if err != nil {
		return err
	}

	var req sessionDTO.CheckLocksRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := ctl.Validator.Struct(&req); err != nil {
		return helper.ValidationError(c, err)
	}

	report, err := ctl.Ledger.CheckEmployees(ctl.DB.WithContext(c.UserContext()), req.EmployeeIDs, managerID)
	if err != nil {
		log.Printf("[CheckLocks] err: %v", err)
		return helper.Error(c, fiber.StatusInternalServerError, "failed to check locks")
	}
	return helper.Success(c, "Status lock karyawan", report)
}

/*
========================================================

	GET /assessment-sessions/:id & GET /assessment-sessions
	========================================================
*/
func (ctl *AssessmentSessionController) GetAssessmentSessionByID(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.Error(c, fiber.StatusBadRequest, "session id tidak valid")
	}

	var sess sessionModel.AssessmentSessionModel
	if err := ctl.DB.WithContext(c.UserContext()).
		Where("assessment_session_id = ?", sessionID).
		First(&sess).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helper.Error(c, fiber.StatusNotFound, "Sesi tidak ditemukan")
		}
		return helper.Error(c, fiber.StatusInternalServerError, "failed to load session")
	}
	return helper.Success(c, "Detail sesi asesmen", sessionDTO.ToAssessmentSessionResponse(&sess))
}

func (ctl *AssessmentSessionController) ListMyAssessmentSessions(c *fiber.Ctx) error {
	managerID, err := helper.GetManagerIDFromToken(c)
	if err != nil {
		return err
	}
	paging := helper.ResolvePaging(c, 20, 100)

	q := ctl.DB.WithContext(c.UserContext()).
		Model(&sessionModel.AssessmentSessionModel{}).
		Where("assessment_session_manager_id = ?", managerID)
	if status := c.Query("status"); status != "" {
		q = q.Where("assessment_session_status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "failed to count sessions")
	}

	var rows []sessionModel.AssessmentSessionModel
	if err := q.Order("assessment_session_created_at DESC").
		Limit(paging.Limit).Offset(paging.Offset).
		Find(&rows).Error; err != nil {
		return helper.Error(c, fiber.StatusInternalServerError, "failed to list sessions")
	}

	items := make([]sessionDTO.AssessmentSessionResponse, 0, len(rows))
	for i := range rows {
		items = append(items, sessionDTO.ToAssessmentSessionResponse(&rows[i]))
	}
	return helper.Success(c, "Daftar sesi asesmen", fiber.Map{
		"items":      items,
		"pagination": helper.BuildPagination(paging, total, len(items)),
	})
}

/* ======== set-diff helper ======== */

func diffUUIDSets(oldSet, newSet []uuid.UUID) (removed, added []uuid.UUID) {
	oldMap := make(map[uuid.UUID]struct{}, len(oldSet))
	for _, id := range oldSet {
		oldMap[id] = struct{}{}
	}
	newMap := make(map[uuid.UUID]struct{}, len(newSet))
	for _, id := range newSet {
		newMap[id] = struct{}{}
	}
	for _, id := range oldSet {
		if _, ok := newMap[id]; !ok {
			removed = append(removed, id)
		}
	}
	for _, id := range newSet {
		if _, ok := oldMap[id]; !ok {
			added = append(added, id)
		}
	}
	return removed, added
}
