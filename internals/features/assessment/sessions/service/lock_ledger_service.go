// file: internals/features/assessment/sessions/service/lock_ledger_service.go
package service

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	sessionModel "coachtrack_backend/internals/features/assessment/sessions/model"
)

/* ========================================================
   Lock Ledger — siapa pegang claim atas karyawan mana.

   Disiplin anti-deadlock: semua jalur yang meng-claim lebih
   dari satu karyawan WAJIB lewat SortEmployeeIDs dulu, lalu
   ambil advisory lock per-ID satu per satu dalam urutan itu.
   ======================================================== */

// EmployeeLockConflict menunjuk karyawan yang sudah di-claim sesi lain
type EmployeeLockConflict struct {
	EmployeeID uuid.UUID `gorm:"column:employee_id" json:"employee_id"`
	SessionID  uuid.UUID `gorm:"column:session_id" json:"session_id"`
	ManagerID  uuid.UUID `gorm:"column:manager_id" json:"manager_id"`
}

// LockConflictError: bukan error internal — caller harus bisa
// menampilkan pesan yang bisa diselesaikan manusia (409).
type LockConflictError struct {
	Conflicts []EmployeeLockConflict
}

func (e *LockConflictError) Error() string {
	ids := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		ids = append(ids, c.EmployeeID.String())
	}
	return fmt.Sprintf("karyawan sedang di-claim sesi lain: %s", strings.Join(ids, ", "))
}

type LockLedgerService struct{}

func NewLockLedgerService() *LockLedgerService { return &LockLedgerService{} }

// SortEmployeeIDs: dedupe + urutan kanonik ascending.
// Urutan ini satu-satunya disiplin yang mencegah dua caller dengan
// set beririsan saling deadlock (lock-ordering klasik).
func SortEmployeeIDs(in []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(in))
	out := make([]uuid.UUID, 0, len(in))
	for _, id := range in {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}

// ToStringArray konversi untuk kolom employee_ids (urutan dipertahankan)
func ToStringArray(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

// whereEmployees: filter per-karyawan. Di postgres pakai satu bind array
// (= ANY) supaya tidak meledakkan IN-list; cast uuid[] eksplisit karena
// bind-nya text[] dan kolomnya uuid. Dialect lain fallback ke IN.
func whereEmployees(tx *gorm.DB, column string, ids []uuid.UUID) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Where(column+" = ANY(?::uuid[])", pq.Array(ToStringArray(ids)))
	}
	return tx.Where(column+" IN ?", ids)
}

// advisoryLock: mutual exclusion per-karyawan, scoped ke transaksi berjalan.
// SQLite (test) single-writer, jadi cukup di postgres.
func (s *LockLedgerService) advisoryLock(tx *gorm.DB, employeeID uuid.UUID) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", employeeID.String()).Error
}

// AcquireForSet meng-claim seluruh set untuk sesi yang diberikan, atau gagal
// dengan LockConflictError yang menyebut SEMUA karyawan yang bentrok.
// Harus dipanggil di dalam transaksi; rollback transaksi = rollback claim.
func (s *LockLedgerService) AcquireForSet(tx *gorm.DB, sess *sessionModel.AssessmentSessionModel, employeeIDs []uuid.UUID) error {
	sorted := SortEmployeeIDs(employeeIDs)
	if len(sorted) == 0 {
		return fmt.Errorf("employee set kosong")
	}

	// 1) exclusion per-ID, satu per satu, urutan kanonik — SEBELUM cek konflik
	for _, id := range sorted {
		if err := s.advisoryLock(tx, id); err != nil {
			return fmt.Errorf("advisory lock %s: %w", id, err)
		}
	}

	// 2) baru cek sesi live yang sudah memegang salah satu ID
	var conflicts []EmployeeLockConflict
	err := whereEmployees(tx.Table("session_employee_locks AS l").
		Joins("JOIN assessment_sessions AS s ON s.assessment_session_id = l.session_employee_lock_session_id"),
		"l.session_employee_lock_employee_id", sorted).
		Where("s.assessment_session_status IN ?", []string{sessionModel.SessionStatusDraft, sessionModel.SessionStatusInProgress}).
		Where("s.assessment_session_deleted_at IS NULL").
		Select("l.session_employee_lock_employee_id AS employee_id, l.session_employee_lock_session_id AS session_id, l.session_employee_lock_manager_id AS manager_id").
		Scan(&conflicts).Error
	if err != nil {
		return fmt.Errorf("cek konflik lock: %w", err)
	}
	if len(conflicts) > 0 {
		return &LockConflictError{Conflicts: conflicts}
	}

	// 3) grant: satu baris lock per karyawan
	grants := make([]sessionModel.SessionEmployeeLockModel, 0, len(sorted))
	for _, id := range sorted {
		grants = append(grants, sessionModel.SessionEmployeeLockModel{
			SessionEmployeeLockSessionID:  sess.AssessmentSessionID,
			SessionEmployeeLockEmployeeID: id,
			SessionEmployeeLockManagerID:  sess.AssessmentSessionManagerID,
		})
	}
	if err := tx.Create(&grants).Error; err != nil {
		return fmt.Errorf("insert lock grants: %w", err)
	}
	return nil
}

// ReleaseSession melepas semua lock milik sesi; no-op kalau sudah tidak ada.
func (s *LockLedgerService) ReleaseSession(tx *gorm.DB, sessionID uuid.UUID) error {
	return tx.
		Where("session_employee_lock_session_id = ?", sessionID).
		Delete(&sessionModel.SessionEmployeeLockModel{}).Error
}

// ReleaseEmployees melepas sebagian karyawan dari sesi (jalur update set-diff)
func (s *LockLedgerService) ReleaseEmployees(tx *gorm.DB, sessionID uuid.UUID, employeeIDs []uuid.UUID) error {
	if len(employeeIDs) == 0 {
		return nil
	}
	return whereEmployees(tx.
		Where("session_employee_lock_session_id = ?", sessionID),
		"session_employee_lock_employee_id", employeeIDs).
		Delete(&sessionModel.SessionEmployeeLockModel{}).Error
}

// SweepExpired: transisi lazy semua sesi live yang lease-nya lewat → abandoned,
// plus lepaskan lock rows-nya. Idempoten, aman dipanggil dari jalur read manapun
// (tidak ada scheduler background — by tradeoff di desain sumber).
func (s *LockLedgerService) SweepExpired(db *gorm.DB, asOf time.Time) (int64, error) {
	var swept int64
	err := db.Transaction(func(tx *gorm.DB) error {
		var expiredIDs []uuid.UUID
		if err := tx.Model(&sessionModel.AssessmentSessionModel{}).
			Where("assessment_session_status IN ?", []string{sessionModel.SessionStatusDraft, sessionModel.SessionStatusInProgress}).
			Where("assessment_session_expires_at IS NOT NULL AND assessment_session_expires_at < ?", asOf).
			Pluck("assessment_session_id", &expiredIDs).Error; err != nil {
			return err
		}
		if len(expiredIDs) == 0 {
			return nil
		}

		res := tx.Model(&sessionModel.AssessmentSessionModel{}).
			Where("assessment_session_id IN ?", expiredIDs).
			Where("assessment_session_status IN ?", []string{sessionModel.SessionStatusDraft, sessionModel.SessionStatusInProgress}).
			Updates(map[string]interface{}{
				"assessment_session_status":     sessionModel.SessionStatusAbandoned,
				"assessment_session_locked_by":  nil,
				"assessment_session_locked_at":  nil,
				"assessment_session_expires_at": nil,
			})
		if res.Error != nil {
			return res.Error
		}
		swept = res.RowsAffected

		if err := tx.
			Where("session_employee_lock_session_id IN ?", expiredIDs).
			Delete(&sessionModel.SessionEmployeeLockModel{}).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		log.Printf("[INFO] SweepExpired: %d sesi kadaluarsa → abandoned", swept)
	}
	return swept, nil
}

/* ========================================================
   Lock status report (dipakai checkLocks & UI)
   ======================================================== */

type EmployeeLockStatus struct {
	EmployeeID uuid.UUID  `gorm:"column:employee_id" json:"employee_id"`
	SessionID  uuid.UUID  `gorm:"column:session_id" json:"session_id"`
	ManagerID  uuid.UUID  `gorm:"column:manager_id" json:"manager_id"`
	ExpiresAt  *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
}

type LockReport struct {
	Available []uuid.UUID          `json:"available"`
	Locked    []EmployeeLockStatus `json:"locked"`
}

// CheckEmployees: sweep dulu, lalu laporkan per karyawan. Sesi live milik
// manager pemanggil dihitung available (dia bisa lanjut kerja di sesinya).
func (s *LockLedgerService) CheckEmployees(db *gorm.DB, employeeIDs []uuid.UUID, managerID uuid.UUID) (*LockReport, error) {
	if _, err := s.SweepExpired(db, time.Now()); err != nil {
		return nil, fmt.Errorf("sweep expired: %w", err)
	}

	sorted := SortEmployeeIDs(employeeIDs)

	var held []EmployeeLockStatus
	err := whereEmployees(db.Table("session_employee_locks AS l").
		Joins("JOIN assessment_sessions AS s ON s.assessment_session_id = l.session_employee_lock_session_id"),
		"l.session_employee_lock_employee_id", sorted).
		Where("s.assessment_session_status IN ?", []string{sessionModel.SessionStatusDraft, sessionModel.SessionStatusInProgress}).
		Where("s.assessment_session_deleted_at IS NULL").
		Select("l.session_employee_lock_employee_id AS employee_id, l.session_employee_lock_session_id AS session_id, l.session_employee_lock_manager_id AS manager_id, s.assessment_session_expires_at AS expires_at").
		Scan(&held).Error
	if err != nil {
		return nil, err
	}

	lockedBy := make(map[uuid.UUID]EmployeeLockStatus, len(held))
	for _, h := range held {
		lockedBy[h.EmployeeID] = h
	}

	report := &LockReport{
		Available: make([]uuid.UUID, 0, len(sorted)),
		Locked:    make([]EmployeeLockStatus, 0),
	}
	for _, id := range sorted {
		h, ok := lockedBy[id]
		if !ok || h.ManagerID == managerID {
			report.Available = append(report.Available, id)
			continue
		}
		report.Locked = append(report.Locked, h)
	}
	return report, nil
}
