package service

import (
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	sessionModel "coachtrack_backend/internals/features/assessment/sessions/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&sessionModel.AssessmentSessionModel{},
		&sessionModel.SessionEmployeeLockModel{},
	))
	return db
}

func newLiveSession(t *testing.T, db *gorm.DB, svc *LockLedgerService, managerID uuid.UUID, employees []uuid.UUID, ttl time.Duration) *sessionModel.AssessmentSessionModel {
	t.Helper()
	now := time.Now()
	exp := now.Add(ttl)
	sorted := SortEmployeeIDs(employees)
	sess := &sessionModel.AssessmentSessionModel{
		AssessmentSessionManagerID:   managerID,
		AssessmentSessionEmployeeIDs: ToStringArray(sorted),
		AssessmentSessionDate:        now,
		AssessmentSessionStatus:      sessionModel.SessionStatusInProgress,
		AssessmentSessionLockedBy:    &managerID,
		AssessmentSessionLockedAt:    &now,
		AssessmentSessionExpiresAt:   &exp,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sess).Error; err != nil {
			return err
		}
		return svc.AcquireForSet(tx, sess, sorted)
	})
	require.NoError(t, err)
	return sess
}

func TestSortEmployeeIDs(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	c := uuid.MustParse("00000000-0000-0000-0000-00000000000c")

	got := SortEmployeeIDs([]uuid.UUID{c, a, b, a, uuid.Nil, c})
	require.Equal(t, []uuid.UUID{a, b, c}, got)
}

func TestAcquireForSet_ConflictNamesEveryCollision(t *testing.T) {
	db := newTestDB(t)
	svc := NewLockLedgerService()

	managerA := uuid.New()
	managerB := uuid.New()
	e1, e2, e3 := uuid.New(), uuid.New(), uuid.New()

	sessA := newLiveSession(t, db, svc, managerA, []uuid.UUID{e1, e2}, 30*time.Minute)

	// B mencoba {e2, e3} → konflik yang menyebut e2 + sesi/manager pemegangnya
	now := time.Now()
	exp := now.Add(30 * time.Minute)
	sessB := &sessionModel.AssessmentSessionModel{
		AssessmentSessionManagerID:   managerB,
		AssessmentSessionEmployeeIDs: ToStringArray([]uuid.UUID{e2, e3}),
		AssessmentSessionDate:        now,
		AssessmentSessionStatus:      sessionModel.SessionStatusInProgress,
		AssessmentSessionLockedBy:    &managerB,
		AssessmentSessionLockedAt:    &now,
		AssessmentSessionExpiresAt:   &exp,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sessB).Error; err != nil {
			return err
		}
		return svc.AcquireForSet(tx, sessB, []uuid.UUID{e2, e3})
	})
	require.Error(t, err)

	var conflict *LockConflictError
	require.True(t, errors.As(err, &conflict))
	require.Len(t, conflict.Conflicts, 1)
	require.Equal(t, e2, conflict.Conflicts[0].EmployeeID)
	require.Equal(t, sessA.AssessmentSessionID, conflict.Conflicts[0].SessionID)
	require.Equal(t, managerA, conflict.Conflicts[0].ManagerID)

	// transaksi rollback: sesi B dan lock-nya tidak boleh tersisa
	var count int64
	require.NoError(t, db.Model(&sessionModel.AssessmentSessionModel{}).
		Where("assessment_session_manager_id = ?", managerB).Count(&count).Error)
	require.Zero(t, count)

	// {e3} sendirian harus berhasil
	newLiveSession(t, db, svc, managerB, []uuid.UUID{e3}, 30*time.Minute)
}

func TestAcquireForSet_DisjointSetsBothLive(t *testing.T) {
	db := newTestDB(t)
	svc := NewLockLedgerService()

	newLiveSession(t, db, svc, uuid.New(), []uuid.UUID{uuid.New(), uuid.New()}, 30*time.Minute)
	newLiveSession(t, db, svc, uuid.New(), []uuid.UUID{uuid.New(), uuid.New()}, 30*time.Minute)

	var live int64
	require.NoError(t, db.Model(&sessionModel.AssessmentSessionModel{}).
		Where("assessment_session_status = ?", sessionModel.SessionStatusInProgress).
		Count(&live).Error)
	require.EqualValues(t, 2, live)
}

func TestSweepExpired_AbandonsAndReleases(t *testing.T) {
	db := newTestDB(t)
	svc := NewLockLedgerService()

	e1 := uuid.New()
	sess := newLiveSession(t, db, svc, uuid.New(), []uuid.UUID{e1}, -time.Minute) // lease sudah lewat

	swept, err := svc.SweepExpired(db, time.Now())
	require.NoError(t, err)
	require.EqualValues(t, 1, swept)

	var reloaded sessionModel.AssessmentSessionModel
	require.NoError(t, db.Where("assessment_session_id = ?", sess.AssessmentSessionID).First(&reloaded).Error)
	require.Equal(t, sessionModel.SessionStatusAbandoned, reloaded.AssessmentSessionStatus)
	require.Nil(t, reloaded.AssessmentSessionLockedBy)
	require.Nil(t, reloaded.AssessmentSessionLockedAt)
	require.Nil(t, reloaded.AssessmentSessionExpiresAt)

	var locks int64
	require.NoError(t, db.Model(&sessionModel.SessionEmployeeLockModel{}).Count(&locks).Error)
	require.Zero(t, locks)

	// idempoten
	swept, err = svc.SweepExpired(db, time.Now())
	require.NoError(t, err)
	require.Zero(t, swept)

	// karyawan bebas di-claim lagi setelah sweep
	newLiveSession(t, db, svc, uuid.New(), []uuid.UUID{e1}, 30*time.Minute)
}

func TestCheckEmployees_OwnSessionCountsAvailable(t *testing.T) {
	db := newTestDB(t)
	svc := NewLockLedgerService()

	managerA := uuid.New()
	managerB := uuid.New()
	e1, e2, e3 := uuid.New(), uuid.New(), uuid.New()

	sessA := newLiveSession(t, db, svc, managerA, []uuid.UUID{e1, e2}, 30*time.Minute)

	// dari sudut pandang pemilik: semua available
	report, err := svc.CheckEmployees(db, []uuid.UUID{e1, e2, e3}, managerA)
	require.NoError(t, err)
	require.Len(t, report.Available, 3)
	require.Empty(t, report.Locked)

	// manager lain melihat e1/e2 locked, dengan pemiliknya
	report, err = svc.CheckEmployees(db, []uuid.UUID{e1, e2, e3}, managerB)
	require.NoError(t, err)
	require.Len(t, report.Locked, 2)
	require.Len(t, report.Available, 1)
	require.Equal(t, e3, report.Available[0])
	for _, l := range report.Locked {
		require.Equal(t, managerA, l.ManagerID)
		require.Equal(t, sessA.AssessmentSessionID, l.SessionID)
	}
}

func TestCheckEmployees_SweepsExpiredFirst(t *testing.T) {
	db := newTestDB(t)
	svc := NewLockLedgerService()

	e1 := uuid.New()
	newLiveSession(t, db, svc, uuid.New(), []uuid.UUID{e1}, -time.Minute)

	report, err := svc.CheckEmployees(db, []uuid.UUID{e1}, uuid.New())
	require.NoError(t, err)
	require.Empty(t, report.Locked)
	require.Equal(t, []uuid.UUID{e1}, report.Available)
}

func TestReleaseSession_Idempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewLockLedgerService()

	sess := newLiveSession(t, db, svc, uuid.New(), []uuid.UUID{uuid.New()}, 30*time.Minute)

	require.NoError(t, svc.ReleaseSession(db, sess.AssessmentSessionID))
	require.NoError(t, svc.ReleaseSession(db, sess.AssessmentSessionID)) // sudah kosong → no-op

	var locks int64
	require.NoError(t, db.Model(&sessionModel.SessionEmployeeLockModel{}).Count(&locks).Error)
	require.Zero(t, locks)
}
