package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"coachtrack_backend/internals/configs"
	goalModel "coachtrack_backend/internals/features/assessment/goals/model"
	progressModel "coachtrack_backend/internals/features/assessment/progress/model"
	sessionModel "coachtrack_backend/internals/features/assessment/sessions/model"
)

var DB *gorm.DB

func ConnectDB() {
	log.Println("🔌 Koneksi ke PostgreSQL...")

	// ✅ DSN lengkap + statement_timeout
	// Catatan: kalau pakai PgBouncer, arahkan host/port ke PgBouncer dan biarkan PreferSimpleProtocol=true
	sslmode := configs.GetEnv("DB_SSLMODE", "require")
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=coachtrack&options=-c statement_timeout=3000",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"),
		sslmode,
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true, // 👍 cocok untuk PgBouncer (transaction pooling)
	}), &gorm.Config{
		Logger: configs.NewGormLogger(),
	})
	if err != nil {
		log.Fatalf("❌ Gagal konek DB: %v", err)
	}
	DB = db
	log.Println("✅ DB connected.")
}

func TunePool() {
	sqlDB, err := DB.DB()
	if err != nil {
		log.Printf("pool tune err: %v", err)
		return
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(60 * time.Second)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
}

func WarmUpQueries() {
	// jalankan ringan supaya koneksi/pool keisi & siap
	go func() {
		time.Sleep(500 * time.Millisecond) // beri waktu server naik
		if err := ping(); err != nil {
			log.Printf("warmup ping err: %v", err)
			return
		}
		var n int64
		if err := DB.Table("assessment_sessions").Count(&n).Error; err == nil {
			log.Printf("🔥 Warm-up OK (assessment_sessions=%d)", n)
		}
	}()
}

func ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// AutoMigrate hanya untuk dev; skema production dikelola migrasi eksternal.
func AutoMigrate() {
	if err := DB.AutoMigrate(
		&sessionModel.AssessmentSessionModel{},
		&sessionModel.SessionEmployeeLockModel{},
		&progressModel.StepProgressRecordModel{},
		&goalModel.GoalTemplateModel{},
		&goalModel.DevelopmentGoalModel{},
		&goalModel.GoalStepModel{},
	); err != nil {
		log.Fatalf("❌ AutoMigrate gagal: %v", err)
	}
	if err := progressModel.EnsureDraftKeyIndex(DB); err != nil {
		log.Fatalf("❌ Index natural key draft gagal: %v", err)
	}
	log.Println("✅ AutoMigrate selesai.")
}
