package service

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	goalModel "coachtrack_backend/internals/features/assessment/goals/model"
	progressModel "coachtrack_backend/internals/features/assessment/progress/model"
)

func TestMasteryPolicyApply(t *testing.T) {
	strict := MasteryPolicy{Counting: CountingPolicyStrictConsecutive, Threshold: 3}
	cumulative := MasteryPolicy{Counting: CountingPolicyCumulative, Threshold: 3}

	tests := []struct {
		name        string
		policy      MasteryPolicy
		current     int
		perfectPass bool
		want        int
	}{
		{"strict: perfect menambah", strict, 1, true, 2},
		{"strict: tidak sempurna me-reset", strict, 2, false, 0},
		{"strict: reset dari nol tetap nol", strict, 0, false, 0},
		{"cumulative: perfect menambah", cumulative, 1, true, 2},
		{"cumulative: tidak sempurna membiarkan counter", cumulative, 2, false, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Apply(tt.current, tt.perfectPass); got != tt.want {
				t.Errorf("Apply(%d, %v) = %d, want %d", tt.current, tt.perfectPass, got, tt.want)
			}
		})
	}
}

func newMasteryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&goalModel.DevelopmentGoalModel{},
		&goalModel.GoalStepModel{},
		&progressModel.StepProgressRecordModel{},
	))
	return db
}

// seedGoal membuat satu goal aktif dengan step required + satu step opsional.
func seedGoal(t *testing.T, db *gorm.DB, requiredSteps int) (*goalModel.DevelopmentGoalModel, []uuid.UUID) {
	t.Helper()
	goal := &goalModel.DevelopmentGoalModel{
		DevelopmentGoalEmployeeID: uuid.New(),
		DevelopmentGoalName:       "Menyortir komponen sesuai label",
		DevelopmentGoalStatus:     goalModel.GoalStatusActive,
	}
	require.NoError(t, db.Create(goal).Error)

	stepIDs := make([]uuid.UUID, 0, requiredSteps)
	for i := 0; i < requiredSteps; i++ {
		step := &goalModel.GoalStepModel{
			GoalStepGoalID:     goal.DevelopmentGoalID,
			GoalStepOrder:      i + 1,
			GoalStepName:       "Step " + uuid.NewString()[:8],
			GoalStepIsRequired: true,
		}
		require.NoError(t, db.Create(step).Error)
		stepIDs = append(stepIDs, step.GoalStepID)
	}
	optional := &goalModel.GoalStepModel{
		GoalStepGoalID:     goal.DevelopmentGoalID,
		GoalStepOrder:      requiredSteps + 1,
		GoalStepName:       "Step opsional",
		GoalStepIsRequired: false,
	}
	require.NoError(t, db.Create(optional).Error)
	return goal, stepIDs
}

func submitRecord(t *testing.T, db *gorm.DB, goal *goalModel.DevelopmentGoalModel, stepID uuid.UUID, outcome string, date time.Time) {
	t.Helper()
	rec := &progressModel.StepProgressRecordModel{
		StepProgressRecordGoalStepID: stepID,
		StepProgressRecordGoalID:     goal.DevelopmentGoalID,
		StepProgressRecordEmployeeID: goal.DevelopmentGoalEmployeeID,
		StepProgressRecordRecorderID: uuid.New(),
		StepProgressRecordDate:       date,
		StepProgressRecordOutcome:    outcome,
		StepProgressRecordStatus:     progressModel.ProgressStatusSubmitted,
	}
	require.NoError(t, db.Create(rec).Error)
}

func evaluate(t *testing.T, db *gorm.DB, svc *MasteryService, goalID uuid.UUID, date time.Time) *GoalEvaluation {
	t.Helper()
	var eval *GoalEvaluation
	err := db.Transaction(func(tx *gorm.DB) error {
		var e error
		eval, e = svc.EvaluateGoal(tx, goalID, date)
		return e
	})
	require.NoError(t, err)
	return eval
}

func TestEvaluateGoal_PerfectPassIncrementsCounter(t *testing.T) {
	db := newMasteryTestDB(t)
	svc := NewMasteryServiceWithPolicy(MasteryPolicy{Counting: CountingPolicyStrictConsecutive, Threshold: 3})
	goal, steps := seedGoal(t, db, 2)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	for _, s := range steps {
		submitRecord(t, db, goal, s, progressModel.OutcomeCorrect, date)
	}

	eval := evaluate(t, db, svc, goal.DevelopmentGoalID, date)
	require.True(t, eval.PerfectPass)
	require.Equal(t, 1, eval.Counter)
	require.False(t, eval.NewlyMastered)

	var reloaded goalModel.DevelopmentGoalModel
	require.NoError(t, db.First(&reloaded, "development_goal_id = ?", goal.DevelopmentGoalID).Error)
	require.Equal(t, 1, reloaded.DevelopmentGoalConsecutiveAllCorrect)
	require.False(t, reloaded.DevelopmentGoalMasteryAchieved)
}

func TestEvaluateGoal_MissingRequiredStepIsNotPerfect(t *testing.T) {
	db := newMasteryTestDB(t)
	svc := NewMasteryServiceWithPolicy(MasteryPolicy{Counting: CountingPolicyStrictConsecutive, Threshold: 3})
	goal, steps := seedGoal(t, db, 2)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	// mulai dari counter 2, lalu ada step required yang verbal_prompt
	require.NoError(t, db.Model(&goalModel.DevelopmentGoalModel{}).
		Where("development_goal_id = ?", goal.DevelopmentGoalID).
		Update("development_goal_consecutive_all_correct", 2).Error)

	submitRecord(t, db, goal, steps[0], progressModel.OutcomeCorrect, date)
	submitRecord(t, db, goal, steps[1], progressModel.OutcomeVerbalPrompt, date)

	eval := evaluate(t, db, svc, goal.DevelopmentGoalID, date)
	require.False(t, eval.PerfectPass)
	require.Equal(t, 0, eval.Counter, "strict_consecutive harus me-reset")
}

func TestEvaluateGoal_CumulativeKeepsCounterOnImperfect(t *testing.T) {
	db := newMasteryTestDB(t)
	svc := NewMasteryServiceWithPolicy(MasteryPolicy{Counting: CountingPolicyCumulative, Threshold: 3})
	goal, steps := seedGoal(t, db, 2)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.Model(&goalModel.DevelopmentGoalModel{}).
		Where("development_goal_id = ?", goal.DevelopmentGoalID).
		Update("development_goal_consecutive_all_correct", 2).Error)

	submitRecord(t, db, goal, steps[0], progressModel.OutcomeCorrect, date)

	eval := evaluate(t, db, svc, goal.DevelopmentGoalID, date)
	require.False(t, eval.PerfectPass)
	require.Equal(t, 2, eval.Counter)
}

func TestEvaluateGoal_ThresholdFlipsMasteryOnce(t *testing.T) {
	db := newMasteryTestDB(t)
	svc := NewMasteryServiceWithPolicy(MasteryPolicy{Counting: CountingPolicyStrictConsecutive, Threshold: 3})
	goal, steps := seedGoal(t, db, 1)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.Model(&goalModel.DevelopmentGoalModel{}).
		Where("development_goal_id = ?", goal.DevelopmentGoalID).
		Update("development_goal_consecutive_all_correct", 2).Error)

	submitRecord(t, db, goal, steps[0], progressModel.OutcomeCorrect, date)

	eval := evaluate(t, db, svc, goal.DevelopmentGoalID, date)
	require.True(t, eval.PerfectPass)
	require.Equal(t, 3, eval.Counter)
	require.True(t, eval.NewlyMastered)

	var reloaded goalModel.DevelopmentGoalModel
	require.NoError(t, db.First(&reloaded, "development_goal_id = ?", goal.DevelopmentGoalID).Error)
	require.True(t, reloaded.DevelopmentGoalMasteryAchieved)
	require.NotNil(t, reloaded.DevelopmentGoalMasteryDate)
	require.Equal(t, goalModel.GoalStatusCompleted, reloaded.DevelopmentGoalStatus)
	firstMasteryDate := *reloaded.DevelopmentGoalMasteryDate

	// evaluasi berikutnya: goal sudah completed → counter & mastery_date tidak berubah
	later := date.AddDate(0, 0, 7)
	eval = evaluate(t, db, svc, goal.DevelopmentGoalID, later)
	require.False(t, eval.NewlyMastered)
	require.Equal(t, 3, eval.Counter)

	require.NoError(t, db.First(&reloaded, "development_goal_id = ?", goal.DevelopmentGoalID).Error)
	require.NotNil(t, reloaded.DevelopmentGoalMasteryDate)
	require.Equal(t, firstMasteryDate, *reloaded.DevelopmentGoalMasteryDate, "mastery_date tidak boleh di-stempel ulang")
}

func TestEvaluateGoal_DraftRecordsDoNotCount(t *testing.T) {
	db := newMasteryTestDB(t)
	svc := NewMasteryServiceWithPolicy(MasteryPolicy{Counting: CountingPolicyStrictConsecutive, Threshold: 3})
	goal, steps := seedGoal(t, db, 1)
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	rec := &progressModel.StepProgressRecordModel{
		StepProgressRecordGoalStepID: steps[0],
		StepProgressRecordGoalID:     goal.DevelopmentGoalID,
		StepProgressRecordEmployeeID: goal.DevelopmentGoalEmployeeID,
		StepProgressRecordRecorderID: uuid.New(),
		StepProgressRecordDate:       date,
		StepProgressRecordOutcome:    progressModel.OutcomeCorrect,
		StepProgressRecordStatus:     progressModel.ProgressStatusDraft,
	}
	require.NoError(t, db.Create(rec).Error)

	eval := evaluate(t, db, svc, goal.DevelopmentGoalID, date)
	require.False(t, eval.PerfectPass)
	require.Equal(t, 0, eval.Counter)
}

func TestEvaluateGoal_NoRequiredStepsNeverPasses(t *testing.T) {
	db := newMasteryTestDB(t)
	svc := NewMasteryServiceWithPolicy(MasteryPolicy{Counting: CountingPolicyStrictConsecutive, Threshold: 3})
	goal, _ := seedGoal(t, db, 0) // hanya step opsional

	eval := evaluate(t, db, svc, goal.DevelopmentGoalID, time.Now())
	require.False(t, eval.PerfectPass)
	require.Equal(t, 0, eval.Counter)
}
