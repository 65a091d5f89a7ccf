// file: internals/features/assessment/goals/service/mastery_service.go
package service

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coachtrack_backend/internals/configs"
	goalModel "coachtrack_backend/internals/features/assessment/goals/model"
	progressModel "coachtrack_backend/internals/features/assessment/progress/model"
	helper "coachtrack_backend/internals/helpers"
)

/* ========================================================
   Mastery Engine — evaluasi ulang counter goal setelah submit.

   Kebijakan counting dipisah sebagai policy bernama supaya bisa
   ditukar tanpa menyentuh state machine:
   - strict_consecutive (default): pass tidak sempurna me-reset counter.
   - cumulative: pass tidak sempurna membiarkan counter (perilaku
     aplikasi lama — "consecutive" yang tidak pernah reset).
   ======================================================== */

type CountingPolicy string

const (
	CountingPolicyStrictConsecutive CountingPolicy = "strict_consecutive"
	CountingPolicyCumulative        CountingPolicy = "cumulative"
)

const DefaultMasteryThreshold = 3

type MasteryPolicy struct {
	Counting  CountingPolicy
	Threshold int
}

// Apply menghitung nilai counter berikutnya dari satu hasil evaluasi pass.
func (p MasteryPolicy) Apply(current int, perfectPass bool) int {
	if perfectPass {
		return current + 1
	}
	if p.Counting == CountingPolicyCumulative {
		return current
	}
	return 0
}

// PolicyFromEnv membaca MASTERY_COUNTING_POLICY & MASTERY_THRESHOLD.
func PolicyFromEnv() MasteryPolicy {
	p := MasteryPolicy{
		Counting:  CountingPolicyStrictConsecutive,
		Threshold: DefaultMasteryThreshold,
	}
	switch CountingPolicy(configs.GetEnv("MASTERY_COUNTING_POLICY", string(CountingPolicyStrictConsecutive))) {
	case CountingPolicyCumulative:
		p.Counting = CountingPolicyCumulative
	case CountingPolicyStrictConsecutive:
		p.Counting = CountingPolicyStrictConsecutive
	default:
		log.Println("[WARN] MASTERY_COUNTING_POLICY tidak dikenal, pakai strict_consecutive")
	}
	if raw := configs.GetEnv("MASTERY_THRESHOLD", ""); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			p.Threshold = n
		}
	}
	return p
}

type MasteryService struct {
	Policy MasteryPolicy
}

func NewMasteryService() *MasteryService {
	return &MasteryService{Policy: PolicyFromEnv()}
}

func NewMasteryServiceWithPolicy(p MasteryPolicy) *MasteryService {
	return &MasteryService{Policy: p}
}

// GoalEvaluation: hasil satu evaluasi untuk satu goal
type GoalEvaluation struct {
	GoalID        uuid.UUID `json:"goal_id"`
	PerfectPass   bool      `json:"perfect_pass"`
	Counter       int       `json:"counter"`
	NewlyMastered bool      `json:"newly_mastered"`
}

// EvaluateGoal harus dipanggil di DALAM transaksi submit, supaya update counter
// (read-modify-write dengan row lock) atomik terhadap baris yang baru submitted —
// tanpa ini dua submit konkuren untuk karyawan sama bisa saling menimpa counter.
//
// Evaluasi kumulatif atas SELURUH bukti submitted historis goal ini, bukan hanya
// batch pemicu: submit ulang data lama yang dikoreksi bisa membalik state mastery.
func (s *MasteryService) EvaluateGoal(tx *gorm.DB, goalID uuid.UUID, submissionDate time.Time) (*GoalEvaluation, error) {
	var goal goalModel.DevelopmentGoalModel
	if err := helper.ForUpdate(tx).
		Where("development_goal_id = ?", goalID).
		First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("goal %s tidak ditemukan", goalID)
		}
		return nil, err
	}

	eval := &GoalEvaluation{
		GoalID:  goal.DevelopmentGoalID,
		Counter: goal.DevelopmentGoalConsecutiveAllCorrect,
	}

	// goal yang sudah keluar dari pool aktif tidak dievaluasi lagi
	if !goal.IsActive() {
		return eval, nil
	}

	var requiredStepIDs []uuid.UUID
	if err := tx.Model(&goalModel.GoalStepModel{}).
		Where("goal_step_goal_id = ?", goal.DevelopmentGoalID).
		Where("goal_step_is_required = ?", true).
		Pluck("goal_step_id", &requiredStepIDs).Error; err != nil {
		return nil, err
	}
	if len(requiredStepIDs) == 0 {
		// goal tanpa required step tidak pernah dianggap pass
		return eval, nil
	}

	var satisfied int64
	if err := tx.Model(&progressModel.StepProgressRecordModel{}).
		Distinct("step_progress_record_goal_step_id").
		Where("step_progress_record_goal_id = ?", goal.DevelopmentGoalID).
		Where("step_progress_record_employee_id = ?", goal.DevelopmentGoalEmployeeID).
		Where("step_progress_record_status = ?", progressModel.ProgressStatusSubmitted).
		Where("step_progress_record_outcome = ?", progressModel.OutcomeCorrect).
		Where("step_progress_record_goal_step_id IN ?", requiredStepIDs).
		Count(&satisfied).Error; err != nil {
		return nil, err
	}

	eval.PerfectPass = satisfied == int64(len(requiredStepIDs))
	next := s.Policy.Apply(goal.DevelopmentGoalConsecutiveAllCorrect, eval.PerfectPass)

	updates := map[string]interface{}{
		"development_goal_consecutive_all_correct": next,
	}

	if !goal.DevelopmentGoalMasteryAchieved && next >= s.Policy.Threshold {
		eval.NewlyMastered = true
		updates["development_goal_mastery_achieved"] = true
		updates["development_goal_mastery_date"] = submissionDate
		updates["development_goal_status"] = goalModel.GoalStatusCompleted
		log.Printf("[INFO] Mastery tercapai: goal=%s counter=%d", goal.DevelopmentGoalID, next)
	}

	if next != goal.DevelopmentGoalConsecutiveAllCorrect || eval.NewlyMastered {
		if err := tx.Model(&goalModel.DevelopmentGoalModel{}).
			Where("development_goal_id = ?", goal.DevelopmentGoalID).
			Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	eval.Counter = next
	return eval, nil
}
