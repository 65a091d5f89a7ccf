package templates

import (
	"encoding/json"
	"log"
	"os"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	model "coachtrack_backend/internals/features/assessment/goals/model"
)

type goalTemplateSeed struct {
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Steps       json.RawMessage `json:"steps"`
}

func SeedGoalTemplatesFromJSON(db *gorm.DB, filePath string) {
	log.Println("📥 Membaca file:", filePath)

	content, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatalf("❌ Gagal baca file JSON: %v", err)
	}

	var data []goalTemplateSeed
	if err := json.Unmarshal(content, &data); err != nil {
		log.Fatalf("❌ Gagal decode JSON: %v", err)
	}

	for _, item := range data {
		var existing model.GoalTemplateModel
		if err := db.Where("goal_template_name = ?", item.Name).First(&existing).Error; err == nil {
			log.Printf("ℹ️ Template %q sudah ada, lewati...", item.Name)
			continue
		}

		record := model.GoalTemplateModel{
			GoalTemplateName:        item.Name,
			GoalTemplateDescription: item.Description,
			GoalTemplateSteps:       datatypes.JSON(item.Steps),
		}

		if err := db.Create(&record).Error; err != nil {
			log.Printf("❌ Gagal insert template %q: %v", item.Name, err)
		} else {
			log.Printf("✅ Berhasil insert template %q", item.Name)
		}
	}
}
