// Bulk question importer.
//
// Reads a JSON array of questions and upserts the catalog rows they reference.
// Domains must already exist (the server seeds the three PMP domains on
// migration); tasks are created on demand.
//
// Usage: go run scripts/import_questions.go -file questions.json

package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"pmp_prep_backend/internal/config"
	"pmp_prep_backend/internal/model"
	"pmp_prep_backend/pkg/database"
	"pmp_prep_backend/pkg/logger"
)

type importedQuestion struct {
	Domain      string `json:"domain"`
	Task        string `json:"task"`
	Text        string `json:"text"`
	OptionA     string `json:"optionA"`
	OptionB     string `json:"optionB"`
	OptionC     string `json:"optionC"`
	OptionD     string `json:"optionD"`
	Correct     string `json:"correct"`
	Difficulty  string `json:"difficulty,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

func main() {
	file := flag.String("file", "questions.json", "path to the question JSON file")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *file, err)
	}
	var imported []importedQuestion
	if err := json.Unmarshal(data, &imported); err != nil {
		log.Fatalf("Failed to parse %s: %v", *file, err)
	}

	domains := map[string]uint{}
	var all []model.Domain
	if err := db.Find(&all).Error; err != nil {
		log.Fatalf("Failed to load domains: %v", err)
	}
	for _, d := range all {
		domains[d.Name] = d.ID
	}

	tasks := map[string]uint{}
	inserted := 0
	for i, q := range imported {
		domainID, ok := domains[q.Domain]
		if !ok {
			log.Fatalf("entry %d: unknown domain %q", i, q.Domain)
		}

		taskKey := q.Domain + "/" + q.Task
		taskID, ok := tasks[taskKey]
		if !ok {
			task := model.Task{DomainID: domainID, Name: q.Task}
			if err := db.Where(model.Task{DomainID: domainID, Name: q.Task}).FirstOrCreate(&task).Error; err != nil {
				log.Fatalf("entry %d: task %q: %v", i, q.Task, err)
			}
			taskID = task.ID
			tasks[taskKey] = taskID
		}

		question := model.Question{
			TaskID:        taskID,
			Text:          q.Text,
			OptionA:       q.OptionA,
			OptionB:       q.OptionB,
			OptionC:       q.OptionC,
			OptionD:       q.OptionD,
			CorrectAnswer: model.NormalizeChoice(q.Correct),
			Explanation:   q.Explanation,
		}
		if q.Difficulty != "" {
			d := model.Difficulty(q.Difficulty)
			question.Difficulty = &d
		}
		if err := db.Create(&question).Error; err != nil {
			log.Fatalf("entry %d: %v", i, err)
		}
		inserted++
	}

	log.Printf("Imported %d questions across %d tasks", inserted, len(tasks))
}
