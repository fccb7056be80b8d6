package database

import (
	"fmt"
	"log"

	"pmp_prep_backend/internal/config"
	"pmp_prep_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Domain{},
		&model.Task{},
		&model.Question{},
		&model.ExamSession{},
		&model.ExamAnswer{},
		&model.ExamReport{},
		&model.ExamBehaviorProfile{},
		&model.PracticeAttempt{},
	)
	if err != nil {
		return err
	}

	log.Println("Database migration completed")
	return seedDomains(db)
}

// seedDomains inserts the three ECO performance domains with their published
// exam weights. Idempotent: skipped when any domain rows already exist.
func seedDomains(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Domain{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []model.Domain{
		{Name: "People", Weight: 0.33, DisplayOrder: 1},
		{Name: "Process", Weight: 0.41, DisplayOrder: 2},
		{Name: "Business Environment", Weight: 0.26, DisplayOrder: 3},
	}
	for i := range defaults {
		if err := db.Create(&defaults[i]).Error; err != nil {
			return err
		}
	}
	log.Println("Seeded default exam domains")
	return nil
}
