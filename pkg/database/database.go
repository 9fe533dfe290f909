package database

import (
	"edu_quiz_backend/internal/config"
	"edu_quiz_backend/internal/model"
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.Charset,
		cfg.Database.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	// release 模式默认跳过自动迁移，-migrate / -migrate-only 强制执行
	if cfg.ForceMigrate || cfg.Server.Mode != "release" {
		if err := Migrate(db); err != nil {
			return nil, err
		}
		log.Println("Database migration completed")
	}

	return db, nil
}

// Migrate 单独导出，测试可对内存库复用同一份建表逻辑
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Batch{},
		&model.Subject{},
		&model.Topic{},
		&model.Quiz{},
		&model.Question{},
		&model.Attempt{},
		&model.AttemptCounter{},
		&model.TopicProgress{},
	)
}
