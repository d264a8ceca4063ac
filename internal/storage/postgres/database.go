package postgres

import (
	"fmt"
	"log"

	"github.com/VitaminP8/bookery/internal/config"
	"github.com/VitaminP8/bookery/models"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
)

var DB *gorm.DB

// GetDB возвращает глобальную переменную DB (для тестирования)
func GetDB() *gorm.DB {
	return DB
}

// InitDB подключается к базе данных PostgreSQL и устанавливает глобальную переменную DB
func InitDB(cfg config.DatabaseConfig) error {
	db, err := gorm.Open("postgres", cfg.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to the database: %w", err)
	}

	DB = db
	log.Println("Successfully connected to the database.")
	return nil
}

// Migrate создает или обновляет таблицы авторов, книг и пользователей
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database is not initialized")
	}
	if err := DB.AutoMigrate(models.All()...).Error; err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// CloseDB закрывает соединение с базой данных
func CloseDB() error {
	if DB == nil {
		return nil
	}

	err := DB.Close()
	if err != nil {
		return fmt.Errorf("failed to close the database connection: %w", err)
	}

	log.Println("Database connection closed.")
	return nil
}

// InitDBWithConnection для тестирования (позволяет инъекцию соединения БД)
func InitDBWithConnection(db *gorm.DB) {
	DB = db
}

// inTx выполняет fn в транзакции; при ошибке транзакция откатывается
func inTx(fn func(tx *gorm.DB) error) error {
	tx := DB.Begin()
	if tx.Error != nil {
		return fmt.Errorf("could not begin transaction: %w", tx.Error)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}
