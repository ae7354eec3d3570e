package db

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/aironrush/assistant/internal/chat"
)

// Connect opens the database and migrates the chat tables.
func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := gdb.AutoMigrate(&chat.Session{}, &chat.Message{}, &chat.SummaryRecord{}); err != nil {
		return nil, err
	}
	return gdb, nil
}
