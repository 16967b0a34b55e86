// Package store persists users, documents and question history through gorm.
package store

import (
	"errors"
	"strings"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/cppla/docqa/models"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Models lists every table for AutoMigrate, parents first.
func Models() []interface{} {
	return []interface{}{&models.User{}, &models.Document{}, &models.QAHistory{}}
}

// Store groups the repositories sharing one connection.
type Store struct {
	Users     *Users
	Documents *Documents
	History   *History
}

// New wraps db.
func New(db *gorm.DB) *Store {
	return &Store{
		Users:     &Users{db: db},
		Documents: &Documents{db: db},
		History:   &History{db: db},
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// isDuplicate recognises unique violations whether or not the dialector
// translated them.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
