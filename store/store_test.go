package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/docqa/models"
	"github.com/cppla/docqa/testutil"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return New(testutil.NewDB(t, Models()...))
}

func TestUsersCreateAndFind(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	u := &models.User{Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, s.Users.Create(ctx, u))
	require.NotZero(t, u.ID)
	assert.False(t, u.CreatedAt.IsZero())

	byEmail, err := s.Users.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byID, err := s.Users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)

	_, err = s.Users.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Users.FindByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUsersDuplicateEmailSQLite(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Users.Create(ctx, &models.User{Email: "a@example.com", PasswordHash: "x"}))
	err := s.Users.Create(ctx, &models.User{Email: "a@example.com", PasswordHash: "y"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestUsersDuplicateEmailMySQL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `users`")).
		WillReturnError(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry 'a@example.com' for key 'idx_users_email'"})
	mock.ExpectRollback()

	err = New(db).Users.Create(context.Background(), &models.User{Email: "a@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentsFindOwned(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	alice := &models.User{Email: "alice@example.com", PasswordHash: "x"}
	bob := &models.User{Email: "bob@example.com", PasswordHash: "x"}
	require.NoError(t, s.Users.Create(ctx, alice))
	require.NoError(t, s.Users.Create(ctx, bob))

	doc := &models.Document{UserID: alice.ID, Filename: "a.txt", MimeType: "text/plain", FileSize: 5, StoragePath: "mem://a", ExtractedText: "hello"}
	require.NoError(t, s.Documents.Create(ctx, doc))
	assert.False(t, doc.UploadedAt.IsZero())

	got, err := s.Documents.FindOwned(ctx, alice.ID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.ExtractedText)

	_, err = s.Documents.FindOwned(ctx, bob.ID, doc.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Documents.FindOwned(ctx, alice.ID, doc.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHistoryListByUserOrder(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	alice := &models.User{Email: "alice@example.com", PasswordHash: "x"}
	bob := &models.User{Email: "bob@example.com", PasswordHash: "x"}
	require.NoError(t, s.Users.Create(ctx, alice))
	require.NoError(t, s.Users.Create(ctx, bob))
	doc := &models.Document{UserID: alice.ID, Filename: "a.txt", MimeType: "text/plain", StoragePath: "mem://a"}
	require.NoError(t, s.Documents.Create(ctx, doc))
	bobDoc := &models.Document{UserID: bob.ID, Filename: "b.txt", MimeType: "text/plain", StoragePath: "mem://b"}
	require.NoError(t, s.Documents.Create(ctx, bobDoc))

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	entries := []*models.QAHistory{
		{UserID: alice.ID, DocumentID: doc.ID, Question: "first", Answer: "a", CreatedAt: base},
		{UserID: alice.ID, DocumentID: doc.ID, Question: "latest", Answer: "c", CreatedAt: base.Add(time.Minute)},
		// Same timestamp as "first": the larger id sorts ahead.
		{UserID: alice.ID, DocumentID: doc.ID, Question: "tie", Answer: "b", CreatedAt: base},
		{UserID: bob.ID, DocumentID: bobDoc.ID, Question: "bob's", Answer: "d", CreatedAt: base.Add(time.Hour)},
	}
	for _, e := range entries {
		require.NoError(t, s.History.Append(ctx, e))
	}

	items, err := s.History.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	questions := make([]string, 0, len(items))
	for _, it := range items {
		questions = append(questions, it.Question)
	}
	assert.Equal(t, []string{"latest", "tie", "first"}, questions)

	empty, err := s.History.ListByUser(ctx, 12345)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
