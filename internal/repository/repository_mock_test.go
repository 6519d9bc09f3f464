package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func TestTaskRepository_ListCountError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "tasks"`).
		WillReturnError(errors.New("connection reset"))

	_, _, err := NewTaskRepository(db).List(context.Background(), TaskFilter{VisibleTo: 1})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_RemoveTaskNoLink(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "project_tasks"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	removed, err := NewProjectRepository(db).RemoveTask(context.Background(), 3, 9)
	require.NoError(t, err)
	require.False(t, removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepository_AddMemberRollsBack(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "project_members"`).
		WillReturnError(errors.New("foreign key violation"))
	mock.ExpectRollback()

	err := NewProjectRepository(db).AddMember(context.Background(), 1, 2)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByIDError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewUserRepository(db).FindByID(context.Background(), 42)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
