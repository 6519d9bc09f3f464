package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type serviceTestEnv struct {
	db       *gorm.DB
	auth     *AuthService
	tasks    *TaskService
	projects *ProjectService
	users    *UserService
}

func setupServiceTestEnv(t *testing.T) serviceTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db))

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	projectRepo := repository.NewProjectRepository(db)

	tasks := NewTaskService(taskRepo, projectRepo, userRepo, nil)
	tasks.now = func() time.Time { return fixedNow }
	projects := NewProjectService(projectRepo, taskRepo, userRepo)
	projects.now = func() time.Time { return fixedNow }

	return serviceTestEnv{
		db:       db,
		auth:     NewAuthService(userRepo, NewTokenIssuer("test-secret", time.Hour)),
		tasks:    tasks,
		projects: projects,
		users:    NewUserService(userRepo),
	}
}

func (env serviceTestEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := env.auth.Signup(context.Background(), SignupInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)
	return user
}

func (env serviceTestEnv) createProject(t *testing.T, title string, ownerID uint64) *models.Project {
	t.Helper()
	project, err := env.projects.CreateProject(context.Background(), CreateProjectInput{Title: title, OwnerID: ownerID})
	require.NoError(t, err)
	return project
}

func (env serviceTestEnv) createTask(t *testing.T, input CreateTaskInput) *models.Task {
	t.Helper()
	task, err := env.tasks.CreateTask(context.Background(), input)
	require.NoError(t, err)
	return task
}

func ptr[T any](v T) *T {
	return &v
}
