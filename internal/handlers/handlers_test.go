package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"github.com/yukikurage/project-tracker-api/internal/validation"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type apiTestEnv struct {
	db          *gorm.DB
	router      *gin.Engine
	authService *services.AuthService
	tokens      *services.TokenIssuer
}

func setupAPITestEnv(t *testing.T, generator services.TaskGenerator) apiTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

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
	require.NoError(t, validation.Register())

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	projectRepo := repository.NewProjectRepository(db)

	tokens := services.NewTokenIssuer("test-secret", time.Hour)
	authService := services.NewAuthService(userRepo, tokens)
	taskService := services.NewTaskService(taskRepo, projectRepo, userRepo, generator)
	projectService := services.NewProjectService(projectRepo, taskRepo, userRepo)

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))

	err = RegisterRoutes(r, &Handlers{
		Auth:     NewAuthHandler(authService),
		Users:    NewUserHandler(services.NewUserService(userRepo)),
		Tasks:    NewTaskHandler(taskService),
		Projects: NewProjectHandler(projectService),
		System:   NewSystemHandler(db),
	}, Guards{
		Auth:          middleware.RequireAuth(authService),
		TaskAccess:    middleware.RequireTaskAccess(taskService),
		ProjectAccess: middleware.RequireProjectAccess(projectService),
	})
	require.NoError(t, err)

	return apiTestEnv{
		db:          db,
		router:      r,
		authService: authService,
		tokens:      tokens,
	}
}

// createUser stores a user and returns it with a bearer token
func (env apiTestEnv) createUser(t *testing.T, username string) (*models.User, string) {
	t.Helper()

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashedpassword",
	}
	require.NoError(t, env.db.Create(user).Error)

	token, _, err := env.tokens.Issue(user.ID)
	require.NoError(t, err)
	return user, token
}

func (env apiTestEnv) request(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]any](t, w)["code"].(string)
}

func TestRoutes_EveryActionHasHandler(t *testing.T) {
	h := &Handlers{
		Auth:     &AuthHandler{},
		Users:    &UserHandler{},
		Tasks:    &TaskHandler{},
		Projects: &ProjectHandler{},
		System:   &SystemHandler{},
	}
	actions := h.Actions()

	seen := make(map[string]bool)
	for _, route := range Routes {
		_, ok := actions[route.Key]
		require.True(t, ok, "no handler for %v", route.Key)

		id := route.Method + " " + route.Path
		require.False(t, seen[id], "duplicate route %s", id)
		seen[id] = true
	}
}

func TestRegisterRoutes_MissingGuard(t *testing.T) {
	h := &Handlers{
		Auth:     &AuthHandler{},
		Users:    &UserHandler{},
		Tasks:    &TaskHandler{},
		Projects: &ProjectHandler{},
		System:   &SystemHandler{},
	}

	err := RegisterRoutes(gin.New(), h, Guards{Auth: func(c *gin.Context) {}})
	require.Error(t, err)
}

func TestHealth(t *testing.T) {
	env := setupAPITestEnv(t, nil)

	w := env.request(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", decode[map[string]string](t, w)["status"])
}

func TestNullableTime(t *testing.T) {
	var req struct {
		DueDate NullableTime `json:"due_date"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{}`), &req))
	require.False(t, req.DueDate.Set)
	require.False(t, req.DueDate.Clear())

	require.NoError(t, json.Unmarshal([]byte(`{"due_date":null}`), &req))
	require.True(t, req.DueDate.Clear())

	require.NoError(t, json.Unmarshal([]byte(`{"due_date":"2024-05-10"}`), &req))
	require.False(t, req.DueDate.Clear())
	require.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), *req.DueDate.Value)

	require.NoError(t, json.Unmarshal([]byte(`{"due_date":"2024-05-10T15:04:05Z"}`), &req))
	require.Equal(t, 15, req.DueDate.Value.Hour())

	require.Error(t, json.Unmarshal([]byte(`{"due_date":"tomorrow"}`), &req))
}
