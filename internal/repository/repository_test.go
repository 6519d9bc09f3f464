package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createProject(t *testing.T, db *gorm.DB, title string, ownerID uint64) *models.Project {
	t.Helper()
	project := &models.Project{Title: title, Status: models.ProjectStatusPlanning, OwnerID: ownerID}
	require.NoError(t, NewProjectRepository(db).Create(context.Background(), project))
	return project
}

func createTask(t *testing.T, db *gorm.DB, title string, creatorID uint64, projectID *uint64) *models.Task {
	t.Helper()
	task := &models.Task{
		Title:       title,
		Status:      models.TaskStatusTodo,
		Priority:    models.TaskPriorityMedium,
		CreatedByID: creatorID,
	}
	require.NoError(t, NewTaskRepository(db).Create(context.Background(), task, projectID))
	return task
}

func taskTitles(tasks []models.Task) []string {
	titles := make([]string, len(tasks))
	for i, task := range tasks {
		titles[i] = task.Title
	}
	return titles
}

func TestTaskRepository_Visibility(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewTaskRepository(db)
	projects := NewProjectRepository(db)

	owner := createUser(t, db, "owner")
	member := createUser(t, db, "member")
	outsider := createUser(t, db, "outsider")

	project := createProject(t, db, "Launch", owner.ID)
	require.NoError(t, projects.AddMember(ctx, project.ID, member.ID))

	scoped := createTask(t, db, "scoped", owner.ID, &project.ID)
	private := createTask(t, db, "private", owner.ID, nil)

	_, err := repo.FindVisible(ctx, scoped.ID, member.ID)
	require.NoError(t, err)

	_, err = repo.FindVisible(ctx, private.ID, member.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.FindVisible(ctx, scoped.ID, outsider.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	tasks, total, err := repo.List(ctx, TaskFilter{VisibleTo: member.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, []string{"scoped"}, taskTitles(tasks))

	tasks, total, err = repo.List(ctx, TaskFilter{VisibleTo: owner.ID})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, tasks, 2)
}

func TestTaskRepository_ListFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewTaskRepository(db)

	user := createUser(t, db, "alice")
	other := createUser(t, db, "bob")
	project := createProject(t, db, "Website", user.ID)

	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	overdue := createTask(t, db, "Write report", user.ID, &project.ID)
	overdue.DueDate = &yesterday
	overdue.Priority = models.TaskPriorityUrgent
	require.NoError(t, repo.Update(ctx, overdue))

	done := createTask(t, db, "Fix login", user.ID, nil)
	done.DueDate = &yesterday
	done.MarkCompleted(now)
	require.NoError(t, repo.Update(ctx, done))

	upcoming := createTask(t, db, "Plan sprint", user.ID, &project.ID)
	upcoming.DueDate = &tomorrow
	upcoming.Description = "quarterly REPORT review"
	upcoming.AssignedToID = &other.ID
	require.NoError(t, repo.Update(ctx, upcoming))

	t.Run("overdue excludes done", func(t *testing.T) {
		tasks, _, err := repo.List(ctx, TaskFilter{VisibleTo: user.ID, OverdueAt: &now})
		require.NoError(t, err)
		require.Equal(t, []string{"Write report"}, taskTitles(tasks))
	})

	t.Run("status", func(t *testing.T) {
		status := models.TaskStatusDone
		tasks, _, err := repo.List(ctx, TaskFilter{VisibleTo: user.ID, Status: &status})
		require.NoError(t, err)
		require.Equal(t, []string{"Fix login"}, taskTitles(tasks))
	})

	t.Run("search is case insensitive over title and description", func(t *testing.T) {
		tasks, _, err := repo.List(ctx, TaskFilter{
			VisibleTo: user.ID,
			Search:    "report",
			Ordering:  &TaskOrdering{Field: OrderByTitle},
		})
		require.NoError(t, err)
		require.Equal(t, []string{"Plan sprint", "Write report"}, taskTitles(tasks))
	})

	t.Run("project and assignee", func(t *testing.T) {
		tasks, _, err := repo.List(ctx, TaskFilter{VisibleTo: user.ID, ProjectID: &project.ID, AssignedUserID: &other.ID})
		require.NoError(t, err)
		require.Equal(t, []string{"Plan sprint"}, taskTitles(tasks))
	})

	t.Run("due window", func(t *testing.T) {
		from := now
		to := now.Add(48 * time.Hour)
		tasks, _, err := repo.List(ctx, TaskFilter{VisibleTo: user.ID, DueDateFrom: &from, DueDateTo: &to})
		require.NoError(t, err)
		require.Equal(t, []string{"Plan sprint"}, taskTitles(tasks))
	})

	t.Run("priority ordering follows rank", func(t *testing.T) {
		tasks, _, err := repo.List(ctx, TaskFilter{
			VisibleTo: user.ID,
			Ordering:  &TaskOrdering{Field: OrderByPriority, Desc: true},
		})
		require.NoError(t, err)
		require.Equal(t, "Write report", tasks[0].Title)
	})

	t.Run("pagination keeps total", func(t *testing.T) {
		tasks, total, err := repo.List(ctx, TaskFilter{VisibleTo: user.ID, Page: 2, PageSize: 2})
		require.NoError(t, err)
		require.EqualValues(t, 3, total)
		require.Len(t, tasks, 1)
	})
}

func TestTaskRepository_SearchMatchesLiterally(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewTaskRepository(db)

	user := createUser(t, db, "alice")
	for _, title := range []string{"100% coverage", "1000 rows", "a_b", "axb", `C:\tmp!`} {
		createTask(t, db, title, user.ID, nil)
	}

	cases := map[string]string{
		"0%":   "100% coverage",
		"a_b":  "a_b",
		`:\`:   `C:\tmp!`,
		"tmp!": `C:\tmp!`,
	}
	for term, want := range cases {
		tasks, total, err := repo.List(ctx, TaskFilter{VisibleTo: user.ID, Search: term})
		require.NoError(t, err)
		require.EqualValues(t, 1, total, term)
		require.Equal(t, []string{want}, taskTitles(tasks))
	}

	projects := NewProjectRepository(db)
	createProject(t, db, "50% done", user.ID)
	createProject(t, db, "500 users", user.ID)
	found, total, err := projects.List(ctx, ProjectFilter{VisibleTo: user.ID, Search: "0%"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "50% done", found[0].Title)
}

func TestTaskRepository_ColumnScopedUpdates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewTaskRepository(db)

	user := createUser(t, db, "alice")
	other := createUser(t, db, "bob")
	task := createTask(t, db, "Write report", user.ID, nil)

	stale, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)

	done, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	done.MarkCompleted(time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, repo.UpdateCompletion(ctx, done))

	stale.AssignedToID = &other.ID
	stale.Title = "ignored"
	require.NoError(t, repo.UpdateAssignee(ctx, stale))

	current, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, "Write report", current.Title)
	require.Equal(t, models.TaskStatusDone, current.Status)
	require.True(t, current.Completed)
	require.NotNil(t, current.CompletedAt)
	require.Equal(t, other.ID, *current.AssignedToID)

	stale.MarkReopened()
	require.NoError(t, repo.UpdateCompletion(ctx, stale))
	stale.AssignedToID = nil
	require.NoError(t, repo.UpdateAssignee(ctx, stale))

	current, err = repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusTodo, current.Status)
	require.False(t, current.Completed)
	require.Nil(t, current.CompletedAt)
	require.Nil(t, current.AssignedToID)
}

func TestProjectRepository_Membership(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewProjectRepository(db)

	owner := createUser(t, db, "owner")
	member := createUser(t, db, "member")
	project := createProject(t, db, "Roadmap", owner.ID)

	require.NoError(t, repo.AddMember(ctx, project.ID, member.ID))
	require.NoError(t, repo.AddMember(ctx, project.ID, member.ID))

	members, err := repo.ListMembers(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)

	count, err := repo.CountMemberships(ctx, []uint64{project.ID}, member.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	projects, total, err := repo.List(ctx, ProjectFilter{VisibleTo: member.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, owner.ID, projects[0].Owner.ID)

	require.NoError(t, repo.RemoveMember(ctx, project.ID, member.ID))
	_, err = repo.FindVisible(ctx, project.ID, member.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProjectRepository_TaskLinks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewProjectRepository(db)

	owner := createUser(t, db, "owner")
	project := createProject(t, db, "Roadmap", owner.ID)
	task := createTask(t, db, "Draft", owner.ID, nil)

	require.NoError(t, repo.AddTask(ctx, project.ID, task.ID))
	require.NoError(t, repo.AddTask(ctx, project.ID, task.ID))

	counts, err := repo.CountTasks(ctx, []uint64{project.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, counts[project.ID])

	removed, err := repo.RemoveTask(ctx, project.ID, task.ID)
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = repo.RemoveTask(ctx, project.ID, task.ID)
	require.NoError(t, err)
	require.False(t, removed)
}

func TestProjectRepository_DeleteKeepsTasks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	owner := createUser(t, db, "owner")
	project := createProject(t, db, "Roadmap", owner.ID)
	task := createTask(t, db, "Draft", owner.ID, &project.ID)

	require.NoError(t, NewProjectRepository(db).Delete(ctx, project.ID))

	_, err := NewTaskRepository(db).FindByID(ctx, task.ID)
	require.NoError(t, err)

	ids, err := NewTaskRepository(db).ProjectIDs(ctx, task.ID)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestUserRepository_DeleteCascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	tasks := NewTaskRepository(db)
	projects := NewProjectRepository(db)

	leaving := createUser(t, db, "leaving")
	staying := createUser(t, db, "staying")

	owned := createProject(t, db, "Owned", leaving.ID)
	shared := createProject(t, db, "Shared", staying.ID)
	require.NoError(t, projects.AddMember(ctx, shared.ID, leaving.ID))

	created := createTask(t, db, "created", leaving.ID, &shared.ID)
	assigned := createTask(t, db, "assigned", staying.ID, &owned.ID)
	assigned.AssignedToID = &leaving.ID
	require.NoError(t, tasks.Update(ctx, assigned))

	require.NoError(t, NewUserRepository(db).Delete(ctx, leaving.ID))

	_, err := projects.FindByID(ctx, owned.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = tasks.FindByID(ctx, created.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	reloaded, err := tasks.FindByID(ctx, assigned.ID)
	require.NoError(t, err)
	require.Nil(t, reloaded.AssignedToID)

	members, err := projects.ListMembers(ctx, shared.ID)
	require.NoError(t, err)
	require.Empty(t, members)
}

func TestUserRepository_List(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	createUser(t, db, "carol")
	createUser(t, db, "alice")
	createUser(t, db, "bob")

	users, total, err := repo.List(context.Background(), "", 1, 2)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Equal(t, "alice", users[0].Username)
	require.Equal(t, "bob", users[1].Username)

	users, total, err = repo.List(context.Background(), "CAR", 0, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "carol", users[0].Username)

	createUser(t, db, "dev_ops")
	users, total, err = repo.List(context.Background(), "_", 0, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "dev_ops", users[0].Username)
}
