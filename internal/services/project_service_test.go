package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-tracker-api/internal/models"
)

func TestProjectService_CreateDefaults(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, "owner")

	project := env.createProject(t, "Launch", owner.ID)
	require.Equal(t, models.ProjectStatusPlanning, project.Status)
	require.Equal(t, owner.ID, project.OwnerID)
	require.Equal(t, "owner", project.Owner.Username)
	require.Empty(t, project.TeamMembers)

	_, err := env.projects.CreateProject(context.Background(), CreateProjectInput{Title: "  ", OwnerID: owner.ID})
	require.ErrorIs(t, err, ErrTitleRequired)

	_, err = env.projects.CreateProject(context.Background(), CreateProjectInput{
		Title:   "Bad",
		Status:  "archived",
		OwnerID: owner.ID,
	})
	require.ErrorIs(t, err, ErrInvalidProjectStatus)
}

func TestProjectService_ListVisibility(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner")
	member := env.createUser(t, "member")
	stranger := env.createUser(t, "stranger")

	project := env.createProject(t, "Launch", owner.ID)
	_, err := env.projects.AddMember(ctx, project.ID, owner.ID, &member.ID)
	require.NoError(t, err)

	for _, tc := range []struct {
		user    *models.User
		visible bool
	}{
		{owner, true},
		{member, true},
		{stranger, false},
	} {
		projects, total, err := env.projects.ListProjects(ctx, tc.user.ID, ProjectQuery{})
		require.NoError(t, err)
		if tc.visible {
			require.EqualValues(t, 1, total, tc.user.Username)
			require.Equal(t, project.ID, projects[0].ID)
		} else {
			require.Zero(t, total, tc.user.Username)
		}
	}

	_, err = env.projects.GetProject(ctx, project.ID, stranger.ID)
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectService_AddMemberIsIdempotent(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner")
	member := env.createUser(t, "member")
	project := env.createProject(t, "Launch", owner.ID)

	_, err := env.projects.AddMember(ctx, project.ID, owner.ID, &member.ID)
	require.NoError(t, err)
	updated, err := env.projects.AddMember(ctx, project.ID, owner.ID, &member.ID)
	require.NoError(t, err)
	require.Len(t, updated.TeamMembers, 1)

	updated, err = env.projects.AddMember(ctx, project.ID, owner.ID, &owner.ID)
	require.NoError(t, err)
	require.Len(t, updated.TeamMembers, 1)

	members, err := env.projects.ListMembers(ctx, project.ID, member.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.Equal(t, owner.ID, members[0].ID)
}

func TestProjectService_MemberRules(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner")
	member := env.createUser(t, "member")
	project := env.createProject(t, "Launch", owner.ID)
	_, err := env.projects.AddMember(ctx, project.ID, owner.ID, &member.ID)
	require.NoError(t, err)

	_, err = env.projects.RemoveMember(ctx, project.ID, owner.ID, &owner.ID)
	require.ErrorIs(t, err, ErrCannotRemoveOwner)

	_, err = env.projects.AddMember(ctx, project.ID, owner.ID, nil)
	require.ErrorIs(t, err, ErrUserIDRequired)

	_, err = env.projects.AddMember(ctx, project.ID, owner.ID, ptr(uint64(9999)))
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = env.projects.AddMember(ctx, project.ID, member.ID, &member.ID)
	require.ErrorIs(t, err, ErrProjectPermissionDenied)

	updated, err := env.projects.RemoveMember(ctx, project.ID, owner.ID, &member.ID)
	require.NoError(t, err)
	require.Empty(t, updated.TeamMembers)

	_, err = env.projects.GetProject(ctx, project.ID, member.ID)
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectService_UpdateAndDeleteRequireOwner(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner")
	member := env.createUser(t, "member")
	project := env.createProject(t, "Launch", owner.ID)
	_, err := env.projects.AddMember(ctx, project.ID, owner.ID, &member.ID)
	require.NoError(t, err)

	_, err = env.projects.UpdateProject(ctx, project.ID, member.ID, UpdateProjectInput{Title: ptr("Hijacked")})
	require.ErrorIs(t, err, ErrProjectPermissionDenied)

	status := models.ProjectStatusInProgress
	updated, err := env.projects.UpdateProject(ctx, project.ID, owner.ID, UpdateProjectInput{
		Title:  ptr("Relaunch"),
		Status: &status,
	})
	require.NoError(t, err)
	require.Equal(t, "Relaunch", updated.Title)
	require.Equal(t, status, updated.Status)

	start := fixedNow
	end := fixedNow.AddDate(0, 0, -1)
	_, err = env.projects.UpdateProject(ctx, project.ID, owner.ID, UpdateProjectInput{StartDate: &start, EndDate: &end})
	require.ErrorIs(t, err, ErrInvalidDateRange)

	require.ErrorIs(t, env.projects.DeleteProject(ctx, project.ID, member.ID), ErrProjectPermissionDenied)
	require.NoError(t, env.projects.DeleteProject(ctx, project.ID, owner.ID))

	_, err = env.projects.GetProject(ctx, project.ID, owner.ID)
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestProjectService_TaskLinks(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()

	owner := env.createUser(t, "owner")
	stranger := env.createUser(t, "stranger")
	project := env.createProject(t, "Launch", owner.ID)
	task := env.createTask(t, CreateTaskInput{Title: "Draft", CreatorID: owner.ID})
	hidden := env.createTask(t, CreateTaskInput{Title: "Private", CreatorID: stranger.ID})

	_, err := env.projects.AddTask(ctx, project.ID, owner.ID, &task.ID)
	require.NoError(t, err)
	_, err = env.projects.AddTask(ctx, project.ID, owner.ID, &task.ID)
	require.NoError(t, err)

	_, err = env.projects.AddTask(ctx, project.ID, owner.ID, &hidden.ID)
	require.ErrorIs(t, err, ErrTaskNotFound)

	tasks, total, err := env.projects.ListTasks(ctx, project.ID, owner.ID, TaskQuery{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, task.ID, tasks[0].ID)

	counts, err := env.projects.TaskCounts(ctx, []models.Project{*project})
	require.NoError(t, err)
	require.EqualValues(t, 1, counts[project.ID])

	_, err = env.projects.RemoveTask(ctx, project.ID, owner.ID, &task.ID)
	require.NoError(t, err)

	_, err = env.projects.RemoveTask(ctx, project.ID, owner.ID, &task.ID)
	require.ErrorIs(t, err, ErrTaskNotInProject)
}

func TestProjectService_DashboardStats(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	env.createProject(t, "Alpha", alice.ID)
	shared := env.createProject(t, "Beta", bob.ID)
	_, err := env.projects.AddMember(ctx, shared.ID, bob.ID, &alice.ID)
	require.NoError(t, err)
	env.createProject(t, "Gamma", bob.ID)

	stats, err := env.projects.DashboardStats(ctx, alice.ID, ProjectQuery{})
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.Total)
	require.EqualValues(t, 1, stats.Owned)
	require.EqualValues(t, 1, stats.TeamOnly)
	require.EqualValues(t, 2, stats.ByStatus[models.ProjectStatusPlanning])
}
