package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAuthService_Signup(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Signup(ctx, SignupInput{
		Username:  " alice ",
		Email:     "Alice@Example.com",
		Password:  "supersecret",
		FirstName: "Alice",
	})
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
	require.Equal(t, "alice@example.com", user.Email)
	require.NotEqual(t, "supersecret", user.PasswordHash)

	for name, tc := range map[string]struct {
		input SignupInput
		err   error
	}{
		"duplicate username": {SignupInput{Username: "alice", Email: "other@example.com", Password: "supersecret"}, ErrUsernameTaken},
		"duplicate email":    {SignupInput{Username: "alice2", Email: "ALICE@example.com", Password: "supersecret"}, ErrEmailTaken},
		"missing username":   {SignupInput{Email: "x@example.com", Password: "supersecret"}, ErrUsernameRequired},
		"bad email":          {SignupInput{Username: "bob", Email: "not-an-email", Password: "supersecret"}, ErrInvalidEmail},
		"short password":     {SignupInput{Username: "bob", Email: "bob@example.com", Password: "short"}, ErrPasswordTooShort},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := env.auth.Signup(ctx, tc.input)
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestAuthService_LoginAndAuthenticate(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "alice")

	_, err := env.auth.Login(ctx, LoginInput{Username: "alice", Password: "wrong-password"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.auth.Login(ctx, LoginInput{Username: "nobody", Password: "supersecret"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	result, err := env.auth.Login(ctx, LoginInput{Username: "alice", Password: "supersecret"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, user.ID, result.User.ID)

	userID, err := env.auth.Authenticate(ctx, result.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID, userID)

	require.NoError(t, env.auth.DeleteAccount(ctx, user.ID))
	_, err = env.auth.Authenticate(ctx, result.Token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, "alice")
	env.createUser(t, "bob")

	updated, err := env.auth.UpdateProfile(ctx, alice.ID, UpdateProfileInput{
		FirstName: ptr("Alice"),
		Email:     ptr("alice@example.com"),
	})
	require.NoError(t, err)
	require.Equal(t, "Alice", updated.FirstName)

	_, err = env.auth.UpdateProfile(ctx, alice.ID, UpdateProfileInput{Email: ptr("bob@example.com")})
	require.ErrorIs(t, err, ErrEmailTaken)

	_, err = env.auth.UpdateProfile(ctx, alice.ID, UpdateProfileInput{Password: ptr("newpassword")})
	require.NoError(t, err)
	_, err = env.auth.Login(ctx, LoginInput{Username: "alice", Password: "newpassword"})
	require.NoError(t, err)
}

func TestAuthService_DeleteAccountCascades(t *testing.T) {
	env := setupServiceTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	project := env.createProject(t, "Alice's", alice.ID)
	env.createTask(t, CreateTaskInput{Title: "in project", ProjectID: &project.ID, CreatorID: alice.ID})

	require.NoError(t, env.auth.DeleteAccount(ctx, alice.ID))

	_, err := env.auth.GetUser(ctx, alice.ID)
	require.ErrorIs(t, err, ErrUserNotFound)

	projects, total, err := env.projects.ListProjects(ctx, bob.ID, ProjectQuery{})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, projects)

	require.ErrorIs(t, env.auth.DeleteAccount(ctx, alice.ID), ErrUserNotFound)
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, expiresAt, err := issuer.Issue(42)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	userID, err := issuer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, uint64(42), userID)

	_, err = NewTokenIssuer("other-secret", time.Hour).Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenIssuer("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, _, err := expired.Issue(42)
	require.NoError(t, err)
	_, err = issuer.Parse(stale)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseGeneratedTasks(t *testing.T) {
	tasks, err := parseGeneratedTasks("```json\n[{\"title\":\"Buy milk\",\"priority\":\"low\",\"due_date\":null}]\n```")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, "Buy milk", tasks[0].Title)

	_, err = parseGeneratedTasks("sorry, no tasks")
	require.Error(t, err)
}
