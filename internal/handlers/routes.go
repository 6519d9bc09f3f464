package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Access selects the middleware a route runs behind.
type Access int

const (
	Public Access = iota
	Authenticated
	TaskScoped
	ProjectScoped
)

// RouteKey names an action on a resource.
type RouteKey struct {
	Resource string
	Action   string
}

// Route binds a (resource, action) pair to a method and path.
type Route struct {
	Key    RouteKey
	Method string
	Path   string
	Access Access
}

// Routes is the complete HTTP surface. Aliases share the key of the action
// they stand for. PUT on tasks and projects is an alias of PATCH: both merge
// only the fields present in the body and never reset omitted ones.
var Routes = []Route{
	{RouteKey{"auth", "signup"}, http.MethodPost, "/api/auth/signup", Public},
	{RouteKey{"auth", "signup"}, http.MethodPost, "/api/auth/register", Public},
	{RouteKey{"auth", "login"}, http.MethodPost, "/api/auth/login", Public},
	{RouteKey{"auth", "logout"}, http.MethodPost, "/api/auth/logout", Public},
	{RouteKey{"auth", "me"}, http.MethodGet, "/api/auth/me", Authenticated},
	{RouteKey{"auth", "update_me"}, http.MethodPatch, "/api/auth/me", Authenticated},
	{RouteKey{"auth", "delete_me"}, http.MethodDelete, "/api/auth/me", Authenticated},
	{RouteKey{"auth", "refresh"}, http.MethodPost, "/api/auth/token/refresh", Authenticated},

	{RouteKey{"users", "list"}, http.MethodGet, "/api/users", Authenticated},

	{RouteKey{"tasks", "list"}, http.MethodGet, "/api/tasks", Authenticated},
	{RouteKey{"tasks", "create"}, http.MethodPost, "/api/tasks", Authenticated},
	{RouteKey{"tasks", "dashboard_stats"}, http.MethodGet, "/api/tasks/dashboard_stats", Authenticated},
	{RouteKey{"tasks", "generate"}, http.MethodPost, "/api/tasks/generate", Authenticated},
	{RouteKey{"tasks", "retrieve"}, http.MethodGet, "/api/tasks/:id", TaskScoped},
	{RouteKey{"tasks", "update"}, http.MethodPatch, "/api/tasks/:id", TaskScoped},
	{RouteKey{"tasks", "update"}, http.MethodPut, "/api/tasks/:id", TaskScoped},
	{RouteKey{"tasks", "delete"}, http.MethodDelete, "/api/tasks/:id", TaskScoped},
	{RouteKey{"tasks", "assign"}, http.MethodPost, "/api/tasks/:id/assign", TaskScoped},
	{RouteKey{"tasks", "unassign"}, http.MethodPost, "/api/tasks/:id/unassign", TaskScoped},
	{RouteKey{"tasks", "complete"}, http.MethodPost, "/api/tasks/:id/complete", TaskScoped},
	{RouteKey{"tasks", "reopen"}, http.MethodPost, "/api/tasks/:id/reopen", TaskScoped},

	{RouteKey{"projects", "list"}, http.MethodGet, "/api/projects", Authenticated},
	{RouteKey{"projects", "create"}, http.MethodPost, "/api/projects", Authenticated},
	{RouteKey{"projects", "stats"}, http.MethodGet, "/api/projects/stats", Authenticated},
	{RouteKey{"projects", "stats"}, http.MethodGet, "/api/projects/dashboard_stats", Authenticated},
	{RouteKey{"projects", "retrieve"}, http.MethodGet, "/api/projects/:id", ProjectScoped},
	{RouteKey{"projects", "update"}, http.MethodPatch, "/api/projects/:id", ProjectScoped},
	{RouteKey{"projects", "update"}, http.MethodPut, "/api/projects/:id", ProjectScoped},
	{RouteKey{"projects", "delete"}, http.MethodDelete, "/api/projects/:id", ProjectScoped},
	{RouteKey{"projects", "members"}, http.MethodGet, "/api/projects/:id/members", ProjectScoped},
	{RouteKey{"projects", "add_member"}, http.MethodPost, "/api/projects/:id/add_member", ProjectScoped},
	{RouteKey{"projects", "add_member"}, http.MethodPost, "/api/projects/:id/add_team_member", ProjectScoped},
	{RouteKey{"projects", "remove_member"}, http.MethodPost, "/api/projects/:id/remove_member", ProjectScoped},
	{RouteKey{"projects", "remove_member"}, http.MethodPost, "/api/projects/:id/remove_team_member", ProjectScoped},
	{RouteKey{"projects", "tasks"}, http.MethodGet, "/api/projects/:id/tasks", ProjectScoped},
	{RouteKey{"projects", "add_task"}, http.MethodPost, "/api/projects/:id/add_task", ProjectScoped},
	{RouteKey{"projects", "remove_task"}, http.MethodPost, "/api/projects/:id/remove_task", ProjectScoped},
	{RouteKey{"projects", "task_stats"}, http.MethodGet, "/api/projects/:id/stats", ProjectScoped},

	{RouteKey{"system", "health"}, http.MethodGet, "/health", Public},
	{RouteKey{"system", "metrics"}, http.MethodGet, "/metrics", Public},
}

// Handlers groups every HTTP handler the router dispatches to.
type Handlers struct {
	Auth     *AuthHandler
	Users    *UserHandler
	Tasks    *TaskHandler
	Projects *ProjectHandler
	System   *SystemHandler
}

// Guards are the middleware chains selected by Route.Access.
type Guards struct {
	Auth          gin.HandlerFunc
	TaskAccess    gin.HandlerFunc
	ProjectAccess gin.HandlerFunc
}

// Actions maps every (resource, action) pair to its handler.
func (h *Handlers) Actions() map[RouteKey]gin.HandlerFunc {
	return map[RouteKey]gin.HandlerFunc{
		{"auth", "signup"}:    h.Auth.Signup,
		{"auth", "login"}:     h.Auth.Login,
		{"auth", "logout"}:    h.Auth.Logout,
		{"auth", "me"}:        h.Auth.GetCurrentUser,
		{"auth", "update_me"}: h.Auth.UpdateCurrentUser,
		{"auth", "delete_me"}: h.Auth.DeleteCurrentUser,
		{"auth", "refresh"}:   h.Auth.RefreshToken,

		{"users", "list"}: h.Users.ListUsers,

		{"tasks", "list"}:            h.Tasks.ListTasks,
		{"tasks", "create"}:          h.Tasks.CreateTask,
		{"tasks", "dashboard_stats"}: h.Tasks.DashboardStats,
		{"tasks", "generate"}:        h.Tasks.GenerateTasks,
		{"tasks", "retrieve"}:        h.Tasks.GetTask,
		{"tasks", "update"}:          h.Tasks.UpdateTask,
		{"tasks", "delete"}:          h.Tasks.DeleteTask,
		{"tasks", "assign"}:          h.Tasks.AssignTask,
		{"tasks", "unassign"}:        h.Tasks.UnassignTask,
		{"tasks", "complete"}:        h.Tasks.CompleteTask,
		{"tasks", "reopen"}:          h.Tasks.ReopenTask,

		{"projects", "list"}:          h.Projects.ListProjects,
		{"projects", "create"}:        h.Projects.CreateProject,
		{"projects", "stats"}:         h.Projects.DashboardStats,
		{"projects", "retrieve"}:      h.Projects.GetProject,
		{"projects", "update"}:        h.Projects.UpdateProject,
		{"projects", "delete"}:        h.Projects.DeleteProject,
		{"projects", "members"}:       h.Projects.ListMembers,
		{"projects", "add_member"}:    h.Projects.AddMember,
		{"projects", "remove_member"}: h.Projects.RemoveMember,
		{"projects", "tasks"}:         h.Projects.ListTasks,
		{"projects", "add_task"}:      h.Projects.AddTask,
		{"projects", "remove_task"}:   h.Projects.RemoveTask,
		{"projects", "task_stats"}:    h.Projects.TaskStats,

		{"system", "health"}:  h.System.Health,
		{"system", "metrics"}: h.System.Metrics,
	}
}

// RegisterRoutes mounts every entry of Routes on r. It fails if a route has
// no handler or its access level has no guard.
func RegisterRoutes(r gin.IRoutes, h *Handlers, guards Guards) error {
	actions := h.Actions()

	for _, route := range Routes {
		handler, ok := actions[route.Key]
		if !ok {
			return fmt.Errorf("no handler for %s/%s", route.Key.Resource, route.Key.Action)
		}

		chain, err := guards.chain(route.Access)
		if err != nil {
			return fmt.Errorf("%s %s: %w", route.Method, route.Path, err)
		}

		r.Handle(route.Method, route.Path, append(chain, handler)...)
	}
	return nil
}

func (g Guards) chain(access Access) ([]gin.HandlerFunc, error) {
	switch access {
	case Public:
		return nil, nil
	case Authenticated:
		if g.Auth == nil {
			return nil, fmt.Errorf("missing auth guard")
		}
		return []gin.HandlerFunc{g.Auth}, nil
	case TaskScoped:
		if g.Auth == nil || g.TaskAccess == nil {
			return nil, fmt.Errorf("missing task guard")
		}
		return []gin.HandlerFunc{g.Auth, g.TaskAccess}, nil
	case ProjectScoped:
		if g.Auth == nil || g.ProjectAccess == nil {
			return nil, fmt.Errorf("missing project guard")
		}
		return []gin.HandlerFunc{g.Auth, g.ProjectAccess}, nil
	default:
		return nil, fmt.Errorf("unknown access level %d", access)
	}
}
