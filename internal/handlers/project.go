package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"github.com/yukikurage/project-tracker-api/internal/utils"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

func bindProjectQuery(c *gin.Context) (services.ProjectQuery, utils.PaginationParams) {
	page := utils.GetPaginationParams(c)
	return services.ProjectQuery{
		Status:   c.Query("status"),
		Search:   c.Query("search"),
		Page:     page.Page,
		PageSize: page.Limit,
	}, page
}

// ListProjects returns the projects the current user owns or belongs to
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	query, page := bindProjectQuery(c)
	projects, total, err := h.projectService.ListProjects(c.Request.Context(), userID, query)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	counts, err := h.projectService.TaskCounts(c.Request.Context(), projects)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectListResponse(projects, counts, page, total))
}

// DashboardStats summarizes every project matching the list filters
func (h *ProjectHandler) DashboardStats(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	query, _ := bindProjectQuery(c)
	stats, err := h.projectService.DashboardStats(c.Request.Context(), userID, query)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectStatsResponse(stats))
}

// CreateProject creates a project owned by the current user
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateProjectRequest struct {
		Title       string               `json:"title" binding:"required,max=200"`
		Description string               `json:"description"`
		Status      models.ProjectStatus `json:"status" binding:"omitempty,project_status"`
		StartDate   NullableDate         `json:"start_date"`
		EndDate     NullableDate         `json:"end_date"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), services.CreateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		StartDate:   req.StartDate.Value,
		EndDate:     req.EndDate.Value,
		OwnerID:     userID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project).WithTaskCount(0))
}

// GetProject returns the project loaded by RequireProjectAccess
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	h.respondProject(c, http.StatusOK, project)
}

// UpdateProject applies the fields present in the body. Null dates are cleared.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	userID, project, ok := projectContext(c)
	if !ok {
		return
	}

	type UpdateProjectRequest struct {
		Title       *string               `json:"title" binding:"omitempty,max=200"`
		Description *string               `json:"description"`
		Status      *models.ProjectStatus `json:"status" binding:"omitempty,project_status"`
		StartDate   NullableDate          `json:"start_date"`
		EndDate     NullableDate          `json:"end_date"`
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	updated, err := h.projectService.UpdateProject(c.Request.Context(), project.ID, userID, services.UpdateProjectInput{
		Title:          req.Title,
		Description:    req.Description,
		Status:         req.Status,
		StartDate:      req.StartDate.Value,
		EndDate:        req.EndDate.Value,
		ClearStartDate: req.StartDate.Clear(),
		ClearEndDate:   req.EndDate.Clear(),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.respondProject(c, http.StatusOK, updated)
}

// DeleteProject deletes a project together with its memberships and task links
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	userID, project, ok := projectContext(c)
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(c.Request.Context(), project.ID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListMembers returns the owner followed by the team
func (h *ProjectHandler) ListMembers(c *gin.Context) {
	userID, project, ok := projectContext(c)
	if !ok {
		return
	}

	members, err := h.projectService.ListMembers(c.Request.Context(), project.ID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"members": dto.ToUserDTOs(members),
	})
}

// AddMember adds the user named by user_id to the team
func (h *ProjectHandler) AddMember(c *gin.Context) {
	h.changeMembership(c, h.projectService.AddMember)
}

// RemoveMember removes the user named by user_id from the team
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	h.changeMembership(c, h.projectService.RemoveMember)
}

// ListTasks returns the tasks linked to the project
func (h *ProjectHandler) ListTasks(c *gin.Context) {
	userID, project, ok := projectContext(c)
	if !ok {
		return
	}

	query, page, ok := bindTaskQuery(c)
	if !ok {
		return
	}

	tasks, total, err := h.projectService.ListTasks(c.Request.Context(), project.ID, userID, query)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, page, total))
}

// TaskStats summarizes the tasks linked to the project
func (h *ProjectHandler) TaskStats(c *gin.Context) {
	userID, project, ok := projectContext(c)
	if !ok {
		return
	}

	query, _, ok := bindTaskQuery(c)
	if !ok {
		return
	}

	stats, err := h.projectService.TaskStats(c.Request.Context(), project.ID, userID, query)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskStatsResponse(stats))
}

// AddTask links the task named by task_id to the project
func (h *ProjectHandler) AddTask(c *gin.Context) {
	h.changeTaskLink(c, h.projectService.AddTask)
}

// RemoveTask unlinks the task named by task_id from the project
func (h *ProjectHandler) RemoveTask(c *gin.Context) {
	h.changeTaskLink(c, h.projectService.RemoveTask)
}

type projectChange func(ctx context.Context, projectID, actorID uint64, targetID *uint64) (*models.Project, error)

func (h *ProjectHandler) changeMembership(c *gin.Context, apply projectChange) {
	type MemberRequest struct {
		UserID *uint64 `json:"user_id"`
	}

	var req MemberRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondBindError(c, err)
		return
	}

	h.applyChange(c, apply, req.UserID)
}

func (h *ProjectHandler) changeTaskLink(c *gin.Context, apply projectChange) {
	type TaskLinkRequest struct {
		TaskID *uint64 `json:"task_id"`
	}

	var req TaskLinkRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondBindError(c, err)
		return
	}

	h.applyChange(c, apply, req.TaskID)
}

func (h *ProjectHandler) applyChange(c *gin.Context, apply projectChange, targetID *uint64) {
	userID, project, ok := projectContext(c)
	if !ok {
		return
	}

	updated, err := apply(c.Request.Context(), project.ID, userID, targetID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.respondProject(c, http.StatusOK, updated)
}

// respondProject writes a project with its current task count
func (h *ProjectHandler) respondProject(c *gin.Context, status int, project *models.Project) {
	counts, err := h.projectService.TaskCounts(c.Request.Context(), []models.Project{*project})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(status, dto.ToProjectDTO(*project).WithTaskCount(counts[project.ID]))
}

// projectContext returns the caller and the project loaded by RequireProjectAccess
func projectContext(c *gin.Context) (uint64, *models.Project, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return 0, nil, false
	}

	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return 0, nil, false
	}

	return userID, project, true
}
