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

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// taskQueryParams are the list filters accepted on task collections
type taskQueryParams struct {
	Status       string `form:"status"`
	Priority     string `form:"priority"`
	Search       string `form:"search"`
	DueDate      string `form:"due_date"`
	ProjectID    string `form:"project_id"`
	AssignedToMe bool   `form:"assigned_to_me"`
	Ordering     string `form:"ordering"`
}

// bindTaskQuery reads filters and pagination from the query string
func bindTaskQuery(c *gin.Context) (services.TaskQuery, utils.PaginationParams, bool) {
	var params taskQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		apierrors.BadRequest(c, "Invalid query parameters")
		return services.TaskQuery{}, utils.PaginationParams{}, false
	}

	page := utils.GetPaginationParams(c)
	return services.TaskQuery{
		Status:       params.Status,
		Priority:     params.Priority,
		Search:       params.Search,
		DueDate:      params.DueDate,
		ProjectID:    params.ProjectID,
		AssignedToMe: params.AssignedToMe,
		Ordering:     params.Ordering,
		Page:         page.Page,
		PageSize:     page.Limit,
	}, page, true
}

// ListTasks returns the tasks visible to the current user
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	query, page, ok := bindTaskQuery(c)
	if !ok {
		return
	}

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), userID, query)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, page, total))
}

// DashboardStats summarizes every task matching the list filters
func (h *TaskHandler) DashboardStats(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	query, _, ok := bindTaskQuery(c)
	if !ok {
		return
	}

	stats, err := h.taskService.DashboardStats(c.Request.Context(), userID, query)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskStatsResponse(stats))
}

// GetTask returns the task loaded by RequireTaskAccess
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		Title       string              `json:"title" binding:"required,max=200"`
		Description string              `json:"description"`
		Status      models.TaskStatus   `json:"status" binding:"omitempty,task_status"`
		Priority    models.TaskPriority `json:"priority" binding:"omitempty,task_priority"`
		DueDate     NullableTime        `json:"due_date"`
		ProjectID   *uint64             `json:"project_id"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate.Value,
		ProjectID:   req.ProjectID,
		CreatorID:   userID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask applies the fields present in the body. "due_date": null clears
// the due date.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, task, ok := taskContext(c)
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		Title       *string              `json:"title" binding:"omitempty,max=200"`
		Description *string              `json:"description"`
		Status      *models.TaskStatus   `json:"status" binding:"omitempty,task_status"`
		Priority    *models.TaskPriority `json:"priority" binding:"omitempty,task_priority"`
		DueDate     NullableTime         `json:"due_date"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	updated, err := h.taskService.UpdateTask(c.Request.Context(), task.ID, userID, services.UpdateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Status:       req.Status,
		Priority:     req.Priority,
		DueDate:      req.DueDate.Value,
		ClearDueDate: req.DueDate.Clear(),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, task, ok := taskContext(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), task.ID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AssignTask sets the assignee to the user named by user_id
func (h *TaskHandler) AssignTask(c *gin.Context) {
	userID, task, ok := taskContext(c)
	if !ok {
		return
	}

	type AssignTaskRequest struct {
		UserID *uint64 `json:"user_id"`
	}

	var req AssignTaskRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		respondBindError(c, err)
		return
	}

	updated, err := h.taskService.AssignTask(c.Request.Context(), task.ID, userID, req.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// UnassignTask clears the assignee
func (h *TaskHandler) UnassignTask(c *gin.Context) {
	h.transition(c, h.taskService.UnassignTask)
}

// CompleteTask marks a task done
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	h.transition(c, h.taskService.CompleteTask)
}

// ReopenTask moves a done task back to todo
func (h *TaskHandler) ReopenTask(c *gin.Context) {
	h.transition(c, h.taskService.ReopenTask)
}

type taskTransition func(ctx context.Context, taskID, actorID uint64) (*models.Task, error)

func (h *TaskHandler) transition(c *gin.Context, apply taskTransition) {
	userID, task, ok := taskContext(c)
	if !ok {
		return
	}

	updated, err := apply(c.Request.Context(), task.ID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// GenerateTasks asks the language model for task suggestions. With save set
// the suggestions are created as tasks owned by the caller.
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type GenerateTasksRequest struct {
		Text      string  `json:"text" binding:"max=5000"`
		ProjectID *uint64 `json:"project_id"`
		Save      bool    `json:"save"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.taskService.GenerateTasks(c.Request.Context(), services.GenerateTasksInput{
		Text:      req.Text,
		CreatorID: userID,
		ProjectID: req.ProjectID,
		Save:      req.Save,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	status := http.StatusOK
	if req.Save {
		status = http.StatusCreated
	}
	c.JSON(status, dto.ToGenerateTasksResponse(*result))
}

// taskContext returns the caller and the task loaded by RequireTaskAccess
func taskContext(c *gin.Context) (uint64, *models.Task, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return 0, nil, false
	}

	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return 0, nil, false
	}

	return userID, task, true
}
