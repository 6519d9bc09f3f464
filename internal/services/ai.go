package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/project-tracker-api/internal/models"
)

var ErrAIClientNotInitialized = errors.New("OpenAI client not initialized")

// TaskGenerator extracts task suggestions from free text.
type TaskGenerator interface {
	GenerateTasksFromText(ctx context.Context, text string, now time.Time) ([]GeneratedTask, error)
}

type AIService struct {
	client *openai.Client
	model  string
}

type GeneratedTask struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4o,
	}
}

const taskExtractionPrompt = `You extract concrete, actionable tasks from text.

Current time: %s

Text:
%s

Reply with a JSON array of tasks in this shape:
[
  {
    "title": "short task title",
    "description": "details of the task",
    "priority": "one of low, medium, high, urgent",
    "due_date": "ISO8601 deadline such as 2025-10-28T23:59:59Z, or null when none is stated"
  }
]

Rules:
- Reply with [] when the text contains no tasks
- Resolve relative deadlines ("tomorrow", "next week") to absolute times
- due_date is always an ISO8601 string or null
- Reply with JSON only, no commentary`

// GenerateTasksFromText analyzes text and extracts tasks using OpenAI GPT
func (s *AIService) GenerateTasksFromText(ctx context.Context, text string, now time.Time) ([]GeneratedTask, error) {
	if s.client == nil {
		return nil, ErrAIClientNotInitialized
	}

	prompt := fmt.Sprintf(taskExtractionPrompt, now.Format(time.RFC3339), text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return parseGeneratedTasks(resp.Choices[0].Message.Content)
}

// parseGeneratedTasks accepts a bare JSON array, optionally wrapped in a
// markdown code fence.
func parseGeneratedTasks(content string) ([]GeneratedTask, error) {
	body := strings.TrimSpace(content)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	}

	var tasks []GeneratedTask
	if err := json.Unmarshal([]byte(body), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return tasks, nil
}
