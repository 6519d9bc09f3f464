package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/project-tracker-api/internal/models"
)

// Register installs the enum tags on gin's binding validator:
// task_status, task_priority and project_status.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}

	rules := map[string]validator.Func{
		"task_status": func(fl validator.FieldLevel) bool {
			return models.TaskStatus(fl.Field().String()).IsValid()
		},
		"task_priority": func(fl validator.FieldLevel) bool {
			return models.TaskPriority(fl.Field().String()).IsValid()
		},
		"project_status": func(fl validator.FieldLevel) bool {
			return models.ProjectStatus(fl.Field().String()).IsValid()
		},
	}

	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	return nil
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// Describe flattens binding errors into per-field details. It returns nil for
// errors that did not come from the validator, such as malformed JSON.
func Describe(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{
			Field: toSnake(fe.Field()),
			Rule:  fe.Tag(),
		}
	}
	return fields
}

func toSnake(name string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range name {
		upper := r >= 'A' && r <= 'Z'
		if upper {
			if prevLower {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		prevLower = !upper
		b.WriteRune(r)
	}
	return b.String()
}
