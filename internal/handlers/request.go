package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-tracker-api/internal/dto"
)

// NullableTime records whether a JSON field was present, so that an explicit
// null can be told apart from an omitted field.
type NullableTime struct {
	Set   bool
	Value *time.Time
}

func (n *NullableTime) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Value = nil
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t, err := parseTimeValue(raw)
	if err != nil {
		return err
	}
	n.Value = &t
	return nil
}

// Clear reports whether the client explicitly sent null.
func (n NullableTime) Clear() bool {
	return n.Set && n.Value == nil
}

// parseTimeValue accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseTimeValue(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := dto.ParseDate(raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use RFC 3339 or YYYY-MM-DD", raw)
}

// bindOptionalJSON binds a JSON body that may be absent altogether.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// NullableDate is NullableTime for calendar dates in YYYY-MM-DD form.
type NullableDate struct {
	Set   bool
	Value *time.Time
}

func (n *NullableDate) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.Value = nil
		return nil
	}

	var d dto.Date
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	n.Value = &d.Time
	return nil
}

// Clear reports whether the client explicitly sent null.
func (n NullableDate) Clear() bool {
	return n.Set && n.Value == nil
}
