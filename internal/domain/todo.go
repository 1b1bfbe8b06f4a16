package domain

import "time"

// CreatedAtLayout is the fixed timestamp format stamped on every todo at
// creation time. It is lexicographically sortable, so ordering by created_at
// is a plain string comparison. Never reformatted after creation.
const CreatedAtLayout = "2006-01-02T15:04:05"

// StartDateLayout and StartTimeLayout are the formats of the optional
// scheduling fields. They are only meaningful while Notification is true.
const (
	StartDateLayout = "2006-01-02"
	StartTimeLayout = "15:04"
)

type Todo struct {
	TodoID       string `json:"id" dynamodbav:"todo_id"`
	UserID       string `json:"-" dynamodbav:"user_id"`
	Title        string `json:"title" dynamodbav:"title"`
	Detail       string `json:"detail" dynamodbav:"detail"`
	Completed    bool   `json:"completed" dynamodbav:"completed"`
	StartDate    string `json:"start_date,omitempty" dynamodbav:"start_date"`
	StartTime    string `json:"start_time,omitempty" dynamodbav:"start_time"`
	Notification bool   `json:"notification" dynamodbav:"notification"`
	CreatedAt    string `json:"created_at" dynamodbav:"created_at"`
}

// StartInstant combines StartDate and StartTime into a local-time instant.
// Returns ok=false when either field is missing or malformed.
func (t *Todo) StartInstant() (time.Time, bool) {
	if t.StartDate == "" || t.StartTime == "" {
		return time.Time{}, false
	}
	inst, err := time.ParseInLocation(StartDateLayout+" "+StartTimeLayout, t.StartDate+" "+t.StartTime, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return inst, true
}

type CreateTodoRequest struct {
	Title        string `json:"title" validate:"required"`
	Detail       string `json:"detail"`
	StartDate    string `json:"start_date"`
	StartTime    string `json:"start_time"`
	Notification bool   `json:"notification"`
}

// UpdateTodoRequest carries every editable field. An update overwrites all of
// them on the stored record; fields the caller leaves out fall back to their
// zero value rather than being preserved.
type UpdateTodoRequest struct {
	Title        string `json:"title" validate:"required"`
	Detail       string `json:"detail"`
	StartDate    string `json:"start_date"`
	StartTime    string `json:"start_time"`
	Notification bool   `json:"notification"`
}
