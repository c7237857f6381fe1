package action

import (
	"context"
	"time"
)

// TimeAction reports the server's local wall-clock time.
type TimeAction struct {
	now func() time.Time
}

func NewTimeAction() *TimeAction {
	return &TimeAction{now: time.Now}
}

func (t *TimeAction) Schema() Schema {
	return Schema{
		Name: "get_time",
		Description: "Retrieves the current local time in HH:MM:SS format based on the system's local timezone. " +
			"Use this tool whenever a user asks for the current time without specifying a different timezone. " +
			"It assumes the server clock is correctly synchronized and does not account for user-specific timezone requests. " +
			"Returns the time as a string in 24-hour format (e.g., 14:23:05).",
		InputSchema: InputSchema{
			Type:       "object",
			Properties: map[string]Property{},
			Required:   []string{},
		},
	}
}

func (t *TimeAction) Execute(_ context.Context, _ map[string]any) (string, error) {
	return t.now().Format("15:04:05"), nil
}

// DateAction reports the server's local calendar date.
type DateAction struct {
	now func() time.Time
}

func NewDateAction() *DateAction {
	return &DateAction{now: time.Now}
}

func (d *DateAction) Schema() Schema {
	return Schema{
		Name: "get_date",
		Description: "Retrieves the current local date, including the weekday, based on the system's local timezone. " +
			"Use this tool whenever a user asks for today's date or the day of the week.",
		InputSchema: InputSchema{
			Type:       "object",
			Properties: map[string]Property{},
			Required:   []string{},
		},
	}
}

func (d *DateAction) Execute(_ context.Context, _ map[string]any) (string, error) {
	return d.now().Format("Monday, January 2, 2006"), nil
}
