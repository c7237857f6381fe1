package action

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeAction_Execute(t *testing.T) {
	a := NewTimeAction()
	a.now = func() time.Time {
		return time.Date(2025, time.March, 14, 14, 23, 5, 0, time.UTC)
	}

	result, err := a.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "14:23:05", result)
}

func TestDateAction_Execute(t *testing.T) {
	a := NewDateAction()
	a.now = func() time.Time {
		return time.Date(2025, time.March, 14, 14, 23, 5, 0, time.UTC)
	}

	result, err := a.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Friday, March 14, 2025", result)
}
