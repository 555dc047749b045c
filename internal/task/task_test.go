package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claudekit/nudge/internal/store"
)

func TestFromRecord_OpenTask(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	task := FromRecord(&store.TaskRecord{ID: 7, SessionID: "s", Seq: 3, Prompt: "p", Cwd: "/src/api", CreatedAt: created})

	require.NotNil(t, task)
	assert.True(t, task.IsOpen())
	assert.Nil(t, task.DurationSeconds)
	assert.Zero(t, task.Duration())
	assert.False(t, task.HasMeasuredDuration())
	assert.Equal(t, "/src/api", task.WorkingDirectory)
	assert.Equal(t, "api", task.DisplayName())
}

func TestFromRecord_CompletedTask(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	task := FromRecord(&store.TaskRecord{
		Seq:             1,
		CreatedAt:       created,
		CompletedAt:     created.Add(143 * time.Second),
		DurationSeconds: 143,
	})

	assert.False(t, task.IsOpen())
	require.NotNil(t, task.DurationSeconds)
	assert.Equal(t, int64(143), *task.DurationSeconds)
	assert.Equal(t, 143*time.Second, task.Duration())
	assert.True(t, task.HasMeasuredDuration())
}

func TestFromRecord_Nil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, FromRecord(nil))
}

func TestProjectName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"/Users/me/code/my-api":  "my-api",
		"/Users/me/code/my-api/": "my-api",
		"":                       "Claude Code",
		"/":                      "Claude Code",
		".":                      "Claude Code",
		"relative/dir":           "dir",
	}
	for in, want := range tests {
		assert.Equal(t, want, ProjectName(in), "ProjectName(%q)", in)
	}
}
