package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_TaskLifecycle(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()

	_, err := s.OpenTask("s1", "first", "/w", t0)
	require.NoError(t, err)
	second, err := s.OpenTask("s1", "second", "/w", t0.Add(10*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2, second.Seq)

	open, err := s.ListTasks(TaskFilter{SessionID: "s1", OpenOnly: true})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "second", open[0].Prompt)

	closed, err := s.CloseTask("s1", t0.Add(70*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(60), closed.DurationSeconds)

	_, err = s.CloseTask("s1", t0.Add(80*time.Second))
	assert.ErrorIs(t, err, ErrNoOpenTask)

	syn, err := s.SynthesizeTask("s1", "/w", t0.Add(90*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 3, syn.Seq)
	assert.True(t, syn.Synthesized)
}

func TestMemoryStore_SummaryAndPrune(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()

	_, err := s.OpenTask("s1", "a", "/w", t0)
	require.NoError(t, err)
	_, err = s.CloseTask("s1", t0.Add(5*time.Second))
	require.NoError(t, err)
	_, err = s.OpenTask("s1", "b", "/w", t0.Add(time.Minute))
	require.NoError(t, err)

	sum, err := s.SessionSummary("s1")
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Tasks)
	assert.Equal(t, 1, sum.Completed)
	require.NotNil(t, sum.Open)
	assert.Equal(t, "b", sum.Open.Prompt)

	n, err := s.Prune(t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	seq, err := s.NextSequence("s1")
	require.NoError(t, err)
	assert.Equal(t, 3, seq)

	_, err = s.SessionSummary("nope")
	assert.Error(t, err)
}

func TestMemoryStore_Dispatches(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore()

	require.NoError(t, s.AddDispatch(&DispatchRecord{SessionID: "s1", Outcome: "delivered"}))
	require.NoError(t, s.AddDispatch(&DispatchRecord{SessionID: "s2", Outcome: "failed"}))
	require.NoError(t, s.AddDispatch(&DispatchRecord{SessionID: "s1", Outcome: "suppressed"}))

	got, err := s.ListDispatches("s1", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "suppressed", got[0].Outcome)

	one, err := s.ListDispatches("", 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}
