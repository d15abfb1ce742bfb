package timeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ageMilestones(feudal, castle, imperial *int) []Milestone {
	return []Milestone{
		{Name: "Feudal", At: feudal},
		{Name: "Castle", At: castle},
		{Name: "Imperial", At: imperial},
	}
}

func TestBuildSnapshots_Basic(t *testing.T) {
	events := []Event{
		{Time: 10, Line: "villager"},
		{Time: 20, Line: "archer_line"},
		{Time: 200, Line: "archer_line"},
	}

	series, err := BuildSnapshots(events, 300, ageMilestones(Seconds(130), nil, nil), 300)
	require.NoError(t, err)

	mid, ok := series.At(130)
	require.True(t, ok)
	assert.Equal(t, 1, mid.TotalsByLine["villager"])
	assert.Equal(t, 1, mid.TotalsByLine["archer_line"])

	end, ok := series.Last()
	require.True(t, ok)
	assert.Equal(t, 300, end.Time)
	assert.Equal(t, 2, end.TotalsByLine["archer_line"])
	assert.Equal(t, 1, end.TotalsByLine["villager"])
	assert.Len(t, series, 2)
}

func TestBuildSnapshots_Properties(t *testing.T) {
	events := []Event{
		{Time: 900, Line: "knight_line"},
		{Time: 5, Line: "villager"},
		{Time: 305, Line: "villager"},
		{Time: 300, Line: "scout_line"},
		{Time: 1679, Line: "knight_line"},
		{Time: 1700, Line: "knight_line"}, // after the match end
		{Time: 1200, Line: "monk"},
		{Time: 600, Line: "villager"},
	}
	duration := 1679

	series, err := BuildSnapshots(events, duration, ageMilestones(Seconds(600), Seconds(1150), Seconds(2000)), 300)
	require.NoError(t, err)
	require.NotEmpty(t, series)

	times := make([]int, len(series))
	for i, snap := range series {
		times[i] = snap.Time
	}
	assert.Equal(t, []int{300, 600, 900, 1150, 1200, 1500, 1679}, times)

	for i := 1; i < len(series); i++ {
		assert.Greater(t, series[i].Time, series[i-1].Time)
		for line, count := range series[i-1].TotalsByLine {
			assert.GreaterOrEqual(t, series[i].TotalsByLine[line], count, "line %s at %d", line, series[i].Time)
		}
	}

	last, _ := series.Last()
	assert.Equal(t, duration, last.Time)
	within := 0
	for _, e := range events {
		if e.Time <= duration {
			within++
		}
	}
	assert.Equal(t, within, last.Total())

	// boundaries are inclusive
	at300, _ := series.At(300)
	assert.Equal(t, map[string]int{"villager": 1, "scout_line": 1}, at300.TotalsByLine)
}

func TestBuildSnapshots_EmptyEvents(t *testing.T) {
	series, err := BuildSnapshots(nil, 650, nil, 300)
	require.NoError(t, err)
	require.Len(t, series, 3)
	for _, snap := range series {
		require.NotNil(t, snap.TotalsByLine)
		assert.Empty(t, snap.TotalsByLine)
	}
}

func TestBuildSnapshots_MilestoneOnBoundary(t *testing.T) {
	series, err := BuildSnapshots(nil, 900, ageMilestones(Seconds(600), nil, nil), 300)
	require.NoError(t, err)
	assert.Len(t, series, 3)

	series, err = BuildSnapshots(nil, 900, ageMilestones(nil, nil, Seconds(900)), 300)
	require.NoError(t, err)
	require.Len(t, series, 3)
	last, _ := series.Last()
	assert.Equal(t, 900, last.Time)
	assert.NotEqual(t, series[len(series)-2].Time, last.Time)
}

func TestBuildSnapshots_ZeroDuration(t *testing.T) {
	series, err := BuildSnapshots([]Event{{Time: 0, Line: "villager"}}, 0, nil, 300)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 0, series[0].Time)
	assert.Equal(t, 1, series[0].TotalsByLine["villager"])
}

func TestBuildSnapshots_SnapshotsAreIndependent(t *testing.T) {
	events := []Event{{Time: 10, Line: "villager"}, {Time: 400, Line: "villager"}}
	series, err := BuildSnapshots(events, 600, nil, 300)
	require.NoError(t, err)

	series[1].TotalsByLine["villager"] = 99
	assert.Equal(t, 1, series[0].TotalsByLine["villager"])
}

func TestBuildSnapshots_DoesNotReorderInput(t *testing.T) {
	events := []Event{{Time: 50, Line: "b"}, {Time: 10, Line: "a"}}
	_, err := BuildSnapshots(events, 100, nil, 30)
	require.NoError(t, err)
	assert.Equal(t, "b", events[0].Line)
}

func TestBuildSnapshots_Validation(t *testing.T) {
	tests := []struct {
		name     string
		events   []Event
		duration int
		interval int
		target   error
	}{
		{"missing line", []Event{{Time: 5}}, 100, 30, ErrInvalidEvent},
		{"negative time", []Event{{Time: -1, Line: "villager"}}, 100, 30, ErrInvalidEvent},
		{"zero interval", nil, 100, 0, ErrInvalidInterval},
		{"negative duration", nil, -1, 30, ErrInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, err := BuildSnapshots(tt.events, tt.duration, nil, tt.interval)
			assert.Nil(t, series)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}
