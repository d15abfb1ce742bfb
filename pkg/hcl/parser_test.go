package hcl

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/leowmjw/go-replay-coach/pkg/analysis"
)

func TestParseHCLJobs(t *testing.T) {
	hclContent := `
	job "arabia" {
		export_level = "minimal"
		interval     = seconds("10:00")

		you {
			name     = "You"
			position = 1
		}

		record = {
			map      = { name = "Arabia" }
			duration = "27:59"
			players  = [{ name = "You" }, { name = "Opp" }]
			tc_idle  = [{ player = 1, start = seconds("1:00"), end = seconds("1:20") }]
		}
	}
	`

	jobs, err := ParseHCLJobs(hclContent)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	job := jobs[0]
	assert.Empty(t, job.ReplayPath)
	assert.Equal(t, "arabia", job.Request.ReplayName)
	assert.Equal(t, analysis.ExportMinimal, job.Request.ExportLevel)
	assert.Equal(t, 600, job.Request.Interval)
	assert.Equal(t, analysis.PlayerSelector{Name: "You", Position: 1}, job.Request.You)

	record := job.Request.Record
	require.NotNil(t, record)
	assert.Equal(t, map[string]interface{}{"name": "Arabia"}, record["map"])
	assert.Equal(t, "27:59", record["duration"])
	idle := record["tc_idle"].([]interface{})
	assert.Equal(t, map[string]interface{}{"player": 1, "start": 60, "end": 80}, idle[0])
}

func TestParseHCLJobs_MatchesJSON(t *testing.T) {
	hclContent, err := os.ReadFile("testdata/jobs.hcl")
	require.NoError(t, err)
	jobs, err := ParseHCLJobs(string(hclContent))
	require.NoError(t, err)

	hclAsJSON, err := json.Marshal(jobs)
	require.NoError(t, err)

	expectedJSON, err := os.ReadFile("testdata/jobs.json")
	require.NoError(t, err)

	assert.JSONEq(t, string(expectedJSON), string(hclAsJSON))
}

func TestParseHCLJobs_DefaultExportLevel(t *testing.T) {
	jobs, err := ParseHCLJobs(`
	job "plain" {
		replay = "plain.json"
		you {
			position = 2
		}
	}
	`)
	require.NoError(t, err)
	assert.Equal(t, analysis.ExportCoach, jobs[0].Request.ExportLevel)
	assert.Zero(t, jobs[0].Request.Interval)
}

func TestParseHCLJobs_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "syntax error",
			content: `job "broken" {`,
			errMsg:  "failed to parse HCL",
		},
		{
			name:    "no jobs",
			content: `defaults { export_level = "coach" }`,
			errMsg:  "at least one job block",
		},
		{
			name: "both replay and record",
			content: `job "x" {
				replay = "x.json"
				record = { players = [] }
				you { position = 1 }
			}`,
			errMsg: "mutually exclusive",
		},
		{
			name: "neither replay nor record",
			content: `job "x" {
				you { position = 1 }
			}`,
			errMsg: "one of replay or record",
		},
		{
			name:    "missing you",
			content: `job "x" { replay = "x.json" }`,
			errMsg:  "you block is required",
		},
		{
			name: "empty you",
			content: `job "x" {
				replay = "x.json"
				you {}
			}`,
			errMsg: "name or a position",
		},
		{
			name: "unknown export level",
			content: `job "x" {
				replay       = "x.json"
				export_level = "everything"
				you { position = 1 }
			}`,
			errMsg: "unknown export level",
		},
		{
			name: "bad interval",
			content: `job "x" {
				replay   = "x.json"
				interval = "whenever"
				you { position = 1 }
			}`,
			errMsg: "invalid interval",
		},
		{
			name: "bad seconds argument",
			content: `job "x" {
				record = { duration = seconds("soon") }
				you { position = 1 }
			}`,
			errMsg: "failed to evaluate record",
		},
		{
			name: "record not an object",
			content: `job "x" {
				record = ["a"]
				you { position = 1 }
			}`,
			errMsg: "record must be an object",
		},
		{
			name: "duplicate job",
			content: `job "x" {
				replay = "x.json"
				you { position = 1 }
			}
			job "x" {
				replay = "y.json"
				you { position = 1 }
			}`,
			errMsg: "defined more than once",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHCLJobs(tt.content)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestHCLValueToInterface(t *testing.T) {
	assert.Nil(t, hclValueToInterface(cty.NullVal(cty.String)))
	assert.Equal(t, 3, hclValueToInterface(cty.NumberIntVal(3)))
	assert.Equal(t, 2.5, hclValueToInterface(cty.NumberFloatVal(2.5)))
	assert.Equal(t, true, hclValueToInterface(cty.True))
	assert.Equal(t, []interface{}{"a", 1},
		hclValueToInterface(cty.TupleVal([]cty.Value{cty.StringVal("a"), cty.NumberIntVal(1)})))
	assert.Nil(t, hclValueToMap(cty.StringVal("not a map")))
}

func TestIsHCL(t *testing.T) {
	assert.True(t, IsHCL([]byte(`job "x" { replay = "x.json" }`)))
	assert.False(t, IsHCL([]byte(`{"players": []}`)))
}
