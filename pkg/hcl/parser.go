package hcl

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/leowmjw/go-replay-coach/pkg/analysis"
	"github.com/leowmjw/go-replay-coach/pkg/temporal"
	"github.com/leowmjw/go-replay-coach/pkg/timeline"
)

// HCLJobFile is the top-level structure of an analysis job file
type HCLJobFile struct {
	Defaults *HCLDefaults `hcl:"defaults,block"`
	Jobs     []HCLJob     `hcl:"job,block"`
}

// HCLDefaults holds settings shared by every job of a file
type HCLDefaults struct {
	ExportLevel *string        `hcl:"export_level,optional"`
	Interval    *hcl.Attribute `hcl:"interval,optional"`
	You         *HCLPlayer     `hcl:"you,block"`
}

// HCLJob describes one replay to analyze. Exactly one of replay (a path to
// a replay file) or record (an inline replay record) must be set.
type HCLJob struct {
	Name        string         `hcl:"name,label"`
	Replay      *string        `hcl:"replay,optional"`
	Record      *hcl.Attribute `hcl:"record,optional"`
	ExportLevel *string        `hcl:"export_level,optional"`
	Interval    *hcl.Attribute `hcl:"interval,optional"`
	You         *HCLPlayer     `hcl:"you,block"`
}

// HCLPlayer selects the "you" player
type HCLPlayer struct {
	Name     *string `hcl:"name,optional"`
	Position *int    `hcl:"position,optional"`
}

// AnalysisJob is a decoded job. ReplayPath is set, and Request.Record left
// nil, when the job points at a replay file instead of inlining the record.
type AnalysisJob struct {
	ReplayPath string                  `json:"replay_path,omitempty"`
	Request    temporal.AnalyzeRequest `json:"request"`
}

// ParseHCLJobs parses HCL content into analysis jobs
func ParseHCLJobs(hclContent string) ([]AnalysisJob, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL([]byte(hclContent), "jobs.hcl")
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}
	return parseHCLJobsFromFile(file)
}

// newEvalContext exposes seconds(), which turns "27:59", "0:27:59.757" or a
// plain number into whole seconds.
func newEvalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{},
		Functions: map[string]function.Function{
			"seconds": function.New(&function.Spec{
				Params: []function.Parameter{
					{
						Name:      "value",
						Type:      cty.DynamicPseudoType,
						AllowNull: true,
					},
				},
				Type: function.StaticReturnType(cty.Number),
				Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
					seconds, err := timeline.CoerceSeconds(hclValueToInterface(args[0]))
					if err != nil {
						return cty.NilVal, err
					}
					if seconds == nil {
						return cty.NullVal(cty.Number), nil
					}
					return cty.NumberIntVal(int64(*seconds)), nil
				},
			}),
		},
	}
}

func parseHCLJobsFromFile(file *hcl.File) ([]AnalysisJob, error) {
	evalCtx := newEvalContext()

	var jobFile HCLJobFile
	diags := gohcl.DecodeBody(file.Body, evalCtx, &jobFile)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL body: %s", diags.Error())
	}
	if len(jobFile.Jobs) == 0 {
		return nil, fmt.Errorf("at least one job block is required")
	}

	defaults := HCLDefaults{}
	if jobFile.Defaults != nil {
		defaults = *jobFile.Defaults
	}

	jobs := make([]AnalysisJob, 0, len(jobFile.Jobs))
	seen := make(map[string]bool, len(jobFile.Jobs))
	for _, hclJob := range jobFile.Jobs {
		if seen[hclJob.Name] {
			return nil, fmt.Errorf("job %q is defined more than once", hclJob.Name)
		}
		seen[hclJob.Name] = true

		job, err := convertHCLJob(hclJob, defaults, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", hclJob.Name, err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

// convertHCLJob applies the defaults and converts one job block
func convertHCLJob(hclJob HCLJob, defaults HCLDefaults, evalCtx *hcl.EvalContext) (*AnalysisJob, error) {
	job := &AnalysisJob{
		Request: temporal.AnalyzeRequest{ReplayName: hclJob.Name},
	}

	switch {
	case hclJob.Replay != nil && hclJob.Record != nil:
		return nil, fmt.Errorf("replay and record are mutually exclusive")
	case hclJob.Replay != nil:
		job.ReplayPath = *hclJob.Replay
	case hclJob.Record != nil:
		recordVal, diags := hclJob.Record.Expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate record: %s", diags.Error())
		}
		record := hclValueToMap(recordVal)
		if record == nil {
			return nil, fmt.Errorf("record must be an object")
		}
		job.Request.Record = record
	default:
		return nil, fmt.Errorf("one of replay or record is required")
	}

	level := ""
	if defaults.ExportLevel != nil {
		level = *defaults.ExportLevel
	}
	if hclJob.ExportLevel != nil {
		level = *hclJob.ExportLevel
	}
	exportLevel, err := analysis.ParseExportLevel(level)
	if err != nil {
		return nil, err
	}
	job.Request.ExportLevel = exportLevel

	intervalAttr := defaults.Interval
	if hclJob.Interval != nil {
		intervalAttr = hclJob.Interval
	}
	if intervalAttr != nil {
		interval, err := evalInterval(intervalAttr, evalCtx)
		if err != nil {
			return nil, err
		}
		job.Request.Interval = interval
	}

	you := hclJob.You
	if you == nil {
		you = defaults.You
	}
	if you == nil {
		return nil, fmt.Errorf("a you block is required")
	}
	if you.Name != nil {
		job.Request.You.Name = *you.Name
	}
	if you.Position != nil {
		job.Request.You.Position = *you.Position
	}
	if job.Request.You.Name == "" && job.Request.You.Position <= 0 {
		return nil, fmt.Errorf("you needs a name or a position of 1 or more")
	}

	return job, nil
}

// evalInterval accepts whole seconds, seconds() output or a Go duration
// string such as "5m".
func evalInterval(attr *hcl.Attribute, evalCtx *hcl.EvalContext) (int, error) {
	val, diags := attr.Expr.Value(evalCtx)
	if diags.HasErrors() {
		return 0, fmt.Errorf("failed to evaluate interval: %s", diags.Error())
	}
	switch v := hclValueToInterface(val).(type) {
	case string:
		return timeline.ParseInterval(v)
	case nil:
		return 0, nil
	default:
		seconds, err := timeline.CoerceSeconds(v)
		if err != nil {
			return 0, fmt.Errorf("invalid interval: %w", err)
		}
		if seconds == nil || *seconds <= 0 {
			return 0, fmt.Errorf("%w: %v", timeline.ErrInvalidInterval, v)
		}
		return *seconds, nil
	}
}

// hclValueToMap converts a cty object or map into a Go map[string]interface{}
func hclValueToMap(val cty.Value) map[string]interface{} {
	if val.IsNull() || !val.IsKnown() {
		return nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil
	}

	result := make(map[string]interface{})
	for key, attr := range val.AsValueMap() {
		result[key] = hclValueToInterface(attr)
	}
	return result
}

// hclValueToInterface converts a cty.Value to the shapes encoding/json
// produces, except that whole numbers become int.
func hclValueToInterface(val cty.Value) interface{} {
	if val.IsNull() || !val.IsKnown() {
		return nil
	}

	switch {
	case val.Type() == cty.String:
		return val.AsString()
	case val.Type() == cty.Number:
		bf := val.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return int(i)
			}
		}
		f, _ := bf.Float64()
		return f
	case val.Type() == cty.Bool:
		return val.True()
	case val.Type().IsObjectType() || val.Type().IsMapType():
		return hclValueToMap(val)
	case val.Type().IsListType() || val.Type().IsTupleType() || val.Type().IsSetType():
		values := val.AsValueSlice()
		result := make([]interface{}, len(values))
		for i, v := range values {
			result[i] = hclValueToInterface(v)
		}
		return result
	default:
		return nil
	}
}

// IsHCL attempts to detect if the given content is in HCL format
func IsHCL(content []byte) bool {
	_, diags := hclsyntax.ParseConfig(content, "", hcl.Pos{Line: 1, Column: 1})
	return !diags.HasErrors()
}
