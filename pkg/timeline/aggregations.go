package timeline

// AggregationType represents different types of aggregations
type AggregationType string

const (
	Sum   AggregationType = "sum"
	Max   AggregationType = "max"
	Count AggregationType = "count"
)

// Span is a stretch of match time, such as a town center sitting idle
type Span struct {
	Start    *int `json:"start,omitempty"`
	End      *int `json:"end,omitempty"`
	Duration *int `json:"duration,omitempty"`
}

// Seconds returns the length of the span. An explicit Duration wins over
// End-Start; spans that cannot be measured or run backwards count as zero.
func (s Span) Seconds() int {
	if s.Duration != nil {
		return clampNonNegative(*s.Duration)
	}
	if s.Start != nil && s.End != nil {
		return clampNonNegative(*s.End - *s.Start)
	}
	return 0
}

// IdleSummary is the aggregate of a player's idle spans
type IdleSummary struct {
	Total   int `json:"total"`
	Count   int `json:"count"`
	Longest int `json:"longest"`
}

// SummarizeIdle folds spans into an IdleSummary. Total is never negative.
func SummarizeIdle(spans []Span) IdleSummary {
	values := make([]int, len(spans))
	for i, s := range spans {
		values[i] = s.Seconds()
	}
	return IdleSummary{
		Total:   Aggregate(values, Sum),
		Count:   Aggregate(values, Count),
		Longest: Aggregate(values, Max),
	}
}

// Aggregate reduces whole-second values with the given aggregation. Empty
// input yields zero for every aggregation.
func Aggregate(values []int, aggType AggregationType) int {
	if len(values) == 0 {
		return 0
	}

	switch aggType {
	case Sum:
		return sumValues(values)
	case Max:
		return maxValues(values)
	case Count:
		return len(values)
	}
	return 0
}

func sumValues(values []int) int {
	sum := 0
	for _, v := range values {
		sum += v
	}
	return sum
}

func maxValues(values []int) int {
	max := values[0]
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return max
}

func clampNonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
