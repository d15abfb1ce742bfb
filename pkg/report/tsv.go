package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/leowmjw/go-replay-coach/pkg/analysis"
)

// TSVSchemaVersion is written as the last column of every row. Bump it when
// the column set changes.
const TSVSchemaVersion = "1"

// TSVColumns is the fixed column order of BuildTSVRow
var TSVColumns = []string{
	"timestamp",
	"map",
	"duration",
	"you_name",
	"you_civ",
	"you_winner",
	"opp_name",
	"opp_civ",
	"opp_winner",
	"you_feudal",
	"you_castle",
	"you_imperial",
	"opp_feudal",
	"opp_castle",
	"opp_imperial",
	"you_tc_idle",
	"opp_tc_idle",
	"schema_version",
}

// BuildTSVRow flattens a record into one spreadsheet row. It returns a copy
// of TSVColumns alongside the row so callers can write a header.
func BuildTSVRow(record *analysis.AnalysisRecord) ([]string, []string) {
	columns := append([]string(nil), TSVColumns...)

	var opp analysis.PlayerInfo
	if record.Players.Opponent != nil {
		opp = *record.Players.Opponent
	}
	var oppTimings analysis.PlayerTimings
	if record.CoachView.Timings.Opponent != nil {
		oppTimings = *record.CoachView.Timings.Opponent
	}

	you := record.Players.You
	youTimings := record.CoachView.Timings.You

	row := []string{
		optionalInt(record.Match.Timestamp),
		record.Match.Map,
		strconv.Itoa(record.Match.Duration),
		you.Name,
		you.Civilization,
		optionalBool(you.Winner),
		opp.Name,
		opp.Civilization,
		optionalBool(opp.Winner),
		youTimings.Ages["Feudal"].ClickTimeStr,
		youTimings.Ages["Castle"].ClickTimeStr,
		youTimings.Ages["Imperial"].ClickTimeStr,
		oppTimings.Ages["Feudal"].ClickTimeStr,
		oppTimings.Ages["Castle"].ClickTimeStr,
		oppTimings.Ages["Imperial"].ClickTimeStr,
		"",
		"",
		TSVSchemaVersion,
	}

	if eco := record.CoachView.EcoHealth; eco != nil {
		row[15] = strconv.Itoa(eco.You.TCIdleTime.Total)
		if eco.Opponent != nil {
			row[16] = strconv.Itoa(eco.Opponent.TCIdleTime.Total)
		}
	}
	return columns, row
}

// WriteTSV writes a header followed by one row per record
func WriteTSV(w io.Writer, records []*analysis.AnalysisRecord) error {
	tw := csv.NewWriter(w)
	tw.Comma = '\t'

	if err := tw.Write(TSVColumns); err != nil {
		return fmt.Errorf("failed to write TSV header: %w", err)
	}
	for i, record := range records {
		_, row := BuildTSVRow(record)
		if err := tw.Write(row); err != nil {
			return fmt.Errorf("failed to write TSV row %d: %w", i, err)
		}
	}
	tw.Flush()
	return tw.Error()
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optionalBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}
