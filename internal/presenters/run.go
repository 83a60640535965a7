package presenters

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/glizzus/pipeline-schedule/internal/repository"
	"github.com/glizzus/pipeline-schedule/internal/runs"
)

// RunRow is one line of a pipeline's run history.
type RunRow struct {
	ID          string `json:"id"`
	StartTime   string `json:"startTime"`
	Started     string `json:"started"`
	Duration    string `json:"duration"`
	TriggeredBy string `json:"triggeredBy"`
}

const runningDuration = "running"

func (p *Presenter) RunRows(history []repository.Run) []RunRow {
	now := p.now()
	rows := make([]RunRow, 0, len(history))
	for _, run := range history {
		duration := runningDuration
		if run.EndTime != nil {
			duration = runs.FormatDuration(runs.DurationSeconds(run.StartTime, *run.EndTime))
		}

		triggeredBy, ok := runs.AttributedUser(run.StartTime, run.TriggeredBy, p.AttributionCutoff)
		if !ok {
			triggeredBy = "-"
		}

		rows = append(rows, RunRow{
			ID:          run.ID,
			StartTime:   run.StartTime.UTC().Format(time.RFC3339),
			Started:     runs.RelativeTime(run.StartTime, now),
			Duration:    duration,
			TriggeredBy: triggeredBy,
		})
	}
	return rows
}

const noRunsFound = "No runs found"

func WriteRunTable(w io.Writer, rows []RunRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, noRunsFound)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tDURATION\tTRIGGERED BY")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", row.ID, row.Started, row.Duration, row.TriggeredBy)
	}
	return tw.Flush()
}

// RunHistoryExport is the document written when run history is exported.
type RunHistoryExport struct {
	PipelineID string    `json:"pipelineId"`
	ExportedAt time.Time `json:"exportedAt"`
	Runs       []RunRow  `json:"runs"`
}

func (p *Presenter) RunHistoryJSON(pipelineID string, history []repository.Run) ([]byte, error) {
	export := RunHistoryExport{
		PipelineID: pipelineID,
		ExportedAt: p.now().UTC(),
		Runs:       p.RunRows(history),
	}
	return json.MarshalIndent(export, "", "  ")
}
