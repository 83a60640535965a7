package presenters

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/glizzus/pipeline-schedule/internal/repository"
	"github.com/glizzus/pipeline-schedule/internal/runs"
	"github.com/glizzus/pipeline-schedule/internal/schedule"
)

const (
	StatusManual = "manual"
	StatusActive = "active"
	StatusPaused = "paused"
)

// PipelineRow is one line of the pipeline list view.
type PipelineRow struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Schedule string `json:"schedule"`
	NextRun  string `json:"nextRun"`
	Status   string `json:"status"`
}

// Presenter renders stored pipelines and runs for a viewer.
type Presenter struct {
	Converter         *schedule.Converter
	AttributionCutoff time.Time
	Now               func() time.Time
}

func NewPresenter(converter *schedule.Converter, attributionCutoff time.Time) *Presenter {
	return &Presenter{
		Converter:         converter,
		AttributionCutoff: attributionCutoff,
		Now:               time.Now,
	}
}

func (p *Presenter) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func pipelineStatus(pipeline repository.Pipeline) string {
	switch {
	case pipeline.Paused:
		return StatusPaused
	case pipeline.Cron == "":
		return StatusManual
	default:
		return StatusActive
	}
}

func (p *Presenter) nextRun(pipeline repository.Pipeline, now time.Time) string {
	if pipelineStatus(pipeline) != StatusActive {
		return "-"
	}
	next, err := schedule.NextRunTimesAfter(pipeline.Cron, now, 1)
	if err != nil {
		return "-"
	}
	return runs.RelativeTime(next[0], now)
}

func (p *Presenter) PipelineRows(pipelines []repository.Pipeline) []PipelineRow {
	now := p.now()
	rows := make([]PipelineRow, 0, len(pipelines))
	for _, pipeline := range pipelines {
		rows = append(rows, PipelineRow{
			ID:       pipeline.ID,
			Name:     pipeline.Name,
			Schedule: p.Converter.CronToHumanString(pipeline.Cron),
			NextRun:  p.nextRun(pipeline, now),
			Status:   pipelineStatus(pipeline),
		})
	}
	return rows
}

const noPipelinesFound = "No pipelines found"

// WritePipelineTable writes rows as an aligned plain-text table.
func WritePipelineTable(w io.Writer, rows []PipelineRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, noPipelinesFound)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSCHEDULE\tNEXT RUN\tSTATUS")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", row.ID, row.Name, row.Schedule, row.NextRun, row.Status)
	}
	return tw.Flush()
}
