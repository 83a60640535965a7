package presenters_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/glizzus/pipeline-schedule/internal/presenters"
	"github.com/glizzus/pipeline-schedule/internal/repository"
	"github.com/glizzus/pipeline-schedule/internal/schedule"
	"github.com/google/go-cmp/cmp"
)

// A Monday.
var now = time.Date(2024, 11, 4, 12, 0, 0, 0, time.UTC)

func newPresenter() *presenters.Presenter {
	clock := func() time.Time { return now }
	return &presenters.Presenter{
		Converter:         &schedule.Converter{Location: time.UTC, Now: clock},
		AttributionCutoff: time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
		Now:               clock,
	}
}

func TestPipelineRows(t *testing.T) {
	input := []repository.Pipeline{
		{ID: "p1", Name: "Revenue rollup", Cron: "30 14 * * 1,3,5"},
		{ID: "p2", Name: "Ad hoc export"},
		{ID: "p3", Name: "Paused daily", Cron: "0 1 * * *", Paused: true},
		{ID: "p4", Name: "Legacy", Cron: "*/15 * * * *"},
	}
	want := []presenters.PipelineRow{
		{ID: "p1", Name: "Revenue rollup", Schedule: "Monday, Wednesday, Friday at 2:30 PM", NextRun: "2 hours from now", Status: "active"},
		{ID: "p2", Name: "Ad hoc export", Schedule: "Manual", NextRun: "-", Status: "manual"},
		{ID: "p3", Name: "Paused daily", Schedule: "Daily at 1:00 AM", NextRun: "-", Status: "paused"},
		{ID: "p4", Name: "Legacy", Schedule: "*/15 * * * *", NextRun: "15 minutes from now", Status: "active"},
	}

	got := newPresenter().PipelineRows(input)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PipelineRows() mismatch (-want +got):\n%s", diff)
	}
}

func runHistory() []repository.Run {
	finished := time.Date(2024, 11, 4, 11, 2, 5, 0, time.UTC)
	legacyEnd := time.Date(2024, 9, 1, 1, 2, 5, 0, time.UTC)
	return []repository.Run{
		{ID: "r2", StartTime: time.Date(2024, 11, 4, 11, 55, 0, 0, time.UTC), TriggeredBy: "System"},
		{ID: "r1", StartTime: time.Date(2024, 11, 4, 11, 0, 0, 0, time.UTC), EndTime: &finished, TriggeredBy: "analyst@example.com"},
		{ID: "r0", StartTime: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), EndTime: &legacyEnd, TriggeredBy: "old@example.com"},
	}
}

func TestRunRows(t *testing.T) {
	want := []presenters.RunRow{
		{ID: "r2", StartTime: "2024-11-04T11:55:00Z", Started: "5 minutes ago", Duration: "running", TriggeredBy: "System"},
		{ID: "r1", StartTime: "2024-11-04T11:00:00Z", Started: "1 hour ago", Duration: "2m 5s", TriggeredBy: "analyst"},
		{ID: "r0", StartTime: "2024-09-01T00:00:00Z", Started: "2 months ago", Duration: "1h 2m", TriggeredBy: "-"},
	}

	got := newPresenter().RunRows(runHistory())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RunRows() mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteTables(t *testing.T) {
	tests := []struct {
		name  string
		write func(*bytes.Buffer) error
		want  []string
	}{
		{
			name:  "no pipelines",
			write: func(b *bytes.Buffer) error { return presenters.WritePipelineTable(b, nil) },
			want:  []string{"No pipelines found"},
		},
		{
			name:  "no runs",
			write: func(b *bytes.Buffer) error { return presenters.WriteRunTable(b, nil) },
			want:  []string{"No runs found"},
		},
		{
			name: "pipelines",
			write: func(b *bytes.Buffer) error {
				return presenters.WritePipelineTable(b, []presenters.PipelineRow{
					{ID: "p1", Name: "Rollup", Schedule: "Daily at 1:00 AM", NextRun: "13 hours from now", Status: "active"},
				})
			},
			want: []string{
				"ID  NAME    SCHEDULE          NEXT RUN           STATUS",
				"p1  Rollup  Daily at 1:00 AM  13 hours from now  active",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tt.write(&buf); err != nil {
				t.Fatalf("write returned error: %v", err)
			}
			got := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("table mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunHistoryJSON(t *testing.T) {
	presenter := newPresenter()
	data, err := presenter.RunHistoryJSON("p1", runHistory())
	if err != nil {
		t.Fatalf("RunHistoryJSON() returned error: %v", err)
	}

	var got presenters.RunHistoryExport
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}

	want := presenters.RunHistoryExport{
		PipelineID: "p1",
		ExportedAt: now,
		Runs:       presenter.RunRows(runHistory()),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RunHistoryJSON() mismatch (-want +got):\n%s", diff)
	}
}
