package share

import (
	"strings"
	"testing"
	"time"

	"github.com/nissyi-gh/teamflow/internal/model"
)

func TestSummary(t *testing.T) {
	now := time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		task model.Task
		want string
	}{
		{
			name: "full",
			task: model.Task{
				Title:       "Ship filters",
				Description: "  Status and priority.\n",
				DueDate:     "2026-10-17T09:00:00Z",
				Priority:    model.PriorityHigh,
				Assignee:    &model.Assignee{ID: 2, Email: "kai@example.com"},
			},
			want: "## Ship filters\n" +
				"- Status: Due Today\n" +
				"- Priority: high\n" +
				"- Due: 2026-10-17\n" +
				"- Assignee: kai@example.com\n" +
				"\nStatus and priority.\n",
		},
		{
			name: "bare",
			task: model.Task{Title: "Someday", IsCompleted: true},
			want: "## Someday\n" +
				"- Status: Done\n" +
				"- Priority: medium\n" +
				"- Assignee: Unassigned\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summary(tt.task, now); got != tt.want {
				t.Errorf("Summary() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestSummaryKeepsUnreadableDueDate(t *testing.T) {
	now := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	got := Summary(model.Task{Title: "x", DueDate: "soon"}, now)
	if !strings.Contains(got, "- Due: soon\n") || !strings.Contains(got, "- Status: Pending\n") {
		t.Errorf("Summary() = %q", got)
	}
}
