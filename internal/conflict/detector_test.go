package conflict

import (
	"strings"
	"testing"

	"github.com/musohq/muso-ai-platform/internal/dates"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		timeA string
		timeB string
		want  Kind
	}{
		{"overlapping ranges", "7pm-9pm", "8pm-10pm", KindHard},
		{"disjoint ranges", "2pm-4pm", "7pm-9pm", KindSoft},
		{"touching ranges stay soft", "2pm-4pm", "4pm-6pm", KindSoft},
		{"single time occupies whole day", "7pm", "2pm-4pm", KindHard},
		{"two single times", "10am", "8pm", KindHard},
		{"one side unknown", "", "7pm-9pm", KindSoft},
		{"both unknown", "", "", KindSoft},
		{"24h range vs pm range", "19:00-21:00", "8pm-10pm", KindHard},
		{"borrowed meridiem", "7-9pm", "8:30pm-11pm", KindHard},
		{"unparseable treated as whole day", "evening sometime", "7pm-9pm", KindHard},
		{"wrap past midnight clamps", "9pm-1am", "11pm-11:30pm", KindHard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.timeA, tt.timeB); got != tt.want {
				t.Errorf("Classify(%q, %q) = %s, want %s", tt.timeA, tt.timeB, got, tt.want)
			}
			// Classification is symmetric.
			if got := Classify(tt.timeB, tt.timeA); got != tt.want {
				t.Errorf("Classify(%q, %q) = %s, want %s (symmetry)", tt.timeB, tt.timeA, got, tt.want)
			}
		})
	}
}

func TestDetailLine(t *testing.T) {
	d, _ := dates.New(2025, 8, 15)
	other := Record{ID: 12, ClientName: "Sarah Jones", EventTime: "7pm-9pm", EventDate: d}

	hard := DetailLine(KindHard, other)
	if !strings.Contains(hard, "#12") || !strings.Contains(hard, "Sarah Jones") ||
		!strings.Contains(hard, "7pm-9pm") || !strings.Contains(hard, "2025-08-15") {
		t.Errorf("hard detail incomplete: %q", hard)
	}
	if !strings.Contains(hard, "Time clash") {
		t.Errorf("hard detail should name the clash: %q", hard)
	}

	soft := DetailLine(KindSoft, Record{ID: 3, EventDate: d})
	if !strings.Contains(soft, "#3") || !strings.Contains(soft, "unknown") ||
		!strings.Contains(soft, "no time given") {
		t.Errorf("soft detail incomplete: %q", soft)
	}
}
