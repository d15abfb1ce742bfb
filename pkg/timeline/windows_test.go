package timeline

import (
	"testing"
)

func TestCreateTumblingWindows(t *testing.T) {
	windows, err := CreateTumblingWindows(1000, 300)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedWindows := 4 // 300, 600, 900 and the 100s tail
	if len(windows) != expectedWindows {
		t.Errorf("Expected %d windows, got %d", expectedWindows, len(windows))
	}

	// Check non-overlapping
	for i := 1; i < len(windows); i++ {
		if windows[i].Start != windows[i-1].End {
			t.Errorf("Windows should be non-overlapping, window %d start %d != previous end %d",
				i, windows[i].Start, windows[i-1].End)
		}
	}

	if windows[len(windows)-1].End != 1000 {
		t.Errorf("Last window should end at the match end, got %d", windows[len(windows)-1].End)
	}
}

func TestCreateTumblingWindows_ExactMultiple(t *testing.T) {
	windows, err := CreateTumblingWindows(900, 300)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) != 3 {
		t.Errorf("Expected 3 windows, got %d", len(windows))
	}
}

func TestSampleInstants(t *testing.T) {
	tests := []struct {
		name       string
		duration   int
		interval   int
		milestones []Milestone
		expected   []int
	}{
		{"grid only", 700, 300, nil, []int{300, 600, 700}},
		{"milestone between boundaries", 700, 300, []Milestone{{Name: "Feudal", At: Seconds(130)}}, []int{130, 300, 600, 700}},
		{"milestone on boundary", 700, 300, []Milestone{{Name: "Feudal", At: Seconds(300)}}, []int{300, 600, 700}},
		{"milestone at end", 700, 300, []Milestone{{Name: "Imperial", At: Seconds(700)}}, []int{300, 600, 700}},
		{"milestone after end", 700, 300, []Milestone{{Name: "Imperial", At: Seconds(701)}}, []int{300, 600, 700}},
		{"absent milestone", 700, 300, []Milestone{{Name: "Castle"}}, []int{300, 600, 700}},
		{"duplicate milestones", 700, 300, []Milestone{{Name: "a", At: Seconds(50)}, {Name: "b", At: Seconds(50)}}, []int{50, 300, 600, 700}},
		{"short match", 120, 300, nil, []int{120}},
		{"empty match", 0, 300, nil, []int{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SampleInstants(tt.duration, tt.interval, tt.milestones)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("expected %v, got %v", tt.expected, got)
					break
				}
			}
		})
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		value    string
		expected int
		wantErr  bool
	}{
		{"5m", 300, false},
		{"90s", 90, false},
		{"300", 300, false},
		{"5:00", 300, false},
		{"0", 0, true},
		{"0s", 0, true},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseInterval(tt.value)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseInterval(%q): expected error", tt.value)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseInterval(%q): unexpected error %v", tt.value, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseInterval(%q): expected %d, got %d", tt.value, tt.expected, got)
		}
	}
}
