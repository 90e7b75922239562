package commands

import "testing"

func TestParseSubject(t *testing.T) {
	tests := []struct {
		input   string
		want    Subject
		wantErr bool
	}{
		{"tools", SubjectTools, false},
		{"tool", SubjectTool, false},
		{"TOOLS", SubjectTools, false},
		{"Tool", SubjectTool, false},
		{"resources", SubjectResources, false},
		{"prompts", SubjectPrompts, false},
		{" tools ", SubjectTools, false},
		{"widgets", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSubject(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSubject(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSubject(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseSubject(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSubjectImplemented(t *testing.T) {
	implemented := map[Subject]bool{
		SubjectTools:     true,
		SubjectTool:      true,
		SubjectResources: false,
		SubjectPrompts:   false,
	}
	for subject, want := range implemented {
		if got := subject.Implemented(); got != want {
			t.Errorf("%s.Implemented() = %v, want %v", subject, got, want)
		}
	}
}
