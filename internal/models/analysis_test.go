package models

import "testing"

func TestParseAnalysisMode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    AnalysisMode
		wantErr bool
	}{
		{"flash", "flash", ModeFlash, false},
		{"pro", "pro", ModePro, false},
		{"empty defaults to flash", "", ModeFlash, false},
		{"case insensitive", "PRO", ModePro, false},
		{"surrounding whitespace", " flash ", ModeFlash, false},
		{"unknown mode", "turbo", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnalysisMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAnalysisMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseAnalysisMode(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}
