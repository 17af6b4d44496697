package models

import "testing"

func TestEntry_DisplayString(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  string
	}{
		{
			name:  "full entry",
			entry: Entry{Title: "Deep Learning", Authors: "Doe, Jane; Roe, Sam", Year: "2016"},
			want:  "[2016] Deep Learning - Doe, Jane; Roe, Sam",
		},
		{
			name:  "unknown year keeps empty brackets",
			entry: Entry{Title: "Some Title", Authors: "Doe, Jane"},
			want:  "[] Some Title - Doe, Jane",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.DisplayString(); got != tt.want {
				t.Errorf("DisplayString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestYearFromDate(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2019-03-00 2019-03", "2019"},
		{"2020-00-00 2020", "2020"},
		{"1999", "1999"},
		{"", ""},
		{"-05-01", ""},
	}
	for _, tt := range tests {
		if got := YearFromDate(tt.date); got != tt.want {
			t.Errorf("YearFromDate(%q) = %q, want %q", tt.date, got, tt.want)
		}
	}
}
