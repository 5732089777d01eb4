package dates

import (
	"reflect"
	"testing"
)

func TestExtractDatesOrderAndDedup(t *testing.T) {
	text := "He arrived on March 7, 2024 and again on 3/9/2024. " +
		"The report, dated 2024-03-10, repeats March 7, 2024 once more."
	got := ExtractDates(text)
	want := []string{"March 7, 2024", "3/9/2024", "2024-03-10"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ExtractDates = %v, want %v", got, want)
	}
}

func TestExtractDatesQualifierSubsumesBareDate(t *testing.T) {
	text := "The incident occurred on or about January 2, 2023 according to staff."
	got := ExtractDates(text)
	if len(got) != 1 {
		t.Fatalf("expected a single match, got %v", got)
	}
	if got[0] != "on or about January 2, 2023" {
		t.Fatalf("qualifier not captured with the date: %q", got[0])
	}
}

func TestExtractDatesNoMatches(t *testing.T) {
	if got := ExtractDates("No timing information appears in this passage."); len(got) != 0 {
		t.Fatalf("expected no matches, got %v", got)
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"March 7, 2024", "2024-03-07", true},
		{"on or about January 2, 2023", "2023-01-02", true},
		{"approximately September 21st, 2022", "2022-09-21", true},
		{"3/9/2024", "2024-03-09", true},
		{"12-31-1999", "1999-12-31", true},
		{"2024-03-10", "2024-03-10", true},
		{"February 29, 2024", "2024-02-29", true},
		{"February 29, 2023", "", false},
		{"13/45/2024", "", false},
		{"sometime last spring", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseDate(tc.raw)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseDate(%q) = %q, %v; want %q, %v", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}
