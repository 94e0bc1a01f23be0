package config

import (
	"os"
	"strings"
	"testing"
)

func TestReadDotEnvReportsMalformedLines(t *testing.T) {
	input := "# comment\n" +
		"export HTTP_PORT=9090\n" +
		"not a pair\n" +
		"1BAD=x\n" +
		"NAME='literal ${HOME}' \n" +
		"GREETING=\"hi\\tthere\"\n" +
		"EMPTY=\n"

	entries, malformed, err := readDotEnv(strings.NewReader(input))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(malformed) != 2 || malformed[0] != 3 || malformed[1] != 4 {
		t.Fatalf("expected lines 3 and 4 malformed, got %v", malformed)
	}

	want := map[string]string{
		"HTTP_PORT": "9090",
		"NAME":      "literal ${HOME}",
		"GREETING":  "hi\tthere",
		"EMPTY":     "",
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %+v", len(want), entries)
	}
	for _, entry := range entries {
		if entry.value != want[entry.key] {
			t.Fatalf("%s: expected %q, got %q", entry.key, want[entry.key], entry.value)
		}
	}
	if entries[1].line != 5 || !entries[1].literal {
		t.Fatalf("expected single-quoted entry on line 5, got %+v", entries[1])
	}
}

func TestApplyDotEnvExpandsEarlierKeys(t *testing.T) {
	unsetAfterTest(t, "HR_TEST_HOST", "HR_TEST_DSN", "HR_TEST_RAW")
	t.Setenv("HR_TEST_USER", "rooms")

	entries, _, err := readDotEnv(strings.NewReader(
		"HR_TEST_HOST=db.internal\n" +
			"HR_TEST_DSN=postgres://${HR_TEST_USER}@${HR_TEST_HOST}/habits\n" +
			"HR_TEST_RAW='${HR_TEST_HOST}'\n" +
			"HR_TEST_USER=ignored\n"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	report, err := applyDotEnv(entries)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := os.Getenv("HR_TEST_DSN"); got != "postgres://rooms@db.internal/habits" {
		t.Fatalf("expected expanded dsn, got %q", got)
	}
	if got := os.Getenv("HR_TEST_RAW"); got != "${HR_TEST_HOST}" {
		t.Fatalf("expected literal value, got %q", got)
	}
	if len(report.kept) != 1 || report.kept[0] != "HR_TEST_USER" {
		t.Fatalf("expected existing HR_TEST_USER kept, got %v", report.kept)
	}
	if len(report.applied) != 3 {
		t.Fatalf("expected 3 applied, got %v", report.applied)
	}
}
