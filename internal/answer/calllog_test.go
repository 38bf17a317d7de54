package answer

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("[Chapter 1]\nsome excerpt", "what is this about?")

	if !strings.Contains(prompt, "[Chapter 1]\nsome excerpt") {
		t.Errorf("prompt missing context:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Question: what is this about?") {
		t.Errorf("prompt missing question:\n%s", prompt)
	}
}

func TestCallLog_AppendsJSONLines(t *testing.T) {
	dir := t.TempDir()

	l, err := NewCallLog(dir, "sqlite")
	if err != nil {
		t.Fatalf("new call log: %v", err)
	}

	recs := []CallRecord{
		{Question: "q1", Prompt: "p1", Answer: "a1"},
		{Question: "q2", Prompt: "p2", Answer: "a2"},
	}
	for _, rec := range recs {
		if err := l.Record(rec); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	f, err := os.Open(l.path)
	if err != nil {
		t.Fatalf("open log file: %v", err)
	}
	defer f.Close()

	var got []CallRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec CallRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("invalid json line %q: %v", scanner.Text(), err)
		}
		got = append(got, rec)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	for i, rec := range got {
		if rec.Question != recs[i].Question || rec.Answer != recs[i].Answer {
			t.Errorf("record %d mismatch: %+v", i, rec)
		}
		if rec.Timestamp == "" {
			t.Errorf("record %d missing timestamp", i)
		}
	}
}

func TestCallLog_NilIsNoOp(t *testing.T) {
	var l *CallLog
	if err := l.Record(CallRecord{Question: "q"}); err != nil {
		t.Errorf("nil call log should be a no-op, got %v", err)
	}
}

func TestNewCallLog_EmptyDirDisablesLogging(t *testing.T) {
	l, err := NewCallLog("", "sqlite")
	if err != nil {
		t.Fatalf("new call log: %v", err)
	}
	if l != nil {
		t.Errorf("expected nil log for empty dir, got %+v", l)
	}
}
