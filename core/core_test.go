package core

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestEngineError_IsMatchesByCode(t *testing.T) {
	err := NewError(CodeDuplicateKey, "key %q already registered", "a")
	if !errors.Is(err, &EngineError{Code: CodeDuplicateKey}) {
		t.Fatalf("expected code match, got %v", err)
	}
	if errors.Is(err, &EngineError{Code: CodeKeyNotFound}) {
		t.Fatalf("expected no match across codes")
	}
	// matching survives wrapping
	wrapped := fmt.Errorf("outer: %w", err)
	if !HasCode(wrapped, CodeDuplicateKey) {
		t.Fatalf("expected HasCode through wrapping")
	}
}

func TestEngineError_Details(t *testing.T) {
	err := NewError(CodeValidationFailed, "rejected").WithDetail("field", "x").WithDetail("got", 3)
	ee, ok := AsEngineError(err)
	if !ok {
		t.Fatalf("expected EngineError, got %T", err)
	}
	if ee.Details["field"] != "x" || ee.Details["got"] != 3 {
		t.Fatalf("unexpected details: %#v", ee.Details)
	}
	if ee.Error() != "VALIDATION_FAILED: rejected" {
		t.Fatalf("unexpected message: %s", ee.Error())
	}
}

func TestResultHelpers(t *testing.T) {
	ok := OKResult(42)
	if !ok.OK || ok.Value.(int) != 42 || ok.Err != nil {
		t.Fatalf("unexpected ok result: %#v", ok)
	}
	fail := ErrResult(NewError(CodeKeyNotFound, "missing"))
	if fail.OK || fail.Err == nil {
		t.Fatalf("unexpected err result: %#v", fail)
	}
}

func TestEntry_HasTag(t *testing.T) {
	e := Entry{Key: "a", Options: EntryOptions{Tags: []string{"nav", "hero"}}}
	if !e.HasTag("hero") {
		t.Fatalf("expected tag hit")
	}
	if e.HasTag("footer") {
		t.Fatalf("expected tag miss")
	}
}

func TestSnapshot_CloneIsolation(t *testing.T) {
	snap := Snapshot{"a": {Key: "a", Payload: 1}}
	cp := snap.Clone()
	cp["b"] = Entry{Key: "b", Payload: 2}
	if len(snap) != 1 {
		t.Fatalf("clone mutation leaked into original: %#v", snap)
	}
	if len(cp.Keys()) != 2 {
		t.Fatalf("expected 2 keys in clone")
	}
}

func TestHistoryFilter_Matches(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entry := HistoryEntry{Operation: "update", Key: "a", Time: base, Err: "boom"}

	cases := []struct {
		name   string
		filter HistoryFilter
		want   bool
	}{
		{"empty filter", HistoryFilter{}, true},
		{"operation hit", HistoryFilter{Operation: "update"}, true},
		{"operation miss", HistoryFilter{Operation: "register"}, false},
		{"key hit", HistoryFilter{Key: "a"}, true},
		{"key miss", HistoryFilter{Key: "b"}, false},
		{"since before", HistoryFilter{Since: base.Add(-time.Hour)}, true},
		{"since after", HistoryFilter{Since: base.Add(time.Hour)}, false},
		{"failed only hit", HistoryFilter{FailedOnly: true}, true},
	}
	for _, tc := range cases {
		if got := tc.filter.Matches(entry); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}

	okEntry := HistoryEntry{Operation: "register", Key: "a", Time: base}
	if (HistoryFilter{FailedOnly: true}).Matches(okEntry) {
		t.Fatalf("failed-only filter matched successful entry")
	}
}

func TestOpLimiter(t *testing.T) {
	l := NewOpLimiter(2)
	if err := l.Increment(); err != nil {
		t.Fatalf("first increment failed: %v", err)
	}
	if err := l.Increment(); err != nil {
		t.Fatalf("second increment failed: %v", err)
	}
	if err := l.Increment(); err == nil {
		t.Fatalf("expected limit error on third increment")
	}
	if l.Count() != 3 {
		t.Fatalf("expected count 3, got %d", l.Count())
	}

	unlimited := NewOpLimiter(0)
	if unlimited.Remaining() != -1 {
		t.Fatalf("expected -1 remaining for unlimited")
	}
}
