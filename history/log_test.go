package history

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lumafield/enginemesh/core"
	"github.com/lumafield/enginemesh/internal/testutil"
)

func TestLog_CapEvictsOldestFirst(t *testing.T) {
	l := NewLog(3)
	for i := 0; i < 5; i++ {
		l.Append(testutil.HistoryEntry("register", fmt.Sprintf("k%d", i), time.Millisecond))
	}
	entries := l.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 retained entries, got %d", len(entries))
	}
	// the 3 most recent survive
	for i, want := range []string{"k2", "k3", "k4"} {
		if entries[i].Key != want {
			t.Fatalf("entry %d: got key %s, want %s", i, entries[i].Key, want)
		}
	}
}

func TestLog_CapZeroStaysEmpty(t *testing.T) {
	l := NewLog(0)
	l.Append(testutil.HistoryEntry("mutate", "a", time.Millisecond))
	l.Append(testutil.HistoryEntry("mutate", "b", time.Millisecond))
	if l.Len() != 0 {
		t.Fatalf("expected empty log at cap 0, got %d entries", l.Len())
	}
	// stats still accumulate
	if l.Stats("a").Count != 1 {
		t.Fatalf("expected stats despite cap 0")
	}
}

func TestLog_SetCapTruncatesImmediately(t *testing.T) {
	l := NewLog(10)
	for i := 0; i < 6; i++ {
		l.Append(testutil.HistoryEntry("op", fmt.Sprintf("k%d", i), 0))
	}
	l.SetCap(2)
	entries := l.Entries()
	if len(entries) != 2 || entries[0].Key != "k4" || entries[1].Key != "k5" {
		t.Fatalf("expected the 2 most recent after SetCap, got %#v", entries)
	}
}

func TestLog_FilterLinearScan(t *testing.T) {
	l := NewLog(10)
	l.Append(testutil.HistoryEntry("register", "a", 0))
	l.Append(testutil.HistoryEntry("update", "a", 0))
	failed := testutil.HistoryEntry("update", "b", 0)
	failed.Err = "boom"
	l.Append(failed)

	if got := len(l.Filter(core.HistoryFilter{Key: "a"})); got != 2 {
		t.Fatalf("expected 2 entries for key a, got %d", got)
	}
	if got := len(l.Filter(core.HistoryFilter{Operation: "update"})); got != 2 {
		t.Fatalf("expected 2 update entries, got %d", got)
	}
	if got := len(l.Filter(core.HistoryFilter{FailedOnly: true})); got != 1 {
		t.Fatalf("expected 1 failed entry, got %d", got)
	}
}

func TestLog_StatsIncrementalMean(t *testing.T) {
	l := NewLog(10)
	l.Append(testutil.HistoryEntry("op", "a", 10*time.Millisecond))
	l.Append(testutil.HistoryEntry("op", "a", 30*time.Millisecond))
	s := l.Stats("a")
	if s.Count != 2 {
		t.Fatalf("expected count 2, got %d", s.Count)
	}
	if s.MeanDuration != 20*time.Millisecond {
		t.Fatalf("expected mean 20ms, got %s", s.MeanDuration)
	}
	if l.Stats("missing").Count != 0 {
		t.Fatalf("expected zero stats for unseen key")
	}
}

func TestLog_AppendFillsIDAndTime(t *testing.T) {
	l := NewLog(5)
	l.Append(core.HistoryEntry{Operation: "op", Key: "a"})
	e := l.Entries()[0]
	if e.ID == "" || e.Time.IsZero() {
		t.Fatalf("expected filled id and time, got %#v", e)
	}
}

func TestLog_ConcurrentAppend(t *testing.T) {
	l := NewLog(100)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Append(testutil.HistoryEntry("op", "shared", time.Duration(i)*time.Millisecond))
		}(i)
	}
	wg.Wait()
	if l.Len() != 50 {
		t.Fatalf("expected 50 entries, got %d", l.Len())
	}
	if l.Stats("shared").Count != 50 {
		t.Fatalf("expected 50 stat samples, got %d", l.Stats("shared").Count)
	}
}
