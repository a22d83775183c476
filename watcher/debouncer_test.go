package watcher

import (
	"sort"
	"testing"
	"time"
)

const testInterval = 50 * time.Millisecond

func receiveBatch(t *testing.T, d *Debouncer, timeout time.Duration) []Event {
	t.Helper()
	select {
	case batch := <-d.Output():
		return batch
	case <-time.After(timeout):
		t.Fatal("timed out waiting for debouncer batch")
		return nil
	}
}

func Test_Debouncer_SingleEvent(t *testing.T) {
	d := NewDebouncer(testInterval)
	defer d.Stop()

	d.Add("main.go", OpChange)

	batch := receiveBatch(t, d, 500*time.Millisecond)
	if len(batch) != 1 {
		t.Fatalf("expected 1 event, got %d", len(batch))
	}
	if batch[0].Path != "main.go" || batch[0].Op != OpChange {
		t.Errorf("unexpected event %+v", batch[0])
	}
}

func Test_Debouncer_CollapsesSamePath(t *testing.T) {
	d := NewDebouncer(testInterval)
	defer d.Stop()

	d.Add("main.go", OpCreate)
	d.Add("main.go", OpChange)
	d.Add("main.go", OpRemove)

	batch := receiveBatch(t, d, 500*time.Millisecond)
	if len(batch) != 1 {
		t.Fatalf("expected same-path events to collapse, got %d", len(batch))
	}
	if batch[0].Op != OpRemove {
		t.Errorf("expected the latest op to win, got %d", batch[0].Op)
	}
}

func Test_Debouncer_BatchesDistinctPaths(t *testing.T) {
	d := NewDebouncer(testInterval)
	defer d.Stop()

	d.Add("a.go", OpCreate)
	d.Add("b.go", OpChange)

	batch := receiveBatch(t, d, 500*time.Millisecond)
	if len(batch) != 2 {
		t.Fatalf("expected 2 events, got %d", len(batch))
	}

	paths := []string{batch[0].Path, batch[1].Path}
	sort.Strings(paths)
	if paths[0] != "a.go" || paths[1] != "b.go" {
		t.Errorf("unexpected batch paths %v", paths)
	}
}

func Test_Debouncer_TimerResetsOnNewEvents(t *testing.T) {
	d := NewDebouncer(testInterval)
	defer d.Stop()

	d.Add("a.go", OpCreate)
	time.Sleep(testInterval / 2)
	d.Add("b.go", OpCreate)

	// Both events land in one batch because the second Add reset the timer.
	batch := receiveBatch(t, d, 500*time.Millisecond)
	if len(batch) != 2 {
		t.Errorf("expected both events in one batch, got %d", len(batch))
	}
}

func Test_Debouncer_StopClosesOutput(t *testing.T) {
	d := NewDebouncer(testInterval)

	d.Add("a.go", OpCreate)
	d.Stop()

	// After Stop, the channel must be closed and nothing delivered.
	select {
	case batch, ok := <-d.Output():
		if ok {
			t.Errorf("expected closed channel, got batch %v", batch)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected Output to be closed after Stop")
	}
}

func Test_Debouncer_AddAfterStopIsNoOp(t *testing.T) {
	d := NewDebouncer(testInterval)
	d.Stop()

	// Must not panic or deliver.
	d.Add("a.go", OpCreate)
}
