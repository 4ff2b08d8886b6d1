package runlock

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquire_SecondHolderReportsBusy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	l1, ok, err := Acquire(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("first acquire should succeed")
	}
	defer l1.Release()

	_, ok2, err := Acquire(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok2 {
		t.Error("second acquire should report busy while the lock is held")
	}
}

func TestAcquire_ReleaseAllowsReacquire(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	l1, ok, err := Acquire(path)
	if err != nil || !ok {
		t.Fatalf("first acquire failed: ok=%v err=%v", ok, err)
	}
	if err := l1.Release(); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	l2, ok, err := Acquire(path)
	if err != nil || !ok {
		t.Fatalf("reacquire after release failed: ok=%v err=%v", ok, err)
	}
	l2.Release()
}

func TestAcquire_LockLivesNextToState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	l, ok, err := Acquire(path)
	if err != nil || !ok {
		t.Fatalf("acquire failed: ok=%v err=%v", ok, err)
	}
	defer l.Release()

	if !strings.HasSuffix(l.Path(), "state.json.lock") {
		t.Errorf("lock path = %q, want it derived from the state path", l.Path())
	}
}
