package rpi

import (
	"runtime"
	"testing"

	"golang.org/x/sys/unix"
)

func sigurgBlocked(t *testing.T) bool {
	t.Helper()
	var cur unix.Sigset_t
	if err := unix.PthreadSigmask(unix.SIG_BLOCK, nil, &cur); err != nil {
		t.Fatalf("Couldn't read signal mask: %v", err)
	}
	return cur.Val[0]&(1<<(unix.SIGURG-1)) != 0
}

func TestRealtimeBlocksPreemption(t *testing.T) {
	// Keep the checks below on the same thread Realtime works on.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if sigurgBlocked(t) {
		t.Fatalf("SIGURG blocked before Realtime")
	}
	// Priority, affinity and mlock need root; the mask doesn't.
	release, _ := Realtime(-1)
	if !sigurgBlocked(t) {
		t.Errorf("SIGURG not blocked after Realtime")
	}
	release()
	if sigurgBlocked(t) {
		t.Errorf("SIGURG still blocked after release")
	}
}
