package rpi

import (
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// Realtime makes the calling goroutine as hard to interrupt as userspace
// allows: it locks it to its OS thread, blocks the runtime's preemption
// signal there, pins the thread to cpu (unless cpu is negative), raises its
// priority and locks the process's memory so a page fault can't stretch a
// pulse. Every step is attempted; the returned error lists the ones that
// failed, which usually just means we're not root.
//
// With SIGURG blocked the goroutine is only preempted at function calls, so
// a frame that outlasts the scheduler's 10ms slice doesn't get a pulse
// stretched by an asynchronous preemption.
//
// release undoes the signal mask and the thread lock. It's safe to call even
// if err isn't nil.
func Realtime(cpu int) (release func(), err error) {
	runtime.LockOSThread()
	var errs []error
	var block, old unix.Sigset_t
	block.Val[0] = 1 << (unix.SIGURG - 1)
	masked := true
	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &block, &old); err != nil {
		masked = false
		errs = append(errs, fmt.Errorf("couldn't block preemption signal: %w", err))
	}
	if cpu >= 0 {
		var set unix.CPUSet
		set.Zero()
		set.Set(cpu)
		if err := unix.SchedSetaffinity(0, &set); err != nil {
			errs = append(errs, fmt.Errorf("couldn't pin to CPU %d: %w", cpu, err))
		}
	}
	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, -20); err != nil {
		errs = append(errs, fmt.Errorf("couldn't raise priority: %w", err))
	}
	if err := unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE); err != nil {
		errs = append(errs, fmt.Errorf("couldn't lock memory: %w", err))
	}
	release = func() {
		if masked {
			unix.PthreadSigmask(unix.SIG_SETMASK, &old, nil) // Ignore error
		}
		runtime.UnlockOSThread()
	}
	return release, errors.Join(errs...)
}
