// Package process runs the helper processes the sender depends on.
package process

import (
	"context"
	"math"
	"os/exec"
	"strconv"
	"time"
)

// WakeLockCommand keeps the machine awake for the wrapped command (macOS).
const WakeLockCommand = "caffeinate"

// LookPath locates WakeLockCommand. Tests replace it to force the timer path.
var LookPath = exec.LookPath

// Sleep waits for d. When caffeinate is available the wait runs as
// "caffeinate -dis sleep N" so the display, idle and system sleep are held
// off; otherwise, or when the helper fails, a plain timer covers the
// remaining time. Cancelling ctx kills the helper's process group and
// returns ctx.Err().
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	if path, err := LookPath(WakeLockCommand); err == nil {
		return sleepAwake(ctx, path, d)
	}
	return sleepTimer(ctx, d)
}

// HasWakeLock reports whether Sleep will hold a wake lock.
func HasWakeLock() bool {
	_, err := LookPath(WakeLockCommand)
	return err == nil
}

func sleepAwake(ctx context.Context, path string, d time.Duration) error {
	secs := int(math.Ceil(d.Seconds()))
	cmd := exec.Command(path, "-dis", "sleep", strconv.Itoa(secs)) // #nosec G204 -- fixed binary and numeric argument
	startGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return sleepTimer(ctx, d)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return sleepTimer(ctx, d-time.Since(start))
		}
		return nil
	case <-ctx.Done():
		KillProcessGroup(cmd.Process.Pid)
		<-done
		return ctx.Err()
	}
}

func sleepTimer(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
