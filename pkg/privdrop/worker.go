package privdrop

import (
	"context"
	"fmt"
	"net"
	"os"
	"syscall"

	"k8s.io/klog/v2"
)

// A Handler performs the work of a worker process and classifies its outcome.
type Handler func(ctx context.Context, req Request) Verdict

// Worker exit codes.
const (
	exitVerdictSuccess = 0
	exitVerdictFailure = 1
	exitChannelFailure = 2
)

// IsWorker returns whether the current process was spawned as a worker.
func IsWorker() bool {
	return os.Getenv(EnvWorker) == "1"
}

// MaybeRunWorker runs `handler` and exits the process if the current process was spawned
// as a worker. Otherwise it returns immediately.
// It must be called before anything else in `main` or `TestMain`.
func MaybeRunWorker(handler Handler) {
	if !IsWorker() {
		return
	}
	os.Exit(RunWorker(handler))
}

// RunWorker receives the request from the parent, runs `handler` and sends the verdict back.
// It returns the exit code for the worker process.
func RunWorker(handler Handler) int {
	os.Unsetenv(EnvWorker)

	f := os.NewFile(channelFd, "privdrop-worker")
	if f == nil {
		klog.Errorf("privdrop: file descriptor %d is invalid", channelFd)
		return exitChannelFailure
	}
	fileConn, err := net.FileConn(f)
	f.Close()
	if err != nil {
		klog.Errorf("privdrop: failed to open worker channel: %v", err)
		return exitChannelFailure
	}
	conn := fileConn.(*net.UnixConn)
	defer conn.Close()

	var req Request
	if err := decode(conn, &req); err != nil {
		klog.Errorf("privdrop: %v", err)
		return exitChannelFailure
	}
	klog.V(4).Infof("privdrop: worker %d received: %s", os.Getpid(), req)

	verdict := handle(context.Background(), handler, req)

	if err := send(conn, verdict); err != nil {
		klog.Errorf("privdrop: %v", err)
		return exitChannelFailure
	}
	if !verdict.Success {
		return exitVerdictFailure
	}
	return exitVerdictSuccess
}

// handle runs `handler`, converting a panic into a failed [Verdict].
func handle(ctx context.Context, handler Handler, req Request) (verdict Verdict) {
	defer func() {
		if r := recover(); r != nil {
			verdict = Failed("Worker panicked: %v", r)
		}
	}()
	return handler(ctx, req)
}

// DropPrivileges permanently switches every thread of the process to `uid` and `gid`.
// The order matters: supplementary groups are cleared first, then the group IDs are set
// while the process is still privileged to do so, and the user IDs last.
//
// These are the `syscall` variants, which apply to all threads. `unix.Setgroups` only changes the calling thread.
func DropPrivileges(uid, gid int) error {
	if err := syscall.Setgroups([]int{}); err != nil {
		return fmt.Errorf("failed to clear supplementary groups: %w", err)
	}
	if err := syscall.Setresgid(gid, gid, gid); err != nil {
		return fmt.Errorf("failed to set gid to %d: %w", gid, err)
	}
	if err := syscall.Setresuid(uid, uid, uid); err != nil {
		return fmt.Errorf("failed to set uid to %d: %w", uid, err)
	}
	klog.V(4).Infof("privdrop: dropped privileges to %d:%d", uid, gid)
	return nil
}
