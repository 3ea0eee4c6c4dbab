// Package privdrop runs a single UDisks2 operation in a separate worker process
// under a different user identity and reports the outcome back as a [Verdict].
//
// The worker is the running executable re-executed with [EnvWorker] set. The parent
// and the worker share one end each of a Unix socket pair, passed to the worker as
// file descriptor 3. The parent writes one [Request], the worker writes one [Verdict].
package privdrop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sys/unix"
	"k8s.io/klog/v2"
)

// EnvWorker marks a process as a privilege-drop worker.
const EnvWorker = "UDISKS_CONFORMANCE_WORKER"

// DefaultTimeout bounds how long [Worker.Join] waits for a verdict.
const DefaultTimeout = 2 * time.Minute

// channelFd is the file descriptor the worker finds its end of the socket pair at.
// Entries of `exec.Cmd.ExtraFiles` become file descriptor 3+i.
const channelFd = 3

// maxMessageSize bounds a single request or verdict.
const maxMessageSize = 64 * 1024

// An Operation is the UDisks2 call a worker performs.
type Operation string

const (
	OperationMount   Operation = "mount"
	OperationUnmount Operation = "unmount"
)

// An Expectation is the outcome a worker is asked to verify.
type Expectation string

const (
	ExpectSuccess      Expectation = "success"
	ExpectUnauthorized Expectation = "unauthorized"
)

// A Request describes the work of a single worker.
type Request struct {
	UID       int         `json:"uid"`
	GID       int         `json:"gid"`
	Device    string      `json:"device"`
	Operation Operation   `json:"operation"`
	Expect    Expectation `json:"expect"`
}

func (r Request) String() string {
	return fmt.Sprintf("%s %s as %d:%d expecting %s", r.Operation, r.Device, r.UID, r.GID, r.Expect)
}

// A Verdict is the only payload a worker sends back.
type Verdict struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Succeeded returns a successful [Verdict].
func Succeeded() Verdict {
	return Verdict{Success: true}
}

// Failed returns a failed [Verdict] with a formatted diagnostic message.
func Failed(format string, args ...any) Verdict {
	return Verdict{Success: false, Message: fmt.Sprintf(format, args...)}
}

// Executable is the binary re-executed to start a worker.
var Executable = "/proc/self/exe"

// A Worker is a spawned worker process whose verdict has not been consumed yet.
type Worker struct {
	cmd     *exec.Cmd
	conn    *net.UnixConn
	timeout time.Duration
	req     Request
}

// Spawn starts a worker process for `req` and sends the request to it.
// The returned worker's verdict must be consumed with [Worker.Join].
// A non-positive `timeout` uses [DefaultTimeout].
func Spawn(ctx context.Context, req Request, timeout time.Duration) (*Worker, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create socket pair: %w", err)
	}
	parent := os.NewFile(uintptr(fds[0]), "privdrop-parent")
	child := os.NewFile(uintptr(fds[1]), "privdrop-worker")
	defer parent.Close()
	defer child.Close()

	cmd := exec.Command(Executable)
	cmd.Env = append(os.Environ(), EnvWorker+"=1")
	cmd.ExtraFiles = []*os.File{child}
	// Stdout is left for the parent's own output, worker logs go to stderr.
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	fileConn, err := net.FileConn(parent)
	if err != nil {
		return nil, fmt.Errorf("failed to open worker channel: %w", err)
	}
	conn := fileConn.(*net.UnixConn)

	if err := cmd.Start(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to start worker %s: %w", Executable, err)
	}
	klog.V(4).Infof("privdrop: started worker %d: %s", cmd.Process.Pid, req)

	w := &Worker{cmd: cmd, conn: conn, timeout: timeout, req: req}

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
	}
	if err := send(conn, req); err != nil {
		w.kill()
		w.cmd.Wait()
		conn.Close()
		return nil, err
	}
	conn.SetWriteDeadline(time.Time{})

	return w, nil
}

// Run spawns a worker for `req` and joins it. Failing to spawn the worker is reported as a failed [Verdict].
func Run(ctx context.Context, req Request, timeout time.Duration) Verdict {
	w, err := Spawn(ctx, req, timeout)
	if err != nil {
		return Failed("Failed to spawn worker: %v", err)
	}
	return w.Join(ctx)
}

type received struct {
	verdict Verdict
	err     error
}

// Join waits for the worker's verdict and for the worker to exit.
//
// It never returns an error: a channel closed before a verdict, a malformed verdict,
// a worker exiting abnormally, or the wait exceeding the worker timeout all become a failed [Verdict].
// The worker is killed if it does not finish in time.
func (w *Worker) Join(ctx context.Context) Verdict {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	defer w.conn.Close()

	recvCh := make(chan received, 1)
	go func() {
		verdict, err := recv(w.conn)
		recvCh <- received{verdict: verdict, err: err}
	}()

	exitCh := make(chan error, 1)
	go func() {
		exitCh <- w.cmd.Wait()
	}()

	var verdict Verdict
	select {
	case r := <-recvCh:
		if r.err != nil {
			select {
			case exitErr := <-exitCh:
				return Failed("Worker (%s) exited without a verdict: %v (%s)", w.req, r.err, describeExit(exitErr))
			case <-ctx.Done():
				w.kill()
				<-exitCh
				return Failed("Worker (%s) closed its channel without a verdict and did not exit within %s: %v", w.req, w.timeout, r.err)
			}
		}
		verdict = r.verdict
	case <-ctx.Done():
		w.kill()
		<-exitCh
		return Failed("Worker (%s) did not report a verdict within %s: %v", w.req, w.timeout, ctx.Err())
	}

	select {
	case exitErr := <-exitCh:
		if exitErr != nil && verdict.Success {
			return Failed("Worker (%s) reported success but exited abnormally: %s", w.req, describeExit(exitErr))
		}
	case <-ctx.Done():
		w.kill()
		<-exitCh
		if verdict.Success {
			return Failed("Worker (%s) reported success but did not exit within %s", w.req, w.timeout)
		}
	}

	klog.V(4).Infof("privdrop: worker %d finished: %+v", w.cmd.Process.Pid, verdict)
	return verdict
}

func (w *Worker) kill() {
	if err := w.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		klog.Warningf("privdrop: failed to kill worker %d: %v", w.cmd.Process.Pid, err)
	}
}

func describeExit(err error) string {
	if err == nil {
		return "exit status 0"
	}
	return err.Error()
}

// send writes `message` and closes the write side of `conn`.
func send(conn *net.UnixConn, message any) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal %T: %w", message, err)
	}
	n, err := conn.Write(data)
	if err != nil {
		return fmt.Errorf("failed to write %T to worker channel: %w", message, err)
	}
	if n != len(data) {
		return fmt.Errorf("partial write of %T to worker channel: size %d - written %d", message, len(data), n)
	}
	if err := conn.CloseWrite(); err != nil {
		return fmt.Errorf("failed to close write side of worker channel: %w", err)
	}
	return nil
}

// recv reads the single message written by the other end until it closes its write side.
func recv(r io.Reader) (Verdict, error) {
	var verdict Verdict
	if err := decode(r, &verdict); err != nil {
		return Verdict{}, err
	}
	return verdict, nil
}

func decode(r io.Reader, message any) error {
	data, err := io.ReadAll(io.LimitReader(r, maxMessageSize+1))
	if err != nil {
		return fmt.Errorf("failed to read %T from worker channel: %w", message, err)
	}
	if len(data) == 0 {
		return fmt.Errorf("worker channel closed before %T was sent", message)
	}
	if len(data) > maxMessageSize {
		return fmt.Errorf("%T from worker channel exceeds %d bytes", message, maxMessageSize)
	}
	if err := json.Unmarshal(data, message); err != nil {
		return fmt.Errorf("failed to decode %T from worker channel: %w", message, err)
	}
	return nil
}
