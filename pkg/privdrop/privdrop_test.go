package privdrop

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/awslabs/udisks-conformance/pkg/util/testutil/assert"
)

// Test devices select the behaviour of the worker re-executed from this test binary.
const (
	deviceEcho  = "echo"
	deviceCrash = "crash"
	deviceHang  = "hang"
	devicePanic = "panic"
	// deviceDrop drops privileges with extra threads running and reports the credentials of every thread.
	deviceDrop = "drop"
)

func TestMain(m *testing.M) {
	MaybeRunWorker(testHandler)
	os.Exit(m.Run())
}

func testHandler(ctx context.Context, req Request) Verdict {
	switch req.Device {
	case deviceEcho:
		return Verdict{Success: req.Expect == ExpectSuccess, Message: req.String()}
	case deviceCrash:
		os.Exit(3)
	case deviceHang:
		time.Sleep(time.Hour)
	case devicePanic:
		panic("boom")
	case deviceDrop:
		return dropWithThreads(req)
	}
	return Failed("unknown test device %q", req.Device)
}

// dropWithThreads gives the worker supplementary groups and several OS threads before dropping privileges,
// then checks no thread kept any of the former credentials.
func dropWithThreads(req Request) Verdict {
	if err := syscall.Setgroups([]int{4, 6, 10}); err != nil {
		return Failed("Failed to set up supplementary groups: %v", err)
	}

	stop := make(chan struct{})
	defer close(stop)
	var started sync.WaitGroup
	for range 8 {
		started.Add(1)
		go func() {
			// A locked goroutine keeps its thread to itself, so each one forces another thread.
			runtime.LockOSThread()
			started.Done()
			<-stop
		}()
	}
	started.Wait()

	if err := DropPrivileges(req.UID, req.GID); err != nil {
		return Failed("%v", err)
	}
	if err := checkThreadCredentials(req.UID, req.GID); err != nil {
		return Failed("%v", err)
	}
	return Succeeded()
}

// checkThreadCredentials checks every thread of the process runs as `uid`:`gid` without supplementary groups.
func checkThreadCredentials(uid, gid int) error {
	statuses, err := filepath.Glob("/proc/self/task/*/status")
	if err != nil {
		return err
	}
	if len(statuses) < 9 {
		return fmt.Errorf("expected at least 9 threads, found %d", len(statuses))
	}
	for _, path := range statuses {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, line := range strings.Split(string(data), "\n") {
			key, value, ok := strings.Cut(line, ":")
			if !ok {
				continue
			}
			fields := strings.Fields(value)
			switch key {
			case "Uid":
				if err := allEqual(fields, uid); err != nil {
					return fmt.Errorf("%s: Uid %w", path, err)
				}
			case "Gid":
				if err := allEqual(fields, gid); err != nil {
					return fmt.Errorf("%s: Gid %w", path, err)
				}
			case "Groups":
				if len(fields) > 0 {
					return fmt.Errorf("%s: still has supplementary groups %v", path, fields)
				}
			}
		}
	}
	return nil
}

func allEqual(fields []string, want int) error {
	for _, f := range fields {
		if f != strconv.Itoa(want) {
			return fmt.Errorf("is %v, expected %d", fields, want)
		}
	}
	return nil
}

func TestRunSuccess(t *testing.T) {
	req := Request{UID: 1001, GID: 1002, Device: deviceEcho, Operation: OperationMount, Expect: ExpectSuccess}
	verdict := Run(context.Background(), req, 0)
	assert.Equals(t, Verdict{Success: true, Message: "mount echo as 1001:1002 expecting success"}, verdict)
}

func TestRunFailedVerdict(t *testing.T) {
	req := Request{UID: 1001, GID: 1002, Device: deviceEcho, Operation: OperationUnmount, Expect: ExpectUnauthorized}
	verdict := Run(context.Background(), req, 0)
	assert.Equals(t, Verdict{Success: false, Message: "unmount echo as 1001:1002 expecting unauthorized"}, verdict)
}

func TestSpawnJoin(t *testing.T) {
	req := Request{Device: deviceEcho, Operation: OperationMount, Expect: ExpectSuccess}
	w, err := Spawn(context.Background(), req, time.Minute)
	assert.NoError(t, err)
	verdict := w.Join(context.Background())
	assert.Equals(t, true, verdict.Success)
}

func TestJoinWorkerExitsWithoutVerdict(t *testing.T) {
	verdict := Run(context.Background(), Request{Device: deviceCrash, Operation: OperationMount}, 0)
	assert.Equals(t, false, verdict.Success)
	assertContains(t, verdict.Message, "exited without a verdict")
	assertContains(t, verdict.Message, "exit status 3")
}

func TestJoinTimeout(t *testing.T) {
	start := time.Now()
	verdict := Run(context.Background(), Request{Device: deviceHang, Operation: OperationMount}, 500*time.Millisecond)
	assert.Equals(t, false, verdict.Success)
	assertContains(t, verdict.Message, "did not report a verdict within 500ms")
	if elapsed := time.Since(start); elapsed > time.Minute {
		t.Fatalf("Expected Join to give up after the timeout, took %s", elapsed)
	}
}

func TestJoinContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w, err := Spawn(ctx, Request{Device: deviceHang, Operation: OperationMount}, time.Hour)
	assert.NoError(t, err)
	cancel()
	verdict := w.Join(ctx)
	assert.Equals(t, false, verdict.Success)
	assertContains(t, verdict.Message, "context canceled")
}

func TestWorkerPanic(t *testing.T) {
	verdict := Run(context.Background(), Request{Device: devicePanic, Operation: OperationMount}, 0)
	assert.Equals(t, Verdict{Success: false, Message: "Worker panicked: boom"}, verdict)
}

func TestSpawnMissingExecutable(t *testing.T) {
	old := Executable
	Executable = "/nonexistent/udisks-conformance"
	t.Cleanup(func() { Executable = old })

	verdict := Run(context.Background(), Request{Device: deviceEcho}, 0)
	assert.Equals(t, false, verdict.Success)
	assertContains(t, verdict.Message, "Failed to spawn worker")
}

func TestRecv(t *testing.T) {
	testCases := []struct {
		name    string
		payload string
		want    Verdict
		wantErr string
	}{
		{
			name:    "verdict",
			payload: `{"success":false,"message":"/dev/loop7 not mounted"}`,
			want:    Verdict{Success: false, Message: "/dev/loop7 not mounted"},
		},
		{
			name:    "closed before verdict",
			payload: "",
			wantErr: "closed before",
		},
		{
			name:    "malformed",
			payload: `{"success":tru`,
			wantErr: "failed to decode",
		},
		{
			name:    "oversized",
			payload: strings.Repeat(" ", maxMessageSize+1),
			wantErr: "exceeds",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			verdict, err := recv(strings.NewReader(tc.payload))
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equals(t, tc.want, verdict)
		})
	}
}

func TestDropPrivilegesAppliesToAllThreads(t *testing.T) {
	if os.Geteuid() != 0 {
		t.Skip("Dropping privileges needs root")
	}

	req := Request{UID: 65534, GID: 65534, Device: deviceDrop, Operation: OperationMount, Expect: ExpectSuccess}
	verdict := Run(context.Background(), req, 0)
	if !verdict.Success {
		t.Fatalf("Expected all worker threads to run as 65534:65534, got: %s", verdict.Message)
	}
}

func TestIsWorker(t *testing.T) {
	assert.Equals(t, false, IsWorker())
	t.Setenv(EnvWorker, "1")
	assert.Equals(t, true, IsWorker())
}

func assertContains(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Fatalf("Expected %q to contain %q", s, substr)
	}
}
