package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/mount-utils"

	"github.com/awslabs/udisks-conformance/pkg/account"
	"github.com/awslabs/udisks-conformance/pkg/fstab"
	"github.com/awslabs/udisks-conformance/pkg/privdrop"
	"github.com/awslabs/udisks-conformance/pkg/probe"
	"github.com/awslabs/udisks-conformance/pkg/profile"
	"github.com/awslabs/udisks-conformance/pkg/udisks"
)

// ErrMissingDevice is returned when no fixture device is configured.
var ErrMissingDevice = errors.New("no fixture device configured")

const defaultSettleInterval = 200 * time.Millisecond

// AccountManager creates and deletes the unprivileged test account.
type AccountManager interface {
	Create(name string) (*account.Account, error)
	Delete(name string) error
}

// A WorkerFunc runs `req` in a privilege-drop worker and returns its verdict.
type WorkerFunc func(ctx context.Context, req privdrop.Request) privdrop.Verdict

// Env holds what scenarios run against.
type Env struct {
	// Device is the fixture block device, e.g. `/dev/loop7`. It is formatted by every scenario.
	Device string

	Client   udisks.Client
	Probe    probe.Probe
	Mounter  mount.Interface
	Accounts AccountManager
	Worker   WorkerFunc

	FstabPath  string
	ScratchDir string
	UserName   string

	// ModifySystem enables scenarios changing system configuration like `/etc/fstab` and user accounts.
	ModifySystem bool

	// SettleTimeout is how long property reads wait for an expected value to be published.
	SettleTimeout  time.Duration
	SettleInterval time.Duration
}

// Validate checks `e` can run scenarios and fills in defaults.
func (e *Env) Validate() error {
	if e.Device == "" {
		return ErrMissingDevice
	}
	if e.Client == nil || e.Probe == nil {
		return fmt.Errorf("scenario: environment for %s needs a client and a probe", e.Device)
	}
	if e.FstabPath == "" {
		e.FstabPath = fstab.DefaultPath
	}
	if e.ScratchDir == "" {
		e.ScratchDir = os.TempDir()
	}
	if e.UserName == "" {
		e.UserName = account.DefaultName
	}
	if e.SettleInterval <= 0 {
		e.SettleInterval = defaultSettleInterval
	}
	return nil
}

// A Case is a single scenario run against a single profile.
type Case struct {
	*Env
	Profile profile.Profile
	Dev     udisks.BlockDevice
	Log     logr.Logger

	scope *Scope
}

// Defer registers a release to run when the scenario ends.
func (c *Case) Defer(name string, fn ReleaseFunc) {
	c.scope.Defer(name, fn)
}

// format formats the fixture device. The release wiping the device again is registered
// before the call, so a call that fails halfway still gets cleaned up.
func (c *Case) format(ctx context.Context, fsType string, opts udisks.FormatOptions) error {
	c.Defer("format empty", func(ctx context.Context) error {
		return c.Dev.Format(ctx, "empty", udisks.FormatOptions{Erase: true})
	})
	c.Log.V(1).Info("Formatting", "fsType", fsType, "label", opts.Label)
	return c.Dev.Format(ctx, fsType, opts)
}

// deferUnmount registers a release unmounting the fixture device if it is still mounted,
// bypassing UDisks2.
func (c *Case) deferUnmount() {
	c.Defer("unmount", func(ctx context.Context) error {
		record, err := c.Probe.MountRecord(c.Device)
		if err != nil {
			return err
		}
		if record == nil {
			return nil
		}
		if c.Mounter == nil {
			return fmt.Errorf("%s is still mounted at %s", c.Device, record.MountPoint)
		}
		return c.Mounter.Unmount(record.MountPoint)
	})
}

// snapshotFstab registers a release restoring fstab to its current content.
func (c *Case) snapshotFstab() error {
	snapshot, err := fstab.Take(c.FstabPath)
	if err != nil {
		return err
	}
	c.Defer("restore fstab", func(ctx context.Context) error {
		return snapshot.Restore()
	})
	return nil
}

// scratchDir creates an empty directory to use as a mount point.
func (c *Case) scratchDir() (string, error) {
	dir := filepath.Join(c.ScratchDir, "udisks-conformance-"+uuid.NewString())
	if err := os.Mkdir(dir, 0755); err != nil {
		return "", fmt.Errorf("Failed to create scratch directory: %w", err)
	}
	// Not `RemoveAll`: if the directory is still a mount point, its content is the filesystem's.
	c.Defer("remove scratch directory", func(ctx context.Context) error {
		return os.Remove(dir)
	})
	return dir, nil
}

// createAccount creates the unprivileged test account.
// The release is registered only once the account exists, an account that existed before is never deleted.
func (c *Case) createAccount() (*account.Account, error) {
	if c.Accounts == nil {
		return nil, errors.New("scenario: no account manager configured")
	}
	acc, err := c.Accounts.Create(c.UserName)
	if err != nil {
		return nil, err
	}
	c.Defer("delete account", func(ctx context.Context) error {
		return c.Accounts.Delete(acc.Name)
	})
	c.Log.V(1).Info("Created account", "name", acc.Name, "uid", acc.UID, "gid", acc.GID)
	return acc, nil
}

// runWorker runs `req` in a privilege-drop worker and turns a failed verdict into an error.
func (c *Case) runWorker(ctx context.Context, req privdrop.Request) error {
	if c.Worker == nil {
		return errors.New("scenario: no privileged worker configured")
	}
	c.Log.V(1).Info("Running privileged worker", "request", req.String())
	verdict := c.Worker(ctx, req)
	if !verdict.Success {
		return fmt.Errorf("%w: %s: %s", ErrWorkerFailed, req, verdict.Message)
	}
	return nil
}

// settle calls `get` until `done` accepts its result or the settle timeout passes,
// and returns the last result. UDisks2 publishes property changes asynchronously.
func settle[T any](ctx context.Context, c *Case, get func(ctx context.Context) (T, error), done func(T) bool) (T, error) {
	if c.SettleTimeout <= 0 {
		return get(ctx)
	}
	var last T
	err := wait.PollUntilContextTimeout(ctx, c.SettleInterval, c.SettleTimeout, true, func(ctx context.Context) (bool, error) {
		v, err := get(ctx)
		if err != nil {
			return false, err
		}
		last = v
		return done(v), nil
	})
	if err != nil && !wait.Interrupted(err) {
		return last, err
	}
	return last, nil
}

// settleString waits for a string property to become `want`.
func settleString(ctx context.Context, c *Case, want string, get func(ctx context.Context) (string, error)) (string, error) {
	return settle(ctx, c, get, func(v string) bool { return v == want })
}

// probeString adapts a probe query to the signature [settle] expects.
func probeString(query func(device string) (string, error), device string) func(ctx context.Context) (string, error) {
	return func(context.Context) (string, error) {
		return query(device)
	}
}
