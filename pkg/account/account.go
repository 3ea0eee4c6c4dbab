// Package account manages the throwaway OS user the privilege scenarios drop to.
package account

import (
	"errors"
	"fmt"
	"os/user"
	"strconv"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/klog/v2"
	utilexec "k8s.io/utils/exec"
)

// DefaultName is the name of the unprivileged test user.
const DefaultName = "udisks_mount_test"

// ErrExists is returned by [Manager.Create] when an account with the requested name is already present.
// The harness never takes over an account it did not create.
var ErrExists = errors.New("account already exists")

// An Account is a created OS user.
type Account struct {
	Name string
	UID  int
	GID  int
}

// Manager creates and deletes OS accounts using `useradd` and `userdel`.
type Manager struct {
	Exec utilexec.Interface

	// lookup resolves an account name, overridable in tests.
	lookup func(name string) (*user.User, error)
}

// NewManager returns a [Manager] running the real account tools.
func NewManager() *Manager {
	return NewManagerWithExec(utilexec.New())
}

// NewManagerWithExec returns a [Manager] using given exec interface.
func NewManagerWithExec(exec utilexec.Interface) *Manager {
	return &Manager{Exec: exec, lookup: user.Lookup}
}

// Create adds a system account `name` without a home directory or login shell
// and returns its numeric identity.
func (m *Manager) Create(name string) (*Account, error) {
	if _, err := m.lookup(name); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, name)
	}

	out, err := m.Exec.Command("useradd", "-M", "-s", "/sbin/nologin", name).CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("Failed to create account %s: %w, output: %s", name, err, out)
	}
	klog.V(4).Infof("account: created %s", name)

	acc, err := m.lookupCreated(name)
	if err != nil {
		// The caller only deletes accounts it got back, remove it here.
		if delErr := m.Delete(name); delErr != nil {
			return nil, utilerrors.NewAggregate([]error{err, delErr})
		}
		return nil, err
	}
	return acc, nil
}

func (m *Manager) lookupCreated(name string) (*Account, error) {
	u, err := m.lookup(name)
	if err != nil {
		return nil, fmt.Errorf("Failed to look up created account %s: %w", name, err)
	}
	return fromUser(u)
}

// Delete removes account `name`.
func (m *Manager) Delete(name string) error {
	out, err := m.Exec.Command("userdel", name).CombinedOutput()
	if err != nil {
		return fmt.Errorf("Failed to delete account %s: %w, output: %s", name, err, out)
	}
	klog.V(4).Infof("account: deleted %s", name)
	return nil
}

func fromUser(u *user.User) (*Account, error) {
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return nil, fmt.Errorf("Invalid uid %q of account %s: %w", u.Uid, u.Username, err)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return nil, fmt.Errorf("Invalid gid %q of account %s: %w", u.Gid, u.Username, err)
	}
	return &Account{Name: u.Username, UID: uid, GID: gid}, nil
}
