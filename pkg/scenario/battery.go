package scenario

import (
	"context"
	"fmt"
	"strings"

	"github.com/awslabs/udisks-conformance/pkg/privdrop"
	"github.com/awslabs/udisks-conformance/pkg/profile"
	"github.com/awslabs/udisks-conformance/pkg/udisks"
)

// Scenario names.
const (
	NameCreate             = "create"
	NameLabel              = "label"
	NameMountAuto          = "mount-auto"
	NameMountFstab         = "mount-fstab"
	NameMountFstabUser     = "mount-fstab-user"
	NameMountFstabUserFail = "mount-fstab-user-fail"
)

// Options of mount configuration entries the test user may mount and unmount.
var userMountableOptions = []string{"users", "x-udisks-auth"}

// A Scenario is a single conformance check of a profile.
type Scenario struct {
	Name string
	// Precondition returns why the scenario cannot run for the case's profile, or an empty string.
	// It is evaluated before anything is changed, a scenario either runs completely or not at all.
	Precondition func(c *Case) string
	Run          func(ctx context.Context, c *Case) error
}

// Battery returns the scenarios run for every profile.
func Battery() []Scenario {
	return []Scenario{
		{Name: NameCreate, Precondition: canCreate, Run: runCreate},
		{Name: NameLabel, Precondition: all(canCreate, canLabel), Run: runLabel},
		{Name: NameMountAuto, Precondition: all(canCreate, canMount), Run: runMountAuto},
		{Name: NameMountFstab, Precondition: all(canCreate, canMount, modifiesSystem), Run: runMountFstab},
		{Name: NameMountFstabUser, Precondition: all(canCreate, canMount, userMountable, modifiesSystem), Run: runMountFstabUser},
		{Name: NameMountFstabUserFail, Precondition: all(canCreate, canMount, userMountable, modifiesSystem), Run: runMountFstabUserFail},
	}
}

func canCreate(c *Case) string {
	if !c.Profile.CanCreate {
		return fmt.Sprintf("Cannot create %s filesystem", c.Profile.Name)
	}
	return ""
}

func canLabel(c *Case) string {
	if !c.Profile.CanLabel {
		return fmt.Sprintf("Cannot set label on %s filesystem", c.Profile.Name)
	}
	return ""
}

func canMount(c *Case) string {
	if !c.Profile.CanMount {
		return fmt.Sprintf("Cannot mount %s filesystem", c.Profile.Name)
	}
	return ""
}

func userMountable(c *Case) string {
	if !c.Profile.UserMountable {
		return fmt.Sprintf("%s filesystem does not record the mounting user", c.Profile.Name)
	}
	return ""
}

func modifiesSystem(c *Case) string {
	if !c.ModifySystem {
		return "Skipping scenario that modifies system configuration"
	}
	return ""
}

func all(preconditions ...func(c *Case) string) func(c *Case) string {
	return func(c *Case) string {
		for _, p := range preconditions {
			if reason := p(c); reason != "" {
				return reason
			}
		}
		return ""
	}
}

func runCreate(ctx context.Context, c *Case) error {
	name := c.Profile.Name
	if err := c.format(ctx, name, udisks.FormatOptions{}); err != nil {
		return fmt.Errorf("Format %s: %w", name, err)
	}

	usage, err := settleString(ctx, c, "filesystem", c.Dev.IdUsage)
	if err != nil {
		return err
	}
	if usage != "filesystem" {
		return fmt.Errorf("%w: IdUsage is %q, expected %q", ErrUnexpectedState, usage, "filesystem")
	}

	return c.expectType(ctx, name)
}

func runLabel(ctx context.Context, c *Case) error {
	name := c.Profile.Name
	label := c.Profile.Label("test")
	if err := c.format(ctx, name, udisks.FormatOptions{Label: label}); err != nil {
		return fmt.Errorf("Format %s with label %q: %w", name, label, err)
	}
	if err := c.expectLabel(ctx, label); err != nil {
		return err
	}

	label = c.Profile.Label("aaaa")
	if err := c.Dev.SetLabel(ctx, label); err != nil {
		return fmt.Errorf("SetLabel %q: %w", label, err)
	}
	if err := c.expectLabel(ctx, label); err != nil {
		return err
	}

	return c.checkInvalidLabel(ctx, label)
}

// checkInvalidLabel exercises the profile's invalid label policy on a filesystem currently labelled `current`.
func (c *Case) checkInvalidLabel(ctx context.Context, current string) error {
	policy := c.Profile.InvalidLabel
	switch policy.Kind {
	case profile.LabelPolicyTruncate:
		label := strings.Repeat("a", policy.MaxLength+1)
		if err := c.Dev.SetLabel(ctx, label); err != nil {
			return fmt.Errorf("SetLabel %q: %w", label, err)
		}
		return c.expectLabel(ctx, label[:policy.MaxLength])
	case profile.LabelPolicyReject:
		err := c.Dev.SetLabel(ctx, policy.Label)
		if err := expectError(err, policy.ErrorKind, policy.Pattern); err != nil {
			return fmt.Errorf("SetLabel %q: %w", policy.Label, err)
		}
		return c.expectLabel(ctx, current)
	default:
		return nil
	}
}

func runMountAuto(ctx context.Context, c *Case) error {
	name := c.Profile.Name
	if err := c.format(ctx, name, udisks.FormatOptions{}); err != nil {
		return fmt.Errorf("Format %s: %w", name, err)
	}
	if err := c.expectNotMounted(ctx, ""); err != nil {
		return err
	}

	c.deferUnmount()
	mountPath, err := c.Dev.Mount(ctx, udisks.MountOptions{FsType: name, Options: []string{"ro"}})
	if err != nil {
		return fmt.Errorf("Mount: %w", err)
	}
	if err := c.expectMounted(ctx, mountPath, "ro"); err != nil {
		return err
	}

	if err := c.Dev.Unmount(ctx); err != nil {
		return fmt.Errorf("Unmount: %w", err)
	}
	return c.expectNotMounted(ctx, mountPath)
}

func runMountFstab(ctx context.Context, c *Case) error {
	name := c.Profile.Name
	if err := c.snapshotFstab(); err != nil {
		return err
	}
	if err := c.format(ctx, name, udisks.FormatOptions{}); err != nil {
		return fmt.Errorf("Format %s: %w", name, err)
	}
	dir, err := c.scratchDir()
	if err != nil {
		return err
	}

	entry := udisks.FstabEntry{Dir: dir, Type: name, Opts: []string{"ro"}}
	if err := c.addFstabEntry(ctx, entry); err != nil {
		return err
	}

	c.deferUnmount()
	mountPath, err := c.Dev.Mount(ctx, udisks.MountOptions{})
	if err != nil {
		return fmt.Errorf("Mount: %w", err)
	}
	if mountPath != dir {
		return fmt.Errorf("%w: Mount returned %s, expected the configured %s", ErrUnexpectedState, mountPath, dir)
	}
	return c.expectMounted(ctx, dir, "ro")
}

func runMountFstabUser(ctx context.Context, c *Case) error {
	name := c.Profile.Name
	if err := c.snapshotFstab(); err != nil {
		return err
	}
	if err := c.format(ctx, name, udisks.FormatOptions{}); err != nil {
		return fmt.Errorf("Format %s: %w", name, err)
	}
	acc, err := c.createAccount()
	if err != nil {
		return err
	}
	dir, err := c.scratchDir()
	if err != nil {
		return err
	}
	if err := c.addFstabEntry(ctx, udisks.FstabEntry{Dir: dir, Type: name, Opts: userMountableOptions}); err != nil {
		return err
	}

	c.deferUnmount()
	req := privdrop.Request{UID: acc.UID, GID: acc.GID, Device: c.Device, Operation: privdrop.OperationMount, Expect: privdrop.ExpectSuccess}
	if err := c.runWorker(ctx, req); err != nil {
		return err
	}

	req.Operation = privdrop.OperationUnmount
	return c.runWorker(ctx, req)
}

func runMountFstabUserFail(ctx context.Context, c *Case) error {
	name := c.Profile.Name
	if err := c.snapshotFstab(); err != nil {
		return err
	}
	if err := c.format(ctx, name, udisks.FormatOptions{}); err != nil {
		return fmt.Errorf("Format %s: %w", name, err)
	}
	acc, err := c.createAccount()
	if err != nil {
		return err
	}

	c.deferUnmount()
	req := privdrop.Request{UID: acc.UID, GID: acc.GID, Device: c.Device, Operation: privdrop.OperationMount, Expect: privdrop.ExpectUnauthorized}
	if err := c.runWorker(ctx, req); err != nil {
		return err
	}

	mountPath, err := c.Dev.Mount(ctx, udisks.MountOptions{})
	if err != nil {
		return fmt.Errorf("Mount: %w", err)
	}
	if err := c.expectMountPoint(mountPath, true); err != nil {
		return err
	}

	req.Operation = privdrop.OperationUnmount
	if err := c.runWorker(ctx, req); err != nil {
		return err
	}
	return c.expectMountPoint(mountPath, true)
}
