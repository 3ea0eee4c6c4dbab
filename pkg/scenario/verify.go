package scenario

import (
	"context"
	"fmt"

	"github.com/awslabs/udisks-conformance/pkg/udisks"
)

// expectType checks both views report the fixture device formatted as `want`.
func (c *Case) expectType(ctx context.Context, want string) error {
	remote, err := settleString(ctx, c, want, c.Dev.IdType)
	if err != nil {
		return err
	}
	system, err := settleString(ctx, c, want, probeString(c.Probe.FilesystemType, c.Device))
	if err != nil {
		return err
	}
	return compareViews("filesystem type of "+c.Device, want, remote, system)
}

// expectLabel checks both views report the fixture device labelled `want`.
func (c *Case) expectLabel(ctx context.Context, want string) error {
	remote, err := settleString(ctx, c, want, c.Dev.IdLabel)
	if err != nil {
		return err
	}
	system, err := settleString(ctx, c, want, probeString(c.Probe.FilesystemLabel, c.Device))
	if err != nil {
		return err
	}
	return compareViews("label of "+c.Device, want, remote, system)
}

// expectNotMounted checks neither view has the fixture device mounted, and if `path` is given,
// that it is no longer a mount point.
func (c *Case) expectNotMounted(ctx context.Context, path string) error {
	mountPoints, err := settle(ctx, c, c.Dev.MountPoints, func(v []string) bool { return len(v) == 0 })
	if err != nil {
		return err
	}
	record, err := c.Probe.MountRecord(c.Device)
	if err != nil {
		return err
	}
	if err := compareViews(c.Device+" mounted", false, len(mountPoints) > 0, record != nil); err != nil {
		return err
	}
	if path != "" {
		return c.expectMountPoint(path, false)
	}
	return nil
}

// expectMounted checks both views have the fixture device mounted exactly once, at `path`,
// and if `option` is given, that the mount table lists it.
func (c *Case) expectMounted(ctx context.Context, path string, option string) error {
	mountPoints, err := settle(ctx, c, c.Dev.MountPoints, func(v []string) bool {
		return len(v) == 1 && v[0] == path
	})
	if err != nil {
		return err
	}
	if len(mountPoints) != 1 {
		return fmt.Errorf("%w: expected %s to have exactly one mount point %s, UDisks2 reports %v",
			ErrUnexpectedState, c.Device, path, mountPoints)
	}

	records, err := c.Probe.MountRecords(c.Device)
	if err != nil {
		return err
	}
	if err := compareViews("number of mounts of "+c.Device, 1, len(mountPoints), len(records)); err != nil {
		return err
	}
	record := &records[0]
	if err := compareViews("mount point of "+c.Device, path, mountPoints[0], record.MountPoint); err != nil {
		return err
	}
	if err := c.expectMountPoint(path, true); err != nil {
		return err
	}

	if option != "" && !record.HasOption(option) {
		return fmt.Errorf("%w: %s mounted with %v, expected %s", ErrUnexpectedState, c.Device, record.Options, option)
	}
	return nil
}

// expectMountPoint checks whether `path` is an active mount point.
func (c *Case) expectMountPoint(path string, want bool) error {
	got, err := c.Probe.IsMountPoint(path)
	if err != nil {
		return err
	}
	if got != want {
		if want {
			return fmt.Errorf("%w: %s is not a mount point", ErrUnexpectedState, path)
		}
		return fmt.Errorf("%w: %s is still a mount point", ErrUnexpectedState, path)
	}
	return nil
}

// addFstabEntry adds `entry` as mount configuration of the fixture device and checks both
// UDisks2 and fstab have it.
func (c *Case) addFstabEntry(ctx context.Context, entry udisks.FstabEntry) error {
	if err := c.Dev.AddConfigurationItem(ctx, entry); err != nil {
		return fmt.Errorf("AddConfigurationItem %s: %w", entry.Dir, err)
	}

	configured := func(ctx context.Context) (string, error) {
		entries, err := c.Dev.Configuration(ctx)
		if err != nil {
			return "", err
		}
		for _, e := range entries {
			if e.Dir == entry.Dir {
				return e.Dir, nil
			}
		}
		return "", nil
	}
	remote, err := settleString(ctx, c, entry.Dir, configured)
	if err != nil {
		return err
	}

	record, err := c.Probe.ConfigRecord(c.Device)
	if err != nil {
		return err
	}
	system := ""
	if record != nil {
		system = record.Dir
	}
	return compareViews("configured mount point of "+c.Device, entry.Dir, remote, system)
}
