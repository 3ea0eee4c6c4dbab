package scenario

import (
	"context"
	"fmt"
	"regexp"

	"github.com/awslabs/udisks-conformance/pkg/profile"
	"github.com/awslabs/udisks-conformance/pkg/udisks"
)

// Failsystem is the pseudo-profile the negative scenarios are reported under.
var Failsystem = profile.Profile{Name: "failsystem"}

// Negative scenario names.
const (
	NameCreateUnsupported = "create-unsupported"
	NameLabelUnsupported  = "label-unsupported"
	NameMountInvalid      = "mount-invalid"
)

const (
	nonexistentFsType      = "definitely-nonexisting-fs"
	nonexistentMountOption = "definitely-nonexisting-option"
	// mountableProfile is the filesystem the invalid mount calls are made on.
	mountableProfile = "ext4"
	// wrongFsType is a type the mountable filesystem is mounted as, which must fail.
	wrongFsType = "xfs"
)

// NegativeBattery returns the scenarios checking that unsupported operations fail with
// the documented errors. They run against [Failsystem] and borrow real filesystems from `profiles`.
func NegativeBattery(profiles []profile.Profile) []Scenario {
	labelless, hasLabelless := profile.FirstLabelless(profiles)
	mountable, hasMountable := profile.Find(profiles, mountableProfile)

	return []Scenario{
		{
			Name: NameCreateUnsupported,
			Run:  runCreateUnsupported,
		},
		{
			Name: NameLabelUnsupported,
			Precondition: func(c *Case) string {
				if !hasLabelless {
					return "Cannot create any filesystem without label support to test not supported labelling"
				}
				return ""
			},
			Run: func(ctx context.Context, c *Case) error {
				return runLabelUnsupported(ctx, c, labelless)
			},
		},
		{
			Name: NameMountInvalid,
			Precondition: func(c *Case) string {
				if !hasMountable || !mountable.CanCreate {
					return fmt.Sprintf("Cannot create %s filesystem to test not supported mount options", mountableProfile)
				}
				return ""
			},
			Run: func(ctx context.Context, c *Case) error {
				return runMountInvalid(ctx, c, mountable)
			},
		},
	}
}

func runCreateUnsupported(ctx context.Context, c *Case) error {
	c.Defer("format empty", func(ctx context.Context) error {
		return c.Dev.Format(ctx, "empty", udisks.FormatOptions{Erase: true})
	})
	err := c.Dev.Format(ctx, nonexistentFsType, udisks.FormatOptions{})
	pattern := regexp.QuoteMeta(fmt.Sprintf("Creation of file system type %s is not supported", nonexistentFsType))
	if err := expectError(err, udisks.KindNotSupported, pattern); err != nil {
		return fmt.Errorf("Format %s: %w", nonexistentFsType, err)
	}

	// No signature must have been written.
	fsType, err := c.Probe.FilesystemType(c.Device)
	if err != nil {
		return err
	}
	if fsType != "" {
		return fmt.Errorf("%w: %s has filesystem %q after an unsupported format", ErrUnexpectedState, c.Device, fsType)
	}
	return nil
}

func runLabelUnsupported(ctx context.Context, c *Case, fs profile.Profile) error {
	err := c.format(ctx, fs.Name, udisks.FormatOptions{Label: "test"})
	pattern := regexp.QuoteMeta(fmt.Sprintf("File system type %s does not support labels", fs.Name))
	if err := expectError(err, udisks.KindNotSupported, pattern); err != nil {
		return fmt.Errorf("Format %s with label: %w", fs.Name, err)
	}

	if err := c.Dev.Format(ctx, fs.Name, udisks.FormatOptions{}); err != nil {
		return fmt.Errorf("Format %s: %w", fs.Name, err)
	}
	err = c.Dev.SetLabel(ctx, "test")
	pattern = regexp.QuoteMeta(fmt.Sprintf("Don't know how to change label on device of type filesystem:%s", fs.Name))
	if err := expectError(err, udisks.KindNotSupported, pattern); err != nil {
		return fmt.Errorf("SetLabel: %w", err)
	}
	return nil
}

func runMountInvalid(ctx context.Context, c *Case, fs profile.Profile) error {
	if err := c.format(ctx, fs.Name, udisks.FormatOptions{}); err != nil {
		return fmt.Errorf("Format %s: %w", fs.Name, err)
	}
	c.deferUnmount()

	_, err := c.Dev.Mount(ctx, udisks.MountOptions{FsType: wrongFsType})
	if err := expectError(err, udisks.KindFailed, "[Ww]rong fs type"); err != nil {
		return fmt.Errorf("Mount as %s: %w", wrongFsType, err)
	}

	_, err = c.Dev.Mount(ctx, udisks.MountOptions{FsType: fs.Name, Options: []string{nonexistentMountOption}})
	pattern := regexp.QuoteMeta(fmt.Sprintf("Mount option `%s' is not allowed", nonexistentMountOption))
	if err := expectError(err, udisks.KindOptionNotPermitted, pattern); err != nil {
		return fmt.Errorf("Mount with %s: %w", nonexistentMountOption, err)
	}

	err = c.Dev.Unmount(ctx)
	pattern = regexp.QuoteMeta(fmt.Sprintf("Device `%s' is not mounted", c.Device))
	if err := expectError(err, udisks.KindNotMounted, pattern); err != nil {
		return fmt.Errorf("Unmount: %w", err)
	}
	return nil
}
