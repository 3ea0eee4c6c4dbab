package privdrop

import (
	"context"
	"fmt"

	"github.com/awslabs/udisks-conformance/pkg/probe"
	"github.com/awslabs/udisks-conformance/pkg/udisks"
)

// UnauthorizedDetail is the detail UDisks2 attaches to operations polkit refuses for the caller.
const UnauthorizedDetail = "Not authorized to perform operation"

// Handle is the [Handler] of the conformance worker. It drops privileges to the
// requested identity, connects to the system bus as that identity and runs [Check].
func Handle(ctx context.Context, req Request) Verdict {
	if err := DropPrivileges(req.UID, req.GID); err != nil {
		return Failed("Failed to drop privileges: %v", err)
	}

	client, err := udisks.Connect()
	if err != nil {
		return Failed("%v", err)
	}
	defer client.Close()

	return Check(ctx, client.BlockDevice(req.Device), probe.New(""), req)
}

// Check performs the requested operation on `dev` and classifies the outcome against
// both the returned error and the state observed through `p`.
func Check(ctx context.Context, dev udisks.BlockDevice, p probe.Probe, req Request) Verdict {
	switch req.Operation {
	case OperationMount:
		if req.Expect == ExpectUnauthorized {
			return checkMountRefused(ctx, dev, p, req)
		}
		return checkMount(ctx, dev, p, req)
	case OperationUnmount:
		if req.Expect == ExpectUnauthorized {
			return checkUnmountRefused(ctx, dev, p, req)
		}
		return checkUnmount(ctx, dev, p, req)
	default:
		return Failed("Unknown operation %q", req.Operation)
	}
}

func checkMount(ctx context.Context, dev udisks.BlockDevice, p probe.Probe, req Request) Verdict {
	mountPath, err := dev.Mount(ctx, udisks.MountOptions{})
	if err != nil {
		return Failed("Mount DBus call failed: %v", err)
	}

	record, err := p.MountRecord(req.Device)
	if err != nil {
		return Failed("Failed to read mount table: %v", err)
	}
	if record == nil {
		return Failed("%s not mounted", req.Device)
	}
	if !record.HasOption(fmt.Sprintf("uid=%d", req.UID)) || !record.HasOption(fmt.Sprintf("gid=%d", req.GID)) {
		return Failed("%s not mounted with given uid/gid.\nMount info: %s on %s with %v", req.Device, record.Device, record.MountPoint, record.Options)
	}
	if record.MountPoint != mountPath {
		return Failed("%s mounted at %s according to the mount table, but Mount returned %s", req.Device, record.MountPoint, mountPath)
	}
	return Succeeded()
}

func checkUnmount(ctx context.Context, dev udisks.BlockDevice, p probe.Probe, req Request) Verdict {
	if err := dev.Unmount(ctx); err != nil {
		return Failed("Unmount DBus call failed: %v", err)
	}

	record, err := p.MountRecord(req.Device)
	if err != nil {
		return Failed("Failed to read mount table: %v", err)
	}
	if record != nil {
		return Failed("%s mounted after unmount called", req.Device)
	}
	return Succeeded()
}

func checkMountRefused(ctx context.Context, dev udisks.BlockDevice, p probe.Probe, req Request) Verdict {
	_, mountErr := dev.Mount(ctx, udisks.MountOptions{})

	record, err := p.MountRecord(req.Device)
	if err != nil {
		return Failed("Failed to read mount table: %v", err)
	}

	if mountErr != nil {
		if v, ok := refused(mountErr, "Mount"); !ok {
			return v
		}
		if record != nil {
			return Failed("Mount DBus call was refused but %s is mounted at %s", req.Device, record.MountPoint)
		}
		return Succeeded()
	}

	if record != nil {
		return Failed("%s was mounted for UID %d without proper record in fstab", req.Device, req.UID)
	}
	return Failed("Mount DBus call didn't fail but %s doesn't seem to be mounted.", req.Device)
}

func checkUnmountRefused(ctx context.Context, dev udisks.BlockDevice, p probe.Probe, req Request) Verdict {
	unmountErr := dev.Unmount(ctx)

	record, err := p.MountRecord(req.Device)
	if err != nil {
		return Failed("Failed to read mount table: %v", err)
	}

	if unmountErr != nil {
		if v, ok := refused(unmountErr, "Unmount"); !ok {
			return v
		}
		if record == nil {
			return Failed("Unmount DBus call was refused but %s is no longer mounted", req.Device)
		}
		return Succeeded()
	}

	if record != nil {
		return Failed("Unmount DBus call didn't fail but %s seems to be still mounted.", req.Device)
	}
	return Failed("%s was unmounted for UID %d without proper record in fstab", req.Device, req.UID)
}

// refused returns whether `err` is the authorization refusal, and a failed verdict otherwise.
func refused(err error, method string) (Verdict, bool) {
	ok, matchErr := udisks.Match(err, udisks.KindNotAuthorizedCanObtain, UnauthorizedDetail)
	if matchErr != nil {
		return Failed("%v", matchErr), false
	}
	if !ok {
		return Failed("%s DBus call failed with unexpected error: %v", method, err), false
	}
	return Verdict{}, true
}
