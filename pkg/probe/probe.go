//go:generate mockgen -source=probe.go -destination=./mocks/mock_probe.go -package=mock_probe

// Package probe answers questions about live operating system state independently of UDisks2.
// It is the oracle the conformance scenarios compare UDisks2's self-reported state against.
package probe

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/sys/mountinfo"
	"k8s.io/klog/v2"
	"k8s.io/mount-utils"
	utilexec "k8s.io/utils/exec"

	"github.com/awslabs/udisks-conformance/pkg/fstab"
)

// Probe is a read-only view of OS state. An absent device is reported as empty/false/nil, not as an error.
type Probe interface {
	// FilesystemType returns the on-disk filesystem type of `device`, empty if none.
	FilesystemType(device string) (string, error)
	// FilesystemLabel returns the filesystem label of `device`, empty if none.
	FilesystemLabel(device string) (string, error)
	// FilesystemUUID returns the filesystem UUID of `device`, empty if none.
	FilesystemUUID(device string) (string, error)
	// IsMountPoint returns whether `path` is currently an active mount point.
	IsMountPoint(path string) (bool, error)
	// MountRecord returns the live mount table entry of `device`, nil if it is not mounted.
	MountRecord(device string) (*MountRecord, error)
	// MountRecords returns every live mount table entry of `device`, in mount table order.
	MountRecords(device string) ([]MountRecord, error)
	// ModuleLoaded returns whether kernel module `module` is loaded.
	ModuleLoaded(module string) (bool, error)
	// CommandExists returns whether `command` can be found in PATH.
	CommandExists(command string) bool
	// ConfigRecord returns the persisted mount configuration of `device`, nil if there is none.
	ConfigRecord(device string) (*fstab.Entry, error)
}

// A MountRecord is a mount of a device as observed in the live mount table.
type MountRecord struct {
	Device     string
	MountPoint string
	Options    []string
}

// HasOption returns whether `opt` is one of the mount's options.
func (r *MountRecord) HasOption(opt string) bool {
	for _, o := range r.Options {
		if o == opt {
			return true
		}
	}
	return false
}

// OsProbe is a [Probe] backed by the real OS.
type OsProbe struct {
	Exec      utilexec.Interface
	Mounter   mount.Interface
	FstabPath string

	// mounted reports whether a path is a mount point, overridable in tests.
	mounted func(path string) (bool, error)
}

// New returns an [OsProbe] reading the system fstab at `fstabPath`.
func New(fstabPath string) *OsProbe {
	return NewWithExec(utilexec.New(), mount.New(""), fstabPath)
}

// NewWithExec returns an [OsProbe] using given exec and mount utils.
func NewWithExec(exec utilexec.Interface, mounter mount.Interface, fstabPath string) *OsProbe {
	if fstabPath == "" {
		fstabPath = fstab.DefaultPath
	}
	return &OsProbe{
		Exec:      exec,
		Mounter:   mounter,
		FstabPath: fstabPath,
		mounted:   mountinfo.Mounted,
	}
}

func (p *OsProbe) FilesystemType(device string) (string, error) {
	return p.lsblk(device, "FSTYPE")
}

func (p *OsProbe) FilesystemLabel(device string) (string, error) {
	return p.lsblk(device, "LABEL")
}

func (p *OsProbe) FilesystemUUID(device string) (string, error) {
	return p.lsblk(device, "UUID")
}

// lsblk queries a single column of `device` without its children.
func (p *OsProbe) lsblk(device string, column string) (string, error) {
	if !exists(device) {
		return "", nil
	}
	out, err := p.Exec.Command("lsblk", "-d", "-n", "-o", column, device).Output()
	if err != nil {
		return "", fmt.Errorf("probe: lsblk %s of %s failed: %w", column, device, err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (p *OsProbe) IsMountPoint(path string) (bool, error) {
	mounted, err := p.mounted(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("probe: failed to check whether %s is a mount point: %w", path, err)
	}
	return mounted, nil
}

func (p *OsProbe) MountRecord(device string) (*MountRecord, error) {
	records, err := p.MountRecords(device)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return &records[0], nil
}

func (p *OsProbe) MountRecords(device string) ([]MountRecord, error) {
	if !exists(device) {
		return nil, nil
	}
	source := canonicalDevice(device)

	mountPoints, err := p.Mounter.List()
	if err != nil {
		return nil, fmt.Errorf("probe: failed to list mounts: %w", err)
	}
	var records []MountRecord
	for _, mp := range mountPoints {
		if mp.Device != source && mp.Device != device {
			continue
		}
		klog.V(5).Infof("probe: %s is mounted at %s with %v", device, mp.Path, mp.Opts)
		records = append(records, MountRecord{
			Device:     mp.Device,
			MountPoint: mp.Path,
			Options:    mp.Opts,
		})
	}
	return records, nil
}

func (p *OsProbe) ModuleLoaded(module string) (bool, error) {
	out, err := p.Exec.Command("lsmod").Output()
	if err != nil {
		return false, fmt.Errorf("probe: lsmod failed: %w", err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) > 0 && fields[0] == module {
			return true, nil
		}
	}
	return false, scanner.Err()
}

func (p *OsProbe) CommandExists(command string) bool {
	_, err := p.Exec.LookPath(command)
	return err == nil
}

func (p *OsProbe) ConfigRecord(device string) (*fstab.Entry, error) {
	entries, err := fstab.ReadFile(p.FstabPath)
	if err != nil {
		return nil, fmt.Errorf("probe: failed to read %s: %w", p.FstabPath, err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	// UDisks2 writes `UUID=` specs when the filesystem has a UUID.
	specs := []string{device, canonicalDevice(device)}
	if uuid, err := p.FilesystemUUID(device); err != nil {
		return nil, err
	} else if uuid != "" {
		specs = append(specs, "UUID="+uuid, filepath.Join("/dev/disk/by-uuid", uuid))
	}
	if label, err := p.FilesystemLabel(device); err != nil {
		return nil, err
	} else if label != "" {
		specs = append(specs, "LABEL="+label)
	}

	entry, ok := fstab.Find(entries, specs...)
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// canonicalDevice resolves symlinks like `/dev/disk/by-id/...` to the node the mount table refers to.
func canonicalDevice(device string) string {
	resolved, err := filepath.EvalSymlinks(device)
	if err != nil {
		return device
	}
	return resolved
}
