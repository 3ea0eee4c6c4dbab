//go:generate mockgen -source=udisks.go -destination=./mocks/mock_udisks.go -package=mock_udisks

// Package udisks provides a thin client for the UDisks2 D-Bus service,
// covering the block and filesystem methods the conformance scenarios exercise.
package udisks

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/godbus/dbus/v5"
	"k8s.io/klog/v2"
)

const (
	BusName     = "org.freedesktop.UDisks2"
	PathPrefix  = "/org/freedesktop/UDisks2"
	IfacePrefix = "org.freedesktop.UDisks2"

	BlockIface      = IfacePrefix + ".Block"
	FilesystemIface = IfacePrefix + ".Filesystem"

	propertiesGetMethod = "org.freedesktop.DBus.Properties.Get"

	// ConfigurationKindFstab is the configuration item kind for `/etc/fstab` entries.
	ConfigurationKindFstab = "fstab"
)

// DbusConn is a wrapper for the dbus.Conn external type
type DbusConn interface {
	Object(dest string, path dbus.ObjectPath) dbus.BusObject
	Close() error
}

// DbusObject is a wrapper for dbus.BusObject external type
type DbusObject interface {
	Go(method string, flags dbus.Flags, ch chan *dbus.Call, args ...any) *dbus.Call
}

// Client opens handles to UDisks2 block device objects.
type Client interface {
	BlockDevice(device string) BlockDevice
	Close() error
}

// BlockDevice is a single UDisks2 block device object, exposing both its
// `org.freedesktop.UDisks2.Block` and `org.freedesktop.UDisks2.Filesystem` interfaces.
type BlockDevice interface {
	Device() string

	Format(ctx context.Context, fsType string, opts FormatOptions) error
	AddConfigurationItem(ctx context.Context, entry FstabEntry) error
	RemoveConfigurationItem(ctx context.Context, entry FstabEntry) error
	Configuration(ctx context.Context) ([]FstabEntry, error)
	IdUsage(ctx context.Context) (string, error)
	IdType(ctx context.Context) (string, error)
	IdLabel(ctx context.Context) (string, error)
	IdUUID(ctx context.Context) (string, error)

	SetLabel(ctx context.Context, label string) error
	Mount(ctx context.Context, opts MountOptions) (string, error)
	Unmount(ctx context.Context) error
	MountPoints(ctx context.Context) ([]string, error)
}

// OsClient is a [Client] backed by a private system bus connection.
type OsClient struct {
	Conn DbusConn
}

// Connect opens a new connection to the system bus.
//
// The shared connection is never used so that a process which changed its credentials
// after start-up authenticates to the bus with its current identity.
func Connect() (*OsClient, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("Failed to connect to system bus: %w", err)
	}
	return &OsClient{Conn: conn}, nil
}

func (c *OsClient) Close() error {
	return c.Conn.Close()
}

// BlockDevice returns the UDisks2 object for `device`, e.g. `/dev/sdb` maps to
// `/org/freedesktop/UDisks2/block_devices/sdb`.
func (c *OsClient) BlockDevice(device string) BlockDevice {
	path := ObjectPath(device)
	return &OsBlockDevice{
		device: device,
		path:   path,
		Object: c.Conn.Object(BusName, path),
	}
}

// ObjectPath returns UDisks2 object path of given block `device`.
func ObjectPath(device string) dbus.ObjectPath {
	return dbus.ObjectPath(PathPrefix + "/block_devices/" + filepath.Base(device))
}

// OsBlockDevice is a [BlockDevice] calling UDisks2 over D-Bus.
type OsBlockDevice struct {
	device string
	path   dbus.ObjectPath
	Object DbusObject
}

// NewOsBlockDevice returns a [BlockDevice] for `device` using given `object`.
func NewOsBlockDevice(device string, object DbusObject) *OsBlockDevice {
	return &OsBlockDevice{device: device, path: ObjectPath(device), Object: object}
}

func (b *OsBlockDevice) Device() string {
	return b.device
}

func (b *OsBlockDevice) Format(ctx context.Context, fsType string, opts FormatOptions) error {
	return b.callDbus(ctx, BlockIface+".Format", nil, fsType, opts.toDbus())
}

func (b *OsBlockDevice) AddConfigurationItem(ctx context.Context, entry FstabEntry) error {
	return b.callDbus(ctx, BlockIface+".AddConfigurationItem", nil, entry.toItem(), noOptions())
}

func (b *OsBlockDevice) RemoveConfigurationItem(ctx context.Context, entry FstabEntry) error {
	return b.callDbus(ctx, BlockIface+".RemoveConfigurationItem", nil, entry.toItem(), noOptions())
}

func (b *OsBlockDevice) Configuration(ctx context.Context) ([]FstabEntry, error) {
	var items []configurationItem
	if err := b.getProperty(ctx, BlockIface, "Configuration", &items); err != nil {
		return nil, err
	}
	var entries []FstabEntry
	for _, item := range items {
		if item.Kind != ConfigurationKindFstab {
			continue
		}
		entries = append(entries, fstabEntryFromDbus(item.Details))
	}
	return entries, nil
}

func (b *OsBlockDevice) IdUsage(ctx context.Context) (string, error) {
	return b.stringProperty(ctx, BlockIface, "IdUsage")
}

func (b *OsBlockDevice) IdType(ctx context.Context) (string, error) {
	return b.stringProperty(ctx, BlockIface, "IdType")
}

func (b *OsBlockDevice) IdLabel(ctx context.Context) (string, error) {
	return b.stringProperty(ctx, BlockIface, "IdLabel")
}

func (b *OsBlockDevice) IdUUID(ctx context.Context) (string, error) {
	return b.stringProperty(ctx, BlockIface, "IdUUID")
}

func (b *OsBlockDevice) SetLabel(ctx context.Context, label string) error {
	return b.callDbus(ctx, FilesystemIface+".SetLabel", nil, label, noOptions())
}

func (b *OsBlockDevice) Mount(ctx context.Context, opts MountOptions) (string, error) {
	var mountPath string
	err := b.callDbus(ctx, FilesystemIface+".Mount", &mountPath, opts.toDbus())
	return mountPath, err
}

func (b *OsBlockDevice) Unmount(ctx context.Context) error {
	return b.callDbus(ctx, FilesystemIface+".Unmount", nil, noOptions())
}

// MountPoints returns the `MountPoints` property, mount points are byte arrays on the wire.
func (b *OsBlockDevice) MountPoints(ctx context.Context) ([]string, error) {
	var raw [][]byte
	if err := b.getProperty(ctx, FilesystemIface, "MountPoints", &raw); err != nil {
		return nil, err
	}
	mountPoints := make([]string, 0, len(raw))
	for _, mp := range raw {
		mountPoints = append(mountPoints, BytesToString(mp))
	}
	return mountPoints, nil
}

func (b *OsBlockDevice) stringProperty(ctx context.Context, iface, name string) (string, error) {
	var value string
	err := b.getProperty(ctx, iface, name, &value)
	return value, err
}

func (b *OsBlockDevice) getProperty(ctx context.Context, iface, name string, ret any) error {
	var variant dbus.Variant
	if err := b.callDbus(ctx, propertiesGetMethod, &variant, iface, name); err != nil {
		return err
	}
	if err := dbus.Store([]any{variant.Value()}, ret); err != nil {
		return fmt.Errorf("Failed to decode %s.%s of %s: %w", iface, name, b.path, err)
	}
	return nil
}

// callDbus performs `method` on the device object. Errors are returned as [*Error].
func (b *OsBlockDevice) callDbus(ctx context.Context, method string, ret any, args ...any) error {
	klog.V(4).Infof("udisks: calling %s on %s", method, b.path)

	ch := make(chan *dbus.Call, 1)
	b.Object.Go(method, 0, ch, args...)

	select {
	case call := <-ch:
		if call.Err != nil {
			klog.V(4).Infof("udisks: %s on %s failed: %v", method, b.path, call.Err)
			return newError(call.Err)
		}
		if ret == nil {
			return nil
		}
		if err := call.Store(ret); err != nil {
			return fmt.Errorf("Failed to decode reply of %s: %w", method, err)
		}
	case <-ctx.Done():
		return &Error{
			Kind:   KindTransport,
			Detail: fmt.Sprintf("%s on %s: %v", method, b.path, ctx.Err()),
			Err:    ctx.Err(),
		}
	}

	return nil
}
