package udisks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/golang/mock/gomock"

	"github.com/awslabs/udisks-conformance/pkg/udisks"
	mock_udisks "github.com/awslabs/udisks-conformance/pkg/udisks/mocks"
	"github.com/awslabs/udisks-conformance/pkg/util/testutil/assert"
)

const testDevice = "/dev/loop7"

// reply makes the mocked `Go` call deliver a reply with given body (or error) on the call channel.
func reply(err error, body ...any) func(method string, flags dbus.Flags, ch chan *dbus.Call, args ...any) {
	return func(method string, flags dbus.Flags, ch chan *dbus.Call, args ...any) {
		go func() {
			ch <- &dbus.Call{Err: err, Body: body}
		}()
	}
}

func setup(t *testing.T) (*udisks.OsBlockDevice, *mock_udisks.MockDbusObject) {
	mockCtl := gomock.NewController(t)
	mockObject := mock_udisks.NewMockDbusObject(mockCtl)
	return udisks.NewOsBlockDevice(testDevice, mockObject), mockObject
}

func TestObjectPath(t *testing.T) {
	assert.Equals(t, dbus.ObjectPath("/org/freedesktop/UDisks2/block_devices/loop7"), udisks.ObjectPath(testDevice))
	assert.Equals(t, dbus.ObjectPath("/org/freedesktop/UDisks2/block_devices/sdb"), udisks.ObjectPath("sdb"))
}

func TestClientBlockDevice(t *testing.T) {
	mockCtl := gomock.NewController(t)
	mockConn := mock_udisks.NewMockDbusConn(mockCtl)
	mockConn.EXPECT().Object(udisks.BusName, dbus.ObjectPath("/org/freedesktop/UDisks2/block_devices/loop7")).Return(nil)
	mockConn.EXPECT().Close().Return(nil)

	client := &udisks.OsClient{Conn: mockConn}
	dev := client.BlockDevice(testDevice)
	assert.Equals(t, testDevice, dev.Device())
	assert.NoError(t, client.Close())
}

func TestBlockDeviceCalls(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name     string
		testFunc func(*testing.T)
	}{
		{
			name: "format without options",
			testFunc: func(t *testing.T) {
				dev, obj := setup(t)
				obj.EXPECT().Go(udisks.BlockIface+".Format", gomock.Any(), gomock.Any(),
					"ext4", map[string]dbus.Variant{}).Do(reply(nil))
				assert.NoError(t, dev.Format(ctx, "ext4", udisks.FormatOptions{}))
			},
		},
		{
			name: "format with erase and label",
			testFunc: func(t *testing.T) {
				dev, obj := setup(t)
				obj.EXPECT().Go(udisks.BlockIface+".Format", gomock.Any(), gomock.Any(),
					"empty", map[string]dbus.Variant{
						"erase": dbus.MakeVariant(true),
						"label": dbus.MakeVariant("TEST"),
					}).Do(reply(nil))
				assert.NoError(t, dev.Format(ctx, "empty", udisks.FormatOptions{Erase: true, Label: "TEST"}))
			},
		},
		{
			name: "mount joins options",
			testFunc: func(t *testing.T) {
				dev, obj := setup(t)
				obj.EXPECT().Go(udisks.FilesystemIface+".Mount", gomock.Any(), gomock.Any(),
					map[string]dbus.Variant{
						"fstype":  dbus.MakeVariant("vfat"),
						"options": dbus.MakeVariant("ro,noexec"),
					}).Do(reply(nil, "/run/media/root/TEST"))
				path, err := dev.Mount(ctx, udisks.MountOptions{FsType: "vfat", Options: []string{"ro", "noexec"}})
				assert.NoError(t, err)
				assert.Equals(t, "/run/media/root/TEST", path)
			},
		},
		{
			name: "set label and unmount",
			testFunc: func(t *testing.T) {
				dev, obj := setup(t)
				obj.EXPECT().Go(udisks.FilesystemIface+".SetLabel", gomock.Any(), gomock.Any(),
					"aaaa", map[string]dbus.Variant{}).Do(reply(nil))
				obj.EXPECT().Go(udisks.FilesystemIface+".Unmount", gomock.Any(), gomock.Any(),
					map[string]dbus.Variant{}).Do(reply(nil))
				assert.NoError(t, dev.SetLabel(ctx, "aaaa"))
				assert.NoError(t, dev.Unmount(ctx))
			},
		},
		{
			name: "add configuration item",
			testFunc: func(t *testing.T) {
				dev, obj := setup(t)
				obj.EXPECT().Go(udisks.BlockIface+".AddConfigurationItem", gomock.Any(), gomock.Any(),
					gomock.Any(), map[string]dbus.Variant{}).Do(
					func(method string, flags dbus.Flags, ch chan *dbus.Call, args ...any) {
						sig := dbus.SignatureOf(args[0])
						if sig.String() != "(sa{sv})" {
							t.Errorf("Expected configuration item signature (sa{sv}), got %s", sig)
						}
						go func() { ch <- &dbus.Call{} }()
					})
				assert.NoError(t, dev.AddConfigurationItem(ctx, udisks.FstabEntry{
					Dir:  "/mnt/scratch",
					Type: "vfat",
					Opts: []string{"users", "x-udisks-auth"},
				}))
			},
		},
		{
			name: "remove configuration item",
			testFunc: func(t *testing.T) {
				dev, obj := setup(t)
				obj.EXPECT().Go(udisks.BlockIface+".RemoveConfigurationItem", gomock.Any(), gomock.Any(),
					gomock.Any(), map[string]dbus.Variant{}).Do(reply(nil))
				assert.NoError(t, dev.RemoveConfigurationItem(ctx, udisks.FstabEntry{Dir: "/mnt/scratch", Type: "vfat"}))
			},
		},
		{
			// Structs are decoded as slices of interfaces, the way they come off the wire.
			name: "configuration keeps fstab items only",
			testFunc: func(t *testing.T) {
				dev, obj := setup(t)
				obj.EXPECT().Go("org.freedesktop.DBus.Properties.Get", gomock.Any(), gomock.Any(),
					udisks.BlockIface, "Configuration").Do(reply(nil, dbus.MakeVariant([][]any{
					{"fstab", map[string]dbus.Variant{
						"dir":    dbus.MakeVariant(udisks.StringToBytes("/mnt/scratch")),
						"type":   dbus.MakeVariant(udisks.StringToBytes("ext4")),
						"opts":   dbus.MakeVariant(udisks.StringToBytes("ro,noauto")),
						"freq":   dbus.MakeVariant(int32(0)),
						"passno": dbus.MakeVariant(int32(2)),
					}},
					{"crypttab", map[string]dbus.Variant{
						"name": dbus.MakeVariant(udisks.StringToBytes("luks-0a1b")),
					}},
				})))
				entries, err := dev.Configuration(ctx)
				assert.NoError(t, err)
				assert.Equals(t, []udisks.FstabEntry{
					{Dir: "/mnt/scratch", Type: "ext4", Opts: []string{"ro", "noauto"}, Passno: 2},
				}, entries)
			},
		},
		{
			name: "uuid property",
			testFunc: func(t *testing.T) {
				dev, obj := setup(t)
				obj.EXPECT().Go("org.freedesktop.DBus.Properties.Get", gomock.Any(), gomock.Any(),
					udisks.BlockIface, "IdUUID").Do(reply(nil, dbus.MakeVariant("0a1b-2c3d")))
				uuid, err := dev.IdUUID(ctx)
				assert.NoError(t, err)
				assert.Equals(t, "0a1b-2c3d", uuid)
			},
		},
		{
			name: "string property",
			testFunc: func(t *testing.T) {
				dev, obj := setup(t)
				obj.EXPECT().Go("org.freedesktop.DBus.Properties.Get", gomock.Any(), gomock.Any(),
					udisks.BlockIface, "IdType").Do(reply(nil, dbus.MakeVariant("ext2")))
				fsType, err := dev.IdType(ctx)
				assert.NoError(t, err)
				assert.Equals(t, "ext2", fsType)
			},
		},
		{
			name: "mount points are decoded from byte arrays",
			testFunc: func(t *testing.T) {
				dev, obj := setup(t)
				obj.EXPECT().Go("org.freedesktop.DBus.Properties.Get", gomock.Any(), gomock.Any(),
					udisks.FilesystemIface, "MountPoints").Do(reply(nil, dbus.MakeVariant([][]byte{
					udisks.StringToBytes("/mnt/a"),
				})))
				mountPoints, err := dev.MountPoints(ctx)
				assert.NoError(t, err)
				assert.Equals(t, []string{"/mnt/a"}, mountPoints)
			},
		},
		{
			name: "no mount points",
			testFunc: func(t *testing.T) {
				dev, obj := setup(t)
				obj.EXPECT().Go("org.freedesktop.DBus.Properties.Get", gomock.Any(), gomock.Any(),
					udisks.FilesystemIface, "MountPoints").Do(reply(nil, dbus.MakeVariant([][]byte{})))
				mountPoints, err := dev.MountPoints(ctx)
				assert.NoError(t, err)
				assert.Equals(t, 0, len(mountPoints))
			},
		},
		{
			name: "service error is classified",
			testFunc: func(t *testing.T) {
				dev, obj := setup(t)
				obj.EXPECT().Go(udisks.FilesystemIface+".Unmount", gomock.Any(), gomock.Any(), gomock.Any()).Do(
					reply(dbus.Error{
						Name: "org.freedesktop.UDisks2.Error.NotMounted",
						Body: []any{"Device `/dev/loop7' is not mounted"},
					}))
				err := dev.Unmount(ctx)
				kind, ok := udisks.KindOf(err)
				assert.Equals(t, true, ok)
				assert.Equals(t, udisks.KindNotMounted, kind)
				matched, err := udisks.Match(err, udisks.KindNotMounted, "Device `/dev/loop7' is not mounted")
				assert.NoError(t, err)
				assert.Equals(t, true, matched)
			},
		},
		{
			name: "transport error",
			testFunc: func(t *testing.T) {
				dev, obj := setup(t)
				obj.EXPECT().Go(udisks.FilesystemIface+".Unmount", gomock.Any(), gomock.Any(), gomock.Any()).Do(
					reply(dbus.ErrClosed))
				err := dev.Unmount(ctx)
				kind, _ := udisks.KindOf(err)
				assert.Equals(t, udisks.KindTransport, kind)
				if !errors.Is(err, dbus.ErrClosed) {
					t.Fatalf("Expected error to wrap dbus.ErrClosed, got %v", err)
				}
			},
		},
		{
			name: "context cancelled",
			testFunc: func(t *testing.T) {
				dev, obj := setup(t)
				obj.EXPECT().Go(udisks.FilesystemIface+".Unmount", gomock.Any(), gomock.Any(), gomock.Any())
				cctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
				defer cancel()
				err := dev.Unmount(cctx)
				kind, _ := udisks.KindOf(err)
				assert.Equals(t, udisks.KindTransport, kind)
				if !errors.Is(err, context.DeadlineExceeded) {
					t.Fatalf("Expected deadline exceeded, got %v", err)
				}
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, tc.testFunc)
	}
}

func TestMatch(t *testing.T) {
	notSupported := &udisks.Error{
		Kind:   udisks.KindNotSupported,
		Name:   "org.freedesktop.UDisks2.Error.NotSupported",
		Detail: "Creation of file system type definitely-nonexisting-fs is not supported",
	}

	testCases := []struct {
		name    string
		err     error
		kind    udisks.ErrorKind
		pattern string
		want    bool
	}{
		{"kind and pattern", notSupported, udisks.KindNotSupported, "type definitely-nonexisting-fs is not supported", true},
		{"empty pattern", notSupported, udisks.KindNotSupported, "", true},
		{"wrong kind", notSupported, udisks.KindFailed, "", false},
		{"wrong detail", notSupported, udisks.KindNotSupported, "does not support labels", false},
		{"nil error", nil, udisks.KindNotSupported, "", false},
		{"foreign error", errors.New("boom"), udisks.KindFailed, "", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := udisks.Match(tc.err, tc.kind, tc.pattern)
			assert.NoError(t, err)
			assert.Equals(t, tc.want, got)
		})
	}

	if _, err := udisks.Match(notSupported, udisks.KindNotSupported, "["); err == nil {
		t.Fatalf("Expected invalid pattern error")
	}
}

func TestParseErrorKind(t *testing.T) {
	kind, err := udisks.ParseErrorKind("NotAuthorizedCanObtain")
	assert.NoError(t, err)
	assert.Equals(t, udisks.KindNotAuthorizedCanObtain, kind)
	assert.Equals(t, "NotAuthorizedCanObtain", kind.String())

	if _, err := udisks.ParseErrorKind("Nope"); err == nil {
		t.Fatalf("Expected error for unknown kind")
	}
}

func TestBytesRoundTrip(t *testing.T) {
	assert.Equals(t, []byte{'/', 'm', 'n', 't', 0}, udisks.StringToBytes("/mnt"))
	assert.Equals(t, "/mnt", udisks.BytesToString([]byte{'/', 'm', 'n', 't', 0}))
	assert.Equals(t, "/mnt", udisks.BytesToString([]byte("/mnt")))
}
