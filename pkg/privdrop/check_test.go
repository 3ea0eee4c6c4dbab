package privdrop_test

import (
	"context"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/golang/mock/gomock"

	"github.com/awslabs/udisks-conformance/pkg/privdrop"
	"github.com/awslabs/udisks-conformance/pkg/probe"
	mock_probe "github.com/awslabs/udisks-conformance/pkg/probe/mocks"
	"github.com/awslabs/udisks-conformance/pkg/udisks"
	mock_udisks "github.com/awslabs/udisks-conformance/pkg/udisks/mocks"
	"github.com/awslabs/udisks-conformance/pkg/util/testutil/assert"
)

const testDevice = "/dev/loop7"

func unauthorized() error {
	return &udisks.Error{
		Kind:   udisks.KindNotAuthorizedCanObtain,
		Name:   udisks.ErrorPrefix + "NotAuthorizedCanObtain",
		Detail: "Not authorized to perform operation",
		Err:    dbus.Error{Name: udisks.ErrorPrefix + "NotAuthorizedCanObtain"},
	}
}

func mountedRecord(opts ...string) *probe.MountRecord {
	return &probe.MountRecord{Device: testDevice, MountPoint: "/mnt/scratch", Options: opts}
}

func TestCheck(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name        string
		req         privdrop.Request
		setup       func(dev *mock_udisks.MockBlockDevice, p *mock_probe.MockProbe)
		wantSuccess bool
		wantMessage string
	}{
		{
			name: "user mount succeeds with owner options",
			req:  privdrop.Request{UID: 1001, GID: 1002, Device: testDevice, Operation: privdrop.OperationMount, Expect: privdrop.ExpectSuccess},
			setup: func(dev *mock_udisks.MockBlockDevice, p *mock_probe.MockProbe) {
				dev.EXPECT().Mount(gomock.Any(), udisks.MountOptions{}).Return("/mnt/scratch", nil)
				p.EXPECT().MountRecord(testDevice).Return(mountedRecord("rw", "uid=1001", "gid=1002"), nil)
			},
			wantSuccess: true,
		},
		{
			name: "user mount rpc fails",
			req:  privdrop.Request{UID: 1001, GID: 1002, Device: testDevice, Operation: privdrop.OperationMount, Expect: privdrop.ExpectSuccess},
			setup: func(dev *mock_udisks.MockBlockDevice, p *mock_probe.MockProbe) {
				dev.EXPECT().Mount(gomock.Any(), gomock.Any()).Return("", unauthorized())
			},
			wantMessage: "Mount DBus call failed: org.freedesktop.UDisks2.Error.NotAuthorizedCanObtain: Not authorized to perform operation",
		},
		{
			name: "user mount not visible in mount table",
			req:  privdrop.Request{UID: 1001, GID: 1002, Device: testDevice, Operation: privdrop.OperationMount, Expect: privdrop.ExpectSuccess},
			setup: func(dev *mock_udisks.MockBlockDevice, p *mock_probe.MockProbe) {
				dev.EXPECT().Mount(gomock.Any(), gomock.Any()).Return("/mnt/scratch", nil)
				p.EXPECT().MountRecord(testDevice).Return(nil, nil)
			},
			wantMessage: "/dev/loop7 not mounted",
		},
		{
			name: "user mount without owner options",
			req:  privdrop.Request{UID: 1001, GID: 1002, Device: testDevice, Operation: privdrop.OperationMount, Expect: privdrop.ExpectSuccess},
			setup: func(dev *mock_udisks.MockBlockDevice, p *mock_probe.MockProbe) {
				dev.EXPECT().Mount(gomock.Any(), gomock.Any()).Return("/mnt/scratch", nil)
				p.EXPECT().MountRecord(testDevice).Return(mountedRecord("rw", "uid=0", "gid=0"), nil)
			},
			wantMessage: "/dev/loop7 not mounted with given uid/gid.\nMount info: /dev/loop7 on /mnt/scratch with [rw uid=0 gid=0]",
		},
		{
			name: "user mount at a different path than reported",
			req:  privdrop.Request{UID: 1001, GID: 1002, Device: testDevice, Operation: privdrop.OperationMount, Expect: privdrop.ExpectSuccess},
			setup: func(dev *mock_udisks.MockBlockDevice, p *mock_probe.MockProbe) {
				dev.EXPECT().Mount(gomock.Any(), gomock.Any()).Return("/run/media/test/TEST", nil)
				p.EXPECT().MountRecord(testDevice).Return(mountedRecord("uid=1001", "gid=1002"), nil)
			},
			wantMessage: "/dev/loop7 mounted at /mnt/scratch according to the mount table, but Mount returned /run/media/test/TEST",
		},
		{
			name: "user unmount succeeds",
			req:  privdrop.Request{UID: 1001, GID: 1002, Device: testDevice, Operation: privdrop.OperationUnmount, Expect: privdrop.ExpectSuccess},
			setup: func(dev *mock_udisks.MockBlockDevice, p *mock_probe.MockProbe) {
				dev.EXPECT().Unmount(gomock.Any()).Return(nil)
				p.EXPECT().MountRecord(testDevice).Return(nil, nil)
			},
			wantSuccess: true,
		},
		{
			name: "user unmount leaves device mounted",
			req:  privdrop.Request{UID: 1001, GID: 1002, Device: testDevice, Operation: privdrop.OperationUnmount, Expect: privdrop.ExpectSuccess},
			setup: func(dev *mock_udisks.MockBlockDevice, p *mock_probe.MockProbe) {
				dev.EXPECT().Unmount(gomock.Any()).Return(nil)
				p.EXPECT().MountRecord(testDevice).Return(mountedRecord(), nil)
			},
			wantMessage: "/dev/loop7 mounted after unmount called",
		},
		{
			name: "unauthorized mount refused",
			req:  privdrop.Request{UID: 1001, GID: 1002, Device: testDevice, Operation: privdrop.OperationMount, Expect: privdrop.ExpectUnauthorized},
			setup: func(dev *mock_udisks.MockBlockDevice, p *mock_probe.MockProbe) {
				dev.EXPECT().Mount(gomock.Any(), gomock.Any()).Return("", unauthorized())
				p.EXPECT().MountRecord(testDevice).Return(nil, nil)
			},
			wantSuccess: true,
		},
		{
			name: "unauthorized mount fails with another error",
			req:  privdrop.Request{UID: 1001, GID: 1002, Device: testDevice, Operation: privdrop.OperationMount, Expect: privdrop.ExpectUnauthorized},
			setup: func(dev *mock_udisks.MockBlockDevice, p *mock_probe.MockProbe) {
				dev.EXPECT().Mount(gomock.Any(), gomock.Any()).Return("", &udisks.Error{Kind: udisks.KindFailed, Name: udisks.ErrorPrefix + "Failed", Detail: "Error mounting"})
				p.EXPECT().MountRecord(testDevice).Return(nil, nil)
			},
			wantMessage: "Mount DBus call failed with unexpected error: org.freedesktop.UDisks2.Error.Failed: Error mounting",
		},
		{
			name: "unauthorized mount succeeds",
			req:  privdrop.Request{UID: 1001, GID: 1002, Device: testDevice, Operation: privdrop.OperationMount, Expect: privdrop.ExpectUnauthorized},
			setup: func(dev *mock_udisks.MockBlockDevice, p *mock_probe.MockProbe) {
				dev.EXPECT().Mount(gomock.Any(), gomock.Any()).Return("/run/media/test/TEST", nil)
				p.EXPECT().MountRecord(testDevice).Return(mountedRecord(), nil)
			},
			wantMessage: "/dev/loop7 was mounted for UID 1001 without proper record in fstab",
		},
		{
			name: "unauthorized mount reports success without mounting",
			req:  privdrop.Request{UID: 1001, GID: 1002, Device: testDevice, Operation: privdrop.OperationMount, Expect: privdrop.ExpectUnauthorized},
			setup: func(dev *mock_udisks.MockBlockDevice, p *mock_probe.MockProbe) {
				dev.EXPECT().Mount(gomock.Any(), gomock.Any()).Return("/run/media/test/TEST", nil)
				p.EXPECT().MountRecord(testDevice).Return(nil, nil)
			},
			wantMessage: "Mount DBus call didn't fail but /dev/loop7 doesn't seem to be mounted.",
		},
		{
			name: "unauthorized mount refused but device mounted",
			req:  privdrop.Request{UID: 1001, GID: 1002, Device: testDevice, Operation: privdrop.OperationMount, Expect: privdrop.ExpectUnauthorized},
			setup: func(dev *mock_udisks.MockBlockDevice, p *mock_probe.MockProbe) {
				dev.EXPECT().Mount(gomock.Any(), gomock.Any()).Return("", unauthorized())
				p.EXPECT().MountRecord(testDevice).Return(mountedRecord(), nil)
			},
			wantMessage: "Mount DBus call was refused but /dev/loop7 is mounted at /mnt/scratch",
		},
		{
			name: "unauthorized unmount refused",
			req:  privdrop.Request{UID: 1001, GID: 1002, Device: testDevice, Operation: privdrop.OperationUnmount, Expect: privdrop.ExpectUnauthorized},
			setup: func(dev *mock_udisks.MockBlockDevice, p *mock_probe.MockProbe) {
				dev.EXPECT().Unmount(gomock.Any()).Return(unauthorized())
				p.EXPECT().MountRecord(testDevice).Return(mountedRecord(), nil)
			},
			wantSuccess: true,
		},
		{
			name: "unauthorized unmount succeeds",
			req:  privdrop.Request{UID: 1001, GID: 1002, Device: testDevice, Operation: privdrop.OperationUnmount, Expect: privdrop.ExpectUnauthorized},
			setup: func(dev *mock_udisks.MockBlockDevice, p *mock_probe.MockProbe) {
				dev.EXPECT().Unmount(gomock.Any()).Return(nil)
				p.EXPECT().MountRecord(testDevice).Return(nil, nil)
			},
			wantMessage: "/dev/loop7 was unmounted for UID 1001 without proper record in fstab",
		},
		{
			name: "unauthorized unmount reports success but still mounted",
			req:  privdrop.Request{UID: 1001, GID: 1002, Device: testDevice, Operation: privdrop.OperationUnmount, Expect: privdrop.ExpectUnauthorized},
			setup: func(dev *mock_udisks.MockBlockDevice, p *mock_probe.MockProbe) {
				dev.EXPECT().Unmount(gomock.Any()).Return(nil)
				p.EXPECT().MountRecord(testDevice).Return(mountedRecord(), nil)
			},
			wantMessage: "Unmount DBus call didn't fail but /dev/loop7 seems to be still mounted.",
		},
		{
			name:        "unknown operation",
			req:         privdrop.Request{Device: testDevice, Operation: "format"},
			setup:       func(dev *mock_udisks.MockBlockDevice, p *mock_probe.MockProbe) {},
			wantMessage: `Unknown operation "format"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockCtl := gomock.NewController(t)
			dev := mock_udisks.NewMockBlockDevice(mockCtl)
			p := mock_probe.NewMockProbe(mockCtl)
			tc.setup(dev, p)

			verdict := privdrop.Check(ctx, dev, p, tc.req)
			assert.Equals(t, privdrop.Verdict{Success: tc.wantSuccess, Message: tc.wantMessage}, verdict)
		})
	}
}
