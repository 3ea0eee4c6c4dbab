package udisks

import (
	"bytes"
	"strings"

	"github.com/godbus/dbus/v5"
)

// FormatOptions are the options understood by `Block.Format`.
type FormatOptions struct {
	// Erase overwrites existing content while formatting.
	Erase bool
	// Label is the filesystem label to create the filesystem with, empty means no label.
	Label string
}

func (o FormatOptions) toDbus() map[string]dbus.Variant {
	opts := noOptions()
	if o.Erase {
		opts["erase"] = dbus.MakeVariant(true)
	}
	if o.Label != "" {
		opts["label"] = dbus.MakeVariant(o.Label)
	}
	return opts
}

// MountOptions are the options understood by `Filesystem.Mount`.
// Zero value mounts using the persisted configuration (or the service defaults).
type MountOptions struct {
	FsType  string
	Options []string
}

func (o MountOptions) toDbus() map[string]dbus.Variant {
	opts := noOptions()
	if o.FsType != "" {
		opts["fstype"] = dbus.MakeVariant(o.FsType)
	}
	if len(o.Options) > 0 {
		opts["options"] = dbus.MakeVariant(strings.Join(o.Options, ","))
	}
	return opts
}

// An FstabEntry is a persisted mount configuration item of kind `fstab`.
type FstabEntry struct {
	Dir    string
	Type   string
	Opts   []string
	Freq   int32
	Passno int32
}

type configurationItem struct {
	Kind    string
	Details map[string]dbus.Variant
}

func (e FstabEntry) toItem() configurationItem {
	return configurationItem{
		Kind: ConfigurationKindFstab,
		Details: map[string]dbus.Variant{
			"dir":    dbus.MakeVariant(StringToBytes(e.Dir)),
			"type":   dbus.MakeVariant(StringToBytes(e.Type)),
			"opts":   dbus.MakeVariant(StringToBytes(strings.Join(e.Opts, ","))),
			"freq":   dbus.MakeVariant(e.Freq),
			"passno": dbus.MakeVariant(e.Passno),
		},
	}
}

func fstabEntryFromDbus(details map[string]dbus.Variant) FstabEntry {
	var entry FstabEntry
	if v, ok := details["dir"].Value().([]byte); ok {
		entry.Dir = BytesToString(v)
	}
	if v, ok := details["type"].Value().([]byte); ok {
		entry.Type = BytesToString(v)
	}
	if v, ok := details["opts"].Value().([]byte); ok {
		if opts := BytesToString(v); opts != "" {
			entry.Opts = strings.Split(opts, ",")
		}
	}
	if v, ok := details["freq"].Value().(int32); ok {
		entry.Freq = v
	}
	if v, ok := details["passno"].Value().(int32); ok {
		entry.Passno = v
	}
	return entry
}

// StringToBytes encodes `s` as a NUL-terminated byte array, the representation
// UDisks2 uses for paths and other bytestrings.
func StringToBytes(s string) []byte {
	return append([]byte(s), 0)
}

// BytesToString decodes a NUL-terminated byte array.
func BytesToString(b []byte) string {
	return string(bytes.TrimRight(b, "\x00"))
}

func noOptions() map[string]dbus.Variant {
	return map[string]dbus.Variant{}
}
