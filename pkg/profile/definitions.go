package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"github.com/awslabs/udisks-conformance/pkg/udisks"
)

// setLabelFailed is the detail UDisks2 reports when the label tool refuses a label.
const setLabelFailed = "Error setting label"

// DefaultDefinitions is the built-in filesystem matrix.
func DefaultDefinitions() []Definition {
	return []Definition{
		{Name: "ext2", CreateCommand: "mke2fs", LabelCommand: "tune2fs", InvalidLabel: TruncateLabels(16)},
		{Name: "ext3", CreateCommand: "mke2fs", LabelCommand: "tune2fs", InvalidLabel: NoLabelPolicy()},
		{Name: "ext4", CreateCommand: "mke2fs", LabelCommand: "tune2fs", InvalidLabel: NoLabelPolicy()},
		{
			Name:          "xfs",
			CreateCommand: "mkfs.xfs",
			LabelCommand:  "xfs_admin",
			InvalidLabel:  RejectLabel("a a", udisks.KindFailed, setLabelFailed),
		},
		{
			Name:            "vfat",
			CreateCommand:   "mkfs.vfat",
			LabelCommand:    "fatlabel",
			InvalidLabel:    RejectLabel("aaaaaaaaaaaa", udisks.KindFailed, setLabelFailed),
			UppercaseLabels: true,
			UserMountable:   true,
		},
		{Name: "ntfs", CreateCommand: "mkfs.ntfs", LabelCommand: "ntfslabel"},
		{Name: "btrfs", CreateCommand: "mkfs.btrfs", LabelCommand: "btrfs"},
		{Name: "reiserfs", CreateCommand: "mkfs.reiserfs", LabelCommand: "reiserfstune"},
		{Name: "minix", CreateCommand: "mkfs.minix", Module: "minix"},
		{Name: "nilfs2", CreateCommand: "mkfs.nilfs2", LabelCommand: "nilfs-tune", Module: "nilfs2"},
		{Name: "f2fs", CreateCommand: "mkfs.f2fs", Module: "f2fs"},
	}
}

// fileDefinition is a [Definition] as written in a profiles file. Absent fields keep their built-in value.
type fileDefinition struct {
	Name            string      `json:"name"`
	CreateCommand   *string     `json:"createCommand"`
	LabelCommand    *string     `json:"labelCommand"`
	Module          *string     `json:"module"`
	InvalidLabel    *filePolicy `json:"invalidLabel"`
	UppercaseLabels *bool       `json:"uppercaseLabels"`
	UserMountable   *bool       `json:"userMountable"`
}

type filePolicy struct {
	Kind      string `json:"kind"`
	MaxLength int    `json:"maxLength"`
	Label     string `json:"label"`
	Error     string `json:"error"`
	Pattern   string `json:"pattern"`
}

func (f filePolicy) toPolicy() (LabelPolicy, error) {
	switch f.Kind {
	case "", LabelPolicyNone.String():
		return NoLabelPolicy(), nil
	case LabelPolicyTruncate.String():
		if f.MaxLength <= 0 {
			return LabelPolicy{}, fmt.Errorf("truncate policy needs a positive maxLength, got %d", f.MaxLength)
		}
		return TruncateLabels(f.MaxLength), nil
	case LabelPolicyReject.String():
		if f.Label == "" {
			return LabelPolicy{}, errors.New("reject policy needs a label")
		}
		kind, err := udisks.ParseErrorKind(f.Error)
		if err != nil {
			return LabelPolicy{}, err
		}
		return RejectLabel(f.Label, kind, f.Pattern), nil
	default:
		return LabelPolicy{}, fmt.Errorf("unknown invalid label policy %q", f.Kind)
	}
}

// LoadDefinitions returns [DefaultDefinitions] merged with the profiles file at `path`.
// The file is JSON with comments and trailing commas allowed, holding a list of definitions.
// An entry with a built-in name overrides the fields it sets, other entries are appended.
// An empty `path` returns the built-in definitions.
func LoadDefinitions(path string) ([]Definition, error) {
	defs := DefaultDefinitions()
	if path == "" {
		return defs, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Failed to read profiles file %s: %w", path, err)
	}
	overrides, err := parseDefinitions(data)
	if err != nil {
		return nil, fmt.Errorf("Invalid profiles file %s: %w", path, err)
	}
	return merge(defs, overrides)
}

func parseDefinitions(data []byte) ([]fileDefinition, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONC: %w", err)
	}
	var overrides []fileDefinition
	if err := json.Unmarshal(standardized, &overrides); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return overrides, nil
}

func merge(defs []Definition, overrides []fileDefinition) ([]Definition, error) {
	index := make(map[string]int, len(defs))
	for i, def := range defs {
		index[def.Name] = i
	}

	for _, o := range overrides {
		if o.Name == "" {
			return nil, errors.New("profile without a name")
		}
		i, ok := index[o.Name]
		if !ok {
			defs = append(defs, Definition{Name: o.Name})
			i = len(defs) - 1
			index[o.Name] = i
		}
		def := &defs[i]

		if o.CreateCommand != nil {
			def.CreateCommand = *o.CreateCommand
		}
		if o.LabelCommand != nil {
			def.LabelCommand = *o.LabelCommand
		}
		if o.Module != nil {
			def.Module = *o.Module
		}
		if o.InvalidLabel != nil {
			policy, err := o.InvalidLabel.toPolicy()
			if err != nil {
				return nil, fmt.Errorf("profile %s: %w", o.Name, err)
			}
			def.InvalidLabel = policy
		}
		if o.UppercaseLabels != nil {
			def.UppercaseLabels = *o.UppercaseLabels
		}
		if o.UserMountable != nil {
			def.UserMountable = *o.UserMountable
		}
	}

	return defs, nil
}
