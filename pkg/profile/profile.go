// Package profile describes, as data, which filesystem lifecycle operations are
// expected to work for which filesystem type.
package profile

import (
	"fmt"
	"strings"

	"k8s.io/klog/v2"

	"github.com/awslabs/udisks-conformance/pkg/udisks"
)

// A LabelPolicyKind selects how a filesystem handles a label it cannot store.
type LabelPolicyKind int

const (
	// LabelPolicyNone means invalid labels are not exercised.
	LabelPolicyNone LabelPolicyKind = iota
	// LabelPolicyTruncate means over-long labels are silently truncated.
	LabelPolicyTruncate
	// LabelPolicyReject means setting an invalid label fails with an error.
	LabelPolicyReject
)

var policyNames = map[LabelPolicyKind]string{
	LabelPolicyNone:     "none",
	LabelPolicyTruncate: "truncate",
	LabelPolicyReject:   "reject",
}

func (k LabelPolicyKind) String() string {
	if name, ok := policyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("LabelPolicyKind(%d)", int(k))
}

// A LabelPolicy is the expected behaviour for an invalid label.
// Only the fields of the selected Kind are meaningful.
type LabelPolicy struct {
	Kind LabelPolicyKind

	// MaxLength is the length labels are truncated to.
	MaxLength int

	// Label is the label that must be rejected.
	Label string
	// ErrorKind is the kind of the error the rejection fails with.
	ErrorKind udisks.ErrorKind
	// Pattern is a regular expression the error detail must match.
	Pattern string
}

// NoLabelPolicy returns a policy not exercising invalid labels.
func NoLabelPolicy() LabelPolicy {
	return LabelPolicy{Kind: LabelPolicyNone}
}

// TruncateLabels returns a policy expecting labels longer than `maxLength` to be truncated.
func TruncateLabels(maxLength int) LabelPolicy {
	return LabelPolicy{Kind: LabelPolicyTruncate, MaxLength: maxLength}
}

// RejectLabel returns a policy expecting `label` to be refused with an error of `kind` whose detail matches `pattern`.
func RejectLabel(label string, kind udisks.ErrorKind, pattern string) LabelPolicy {
	return LabelPolicy{Kind: LabelPolicyReject, Label: label, ErrorKind: kind, Pattern: pattern}
}

func (p LabelPolicy) String() string {
	switch p.Kind {
	case LabelPolicyTruncate:
		return fmt.Sprintf("truncate(%d)", p.MaxLength)
	case LabelPolicyReject:
		return fmt.Sprintf("reject(%q, %s, %q)", p.Label, p.ErrorKind, p.Pattern)
	default:
		return p.Kind.String()
	}
}

// A Definition declares a filesystem type and how to find out whether the host supports it.
type Definition struct {
	Name string
	// CreateCommand is the tool UDisks2 needs to create the filesystem, empty if the filesystem cannot be created.
	CreateCommand string
	// LabelCommand is the tool UDisks2 needs to change labels, empty if the filesystem has no labels.
	LabelCommand string
	// Module is the kernel module needed for mounting, empty if mounting is always possible.
	Module string

	InvalidLabel    LabelPolicy
	UppercaseLabels bool
	UserMountable   bool
}

// A Profile is a [Definition] resolved against the host: its capabilities are fixed when
// the profile is built and never change afterwards.
type Profile struct {
	Name      string
	CanCreate bool
	CanLabel  bool
	CanMount  bool

	// Labelless is set for filesystems which have no labels at all.
	Labelless bool

	InvalidLabel LabelPolicy
	// UppercaseLabels is set for filesystems which store labels in uppercase.
	UppercaseLabels bool
	// UserMountable is set for filesystems which record the mounting user as `uid=` and `gid=` mount options.
	UserMountable bool
}

// Label returns `label` as the filesystem will report it.
func (p Profile) Label(label string) string {
	if p.UppercaseLabels {
		return strings.ToUpper(label)
	}
	return label
}

func (p Profile) String() string {
	return fmt.Sprintf("%s(create=%t label=%t mount=%t invalid-label=%s)", p.Name, p.CanCreate, p.CanLabel, p.CanMount, p.InvalidLabel)
}

// Capabilities answers the host questions profiles are resolved with.
type Capabilities interface {
	CommandExists(command string) bool
	ModuleLoaded(module string) (bool, error)
}

// Resolve probes the host for the capabilities of `def`.
func Resolve(def Definition, caps Capabilities) (Profile, error) {
	p := Profile{
		Name:            def.Name,
		Labelless:       def.LabelCommand == "",
		InvalidLabel:    def.InvalidLabel,
		UppercaseLabels: def.UppercaseLabels,
		UserMountable:   def.UserMountable,
	}

	p.CanCreate = def.CreateCommand != "" && caps.CommandExists(def.CreateCommand)
	p.CanLabel = def.LabelCommand != "" && caps.CommandExists(def.LabelCommand)
	p.CanMount = true
	if def.Module != "" {
		loaded, err := caps.ModuleLoaded(def.Module)
		if err != nil {
			return Profile{}, fmt.Errorf("Failed to check kernel module %s for %s: %w", def.Module, def.Name, err)
		}
		p.CanMount = loaded
	}

	klog.V(4).Infof("profile: resolved %s", p)
	return p, nil
}

// Load resolves all `defs` in order.
func Load(defs []Definition, caps Capabilities) ([]Profile, error) {
	profiles := make([]Profile, 0, len(defs))
	for _, def := range defs {
		p, err := Resolve(def, caps)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// Find returns the profile named `name`.
func Find(profiles []Profile, name string) (Profile, bool) {
	for _, p := range profiles {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

// FirstLabelless returns the first profile that can be created but has no labels.
// A filesystem whose label tool is merely missing does not qualify.
func FirstLabelless(profiles []Profile) (Profile, bool) {
	for _, p := range profiles {
		if p.CanCreate && p.Labelless {
			return p, true
		}
	}
	return Profile{}, false
}
