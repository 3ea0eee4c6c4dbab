package udisks

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/godbus/dbus/v5"
)

// ErrorPrefix is the D-Bus error name prefix used by UDisks2 for its own errors.
const ErrorPrefix = "org.freedesktop.UDisks2.Error."

// An ErrorKind classifies a failed UDisks2 call.
type ErrorKind int

const (
	// KindOther is an error with a D-Bus error name the harness does not recognise.
	KindOther ErrorKind = iota
	// KindTransport is a failure that never reached the service, e.g. a closed connection or a context timeout.
	KindTransport
	KindFailed
	KindNotSupported
	KindOptionNotPermitted
	KindNotMounted
	KindAlreadyMounted
	KindNotAuthorized
	KindNotAuthorizedCanObtain
)

var kindNames = map[ErrorKind]string{
	KindOther:                  "Other",
	KindTransport:              "Transport",
	KindFailed:                 "Failed",
	KindNotSupported:           "NotSupported",
	KindOptionNotPermitted:     "OptionNotPermitted",
	KindNotMounted:             "NotMounted",
	KindAlreadyMounted:         "AlreadyMounted",
	KindNotAuthorized:          "NotAuthorized",
	KindNotAuthorizedCanObtain: "NotAuthorizedCanObtain",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ParseErrorKind returns the kind with the given name, as printed by [ErrorKind.String].
func ParseErrorKind(name string) (ErrorKind, error) {
	for kind, n := range kindNames {
		if n == name {
			return kind, nil
		}
	}
	return KindOther, fmt.Errorf("unknown udisks error kind %q", name)
}

// kindFromName maps a D-Bus error name to an [ErrorKind].
func kindFromName(name string) ErrorKind {
	suffix, ok := strings.CutPrefix(name, ErrorPrefix)
	if !ok {
		return KindOther
	}
	for kind, n := range kindNames {
		if kind == KindOther || kind == KindTransport {
			continue
		}
		if n == suffix {
			return kind
		}
	}
	return KindOther
}

// An Error is a failed UDisks2 call. Kind is derived from the D-Bus error name,
// Detail is the human-readable message the service attached to it.
type Error struct {
	Kind   ErrorKind
	Name   string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s", e.Name, e.Detail)
	}
	return e.Detail
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError converts an error returned by godbus into an [*Error].
func newError(err error) *Error {
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		detail := ""
		if len(dbusErr.Body) > 0 {
			if msg, ok := dbusErr.Body[0].(string); ok {
				detail = msg
			}
		}
		return &Error{
			Kind:   kindFromName(dbusErr.Name),
			Name:   dbusErr.Name,
			Detail: detail,
			Err:    err,
		}
	}
	var dbusErrPtr *dbus.Error
	if errors.As(err, &dbusErrPtr) && dbusErrPtr != nil {
		return newError(*dbusErrPtr)
	}
	return &Error{Kind: KindTransport, Detail: err.Error(), Err: err}
}

// KindOf returns the kind of `err` and whether `err` is an [*Error] at all.
func KindOf(err error) (ErrorKind, bool) {
	var udisksErr *Error
	if !errors.As(err, &udisksErr) {
		return KindOther, false
	}
	return udisksErr.Kind, true
}

// Match reports whether `err` is an [*Error] of the given `kind` whose detail matches `pattern`.
// The kind is compared first, the detail pattern only if the kinds agree.
// An empty pattern matches any detail.
func Match(err error, kind ErrorKind, pattern string) (bool, error) {
	var udisksErr *Error
	if !errors.As(err, &udisksErr) {
		return false, nil
	}
	if udisksErr.Kind != kind {
		return false, nil
	}
	if pattern == "" {
		return true, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid detail pattern %q: %w", pattern, err)
	}
	return re.MatchString(udisksErr.Detail), nil
}
