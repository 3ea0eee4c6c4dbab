// Package fstab reads `/etc/fstab` entries and snapshots the file so that
// scenarios modifying it through UDisks2 can put it back afterwards.
package fstab

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/google/renameio"
	"k8s.io/klog/v2"
)

// DefaultPath is the location of the system fstab.
const DefaultPath = "/etc/fstab"

// An Entry is a single line of fstab.
type Entry struct {
	Spec   string
	Dir    string
	Type   string
	Opts   []string
	Freq   int
	Passno int
}

// String returns the entry formatted as an fstab line.
func (e Entry) String() string {
	opts := "defaults"
	if len(e.Opts) > 0 {
		opts = strings.Join(e.Opts, ",")
	}
	return fmt.Sprintf("%s %s %s %s %d %d", escape(e.Spec), escape(e.Dir), e.Type, opts, e.Freq, e.Passno)
}

// HasOption returns whether `opt` is one of the entry's mount options.
func (e Entry) HasOption(opt string) bool {
	for _, o := range e.Opts {
		if o == opt {
			return true
		}
	}
	return false
}

// Parse parses fstab content. Comments and blank lines are skipped, missing
// freq and passno fields default to zero.
func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, fmt.Errorf("fstab: line %d: expected at least 4 fields, got %d", lineNo, len(fields))
		}
		entry := Entry{
			Spec: unescape(fields[0]),
			Dir:  unescape(fields[1]),
			Type: fields[2],
			Opts: strings.Split(fields[3], ","),
		}
		var err error
		if len(fields) > 4 {
			if entry.Freq, err = strconv.Atoi(fields[4]); err != nil {
				return nil, fmt.Errorf("fstab: line %d: invalid freq %q: %w", lineNo, fields[4], err)
			}
		}
		if len(fields) > 5 {
			if entry.Passno, err = strconv.Atoi(fields[5]); err != nil {
				return nil, fmt.Errorf("fstab: line %d: invalid passno %q: %w", lineNo, fields[5], err)
			}
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("fstab: %w", err)
	}
	return entries, nil
}

// ReadFile parses the fstab at `path`. A missing file has no entries.
func ReadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return Parse(bytes.NewReader(data))
}

// Find returns the first entry whose spec is one of `specs`, e.g. a device path
// and its `UUID=` and `LABEL=` aliases.
func Find(entries []Entry, specs ...string) (Entry, bool) {
	for _, entry := range entries {
		for _, spec := range specs {
			if spec != "" && entry.Spec == spec {
				return entry, true
			}
		}
	}
	return Entry{}, false
}

// A Snapshot is the full content of an fstab file taken at some point in time.
type Snapshot struct {
	path    string
	data    []byte
	perm    fs.FileMode
	existed bool
}

// Take snapshots the file at `path`, which might not exist.
func Take(path string) (*Snapshot, error) {
	s := &Snapshot{path: path, perm: 0644}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("fstab: failed to stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fstab: failed to read %s: %w", path, err)
	}
	s.data = data
	s.perm = info.Mode().Perm()
	s.existed = true
	return s, nil
}

// Path returns the path of the snapshotted file.
func (s *Snapshot) Path() string {
	return s.path
}

// Restore puts the snapshotted content back, replacing the file atomically.
// If the file did not exist at snapshot time, it is removed.
func (s *Snapshot) Restore() error {
	if !s.existed {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("fstab: failed to remove %s: %w", s.path, err)
		}
		return nil
	}
	current, err := os.ReadFile(s.path)
	if err == nil && bytes.Equal(current, s.data) {
		klog.V(4).Infof("fstab: %s is unchanged, nothing to restore", s.path)
		return nil
	}
	if err := renameio.WriteFile(s.path, s.data, s.perm); err != nil {
		return fmt.Errorf("fstab: failed to restore %s: %w", s.path, err)
	}
	klog.V(4).Infof("fstab: restored %s", s.path)
	return nil
}

// fstab encodes whitespace and backslashes in its first two fields as octal escapes.
var escaper = strings.NewReplacer(`\`, `\134`, " ", `\040`, "\t", `\011`, "\n", `\012`)
var unescaper = strings.NewReplacer(`\134`, `\`, `\040`, " ", `\011`, "\t", `\012`, "\n")

func escape(s string) string {
	return escaper.Replace(s)
}

func unescape(s string) string {
	return unescaper.Replace(s)
}
