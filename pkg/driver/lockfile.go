package driver

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LockfileName is written next to the manifest by fetch.
const LockfileName = "xmlang.lock"

// Lockfile models the xmlang.lock contents.
type Lockfile struct {
	Path      string
	Root      string
	Generated string
	Tool      string
	Targets   []*LockedTarget
}

// LockedTarget records one fetched git target.
type LockedTarget struct {
	Name     string
	Source   string
	Commit   string
	Checksum string
	Path     string
}

// NewLockfile constructs a lockfile with metadata seeded for the provided root.
func NewLockfile(root, tool string) *Lockfile {
	return &Lockfile{
		Root:      sanitizeSegment(root),
		Generated: time.Now().UTC().Format(time.RFC3339),
		Tool:      strings.TrimSpace(tool),
		Targets:   []*LockedTarget{},
	}
}

// LoadLockfile parses xmlang.lock from disk.
func LoadLockfile(path string) (*Lockfile, error) {
	if path == "" {
		return nil, fmt.Errorf("lockfile: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var raw lockfileDisk
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("lockfile: parse %s: %w", abs, err)
	}

	lock := raw.toLockfile()
	lock.Path = abs
	return lock, nil
}

// WriteLockfile serialises the lockfile back to disk, refreshing metadata.
func WriteLockfile(lock *Lockfile, path string) error {
	if lock == nil {
		return fmt.Errorf("lockfile: nil lockfile")
	}
	if path == "" {
		if lock.Path == "" {
			return fmt.Errorf("lockfile: missing path")
		}
		path = lock.Path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}

	if lock.Generated == "" {
		lock.Generated = time.Now().UTC().Format(time.RFC3339)
	}
	lock.Path = abs
	lock.normalize()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(lock.toDisk()); err != nil {
		return fmt.Errorf("lockfile: marshal %s: %w", abs, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("lockfile: encoder close: %w", err)
	}
	if err := os.WriteFile(abs, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("lockfile: write %s: %w", abs, err)
	}
	return nil
}

// Find returns the locked entry for a target name.
func (l *Lockfile) Find(name string) (*LockedTarget, bool) {
	if l == nil {
		return nil, false
	}
	key := sanitizeSegment(name)
	for _, target := range l.Targets {
		if target != nil && target.Name == key {
			return target, true
		}
	}
	return nil, false
}

// Put adds or replaces the entry for target.Name.
func (l *Lockfile) Put(target *LockedTarget) {
	if l == nil || target == nil {
		return
	}
	target.Name = sanitizeSegment(target.Name)
	for i, existing := range l.Targets {
		if existing != nil && existing.Name == target.Name {
			l.Targets[i] = target
			return
		}
	}
	l.Targets = append(l.Targets, target)
}

func (l *Lockfile) normalize() {
	if l == nil {
		return
	}
	l.Root = sanitizeSegment(l.Root)
	l.Tool = strings.TrimSpace(l.Tool)
	sort.SliceStable(l.Targets, func(i, j int) bool {
		return l.Targets[i].Name < l.Targets[j].Name
	})
	for _, target := range l.Targets {
		if target == nil {
			continue
		}
		target.Name = sanitizeSegment(target.Name)
		target.Source = strings.TrimSpace(target.Source)
		target.Commit = strings.TrimSpace(target.Commit)
		target.Checksum = strings.TrimSpace(target.Checksum)
		target.Path = strings.TrimSpace(target.Path)
	}
}

func (l *Lockfile) toDisk() lockfileDisk {
	targets := make([]lockfileTarget, 0, len(l.Targets))
	for _, target := range l.Targets {
		if target == nil {
			continue
		}
		targets = append(targets, lockfileTarget{
			Name:     target.Name,
			Source:   target.Source,
			Commit:   target.Commit,
			Checksum: target.Checksum,
			Path:     target.Path,
		})
	}
	return lockfileDisk{
		Root:      l.Root,
		Generated: l.Generated,
		Tool:      l.Tool,
		Targets:   targets,
	}
}

type lockfileDisk struct {
	Root      string           `yaml:"root"`
	Generated string           `yaml:"generated"`
	Tool      string           `yaml:"tool"`
	Targets   []lockfileTarget `yaml:"targets"`
}

type lockfileTarget struct {
	Name     string `yaml:"name"`
	Source   string `yaml:"source"`
	Commit   string `yaml:"commit"`
	Checksum string `yaml:"checksum"`
	Path     string `yaml:"path"`
}

func (d lockfileDisk) toLockfile() *Lockfile {
	lock := &Lockfile{
		Root:      d.Root,
		Generated: strings.TrimSpace(d.Generated),
		Tool:      d.Tool,
		Targets:   make([]*LockedTarget, 0, len(d.Targets)),
	}
	for _, target := range d.Targets {
		lock.Targets = append(lock.Targets, &LockedTarget{
			Name:     target.Name,
			Source:   target.Source,
			Commit:   target.Commit,
			Checksum: target.Checksum,
			Path:     target.Path,
		})
	}
	lock.normalize()
	return lock
}
