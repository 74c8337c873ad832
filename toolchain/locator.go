// Package toolchain finds the language runtime binaries that execute driver programs.
package toolchain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/puzpuzpuz/xsync/v4"
)

// ExecSuffix is the extended executable name checked alongside the bare name.
const ExecSuffix = ".exe"

// ErrNotFound matches every *NotFoundError.
var ErrNotFound = errors.New("toolchain not found")

// NotFoundError reports that no candidate location held the binary.
type NotFoundError struct {
	Binary   string
	Searched []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not find %q in any of: %s", e.Binary, strings.Join(e.Searched, ", "))
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Spec says where a runtime is conventionally installed.
type Spec struct {
	// Binary is the bare executable name, such as "dart".
	Binary string

	// SDKEnv names an environment variable pointing at an SDK root; SDKSubdir is appended
	// to it. Checked before anything else.
	SDKEnv    string
	SDKSubdir string

	// Fallbacks are install directories checked after PATH, keyed by platform family
	// ("unix" or "windows").
	Fallbacks map[string][]string

	// PackageManagerEnv names an environment variable holding a package manager prefix,
	// such as HOMEBREW_INSTALL; PackageManagerSubdir is appended to it. Checked last.
	PackageManagerEnv    string
	PackageManagerSubdir string
}

// Locator resolves Specs to binary paths.
//
// Successful lookups are cached for the lifetime of the Locator, keyed by binary name and
// the directories searched, unless NoCache is set. Failed lookups are never cached.
type Locator struct {
	// LookupEnv reads environment variables. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
	// GOOS selects the fallback family. Defaults to runtime.GOOS.
	GOOS string
	// NoCache makes every Locate call search again.
	NoCache bool

	cache *xsync.Map[string, string]
}

// NewLocator returns a Locator reading the process environment.
func NewLocator() *Locator {
	return &Locator{
		LookupEnv: os.LookupEnv,
		GOOS:      runtime.GOOS,
		cache:     xsync.NewMap[string, string](),
	}
}

// Locate returns the path of the first existing candidate for spec, or a *NotFoundError.
func (l *Locator) Locate(spec Spec) (string, error) {
	dirs := l.Candidates(spec)
	key := spec.Binary + "\x00" + strings.Join(dirs, "\x00")
	if !l.NoCache && l.cache != nil {
		if path, ok := l.cache.Load(key); ok {
			return path, nil
		}
	}
	for _, dir := range dirs {
		for _, name := range []string{spec.Binary, spec.Binary + ExecSuffix} {
			candidate := filepath.Join(dir, name)
			if isFile(candidate) {
				if !l.NoCache && l.cache != nil {
					l.cache.Store(key, candidate)
				}
				return candidate, nil
			}
		}
	}
	return "", &NotFoundError{Binary: spec.Binary, Searched: dirs}
}

// Candidates returns the directories Locate searches, in order.
func (l *Locator) Candidates(spec Spec) []string {
	var dirs []string
	if root, ok := l.getenv(spec.SDKEnv); ok {
		dirs = append(dirs, filepath.Join(root, spec.SDKSubdir))
	}
	if path, ok := l.getenv("PATH"); ok {
		for _, dir := range filepath.SplitList(path) {
			if dir != "" {
				dirs = append(dirs, dir)
			}
		}
	}
	dirs = append(dirs, spec.Fallbacks[l.family()]...)
	if prefix, ok := l.getenv(spec.PackageManagerEnv); ok {
		dirs = append(dirs, filepath.Join(prefix, spec.PackageManagerSubdir))
	}
	return dirs
}

func (l *Locator) getenv(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	lookup := l.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(name)
	return v, ok && v != ""
}

func (l *Locator) family() string {
	goos := l.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	if goos == "windows" {
		return "windows"
	}
	return "unix"
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
