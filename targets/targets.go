// Package targets bundles what the harness needs to know about each target language: how
// to ask the generator for it, how to find its runtime and how to write its drivers.
package targets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/parsergen/runtime-tests/driver"
	"github.com/parsergen/runtime-tests/toolchain"
)

// Target describes one target language.
type Target struct {
	// Name is the user-facing identifier, such as "dart".
	Name string
	// Language is the generator's language tag, such as "Dart".
	Language string
	// Toolchain locates the runtime that executes drivers.
	Toolchain toolchain.Spec
	// Driver holds the driver skeletons.
	Driver driver.Templates
}

var all = map[string]Target{
	Dart.Name:    Dart,
	Python3.Name: Python3,
}

// Lookup returns the target with the given name, ignoring case.
func Lookup(name string) (Target, error) {
	t, ok := all[strings.ToLower(name)]
	if !ok {
		return Target{}, fmt.Errorf("unknown target %q (known targets: %s)", name, strings.Join(Names(), ", "))
	}
	return t, nil
}

// Names returns the names of all known targets, sorted.
func Names() []string {
	names := make([]string, 0, len(all))
	for n := range all {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
