// Package stacktrace trims raw goroutine stacks down to this module's frames.
package stacktrace

import (
	"strings"

	"github.com/samber/lo"
)

// InternalPaths returns the "internal/<pkg>/<file>.go:<line>" locations found
// in a raw stack as produced by runtime/debug.Stack.
func InternalPaths(stack []byte) []string {
	return lo.FilterMap(strings.Split(string(stack), "\n"), func(line string, _ int) (string, bool) {
		line = strings.TrimSpace(line)

		_, rest, found := strings.Cut(line, "/internal/")
		if !found || !strings.Contains(rest, ".go:") {
			return "", false
		}

		location, _, _ := strings.Cut(rest, " ")
		return "internal/" + location, true
	})
}
