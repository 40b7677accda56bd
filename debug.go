package aspen

import (
	"fmt"
	"os"
)

// globalDebug enables extra sanity checks on tree operations. Off by
// default; the checks cost a tree walk per mutation.
var globalDebug bool

// SetDebug toggles debug checking for the whole package.
func SetDebug(enabled bool) {
	globalDebug = enabled
}

// debugCheckDestroyed panics with a descriptive message when a destroyed
// actor is used in a tree operation. Only called when debug mode is on;
// in release mode callers skip this entirely.
func debugCheckDestroyed(a *Actor, op string) {
	if a.destroyed {
		panic(fmt.Sprintf("aspen debug: %s on destroyed actor %q", op, a.name))
	}
}

// debugCheckTreeDepth warns on stderr if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(a *Actor) {
	depth := 0
	for p := a; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		_, _ = fmt.Fprintf(os.Stderr, "[aspen] warning: tree depth %d exceeds %d (actor %q)\n",
			depth, debugMaxTreeDepth, a.name)
	}
}
