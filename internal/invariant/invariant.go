// Package invariant panics on conditions spec §7 classifies as fatal
// assertions — states that should never arise in a correct execution
// of the simulator (as opposed to parse errors or deferred/retriable
// operations, which are ordinary control flow).
package invariant

import "fmt"

// Check panics with a formatted message if cond is false.
func Check(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf("invariant violated: "+format, args...))
	}
}
