// Command querypath works with the query paths of a model:
//   - compile: parse path statements and print their normal form
//   - plan: merge paths into the plan for an entity
//   - render: render the entity query with the plan applied
//   - config: show the effective settings
//
// Usage:
//
//	querypath [--config file] [-v] <command>
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
