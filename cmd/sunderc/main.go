// Command sunderc loads and resolves a single Sunder source path, printing
// every accumulated diagnostic to stderr and the resolved function count to
// stdout. It owns none of the CLI surface a real driver would (flag
// parsing, SUNDER_HOME/SUNDER_ARCH environment probing, invoking an
// external C compiler or linker): those are out of scope, left to an
// external collaborator wiring against the internal/ctx, internal/module,
// and internal/resolve packages directly.
package main

import (
	"fmt"
	"os"

	"github.com/ashn-dot-dev/sunder-sub000/internal/ctx"
	"github.com/ashn-dot-dev/sunder-sub000/internal/module"
	"github.com/ashn-dot-dev/sunder-sub000/internal/resolve"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <path>\n", os.Args[0])
		os.Exit(2)
	}
	os.Exit(run(os.Args[1]))
}

func run(path string) int {
	c := ctx.New(ctx.DefaultOptions())
	loader := module.NewLoader(c, nil, os.Getenv("SUNDER_ARCH"), os.Getenv("SUNDER_HOST"))

	mod, err := loader.Load(path)
	if err != nil {
		dump(c)
		return 1
	}

	fns, err := resolve.New(c).Resolve(mod)
	dump(c)
	if err != nil {
		return 1
	}

	fmt.Printf("resolved %d function(s)\n", len(fns))
	if c.Sink.HasErrors() {
		return 1
	}
	return 0
}

func dump(c *ctx.Context) {
	for _, d := range c.Sink.Entries() {
		fmt.Fprintln(os.Stderr, d.String())
	}
}
