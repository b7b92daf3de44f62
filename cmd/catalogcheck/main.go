// Offline catalog validator: runs the same checks as the server at startup
// plus the authoring lint.
//
// Usage:
//
//	go run ./cmd/catalogcheck                              # public/master-config.json
//	go run ./cmd/catalogcheck -path other.json
//	go run ./cmd/catalogcheck -url https://cdn/master-config.json -strict
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/udisondev/gearcfg/internal/data"
)

func main() {
	var (
		path    = flag.String("path", data.DefaultCatalogPath, "catalog file")
		url     = flag.String("url", "", "catalog URL (overrides -path)")
		timeout = flag.Duration("timeout", 10*time.Second, "fetch timeout")
		strict  = flag.Bool("strict", false, "treat warnings and lint findings as failures")
	)
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	os.Exit(check(context.Background(), os.Stdout, data.NewSource(*path, *url, *timeout), *strict))
}

// check returns the process exit code: 0 ok, 1 load failure, 2 strict findings.
func check(ctx context.Context, out io.Writer, src data.Source, strict bool) int {
	loader := data.NewLoader(src)
	cat, err := loader.LoadConfig(ctx)
	if err != nil {
		var structural *data.StructuralError
		if errors.As(err, &structural) {
			fmt.Fprintf(out, "FAIL %s: %s\n", src, structural.Reason)
		} else {
			fmt.Fprintf(out, "FAIL %s: %v\n", src, err)
		}
		return 1
	}

	warnings := loader.Warnings()
	for _, w := range warnings {
		fmt.Fprintf(out, "WARN item %s\n", w)
	}
	findings := data.Lint(cat)
	for _, f := range findings {
		fmt.Fprintf(out, "LINT %s\n", f)
	}

	fmt.Fprintf(out, "OK %s: %d slots, %d items, %d required\n",
		src, len(cat.Slots), len(cat.Items), len(cat.RequiredSlots()))

	if strict && len(warnings)+len(findings) > 0 {
		return 2
	}
	return 0
}
