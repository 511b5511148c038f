// Package vtablecli implements the vtablec command-line surface: build,
// inspect, selftest and serve, dispatched by hand off os.Args the way
// cmd/funxy's main did, rather than through the flag package.
package vtablecli

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/vtablec/internal/vtable"
	"github.com/funvibe/vtablec/internal/vtablebuild"
	"github.com/funvibe/vtablec/internal/vtableconfig"
)

// Run dispatches args (os.Args) to the matching subcommand and returns the
// process exit code.
func Run(args []string) int {
	if len(args) < 2 {
		printUsage()
		return 1
	}

	switch args[1] {
	case "-help", "--help", "help":
		printUsage()
		return 0
	case "build":
		return runBuild(args[2:])
	case "inspect":
		return runInspect(args[2:])
	case "selftest":
		return runSelftest(args[2:])
	case "serve":
		return runServe(args[2:])
	default:
		fmt.Fprintf(os.Stderr, "vtablec: unknown subcommand %q\n", args[1])
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: vtablec <command> [arguments]

Commands:
  build <snapshot.pb>    build a dispatch table from a HierarchySnapshot
  inspect <image.vtb>    print a human-readable dump of a built table image
  selftest               run the packed-in scenarios from spec §8 and report pass/fail
  serve <addr>           serve BuildDispatchTable over grpc at addr

Flags for build:
  -o <path>       write the serialized table image here (default: table.vtb)
  -config <path>  load designations from a YAML file (default: built-in defaults)
  -cache <path>   sqlite build cache path; skips rebuilding an unchanged snapshot`)
}

func parseDesignations(configPath string) (vtableconfig.Designations, error) {
	if configPath == "" {
		return vtableconfig.Default(), nil
	}
	return vtableconfig.Load(configPath)
}

func runBuild(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "vtablec build: missing <snapshot.pb>")
		return 1
	}
	snapshotPath := args[0]
	outPath := "table.vtb"
	configPath := ""
	cachePath := ""
	for i := 1; i < len(args)-1; i++ {
		switch args[i] {
		case "-o":
			outPath = args[i+1]
		case "-config":
			configPath = args[i+1]
		case "-cache":
			cachePath = args[i+1]
		}
	}

	designations, err := parseDesignations(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vtablec build: %v\n", err)
		return 1
	}

	data, err := os.ReadFile(snapshotPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vtablec build: reading snapshot: %v\n", err)
		return 1
	}

	var cache *vtablebuild.Cache
	var fingerprint string
	if cachePath != "" {
		cache, err = vtablebuild.OpenCache(cachePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "vtablec build: opening cache: %v\n", err)
			return 1
		}
		defer cache.Close()

		fingerprint = vtablebuild.Fingerprint(data)
		if img, ok, err := cache.Lookup(fingerprint); err == nil && ok {
			if err := writeImage(img, outPath); err != nil {
				fmt.Fprintf(os.Stderr, "vtablec build: %v\n", err)
				return 1
			}
			fmt.Fprintf(os.Stderr, "vtablec build: cache hit, wrote %s\n", outPath)
			return 0
		}
	}

	in, err := vtablebuild.IngestSnapshot(data, designations)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vtablec build: %v\n", err)
		return 1
	}

	result, err := vtablebuild.New(in).Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "vtablec build: %v\n", err)
		return 1
	}

	img := vtable.NewTableImage(result.Length, result.Registry.AllSelectors())
	if err := writeImage(img, outPath); err != nil {
		fmt.Fprintf(os.Stderr, "vtablec build: %v\n", err)
		return 1
	}

	if cache != nil {
		if err := cache.Store(fingerprint, img); err != nil {
			fmt.Fprintf(os.Stderr, "vtablec build: warning: caching result: %v\n", err)
		}
	}

	fmt.Fprintf(os.Stderr, "vtablec build: wrote %s (length=%d, build_id=%s)\n", outPath, result.Length, img.BuildID)
	return 0
}

func writeImage(img *vtable.TableImage, outPath string) error {
	data, err := img.Serialize()
	if err != nil {
		return fmt.Errorf("serializing table image: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	return nil
}

func runInspect(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "vtablec inspect: missing <image.vtb>")
		return 1
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "vtablec inspect: %v\n", err)
		return 1
	}
	img, err := vtable.DeserializeTableImage(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vtablec inspect: %v\n", err)
		return 1
	}
	report := vtable.NewDumpReport(img)
	out, err := report.Dump()
	if err != nil {
		fmt.Fprintf(os.Stderr, "vtablec inspect: %v\n", err)
		return 1
	}

	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		fmt.Printf("\x1b[1m# table image %s\x1b[0m\n", img.BuildID)
	}
	os.Stdout.Write(out)
	return 0
}
