package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
)

// Env supplies the dependencies commands open on demand.
type Env struct {
	Jobs    func() (*JobsCLI, error)
	Catalog func(ctx context.Context) (CatalogReader, func(), error)
	Stdout  io.Writer
	Stderr  io.Writer
}

const usage = `usage:
  stockroomctl jobs trigger <task-type>
  stockroomctl jobs stats
  stockroomctl export [--format csv|summary-csv|xlsx] [--out path]
`

// Run dispatches args to a subcommand and returns the process exit code.
func Run(ctx context.Context, args []string, env Env) int {
	if env.Stdout == nil {
		env.Stdout = os.Stdout
	}
	if env.Stderr == nil {
		env.Stderr = os.Stderr
	}
	if len(args) == 0 {
		_, _ = fmt.Fprint(env.Stderr, usage)
		return 2
	}
	switch args[0] {
	case "jobs":
		return runJobs(ctx, args[1:], env)
	case "export":
		return runExport(ctx, args[1:], env)
	default:
		_, _ = fmt.Fprintf(env.Stderr, "unknown command %q\n%s", args[0], usage)
		return 2
	}
}

func runJobs(ctx context.Context, args []string, env Env) int {
	if len(args) == 0 || (args[0] == "trigger" && len(args) != 2) {
		_, _ = fmt.Fprint(env.Stderr, usage)
		return 2
	}
	client, err := env.Jobs()
	if err != nil {
		_, _ = fmt.Fprintf(env.Stderr, "jobs: %v\n", err)
		return 1
	}
	defer func() { _ = client.Close() }()

	switch args[0] {
	case "trigger":
		info, err := client.Trigger(ctx, args[1])
		if err != nil {
			_, _ = fmt.Fprintf(env.Stderr, "jobs trigger: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintf(env.Stdout, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
		return 0
	case "stats":
		stats, err := client.InspectQueue()
		if err != nil {
			_, _ = fmt.Fprintf(env.Stderr, "jobs stats: %v\n", err)
			return 1
		}
		PrintStats(env.Stdout, stats)
		return 0
	default:
		_, _ = fmt.Fprintf(env.Stderr, "unknown jobs command %q\n%s", args[0], usage)
		return 2
	}
}

func runExport(ctx context.Context, args []string, env Env) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	format := fs.String("format", "csv", "csv, summary-csv or xlsx")
	out := fs.String("out", "", "output file, stdout when empty")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	catalog, closeCatalog, err := env.Catalog(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(env.Stderr, "export: %v\n", err)
		return 1
	}
	defer closeCatalog()

	w := env.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			_, _ = fmt.Fprintf(env.Stderr, "export: %v\n", err)
			return 1
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	if err := Export(ctx, catalog, ExportOptions{Format: *format, Out: w}); err != nil {
		_, _ = fmt.Fprintf(env.Stderr, "%v\n", err)
		return 1
	}
	return 0
}
