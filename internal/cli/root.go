package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Run dispatches a guidectl subcommand.
func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "check":
		return runCheck(ctx, args[1:])
	case "upload":
		return runUpload(ctx, args[1:])
	case "ingest":
		return runIngest(ctx, args[1:])
	case "inspect":
		return runInspect(ctx, args[1:])
	case "test-ingest":
		return runTestIngest(ctx, args[1:])
	case "run":
		return runGuide(ctx, args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Fprintln(stdout, "guidectl: drive document ingestion and guide generation")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Ingestion API:")
	fmt.Fprintln(stdout, "  check                 print the configured endpoint and probe the file listing")
	fmt.Fprintln(stdout, "  upload [file]         upload, submit a job and poll it a few times")
	fmt.Fprintln(stdout, "  ingest [file]         upload, submit and poll until the job finishes")
	fmt.Fprintln(stdout, "  inspect <jobId>       print the raw status snapshot of a job")
	fmt.Fprintln(stdout, "  test-ingest [--url]   submit a url job through the configured backend")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Guides:")
	fmt.Fprintln(stdout, "  run <file>            upload a document and follow it until the guide is ready")
	fmt.Fprintln(stdout, "                        --server <url> drives a running server, --plain disables the live view")
	fmt.Fprintln(stdout, "  run --job <jobId>     follow an already submitted job instead of uploading")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Configuration comes from .env, GUIDE_CONFIG and the environment.")
}
