package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"GuideBuilder/internal/app"
	"GuideBuilder/internal/config"
	"GuideBuilder/internal/domain"
	"GuideBuilder/internal/infrastructure/clock"
	"GuideBuilder/internal/infrastructure/ingestion"
	"GuideBuilder/internal/logging"
	"GuideBuilder/internal/ports"
)

var statusOptions = ports.StatusOptions{IncludeMarkdown: false, IncludeFileMetadata: true}

func remoteClient() (*ingestion.Client, config.Config, error) {
	cfg := config.Load()
	if cfg.Ingestion.BaseURL == "" {
		return nil, cfg, errors.New("TRELENT_DATA_INGESTION_API_URL is not set")
	}
	return app.NewIngestionClient(cfg), cfg, nil
}

func printEndpoint(cfg config.Config) {
	fmt.Fprintln(stdout, "TRELENT_DATA_INGESTION_API_URL:", cfg.Ingestion.BaseURL)
	fmt.Fprintln(stdout, "TRELENT_DATA_INGESTION_API_TOKEN prefix:", logging.TokenPrefix(cfg.Ingestion.Token))
}

func runCheck(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, cfg, err := remoteClient()
	printEndpoint(cfg)
	if err != nil {
		return err
	}

	files, err := client.ListFiles(ctx)
	if err != nil {
		fmt.Fprintln(stdout, "listFiles() failed:", err)
		return err
	}
	fmt.Fprintf(stdout, "listFiles() succeeded, got %d file(s).\n", len(files.Files))
	return nil
}

func uploadAndSubmit(ctx context.Context, client *ingestion.Client, cfg config.Config, path, name string, expiryDays int) (string, error) {
	content, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer content.Close()

	fmt.Fprintln(stdout, "Uploading file...")
	ref, err := client.UploadFile(ctx, content, name, ports.UploadOptions{ExpiresInDays: expiryDays})
	if err != nil {
		return "", err
	}
	fmt.Fprintln(stdout, "Uploaded. File ID:", ref.ID)

	fmt.Fprintln(stdout, "Submitting job...")
	res, err := client.SubmitJob(ctx, domain.JobInput{
		Connector: domain.FileUploadConnector(ref.ID),
		Output:    domain.SignedURLOutput(cfg.Ingestion.OutputExpiryMinutes),
	})
	if err != nil {
		return "", err
	}
	fmt.Fprintln(stdout, "Job submitted. Job ID:", res.JobID)
	return res.JobID, nil
}

func runUpload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	polls := fs.Int("polls", 3, "number of status polls")
	interval := fs.Duration("interval", 2*time.Second, "delay between polls")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, cfg, err := remoteClient()
	printEndpoint(cfg)
	if err != nil {
		return err
	}

	path := fileArg(fs.Args())
	fmt.Fprintln(stdout, "Reading file from:", path)
	jobID, err := uploadAndSubmit(ctx, client, cfg, path, filepath.Base(path), cfg.Ingestion.UploadExpiryDays)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, "Polling job status (few times)...")
	for i := 0; i < *polls; i++ {
		snap, err := client.GetJobStatus(ctx, jobID, statusOptions)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "  Poll %d: %s\n", i+1, snap.Status)
		if snap.Status == string(domain.JobCompleted) || i == *polls-1 {
			break
		}
		if err := (clock.System{}).Sleep(ctx, *interval); err != nil {
			return err
		}
	}
	fmt.Fprintln(stdout, "Done.")
	return nil
}

func runIngest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	interval := fs.Duration("interval", 3*time.Second, "delay between polls")
	expiry := fs.Int("expires-in-days", 30, "upload expiry in days")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, cfg, err := remoteClient()
	if err != nil {
		return err
	}

	path := fileArg(fs.Args())
	fmt.Fprintln(stdout, "Reading file:", path)
	jobID, err := uploadAndSubmit(ctx, client, cfg, path, path, *expiry)
	if err != nil {
		return err
	}

	for {
		fmt.Fprintln(stdout, "Checking job status...")
		snap, err := client.GetJobStatus(ctx, jobID, statusOptions)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, "   Current status:", snap.Status)

		if snap.Status == string(domain.JobCompleted) || snap.Status == string(domain.JobFailed) {
			if len(snap.Delivery) > 0 {
				keys := make([]string, 0, len(snap.Delivery))
				for k := range snap.Delivery {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				fmt.Fprintln(stdout, "Delivery keys:", strings.Join(keys, ", "))
				fmt.Fprintln(stdout, "Full delivery object:")
				if err := printJSON(snap.Delivery); err != nil {
					return err
				}
			}
			if snap.Status == string(domain.JobFailed) {
				detail := snap.FailureDetail()
				fmt.Fprintln(stdout, "Job failed:", detail)
				return domain.JobFailedError(jobID, detail)
			}
			fmt.Fprintln(stdout, "Job completed!")
			return nil
		}

		if err := (clock.System{}).Sleep(ctx, *interval); err != nil {
			return err
		}
	}
}

func runInspect(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 || strings.TrimSpace(fs.Arg(0)) == "" {
		return errors.New("usage: guidectl inspect <jobId>")
	}

	client, _, err := remoteClient()
	if err != nil {
		return err
	}
	snap, err := client.GetJobStatus(ctx, fs.Arg(0), statusOptions)
	if err != nil {
		return err
	}
	return printJSON(snap)
}

func runTestIngest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("test-ingest", flag.ContinueOnError)
	target := fs.String("url", "", "document url (defaults to the configured sample)")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	url := strings.TrimSpace(*target)
	if url == "" {
		url = cfg.Ingestion.SampleURL
	}

	svc := app.NewIngestionService(cfg, logging.NewWithWriter(os.Stderr, cfg.Logging.Level))
	jobID, err := svc.StartJobFromURLs(ctx, []string{url})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Submitted %s job %s for %s\n", svc.Name(), jobID, url)
	return nil
}
