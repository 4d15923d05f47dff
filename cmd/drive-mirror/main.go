// Drive Mirror
//
// One-way recursive mirror of a shared Drive folder tree to local disk,
// with size-based skip logic so interrupted runs resume where they left
// off, plus a submitter for the regression training job.
//
// Sub-commands:
//
//	drive-mirror login [flags]     Run the consent flow and cache the token
//	drive-mirror mirror [flags]    Mirror a folder tree (default)
//	drive-mirror submit [flags]    Submit the training job to the cluster
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/Jaebeom-git/InferBiomechanics/internal/auth"
	"github.com/Jaebeom-git/InferBiomechanics/internal/batch"
	"github.com/Jaebeom-git/InferBiomechanics/internal/config"
	"github.com/Jaebeom-git/InferBiomechanics/internal/logging"
	"github.com/Jaebeom-git/InferBiomechanics/internal/metrics"
	"github.com/Jaebeom-git/InferBiomechanics/internal/mirror"
	"github.com/Jaebeom-git/InferBiomechanics/internal/remote"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "login":
			cmdLogin(os.Args[2:])
			return
		case "submit":
			cmdSubmit(os.Args[2:])
			return
		case "mirror":
			// Strip "mirror" from args and fall through to normal parsing
			os.Args = append(os.Args[:1], os.Args[2:]...)
		}
	}

	cmdMirror()
}

func cmdMirror() {
	cfg := config.Load()

	src := flag.String("src", cfg.SourceFolder, "Source folder ID or shareable URL (required)")
	dest := flag.String("dest", cfg.DestRoot, "Destination root directory (required)")
	credentials := flag.String("credentials", cfg.CredentialsDir, "Directory holding the client secret JSON")
	continueOnError := flag.Bool("continue-on-error", cfg.ContinueOnError, "Continue with remaining files when one transfer fails")
	maxDepth := flag.Int("max-depth", cfg.MaxDepth, "Maximum folder depth (0 = unbounded)")
	metricsAddr := flag.String("metrics", cfg.MetricsAddr, "Serve Prometheus metrics on this address while mirroring")
	logFormat := flag.String("log-format", cfg.LogFormat, "Log format: console or json")
	verbosity := flag.Int("v", 1, "Verbosity level: 0=error, 1=info, 2=debug")

	flag.Parse()

	cfg.SourceFolder = *src
	cfg.DestRoot = *dest
	cfg.CredentialsDir = *credentials
	cfg.ContinueOnError = *continueOnError
	cfg.MaxDepth = *maxDepth
	cfg.MetricsAddr = *metricsAddr
	cfg.LogFormat = *logFormat
	cfg.LogLevel = levelFor(*verbosity)

	initLogging(cfg)
	defer logging.Sync()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	ctx := context.Background()

	// Credentials are checked before any network call is attempted.
	svc, err := auth.NewService(ctx, cfg)
	if err != nil {
		if errors.Is(err, auth.ErrCredentialsNotFound) || errors.Is(err, auth.ErrAuthorizationDenied) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logging.Fatal("authentication failed", logging.Err(err))
	}

	if cfg.MetricsAddr != "" {
		metrics.Serve(cfg.MetricsAddr)
		logging.Info("metrics endpoint up", logging.String("addr", cfg.MetricsAddr))
	}

	folderID := remote.FolderIDFromURL(cfg.SourceFolder)
	logging.Info("mirroring",
		logging.String("folder", folderID),
		logging.String("dest", cfg.DestRoot))

	m := mirror.New(mirror.Config{
		Service:         svc,
		SourceFolderID:  folderID,
		DestRoot:        cfg.DestRoot,
		OnProgress:      mirror.ConsolePrinter(os.Stdout),
		ContinueOnError: cfg.ContinueOnError,
		MaxDepth:        cfg.MaxDepth,
	})

	paths, err := m.Run(ctx)
	if err != nil {
		logging.Error("mirror aborted", logging.Err(err))
	}

	fmt.Printf("\n%d file(s) materialized, %d skipped, %d folder(s) visited, %d error(s)\n",
		len(paths),
		m.Stats.FilesSkipped.Load(),
		m.Stats.FoldersVisited.Load(),
		m.Stats.TransferErrors.Load())

	if err != nil {
		os.Exit(1)
	}
}

func cmdLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	credentials := fs.String("credentials", "credentials", "Directory holding the client secret JSON")
	verbosity := fs.Int("v", 1, "Verbosity level: 0=error, 1=info, 2=debug")
	fs.Parse(args)

	cfg := config.Load()
	cfg.CredentialsDir = *credentials
	cfg.LogLevel = levelFor(*verbosity)
	initLogging(cfg)
	defer logging.Sync()

	if _, err := auth.NewService(context.Background(), cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Login successful, token saved.")
}

func cmdSubmit(args []string) {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	def := batch.DefaultJob()

	name := fs.String("name", def.Name, "Job name")
	script := fs.String("script", def.Script, "Training program entry point")
	dataset := fs.String("dataset", def.DatasetDir, "Dataset directory")
	checkpoints := fs.String("checkpoints", def.CheckpointDir, "Checkpoint directory")
	hidden := fs.Int("hidden-size", def.HiddenSize, "Hidden layer width")
	cpus := fs.Int("cpus", def.CPUs, "CPU count")
	mem := fs.Int("mem", def.MemGB, "Memory ceiling in GB")
	wallClock := fs.String("time", def.WallClock, "Wall-clock limit (HH:MM:SS)")
	partition := fs.String("partition", def.Partition, "Cluster partition")
	mail := fs.String("mail", def.MailUser, "Email for job notifications")
	dryRun := fs.Bool("dry-run", false, "Print the sbatch invocation without submitting")
	fs.Parse(args)

	job := batch.Job{
		Name:          *name,
		Script:        *script,
		DatasetDir:    *dataset,
		CheckpointDir: *checkpoints,
		HiddenSize:    *hidden,
		CPUs:          *cpus,
		MemGB:         *mem,
		WallClock:     *wallClock,
		Partition:     *partition,
		MailUser:      *mail,
	}

	logging.InitDefault()
	defer logging.Sync()

	if *dryRun {
		fmt.Println("sbatch", job.SbatchArgs())
		return
	}

	out, err := job.Submit(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(out)
}

func initLogging(cfg *config.Config) {
	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		panic("logging init error: " + err.Error())
	}
}

func levelFor(verbosity int) string {
	switch verbosity {
	case 0:
		return "error"
	case 1:
		return "info"
	default:
		return "debug"
	}
}
