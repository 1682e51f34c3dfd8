package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"terra/internal/commands"
	"terra/internal/database"
	"terra/internal/indexer"
	"terra/internal/library"
	"terra/internal/media"
	"terra/internal/startup"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// cli carries the wired library and the output streams for one invocation.
type cli struct {
	cmds     *commands.Commands
	scanner  *indexer.Scanner
	ingestor *library.Ingestor
	stdout   io.Writer
	stderr   io.Writer
	progress bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return exitUsage
	}
	command, args := args[0], args[1:]

	switch command {
	case "scan", "upload", "list", "favorites", "years", "albums", "stats":
	case "help", "-h", "--help":
		printUsage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage(stderr)
		return exitUsage
	}

	config, err := startup.ReadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: Failed to open database: %v\n", err)
		fmt.Fprintf(stderr, "Make sure TERRA_DATA_DIR is set correctly (current: %s)\n", config.DataDir)
		return exitError
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	extractor := media.NewDefaultExtractor(config.ProbeMode)
	c := &cli{
		scanner:  indexer.New(db, extractor, config.ScanWorkers),
		ingestor: library.New(db, extractor, config.LibraryDir, 0),
		stdout:   stdout,
		stderr:   stderr,
		progress: stderrIsTerminal(stderr),
	}
	c.cmds = commands.New(db, c.scanner, c.ingestor)

	switch command {
	case "scan":
		return c.scan(ctx, args)
	case "upload":
		return c.upload(ctx, args)
	case "list":
		return c.emit(c.cmds.ListPhotos(ctx))
	case "favorites":
		return c.emit(c.cmds.ListFavorites(ctx))
	case "years":
		return c.emit(c.cmds.CountsByYear(ctx))
	case "albums":
		return c.emit(c.cmds.ListAlbums(ctx))
	default:
		return c.emit(c.cmds.Stats(ctx))
	}
}

func (c *cli) scan(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	persist := fs.Bool("persist", false, "save the scanned records")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	root := strings.TrimSpace(fs.Arg(0))
	if root == "" {
		fmt.Fprintln(c.stderr, "Error: scan requires a directory")
		return exitUsage
	}
	// Flags may also follow the root.
	if fs.NArg() > 1 {
		if err := fs.Parse(fs.Args()[1:]); err != nil {
			return exitUsage
		}
		if fs.NArg() > 0 {
			fmt.Fprintf(c.stderr, "Error: unexpected argument %q\n", fs.Arg(0))
			return exitUsage
		}
	}

	finish := c.trackProgress("Scanning", c.scanner.SetOnProgress)
	photos, err := c.cmds.ScanDirectory(ctx, root, *persist)
	finish()
	if err != nil && photos == nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return exitError
	}
	if code := c.emit(photos, nil); code != exitOK {
		return code
	}
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}

func (c *cli) upload(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(c.stderr, "Error: upload requires at least one file")
		return exitUsage
	}

	finish := c.trackProgress("Uploading", c.ingestor.SetOnProgress)
	photos, err := c.cmds.UploadPhotos(ctx, args)
	finish()
	return c.emit(photos, err)
}

// trackProgress installs a progress bar callback through set when stderr
// is a terminal. The returned func completes the bar.
func (c *cli) trackProgress(description string, set func(func(done, total int))) func() {
	if !c.progress {
		return func() {}
	}

	var bar *progressbar.ProgressBar
	set(func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(c.stderr),
				progressbar.OptionSetDescription(description),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(done)
	})

	return func() {
		set(nil)
		if bar != nil {
			_ = bar.Finish()
		}
	}
}

// emit writes v as indented JSON, or reports err.
func (c *cli) emit(v any, err error) int {
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return exitError
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: failed to encode output: %v\n", err)
		return exitError
	}
	fmt.Fprintln(c.stdout, string(out))
	return exitOK
}

func stderrIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// sanitizeCommand returns a safe representation of a command string for
// display, replacing anything outside [a-zA-Z0-9_-] with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Terra library tool")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: terractl <command> [arguments]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  scan <root> [-persist]  - Scan a directory for photos")
	fmt.Fprintln(w, "  upload <files...>       - Copy files into the library")
	fmt.Fprintln(w, "  list                    - List all photos, newest first")
	fmt.Fprintln(w, "  favorites               - List favorite photos")
	fmt.Fprintln(w, "  years                   - Photo counts per capture year")
	fmt.Fprintln(w, "  albums                  - List albums")
	fmt.Fprintln(w, "  stats                   - Library totals")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  TERRA_DATA_DIR    - Directory holding photos.db")
	fmt.Fprintln(w, "  TERRA_LIBRARY_DIR - Managed library root for uploads")
	fmt.Fprintln(w, "  TERRA_CONFIG      - Optional config file")
}
