package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/net/html"

	"au-go/packages/runtime/src/app"
	"au-go/packages/runtime/src/config"
	"au-go/packages/runtime/src/dom"
	"au-go/packages/runtime/src/logging"
	"au-go/packages/runtime/src/platform"
)

// ExitError carries the process exit code of a failed command
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func usage(w io.Writer) {
	fmt.Fprint(w, `au-go - render compiled components
Usage: au-go <command> [flags] <app.yaml>

Commands:
  render <app.yaml>   Start the application and print the rendered HTML
  check <app.yaml>    Validate the application file and hydrate its root
  help                Show help

Run 'au-go <command> -h' for the flags of a command.
`)
}

type options struct {
	path        string
	logLevel    string
	logFormat   string
	keepMarkers bool
	fragment    bool
}

func run(out, errOut io.Writer, args []string) error {
	if len(args) == 0 {
		usage(errOut)
		return &ExitError{Code: 2}
	}
	ctx := context.Background()
	switch args[0] {
	case "help", "-h", "-help", "--help":
		usage(out)
		return nil
	case "render":
		opts, exit, err := parseFlags("render", args[1:], out, errOut)
		if err != nil || exit {
			return err
		}
		return render(ctx, opts, out, errOut)
	case "check":
		opts, exit, err := parseFlags("check", args[1:], out, errOut)
		if err != nil || exit {
			return err
		}
		return check(ctx, opts, out, errOut)
	}
	usage(errOut)
	return &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", args[0])}
}

func parseFlags(cmd string, args []string, out, errOut io.Writer) (*options, bool, error) {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprintf(out, "Usage: au-go %s [flags] <app.yaml>\n\nFlags:\n", cmd)
		fs.PrintDefaults()
	}

	opts := &options{}
	fs.StringVar(&opts.logLevel, "log-level", "", "Logging level: 'debug', 'info', 'warn' or 'error'. Defaults to the file's log.level, then 'info'.")
	fs.StringVar(&opts.logFormat, "log-format", "", "Log format: 'text' or 'json'. Defaults to the file's log.format, then 'text' on a terminal and 'json' otherwise.")
	if cmd == "render" {
		fs.BoolVar(&opts.keepMarkers, "keep-markers", false, "Keep the render location comments in the output.")
		fs.BoolVar(&opts.fragment, "fragment", false, "Print the host's children instead of the whole document.")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, false, &ExitError{Code: 2, Message: "expected exactly one application file"}
	}
	opts.path = fs.Arg(0)
	if opts.logLevel != "" {
		if _, err := logging.ParseLevel(opts.logLevel); err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
	}
	switch strings.ToLower(opts.logFormat) {
	case "", "text", "json":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	return opts, false, nil
}

// defaultLogFormat is text for people and json for everything else
func defaultLogFormat(w io.Writer) string {
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return "text"
	}
	return "json"
}

func newLogger(opts *options, cfg *config.App, errOut io.Writer) (*slog.Logger, error) {
	level := firstOf(opts.logLevel, cfg.Log.Level, "info")
	format := firstOf(opts.logFormat, cfg.Log.Format, defaultLogFormat(errOut))
	return logging.New(errOut, level, format)
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// application is a hydrated, not yet started application
type application struct {
	au   *app.Aurelia
	host *html.Node
	cfg  *config.App
}

func load(ctx context.Context, opts *options, errOut io.Writer) (context.Context, *application, error) {
	cfg, err := config.Load(opts.path)
	if err != nil {
		return ctx, nil, err
	}
	logger, err := newLogger(opts, cfg, errOut)
	if err != nil {
		return ctx, nil, err
	}
	ctx = logging.WithLogger(ctx, logger)
	logger.Debug("config loaded", "path", opts.path, "root", cfg.Root, "components", len(cfg.Components))

	var doc *html.Node
	if cfg.Document != "" {
		if doc, err = html.Parse(strings.NewReader(cfg.Document)); err != nil {
			return ctx, nil, fmt.Errorf("parse document: %w", err)
		}
	}
	p := platform.New(doc, platform.WithLogger(logger))

	host := p.Body()
	if cfg.Host != "" {
		if host, err = dom.QuerySelector(p.Document, cfg.Host); err != nil {
			return ctx, nil, err
		}
		if host == nil {
			return ctx, nil, fmt.Errorf("%w: nothing matches %q", app.ErrNoHost, cfg.Host)
		}
	}

	appOpts := []app.Option{app.WithPlatform(p)}
	if size, ok, _ := cfg.CacheSize(); ok {
		appOpts = append(appOpts, app.WithViewCacheSize(size))
	}
	au := app.New(appOpts...)
	au.Register(cfg.Resources()...)
	if _, err := au.App(app.Config{Host: host, Component: cfg.Model(), Definition: cfg.RootDefinition()}); err != nil {
		return ctx, nil, err
	}
	logger.Debug("root hydrated", "root", cfg.Root)
	return ctx, &application{au: au, host: host, cfg: cfg}, nil
}

func render(ctx context.Context, opts *options, out, errOut io.Writer) error {
	ctx, a, err := load(ctx, opts, errOut)
	if err != nil {
		return err
	}
	logger := logging.FromContext(ctx)
	if err := a.au.Start(ctx); err != nil {
		return err
	}
	if err := a.au.Platform().Settle(); err != nil {
		return err
	}

	root := a.au.Platform().Document
	if opts.fragment {
		root = a.host
	}
	snapshot := dom.Clone(root)
	if !opts.keepMarkers {
		dom.StripLocations(snapshot)
	}
	if opts.fragment {
		_, err = io.WriteString(out, dom.RenderChildren(snapshot))
	} else {
		err = html.Render(out, snapshot)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	logger.Info("rendered", "root", a.cfg.Root)
	return a.au.Stop(ctx, true)
}

func check(ctx context.Context, opts *options, out, errOut io.Writer) error {
	_, a, err := load(ctx, opts, errOut)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: ok (%d components, root %s)\n", opts.path, len(a.cfg.Components), a.cfg.Root)
	return nil
}
