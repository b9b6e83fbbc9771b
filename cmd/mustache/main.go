// Command mustache renders a mustache template with view data.
//
//	mustache [flags] TEMPLATE
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/natefinch/atomic"

	"github.com/oarkflow/mustache"
)

type stringList []string

func (s *stringList) String() string     { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error { *s = append(*s, v); return nil }

type options struct {
	template string
	data     string
	sets     []string
	watch    bool
	cfg      *Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "mustache:", err)
		os.Exit(1)
	}
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	flags := flag.NewFlagSet("mustache", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "mustache.toml", "TOML configuration file")
	data := flags.String("data", "", "view data file (.json, .yaml, .toml, or - for JSON on stdin)")
	partials := flags.String("partials", "", "directory partials are loaded from (default: template directory)")
	partialExt := flags.String("partial-ext", "", "partial file extension")
	delims := flags.String("delims", "", `initial delimiters, e.g. "<% %>"`)
	escape := flags.String("escape", "", "escaping policy: html, none or strict")
	output := flags.String("o", "", "output file (stdout if empty)")
	logLevel := flags.String("log-level", "", "log level: debug, info, warn or error")
	watch := flags.Bool("watch", false, "render again whenever the template or a partial changes")
	var sets stringList
	flags.Var(&sets, "set", "override a data value, path=value (repeatable)")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return nil, errors.New("exactly one template path is required")
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return nil, err
	}
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "partials":
			cfg.PartialsDir = *partials
		case "partial-ext":
			cfg.PartialExt = *partialExt
		case "delims":
			cfg.Delimiters = strings.Fields(*delims)
		case "escape":
			cfg.Escape = *escape
		case "o":
			cfg.Output = *output
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &options{
		template: flags.Arg(0),
		data:     *data,
		sets:     sets,
		watch:    *watch,
		cfg:      cfg,
	}, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}
	cfg := opts.cfg
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	view, err := LoadData(opts.data, stdin)
	if err != nil {
		return err
	}
	if view, err = ApplyOverrides(view, opts.sets); err != nil {
		return err
	}

	escaper, err := cfg.Escaper()
	if err != nil {
		return err
	}
	partialsDir := cfg.PartialsDir
	if partialsDir == "" {
		partialsDir = filepath.Dir(opts.template)
	}

	files := mustache.NewFileCache(256)
	files.SetLogger(logger)
	wopts := []mustache.WriterOption{
		mustache.WithEscaper(escaper),
		mustache.WithLogger(logger),
		mustache.WithPartialLoader(files.Loader(partialsDir, cfg.PartialExt)),
	}
	if len(cfg.Delimiters) == 2 {
		wopts = append(wopts, mustache.WithDelimiters(cfg.Delimiters[0], cfg.Delimiters[1]))
	}
	w := mustache.NewWriter(wopts...)

	r := &renderer{
		writer:   w,
		files:    files,
		template: opts.template,
		output:   cfg.Output,
		stdout:   stdout,
		logger:   logger,
	}
	if err := r.render(view); err != nil {
		return err
	}
	if !opts.watch {
		return nil
	}
	return r.watch(ctx, view, partialsDir, cfg.PartialExt)
}

type renderer struct {
	writer   *mustache.Writer
	files    *mustache.FileCache
	template string
	output   string
	stdout   io.Writer
	logger   *slog.Logger
}

func (r *renderer) render(view any) error {
	src, err := r.files.ReadFile(r.template)
	if err != nil {
		return err
	}
	t, err := r.writer.Compile(src)
	if err != nil {
		return fmt.Errorf("compiling %s: %w", r.template, err)
	}
	out, err := t.Render(view, nil)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", r.template, err)
	}

	if r.output == "" {
		_, err = io.WriteString(r.stdout, out)
		return err
	}
	if err := atomic.WriteFile(r.output, strings.NewReader(out)); err != nil {
		return fmt.Errorf("writing %s: %w", r.output, err)
	}
	r.logger.Info("rendered", "template", r.template, "output", r.output, "bytes", len(out))
	return nil
}

func (r *renderer) watch(ctx context.Context, view any, partialsDir, ext string) error {
	rm, err := mustache.NewReloadManager(0, r.logger)
	if err != nil {
		return err
	}
	defer rm.Stop()

	if err := rm.WatchFile(r.template); err != nil {
		return err
	}
	if err := rm.WatchDirectory(partialsDir, ext); err != nil {
		return err
	}
	rm.AddCallback(func(filename string, err error) {
		if err != nil {
			return
		}
		r.writer.ClearCache()
		r.files.ClearCache()
		if err := r.render(view); err != nil {
			r.logger.Error("render failed", "file", filename, "error", err)
		}
	})
	rm.Start(ctx)
	r.logger.Info("watching for changes", "template", r.template, "partials", partialsDir)
	<-ctx.Done()
	return nil
}
