package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/GoCodeAlone/aspectlog"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/spf13/cobra"
)

var errMarkersRequired = errors.New("a marker file is required (--markers)")

type rootOptions struct {
	markers string
	level   string
	format  string
	prefix  string
}

type runOptions struct {
	fail   bool
	except bool
	n      int
	events bool
}

// NewRootCommand creates the demo's root command.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "aspectlog-demo",
		Short: "Run intercepted calls and show the log lines their markers produce",
		Long: `aspectlog-demo wraps a small service with the param, return and throw
interceptors and runs it. Markers are declared in code unless a marker file
is given with --markers.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.markers, "markers", "m", "", "marker file (.yaml, .toml or .json)")
	cmd.PersistentFlags().StringVar(&opts.level, "level", "info", "minimum log level")
	cmd.PersistentFlags().StringVar(&opts.format, "format", "text", "log format: text or json")
	cmd.PersistentFlags().StringVar(&opts.prefix, "prefix", "", "prefix added to every log message")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newMarkersCommand(opts))
	cmd.AddCommand(newWatchCommand(opts))

	return cmd
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [key]",
		Short: "Call the demo service once",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := "logando"
			if len(args) == 1 {
				key = args[0]
			}

			out := cmd.OutOrStdout()
			logger, err := root.logger(out)
			if err != nil {
				return err
			}
			reg, err := root.registry(logger, opts.except)
			if err != nil {
				return err
			}

			var subject aspectlog.Subject
			if opts.events {
				subject = eventPrinter(out, logger)
			}

			d := newDemo(newWeaver(reg, logger, subject, out), out, opts.fail)
			d.run(out, key, opts.n)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.fail, "fail", false, "make the service fail with IllegalStateException")
	cmd.Flags().BoolVar(&opts.except, "except", false, "exclude IllegalStateException from the throw marker (built-in markers only)")
	cmd.Flags().IntVarP(&opts.n, "number", "n", 5, "integer passed to Foo")
	cmd.Flags().BoolVar(&opts.events, "events", false, "print interception events as CloudEvents JSON")

	return cmd
}

func newMarkersCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "markers",
		Short: "List the markers in effect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			logger, err := root.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			reg, err := root.registry(logger, false)
			if err != nil {
				return err
			}
			for _, e := range reg.Entries() {
				_, _ = fmt.Fprintf(out, "%-40s %-6s %s\n", e.Target, e.Kind, describeMarker(e.Marker))
			}
			return nil
		},
	}
}

func newWatchCommand(root *rootOptions) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the demo every time the marker file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if root.markers == "" {
				return fmt.Errorf("watch: %w", errMarkersRequired)
			}

			out := cmd.OutOrStdout()
			logger, err := root.logger(out)
			if err != nil {
				return err
			}
			reg, err := root.registry(logger, false)
			if err != nil {
				return err
			}

			d := newDemo(newWeaver(reg, logger, nil, out), out, false)
			d.run(out, key, 5)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			var mu sync.Mutex
			watcher := aspectlog.NewMarkerWatcher(root.markers, reg, logger, nil)
			watcher.OnReload = func(err error) {
				if err != nil {
					return
				}
				mu.Lock()
				defer mu.Unlock()
				d.run(out, key, 5)
			}
			if err := watcher.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()
			if err := watcher.Stop(); err != nil && !errors.Is(err, aspectlog.ErrWatcherNotRunning) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "logando", "key passed to Testa.Log")
	return cmd
}

func (o *rootOptions) logger(w io.Writer) (aspectlog.Logger, error) {
	level, err := aspectlog.ParseLevel(o.level)
	if err != nil {
		return nil, err
	}
	var logger aspectlog.Logger = aspectlog.NewLevelFilterLoggerDecorator(
		aspectlog.NewSlogWriterLogger(w, o.format, aspectlog.LevelTrace), level.Or(aspectlog.LevelInfo))
	if o.prefix != "" {
		logger = aspectlog.NewPrefixLoggerDecorator(logger, o.prefix)
	}
	return logger, nil
}

func (o *rootOptions) registry(logger aspectlog.Logger, except bool) (*aspectlog.MarkerRegistry, error) {
	if o.markers == "" {
		reg := aspectlog.NewMarkerRegistry(logger)
		if err := registerDefaultMarkers(reg, except); err != nil {
			return nil, err
		}
		return reg, nil
	}
	mf, err := aspectlog.LoadMarkerFile(o.markers)
	if err != nil {
		return nil, err
	}
	return mf.Build(logger)
}

func newWeaver(reg *aspectlog.MarkerRegistry, logger aspectlog.Logger, subject aspectlog.Subject, out io.Writer) *aspectlog.Weaver {
	var opts []aspectlog.CallLoggerOption
	if subject != nil {
		opts = append(opts, aspectlog.WithSubject(subject))
	}
	return aspectlog.NewWeaver(
		aspectlog.NewParamInterceptor(reg, out),
		aspectlog.NewThrowLogger(reg, logger, opts...),
		aspectlog.NewReturnLogger(reg, logger, opts...),
	)
}

// eventPrinter returns a subject that writes every event as one JSON line.
func eventPrinter(out io.Writer, logger aspectlog.Logger) aspectlog.Subject {
	bus := aspectlog.NewEventBus(logger)
	var mu sync.Mutex
	_ = bus.RegisterObserver(aspectlog.NewFunctionalObserver("demo-printer", func(_ context.Context, event cloudevents.Event) error {
		b, err := json.Marshal(event)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		_, err = fmt.Fprintln(out, string(b))
		return err
	}))
	return synchronousSubject{bus}
}

// synchronousSubject delivers events before the intercepted call returns so
// they interleave with the log lines in order.
type synchronousSubject struct {
	*aspectlog.EventBus
}

func (s synchronousSubject) NotifyObservers(ctx context.Context, event cloudevents.Event) error {
	return s.EventBus.NotifyObservers(aspectlog.WithSynchronousNotification(ctx), event)
}

func describeMarker(m aspectlog.Marker) string {
	switch mk := m.(type) {
	case aspectlog.ParamMarker:
		return fmt.Sprintf("value=%d", mk.Value)
	case aspectlog.ReturnMarker:
		return fmt.Sprintf("level=%s template=%s", mk.Level.Or(aspectlog.DefaultReturnLevel), mk.Template)
	case aspectlog.ThrowMarker:
		s := fmt.Sprintf("level=%s template=%s", mk.Level.Or(aspectlog.DefaultThrowLevel), mk.Template)
		if len(mk.Except) > 0 {
			s += fmt.Sprintf(" except=%v", mk.Except)
		}
		return s
	default:
		return fmt.Sprintf("%v", m)
	}
}
