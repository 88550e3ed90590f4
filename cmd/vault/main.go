package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ghuser/recordvault/pkg/app"
	"github.com/ghuser/recordvault/pkg/config"
	"github.com/ghuser/recordvault/pkg/logger"
	"github.com/ghuser/recordvault/pkg/telemetry"
	"github.com/ghuser/recordvault/services/record/application/cli"
	recordSvcs "github.com/ghuser/recordvault/services/record/application/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one vault invocation and returns the process exit code. The
// application is closed exactly once, whether the command succeeded or not.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	s := &session{in: in, out: out, errOut: errOut}
	root := s.rootCmd()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	s.close()
	if err != nil {
		fmt.Fprintln(errOut, cli.NewStyles(errOut).Error.Render(cli.Describe(err))) //nolint:errcheck
		return 1
	}
	return 0
}

// session is the state shared by every vault command: the open application,
// the wired services and the chosen output format.
type session struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	output string
	format cli.Format
	styles cli.Styles

	log      logger.Logger
	app      *app.Application
	svcs     *recordSvcs.Services
	shutdown []func()
}

func (s *session) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vault",
		Short: "Record vault: keep named records with automatic backups",
		Long: `vault stores free-form name + details records in SQLite or PostgreSQL.

Run without arguments to start the interactive menu. Every add and delete
writes a full JSON backup into VAULT_BACKUP_DIR.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.open(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cli.NewMenu(s.svcs.Vault, s.in, s.out).Run(cmd.Context())
		},
	}
	root.PersistentFlags().StringVarP(&s.output, "output", "o", "text", "output format for results: text, json or yaml")
	root.SetIn(s.in)
	root.SetOut(s.out)
	root.SetErr(s.errOut)

	root.AddCommand(
		s.addCmd(),
		s.updateCmd(),
		s.deleteCmd(),
		s.listCmd(),
		s.searchCmd(),
		s.sortCmd(),
		s.exportCmd(),
		s.statsCmd(),
		s.migrateCmd(),
	)
	return root
}

// open loads configuration and starts the application. Logs go to errOut so
// out carries only results.
func (s *session) open(ctx context.Context) error {
	format, err := cli.ParseFormat(s.output)
	if err != nil {
		return err
	}
	s.format = format
	s.styles = cli.NewStyles(s.out)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := config.ValidateForProduction(cfg); err != nil {
		return err
	}
	s.log = logger.NewWithWriter(cfg, s.errOut)

	if cfg.OtelEndpoint != "" {
		otelShutdown, _, err := telemetry.Setup(ctx, cfg)
		if err != nil {
			s.log.Warn("failed to setup otel, continuing without tracing", "error", err)
		} else {
			s.shutdown = append(s.shutdown, func() { _ = otelShutdown(context.Background()) })
		}
	}
	if err := telemetry.SetupSentry(cfg); err != nil {
		s.log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	s.shutdown = append(s.shutdown, telemetry.SentryFlush)

	a, err := app.New(ctx, cfg, s.log, app.Options{})
	if err != nil {
		return err
	}
	s.app = a
	s.shutdown = append(s.shutdown, func() { _ = a.Close() })
	s.svcs = recordSvcs.New(a)
	return nil
}

// close releases what open started, in reverse order.
func (s *session) close() {
	for i := len(s.shutdown) - 1; i >= 0; i-- {
		s.shutdown[i]()
	}
	s.shutdown = nil
}
