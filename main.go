package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-resolver/app"
	"github.com/km-arc/go-resolver/app/clock"
	kernel "github.com/km-arc/go-resolver/framework/app"
	"github.com/km-arc/go-resolver/framework/config"
	"github.com/km-arc/go-resolver/framework/container"
	"github.com/km-arc/go-resolver/framework/logging"
)

// globalFlags are shared by every command.
type globalFlags struct {
	envFile  string
	manifest string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "go-resolver",
		Short:         "Bootstrap the resolver pool and serve the demo application",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file to load")
	root.PersistentFlags().StringVar(&flags.manifest, "manifest", "", "YAML manifest merged over the providers' resolvers")

	root.AddCommand(
		serveCmd(flags),
		bindingsCmd(flags),
		checkCmd(flags),
		manifestCmd(),
	)
	return root
}

// ── Commands ──────────────────────────────────────────────────────────────────

func serveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Boot the application and serve HTTP until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := newApplication(flags)
			if err != nil {
				return report(cmd.ErrOrStderr(), err)
			}
			defer func() { _ = application.Logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return report(cmd.ErrOrStderr(), application.Run(ctx))
		},
	}
}

func bindingsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "bindings",
		Short: "Boot the application and print every binding",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := newApplication(flags)
			if err != nil {
				return report(cmd.ErrOrStderr(), err)
			}
			if err := application.Boot(); err != nil {
				return report(cmd.ErrOrStderr(), err)
			}
			printBindings(cmd.OutOrStdout(), application.Bindings())
			return nil
		},
	}
}

func checkCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Boot the application and exit non-zero if the bootstrap fails",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := newApplication(flags)
			if err != nil {
				return report(cmd.ErrOrStderr(), err)
			}
			if err := application.Boot(); err != nil {
				return report(cmd.ErrOrStderr(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d resolvers, %d consumers\n",
				application.Pool.Len(), len(application.Consumers()))
			return nil
		},
	}
}

func manifestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "manifest",
		Short: "Print the providers' manifest as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(app.DefaultManifest())
		},
	}
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// newApplication loads the config, builds the logger and registers the
// providers. Nothing is booted yet.
func newApplication(flags *globalFlags) (*kernel.Application, error) {
	cfg, err := config.Load(flags.envFile)
	if err != nil {
		return nil, err
	}
	if flags.manifest != "" {
		cfg.Resolver.Manifest = flags.manifest
	}

	logger, err := logging.New(cfg.Log, cfg.App.Env)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.App.Location()
	if err != nil {
		return nil, err
	}

	application := kernel.New(cfg, logger)
	for _, p := range app.Providers(clock.NewSystem(loc)) {
		if err := application.Register(p); err != nil {
			return nil, err
		}
	}
	logger.Debug("application created", zap.String("env", cfg.App.Env))
	return application, nil
}

func printBindings(w io.Writer, bindings []kernel.Binding) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAMESPACE\tCONTRACT\tQUALIFIER\tIMPLEMENTATION")
	for _, b := range bindings {
		qualifier := b.Qualifier
		if qualifier == "" {
			qualifier = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.Namespace, b.Contract, qualifier, b.Implementation)
	}
	_ = tw.Flush()
}

// report prints err with its container kind, when it has one, and returns it.
func report(w io.Writer, err error) error {
	if err == nil {
		return nil
	}
	if kind := container.KindOf(err); kind != "" {
		fmt.Fprintf(w, "bootstrap failed (%s): %v\n", kind, err)
	} else {
		fmt.Fprintf(w, "error: %v\n", err)
	}
	return err
}
