package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/km-arc/iothub-manager/framework/config"
	"github.com/km-arc/iothub-manager/webservice"
)

type flags struct {
	envFiles   []string
	configFile string
	strict     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:          "iothub-manager",
		Short:        "IoT hub device and twin management web service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), f)
		},
	}
	root.PersistentFlags().StringSliceVar(&f.envFiles, "env-file", nil, ".env files to load (default .env)")
	root.PersistentFlags().StringVar(&f.configFile, "config", "", "optional YAML/TOML/JSON config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), f)
		},
	}
	serveCmd.Flags().BoolVar(&f.strict, "strict", false, "fail startup when an interface has several implementations")

	bindingsCmd := &cobra.Command{
		Use:   "bindings",
		Short: "Print the dependency container bindings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printBindings(cmd, f)
		},
	}

	root.AddCommand(serveCmd, bindingsCmd)
	return root
}

func serve(ctx context.Context, f *flags) error {
	data, err := config.Load(config.Options{EnvFiles: f.envFiles, File: f.configFile})
	if err != nil {
		return err
	}
	application, err := webservice.New(data, webservice.Options{Strict: f.strict})
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			application.Logger.Warn("closing application", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return application.Run(ctx)
}

func printBindings(cmd *cobra.Command, f *flags) error {
	data, err := config.Load(config.Options{EnvFiles: f.envFiles, File: f.configFile})
	if err != nil {
		return err
	}
	bindings, ambiguous, err := webservice.Bindings(data, zap.NewNop())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tIMPLEMENTATION\tLIFETIME\tSOURCE")
	for _, b := range bindings {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.Service, b.Implementation, b.Lifetime, b.Source)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	for svc, impls := range ambiguous {
		fmt.Fprintf(cmd.OutOrStdout(), "ambiguous: %s -> %v\n", svc, impls)
	}
	return nil
}
