package cli

import (
	"fmt"
	"log/slog"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/Pericortex/internal/config"
)

// NewRootCmd создаёт корневую команду cortex-worker.
//
// Подкоманды: echo, tex-to-html, engrafo (запуск воркера) и config
// (сохранить итоговую конфигурацию в YAML).
func NewRootCmd(version string, logger *slog.Logger) *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:           "cortex-worker",
		Short:         "CorTeX conversion worker",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	opts.BindFlags(rootCmd.PersistentFlags())

	outputFn := func() *Output { return NewOutput(opts.JSON) }

	rootCmd.AddCommand(
		newServiceCmd(opts, logger, outputFn, "echo", config.ServiceEcho, "Run the echo worker (returns input unchanged)"),
		newServiceCmd(opts, logger, outputFn, "tex-to-html", config.ServiceTexToHTML, "Run the LaTeXML TeX to HTML worker"),
		newEngrafoCmd(opts, logger, outputFn),
		newConfigCmd(opts, outputFn),
	)

	return rootCmd
}

func newServiceCmd(opts *Options, logger *slog.Logger, outputFn func() *Output, use, service, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.Resolve(service, cmd.Flags(), nil, nil)
			if err != nil {
				return err
			}
			return Serve(cmd.Context(), cfg, opts, logger, outputFn())
		},
	}
}

// newEngrafoCmd поддерживает позиционную форму запуска:
//
//	cortex-worker engrafo [host [source-port [sink-port [pool-size]]]]
//
// По умолчанию пул равен числу CPU.
func newEngrafoCmd(opts *Options, logger *slog.Logger, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "engrafo [host [source-port [sink-port [pool-size]]]]",
		Short: "Run the Engrafo (docker) TeX to HTML worker",
		Args:  cobra.MaximumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults := func(cfg *config.WorkerConfig) error {
				cfg.PoolSize = runtime.NumCPU()
				return nil
			}
			positional := func(cfg *config.WorkerConfig) error {
				return applyEngrafoArgs(cfg, args)
			}

			cfg, err := opts.Resolve(config.ServiceEngrafo, cmd.Flags(), defaults, positional)
			if err != nil {
				return err
			}
			return Serve(cmd.Context(), cfg, opts, logger, outputFn())
		},
	}
}

// applyEngrafoArgs разбирает [host [source-port [sink-port [pool-size]]]].
func applyEngrafoArgs(cfg *config.WorkerConfig, args []string) error {
	if len(args) == 0 {
		return nil
	}

	host := args[0]
	sourcePort := config.DefaultSourcePort
	sinkPort := config.DefaultSinkPort

	var err error
	if len(args) > 1 {
		if sourcePort, err = parsePositive("source-port", args[1]); err != nil {
			return err
		}
	}
	if len(args) > 2 {
		if sinkPort, err = parsePositive("sink-port", args[2]); err != nil {
			return err
		}
	}
	if len(args) > 3 {
		if cfg.PoolSize, err = parsePositive("pool-size", args[3]); err != nil {
			return err
		}
	}

	cfg.Source = config.TCPAddress(host, sourcePort)
	cfg.Sink = config.TCPAddress(host, sinkPort)
	return nil
}

func parsePositive(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, &config.ValidationError{Field: name, Message: fmt.Sprintf("expected positive integer, got %q", value)}
	}
	return n, nil
}

func newConfigCmd(opts *Options, outputFn func() *Output) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:       "config SERVICE",
		Short:     "Write the resolved worker config to a YAML file",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{config.ServiceEcho, config.ServiceTexToHTML, config.ServiceEngrafo},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.Resolve(args[0], cmd.Flags(), nil, nil)
			if err != nil {
				return err
			}
			if err := config.SaveFile(output, cfg); err != nil {
				return err
			}
			outputFn().Success(fmt.Sprintf("Config for %s written to %s", cfg.Service, output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "cortex-worker.yaml", "Destination file")

	return cmd
}
