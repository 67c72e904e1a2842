package main

import (
	"context"
	"os"
	"strings"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/code-payments/code-config-program/pkg/metrics"
)

var (
	cfg Config

	// rootCtx carries the New Relic application, when one is configured
	rootCtx = context.Background()

	metricsProvider *newrelic.Application
)

var rootCmd = &cobra.Command{
	Use:           "configctl <command>",
	Short:         "Derive, build, inspect and locally execute config program instructions",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig()
		if err != nil {
			return err
		}

		if len(cfg.NewRelicLicenseKey) > 0 {
			metricsProvider, err = newrelic.NewApplication(
				newrelic.ConfigFromEnvironment(),
				newrelic.ConfigAppName(cfg.AppName),
				newrelic.ConfigLicense(cfg.NewRelicLicenseKey),
				newrelic.ConfigAppLogForwardingEnabled(true),
			)
			if err != nil {
				return err
			}
			rootCtx = metrics.WithNewRelicApp(rootCtx, metricsProvider)
		}

		configureLogger(cfg, metricsProvider)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if metricsProvider != nil {
			metricsProvider.Shutdown(cfg.ShutdownGracePeriod)
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "optional configuration file")
	flags.String("log-level", defaultConfig.LogLevel, "log level")
	flags.String("program", defaultConfig.Program, "config program address")
	flags.String("schema", defaultConfig.Schema, "config schema: default, no-server-u64 or no-server-u16")
	flags.Bool("json", false, "output as JSON")
	flags.String("rpc", defaultConfig.RPCEndpoint, "Solana JSON-RPC endpoint")
	flags.String("ledger", defaultConfig.Ledger, "ledger backing the local runtime: postgres or memory")

	bindFlags(flags, map[string]string{
		"config_file":  "config",
		"log_level":    "log-level",
		"program":      "program",
		"schema":       "schema",
		"json_output":  "json",
		"rpc_endpoint": "rpc",
		"ledger":       "ledger",
	})

	rootCmd.AddCommand(addressCmd)
	rootCmd.AddCommand(initializeIxCmd)
	rootCmd.AddCommand(updateIxCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(rentCmd)
	rootCmd.AddCommand(localCmd)
}

func configureLogger(config Config, app *newrelic.Application) {
	if app != nil {
		logrus.SetFormatter(metrics.NewNewRelicLogFormatter(app, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stderr)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.StandardLogger().WithError(err).Error("command failed")
		os.Exit(1)
	}
}

// bindFlags binds each viper key to the named flag of the set
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		_ = viper.BindPFlag(key, flags.Lookup(name))
	}
}
