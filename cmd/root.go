// Package cmd provides the command-line interface of pagestatic.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"pagestatic/internal/application/common/logging"
	"pagestatic/internal/application/common/slogger"
	"pagestatic/internal/config"
	"pagestatic/internal/version"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "PAGESTATIC"

// cliState carries the configuration loaded for one invocation.
type cliState struct {
	cfgFile string
	envFile string
	cfg     *config.Config
}

// flagBindings maps command-line flags to configuration keys.
//
//nolint:gochecknoglobals // Static table shared by all commands.
var flagBindings = map[string]string{
	"log-level":         "log.level",
	"log-format":        "log.format",
	"include":           "scan.include",
	"exclude":           "scan.exclude",
	"concurrency":       "scan.concurrency",
	"fail-fast":         "scan.fail_fast",
	"max-file-size":     "scan.max_file_size",
	"timeout":           "scan.timeout",
	"respect-gitignore": "scan.respect_gitignore",
	"cache-path":        "cache.path",
	"publish":           "nats.enabled",
	"nats-url":          "nats.url",
	"nats-subject":      "nats.subject",
	"format":            "output.format",
	"pretty":            "output.pretty",
	"progress":          "output.progress",
	"output":            "output.file",
}

// NewRootCmd builds the pagestatic command tree.
func NewRootCmd() *cobra.Command {
	state := &cliState{}

	rootCmd := &cobra.Command{
		Use:   "pagestatic",
		Short: "Extract static export metadata from page modules",
		Long: `pagestatic reads JavaScript and TypeScript page modules and reports the
statically declared facts a build pipeline needs: module directives
("use client", "use server"), the runtime and preferredRegion exports, and
the names of every other exported binding.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return state.load(cmd)
		},
	}

	info := version.GetVersion()
	rootCmd.Version = info.FormatShort()
	rootCmd.SetVersionTemplate(info.FormatFull())

	rootCmd.PersistentFlags().StringVar(&state.cfgFile, "config", "", "config file (default: ./pagestatic.yaml)")
	rootCmd.PersistentFlags().StringVar(&state.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format (json, text)")

	rootCmd.AddCommand(newScanCmd(state))
	rootCmd.AddCommand(newASTCmd(state))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (s *cliState) load(cmd *cobra.Command) error {
	if s.envFile != "" {
		if err := godotenv.Load(s.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", s.envFile, err)
		}
	}

	v := viper.New()
	config.SetDefaults(v)

	if s.cfgFile != "" {
		v.SetConfigFile(s.cfgFile)
	} else {
		v.SetConfigName("pagestatic")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindFlags(v, cmd.Flags()); err != nil {
		return err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg, err := config.New(v)
	if err != nil {
		return err
	}

	if err := slogger.Configure(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: "stderr",
	}); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}

	s.cfg = cfg
	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagBindings {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("error binding %s flag: %w", name, err)
		}
	}
	return nil
}
