// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-qa CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/destiny-evidence/paper-qa/internal/observability"
	"github.com/destiny-evidence/paper-qa/internal/secrets"
	"github.com/destiny-evidence/paper-qa/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// secretsDir holds one file per credential.
const secretsDir = ".secrets/"

// replacer maps nested config keys to PAPER_QA_* variable names.
var replacer = strings.NewReplacer(".", "_")

var (
	cfg    types.Config
	logger zerolog.Logger
)

// rootCmd is the base command for the paper-qa CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-qa",
	Short: "Find, download and index the papers relevant to a question",
	Long: `paper-qa turns a natural-language research question into an OpenAlex
search, downloads the open-access PDFs of the top results into a local paper
store, and registers every stored PDF with a document corpus.

run does all of this in one step. search, sync and ingest expose the stages
separately; they share the candidate set through candidates.yaml in the paper
store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(secretsDir, zerolog.Nop())
		if err != nil {
			return err
		}
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Names())
		}

		c, err := loadConfig(s)
		if err != nil {
			return err
		}
		cfg = c
		logger = observability.NewLogger(cfg.Logging)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./paper-qa.yaml or ~/.config/paper-qa/config.yaml)")
	pf.String("paper-dir", "", "paper store directory (default papers)")
	pf.String("corpus-dir", "", "corpus directory (default corpus)")
	pf.String("provider", "", "model provider: anthropic or gemini")
	pf.String("log-level", "", "log level: trace, debug, info, warn, error")
	pf.String("metrics-file", "", "write Prometheus metrics to this file after each command")

	bindFlag("acquisition.paper_dir", "paper-dir")
	bindFlag("corpus.dir", "corpus-dir")
	bindFlag("model.provider", "provider")
	bindFlag("logging.level", "log-level")
	bindFlag("metrics.file", "metrics-file")
}

func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-qa")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-qa"))
		}
	}

	viper.SetEnvPrefix("PAPER_QA")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
