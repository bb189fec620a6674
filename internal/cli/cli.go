//-------------------------------------------------------------------------
//
// Sparkify Data Warehouse Pipeline
//
// Copyright (c) 2025 - 2026, Sparkify, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for sparkify-dwh.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/sparkify/sparkify-dwh/internal/config"
	"github.com/sparkify/sparkify-dwh/internal/logging"
	"github.com/sparkify/sparkify-dwh/pkg/version"
)

var (
	// Global flags
	cfgFile    string
	connection string
	logLevel   string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "sparkify-dwh",
		Short: "ELT pipeline for the Sparkify analytics warehouse",
		Long: `sparkify-dwh provisions a Redshift warehouse and runs the Sparkify ELT
pipeline: raw event and song-catalog files are bulk-loaded from S3 into
staging tables, then transformed into a star schema (songplays fact plus
user, song, artist and time dimensions) for analytical querying.

Every run rebuilds the warehouse from scratch; there are no incremental
loads. Runs against the same warehouse must not overlap.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./sparkify-dwh.yaml)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"warehouse connection string")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(createTablesCmd)
	rootCmd.AddCommand(etlCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(clusterCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if connection != "" {
		cfg.Connection = connection
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}
