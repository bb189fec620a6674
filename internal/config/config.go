//-------------------------------------------------------------------------
//
// Sparkify Data Warehouse Pipeline
//
// Copyright (c) 2025 - 2026, Sparkify, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for sparkify-dwh.
// Configuration is loaded from config files and CLI flags (no environment
// variables). CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for sparkify-dwh.
type Config struct {
	// Connection is the warehouse connection string. Redshift speaks the
	// PostgreSQL wire protocol, so this is a regular postgres:// URL
	// pointing at the cluster endpoint.
	Connection string `mapstructure:"connection"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Region is the AWS region holding the cluster and the source buckets.
	Region string `mapstructure:"region"`

	// IAMRoleARN identifies the role the warehouse assumes when copying
	// from object storage. Its contents are opaque to this tool.
	IAMRoleARN string `mapstructure:"iam_role_arn"`

	// S3 holds the object storage locations of the source data.
	S3 S3Config `mapstructure:"s3"`

	// Cluster holds settings for the cluster provisioning commands.
	Cluster ClusterConfig `mapstructure:"cluster"`

	// Seed holds settings for the local staging seed command.
	Seed SeedConfig `mapstructure:"seed"`
}

// S3Config holds the object storage locations of the raw source data.
type S3Config struct {
	// LogData is the s3:// URI of the activity event logs.
	LogData string `mapstructure:"log_data"`

	// SongData is the s3:// URI of the song catalog.
	SongData string `mapstructure:"song_data"`
}

// ClusterConfig holds settings for Redshift cluster provisioning.
type ClusterConfig struct {
	// Identifier is the cluster identifier.
	Identifier string `mapstructure:"identifier"`

	// ClusterType is "single-node" or "multi-node".
	ClusterType string `mapstructure:"cluster_type"`

	// NodeType is the compute node class (e.g., "dc2.large").
	NodeType string `mapstructure:"node_type"`

	// NumNodes is the number of compute nodes (multi-node only).
	NumNodes int `mapstructure:"num_nodes"`

	// Database is the name of the initial database.
	Database string `mapstructure:"database"`

	// MasterUsername is the admin user created with the cluster.
	MasterUsername string `mapstructure:"master_username"`

	// MasterPassword is the admin password created with the cluster.
	MasterPassword string `mapstructure:"master_password"`

	// Port is the port the cluster listens on.
	Port int `mapstructure:"port"`

	// IAMRoleName is the name of the role created for S3 read access.
	IAMRoleName string `mapstructure:"iam_role_name"`
}

// SeedConfig holds settings for generating local staging fixtures.
type SeedConfig struct {
	// Users is the number of distinct listeners to simulate.
	Users int `mapstructure:"users"`

	// Songs is the number of song catalog rows to generate.
	Songs int `mapstructure:"songs"`

	// Events is the number of activity events to generate.
	Events int `mapstructure:"events"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Region:   "us-west-2",
		S3: S3Config{
			LogData:  "s3://udacity-dend/log_data/",
			SongData: "s3://udacity-dend/song_data/",
		},
		Cluster: ClusterConfig{
			ClusterType: "multi-node",
			NodeType:    "dc2.large",
			NumNodes:    4,
			Port:        5439,
		},
		Seed: SeedConfig{
			Users:  200,
			Songs:  500,
			Events: 10000,
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./sparkify-dwh.yaml
// 3. ~/.config/sparkify-dwh/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("sparkify-dwh")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "sparkify-dwh"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Start with defaults
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the warehouse connection is configured.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required")
	}
	return nil
}

// ValidateETL checks configuration required for the etl command.
// Contents are not inspected; the warehouse validates them on use.
func (c *Config) ValidateETL() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.S3.LogData == "" {
		return fmt.Errorf("s3.log_data location is required for etl")
	}
	if c.S3.SongData == "" {
		return fmt.Errorf("s3.song_data location is required for etl")
	}
	if c.IAMRoleARN == "" {
		return fmt.Errorf("iam_role_arn is required for etl")
	}
	return nil
}

// ValidateSeed checks configuration required for the seed command.
func (c *Config) ValidateSeed() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Seed.Users < 1 {
		return fmt.Errorf("seed.users must be at least 1")
	}
	if c.Seed.Songs < 1 || c.Seed.Events < 1 {
		return fmt.Errorf("seed.songs and seed.events must be at least 1")
	}
	return nil
}

// ValidatePreview checks configuration required for the preview command.
func (c *Config) ValidatePreview() error {
	if c.Region == "" {
		return fmt.Errorf("region is required for preview")
	}
	if c.S3.LogData == "" && c.S3.SongData == "" {
		return fmt.Errorf("at least one s3 data location is required for preview")
	}
	return nil
}

// ValidateCluster checks configuration required for the cluster commands.
func (c *Config) ValidateCluster() error {
	if c.Region == "" {
		return fmt.Errorf("region is required for cluster operations")
	}
	if c.Cluster.Identifier == "" {
		return fmt.Errorf("cluster.identifier is required")
	}
	if c.Cluster.ClusterType != "single-node" && c.Cluster.ClusterType != "multi-node" {
		return fmt.Errorf("cluster.cluster_type must be 'single-node' or 'multi-node'")
	}
	if c.Cluster.ClusterType == "multi-node" && c.Cluster.NumNodes < 2 {
		return fmt.Errorf("cluster.num_nodes must be at least 2 for multi-node clusters")
	}
	if c.Cluster.NodeType == "" {
		return fmt.Errorf("cluster.node_type is required")
	}
	if c.Cluster.Database == "" {
		return fmt.Errorf("cluster.database is required")
	}
	if c.Cluster.MasterUsername == "" || c.Cluster.MasterPassword == "" {
		return fmt.Errorf("cluster.master_username and cluster.master_password are required")
	}
	if c.Cluster.IAMRoleName == "" {
		return fmt.Errorf("cluster.iam_role_name is required")
	}
	return nil
}
