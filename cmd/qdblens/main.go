package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	var configPath string
	var showVersion bool
	var once bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/qdblens/config.yml)")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.BoolVar(&once, "once", false, "print a plain-text summary and exit instead of serving the dashboard")
	flag.Parse()

	if showVersion {
		fmt.Printf("qdblens - Database Engine Log Analyzer\n")
		fmt.Printf("  Version: %s\n", version)
		fmt.Printf("  Commit:  %s\n", commit)
		fmt.Printf("  Built:   %s\n", buildTime)
		return
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if once {
		cfg.Once = true
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: qdblens [flags] <logfile>...")
		os.Exit(2)
	}

	if err := run(cfg, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("QDBLENS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("bucket-interval", defaultBucketInterval)
	v.SetDefault("top-query-limit", defaultTopQueryLimit)
	v.SetDefault("histogram-bins", defaultHistogramBins)
	v.SetDefault("ingest-workers", defaultIngestWorkers)
	v.SetDefault("ingest-timeout", defaultIngestTimeout)
	v.SetDefault("api-enabled", false)
	v.SetDefault("api-port", defaultAPIPort)
	v.SetDefault("once", false)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "qdblens", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if cfg.BucketInterval <= 0 {
		return cfg, fmt.Errorf("invalid bucket-interval: %v", cfg.BucketInterval)
	}
	if cfg.TopQueryLimit <= 0 {
		return cfg, fmt.Errorf("invalid top-query-limit: %d", cfg.TopQueryLimit)
	}
	if cfg.HistogramBins <= 0 {
		return cfg, fmt.Errorf("invalid histogram-bins: %d", cfg.HistogramBins)
	}
	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return cfg, fmt.Errorf("invalid api-port: %d", cfg.APIPort)
	}
	if cfg.IngestWorkers < 1 {
		cfg.IngestWorkers = 1
	}
	if cfg.APIAddr == "" {
		cfg.APIAddr = net.JoinHostPort(defaultBindHost, strconv.Itoa(cfg.APIPort))
	}

	return cfg, nil
}
