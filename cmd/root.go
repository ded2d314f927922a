package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"studentpass/config"
	"studentpass/logging"
	"studentpass/ml"
)

var rootCmd = &cobra.Command{
	Use:           "studentpass",
	Short:         "Student Pass/Fail predictor",
	Long:          "studentpass serves a form that encodes a student's academic behavior profile for a pre-trained classifier and reports Pass or Fail.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "config.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().String("model", "", "Path to the model artifact (overrides model.path)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveConfigPath looks for the config next to the binary's working dir
// first, then one level up so `go run ./...` from a subdirectory still works.
func resolveConfigPath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) && !filepath.IsAbs(path) {
		parent := filepath.Join("..", path)
		if _, err := os.Stat(parent); err == nil {
			return parent
		}
	}
	return path
}

// loadConfig applies --model and --log-level over the config file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(resolveConfigPath(path))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if p, _ := cmd.Flags().GetString("model"); p != "" {
		cfg.Model.Path = p
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	return cfg, nil
}

// env is everything a command needs once the model is loaded.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	bundle *ml.Bundle
	svc    *ml.Service
}

// openEnv loads the model artifact. A failure here is fatal: no
// prediction can be served without a model.
func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Log)

	bundle, err := ml.LoadBundle(cfg.Model.Path, ml.LoadOptions{
		Name:           cfg.Model.Name,
		ONNXRuntimeLib: cfg.Model.ONNXRuntimeLib,
	})
	if err != nil {
		logger.Error("model load failed", zap.Error(err))
		logger.Sync()
		return nil, err
	}
	logger.Info("model loaded",
		zap.String("name", bundle.Name),
		zap.String("kind", bundle.Kind),
		zap.Int("columns", bundle.Schema.Len()),
	)

	svc, err := ml.NewService(bundle, ml.ServiceConfig{
		IdentifierPattern: cfg.Model.IdentifierPattern,
		CacheSize:         cfg.Cache.Size,
	}, logger)
	if err != nil {
		bundle.Close()
		logger.Sync()
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, bundle: bundle, svc: svc}, nil
}

func (e *env) Close() error {
	// Sync on stderr returns EINVAL on some platforms
	_ = e.logger.Sync()
	return e.bundle.Close()
}
