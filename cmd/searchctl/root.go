package main

import (
	"context"
	"errors"

	"github.com/Ayash-Bera/searchable/internal/config"
	"github.com/Ayash-Bera/searchable/internal/gemini"
	"github.com/Ayash-Bera/searchable/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgDir  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "searchctl",
	Short: "Ask grounded questions and synthesize images from the terminal",
	Long: `searchctl talks to the same Gemini models as the search server.
It reads config.yaml and the environment exactly like the server does.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config-dir", ".", "directory holding config.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests to stderr")
}

// newService loads configuration and builds the Gemini service
func newService(ctx context.Context) (*gemini.Service, *config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgDir)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.ValidateGemini(); err != nil {
		return nil, nil, err
	}

	logger := utils.GetLogger()
	logger.SetOutput(rootCmd.ErrOrStderr())
	logger.SetFormatter(&logrus.TextFormatter{})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}

	client := gemini.NewClient(ctx, gemini.ClientConfig{
		APIKey:      cfg.Gemini.APIKey,
		BaseURL:     cfg.Gemini.BaseURL,
		AnswerModel: cfg.Gemini.AnswerModel,
		ImageModel:  cfg.Gemini.ImageModel,
	}, logger)
	return gemini.NewService(client, logger), cfg, nil
}

func withTimeout(cfg *config.Config) (context.Context, context.CancelFunc) {
	if cfg.Gemini.Timeout > 0 {
		return context.WithTimeout(context.Background(), cfg.Gemini.Timeout)
	}
	return context.WithCancel(context.Background())
}

var errBlank = errors.New("query must not be blank")
