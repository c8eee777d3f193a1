// Package cli implements the admin-console command line: the console server
// and one-shot commands against the platform API.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/wellness-admin-console/internal/auth"
	"github.com/noah-isme/wellness-admin-console/pkg/apiclient"
	"github.com/noah-isme/wellness-admin-console/pkg/config"
	"github.com/noah-isme/wellness-admin-console/pkg/logger"
)

type app struct {
	envFile   string
	apiURL    string
	token     string
	tokenFile string
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger *zap.Logger
	client *apiclient.Client
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "admin-console",
		Short: "Wellness platform admin console",
		Long:  "admin-console serves the wellness admin console API and runs one-off operations against the platform's admin API.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.envFile, "env-file", ".env", "Dotenv file to load before the environment")
	flags.StringVar(&a.apiURL, "api-url", "", "Platform API base URL (or UPSTREAM_BASE_URL)")
	flags.StringVar(&a.token, "token", "", "Bearer token for the platform API (or UPSTREAM_TOKEN)")
	flags.StringVar(&a.tokenFile, "token-file", "", "File holding the bearer token, re-read when it changes (or UPSTREAM_TOKEN_FILE)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format (json, console)")

	root.AddCommand(
		newServeCmd(a),
		newResourcesCmd(a),
		newListCmd(a),
		newGetCmd(a),
		newCreateCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newRestoreCmd(a),
		newToggleCmd(a),
		newActionCmd(a),
		newExportCmd(a),
	)
	return root
}

// init loads configuration and applies flag overrides. The API client is
// built lazily since serve builds its own.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.LoadFrom(a.envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.apiURL != "" {
		cfg.Upstream.BaseURL = a.apiURL
	}
	if a.token != "" {
		cfg.Upstream.Token = a.token
	}
	if a.tokenFile != "" {
		cfg.Upstream.TokenFile = a.tokenFile
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	a.cfg = cfg
	return nil
}

// apiClient returns the platform API client for one-shot commands.
func (a *app) apiClient() (*apiclient.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	if a.logger == nil {
		a.logger = logger.CLI(a.cfg.Log)
	}
	client, err := apiclient.New(apiclient.Config{
		BaseURL: a.cfg.Upstream.BaseURL,
		Timeout: a.cfg.Upstream.Timeout,
		Tokens:  tokenSource(a.cfg.Upstream),
		Logger:  a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("platform API: %w", err)
	}
	a.client = client
	return client, nil
}

func tokenSource(cfg config.UpstreamConfig) apiclient.TokenSource {
	if cfg.TokenFile != "" {
		return auth.NewFileTokenSource(cfg.TokenFile)
	}
	return auth.NewStaticTokenSource(cfg.Token)
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
