package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/banklens/banklens/internal/buildinfo"
	"github.com/banklens/banklens/internal/categorize"
	"github.com/banklens/banklens/internal/config"
	"github.com/banklens/banklens/internal/history"
	"github.com/banklens/banklens/internal/importer"
	"github.com/banklens/banklens/internal/pdftext"
	"github.com/banklens/banklens/internal/server"
	"github.com/banklens/banklens/internal/sheets"
	"github.com/banklens/banklens/internal/statement"
)

// deps are the collaborators that reach outside the process.
type deps struct {
	newExtractor func() statement.TextExtractor
	newPublisher func(ctx context.Context, credentialsPath string) (server.Publisher, error)
}

func defaultDeps() deps {
	return deps{
		newExtractor: func() statement.TextExtractor { return pdftext.New() },
		newPublisher: func(ctx context.Context, credentialsPath string) (server.Publisher, error) {
			p, err := sheets.NewPublisherFromCredentials(ctx, credentialsPath)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
	}
}

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	deps
	configPath string
	logLevel   string
	cfg        *config.Config
	logger     *log.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	return newRootCommand(defaultDeps())
}

func newRootCommand(d deps) *cobra.Command {
	a := &app{deps: d}

	rootCmd := &cobra.Command{
		Use:     "banklens",
		Short:   "Extract and categorize bank statement transactions",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.FileName, "path to "+config.FileName)
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newInitCommand(a),
		newExtractCommand(a),
		newCategorizeCommand(a),
		newRulesCommand(a),
		newPublishCommand(a),
		newServeCommand(a),
		newHistoryCommand(a),
	)

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := config.LoadEnv(filepath.Join(filepath.Dir(a.configPath), ".env")); err != nil {
		return err
	}

	cfg, err := config.LoadOrDefault(a.configPath)
	if err != nil {
		return err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	a.cfg = cfg
	a.logger = log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "banklens",
	})
	return nil
}

// root is the project directory: the directory holding the config file.
func (a *app) root() string {
	return filepath.Dir(a.configPath)
}

// path resolves a config-relative path against the project root.
func (a *app) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.root(), p)
}

func (a *app) categorizer() (*categorize.Categorizer, error) {
	rules, err := categorize.LoadRulesOrDefault(a.path(a.cfg.RulesPath))
	if err != nil {
		return nil, err
	}
	return categorize.New(rules), nil
}

func (a *app) service(format string) (*statement.Service, error) {
	c, err := a.categorizer()
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = importer.DefaultFormat
	}
	parser := importer.DefaultRegistry(c).Get(format)
	if parser == nil {
		return nil, fmt.Errorf("unknown statement format %q", format)
	}
	return statement.NewService(a.newExtractor(), parser, a.logger), nil
}

func (a *app) publisher(ctx context.Context) (server.Publisher, error) {
	return a.newPublisher(ctx, a.cfg.Sheets.CredentialsPath)
}

// record appends to the activity log when history is enabled. Failures are
// logged, never returned.
func (a *app) record(e history.Entry) {
	if !a.cfg.History.Enabled {
		return
	}
	if err := history.Append(a.root(), e); err != nil {
		a.logger.Warn("recording activity", "err", err)
	}
}
