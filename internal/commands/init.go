package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/banklens/banklens/internal/categorize"
	"github.com/banklens/banklens/internal/config"
)

func newInitCommand(a *app) *cobra.Command {
	var sheet string
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new banklens project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			if err := runInit(absDir, sheet, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized banklens project at %s\n", absDir)
			a.logger.Debug("initialized project", "dir", absDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "Google spreadsheet name to publish to")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing "+config.FileName)

	return cmd
}

func runInit(dir, sheet string, force bool) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	cfg := config.Default()
	if sheet != "" {
		cfg.Sheets.Name = sheet
	}

	// Create directory structure.
	dirs := []string{
		"rules",
		"statements",
		filepath.Join("statements", "processed"),
		cfg.Export.Dir,
		"logs",
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := categorize.SaveRules(filepath.Join(dir, cfg.RulesPath), categorize.DefaultRules()); err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}

	// Statements and credentials stay out of version control.
	gitignore := "statements/\nexports/\nlogs/\n.env\n*.json\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "statements", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	return nil
}
