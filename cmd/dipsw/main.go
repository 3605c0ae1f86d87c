// Command dipsw turns DIP switch tables extracted from service manuals into
// normalized records, and serves and imports them.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/JonMunkholm/dipsw/internal/config"
	"github.com/JonMunkholm/dipsw/internal/dipsw"
	"github.com/JonMunkholm/dipsw/internal/logging"
	"github.com/JonMunkholm/dipsw/internal/patches"
	"github.com/JonMunkholm/dipsw/internal/web"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfg       *config.Config
	patchFile string
	envFile   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if web.IsUserFacing(err) {
			fmt.Fprintln(os.Stderr, web.FormatUserError(err))
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dipsw",
		Short:         "Normalize DIP switch tables from service manuals",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load if present")
	root.PersistentFlags().StringVar(&patchFile, "patch-file", "", "YAML patch file (default: $DIPSW_PATCH_FILE)")

	root.AddCommand(
		newParseCmd(),
		newImportCmd(),
		newServeCmd(),
		newCheckDBCmd(),
		newCheckPortCmd(),
		newResetCmd(),
		newCleanupCmd(),
	)
	return root
}

// setup loads .env, configuration and logging for every command.
func setup() error {
	// Overload overwrites existing env vars
	envLoaded := godotenv.Overload(envFile) == nil

	loaded, err := config.Load()
	if err != nil {
		return err
	}
	cfg = loaded

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if envLoaded {
		slog.Debug("loaded env file", "path", envFile)
	}
	slog.Debug("configuration loaded", "config", cfg.String())
	return nil
}

// patchRules returns the built-in rules combined with the configured patch
// file. The --patch-file flag wins over DIPSW_PATCH_FILE.
func patchRules() ([]dipsw.PatchRule, error) {
	path := patchFile
	if path == "" {
		path = cfg.Patch.File
	}
	rules, err := patches.Rules(path, patches.Mode(strings.ToLower(cfg.Patch.Mode)))
	if err != nil {
		return nil, err
	}
	slog.Debug("patch rules loaded", "count", len(rules), "file", path)
	return rules, nil
}

func newAssembler() (*dipsw.Assembler, error) {
	rules, err := patchRules()
	if err != nil {
		return nil, err
	}
	return dipsw.NewAssembler(rules, slog.Default()), nil
}
