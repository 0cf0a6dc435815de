// Command goform loads declarative form definitions, replays recorded UI
// events against them and serves forms over WebSocket.
//
// Configuration is read, highest priority first, from command-line flags,
// GOFORM_* environment variables (GOFORM_SERVER_PORT, GOFORM_LOG_LEVEL, ...)
// and a .goform.yml file in the working directory or given with --config.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/reoring/goform/formdef"
	"github.com/reoring/goform/internal/config"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what PersistentPreRunE resolved for the subcommands.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
	stdout  io.Writer
	stderr  io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:   "goform",
		Short: "Form-state engine tooling",
		Long: `goform works with declarative form definitions.

  goform check form.yaml            Validate a definition
  goform replay -d form.yaml s.yml  Replay recorded UI events
  goform serve -d form.yaml         Serve the form over WebSocket`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is ./.goform.yml)")
	pf.StringP("definition", "d", "", "form definition file (YAML or JSON)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text, json)")
	bindFlags(pf, map[string]string{
		"definition": "definition",
		"log-level":  "log.level",
		"log-format": "log.format",
	})

	root.AddCommand(newCheckCmd(a), newReplayCmd(a), newServeCmd(a))
	return root
}

func (a *app) init() error {
	if a.cfgFile != "" {
		viper.SetConfigFile(a.cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".goform")
	}
	config.BindEnv()
	if err := viper.ReadInConfig(); err != nil {
		if _, missing := err.(viper.ConfigFileNotFoundError); !missing || a.cfgFile != "" {
			return fmt.Errorf("read config: %w", err)
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cfg.Log.Logger(a.stderr)
	if used := viper.ConfigFileUsed(); used != "" {
		a.logger.Debug("using config file", "path", used)
	}
	return nil
}

// definition loads the form definition named by args[0] or, failing that,
// by the definition setting.
func (a *app) definition(args []string) (*formdef.Definition, string, error) {
	path := a.cfg.Definition
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return nil, "", fmt.Errorf("no form definition given (use --definition or the definition setting)")
	}
	def, err := formdef.Load(path)
	if err != nil {
		return nil, path, err
	}
	return def, path, nil
}

// bindFlags binds each flag, by name, to a Viper key.
func bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		_ = viper.BindPFlag(key, fs.Lookup(name))
	}
}
