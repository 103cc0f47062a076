package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/supertx-labs/supertx-cli/internal/config"
	"github.com/supertx-labs/supertx-cli/internal/engine"
	clierr "github.com/supertx-labs/supertx-cli/internal/errors"
	"github.com/supertx-labs/supertx-cli/internal/mee"
	"github.com/supertx-labs/supertx-cli/internal/store"
	"github.com/supertx-labs/supertx-cli/internal/version"
)

type Runner struct {
	stdout io.Writer
	stderr io.Writer
}

func NewRunner() *Runner {
	return NewRunnerWithWriters(os.Stdout, os.Stderr)
}

func NewRunnerWithWriters(stdout, stderr io.Writer) *Runner {
	return &Runner{stdout: stdout, stderr: stderr}
}

type runtimeState struct {
	runner   *Runner
	flags    config.GlobalFlags
	settings config.Settings
	log      *zap.Logger
	client   *mee.Client
	engine   *engine.Engine
	store    *store.Store
}

func (r *Runner) Run(args []string) int {
	state := &runtimeState{runner: r}
	root := state.newRootCommand()
	root.SetArgs(args)
	root.SetOut(r.stdout)
	root.SetErr(r.stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true

	err := root.Execute()
	if state.store != nil {
		_ = state.store.Close()
	}
	if state.log != nil {
		_ = state.log.Sync()
	}
	if err == nil {
		return 0
	}
	fmt.Fprintf(r.stderr, "error: %v\n", err)
	return clierr.ExitCode(err)
}

func (s *runtimeState) newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   version.CLIName,
		Short: "Quote, sign, and execute multi-chain supertransactions",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			settings, err := config.Load(s.flags)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "load configuration", err)
			}
			s.settings = settings

			log, err := buildLogger(settings.LogLevel, s.runner.stderr)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "configure logging", err)
			}
			s.log = log

			s.client = mee.NewClient(mee.Config{
				BaseURL:     settings.BaseURL,
				ExplorerURL: settings.ExplorerURL,
				APIKey:      settings.APIKey,
				Timeout:     settings.Timeout,
				ReadRetries: settings.ReadRetries,
			}, log)
			s.engine = engine.New(s.client, log)
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&s.flags.ConfigPath, "config", "", "Config file path")
	flags.StringVar(&s.flags.BaseURL, "base-url", "", "Execution network base URL")
	flags.StringVar(&s.flags.Explorer, "explorer-url", "", "Explorer base URL")
	flags.StringVar(&s.flags.APIKey, "api-key", "", "API key for the execution network")
	flags.StringVar(&s.flags.Timeout, "timeout", "", "Per-request timeout (e.g. 30s)")
	flags.IntVar(&s.flags.Retries, "retries", -1, "Transport retries for read-only calls")
	flags.StringVar(&s.flags.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")

	s.addIntentCommands(cmd)
	s.addStatusCommands(cmd)
	s.addAccountsCommand(cmd)
	cmd.AddCommand(newVersionCommand(s.runner.stdout))
	return cmd
}

func (s *runtimeState) ensureStore() error {
	if s.store != nil {
		return nil
	}
	st, err := store.Open(s.settings.StorePath, s.settings.StoreLockPath)
	if err != nil {
		return clierr.Wrap(clierr.CodeInternal, "open supertx store", err)
	}
	s.store = st
	return nil
}

func (s *runtimeState) emitJSON(v any) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return clierr.Wrap(clierr.CodeInternal, "encode output", err)
	}
	_, _ = fmt.Fprintln(s.runner.stdout, string(buf))
	return nil
}

func (s *runtimeState) progressPrinter() mee.ProgressFunc {
	return func(msg string) {
		_, _ = fmt.Fprintln(s.runner.stderr, msg)
	}
}

func buildLogger(level string, w io.Writer) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(writerOrStderr(w)),
		parsed,
	)
	return zap.New(core), nil
}

func writerOrStderr(w io.Writer) io.Writer {
	if w == nil {
		return os.Stderr
	}
	return w
}

func newVersionCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "%s %s\n", version.CLIName, version.Version)
		},
	}
}
