package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Nyukimin/leadqual/internal/adapter/config"
	"github.com/Nyukimin/leadqual/internal/infrastructure/logging"
)

func main() {
	// .env は任意（存在しなくてもよい）
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app はコマンド間で共有する設定とロガー
type app struct {
	configPath    string
	cfg           *config.Config
	logger        *zap.Logger
	restoreLogger func()
}

// newRootCmd はサブコマンドを登録したルートコマンドを作成
func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "leadqual",
		Short: "AI-assisted lead qualification pipeline",
		Long: `leadqual finds prospects with a grounded LLM, routes assistant questions
to the right model, and scores leads with configurable rules.

Configuration is read from $LEADQUAL_CONFIG (default ./config.yaml) and the environment.`,
		SilenceUsage: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", config.PathFromEnv(), "Path to config.yaml")

	root.AddCommand(
		newServeCmd(a),
		newProspectCmd(a),
		newRouteCmd(a),
		newScoreCmd(),
		newAssistantCmd(a),
	)
	return root
}

// load は設定を読み込み、設定に従ったロガーをグローバルにも設定する
func (a *app) load() error {
	if a.cfg != nil {
		return nil
	}

	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.restoreLogger = logging.Install(logger)

	logger.Debug("loaded config",
		zap.String("path", a.configPath),
		zap.String("provider", cfg.LLM.Provider),
	)
	return nil
}

func (a *app) close() {
	_ = a.logger.Sync()
	if a.restoreLogger != nil {
		a.restoreLogger()
	}
}
