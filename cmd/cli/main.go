package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andrewpaige1/problempad/cli/config"
	"github.com/andrewpaige1/problempad/cli/repl"
	"github.com/andrewpaige1/problempad/client"
	"github.com/andrewpaige1/problempad/logger"
	"github.com/chzyer/readline"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/cli.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	baseURL := flag.String("base", "", "Override base URL")
	timeout := flag.Duration("timeout", 0, "Override HTTP timeout (e.g. 10s)")
	delay := flag.Duration("autosave", 0, "Override auto-save delay (e.g. 1s)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// The default config file is optional.
		if !errors.Is(err, os.ErrNotExist) || *configPath != defaultConfigPath {
			fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
			os.Exit(1)
		}
		cfg = config.Default()
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}
	if *delay > 0 {
		cfg.AutoSaveDelay = *delay
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: "console", OutputPath: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "problems> ",
		HistoryFile:     cfg.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "open terminal failed: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	editor := repl.NewLineEditor()
	ctrl := client.NewController(
		client.NewProblemClient(cfg.BaseURL, cfg.Timeout),
		client.WithLogger(log),
		client.WithAutoSaveDelay(cfg.AutoSaveDelay),
		client.WithFlushOnSwitch(cfg.FlushOnSwitch),
		client.WithLanguage(cfg.Language),
		client.WithEditor(editor, cfg.Theme),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()
	go ctrl.Run(ctx)

	fmt.Fprintf(rl.Stdout(), "connected to %s, type help for commands\n", cfg.BaseURL)
	if err := repl.New(ctrl, editor, rl, rl.Stdout()).Run(ctx); err != nil {
		log.Error("session ended", zap.Error(err))
	}
}
