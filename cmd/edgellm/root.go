package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"edgellm/internal/config"
	"edgellm/internal/engine"
	"edgellm/internal/logging"
)

// app carries what every subcommand needs once the root has resolved the
// configuration.
type app struct {
	cfg config.Config
	log zerolog.Logger
	// engine is nil in production; sessions then default to llama.cpp.
	engine engine.Engine
	flags  rootFlags
}

type rootFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	model       string
	temperature float32
	minP        float32
	ctxSize     int
	threads     int
	maxTokens   int
	storeChats  bool
}

func buildRootCmd() *cobra.Command { return buildRootCmdWith(&app{}) }

// buildRootCmdWith constructs the command tree around a.
func buildRootCmdWith(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "edgellm",
		Short:         "Chat with a local GGUF model and chunk documents for retrieval",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	def := config.Default()
	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "Config file (.yaml, .json, .toml); defaults to $"+config.EnvConfig)
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	pf.StringVar(&a.flags.logFormat, "log-format", "", "Log format: console|json")
	pf.StringVar(&a.flags.model, "model", "", "Path to the GGUF model file; defaults to $"+config.EnvModel)
	pf.Float32Var(&a.flags.temperature, "temperature", def.Params.Temperature, "Sampling temperature (> 0)")
	pf.Float32Var(&a.flags.minP, "min-p", def.Params.MinP, "Min-p sampling threshold in [0,1]")
	pf.IntVar(&a.flags.ctxSize, "ctx-size", def.Params.ContextSize, "Context size in tokens (0 = model default)")
	pf.IntVar(&a.flags.threads, "threads", def.Params.NumThreads, "Inference threads")
	pf.IntVar(&a.flags.maxTokens, "max-tokens", def.Params.MaxTokens, "Maximum tokens per response (0 = engine default)")
	pf.BoolVar(&a.flags.storeChats, "store-chats", def.Params.StoreChats, "Keep finished turns in the conversation")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.resolve(cmd)
	}

	root.AddCommand(
		newChatCmd(a),
		newServeCmd(a),
		newChunkCmd(a),
		newInspectCmd(a),
		newModelsCmd(a),
	)
	return root
}

// resolve builds the effective configuration. Precedence, lowest first:
// defaults, config file, environment (.env included), flags.
func (a *app) resolve(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	path := a.flags.configPath
	if path == "" {
		path = os.Getenv(config.EnvConfig)
	}
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return err
		}
	}
	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.flags.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = a.flags.logFormat
	}
	if flags.Changed("model") {
		cfg.ModelPath = a.flags.model
	}
	if flags.Changed("temperature") {
		cfg.Params.Temperature = a.flags.temperature
	}
	if flags.Changed("min-p") {
		cfg.Params.MinP = a.flags.minP
	}
	if flags.Changed("ctx-size") {
		cfg.Params.ContextSize = a.flags.ctxSize
	}
	if flags.Changed("threads") {
		cfg.Params.NumThreads = a.flags.threads
	}
	if flags.Changed("max-tokens") {
		cfg.Params.MaxTokens = a.flags.maxTokens
	}
	if flags.Changed("store-chats") {
		cfg.Params.StoreChats = a.flags.storeChats
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	return nil
}

func (a *app) requireModel() (string, error) {
	if a.cfg.ModelPath == "" {
		return "", errors.New("no model: set --model, model_path or $" + config.EnvModel)
	}
	return a.cfg.ModelPath, nil
}
