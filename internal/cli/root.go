// Package cli implements the campusbot commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"campusbot/internal/catalog"
	"campusbot/internal/chat"
	"campusbot/internal/config"
	"campusbot/internal/ics"
	appLog "campusbot/internal/log"
	"campusbot/internal/query"
)

const defaultConfigPath = "config.yaml"

// options are the persistent flags shared by every command.
type options struct {
	configPath string
	debug      bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "campusbot",
		Short:         "Campus event assistant",
		Long:          "Answers campus-event questions from a chat widget: \"events today\", \"technical events this week\", \"upcoming events tag:ai\".",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loadDotEnv(opts.configPath)
			if opts.debug {
				appLog.SetLevel(appLog.LevelDebug)
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", configPathFromEnv(), "Path to config file (default: $CAMPUSBOT_CONFIG or ./config.yaml)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	root.AddCommand(
		newServeCmd(opts),
		newAskCmd(opts),
		newInterpretCmd(opts),
		newEventsCmd(opts),
		newChatCmd(opts),
	)
	return root
}

// Execute runs the command tree with ctx and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func configPathFromEnv() string {
	if env := os.Getenv("CAMPUSBOT_CONFIG"); env != "" {
		return env
	}
	return defaultConfigPath
}

// loadDotEnv reads .env from the working directory and from beside the
// config file. Variables already set win.
func loadDotEnv(configPath string) {
	candidates := []string{".env"}
	if dir := filepath.Dir(configPath); dir != "." {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}
	for _, path := range candidates {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			appLog.Warn("failed to load .env file", "path", path, "error", err.Error())
		}
	}
}

// app is everything a command needs, wired from the config file.
type app struct {
	cfg     *config.Config
	loc     *time.Location
	catalog *catalog.Catalog
	engine  *chat.Engine
}

func newApp(ctx context.Context, opts *options) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if !opts.debug {
		appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	sources := make([]ics.Source, 0, len(cfg.ICS))
	for _, s := range cfg.ICS {
		if s.URL == "" {
			continue
		}
		sources = append(sources, ics.Source{ID: s.ID, URL: s.URL})
	}

	cat := catalog.New(catalog.Config{
		DataPath:     cfg.ResolveDataPath(opts.configPath),
		ICS:          sources,
		CacheDir:     filepath.Join(filepath.Dir(opts.configPath), "cache", "ics"),
		Location:     loc,
		HorizonDays:  cfg.HorizonDays,
		BackfillDays: cfg.BackfillDays,
	})
	if err := cat.Refresh(ctx); err != nil {
		// Start with an empty catalog; the scheduler retries.
		appLog.Error("initial catalog load failed", err)
	}

	engine := chat.NewEngine(cat,
		chat.WithInterpreter(query.NewInterpreter(query.WithLocation(loc))),
		chat.WithBackend(newBackend(cfg.Chat)),
		chat.WithResultLimit(cfg.Results.Limit),
		chat.WithResultDelay(cfg.Results.Delay()),
	)

	appLog.Info("effective config",
		"config", opts.configPath,
		"timezone", cfg.Timezone,
		"events", cat.Len(),
		"ics_count", len(sources),
		"backend", cfg.Chat.Backend,
	)

	return &app{cfg: cfg, loc: loc, catalog: cat, engine: engine}, nil
}

func newBackend(cfg config.ChatConfig) chat.Backend {
	if cfg.Backend != config.BackendOpenAI {
		return chat.NopBackend{}
	}
	b := chat.NewOpenAIBackend(chat.OpenAIConfig{
		APIKey:       cfg.APIKey(),
		BaseURL:      cfg.BaseURL,
		Model:        cfg.Model,
		SystemPrompt: cfg.SystemPrompt,
		MaxHistory:   20,
	})
	if !b.Configured() {
		appLog.Warn("openai backend selected but no API key found; using canned replies", "env", cfg.APIKeyEnv)
	}
	return b
}
