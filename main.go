package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"deepmap_research/config"
	"deepmap_research/generator"
	"deepmap_research/maps"
	"deepmap_research/store"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "deepmap",
	Short: "DeepMap Research grows trees of parallel AI responses",
	Long: `DeepMap Research asks a language model for several independent answers to a
prompt, stores them as a tree, and can expand every leaf one level deeper using
the path from the root as context.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to config file (yaml or json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logs")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runtime is what every subcommand needs: config, the map service and the
// store behind it.
type runtime struct {
	cfg   config.Config
	maps  *maps.Service
	store store.Store
}

func (rt *runtime) Close() error {
	return rt.store.Close()
}

// loadConfig falls back to the offline defaults when the default config file
// does not exist.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return config.Default(), nil
		}
	}
	return config.LoadConfig(configPath)
}

func setup(cmd *cobra.Command) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	llm, err := generator.NewLLM(cmd.Context(), &generator.LLMSettings{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	gen, err := generator.NewService(llm,
		generator.WithProvider(cfg.LLM.Provider),
		generator.WithTimeout(cfg.LLM.Timeout),
		generator.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		return nil, err
	}
	svc, err := maps.New(gen, st,
		maps.WithBranchLimits(cfg.Tree.DefaultBranches, cfg.Tree.MaxBranches),
		maps.WithLogger(logger))
	if err != nil {
		st.Close()
		return nil, err
	}
	logger.Debug("runtime ready", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model, "store", cfg.Store.Driver)
	return &runtime{cfg: cfg, maps: svc, store: st}, nil
}
