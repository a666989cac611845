package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/narrtl/internal/model"
)

// Version is set at build time
var Version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "narrtl",
	Short: "narrtl - narrative to RDF/Turtle converter",
	Long: `narrtl converts free-text narratives into RDF/Turtle.

Each sentence is split into independent clauses, every clause is reduced to
a verb frame, and the frames are compiled into Turtle statements about
events, agents, times and places. Time and location carry forward from one
sentence to the next.

Dependency parses come from a spaCy-style HTTP service or a CoNLL-U file;
semantic classes come from a YAML or SQLite lexicon.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(newLogger(viper.GetBool("verbose")))
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("narrtl v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.narrtl/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	flags.String("parser-url", "", "spaCy-style parse service URL")
	flags.String("conllu", "", "pre-parsed CoNLL-U file (overrides --parser-url)")
	flags.String("lexicon", "", "YAML lexicon path")
	flags.String("lexicon-db", "", "SQLite lexicon path (overrides --lexicon)")
	flags.String("narrator-gender", "", "narrator gender for agreement checks (female, male)")
	flags.Bool("no-cache", false, "disable parse and class caching")

	rootCmd.AddCommand(versionCmd)
}

// persistent flags mapped to config keys
var flagKeys = map[string]string{
	"verbose":         "verbose",
	"parser-url":      "parser.url",
	"conllu":          "parser.conllu",
	"lexicon":         "lexicon.path",
	"lexicon-db":      "lexicon.sqlite",
	"narrator-gender": "narrator.gender",
}

// initConfig reads the config file and NARRTL_* environment variables
func initConfig() {
	registerDefaults(model.DefaultConfig())
	for name, key := range flagKeys {
		_ = viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(name))
	}
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(home + "/.narrtl")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("NARRTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// registerDefaults makes every config key known to viper so that
// environment variables can override it
func registerDefaults(cfg *model.Config) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return
	}
	setDefaults("", tree)
}

func setDefaults(prefix string, tree map[string]any) {
	for k, v := range tree {
		if sub, ok := v.(map[string]any); ok {
			setDefaults(prefix+k+".", sub)
			continue
		}
		viper.SetDefault(prefix+k, v)
	}
}

// loadConfig merges defaults, config file, environment and flags
func loadConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	cfg.Output.Verbose = viper.GetBool("verbose")

	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	case "anthropic", "claude":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "ollama":
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	}
	return cfg, nil
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
