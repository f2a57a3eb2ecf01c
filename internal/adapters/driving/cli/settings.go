package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change chunking, retrieval, provider and storage settings.

Settings are stored in ~/.ragent/config.toml. Environment variables named
RAGENT_<KEY> (for example RAGENT_RETRIEVAL_TOP_K) override stored values,
and a .env file in the working directory is loaded first.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Change a setting",
	Long: `Store a single setting after validating it.

Keys use dot notation, for example retrieval.top_k or llm.provider. API keys
may be omitted from the command line; they are then read without echo.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List every setting key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return errors.New("settings service not configured")
		}
		for _, key := range settingsService.Keys() {
			cmd.Printf("%-36s %s\n", key, services.EnvName(key))
		}
		return nil
	},
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the configured providers are reachable",
	Args:  cobra.NoArgs,
	RunE:  runSettingsCheck,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Pipeline]")
	cmd.Printf("  Chunk size: %d\n", settings.Pipeline.ChunkSize)
	cmd.Printf("  Chunk overlap: %d\n", settings.Pipeline.ChunkOverlap)
	cmd.Printf("  Workers: %d\n", settings.Ingestion.Workers)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	cmd.Printf("  Similarity threshold: %.2f\n", settings.Retrieval.SimilarityThreshold)
	cmd.Println()

	cmd.Println("[Session]")
	cmd.Printf("  History window: %d turns\n", settings.Session.HistoryWindow)
	cmd.Printf("  Store: %s\n", settings.Session.Store)
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	printAPIKey(cmd, settings.Embedding.Provider, settings.Embedding.APIKey)
	cmd.Printf("  Batch size: %d, attempts: %d, timeout: %s, rate: %.1f/s\n",
		settings.Embedding.BatchSize, settings.Embedding.MaxAttempts,
		settings.Embedding.Timeout, settings.Embedding.RequestsPerSecond)
	cmd.Printf("  Status: %s\n", configuredLabel(settings.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	printAPIKey(cmd, settings.LLM.Provider, settings.LLM.APIKey)
	cmd.Printf("  Timeout: %s, max tokens: %d\n", settings.LLM.Timeout, settings.LLM.MaxTokens)
	cmd.Printf("  Status: %s\n", configuredLabel(settings.LLM.IsConfigured()))
	cmd.Println()

	cmd.Println("[Vector Index]")
	cmd.Printf("  Backend: %s\n", settings.VectorIndex.Backend)
	if settings.VectorIndex.DSN != "" {
		cmd.Printf("  DSN: %s\n", maskDSN(settings.VectorIndex.DSN))
	}
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  HTTP address: %s\n", settings.Server.HTTPAddr)
	if settings.Server.MCPAddr != "" {
		cmd.Printf("  MCP address: %s\n", settings.Server.MCPAddr)
	}
	cmd.Println()

	cmd.Println("[Watch]")
	if settings.Watch.Dir != "" {
		cmd.Printf("  Directory: %s\n", settings.Watch.Dir)
	}
	cmd.Printf("  Rescan schedule: %s\n", settings.Watch.RescanSchedule)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'ragent settings set <key> <value>' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key := args[0]
	var value string
	switch {
	case len(args) == 2:
		value = args[1]
	case services.IsSecret(key):
		cmd.Printf("Enter %s: ", key)
		value = readPassword(cmd.InOrStdin())
		cmd.Println()
	default:
		return fmt.Errorf("missing value for %s", key)
	}

	if err := settingsService.Set(key, value); err != nil {
		return err
	}

	shown := value
	if services.IsSecret(key) {
		shown = maskAPIKey(value)
	}
	cmd.Printf("Set %s = %s\n", key, shown)
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	if checkProviders == nil {
		return notConfigured("provider")
	}
	if err := checkProviders(cmd.Context()); err != nil {
		return err
	}
	cmd.Println("Embedding and LLM providers are reachable.")
	return nil
}

func printAPIKey(cmd *cobra.Command, provider domain.AIProvider, key string) {
	if !provider.RequiresAPIKey() {
		return
	}
	if key == "" {
		cmd.Printf("  API Key: (not set)\n")
		return
	}
	cmd.Printf("  API Key: %s\n", maskAPIKey(key))
}

func configuredLabel(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

// readPassword reads a line without echo when in is a terminal.
func readPassword(in io.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	input, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// maskDSN hides the password of a postgres URL.
func maskDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, hasPassword := strings.Cut(userinfo, ":")
	if !hasPassword {
		return dsn
	}
	return scheme + "://" + user + ":****@" + host
}
