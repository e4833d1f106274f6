package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/civimon/civimon/internal/classify"
	"github.com/civimon/civimon/internal/config"
	"github.com/civimon/civimon/internal/store"
)

// NewClassifyCmd creates the classify command.
func NewClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify stored document versions that lack a classification",
		Long: `Classify sends stored high-relevance document versions without a
classification to the language model and records the result.

The crawl command already classifies changed documents when an API key is
configured; this command backfills documents from runs where the key was
missing or classification failed.

The API key is read from the CIVIMON_LLM_API_KEY environment variable.

Examples:
  # Classify everything pending
  civimon classify

  # Classify at most 20 documents
  civimon classify --limit 20`,
		Args: cobra.NoArgs,
		RunE: runClassifyCmd,
	}

	cmd.Flags().IntP("limit", "l", 0, "Maximum documents to classify (0 = no limit)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .civimon in current or home directory)")

	return cmd
}

// runClassifyCmd executes the classify command.
func runClassifyCmd(cmd *cobra.Command, _ []string) error {
	logger := setupLogger(getVerboseFlag(cmd))
	slog.SetDefault(logger)

	apiKey := os.Getenv(classify.EnvAPIKey)
	if apiKey == "" {
		return fmt.Errorf("%s is not set", classify.EnvAPIKey)
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	configFlag, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	cfg := config.NewConfig()
	explicitConfigPath := configFlag != ""
	if configPath := config.FindConfigFile(configFlag); configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if explicitConfigPath {
		return fmt.Errorf("configuration file not found: %s", configFlag)
	}

	client, err := classify.NewClient(apiKey,
		classify.WithEndpoint(cfg.LLMEndpoint),
		classify.WithModel(cfg.LLMModel),
		classify.WithMaxChars(cfg.LLMMaxChars),
		classify.WithClientLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create classifier: %w", err)
	}

	dataDir, err := getDataDir(cmd)
	if err != nil {
		return err
	}

	st, err := store.Open(dataDir, store.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	ctx := cmd.Context()

	pending, err := st.ListUnclassified(ctx, limit)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to classify")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Classifying %d document(s)...\n", len(pending))

	classified := 0
	for _, p := range pending {
		result, err := client.Classify(ctx, classify.Request{
			URL:          p.URL,
			Title:        p.Title,
			Jurisdiction: p.Jurisdiction,
			DocType:      p.DocType,
			Text:         p.Text,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("classification failed", "url", p.URL, "error", err)
			continue
		}

		if err := st.SetClassification(ctx, p.VersionID, result); err != nil {
			logger.Warn("failed to store classification", "url", p.URL, "error", err)
			continue
		}
		classified++
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Classified %d of %d document(s)\n", classified, len(pending))
	return nil
}
