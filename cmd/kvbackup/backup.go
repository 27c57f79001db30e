package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kvbackup/pkg/auth"
	"kvbackup/pkg/backup"
	"kvbackup/pkg/config"
	"kvbackup/pkg/logger"
)

var (
	apiToken     string
	accountID    string
	namespaceID  string
	destination  string
	workers      int
	batchSize    int
	maxPages     int
	rateLimit    int
	checkpointFl string
	profileName  string
	forceRestart bool
)

// backupCmd represents the backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export all keys of a KV namespace to a local directory",
	Long: `Export every key/value pair of a Cloudflare Workers KV namespace to a
local directory tree. Keys containing "/" map to nested directories.

Credentials are resolved from, in order: command line flags, environment
variables (KVBACKUP_API_TOKEN, KVBACKUP_ACCOUNT_ID, KVBACKUP_NAMESPACE_ID),
a config file, and stored profiles ('kvbackup auth login').

Interrupting a run (Ctrl-C) saves the listing cursor; the next run resumes
from it and skips keys that were already written.`,
	Example: `  # Full export with explicit credentials
  kvbackup backup --api-token $TOKEN --account-id abc123 --namespace-id def456 --dest ./data

  # Resume using a stored profile
  kvbackup backup --profile work --namespace-id def456

  # Restart from the beginning, ignoring the saved cursor
  kvbackup backup --namespace-id def456 --force-restart`,
	RunE: runBackup,
}

func init() {
	rootCmd.AddCommand(backupCmd)

	backupCmd.Flags().StringVar(&apiToken, "api-token", "", "Cloudflare API token")
	backupCmd.Flags().StringVar(&accountID, "account-id", "", "Cloudflare account ID")
	backupCmd.Flags().StringVar(&namespaceID, "namespace-id", "", "KV namespace ID")
	backupCmd.Flags().StringVarP(&destination, "dest", "d", "", "destination directory (default ./data)")
	backupCmd.Flags().IntVarP(&workers, "workers", "w", 0, "number of download workers (default 8)")
	backupCmd.Flags().IntVar(&batchSize, "batch-size", 0, "keys per listing page (default 1000)")
	backupCmd.Flags().IntVar(&maxPages, "max-pages", 0, "listing pages per run (default 10)")
	backupCmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "max requests per time window (default 1000)")
	backupCmd.Flags().StringVar(&checkpointFl, "checkpoint", "", "checkpoint file path (default cursor.txt)")
	backupCmd.Flags().StringVarP(&profileName, "profile", "p", "", "use a stored credential profile")
	backupCmd.Flags().BoolVar(&forceRestart, "force-restart", false, "ignore the saved cursor and list from the beginning")
}

func runBackup(cmd *cobra.Command, args []string) error {
	flags := map[string]interface{}{
		"api-token":    apiToken,
		"account-id":   accountID,
		"namespace-id": namespaceID,
		"dest":         destination,
		"workers":      workers,
		"batch-size":   batchSize,
		"max-pages":    maxPages,
		"rate-limit":   rateLimit,
		"checkpoint":   checkpointFl,
		"debug":        debug,
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if !debug {
		cfg.Logging.Level = logLevel
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	// Fill in credentials from stored profiles when flags and environment
	// left them empty
	if cfg.Cloudflare.APIToken == "" {
		if account := resolveProfile(profileName); account != nil {
			cfg.Cloudflare.APIToken = account.APIToken
			if cfg.Cloudflare.AccountID == "" {
				cfg.Cloudflare.AccountID = account.AccountID
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	b, err := backup.New(cfg)
	if err != nil {
		return err
	}

	if forceRestart {
		if err := b.ResetCheckpoint(); err != nil {
			logger.WithError(err).Warn("failed to remove existing checkpoint")
		}
	}

	summary, err := b.Run()
	if err != nil {
		return err
	}

	if summary.Failed > 0 {
		fmt.Fprintf(os.Stderr, "completed with %d failed keys (downloaded %d, skipped %d)\n",
			summary.Failed, summary.Downloaded, summary.Skipped)
		os.Exit(1)
	}

	fmt.Printf("downloaded %d, skipped %d (already present), listed %d keys over %d pages\n",
		summary.Downloaded, summary.Skipped, summary.Listed, summary.Pages)

	return nil
}

// resolveProfile loads a stored credential profile, or the default one
// when no name is given.
func resolveProfile(name string) *auth.Account {
	manager, err := auth.NewManager()
	if err != nil {
		return nil
	}

	var account *auth.Account
	if name != "" {
		account, err = manager.Retrieve(name)
	} else {
		account, err = manager.RetrieveDefault()
	}
	if err != nil {
		return nil
	}

	return account
}
