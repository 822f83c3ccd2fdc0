package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/networth/internal/kv"
	"github.com/iho/networth/internal/ledger"
	"github.com/iho/networth/internal/syncer"
)

// Device-local keys for sync settings. They live under the remote prefix,
// so backups never carry them and the watcher ignores writes to them.
const (
	keyWebDAVConfig = ledger.RemotePrefix + "webdav:config"
	keyAPIConfig    = ledger.RemotePrefix + "api:config"
	keyActiveRemote = ledger.RemotePrefix + "active"
)

func newSyncCmd() *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Back up to and restore from a remote store",
	}

	syncCmd.AddCommand(
		newSyncWebDAVCmd(),
		newSyncAPICmd(),
		newSyncEnableCmd(),
		newSyncDisableCmd(),
		newSyncBackupCmd(),
		newSyncRestoreCmd(),
		newSyncStatusCmd(),
	)

	return syncCmd
}

func newSyncWebDAVCmd() *cobra.Command {
	webdavCmd := &cobra.Command{
		Use:   "webdav",
		Short: "WebDAV remote store",
	}

	var cfg syncer.WebDAVConfig
	configureCmd := &cobra.Command{
		Use:   "configure",
		Short: "Store WebDAV connection settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.BaseURL == "" {
				return fmt.Errorf("--url is required")
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			return saveJSONKey(cmd.Context(), store, keyWebDAVConfig, cfg)
		},
	}
	configureCmd.Flags().StringVar(&cfg.BaseURL, "url", "", "WebDAV root URL")
	configureCmd.Flags().StringVar(&cfg.Path, "path", "networth/backup.json", "Document path under the root")
	configureCmd.Flags().StringVar(&cfg.Username, "username", "", "Basic auth username")
	configureCmd.Flags().StringVar(&cfg.Password, "password", "", "Basic auth password")
	configureCmd.Flags().StringVar(&cfg.Proxy, "proxy", "", "Optional request proxy URL")

	webdavCmd.AddCommand(configureCmd)
	return webdavCmd
}

func newSyncAPICmd() *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Hosted backup server remote store",
	}

	var baseURL string
	configureCmd := &cobra.Command{
		Use:   "configure",
		Short: "Store the backup server URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if baseURL == "" {
				return fmt.Errorf("--url is required")
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			cfg, _ := loadAPIConfig(cmd.Context(), store)
			cfg.BaseURL = baseURL
			return saveJSONKey(cmd.Context(), store, keyAPIConfig, cfg)
		},
	}
	configureCmd.Flags().StringVar(&baseURL, "url", "", "Backup server root URL")

	var email, password string
	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the backup server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			client, cfg, err := apiClient(cmd.Context(), store)
			if err != nil {
				return err
			}
			if err := client.Register(cmd.Context(), email, password); err != nil {
				return err
			}
			cfg.Email = email
			if err := saveJSONKey(cmd.Context(), store, keyAPIConfig, cfg); err != nil {
				return err
			}
			fmt.Println("registered; now log in with: sync api login")
			return nil
		},
	}
	registerCmd.Flags().StringVar(&email, "email", "", "Account email")
	registerCmd.Flags().StringVar(&password, "password", "", "Account password")

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			client, cfg, err := apiClient(cmd.Context(), store)
			if err != nil {
				return err
			}
			token, err := client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			cfg.Email = email
			cfg.Token = token
			if err := saveJSONKey(cmd.Context(), store, keyAPIConfig, cfg); err != nil {
				return err
			}
			fmt.Println("logged in")
			return nil
		},
	}
	loginCmd.Flags().StringVar(&email, "email", "", "Account email")
	loginCmd.Flags().StringVar(&password, "password", "", "Account password")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			client, cfg, err := apiClient(cmd.Context(), store)
			if err != nil {
				return err
			}
			if err := client.Logout(cmd.Context()); err != nil {
				return err
			}
			cfg.Token = ""
			return saveJSONKey(cmd.Context(), store, keyAPIConfig, cfg)
		},
	}

	apiCmd.AddCommand(configureCmd, registerCmd, loginCmd, logoutCmd)
	return apiCmd
}

func newSyncEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <webdav|api>",
		Short: "Select the active remote and turn sync on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			// Validates that the named remote is actually configured.
			if _, err := openRemote(cmd.Context(), store, args[0]); err != nil {
				return err
			}
			return store.Set(cmd.Context(), keyActiveRemote, args[0])
		},
	}
}

func newSyncDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Turn sync off",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			return store.Delete(cmd.Context(), keyActiveRemote)
		},
	}
}

func newSyncBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Push a backup to the active remote now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			if err := engine.Backup(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("backup uploaded")
			return nil
		},
	}
}

func newSyncRestoreCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Replace local state with the remote backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("restore replaces all local ledger data; re-run with --yes to confirm")
			}
			engine, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			report, err := engine.RestoreFromRemote(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("cleared %d, wrote %d, skipped %d keys\n", len(report.Cleared), len(report.Written), len(report.Skipped))
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm replacing local data")
	return cmd
}

func newSyncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync configuration and the last backup result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}

			name, ok, err := store.Get(cmd.Context(), keyActiveRemote)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("sync: disabled")
				return nil
			}
			fmt.Printf("sync: enabled (%s)\n", name)

			stampKey := ledger.RemotePrefix + name + ":last-backup-at"
			if stamp, ok, err := store.Get(cmd.Context(), stampKey); err == nil && ok {
				if at, perr := time.Parse(time.RFC3339, stamp); perr == nil {
					fmt.Printf("last backup: %s\n", at.Local().Format("2006-01-02 15:04:05"))
				}
			}

			if id, err := syncer.DeviceID(cmd.Context(), store); err == nil {
				fmt.Printf("device: %s\n", id)
			}
			return nil
		},
	}
}

// openEngine builds a sync engine over the active remote and enables it for
// the duration of the command.
func openEngine(ctx context.Context) (*syncer.Engine, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}

	name, ok, err := store.Get(ctx, keyActiveRemote)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("sync is disabled; run: sync enable <webdav|api>")
	}

	remote, err := openRemote(ctx, store, name)
	if err != nil {
		return nil, err
	}

	engine := syncer.NewEngine(store, remote)
	engine.SetEnabled(true)
	return engine, nil
}

func openRemote(ctx context.Context, store kv.Store, name string) (syncer.RemoteStore, error) {
	deviceID, err := syncer.DeviceID(ctx, store)
	if err != nil {
		return nil, err
	}

	switch name {
	case "webdav":
		var cfg syncer.WebDAVConfig
		if err := loadJSONKey(ctx, store, keyWebDAVConfig, &cfg); err != nil {
			return nil, fmt.Errorf("webdav is not configured; run: sync webdav configure")
		}
		cfg.DeviceID = deviceID
		return syncer.NewWebDAVStore(cfg), nil
	case "api":
		cfg, err := loadAPIConfig(ctx, store)
		if err != nil {
			return nil, fmt.Errorf("api is not configured; run: sync api configure")
		}
		if cfg.Token == "" {
			return nil, fmt.Errorf("not logged in; run: sync api login")
		}
		cfg.DeviceID = deviceID
		return syncer.NewAPIClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown remote %q", name)
	}
}

func apiClient(ctx context.Context, store kv.Store) (*syncer.APIClient, syncer.APIConfig, error) {
	cfg, err := loadAPIConfig(ctx, store)
	if err != nil || cfg.BaseURL == "" {
		return nil, cfg, fmt.Errorf("api is not configured; run: sync api configure")
	}
	deviceID, err := syncer.DeviceID(ctx, store)
	if err != nil {
		return nil, cfg, err
	}
	cfg.DeviceID = deviceID
	return syncer.NewAPIClient(cfg), cfg, nil
}

func loadAPIConfig(ctx context.Context, store kv.Store) (syncer.APIConfig, error) {
	var cfg syncer.APIConfig
	err := loadJSONKey(ctx, store, keyAPIConfig, &cfg)
	return cfg, err
}

func loadJSONKey(ctx context.Context, store kv.Store, key string, v any) error {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("key %s not set", key)
	}
	return json.Unmarshal([]byte(raw), v)
}

func saveJSONKey(ctx context.Context, store kv.Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, string(data))
}
