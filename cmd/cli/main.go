package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"share-analytics-service/internal/cache"
	"share-analytics-service/internal/config"
	"share-analytics-service/internal/logger"
	"share-analytics-service/internal/sharing"
)

var purgeConfirmed bool

var rootCmd = &cobra.Command{
	Use:   "shares-admin",
	Short: "Admin CLI for the share analytics service",
	Long: `shares-admin operates directly against the Redis store used by the
share analytics service. It reads connection settings from the same
environment variables as the server (REDIS_HOST, REDIS_PORT, REDIS_PASSWORD).`,
	SilenceUsage: true,
}

// connect builds a service on the configured store; every command needs one
func connect() (*sharing.Service, func(), error) {
	cfg := config.Load()
	if !cfg.RedisConfigured() {
		return nil, nil, fmt.Errorf("REDIS_HOST not set")
	}

	// CLI output goes to stdout; keep the logger quiet unless asked
	if err := logger.Initialize("error", ""); err != nil {
		return nil, nil, err
	}

	store, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	if err != nil {
		return nil, nil, err
	}
	return sharing.NewService(store), func() { store.Close() }, nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

var statsCmd = &cobra.Command{
	Use:   "stats <slug|url>",
	Short: "Show share statistics for one content key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := connect()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return printJSON(svc.GetStats(ctx, args[0]))
	},
}

var globalCmd = &cobra.Command{
	Use:   "global",
	Short: "Show the site-wide share summary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := connect()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return printJSON(svc.GetGlobalStats(ctx))
	},
}

var topCmd = &cobra.Command{
	Use:   "top [n]",
	Short: "Show the top shared content keys",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n := 10
		if len(args) == 1 {
			parsed, err := strconv.Atoi(args[0])
			if err != nil || parsed <= 0 {
				return fmt.Errorf("invalid count %q", args[0])
			}
			n = parsed
		}

		svc, cleanup, err := connect()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		top, err := svc.TopContent(ctx, n)
		if err != nil {
			return err
		}
		return printJSON(top)
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events <slug|url> [limit]",
	Short: "Show recent share events for one content key",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit := 100
		if len(args) == 2 {
			parsed, err := strconv.Atoi(args[1])
			if err != nil || parsed <= 0 {
				return fmt.Errorf("invalid limit %q", args[1])
			}
			limit = parsed
		}

		svc, cleanup, err := connect()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		events, err := svc.ReadEvents(ctx, args[0], limit)
		if err != nil {
			return err
		}
		return printJSON(events)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <slug|url>",
	Short: "Delete all share data for one content key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, cleanup, err := connect()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		deleted, count, err := svc.DeleteContent(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("deleted=%v keys_removed=%d\n", deleted, count)
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete the entire share analytics namespace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !purgeConfirmed {
			return fmt.Errorf("refusing to purge without --yes")
		}

		svc, cleanup, err := connect()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		count, err := svc.DeleteAll(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("keys_removed=%d\n", count)
		return nil
	},
}

func init() {
	purgeCmd.Flags().BoolVar(&purgeConfirmed, "yes", false, "confirm the destructive purge")

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(globalCmd)
	rootCmd.AddCommand(topCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(purgeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
