package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"progressboard/internal/auth"
	"progressboard/internal/board"
	"progressboard/internal/config"
	"progressboard/internal/model"
	"progressboard/internal/server"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "boardctl",
		Short:         "Inspect and seed the progress board store",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(hydrateCmd())
	rootCmd.AddCommand(tokenCmd())
	return rootCmd
}

// openBoard loads config and builds a Manager over the configured store.
func openBoard(ctx context.Context) (*board.Manager, func() error, error) {
	cfg := config.Load()
	cfg.SetupLogging(log.StandardLogger())

	store, closeStore, err := server.OpenStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return server.NewBoard(cfg, store), closeStore, nil
}

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, closeStore, err := openBoard(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			valid, err := manager.Restore(cmd.Context())
			if err != nil {
				return err
			}
			if asText, _ := cmd.Flags().GetBool("text"); asText {
				printBoard(cmd.OutOrStdout(), manager.Snapshot())
				return nil
			}

			out, err := sonic.ConfigStd.MarshalIndent(struct {
				Valid bool           `json:"valid"`
				Board board.Snapshot `json:"board"`
			}{valid, manager.Snapshot()}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().Bool("text", false, "Print columns as plain text instead of JSON")

	return cmd
}

// printBoard writes each column under its display title.
func printBoard(w io.Writer, snapshot board.Snapshot) {
	for _, c := range model.Columns() {
		tasks := snapshot.Column(c)
		fmt.Fprintf(w, "%s (%d)\n", c.Title(), len(tasks))
		for _, t := range tasks {
			fmt.Fprintf(w, "  %s\t%s\n", t.ID, t.Title)
		}
	}
}

func hydrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hydrate",
		Short: "Fetch tasks from REMOTE_URL and overwrite the stored board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, closeStore, err := openBoard(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			if err := manager.Hydrate(cmd.Context()); err != nil {
				if errors.Is(err, board.ErrNoSource) {
					return fmt.Errorf("REMOTE_URL is empty: %w", err)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "hydrated %d tasks\n", manager.Snapshot().Len())
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}

			subject, _ := cmd.Flags().GetString("subject")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if ttl == 0 {
				ttl = cfg.JWTTTL
			}

			token, err := auth.GenerateToken([]byte(cfg.JWTSecret), subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringP("subject", "s", "", "Token subject (required)")
	cmd.Flags().Duration("ttl", time.Duration(0), "Token lifetime (default JWT_TTL)")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}
