package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"card-terminal/config"
	pgStorage "card-terminal/internal/adapter/storage/postgres"
	redisStorage "card-terminal/internal/adapter/storage/redis"
	"card-terminal/internal/core/ports"
	"card-terminal/internal/service"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var errMemoryStore = errors.New("store.driver is memory: the remembered reader lives inside the terminal process")

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token [operator-id]",
		Short: "Issue an operator token for the control API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is empty, the control API does not check tokens")
			}
			expiry, _ := cmd.Flags().GetDuration("expiry")
			if expiry <= 0 {
				expiry = cfg.Auth.Expiry
			}

			svc := service.NewJWTTokenService(cfg.Auth.JWTSecret, expiry, cfg.Auth.Issuer, cfg.Terminal.ID)
			token, expiresAt, err := svc.Generate(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)
			fmt.Fprintf(cmd.ErrOrStderr(), "terminal %s, expires %s\n", cfg.Terminal.ID, expiresAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().Duration("expiry", 0, "Token lifetime (default auth.expiry)")

	return cmd
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration the terminal would start with after
merging defaults, the config file and CTM_* environment variables.
Secrets are masked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			printConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Card Terminal Configuration")
	fmt.Fprintln(w, strings.Repeat("=", 40))

	fmt.Fprintln(w, "\nServer:")
	fmt.Fprintf(w, "  Listen:          %s:%d\n", cfg.Server.Host, cfg.Server.Port)

	fmt.Fprintln(w, "\nTerminal:")
	fmt.Fprintf(w, "  ID:              %s\n", cfg.Terminal.ID)
	fmt.Fprintf(w, "  SDK:             %s\n", cfg.Terminal.SDK)
	fmt.Fprintf(w, "  Discovery:       %s\n", cfg.Terminal.DiscoveryMethod)
	fmt.Fprintf(w, "  Auto reconnect:  %t\n", cfg.Terminal.AutoReconnect)
	fmt.Fprintf(w, "  Search timeout:  %s\n", cfg.Terminal.SearchTimeout)

	fmt.Fprintln(w, "\nPayment:")
	fmt.Fprintf(w, "  Confirm retries: %d\n", cfg.Payment.MaxConfirmRetries)
	fmt.Fprintf(w, "  Unknown retries: %d\n", cfg.Payment.MaxAmbiguousRetries)
	fmt.Fprintf(w, "  Backoff:         %s\n", cfg.Payment.RetryBackoff)

	fmt.Fprintln(w, "\nBackend:")
	fmt.Fprintf(w, "  Driver:          %s\n", cfg.Backend.Driver)
	if cfg.Backend.Driver == "http" {
		fmt.Fprintf(w, "  Base URL:        %s\n", cfg.Backend.BaseURL)
	}
	fmt.Fprintf(w, "  Stripe key:      %s\n", mask(cfg.Stripe.SecretKey))

	fmt.Fprintln(w, "\nStore:")
	fmt.Fprintf(w, "  Driver:          %s\n", cfg.Store.Driver)
	switch cfg.Store.Driver {
	case "redis":
		fmt.Fprintf(w, "  Redis:           %s (db %d)\n", cfg.Redis.Addr(), cfg.Redis.DB)
	case "postgres":
		fmt.Fprintf(w, "  Postgres:        %s:%d/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
	}

	fmt.Fprintln(w, "\nAuth:")
	fmt.Fprintf(w, "  JWT secret:      %s\n", mask(cfg.Auth.JWTSecret))
	fmt.Fprintf(w, "  Expiry:          %s\n", cfg.Auth.Expiry)
	if cfg.RateLimit.ChargesPerMinute > 0 {
		fmt.Fprintf(w, "  Charges/minute:  %d\n", cfg.RateLimit.ChargesPerMinute)
	} else {
		fmt.Fprintln(w, "  Charges/minute:  unlimited")
	}
}

func mask(secret string) string {
	switch {
	case secret == "":
		return "not set"
	case len(secret) <= 8:
		return "set"
	default:
		return secret[:4] + "..." + secret[len(secret)-4:]
	}
}

func readerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reader",
		Short: "Inspect or clear the remembered reader in a shared store",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the serial number of the remembered reader",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeviceStore(cmd, func(ctx context.Context, store ports.DeviceStore) error {
				serial, err := store.Get(ctx)
				if err != nil {
					return err
				}
				if serial == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "no reader remembered")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), serial)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "forget",
		Short: "Clear the remembered reader so the next start begins without one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeviceStore(cmd, func(ctx context.Context, store ports.DeviceStore) error {
				if err := store.Clear(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "remembered reader cleared")
				return nil
			})
		},
	})

	return cmd
}

func withDeviceStore(cmd *cobra.Command, fn func(context.Context, ports.DeviceStore) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	log := zerolog.Nop()

	switch cfg.Store.Driver {
	case "redis":
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer rdb.Close()
		return fn(ctx, redisStorage.NewDeviceStore(rdb, cfg.Terminal.ID))
	case "postgres":
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()
		if err := pgStorage.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		return fn(ctx, pgStorage.NewDeviceStore(pool, cfg.Terminal.ID))
	default:
		return errMemoryStore
	}
}
