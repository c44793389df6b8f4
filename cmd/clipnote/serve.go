package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"go.uber.org/zap"

	"github.com/pbaille/clipnote/internal/api"
	"github.com/pbaille/clipnote/internal/config"
	"github.com/pbaille/clipnote/internal/notify"
	"github.com/pbaille/clipnote/internal/reminder"
)

func (a *app) serveCmd() *cobra.Command {
	var noSweep bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server and the reminder sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			t, err := a.triager()
			if err != nil {
				return err
			}
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer s.Close()

			if cfg.Auth.JWTSecret == "" {
				a.logger.Warn("no jwt secret configured, every request acts as the dev owner",
					zap.String("dev_owner", cfg.Auth.DevOwner))
			}

			var vapidKey string
			if cfg.Push.Enabled() {
				vapidKey = cfg.Push.VAPIDPublicKey
			}

			server := api.New(api.Config{
				Addr:           cfg.Server.Addr,
				Store:          s,
				Triager:        t,
				Auth:           api.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.DevOwner),
				VAPIDPublicKey: vapidKey,
				Logger:         a.logger.Named("api"),
			})

			var sweeper *reminder.Sweeper
			if !noSweep {
				n, cleanup, err := a.notifier(s)
				if err != nil {
					return err
				}
				defer cleanup()

				sweeper = &reminder.Sweeper{
					Store:    s,
					Notifier: n,
					Interval: cfg.Reminders.Interval,
					Logger:   a.logger.Named("sweep"),
				}
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return server.Run(ctx)
			})
			if sweeper != nil {
				g.Go(func() error {
					return sweeper.Run(ctx)
				})
			}

			return g.Wait()
		},
	}

	cmd.Flags().StringP("addr", "a", "", "server address (default :8080)")
	a.v.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	cmd.Flags().BoolVar(&noSweep, "no-sweep", false, "do not run the reminder sweep")
	return cmd
}

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfgPath
			if path == "" {
				path = config.DefaultPath()
			}
			if err := config.WriteExample(path, force); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}

func (a *app) vapidCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vapid",
		Short: "Generate a VAPID key pair for web push",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, priv, err := notify.GenerateVAPIDKeys()
			if err != nil {
				return err
			}
			fmt.Println("push:")
			fmt.Printf("  vapid_public_key: %s\n", pub)
			fmt.Printf("  vapid_private_key: %s\n", priv)
			fmt.Println("  subject: mailto:you@example.com")
			return nil
		},
	}
}

func (a *app) tokenCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for --owner, signed with auth.jwt_secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			tok, err := api.IssueToken(cfg.Auth.JWTSecret, cfg.Owner, ttl)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
