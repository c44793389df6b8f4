package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pbaille/clipnote/internal/classifier"
	"github.com/pbaille/clipnote/internal/config"
	"github.com/pbaille/clipnote/internal/domain"
	"github.com/pbaille/clipnote/internal/fetcher"
	"github.com/pbaille/clipnote/internal/logging"
	"github.com/pbaille/clipnote/internal/notify"
	"github.com/pbaille/clipnote/internal/store"
	"github.com/pbaille/clipnote/internal/triage"
)

// app holds what every command shares. Configuration is loaded lazily so
// commands such as "config init" work without a valid config file.
type app struct {
	v       *viper.Viper
	cfgPath string
	cfg     *config.Config
	logger  *zap.Logger
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "clipnote",
		Short:         "Capture notes and let AI file them",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgPath, "config", "", "config file (default $CLIPNOTE_CONFIG or ~/.config/clipnote/config.yaml)")
	flags.String("db", "", "database path")
	flags.String("owner", "", "owner of the notes")
	a.v.BindPFlag("db", flags.Lookup("db"))
	a.v.BindPFlag("owner", flags.Lookup("owner"))

	rootCmd.AddCommand(
		a.addCmd(),
		a.pasteCmd(),
		a.listCmd(),
		a.showCmd(),
		a.searchCmd(),
		a.tagsCmd(),
		a.remindCmd(),
		a.dismissCmd(),
		a.deleteCmd(),
		a.sweepCmd(),
		a.statsCmd(),
		a.serveCmd(),
		a.configCmd(),
		a.vapidCmd(),
		a.tokenCmd(),
	)

	err := rootCmd.ExecuteContext(ctx)
	if a.logger != nil {
		a.logger.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// config loads configuration and builds the logger on first use
func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.Load(a.v, a.cfgPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	a.cfg, a.logger = cfg, logger
	return cfg, nil
}

func (a *app) openStore() (*store.Store, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(cfg.DB); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	return store.New(cfg.DB)
}

func (a *app) triager() (*triage.Triager, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}

	ai := classifier.New(
		classifier.WithEndpoint(cfg.AI.Endpoint),
		classifier.WithAPIKey(cfg.AI.APIKey),
		classifier.WithHTTPClient(&http.Client{Timeout: cfg.AI.Timeout}),
		classifier.WithMaxOutputTokens(cfg.AI.MaxOutputTokens),
		classifier.WithTemperature(cfg.AI.Temperature),
		classifier.WithLogger(a.logger.Named("classifier")),
	)

	opts := []triage.Option{triage.WithLogger(a.logger.Named("triage"))}
	if cfg.FetchTitles {
		opts = append(opts, triage.WithTitleFetcher(fetcher.New(nil)))
	}
	return triage.New(ai, opts...), nil
}

// notifier builds the reminder fan-out from config. Without web push or
// NATS reminders go to the log. The returned func releases connections.
func (a *app) notifier(s *store.Store) (notify.Notifier, func(), error) {
	cfg, err := a.config()
	if err != nil {
		return nil, nil, err
	}

	var delivery []notify.Notifier
	cleanup := func() {}

	if cfg.Push.Enabled() {
		push, err := notify.NewWebPushNotifier(s, notify.WebPushConfig{
			PublicKey:  cfg.Push.VAPIDPublicKey,
			PrivateKey: cfg.Push.VAPIDPrivateKey,
			Subject:    cfg.Push.Subject,
		}, a.logger.Named("webpush"))
		if err != nil {
			return nil, nil, err
		}
		delivery = append(delivery, push)
	}

	if cfg.NATS.URL != "" {
		nc, err := notify.NewNATSNotifier(notify.NATSConfig{URL: cfg.NATS.URL, Subject: cfg.NATS.Subject})
		if err != nil {
			return nil, nil, err
		}
		delivery = append(delivery, nc)
		cleanup = func() { nc.Close() }
	}

	return notify.Compose(a.logger.Named("reminder"), delivery...), cleanup, nil
}

// findNote resolves a full ID or a unique ID prefix among the owner's notes
func findNote(ctx context.Context, s *store.Store, owner, prefix string) (*domain.Note, error) {
	notes, err := s.ListNotesByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	var found *domain.Note
	for _, n := range notes {
		if n.ID == prefix {
			return n, nil
		}
		if strings.HasPrefix(n.ID, prefix) {
			if found != nil {
				return nil, fmt.Errorf("ambiguous id prefix: %s", prefix)
			}
			found = n
		}
	}
	if found == nil {
		return nil, fmt.Errorf("note not found: %s", prefix)
	}
	return found, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, max int) string {
	// Replace newlines with spaces for display
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
