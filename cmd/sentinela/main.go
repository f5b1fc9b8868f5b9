package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sentinela-pmsp/sentinela/internal/content"
	"github.com/sentinela-pmsp/sentinela/internal/handler"
	appI18n "github.com/sentinela-pmsp/sentinela/internal/i18n"
	"github.com/sentinela-pmsp/sentinela/internal/model"
	"github.com/sentinela-pmsp/sentinela/internal/profile"
	"github.com/sentinela-pmsp/sentinela/internal/schedule"
	"github.com/sentinela-pmsp/sentinela/internal/store"
)

// defaultQuotas mirrors the standard quick-exam distribution.
var defaultQuotas = []string{
	"PORTUGUESE=6",
	"MATHEMATICS=5",
	"GENERAL_KNOWLEDGE=4",
	"COMPUTER_SCIENCE=3",
	"ADMIN_LAW=2",
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sentinela",
		Short: "Exam-prep companion with AI-generated mock exams and a study agenda",
	}

	serve := serveCmd()
	root.AddCommand(serve)

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "sentinela.db", "SQLite database path")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for the content service")
	f.String("llm-model", "llama3.2", "Content model name")
	f.Duration("llm-timeout", content.DefaultTimeout, "Per-request content service timeout")
	f.StringP("lang", "l", "pt-BR", "UI language (pt-BR, en)")
	f.String("exam-title", "Operação Sentinela Rápida", "Default exam title")
	f.StringSlice("quotas", defaultQuotas, "Per-subject question quotas (SUBJECT=count, repeatable)")
	f.IntP("duration", "d", 45, "Default exam duration in minutes")
	f.Duration("poll-interval", schedule.DefaultPollInterval, "Agenda poll interval (at most 1m)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("SENTINELA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("sentinela")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/sentinela")
	v.AddConfigPath("/etc/sentinela")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// parseQuotas turns SUBJECT=count pairs into quotas.
func parseQuotas(raw []string) ([]model.Quota, error) {
	var quotas []model.Quota
	for _, entry := range raw {
		name, countStr, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("quota %q is not SUBJECT=count", entry)
		}
		subject, err := model.ParseSubject(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("quota %q: %w", entry, err)
		}
		count, err := strconv.Atoi(strings.TrimSpace(countStr))
		if err != nil || count <= 0 {
			return nil, fmt.Errorf("quota %q: count must be a positive integer", entry)
		}
		quotas = append(quotas, model.Quota{Subject: subject, Count: count})
	}
	return quotas, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	kv, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer kv.Close()

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	quotas, err := parseQuotas(v.GetStringSlice("quotas"))
	if err != nil {
		return fmt.Errorf("parse quotas: %w", err)
	}

	svc := content.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
		v.GetDuration("llm-timeout"),
	)
	if err := svc.Ping(context.Background()); err != nil {
		return fmt.Errorf("content service health check: %w", err)
	}
	slog.Info("content endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))

	profiles, err := profile.NewManager(kv)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	agenda, err := schedule.NewStore(kv)
	if err != nil {
		return fmt.Errorf("load agenda: %w", err)
	}

	// Study reminders go to the log; the sink is injected so tests and
	// future notification transports swap in without touching the monitor.
	ctx := context.Background()
	loc := appI18n.NewLocalizer(lang)
	notifyCtx := appI18n.WithLocalizer(ctx, loc)
	notifier := schedule.NotifierFunc(func(subject model.Subject, body string) {
		slog.Info(appI18n.T(notifyCtx, "NotificationTitle"), "subject", subject, "body", body)
	})
	monitor := schedule.NewMonitor(agenda, notifier, func(subject model.Subject) string {
		return appI18n.Td(notifyCtx, "NotificationBody", map[string]any{
			"Name":    profiles.Current().Name,
			"Subject": subject.DisplayName(),
		})
	})
	go monitor.Run(ctx, v.GetDuration("poll-interval"))

	h := handler.New(svc, agenda, profiles, kv, handler.Config{
		Title:           v.GetString("exam-title"),
		Quotas:          quotas,
		DurationMinutes: v.GetInt("duration"),
	}, appI18n.T(notifyCtx, "ReviewFallback"))

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"lang", lang,
		"duration_minutes", v.GetInt("duration"),
		"poll_interval", v.GetDuration("poll-interval"),
	)
	return http.ListenAndServe(addr, r)
}
