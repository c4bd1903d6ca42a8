package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhattran/eduai/internal/genai"
	"github.com/nhattran/eduai/internal/handler"
	appI18n "github.com/nhattran/eduai/internal/i18n"
	"github.com/nhattran/eduai/internal/model"
	"github.com/nhattran/eduai/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "eduai",
		Short: "AI-assisted English test composer and grader for grades 6-9",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `eduai --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP test server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "eduai.db", "SQLite database path")
	f.String("base-url", "http://localhost:8080", "Public URL prefix for share links")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for the AI endpoint")
	f.String("llm-model", "llama3.2", "AI model name")
	f.StringP("lang", "l", "vi", "Message language (vi, en)")
	f.String("teacher-pass", "", "Teacher passphrase (or set EDUAI_TEACHER_PASS)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.Duration("poll-interval", time.Second, "Change-watch polling interval")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the active test and all results as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "eduai.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
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

	v.SetEnvPrefix("EDUAI")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("eduai")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/eduai")
	v.AddConfigPath("/etc/eduai")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// openStore opens the durable store, degrading to the in-memory one when the
// database cannot be opened. The session keeps working without persistence.
func openStore(v *viper.Viper) store.Store {
	st, err := store.NewSQLite(v.GetString("db"), v.GetDuration("poll-interval"))
	if err != nil {
		slog.Warn("database unavailable, state will not survive a restart",
			"path", v.GetString("db"), "error", err)
		return store.NewMemory()
	}
	return st
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	pass := v.GetString("teacher-pass")
	if pass == "" {
		return fmt.Errorf("teacher passphrase is required: set --teacher-pass flag or EDUAI_TEACHER_PASS env var")
	}
	passHash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash teacher passphrase: %w", err)
	}

	st := openStore(v)
	defer st.Close()

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	ai := genai.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
	)
	if err := ai.Ping(context.Background()); err != nil {
		return fmt.Errorf("AI endpoint health check: %w", err)
	}
	slog.Info("AI endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))

	cfg := model.AppConfig{
		Addr:          v.GetString("addr"),
		BaseURL:       strings.TrimRight(v.GetString("base-url"), "/"),
		Lang:          lang,
		SecureCookies: v.GetBool("secure-cookies"),
	}

	h := handler.New(st, ai, passHash, cfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	// Mirror cross-handle state changes into the log so a second server
	// process on the same database is visible in operation.
	cancel := st.Subscribe(func(key string) {
		slog.Info("state changed by another handle", "key", key)
	})
	defer cancel()

	slog.Info("starting server",
		"addr", cfg.Addr,
		"base_url", cfg.BaseURL,
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"lang", lang,
	)
	return http.ListenAndServe(cfg.Addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	st, err := store.NewSQLite(v.GetString("db"), time.Second)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	test, err := st.GetActiveTest()
	if err != nil {
		return fmt.Errorf("read active test: %w", err)
	}
	results, err := st.GetResults()
	if err != nil {
		return fmt.Errorf("read results: %w", err)
	}

	export := struct {
		Test       *model.TestData       `json:"test"`
		Results    []model.StudentResult `json:"results"`
		ExportedAt time.Time             `json:"exportedAt"`
	}{
		Test:       test,
		Results:    results,
		ExportedAt: time.Now().UTC(),
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}
