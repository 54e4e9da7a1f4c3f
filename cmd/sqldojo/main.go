package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/osvaldoandrade/sqldojo/internal/backoff"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type ui struct {
	title func(a ...any) string
	ok    func(a ...any) string
	info  func(a ...any) string
	warn  func(a ...any) string
	err   func(a ...any) string
	dim   func(a ...any) string
}

func newUI() *ui {
	return &ui{
		title: color.New(color.FgHiCyan, color.Bold).SprintFunc(),
		ok:    color.New(color.FgGreen, color.Bold).SprintFunc(),
		info:  color.New(color.FgCyan).SprintFunc(),
		warn:  color.New(color.FgYellow).SprintFunc(),
		err:   color.New(color.FgRed, color.Bold).SprintFunc(),
		dim:   color.New(color.FgHiBlack).SprintFunc(),
	}
}

// settings holds the resolved connection options shared by every command.
type settings struct {
	baseURL    string
	token      string
	adminToken string
	profile    string
	timeout    time.Duration
	retry      backoff.Policy
	verbose    bool
}

// exitError ends the process with code without printing anything more; the
// command already reported the outcome.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func main() {
	ui := newUI()
	root := newRootCmd(ui)
	if err := root.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, ui.err("[ERROR]"), err.Error())
		os.Exit(1)
	}
}

func newRootCmd(ui *ui) *cobra.Command {
	s := &settings{
		baseURL:    getenv("SQLDOJO_BASE_URL", "http://localhost:8080"),
		token:      getenv("SQLDOJO_TOKEN", ""),
		adminToken: getenv("SQLDOJO_ADMIN_TOKEN", ""),
		profile:    getenv("SQLDOJO_PROFILE", ""),
		timeout:    30 * time.Second,
		retry:      backoff.DefaultPolicy,
	}

	root := &cobra.Command{
		Use:   "sqldojo",
		Short: "sqldojo CLI",
		Long:  "sqldojo CLI for practicing SQL against graded levels.",
	}
	root.SetHelpTemplate(helpTemplate(ui))
	root.SilenceUsage = true
	root.SilenceErrors = true

	pf := root.PersistentFlags()
	pf.StringVar(&s.baseURL, "base-url", s.baseURL, "Base URL for the sqldojo server")
	pf.StringVar(&s.token, "token", s.token, "Learner bearer token")
	pf.StringVar(&s.adminToken, "admin-token", s.adminToken, "Admin token (self-test)")
	pf.StringVar(&s.profile, "profile", s.profile, "Config profile")
	pf.DurationVar(&s.timeout, "timeout", s.timeout, "HTTP request timeout")
	pf.IntVar(&s.retry.Attempts, "retries", s.retry.Attempts, "Attempts for transient failures (connection, 429, 503)")
	pf.BoolVarP(&s.verbose, "verbose", "v", false, "Log debug output to stderr")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return s.resolve(cmd)
	}

	root.AddCommand(
		initCmd(s, ui),
		authCmd(s, ui),
		tasksCmd(s, ui),
		taskCmd(s, ui),
		hintCmd(s, ui),
		checkCmd(s, ui),
		datasetCmd(s, ui),
		selftestCmd(s, ui),
	)
	return root
}

// resolve applies profile values to every option not set by flag or env.
func (s *settings) resolve(cmd *cobra.Command) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	active := resolveProfileName(s.profile, cfg)
	prof, ok := cfg.Profiles[active]
	if !ok {
		return nil
	}
	flags := cmd.Flags()
	if !flags.Changed("base-url") && os.Getenv("SQLDOJO_BASE_URL") == "" && prof.BaseURL != "" {
		s.baseURL = prof.BaseURL
	}
	if !flags.Changed("token") && os.Getenv("SQLDOJO_TOKEN") == "" {
		s.token = prof.Token
	}
	if !flags.Changed("admin-token") && os.Getenv("SQLDOJO_ADMIN_TOKEN") == "" {
		s.adminToken = prof.AdminToken
	}
	if prof.Retry != nil {
		attempts := s.retry.Attempts
		s.retry = *prof.Retry
		if flags.Changed("retries") || s.retry.Attempts <= 0 {
			s.retry.Attempts = attempts
		}
	}
	return nil
}

func (s *settings) logger(w io.Writer) *slog.Logger {
	if !s.verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func helpTemplate(ui *ui) string {
	title := ui.title("sqldojo")
	return fmt.Sprintf(`%s: practice SQL one level at a time

Usage:
  {{.UseLine}}

Commands:
{{range .Commands}}{{if (or .IsAvailableCommand .IsAdditionalHelpTopicCommand)}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

Flags:
  {{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

Global Flags:
  {{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

Config:
  %s

Examples:
  sqldojo init
  sqldojo tasks
  sqldojo hint 3 1
  sqldojo check 3 "SELECT name, age FROM ducklings WHERE age > 2"
  sqldojo check 3 --file answer.sql
  sqldojo dataset > ducklings.sql

`, title, configPath())
}
