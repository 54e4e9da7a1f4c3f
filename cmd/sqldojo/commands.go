package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/osvaldoandrade/sqldojo/internal/dataset"
	"github.com/osvaldoandrade/sqldojo/internal/providers"
	"github.com/osvaldoandrade/sqldojo/internal/services"
	"github.com/osvaldoandrade/sqldojo/pkg/catalog"
	"github.com/osvaldoandrade/sqldojo/pkg/config"
	"github.com/osvaldoandrade/sqldojo/pkg/domain"

	"github.com/briandowns/spinner"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func initCmd(s *settings, ui *ui) *cobra.Command {
	var (
		baseURL  string
		token    string
		noPrompt bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize CLI config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			prof := cfg.Profiles[resolveProfileName(s.profile, cfg)]
			baseURL = firstNonEmpty(baseURL, prof.BaseURL, "http://localhost:8080")

			if !noPrompt {
				reader := bufio.NewReader(os.Stdin)
				baseURL = prompt(reader, "Server URL", baseURL)
				if token == "" {
					token = prompt(reader, "Learner token (optional)", "")
				}
			}

			active, path, err := updateProfile(s.profile, func(p *profile) {
				p.BaseURL = strings.TrimSpace(baseURL)
				if token != "" {
					p.Token = strings.TrimSpace(token)
				}
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Initialized profile '%s' at %s\n", ui.ok("[OK]"), active, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "server", "", "Server URL to store in the profile")
	cmd.Flags().StringVar(&token, "learner-token", "", "Learner token to store in the profile")
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "Disable interactive prompts")
	return cmd
}

func authCmd(s *settings, ui *ui) *cobra.Command {
	auth := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored credentials",
	}

	var (
		token      string
		adminToken string
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Store tokens in config",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" && adminToken == "" {
				if !stdinIsTerminal() {
					return errors.New("provide --learner-token and/or --admin-token")
				}
				t, err := promptSecret("Learner token")
				if err != nil {
					return err
				}
				token = t
			}
			if token == "" && adminToken == "" {
				return errors.New("no token given")
			}
			active, _, err := updateProfile(s.profile, func(p *profile) {
				if token != "" {
					p.Token = strings.TrimSpace(token)
				}
				if adminToken != "" {
					p.AdminToken = strings.TrimSpace(adminToken)
				}
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Credentials updated for '%s'\n", ui.ok("[OK]"), active)
			return nil
		},
	}
	set.Flags().StringVar(&token, "learner-token", "", "Learner bearer token")
	set.Flags().StringVar(&adminToken, "admin-token", "", "Admin token")

	show := &cobra.Command{
		Use:   "show",
		Short: "Show stored credentials (masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(s.profile, cfg)
			prof := cfg.Profiles[active]
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s\n", ui.dim("Config:"), path)
			fmt.Fprintf(w, "%s %s\n", ui.dim("Profile:"), active)
			fmt.Fprintf(w, "%s %s\n", ui.dim("Server:"), firstNonEmpty(prof.BaseURL, s.baseURL))
			fmt.Fprintf(w, "%s %s\n", ui.dim("Learner token:"), maskToken(prof.Token))
			fmt.Fprintf(w, "%s %s\n", ui.dim("Admin token:"), maskToken(prof.AdminToken))
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove stored tokens from the profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			active, _, err := updateProfile(s.profile, func(p *profile) {
				p.Token = ""
				p.AdminToken = ""
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Credentials cleared for '%s'\n", ui.ok("[OK]"), active)
			return nil
		},
	}

	auth.AddCommand(set, show, clearCmd)
	return auth
}

func tasksCmd(s *settings, ui *ui) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List the graded levels",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Tasks []domain.TaskView `json:"tasks"`
			}
			err := withSpinner(cmd, " Fetching levels...", func() error {
				return newClient(s).getJSON(cmd.Context(), "/v1/dojo/tasks", &resp)
			})
			if err != nil {
				return err
			}
			renderTasks(cmd.OutOrStdout(), ui, resp.Tasks)
			return nil
		},
	}
}

func taskCmd(s *settings, ui *ui) *cobra.Command {
	return &cobra.Command{
		Use:   "task <id>",
		Short: "Show one level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			var view domain.TaskView
			if err := newClient(s).getJSON(cmd.Context(), fmt.Sprintf("/v1/dojo/tasks/%d", id), &view); err != nil {
				return err
			}
			renderTask(cmd.OutOrStdout(), ui, view)
			return nil
		},
	}
}

func hintCmd(s *settings, ui *ui) *cobra.Command {
	return &cobra.Command{
		Use:     "hint <id> <n>",
		Short:   "Show hint n for a level",
		Example: "sqldojo hint 3 1",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil {
				return fmt.Errorf("hint number must be an integer: %q", args[1])
			}
			var hint domain.Hint
			if err := newClient(s).getJSON(cmd.Context(), fmt.Sprintf("/v1/dojo/tasks/%d/hints/%d", id, n), &hint); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s\n", ui.info(fmt.Sprintf("Hint %d/%d:", hint.Index, hint.Total)), hint.Text)
			if hint.Index < hint.Total {
				fmt.Fprintln(w, ui.dim(fmt.Sprintf("Next: sqldojo hint %d %d", id, hint.Index+1)))
			}
			return nil
		},
	}
}

func checkCmd(s *settings, ui *ui) *cobra.Command {
	var (
		file  string
		local bool
	)
	cmd := &cobra.Command{
		Use:   "check <id> [sql]",
		Short: "Grade a query against a level",
		Long:  "Grade a query against a level. The query comes from the arguments, --file, or stdin.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			sql, err := readSQL(cmd.InOrStdin(), args[1:], file)
			if err != nil {
				return err
			}

			var out *domain.CheckOutcome
			if local {
				out, err = checkLocal(cmd.Context(), s, cmd.ErrOrStderr(), id, sql)
			} else {
				out, err = checkRemote(cmd, s, id, sql)
			}
			if err != nil {
				return err
			}
			if !renderOutcome(cmd.OutOrStdout(), ui, out) {
				return &exitError{code: 2}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the query from a file")
	cmd.Flags().BoolVar(&local, "local", false, "Grade in-process instead of calling the server")
	return cmd
}

func checkRemote(cmd *cobra.Command, s *settings, id int, sql string) (*domain.CheckOutcome, error) {
	c := newClient(s)
	var (
		status int
		resp   []byte
	)
	err := withSpinner(cmd, " Grading...", func() error {
		var err error
		status, resp, err = c.request(cmd.Context(), http.MethodPost, fmt.Sprintf("/v1/dojo/tasks/%d/check", id), domain.CheckRequest{SQL: sql})
		return err
	})
	if err != nil {
		return nil, err
	}
	// Internal errors still carry a graded outcome body.
	if status == http.StatusOK || status == http.StatusInternalServerError {
		var out domain.CheckOutcome
		if jsonErr := decodeOutcome(resp, &out); jsonErr == nil {
			return &out, nil
		}
	}
	return nil, decodeAPIError(status, resp)
}

func checkLocal(ctx context.Context, s *settings, logw io.Writer, id int, sql string) (*domain.CheckOutcome, error) {
	svc, closeFn, err := localGrader(ctx, s, logw)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	out, err := svc.Check(ctx, id, sql)
	if errors.Is(err, domain.ErrTaskNotFound) {
		return nil, errors.New("Unknown task_id. Try: sqldojo tasks")
	}
	return out, err
}

func datasetCmd(s *settings, ui *ui) *cobra.Command {
	var (
		describe bool
		local  bool
	)
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Print the ducklings setup script",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			var info domain.DatasetInfo
			if local {
				info = dataset.Describe()
			} else if err := newClient(s).getJSON(cmd.Context(), "/v1/dojo/dataset", &info); err != nil {
				return err
			}
			if describe {
				fmt.Fprintf(w, "%s %s (%s), %d rows\n", ui.info("Table:"), info.Table, strings.Join(info.Columns, ", "), info.RowCount)
				return nil
			}
			fmt.Fprint(w, info.Script)
			return nil
		},
	}
	cmd.Flags().BoolVar(&describe, "describe", false, "Describe the table instead of printing the script")
	cmd.Flags().BoolVar(&local, "local", false, "Use the built-in dataset without calling the server")
	return cmd
}

func selftestCmd(s *settings, ui *ui) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Grade every canonical query against itself",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				report *domain.SelfTestReport
				err    error
			)
			if remote {
				report, err = selftestRemote(cmd, s)
			} else {
				report, err = selftestLocal(cmd, s)
			}
			if err != nil {
				return err
			}
			renderReport(cmd.OutOrStdout(), ui, report)
			if report.Failed > 0 {
				return &exitError{code: 2}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Run on the server (requires an admin token)")
	return cmd
}

func selftestRemote(cmd *cobra.Command, s *settings) (*domain.SelfTestReport, error) {
	if s.adminToken == "" {
		return nil, errors.New("admin token is required (sqldojo auth set --admin-token ...)")
	}
	c := newClient(s)
	var (
		status int
		resp   []byte
	)
	err := withSpinner(cmd, " Running self-test on server...", func() error {
		var err error
		status, resp, err = c.request(cmd.Context(), http.MethodPost, "/v1/dojo/admin/selftest", nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	var report domain.SelfTestReport
	if (status == http.StatusOK || status == http.StatusInternalServerError) && decodeReport(resp, &report) == nil {
		return &report, nil
	}
	return nil, decodeAPIError(status, resp)
}

func selftestLocal(cmd *cobra.Command, s *settings) (*domain.SelfTestReport, error) {
	ctx := cmd.Context()
	svc, closeFn, err := localGrader(ctx, s, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	defer closeFn()

	bar := progressbar.NewOptions(catalog.Default().Len(),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("Grading canonical queries"),
		progressbar.OptionSetWidth(18),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	report, err := svc.SelfTest(ctx, func(domain.SelfTestResult) { _ = bar.Add(1) })
	_ = bar.Finish()
	return report, err
}

// localGrader builds an in-process grading service on a private sqlite engine.
func localGrader(ctx context.Context, s *settings, logw io.Writer) (services.GradingService, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	eng, err := providers.NewEngine(ctx, config.EngineConfig{Driver: "sqlite", QueryTimeoutSeconds: 5})
	if err != nil {
		return nil, nil, err
	}
	svc := services.NewGradingService(catalog.Default(), eng, dataset.NewProvisioner(), s.logger(logw), time.Now)
	return svc, func() { _ = eng.Close() }, nil
}

func withSpinner(cmd *cobra.Command, suffix string, fn func() error) error {
	spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
	spin.Suffix = suffix
	spin.Start()
	err := fn()
	spin.Stop()
	return err
}

func parseTaskID(v string) (int, error) {
	var id domain.TaskID
	if err := id.UnmarshalText([]byte(v)); err != nil {
		return 0, err
	}
	return int(id), nil
}

// readSQL picks the query from args, then --file, then piped stdin.
func readSQL(stdin io.Reader, args []string, file string) (string, error) {
	if len(args) > 0 && file != "" {
		return "", errors.New("pass the query as an argument or with --file, not both")
	}
	var sql string
	switch {
	case len(args) > 0:
		sql = strings.Join(args, " ")
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		sql = string(b)
	default:
		if f, ok := stdin.(*os.File); ok && f == os.Stdin && stdinIsTerminal() {
			return "", errors.New("no query given (pass it as an argument, with --file, or on stdin)")
		}
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", err
		}
		sql = string(b)
	}
	if strings.TrimSpace(sql) == "" {
		return "", errors.New("the query is empty")
	}
	return sql, nil
}
