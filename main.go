// teamflow is a terminal client for a shared task tracker. With no
// command it opens the interactive task board; `list`, `import` and
// `logout` are scriptable one-shots that reuse the saved session.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/pflag"

	"github.com/nissyi-gh/teamflow/internal/api"
	"github.com/nissyi-gh/teamflow/internal/auth"
	"github.com/nissyi-gh/teamflow/internal/clock"
	"github.com/nissyi-gh/teamflow/internal/config"
	"github.com/nissyi-gh/teamflow/internal/importer"
	"github.com/nissyi-gh/teamflow/internal/model"
	"github.com/nissyi-gh/teamflow/internal/session"
	"github.com/nissyi-gh/teamflow/internal/tasks"
	"github.com/nissyi-gh/teamflow/internal/ui"
)

var errNotSignedIn = errors.New("not signed in; run teamflow without arguments to log in")

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	baseURL    string
	logFile    string
	debug      bool
	status     string
	priority   string
}

func run() error {
	var opts options
	flagSet := pflag.NewFlagSet("teamflow", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", "", "config file (default: $TEAMFLOW_CONFIG or $XDG_CONFIG_HOME/teamflow/config.yaml)")
	flagSet.StringVar(&opts.baseURL, "base-url", "", "task service URL, overriding the config file")
	flagSet.StringVar(&opts.logFile, "log-file", "", "write JSON log records to this file")
	flagSet.BoolVar(&opts.debug, "debug", false, "log at debug level")
	flagSet.StringVar(&opts.status, "status", "", "filter by status: Done, \"Due Today\", Missed/Late, Pending")
	flagSet.StringVar(&opts.priority, "priority", "", "filter by priority: low, medium, high")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	filter, err := parseFilter(opts.status, opts.priority)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.close()

	args := flagSet.Args()
	if len(args) == 0 {
		return a.runUI(ctx, filter)
	}
	switch args[0] {
	case "list":
		return a.list(ctx, filter)
	case "import":
		if len(args) != 2 {
			return fmt.Errorf("usage: teamflow import FILE")
		}
		return a.importFile(ctx, args[1])
	case "logout":
		return a.auth.Logout(ctx)
	}
	return fmt.Errorf("unknown command %q", args[0])
}

func parseFilter(status, priority string) (model.Filter, error) {
	s, err := model.ParseStatus(status)
	if err != nil {
		return model.Filter{}, err
	}
	p, err := model.ParsePriority(priority)
	if err != nil {
		return model.Filter{}, err
	}
	return model.Filter{Status: s, Priority: p}, nil
}

// app holds the wired components for one run.
type app struct {
	logger  *slog.Logger
	logFile *os.File
	store   *session.Store
	auth    *auth.Service
	tasks   *tasks.Controller
	clock   clock.Clock
}

func newApp(ctx context.Context, opts options) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.baseURL != "" {
		cfg.Server.BaseURL = opts.baseURL
	}
	if opts.logFile != "" {
		cfg.Log.Path = opts.logFile
	}
	if opts.debug {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &app{clock: clock.Real()}
	if err := a.openLog(cfg); err != nil {
		return nil, err
	}

	a.store, err = session.Open(cfg.Session.Path)
	if err != nil {
		a.close()
		return nil, err
	}

	timeout, _ := cfg.Timeout()
	holder := session.NewHolder(model.Session{})
	client, err := api.New(api.Config{
		BaseURL: cfg.Server.BaseURL,
		Timeout: timeout,
		Tokens:  holder,
		Logger:  a.logger,
	})
	if err != nil {
		a.close()
		return nil, err
	}

	a.auth = auth.NewService(client, a.store, holder, a.clock, a.logger)
	if _, err := a.auth.Restore(ctx); err != nil {
		a.close()
		return nil, err
	}
	a.tasks = tasks.New(client, holder, a.logger)
	return a, nil
}

func (a *app) openLog(cfg *config.Config) error {
	level, _ := cfg.Level()
	path, err := cfg.LogPath()
	if err != nil {
		return fmt.Errorf("determine log path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	a.logFile = f
	a.logger = slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
	return nil
}

func (a *app) close() {
	if a.tasks != nil {
		a.tasks.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}

func (a *app) runUI(ctx context.Context, filter model.Filter) error {
	m := ui.NewModel(ui.Options{
		Auth:    a.auth,
		Tasks:   a.tasks,
		Filter:  filter,
		Clock:   a.clock,
		Context: ctx,
		Logger:  a.logger,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}

func (a *app) list(ctx context.Context, filter model.Filter) error {
	if !a.auth.Current().Authenticated() {
		return errNotSignedIn
	}
	list, err := a.tasks.Load(ctx, filter)
	if err != nil {
		var loadErr *tasks.LoadError
		if errors.As(err, &loadErr) {
			return errors.New(loadErr.Message())
		}
		return err
	}

	now := a.clock.Now()
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "STATUS", "PRIORITY", "DUE", "ASSIGNEE", "TITLE", "ACTIONS")
	for _, task := range list {
		assignee := task.AssigneeEmail()
		if assignee == "" {
			assignee = "Unassigned"
		}
		t.Row(
			strconv.Itoa(task.ID),
			string(task.Status(now)),
			task.Priority.Label(),
			task.DueDate,
			assignee,
			task.Title,
			actions(a.tasks.Permissions(task)),
		)
	}
	fmt.Println(t.String())
	return nil
}

func actions(p model.Permissions) string {
	var names []string
	if p.CanToggle {
		names = append(names, "toggle")
	}
	if p.CanEdit {
		names = append(names, "edit")
	}
	if p.CanDelete {
		names = append(names, "delete")
	}
	if p.CanReassign {
		names = append(names, "reassign")
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}

func (a *app) importFile(ctx context.Context, path string) error {
	if !a.auth.Current().Authenticated() {
		return errNotSignedIn
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	n, err := importer.Import(ctx, a.tasks, string(data))
	if n > 0 {
		fmt.Printf("created %d task(s)\n", n)
	}
	return err
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `teamflow: shared task board in the terminal.

Usage:
  teamflow [flags]                 open the task board
  teamflow list [--status S] [--priority P]
  teamflow import FILE             create tasks from a YAML file
  teamflow logout                  end the saved session

Flags:
%s`, flagSet.FlagUsages())
}
