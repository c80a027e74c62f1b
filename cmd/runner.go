package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songreq/internal/repositories"
	"github.com/desertthunder/songreq/internal/services"
	"github.com/desertthunder/songreq/internal/shared"
	"github.com/desertthunder/songreq/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Dependencies left nil are built from the configuration the first time a command runs.
type Runner struct {
	config     *shared.Config
	player     services.Player
	search     services.Searcher
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.StatusEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Player     services.Player
	Search     services.Searcher
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		player:     opts.Player,
		search:     opts.Search,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, playerCommand, searchCommand, userCommand, qrCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger, e.g. with a file logger while the dashboard owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// with wraps a command action so the runner is prepared before it runs.
func (r *Runner) with(action cli.ActionFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if err := r.prepare(cmd); err != nil {
			return err
		}
		return action(ctx, cmd)
	}
}

// prepare loads the configuration named by --config and builds the clients it describes.
func (r *Runner) prepare(cmd *cli.Command) error {
	if r.config == nil {
		config, err := shared.LoadOrDefault(cmd.String("config"))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := config.Validate(); err != nil {
			return err
		}
		r.config = config
		shared.SetLogLevel(r.logger, shared.ParseLogLevel(config.Log.Level))
	}

	if r.player == nil {
		r.player = services.NewPlayerClient(
			r.config.Player.BaseURL,
			services.WithHTTPClient(r.httpClient),
			services.WithTimeouts(r.config.Player.Timeout(), r.config.Player.ProbeTimeout()),
			services.WithLogger(r.logger),
		)
	}
	if r.search == nil {
		r.search = services.NewSearchService(r.config.Search.ProxyURL, r.httpClient)
	}
	if r.engine == nil {
		r.engine = tasks.NewStatusEngine(r.player)
	}
	return nil
}

// openDatabase opens the configured database and applies pending migrations.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// withUsers runs fn against a [repositories.UserRepository] on the configured database.
func (r *Runner) withUsers(fn func(users *repositories.UserRepository) error) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(repositories.NewUserRepository(db))
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
