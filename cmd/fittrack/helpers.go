package fittrack

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/saadjs/fittrack-cli/internal/api"
	"github.com/saadjs/fittrack-cli/internal/app"
	"github.com/saadjs/fittrack-cli/internal/config"
	"github.com/saadjs/fittrack-cli/internal/db"
	"github.com/saadjs/fittrack-cli/internal/logging"
	"github.com/saadjs/fittrack-cli/internal/metrics"
	"github.com/saadjs/fittrack-cli/internal/storage"
	"github.com/saadjs/fittrack-cli/internal/store"
)

const sessionExpiredHint = `Session expired. Run "fittrack login" to sign in again.`

// errReported marks failures whose message was already written to stderr.
var errReported = errors.New("reported")

var errNotLoggedIn = errors.New(`not logged in; run "fittrack login" first`)

// session is everything one command invocation needs.
type session struct {
	cfg        *config.Config
	log        *zap.Logger
	db         *sql.DB
	storage    storage.Store
	auth       *store.Auth
	client     *api.Client
	activities *store.Activities
	metrics    *metrics.Client
	expired    bool
}

func newLoader() (*config.Loader, error) {
	dir, err := app.ConfigDir()
	if err != nil {
		dir = ""
	}
	flags := rootCmd.PersistentFlags()
	return config.NewLoader(config.Options{
		ConfigDir: dir,
		EnvFile:   ".env",
		Flags: map[string]*pflag.Flag{
			config.KeyAPIBaseURL:      flags.Lookup("api-url"),
			config.KeyDBPath:          flags.Lookup("db"),
			config.KeyLogLevel:        flags.Lookup("log-level"),
			config.KeyLogFormat:       flags.Lookup("log-format"),
			config.KeyMetricsTextfile: flags.Lookup("metrics-textfile"),
		},
	})
}

func resolveDBPath(cfg *config.Config) (string, error) {
	if cfg.DBPath != "" {
		return cfg.DBPath, nil
	}
	return app.DefaultDBPath()
}

func openDB(path string) (*sql.DB, error) {
	if err := app.EnsureDBDir(path); err != nil {
		return nil, err
	}
	sqldb, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.ApplyMigrations(sqldb); err != nil {
		sqldb.Close()
		return nil, err
	}
	return sqldb, nil
}

func withDB(run func(*sql.DB) error) error {
	loader, err := newLoader()
	if err != nil {
		return err
	}
	cfg, err := loader.Load(nil)
	if err != nil {
		return err
	}
	path, err := resolveDBPath(cfg)
	if err != nil {
		return err
	}
	sqldb, err := openDB(path)
	if err != nil {
		return err
	}
	defer sqldb.Close()
	return run(sqldb)
}

// withSession wires storage, the auth store, the API client and the
// activity store, restores any saved session and runs fn.
func withSession(cmd *cobra.Command, run func(*session) error) (err error) {
	loader, err := newLoader()
	if err != nil {
		return err
	}
	cfg, err := loader.Load(nil)
	if err != nil {
		return err
	}

	s := &session{metrics: metrics.NewClient()}
	var dbErr error
	if path, perr := resolveDBPath(cfg); perr != nil {
		dbErr = perr
	} else if s.db, dbErr = openDB(path); dbErr == nil {
		defer s.db.Close()
	}

	persisted := map[string]string{}
	if s.db != nil {
		s.storage = storage.NewLocal(s.db)
		if persisted, err = storage.ListConfig(s.db); err != nil {
			return err
		}
	} else {
		s.storage = storage.NewMemory()
	}
	if s.cfg, err = loader.Load(persisted); err != nil {
		return err
	}

	s.log = logging.New(s.cfg.LogLevel, s.cfg.LogFormat, cmd.ErrOrStderr())
	defer func() { _ = s.log.Sync() }()
	if dbErr != nil {
		s.log.Warn("local storage unavailable; session will not be saved", zap.Error(dbErr))
	}
	if used := loader.ConfigFileUsed(); used != "" {
		s.log.Debug("loaded config file", zap.String("path", used))
	}

	s.auth = store.NewAuth(s.storage, s.log)
	s.auth.RestoreFromStorage()

	s.client = &api.Client{
		BaseURL:    s.cfg.APIBaseURL,
		HTTPClient: &http.Client{Timeout: s.cfg.RequestTimeout},
		Storage:    s.storage,
		Logger:     s.log,
		Metrics:    s.metrics,
		OnSessionExpired: func() {
			if !s.expired {
				fmt.Fprintln(cmd.ErrOrStderr(), sessionExpiredHint)
			}
			s.expired = true
			s.auth.Logout()
		},
	}
	s.client.SetTokenProvider(s.auth.Token)

	s.activities = store.NewActivities(s.client, s.auth, s.log)
	unsubscribe := s.activities.Subscribe(func(st store.ActivitiesState) {
		s.log.Debug("activities state",
			zap.Int("count", len(st.Activities)),
			zap.Bool("loading", st.Loading),
			zap.Bool("fetching_detail", st.FetchingDetail),
			zap.Bool("adding", st.AddingActivity),
			zap.Bool("deleting", st.DeletingActivity),
			zap.String("error", st.Err))
	})
	defer unsubscribe()

	defer func() {
		if s.cfg.MetricsTextfile == "" {
			return
		}
		if werr := s.metrics.WriteTextfile(s.cfg.MetricsTextfile); werr != nil && err == nil {
			err = werr
		}
	}()
	return run(s)
}

func (s *session) requireLogin() error {
	if !s.auth.IsAuthenticated() {
		return errNotLoggedIn
	}
	return nil
}

// failure turns a store error message into a command error. A 401 has
// already printed its hint.
func (s *session) failure(msg string) error {
	if s.expired {
		return errReported
	}
	return errors.New(msg)
}

// apiFailure is failure for direct client calls.
func (s *session) apiFailure(err error) error {
	if errors.Is(err, api.ErrSessionExpired) {
		return errReported
	}
	var transportErr *api.TransportError
	if errors.As(err, &transportErr) {
		return fmt.Errorf("could not reach %s: %w", s.cfg.APIBaseURL, transportErr.Err)
	}
	return err
}

func parseMetrics(pairs []string) (map[string]any, error) {
	out := map[string]any{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --metric %q (expected key=value)", pair)
		}
		value = strings.TrimSpace(value)
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			out[key] = n
			continue
		}
		out[key] = value
	}
	return out, nil
}
