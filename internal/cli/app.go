package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/mnbf9rca/family-medical-app-sub001/internal/auth"
	"github.com/mnbf9rca/family-medical-app-sub001/internal/config"
	"github.com/mnbf9rca/family-medical-app-sub001/internal/exchange"
	"github.com/mnbf9rca/family-medical-app-sub001/internal/filex"
	"github.com/mnbf9rca/family-medical-app-sub001/internal/lockout"
	"github.com/mnbf9rca/family-medical-app-sub001/internal/logging"
	"github.com/mnbf9rca/family-medical-app-sub001/internal/pake"
	"github.com/mnbf9rca/family-medical-app-sub001/internal/vault"

	_ "modernc.org/sqlite"
)

// demoNamespace isolates the demo account's slots from real data.
const demoNamespace = "demo"

type App struct {
	config *config.Config
	orch   *auth.Orchestrator
	log    logging.Logger
	db     *sql.DB
	reader *bufio.Reader
}

// NewApp wires the whole client: sqlite vault, exchange transport and the
// orchestrator on top. In demo mode the vault runs in its own namespace
// and the exchange bypass is active, so nothing touches real data or the
// real server.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := logging.NewDefault()

	dsn, err := resolveDSN(c.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	backend, db, err := vault.InitDatabase(ctx, dsn)
	if err != nil {
		log.Error(ctx, "error initializing database", "err", err)
		return nil, err
	}

	var vaultOpts []vault.Option
	testingMode := c.TestingMode
	if c.DemoMode {
		vaultOpts = append(vaultOpts, vault.WithNamespace(demoNamespace))
		testingMode = true
	}
	v := vault.New(backend, vaultOpts...)

	deviceID, err := ensureDeviceID(ctx, v)
	if err != nil {
		db.Close()
		return nil, err
	}

	ex := exchange.NewHTTPClient(c.ServerBaseURL, pake.NewOpaqueEngine(), log,
		exchange.WithHTTPClient(httpClientFor(c)),
		exchange.WithDeviceID(deviceID),
		exchange.WithTestingMode(testingMode))

	orch := auth.New(ex, v, lockout.New(v), auth.WithLogger(log))

	return &App{
		config: c,
		orch:   orch,
		log:    log,
		db:     db,
		reader: bufio.NewReader(os.Stdin),
	}, nil
}

// httpClientFor builds the exchange transport with the configured
// per-request timeout.
func httpClientFor(c *config.Config) *http.Client {
	return &http.Client{Timeout: c.HTTPTimeout}
}

// resolveDSN places a bare database filename inside a "data" subdirectory
// of the working directory, creating it if needed. Paths that already
// carry a directory are used as-is.
func resolveDSN(dsn string) (string, error) {
	if filepath.Dir(dsn) != "." {
		return dsn, nil
	}
	dir, err := filex.EnsureSubdDir("data")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dsn), nil
}

// ensureDeviceID returns the persisted per-install identifier, minting one
// on first run. The identifier survives logout.
func ensureDeviceID(ctx context.Context, v *vault.Vault) (string, error) {
	id, err := v.DeviceID(ctx)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, vault.ErrNotSet) {
		return "", err
	}
	id = uuid.NewString()
	if err := v.SetDeviceID(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.db.Close()
	a.Root(ctx)
}

func (a *App) isSetUp(ctx context.Context) bool {
	setUp, err := a.orch.IsSetUp(ctx)
	if err != nil {
		a.log.Error(ctx, "vault check failed", "err", err)
		return false
	}
	return setUp
}
