package session

import (
	"context"
	"sync"
	"time"

	"github.com/antonkuzmin/adminctl/internal/client/models"
	"github.com/antonkuzmin/adminctl/internal/client/notify"
	"github.com/antonkuzmin/adminctl/internal/common"
	"github.com/antonkuzmin/adminctl/internal/logging"
)

// API is the surface the gate needs from the REST client.
type API interface {
	Login(ctx context.Context, username, password string) (string, error)
	Profile(ctx context.Context) (*models.Owner, error)
	SetToken(token string)
	ClearToken()
}

// Gate owns the session state machine:
//
//	{Unauthenticated} --login / revalidation ok--> {Authorized}
//	{Authorized} --revalidation failure, logout, missing credential--> {Unauthenticated}
//
// Initial state is Unauthenticated; the cycle is driven by Run's timer.
// A failed check is terminal until the user logs in again.
type Gate struct {
	api   API
	creds *CredentialStore
	bus   *notify.Bus
	log   logging.Logger

	mu         sync.Mutex
	authorized bool
}

func NewGate(api API, creds *CredentialStore, bus *notify.Bus, log logging.Logger) *Gate {
	return &Gate{api: api, creds: creds, bus: bus, log: log.With("component", "gate")}
}

// Authorized reports whether the session is currently established.
func (g *Gate) Authorized() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.authorized
}

// Check proves the stored credential against the profile endpoint. On
// success the credential's expiry slides forward; on any failure the
// session is torn down and the error surfaced. A missing credential tears
// down quietly.
func (g *Gate) Check(ctx context.Context) {
	g.bus.SetLoading(true)
	defer g.bus.SetLoading(false)

	token := g.creds.Load()
	if token == "" {
		g.teardown()
		return
	}

	g.api.SetToken(token)
	if _, err := g.api.Profile(ctx); err != nil {
		g.log.Warn(ctx, "revalidation failed", "err", err)
		g.bus.SetError(err.Error())
		g.teardown()
		return
	}

	if err := g.creds.Save(token); err != nil {
		g.log.Warn(ctx, "sliding credential expiry failed", "err", err)
	}
	g.setAuthorized(true)
}

// Login validates the fields, exchanges them for a token and establishes
// the session. Validation failures surface before any network call.
func (g *Gate) Login(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		g.bus.SetError(`field "username" and "password" is required`)
		return common.ErrFieldRequired
	}

	token, err := g.api.Login(ctx, username, password)
	if err != nil {
		g.bus.SetError(err.Error())
		g.teardown()
		return err
	}

	if err := g.creds.Save(token); err != nil {
		g.log.Warn(ctx, "persisting credential failed", "err", err)
	}
	g.api.SetToken(token)
	g.setAuthorized(true)
	return nil
}

// Logout destroys the credential and flips to Unauthenticated.
func (g *Gate) Logout() {
	_ = g.creds.Clear()
	g.teardown()
}

// Run checks immediately, then re-checks on every tick until ctx is done.
func (g *Gate) Run(ctx context.Context, interval time.Duration) {
	g.Check(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (g *Gate) teardown() {
	_ = g.creds.Clear()
	g.api.ClearToken()
	g.setAuthorized(false)
}

func (g *Gate) setAuthorized(v bool) {
	g.mu.Lock()
	g.authorized = v
	g.mu.Unlock()
}
