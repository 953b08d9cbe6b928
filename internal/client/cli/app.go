package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/antonkuzmin/adminctl/internal/client/api"
	"github.com/antonkuzmin/adminctl/internal/client/config"
	"github.com/antonkuzmin/adminctl/internal/client/models"
	"github.com/antonkuzmin/adminctl/internal/client/notify"
	"github.com/antonkuzmin/adminctl/internal/client/session"
	"github.com/antonkuzmin/adminctl/internal/client/store"
	"github.com/antonkuzmin/adminctl/internal/logging"
)

// App wires the REST client, the session gate, the notification bus and the
// per-collection stores into an interactive console.
type App struct {
	config *config.Config
	log    logging.Logger
	bus    *notify.Bus
	api    *api.Client
	gate   *session.Gate

	companies *store.Store[models.Company]
	users     *store.Store[models.User]
	admins    *store.Store[models.Admin]
	owners    *store.Store[models.Owner]
	notes     *store.Store[models.Note]
	files     *store.Store[models.FileInfo]

	pages map[string]pageRunner

	reader *bufio.Reader
	out    io.Writer
}

func NewApp(c *config.Config, log logging.Logger) (*App, error) {
	bus := notify.NewBus()

	apiClient := api.New(api.Options{
		OauthBaseURL:   c.OauthBaseURL,
		StorageBaseURL: c.StorageBaseURL,
		Timeout:        c.RequestTimeout,
		Bus:            bus,
		Logger:         log,
	})

	creds, err := session.NewCredentialStore(c.CredentialFile, c.TokenTTL)
	if err != nil {
		return nil, err
	}

	a := &App{
		config: c,
		log:    log,
		bus:    bus,
		api:    apiClient,
		gate:   session.NewGate(apiClient, creds, bus, log),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
	a.buildStores()
	a.buildPages()
	return a, nil
}

func (a *App) isAuthorized() bool {
	return a.gate.Authorized()
}

// Run revalidates the stored credential in the background and hands control
// to the REPL. It returns when the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.closeStores()

	printlnFn("Welcome to the admin console (type 'help' for commands)")

	go a.gate.Run(ctx, a.config.RevalidateInterval)

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

func (a *App) getStatus() string {
	s := ""
	if a.gate.Authorized() {
		s = "authorized"
	}
	if a.bus.State().Loading {
		s = strings.TrimSpace(s + " ...")
	}
	if s != "" {
		s = "(" + s + ")"
	}
	return s
}

// Notices returns the pending error and message slots of the notification
// channel, formatted for the prompt. Empty when there is nothing to show.
func (a *App) Notices() string {
	st := a.bus.State()
	var parts []string
	if st.Error != "" {
		parts = append(parts, "error: "+st.Error)
	}
	if st.Message != "" {
		parts = append(parts, st.Message)
	}
	return strings.Join(parts, "\n")
}

// Dismiss clears the pending error and message slots.
func (a *App) Dismiss() {
	a.bus.Dismiss()
}

func (a *App) closeStores() {
	a.companies.Close()
	a.users.Close()
	a.admins.Close()
	a.owners.Close()
	a.notes.Close()
	a.files.Close()
}
