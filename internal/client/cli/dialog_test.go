package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antonkuzmin/adminctl/internal/client/api"
	"github.com/antonkuzmin/adminctl/internal/client/models"
	"github.com/antonkuzmin/adminctl/internal/client/notify"
	"github.com/antonkuzmin/adminctl/internal/client/store"
	"github.com/antonkuzmin/adminctl/internal/logging"
)

// adminServer simulates the auth service's admin collection with a
// many-to-many company membership.
type adminServer struct {
	mu        sync.Mutex
	companies []models.Company
	admin     models.Admin
}

func (s *adminServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /companies", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s.companies)
	})
	mux.HandleFunc("GET /admins", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]models.Admin{s.admin})
	})
	mux.HandleFunc("POST /admins/1/companies/{cid}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, c := range s.companies {
			if r.PathValue("cid") == "2" && c.ID == 2 {
				s.admin.Companies = append(s.admin.Companies, c)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s.admin)
	})
	mux.HandleFunc("DELETE /admins/1/companies/{cid}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		kept := s.admin.Companies[:0]
		for _, c := range s.admin.Companies {
			if r.PathValue("cid") != "1" || c.ID != 1 {
				kept = append(kept, c)
			}
		}
		s.admin.Companies = kept
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s.admin)
	})
	return mux
}

func newAdminsApp(t *testing.T) (*App, *adminServer) {
	t.Helper()

	state := &adminServer{
		companies: []models.Company{
			{ID: 1, Username: "acme"},
			{ID: 2, Username: "globex"},
		},
		admin: models.Admin{
			ID: 1, Username: "adm", Surname: "Stone", Name: "Alex",
			Companies: []models.Company{{ID: 1, Username: "acme"}},
		},
	}

	srv := httptest.NewServer(state.handler())
	t.Cleanup(srv.Close)

	bus := notify.NewBus()
	log := logging.NewZerologLogger(io.Discard, zerolog.Disabled)
	client := api.New(api.Options{
		OauthBaseURL:   srv.URL,
		StorageBaseURL: srv.URL,
		Timeout:        time.Second,
		Bus:            bus,
		Logger:         log,
	})

	a := &App{
		bus:    bus,
		log:    log,
		api:    client,
		out:    &bytes.Buffer{},
		reader: bufio.NewReader(strings.NewReader("")),
	}
	a.companies = store.New(companyDescriptor(), client.Oauth(), bus, log)
	a.admins = store.New(adminDescriptor(a), client.Oauth(), bus, log)
	t.Cleanup(a.companies.Close)
	t.Cleanup(a.admins.Close)
	return a, state
}

func TestAdminsRelationDialog_AddMember(t *testing.T) {
	silencePrintln(t)
	a, state := newAdminsApp(t)

	scriptInput(t, "add 2", "done")

	err := a.adminsPage().run(context.Background(), []string{"companies", "1"})
	require.NoError(t, err)

	assert.Len(t, state.admin.Companies, 2)

	item, ok := a.admins.Find("1")
	require.True(t, ok)
	assert.Equal(t, "acme, globex", item.CompanyNames)
	assert.Equal(t, store.DialogNone, a.admins.Dialog().Kind)
}

func TestAdminsRelationDialog_RemoveMember(t *testing.T) {
	silencePrintln(t)
	a, state := newAdminsApp(t)

	scriptInput(t, "remove 1", "done")

	err := a.adminsPage().run(context.Background(), []string{"companies", "1"})
	require.NoError(t, err)

	assert.Empty(t, state.admin.Companies)

	item, ok := a.admins.Find("1")
	require.True(t, ok)
	assert.Equal(t, "", item.CompanyNames)
}

func TestAdminsUpdateDialog_SwitchesToRelation(t *testing.T) {
	silencePrintln(t)
	a, _ := newAdminsApp(t)

	// Keep every field, press the Companies button, then leave the
	// relation dialog without changes.
	scriptInput(t,
		"", "", "", "", "", "", "", "", "", // editable fields
		"Companies",
		"done",
	)

	err := a.adminsPage().run(context.Background(), []string{"update", "1"})
	require.NoError(t, err)

	assert.Equal(t, store.DialogNone, a.admins.Dialog().Kind)
}
