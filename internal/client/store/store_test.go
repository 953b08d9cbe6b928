package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"testing"
	"time"

	"github.com/antonkuzmin/adminctl/internal/client/models"
	"github.com/antonkuzmin/adminctl/internal/client/notify"
	"github.com/antonkuzmin/adminctl/internal/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend cans responses per operation and records calls.
type fakeBackend struct {
	listResp   any
	listErr    error
	listCalls  int
	createResp any
	createErr  error
	createBody any
	createPath string
	listPath   string
	updateResp any
	updateErr  error
	updatePath string
	deleteErr  error
	deletePath string

	block chan struct{} // when set, List waits for ctx or the channel
}

func respond(src, out any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (f *fakeBackend) List(ctx context.Context, path string, out any) error {
	f.listCalls++
	f.listPath = path
	if f.block != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.block:
		}
	}
	if f.listErr != nil {
		return f.listErr
	}
	return respond(f.listResp, out)
}

func (f *fakeBackend) Create(ctx context.Context, path string, body any, out any) error {
	f.createBody = body
	f.createPath = path
	if f.createErr != nil {
		return f.createErr
	}
	return respond(f.createResp, out)
}

func (f *fakeBackend) Update(ctx context.Context, path string, body any, out any) error {
	f.updatePath = path
	if f.updateErr != nil {
		return f.updateErr
	}
	return respond(f.updateResp, out)
}

func (f *fakeBackend) Delete(ctx context.Context, path string) error {
	f.deletePath = path
	return f.deleteErr
}

func companyDescriptor() Descriptor[models.Company] {
	return Descriptor[models.Company]{
		Name:     "companies",
		ListPath: "/companies/",
		ItemPath: func(id string) string { return "/companies/" + id },
		Default:  func() models.Company { return models.Company{} },
		ID:       func(c models.Company) string { return strconv.Itoa(c.ID) },
		Payload: func(c models.Company) any {
			return map[string]string{"username": c.Username, "description": c.Description}
		},
	}
}

func newCompanyStore(f *fakeBackend) (*Store[models.Company], *notify.Bus) {
	bus := notify.NewBus()
	log := logging.NewZerologLogger(io.Discard, zerolog.Disabled)
	return New(companyDescriptor(), f, bus, log), bus
}

func companies(ids ...int) []models.Company {
	out := make([]models.Company, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Company{ID: id, Username: fmt.Sprintf("c%d", id)})
	}
	return out
}

func TestLoad_ReplacesCollectionWholesale(t *testing.T) {
	f := &fakeBackend{listResp: companies(5, 7, 9)}
	s, _ := newCompanyStore(f)
	defer s.Close()

	require.NoError(t, s.Load(context.Background()))
	assert.Len(t, s.Items(), 3)

	f.listResp = companies(1)
	require.NoError(t, s.Load(context.Background()))
	assert.Len(t, s.Items(), 1)
}

func TestLoad_FailureLeavesCollectionUnchanged(t *testing.T) {
	f := &fakeBackend{listResp: companies(5, 7)}
	s, bus := newCompanyStore(f)
	defer s.Close()
	require.NoError(t, s.Load(context.Background()))

	f.listErr = errors.New("boom")
	require.Error(t, s.Load(context.Background()))

	assert.Len(t, s.Items(), 2)
	assert.Equal(t, "boom", bus.State().Error)
}

func TestCloseDialog_ResetsAndIsIdempotent(t *testing.T) {
	s, _ := newCompanyStore(&fakeBackend{})
	defer s.Close()

	s.OpenDialog(DialogUpdate, models.Company{ID: 3, Username: "acme"})
	assert.Equal(t, DialogUpdate, s.Dialog().Kind)
	assert.Equal(t, "acme", s.Draft().Username)

	s.CloseDialog()
	first := s.Draft()
	assert.Equal(t, DialogNone, s.Dialog().Kind)
	assert.Equal(t, models.Company{}, first)

	s.CloseDialog()
	assert.Equal(t, DialogNone, s.Dialog().Kind)
	assert.Equal(t, first, s.Draft())
}

func TestOpenCreate_UsesDefaultTemplate(t *testing.T) {
	s, _ := newCompanyStore(&fakeBackend{})
	defer s.Close()

	s.UpdateDraft(func(c *models.Company) { c.Username = "leftover" })
	s.OpenCreate()

	assert.Equal(t, DialogCreate, s.Dialog().Kind)
	assert.Equal(t, models.Company{}, s.Draft())
}

func TestUpdateDraft_Synchronous(t *testing.T) {
	s, _ := newCompanyStore(&fakeBackend{})
	defer s.Close()

	s.OpenCreate()
	s.UpdateDraft(func(c *models.Company) { c.Username = "acme" })
	s.UpdateDraft(func(c *models.Company) { c.Description = "widgets" })

	d := s.Draft()
	assert.Equal(t, "acme", d.Username)
	assert.Equal(t, "widgets", d.Description)
}

func TestCommitCreate_AppendsServerEntityAndCloses(t *testing.T) {
	f := &fakeBackend{
		listResp:   companies(5, 7),
		createResp: models.Company{ID: 9, Username: "created-by-server"},
	}
	s, _ := newCompanyStore(f)
	defer s.Close()
	require.NoError(t, s.Load(context.Background()))

	s.OpenCreate()
	s.UpdateDraft(func(c *models.Company) { c.Username = "typed-locally" })
	require.NoError(t, s.CommitCreate(context.Background()))

	items := s.Items()
	require.Len(t, items, 3)
	// the server representation wins over the local draft
	assert.Equal(t, "created-by-server", items[2].Username)
	assert.Equal(t, DialogNone, s.Dialog().Kind)

	seen := map[int]bool{}
	for _, it := range items {
		assert.False(t, seen[it.ID], "duplicate id %d", it.ID)
		seen[it.ID] = true
	}
}

func TestCommitCreate_StripsListQuery(t *testing.T) {
	f := &fakeBackend{
		listResp:   []models.Note{{ID: 1, Title: "first"}},
		createResp: models.Note{ID: 2, Title: "second"},
	}
	bus := notify.NewBus()
	log := logging.NewZerologLogger(io.Discard, zerolog.Disabled)
	s := New(Descriptor[models.Note]{
		Name:     "notes",
		ListPath: "/notes?owner=me",
		ItemPath: func(id string) string { return "/notes/" + id },
		Default:  func() models.Note { return models.Note{} },
		ID:       func(n models.Note) string { return strconv.Itoa(n.ID) },
		Payload:  func(n models.Note) any { return n },
	}, f, bus, log)
	defer s.Close()

	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, "/notes?owner=me", f.listPath, "list keeps its filter")

	s.OpenCreate()
	s.UpdateDraft(func(n *models.Note) { n.Title = "second" })
	require.NoError(t, s.CommitCreate(context.Background()))
	assert.Equal(t, "/notes", f.createPath, "create posts to the bare collection")
}

func TestCommitCreate_FailureKeepsDialogAndDraft(t *testing.T) {
	f := &fakeBackend{listResp: companies(5), createErr: errors.New("boom")}
	s, bus := newCompanyStore(f)
	defer s.Close()
	require.NoError(t, s.Load(context.Background()))

	s.OpenCreate()
	s.UpdateDraft(func(c *models.Company) { c.Username = "typed" })
	require.Error(t, s.CommitCreate(context.Background()))

	assert.Equal(t, DialogCreate, s.Dialog().Kind, "dialog stays open for retry")
	assert.Equal(t, "typed", s.Draft().Username, "draft not lost")
	assert.Len(t, s.Items(), 1)
	assert.Equal(t, "boom", bus.State().Error)
}

func TestCommitUpdate_ReplacesByIDOnly(t *testing.T) {
	created := "2024-01-01T00:00:00Z"
	orig := []models.Company{
		{ID: 5, Username: "five", CreatedAt: &created},
		{ID: 7, Username: "seven"},
	}
	f := &fakeBackend{
		listResp:   orig,
		updateResp: models.Company{ID: 7, Username: "renamed"},
	}
	s, _ := newCompanyStore(f)
	defer s.Close()
	require.NoError(t, s.Load(context.Background()))
	before := s.Items()

	s.OpenDialog(DialogUpdate, before[1])
	s.UpdateDraft(func(c *models.Company) { c.Username = "renamed" })
	require.NoError(t, s.CommitUpdate(context.Background()))

	after := s.Items()
	require.Len(t, after, 2)
	assert.Equal(t, "renamed", after[1].Username)
	assert.Equal(t, "/companies/7", f.updatePath)
	// untouched entry is the very same value, down to pointer identity
	assert.Same(t, before[0].CreatedAt, after[0].CreatedAt)
	assert.Equal(t, before[0], after[0])
	assert.Equal(t, DialogNone, s.Dialog().Kind)
}

func TestCommitDelete_RemovesByID(t *testing.T) {
	f := &fakeBackend{listResp: companies(5, 7, 9)}
	s, _ := newCompanyStore(f)
	defer s.Close()
	require.NoError(t, s.Load(context.Background()))

	target, ok := s.Find("7")
	require.True(t, ok)
	s.OpenDialog(DialogDelete, target)
	require.NoError(t, s.CommitDelete(context.Background()))

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 5, items[0].ID)
	assert.Equal(t, 9, items[1].ID)
	assert.Equal(t, "/companies/7", f.deletePath)
	_, ok = s.Find("7")
	assert.False(t, ok)
}

func TestCommitDelete_FailureKeepsEntryAndDialog(t *testing.T) {
	f := &fakeBackend{listResp: companies(5, 7), deleteErr: errors.New("nope")}
	s, bus := newCompanyStore(f)
	defer s.Close()
	require.NoError(t, s.Load(context.Background()))

	target, _ := s.Find("7")
	s.OpenDialog(DialogDelete, target)
	require.Error(t, s.CommitDelete(context.Background()))

	assert.Len(t, s.Items(), 2)
	assert.Equal(t, DialogDelete, s.Dialog().Kind)
	assert.Equal(t, "nope", bus.State().Error)
}

func TestValidate_ShortCircuitsBeforeNetwork(t *testing.T) {
	desc := companyDescriptor()
	desc.Validate = func(c models.Company) error {
		if c.Username == "" {
			return errors.New("username required")
		}
		return nil
	}
	f := &fakeBackend{}
	bus := notify.NewBus()
	s := New(desc, f, bus, logging.NewZerologLogger(io.Discard, zerolog.Disabled))
	defer s.Close()

	s.OpenCreate()
	require.Error(t, s.CommitCreate(context.Background()))

	assert.Nil(t, f.createBody, "no network call on validation failure")
	assert.Equal(t, "username required", bus.State().Error)
	assert.Equal(t, DialogCreate, s.Dialog().Kind)
}

func TestClose_AbortsInFlightRequest(t *testing.T) {
	f := &fakeBackend{block: make(chan struct{})}
	s, _ := newCompanyStore(f)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Load(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	s.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Load did not abort after Close")
	}
}

func adminDescriptor(c *fakeRelationClient) Descriptor[models.Admin] {
	return Descriptor[models.Admin]{
		Name:     "admins",
		ListPath: "/admins/",
		ItemPath: func(id string) string { return "/admins/" + id },
		Default:  func() models.Admin { return models.Admin{} },
		ID:       func(a models.Admin) string { return strconv.Itoa(a.ID) },
		Payload:  func(a models.Admin) any { return map[string]string{"username": a.Username} },
		EnrichItem: func(a models.Admin) models.Admin {
			a.JoinCompanyNames()
			return a
		},
		Enrich: func(items []models.Admin) []models.Admin {
			for i := range items {
				items[i].JoinCompanyNames()
			}
			return items
		},
		Relation: &Relation[models.Admin]{
			Link:   c.link,
			Unlink: c.unlink,
		},
	}
}

type fakeRelationClient struct {
	result     models.Admin
	err        error
	lastParent string
	lastChild  string
}

func (f *fakeRelationClient) link(_ context.Context, parentID, childID string) (models.Admin, error) {
	f.lastParent, f.lastChild = parentID, childID
	return f.result, f.err
}

func (f *fakeRelationClient) unlink(_ context.Context, parentID, childID string) (models.Admin, error) {
	f.lastParent, f.lastChild = parentID, childID
	return f.result, f.err
}

func TestCommitLink_MergesParentAndReloads(t *testing.T) {
	rel := &fakeRelationClient{
		result: models.Admin{ID: 3, Username: "root", Companies: []models.Company{{ID: 5, Username: "acme"}}},
	}
	f := &fakeBackend{listResp: []models.Admin{{ID: 3, Username: "root"}}}
	bus := notify.NewBus()
	s := New(adminDescriptor(rel), f, bus, logging.NewZerologLogger(io.Discard, zerolog.Disabled))
	defer s.Close()
	require.NoError(t, s.Load(context.Background()))
	loadsBefore := f.listCalls

	admin, _ := s.Find("3")
	s.OpenDialog(DialogRelationEdit, admin)
	assert.Equal(t, "3", s.Dialog().ParentID)

	require.NoError(t, s.CommitLink(context.Background(), "5"))

	assert.Equal(t, "3", rel.lastParent)
	assert.Equal(t, "5", rel.lastChild)
	draft := s.Draft()
	require.Len(t, draft.Companies, 1)
	assert.Equal(t, "acme", draft.CompanyNames, "joined names refreshed on the draft")
	assert.Equal(t, loadsBefore+1, f.listCalls, "full refresh after relation change")
	assert.Equal(t, DialogRelationEdit, s.Dialog().Kind, "relation dialog stays open")
}

func TestCommitLink_RequiresRelationDialog(t *testing.T) {
	rel := &fakeRelationClient{}
	s := New(adminDescriptor(rel), &fakeBackend{}, notify.NewBus(), logging.NewZerologLogger(io.Discard, zerolog.Disabled))
	defer s.Close()

	err := s.CommitLink(context.Background(), "5")
	assert.ErrorIs(t, err, ErrNoRelationDialog)
}

func TestCommitLink_NoRelationConfigured(t *testing.T) {
	s, _ := newCompanyStore(&fakeBackend{})
	defer s.Close()

	err := s.CommitLink(context.Background(), "5")
	assert.ErrorIs(t, err, ErrNoRelation)
}
