// Package store implements the generic client-side CRUD engine the per-page
// reducers collapse into: one parameterized store per entity type holding
// the fetched collection, the active dialog and the draft item, reconciling
// the collection against remote CRUD responses.
//
// The server's returned representation is the sole source of truth for a
// committed entity: the store always replaces, never merges blindly.
package store

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/antonkuzmin/adminctl/internal/client/api"
	"github.com/antonkuzmin/adminctl/internal/client/notify"
	"github.com/antonkuzmin/adminctl/internal/logging"
)

var (
	ErrNoRelation       = errors.New("entity has no relation endpoint")
	ErrNoRelationDialog = errors.New("no relation dialog open")
)

// DialogKind enumerates the dialog modes. Exactly one dialog is open at a
// time; the single Dialog field makes that explicit.
type DialogKind int

const (
	DialogNone DialogKind = iota
	DialogCreate
	DialogUpdate
	DialogDelete
	DialogRelationEdit
)

// Dialog is the open dialog, a sum over {None, Create, Update, Delete,
// RelationEdit(parentID)}. ParentID is set only for RelationEdit.
type Dialog struct {
	Kind     DialogKind
	ParentID string
}

// Relation holds the many-to-many link/unlink calls for entities that have
// one (admin↔company). Both return the parent with its refreshed
// membership list.
type Relation[T any] struct {
	Link   func(ctx context.Context, parentID, childID string) (T, error)
	Unlink func(ctx context.Context, parentID, childID string) (T, error)
}

// Descriptor parameterizes the engine for one entity type.
type Descriptor[T any] struct {
	// Name labels log entries.
	Name string
	// ListPath is the collection endpoint (GET list, POST create).
	ListPath string
	// ItemPath builds the item endpoint for an id (PUT update, DELETE).
	ItemPath func(id string) string
	// Default returns the zero-value template the draft resets to.
	Default func() T
	// ID extracts the opaque identifier, stringified.
	ID func(T) string
	// Payload projects the editable fields sent on create/update.
	Payload func(T) any
	// Validate, when set, runs before commits; a failure short-circuits
	// without any network call.
	Validate func(T) error
	// Enrich, when set, decorates a freshly loaded collection (client-side
	// joins such as company names).
	Enrich func(items []T) []T
	// EnrichItem, when set, decorates a single server-returned entity.
	EnrichItem func(T) T
	// Sort, when set, reorders the collection after load.
	Sort func(items []T)
	// Relation, when set, enables the relation-edit dialog.
	Relation *Relation[T]
}

// Store is one entity type's list state. All exported methods are safe for
// concurrent use; the open dialog and the draft behave like the original
// reducer state: pure synchronous transitions, I/O only in Load and the
// Commit methods.
type Store[T any] struct {
	desc    Descriptor[T]
	backend api.Backend
	bus     *notify.Bus
	log     logging.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	items  []T
	dialog Dialog
	draft  T
}

func New[T any](desc Descriptor[T], backend api.Backend, bus *notify.Bus, log logging.Logger) *Store[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Store[T]{
		desc:    desc,
		backend: backend,
		bus:     bus,
		log:     log.With("entity", desc.Name),
		ctx:     ctx,
		cancel:  cancel,
		draft:   desc.Default(),
	}
}

// Close tears the store down; any in-flight request is aborted.
func (s *Store[T]) Close() {
	s.cancel()
}

// reqCtx ties a request to both the caller's context and the store's
// lifetime, so an unmounted store never leaks a pending call.
func (s *Store[T]) reqCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}

// Items returns a copy of the collection.
func (s *Store[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Dialog returns the currently open dialog.
func (s *Store[T]) Dialog() Dialog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dialog
}

// Draft returns the form-in-progress.
func (s *Store[T]) Draft() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Find returns the collection entry with the given id.
func (s *Store[T]) Find(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if s.desc.ID(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Load fetches the full collection and replaces the local one wholesale.
// On failure the collection is left exactly as it was.
func (s *Store[T]) Load(ctx context.Context) error {
	ctx, done := s.reqCtx(ctx)
	defer done()

	var items []T
	if err := s.backend.List(ctx, s.desc.ListPath, &items); err != nil {
		s.bus.SetError(err.Error())
		return err
	}
	if items == nil {
		items = []T{}
	}
	if s.desc.Enrich != nil {
		items = s.desc.Enrich(items)
	}
	if s.desc.Sort != nil {
		s.desc.Sort(items)
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	s.log.Info(ctx, "collection loaded", "count", len(items))
	return nil
}

// OpenDialog sets the active dialog and seeds the draft with item. Pure,
// synchronous, no I/O. For DialogCreate the default template is used
// regardless of item.
func (s *Store[T]) OpenDialog(kind DialogKind, item T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := Dialog{Kind: kind}
	switch kind {
	case DialogNone:
		s.resetDialogLocked()
		return
	case DialogCreate:
		item = s.desc.Default()
	case DialogRelationEdit:
		d.ParentID = s.desc.ID(item)
	}
	s.dialog = d
	s.draft = item
}

// OpenCreate opens the create dialog over the default template.
func (s *Store[T]) OpenCreate() {
	var zero T
	s.OpenDialog(DialogCreate, zero)
}

// CloseDialog resets to {no dialog, default draft}. Idempotent.
func (s *Store[T]) CloseDialog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetDialogLocked()
}

// UpdateDraft applies a field mutation to the draft. Synchronous.
func (s *Store[T]) UpdateDraft(mutate func(*T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mutate(&s.draft)
}

// CommitCreate posts the draft's editable fields. On success the
// server-returned entity is appended and the dialog closes; on failure the
// dialog (and the draft the user typed) stays open for a retry.
func (s *Store[T]) CommitCreate(ctx context.Context) error {
	draft := s.Draft()
	if err := s.validate(draft); err != nil {
		return err
	}

	ctx, done := s.reqCtx(ctx)
	defer done()

	var created T
	if err := s.backend.Create(ctx, s.createPath(), s.desc.Payload(draft), &created); err != nil {
		s.bus.SetError(err.Error())
		return err
	}
	if s.desc.EnrichItem != nil {
		created = s.desc.EnrichItem(created)
	}

	s.mu.Lock()
	s.items = append(s.items, created)
	s.resetDialogLocked()
	s.mu.Unlock()
	return nil
}

// CommitUpdate puts the draft's editable fields to the entity's id. On
// success the matching collection entry is replaced by the server response;
// every other entry is untouched.
func (s *Store[T]) CommitUpdate(ctx context.Context) error {
	draft := s.Draft()
	if err := s.validate(draft); err != nil {
		return err
	}

	ctx, done := s.reqCtx(ctx)
	defer done()

	id := s.desc.ID(draft)
	var updated T
	if err := s.backend.Update(ctx, s.desc.ItemPath(id), s.desc.Payload(draft), &updated); err != nil {
		s.bus.SetError(err.Error())
		return err
	}
	if s.desc.EnrichItem != nil {
		updated = s.desc.EnrichItem(updated)
	}

	s.mu.Lock()
	for i := range s.items {
		if s.desc.ID(s.items[i]) == id {
			s.items[i] = updated
			break
		}
	}
	s.resetDialogLocked()
	s.mu.Unlock()
	return nil
}

// CommitDelete deletes the draft's entity by id. On success the entry is
// removed and the dialog closes; on failure both the entry and the dialog
// stay put.
func (s *Store[T]) CommitDelete(ctx context.Context) error {
	ctx, done := s.reqCtx(ctx)
	defer done()

	id := s.desc.ID(s.Draft())
	if err := s.backend.Delete(ctx, s.desc.ItemPath(id)); err != nil {
		s.bus.SetError(err.Error())
		return err
	}

	s.mu.Lock()
	items := make([]T, 0, len(s.items))
	for _, item := range s.items {
		if s.desc.ID(item) != id {
			items = append(items, item)
		}
	}
	s.items = items
	s.resetDialogLocked()
	s.mu.Unlock()
	return nil
}

// CommitLink adds childID to the open relation-edit parent. On success the
// returned parent replaces the draft (refreshing its membership list) and
// the whole collection is reloaded: relation membership can't be cheaply
// derived client-side, so the full refresh keeps the joined columns
// consistent.
func (s *Store[T]) CommitLink(ctx context.Context, childID string) error {
	return s.commitRelation(ctx, childID, true)
}

// CommitUnlink removes childID from the open relation-edit parent; same
// reconciliation as CommitLink.
func (s *Store[T]) CommitUnlink(ctx context.Context, childID string) error {
	return s.commitRelation(ctx, childID, false)
}

func (s *Store[T]) commitRelation(ctx context.Context, childID string, link bool) error {
	if s.desc.Relation == nil {
		return ErrNoRelation
	}

	s.mu.Lock()
	d := s.dialog
	s.mu.Unlock()
	if d.Kind != DialogRelationEdit {
		return ErrNoRelationDialog
	}

	ctx, done := s.reqCtx(ctx)
	defer done()

	op := s.desc.Relation.Link
	if !link {
		op = s.desc.Relation.Unlink
	}
	parent, err := op(ctx, d.ParentID, childID)
	if err != nil {
		s.bus.SetError(err.Error())
		return err
	}
	if s.desc.EnrichItem != nil {
		parent = s.desc.EnrichItem(parent)
	}

	s.mu.Lock()
	s.draft = parent
	s.mu.Unlock()

	return s.Load(ctx)
}

// createPath is ListPath without its query string; list filters do not
// apply to creates.
func (s *Store[T]) createPath() string {
	path, _, _ := strings.Cut(s.desc.ListPath, "?")
	return path
}

func (s *Store[T]) validate(draft T) error {
	if s.desc.Validate == nil {
		return nil
	}
	if err := s.desc.Validate(draft); err != nil {
		s.bus.SetError(err.Error())
		return err
	}
	return nil
}

// resetDialogLocked restores the invariant: no dialog open ⇔ draft equals
// the default template. Callers hold s.mu.
func (s *Store[T]) resetDialogLocked() {
	s.dialog = Dialog{}
	s.draft = s.desc.Default()
}
