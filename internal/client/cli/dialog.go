package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/antonkuzmin/adminctl/internal/client/store"
)

// field is one labeled entry of an entity's dialog body. Secret fields are
// read without echo; read-only fields are displayed but never prompted.
type field[T any] struct {
	label    string
	secret   bool
	readOnly bool
	get      func(T) string
	set      func(*T, string)
}

// dialogButton labels one allowed action of an open dialog. invoke reports
// whether the dialog is finished; on error the dialog stays open so the
// user can retry or cancel without re-entering data.
type dialogButton struct {
	label  string
	invoke func(ctx context.Context) (bool, error)
}

// runButtons shows a confirmation message, then loops over the labeled
// buttons until one of them finishes the dialog. Every press maps to
// exactly one store operation or to closing the dialog.
func (a *App) runButtons(ctx context.Context, message string, buttons []dialogButton) error {
	if message != "" {
		fmt.Fprintln(a.out, message)
	}

	labels := make([]string, 0, len(buttons))
	for _, b := range buttons {
		labels = append(labels, b.label)
	}
	prompt := strings.Join(labels, " / ")

	for {
		choice, err := getSimpleText(a.reader, prompt, a.out)
		if err != nil {
			return err
		}
		matched := false
		for _, b := range buttons {
			if strings.EqualFold(choice, b.label) {
				matched = true
				done, err := b.invoke(ctx)
				if err != nil {
					if n := a.Notices(); n != "" {
						printlnFn(n)
					}
				}
				if done {
					return nil
				}
				break
			}
		}
		if !matched {
			printlnFn("Choose one of:", prompt)
		}
	}
}

// cancelButton closes the dialog and resets the draft.
func cancelButton[T any](s *store.Store[T]) dialogButton {
	return dialogButton{label: "Cancel", invoke: func(context.Context) (bool, error) {
		s.CloseDialog()
		return true, nil
	}}
}

// promptFields walks the dialog body. Editable fields show the draft's
// current value and keep it when the user enters nothing; read-only fields
// are only displayed.
func (p *page[T]) promptFields(editable bool) error {
	a := p.app
	for _, f := range p.fields {
		cur := f.get(p.store.Draft())
		if !editable || f.readOnly || f.set == nil {
			fmt.Fprintf(a.out, "%s: %s\n", f.label, cur)
			continue
		}

		var val string
		var err error
		if f.secret {
			val, err = getPassword(f.label, a.out)
		} else {
			val, err = getSimpleText(a.reader, fmt.Sprintf("%s [%s]", f.label, cur), a.out)
		}
		if err != nil {
			return err
		}
		if val != "" {
			set := f.set
			p.store.UpdateDraft(func(item *T) { set(item, val) })
		}
	}
	return nil
}

// createDialog opens a create dialog over a fresh default draft, collects
// the editable fields and offers Cancel/Create.
func (p *page[T]) createDialog(ctx context.Context) error {
	a := p.app
	p.store.OpenCreate()
	fmt.Fprintf(a.out, "Create %s\n", p.title)

	if err := p.promptFields(true); err != nil {
		p.store.CloseDialog()
		return err
	}

	return a.runButtons(ctx, "", []dialogButton{
		cancelButton(p.store),
		{label: "Create", invoke: func(ctx context.Context) (bool, error) {
			err := p.store.CommitCreate(ctx)
			return err == nil, err
		}},
	})
}

// updateDialog opens an update dialog over the given item. Entities with a
// linked collection get an extra button that switches to the relation
// dialog.
func (p *page[T]) updateDialog(ctx context.Context, item T) error {
	a := p.app
	p.store.OpenDialog(store.DialogUpdate, item)
	fmt.Fprintf(a.out, "Update %s\n", p.title)

	if err := p.promptFields(true); err != nil {
		p.store.CloseDialog()
		return err
	}

	buttons := []dialogButton{cancelButton(p.store)}
	if p.relation != nil {
		buttons = append(buttons, dialogButton{label: p.relation.label, invoke: func(ctx context.Context) (bool, error) {
			draft := p.store.Draft()
			p.store.CloseDialog()
			p.store.OpenDialog(store.DialogRelationEdit, draft)
			return true, p.relationDialog(ctx)
		}})
	}
	buttons = append(buttons, dialogButton{label: "Update", invoke: func(ctx context.Context) (bool, error) {
		err := p.store.CommitUpdate(ctx)
		return err == nil, err
	}})

	return a.runButtons(ctx, "", buttons)
}

// deleteDialog shows the item read-only, asks for confirmation and offers
// Cancel/Delete.
func (p *page[T]) deleteDialog(ctx context.Context, item T) error {
	a := p.app
	p.store.OpenDialog(store.DialogDelete, item)
	fmt.Fprintf(a.out, "Delete %s\n", p.title)

	if err := p.promptFields(false); err != nil {
		p.store.CloseDialog()
		return err
	}

	return a.runButtons(ctx, "Are you sure you want to delete this item?", []dialogButton{
		cancelButton(p.store),
		{label: "Delete", invoke: func(ctx context.Context) (bool, error) {
			err := p.store.CommitDelete(ctx)
			return err == nil, err
		}},
	})
}

// relationDialog edits the linked collection of the already-open relation
// dialog: members can be removed, the remaining options added, each through
// one link/unlink round trip. "done" closes the dialog.
func (p *page[T]) relationDialog(ctx context.Context) error {
	a := p.app
	rel := p.relation

	for {
		draft := p.store.Draft()
		members := rel.members(draft)
		options, err := rel.options(ctx)
		if err != nil {
			p.store.CloseDialog()
			return err
		}

		in := make(map[string]bool, len(members))
		fmt.Fprintln(a.out, "Members:")
		for _, m := range members {
			in[m.id] = true
			fmt.Fprintf(a.out, "  %s  %s\n", m.id, m.name)
		}
		fmt.Fprintln(a.out, "Available:")
		for _, o := range options {
			if !in[o.id] {
				fmt.Fprintf(a.out, "  %s  %s\n", o.id, o.name)
			}
		}

		line, err := getSimpleText(a.reader, "add <id> / remove <id> / done", a.out)
		if err != nil {
			p.store.CloseDialog()
			return err
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch {
		case parts[0] == "done":
			p.store.CloseDialog()
			return nil
		case parts[0] == "add" && len(parts) == 2:
			err = p.store.CommitLink(ctx, parts[1])
		case parts[0] == "remove" && len(parts) == 2:
			err = p.store.CommitUnlink(ctx, parts[1])
		default:
			printlnFn("Choose one of: add <id> / remove <id> / done")
			continue
		}
		if err != nil {
			if n := a.Notices(); n != "" {
				printlnFn(n)
			}
		}
	}
}
