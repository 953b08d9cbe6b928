package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/antonkuzmin/adminctl/internal/client/models"
	"github.com/antonkuzmin/adminctl/internal/client/render"
	"github.com/antonkuzmin/adminctl/internal/client/store"
	"github.com/antonkuzmin/adminctl/internal/common"
)

// pageRunner is one console page: a collection listing plus its dialogs.
type pageRunner interface {
	run(ctx context.Context, args []string) error
}

// relationOption is one entry of a relation dialog's member/option lists.
type relationOption struct {
	id   string
	name string
}

// relationUI describes how a page renders its linked collection: the button
// label, the current members of a draft, and the full set of candidates.
type relationUI[T any] struct {
	label   string
	members func(T) []relationOption
	options func(ctx context.Context) ([]relationOption, error)
}

// page renders one entity collection as a table and drives its dialogs.
// before loads the collections this page joins against; extra handles
// page-specific verbs ahead of the common create/update/delete set.
type page[T any] struct {
	app      *App
	title    string
	store    *store.Store[T]
	table    render.Table
	row      func(T) render.Row
	fields   []field[T]
	before   func(ctx context.Context) error
	relation *relationUI[T]
	readOnly bool
	extra    func(ctx context.Context, args []string) (bool, error)
}

func (p *page[T]) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return p.list(ctx)
	}

	if p.extra != nil {
		handled, err := p.extra(ctx, args)
		if handled {
			return err
		}
	}

	switch args[0] {
	case "create":
		if p.readOnly {
			break
		}
		return p.createDialog(ctx)
	case "update":
		if p.readOnly || len(args) < 2 {
			break
		}
		item, err := p.find(ctx, args[1])
		if err != nil {
			return err
		}
		return p.updateDialog(ctx, item)
	case "delete":
		if p.readOnly || len(args) < 2 {
			break
		}
		item, err := p.find(ctx, args[1])
		if err != nil {
			return err
		}
		return p.deleteDialog(ctx, item)
	case "companies":
		if p.relation == nil || len(args) < 2 {
			break
		}
		item, err := p.find(ctx, args[1])
		if err != nil {
			return err
		}
		p.store.OpenDialog(store.DialogRelationEdit, item)
		return p.relationDialog(ctx)
	}

	printlnFn("Usage:", p.usage())
	return nil
}

func (p *page[T]) usage() string {
	if p.readOnly {
		return p.title
	}
	s := fmt.Sprintf("%s [create | update <id> | delete <id>]", p.title)
	if p.relation != nil {
		s += fmt.Sprintf("; %s companies <id>", p.title)
	}
	return s
}

func (p *page[T]) list(ctx context.Context) error {
	if p.before != nil {
		if err := p.before(ctx); err != nil {
			return err
		}
	}
	if err := p.store.Load(ctx); err != nil {
		return err
	}

	items := p.store.Items()
	rows := make([]render.Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, p.row(item))
	}
	p.table.Render(p.app.out, rows)
	return nil
}

// find resolves an id against the loaded collection, loading it first when
// the console has not listed this page yet.
func (p *page[T]) find(ctx context.Context, id string) (T, error) {
	item, ok := p.store.Find(id)
	if !ok {
		if err := p.store.Load(ctx); err != nil {
			return item, err
		}
		item, ok = p.store.Find(id)
	}
	if !ok {
		return item, fmt.Errorf("%w: no %s with id %s", common.ErrNotFound, p.title, id)
	}
	return item, nil
}

// requireFields rejects a draft whose named fields are blank, mirroring the
// per-field validation of the edit dialogs.
func requireFields(pairs ...[2]string) error {
	for _, p := range pairs {
		if strings.TrimSpace(p[1]) == "" {
			return fmt.Errorf(`field %q is required: %w`, p[0], common.ErrFieldRequired)
		}
	}
	return nil
}

func fromPtr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func setPtr(dst **string, v string) {
	*dst = &v
}

func atoiOrZero(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// crudActions is the affordance column of a fully editable collection.
func crudActions() *render.ActionColumn {
	return &render.ActionColumn{
		Header: "[create]",
		Width:  19,
		Caption: func(render.Row) string {
			return "[update] [delete]"
		},
	}
}

func (a *App) buildStores() {
	oauth := a.api.Oauth()

	a.companies = store.New(companyDescriptor(), oauth, a.bus, a.log)
	a.users = store.New(userDescriptor(a), oauth, a.bus, a.log)
	a.admins = store.New(adminDescriptor(a), oauth, a.bus, a.log)
	a.owners = store.New(ownerDescriptor(), oauth, a.bus, a.log)
	a.notes = store.New(noteDescriptor(), oauth, a.bus, a.log)
	a.files = store.New(fileDescriptor(a), a.api.Files(), a.bus, a.log)
}

func (a *App) buildPages() {
	a.pages = map[string]pageRunner{
		"companies": a.companiesPage(),
		"users":     a.usersPage(),
		"admins":    a.adminsPage(),
		"owners":    a.ownersPage(),
		"notes":     a.notesPage(),
		"files":     a.filesPage(),
	}
}

// RunPage dispatches a collection command to its page.
func (a *App) RunPage(ctx context.Context, name string, args []string) error {
	p, ok := a.pages[name]
	if !ok {
		return errUnknownCommand
	}
	return p.run(ctx, args)
}

// --- companies ---

func companyDescriptor() store.Descriptor[models.Company] {
	return store.Descriptor[models.Company]{
		Name:     "companies",
		ListPath: "/companies",
		ItemPath: func(id string) string { return "/companies/" + id },
		Default:  func() models.Company { return models.Company{} },
		ID:       func(c models.Company) string { return strconv.Itoa(c.ID) },
		Payload:  func(c models.Company) any { return c },
		Validate: func(c models.Company) error {
			return requireFields(
				[2]string{"username", c.Username},
				[2]string{"description", c.Description},
			)
		},
	}
}

func (a *App) companiesPage() pageRunner {
	return &page[models.Company]{
		app:   a,
		title: "companies",
		store: a.companies,
		table: render.Table{
			Actions: crudActions(),
			Columns: []render.Column{
				{Label: "ID", Field: "id", Width: 6, Type: render.TypeInteger},
				{Label: "Username", Field: "username", Width: 20, Type: render.TypeString},
				{Label: "Description", Field: "description", Width: 32, Type: render.TypeString},
				{Label: "Created", Field: "created_at", Width: 20, Type: render.TypeDate},
				{Label: "Updated", Field: "updated_at", Width: 20, Type: render.TypeDate},
			},
		},
		row: func(c models.Company) render.Row {
			return render.Row{
				"id":          c.ID,
				"username":    c.Username,
				"description": c.Description,
				"created_at":  c.CreatedAt,
				"updated_at":  c.UpdatedAt,
			}
		},
		fields: []field[models.Company]{
			{label: "ID", readOnly: true, get: func(c models.Company) string { return strconv.Itoa(c.ID) }},
			{label: "Username", get: func(c models.Company) string { return c.Username },
				set: func(c *models.Company, v string) { c.Username = v }},
			{label: "Description", get: func(c models.Company) string { return c.Description },
				set: func(c *models.Company, v string) { c.Description = v }},
		},
	}
}

// --- users ---

func userDescriptor(a *App) store.Descriptor[models.User] {
	return store.Descriptor[models.User]{
		Name:     "users",
		ListPath: "/users",
		ItemPath: func(id string) string { return "/users/" + id },
		Default:  func() models.User { return models.User{} },
		ID:       func(u models.User) string { return strconv.Itoa(u.ID) },
		Payload: func(u models.User) any {
			u.Company = nil
			return u
		},
		Validate: func(u models.User) error {
			if err := requireFields(
				[2]string{"username", u.Username},
				[2]string{"surname", u.Surname},
				[2]string{"name", u.Name},
			); err != nil {
				return err
			}
			if u.CompanyID == 0 {
				return fmt.Errorf(`field "company_id" is required: %w`, common.ErrFieldRequired)
			}
			return nil
		},
		Enrich:     func(items []models.User) []models.User { return joinUserCompanies(a, items) },
		EnrichItem: func(u models.User) models.User { return joinUserCompanies(a, []models.User{u})[0] },
	}
}

// joinUserCompanies fills the display name of each user's company, from the
// nested record when the server inlined it, otherwise from the companies
// collection.
func joinUserCompanies(a *App, items []models.User) []models.User {
	for i := range items {
		u := &items[i]
		if u.Company != nil {
			u.CompanyName = u.Company.Username
			continue
		}
		if c, ok := a.companies.Find(strconv.Itoa(u.CompanyID)); ok {
			u.CompanyName = c.Username
		}
	}
	return items
}

func (a *App) usersPage() pageRunner {
	return &page[models.User]{
		app:   a,
		title: "users",
		store: a.users,
		before: func(ctx context.Context) error {
			return a.companies.Load(ctx)
		},
		table: render.Table{
			Actions: crudActions(),
			Columns: []render.Column{
				{Label: "ID", Field: "id", Width: 6, Type: render.TypeInteger},
				{Label: "Username", Field: "username", Width: 18, Type: render.TypeString},
				{Label: "Surname", Field: "surname", Width: 16, Type: render.TypeString},
				{Label: "Name", Field: "name", Width: 14, Type: render.TypeString},
				{Label: "Company", Field: "company", Width: 20, Type: render.TypeString},
				{Label: "Department", Field: "department", Width: 18, Type: render.TypeString},
				{Label: "Created", Field: "created_at", Width: 20, Type: render.TypeDate},
			},
		},
		row: func(u models.User) render.Row {
			return render.Row{
				"id":         u.ID,
				"username":   u.Username,
				"surname":    u.Surname,
				"name":       u.Name,
				"company":    u.CompanyName,
				"department": u.Department,
				"created_at": u.CreatedAt,
			}
		},
		fields: []field[models.User]{
			{label: "ID", readOnly: true, get: func(u models.User) string { return strconv.Itoa(u.ID) }},
			{label: "Username", get: func(u models.User) string { return u.Username },
				set: func(u *models.User, v string) { u.Username = v }},
			{label: "Password", secret: true, get: func(models.User) string { return "" },
				set: func(u *models.User, v string) { u.Password = v }},
			{label: "Surname", get: func(u models.User) string { return u.Surname },
				set: func(u *models.User, v string) { u.Surname = v }},
			{label: "Name", get: func(u models.User) string { return u.Name },
				set: func(u *models.User, v string) { u.Name = v }},
			{label: "Middlename", get: func(u models.User) string { return fromPtr(u.Middlename) },
				set: func(u *models.User, v string) { setPtr(&u.Middlename, v) }},
			{label: "Department", get: func(u models.User) string { return fromPtr(u.Department) },
				set: func(u *models.User, v string) { setPtr(&u.Department, v) }},
			{label: "Remote workplace", get: func(u models.User) string { return fromPtr(u.RemoteWorkplace) },
				set: func(u *models.User, v string) { setPtr(&u.RemoteWorkplace, v) }},
			{label: "Local workplace", get: func(u models.User) string { return fromPtr(u.LocalWorkplace) },
				set: func(u *models.User, v string) { setPtr(&u.LocalWorkplace, v) }},
			{label: "Phone", get: func(u models.User) string { return fromPtr(u.Phone) },
				set: func(u *models.User, v string) { setPtr(&u.Phone, v) }},
			{label: "Cellular", get: func(u models.User) string { return fromPtr(u.Cellular) },
				set: func(u *models.User, v string) { setPtr(&u.Cellular, v) }},
			{label: "Post", get: func(u models.User) string { return fromPtr(u.Post) },
				set: func(u *models.User, v string) { setPtr(&u.Post, v) }},
			{label: "Company ID", get: func(u models.User) string { return strconv.Itoa(u.CompanyID) },
				set: func(u *models.User, v string) { u.CompanyID = atoiOrZero(v) }},
		},
	}
}

// --- admins ---

func adminDescriptor(a *App) store.Descriptor[models.Admin] {
	join := func(item models.Admin) models.Admin {
		item.JoinCompanyNames()
		return item
	}
	return store.Descriptor[models.Admin]{
		Name:     "admins",
		ListPath: "/admins",
		ItemPath: func(id string) string { return "/admins/" + id },
		Default:  func() models.Admin { return models.Admin{} },
		ID:       func(ad models.Admin) string { return strconv.Itoa(ad.ID) },
		Payload: func(ad models.Admin) any {
			ad.Companies = nil
			return ad
		},
		Validate: func(ad models.Admin) error {
			return requireFields(
				[2]string{"username", ad.Username},
				[2]string{"surname", ad.Surname},
				[2]string{"name", ad.Name},
			)
		},
		Enrich: func(items []models.Admin) []models.Admin {
			for i := range items {
				items[i] = join(items[i])
			}
			return items
		},
		EnrichItem: join,
		Relation: &store.Relation[models.Admin]{
			Link: func(ctx context.Context, parentID, childID string) (models.Admin, error) {
				ad, err := a.api.LinkAdminCompany(ctx, atoiOrZero(parentID), atoiOrZero(childID))
				if err != nil {
					return models.Admin{}, err
				}
				return *ad, nil
			},
			Unlink: func(ctx context.Context, parentID, childID string) (models.Admin, error) {
				ad, err := a.api.UnlinkAdminCompany(ctx, atoiOrZero(parentID), atoiOrZero(childID))
				if err != nil {
					return models.Admin{}, err
				}
				return *ad, nil
			},
		},
	}
}

func (a *App) adminsPage() pageRunner {
	return &page[models.Admin]{
		app:   a,
		title: "admins",
		store: a.admins,
		table: render.Table{
			Actions: crudActions(),
			Columns: []render.Column{
				{Label: "ID", Field: "id", Width: 6, Type: render.TypeInteger},
				{Label: "Username", Field: "username", Width: 18, Type: render.TypeString},
				{Label: "Surname", Field: "surname", Width: 16, Type: render.TypeString},
				{Label: "Name", Field: "name", Width: 14, Type: render.TypeString},
				{Label: "Companies", Field: "companies", Width: 32, Type: render.TypeString},
				{Label: "Created", Field: "created_at", Width: 20, Type: render.TypeDate},
			},
		},
		row: func(ad models.Admin) render.Row {
			return render.Row{
				"id":         ad.ID,
				"username":   ad.Username,
				"surname":    ad.Surname,
				"name":       ad.Name,
				"companies":  ad.CompanyNames,
				"created_at": ad.CreatedAt,
			}
		},
		fields: []field[models.Admin]{
			{label: "ID", readOnly: true, get: func(ad models.Admin) string { return strconv.Itoa(ad.ID) }},
			{label: "Username", get: func(ad models.Admin) string { return ad.Username },
				set: func(ad *models.Admin, v string) { ad.Username = v }},
			{label: "Password", secret: true, get: func(models.Admin) string { return "" },
				set: func(ad *models.Admin, v string) { ad.Password = v }},
			{label: "Surname", get: func(ad models.Admin) string { return ad.Surname },
				set: func(ad *models.Admin, v string) { ad.Surname = v }},
			{label: "Name", get: func(ad models.Admin) string { return ad.Name },
				set: func(ad *models.Admin, v string) { ad.Name = v }},
			{label: "Middlename", get: func(ad models.Admin) string { return fromPtr(ad.Middlename) },
				set: func(ad *models.Admin, v string) { setPtr(&ad.Middlename, v) }},
			{label: "Department", get: func(ad models.Admin) string { return fromPtr(ad.Department) },
				set: func(ad *models.Admin, v string) { setPtr(&ad.Department, v) }},
			{label: "Phone", get: func(ad models.Admin) string { return fromPtr(ad.Phone) },
				set: func(ad *models.Admin, v string) { setPtr(&ad.Phone, v) }},
			{label: "Cellular", get: func(ad models.Admin) string { return fromPtr(ad.Cellular) },
				set: func(ad *models.Admin, v string) { setPtr(&ad.Cellular, v) }},
			{label: "Post", get: func(ad models.Admin) string { return fromPtr(ad.Post) },
				set: func(ad *models.Admin, v string) { setPtr(&ad.Post, v) }},
		},
		relation: &relationUI[models.Admin]{
			label: "Companies",
			members: func(ad models.Admin) []relationOption {
				opts := make([]relationOption, 0, len(ad.Companies))
				for _, c := range ad.Companies {
					opts = append(opts, relationOption{id: strconv.Itoa(c.ID), name: c.Username})
				}
				return opts
			},
			options: func(ctx context.Context) ([]relationOption, error) {
				if len(a.companies.Items()) == 0 {
					if err := a.companies.Load(ctx); err != nil {
						return nil, err
					}
				}
				items := a.companies.Items()
				opts := make([]relationOption, 0, len(items))
				for _, c := range items {
					opts = append(opts, relationOption{id: strconv.Itoa(c.ID), name: c.Username})
				}
				return opts, nil
			},
		},
	}
}

// --- owners ---

func ownerDescriptor() store.Descriptor[models.Owner] {
	return store.Descriptor[models.Owner]{
		Name:     "owners",
		ListPath: "/owners",
		ItemPath: func(id string) string { return "/owners/" + id },
		Default:  func() models.Owner { return models.Owner{} },
		ID:       func(o models.Owner) string { return strconv.Itoa(o.ID) },
		Payload:  func(o models.Owner) any { return o },
		Validate: func(o models.Owner) error {
			return requireFields([2]string{"username", o.Username})
		},
	}
}

func (a *App) ownersPage() pageRunner {
	return &page[models.Owner]{
		app:   a,
		title: "owners",
		store: a.owners,
		table: render.Table{
			Actions: crudActions(),
			Columns: []render.Column{
				{Label: "ID", Field: "id", Width: 6, Type: render.TypeInteger},
				{Label: "Username", Field: "username", Width: 24, Type: render.TypeString},
				{Label: "Created", Field: "created_at", Width: 20, Type: render.TypeDate},
				{Label: "Updated", Field: "updated_at", Width: 20, Type: render.TypeDate},
			},
		},
		row: func(o models.Owner) render.Row {
			return render.Row{
				"id":         o.ID,
				"username":   o.Username,
				"created_at": o.CreatedAt,
				"updated_at": o.UpdatedAt,
			}
		},
		fields: []field[models.Owner]{
			{label: "ID", readOnly: true, get: func(o models.Owner) string { return strconv.Itoa(o.ID) }},
			{label: "Username", get: func(o models.Owner) string { return o.Username },
				set: func(o *models.Owner, v string) { o.Username = v }},
			{label: "Password", secret: true, get: func(models.Owner) string { return "" },
				set: func(o *models.Owner, v string) { o.Password = v }},
		},
	}
}

// --- notes ---

func noteDescriptor() store.Descriptor[models.Note] {
	return store.Descriptor[models.Note]{
		Name:     "notes",
		ListPath: "/notes?owner=me",
		ItemPath: func(id string) string { return "/notes/" + id },
		Default:  func() models.Note { return models.Note{} },
		ID:       func(n models.Note) string { return strconv.Itoa(n.ID) },
		Payload:  func(n models.Note) any { return n },
		Validate: func(n models.Note) error {
			return requireFields([2]string{"title", n.Title})
		},
	}
}

func (a *App) notesPage() pageRunner {
	return &page[models.Note]{
		app:   a,
		title: "notes",
		store: a.notes,
		table: render.Table{
			Actions: crudActions(),
			Columns: []render.Column{
				{Label: "ID", Field: "id", Width: 6, Type: render.TypeInteger},
				{Label: "Title", Field: "title", Width: 28, Type: render.TypeString},
				{Label: "Description", Field: "description", Width: 48, Type: render.TypeString},
			},
		},
		row: func(n models.Note) render.Row {
			return render.Row{
				"id":          n.ID,
				"title":       n.Title,
				"description": n.Description,
			}
		},
		fields: []field[models.Note]{
			{label: "ID", readOnly: true, get: func(n models.Note) string { return strconv.Itoa(n.ID) }},
			{label: "Title", get: func(n models.Note) string { return n.Title },
				set: func(n *models.Note, v string) { n.Title = v }},
			{label: "Description", get: func(n models.Note) string { return n.Description },
				set: func(n *models.Note, v string) { n.Description = v }},
		},
	}
}
