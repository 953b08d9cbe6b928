package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/antonkuzmin/adminctl/internal/client/api"
	"github.com/antonkuzmin/adminctl/internal/client/models"
	"github.com/antonkuzmin/adminctl/internal/client/render"
	"github.com/antonkuzmin/adminctl/internal/client/store"
	"github.com/antonkuzmin/adminctl/internal/common"
)

func fileDescriptor(a *App) store.Descriptor[models.FileInfo] {
	return store.Descriptor[models.FileInfo]{
		Name:     "files",
		ListPath: "/file",
		ItemPath: func(id string) string { return "/file/" + id },
		Default:  func() models.FileInfo { return models.FileInfo{} },
		ID:       func(f models.FileInfo) string { return f.UUID },
		Payload: func(f models.FileInfo) any {
			return api.UploadRequest{Path: f.LocalPath, UserID: f.UserID}
		},
		Validate: func(f models.FileInfo) error {
			if err := requireFields([2]string{"file", f.LocalPath}); err != nil {
				return err
			}
			if f.UserID == 0 {
				return fmt.Errorf(`field "user_id" is required: %w`, common.ErrFieldRequired)
			}
			return nil
		},
		Enrich: func(items []models.FileInfo) []models.FileInfo {
			for i := range items {
				if u, ok := a.users.Find(strconv.Itoa(items[i].UserID)); ok {
					items[i].UserName = u.Surname + " " + u.Name
				}
			}
			return items
		},
		// Newest first; timestamps are ISO-8601 so the lexical order is the
		// chronological one. Unset timestamps sink to the bottom.
		Sort: func(items []models.FileInfo) {
			sort.Slice(items, func(i, j int) bool {
				return fromPtr(items[i].CreatedAt) > fromPtr(items[j].CreatedAt)
			})
		},
	}
}

// filesPage lists the storage service's collection. Create is an upload of
// a local file; there is no update. Download streams the binary content to
// a local destination.
func (a *App) filesPage() pageRunner {
	p := &page[models.FileInfo]{
		app:      a,
		title:    "files",
		store:    a.files,
		readOnly: true,
		before: func(ctx context.Context) error {
			return a.users.Load(ctx)
		},
		table: render.Table{
			Actions: &render.ActionColumn{
				Header: "[upload]",
				Width:  21,
				Caption: func(render.Row) string {
					return "[download] [delete]"
				},
			},
			Columns: []render.Column{
				{Label: "UUID", Field: "uuid", Width: 38, Type: render.TypeString},
				{Label: "Name", Field: "name", Width: 28, Type: render.TypeString},
				{Label: "Size", Field: "size", Width: 10, Type: render.TypeString},
				{Label: "User", Field: "user", Width: 24, Type: render.TypeString},
				{Label: "Created", Field: "created_at", Width: 20, Type: render.TypeDate},
			},
		},
		row: func(f models.FileInfo) render.Row {
			return render.Row{
				"uuid":       f.UUID,
				"name":       f.Name,
				"size":       render.FormatByteSize(f.Size),
				"user":       f.UserName,
				"created_at": f.CreatedAt,
			}
		},
		fields: []field[models.FileInfo]{
			{label: "UUID", readOnly: true, get: func(f models.FileInfo) string { return f.UUID }},
			{label: "Name", readOnly: true, get: func(f models.FileInfo) string { return f.Name }},
			{label: "Size", readOnly: true, get: func(f models.FileInfo) string { return render.FormatByteSize(f.Size) }},
			{label: "User ID", readOnly: true, get: func(f models.FileInfo) string { return strconv.Itoa(f.UserID) }},
		},
	}

	p.extra = func(ctx context.Context, args []string) (bool, error) {
		switch args[0] {
		case "upload":
			if len(args) < 3 {
				printlnFn("Usage: files upload <path> <user_id>")
				return true, nil
			}
			return true, a.uploadFile(ctx, p, args[1], args[2])
		case "download":
			if len(args) < 2 {
				printlnFn("Usage: files download <uuid> [dest]")
				return true, nil
			}
			dest := ""
			if len(args) > 2 {
				dest = args[2]
			}
			return true, a.downloadFile(ctx, p, args[1], dest)
		case "delete":
			if len(args) < 2 {
				printlnFn("Usage: files delete <uuid>")
				return true, nil
			}
			id, err := parseFileID(a, args[1])
			if err != nil {
				return true, err
			}
			item, err := p.find(ctx, id)
			if err != nil {
				return true, err
			}
			return true, p.deleteDialog(ctx, item)
		}
		return false, nil
	}

	return p
}

// uploadFile drives the upload through the create dialog so the draft is
// validated and the returned metadata lands in the collection.
func (a *App) uploadFile(ctx context.Context, p *page[models.FileInfo], path, userID string) error {
	p.store.OpenCreate()
	p.store.UpdateDraft(func(f *models.FileInfo) {
		f.LocalPath = path
		f.UserID = atoiOrZero(userID)
	})

	return a.runButtons(ctx, fmt.Sprintf("Upload %s for user %s?", path, userID), []dialogButton{
		cancelButton(p.store),
		{label: "Upload", invoke: func(ctx context.Context) (bool, error) {
			err := p.store.CommitCreate(ctx)
			if err == nil {
				a.bus.SetMessage("File uploaded")
			}
			return err == nil, err
		}},
	})
}

func (a *App) downloadFile(ctx context.Context, p *page[models.FileInfo], id, dest string) error {
	id, err := parseFileID(a, id)
	if err != nil {
		return err
	}

	if dest == "" {
		dest = id
		if item, ok := p.store.Find(id); ok && item.Name != "" {
			dest = item.Name
		}
	}

	dst, err := os.Create(dest)
	if err != nil {
		a.bus.SetError(err.Error())
		return err
	}
	defer dst.Close()

	if err := a.api.DownloadFile(ctx, id, dst); err != nil {
		a.bus.SetError(err.Error())
		return err
	}
	a.bus.SetMessage("Saved to " + dest)
	return nil
}

func parseFileID(a *App, id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		a.bus.SetError("invalid file id: " + id)
		return "", err
	}
	return parsed.String(), nil
}
