package api

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// UploadFile sends a file as multipart {file, user_id} and returns the
// created metadata via out.
func (c *Client) UploadFile(ctx context.Context, name string, r io.Reader, userID int, out any) error {
	_, err := c.storage.R().
		SetContext(ctx).
		SetFileReader("file", name, r).
		SetFormData(map[string]string{"user_id": strconv.Itoa(userID)}).
		SetResult(out).
		Post("/file")
	return err
}

// DownloadFile streams the binary content of the file into dst.
func (c *Client) DownloadFile(ctx context.Context, uuid string, dst io.Writer) error {
	// Raw responses skip the after-response middleware, so the loading
	// flag raised on request must be cleared here.
	defer c.bus.SetLoading(false)

	resp, err := c.storage.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get("/file/" + uuid)
	if resp != nil && resp.RawBody() != nil {
		defer resp.RawBody().Close()
	}
	if err != nil {
		return err
	}
	if resp.IsError() {
		return toError(resp)
	}

	_, err = io.Copy(dst, resp.RawBody())
	return err
}

// UploadRequest is the create payload of the file collection: the local
// source to stream and the owning user.
type UploadRequest struct {
	Path   string
	UserID int
}

// FileBackend adapts the storage service for the file collection, whose
// create endpoint is multipart rather than JSON and whose items have no
// update endpoint.
type FileBackend struct {
	c *Client
}

// Files returns the backend for the file collection.
func (c *Client) Files() *FileBackend {
	return &FileBackend{c: c}
}

func (f *FileBackend) List(ctx context.Context, path string, out any) error {
	return f.c.Storage().List(ctx, path, out)
}

func (f *FileBackend) Create(ctx context.Context, path string, body any, out any) error {
	req, ok := body.(UploadRequest)
	if !ok {
		return errors.New("file create expects an upload request")
	}
	src, err := os.Open(req.Path)
	if err != nil {
		return err
	}
	defer src.Close()
	return f.c.UploadFile(ctx, filepath.Base(req.Path), src, req.UserID, out)
}

func (f *FileBackend) Update(ctx context.Context, path string, body any, out any) error {
	return errors.New("files cannot be updated")
}

func (f *FileBackend) Delete(ctx context.Context, path string) error {
	return f.c.Storage().Delete(ctx, path)
}
