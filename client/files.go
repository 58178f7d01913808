package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/solutions-liquify/tms/model"
)

// UploadFile sends r as the multipart "file" field.
func (c *Client) UploadFile(ctx context.Context, filename string, r io.Reader) (*model.File, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, request{
		method:      http.MethodPost,
		path:        "/files/upload",
		body:        body.Bytes(),
		contentType: writer.FormDataContentType(),
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, decodeError(resp)
	}
	var out model.File
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadFile streams a stored file. The caller closes the reader.
func (c *Client) DownloadFile(ctx context.Context, publicID string) (io.ReadCloser, string, error) {
	resp, err := c.send(ctx, request{method: http.MethodGet, path: "/files/download/" + escape(publicID)})
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode >= 400 {
		defer func() {
			_ = resp.Body.Close()
		}()
		return nil, "", decodeError(resp)
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// FileDetails fetches upload metadata.
func (c *Client) FileDetails(ctx context.Context, publicID string) (*model.File, error) {
	var out model.File
	if err := c.getJSON(ctx, "/files/uploadDetails/"+escape(publicID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
