// Package netx contains HTTP helpers for talking to object storage.
package netx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// PresignedUpload describes a presigned upload target as returned by the
// files API.
type PresignedUpload struct {
	URL     string
	Method  string
	Headers map[string]string
}

// UploadToS3PresignedURL sends file to the presigned target. An empty Method
// means PUT; Content-Type defaults to application/octet-stream unless the
// presign response dictated one. Any non-2xx answer is an error carrying the
// response body.
func UploadToS3PresignedURL(ctx context.Context, client *http.Client, target PresignedUpload, file []byte) error {
	method := target.Method
	if method == "" {
		method = http.MethodPut
	}

	req, err := http.NewRequestWithContext(ctx, method, target.URL, bytes.NewReader(file))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	for k, v := range target.Headers {
		req.Header.Set(k, v)
	}

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}
	return nil
}
