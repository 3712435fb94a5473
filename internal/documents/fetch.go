package documents

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

const (
	acceptEncoding = "gzip"
	// maxFetchSize caps remote job descriptions.
	maxFetchSize = 10 << 20
)

// fetch downloads url and returns the decoded body and its content type.
func (l *Loader) fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	req = l.setHeaders(req)

	l.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := l.HTTPClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("bad status: %s", resp.Status)
	}

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, "", err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(io.LimitReader(reader, maxFetchSize))
	if err != nil {
		return nil, "", err
	}

	return data, resp.Header.Get("Content-Type"), nil
}

func (l *Loader) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("User-Agent", l.UserAgent)
	req.Header.Set("Accept-Encoding", acceptEncoding)

	return req
}

// decodeCharset converts a text body to UTF-8 using the charset declared in
// contentType, or the one sniffed from the body when none is declared.
func decodeCharset(data []byte, contentType string) ([]byte, error) {
	reader, err := charset.NewReader(bytes.NewReader(data), contentType)
	if err != nil {
		return nil, fmt.Errorf("decode charset: %w", err)
	}
	return io.ReadAll(reader)
}
