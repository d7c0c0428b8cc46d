package datasource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"

	"github.com/sirupsen/logrus"
)

// Factory creates SpreadsheetSources from files, uploads and URLs
type Factory struct {
	client   *RateLimitedHTTPClient
	opts     SpreadsheetOptions
	maxBytes int64
	logger   *logrus.Logger
}

// NewFactory creates a new source factory. client may be nil when remote
// downloads are not needed.
func NewFactory(client *RateLimitedHTTPClient, opts SpreadsheetOptions, maxBytes int64, logger *logrus.Logger) *Factory {
	return &Factory{client: client, opts: opts, maxBytes: maxBytes, logger: logger}
}

// Options returns the spreadsheet options applied to every source
func (f *Factory) Options() SpreadsheetOptions {
	return f.opts
}

// FromFile opens a workbook on disk
func (f *Factory) FromFile(filePath, defaultSource string) (*SpreadsheetSource, error) {
	return OpenSpreadsheetFile(filePath, f.withSource(defaultSource))
}

// FromReader buffers an uploaded workbook
func (f *Factory) FromReader(name string, r io.Reader, defaultSource string) (*SpreadsheetSource, error) {
	if f.maxBytes > 0 {
		r = io.LimitReader(r, f.maxBytes+1)
	}
	src, err := NewSpreadsheetSource(name, r, f.withSource(defaultSource))
	if err != nil {
		return nil, err
	}
	if f.maxBytes > 0 && int64(len(src.data)) > f.maxBytes {
		return nil, NewDataSourceError(name, ErrCodeTooLarge, fmt.Sprintf("upload exceeds %d bytes", f.maxBytes), ErrTooLarge)
	}
	return src, nil
}

// FromURL downloads a workbook through the rate-limited client
func (f *Factory) FromURL(ctx context.Context, rawURL, defaultSource string) (*SpreadsheetSource, error) {
	if f.client == nil {
		return nil, fmt.Errorf("HTTP client is required")
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, NewDataSourceError(rawURL, ErrCodeInvalidData, "only http(s) URLs can be imported", ErrInvalidData)
	}

	data, err := DownloadSpreadsheet(ctx, f.client, rawURL, f.maxBytes)
	if err != nil {
		return nil, err
	}
	if f.logger != nil {
		f.logger.WithFields(logrus.Fields{"url": rawURL, "bytes": len(data)}).Info("Downloaded spreadsheet")
	}

	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		name = u.Host
	}
	return NewSpreadsheetSource(name, bytes.NewReader(data), f.withSource(defaultSource))
}

func (f *Factory) withSource(defaultSource string) SpreadsheetOptions {
	opts := f.opts
	if defaultSource != "" {
		opts.DefaultSource = defaultSource
	}
	return opts
}
