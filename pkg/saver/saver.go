// Package saver stores files served by the backend's download-file endpoint on
// the local disk, the way a browser saves a link with a download attribute.
package saver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/imbecility/savetube/pkg/backend"
	"github.com/imbecility/savetube/pkg/models"
	"github.com/imbecility/savetube/pkg/utils"
)

var ErrInsufficientSpace = errors.New("not enough free disk space")

// Saver turns a file link into a local file and returns its path.
type Saver interface {
	Save(ctx context.Context, link models.FileLink) (string, error)
}

type FileSaver struct {
	Client    backend.HTTPClient
	OutputDir string
	// OnProgress receives byte counts while the body is copied; total is -1
	// when the server sent no Content-Length.
	OnProgress func(written, total int64)
	// FreeSpace reports free bytes for a directory; nil uses gopsutil.
	FreeSpace func(dir string) (uint64, error)
}

var _ Saver = (*FileSaver)(nil)

type ProgressWriter struct {
	Total      int64
	Downloaded int64
	LastReport time.Time
	Report     func(written, total int64)
}

func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.Downloaded += int64(n)

	if time.Since(pw.LastReport) > 100*time.Millisecond {
		pw.Report(pw.Downloaded, pw.Total)
		pw.LastReport = time.Now()
	}
	return n, nil
}

func (s *FileSaver) Save(ctx context.Context, link models.FileLink) (string, error) {
	if link.URL == "" {
		return "", errors.New("empty file link")
	}
	if err := os.MkdirAll(s.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link.URL, nil)
	if err != nil {
		return "", fmt.Errorf("build file request: %w", err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch file: %w", err)
	}
	defer func(Body io.ReadCloser) {
		cerr := Body.Close()
		if cerr != nil {
			slog.Warn("Error closing response body", "error", cerr)
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http status: %d", resp.StatusCode)
	}

	if resp.ContentLength > 0 {
		if err := s.checkSpace(resp.ContentLength); err != nil {
			return "", err
		}
	}

	finalPath := uniquePath(filepath.Join(s.OutputDir, localName(link)))
	partPath := finalPath + ".part"

	if err := s.writeBody(resp, partPath); err != nil {
		if rmerr := os.Remove(partPath); rmerr != nil && !os.IsNotExist(rmerr) {
			slog.Error("Error removing partial file", "path", partPath, "error", rmerr)
		}
		return "", err
	}

	if err := os.Rename(partPath, finalPath); err != nil {
		return "", fmt.Errorf("failed to finalize file: %w", err)
	}

	slog.Info("File saved", "path", finalPath)
	return finalPath, nil
}

func (s *FileSaver) writeBody(resp *http.Response, partPath string) error {
	out, err := os.Create(partPath)
	if err != nil {
		return err
	}
	defer func(out *os.File) {
		ferr := out.Close()
		if ferr != nil && !errors.Is(ferr, os.ErrClosed) {
			slog.Error("Error closing file", "error", ferr)
		}
	}(out)

	var source io.Reader = resp.Body
	if s.OnProgress != nil {
		source = &progressReaderWrapper{
			Reader: resp.Body,
			Pw: &ProgressWriter{
				Total:      resp.ContentLength,
				LastReport: time.Now(),
				Report:     s.OnProgress,
			},
		}
	}

	written, err := io.Copy(out, source)
	if err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if s.OnProgress != nil {
		s.OnProgress(written, resp.ContentLength)
	}
	return out.Close()
}

func (s *FileSaver) checkSpace(need int64) error {
	free := s.FreeSpace
	if free == nil {
		free = diskFree
	}
	avail, err := free(s.OutputDir)
	if err != nil {
		slog.Debug("Free space check skipped", "dir", s.OutputDir, "err", err)
		return nil
	}
	if avail < uint64(need) {
		return fmt.Errorf("%w: need %d bytes, %d available", ErrInsufficientSpace, need, avail)
	}
	return nil
}

func diskFree(dir string) (uint64, error) {
	usage, err := disk.Usage(dir)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}

func localName(link models.FileLink) string {
	if name := utils.SanitizeFilename(link.Filename); name != "" {
		return name
	}
	return "download"
}

// uniquePath appends " (n)" before the extension until the name is free.
func uniquePath(p string) string {
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return p
	}
	ext := filepath.Ext(p)
	base := strings.TrimSuffix(p, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

type progressReaderWrapper struct {
	io.Reader
	Pw *ProgressWriter
}

func (p *progressReaderWrapper) Read(b []byte) (int, error) {
	n, err := p.Reader.Read(b)
	if n > 0 {
		_, perr := p.Pw.Write(b[:n])
		if perr != nil {
			return 0, perr
		}
	}
	return n, err
}
