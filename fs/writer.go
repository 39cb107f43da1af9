// Package fs writes extracted guidelines to the local file system.
package fs

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fwojciec/cpbrules"
)

// URLToPath converts a policy URL to a relative file path under a directory
// named after the host. The page's extension is replaced with .json and a
// query string, if any, is kept in escaped form so distinct pages never share
// a file.
// Example: https://www.aetna.com/cpb/medical/data/300_399/0369.html → www.aetna.com/cpb/medical/data/300_399/0369.json
// Example: https://example.com/policy.aspx?id=42 → example.com/policy_id%3D42.json
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", cpbrules.Errorf(cpbrules.EINVALID, "invalid URL %q: %v", rawURL, err)
	}

	host := strings.ToLower(strings.ReplaceAll(u.Host, ":", "_"))
	if host == "" || host == "." || host == ".." {
		return "", cpbrules.Errorf(cpbrules.EINVALID, "URL has no usable host: %q", rawURL)
	}

	// Clean against the root so ".." cannot escape the host directory.
	p := path.Clean("/" + u.Path)
	if strings.HasSuffix(u.Path, "/") || p == "/" {
		p = path.Join(p, "index")
	}
	p = strings.TrimSuffix(p, path.Ext(p))
	if u.RawQuery != "" {
		p += "_" + url.QueryEscape(u.RawQuery)
	}

	return filepath.FromSlash(host + p + ".json"), nil
}

// Ensure Writer implements cpbrules.GuidelineWriter at compile time.
var _ cpbrules.GuidelineWriter = (*Writer)(nil)

// Writer writes guidelines as JSON files under a base directory.
type Writer struct {
	baseDir string
}

// NewWriter creates a new Writer that writes to the given base directory.
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// WriteGuideline writes g to the path derived from sourceURL and returns
// that path. The file is replaced atomically so readers never see a
// partial document.
func (w *Writer) WriteGuideline(ctx context.Context, sourceURL string, g *cpbrules.Guideline) (string, error) {
	relPath, err := URLToPath(sourceURL)
	if err != nil {
		return "", err
	}
	content, err := cpbrules.MarshalGuideline(g)
	if err != nil {
		return "", err
	}

	fullPath := filepath.Join(w.baseDir, relPath)
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(fullPath)+".*.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return "", err
	}
	return fullPath, nil
}
