// Package artifacts writes the raw page body, extracted text, and per-page
// word-count JSON under the working directory, at URL-derived paths.
package artifacts

import (
	"encoding/json"
	neturl "net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/igoriokas/web-crawler/internal/faults"
	"github.com/igoriokas/web-crawler/internal/inject"
	"github.com/igoriokas/web-crawler/pkg/failure"
	"github.com/igoriokas/web-crawler/pkg/fileutil"
	"github.com/rs/zerolog"
)

var contentTypeExt = map[string]string{
	"text/html":  ".html",
	"text/plain": ".txt",
}

// Store writes crawl artifacts under WorkDir/{pages,text,words}.
type Store struct {
	WorkDir   string
	ProDomain string // e.g. "https://example.com/", stripped from URLs to form relative paths
	Injector  inject.Injector
	Log       zerolog.Logger
}

// New returns a Store scoped to workDir and proDomain.
func New(workDir, proDomain string) *Store {
	return &Store{WorkDir: workDir, ProDomain: proDomain, Injector: inject.Noop{}, Log: zerolog.Nop()}
}

func (s *Store) WithInjector(injector inject.Injector) *Store {
	s.Injector = injector
	return s
}

func (s *Store) WithLogger(log zerolog.Logger) *Store {
	s.Log = log
	return s
}

// RelativePath converts url into a filename relative to WorkDir: the
// ProDomain prefix is removed, an empty remainder becomes index.html, and a
// content-type-derived extension is added if url's path component has none.
func (s *Store) RelativePath(rawURL, contentType string) (string, failure.ClassifiedError) {
	trimmedURL := strings.TrimSuffix(rawURL, "/")

	parsed, parseErr := neturl.Parse(trimmedURL)
	if parseErr != nil {
		return "", faults.NewPageFault("invalid URL %s: %v", rawURL, parseErr)
	}

	filename := strings.TrimPrefix(trimmedURL, strings.TrimSuffix(s.ProDomain, "/"))
	filename = strings.TrimPrefix(filename, "/")
	if filename == "" {
		return "index.html", nil
	}

	if fileutil.GetFileExtension(parsed.Path) == "" {
		ext, ok := contentTypeExt[contentType]
		if !ok {
			return "", faults.NewPageFault("Content-Type %s not supported", contentType)
		}
		filename += ext
	}
	return filename, nil
}

// WritePage saves the raw response body under pages/.
func (s *Store) WritePage(relPath string, body []byte) failure.ClassifiedError {
	if len(body) == 0 {
		return nil
	}
	return s.write(filepath.Join(s.WorkDir, "pages", relPath), body)
}

// WriteText saves extracted text under text/, renaming a trailing .html
// suffix to .txt.
func (s *Store) WriteText(relPath, text string) failure.ClassifiedError {
	textPath := relPath
	if strings.HasSuffix(relPath, ".html") {
		textPath = strings.TrimSuffix(relPath, ".html") + ".txt"
	}
	return s.write(filepath.Join(s.WorkDir, "text", textPath), []byte(text))
}

// WriteWordCounts saves a per-page word tally under words/ as JSON, at
// relPath plus ".json" (a trailing .txt is replaced by .json instead, so
// index.html becomes index.html.json and notes.txt becomes notes.json). A
// no-op when counts is empty.
func (s *Store) WriteWordCounts(relPath string, counts map[string]int) failure.ClassifiedError {
	if len(counts) == 0 {
		return nil
	}

	jsonPath := strings.TrimSuffix(relPath, ".txt") + ".json"

	encoded, err := json.MarshalIndent(counts, "", "  ")
	if err != nil {
		return faults.NewEnvironmentFault("encoding word counts: %v", err)
	}
	return s.write(filepath.Join(s.WorkDir, "words", jsonPath), encoded)
}

func (s *Store) write(path string, content []byte) failure.ClassifiedError {
	if err := s.Injector.WriteFault(); err != nil {
		s.Log.Debug().Str("path", path).Err(err).Msg("injected write fault")
		return faults.NewEnvironmentFault("%v", err)
	}

	if dirErr := fileutil.EnsureDir(filepath.Dir(path)); dirErr != nil {
		return faults.NewEnvironmentFault("%v", dirErr)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return faults.NewEnvironmentFault("writing %s: %v", path, err)
	}
	return nil
}
