// Package linkextract enumerates anchor links on an HTML page, filters them
// to in-scope internal links, and enqueues the survivors.
package linkextract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/igoriokas/web-crawler/internal/faults"
	"github.com/igoriokas/web-crawler/internal/inject"
	"github.com/igoriokas/web-crawler/pkg/failure"
	"github.com/rs/zerolog"
)

var allowedSuffixes = []string{".html", ".htm", ".txt", "/"}

// Enqueuer is the subset of the Ledger used to add discovered links to the
// frontier.
type Enqueuer interface {
	Enqueue(url string, depth int) error
}

// Extractor walks an HTML document for anchors and enqueues in-scope links.
type Extractor struct {
	Domain    string // e.g. "example.com", the scope suffix
	ProDomain string // e.g. "https://example.com/", the scope prefix
	MaxDepth  int
	Ledger    Enqueuer
	Injector  inject.Injector
	Log       zerolog.Logger
}

// New returns an Extractor scoped to seedURL's origin.
func New(seedURL string, maxDepth int, ledger Enqueuer) (*Extractor, error) {
	parsed, err := url.Parse(seedURL)
	if err != nil {
		return nil, err
	}
	return &Extractor{
		Domain:    parsed.Host,
		ProDomain: parsed.Scheme + "://" + parsed.Host + "/",
		MaxDepth:  maxDepth,
		Ledger:    ledger,
		Injector:  inject.Noop{},
		Log:       zerolog.Nop(),
	}, nil
}

func (e *Extractor) WithInjector(injector inject.Injector) *Extractor {
	e.Injector = injector
	return e
}

func (e *Extractor) WithLogger(log zerolog.Logger) *Extractor {
	e.Log = log
	return e
}

// Extract enqueues every in-scope link found in body at pageURL, depth+1.
// It is a no-op for non-HTML content or once MaxDepth is reached.
func (e *Extractor) Extract(pageURL, contentType string, body []byte, depth int) failure.ClassifiedError {
	if len(body) == 0 || contentType != "text/html" || depth >= e.MaxDepth {
		return nil
	}

	if e.Injector.ParseFault() {
		e.Log.Debug().Str("url", pageURL).Msg("injected parse fault")
		return faults.NewPageFault("simulated page parsing error")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return faults.NewPageFault("parsing HTML: %v", err)
	}

	enqueued := 0
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || !e.isValidLink(href) {
			return
		}

		full, err := resolve(pageURL, href)
		if err != nil {
			return
		}

		if strings.HasPrefix(full, e.ProDomain) {
			if err := e.Ledger.Enqueue(full, depth+1); err == nil {
				enqueued++
			}
		}
	})

	e.Log.Debug().Str("url", pageURL).Int("enqueued", enqueued).Msg("extracted links")
	return nil
}

// isValidLink mirrors the whitelist: no scheme, same domain or relative,
// whitelisted suffix or an extension-free "clean" path.
func (e *Extractor) isValidLink(href string) bool {
	if href == "" || strings.Contains(href, ":") {
		return false
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return false
	}

	if parsed.Host != "" && !strings.HasSuffix(parsed.Host, e.Domain) {
		return false
	}

	lower := strings.ToLower(href)
	for _, suffix := range allowedSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}

	segments := strings.Split(parsed.Path, "/")
	last := segments[len(segments)-1]
	return !strings.Contains(last, ".")
}

// resolve turns href into an absolute URL relative to base, strips any
// fragment, and trims a trailing slash.
func resolve(base, href string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	rel, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	full := baseURL.ResolveReference(rel)
	full.Fragment = ""
	full.RawFragment = ""
	return strings.TrimSuffix(full.String(), "/"), nil
}
