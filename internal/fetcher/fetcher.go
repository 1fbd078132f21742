// Package fetcher performs a single HTTP GET with a timeout, classifying
// the outcome into a normalized (content-type, body) pair or a typed fault.
package fetcher

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/igoriokas/web-crawler/internal/faults"
	"github.com/igoriokas/web-crawler/internal/inject"
	"github.com/igoriokas/web-crawler/pkg/failure"
	"github.com/rs/zerolog"
)

const (
	userAgent = "web-crawler/1.0"
	accept    = "text/html, text/plain"
)

var allowedContentTypes = map[string]bool{
	"text/html":  true,
	"text/plain": true,
}

// Result is a successfully fetched page.
type Result struct {
	ContentType string
	Body        []byte
	StatusCode  int
}

// Fetcher performs one GET. Implementations must not retry; that is the
// Retry Controller's job.
type Fetcher interface {
	Get(ctx context.Context, url string, timeout time.Duration) (Result, failure.ClassifiedError)
}

// HTTPFetcher is the net/http-backed Fetcher used in production.
type HTTPFetcher struct {
	Client   *http.Client
	Injector inject.Injector
	Log      zerolog.Logger
}

// New returns an HTTPFetcher with a no-op injector and a disabled logger.
// Use WithInjector/WithLogger to configure either.
func New() *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{}, Injector: inject.Noop{}, Log: zerolog.Nop()}
}

func (f *HTTPFetcher) WithInjector(injector inject.Injector) *HTTPFetcher {
	f.Injector = injector
	return f
}

func (f *HTTPFetcher) WithLogger(log zerolog.Logger) *HTTPFetcher {
	f.Log = log
	return f
}

func (f *HTTPFetcher) Get(ctx context.Context, url string, timeout time.Duration) (Result, failure.ClassifiedError) {
	if err := f.Injector.FetchFault(); err != nil {
		f.Log.Debug().Str("url", url).Err(err).Msg("injected fetch fault")
		return Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if reqErr != nil {
		return Result{}, faults.NewPageFault("building request: %v", reqErr)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)

	resp, doErr := f.Client.Do(req)
	if doErr != nil {
		f.Log.Debug().Str("url", url).Err(doErr).Msg("fetch: connection error")
		return Result{}, &faults.TransientFault{Message: doErr.Error()}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return Result{}, faults.NewPageFault("reading response body: %v", readErr)
	}

	if retryable(resp.StatusCode) {
		return Result{}, &faults.TransientFault{
			Message:    "retryable HTTP error [" + strconv.Itoa(resp.StatusCode) + "]",
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
			StatusCode: resp.StatusCode,
		}
	}

	if resp.StatusCode != http.StatusOK {
		return Result{}, faults.NewPageFaultWithStatus(resp.StatusCode, "non-retryable HTTP error [%d]", resp.StatusCode)
	}

	if len(body) == 0 {
		return Result{}, faults.NewPageFaultWithStatus(resp.StatusCode, "empty response body")
	}

	contentType := mediaType(resp.Header.Get("Content-Type"))
	if contentType == "" {
		return Result{}, faults.NewPageFaultWithStatus(resp.StatusCode, "Content-Type not set")
	}
	if !allowedContentTypes[contentType] {
		return Result{}, faults.NewPageFaultWithStatus(resp.StatusCode, "Content-Type %s not supported", contentType)
	}

	return Result{ContentType: contentType, Body: body, StatusCode: resp.StatusCode}, nil
}

func retryable(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func mediaType(contentType string) string {
	return strings.TrimSpace(strings.ToLower(strings.SplitN(contentType, ";", 2)[0]))
}

func retryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
