// Package inject implements the synthetic error-injection mode used for
// exercising the Retry Controller and Crawl Loop's fault handling without a
// flaky real server. It is a pure testing aid: the no-op Injector used by
// production runs draws nothing from math/rand and never injects anything.
package inject

import (
	"fmt"
	"math/rand"

	"github.com/igoriokas/web-crawler/internal/faults"
	"github.com/igoriokas/web-crawler/pkg/failure"
)

var retryableStatuses = []int{429, 500, 502, 503, 504}
var nonRetryableStatuses = []int{403, 404, 501}

// Injector decides whether a fetch, a link parse, or a file write should be
// replaced with a synthetic fault this call. A nil/false return means "do
// not inject."
type Injector interface {
	FetchFault() failure.ClassifiedError
	ParseFault() bool
	WriteFault() error
}

// Noop never injects anything. It is used whenever -e is not set.
type Noop struct{}

func (Noop) FetchFault() failure.ClassifiedError { return nil }
func (Noop) ParseFault() bool                    { return false }
func (Noop) WriteFault() error                   { return nil }

// Random draws independent Bernoulli outcomes: ~5% simulated connection/
// timeout fault, ~10% simulated HTTP status, and a very rare simulated
// write failure.
type Random struct {
	rng *rand.Rand
}

// NewRandom returns a Random injector seeded with seed. Tests pass a fixed
// seed for determinism; production uses the current time.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) FetchFault() failure.ClassifiedError {
	if r.rng.Float64() < 0.05 {
		return &faults.TransientFault{Message: "simulated connection error"}
	}
	if r.rng.Float64() < 0.10 {
		codes := append(append([]int{}, retryableStatuses...), nonRetryableStatuses...)
		code := codes[r.rng.Intn(len(codes))]
		return statusToFault(code)
	}
	return nil
}

// ParseFault simulates the link extractor hitting a malformed document.
func (r *Random) ParseFault() bool {
	return r.rng.Float64() < 0.05
}

func (r *Random) WriteFault() error {
	if r.rng.Float64() < 0.01 {
		return faults.NewEnvironmentFault("simulated disk write error")
	}
	return nil
}

func statusToFault(code int) failure.ClassifiedError {
	msg := fmt.Sprintf("simulated HTTP status %d", code)
	for _, c := range retryableStatuses {
		if c == code {
			return &faults.TransientFault{Message: msg}
		}
	}
	return faults.NewPageFault("%s", msg)
}
