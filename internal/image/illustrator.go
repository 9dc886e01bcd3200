package image

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// FallbackURL is shown whenever a keyword lookup fails.
const FallbackURL = "https://placekitten.com/256/256"

// Illustrator resolves story keywords to image URLs. Lookup never fails:
// every problem is logged as a *LookupError and replaced by FallbackURL.
type Illustrator struct {
	searcher Searcher
	breaker  *gobreaker.CircuitBreaker
	log      logrus.FieldLogger
}

// NewIllustrator wraps searcher. A nil searcher (no credentials configured)
// makes every lookup return FallbackURL without network traffic.
func NewIllustrator(searcher Searcher, log logrus.FieldLogger) *Illustrator {
	i := &Illustrator{searcher: searcher, log: log}
	if searcher != nil {
		i.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "image-" + searcher.Name(),
			MaxRequests: 1,
			Timeout:     time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			IsSuccessful: func(err error) bool {
				// An empty result for one keyword says nothing about provider health.
				var searchErr *SearchError
				if errors.As(err, &searchErr) && searchErr.Code == "empty" {
					return true
				}
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.WithFields(logrus.Fields{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				}).Warn("circuit breaker state changed")
			},
		})
	}
	return i
}

// Provider names the configured search provider, or "none".
func (i *Illustrator) Provider() string {
	if i.searcher == nil {
		return "none"
	}
	return i.searcher.Name()
}

// Lookup returns the small rendition URL of a random photo for keyword.
func (i *Illustrator) Lookup(ctx context.Context, keyword string) string {
	if i.searcher == nil {
		i.log.WithField("keyword", keyword).Debug("no image provider configured, using placeholder")
		return FallbackURL
	}

	result, err := i.breaker.Execute(func() (interface{}, error) {
		return i.searcher.RandomPhoto(ctx, DefaultSearchOptions(keyword))
	})
	if err != nil {
		lookupErr := &LookupError{Keyword: keyword, Provider: i.searcher.Name(), Err: err}
		i.log.WithFields(logrus.Fields{
			"keyword":  keyword,
			"provider": i.searcher.Name(),
		}).WithError(lookupErr).Warn("image lookup failed, using placeholder")
		return FallbackURL
	}

	photo := result.(*SearchResult)
	i.log.WithFields(logrus.Fields{
		"keyword":  keyword,
		"provider": photo.Source,
		"photo":    photo.ID,
	}).Debug("image found")
	return photo.SmallURL
}
