package client

import (
	"context"
	"log"
	"time"
)

// CompanyFetcher is the read behind a CompanySource.
type CompanyFetcher interface {
	Companies(ctx context.Context) ([]Company, error)
}

// CompanySource loads the selector options. It retries a failed read and, if
// every attempt fails, degrades to an empty list so the draft stays usable.
type CompanySource struct {
	fetcher  CompanyFetcher
	attempts int
	backoff  time.Duration
}

func NewCompanySource(fetcher CompanyFetcher, attempts int, backoff time.Duration) *CompanySource {
	if attempts < 1 {
		attempts = 1
	}
	return &CompanySource{fetcher: fetcher, attempts: attempts, backoff: backoff}
}

func (s *CompanySource) Load(ctx context.Context) []Company {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		companies, err := s.fetcher.Companies(ctx)
		if err == nil {
			if companies == nil {
				companies = []Company{}
			}
			return companies
		}
		lastErr = err

		if attempt == s.attempts {
			break
		}
		select {
		case <-ctx.Done():
			log.Printf("WARNING: company list unavailable: %v", ctx.Err())
			return []Company{}
		case <-time.After(s.backoff * time.Duration(attempt)):
		}
	}

	log.Printf("WARNING: company list unavailable after %d attempts: %v", s.attempts, lastErr)
	return []Company{}
}
