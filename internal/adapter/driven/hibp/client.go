// Package hibp implements the BreachOracle port against the Have I Been
// Pwned corpora: the Pwned Passwords range API (k-anonymity) and the
// breached-domain directory.
package hibp

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/breachwatch/internal/domain/apperr"
	"github.com/ericfisherdev/breachwatch/internal/domain/model"
	"github.com/ericfisherdev/breachwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.BreachOracle = (*Client)(nil)

const (
	defaultPasswordBaseURL = "https://api.pwnedpasswords.com"
	defaultDomainBaseURL   = "https://haveibeenpwned.com/api/v3"

	userAgent      = "breachwatch-breach-checker"
	requestTimeout = 10 * time.Second

	// hashPrefixLen is the number of digest hex characters disclosed to the
	// range API. Only the prefix ever leaves the process.
	hashPrefixLen = 5
)

// Client implements the driven.BreachOracle port. Range responses are
// cacheable and served through an in-memory httpcache transport, so
// re-checks of unchanged passwords within a sweep stay local.
type Client struct {
	http            *http.Client
	passwordBaseURL string
	domainBaseURL   string
	apiKey          string
}

// NewClient creates a Client for the production HIBP endpoints. apiKey is
// required only for domain lookups; an empty key degrades those to
// fail-open not-found results once the API rejects the request.
func NewClient(apiKey string) *Client {
	return &Client{
		http: &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   requestTimeout,
		},
		passwordBaseURL: defaultPasswordBaseURL,
		domainBaseURL:   defaultDomainBaseURL,
		apiKey:          apiKey,
	}
}

// NewClientWithHTTPClient creates a Client against custom base URLs.
// This constructor is intended for testing, allowing injection of an
// httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, passwordBaseURL, domainBaseURL, apiKey string) *Client {
	return &Client{
		http:            httpClient,
		passwordBaseURL: passwordBaseURL,
		domainBaseURL:   domainBaseURL,
		apiKey:          apiKey,
	}
}

// CheckPassword performs the k-anonymity lookup. The SHA-1 digest of the
// password is split after five hex characters; only the prefix is sent,
// and the returned suffix list is matched locally with exact,
// case-normalized comparison.
//
// Any transport or parse failure returns Found = false with a non-nil
// error for logging; callers must not fail closed on it.
func (c *Client) CheckPassword(ctx context.Context, password string) (model.BreachResult, error) {
	digest := fmt.Sprintf("%X", sha1.Sum([]byte(password)))
	prefix, suffix := digest[:hashPrefixLen], digest[hashPrefixLen:]

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.passwordBaseURL+"/range/"+prefix, nil)
	if err != nil {
		return model.BreachResult{}, apperr.Wrap(apperr.KindOracleUnavailable, "build range request", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return model.BreachResult{}, apperr.Wrap(apperr.KindOracleUnavailable, "password range lookup", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.BreachResult{}, apperr.E(apperr.KindOracleUnavailable,
			fmt.Sprintf("password range lookup: unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.BreachResult{}, apperr.Wrap(apperr.KindOracleUnavailable, "read range response", err)
	}

	count, found := matchSuffix(string(body), suffix)
	if !found {
		return model.BreachResult{}, nil
	}

	return model.BreachResult{
		Found:   true,
		Count:   count,
		Sources: []string{fmt.Sprintf("Password found in %d data breaches", count)},
	}, nil
}

// matchSuffix scans the newline-delimited "SUFFIX:COUNT" response for an
// exact match of the probe suffix. Comparison is case-normalized to
// uppercase and must be whole-suffix equality, never prefix equality.
func matchSuffix(body, suffix string) (int, bool) {
	for line := range strings.Lines(body) {
		candidate, countStr, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		if strings.ToUpper(candidate) != suffix {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(countStr))
		if err != nil {
			return 0, false
		}
		return count, true
	}
	return 0, false
}

// breachEntry is the subset of the HIBP breach document we surface.
type breachEntry struct {
	Name       string `json:"Name"`
	BreachDate string `json:"BreachDate"`
}

// CheckService looks the service name up in the breached-domain directory.
// A 404 is the normal "never breached" outcome; any other non-success
// status or transport failure is fail-open with an error for logging.
func (c *Client) CheckService(ctx context.Context, serviceName string) (model.BreachResult, error) {
	endpoint := c.domainBaseURL + "/breacheddomain/" + url.PathEscape(serviceName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return model.BreachResult{}, apperr.Wrap(apperr.KindOracleUnavailable, "build domain request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("hibp-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return model.BreachResult{}, apperr.Wrap(apperr.KindOracleUnavailable, "domain lookup", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return model.BreachResult{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return model.BreachResult{}, apperr.E(apperr.KindOracleUnavailable,
			fmt.Sprintf("domain lookup: unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.BreachResult{}, apperr.Wrap(apperr.KindOracleUnavailable, "read domain response", err)
	}

	entries, err := parseBreaches(body)
	if err != nil {
		return model.BreachResult{}, apperr.Wrap(apperr.KindOracleUnavailable, "parse domain response", err)
	}
	if len(entries) == 0 {
		return model.BreachResult{}, nil
	}

	sources := make([]string, 0, len(entries))
	for _, e := range entries {
		sources = append(sources, fmt.Sprintf("%s (%s)", e.Name, e.BreachDate))
	}

	return model.BreachResult{Found: true, Sources: sources}, nil
}

// parseBreaches accepts either a JSON array of breach documents or a
// single document; the API has returned both shapes.
func parseBreaches(body []byte) ([]breachEntry, error) {
	var entries []breachEntry
	if err := json.Unmarshal(body, &entries); err == nil {
		return entries, nil
	}

	var single breachEntry
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, err
	}
	return []breachEntry{single}, nil
}
