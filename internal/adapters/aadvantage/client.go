// internal/adapters/aadvantage/client.go
package aadvantage

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"lpstays/internal/adapters/observability"
	"lpstays/internal/domain"
)

const (
	placesPath        = "/rest/aadvantage-hotels/places"
	searchRequestPath = "/rest/aadvantage-hotels/searchRequest"
	resultsPath       = "/rest/aadvantage-hotels/search"

	queryDateLayout = "01/02/2006" // the search API speaks MM/DD/YYYY
	pageSize        = 45
)

var (
	ErrNotFound     = errors.New("aadvantage: not found")
	ErrUnauthorized = errors.New("aadvantage: unauthorized")
	ErrNoPlace      = errors.New("aadvantage: no place matched query")
	ErrNoSearchID   = errors.New("aadvantage: search response missing uuid")
)

// Place is a resolved search location.
type Place struct {
	ID   string
	Name string
}

// Client talks to the loyalty-program booking site: place discovery plus the
// two-phase offer search (initiate, then poll results by search ID). Requests
// carry browser-exported session headers, are client-side rate limited, and
// retry transient failures honoring Retry-After.
type Client struct {
	base    string
	hc      *http.Client
	session map[string]string
	rl      *rate.Limiter
	workers int64
}

func New(base string, session map[string]string, rps, workers int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	if workers <= 0 {
		workers = 10
	}
	return &Client{
		base:    strings.TrimRight(base, "/"),
		hc:      &http.Client{Timeout: 20 * time.Second},
		session: session,
		rl:      rate.NewLimiter(rate.Limit(rps), rps),
		workers: int64(workers),
	}, nil
}

// LoadSessionHeaders reads a JSON object of header name -> value, the format
// produced by exporting a logged-in browser session. An empty path is fine:
// unauthenticated searches work, with thinner results.
func LoadSessionHeaders(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("session headers: %w", err)
	}
	var h map[string]string
	if err := json.Unmarshal(b, &h); err != nil {
		return nil, fmt.Errorf("session headers: %w", err)
	}
	return h, nil
}

// ---- place discovery ----

type placeEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// DiscoverPlace resolves a free-form city query to a search place. City-typed
// entries whose name matches the query win, shortest name first; any
// city-typed entry beats an area; the first entry is the last resort.
func (c *Client) DiscoverPlace(ctx context.Context, query string) (Place, error) {
	q := url.Values{
		"query":             {query},
		"source":            {"AGODA"},
		"language":          {"en"},
		"includeHotelNames": {"true"},
	}
	var entries []placeEntry
	if err := c.getJSON(ctx, "places", c.base+placesPath+"?"+q.Encode(), &entries); err != nil {
		return Place{}, err
	}
	if len(entries) == 0 {
		return Place{}, ErrNoPlace
	}

	low := strings.ToLower(query)
	match := func(e placeEntry) bool {
		return strings.Contains(strings.ToLower(e.Name), low) ||
			strings.Contains(strings.ToLower(e.Description), low)
	}
	cities := make([]placeEntry, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" || e.Name == "" {
			continue
		}
		if e.Type == "AGODA_CITY" {
			cities = append(cities, e)
		}
	}
	sort.SliceStable(cities, func(i, j int) bool { return len(cities[i].Name) < len(cities[j].Name) })
	for _, e := range cities {
		if match(e) {
			return Place{ID: e.ID, Name: e.Name}, nil
		}
	}
	if len(cities) > 0 {
		return Place{ID: cities[0].ID, Name: cities[0].Name}, nil
	}
	for _, e := range entries {
		if e.ID != "" && e.Name != "" {
			return Place{ID: e.ID, Name: e.Name}, nil
		}
	}
	return Place{}, ErrNoPlace
}

// ---- offer search ----

// FetchOffers retrieves single-night offers for every date in [from, to],
// fanning the per-day searches out over a bounded worker pool. Days that fail
// are logged and skipped; the call errors only when nothing succeeded.
func (c *Client) FetchOffers(ctx context.Context, placeID string, from, to time.Time) ([]domain.Offer, error) {
	sem := semaphore.NewWeighted(c.workers)
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		out      []domain.Offer
		firstErr error
		okDays   int
	)

	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(day time.Time) {
			defer wg.Done()
			defer sem.Release(1)

			offers, err := c.fetchDay(ctx, placeID, day)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Warn().Err(err).Str("place", placeID).
					Str("date", day.Format("2006-01-02")).Msg("day fetch failed")
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			okDays++
			out = append(out, offers...)
		}(day)
	}
	wg.Wait()

	if okDays == 0 && firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

type searchInitResponse struct {
	UUID string `json:"uuid"`
}

type searchResults struct {
	Results []struct {
		Hotel struct {
			ID   json.Number `json:"id"`
			Name string      `json:"name"`
		} `json:"hotel"`
		GrandTotal struct {
			Amount float64 `json:"amount"`
		} `json:"grandTotalPublishedPriceInclusiveWithFees"`
		Rewards int `json:"rewards"`
	} `json:"results"`
}

func (c *Client) fetchDay(ctx context.Context, placeID string, day time.Time) ([]domain.Offer, error) {
	q := url.Values{
		"adults":           {"1"},
		"checkIn":          {day.Format(queryDateLayout)},
		"checkOut":         {day.AddDate(0, 0, 1).Format(queryDateLayout)},
		"children":         {"0"},
		"currency":         {"USD"},
		"language":         {"en"},
		"locationType":     {"CITY"},
		"mode":             {"earn"},
		"numberOfChildren": {"0"},
		"placeId":          {placeID},
		"program":          {"aadvantage"},
		"rooms":            {"1"},
		"source":           {"AGODA"},
	}
	var init searchInitResponse
	if err := c.getJSON(ctx, "searchRequest", c.base+searchRequestPath+"?"+q.Encode(), &init); err != nil {
		return nil, fmt.Errorf("initiate search: %w", err)
	}
	if init.UUID == "" {
		return nil, ErrNoSearchID
	}

	rq := url.Values{
		"pageSize":   {strconv.Itoa(pageSize)},
		"pageNumber": {"1"},
	}
	var res searchResults
	if err := c.getJSON(ctx, "search", c.base+resultsPath+"/"+init.UUID+"?"+rq.Encode(), &res); err != nil {
		return nil, fmt.Errorf("fetch results: %w", err)
	}

	offers := make([]domain.Offer, 0, len(res.Results))
	for _, r := range res.Results {
		id := r.Hotel.ID.String()
		if id == "" {
			id = r.Hotel.Name
		}
		offers = append(offers, domain.Offer{
			HotelID:    id,
			HotelName:  r.Hotel.Name,
			CheckIn:    day,
			Price:      decimal.NewFromFloat(r.GrandTotal.Amount),
			BasePoints: r.Rewards,
		})
	}
	return offers, nil
}

// ---- transport ----

// getJSON performs a GET with client-side rate limiting and retries on 429
// and transient 5xx, honoring Retry-After when provided.
func (c *Client) getJSON(ctx context.Context, endpoint, u string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json, text/plain, */*")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		for k, v := range c.session {
			req.Header.Set(k, v)
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			observability.ObserveSearch(endpoint, 0, time.Since(start))
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveSearch(endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (200ms, 400ms, 800ms...) with up to
// +50% jitter to avoid thundering herds across worker goroutines.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
