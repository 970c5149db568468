// Package riot is a rate-limited, caching client for the Riot TFT endpoints
// the duo sync needs.
package riot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/itbasis/go-clock"

	"github.com/pable/tft-duo-metrics/internal/cache"
)

// Response cache lifetimes per endpoint.
const (
	accountTTL  = 5 * time.Minute
	matchIDsTTL = 2 * time.Minute
	matchTTL    = 24 * time.Hour
	summonerTTL = 5 * time.Minute
	rankTTL     = time.Minute

	defaultRetryAfter = 10 * time.Second
	maxRetries        = 3
	// MaxPageSize is the largest count the match-id endpoint accepts.
	MaxPageSize = 100
)

// Regions are the routing values accepted for account and match calls.
var Regions = []string{"americas", "europe", "asia"}

// ValidRegion reports whether region is a known routing value.
func ValidRegion(region string) bool {
	return slices.Contains(Regions, region)
}

type Account struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

type Summoner struct {
	ID            string `json:"id"`
	PUUID         string `json:"puuid"`
	SummonerLevel int    `json:"summonerLevel"`
}

type LeagueEntry struct {
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
}

// MatchIDsQuery pages through a player's match ids. StartTime is epoch seconds;
// zero omits the filter.
type MatchIDsQuery struct {
	Start     int
	Count     int
	StartTime int64
}

// Client talks to one routing region and one platform.
type Client struct {
	apiKey   string
	region   string
	platform string
	baseURL  string
	http     *http.Client
	clock    clock.Clock
	log      *slog.Logger
	limiter  *limiter

	accounts  *cache.TTL[Account]
	matchIDs  *cache.TTL[[]string]
	matches   *cache.TTL[[]byte]
	summoners *cache.TTL[Summoner]
	ranks     *cache.TTL[[]LeagueEntry]
}

type Option func(*Client)

// WithBaseURL sends every request to base instead of the regional hosts.
func WithBaseURL(base string) Option { return func(c *Client) { c.baseURL = base } }

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

func WithClock(cl clock.Clock) Option { return func(c *Client) { c.clock = cl } }

func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.log = l } }

// NewClient validates the region and builds a client.
func NewClient(apiKey, region, platform string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("RIOT_API_KEY is not set")
	}
	if !ValidRegion(region) {
		return nil, fmt.Errorf("region must be one of: americas, europe, asia")
	}
	c := &Client{
		apiKey:   apiKey,
		region:   region,
		platform: platform,
		http:     &http.Client{Timeout: 30 * time.Second},
		clock:    clock.New(),
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	c.limiter = newLimiter(c.clock, c.log)
	c.accounts = cache.New[Account](c.clock)
	c.matchIDs = cache.New[[]string](c.clock)
	c.matches = cache.New[[]byte](c.clock)
	c.summoners = cache.New[Summoner](c.clock)
	c.ranks = cache.New[[]LeagueEntry](c.clock)
	return c, nil
}

func (c *Client) Region() string   { return c.region }
func (c *Client) Platform() string { return c.platform }

func (c *Client) regionalURL(path string) string {
	if c.baseURL != "" {
		return c.baseURL + path
	}
	return "https://" + c.region + ".api.riotgames.com" + path
}

func (c *Client) platformURL(path string) string {
	if c.baseURL != "" {
		return c.baseURL + path
	}
	return "https://" + c.platform + ".api.riotgames.com" + path
}

// get performs a rate-limited GET and returns the body. 429 responses are
// retried after Retry-After, up to maxRetries times.
func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Riot-Token", c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("riot request: %w", err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read riot response: %w", err)
		}
		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		apiErr := &APIError{Status: resp.StatusCode, Body: string(body)}
		if resp.StatusCode == http.StatusTooManyRequests {
			apiErr.RetryAfter = retryAfter(resp.Header.Get("Retry-After"))
			if attempt < maxRetries {
				c.log.Warn("riot rate limited", "retry_after", apiErr.RetryAfter, "attempt", attempt+1)
				if apiErr.RetryAfter > 0 {
					if err := sleep(ctx, c.clock, apiErr.RetryAfter); err != nil {
						return nil, err
					}
				}
				continue
			}
		}
		return nil, apiErr
	}
}

func retryAfter(h string) time.Duration {
	if h == "" {
		return defaultRetryAfter
	}
	secs, err := strconv.Atoi(h)
	if err != nil || secs < 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

// cachedJSON serves key from ttlCache or fetches and decodes it.
func cachedJSON[T any](ctx context.Context, c *Client, ttlCache *cache.TTL[T], u string, ttl time.Duration) (T, error) {
	if v, ok := ttlCache.Get(u); ok {
		c.log.Debug("riot cache hit", "url", u)
		return v, nil
	}
	var v T
	body, err := c.get(ctx, u)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", u, err)
	}
	ttlCache.Set(u, v, ttl)
	return v, nil
}

// AccountByRiotID resolves gameName#tagLine to an account.
func (c *Client) AccountByRiotID(ctx context.Context, gameName, tagLine string) (Account, error) {
	u := c.regionalURL("/riot/account/v1/accounts/by-riot-id/" + url.PathEscape(gameName) + "/" + url.PathEscape(tagLine))
	return cachedJSON(ctx, c, c.accounts, u, accountTTL)
}

// MatchIDs returns one page of match ids, newest first.
func (c *Client) MatchIDs(ctx context.Context, puuid string, q MatchIDsQuery) ([]string, error) {
	v := url.Values{}
	v.Set("start", strconv.Itoa(q.Start))
	v.Set("count", strconv.Itoa(q.Count))
	if q.StartTime > 0 {
		v.Set("startTime", strconv.FormatInt(q.StartTime, 10))
	}
	u := c.regionalURL("/tft/match/v1/matches/by-puuid/"+url.PathEscape(puuid)+"/ids") + "?" + v.Encode()
	return cachedJSON(ctx, c, c.matchIDs, u, matchIDsTTL)
}

// Match returns the raw match document.
func (c *Client) Match(ctx context.Context, matchID string) ([]byte, error) {
	u := c.regionalURL("/tft/match/v1/matches/" + url.PathEscape(matchID))
	if v, ok := c.matches.Get(u); ok {
		return v, nil
	}
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	c.matches.Set(u, body, matchTTL)
	return body, nil
}

func (c *Client) SummonerByPUUID(ctx context.Context, puuid string) (Summoner, error) {
	u := c.platformURL("/tft/summoner/v1/summoners/by-puuid/" + url.PathEscape(puuid))
	return cachedJSON(ctx, c, c.summoners, u, summonerTTL)
}

// LeagueEntries fetches ranked entries by summoner id, or by puuid when the
// summoner payload no longer carries an id.
func (c *Client) LeagueEntries(ctx context.Context, s Summoner) ([]LeagueEntry, error) {
	path := "/tft/league/v1/entries/by-summoner/" + url.PathEscape(s.ID)
	if s.ID == "" {
		path = "/tft/league/v1/by-puuid/" + url.PathEscape(s.PUUID)
	}
	return cachedJSON(ctx, c, c.ranks, c.platformURL(path), rankTTL)
}

// Rank is the formatted rank for puuid. Any failure reads as "Unranked".
func (c *Client) Rank(ctx context.Context, puuid string) string {
	s, err := c.SummonerByPUUID(ctx, puuid)
	if err != nil {
		c.log.Debug("summoner lookup failed", "puuid", puuid, "err", err)
		return Unranked
	}
	entries, err := c.LeagueEntries(ctx, s)
	if err != nil {
		c.log.Debug("league lookup failed", "puuid", puuid, "err", err)
		return Unranked
	}
	return FormatRank(entries)
}
