// Package steam is a minimal read-only client for the two Steam Web API
// endpoints steamvalue needs: a user's owned games with playtime, and the
// full app id to name catalog.
package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rshade/steamvalue/internal/logging"
)

// Endpoint paths, relative to the API base URL.
const (
	EndpointOwnedGames = "IPlayerService/GetOwnedGames/v0001"
	EndpointAppList    = "ISteamApps/GetAppList/v2"
)

// DefaultTimeout applies when no HTTP client is supplied.
const DefaultTimeout = 30 * time.Second

// Client calls the Steam Web API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cl.httpClient = &http.Client{Timeout: d}
	}
}

// NewClient creates a client for the API rooted at baseURL
// (e.g. "https://api.steampowered.com").
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ownedGamesResponse struct {
	Response struct {
		GameCount int          `json:"game_count"`
		Games     *[]ownedGame `json:"games"`
	} `json:"response"`
}

type ownedGame struct {
	AppID           int `json:"appid"`
	PlaytimeForever int `json:"playtime_forever"`
}

type appListResponse struct {
	AppList struct {
		Apps *[]App `json:"apps"`
	} `json:"applist"`
}

// App is one entry of the Steam app catalog.
type App struct {
	AppID int    `json:"appid"`
	Name  string `json:"name"`
}

// GetPlaytimes returns app id → total minutes played for every game the
// user owns, including played free games.
func (c *Client) GetPlaytimes(ctx context.Context, apiKey, userID string) (map[int]int, error) {
	log := logging.FromContext(ctx)
	log.Debug().Str("steam_id", userID).Msg("loading Steam playtimes")

	query := url.Values{}
	query.Set("key", apiKey)
	query.Set("steamid", userID)
	query.Set("include_played_free_games", "true")
	query.Set("format", "json")

	var body ownedGamesResponse
	if err := c.getJSON(ctx, EndpointOwnedGames, query, &body); err != nil {
		return nil, err
	}
	if body.Response.Games == nil {
		return nil, &RemoteError{
			Endpoint: EndpointOwnedGames,
			Err:      fmt.Errorf("%w: missing response.games (check Steam ID and API key)", ErrUnexpectedPayload),
		}
	}

	playtimes := make(map[int]int, len(*body.Response.Games))
	for _, g := range *body.Response.Games {
		playtimes[g.AppID] = g.PlaytimeForever
	}

	log.Debug().Int("game_count", len(playtimes)).Msg("Steam playtimes loaded")
	return playtimes, nil
}

// GetAppList returns the full app id → name catalog.
func (c *Client) GetAppList(ctx context.Context) (map[int]string, error) {
	log := logging.FromContext(ctx)
	log.Debug().Msg("loading all game names")

	var body appListResponse
	if err := c.getJSON(ctx, EndpointAppList, nil, &body); err != nil {
		return nil, err
	}
	if body.AppList.Apps == nil {
		return nil, &RemoteError{
			Endpoint: EndpointAppList,
			Err:      fmt.Errorf("%w: missing applist.apps", ErrUnexpectedPayload),
		}
	}

	catalog := make(map[int]string, len(*body.AppList.Apps))
	for _, app := range *body.AppList.Apps {
		catalog[app.AppID] = app.Name
	}

	log.Debug().Int("app_count", len(catalog)).Msg("Steam app catalog loaded")
	return catalog, nil
}

// getJSON performs a GET request and decodes a 200 response into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	reqURL := c.baseURL + "/" + endpoint + "/"
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &RemoteError{Endpoint: endpoint, Err: redact(err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RemoteError{Endpoint: endpoint, Err: redact(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &RemoteError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: ErrUnexpectedStatus}
	}

	if decodeErr := json.NewDecoder(resp.Body).Decode(out); decodeErr != nil {
		return &RemoteError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %w", ErrUnexpectedPayload, decodeErr),
		}
	}

	return nil
}

// redact strips the request URL, which contains the API key, from transport errors.
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
