package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/project-hub/internal/auth"
	"github.com/iliyamo/project-hub/internal/middleware"
	"github.com/iliyamo/project-hub/internal/model"
)

// ErrReauthenticate means the stored session is gone for good and the user
// has to log in again.
var ErrReauthenticate = errors.New("session: re-authentication required")

// APIError is a non-success response from the auth service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth service: %d %s", e.Status, e.Message)
}

// Client talks to the auth service and to routes behind its gate.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Store   TokenStore

	// OnTokens is called after the stored pair changes.  A zero pair means
	// the session was cleared.
	OnTokens func(model.TokenPair)

	refreshMu sync.Mutex
}

// NewClient builds a client for baseURL.  Redirects are not followed: the
// gate answers unauthenticated requests with a redirect to login or to the
// refresh endpoint, and the client needs to see that.
func NewClient(baseURL string, store TokenStore) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Store:   store,
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

type tokenResp struct {
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	User         model.PublicUser `json:"user"`
}

// Login signs in and stores the issued pair.
func (c *Client) Login(ctx context.Context, email, password string) (model.PublicUser, error) {
	var out tokenResp
	status, err := c.postJSON(ctx, "/api/auth/login", map[string]string{"email": email, "password": password}, nil, &out)
	if err != nil {
		if status == http.StatusUnauthorized {
			return model.PublicUser{}, auth.ErrInvalidCredentials
		}
		return model.PublicUser{}, err
	}
	if err := c.save(pairFrom(out.AccessToken, out.RefreshToken)); err != nil {
		return model.PublicUser{}, err
	}
	return out.User, nil
}

// Refresh exchanges the stored refresh token for a new pair.  A rejected
// refresh clears the store and returns ErrReauthenticate.
func (c *Client) Refresh(ctx context.Context) (model.TokenPair, error) {
	pair, err := c.Store.Load()
	if err != nil {
		if errors.Is(err, ErrNoTokens) {
			return model.TokenPair{}, ErrReauthenticate
		}
		return model.TokenPair{}, err
	}
	if pair.RefreshToken == "" {
		return model.TokenPair{}, ErrReauthenticate
	}

	var out tokenResp
	status, err := c.postJSON(ctx, "/api/auth/refresh", map[string]string{"refreshToken": pair.RefreshToken}, nil, &out)
	if err != nil {
		if status == http.StatusUnauthorized || status == http.StatusBadRequest {
			_ = c.clear()
			return model.TokenPair{}, ErrReauthenticate
		}
		return model.TokenPair{}, err
	}
	next := pairFrom(out.AccessToken, out.RefreshToken)
	if err := c.save(next); err != nil {
		return model.TokenPair{}, err
	}
	return next, nil
}

// Logout tells the service to end the session and always clears the
// local store, even when the request fails.
func (c *Client) Logout(ctx context.Context) error {
	pair, err := c.Store.Load()
	if err != nil && !errors.Is(err, ErrNoTokens) {
		return err
	}
	var cookies []*http.Cookie
	if pair.AccessToken != "" {
		cookies = append(cookies, &http.Cookie{Name: middleware.AccessCookie, Value: pair.AccessToken})
	}
	_, reqErr := c.postJSON(ctx, "/api/auth/logout", map[string]string{"refreshToken": pair.RefreshToken}, cookies, nil)
	if err := c.clear(); err != nil {
		return err
	}
	return reqErr
}

// Do sends req with the stored access token.  When the service rejects
// the token it refreshes once and replays the request once; it never
// loops.  If the refresh fails the store is cleared and ErrReauthenticate
// is returned.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.GetBody == nil {
		b, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(b))
		req.GetBody = func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(b)), nil }
	}

	pair, err := c.Store.Load()
	if err != nil && !errors.Is(err, ErrNoTokens) {
		return nil, err
	}
	resp, err := c.HTTP.Do(withAccess(req, pair.AccessToken))
	if err != nil || !rejected(resp) {
		return resp, err
	}
	drain(resp)
	if pair.RefreshToken == "" {
		return nil, ErrReauthenticate
	}

	next, err := c.refreshOnce(req.Context(), pair.AccessToken)
	if err != nil {
		return nil, err
	}
	replay := req.Clone(req.Context())
	if req.GetBody != nil {
		if replay.Body, err = req.GetBody(); err != nil {
			return nil, err
		}
	}
	return c.HTTP.Do(withAccess(replay, next.AccessToken))
}

// refreshOnce serializes refreshes.  If another caller already replaced
// the token that was rejected, its result is reused.
func (c *Client) refreshOnce(ctx context.Context, rejectedAccess string) (model.TokenPair, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	if pair, err := c.Store.Load(); err == nil && pair.AccessToken != "" && pair.AccessToken != rejectedAccess {
		return pair, nil
	}
	return c.Refresh(ctx)
}

func (c *Client) save(pair model.TokenPair) error {
	if err := c.Store.Save(pair); err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}
	if c.OnTokens != nil {
		c.OnTokens(pair)
	}
	return nil
}

func (c *Client) clear() error {
	err := c.Store.Clear()
	if c.OnTokens != nil {
		c.OnTokens(model.TokenPair{})
	}
	return err
}

func (c *Client) postJSON(ctx context.Context, path string, in any, cookies []*http.Cookie, out any) (int, error) {
	b, err := json.Marshal(in)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return resp.StatusCode, &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}

// withAccess returns a copy of req carrying access as the access-token
// cookie, replacing any earlier one.
func withAccess(req *http.Request, access string) *http.Request {
	out := req.Clone(req.Context())
	out.Body = req.Body
	cookies := req.Cookies()
	out.Header.Del("Cookie")
	for _, ck := range cookies {
		if ck.Name != middleware.AccessCookie {
			out.AddCookie(ck)
		}
	}
	if access != "" {
		out.AddCookie(&http.Cookie{Name: middleware.AccessCookie, Value: access})
	}
	return out
}

// rejected reports whether the service refused the session: a 401 from a
// handler or a gate redirect to the login page or the refresh endpoint.
func rejected(resp *http.Response) bool {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return true
	case http.StatusFound, http.StatusSeeOther, http.StatusTemporaryRedirect:
		loc, err := url.Parse(resp.Header.Get("Location"))
		if err != nil {
			return false
		}
		return loc.Path == "/login" || loc.Path == "/api/auth/refresh"
	default:
		return false
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
