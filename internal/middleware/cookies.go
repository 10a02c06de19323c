package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/project-hub/internal/model"
)

// Cookie names shared by the gate and the auth handlers.
const (
	AccessCookie   = "access_token"
	RefreshCookie  = "refresh_token"
	RedirectCookie = "auth_redirect"
)

// Cookie lifetimes in seconds.
const (
	accessCookieMaxAge  = 3600
	refreshCookieMaxAge = 604800
)

func authCookie(name, value string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// SetAuthCookies stores both tokens of pair as httpOnly cookies.
func SetAuthCookies(c echo.Context, pair model.TokenPair, secure bool) {
	c.SetCookie(authCookie(AccessCookie, pair.AccessToken, accessCookieMaxAge, secure))
	c.SetCookie(authCookie(RefreshCookie, pair.RefreshToken, refreshCookieMaxAge, secure))
}

// ClearAuthCookies expires both token cookies.
func ClearAuthCookies(c echo.Context, secure bool) {
	c.SetCookie(authCookie(AccessCookie, "", -1, secure))
	c.SetCookie(authCookie(RefreshCookie, "", -1, secure))
}

// SetRedirectCookie stashes the destination to resume after a refresh.
// SameSite is Lax here because the cookie has to survive the redirect
// chain started by a top-level navigation.
func SetRedirectCookie(c echo.Context, target string, ttl time.Duration, secure bool) {
	ck := authCookie(RedirectCookie, target, int(ttl/time.Second), secure)
	ck.SameSite = http.SameSiteLaxMode
	c.SetCookie(ck)
}

// ClearRedirectCookie expires the resume cookie.
func ClearRedirectCookie(c echo.Context, secure bool) {
	ck := authCookie(RedirectCookie, "", -1, secure)
	ck.SameSite = http.SameSiteLaxMode
	c.SetCookie(ck)
}

// CookieValue returns the named cookie's value or "".
func CookieValue(c echo.Context, name string) string {
	ck, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}
