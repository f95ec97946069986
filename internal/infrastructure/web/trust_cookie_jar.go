package web

import (
	"net/http"
	"time"

	"github.com/nlct/pass-auth/internal/domain/interfaces"
)

// CookieSettings carry the per-deployment cookie attributes.
type CookieSettings struct {
	Name   string
	Domain string
	Secure bool
}

// httpTrustCookieJar implements interfaces.TrustCookieJar over one HTTP
// request/response pair. The credential layer decides when to set or clear;
// this type only translates that into headers.
type httpTrustCookieJar struct {
	r        *http.Request
	w        http.ResponseWriter
	settings CookieSettings
}

// NewTrustCookieJar creates a jar bound to a request and its response.
func NewTrustCookieJar(r *http.Request, w http.ResponseWriter, settings CookieSettings) interfaces.TrustCookieJar {
	return &httpTrustCookieJar{r: r, w: w, settings: settings}
}

func (j *httpTrustCookieJar) Get() (string, bool) {
	cookie, err := j.r.Cookie(j.settings.Name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func (j *httpTrustCookieJar) Set(value string, expiresAt time.Time) {
	http.SetCookie(j.w, &http.Cookie{
		Name:     j.settings.Name,
		Value:    value,
		Path:     "/",
		Domain:   j.settings.Domain,
		Expires:  expiresAt,
		Secure:   j.settings.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (j *httpTrustCookieJar) Clear() {
	http.SetCookie(j.w, &http.Cookie{
		Name:     j.settings.Name,
		Value:    "",
		Path:     "/",
		Domain:   j.settings.Domain,
		MaxAge:   -1,
		Secure:   j.settings.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

var _ interfaces.TrustCookieJar = (*httpTrustCookieJar)(nil)
