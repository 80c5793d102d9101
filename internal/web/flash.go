package web

import (
	"net/http"
	"net/url"
	"strings"
)

const flashCookie = "flash"

// Flash is a one-shot notification surfaced on the next rendered page
type Flash struct {
	Category string // success, info, danger
	Message  string
}

// SetFlash queues a flash message for the next request
func SetFlash(w http.ResponseWriter, category, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(category + "|" + message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlash reads and clears the pending flash message, if any
func PopFlash(w http.ResponseWriter, r *http.Request) (Flash, bool) {
	cookie, err := r.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return Flash{}, false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	decoded, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return Flash{}, false
	}

	category, message, found := strings.Cut(decoded, "|")
	if !found {
		return Flash{Category: "info", Message: decoded}, true
	}
	return Flash{Category: category, Message: message}, true
}
