package main

import (
	"crypto/subtle"
	"flag"
	"net/http"
	"strings"
)

var (
	authUsername = flag.String("api-username", "admin", "Username for API endpoint")
	authPassword = flag.String("api-password", "", "Password for API endpoint")
	authToken    = flag.String("api-token", "", "Bearer token for authentication")
)

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// authorized checks basic credentials or a bearer token, whichever is
// configured. Without either the API is open.
func authorized(r *http.Request, username, password, token string) bool {
	if password != "" {
		if u, p, ok := r.BasicAuth(); ok && equal(u, username) && equal(p, password) {
			return true
		}
	}

	if token != "" {
		if t := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "); t != "" && equal(t, token) {
			return true
		}
	}

	return password == "" && token == ""
}

func basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if authorized(r, *authUsername, *authPassword, *authToken) {
			next.ServeHTTP(w, r)
		} else {
			w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		}
	}
}
