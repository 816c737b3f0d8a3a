package raceapi

import (
	"net/http"

	"golang.org/x/oauth2"
)

// authorizedClient returns a copy of hc whose requests carry token as a
// bearer credential.
func authorizedClient(hc *http.Client, token string) *http.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	authed := *hc
	authed.Transport = &oauth2.Transport{Source: ts, Base: hc.Transport}
	return &authed
}
