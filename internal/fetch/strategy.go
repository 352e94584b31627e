// Package fetch retrieves published spreadsheet CSV text through an ordered
// list of relay endpoints followed by a direct request.
package fetch

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds a single retrieval attempt.
const DefaultTimeout = 15 * time.Second

// URLPlaceholder is replaced by the query-escaped source URL in relay templates.
const URLPlaceholder = "{url}"

// DefaultRelays are tried in order before the direct request.
var DefaultRelays = []string{
	"https://api.allorigins.win/raw?url={url}",
	"https://corsproxy.io/?{url}",
	"https://api.codetabs.com/v1/proxy?quest={url}",
}

// Strategy is one retrieval attempt: a relay template, or the direct URL when
// Template is empty.
type Strategy struct {
	Name     string
	Template string
	Timeout  time.Duration
}

// URL returns the request URL for the given source.
func (s Strategy) URL(source string) string {
	if s.Template == "" {
		return source
	}
	return strings.ReplaceAll(s.Template, URLPlaceholder, url.QueryEscape(source))
}

// Strategies builds the attempt list: each relay in order, then the direct
// request as the final attempt.
func Strategies(relays []string, timeout time.Duration) []Strategy {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	out := make([]Strategy, 0, len(relays)+1)
	for _, tmpl := range relays {
		tmpl = strings.TrimSpace(tmpl)
		if tmpl == "" {
			continue
		}
		out = append(out, Strategy{Name: relayName(len(out)+1, tmpl), Template: tmpl, Timeout: timeout})
	}
	return append(out, Strategy{Name: "direct", Timeout: timeout})
}

// relayName labels a relay by its 1-based position and host for logs and
// metrics, e.g. "relay2:corsproxy.io". The position keeps two relays on the
// same host apart.
func relayName(n int, tmpl string) string {
	name := "relay" + strconv.Itoa(n)
	u, err := url.Parse(strings.ReplaceAll(tmpl, URLPlaceholder, ""))
	if err != nil || u.Host == "" {
		return name
	}
	return name + ":" + u.Host
}
