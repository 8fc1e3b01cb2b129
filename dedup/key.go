package dedup

import (
	"encoding/hex"
	"net"
	"net/url"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// NormalizeURL canonicalizes raw so that trivially different spellings of
// the same page share one key. Unparseable input is returned trimmed.
func NormalizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	if u.Scheme == "" && u.Host == "" {
		if withScheme, err := url.Parse("https://" + strings.TrimPrefix(s, "//")); err == nil {
			u = withScheme
		}
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme == "" {
		u.Scheme = "https"
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	switch {
	case port != "":
		u.Host = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		u.Host = "[" + host + "]"
	default:
		u.Host = host
	}

	u.Fragment, u.RawFragment = "", ""
	if u.Path == "" {
		u.Path = "/"
	} else if len(u.Path) > 1 {
		if trimmed := strings.TrimRight(u.Path, "/"); trimmed != "" {
			u.Path = trimmed
		} else {
			u.Path = "/"
		}
	}
	u.RawPath = ""

	q := u.Query()
	for k := range q {
		if strings.HasPrefix(strings.ToLower(k), "utm_") {
			q.Del(k)
		}
	}
	u.RawQuery = q.Encode()
	u.ForceQuery = false

	return u.String()
}

// ContentKey hashes parts into a stable hex key. Parts are NUL-separated so
// ("ab", "c") and ("a", "bc") differ.
func ContentKey(parts ...string) string {
	sum := blake2b.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}
