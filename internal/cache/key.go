package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidURL is returned for URLs that cannot identify a company website.
var ErrInvalidURL = eris.New("invalid url")

// questionSep separates a company key from a question fingerprint. Company
// keys never contain a fragment, so the two namespaces cannot collide.
const questionSep = "#q="

var defaultPorts = map[string]string{"http": "80", "https": "443"}

// NormalizeURL canonicalizes a website URL: scheme, host and path are
// lowercased, the default port, user info, query, fragment and any trailing
// slash are dropped. Only absolute http and https URLs are accepted.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", eris.Wrap(ErrInvalidURL, "empty url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", eris.Wrapf(ErrInvalidURL, "parse %q: %v", raw, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if _, ok := defaultPorts[scheme]; !ok {
		return "", eris.Wrapf(ErrInvalidURL, "%q: scheme must be http or https", raw)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", eris.Wrapf(ErrInvalidURL, "%q: missing host", raw)
	}
	if port := u.Port(); port != "" && port != defaultPorts[scheme] {
		host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	path := strings.TrimRight(strings.ToLower(u.EscapedPath()), "/")
	return scheme + "://" + host + path, nil
}

// CompanyKey returns the cache key for the profile of the company at raw.
func CompanyKey(raw string) (string, error) {
	return NormalizeURL(raw)
}

// QuestionKey returns the cache key for an answer about the company at raw.
func QuestionKey(raw, question string) (string, error) {
	company, err := NormalizeURL(raw)
	if err != nil {
		return "", err
	}
	return company + questionSep + Fingerprint(question), nil
}

// Fingerprint hashes a question after NFKC normalization, case folding and
// whitespace collapsing, so trivially different phrasings share a key.
func Fingerprint(question string) string {
	s := norm.NFKC.String(question)
	s = cases.Fold().String(s)
	s = strings.Join(strings.Fields(s), " ")
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Namespace reports whether key belongs to a company profile or an answer.
func Namespace(key string) string {
	if strings.Contains(key, questionSep) {
		return "question"
	}
	return "company"
}
