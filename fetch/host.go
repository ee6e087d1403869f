package fetch

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// normalizeURL parses raw and converts its host to its lowercase ASCII
// (punycode) form.
func normalizeURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}

	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("fetch: URL must be absolute: '%s'", raw)
	}

	host, err := normalizeHost(u.Hostname())
	if err != nil {
		return nil, err
	}

	if port := u.Port(); port != "" {
		u.Host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		u.Host = "[" + host + "]"
	} else {
		u.Host = host
	}

	return u, nil
}

// normalizeHost returns the ASCII form of a host name. IP addresses are
// returned unchanged.
func normalizeHost(host string) (string, error) {
	if net.ParseIP(host) != nil {
		return host, nil
	}

	ascii, err := idna.ToASCII(strings.ToLower(host))
	if err != nil {
		return "", fmt.Errorf("fetch: invalid host '%s': %w", host, err)
	}

	return ascii, nil
}
