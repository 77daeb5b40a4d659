package storage

import (
	"strings"
)

const (
	// DefaultURI is used when no connection string is configured.
	// It must never carry credentials.
	DefaultURI = "mongodb://localhost:27017/streamingapp"

	// DefaultDatabase is used when the connection string names no database
	DefaultDatabase = "streamingapp"

	redactedPassword = "xxxxx"
)

// ResolveEndpoint returns the configured connection string, falling back to DefaultURI
// when it is empty or whitespace. A configured value always wins.
func ResolveEndpoint(configured string) string {
	if uri := strings.TrimSpace(configured); uri != "" {
		return uri
	}
	return DefaultURI
}

// uriParts is a shallow split of a mongodb:// or mongodb+srv:// connection string.
// Hosts are kept as written (comma separated seed list).
type uriParts struct {
	scheme   string
	userinfo string
	hosts    string
	database string
	query    string
}

// splitURI splits a connection string without resolving SRV records,
// so it is safe to call from log and config paths.
//
// Userinfo ends at the first '@', like the driver's own parser, so a raw '?', '#' or
// '/' in a password stays in the userinfo. Further '@' signs before the next '/' or
// '?' also belong to the userinfo.
func splitURI(uri string) (uriParts, bool) {
	var p uriParts

	idx := strings.Index(uri, "://")
	if idx <= 0 {
		return p, false
	}
	p.scheme = uri[:idx]
	rest := uri[idx+3:]

	if at := strings.Index(rest, "@"); at >= 0 {
		for {
			next := strings.IndexAny(rest[at+1:], "/?@")
			if next < 0 || rest[at+1+next] != '@' {
				break
			}
			at += 1 + next
		}
		p.userinfo = rest[:at]
		rest = rest[at+1:]
	}

	end := strings.IndexAny(rest, "/?")
	if end < 0 {
		p.hosts = rest
		return p, true
	}
	p.hosts = rest[:end]
	if rest[end] == '/' {
		rest = rest[end+1:]
	} else {
		rest = rest[end:]
	}

	if q := strings.Index(rest, "?"); q >= 0 {
		p.query = rest[q+1:]
		rest = rest[:q]
	}
	p.database = rest

	return p, true
}

// RedactURI masks the password of a connection string so it can be logged.
// Strings that do not look like URIs are returned unchanged.
func RedactURI(uri string) string {
	p, ok := splitURI(uri)
	if !ok || p.userinfo == "" {
		return uri
	}

	user, _, hasPassword := strings.Cut(p.userinfo, ":")
	if !hasPassword {
		return uri
	}

	var b strings.Builder
	b.WriteString(p.scheme)
	b.WriteString("://")
	b.WriteString(user)
	b.WriteString(":")
	b.WriteString(redactedPassword)
	b.WriteString("@")
	b.WriteString(p.hosts)
	if p.database != "" {
		b.WriteString("/")
		b.WriteString(p.database)
	}
	if p.query != "" {
		if p.database == "" {
			b.WriteString("/")
		}
		b.WriteString("?")
		b.WriteString(p.query)
	}
	return b.String()
}

// DatabaseFromURI returns the default database named in the connection string path,
// or an empty string when none is present.
func DatabaseFromURI(uri string) string {
	p, ok := splitURI(uri)
	if !ok {
		return ""
	}
	return p.database
}

// HostsFromURI returns the seed list of the connection string, or an empty string
// when the string is not a URI.
func HostsFromURI(uri string) string {
	p, ok := splitURI(uri)
	if !ok {
		return ""
	}
	return p.hosts
}
