// Package videoid derives stable video identifiers from source URLs, so
// enqueueing the same video twice dedupes on the video_metadata unique key
// regardless of how the URL was written.
package videoid

import (
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Host aliases that name the same source site. Conservative on purpose.
var canonicalDomainByHost = map[string]string{
	"www.youtube.com": "youtube.com",
	"m.youtube.com":   "youtube.com",
	"youtu.be":        "youtube.com",

	"www.x.com":          "x.com",
	"twitter.com":        "x.com",
	"www.twitter.com":    "x.com",
	"mobile.twitter.com": "x.com",

	"www.twitch.tv": "twitch.tv",
	"m.twitch.tv":   "twitch.tv",
}

// CanonicalDomain lowercases a host, strips any port, and resolves known
// aliases.
func CanonicalDomain(host string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	if i := strings.IndexByte(h, ':'); i >= 0 {
		h = h[:i]
	}
	if c, ok := canonicalDomainByHost[h]; ok {
		return c
	}
	return h
}

// Normalize rewrites a source URL into its stable form: canonical host,
// https scheme, no fragment or userinfo, and query trimmed to what
// identifies the video. YouTube URLs (watch, shorts, youtu.be) collapse to
// https://youtube.com/watch?v=<id>; other known hosts drop the query
// entirely; unknown hosts keep theirs.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("videoid: missing url")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" {
		if u, err = url.Parse("https://" + raw); err != nil {
			return "", err
		}
	}

	u.Fragment = ""
	u.User = nil
	if u.Scheme == "http" {
		u.Scheme = "https"
	}

	canon := CanonicalDomain(u.Host)
	if canon != "" {
		u.Host = canon
	}

	switch canon {
	case "youtube.com":
		if id := youtubeID(u); id != "" {
			u.Path = "/watch"
			u.RawQuery = "v=" + url.QueryEscape(id)
		}
	case "twitch.tv", "x.com", "kick.com":
		u.RawQuery = ""
	}

	if len(u.Path) > 1 {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	return u.String(), nil
}

// youtubeID pulls the video id out of any of YouTube's URL shapes. Empty
// when the URL does not name a single video.
func youtubeID(u *url.URL) string {
	if v := u.Query().Get("v"); v != "" {
		return v
	}
	path := strings.Trim(u.Path, "/")
	if id, ok := strings.CutPrefix(path, "shorts/"); ok {
		return id
	}
	if id, ok := strings.CutPrefix(path, "live/"); ok {
		return id
	}
	// youtu.be/<id> arrives here with the host already canonicalized.
	if path != "" && !strings.ContainsRune(path, '/') && path != "watch" {
		return path
	}
	return ""
}

// Derive returns the stable id for a source URL: "video_" plus the UUIDv5
// of the normalized URL under the source domain's DNS namespace. The same
// video always derives the same id.
func Derive(rawURL string) (string, error) {
	normalized, err := Normalize(rawURL)
	if err != nil {
		return "", err
	}

	u, err := url.Parse(normalized)
	if err != nil {
		return "", err
	}

	ns := uuid.NewSHA1(uuid.NameSpaceDNS, []byte(CanonicalDomain(u.Host)))
	return "video_" + uuid.NewSHA1(ns, []byte(normalized)).String(), nil
}
