package entity

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// maxURLLength defines the maximum allowed length for URLs to prevent DoS attacks.
const maxURLLength = 2048

// ValidateURL validates the format and safety of a URL.
// It checks that the URL is well-formed, uses HTTP/HTTPS scheme, and has a valid host.
// It also blocks private IP addresses to prevent SSRF attacks.
// Returns a ValidationError if the URL is empty, too long, not http/https,
// host-less or private; a URL that fails to parse yields a wrapped parse error.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}

	// DoS protection: enforce maximum URL length
	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse URL: %w", err)
	}

	// HTTPまたはHTTPSスキームのみ許可
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "URL must use http or https scheme"}
	}

	// ホスト名の検証
	if parsedURL.Host == "" {
		return &ValidationError{Field: "url", Message: "URL must have a valid host"}
	}

	// SSRF対策: プライベートIPアドレスをブロック
	host := parsedURL.Hostname()
	ips, err := net.LookupIP(host)
	if err == nil && len(ips) > 0 {
		for _, ip := range ips {
			if isPrivateIP(ip) {
				return &ValidationError{
					Field:   "url",
					Message: "url cannot point to private network",
				}
			}
		}
	}

	return nil
}

// isPrivateIP checks if an IP address is in a private or restricted range.
// This prevents SSRF attacks by blocking access to:
// - localhost (127.0.0.0/8, ::1)
// - link-local addresses (169.254.0.0/16, fe80::/10)
// - private networks (10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16)
// - cloud metadata endpoints (169.254.169.254)
func isPrivateIP(ip net.IP) bool {
	// localhost
	if ip.IsLoopback() {
		return true
	}

	// link-local
	if ip.IsLinkLocalUnicast() {
		return true
	}

	// Private IPv4 ranges
	privateIPv4Ranges := []string{
		"10.0.0.0/8",     // Private network
		"172.16.0.0/12",  // Private network
		"192.168.0.0/16", // Private network
		"169.254.0.0/16", // Link-local (includes cloud metadata)
	}

	for _, cidr := range privateIPv4Ranges {
		_, subnet, _ := net.ParseCIDR(cidr)
		if subnet.Contains(ip) {
			return true
		}
	}

	return false
}

var timezoneAbbreviations = map[string]string{
	" GMT":  " +0000",
	" UTC":  " +0000",
	" UT":   " +0000",
	" Z":    " +0000",
	" EST":  " -0500",
	" EDT":  " -0400",
	" CST":  " -0600",
	" CDT":  " -0500",
	" MST":  " -0700",
	" MDT":  " -0600",
	" PST":  " -0800",
	" PDT":  " -0700",
	" BST":  " +0100",
	" CET":  " +0100",
	" CEST": " +0200",
}

var pubDateLayouts = []string{
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	time.RFC1123,
	"02 Jan 2006 15:04:05 -0700",
	"2006-01-02T15:04:05-07:00",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02T15:04:05.000-07:00",
	"Mon, 02 Jan 2006 15:04:05",
	"02 Jan 2006 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParsePubDate parses an RSS pubDate string in any of the formats seen across
// participating outlets, normalizing common timezone abbreviations (GMT, EST,
// CEST, ...) to numeric offsets first. Returns the zero Time and false if no
// layout matches.
func ParsePubDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}

	cleaned := raw
	for abbrev, offset := range timezoneAbbreviations {
		if strings.HasSuffix(raw, abbrev) {
			cleaned = strings.TrimSuffix(raw, abbrev) + offset
			break
		}
	}

	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// imageExtensions and videoExtensions mirror the original extension tables:
// an image URL must end in one of the former and none of the latter.
var imageExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tiff", ".tif",
	".svg", ".ico", ".heic", ".heif", ".raw", ".cr2", ".nef", ".orf", ".sr2",
}

var videoExtensions = []string{
	".mp4", ".m4v", ".mov", ".wmv", ".avi", ".flv", ".webm", ".mkv",
	".3gp", ".mpeg", ".mpg", ".mpe", ".mpv", ".m2v", ".mts", ".m2ts", ".ts",
}

// IsValidImageURL reports whether url points to an image rather than a video:
// the path must end in a whitelisted image extension, must not end in a video
// extension, and the URL must not contain "video" or "player" anywhere.
func IsValidImageURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(parsed.Path)
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}

	isImage := false
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			isImage = true
			break
		}
	}
	if !isImage {
		return false
	}

	for _, ext := range videoExtensions {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}

	lower := strings.ToLower(rawURL)
	if strings.Contains(lower, "video") || strings.Contains(lower, "player") {
		return false
	}

	return true
}

// NormalizeLink strips the scheme, lower-cases, and removes a trailing slash,
// the exact form used to deduplicate feed items against already-persisted
// article links per outlet (§4.3).
func NormalizeLink(link string) string {
	normalized := strings.ToLower(link)
	normalized = strings.TrimPrefix(normalized, "https://")
	normalized = strings.TrimPrefix(normalized, "http://")
	normalized = strings.TrimSuffix(normalized, "/")
	return normalized
}
