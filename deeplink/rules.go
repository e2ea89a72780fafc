package deeplink

import (
	"net/url"
	"strings"
)

const (
	// Scheme is the protocol the Steam client registers with the OS.
	Scheme = "steam"

	// StoreHost is the storefront domain.
	StoreHost = "store.steampowered.com"
	// CommunityHost is the community domain.
	CommunityHost = "steamcommunity.com"

	workshopPath = "/sharedfiles/filedetails"
)

// Rule is one row of the classification table. Match inspects the parsed
// URL and returns the extracted identifier; Link builds the deep link from
// the original URL string and that identifier.
type Rule struct {
	Host  string
	Kind  Kind
	Match func(u *url.URL) (id string, ok bool)
	Link  func(raw, id string) string
}

// Table is an ordered rule list. Rules for a host are evaluated top to
// bottom; the first match wins.
type Table []Rule

// Default is the rule table shared by the injector and the trigger.
var Default = Table{
	{Host: StoreHost, Kind: App, Match: segmentID("app"), Link: storeLink},
	{Host: StoreHost, Kind: Sub, Match: segmentID("sub"), Link: subLink},
	{Host: StoreHost, Kind: Bundle, Match: segmentID("bundle"), Link: openURL},
	{Host: StoreHost, Kind: GenericStorePage, Match: anyPath, Link: openURL},
	{Host: CommunityHost, Kind: WorkshopItem, Match: workshopID, Link: communityFileLink},
	{Host: CommunityHost, Kind: GenericCommunityPage, Match: anyPath, Link: openURL},
}

// segmentID matches paths whose first segment is name and whose second
// segment is all digits: /app/730/Counter-Strike_2/ yields "730".
func segmentID(name string) func(*url.URL) (string, bool) {
	return func(u *url.URL) (string, bool) {
		parts := pathSegments(u.Path)
		if len(parts) < 2 || parts[0] != name || !isDigits(parts[1]) {
			return "", false
		}
		return parts[1], true
	}
}

func workshopID(u *url.URL) (string, bool) {
	if !strings.HasPrefix(u.Path, workshopPath) {
		return "", false
	}
	id := u.Query().Get("id")
	if !isDigits(id) {
		return "", false
	}
	return id, true
}

func anyPath(*url.URL) (string, bool) { return "", true }

func storeLink(_, id string) string {
	return Scheme + "://store/" + id
}

func subLink(_, id string) string {
	return Scheme + "://openurl/https://" + StoreHost + "/sub/" + id + "/"
}

func communityFileLink(_, id string) string {
	return Scheme + "://url/CommunityFilePage/" + id
}

// openURL hands the original URL to the client's built-in browser verbatim,
// query string included.
func openURL(raw, _ string) string {
	return Scheme + "://openurl/" + raw
}

func pathSegments(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// isDigits is strict: ASCII digits only, at least one.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
