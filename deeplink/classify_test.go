package deeplink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_EndToEnd(t *testing.T) {
	cases := []struct {
		in   string
		kind Kind
		id   string
		link string
	}{
		{"https://store.steampowered.com/app/730/Counter-Strike_2/", App, "730", "steam://store/730"},
		{"https://store.steampowered.com/app/42/anything", App, "42", "steam://store/42"},
		{"https://store.steampowered.com/sub/77/", Sub, "77", "steam://openurl/https://store.steampowered.com/sub/77/"},
		{"https://store.steampowered.com/sub/77?cc=us", Sub, "77", "steam://openurl/https://store.steampowered.com/sub/77/"},
		{"https://store.steampowered.com/bundle/232/Valve_Complete_Pack/?l=french", Bundle, "232",
			"steam://openurl/https://store.steampowered.com/bundle/232/Valve_Complete_Pack/?l=french"},
		{"https://store.steampowered.com/search/?term=portal", GenericStorePage, "",
			"steam://openurl/https://store.steampowered.com/search/?term=portal"},
		{"https://steamcommunity.com/sharedfiles/filedetails/?id=3664628116", WorkshopItem, "3664628116",
			"steam://url/CommunityFilePage/3664628116"},
		{"https://steamcommunity.com/sharedfiles/filedetails?id=123", WorkshopItem, "123",
			"steam://url/CommunityFilePage/123"},
		{"https://steamcommunity.com/id/gaben", GenericCommunityPage, "",
			"steam://openurl/https://steamcommunity.com/id/gaben"},
	}

	for _, tc := range cases {
		got := Classify(tc.in)
		assert.Equal(t, tc.kind, got.Kind, tc.in)
		assert.Equal(t, tc.id, got.Identifier, tc.in)
		assert.Equal(t, tc.link, got.Link, tc.in)
	}
}

func TestClassify_NonNumericFallsThrough(t *testing.T) {
	got := Classify("https://store.steampowered.com/app/730abc/")
	assert.Equal(t, GenericStorePage, got.Kind)
	assert.Equal(t, "steam://openurl/https://store.steampowered.com/app/730abc/", got.Link)

	for _, in := range []string{
		"https://store.steampowered.com/app/-1/",
		"https://store.steampowered.com/app/1.5/",
		"https://store.steampowered.com/app/+7/",
		"https://store.steampowered.com/app/",
	} {
		assert.Equal(t, GenericStorePage, Classify(in).Kind, in)
	}

	got = Classify("https://steamcommunity.com/sharedfiles/filedetails/?id=abc")
	assert.Equal(t, GenericCommunityPage, got.Kind)

	got = Classify("https://steamcommunity.com/sharedfiles/filedetails/")
	assert.Equal(t, GenericCommunityPage, got.Kind)
}

func TestClassify_NotApplicable(t *testing.T) {
	for _, in := range []string{
		"https://example.com/",
		"https://example.com/app/730/",
		"https://store.steampowered.com.evil.test/app/730/",
		"not a url",
		"",
		"://broken",
		"store.steampowered.com/app/730",
	} {
		got := Classify(in)
		assert.Equal(t, NotApplicable, got.Kind, in)
		assert.Empty(t, got.Link, in)
		assert.False(t, got.Actionable(), in)
	}
}

func TestClassify_HostCaseAndPort(t *testing.T) {
	got := Classify("https://STORE.SteamPowered.com:443/app/10/")
	require.Equal(t, App, got.Kind)
	assert.Equal(t, "steam://store/10", got.Link)
}

func TestClassifyInjectable_SkipsGenericKinds(t *testing.T) {
	assert.Equal(t, NotApplicable, ClassifyInjectable("https://store.steampowered.com/search/").Kind)
	assert.Equal(t, NotApplicable, ClassifyInjectable("https://steamcommunity.com/id/gaben").Kind)
	assert.Equal(t, NotApplicable, ClassifyInjectable("https://store.steampowered.com/app/x/").Kind)

	got := ClassifyInjectable("https://store.steampowered.com/app/730/")
	require.True(t, got.Injectable())
	assert.Equal(t, "steam://store/730", got.Link)
}

// Both scopes must agree whenever the injectable scope yields a result.
func TestScopes_Agree(t *testing.T) {
	for _, in := range []string{
		"https://store.steampowered.com/app/1/",
		"https://store.steampowered.com/sub/2/",
		"https://store.steampowered.com/bundle/3/?x=1",
		"https://steamcommunity.com/sharedfiles/filedetails/?id=4",
	} {
		inj := ClassifyInjectable(in)
		require.True(t, inj.Injectable(), in)
		assert.Equal(t, Classify(in), inj, in)
	}
}

func TestTable_FirstMatchWins(t *testing.T) {
	table := Table{
		{Host: "a.test", Kind: App, Match: anyPath, Link: func(_, _ string) string { return "steam://store/1" }},
		{Host: "a.test", Kind: Sub, Match: anyPath, Link: func(_, _ string) string { return "steam://store/2" }},
	}
	got := table.Classify("https://a.test/x", ScopeDirect)
	assert.Equal(t, App, got.Kind)
	assert.Equal(t, "steam://store/1", got.Link)
}

func TestKind_TextRoundTrip(t *testing.T) {
	for k := NotApplicable; k <= GenericCommunityPage; k++ {
		b, err := k.MarshalText()
		require.NoError(t, err)
		var back Kind
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, k, back)
	}
	assert.Equal(t, "none", Kind(99).String())
}
