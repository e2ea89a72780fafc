package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := &app{stdout: &stdout, stderr: &stderr}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestClassify(t *testing.T) {
	out, _, err := run(t, "", "classify",
		"https://store.steampowered.com/app/730/Counter-Strike_2/",
		"https://steamcommunity.com/market/",
		"https://example.com/")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "app", first["kind"])
	assert.Equal(t, "730", first["identifier"])
	assert.Equal(t, "steam://store/730", first["link"])
	assert.Equal(t, true, first["injectable"])

	assert.Contains(t, lines[1], `"kind":"community"`)
	assert.Contains(t, lines[2], `"kind":"none"`)
}

func TestClassify_InjectableScope(t *testing.T) {
	out, _, err := run(t, "", "classify", "--injectable", "https://steamcommunity.com/market/")
	require.NoError(t, err)
	assert.Contains(t, out, `"kind":"none"`)
}

func TestOpen_DryRun(t *testing.T) {
	out, _, err := run(t, "", "open", "--dry-run", "https://steamcommunity.com/sharedfiles/filedetails/?id=3664628116")
	require.NoError(t, err)
	assert.Equal(t, "steam://url/CommunityFilePage/3664628116\n", out)
}

func TestOpen_NotSteamPrintsNothing(t *testing.T) {
	out, _, err := run(t, "", "open", "--dry-run", "https://example.com/")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestOpen_RequiresURL(t *testing.T) {
	_, _, err := run(t, "", "open")
	assert.Error(t, err)
}

const storePage = `<html><head></head><body>
<div class="page_title_area"><h1>Counter-Strike 2</h1></div>
</body></html>`

func TestInspect_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(storePage), 0o600))

	out, stderr, err := run(t, "", "inspect", "--url", "https://store.steampowered.com/app/730/", path)
	require.NoError(t, err)
	assert.Contains(t, out, `id="ois-open-in-steam-btn"`)
	assert.Contains(t, out, `data-steam-url="steam://store/730"`)
	assert.Contains(t, stderr, `"container":".page_title_area"`)
}

func TestInspect_StdinNotApplicable(t *testing.T) {
	out, _, err := run(t, storePage, "inspect", "--url", "https://store.steampowered.com/search/")
	require.NoError(t, err)
	assert.NotContains(t, out, "ois-open-in-steam-btn")
}

func TestInspect_RequiresURL(t *testing.T) {
	_, _, err := run(t, storePage, "inspect")
	assert.Error(t, err)
}
