package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/bspitems/internal/extract"
)

var sampleItems = []extract.Item{
	{ClassName: "weapon_railgun", FriendlyName: "Railgun", ItemType: "weapon", X: "128", Y: "-64", Z: "24"},
	{ClassName: "holdable_medkit", FriendlyName: "holdable_medkit", ItemType: "unknown", X: "N/A", Y: "N/A", Z: "N/A"},
}

func TestWrite_WithComment(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleItems, "The Edge", Options{IncludeMapName: true}))

	want := "# Map: The Edge\n" +
		"friendly_name,class_name,item_type,x,y,z\n" +
		"Railgun,weapon_railgun,weapon,128,-64,24\n" +
		"holdable_medkit,holdable_medkit,unknown,N/A,N/A,N/A\n"
	assert.Equal(t, want, buf.String())
}

func TestWrite_WithoutComment(t *testing.T) {
	tests := []struct {
		name    string
		mapName string
		opts    Options
	}{
		{"disabled", "The Edge", Options{IncludeMapName: false}},
		{"no name", "", Options{IncludeMapName: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, nil, tt.mapName, tt.opts))
			assert.Equal(t, "friendly_name,class_name,item_type,x,y,z\n", buf.String())
		})
	}
}

func TestWrite_QuotesSpecialCharacters(t *testing.T) {
	var buf bytes.Buffer
	items := []extract.Item{{ClassName: "item_x", FriendlyName: `Commander's "Head", Big`, ItemType: "key", X: "1", Y: "2", Z: "3"}}
	require.NoError(t, Write(&buf, items, "", Options{}))
	assert.Contains(t, buf.String(), `"Commander's ""Head"", Big",item_x,key,1,2,3`)
}

func TestWriteFile_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "q2dm1.csv")
	opts := Options{SimpleNames: true, IncludeMapName: true}

	require.NoError(t, WriteFile(path, sampleItems, "The Edge", opts))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, WriteFile(path, sampleItems, "The Edge", opts))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestWriteFile_BadDirectory(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "missing", "x.csv"), nil, "", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSnakeCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Edge", "the_edge"},
		{"Tokay's Towers", "tokay_s_towers"},
		{"q2dm1", "q2dm1"},
		{"Under_Score", "under_score"},
		{"A-M Bomb!", "a_m_bomb_"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SnakeCase(tt.in), "SnakeCase(%q)", tt.in)
	}
}

func TestFileName(t *testing.T) {
	simple := Options{SimpleNames: true}
	full := Options{SimpleNames: false}

	assert.Equal(t, "q2dm1.csv", FileName("maps/q2dm1.bsp", "The Edge", simple))
	assert.Equal(t, "q2dm1_the_edge.csv", FileName("maps/q2dm1.bsp", "The Edge", full))
	assert.Equal(t, "base1_unknown.csv", FileName("/abs/base1.bsp", "Unknown", full))
	assert.Equal(t, "my.map.csv", FileName("my.map.bsp", "x", simple))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))
	require.NoError(t, EnsureDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnsureDir_BlockedByFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "taken")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	err := EnsureDir(filepath.Join(file, "csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutputDir)
}
