package core

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/bspitems/internal/bsp/bsptest"
	"github.com/JonMunkholm/bspitems/internal/catalog"
	"github.com/JonMunkholm/bspitems/internal/extract"
	"github.com/JonMunkholm/bspitems/internal/logging"
	"github.com/JonMunkholm/bspitems/internal/report"
)

func TestRunBatch_IsolatesFailures(t *testing.T) {
	svc, out := newTestService(t, report.Options{SimpleNames: true, IncludeMapName: true})
	dir := t.TempDir()

	good := bsptest.Build(edgeEntities)
	first := bsptest.WriteFile(t, dir, "a.bsp", good)
	second := bsptest.WriteFile(t, dir, "b.bsp", good[:20])
	third := bsptest.WriteFile(t, dir, "c.bsp", good)

	var console bytes.Buffer
	summary := svc.RunBatch(context.Background(), []string{first, second, third}, &console)

	require.Len(t, summary.Processed, 2)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, 3, summary.Total())
	assert.Equal(t, second, summary.Failed[0].Path)
	assert.Equal(t, "IO003", summary.Failed[0].User.Code)
	assert.NotEmpty(t, summary.RunID)

	for _, name := range []string{"a.csv", "c.csv"} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}
	_, err := os.Stat(filepath.Join(out, "b.csv"))
	assert.True(t, os.IsNotExist(err))

	text := console.String()
	assert.Equal(t, 1, strings.Count(text, "Error processing"))
	assert.Contains(t, text, "Error processing "+second+": ")
	assert.Contains(t, text, "Processed: "+first)
	assert.Contains(t, text, "Short Name: The Edge")
	assert.Contains(t, text, "Items found: 2")
	assert.Contains(t, text, "Map name 'The Edge' included as comment")
	assert.True(t, strings.HasSuffix(text, "All BSP files processed. CSV files can be found in: "+out+"\n"))
}

func TestRunBatch_AllFail(t *testing.T) {
	svc, out := newTestService(t, report.Options{SimpleNames: true})
	dir := t.TempDir()
	bad := bsptest.WriteFile(t, dir, "x.bsp", []byte("IWADjunk"))

	var console bytes.Buffer
	summary := svc.RunBatch(context.Background(), []string{bad, filepath.Join(dir, "missing.bsp")}, &console)

	assert.Empty(t, summary.Processed)
	assert.Len(t, summary.Failed, 2)
	assert.NoError(t, summary.Aborted)
	assert.Contains(t, console.String(), "All BSP files processed. CSV files can be found in: "+out)
}

func TestRunBatch_KeepsRunID(t *testing.T) {
	svc, _ := newTestService(t, report.Options{})
	ctx := logging.WithRunID(context.Background(), "fixed-run")

	summary := svc.RunBatch(ctx, nil, &bytes.Buffer{})
	assert.Equal(t, "fixed-run", summary.RunID)
}

func TestRunBatch_Cancelled(t *testing.T) {
	svc, _ := newTestService(t, report.Options{SimpleNames: true})
	path := bsptest.WriteFile(t, t.TempDir(), "a.bsp", bsptest.Build(edgeEntities))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := svc.RunBatch(ctx, []string{path}, &bytes.Buffer{})
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "RUN001", summary.Failed[0].User.Code)
}

// panicSink fails the second file with a panic.
type panicSink struct{ n int }

func (p *panicSink) Replace(context.Context, string, string, []extract.Item) (int64, error) {
	p.n++
	if p.n == 2 {
		panic("sink exploded")
	}
	return 0, nil
}

func TestRunBatch_RecoversPanic(t *testing.T) {
	svc, _ := newTestService(t, report.Options{SimpleNames: true}, WithSink(&panicSink{}))
	dir := t.TempDir()
	data := bsptest.Build(edgeEntities)
	paths := []string{
		bsptest.WriteFile(t, dir, "a.bsp", data),
		bsptest.WriteFile(t, dir, "b.bsp", data),
		bsptest.WriteFile(t, dir, "c.bsp", data),
	}

	summary := svc.RunBatch(context.Background(), paths, &bytes.Buffer{})
	assert.Len(t, summary.Processed, 2)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, paths[1], summary.Failed[0].Path)
	assert.Contains(t, summary.Failed[0].Err.Error(), "sink exploded")
}

func TestPrintSettings(t *testing.T) {
	svc, _ := newTestService(t, report.Options{SimpleNames: true, IncludeMapName: false})

	var buf bytes.Buffer
	svc.PrintSettings(&buf, "Q2")
	assert.Equal(t, "Settings:\n  Simple names: true\n  Include comments: false\n  Game version: Q2\n\n", buf.String())
}

func TestRunBatch_AbortsOnOutputDirError(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "csv")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o644))

	ex := extract.New(testCatalog(), catalog.Quake2)
	svc := NewService(ex, filepath.Join(blocker, "out"), report.Options{SimpleNames: true})

	dir := t.TempDir()
	data := bsptest.Build(edgeEntities)
	paths := []string{
		bsptest.WriteFile(t, dir, "a.bsp", data),
		bsptest.WriteFile(t, dir, "b.bsp", data),
	}

	var console bytes.Buffer
	summary := svc.RunBatch(context.Background(), paths, &console)

	require.Error(t, summary.Aborted)
	assert.ErrorIs(t, summary.Aborted, report.ErrOutputDir)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, paths[0], summary.Failed[0].Path)
	assert.Equal(t, "IO004", summary.Failed[0].User.Code)
	assert.Equal(t, 1, summary.Total())

	text := console.String()
	assert.Equal(t, 1, strings.Count(text, "Error processing"))
	assert.NotContains(t, text, paths[1])
	assert.Contains(t, text, "All BSP files processed.")
}

func TestRunBatch_TruncatedFileNamedLikeFormatError(t *testing.T) {
	svc, _ := newTestService(t, report.Options{SimpleNames: true})
	dir := t.TempDir()
	data := bsptest.Build(edgeEntities)[:20]
	paths := []string{
		bsptest.WriteFile(t, dir, "bad magic.bsp", data),
		bsptest.WriteFile(t, dir, "exceeds file size.bsp", data),
	}

	summary := svc.RunBatch(context.Background(), paths, &bytes.Buffer{})
	assert.NoError(t, summary.Aborted)
	require.Len(t, summary.Failed, 2)
	for _, f := range summary.Failed {
		assert.Equal(t, "IO003", f.User.Code, f.Path)
	}
}
