package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the CLI against a config whose backup dir lives in a temp dir.
func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func setup(t *testing.T) (cfgPath, dir string) {
	t.Helper()
	dir = t.TempDir()
	cfgPath = filepath.Join(dir, "config.yaml")
	cfg := "backup_dir: " + filepath.Join(dir, "backups") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return cfgPath, dir
}

func writeBook(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

const leftBook = `{"entries":{
 "0":{"uid":0,"comment":"Dragon","key":["dragon"],"content":"breathes fire"},
 "1":{"uid":1,"comment":"Castle","key":["castle"],"content":"stone walls"}}}`

const rightBook = `{"entries":{
 "0":{"uid":0,"comment":"Dragon","key":["dragon"],"content":"breathes ice"},
 "1":{"uid":1,"comment":"Castle","key":["castle"],"content":"stone walls"},
 "2":{"uid":2,"comment":"Moat","key":["moat"],"content":"deep water"}}}`

func TestDiffCommand(t *testing.T) {
	cfg, dir := setup(t)
	left := filepath.Join(dir, "left.json")
	right := filepath.Join(dir, "right.json")
	writeBook(t, left, leftBook)
	writeBook(t, right, rightBook)

	out, err := run(t, cfg, "diff", left, right)
	require.NoError(t, err)
	assert.Contains(t, out, "3 entries: 1 same, 1 changed, 1 added, 0 removed")
	assert.Contains(t, out, "- breathes fire")
	assert.Contains(t, out, "+ breathes ice")
	assert.Contains(t, out, "content: 1 changed, 0 added, 0 removed")
	assert.Contains(t, out, "Moat")
	assert.NotContains(t, out, "Castle")

	out, err = run(t, cfg, "diff", "--all", left, right)
	require.NoError(t, err)
	assert.Contains(t, out, "Castle")

	out, err = run(t, cfg, "diff", "--unified", left, right)
	require.NoError(t, err)
	assert.Contains(t, out, "@@")
	assert.Contains(t, out, "+breathes ice")
}

func TestDiffCommandJSON(t *testing.T) {
	cfg, dir := setup(t)
	left := filepath.Join(dir, "left.json")
	writeBook(t, left, leftBook)

	out, err := run(t, cfg, "diff", "--json", left, left)
	require.NoError(t, err)
	assert.Contains(t, out, `"same": 2`)
}

func TestDiffCommandArgs(t *testing.T) {
	cfg, _ := setup(t)
	_, err := run(t, cfg, "diff", "only-one.json")
	assert.Error(t, err)

	_, err = run(t, cfg, "diff", "missing-a.json", "missing-b.json")
	assert.Error(t, err)
}

func TestSnapshotAndHistoryCommands(t *testing.T) {
	cfg, dir := setup(t)
	book := filepath.Join(dir, "World.json")
	writeBook(t, book, leftBook)

	out, err := run(t, cfg, "snapshot", "--label", "v1", book)
	require.NoError(t, err)
	assert.Contains(t, out, "created")

	out, err = run(t, cfg, "snapshot", "--auto", book)
	require.NoError(t, err)
	assert.Contains(t, out, "skipped")

	out, err = run(t, cfg, "history", "--show-hidden", book)
	require.NoError(t, err)
	assert.Contains(t, out, "1 hidden")
	assert.Contains(t, out, "[key: v1]")

	writeBook(t, book, rightBook)
	out, err = run(t, cfg, "history", book)
	require.NoError(t, err)
	assert.Contains(t, out, "0 hidden")

	_, err = run(t, cfg, "snapshot", "--auto", "--label", "x", book)
	assert.Error(t, err)
}

func TestHistoryWithoutBackups(t *testing.T) {
	cfg, dir := setup(t)
	book := filepath.Join(dir, "Empty.json")
	writeBook(t, book, leftBook)

	out, err := run(t, cfg, "history", book)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "No backups"))
}

func TestStampCommand(t *testing.T) {
	cfg, dir := setup(t)
	book := filepath.Join(dir, "World.json")
	writeBook(t, book, leftBook)

	out, err := run(t, cfg, "stamp", book)
	require.NoError(t, err)
	assert.Contains(t, out, "assigned 2 durable uids")

	b, err := os.ReadFile(book)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(b), "st_manager_uid"))

	out, err = run(t, cfg, "stamp", book)
	require.NoError(t, err)
	assert.Contains(t, out, "already carry")
}

func TestBadConfigFails(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("prune:\n  policy: fuzzy\n"), 0o644))
	_, err := run(t, cfgPath, "history", filepath.Join(dir, "x.json"))
	assert.Error(t, err)
}

func TestRestoreCommand(t *testing.T) {
	cfg, dir := setup(t)
	book := filepath.Join(dir, "World.json")
	writeBook(t, book, leftBook)

	out, err := run(t, cfg, "snapshot", "--label", "v1", book)
	require.NoError(t, err)
	backup := filepath.Base(strings.TrimSpace(strings.TrimPrefix(out, "created ")))

	writeBook(t, book, rightBook)
	out, err = run(t, cfg, "restore", book, backup)
	require.NoError(t, err)
	assert.Contains(t, out, "restored "+book+" from "+backup)
	assert.Contains(t, out, "previous version kept as World_")

	b, err := os.ReadFile(book)
	require.NoError(t, err)
	assert.Contains(t, string(b), "breathes fire")
	assert.NotContains(t, string(b), "Moat")

	out, err = run(t, cfg, "restore", "--no-backup", book, backup)
	require.NoError(t, err)
	assert.NotContains(t, out, "previous version")

	_, err = run(t, cfg, "restore", book, "missing.json")
	assert.Error(t, err)
}

func TestHistoryClear(t *testing.T) {
	cfg, dir := setup(t)
	book := filepath.Join(dir, "World.json")
	writeBook(t, book, leftBook)

	_, err := run(t, cfg, "snapshot", book)
	require.NoError(t, err)
	out, err := run(t, cfg, "history", "--clear", book)
	require.NoError(t, err)
	assert.Contains(t, out, "cleared backups")

	out, err = run(t, cfg, "history", book)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "No backups"))
}

func TestInitCommand(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, err := run(t, cfgPath, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+cfgPath)
	b, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(b), "backup_dir:")
	assert.Contains(t, string(b), "policy: visible")

	out, err = run(t, cfgPath, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
}
