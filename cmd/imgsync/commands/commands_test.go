package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wysakm/weather-app-backend-sub001/internal/cli/prompt"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/config"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/imagesync"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/reference"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/reference/gormstore"
)

const testHost = "https://storage.googleapis.com/my-bucket/"

type testEnv struct {
	dbPath     string
	bucketPath string
}

// setupEnv configures imgsync through the environment only: a SQLite file
// seeded with posts and a directory acting as the bucket.
func setupEnv(t *testing.T, posts []gormstore.Post, objects ...string) testEnv {
	t.Helper()
	dir := t.TempDir()
	env := testEnv{
		dbPath:     filepath.Join(dir, "app.db"),
		bucketPath: filepath.Join(dir, "bucket"),
	}

	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("IMGSYNC_ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("DATABASE_URL", "")
	t.Setenv("IMGSYNC_LOGGING_LEVEL", "ERROR")
	t.Setenv("IMGSYNC_DATABASE_TYPE", "sqlite")
	t.Setenv("IMGSYNC_DATABASE_SQLITE_PATH", env.dbPath)
	t.Setenv("IMGSYNC_DATABASE_AUTO_MIGRATE", "true")
	t.Setenv("IMGSYNC_STORAGE_TYPE", "fs")
	t.Setenv("IMGSYNC_STORAGE_BUCKET", "my-bucket")
	t.Setenv("IMGSYNC_STORAGE_FS_BASE_PATH", env.bucketPath)

	store, err := gormstore.New(&gormstore.Config{
		Type:        gormstore.DatabaseTypeSQLite,
		SQLite:      gormstore.SQLiteConfig{Path: env.dbPath},
		AutoMigrate: true,
	})
	require.NoError(t, err)
	for i := range posts {
		require.NoError(t, store.DB().Table(store.Table()).Create(&posts[i]).Error)
	}
	require.NoError(t, store.Close())

	require.NoError(t, os.MkdirAll(filepath.Join(env.bucketPath, "posts"), 0o755))
	for _, key := range objects {
		require.NoError(t, os.WriteFile(filepath.Join(env.bucketPath, filepath.FromSlash(key)), []byte("jpeg"), 0o644))
	}
	return env
}

// execute runs the root command with fresh flag state.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile, logLevel, versionShort = "", "", false
	analyzeFlags, repairFlags, cleanupFlags, reconcileFlags = runFlags{}, runFlags{}, runFlags{}, runFlags{}
	require.NoError(t, rootCmd.PersistentFlags().Set("output", "table"))
	require.NoError(t, rootCmd.PersistentFlags().Set("no-color", "true"))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func decodeReport(t *testing.T, out string) map[string]any {
	t.Helper()
	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	return report
}

func standardPosts() []gormstore.Post {
	return []gormstore.Post{
		{ID: "a", Title: "Sunset", Image: reference.Locator(testHost + "posts/1-1699999999-sunset.jpg")},
		{ID: "b", Title: "Gone", Image: reference.Locator(testHost + "posts/zzz.jpg")},
	}
}

func readImage(t *testing.T, env testEnv, id string) *string {
	t.Helper()
	store, err := gormstore.New(&gormstore.Config{
		Type:   gormstore.DatabaseTypeSQLite,
		SQLite: gormstore.SQLiteConfig{Path: env.dbPath},
	})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	refs, err := store.ListImageReferences(t.Context())
	require.NoError(t, err)
	for _, r := range refs {
		if r.EntityID == id {
			return r.Locator
		}
	}
	t.Fatalf("post %s not found", id)
	return nil
}

func TestAnalyzeCommand(t *testing.T) {
	env := setupEnv(t, standardPosts(), "posts/1-1699999999-sunset.jpg", "posts/9-orphan.jpg")

	out, err := execute(t, "analyze", "-o", "json")
	require.NoError(t, err)

	report := decodeReport(t, out)
	assert.Equal(t, "analyze", report["mode"])
	assert.Equal(t, true, report["dry_run"])
	assert.Equal(t, float64(2), report["references_scanned"])
	assert.Equal(t, float64(2), report["objects_scanned"])
	assert.Equal(t, float64(1), report["matched_count"])
	assert.Equal(t, float64(1), report["broken_count"])
	assert.Equal(t, float64(1), report["orphan_count"])

	assert.FileExists(t, filepath.Join(env.bucketPath, "posts", "9-orphan.jpg"))
	assert.Equal(t, testHost+"posts/zzz.jpg", *readImage(t, env, "b"))
}

func TestAnalyzeCommand_CheckAliasTable(t *testing.T) {
	setupEnv(t, standardPosts(), "posts/1-1699999999-sunset.jpg", "posts/9-orphan.jpg")

	out, err := execute(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "Image sync analyze (dry run)")
	assert.Contains(t, out, "posts/9-orphan.jpg")
}

func TestReconcileCommand_Execute(t *testing.T) {
	env := setupEnv(t, standardPosts(), "posts/1-1699999999-sunset.jpg", "posts/9-orphan.jpg")

	out, err := execute(t, "reconcile", "--no-dry-run", "--yes", "-o", "json")
	require.NoError(t, err)

	report := decodeReport(t, out)
	assert.Equal(t, false, report["dry_run"])
	assert.Equal(t, float64(1), report["fixed_count"])
	assert.Equal(t, float64(1), report["removed_orphan_count"])
	assert.Empty(t, report["errors"])

	assert.NoFileExists(t, filepath.Join(env.bucketPath, "posts", "9-orphan.jpg"))
	assert.FileExists(t, filepath.Join(env.bucketPath, "posts", "1-sunset.jpg"))
	assert.Nil(t, readImage(t, env, "b"))
	assert.Equal(t, testHost+"posts/1-1699999999-sunset.jpg", *readImage(t, env, "a"))
}

func TestCleanupCommand_DryRunByDefault(t *testing.T) {
	env := setupEnv(t, standardPosts(), "posts/1-1699999999-sunset.jpg", "posts/9-orphan.jpg")

	out, err := execute(t, "cleanup", "-o", "json")
	require.NoError(t, err)

	report := decodeReport(t, out)
	assert.Equal(t, true, report["dry_run"])
	assert.Equal(t, float64(0), report["removed_orphan_count"])
	assert.FileExists(t, filepath.Join(env.bucketPath, "posts", "9-orphan.jpg"))
}

func TestCleanupCommand_RequiresConfirmation(t *testing.T) {
	env := setupEnv(t, standardPosts(), "posts/1-1699999999-sunset.jpg", "posts/9-orphan.jpg")

	// Test stdin is not a terminal, so without --yes nothing may be deleted.
	_, err := execute(t, "cleanup", "--no-dry-run")
	require.ErrorIs(t, err, prompt.ErrNotInteractive)
	assert.FileExists(t, filepath.Join(env.bucketPath, "posts", "9-orphan.jpg"))
}

func TestAnalyzeCommand_CleanupFlag(t *testing.T) {
	env := setupEnv(t, standardPosts(), "posts/1-1699999999-sunset.jpg", "posts/9-orphan.jpg")

	out, err := execute(t, "analyze", "--cleanup", "--no-dry-run", "--yes", "-o", "json")
	require.NoError(t, err)

	report := decodeReport(t, out)
	assert.Equal(t, "cleanup", report["mode"])
	assert.Equal(t, float64(1), report["removed_orphan_count"])
	assert.NoFileExists(t, filepath.Join(env.bucketPath, "posts", "9-orphan.jpg"))
	// Cleanup never touches references.
	assert.Equal(t, testHost+"posts/zzz.jpg", *readImage(t, env, "b"))
}

func TestRunCommand_ListingFailureExitsNonZero(t *testing.T) {
	setupEnv(t, standardPosts(), "posts/1-1699999999-sunset.jpg")
	t.Setenv("IMGSYNC_DATABASE_AUTO_MIGRATE", "false")
	t.Setenv("IMGSYNC_DATABASE_TABLE", "missing_posts")

	out, err := execute(t, "analyze", "-o", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot read references")
	assert.Empty(t, out)
}

func TestDoctorCommand(t *testing.T) {
	setupEnv(t, standardPosts(), "posts/1-1699999999-sunset.jpg", "posts/9-orphan.jpg", "posts/10-other.jpg")

	out, err := execute(t, "doctor", "-o", "json")
	require.NoError(t, err)

	var results []DoctorResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.True(t, results[0].Healthy)
	assert.Equal(t, 2, results[0].Count)
	assert.True(t, results[1].Healthy)
	assert.Equal(t, 3, results[1].Count)
}

func TestVersionCommand(t *testing.T) {
	Version = "1.2.3"
	t.Cleanup(func() { Version = "dev" })

	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", out)
}

func TestRepairCommand_ReplacesWithCandidate(t *testing.T) {
	posts := append(standardPosts(), gormstore.Post{
		ID: "c", Title: "Beach", Image: reference.Locator(testHost + "posts/3-1700000000-beach-day.jpg"),
	})
	env := setupEnv(t, posts, "posts/1-1699999999-sunset.jpg", "posts/3-1700000500-beach-day.jpg")

	out, err := execute(t, "repair", "--no-dry-run", "--yes", "-o", "json")
	require.NoError(t, err)

	report := decodeReport(t, out)
	assert.Equal(t, float64(2), report["fixed_count"])
	assert.Equal(t, testHost+"posts/3-1700000500-beach-day.jpg", *readImage(t, env, "c"))
	assert.Nil(t, readImage(t, env, "b"))
	assert.FileExists(t, filepath.Join(env.bucketPath, "posts", "3-1700000500-beach-day.jpg"))
}

func TestExecuteLabel(t *testing.T) {
	cfg := &config.Config{
		Database: gormstore.Config{Table: "posts"},
		Storage:  config.StorageConfig{Bucket: "my-bucket"},
	}
	preview := &imagesync.Report{BrokenCount: 2, OrphanCount: 3}

	assert.Equal(t, `Rewrite up to 2 image references in "posts"`,
		executeLabel(imagesync.ModeRepair, preview, cfg))
	assert.Equal(t, `Delete up to 3 objects from bucket "my-bucket"`,
		executeLabel(imagesync.ModeCleanup, preview, cfg))
	assert.Contains(t, executeLabel(imagesync.ModeReconcile, preview, cfg), "and delete up to 3")

	assert.Empty(t, executeLabel(imagesync.ModeCleanup, &imagesync.Report{BrokenCount: 4}, cfg))
}
