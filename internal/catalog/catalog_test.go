package catalog_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/aris2video/internal/aris"
	"github.com/banshee-data/aris2video/internal/catalog"
	"github.com/banshee-data/aris2video/internal/testutil"
	"github.com/banshee-data/aris2video/internal/timeutil"
)

var epoch = time.Date(2018, 5, 4, 12, 0, 0, 0, time.UTC)

func openCatalog(t *testing.T) (*catalog.Catalog, *timeutil.MockClock) {
	t.Helper()
	clock := timeutil.NewMockClock(epoch)
	c, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"), catalog.WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, clock
}

func TestOpenAppliesMigrations(t *testing.T) {
	t.Parallel()

	c, _ := openCatalog(t)
	version, dirty, err := c.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// A second MigrateUp is a no-op.
	require.NoError(t, c.MigrateUp())
}

func TestMigrateDownAndUp(t *testing.T) {
	t.Parallel()

	c, _ := openCatalog(t)
	require.NoError(t, c.MigrateDown())
	version, _, err := c.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	_, err = c.StartJob(catalog.Run{Input: "a", Output: "b"})
	assert.Error(t, err)

	require.NoError(t, c.MigrateUp())
	_, err = c.StartJob(catalog.Run{Input: "a", Output: "b"})
	assert.NoError(t, err)
}

func TestJobLifecycle(t *testing.T) {
	t.Parallel()

	c, clock := openCatalog(t)

	id, err := c.StartJob(catalog.Run{Input: "/data/a.aris", Output: "/out/a.avi"})
	require.NoError(t, err)
	assert.Len(t, id, 36)

	run, err := c.Job(id)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusRunning, run.Status)
	assert.True(t, run.StartedAt.Equal(epoch))
	assert.True(t, run.FinishedAt.IsZero())

	require.NoError(t, c.SetGeometry(id, catalog.Run{
		FramesTotal: 2, Beams: 48, Bins: 4, Width: 310, Height: 516, FrameRate: 5, TableHash: "abc",
	}))

	clock.Advance(3 * time.Second)
	require.NoError(t, c.FinishJob(id, catalog.StatusClosed, 2, nil))

	run, err = c.Job(id)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusClosed, run.Status)
	assert.Equal(t, 2, run.FramesRendered)
	assert.Equal(t, 310, run.Width)
	assert.Equal(t, 516, run.Height)
	assert.Equal(t, 5.0, run.FrameRate)
	assert.Equal(t, "abc", run.TableHash)
	assert.Equal(t, 3*time.Second, run.FinishedAt.Sub(run.StartedAt))
	assert.Empty(t, run.Error)
}

func TestFinishJobRecordsError(t *testing.T) {
	t.Parallel()

	c, _ := openCatalog(t)
	id, err := c.StartJob(catalog.Run{ID: "fixed-id", Input: "in", Output: "out"})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", id)

	require.NoError(t, c.FinishJob(id, catalog.StatusFailed, 0, errors.New("aris: unsupported file version")))
	run, err := c.Job(id)
	require.NoError(t, err)
	assert.Equal(t, catalog.StatusFailed, run.Status)
	assert.Equal(t, "aris: unsupported file version", run.Error)
}

func TestUnknownJob(t *testing.T) {
	t.Parallel()

	c, _ := openCatalog(t)
	_, err := c.Job("missing")
	assert.ErrorIs(t, err, catalog.ErrJobNotFound)
	assert.ErrorIs(t, c.FinishJob("missing", catalog.StatusClosed, 0, nil), catalog.ErrJobNotFound)
	assert.ErrorIs(t, c.SetGeometry("missing", catalog.Run{}), catalog.ErrJobNotFound)
}

func TestListJobsNewestFirst(t *testing.T) {
	t.Parallel()

	c, clock := openCatalog(t)
	var ids []string
	for i := 0; i < 3; i++ {
		id, err := c.StartJob(catalog.Run{Input: "in", Output: "out"})
		require.NoError(t, err)
		ids = append(ids, id)
		clock.Advance(time.Minute)
	}

	all, err := c.ListJobs(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[0], all[2].ID)

	two, err := c.ListJobs(2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestSaveHeader(t *testing.T) {
	t.Parallel()

	c, _ := openCatalog(t)
	id, err := c.StartJob(catalog.Run{Input: "in", Output: "out"})
	require.NoError(t, err)

	rec := testutil.SmallRecording()
	rec.FileFields = map[string]any{"serialnumber": 1234, "strdate": "2018-05-04"}
	h, err := aris.ReadHeaders(bytes.NewReader(rec.Bytes(t)))
	require.NoError(t, err)

	require.NoError(t, c.SaveHeader(id, h.File.Raw))
	// Saving twice replaces rather than duplicates.
	require.NoError(t, c.SaveHeader(id, h.File.Raw))

	fields, err := c.Header(id)
	require.NoError(t, err)
	assert.Len(t, fields, aris.FileHeaderSchema.Len())
	assert.Equal(t, "DDF", fields["type"])
	assert.Equal(t, "5", fields["version"])
	assert.Equal(t, "48", fields["numbeams"])
	assert.Equal(t, "1234", fields["serialnumber"])
	assert.Equal(t, "2018-05-04", fields["strdate"])
	assert.Equal(t, "4", fields["windowlength"])
}
