package data

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jihyolabs/ddareungi-monitor/services/dashboard/config"
)

func testConfig(t *testing.T, corpusPath string) config.Config {
	t.Helper()
	return config.Config{
		DatabaseURL:     "postgres://unused",
		CorpusPath:      corpusPath,
		LookbackMinutes: 60,
		CacheTTL:        time.Minute,
	}
}

func TestLoadFallsBackToCorpusOnPrimaryFailure(t *testing.T) {
	path := writeCorpusFile(t, corpusHeader+
		"ST-1,A,20,5,,,37.5,127.0,2025-06-01T10:00:00Z\n"+
		"ST-1,A,20,8,,,37.5,127.0,2025-06-01T10:05:00Z\n"+
		"ST-2,B,10,2,,,37.6,127.1,2025-06-01T10:00:00Z\n", true)

	access := New(testConfig(t, path))
	access.queryPrimary = func(ctx context.Context, lookbackMinutes int) (*Result, error) {
		return nil, errors.New("connect: connection refused")
	}

	result, err := access.Load(context.Background(), 60)
	require.NoError(t, err)

	assert.Equal(t, SourceCSVFallback, result.Source)
	assert.Empty(t, result.PeakHours)
	assert.Empty(t, result.Relocation)

	// Latest view is rebuilt from the full corpus.
	require.Len(t, result.Latest, 2)
	byID := map[string]StationStatus{}
	for _, row := range result.Latest {
		byID[row.StationID] = row
	}
	assert.Equal(t, 8.0, *byID["ST-1"].ParkedCount)
	require.NotNil(t, byID["ST-1"].OccRatio)
	assert.InDelta(t, 0.4, *byID["ST-1"].OccRatio, 1e-9)
}

func TestLoadUsesPrimaryWhenHealthy(t *testing.T) {
	access := New(testConfig(t, "does-not-matter.csv"))

	calls := 0
	access.queryPrimary = func(ctx context.Context, lookbackMinutes int) (*Result, error) {
		calls++
		assert.Equal(t, 30, lookbackMinutes)
		return &Result{Source: SourceSQL}, nil
	}

	result, err := access.Load(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, SourceSQL, result.Source)
	assert.Equal(t, 1, calls)
}

func TestLoadCachesWithinTTL(t *testing.T) {
	access := New(testConfig(t, "unused.csv"))

	calls := 0
	access.queryPrimary = func(ctx context.Context, lookbackMinutes int) (*Result, error) {
		calls++
		return &Result{Source: SourceSQL}, nil
	}

	_, err := access.Load(context.Background(), 60)
	require.NoError(t, err)
	_, err = access.Load(context.Background(), 60)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	// Distinct lookbacks are distinct query keys.
	_, err = access.Load(context.Background(), 120)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestClearCacheForcesRefresh(t *testing.T) {
	access := New(testConfig(t, "unused.csv"))

	calls := 0
	access.queryPrimary = func(ctx context.Context, lookbackMinutes int) (*Result, error) {
		calls++
		return &Result{Source: SourceSQL}, nil
	}

	_, err := access.Load(context.Background(), 60)
	require.NoError(t, err)

	access.ClearCache()

	_, err = access.Load(context.Background(), 60)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestLoadZeroLookbackUsesDefault(t *testing.T) {
	access := New(testConfig(t, "unused.csv"))

	access.queryPrimary = func(ctx context.Context, lookbackMinutes int) (*Result, error) {
		assert.Equal(t, 60, lookbackMinutes)
		return &Result{Source: SourceSQL}, nil
	}

	_, err := access.Load(context.Background(), 0)
	require.NoError(t, err)
}

func TestAssembleDegradesFailedViewsToEmpty(t *testing.T) {
	access := New(testConfig(t, "unused.csv"))

	rack := 20.0
	parked := 5.0
	access.queryRecent = func(ctx context.Context, conn *pgx.Conn, lookbackMinutes int) ([]StationStatus, error) {
		return []StationStatus{{
			StationID:   "ST-1",
			RackCount:   &rack,
			ParkedCount: &parked,
			TSUTC:       time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		}}, nil
	}
	access.queryPeakHours = func(ctx context.Context, conn *pgx.Conn) ([]PeakHour, error) {
		return nil, errors.New(`relation "vw_station_peak_hours" does not exist`)
	}
	access.queryRelocation = func(ctx context.Context, conn *pgx.Conn) ([]RelocationCandidate, error) {
		return nil, errors.New(`relation "vw_relocation_candidate" does not exist`)
	}

	// Both views failing must not fail a successful window read.
	result, err := access.assemble(context.Background(), nil, 60)
	require.NoError(t, err)

	assert.Equal(t, SourceSQL, result.Source)
	assert.NotNil(t, result.PeakHours)
	assert.Empty(t, result.PeakHours)
	assert.NotNil(t, result.Relocation)
	assert.Empty(t, result.Relocation)

	require.Len(t, result.Latest, 1)
	require.NotNil(t, result.Latest[0].AvailRatio)
	assert.InDelta(t, 0.75, *result.Latest[0].AvailRatio, 1e-9)
}

func TestAssembleFailsWhenWindowQueryFails(t *testing.T) {
	access := New(testConfig(t, "unused.csv"))

	viewCalls := 0
	access.queryRecent = func(ctx context.Context, conn *pgx.Conn, lookbackMinutes int) ([]StationStatus, error) {
		return nil, errors.New("query recent window: relation missing")
	}
	access.queryPeakHours = func(ctx context.Context, conn *pgx.Conn) ([]PeakHour, error) {
		viewCalls++
		return []PeakHour{}, nil
	}
	access.queryRelocation = func(ctx context.Context, conn *pgx.Conn) ([]RelocationCandidate, error) {
		viewCalls++
		return []RelocationCandidate{}, nil
	}

	_, err := access.assemble(context.Background(), nil, 60)
	require.Error(t, err)
	assert.Equal(t, 0, viewCalls)
}

func TestLoadFailsWhenBothPathsFail(t *testing.T) {
	access := New(testConfig(t, "missing-corpus.csv"))
	access.queryPrimary = func(ctx context.Context, lookbackMinutes int) (*Result, error) {
		return nil, errors.New("down")
	}

	_, err := access.Load(context.Background(), 60)
	require.Error(t, err)
}

func TestCorpusCached(t *testing.T) {
	path := writeCorpusFile(t, corpusHeader+
		"ST-1,A,20,5,,,37.5,127.0,2025-06-01T10:00:00Z\n", true)

	access := New(testConfig(t, path))

	rows, err := access.Corpus(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].OccRatio)

	// A second read is served from cache even if the file disappears.
	require.NoError(t, os.Remove(path))
	rows, err = access.Corpus(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
