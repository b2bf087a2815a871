package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"content-importer/feature/assets"
	"content-importer/feature/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeIndex struct {
	err   error
	saves int
}

func (f *fakeIndex) Save() error {
	f.saves++
	return f.err
}

func TestReporter_Counts(t *testing.T) {
	r := New("run-1", nil, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Record(schema.KindSeries, fmt.Sprintf("s-%d", i), "series.json", OutcomeCreated, time.Millisecond, nil)
			r.RecordAsset(assets.OutcomeMaterialized, 100)
		}(i)
	}
	wg.Wait()

	r.Record(schema.KindChapter, "s-1#1", "", OutcomeUpdated, 0, nil)
	r.Record(schema.KindChapter, "ghost#1", "", OutcomeSkipped, 0, errors.New("parent missing"))
	r.Record(schema.KindChapter, "", "chapters.json#9", OutcomeErrored, 0, errors.New("bad number"))
	r.RecordAsset(assets.OutcomeCached, 0)
	r.RecordAsset(assets.OutcomeDeduplicated, 100)
	r.RecordAsset(assets.OutcomeFallback, 0)

	s := r.Snapshot()
	assert.Equal(t, 50, s.Kind(schema.KindSeries).Created)
	assert.Equal(t, 50*time.Millisecond, s.Kind(schema.KindSeries).Duration)
	assert.Equal(t, KindStats{Updated: 1, Skipped: 1, Errored: 1}, s.Kind(schema.KindChapter))
	assert.Equal(t, ImageStats{Downloaded: 50, Deduplicated: 1, Cached: 1, Fallback: 1, BytesDownloaded: 5100}, s.Images)
	assert.True(t, s.HasErrors())
	require.Len(t, s.Errors, 2)
	assert.Equal(t, OutcomeSkipped, s.Errors[0].Outcome)
	assert.Equal(t, "chapters.json#9", s.Errors[1].Origin)
}

func TestReporter_ErrorCap(t *testing.T) {
	r := New("run", nil, nil)
	for i := 0; i < MaxErrorSummaries+20; i++ {
		r.Record(schema.KindUser, "", "", OutcomeErrored, 0, errors.New("x"))
	}
	s := r.Snapshot()
	assert.Len(t, s.Errors, MaxErrorSummaries)
	assert.Equal(t, MaxErrorSummaries+20, s.ErrorsTotal)
	assert.Equal(t, MaxErrorSummaries+20, s.Kind(schema.KindUser).Errored)
}

func TestReporter_Finish(t *testing.T) {
	t.Run("SavesIndex", func(t *testing.T) {
		idx := &fakeIndex{}
		r := New("run", idx, zap.NewNop())
		r.Record(schema.KindUser, "a@b.c", "", OutcomeCreated, 0, nil)

		s := r.Finish(context.Background())
		assert.Equal(t, 1, idx.saves)
		assert.Empty(t, s.IndexError)
		assert.False(t, s.HasErrors())
		assert.False(t, s.FinishedAt.Before(s.StartedAt))
	})

	t.Run("SaveFailureIsSoft", func(t *testing.T) {
		idx := &fakeIndex{err: errors.New("read-only filesystem")}
		r := New("run", idx, zap.NewNop())

		s := r.Finish(context.Background())
		assert.Equal(t, 1, idx.saves)
		assert.Contains(t, s.IndexError, "read-only")
		assert.False(t, s.HasErrors())
	})
}

func TestReporter_TrackReferences(t *testing.T) {
	r := New("run", nil, nil)
	var n int64 = 4
	r.TrackReferences(func() int64 { return n })
	assert.Equal(t, int64(4), r.Snapshot().ReferencesCreated)
}

func TestStatistics_Output(t *testing.T) {
	r := New("run-42", nil, nil)
	r.Record(schema.KindSeries, "solo-leveling", "", OutcomeCreated, 1500*time.Microsecond, nil)
	r.Record(schema.KindSeries, "bad", "series.json#2", OutcomeErrored, 0, errors.New("invalid series: title: missing"))
	r.RecordAsset(assets.OutcomeMaterialized, 2048)
	s := r.Snapshot()

	var buf bytes.Buffer
	require.NoError(t, s.Render(&buf))
	out := buf.String()
	assert.Contains(t, out, "run-42")
	assert.Contains(t, out, "series")
	assert.Contains(t, out, "2.0 kB")
	assert.Contains(t, out, "title: missing")

	buf.Reset()
	require.NoError(t, s.WriteJSON(&buf))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-42", decoded["run_id"])
	kinds := decoded["kinds"].(map[string]any)
	assert.Equal(t, float64(1), kinds["series"].(map[string]any)["errored"])
}
