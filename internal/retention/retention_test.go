package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeArchiver struct {
	ages []time.Duration
	err  error
}

func (f *fakeArchiver) ArchiveOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	f.ages = append(f.ages, age)
	return 3, f.err
}

func TestRunOnce(t *testing.T) {
	archiver := &fakeArchiver{}
	job, err := NewJob(archiver, "@daily", 30*24*time.Hour)
	require.NoError(t, err)

	archived, err := job.RunOnce(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, archived)
	assert.Equal(t, []time.Duration{30 * 24 * time.Hour}, archiver.ages)
}

func TestRunOnceError(t *testing.T) {
	archiver := &fakeArchiver{err: errors.New("db down")}
	job, err := NewJob(archiver, "@hourly", time.Hour)
	require.NoError(t, err)

	_, err = job.RunOnce(context.Background())
	assert.ErrorIs(t, err, archiver.err)
}

func TestNewJobRejectsBadConfig(t *testing.T) {
	_, err := NewJob(&fakeArchiver{}, "not a schedule", time.Hour)
	assert.Error(t, err)

	_, err = NewJob(&fakeArchiver{}, "@daily", 0)
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	job, err := NewJob(&fakeArchiver{}, "@every 1h", time.Hour)
	require.NoError(t, err)
	job.Start()
	job.Stop()
}
