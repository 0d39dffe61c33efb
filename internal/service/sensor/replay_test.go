package sensor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ColdPull/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTrace(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReplayerStreamsRows(t *testing.T) {
	path := writeTrace(t, "ts,product,temp_inside_c,temp_outside_c,humidity_pct,door_open,gas_ppm\n"+
		"100,dairy,4.1,21.0,60,0,120\n"+
		"160,dairy,6.3,21.5,62,1,180\n")

	r := NewReplayer(path, "dairy", time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, r.Connect(ctx))
	require.NoError(t, r.Subscribe(ctx))
	assert.True(t, r.IsConnected())

	readings, _ := r.Read(ctx)
	var got []*models.Reading
	for rd := range readings {
		got = append(got, rd)
	}

	require.Len(t, got, 2)
	assert.Equal(t, "dairy", got[0].Product)
	assert.Equal(t, 4.1, got[0].TempInsideC)
	require.NotNil(t, got[0].TS)
	assert.Equal(t, 100.0, *got[0].TS)
	assert.Equal(t, 1, got[1].DoorOpen)
	assert.Equal(t, 180.0, got[1].GasPPM)
	assert.False(t, r.IsConnected())
}

func TestReplayerStampsDefaultProduct(t *testing.T) {
	path := writeTrace(t, "ts,temp_inside_c,temp_outside_c,humidity_pct,door_open\n"+
		"100,4.1,21.0,60,0\n")

	r := NewReplayer(path, "vaccine", time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, r.Connect(ctx))
	readings, _ := r.Read(ctx)
	rd := <-readings
	require.NotNil(t, rd)
	assert.Equal(t, "vaccine", rd.Product)
	assert.Equal(t, 0.0, rd.GasPPM)
}

func TestReplayerRejectsBadHeader(t *testing.T) {
	path := writeTrace(t, "ts,product,temp_inside_c\n100,dairy,4.1\n")

	r := NewReplayer(path, "dairy", time.Millisecond)
	err := r.Connect(context.Background())
	assert.ErrorContains(t, err, "missing column")
}

func TestReplayerMissingFile(t *testing.T) {
	r := NewReplayer(filepath.Join(t.TempDir(), "nope.csv"), "dairy", time.Millisecond)
	assert.Error(t, r.Connect(context.Background()))
}

func TestReplayerStopsOnMalformedRow(t *testing.T) {
	// A row with the wrong field count ends the read loop, so a later
	// Reconnect can replace the reader without racing it.
	path := writeTrace(t, "ts,product,temp_inside_c,temp_outside_c,humidity_pct,door_open,gas_ppm\n"+
		"100,dairy,4.1,21.0,60,0,120\n"+
		"160,dairy\n"+
		"220,dairy,6.3,21.5,62,1,180\n")

	r := NewReplayer(path, "dairy", time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, r.Connect(ctx))
	readings, errs := r.Read(ctx)

	var got []*models.Reading
	for rd := range readings {
		got = append(got, rd)
	}
	require.Len(t, got, 1)

	err := <-errs
	assert.ErrorContains(t, err, "replay read")
	assert.False(t, r.IsConnected())

	require.NoError(t, r.Reconnect(ctx))
	assert.True(t, r.IsConnected())
}

func TestReplayerReconnectRewinds(t *testing.T) {
	path := writeTrace(t, "ts,product,temp_inside_c,temp_outside_c,humidity_pct,door_open,gas_ppm\n"+
		"100,dairy,4.1,21.0,60,0,120\n")

	r := NewReplayer(path, "dairy", time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, r.Connect(ctx))
	readings, _ := r.Read(ctx)
	for range readings {
	}
	assert.False(t, r.IsConnected())

	require.NoError(t, r.Reconnect(ctx))
	assert.True(t, r.IsConnected())
}
