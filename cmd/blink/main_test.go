package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/blink/internal/db"
)

func mustParse(t *testing.T, args ...string) *options {
	t.Helper()
	o, err := parseFlags(args, io.Discard)
	require.NoError(t, err)
	return o
}

func TestRun_DevReplayRecordsTransitions(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "blink.db")
	o := mustParse(t,
		"--dev",
		"--fixtures", "testdata/street.jsonl",
		"--replay-interval", "0s",
		"--db", dbPath,
		"--listen", "127.0.0.1:0",
		"--grpc-listen", "127.0.0.1:0",
	)

	require.Equal(t, 0, run(context.Background(), o))

	store, err := db.NewDB(dbPath)
	require.NoError(t, err)
	defer store.Close()

	records, err := store.Transitions(0)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// cyclist rides in, leaves behind a cat, then a car arrives.
	assert.Equal(t, "RISING", records[2].Event)
	assert.Equal(t, uint64(3), records[2].Frame)
	assert.Equal(t, []int{2}, records[2].Classes)
	assert.Equal(t, "FALLING", records[1].Event)
	assert.Equal(t, uint64(6), records[1].Frame)
	assert.Equal(t, "RISING", records[0].Event)
	assert.Equal(t, []int{3}, records[0].Classes)

	session, err := store.GetSession(records[0].SessionID)
	require.NoError(t, err)
	assert.Equal(t, "end of stream", session.StopReason)
	assert.Equal(t, uint64(8), session.Frames)
	assert.NotNil(t, session.EndedAt)
}

func TestRun_InterruptIsNotAnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := mustParse(t, "--dev", "--loop", "--replay-interval", "0s")
	assert.Equal(t, 0, run(ctx, o))
}

func TestRun_StartupFailures(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing config", []string{"--dev", "--config", "testdata/missing.json"}},
		{"missing fixtures", []string{"--dev", "--fixtures", "testdata/missing.jsonl"}},
		{"bad listen address", []string{"--dev", "--listen", "127.0.0.1:-1"}},
		{"bad event log path", []string{"--dev", "--db", filepath.Join("testdata", "no-such-dir", "x", "blink.db")}},
		{"missing model", []string{"-p", "testdata/missing.pbtxt", "-w", "testdata/missing.pb", "--port", "testdata/no-such-port"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, 1, run(context.Background(), mustParse(t, tc.args...)))
		})
	}
}

func TestFinish_BannerOnlyOnCleanExit(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 1, finish(&out, 1))
	assert.Empty(t, out.String())

	assert.Equal(t, 0, finish(&out, 0))
	assert.Equal(t, "blink end\n", out.String())
}
