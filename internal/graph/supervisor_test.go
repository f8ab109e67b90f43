// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package graph

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupervisor_WritePIDFileThenReadPIDFileRoundTrips(t *testing.T) {
	dir := t.TempDir()
	sup := NewSupervisor(dir, filepath.Join(dir, "graph.db"), "/bin/true")

	want := PIDRecord{PID: 12345, Host: "localhost", Port: 4243, DBPath: sup.DBPath, StartTime: time.Now()}
	require.NoError(t, sup.writePIDFile(want))

	got, ok := sup.readPIDFile()
	require.True(t, ok)
	assert.Equal(t, want.PID, got.PID)
	assert.Equal(t, want.Host, got.Host)
	assert.Equal(t, want.Port, got.Port)
	assert.Equal(t, want.DBPath, got.DBPath)
}

func TestSupervisor_ReadPIDFileMissingReturnsFalse(t *testing.T) {
	dir := t.TempDir()
	sup := NewSupervisor(dir, filepath.Join(dir, "graph.db"), "/bin/true")

	_, ok := sup.readPIDFile()
	assert.False(t, ok)
}

func TestSupervisor_ReadPIDFileCorruptJSONReturnsFalse(t *testing.T) {
	dir := t.TempDir()
	sup := NewSupervisor(dir, filepath.Join(dir, "graph.db"), "/bin/true")
	require.NoError(t, os.MkdirAll(filepath.Dir(sup.PIDFilePath), 0o755))
	require.NoError(t, os.WriteFile(sup.PIDFilePath, []byte("not json"), 0o644))

	_, ok := sup.readPIDFile()
	assert.False(t, ok)
}

func TestFindFreePort_ReturnsPortWithinBaseRange(t *testing.T) {
	sup := &Supervisor{BasePort: 4243}
	port, err := sup.findFreePort()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, port, sup.BasePort)
	assert.Less(t, port, sup.BasePort+100)
}

func TestProcessRunning_TrueForSelfFalseForObviouslyDeadPID(t *testing.T) {
	assert.True(t, processRunning(os.Getpid()))
	assert.False(t, processRunning(1<<30))
}

func TestPollVersion_FailsFastOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pollVersion(ctx, "localhost", 1, time.Second)
	assert.Error(t, err)
}

func TestPollVersion_TimesOutAgainstUnreachableHost(t *testing.T) {
	err := pollVersion(context.Background(), "localhost", 1, 50*time.Millisecond)
	assert.Error(t, err)
}

func TestSupervisor_IsAliveFalseWhenProcessNotRunning(t *testing.T) {
	sup := &Supervisor{}
	alive := sup.isAlive(context.Background(), PIDRecord{PID: 1 << 30, Host: "localhost", Port: 1})
	assert.False(t, alive)
}
