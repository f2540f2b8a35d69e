package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kasuganosora/ghostai/config"
	"github.com/kasuganosora/ghostai/game/ghost/strategy"
	"github.com/kasuganosora/ghostai/game/world"
	"github.com/kasuganosora/ghostai/hook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSchedulePhases(t *testing.T) {
	phases, err := schedulePhases(nil)
	require.NoError(t, err)
	assert.Nil(t, phases)

	phases, err = schedulePhases([]config.PhaseConfig{
		{Mode: "Scatter", Duration: 5 * time.Second},
		{Mode: "chase"},
	})
	require.NoError(t, err)
	assert.Equal(t, []world.Phase{
		{Mode: strategy.ModeScatter, Duration: 5 * time.Second},
		{Mode: strategy.ModeChase},
	}, phases)

	_, err = schedulePhases([]config.PhaseConfig{{Mode: "frightened"}})
	assert.ErrorIs(t, err, strategy.ErrUnknownMode)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadConfig_ExampleFile(t *testing.T) {
	if _, err := os.Stat("config/config.example.yaml"); err != nil {
		t.Skip("example config not present")
	}
	cfg, err := loadConfig("config/config.example.yaml")
	require.NoError(t, err)
	_, err = schedulePhases(cfg.Game.Schedule)
	assert.NoError(t, err)
}

func TestRegisterHooks_LogsCaptures(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := hook.NewCenter()
	registerHooks(h, zap.New(core))
	require.True(t, h.Has(hook.OnCapture))
	require.True(t, h.Has(hook.OnModeChange))

	snap := world.Snapshot{RoomID: "r1", Tick: 7, Captures: 1}
	out, err := h.Trigger(context.Background(), hook.OnCapture, snap)
	require.NoError(t, err)
	assert.Equal(t, snap, out)

	entries := logs.FilterMessage("capture").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "r1", entries[0].ContextMap()["room_id"])
	assert.Equal(t, int64(7), entries[0].ContextMap()["tick"])
}
