package sse_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/ghostai/api/sse"
	"github.com/kasuganosora/ghostai/game/world"
	"github.com/kasuganosora/ghostai/resource"
	"github.com/kasuganosora/ghostai/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type event struct {
	name string
	data string
}

// readEvent reads the next named event, skipping comments.
func readEvent(t *testing.T, r *bufio.Reader) event {
	t.Helper()
	var ev event
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if ev.name != "" {
				return ev
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func setup(t *testing.T) (*httptest.Server, *world.WorldManager, *sse.Handler) {
	t.Helper()
	loader := resource.NewLoader(t.TempDir())
	require.NoError(t, loader.Add("corridor", []string{
		"#######",
		"#P...B#",
		"#######",
	}))
	c, ps := testutil.SetupTestCache(t)
	wm := world.NewWorldManager(loader, nil, world.Options{}, nil, nil, c, ps, zap.NewNop())
	t.Cleanup(wm.StopAll)

	h := sse.NewHandler(wm, ps, c, zap.NewNop())
	r := gin.New()
	r.GET("/sse/rooms/:id", h.ServeRoom)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, wm, h
}

func open(t *testing.T, srv *httptest.Server, id string) *bufio.Reader {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sse/rooms/"+id, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	return bufio.NewReader(resp.Body)
}

func TestServeRoom_StreamsSnapshots(t *testing.T) {
	srv, wm, _ := setup(t)
	room, err := wm.Create("corridor", 1)
	require.NoError(t, err)
	room.Tick(context.Background())

	r := open(t, srv, room.ID)
	ev := readEvent(t, r)
	assert.Equal(t, "connected", ev.name)
	assert.Contains(t, ev.data, room.ID)

	// Cached snapshot first.
	ev = readEvent(t, r)
	require.Equal(t, "snapshot", ev.name)
	var snap world.Snapshot
	require.NoError(t, json.Unmarshal([]byte(ev.data), &snap))
	assert.Equal(t, int64(1), snap.Tick)

	room.Tick(context.Background())
	ev = readEvent(t, r)
	require.Equal(t, "snapshot", ev.name)
	require.NoError(t, json.Unmarshal([]byte(ev.data), &snap))
	assert.Equal(t, int64(2), snap.Tick)
}

func TestServeRoom_NoCachedSnapshot(t *testing.T) {
	srv, wm, _ := setup(t)
	room, err := wm.Create("corridor", 1)
	require.NoError(t, err)

	r := open(t, srv, room.ID)
	assert.Equal(t, "connected", readEvent(t, r).name)

	room.Tick(context.Background())
	ev := readEvent(t, r)
	require.Equal(t, "snapshot", ev.name)
	assert.Contains(t, ev.data, `"tick":1`)
}

func TestServeRoom_ClosedRoomEndsStream(t *testing.T) {
	srv, wm, h := setup(t)
	h.SetKeepalive(20 * time.Millisecond)
	room, err := wm.Create("corridor", 1)
	require.NoError(t, err)

	r := open(t, srv, room.ID)
	assert.Equal(t, "connected", readEvent(t, r).name)

	require.NoError(t, wm.Destroy(room.ID))
	ev := readEvent(t, r)
	assert.Equal(t, "closed", ev.name)
}

func TestServeRoom_NotFound(t *testing.T) {
	srv, _, _ := setup(t)
	resp, err := http.Get(srv.URL + "/sse/rooms/missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
