package rest_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/kasuganosora/ghostai/game/world"
	"github.com/kasuganosora/ghostai/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	e := newTestEnv(t, testKey, world.Options{})
	w := e.do(http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestBoards(t *testing.T) {
	e := newTestEnv(t, testKey, world.Options{})
	w := e.do(http.MethodGet, "/api/boards", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, []interface{}{"corridor", "open"}, resp["boards"])
	assert.Equal(t, "corridor", resp["default"])
}

// ---- Create / List / Get / Delete ----

func TestCreateRoom(t *testing.T) {
	e := newTestEnv(t, testKey, world.Options{})

	w := e.do(http.MethodPost, "/api/rooms", "", `{"board":"open"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPost, "/api/rooms", testKey, `{"board":"open","seed":11}`)
	require.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w)
	room := resp["room"].(map[string]interface{})
	assert.Equal(t, "open", room["board"])
	assert.Equal(t, float64(11), room["seed"])
	snap := resp["snapshot"].(map[string]interface{})
	assert.Len(t, snap["ghosts"], 2)
}

func TestCreateRoom_DefaultBoard(t *testing.T) {
	e := newTestEnv(t, testKey, world.Options{})
	id := e.createRoom(t, "")
	room, err := e.wm.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "corridor", room.Board)
}

func TestCreateRoom_Errors(t *testing.T) {
	e := newTestEnv(t, testKey, world.Options{MaxRooms: 1})

	w := e.do(http.MethodPost, "/api/rooms", testKey, `{"board":"nope"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodPost, "/api/rooms", testKey, `{"board":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	e.createRoom(t, "")
	w = e.do(http.MethodPost, "/api/rooms", testKey, `{"board":"open"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListRooms(t *testing.T) {
	e := newTestEnv(t, testKey, world.Options{})
	w := e.do(http.MethodGet, "/api/rooms", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["count"])

	e.createRoom(t, "")
	e.createRoom(t, `{"board":"open"}`)
	w = e.do(http.MethodGet, "/api/rooms", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["count"])
}

func TestGetRoom(t *testing.T) {
	e := newTestEnv(t, testKey, world.Options{})
	id := e.createRoom(t, "")

	w := e.do(http.MethodGet, "/api/rooms/"+id, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, []interface{}{"#######", "#.....#", "#######"}, resp["layout"])
	assert.Equal(t, id, resp["room"].(map[string]interface{})["id"])

	w = e.do(http.MethodGet, "/api/rooms/missing", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteRoom(t *testing.T) {
	e := newTestEnv(t, testKey, world.Options{})
	id := e.createRoom(t, "")

	w := e.do(http.MethodDelete, "/api/rooms/"+id, "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodDelete, "/api/rooms/"+id, testKey, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, decode(t, w)["deleted"])
	assert.Zero(t, e.wm.ActiveRoomCount())

	w = e.do(http.MethodDelete, "/api/rooms/"+id, testKey, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ---- Mode / Steer ----

func TestSetMode(t *testing.T) {
	e := newTestEnv(t, testKey, world.Options{})
	id := e.createRoom(t, "")
	path := "/api/rooms/" + id + "/mode"

	w := e.do(http.MethodPut, path, testKey, `{"mode":"Chase"}`)
	require.Equal(t, http.StatusOK, w.Code)
	room := decode(t, w)["room"].(map[string]interface{})
	assert.Equal(t, "chase", room["mode"])
	assert.Equal(t, true, room["forced"])

	w = e.do(http.MethodPut, path, testKey, `{"mode":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["room"].(map[string]interface{})["forced"])

	w = e.do(http.MethodPut, path, testKey, `{"mode":"frightened"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPut, path, "", `{"mode":"chase"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(http.MethodPut, "/api/rooms/missing/mode", testKey, `{"mode":"chase"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSteer(t *testing.T) {
	e := newTestEnv(t, testKey, world.Options{})
	id := e.createRoom(t, `{"board":"open"}`)
	path := "/api/rooms/" + id + "/steer"

	w := e.do(http.MethodPost, path, "", `{"direction":"North"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "north", decode(t, w)["direction"])

	room, err := e.wm.Get(id)
	require.NoError(t, err)
	snap := room.Tick(t.Context())
	assert.Equal(t, 3, snap.Player.X)
	assert.Equal(t, 1, snap.Player.Y)

	w = e.do(http.MethodPost, path, "", `{"direction":"up"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = e.do(http.MethodPost, path, "", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = e.do(http.MethodPost, "/api/rooms/missing/steer", "", `{"direction":"north"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ---- Journal ----

func TestMoves(t *testing.T) {
	e := newTestEnv(t, testKey, world.Options{})
	id := e.createRoom(t, `{"board":"open"}`)
	room, err := e.wm.Get(id)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		room.Tick(t.Context())
	}
	e.journal.Stop(context.Background()) // flush

	w := e.do(http.MethodGet, "/api/rooms/"+id+"/moves", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, float64(6), resp["count"])
	first := resp["moves"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, float64(3), first["tick"], "newest first")

	w = e.do(http.MethodGet, "/api/rooms/"+id+"/moves?ghost=Pinky&limit=2", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode(t, w)
	assert.Equal(t, float64(2), resp["count"])
	for _, m := range resp["moves"].([]interface{}) {
		assert.Equal(t, "pinky", m.(map[string]interface{})["ghost"])
	}

	w = e.do(http.MethodGet, "/api/rooms/"+id+"/moves?ghost=sue", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMoves_ClosedRoom(t *testing.T) {
	e := newTestEnv(t, testKey, world.Options{})
	for tick := int64(1); tick <= 3; tick++ {
		require.NoError(t, e.db.Create(&model.GhostMove{
			RoomID: "closed", Tick: tick, Ghost: "inky", Mode: "chase", Detail: []byte("null"),
		}).Error)
	}
	w := e.do(http.MethodGet, "/api/rooms/closed/moves?limit=9999", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decode(t, w)["count"])
}

func TestEvents_FromCache(t *testing.T) {
	e := newTestEnv(t, testKey, world.Options{})
	id := e.createRoom(t, "")
	room, err := e.wm.Get(id)
	require.NoError(t, err)

	room.Tick(t.Context()) // "" -> scatter
	w := e.do(http.MethodPut, "/api/rooms/"+id+"/mode", testKey, `{"mode":"chase"}`)
	require.Equal(t, http.StatusOK, w.Code)
	room.Tick(t.Context()) // scatter -> chase

	w = e.do(http.MethodGet, "/api/rooms/"+id+"/events", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "cache", resp["source"])
	events := resp["events"].([]interface{})
	require.Len(t, events, 2)
	newest := events[0].(map[string]interface{})
	assert.Equal(t, "chase", newest["to"])
	assert.Equal(t, "admin", newest["reason"])

	w = e.do(http.MethodGet, "/api/rooms/"+id+"/events?limit=1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["events"], 1)
}

func TestEvents_FallsBackToJournal(t *testing.T) {
	e := newTestEnv(t, testKey, world.Options{})
	id := e.createRoom(t, "")
	room, err := e.wm.Get(id)
	require.NoError(t, err)
	room.Tick(t.Context())

	// Destroy drops the cached feed; the journal keeps the history.
	w := e.do(http.MethodDelete, "/api/rooms/"+id, testKey, "")
	require.Equal(t, http.StatusOK, w.Code)
	e.journal.Stop(context.Background())

	w = e.do(http.MethodGet, fmt.Sprintf("/api/rooms/%s/events", id), "", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "journal", resp["source"])
	events := resp["events"].([]interface{})
	require.Len(t, events, 1)
	assert.Equal(t, "scatter", events[0].(map[string]interface{})["to"])
}
