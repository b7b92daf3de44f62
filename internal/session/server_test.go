package session

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/udisondev/gearcfg/internal/model"
	"github.com/udisondev/gearcfg/internal/storage"
	"github.com/udisondev/gearcfg/internal/testutil"
)

var fx = testutil.Fixtures

type ServerSuite struct {
	suite.Suite
	medium *storage.MemoryMedium
	srv    *Server
	http   *httptest.Server
}

func (s *ServerSuite) SetupTest() {
	s.medium = storage.NewMemoryMedium()

	srv, err := NewServer(testutil.Catalog(), storage.NewStore(s.medium))
	s.Require().NoError(err)
	s.srv = srv
	s.http = httptest.NewServer(srv.Routes())
}

func (s *ServerSuite) TearDownTest() {
	s.http.Close()
}

func (s *ServerSuite) dial(profile string) *websocket.Conn {
	u := "ws" + strings.TrimPrefix(s.http.URL, "http") + "/ws?profile=" + profile
	conn, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	s.Require().NoError(err)
	s.T().Cleanup(func() { conn.Close() })
	return conn
}

func (s *ServerSuite) read(conn *websocket.Conn) Response {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	var resp Response
	s.Require().NoError(conn.ReadJSON(&resp))
	return resp
}

func (s *ServerSuite) send(conn *websocket.Conn, cmd Command) Response {
	s.Require().NoError(conn.WriteJSON(cmd))
	return s.read(conn)
}

func (s *ServerSuite) TestHealthz() {
	resp, err := http.Get(s.http.URL + "/healthz")
	s.Require().NoError(err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("ok", string(body))
}

func (s *ServerSuite) TestCatalog() {
	resp, err := http.Get(s.http.URL + "/catalog")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal("application/json", resp.Header.Get("Content-Type"))
	var cat model.Catalog
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&cat))
	s.Len(cat.Slots, model.SlotCount)
	s.Len(cat.Items, len(testutil.Items()))
}

func (s *ServerSuite) TestInitialFrame() {
	conn := s.dial("alice")

	first := s.read(conn)

	s.True(first.OK)
	s.Equal(OpState, first.Op)
	s.Empty(first.State.Equipped)
	s.False(first.Complete)
	s.Equal(Progress{Filled: 0, Total: 2}, first.Required)
}

func (s *ServerSuite) TestSelectAndActivate() {
	conn := s.dial("alice")
	s.read(conn)

	resp := s.send(conn, Command{Op: OpSelect, Item: fx.Helmet})
	s.True(resp.OK)
	s.Equal(fx.Helmet, resp.State.SelectedItemID)
	s.Equal([]string{fx.HelmetSlot}, resp.Highlight)

	resp = s.send(conn, Command{Op: OpActivate, Slot: fx.HelmetSlot})
	s.True(resp.OK)
	s.Equal("equipped", resp.Outcome)
	s.Equal(model.Equipped{fx.HelmetSlot: {fx.Helmet}}, resp.State.Equipped)
	s.Equal(Progress{Filled: 1, Total: 2}, resp.Required)
	s.Empty(resp.Highlight)

	resp = s.send(conn, Command{Op: OpQuick, Item: fx.Rib})
	s.True(resp.OK)
	s.Equal(fx.RibSlot, resp.Slot)
	s.True(resp.Complete)

	resp = s.send(conn, Command{Op: OpActivate, Slot: fx.RibSlot})
	s.True(resp.OK)
	s.Equal("unequipped", resp.Outcome)
	s.False(resp.Complete)
}

func (s *ServerSuite) TestErrorCodes() {
	conn := s.dial("bob")
	s.read(conn)

	s.send(conn, Command{Op: OpSelect, Item: fx.Helmet})
	resp := s.send(conn, Command{Op: OpActivate, Slot: fx.GlovesSlot})
	s.False(resp.OK)
	s.Require().NotNil(resp.Error)
	s.Equal(CodeIncompatible, resp.Error.Code)
	s.Equal(fx.Helmet, resp.State.SelectedItemID, "selection survives a failed equip")

	s.send(conn, Command{Op: OpDrop, Slot: fx.AccessorySlot, Item: fx.Accessory})
	s.send(conn, Command{Op: OpDrop, Slot: fx.AccessorySlot, Item: fx.Accessory2})
	resp = s.send(conn, Command{Op: OpDrop, Slot: fx.AccessorySlot, Item: fx.Accessory3})
	s.Require().NotNil(resp.Error)
	s.Equal(CodeSlotFull, resp.Error.Code)
	s.Equal(2, resp.Error.MaxCount)

	resp = s.send(conn, Command{Op: "teleport"})
	s.Require().NotNil(resp.Error)
	s.Equal(CodeBadRequest, resp.Error.Code)

	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, []byte(`{"op":`)))
	resp = s.read(conn)
	s.False(resp.OK)
	s.Require().NotNil(resp.Error)
	s.Equal(CodeBadRequest, resp.Error.Code)

	resp = s.send(conn, Command{Op: OpState})
	s.True(resp.OK, "connection stays usable after bad frames")
}

func (s *ServerSuite) TestStatePersistsPerProfile() {
	conn := s.dial("carol")
	s.read(conn)
	resp := s.send(conn, Command{Op: OpQuick, Item: fx.Gloves})
	s.Require().True(resp.OK)
	s.Require().NoError(conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	key := storage.DefaultKey + ":carol"
	s.Eventually(func() bool {
		_, err := s.medium.Get(context.Background(), key)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	again := s.read(s.dial("carol"))
	s.Equal(model.Equipped{fx.GlovesSlot: {fx.Gloves}}, again.State.Equipped)

	other := s.read(s.dial("dave"))
	s.Empty(other.State.Equipped)
}

func (s *ServerSuite) TestRejectsSessionsAfterStop() {
	s.srv.stopSessions()

	u := "ws" + strings.TrimPrefix(s.http.URL, "http") + "/ws?profile=late"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	s.Require().ErrorIs(err, websocket.ErrBadHandshake)
	s.Require().NotNil(resp)
	defer resp.Body.Close()
	s.Equal(http.StatusServiceUnavailable, resp.StatusCode)

	// после отказа счётчик сессий не должен расти, иначе Serve зависнет на Wait
	waited := make(chan struct{})
	go func() {
		s.srv.wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(time.Second):
		s.Fail("rejected session left the wait group non-zero")
	}
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func TestServer_ServeStopsOnCancel(t *testing.T) {
	srv, err := NewServer(testutil.Catalog(), storage.NewStore(storage.NewMemoryMedium()))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	addr := ln.Addr().String()
	require.NoError(t, testutil.WaitForHTTPReady("http://"+addr+"/healthz", 5*time.Second))
	assert.Equal(t, addr, srv.Addr().String())

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	require.NoError(t, err)
	defer conn.Close()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}
