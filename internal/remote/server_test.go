// ABOUTME: Tests for the websocket control server
// ABOUTME: Drives a real mixer on a manual null device through the protocol client
package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/yourgame/yourgame-go/pkg/audio"
	"github.com/yourgame/yourgame-go/pkg/audio/decode/decodetest"
	"github.com/yourgame/yourgame-go/pkg/audio/output"
	"github.com/yourgame/yourgame-go/pkg/file"
	"github.com/yourgame/yourgame-go/pkg/mixer"
	"github.com/yourgame/yourgame-go/pkg/protocol"
)

var stereo = audio.Format{SampleRate: 48000, Channels: 2}

func newTestMixer(t *testing.T, sources int) *mixer.Engine {
	t.Helper()
	fsys := fstest.MapFS{
		"sfx/laser.fake": {Data: decodetest.Constant(stereo, 480, 0.25)},
	}
	e, err := mixer.New(mixer.Config{
		Channels:   stereo.Channels,
		SampleRate: stereo.SampleRate,
		MaxSources: sources,
		Device:     output.NewManualNull(),
		Files:      file.NewFSLoader(fsys),
		Opener:     decodetest.OpenOrDecode,
	})
	if err != nil {
		t.Fatalf("failed to create mixer: %v", err)
	}
	t.Cleanup(func() { e.Shutdown() })
	return e
}

// newTestServer serves s over httptest and returns its host:port
func newTestServer(t *testing.T, m Mixer) (*Server, string) {
	t.Helper()
	s := New(Config{Name: "test mixer"}, m)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, strings.TrimPrefix(ts.URL, "http://")
}

func connect(t *testing.T, addr, clientID string) *protocol.Client {
	t.Helper()
	c := protocol.NewClient(protocol.Config{
		ServerAddr: addr,
		ClientID:   clientID,
		Name:       "tester " + clientID,
		Timeout:    2 * time.Second,
	})
	if err := c.Connect(); err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	var remote *protocol.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected remote error %s, got %v", code, err)
	}
	if remote.Code != code {
		t.Errorf("expected code %s, got %s (%s)", code, remote.Code, remote.Message)
	}
}

func TestHandshake(t *testing.T) {
	m := newTestMixer(t, 3)
	s, addr := newTestServer(t, m)
	c := connect(t, addr, "one")

	hello := c.Server()
	if hello.ServerID != s.ID() {
		t.Errorf("expected server id %s, got %s", s.ID(), hello.ServerID)
	}
	if hello.Name != "test mixer" {
		t.Errorf("expected name test mixer, got %s", hello.Name)
	}
	if hello.MaxSources != 3 {
		t.Errorf("expected 3 sources, got %d", hello.MaxSources)
	}
	if hello.Format.SampleRate != 48000 || hello.Format.Channels != 2 {
		t.Errorf("expected 48000Hz/2ch, got %+v", hello.Format)
	}
	if hello.Version != protocol.ProtocolVersion {
		t.Errorf("expected version %d, got %d", protocol.ProtocolVersion, hello.Version)
	}
}

func TestStorePlayAndStatus(t *testing.T) {
	m := newTestMixer(t, 2)
	_, addr := newTestServer(t, m)
	c := connect(t, addr, "one")
	ctx := testContext(t)

	if err := c.Store(ctx, "a//sfx/laser.fake"); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if err := c.StoreData(ctx, "uploaded", decodetest.Constant(stereo, 100, 0.5)); err != nil {
		t.Fatalf("store data failed: %v", err)
	}

	id, err := c.Play(ctx, "uploaded", true)
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if id != 0 {
		t.Errorf("expected slot 0, got %d", id)
	}

	if err := c.SetGains(ctx, id, []float32{1, 0}); err != nil {
		t.Fatalf("set gains failed: %v", err)
	}
	if err := c.Pause(ctx, id, true); err != nil {
		t.Fatalf("pause failed: %v", err)
	}

	state, err := c.Status(ctx)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if len(state.Sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(state.Sources))
	}
	src := state.Sources[0]
	if src.File != "uploaded" || !src.Loop || !src.Paused {
		t.Errorf("unexpected source state %+v", src)
	}
	if len(src.Gains) != 2 || src.Gains[0] != 1 || src.Gains[1] != 0 {
		t.Errorf("expected gains [1 0], got %v", src.Gains)
	}
	if len(state.StoredFiles) != 2 {
		t.Errorf("expected 2 stored files, got %v", state.StoredFiles)
	}

	if err := c.Stop(ctx, id); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if len(m.Sources()) != 0 {
		t.Errorf("expected no active sources after stop, got %d", len(m.Sources()))
	}
}

func TestRequestErrors(t *testing.T) {
	m := newTestMixer(t, 1)
	_, addr := newTestServer(t, m)
	c := connect(t, addr, "one")
	ctx := testContext(t)

	_, err := c.Play(ctx, "missing", false)
	expectCode(t, err, protocol.CodeNotFound)

	expectCode(t, c.Store(ctx, "a//sfx/nope.fake"), protocol.CodeReadError)

	if err := c.Store(ctx, "a//sfx/laser.fake"); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	expectCode(t, c.Store(ctx, "a//sfx/laser.fake"), protocol.CodeAlreadyStored)

	expectCode(t, c.Stop(ctx, 5), protocol.CodeInvalidID)
	expectCode(t, c.Stop(ctx, -1), protocol.CodeInvalidID)
	expectCode(t, c.Stop(ctx, 0), protocol.CodeNotActive)

	id, err := c.Play(ctx, "a//sfx/laser.fake", false)
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	_, err = c.Play(ctx, "a//sfx/laser.fake", false)
	expectCode(t, err, protocol.CodeNoFreeSlot)

	expectCode(t, c.SetGains(ctx, id, []float32{1}), protocol.CodeGainCountMismatch)

	if err := c.StoreData(ctx, "garbage", []byte("not audio")); err != nil {
		t.Fatalf("store data failed: %v", err)
	}
	if err := c.Stop(ctx, id); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	_, err = c.Play(ctx, "garbage", false)
	expectCode(t, err, protocol.CodeDecodeInitFailed)
}

func TestStoreStaysInsideAssets(t *testing.T) {
	root := t.TempDir()
	assets := filepath.Join(root, "assets")
	if err := os.MkdirAll(filepath.Join(assets, "sfx"), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	clip := decodetest.Constant(stereo, 10, 0.5)
	for _, p := range []string{filepath.Join(assets, "sfx", "ok.fake"), filepath.Join(root, "secret.fake")} {
		if err := os.WriteFile(p, clip, 0o644); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	m, err := mixer.New(mixer.Config{
		Channels:   stereo.Channels,
		SampleRate: stereo.SampleRate,
		MaxSources: 1,
		Device:     output.NewManualNull(),
		Files:      file.NewLoader(file.Options{AssetDir: assets, SaveDir: filepath.Join(root, "saves")}),
		Opener:     decodetest.OpenOrDecode,
	})
	if err != nil {
		t.Fatalf("failed to create mixer: %v", err)
	}
	t.Cleanup(func() { m.Shutdown() })

	_, addr := newTestServer(t, m)
	c := connect(t, addr, "one")
	ctx := testContext(t)

	for _, name := range []string{
		filepath.Join(root, "secret.fake"),
		"a//../secret.fake",
		"a//sfx/../../secret.fake",
		"s//../secret.fake",
		"/dev/zero",
	} {
		err := c.Store(ctx, name)
		var remote *protocol.RemoteError
		if !errors.As(err, &remote) || remote.Code != protocol.CodeBadRequest {
			t.Errorf("%s: expected bad_request, got %v", name, err)
		}
	}
	if files := m.StoredFiles(); len(files) != 0 {
		t.Fatalf("expected nothing stored, got %v", files)
	}

	if err := c.Store(ctx, "a//sfx/ok.fake"); err != nil {
		t.Fatalf("store inside assets failed: %v", err)
	}
	if files := m.StoredFiles(); len(files) != 1 || files[0] != "a//sfx/ok.fake" {
		t.Errorf("expected [a//sfx/ok.fake], got %v", files)
	}
}

func TestNotInitialized(t *testing.T) {
	m := newTestMixer(t, 1)
	_, addr := newTestServer(t, m)
	c := connect(t, addr, "one")
	ctx := testContext(t)

	m.Shutdown()
	expectCode(t, c.StoreData(ctx, "x", []byte{1}), protocol.CodeNotInitialized)
}

func TestStateBroadcast(t *testing.T) {
	m := newTestMixer(t, 2)
	_, addr := newTestServer(t, m)
	actor := connect(t, addr, "actor")
	watcher := connect(t, addr, "watcher")
	ctx := testContext(t)

	if err := actor.StoreData(ctx, "boom", decodetest.Constant(stereo, 10, 1)); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if _, err := actor.Play(ctx, "boom", false); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	// store then play: the watcher sees two broadcasts, the second with the source
	var last protocol.State
	for i := 0; i < 2; i++ {
		select {
		case last = <-watcher.States:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for broadcast %d", i+1)
		}
	}
	if len(last.Sources) != 1 || last.Sources[0].File != "boom" {
		t.Errorf("expected boom playing in broadcast, got %+v", last.Sources)
	}
}

func TestDuplicateClientRejected(t *testing.T) {
	m := newTestMixer(t, 1)
	s, addr := newTestServer(t, m)
	connect(t, addr, "same")

	dup := protocol.NewClient(protocol.Config{ServerAddr: addr, ClientID: "same", Name: "dup", Timeout: 2 * time.Second})
	err := dup.Connect()
	if err == nil {
		dup.Close()
		t.Fatal("expected duplicate client to be rejected")
	}
	expectCode(t, err, "duplicate_client_id")

	if s.Clients() != 1 {
		t.Errorf("expected 1 client, got %d", s.Clients())
	}
}

func TestGoodbyeDisconnects(t *testing.T) {
	m := newTestMixer(t, 1)
	s, addr := newTestServer(t, m)
	c := connect(t, addr, "leaver")

	if err := c.SendGoodbye("done"); err != nil {
		t.Fatalf("goodbye failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected client to be removed after goodbye")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServeAndStop(t *testing.T) {
	m := newTestMixer(t, 1)
	s := New(Config{Name: "served"}, m)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- s.Serve(listener) }()

	c := protocol.NewClient(protocol.Config{ServerAddr: listener.Addr().String(), Name: "x", Timeout: 2 * time.Second})
	if err := c.Connect(); err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer c.Close()

	s.Stop()
	s.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean stop, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}

	deadline := time.Now().Add(2 * time.Second)
	for c.IsConnected() {
		if time.Now().After(deadline) {
			t.Fatal("expected client to be disconnected")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{fmt.Errorf("%w: x", mixer.ErrAlreadyStored), protocol.CodeAlreadyStored},
		{fmt.Errorf("%w: x", mixer.ErrRead), protocol.CodeReadError},
		{mixer.ErrNotFound, protocol.CodeNotFound},
		{mixer.ErrNoFreeSlot, protocol.CodeNoFreeSlot},
		{mixer.ErrDecodeInit, protocol.CodeDecodeInitFailed},
		{&mixer.SourceError{Op: "stop", ID: 9, Err: mixer.ErrInvalidID}, protocol.CodeInvalidID},
		{&mixer.SourceError{Op: "stop", ID: 0, Err: mixer.ErrNotActive}, protocol.CodeNotActive},
		{mixer.ErrGainCountMismatch, protocol.CodeGainCountMismatch},
		{mixer.ErrNotInitialized, protocol.CodeNotInitialized},
		{fmt.Errorf("%w: x", file.ErrNotAsset), protocol.CodeBadRequest},
		{errors.New("boom"), protocol.CodeInternal},
	}

	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.code {
			t.Errorf("ErrorCode(%v): expected %s, got %s", tt.err, tt.code, got)
		}
	}
}
