package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"explorer/config"
	"explorer/internal/controller"
	"explorer/internal/generator"
	"explorer/types"
	"explorer/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	api  *Api
	ctl  *controller.Controller
	loop *controller.Loop
	svc  *generator.Service
	hub  *Hub
	sink *FrameSink
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	svc, err := generator.Initialize(ctx, fakeNetwork{}, "ffhq.pkl", generator.Options{Seed: 3})
	require.NoError(t, err)

	loop := controller.NewLoop(0)
	go loop.Run(ctx)

	hub := NewHub()
	sink := NewFrameSink(hub, config.DisplayConfig{})
	ctl := controller.New(ctx, svc, loop, sink, hub, controller.Options{Sliders: 4, Debounce: 20 * time.Millisecond})

	return &testApp{
		api:  NewApi(loop, ctl, svc, hub, sink, config.ApiConfig{}),
		ctl:  ctl,
		loop: loop,
		svc:  svc,
		hub:  hub,
		sink: sink,
	}
}

func (a *testApp) call(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := a.api.server.Test(req, 2000)
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func (a *testApp) coordinate(t *testing.T, i int) float64 {
	t.Helper()
	var v float64
	require.NoError(t, a.loop.Do(context.Background(), func() error {
		var err error
		v, err = a.svc.Coordinate(i)
		return err
	}))
	return v
}

func TestApi_HealthAndState(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.call(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	resp, body := app.call(t, "GET", "/state", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var st types.StateResponse
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, 512, st.ZDim)
	require.Len(t, st.Controls, 4)
	for i, c := range st.Controls {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, utils.Round(app.coordinate(t, i), 2), c.Value)
	}
	assert.Nil(t, st.Pending)
}

func TestApi_BindControl(t *testing.T) {
	app := newTestApp(t)

	t.Run("ok", func(t *testing.T) {
		resp, body := app.call(t, "POST", "/controls/1/bind", map[string]any{"index": 7})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var c types.ControlResponse
		require.NoError(t, json.Unmarshal(body, &c))
		assert.Equal(t, 7, c.Index)
		assert.Equal(t, utils.Round(app.coordinate(t, 7), 2), c.Value)
	})

	t.Run("out_of_range", func(t *testing.T) {
		resp, body := app.call(t, "POST", "/controls/3/bind", map[string]any{"index": "600"})
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var e types.ErrorResponse
		require.NoError(t, json.Unmarshal(body, &e))
		assert.Equal(t, "Error: Must be between 0 and 511", e.Message)

		_, body = app.call(t, "GET", "/state", nil)
		var st types.StateResponse
		require.NoError(t, json.Unmarshal(body, &st))
		assert.Equal(t, 3, st.Controls[3].Index)
	})

	t.Run("unknown_control", func(t *testing.T) {
		resp, _ := app.call(t, "POST", "/controls/99/bind", map[string]any{"index": 1})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestApi_InputIsDebounced(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.call(t, "GET", "/frame", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	for _, v := range []float64{1.23, 1.5} {
		resp, _ := app.call(t, "POST", "/controls/0/input", map[string]any{"value": v})
		require.Equal(t, http.StatusAccepted, resp.StatusCode)
	}

	require.Eventually(t, func() bool {
		_, _, ok := app.sink.Latest()
		return ok && app.coordinate(t, 0) == 1.5
	}, time.Second, 5*time.Millisecond)

	resp, body := app.call(t, "GET", "/frame", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))
}

func TestApi_InputValidation(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.call(t, "POST", "/controls/0/input", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = app.call(t, "POST", "/controls/x/input", map[string]any{"value": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestApi_StepControl(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.call(t, "POST", "/controls/2/input", map[string]any{"value": 1})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, body := app.call(t, "POST", "/controls/2/increment", nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var c types.ControlResponse
	require.NoError(t, json.Unmarshal(body, &c))
	assert.Equal(t, 1.01, c.Value)

	resp, body = app.call(t, "POST", "/controls/2/decrement", map[string]any{"delta": 0.5})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &c))
	assert.Equal(t, 0.51, c.Value)

	require.Eventually(t, func() bool { return app.coordinate(t, 2) == 0.51 }, time.Second, 5*time.Millisecond)
}

func TestApi_ResetLatent(t *testing.T) {
	app := newTestApp(t)
	before := app.coordinate(t, 0)

	resp, body := app.call(t, "POST", "/latent/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var st types.StateResponse
	require.NoError(t, json.Unmarshal(body, &st))
	assert.NotEqual(t, before, app.coordinate(t, 0))
	for _, c := range st.Controls {
		assert.Equal(t, utils.Round(app.coordinate(t, c.Index), 2), c.Value)
	}

	_, _, ok := app.sink.Latest()
	assert.True(t, ok)
}

func TestApi_SampleDoesNotTouchLatent(t *testing.T) {
	app := newTestApp(t)
	before := app.coordinate(t, 5)

	resp, body := app.call(t, "POST", "/sample", map[string]any{"noiseMode": "random"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, bytes.HasPrefix(body, []byte("\x89PNG")))
	assert.Equal(t, before, app.coordinate(t, 5))

	resp, _ = app.call(t, "POST", "/sample", map[string]any{"noiseMode": "loud"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestApi_Regenerate(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.call(t, "POST", "/regenerate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, _, ok := app.sink.Latest()
	assert.True(t, ok)
}

func TestApi_HandleCommand(t *testing.T) {
	app := newTestApp(t)
	client := NewWSClient("c1", newFakeConn())
	app.hub.Add(client)

	app.api.HandleCommand(context.Background(), "c1", []byte(`{"type":"bind","control":0,"index":"nope"}`))
	ev := recv(t, client)
	assert.Equal(t, "validation", ev.Type)
	assert.Len(t, client.send, 0)

	app.api.HandleCommand(context.Background(), "c1", []byte(`{"type":"warp"}`))
	ev = recv(t, client)
	assert.Equal(t, "error", ev.Type)
	assert.Contains(t, ev.Message, "unknown command")

	app.api.HandleCommand(context.Background(), "c1", []byte(`{"type":"input","control":1,"value":2.5}`))
	ev = recv(t, client)
	assert.Equal(t, "control", ev.Type)
	assert.Equal(t, 2.5, ev.Control.Value)

	require.Eventually(t, func() bool { return app.coordinate(t, 1) == 2.5 }, time.Second, 5*time.Millisecond)

	app.api.HandleCommand(context.Background(), "c1", []byte(`not json`))
	// frames from the flush may be queued ahead of the parse error
	require.Eventually(t, func() bool {
		for {
			select {
			case b := <-client.send:
				var e types.WSEvent
				_ = json.Unmarshal(b, &e)
				if e.Type == "error" {
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, 5*time.Millisecond)
}

func TestApi_HandleCommandRequiresFields(t *testing.T) {
	app := newTestApp(t)
	client := NewWSClient("c1", newFakeConn())
	app.hub.Add(client)
	before := app.coordinate(t, 1)

	for _, msg := range []string{
		`{"type":"input","control":1}`,
		`{"type":"input","value":2.5}`,
		`{"type":"increment"}`,
		`{"type":"bind","index":7}`,
	} {
		app.api.HandleCommand(context.Background(), "c1", []byte(msg))
		ev := recv(t, client)
		assert.Equal(t, "error", ev.Type, msg)
		assert.Contains(t, ev.Message, "missing field", msg)
	}

	var pending bool
	require.NoError(t, app.loop.Do(context.Background(), func() error {
		_, pending = app.ctl.Pending()
		return nil
	}))
	assert.False(t, pending)
	assert.Equal(t, before, app.coordinate(t, 1))
}
