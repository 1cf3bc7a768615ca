package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"explorer/internal/generator"
)

type fakeNetwork struct{}

func (fakeNetwork) Load(ctx context.Context, weightsPath string, device int) (generator.NetworkInfo, error) {
	return generator.NetworkInfo{ZDim: 512, WDim: 4, NumWs: 1, Resolution: 2, Networks: []string{"G", "D"}}, nil
}

func (fakeNetwork) Mapping(ctx context.Context, z, c []float64, psi float64) (generator.Representation, error) {
	var sum float64
	for _, v := range z {
		sum += v
	}
	return generator.Representation{NumWs: 1, WDim: 1, Data: []float32{float32(sum * psi / float64(len(z)))}}, nil
}

func (fakeNetwork) Synthesis(ctx context.Context, ws generator.Representation, mode generator.NoiseMode) (generator.Tensor, error) {
	v := ws.Data[0]
	data := make([]float32, 12)
	for i := range data {
		data[i] = v
	}
	return generator.Tensor{Channels: 3, Height: 2, Width: 2, Data: data}, nil
}

// fakeConn is an in-memory websocket peer.
type fakeConn struct {
	mu      sync.Mutex
	written [][]byte
	inbound chan []byte
	closed  bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbound: make(chan []byte, 8)}
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("closed")
	}
	c.written = append(c.written, data)
	return nil
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	msg, ok := <-c.inbound
	if !ok {
		return 0, nil, errors.New("closed")
	}
	return 1, msg, nil
}

func (c *fakeConn) SetWriteDeadline(t time.Time) error { return nil }
func (c *fakeConn) SetReadDeadline(t time.Time) error { return nil }
func (c *fakeConn) SetReadLimit(limit int64) {}
func (c *fakeConn) SetPongHandler(h func(appData string) error) {}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
