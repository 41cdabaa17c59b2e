package host

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/trajview/internal/diag"
)

// Wire frames: id-tagged request/response pairs over one websocket.
// The loader never pipelines, so responses arrive strictly in request
// order; the id check is a consistency guard, not a demultiplexer.
type rpcRequest struct {
	ID     int             `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	ID     int             `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type geometryParams struct {
	Name string `json:"name"`
}

type arrayParams struct {
	Name  string `json:"name"`
	Field string `json:"field"`
}

type chunkParams struct {
	Name        string `json:"name"`
	Field       string `json:"field"`
	FrameOffset int    `json:"frame_offset"`
	FrameCount  int    `json:"frame_count"`
}

type arrayPayload struct {
	Array *string `json:"array"`
}

type chunkPayload struct {
	ArrayChunk *string `json:"array_chunk"`
}

// WSClient is a websocket Host. One round trip at a time; the
// connection-level mutex backstops the loader's Serial guard.
type WSClient struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	nextID int
}

func DialWS(ctx context.Context, url string) (*WSClient, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("host: dial %s: %w", url, err)
	}
	return &WSClient{conn: conn}, nil
}

func (c *WSClient) Close() error { return c.conn.Close() }

func (c *WSClient) call(ctx context.Context, method string, params any, result any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	deadline := time.Time{}
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return err
	}

	c.nextID++
	req := rpcRequest{ID: c.nextID, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return err
		}
		req.Params = raw
	}
	if err := c.conn.WriteJSON(&req); err != nil {
		return fmt.Errorf("host: %s: %w", method, err)
	}

	var resp rpcResponse
	if err := c.conn.ReadJSON(&resp); err != nil {
		return fmt.Errorf("host: %s: %w", method, err)
	}
	if resp.ID != req.ID {
		return fmt.Errorf("host: %s: response id %d, want %d", method, resp.ID, req.ID)
	}
	if resp.Error != "" {
		return fmt.Errorf("host: %s: %s", method, resp.Error)
	}
	if result != nil {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("host: %s: %w", method, err)
		}
	}
	return nil
}

func (c *WSClient) SimulationMetadata(ctx context.Context) (*Metadata, error) {
	meta := &Metadata{}
	if err := c.call(ctx, "GetSimulationMetadata", nil, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func (c *WSClient) GeometryMetadata(ctx context.Context, name string) (*GeometryMeta, error) {
	meta := &GeometryMeta{}
	if err := c.call(ctx, "GetGeometryMetadata", geometryParams{Name: name}, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

func (c *WSClient) Array(ctx context.Context, name, field string) (string, error) {
	var p arrayPayload
	if err := c.call(ctx, "GetArray", arrayParams{Name: name, Field: field}, &p); err != nil {
		return "", err
	}
	if p.Array == nil {
		return "", diag.Errorf(diag.MissingArrayPayload, "%s/%s: response lacked array", name, field)
	}
	return *p.Array, nil
}

func (c *WSClient) ArrayChunk(ctx context.Context, name, field string, frameOffset, frameCount int) (string, error) {
	var p chunkPayload
	params := chunkParams{Name: name, Field: field, FrameOffset: frameOffset, FrameCount: frameCount}
	if err := c.call(ctx, "GetArrayChunk", params, &p); err != nil {
		return "", err
	}
	if p.ArrayChunk == nil {
		return "", diag.Errorf(diag.MissingArrayPayload, "%s/%s: response lacked array_chunk", name, field)
	}
	return *p.ArrayChunk, nil
}
