package host

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// Server replays any Host — in practice a recorded Dir — over the
// websocket wire protocol. The production host lives outside this
// repo; this server exists for `trajview serve`, demos and the ws
// client tests. Requests on one connection are handled sequentially,
// matching the consumer's one-outstanding-request discipline.
type Server struct {
	host     Host
	upgrader websocket.Upgrader
}

func NewServer(h Host) *Server {
	return &Server{host: h}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		var req rpcRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		resp := s.handle(r, &req)
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

func (s *Server) handle(r *http.Request, req *rpcRequest) *rpcResponse {
	resp := &rpcResponse{ID: req.ID}
	ctx := r.Context()

	result, err := func() (any, error) {
		switch req.Method {
		case "GetSimulationMetadata":
			return s.host.SimulationMetadata(ctx)
		case "GetGeometryMetadata":
			var p geometryParams
			if err := json.Unmarshal(req.Params, &p); err != nil {
				return nil, err
			}
			return s.host.GeometryMetadata(ctx, p.Name)
		case "GetArray":
			var p arrayParams
			if err := json.Unmarshal(req.Params, &p); err != nil {
				return nil, err
			}
			blob, err := s.host.Array(ctx, p.Name, p.Field)
			if err != nil {
				return nil, err
			}
			return arrayPayload{Array: &blob}, nil
		case "GetArrayChunk":
			var p chunkParams
			if err := json.Unmarshal(req.Params, &p); err != nil {
				return nil, err
			}
			blob, err := s.host.ArrayChunk(ctx, p.Name, p.Field, p.FrameOffset, p.FrameCount)
			if err != nil {
				return nil, err
			}
			return chunkPayload{ArrayChunk: &blob}, nil
		default:
			return nil, fmt.Errorf("unknown method %q", req.Method)
		}
	}()

	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	raw, err := json.Marshal(result)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	resp.Result = raw
	return resp
}
