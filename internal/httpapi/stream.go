package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"example.com/elliott-wave-analyzer/internal/labeler"
)

const (
	writeWait      = 10 * time.Second
	maxRequestSize = 32 << 20
)

// StreamFrame is one websocket message on /api/label/stream. Segments arrive
// in claim order; the final frame carries the full result.
type StreamFrame struct {
	Type    string           `json:"type"` // "segment", "summary" or "error"
	Segment *labeler.Segment `json:"segment,omitempty"`
	Result  *labeler.Result  `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// GET /api/label/stream
// Upgrades to a websocket, reads one LabelRequest message, then streams
// accepted segments as they are claimed followed by a summary frame.
func (s *Server) handleLabelStream(w http.ResponseWriter, r *http.Request) {
	if s.Labeler == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	up := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxRequestSize)

	var req LabelRequest
	if err := conn.ReadJSON(&req); err != nil {
		_ = s.writeFrame(conn, StreamFrame{Type: "error", Error: "malformed request"})
		return
	}

	started := time.Now()
	res, err := s.Labeler.LabelStream(r.Context(), req.Candles, func(seg labeler.Segment) error {
		return s.writeFrame(conn, StreamFrame{Type: "segment", Segment: &seg})
	})
	if err != nil {
		if s.Metrics != nil {
			s.Metrics.RecordError("stream")
		}
		_ = s.writeFrame(conn, StreamFrame{Type: "error", Error: err.Error()})
		return
	}
	s.recordScan("label_stream", started)

	_ = s.writeFrame(conn, StreamFrame{Type: "summary", Result: &res})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

func (s *Server) writeFrame(conn *websocket.Conn, f StreamFrame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(f)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	allowed := s.AllowedOrigins
	if len(allowed) == 0 {
		return true
	}
	for _, o := range allowed {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}
