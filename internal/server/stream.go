package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/desertthunder/songreq/internal/models"
	"github.com/desertthunder/songreq/internal/monitor"
	"github.com/desertthunder/songreq/internal/services"
	"github.com/desertthunder/songreq/internal/shared"
	"github.com/samber/lo"
)

const DefaultStatusInterval = 3 * time.Second

// StatusFrame is one message on the status stream.
type StatusFrame struct {
	PlayerConnected bool              `json:"playerConnected"`
	State           monitor.State     `json:"state"`
	NowPlaying      models.NowPlaying `json:"nowPlaying"`
}

// StatusStream pushes a [StatusFrame] to websocket clients on every tick.
type StatusStream struct {
	status   StatusSource
	player   services.Player
	interval time.Duration
	origins  []string
	logger   *log.Logger
}

// NewStatusStream creates a [StatusStream]. corsOrigins use the same glob
// patterns as [CORS]; the scheme is dropped for the websocket origin check.
func NewStatusStream(status StatusSource, player services.Player, interval time.Duration, corsOrigins []string, logger *log.Logger) *StatusStream {
	if interval <= 0 {
		interval = DefaultStatusInterval
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &StatusStream{
		status:   status,
		player:   player,
		interval: interval,
		origins:  originHosts(corsOrigins),
		logger:   logger,
	}
}

func (s *StatusStream) Routes() []string {
	return []string{"GET /ws"}
}

func (s *StatusStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  s.origins,
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		s.logger.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	// Clients never send payloads; CloseRead drains control frames and cancels ctx on disconnect.
	ctx := conn.CloseRead(r.Context())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.send(ctx, conn); err != nil {
			s.logger.Debug("status stream closed", "error", err)
			return
		}

		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case <-ticker.C:
		}
	}
}

// Frame builds the current [StatusFrame]. The player is only queried while connected.
func (s *StatusStream) Frame(ctx context.Context) StatusFrame {
	snap := s.status.Snapshot()
	frame := StatusFrame{PlayerConnected: snap.Connected, State: snap.State}
	if snap.Connected {
		frame.NowPlaying = s.player.GetNowPlaying(ctx)
	}
	return frame
}

func (s *StatusStream) send(ctx context.Context, conn *websocket.Conn) error {
	frame := s.Frame(ctx)

	writeCtx, cancel := context.WithTimeout(ctx, s.interval)
	defer cancel()
	return wsjson.Write(writeCtx, conn, frame)
}

// originHosts turns "https://*.ngrok.io" style patterns into the host patterns websocket.Accept expects.
func originHosts(patterns []string) []string {
	return lo.Uniq(lo.FilterMap(patterns, func(p string, _ int) (string, bool) {
		if i := strings.Index(p, "://"); i >= 0 {
			p = p[i+3:]
		}
		p = strings.TrimSuffix(p, "/")
		return p, p != ""
	}))
}
