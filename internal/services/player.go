// Player REST API client
//
// Talks to the desktop player's API server, which listens on port 26538 by default.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songreq/internal/models"
	"github.com/desertthunder/songreq/internal/normalizer"
	"github.com/desertthunder/songreq/internal/shared"
)

const (
	DefaultPlayerURL = "http://localhost:26538/api/v1"

	defaultTimeout      = 10 * time.Second
	defaultProbeTimeout = 3 * time.Second

	insertAtEnd = "INSERT_AT_END"
)

// PlayerClient is a typed client for the player's REST API.
type PlayerClient struct {
	baseURL      string
	httpClient   *http.Client
	timeout      time.Duration
	probeTimeout time.Duration
	logger       *log.Logger
}

// PlayerOption configures a [PlayerClient].
type PlayerOption func(*PlayerClient)

// WithHTTPClient sets the [http.Client] used for requests.
func WithHTTPClient(c *http.Client) PlayerOption {
	return func(p *PlayerClient) {
		if c != nil {
			p.httpClient = c
		}
	}
}

// WithTimeouts sets the data and probe request timeouts. Non-positive values keep the defaults.
func WithTimeouts(data, probe time.Duration) PlayerOption {
	return func(p *PlayerClient) {
		if data > 0 {
			p.timeout = data
		}
		if probe > 0 {
			p.probeTimeout = probe
		}
	}
}

// WithLogger sets the logger used to report degraded reads and transport failures.
func WithLogger(l *log.Logger) PlayerOption {
	return func(p *PlayerClient) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPlayerClient creates a client for the player API at baseURL ([DefaultPlayerURL] when empty).
func NewPlayerClient(baseURL string, opts ...PlayerOption) *PlayerClient {
	if baseURL == "" {
		baseURL = DefaultPlayerURL
	}

	p := &PlayerClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   http.DefaultClient,
		timeout:      defaultTimeout,
		probeTimeout: defaultProbeTimeout,
		logger:       shared.NewLogger(nil),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BaseURL returns the player API root this client talks to.
func (p *PlayerClient) BaseURL() string {
	return p.baseURL
}

// do issues a single request and returns the status code and body.
//
// Transport failures are wrapped in [shared.ErrPlayerUnavailable].
func (p *PlayerClient) do(ctx context.Context, timeout time.Duration, method, endpoint string, payload any) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+endpoint, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Debug("player request failed", "method", method, "endpoint", endpoint, "error", err)
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, nil, fmt.Errorf("%w: %s %s: %v", shared.ErrPlayerUnavailable, method, endpoint, shared.ErrTimeout)
		}
		return 0, nil, fmt.Errorf("%w: %s %s: connection failed", shared.ErrPlayerUnavailable, method, endpoint)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrPlayerUnavailable, err)
	}
	return resp.StatusCode, data, nil
}

// read performs a GET expecting 200 and decodes the JSON body into an untyped tree.
func (p *PlayerClient) read(ctx context.Context, endpoint string) (int, any, error) {
	status, data, err := p.do(ctx, p.timeout, http.MethodGet, endpoint, nil)
	if err != nil {
		return status, nil, err
	}
	if status != http.StatusOK {
		return status, nil, fmt.Errorf("%w: GET %s: status %d", shared.ErrPlayerUnavailable, endpoint, status)
	}

	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return status, nil, fmt.Errorf("%w: GET %s: invalid JSON: %v", shared.ErrPlayerUnavailable, endpoint, err)
	}
	return status, tree, nil
}

// write performs a mutating request expecting 204.
func (p *PlayerClient) write(ctx context.Context, method, endpoint string, payload any) error {
	status, _, err := p.do(ctx, p.timeout, method, endpoint, payload)
	if err != nil {
		return err
	}
	if status != http.StatusNoContent {
		p.logger.Warn("player rejected request", "method", method, "endpoint", endpoint, "status", status)
		return fmt.Errorf("%w: %s %s: status %d", shared.ErrPlayerUnavailable, method, endpoint, status)
	}
	return nil
}

// RawQueue returns the undecoded /queue payload.
func (p *PlayerClient) RawQueue(ctx context.Context) (json.RawMessage, error) {
	status, data, err := p.do(ctx, p.timeout, http.MethodGet, "/queue", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: GET /queue: status %d", shared.ErrPlayerUnavailable, status)
	}
	return json.RawMessage(data), nil
}

// GetQueue returns the player's queue, or an empty queue when the player cannot be read.
func (p *PlayerClient) GetQueue(ctx context.Context) []models.QueueItem {
	_, tree, err := p.read(ctx, "/queue")
	if err != nil {
		p.logger.Error("failed to get queue", "error", err)
		return []models.QueueItem{}
	}

	queue := normalizer.Queue(tree)
	p.logger.Debug("parsed queue", "songs", len(queue))
	return queue
}

// GetNowPlaying returns the current track. A 204 from the player, or any failure, yields
// a [models.NowPlaying] with no song.
func (p *PlayerClient) GetNowPlaying(ctx context.Context) models.NowPlaying {
	status, data, err := p.do(ctx, p.timeout, http.MethodGet, "/song", nil)
	if err != nil {
		p.logger.Error("failed to get current song", "error", err)
		return models.NowPlaying{}
	}

	switch status {
	case http.StatusOK:
		var tree any
		if err := json.Unmarshal(data, &tree); err != nil {
			p.logger.Error("failed to decode current song", "error", err)
			return models.NowPlaying{}
		}
		return normalizer.NowPlaying(tree)
	case http.StatusNoContent:
		return models.NowPlaying{}
	default:
		p.logger.Error("failed to get current song", "status", status)
		return models.NowPlaying{}
	}
}

// Enqueue appends videoID to the end of the player's queue.
func (p *PlayerClient) Enqueue(ctx context.Context, videoID string) error {
	videoID, err := shared.RequireVideoID(videoID)
	if err != nil {
		return err
	}

	payload := map[string]string{"videoId": videoID, "insertPosition": insertAtEnd}
	if err := p.write(ctx, http.MethodPost, "/queue", payload); err != nil {
		return err
	}

	p.logger.Info("added to queue", "videoId", videoID)
	return nil
}

// RemoveAt removes the queue entry at index.
func (p *PlayerClient) RemoveAt(ctx context.Context, index int) error {
	if index < 0 {
		return fmt.Errorf("%w: queue index %d is negative", shared.ErrValidation, index)
	}
	return p.write(ctx, http.MethodDelete, fmt.Sprintf("/queue/%d", index), nil)
}

// SeekTo jumps to an absolute position in the current track.
func (p *PlayerClient) SeekTo(ctx context.Context, seconds int) error {
	if seconds < 0 {
		return fmt.Errorf("%w: seek position %d is negative", shared.ErrValidation, seconds)
	}
	return p.write(ctx, http.MethodPost, "/seek-to", map[string]int{"seconds": seconds})
}

// GetVolume returns the player's volume state.
func (p *PlayerClient) GetVolume(ctx context.Context) (models.Volume, error) {
	status, data, err := p.do(ctx, p.timeout, http.MethodGet, "/volume", nil)
	if err != nil {
		return models.Volume{}, err
	}
	if status != http.StatusOK {
		return models.Volume{}, fmt.Errorf("%w: GET /volume: status %d", shared.ErrPlayerUnavailable, status)
	}

	var volume models.Volume
	if err := json.Unmarshal(data, &volume); err != nil {
		return models.Volume{}, fmt.Errorf("%w: GET /volume: invalid JSON: %v", shared.ErrPlayerUnavailable, err)
	}
	return volume, nil
}

// SetVolume sets the player's volume (0..100).
func (p *PlayerClient) SetVolume(ctx context.Context, volume int) error {
	if volume < 0 || volume > 100 {
		return fmt.Errorf("%w: volume %d outside 0..100", shared.ErrValidation, volume)
	}
	return p.write(ctx, http.MethodPost, "/volume", map[string]int{"volume": volume})
}

// Transport sends a playback control action.
func (p *PlayerClient) Transport(ctx context.Context, action Action) error {
	if !action.Valid() {
		return fmt.Errorf("%w: unsupported action %q", shared.ErrValidation, action)
	}
	return p.write(ctx, http.MethodPost, "/"+string(action), nil)
}

// IsReachable probes GET /song with the short probe timeout. 200 and 204 both count as reachable.
func (p *PlayerClient) IsReachable(ctx context.Context) bool {
	status, _, err := p.do(ctx, p.probeTimeout, http.MethodGet, "/song", nil)
	if err != nil {
		return false
	}
	return status == http.StatusOK || status == http.StatusNoContent
}
