package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songreq/internal/formatter"
	"github.com/desertthunder/songreq/internal/models"
	"github.com/desertthunder/songreq/internal/monitor"
	"github.com/desertthunder/songreq/internal/services"
	"github.com/desertthunder/songreq/internal/shared"
)

// DefaultInstructions is served when no instructions file can be read.
const DefaultInstructions = "✦ How to request a song\n1. Scan the QR code below\n2. Search and add a song\n3. It plays when its turn comes!"

// UserStore is the persistence the API needs for listener profiles.
type UserStore interface {
	Load(nickname string) (models.UserProfile, error)
	History(nickname string) ([]models.Song, error)
	Likes(nickname string) ([]models.Song, error)
	AppendHistory(nickname string, song models.Song) error
	AddLike(nickname string, song models.Song) (bool, error)
	RemoveLike(nickname, videoID string) (bool, error)
	RemoveHistoryItem(nickname, videoID string) (bool, error)
	ClearHistory(nickname string) (int, error)
}

// Recommender suggests songs from a listener's history and likes.
type Recommender interface {
	Recommend(ctx context.Context, history, likes []models.Song) []models.Song
}

// StatusSource reports the player connection state.
type StatusSource interface {
	Snapshot() monitor.Snapshot
}

// Deps are the collaborators behind the API.
type Deps struct {
	Player      services.Player
	Search      services.Searcher
	Users       UserStore
	Recommender Recommender
	Status      StatusSource
}

// Options configures the API surface.
type Options struct {
	ServerURL        string // URL other devices use to reach the server, encoded in the QR code
	LocalURL         string
	ServerIP         string
	Addresses        []string
	InstructionsPath string
	SearchLimit      int
	EnqueueRate      float64
	EnqueueBurst     int
	CORSOrigins      []string
	StatusInterval   time.Duration
	// TrustForwarded keys rate limits on X-Forwarded-For. Only set it behind a tunnel.
	TrustForwarded   bool
}

// API serves the JSON endpoints used by the browser client and the player plugin.
type API struct {
	deps    Deps
	opts    Options
	logger  *log.Logger
	limiter *ClientLimiter
}

// NewAPI creates an [API].
func NewAPI(deps Deps, opts Options, logger *log.Logger) *API {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = services.DefaultSearchLimit
	}

	return &API{
		deps:    deps,
		opts:    opts,
		logger:  shared.WithLogger(logger, "component", "api"),
		limiter: NewClientLimiter(opts.EnqueueRate, opts.EnqueueBurst, opts.TrustForwarded),
	}
}

// NewHandler builds the full HTTP handler: middleware, API routes and the status stream.
func NewHandler(api *API) http.Handler {
	router := NewBasicRouter()
	router.Use(Recover(api.logger), RequestID(), Logging(api.logger), CORS(api.opts.CORSOrigins))
	api.Register(router)
	router.Handler(NewStatusStream(api.deps.Status, api.deps.Player, api.opts.StatusInterval, api.opts.CORSOrigins, api.logger))
	return router
}

// Register adds every API route to router.
func (a *API) Register(router *BasicRouter) {
	router.HandleFunc(http.MethodGet, "/health", a.health)
	router.HandleFunc(http.MethodGet, "/config", a.config)
	router.HandleFunc(http.MethodGet, "/instructions", a.instructions)
	router.HandleFunc(http.MethodGet, "/qr.png", a.qrCode)

	router.HandleFunc(http.MethodGet, "/queue", a.queue)
	router.HandleFunc(http.MethodDelete, "/queue/{index}", a.removeFromQueue)
	router.HandleFunc(http.MethodGet, "/current-song", a.currentSong)
	router.HandleFunc(http.MethodPost, "/search", a.search)
	router.Handle(http.MethodPost, "/enqueue", a.limiter.Wrap(http.HandlerFunc(a.enqueue)))
	router.HandleFunc(http.MethodPost, "/controls/{action}", a.control)
	router.HandleFunc(http.MethodPost, "/seek", a.seek)
	router.HandleFunc(http.MethodGet, "/volume", a.getVolume)
	router.HandleFunc(http.MethodPost, "/volume", a.setVolume)

	router.HandleFunc(http.MethodGet, "/user/{nickname}/history", a.history)
	router.HandleFunc(http.MethodDelete, "/user/{nickname}/history", a.clearHistory)
	router.HandleFunc(http.MethodDelete, "/user/{nickname}/history/{videoId}", a.removeHistoryItem)
	router.HandleFunc(http.MethodGet, "/user/{nickname}/likes", a.likes)
	router.HandleFunc(http.MethodPost, "/user/{nickname}/likes", a.like)
	router.HandleFunc(http.MethodDelete, "/user/{nickname}/likes", a.unlike)
	router.HandleFunc(http.MethodDelete, "/user/{nickname}/likes/{videoId}", a.unlike)
	router.HandleFunc(http.MethodGet, "/user/{nickname}/recommendations", a.recommendations)
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	snap := a.deps.Status.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"playerConnected": snap.Connected,
		"state":           snap.State,
		"deadlinePending": snap.DeadlinePending,
		"lastChecked":     snap.LastChecked,
	})
}

func (a *API) config(w http.ResponseWriter, r *http.Request) {
	addresses := a.opts.Addresses
	if addresses == nil {
		addresses = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"serverUrl": a.opts.ServerURL,
		"localUrl":  a.opts.LocalURL,
		"serverIp":  a.opts.ServerIP,
		"addresses": addresses,
		"status":    "running",
	})
}

func (a *API) instructions(w http.ResponseWriter, r *http.Request) {
	text := DefaultInstructions
	if a.opts.InstructionsPath != "" {
		data, err := os.ReadFile(a.opts.InstructionsPath)
		switch {
		case err != nil:
			a.logger.Debug("using default instructions", "path", a.opts.InstructionsPath, "error", err)
		case strings.TrimSpace(string(data)) != "":
			text = strings.TrimSpace(string(data))
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"instructions": text})
}

func (a *API) qrCode(w http.ResponseWriter, r *http.Request) {
	size := formatter.DefaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 64 || n > 2048 {
			writeError(w, a.logger, fmt.Errorf("%w: size must be between 64 and 2048", shared.ErrValidation))
			return
		}
		size = n
	}

	png, err := formatter.QRCodePNG(a.opts.ServerURL, size)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}

func (a *API) queue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.deps.Player.GetQueue(r.Context()))
}

func (a *API) removeFromQueue(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, a.logger, fmt.Errorf("%w: queue index must be an integer", shared.ErrValidation))
		return
	}

	if err := a.deps.Player.RemoveAt(r.Context(), index); err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeOK(w, "")
}

func (a *API) currentSong(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.deps.Player.GetNowPlaying(r.Context()))
}

func (a *API) search(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Q string `json:"q"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, a.logger, err)
		return
	}

	results, err := a.deps.Search.Search(r.Context(), body.Q, a.opts.SearchLimit)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

type enqueueRequest struct {
	models.Song
	Nickname string `json:"nickname"`
}

func (a *API) enqueue(w http.ResponseWriter, r *http.Request) {
	var body enqueueRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, a.logger, err)
		return
	}

	videoID, err := shared.RequireVideoID(body.VideoID)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	body.VideoID = videoID

	if err := a.deps.Player.Enqueue(r.Context(), videoID); err != nil {
		writeError(w, a.logger, err)
		return
	}

	if nickname := strings.TrimSpace(body.Nickname); nickname != "" {
		if err := a.deps.Users.AppendHistory(nickname, body.Song); err != nil {
			a.logger.Warn("failed to record history", "nickname", nickname, "videoId", videoID, "error", err)
		}
	}

	writeOK(w, "added to queue: "+videoID)
}

func (a *API) control(w http.ResponseWriter, r *http.Request) {
	action := services.Action(r.PathValue("action"))
	if err := a.deps.Player.Transport(r.Context(), action); err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeOK(w, "")
}

func (a *API) seek(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Seconds *float64 `json:"seconds"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, a.logger, err)
		return
	}
	if body.Seconds == nil {
		writeError(w, a.logger, fmt.Errorf("%w: seconds is required", shared.ErrValidation))
		return
	}

	if err := a.deps.Player.SeekTo(r.Context(), int(*body.Seconds)); err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeOK(w, "")
}

func (a *API) getVolume(w http.ResponseWriter, r *http.Request) {
	volume, err := a.deps.Player.GetVolume(r.Context())
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, volume)
}

func (a *API) setVolume(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Volume *float64 `json:"volume"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, a.logger, err)
		return
	}
	if body.Volume == nil {
		writeError(w, a.logger, fmt.Errorf("%w: volume is required", shared.ErrValidation))
		return
	}

	if err := a.deps.Player.SetVolume(r.Context(), int(*body.Volume)); err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeOK(w, "")
}

func (a *API) history(w http.ResponseWriter, r *http.Request) {
	songs, err := a.deps.Users.History(r.PathValue("nickname"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

func (a *API) clearHistory(w http.ResponseWriter, r *http.Request) {
	n, err := a.deps.Users.ClearHistory(r.PathValue("nickname"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "cleared": n})
}

func (a *API) removeHistoryItem(w http.ResponseWriter, r *http.Request) {
	removed, err := a.deps.Users.RemoveHistoryItem(r.PathValue("nickname"), r.PathValue("videoId"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "removed": removed})
}

func (a *API) likes(w http.ResponseWriter, r *http.Request) {
	songs, err := a.deps.Users.Likes(r.PathValue("nickname"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

func (a *API) like(w http.ResponseWriter, r *http.Request) {
	var song models.Song
	if err := decodeBody(w, r, &song); err != nil {
		writeError(w, a.logger, err)
		return
	}

	added, err := a.deps.Users.AddLike(r.PathValue("nickname"), song)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "added": added})
}

// unlike serves both DELETE /user/{nickname}/likes with a {"videoId"} body and
// DELETE /user/{nickname}/likes/{videoId}.
func (a *API) unlike(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("videoId")
	if videoID == "" {
		var body struct {
			VideoID string `json:"videoId"`
		}
		if err := decodeBody(w, r, &body); err != nil {
			writeError(w, a.logger, err)
			return
		}
		videoID = body.VideoID
	}

	removed, err := a.deps.Users.RemoveLike(r.PathValue("nickname"), videoID)
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "removed": removed})
}

func (a *API) recommendations(w http.ResponseWriter, r *http.Request) {
	profile, err := a.deps.Users.Load(r.PathValue("nickname"))
	if err != nil {
		writeError(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a.deps.Recommender.Recommend(r.Context(), profile.History, profile.Likes))
}
