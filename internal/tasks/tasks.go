package tasks

import (
	"github.com/charmbracelet/log"
	"github.com/desertthunder/songpick/internal/services"
	"github.com/desertthunder/songpick/internal/shared"
	"golang.org/x/time/rate"
)

// PlaylistEngine keeps one YouTube playlist in step with the submission sheet.
type PlaylistEngine struct {
	platform   services.VideoPlatform
	playlistID string
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewPlaylistEngine creates a [PlaylistEngine] for playlistID.
//
// perSecond paces playlist mutations; zero or less means unlimited.
func NewPlaylistEngine(platform services.VideoPlatform, playlistID string, perSecond float64, logger *log.Logger) *PlaylistEngine {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &PlaylistEngine{
		platform:   platform,
		playlistID: playlistID,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     shared.WithLogger(logger, "playlist", playlistID),
	}
}

// PlaylistID returns the playlist the engine writes to.
func (e *PlaylistEngine) PlaylistID() string {
	return e.playlistID
}

// sendProgress sends a progress update through the channel without blocking.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
