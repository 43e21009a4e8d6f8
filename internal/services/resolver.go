package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/desertthunder/songpick/internal/models"
	"github.com/desertthunder/songpick/internal/shared"
)

var videoIDPattern = regexp.MustCompile(
	`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?|shorts|live)/|.*[?&]v=)|youtu\.be/)([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`,
)

// ExtractVideoID pulls the 11 character video id out of any common YouTube URL shape.
func ExtractVideoID(url string) (string, error) {
	m := videoIDPattern.FindStringSubmatch(strings.TrimSpace(url))
	if m == nil {
		return "", fmt.Errorf("%w: %q", shared.ErrInvalidURL, url)
	}
	return m[1], nil
}

// Resolver turns a submitted URL into video metadata.
type Resolver struct {
	platform VideoPlatform
}

// NewResolver creates a [Resolver] backed by platform.
func NewResolver(platform VideoPlatform) *Resolver {
	return &Resolver{platform: platform}
}

// Resolve validates url locally and fetches the video's title and channel.
func (r *Resolver) Resolve(ctx context.Context, url string) (*models.Video, error) {
	id, err := ExtractVideoID(url)
	if err != nil {
		return nil, err
	}

	video, err := r.platform.Video(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", id, Classify(err))
	}
	return video, nil
}
