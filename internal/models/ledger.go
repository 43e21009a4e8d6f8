package models

import (
	"fmt"

	"github.com/desertthunder/songpick/internal/shared"
)

// Video is the metadata resolved for a submitted URL.
type Video struct {
	ID           string `json:"videoId"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
}

// Submission is one row of the submission sheet.
type Submission struct {
	UserName string `json:"userName,omitempty"`
	Artist   string `json:"artist"`
	Title    string `json:"title"`
	URL      string `json:"url"`
}

// Validate checks that every user-supplied field is present.
func (s Submission) Validate() error {
	if s.Artist == "" || s.Title == "" || s.URL == "" {
		return fmt.Errorf("%w: artist, title and url are required", shared.ErrMissingArgument)
	}
	return nil
}

// SaveResult is returned after a submission row is written.
//
// PlaylistSync is nil when the follow-up playlist sync failed or was skipped.
type SaveResult struct {
	Submission
	Row          int         `json:"row"`
	PlaylistSync *SyncResult `json:"playlistSync"`
}

// SyncResult summarises one reconciliation of the playlist against the sheet.
type SyncResult struct {
	Deleted int      `json:"deleted"`
	Added   int      `json:"added"`
	Total   int      `json:"total"`
	Failed  []string `json:"failed,omitempty"` // video ids whose insert was rejected
}

// LeaderboardEntry is one row of a leaderboard sheet as seen by the current user.
type LeaderboardEntry struct {
	Artist      string `json:"artist"`
	Title       string `json:"title"`
	URL         string `json:"youtubeUrl"`
	Rating      Rating `json:"rating"`
	OriginalRow int    `json:"originalRow"`
	Sheet       string `json:"sheetName"`
}

// Leaderboard is every entry across leaderboard sheets plus the playlist they feed.
type Leaderboard struct {
	Entries    []LeaderboardEntry `json:"entries"`
	PlaylistID string             `json:"playlistId,omitempty"`
}

// Rating is a value a member can leave on another member's submission.
type Rating string

const (
	RatingFun    Rating = "유잼"
	RatingOkay   Rating = "가능"
	RatingBoring Rating = "노잼"
	RatingNo     Rating = "불가"
	RatingAbsent Rating = "불참"
	RatingNone   Rating = "" // clears the cell
)

// Ratings lists every accepted rating in display order.
var Ratings = []Rating{RatingFun, RatingOkay, RatingBoring, RatingNo, RatingAbsent, RatingNone}

// Valid reports whether r is in the closed rating set.
func (r Rating) Valid() bool {
	for _, v := range Ratings {
		if r == v {
			return true
		}
	}
	return false
}

// ParseRating converts s to a [Rating], rejecting anything outside the closed set.
func ParseRating(s string) (Rating, error) {
	r := Rating(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", shared.ErrInvalidRating, s)
	}
	return r, nil
}

// RatingResult is returned after a rating cell is written.
type RatingResult struct {
	OriginalRow int    `json:"originalRow"`
	Rating      Rating `json:"rating"`
	Column      string `json:"column"`
}
