// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"testing"

	"github.com/desertthunder/songpick/internal/models"
	"github.com/desertthunder/songpick/internal/shared"
)

type playlistEntry struct {
	itemID  string
	videoID string
}

// MockPlatform is an in-memory test double for services.VideoPlatform.
//
// The playlist is kept as an ordered list of items; item ids are generated on insert.
type MockPlatform struct {
	mu      sync.Mutex
	entries []playlistEntry
	seq     int

	Videos    map[string]*models.Video // metadata served by Video
	VideoErr  error                    // returned by Video when set
	ListErr   error                    // returned by PlaylistItemIDs when set
	DeleteErr error                    // returned by DeletePlaylistItem when set
	InsertErr map[string]error         // per video id insert failures
	PageSize  int                      // items per page, default 50

	Calls []string
}

// NewMockPlatform creates a [MockPlatform] whose playlist already holds videoIDs.
func NewMockPlatform(videoIDs ...string) *MockPlatform {
	m := &MockPlatform{Videos: map[string]*models.Video{}, InsertErr: map[string]error{}}
	for _, id := range videoIDs {
		m.append(id)
	}
	return m
}

func (m *MockPlatform) append(videoID string) {
	m.seq++
	m.entries = append(m.entries, playlistEntry{itemID: "item-" + strconv.Itoa(m.seq), videoID: videoID})
}

// Playlist returns the video ids currently in the playlist, in order.
func (m *MockPlatform) Playlist() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(m.entries))
	for i, e := range m.entries {
		ids[i] = e.videoID
	}
	return ids
}

// Count reports how many times method was called.
func (m *MockPlatform) Count(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == method {
			n++
		}
	}
	return n
}

func (m *MockPlatform) Video(ctx context.Context, id string) (*models.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "Video")

	if m.VideoErr != nil {
		return nil, m.VideoErr
	}
	v, ok := m.Videos[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrVideoNotFound, id)
	}
	return v, nil
}

func (m *MockPlatform) PlaylistItemIDs(ctx context.Context, playlistID, pageToken string) ([]string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "PlaylistItemIDs")

	if m.ListErr != nil {
		return nil, "", m.ListErr
	}

	size := m.PageSize
	if size <= 0 {
		size = 50
	}

	start := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil {
			return nil, "", fmt.Errorf("bad page token %q", pageToken)
		}
		start = n
	}

	end := min(start+size, len(m.entries))
	var ids []string
	for _, e := range m.entries[min(start, end):end] {
		ids = append(ids, e.itemID)
	}

	next := ""
	if end < len(m.entries) {
		next = strconv.Itoa(end)
	}
	return ids, next, nil
}

func (m *MockPlatform) DeletePlaylistItem(ctx context.Context, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "DeletePlaylistItem")

	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	for i, e := range m.entries {
		if e.itemID == itemID {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: playlist item %s", shared.ErrNotFound, itemID)
}

func (m *MockPlatform) InsertPlaylistItem(ctx context.Context, playlistID, videoID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "InsertPlaylistItem")

	if err := m.InsertErr[videoID]; err != nil {
		return err
	}
	m.append(videoID)
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
