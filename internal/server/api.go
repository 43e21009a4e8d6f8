package server

import (
	"fmt"
	"net/http"

	"github.com/desertthunder/songpick/internal/models"
	"github.com/desertthunder/songpick/internal/shared"
	"github.com/desertthunder/songpick/internal/tasks"
	"golang.org/x/oauth2"
)

type parseRequest struct {
	URL string `json:"url"`
}

type saveRequest struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
	URL    string `json:"url"`
}

// rateRequest accepts the row as originalRow (leaderboard clients) or row.
type rateRequest struct {
	OriginalRow *int    `json:"originalRow"`
	Row         *int    `json:"row"`
	Rating      *string `json:"rating"`
}

func (req rateRequest) target() (int, error) {
	switch {
	case req.OriginalRow != nil:
		return *req.OriginalRow, nil
	case req.Row != nil:
		return *req.Row, nil
	default:
		return 0, fmt.Errorf("%w: originalRow", shared.ErrMissingArgument)
	}
}

// ledger builds the request's API clients from the session token.
func (s *Server) ledger(r *http.Request) (*tasks.Ledger, *models.Session, error) {
	sess := sessionFrom(r.Context())
	if sess == nil {
		return nil, nil, shared.ErrAuthRequired
	}

	backend, err := s.backends(r.Context(), oauth2.StaticTokenSource(sess.Token()))
	if err != nil {
		return nil, nil, err
	}
	logger := s.logger.With("email", sess.Email())
	return tasks.NewLedger(backend, s.cfg, logger), sess, nil
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	ledger, _, err := s.ledger(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	sub, err := ledger.Parse(r.Context(), req.URL)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeData(w, sub)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	ledger, sess, err := s.ledger(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	result, err := ledger.Save(r.Context(), models.Submission{
		UserName: s.names.DisplayName(sess.Email()),
		Artist:   req.Artist,
		Title:    req.Title,
		URL:      req.URL,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeData(w, result)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	ledger, sess, err := s.ledger(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	board, err := ledger.Leaderboard(r.Context(), s.names.DisplayName(sess.Email()))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, successBody{Success: true, Data: board.Entries, PlaylistID: board.PlaylistID})
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	row, err := req.target()
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if req.Rating == nil {
		writeError(w, s.logger, fmt.Errorf("%w: rating", shared.ErrMissingArgument))
		return
	}
	rating, err := models.ParseRating(*req.Rating)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	ledger, sess, err := s.ledger(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	result, err := ledger.SetRating(r.Context(), row, s.names.DisplayName(sess.Email()), rating)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeData(w, result)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	ledger, _, err := s.ledger(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	result, err := ledger.Sync(r.Context(), nil)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeData(w, result)
}
