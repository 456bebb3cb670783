package webserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/feelwritelabs/feelwrite/internal/auth"
	"github.com/feelwritelabs/feelwrite/internal/store"
)

// dateLayout is the value format of the journal date field.
const dateLayout = "2006-01-02"

func (s *Server) handleHome(c echo.Context) error {
	user, _ := auth.CurrentUser(c)

	entries, err := s.entries.EntriesByUser(c.Request().Context(), user.ID)
	if err != nil {
		s.logger.Error("entry listing failed", zap.Error(err))
		return s.errorPage(c, http.StatusInternalServerError, "could not load your journal")
	}

	return c.Render(http.StatusOK, "entries.html", page{
		Title:    "My journal",
		Username: user.Username,
		Entries:  entries,
	})
}

func (s *Server) handleJournalForm(c echo.Context) error {
	user, _ := auth.CurrentUser(c)
	return c.Render(http.StatusOK, "new_entry.html", page{
		Title:    "New entry",
		Username: user.Username,
		Today:    time.Now().Format(dateLayout),
	})
}

// handleJournalSubmit stores the entry, sends it for scoring and
// redirects to the entry view.
//
// When the scoring call fails the entry stays stored without a
// sentiment and the user gets a gateway error. Resubmitting creates a
// new entry; the unscored one keeps its neutral display score.
func (s *Server) handleJournalSubmit(c echo.Context) error {
	user, _ := auth.CurrentUser(c)

	text := strings.TrimSpace(c.FormValue("text"))
	date := strings.TrimSpace(c.FormValue("date"))

	if text == "" {
		return c.Render(http.StatusBadRequest, "new_entry.html", page{
			Title:    "New entry",
			Username: user.Username,
			Error:    "the entry text cannot be empty",
			Today:    time.Now().Format(dateLayout),
			Form:     map[string]string{"date": date},
		})
	}
	if date == "" {
		date = time.Now().Format(dateLayout)
	}

	ctx := c.Request().Context()

	entry := &store.Entry{UserID: user.ID, Date: date, Text: text}
	if err := s.entries.CreateEntry(ctx, entry); err != nil {
		s.logger.Error("entry insert failed", zap.Error(err))
		return s.errorPage(c, http.StatusInternalServerError, "could not save the entry")
	}

	if _, err := s.analyzer.Analyze(ctx, entry.ID.Hex(), entry.Text); err != nil {
		s.logger.Error("entry analysis failed",
			zap.String("entry_id", entry.ID.Hex()),
			zap.Error(err))
		return s.errorPage(c, http.StatusBadGateway, "error analyzing entry")
	}

	return c.Redirect(http.StatusSeeOther, "/entries/"+entry.ID.Hex())
}

func (s *Server) handleEntryView(c echo.Context) error {
	user, _ := auth.CurrentUser(c)

	entry, err := s.userEntry(c, user.ID)
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrInvalidID):
		return s.errorPage(c, http.StatusNotFound, "entry not found")
	case err != nil:
		s.logger.Error("entry lookup failed", zap.Error(err))
		return s.errorPage(c, http.StatusInternalServerError, "could not load the entry")
	}

	return c.Render(http.StatusOK, "entry.html", page{
		Title:    entry.Date,
		Username: user.Username,
		Entry:    entry,
	})
}

func (s *Server) handleAPIEntries(c echo.Context) error {
	user, _ := auth.CurrentUser(c)

	entries, err := s.entries.EntriesByUser(c.Request().Context(), user.ID)
	if err != nil {
		s.logger.Error("entry listing failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load entries")
	}

	return c.JSON(http.StatusOK, entries)
}

func (s *Server) handleAPIEntry(c echo.Context) error {
	user, _ := auth.CurrentUser(c)

	entry, err := s.userEntry(c, user.ID)
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrInvalidID):
		return echo.NewHTTPError(http.StatusNotFound, "entry not found")
	case err != nil:
		s.logger.Error("entry lookup failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "could not load the entry")
	}

	return c.JSON(http.StatusOK, entry)
}

// userEntry loads the entry from the :id route parameter and checks it
// belongs to userID. Entries of other users read as ErrNotFound so the
// response does not reveal they exist.
func (s *Server) userEntry(c echo.Context, userID primitive.ObjectID) (*store.Entry, error) {
	id, err := store.ParseID(c.Param("id"))
	if err != nil {
		return nil, err
	}

	entry, err := s.entries.EntryByID(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}

	if entry.UserID != userID {
		return nil, store.ErrNotFound
	}

	return entry, nil
}
