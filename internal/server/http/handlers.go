package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/itsbakr/minerva-library/internal/domain"
	"github.com/itsbakr/minerva-library/internal/search"
)

// Pagination and validation constants.
const (
	defaultPerPage = 20
	maxPerPage     = 100
	maxQueryLength = 1000
)

// searchHandler handles GET /api/search. Query parameters mirror the
// search.Request fields: q, page, per_page, year_min, year_max,
// open_access_only.
func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearchRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.service.Search(r.Context(), req)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusBadRequest, ve.Error())
			return
		}
		s.logger.Error().Err(err).Str("query", req.Query).Msg("search failed")
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// parseSearchRequest builds a search.Request from URL query parameters.
func parseSearchRequest(r *http.Request) (search.Request, error) {
	q := r.URL.Query()

	req := search.Request{
		Query:   strings.TrimSpace(q.Get("q")),
		Page:    1,
		PerPage: defaultPerPage,
	}
	if req.Query == "" {
		return req, fmt.Errorf("query parameter 'q' is required")
	}
	if len(req.Query) > maxQueryLength {
		return req, fmt.Errorf("query parameter 'q' exceeds %d characters", maxQueryLength)
	}

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return req, fmt.Errorf("invalid page: %q", v)
		}
		req.Page = page
	}

	if v := q.Get("per_page"); v != "" {
		perPage, err := strconv.Atoi(v)
		if err != nil || perPage < 1 || perPage > maxPerPage {
			return req, fmt.Errorf("per_page must be between 1 and %d", maxPerPage)
		}
		req.PerPage = perPage
	}

	if v := q.Get("year_min"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("invalid year_min: %q", v)
		}
		req.YearMin = &year
	}

	if v := q.Get("year_max"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("invalid year_max: %q", v)
		}
		req.YearMax = &year
	}

	if v := q.Get("open_access_only"); v != "" {
		oa, err := strconv.ParseBool(v)
		if err != nil {
			return req, fmt.Errorf("invalid open_access_only: %q", v)
		}
		req.OpenAccessOnly = oa
	}

	return req, nil
}
