package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsbakr/minerva-library/internal/domain"
	"github.com/itsbakr/minerva-library/internal/search"
)

// stubSearchService records the request it received and returns a canned
// response or error.
type stubSearchService struct {
	lastReq search.Request
	resp    *search.Response
	err     error
}

func (s *stubSearchService) Search(_ context.Context, req search.Request) (*search.Response, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func newTestServer(svc SearchService) *Server {
	return NewServer(Config{
		Address:      "127.0.0.1:0",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}, svc, zerolog.Nop())
}

func TestSearchHandler_Success(t *testing.T) {
	svc := &stubSearchService{
		resp: &search.Response{
			Results: []domain.Article{
				{
					ID:             "W1",
					Title:          "Climate Change and Agriculture",
					Sources:        []string{"openalex"},
					Year:           2021,
					RelevanceScore: 4.2,
				},
			},
			TotalResults:      1,
			SearchTime:        0.42,
			DatabasesSearched: []string{"openalex"},
			ProviderStatus: []search.ProviderStatus{
				{Name: "openalex", State: search.StateOK, ResultsCount: 1, ResponseTime: 0.4},
			},
		},
	}
	srv := newTestServer(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=climate+change&page=2&per_page=10&year_min=2020&year_max=2023&open_access_only=true", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	// Request is parsed into the service contract.
	assert.Equal(t, "climate change", svc.lastReq.Query)
	assert.Equal(t, 2, svc.lastReq.Page)
	assert.Equal(t, 10, svc.lastReq.PerPage)
	require.NotNil(t, svc.lastReq.YearMin)
	assert.Equal(t, 2020, *svc.lastReq.YearMin)
	require.NotNil(t, svc.lastReq.YearMax)
	assert.Equal(t, 2023, *svc.lastReq.YearMax)
	assert.True(t, svc.lastReq.OpenAccessOnly)

	var body search.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.TotalResults)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "Climate Change and Agriculture", body.Results[0].Title)
	require.Len(t, body.ProviderStatus, 1)
	assert.Equal(t, search.StateOK, body.ProviderStatus[0].State)
}

func TestSearchHandler_Defaults(t *testing.T) {
	svc := &stubSearchService{resp: &search.Response{Results: []domain.Article{}}}
	srv := newTestServer(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=graphene", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.lastReq.Page)
	assert.Equal(t, defaultPerPage, svc.lastReq.PerPage)
	assert.Nil(t, svc.lastReq.YearMin)
	assert.Nil(t, svc.lastReq.YearMax)
	assert.False(t, svc.lastReq.OpenAccessOnly)
}

func TestSearchHandler_BadRequest(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"missing query", "/api/search"},
		{"blank query", "/api/search?q=%20%20"},
		{"invalid page", "/api/search?q=x&page=zero"},
		{"page below one", "/api/search?q=x&page=0"},
		{"per_page too large", "/api/search?q=x&per_page=101"},
		{"per_page zero", "/api/search?q=x&per_page=0"},
		{"invalid year_min", "/api/search?q=x&year_min=twenty"},
		{"invalid year_max", "/api/search?q=x&year_max=x"},
		{"invalid open_access_only", "/api/search?q=x&open_access_only=maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubSearchService{resp: &search.Response{}}
			srv := newTestServer(svc)

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rec := httptest.NewRecorder()
			srv.router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSearchHandler_ValidationErrorFromService(t *testing.T) {
	svc := &stubSearchService{err: domain.NewValidationError("year_min", "must not exceed year_max")}
	srv := newTestServer(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=x&year_min=2023&year_max=2020", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "must not exceed year_max")
}

func TestSearchHandler_InternalError(t *testing.T) {
	svc := &stubSearchService{err: assert.AnError}
	srv := newTestServer(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=x", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// Internal detail is not leaked to the client.
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestHealthHandler(t *testing.T) {
	srv := newTestServer(&stubSearchService{resp: &search.Response{}})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
