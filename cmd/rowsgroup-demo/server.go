package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Alp4ka/rowsgroup"
	"github.com/Alp4ka/rowsgroup/grid"
	"github.com/Alp4ka/rowsgroup/render"
)

// errBadRequest marks errors caused by the request parameters.
var errBadRequest = errors.New("bad request")

// server exposes a single Grid. The grid is not safe for concurrent use, so
// every request holds mu while it acts on it.
type server struct {
	mu   sync.Mutex
	grid *grid.Grid
	log  *zap.Logger
}

func newServer(g *grid.Grid, logger *zap.Logger) *server {
	return &server{grid: g, log: logger}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handleTable(render.HTML, "text/html; charset=utf-8"))
	r.Get("/table.txt", s.handleTable(render.ASCII, "text/plain; charset=utf-8"))
	r.Post("/update", s.handleUpdate)

	return r
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("query", r.URL.RawQuery),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
		)
	})
}

type renderFunc func(w io.Writer, p *grid.Painted) error

func (s *server) handleTable(renderer renderFunc, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		if err := s.applyQuery(r, r.URL.Query()); err != nil {
			s.fail(w, err)
			return
		}

		var buf bytes.Buffer
		if err := renderer(&buf, s.grid.Painted()); err != nil {
			s.fail(w, err)
			return
		}

		w.Header().Set("Content-Type", contentType)
		_, _ = buf.WriteTo(w)
	}
}

func (s *server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.grid.CallAPI(r.Context(), rowsgroup.APIUpdate); err != nil {
		s.fail(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// applyQuery replays the table actions carried by the query parameters:
// order, header click, search, page length, then page.
func (s *server) applyQuery(r *http.Request, q url.Values) error {
	ctx := r.Context()

	if q.Has("order") {
		order, err := s.parseOrder(q.Get("order"))
		if err != nil {
			return err
		}

		s.grid.SetOrder(order)
		if err = s.grid.Draw(ctx); err != nil {
			return err
		}
	}

	if q.Has("click") {
		multi, _ := strconv.ParseBool(q.Get("shift"))
		if err := s.grid.OrderByHeader(ctx, q.Get("click"), multi); err != nil {
			return badRequest(err)
		}
	}

	if q.Has("search") && q.Get("search") != s.grid.SearchTerm() {
		if err := s.grid.Search(ctx, q.Get("search")); err != nil {
			return err
		}
	}

	if q.Has("length") {
		length, err := strconv.Atoi(q.Get("length"))
		if err != nil {
			return badRequest(fmt.Errorf("length: %w", err))
		}
		if err = s.grid.SetPageLength(ctx, length); err != nil {
			return err
		}
	}

	if q.Has("page") {
		page, err := strconv.Atoi(q.Get("page"))
		if err != nil || page < 1 {
			return badRequest(fmt.Errorf("page: must be a positive number"))
		}
		if err = s.grid.SetPage(ctx, page-1); err != nil {
			return err
		}
	}

	return nil
}

// parseOrder reads "column:dir,column:dir". Columns are matched by name or
// title, case insensitively.
func (s *server) parseOrder(raw string) (rowsgroup.Orderings, error) {
	mapping := make(rowsgroup.ColumnMapping)
	for _, c := range s.grid.Columns() {
		mapping[strings.ToLower(c.Name)] = c.Name
		mapping[strings.ToLower(c.Title)] = c.Name
	}

	entries := lo.FilterMap(strings.Split(raw, ","), func(entry string, _ int) (string, bool) {
		column, dir, found := strings.Cut(strings.TrimSpace(entry), ":")
		if !found {
			dir = string(rowsgroup.DirectionASC)
		}

		return strings.ToLower(column) + " " + dir, column != ""
	})

	order, err := rowsgroup.ParseSort(entries, mapping)
	if err != nil {
		return nil, badRequest(fmt.Errorf("order: %w", err))
	}

	return order, nil
}

func (s *server) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, errBadRequest) || errors.Is(err, grid.ErrUnknownColumn) {
		status = http.StatusBadRequest
	}

	s.log.Warn("request failed", zap.Int("status", status), zap.Error(err))
	http.Error(w, err.Error(), status)
}

func badRequest(err error) error {
	return fmt.Errorf("%w: %w", errBadRequest, err)
}
