package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/melonchart/pkg/buildinfo"
	melonerrors "github.com/matzehuels/melonchart/pkg/errors"
	"github.com/matzehuels/melonchart/pkg/melon"
)

const (
	defaultServeAddr = ":8080"
	shutdownTimeout  = 5 * time.Second
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chart as JSON over HTTP",
		Long: `Serve the chart over HTTP. Each request fetches the chart through the
configured cache, so upstream traffic is bounded by the cache TTL.

Routes:
  GET /healthz                  liveness probe
  GET /chart[?image_size=N]     full chart JSON
  GET /chart/entries/{index}    one entry JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			client, err := c.newClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			srv := &http.Server{
				Addr:              addr,
				Handler:           newRouter(client, logger),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return listenAndServe(ctx, srv, logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultServeAddr, "listen address")

	return cmd
}

// listenAndServe runs srv until ctx is cancelled, then shuts it down.
func listenAndServe(ctx context.Context, srv *http.Server, logger *log.Logger) error {
	errc := make(chan error, 1)
	go func() {
		logger.Info("Listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// =============================================================================
// Router
// =============================================================================

type chartHandler struct {
	client *melon.Client
}

// newRouter returns the HTTP routes served by "melonchart serve".
func newRouter(client *melon.Client, logger *log.Logger) http.Handler {
	h := &chartHandler{client: client}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Server", buildinfo.UserAgent()))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, melonerrors.New(melonerrors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, melonerrors.New(melonerrors.ErrCodeUnsupported, "method %s not allowed on %s", r.Method, r.URL.Path))
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Route("/chart", func(r chi.Router) {
		r.Get("/", h.chart)
		r.Get("/entries/{index}", h.entry)
	})

	return r
}

func (h *chartHandler) chart(w http.ResponseWriter, r *http.Request) {
	ch, err := h.fetch(r)
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := ch.JSON()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *chartHandler) entry(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "index")
	i, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, melonerrors.New(melonerrors.ErrCodeInvalidInput, "index must be an integer, got %q", raw))
		return
	}

	ch, err := h.fetch(r)
	if err != nil {
		writeError(w, err)
		return
	}
	e, err := ch.Entry(i)
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := e.JSON()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// fetch fetches the chart at the image size given by the image_size query
// parameter, or the client default.
func (h *chartHandler) fetch(r *http.Request) (*melon.Chart, error) {
	size := 0
	if raw := r.URL.Query().Get("image_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, melonerrors.New(melonerrors.ErrCodeInvalidInput, "image_size must be a positive integer, got %q", raw)
		}
		size = n
	}
	return melon.NewChart(r.Context(), h.client, size, true)
}

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Code  melonerrors.Code `json:"code,omitempty"`
	Error string           `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body + "\n"))
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	code := melonerrors.GetCode(err)
	if code == "" && status == http.StatusInternalServerError {
		code = melonerrors.ErrCodeInternal
	}
	b, _ := json.Marshal(errorBody{Code: code, Error: melonerrors.UserMessage(err)})
	writeJSON(w, status, string(b))
}

// statusFor maps an error to an HTTP status code. Upstream failures are
// reported as 502 so clients can tell them apart from their own mistakes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, melon.ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, melon.ErrRequest), errors.Is(err, melon.ErrParse):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	switch melonerrors.GetCode(err) {
	case melonerrors.ErrCodeNotFound, melonerrors.ErrCodeOutOfRange:
		return http.StatusNotFound
	case melonerrors.ErrCodeUnsupported:
		return http.StatusMethodNotAllowed
	case melonerrors.ErrCodeInvalidInput, melonerrors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// requestLogger logs each request at info level with its status and latency.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(withLogger(r.Context(), logger)))
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"took", time.Since(start).Round(time.Millisecond),
				"id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
