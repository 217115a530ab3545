package server

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/fasthttp/router"
	"github.com/mailru/easyjson"
	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/royalcat/pointsregroup/featurestore"
	"github.com/royalcat/pointsregroup/layerio"
	"github.com/royalcat/pointsregroup/regroup"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const MaxBodySize = 1000 * 1000 // 1MB

var meter = otel.Meter("github.com/royalcat/pointsregroup/server")

func Run(ctx context.Context, address string, store featurestore.Store, cfg regroup.Config, opts ...regroup.Option) error {
	log := slog.Default()

	s, err := newServer(ctx, store, cfg, opts...)
	if err != nil {
		return err
	}

	server := &fasthttp.Server{
		ReadTimeout:        time.Second,
		MaxRequestBodySize: MaxBodySize,
		Handler:            s.router().Handler,
	}

	go func() {
		log.Info("Server listening", "address", address)
		if err := server.ListenAndServe(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			stdlog.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	slog.Info("Server started")

	// wait cancel
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return server.ShutdownWithContext(shutdownCtx)
}

// server serialises gestures through mu, the tools and the store are shared
// by every request.
type server struct {
	ctx   context.Context
	log   *slog.Logger
	store featurestore.Store

	mu          sync.Mutex
	tools       map[regroup.Mode]*regroup.Tool
	defaultMode regroup.Mode

	metricHttpRegroupCallCount metric.Int64Counter
	metricHttpLayerCallCount   metric.Int64Counter
}

func newServer(ctx context.Context, store featurestore.Store, cfg regroup.Config, opts ...regroup.Option) (*server, error) {
	s := &server{
		ctx:         ctx,
		log:         slog.Default().With("component", "server"),
		store:       store,
		tools:       map[regroup.Mode]*regroup.Tool{},
		defaultMode: cfg.Mode,
	}

	for _, mode := range regroup.Modes {
		modeCfg := cfg
		modeCfg.Mode = mode
		r, err := regroup.New(modeCfg, opts...)
		if err != nil {
			return nil, fmt.Errorf("error creating %s regrouper: %w", mode, err)
		}
		s.tools[mode] = regroup.NewTool(r, store)
	}

	var err error
	if s.metricHttpRegroupCallCount, err = meter.Int64Counter("http_regroup_call_total"); err != nil {
		return nil, err
	}
	if s.metricHttpLayerCallCount, err = meter.Int64Counter("http_layer_call_total"); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *server) router() *router.Router {
	r := router.New()
	r.POST("/regroup", s.RegroupHandler)
	r.GET("/layers/{name}", s.LayerHandler)
	r.Handle(http.MethodGet, "/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))
	return r
}

func (s *server) RegroupHandler(ctx *fasthttp.RequestCtx) {
	req := RegroupRequest{}
	if err := easyjson.Unmarshal(ctx.Request.Body(), &req); err != nil {
		s.metricHttpRegroupCallCount.Add(ctx, 1, metric.WithAttributes(attribute.Int("status", http.StatusBadRequest)))
		writeError(ctx, http.StatusBadRequest, ErrorResponse{Error: "failed to parse request: " + err.Error()})
		return
	}

	mode := s.defaultMode
	if req.Mode != "" {
		m, err := regroup.ParseMode(req.Mode)
		if err != nil {
			s.metricHttpRegroupCallCount.Add(ctx, 1, metric.WithAttributes(attribute.Int("status", http.StatusBadRequest)))
			writeError(ctx, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Reason: regroup.Reason(err)})
			return
		}
		mode = m
	}

	res, err := s.gesture(mode, req.Rect)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if regroup.Reason(err) == "store" {
			status = http.StatusInternalServerError
			s.log.Error("regroup failed", "error", err.Error())
		}
		s.metricHttpRegroupCallCount.Add(ctx, 1, metric.WithAttributes(attribute.Int("status", status)))
		writeError(ctx, status, ErrorResponse{Error: err.Error(), Reason: regroup.Reason(err)})
		return
	}
	s.metricHttpRegroupCallCount.Add(ctx, 1, metric.WithAttributes(attribute.Int("status", http.StatusOK)))

	out := RegroupResponse{
		Anchor:   uint64(res.Anchor),
		Polygon:  uint64(res.Polygon),
		Count:    res.Count,
		Removed:  ids(res.Removed),
		Inserted: ids(res.Inserted),
	}
	data, err := easyjson.Marshal(out)
	if err != nil {
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
		ctx.Response.SetBodyString("failed to marshal response")
		return
	}
	ctx.Response.Header.SetContentType("application/json")
	ctx.Response.SetStatusCode(http.StatusOK)
	ctx.Response.SetBody(data)
}

// gesture replays rect as a drag from its min to its max corner.
func (s *server) gesture(mode regroup.Mode, rect [4]float64) (regroup.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tool := s.tools[mode]
	tool.Press(orb.Point{rect[0], rect[1]})
	return tool.Release(s.ctx, orb.Point{rect[2], rect[3]})
}

func (s *server) LayerHandler(ctx *fasthttp.RequestCtx) {
	s.metricHttpLayerCallCount.Add(ctx, 1)

	name := ctx.UserValue("name").(string)
	layer, ok := s.store.Layer(name)
	if !ok {
		writeError(ctx, http.StatusNotFound, ErrorResponse{Error: "layer not found: " + name})
		return
	}
	if layer.Kind() == featurestore.KindRaster {
		writeError(ctx, http.StatusBadRequest, ErrorResponse{Error: "raster layers have no features"})
		return
	}

	ctx.Response.Header.SetContentType("application/geo+json")
	ctx.Response.SetStatusCode(http.StatusOK)
	if err := layerio.WriteGeoJSON(ctx.Response.BodyWriter(), layer); err != nil {
		ctx.Response.ResetBody()
		ctx.Response.SetStatusCode(http.StatusInternalServerError)
		ctx.Response.SetBodyString("failed to encode layer")
	}
}

func writeError(ctx *fasthttp.RequestCtx, status int, res ErrorResponse) {
	data, _ := easyjson.Marshal(res)
	ctx.Response.Header.SetContentType("application/json")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBody(data)
}

func ids(in []featurestore.FeatureID) []uint64 {
	out := make([]uint64, len(in))
	for i, id := range in {
		out[i] = uint64(id)
	}
	return out
}
