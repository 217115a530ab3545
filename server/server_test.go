package server

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"testing"

	"github.com/mailru/easyjson"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/royalcat/pointsregroup/featurestore"
	"github.com/royalcat/pointsregroup/regroup"
	"github.com/valyala/fasthttp"
)

func newTestServer(t testing.TB) (*server, *featurestore.MemoryLayer) {
	t.Helper()

	points := featurestore.NewMemoryLayer("home", featurestore.KindPoint)
	_, err := points.Add(
		featurestore.Feature{Geometry: orb.Point{0, 0}, Attributes: featurestore.Attributes{"access": "4", "all_area": "400"}},
		featurestore.Feature{Geometry: orb.Point{20, 20}, Attributes: featurestore.Attributes{"access": "x"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	polygons := featurestore.NewMemoryLayer("building-polygon", featurestore.KindPolygon)
	_, err = polygons.Add(featurestore.Feature{Geometry: orb.Polygon{orb.Ring{{-5, -5}, {5, -5}, {5, 5}, {-5, 5}, {-5, -5}}}})
	if err != nil {
		t.Fatal(err)
	}

	s, err := newServer(context.Background(), featurestore.NewMemoryStore(points, polygons), regroup.ConfigDefault(),
		regroup.WithRand(rand.New(rand.NewSource(1))))
	if err != nil {
		t.Fatal(err)
	}
	return s, points
}

func getRequestCtx(method, uri, body string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != "" {
		ctx.Request.SetBodyString(body)
	}
	return ctx
}

func TestRegroupHandler(t *testing.T) {
	s, points := newTestServer(t)
	handler := s.router().Handler

	ctx := getRequestCtx(http.MethodPost, "/regroup", `{"rect": [-1, -1, 1, 1], "mode": "random"}`)
	handler(ctx)

	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	res := RegroupResponse{}
	if err := easyjson.Unmarshal(ctx.Response.Body(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Count != 4 || len(res.Inserted) != 4 || len(res.Removed) != 1 || res.Anchor != 1 {
		t.Fatalf("unexpected response %+v", res)
	}
	if points.Len() != 5 {
		t.Fatalf("expected 5 points in layer, got %d", points.Len())
	}
}

func TestRegroupHandlerErrors(t *testing.T) {
	cases := []struct {
		body   string
		status int
		reason string
	}{
		{`{"rect": [`, http.StatusBadRequest, ""},
		{`{"rect": [-1, -1, 1, 1], "mode": "spiral"}`, http.StatusBadRequest, "unknown_mode"},
		{`{"rect": [1, 1, 2, 2]}`, http.StatusUnprocessableEntity, "selection_empty"},
		{`{"rect": [0, 0, 0, 0]}`, http.StatusUnprocessableEntity, "selection_empty"},
		{`{"rect": [4, 4, 21, 21]}`, http.StatusUnprocessableEntity, "invalid_count"},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			s, points := newTestServer(t)
			ctx := getRequestCtx(http.MethodPost, "/regroup", tc.body)
			s.router().Handler(ctx)

			if ctx.Response.StatusCode() != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, ctx.Response.StatusCode(), ctx.Response.Body())
			}
			res := ErrorResponse{}
			if err := easyjson.Unmarshal(ctx.Response.Body(), &res); err != nil {
				t.Fatal(err)
			}
			if res.Reason != tc.reason || res.Error == "" {
				t.Fatalf("unexpected error response %+v", res)
			}
			if points.Len() != 2 {
				t.Fatalf("layer changed on rejection")
			}
		})
	}
}

func TestLayerHandler(t *testing.T) {
	s, _ := newTestServer(t)

	ctx := getRequestCtx(http.MethodGet, "/layers/home", "")
	s.router().Handler(ctx)
	if ctx.Response.StatusCode() != http.StatusOK {
		t.Fatalf("expected 200, got %d", ctx.Response.StatusCode())
	}
	fc, err := geojson.UnmarshalFeatureCollection(ctx.Response.Body())
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) != 2 || fc.Features[0].Properties["access"] != "4" {
		t.Fatalf("unexpected layer body %s", ctx.Response.Body())
	}

	ctx = getRequestCtx(http.MethodGet, "/layers/roads", "")
	s.router().Handler(ctx)
	if ctx.Response.StatusCode() != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", ctx.Response.StatusCode())
	}
}

func TestRequestModelTolerance(t *testing.T) {
	req := RegroupRequest{}
	err := easyjson.Unmarshal([]byte(`{"rect": [1, 2, 3, 4, 5], "extra": {"a": 1}}`), &req)
	if err != nil {
		t.Fatal(err)
	}
	if req.Rect != [4]float64{1, 2, 3, 4} || req.Mode != "" {
		t.Fatalf("unexpected request %+v", req)
	}
	if data, _ := easyjson.Marshal(req); !strings.HasPrefix(string(data), `{"rect":[1,2,3,4]`) {
		t.Fatalf("unexpected encoding %s", data)
	}
}

func BenchmarkRegroupHandler(b *testing.B) {
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		s, _ := newTestServer(b)
		ctx := getRequestCtx(http.MethodPost, "/regroup", `{"rect": [-1, -1, 1, 1], "mode": "linear"}`)
		b.StartTimer()

		s.RegroupHandler(ctx)
	}
}
