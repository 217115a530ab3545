package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/paulmach/orb"
	"github.com/royalcat/pointsregroup/featurestore"
	"github.com/royalcat/pointsregroup/internal/stats"
	"github.com/royalcat/pointsregroup/internal/telemetry"
	"github.com/royalcat/pointsregroup/layerio"
	"github.com/royalcat/pointsregroup/regroup"
	"github.com/royalcat/pointsregroup/server"

	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel"

	_ "github.com/KimMachineGun/automemlimit"
	_ "go.uber.org/automaxprocs"
)

const appName = "pointsregroup"

func main() {
	layerFlags := []cli.Flag{
		&cli.StringFlag{
			Name:      "points",
			Aliases:   []string{"p"},
			Usage:     "point layer file (geojson)",
			Required:  true,
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:      "polygons",
			Usage:     "polygon layer file (geojson or osm extract)",
			Required:  true,
			TakesFile: true,
		},
		&cli.StringFlag{
			Name:        "mode",
			Aliases:     []string{"m"},
			Usage:       "placement mode: linear, random or poisson",
			DefaultText: "from config",
		},
		&cli.BoolFlag{
			Name:  "progress",
			Usage: "show load progress",
		},
	}

	app := &cli.App{
		Name:        appName,
		Description: "Regroups address points inside building polygons",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:      "config",
				Aliases:   []string{"c"},
				TakesFile: true,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "regroup",
				Usage: "regroup the points under a rectangle and save the point layer",
				Flags: append(layerFlags,
					&cli.StringFlag{
						Name:     "rect",
						Usage:    "selection rectangle as minx,miny,maxx,maxy",
						Required: true,
					},
					&cli.StringFlag{
						Name:        "output",
						Aliases:     []string{"o"},
						Usage:       "output point layer file",
						DefaultText: "overwrite points",
						TakesFile:   true,
					},
				),
				Action: regroupAction,
			},
			{
				Name:  "serve",
				Usage: "serve the regroup api",
				Flags: append(layerFlags,
					&cli.StringFlag{
						Name:        "listen",
						DefaultText: "from config",
					},
				),
				Action: serveAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup(ctx *cli.Context) (Config, *telemetry.Client, error) {
	cfg, err := loadConfig(ctx.String("config"))
	if err != nil {
		return Config{}, nil, err
	}
	if mode := ctx.String("mode"); mode != "" {
		m, err := regroup.ParseMode(mode)
		if err != nil {
			return Config{}, nil, err
		}
		cfg.Mode = m
	}

	client, err := telemetry.Setup(ctx.Context, appName, cfg.OtelEndpoint)
	if err != nil {
		return Config{}, nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	return cfg, client, nil
}

func shutdown(client *telemetry.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Flush(ctx); err != nil {
		slog.Error("error flushing telemetry", "error", err.Error())
	}
	client.Shutdown(ctx)
}

func loadStore(ctx *cli.Context, cfg Config) (*featurestore.MemoryStore, error) {
	return layerio.LoadStore(ctx.Context, []layerio.Source{
		{Path: ctx.String("points"), Name: cfg.PointLayer, Kind: featurestore.KindPoint},
		{Path: ctx.String("polygons"), Name: cfg.PolygonLayer, Kind: featurestore.KindPolygon},
	}, layerio.WithProgress(ctx.Bool("progress")))
}

func regroupAction(ctx *cli.Context) error {
	rect, err := parseRect(ctx.String("rect"))
	if err != nil {
		return err
	}

	cfg, client, err := setup(ctx)
	if err != nil {
		return err
	}
	defer shutdown(client)

	store, err := loadStore(ctx, cfg)
	if err != nil {
		return err
	}

	r, err := regroup.New(cfg.Config)
	if err != nil {
		return err
	}
	res, err := r.Run(ctx.Context, store, rect)
	if err != nil {
		return err
	}

	output := ctx.String("output")
	if output == "" {
		output = ctx.String("points")
	}
	points, _ := store.Layer(cfg.PointLayer)
	if err := layerio.SaveFile(output, points); err != nil {
		return fmt.Errorf("failed to save points to file: %w", err)
	}

	if sampler, err := stats.NewSampler(); err == nil {
		slog.Info("run stats", sampler.Sample(ctx.Context).LogArgs()...)
	}

	fmt.Printf("Regrouped %d points into polygon %d: removed %d, inserted %d\n", res.Count, res.Polygon, len(res.Removed), len(res.Inserted))
	fmt.Printf("Saved to file: %s\n", output)
	return nil
}

func serveAction(ctx *cli.Context) error {
	cfg, client, err := setup(ctx)
	if err != nil {
		return err
	}
	defer shutdown(client)

	if listen := ctx.String("listen"); listen != "" {
		cfg.Listen = listen
	}

	sampler, err := stats.NewSampler()
	if err != nil {
		return err
	}
	reg, err := sampler.RegisterMetrics(otel.Meter(appName + "/process"))
	if err != nil {
		return err
	}
	defer reg.Unregister()

	slog.Info("Loading layers")
	store, err := loadStore(ctx, cfg)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Run(runCtx, cfg.Listen, store, cfg.Config)
}

// parseRect reads minx,miny,maxx,maxy.
func parseRect(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("rect must have 4 comma separated values, got %q", s)
	}

	var v [4]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("invalid rect value %q: %w", part, err)
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return orb.Bound{}, fmt.Errorf("rect min corner %v,%v is above max corner %v,%v", v[0], v[1], v[2], v[3])
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}
