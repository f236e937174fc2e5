// Command transform reads a wgrib2 -csv table and writes the map payload
// without downloading or converting anything. It runs the same reader and
// payload assembler as the service, so its output matches a pipeline run
// over the same table byte for byte.
//
// Usage:
//
//	go run ./cmd/transform \
//	  -csv latest_output.csv \
//	  -out public/weather_data.json \
//	  -compress gzip,zstd
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/msm-weather-map/internal/adapter/filestore"
	"github.com/couchcryptid/msm-weather-map/internal/adapter/wgrib2"
	"github.com/couchcryptid/msm-weather-map/internal/config"
	"github.com/couchcryptid/msm-weather-map/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "latest_output.csv", "wgrib2 -csv table to read")
	outPath := flag.String("out", "weather_data.json", "output path for the payload")
	mode := flag.String("mode", string(domain.ParseStrict), "parse mode: strict or lenient")
	transformConfig := flag.String("config", "", "optional YAML file overriding transform options")
	compress := flag.String("compress", "", "comma list of compressed siblings: gzip, zstd, lz4")
	verbose := flag.Bool("v", false, "log reader and writer progress")
	flag.Parse()

	parseMode := domain.ParseMode(strings.ToLower(*mode))
	if !parseMode.Valid() {
		flag.Usage()
		return fmt.Errorf("invalid -mode %q", *mode)
	}

	opts := domain.DefaultOptions()
	if *transformConfig != "" {
		var err error
		if opts, err = config.LoadTransformOptions(*transformConfig); err != nil {
			return err
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	ctx := context.Background()
	start := time.Now()

	table, err := wgrib2.NewReader(parseMode, logger).Extract(ctx, *csvPath)
	if err != nil {
		return err
	}
	log.Printf("read %d rows from %s (%d rejected)", table.Len(), *csvPath, table.Rejected)

	payload, stats := domain.BuildPayload(table.Records, opts)
	artifact, err := domain.NewArtifact(time.Time{}, payload)
	if err != nil {
		return err
	}

	var siblings []string
	for _, s := range strings.Split(*compress, ",") {
		if s = strings.TrimSpace(s); s != "" {
			siblings = append(siblings, s)
		}
	}
	store, err := filestore.NewStore(*outPath, siblings, logger)
	if err != nil {
		return err
	}
	if err := store.Load(ctx, artifact); err != nil {
		return fmt.Errorf("writing payload: %w", err)
	}
	log.Printf("wrote %s (%d bytes, digest %s) in %s",
		*outPath, len(artifact.Data), artifact.DigestHex(), time.Since(start).Round(time.Millisecond))

	printStats(payload, stats)
	return nil
}

func printStats(p domain.Payload, stats domain.TransformStats) {
	fmt.Println("\n=== Payload stats ===")
	fmt.Printf("Rows: %d (unclassified %d)\n", stats.Rows, stats.Unclassified)
	fmt.Printf("By class: precipitation=%d, temperature=%d, wind_u=%d, wind_v=%d\n",
		stats.Classified[domain.ClassPrecipitation], stats.Classified[domain.ClassTemperature],
		stats.Classified[domain.ClassWindU], stats.Classified[domain.ClassWindV])
	fmt.Printf("Points: rain=%d, temp=%d, wind=%d\n",
		stats.Points[domain.DatasetRain], stats.Points[domain.DatasetTemp], stats.Points[domain.DatasetWind])
	fmt.Printf("Times: %d\n", len(p.Times))

	if len(stats.MisalignedWind) > 0 {
		fmt.Printf("Misaligned wind (empty lists): %s\n", strings.Join(stats.MisalignedWind, ", "))
	}

	fmt.Println("\nPer valid time:")
	for _, t := range p.Times {
		ds := p.Datasets[t]
		fmt.Printf("  %s  rain=%-6d temp=%-6d wind=%-6d\n", t, len(ds.Rain), len(ds.Temp), len(ds.Wind))
	}
}
