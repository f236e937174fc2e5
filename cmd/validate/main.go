// Command validate checks a published map payload for structural and
// numeric integrity, and optionally that it is exactly what the transform
// produces from a given CSV table and that its compressed siblings match.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -payload public/weather_data.json \
//	  -csv latest_output.csv \
//	  -siblings gzip,zstd,lz4
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/couchcryptid/msm-weather-map/internal/adapter/wgrib2"
	"github.com/couchcryptid/msm-weather-map/internal/config"
	"github.com/couchcryptid/msm-weather-map/internal/domain"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// MSM surface grid extent.
const (
	minLat, maxLat = 22.4, 47.6
	minLon, maxLon = 120.0, 150.0
)

// siblingExt maps compression names to file suffixes written by the service.
var siblingExt = map[string]string{"gzip": ".gz", "zstd": ".zst", "lz4": ".lz4"}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	payloadPath := flag.String("payload", "weather_data.json", "path to the payload JSON")
	csvPath := flag.String("csv", "", "optional CSV table to rebuild the payload from")
	transformConfig := flag.String("config", "", "optional YAML file overriding transform options")
	siblings := flag.String("siblings", "", "comma list of compressed siblings to verify: gzip, zstd, lz4")
	flag.Parse()

	os.Exit(run(*payloadPath, *csvPath, *transformConfig, *siblings))
}

func run(payloadPath, csvPath, transformConfig, siblings string) int {
	fmt.Println("=== Weather Map Payload Validation ===")
	fmt.Println()

	opts := domain.DefaultOptions()
	if transformConfig != "" {
		var err error
		if opts, err = config.LoadTransformOptions(transformConfig); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			return 1
		}
	}

	data, err := os.ReadFile(payloadPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read payload: %v\n", err)
		return 1
	}

	var payload domain.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: decode payload: %v\n", err)
		return 1
	}

	// ── Run validation phases ──
	phases := []*phase{
		validateStructure(data, payload),
		validatePoints(payload, opts),
	}
	if csvPath != "" {
		phases = append(phases, validateReproducible(data, csvPath, opts))
	}
	if siblings != "" {
		phases = append(phases, validateSiblings(data, payloadPath, siblings))
	}

	// ── Report results ──
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Payload: %d bytes, %d times, digest %016x\n", len(data), len(payload.Times), xxhash.Sum64(data))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: structure ──

func validateStructure(data []byte, payload domain.Payload) *phase {
	p := &phase{name: "Phase 1: Structure (times, datasets)"}

	var raw struct {
		Times    json.RawMessage                       `json:"times"`
		Datasets map[string]map[string]json.RawMessage `json:"datasets"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		p.errorf("decode: %v", err)
		return p
	}
	if string(raw.Times) == "null" || raw.Times == nil {
		p.errorf("times is missing or null")
	}
	if raw.Datasets == nil {
		p.errorf("datasets is missing or null")
	}

	for i := 1; i < len(payload.Times); i++ {
		if payload.Times[i-1] >= payload.Times[i] {
			p.errorf("times not strictly ascending at %d: %q then %q", i, payload.Times[i-1], payload.Times[i])
		}
	}

	if len(raw.Datasets) != len(payload.Times) {
		p.errorf("datasets has %d keys, times has %d entries", len(raw.Datasets), len(payload.Times))
	}
	for _, t := range payload.Times {
		ds, ok := raw.Datasets[t]
		if !ok {
			p.errorf("no dataset for time %q", t)
			continue
		}
		for _, name := range []string{domain.DatasetRain, domain.DatasetTemp, domain.DatasetWind} {
			v, ok := ds[name]
			if !ok || string(v) == "null" {
				p.errorf("%s: %s list is missing or null", t, name)
			}
		}
	}
	return p
}

// ── Phase 2: point invariants ──

func validatePoints(payload domain.Payload, opts domain.Options) *phase {
	p := &phase{name: "Phase 2: Point Invariants"}
	for _, t := range payload.Times {
		ds := payload.Datasets[t]
		for i, r := range ds.Rain {
			checkLatLon(p, t, domain.DatasetRain, i, r[0], r[1])
			if r[2] <= opts.RainMinValue {
				p.errorf("%s rain[%d]: value %g not above %g", t, i, r[2], opts.RainMinValue)
			}
		}
		for i, r := range ds.Temp {
			checkLatLon(p, t, domain.DatasetTemp, i, r[0], r[1])
			if r[2] < -100 || r[2] > 60 {
				p.errorf("%s temp[%d]: %g °C is implausible, was the Kelvin offset applied?", t, i, r[2])
			}
		}
		for i, w := range ds.Wind {
			checkLatLon(p, t, domain.DatasetWind, i, w[0], w[1])
			if w[2] <= opts.WindMinSpeed {
				p.errorf("%s wind[%d]: speed %g not above %g", t, i, w[2], opts.WindMinSpeed)
			}
			if w[3] < -180 || w[3] > 180 {
				p.errorf("%s wind[%d]: direction %g outside [-180, 180]", t, i, w[3])
			}
			if !hasPrecision(w[2], opts.WindPrecision) || !hasPrecision(w[3], opts.WindPrecision) {
				p.errorf("%s wind[%d]: speed %g / direction %g exceed %d decimals", t, i, w[2], w[3], opts.WindPrecision)
			}
		}
	}
	return p
}

func checkLatLon(p *phase, t, dataset string, i int, lat, lon float64) {
	if lat < minLat || lat > maxLat || lon < minLon || lon > maxLon {
		p.errorf("%s %s[%d]: (%g, %g) outside the MSM grid", t, dataset, i, lat, lon)
	}
}

func hasPrecision(v float64, decimals int) bool {
	scaled := v * math.Pow10(decimals)
	return math.Abs(scaled-math.Round(scaled)) < 1e-6
}

// ── Phase 3: reproducibility ──

func validateReproducible(data []byte, csvPath string, opts domain.Options) *phase {
	p := &phase{name: "Phase 3: Reproducible from CSV"}

	reader := wgrib2.NewReader(domain.ParseStrict, slog.New(slog.NewTextHandler(io.Discard, nil)))
	table, err := reader.Extract(context.Background(), csvPath)
	if err != nil {
		p.errorf("read %s: %v", csvPath, err)
		return p
	}

	payload, _ := domain.BuildPayload(table.Records, opts)
	rebuilt, err := domain.SerializePayload(payload)
	if err != nil {
		p.errorf("serialize: %v", err)
		return p
	}
	if !bytes.Equal(data, rebuilt) {
		p.errorf("payload digest %016x differs from rebuilt %016x (%d vs %d bytes)",
			xxhash.Sum64(data), xxhash.Sum64(rebuilt), len(data), len(rebuilt))
	}
	return p
}

// ── Phase 4: compressed siblings ──

func validateSiblings(data []byte, payloadPath, list string) *phase {
	p := &phase{name: "Phase 4: Compressed Siblings"}
	for _, name := range strings.Split(list, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		ext, ok := siblingExt[name]
		if !ok {
			p.errorf("unknown compression %q", name)
			continue
		}
		got, err := decompressFile(payloadPath+ext, name)
		if err != nil {
			p.errorf("%s: %v", name, err)
			continue
		}
		if !bytes.Equal(got, data) {
			p.errorf("%s: decompressed content differs from payload", name)
		}
	}
	return p
}

func decompressFile(path, name string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader
	switch name {
	case "gzip":
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	case "zstd":
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	case "lz4":
		r = lz4.NewReader(f)
	}
	return io.ReadAll(r)
}
