package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Dataset names as they appear in the payload.
const (
	DatasetRain = "rain"
	DatasetTemp = "temp"
	DatasetWind = "wind"
)

// Dataset is the reduced point lists for one valid time.
type Dataset struct {
	Rain []RainPoint `json:"rain"`
	Temp []TempPoint `json:"temp"`
	Wind []WindPoint `json:"wind"`
}

// Payload is the document served to the map client.
type Payload struct {
	Times    []string           `json:"times"`
	Datasets map[string]Dataset `json:"datasets"`
}

// TransformStats summarizes one BuildPayload call for logging and metrics.
type TransformStats struct {
	Rows         int
	Unclassified int
	Classified   map[Class]int
	Points       map[string]int

	// MisalignedWind lists valid times whose U and V subsets differed in
	// length and therefore have an empty wind list.
	MisalignedWind []string
}

// BuildPayload runs the whole transform: classify, derive the timeline from
// precipitation, and reduce every dataset per valid time. opts must be valid.
func BuildPayload(records []Record, opts Options) (Payload, TransformStats) {
	subsets := ClassifyRecords(records)
	times := BuildTimeline(subsets.Precipitation)

	stats := TransformStats{
		Rows:         len(records),
		Unclassified: subsets.Unclassified,
		Classified:   make(map[Class]int, len(Classes)),
		Points:       map[string]int{DatasetRain: 0, DatasetTemp: 0, DatasetWind: 0},
	}
	for _, c := range Classes {
		stats.Classified[c] = len(subsets.Of(c))
	}

	rain := groupByTime(subsets.Precipitation)
	temp := groupByTime(subsets.Temperature)
	windU := groupByTime(subsets.WindU)
	windV := groupByTime(subsets.WindV)

	payload := Payload{
		Times:    times,
		Datasets: make(map[string]Dataset, len(times)),
	}
	for _, t := range times {
		wind, aligned := TransformWind(windU[t], windV[t], opts)
		if !aligned {
			stats.MisalignedWind = append(stats.MisalignedWind, t)
		}
		ds := Dataset{
			Rain: TransformPrecipitation(rain[t], opts),
			Temp: TransformTemperature(temp[t], opts),
			Wind: wind,
		}
		stats.Points[DatasetRain] += len(ds.Rain)
		stats.Points[DatasetTemp] += len(ds.Temp)
		stats.Points[DatasetWind] += len(ds.Wind)
		payload.Datasets[t] = ds
	}

	return payload, stats
}

// SerializePayload encodes the payload as compact JSON. Map keys are sorted by
// encoding/json, so identical payloads yield identical bytes.
func SerializePayload(p Payload) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("serialize payload: %w", err)
	}
	return data, nil
}

// Artifact is a serialized payload ready to be written or published.
type Artifact struct {
	Cycle  time.Time
	Data   []byte
	Digest uint64
	Times  int
}

// NewArtifact serializes p and computes its xxhash64 digest.
func NewArtifact(cycle time.Time, p Payload) (Artifact, error) {
	data, err := SerializePayload(p)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{
		Cycle:  cycle,
		Data:   data,
		Digest: xxhash.Sum64(data),
		Times:  len(p.Times),
	}, nil
}

// DigestHex renders the digest as 16 lower-case hex digits.
func (a Artifact) DigestHex() string {
	return fmt.Sprintf("%016x", a.Digest)
}
