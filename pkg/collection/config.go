package collection

import (
	"encoding/json"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"

	"github.com/cyberlife-coder/velesdb/internal/verr"
	"github.com/cyberlife-coder/velesdb/pkg/distance"
	"github.com/cyberlife-coder/velesdb/pkg/quantize"
)

// Config is a collection's persisted metadata: dimension, metric,
// storage mode, and the bookkeeping fields analyze() refreshes.
// Written to config.json alongside a trailing CRC32 of its own bytes,
// the same self-checksum convention id_mappings.bin uses.
type Config struct {
	Dimension    int           `json:"dimension"`
	Metric       string        `json:"metric"`
	StorageMode  string        `json:"storage_mode"`
	PointCount   int           `json:"point_count"`
	LastAnalyzed time.Time     `json:"last_analyzed"`
	HNSWM        int           `json:"hnsw_m"`
	EfConstruct  int           `json:"hnsw_ef_construction"`
	EfSearch     int           `json:"hnsw_ef_search"`
	VectorStore  bool          `json:"enable_vector_storage"`
	AutoReindex  AutoReindex   `json:"auto_reindex"`
}

// AutoReindex mirrors pkg/hnsw's reindex policy knobs so they can be
// set from a collection's on-disk config rather than only in code.
type AutoReindex struct {
	Enabled                  bool          `json:"enabled"`
	Threshold                float64       `json:"threshold"`
	MinSize                  int           `json:"min_size"`
	MaxLatencyRegressionPct  float64       `json:"max_latency_regression_pct"`
	MaxRecallRegressionPct   float64       `json:"max_recall_regression_pct"`
	Cooldown                 time.Duration `json:"cooldown_secs"`
}

// DefaultConfig returns the documented defaults for dim vectors under
// metric: M=16, ef_construction=200, ef_search=128, full storage mode,
// vector storage enabled, auto-reindex on with a 1.5x threshold.
func DefaultConfig(dim int, metric distance.Metric) Config {
	return Config{
		Dimension:   dim,
		Metric:      metric.String(),
		StorageMode: quantize.ModeNone.String(),
		HNSWM:       16,
		EfConstruct: 200,
		EfSearch:    128,
		VectorStore: true,
		AutoReindex: AutoReindex{
			Enabled:                 true,
			Threshold:               1.5,
			MinSize:                 1000,
			MaxLatencyRegressionPct: 20,
			MaxRecallRegressionPct:  5,
			Cooldown:                5 * time.Minute,
		},
	}
}

func (c Config) metric() distance.Metric {
	switch c.Metric {
	case "euclidean":
		return distance.Euclidean
	case "dot":
		return distance.Dot
	case "hamming":
		return distance.Hamming
	case "jaccard":
		return distance.Jaccard
	default:
		return distance.Cosine
	}
}

func (c Config) mode() quantize.Mode {
	switch c.StorageMode {
	case "sq8":
		return quantize.ModeSQ8
	case "binary":
		return quantize.ModeBinary
	default:
		return quantize.ModeNone
	}
}

func configPath(dir string) string { return filepath.Join(dir, "config.json") }

// writeConfig marshals cfg to configPath(dir) with a trailing 4-byte
// big-endian CRC32 of the JSON body, so a truncated or bit-flipped
// write is detected on the next open rather than silently misread.
func writeConfig(dir string, cfg Config) error {
	body, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return verr.Wrap(verr.KindSerialization, err, "marshal config")
	}
	sum := crc32.ChecksumIEEE(body)
	out := make([]byte, 0, len(body)+4)
	out = append(out, body...)
	out = append(out, byte(sum>>24), byte(sum>>16), byte(sum>>8), byte(sum))
	if err := os.WriteFile(configPath(dir), out, 0o644); err != nil {
		return verr.Wrap(verr.KindIO, err, "write config.json")
	}
	return nil
}

func readConfig(dir string) (Config, error) {
	var cfg Config
	raw, err := os.ReadFile(configPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, verr.New(verr.KindCollectionNotFound, "no collection at %s", dir)
		}
		return cfg, verr.Wrap(verr.KindIO, err, "read config.json")
	}
	if len(raw) < 4 {
		return cfg, verr.New(verr.KindIndexCorrupted, "config.json truncated at %s", dir)
	}
	body, trailer := raw[:len(raw)-4], raw[len(raw)-4:]
	want := uint32(trailer[0])<<24 | uint32(trailer[1])<<16 | uint32(trailer[2])<<8 | uint32(trailer[3])
	if crc32.ChecksumIEEE(body) != want {
		return cfg, verr.New(verr.KindIndexCorrupted, "config.json checksum mismatch at %s", dir)
	}
	if err := json.Unmarshal(body, &cfg); err != nil {
		return cfg, verr.Wrap(verr.KindSerialization, err, "unmarshal config")
	}
	return cfg, nil
}
