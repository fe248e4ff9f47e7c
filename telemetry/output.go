package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/inkflow/config"
)

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir        string
	statsFile  *os.File
	perfFile   *os.File
	colorsFile *os.File

	// Track if headers have been written
	statsHeaderWritten  bool
	perfHeaderWritten   bool
	colorsHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	for _, out := range []struct {
		name string
		dst  **os.File
	}{
		{"stats.csv", &om.statsFile},
		{"perf.csv", &om.perfFile},
		{"colors.csv", &om.colorsFile},
	} {
		f, err := os.Create(filepath.Join(dir, out.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", out.name, err)
		}
		*out.dst = f
	}

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteStats writes a window stats record to stats.csv.
func (om *OutputManager) WriteStats(stats WindowStats) error {
	if om == nil {
		return nil
	}

	records := []WindowStats{stats}

	if !om.statsHeaderWritten {
		if err := gocsv.Marshal(records, om.statsFile); err != nil {
			return fmt.Errorf("writing stats: %w", err)
		}
		om.statsHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.statsFile); err != nil {
			return fmt.Errorf("writing stats: %w", err)
		}
	}

	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}

	records := []PerfStatsCSV{stats.ToCSV(windowEnd)}

	if !om.perfHeaderWritten {
		if err := gocsv.Marshal(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		om.perfHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
	}

	return nil
}

// WriteColors writes a dye statistics record to colors.csv.
func (om *OutputManager) WriteColors(sample ColorSample) error {
	if om == nil {
		return nil
	}

	records := []ColorSample{sample}

	if !om.colorsHeaderWritten {
		if err := gocsv.Marshal(records, om.colorsFile); err != nil {
			return fmt.Errorf("writing colors: %w", err)
		}
		om.colorsHeaderWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, om.colorsFile); err != nil {
			return fmt.Errorf("writing colors: %w", err)
		}
	}

	return nil
}

// Path returns name joined to the output directory, or name itself when
// output is disabled.
func (om *OutputManager) Path(name string) string {
	if om == nil {
		return name
	}
	return filepath.Join(om.dir, name)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.statsFile, om.perfFile, om.colorsFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
