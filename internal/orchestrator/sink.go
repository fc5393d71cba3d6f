package orchestrator

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/GoSim-25-26J-441/netgen/pkg/models"
)

// Output file names
const (
	DescriptorFile = "descriptor.json"
	FlowsFile      = "flows.jsonl"
	LinksFile      = "links.jsonl"
	FlowRecordFile = "flows.pb"
	ManifestFile   = "manifest.json"
)

// Sink persists scenario outputs and the batch manifest
type Sink interface {
	WriteScenario(ctx context.Context, out *models.ScenarioOutput) error
	WriteManifest(ctx context.Context, report *models.BatchReport) error
}

// Descriptor is the structural record of one scenario
type Descriptor struct {
	Index      int                  `json:"index"`
	ScenarioID string               `json:"scenario_id"`
	SubSeed    int64                `json:"sub_seed"`
	TierSizes  map[models.Tier]int  `json:"tier_sizes"`
	Nodes      []*models.Node       `json:"nodes"`
	Links      []*models.Link       `json:"links"`
	Profiles   []models.LeafProfile `json:"profiles"`
	Flows      []*models.Flow       `json:"flows"`
}

// NewDescriptor extracts the descriptor of a scenario
func NewDescriptor(s *models.Scenario) Descriptor {
	return Descriptor{
		Index:      s.Params.Index,
		ScenarioID: s.ID(),
		SubSeed:    s.Params.SubSeed,
		TierSizes:  s.Params.Sizes,
		Nodes:      s.Nodes,
		Links:      s.Links,
		Profiles:   s.Profiles,
		Flows:      s.Flows,
	}
}

// DirSink writes each scenario to its own directory under a root
type DirSink struct {
	root string
}

// NewDirSink creates a sink rooted at dir
func NewDirSink(dir string) *DirSink {
	return &DirSink{root: dir}
}

// ScenarioDir returns the directory of the scenario at index
func (d *DirSink) ScenarioDir(index int) string {
	return filepath.Join(d.root, models.ScenarioID(index))
}

// WriteScenario writes the descriptor, the JSON lines results and the binary
// flow records. A rewrite replaces every file.
func (d *DirSink) WriteScenario(ctx context.Context, out *models.ScenarioOutput) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := d.ScenarioDir(out.Scenario.Params.Index)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create scenario directory: %w", err)
	}

	if err := writeJSON(filepath.Join(dir, DescriptorFile), NewDescriptor(out.Scenario)); err != nil {
		return err
	}
	if err := writeLines(filepath.Join(dir, FlowsFile), len(out.Flows), func(i int) any { return out.Flows[i] }); err != nil {
		return err
	}
	if err := writeLines(filepath.Join(dir, LinksFile), len(out.Links), func(i int) any { return out.Links[i] }); err != nil {
		return err
	}

	var records []byte
	for _, f := range out.Flows {
		records = AppendFlowRecord(records, f)
	}
	if err := os.WriteFile(filepath.Join(dir, FlowRecordFile), records, 0o644); err != nil {
		return fmt.Errorf("failed to write flow records: %w", err)
	}
	return nil
}

// WriteManifest writes the batch report to the root
func (d *DirSink) WriteManifest(ctx context.Context, report *models.BatchReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return writeJSON(filepath.Join(d.root, ManifestFile), report)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeLines(path string, n int, item func(int) any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := 0; i < n; i++ {
		if err := enc.Encode(item(i)); err != nil {
			f.Close()
			return fmt.Errorf("failed to encode %s line %d: %w", filepath.Base(path), i, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// MemorySink keeps outputs in memory
type MemorySink struct {
	mu       sync.Mutex
	outputs  map[int]*models.ScenarioOutput
	manifest *models.BatchReport
}

// NewMemorySink creates an empty in-memory sink
func NewMemorySink() *MemorySink {
	return &MemorySink{outputs: make(map[int]*models.ScenarioOutput)}
}

// WriteScenario stores the output under its scenario index
func (m *MemorySink) WriteScenario(_ context.Context, out *models.ScenarioOutput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs[out.Scenario.Params.Index] = out
	return nil
}

// WriteManifest stores the report
func (m *MemorySink) WriteManifest(_ context.Context, report *models.BatchReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manifest = report
	return nil
}

// Output returns the stored output of a scenario
func (m *MemorySink) Output(index int) (*models.ScenarioOutput, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out, ok := m.outputs[index]
	return out, ok
}

// Len returns how many scenarios were written
func (m *MemorySink) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.outputs)
}

// Manifest returns the stored report, if any
func (m *MemorySink) Manifest() *models.BatchReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.manifest
}
