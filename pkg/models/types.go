package models

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Tier identifies one hierarchical layer of a scenario topology
type Tier string

const (
	TierLeaf        Tier = "leaf"
	TierAccess      Tier = "access"
	TierAggregation Tier = "aggregation"
	TierCore        Tier = "core"
	TierCloud       Tier = "cloud"
)

// Tiers lists every tier bottom-up
var Tiers = []Tier{TierLeaf, TierAccess, TierAggregation, TierCore, TierCloud}

// Level returns the position of the tier in the hierarchy (leaf = 0), or -1
func (t Tier) Level() int {
	for i, tier := range Tiers {
		if tier == t {
			return i
		}
	}
	return -1
}

// Valid reports whether t names a known tier
func (t Tier) Valid() bool {
	return t.Level() >= 0
}

// ModelClass is a discrete workload-complexity category
type ModelClass string

const (
	ModelSmall  ModelClass = "small"
	ModelMedium ModelClass = "medium"
	ModelHeavy  ModelClass = "heavy"
)

// ModelClasses lists the model classes in round-robin order
var ModelClasses = []ModelClass{ModelSmall, ModelMedium, ModelHeavy}

// Medium is the physical medium of a link
type Medium string

const (
	MediumWireless Medium = "wireless"
	MediumWired    Medium = "wired"
)

// QueueDisciplineFIFO is the only supported queue discipline
const QueueDisciplineFIFO = "fifo"

// Node is a device in a scenario topology
type Node struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Tier               Tier    `json:"tier"`
	TierIndex          int     `json:"tier_index"`
	UplinkBandwidthBps float64 `json:"uplink_bandwidth_bps"`
	Parent             int64   `json:"parent"` // primary uplink neighbor, -1 at the top tier
}

// Link is a full-duplex connection between nodes of adjacent tiers.
// From is always the lower-tier endpoint.
type Link struct {
	ID               int           `json:"id"`
	From             int64         `json:"from"`
	To               int64         `json:"to"`
	Medium           Medium        `json:"medium"`
	BandwidthBps     float64       `json:"bandwidth_bps"`
	PropagationDelay time.Duration `json:"propagation_delay_ns"`
	QueueCapacity    int           `json:"queue_capacity"`
	Discipline       string        `json:"discipline"`
	SharedMedium     int64         `json:"shared_medium"` // access node ID for wireless links, -1 otherwise
}

// Hop is one traversal of a link in a given direction
type Hop struct {
	LinkID int   `json:"link_id"`
	From   int64 `json:"from"`
	To     int64 `json:"to"`
}

// Upward reports whether the hop travels from the link's lower endpoint to its upper one
func (h Hop) Upward(l *Link) bool {
	return l.From == h.From
}

// FlowKind distinguishes raw sensor traffic from processing output
type FlowKind string

const (
	FlowKindFrame  FlowKind = "frame"
	FlowKindResult FlowKind = "result"
)

// Flow is a constant-rate packet stream between two nodes
type Flow struct {
	ID           int           `json:"id"`
	Kind         FlowKind      `json:"kind"`
	LeafID       int64         `json:"leaf_id"`
	Origin       int64         `json:"origin"`
	Destination  int64         `json:"destination"`
	PayloadBytes int           `json:"payload_bytes"`
	Interval     time.Duration `json:"interval_ns"`
	Start        time.Duration `json:"start_ns"`
	Stop         time.Duration `json:"stop_ns"`
	Path         []Hop         `json:"path"`
}

// RateBps returns the offered load of the flow in bits per second
func (f *Flow) RateBps() float64 {
	if f.Interval <= 0 {
		return 0
	}
	return float64(f.PayloadBytes*8) / f.Interval.Seconds()
}

// ActiveWindow returns how long the flow injects traffic
func (f *Flow) ActiveWindow() time.Duration {
	if f.Stop <= f.Start {
		return 0
	}
	return f.Stop - f.Start
}

// LeafProfile is the workload assignment of one leaf node
type LeafProfile struct {
	LeafID         int64         `json:"leaf_id"`
	LeafName       string        `json:"leaf_name"`
	ModelClass     ModelClass    `json:"model_class"`
	ProcessingTier Tier          `json:"processing_tier"`
	ProcessingNode int64         `json:"processing_node"`
	SinkNode       int64         `json:"sink_node"`
	FrameSize      int           `json:"frame_size_bytes"`
	FrameInterval  time.Duration `json:"frame_interval_ns"`
	InferenceDelay time.Duration `json:"inference_delay_ns"`
	ResultSize     int           `json:"result_size_bytes"`
	ResultInterval time.Duration `json:"result_interval_ns"`
	FrameFlowID    int           `json:"frame_flow_id"`
	ResultFlowID   int           `json:"result_flow_id"`
}

// ScenarioParams are the structural parameters of one scenario
type ScenarioParams struct {
	Index   int          `json:"index"`
	SubSeed int64        `json:"sub_seed"`
	Sizes   map[Tier]int `json:"tier_sizes"`
}

// Size returns the node count of a tier (0 when the tier is absent)
func (p ScenarioParams) Size(t Tier) int {
	return p.Sizes[t]
}

// PresentTiers returns the tiers with at least one node, bottom-up
func (p ScenarioParams) PresentTiers() []Tier {
	out := make([]Tier, 0, len(Tiers))
	for _, t := range Tiers {
		if p.Sizes[t] > 0 {
			out = append(out, t)
		}
	}
	return out
}

// Scenario is the complete build-phase value of one scenario: topology plus traffic
type Scenario struct {
	Params   ScenarioParams `json:"params"`
	Nodes    []*Node        `json:"nodes"`
	Links    []*Link        `json:"links"`
	Profiles []LeafProfile  `json:"profiles"`
	Flows    []*Flow        `json:"flows"`
}

// ID returns the unique scenario identifier within a batch
func (s *Scenario) ID() string {
	return ScenarioID(s.Params.Index)
}

// ScenarioID formats the identifier of the scenario at index
func ScenarioID(index int) string {
	return fmt.Sprintf("scenario_%04d", index)
}

// LossReason explains why a packet was not delivered
type LossReason string

const (
	LossQueueOverflow  LossReason = "queue_overflow"
	LossHorizonExpired LossReason = "horizon_expired"
)

// FlowResult holds the observed performance of one flow
type FlowResult struct {
	FlowID            int                `json:"flow_id"`
	Kind              FlowKind           `json:"kind"`
	LeafID            int64              `json:"leaf_id"`
	Origin            string             `json:"origin"`
	Destination       string             `json:"destination"`
	OriginTier        Tier               `json:"origin_tier"`
	DestinationTier   Tier               `json:"destination_tier"`
	Hops              int                `json:"hops"`
	PathPropagationMs float64            `json:"path_propagation_ms"`
	OfferedRateMbps   float64            `json:"offered_rate_mbps"`
	OfferedPackets    int64              `json:"offered_packets"`
	DeliveredPackets  int64              `json:"delivered_packets"`
	LostPackets       int64              `json:"lost_packets"`
	LossByReason      map[LossReason]int `json:"loss_by_reason,omitempty"`
	DeliveredBytes    int64              `json:"delivered_bytes"`
	ActiveWindowS     float64            `json:"active_window_s"`
	Latency           Aggregation        `json:"latency_ms"`
	LatencyMs         float64            `json:"mean_latency_ms"`
	ThroughputMbps    float64            `json:"throughput_mbps"`
	LossPct           float64            `json:"loss_pct"`
	Degenerate        bool               `json:"degenerate"`
	QoSSatisfied      bool               `json:"qos_satisfied"`
}

// LinkResult holds the counters of one direction of a link
type LinkResult struct {
	LinkID        int     `json:"link_id"`
	From          string  `json:"from"`
	To            string  `json:"to"`
	Medium        Medium  `json:"medium"`
	Offered       int64   `json:"offered"`
	Forwarded     int64   `json:"forwarded"`
	Dropped       int64   `json:"dropped"`
	Stranded      int64   `json:"stranded"`
	MaxQueueDepth int     `json:"max_queue_depth"`
	BusyS         float64 `json:"busy_s"`
	Utilization   float64 `json:"utilization"`
}

// Conserved reports whether every packet offered to the link is accounted for
func (r LinkResult) Conserved() bool {
	return r.Offered == r.Forwarded+r.Dropped+r.Stranded
}

// Aggregation represents aggregated statistics for a metric
type Aggregation struct {
	Count int64   `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
}

// ScenarioOutput is everything the core emits for one scenario
type ScenarioOutput struct {
	Scenario *Scenario     `json:"-"`
	Flows    []FlowResult  `json:"flows"`
	Links    []LinkResult  `json:"links"`
	Events   int64         `json:"events"`
	Elapsed  time.Duration `json:"elapsed"`
}

// QoSSatisfiedCount returns how many flows met every QoS threshold
func (o *ScenarioOutput) QoSSatisfiedCount() int {
	n := 0
	for _, f := range o.Flows {
		if f.QoSSatisfied {
			n++
		}
	}
	return n
}

// ErrorKind classifies a scenario-level failure
type ErrorKind string

const (
	ErrorKindNone          ErrorKind = ""
	ErrorKindConfig        ErrorKind = "config"
	ErrorKindTopology      ErrorKind = "topology"
	ErrorKindEngineTimeout ErrorKind = "engine_timeout"
	ErrorKindIO            ErrorKind = "io"
	ErrorKindInternal      ErrorKind = "internal"
)

// ScenarioStatus represents the status of a scenario within a batch
type ScenarioStatus string

const (
	ScenarioStatusSucceeded ScenarioStatus = "succeeded"
	ScenarioStatusFailed    ScenarioStatus = "failed"
)

// ScenarioOutcome records how one scenario index ended
type ScenarioOutcome struct {
	Index        int            `json:"index"`
	ScenarioID   string         `json:"scenario_id"`
	SubSeed      int64          `json:"sub_seed"`
	Status       ScenarioStatus `json:"status"`
	ErrorKind    ErrorKind      `json:"error_kind,omitempty"`
	Error        string         `json:"error,omitempty"`
	Flows        int            `json:"flows"`
	QoSSatisfied int            `json:"qos_satisfied"`
	Events       int64          `json:"events"`
	Elapsed      time.Duration  `json:"elapsed"`
}

// BatchReport aggregates the outcomes of a batch run
type BatchReport struct {
	BatchID   string            `json:"batch_id"`
	Seed      int64             `json:"seed"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Outcomes  []ScenarioOutcome `json:"outcomes"`
	mu        sync.Mutex
}

// Record adds a scenario outcome to the report (thread-safe)
func (b *BatchReport) Record(o ScenarioOutcome) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Outcomes = append(b.Outcomes, o)
	if o.Status == ScenarioStatusSucceeded {
		b.Succeeded++
	} else {
		b.Failed++
	}
}

// Finish sorts outcomes by index and stamps the end time
func (b *BatchReport) Finish(end time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sort.Slice(b.Outcomes, func(i, j int) bool { return b.Outcomes[i].Index < b.Outcomes[j].Index })
	b.EndTime = end
}

// Outcome returns the recorded outcome for an index (thread-safe)
func (b *BatchReport) Outcome(index int) (ScenarioOutcome, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.Outcomes {
		if o.Index == index {
			return o, true
		}
	}
	return ScenarioOutcome{}, false
}
