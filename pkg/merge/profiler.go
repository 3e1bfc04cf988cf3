package merge

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agentstation/assetpipe/pkg/asset"
)

// Phase is a profiler category.
type Phase string

// Profiler phases.
const (
	PhaseImport       Phase = "IMPORT"
	PhaseMapping      Phase = "MAPPING"
	PhaseTransferData Phase = "TRANSFER_DATA"
	PhaseObjects      Phase = "OBJECTS"
	PhaseIndexes      Phase = "INDEXES"
	PhaseCollections  Phase = "COLLECTIONS"
	PhaseSharedIDs    Phase = "SHARED_IDS"
	PhaseMerge        Phase = "MERGE"
	PhaseTotal        Phase = "TOTAL"
)

var phaseOrder = []Phase{
	PhaseImport,
	PhaseMapping,
	PhaseTransferData,
	PhaseObjects,
	PhaseIndexes,
	PhaseCollections,
	PhaseSharedIDs,
	PhaseMerge,
	PhaseTotal,
}

const metricsNamespace = "assetpipe"

// Profiler records how long each merge phase and each transfer kind took,
// split by direction. Durations go into Prometheus histograms on a private
// registry and into running totals used by Summary.
type Profiler struct {
	registry      *prometheus.Registry
	phaseDuration *prometheus.HistogramVec
	kindDuration  *prometheus.HistogramVec

	mu     sync.RWMutex
	phases map[Direction]map[Phase]time.Duration
	kinds  map[Direction]map[asset.Kind]time.Duration
}

// NewProfiler returns a Profiler with its own registry.
func NewProfiler() *Profiler {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Profiler{
		registry: reg,
		phaseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "merge",
			Name:      "phase_duration_seconds",
			Help:      "Merge phase duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"direction", "phase"}),
		kindDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "merge",
			Name:      "transfer_duration_seconds",
			Help:      "Transfer duration per sub-item kind in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"direction", "kind"}),
		phases: make(map[Direction]map[Phase]time.Duration),
		kinds:  make(map[Direction]map[asset.Kind]time.Duration),
	}
}

// Registry returns the registry the histograms are registered on.
func (p *Profiler) Registry() *prometheus.Registry {
	return p.registry
}

// Observe adds d to a phase.
func (p *Profiler) Observe(dir Direction, phase Phase, d time.Duration) {
	p.phaseDuration.WithLabelValues(dir.String(), string(phase)).Observe(d.Seconds())
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.phases[dir] == nil {
		p.phases[dir] = make(map[Phase]time.Duration)
	}
	p.phases[dir][phase] += d
}

// ObserveKind adds d to a transfer kind.
func (p *Profiler) ObserveKind(dir Direction, kind asset.Kind, d time.Duration) {
	p.kindDuration.WithLabelValues(dir.String(), kind.String()).Observe(d.Seconds())
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.kinds[dir] == nil {
		p.kinds[dir] = make(map[asset.Kind]time.Duration)
	}
	p.kinds[dir][kind] += d
}

// Start returns a function that observes the time elapsed since Start.
func (p *Profiler) Start(dir Direction, phase Phase) func() {
	started := time.Now()
	return func() {
		p.Observe(dir, phase, time.Since(started))
	}
}

// Total returns the accumulated duration of a phase.
func (p *Profiler) Total(dir Direction, phase Phase) time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.phases[dir][phase]
}

// KindTotal returns the accumulated transfer duration of a kind.
func (p *Profiler) KindTotal(dir Direction, kind asset.Kind) time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.kinds[dir][kind]
}

// Reset forgets the running totals. Histograms keep their samples.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phases = make(map[Direction]map[Phase]time.Duration)
	p.kinds = make(map[Direction]map[asset.Kind]time.Duration)
}

// Summary formats the totals per direction, phases first, then kinds.
func (p *Profiler) Summary() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var sb strings.Builder
	for _, dir := range []Direction{Pull, Push} {
		phases, kinds := p.phases[dir], p.kinds[dir]
		if len(phases) == 0 && len(kinds) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "%s:\n", strings.ToUpper(dir.String()))
		for _, phase := range phaseOrder {
			if d, ok := phases[phase]; ok {
				fmt.Fprintf(&sb, "  %-14s %s\n", phase, d.Round(time.Microsecond))
			}
		}
		names := make([]asset.Kind, 0, len(kinds))
		for k := range kinds {
			names = append(names, k)
		}
		slices.Sort(names)
		for _, k := range names {
			fmt.Fprintf(&sb, "    %-12s %s\n", k, kinds[k].Round(time.Microsecond))
		}
	}
	return sb.String()
}
