package metric

import (
	"expvar"
	"fmt"
	"sort"
	"sync"
)

const componentsLabel = "auditraq"

const (
	// EventCounter measures number of events.
	EventCounter = "Events"
	// BundleCounter measures number of sent bundles.
	BundleCounter = "Bundles"
	// SendErrorCounter measures number of dropped bundles.
	SendErrorCounter = "SendErrors"
	// BeatCounter measures number of detected beats.
	BeatCounter = "Beats"
	// LatencyCounter holds the latest prediction latency in ms.
	LatencyCounter = "Latency"
)

var (
	components = metrics{
		m: make(map[string]*Metric),
	}

	counters = []string{
		EventCounter,
		BundleCounter,
		SendErrorCounter,
		BeatCounter,
		LatencyCounter,
	}
)

// Get metrics values for provided component.
func Get(component string) map[string]string {
	return getCounters(component)
}

// Components returns sorted names of measured components.
func Components() []string {
	components.Lock()
	defer components.Unlock()
	names := make([]string, 0, len(components.m))
	for component := range components.m {
		names = append(names, component)
	}
	sort.Strings(names)
	return names
}

func getCounters(component string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(component, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// Metric holds counters of a single component. Counters are shared by all
// meters of the same component.
type Metric struct {
	events     *expvar.Int
	bundles    *expvar.Int
	sendErrors *expvar.Int
	beats      *expvar.Int
	latency    *expvar.Int
}

// Meter returns the metric for the component. Nil-safe methods allow to
// pass nil metric where measurement is not needed.
func Meter(component string) *Metric {
	return components.get(component)
}

// Event counts n outbound events.
func (m *Metric) Event(n int) {
	if m == nil {
		return
	}
	m.events.Add(int64(n))
}

// Bundle counts sent bundle.
func (m *Metric) Bundle() {
	if m == nil {
		return
	}
	m.bundles.Add(1)
}

// SendError counts dropped bundle.
func (m *Metric) SendError() {
	if m == nil {
		return
	}
	m.sendErrors.Add(1)
}

// Beat counts detected beat.
func (m *Metric) Beat() {
	if m == nil {
		return
	}
	m.beats.Add(1)
}

// Latency stores the latest latency sample.
func (m *Metric) Latency(ms int64) {
	if m == nil {
		return
	}
	m.latency.Set(ms)
}

type metrics struct {
	sync.Mutex
	m map[string]*Metric
}

func (m *metrics) get(component string) *Metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[component]; ok {
		// return existing metric if available
		return metric
	}
	metric := newMetric(component)
	m.m[component] = metric
	return metric
}

func newMetric(component string) *Metric {
	return &Metric{
		events:     expvar.NewInt(key(component, EventCounter)),
		bundles:    expvar.NewInt(key(component, BundleCounter)),
		sendErrors: expvar.NewInt(key(component, SendErrorCounter)),
		beats:      expvar.NewInt(key(component, BeatCounter)),
		latency:    expvar.NewInt(key(component, LatencyCounter)),
	}
}

func key(component, counter string) string {
	return fmt.Sprintf("%s.%s.%s", componentsLabel, component, counter)
}
