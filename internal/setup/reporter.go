package setup

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cdgriffith/pi-streaming-setup/internal/events"
)

// Reporter collects install events from the bus and renders an
// end-of-run summary so the operator sees every file touched, every
// file left alone and every advisory in one place.
type Reporter struct {
	mu         sync.Mutex
	installed  []events.ArtifactInstalledEvent
	skipped    []events.ArtifactSkippedEvent
	advisories []events.AdvisoryEvent
	devices    []events.DeviceDiscoveredEvent
	relay      *events.RelayInstalledEvent
	unsubs     []func()
}

// NewReporter subscribes a reporter to the bus.
func NewReporter(bus *events.Bus) *Reporter {
	r := &Reporter{}
	r.unsubs = append(r.unsubs,
		bus.Subscribe(func(e events.ArtifactInstalledEvent) {
			r.mu.Lock()
			r.installed = append(r.installed, e)
			r.mu.Unlock()
		}),
		bus.Subscribe(func(e events.ArtifactSkippedEvent) {
			r.mu.Lock()
			r.skipped = append(r.skipped, e)
			r.mu.Unlock()
		}),
		bus.Subscribe(func(e events.AdvisoryEvent) {
			r.mu.Lock()
			r.advisories = append(r.advisories, e)
			r.mu.Unlock()
		}),
		bus.Subscribe(func(e events.DeviceDiscoveredEvent) {
			r.mu.Lock()
			r.devices = append(r.devices, e)
			r.mu.Unlock()
		}),
		bus.Subscribe(func(e events.RelayInstalledEvent) {
			r.mu.Lock()
			r.relay = &e
			r.mu.Unlock()
		}),
	)
	return r
}

// Summary writes the collected events to w. The dispatcher delivers on
// its own goroutine, so in-flight events are given a moment to land
// before the subscriptions are torn down.
func (r *Reporter) Summary(w io.Writer) {
	time.Sleep(50 * time.Millisecond)
	for _, unsub := range r.unsubs {
		unsub()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.devices {
		formats := make([]string, 0, len(e.Formats))
		for name := range e.Formats {
			formats = append(formats, name)
		}
		sort.Strings(formats)
		fmt.Fprintf(w, "%-12s %s (%s)\n", "camera", e.Path, strings.Join(formats, ", "))
	}
	for _, e := range r.installed {
		fmt.Fprintf(w, "%-12s %s\n", e.Action, e.Path)
	}
	for _, e := range r.skipped {
		fmt.Fprintf(w, "%-12s %s (%s)\n", "unchanged", e.Path, e.Reason)
	}
	if r.relay != nil {
		fmt.Fprintf(w, "%-12s %s %s in %s\n", "relay", r.relay.Asset, r.relay.Version, r.relay.Dir)
	}
	for _, e := range r.advisories {
		fmt.Fprintf(w, "%-12s %s\n", "advisory", e.Message)
	}
}
