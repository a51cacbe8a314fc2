package testing

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/imamik/onpremctl/internal/provisioning"
	"github.com/imamik/onpremctl/internal/task"
)

// FakeLauncher keeps an in-memory inventory of launched nodes.
type FakeLauncher struct {
	mu sync.Mutex

	// Address is assigned as the head address of every launched node.
	Address string
	// Platform is reported in handles.
	Platform string
	// HiddenLookups is how many lookups report "not found" before the
	// handle becomes visible, simulating an eventually consistent inventory.
	HiddenLookups int
	// LaunchErr, if set, is returned by Launch after recording the task.
	LaunchErr error

	nodes      map[string]*provisioning.ClusterHandle
	tasks      map[string]*task.Descriptor
	lookups    map[string]int
	terminated []string
}

// NewFakeLauncher creates a launcher that assigns address to every node.
func NewFakeLauncher(address string) *FakeLauncher {
	return &FakeLauncher{
		Address:  address,
		Platform: "fake",
		nodes:    make(map[string]*provisioning.ClusterHandle),
		tasks:    make(map[string]*task.Descriptor),
		lookups:  make(map[string]int),
	}
}

// Launch implements provisioning.Launcher. The task file is parsed so tests
// can inspect what was submitted.
func (f *FakeLauncher) Launch(_ context.Context, name, taskFile string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.nodes[name]; exists {
		return fmt.Errorf("cluster %s already exists", name)
	}
	if _, err := os.Stat(taskFile); err != nil {
		return fmt.Errorf("task file: %w", err)
	}
	d, err := task.Load(taskFile)
	if err != nil {
		return err
	}
	f.tasks[name] = d
	if f.LaunchErr != nil {
		return f.LaunchErr
	}

	f.nodes[name] = &provisioning.ClusterHandle{
		Name:        name,
		ID:          fmt.Sprintf("%d", len(f.nodes)+1),
		Platform:    f.Platform,
		HeadAddress: f.Address,
	}
	return nil
}

// LookupHandle implements provisioning.Launcher.
func (f *FakeLauncher) LookupHandle(_ context.Context, name string) (*provisioning.ClusterHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lookups[name]++
	if f.lookups[name] <= f.HiddenLookups {
		return nil, nil
	}
	h, ok := f.nodes[name]
	if !ok {
		return nil, nil
	}
	copied := *h
	return &copied, nil
}

// Terminate implements provisioning.Launcher.
func (f *FakeLauncher) Terminate(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.nodes, name)
	f.terminated = append(f.terminated, name)
	return nil
}

// Task returns the descriptor submitted for name.
func (f *FakeLauncher) Task(name string) *task.Descriptor {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tasks[name]
}

// Nodes returns the names of all live nodes.
func (f *FakeLauncher) Nodes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.nodes))
	for name := range f.nodes {
		names = append(names, name)
	}
	return names
}

// Lookups returns how many times name was looked up.
func (f *FakeLauncher) Lookups(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups[name]
}

// Terminated returns the names passed to Terminate.
func (f *FakeLauncher) Terminated() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.terminated...)
}

// RecordingObserver is a provisioning.Observer that records everything.
type RecordingObserver struct {
	mu       sync.Mutex
	Messages []string
	Events   []provisioning.Event
}

// NewRecordingObserver creates an empty RecordingObserver.
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{}
}

// Printf implements provisioning.Observer.
func (o *RecordingObserver) Printf(format string, v ...interface{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Messages = append(o.Messages, fmt.Sprintf(format, v...))
}

// Event implements provisioning.Observer.
func (o *RecordingObserver) Event(event provisioning.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Events = append(o.Events, event)
}

// WithFields implements provisioning.Observer.
func (o *RecordingObserver) WithFields(map[string]string) provisioning.Observer {
	return o
}

// EventsOfType returns recorded events of type t.
func (o *RecordingObserver) EventsOfType(t provisioning.EventType) []provisioning.Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []provisioning.Event
	for _, e := range o.Events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
