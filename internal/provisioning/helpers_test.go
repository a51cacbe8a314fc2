package provisioning

import (
	"context"
	"fmt"
	"sync"
)

// MockObserver is a test implementation of Observer that records events.
type MockObserver struct {
	mu       sync.Mutex
	events   []Event
	messages []string
	fields   map[string]string
}

func NewMockObserver() *MockObserver {
	return &MockObserver{fields: make(map[string]string)}
}

func (m *MockObserver) Printf(format string, v ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, fmt.Sprintf(format, v...))
}

func (m *MockObserver) Event(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *MockObserver) WithFields(fields map[string]string) Observer {
	return m
}

func (m *MockObserver) eventTypes() []EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]EventType, 0, len(m.events))
	for _, e := range m.events {
		types = append(types, e.Type)
	}
	return types
}

// funcPhase adapts functions to Phase and Compensator.
type funcPhase struct {
	name       string
	stage      Stage
	provision  func(*Context) error
	compensate func(*Context) error
}

func (p *funcPhase) Name() string  { return p.name }
func (p *funcPhase) Stage() Stage  { return p.stage }
func (p *funcPhase) Provision(ctx *Context) error {
	if p.provision == nil {
		return nil
	}
	return p.provision(ctx)
}

// plainPhase has no Compensate method.
type plainPhase struct{ funcPhase }

type compensatingPhase struct{ funcPhase }

func (p *compensatingPhase) Compensate(ctx *Context) error {
	if p.compensate == nil {
		return nil
	}
	return p.compensate(ctx)
}

func newTestContext(strict bool) (*Context, *MockObserver) {
	observer := NewMockObserver()
	ctx := NewContext(context.Background(), &Request{LocalClusterName: "my-cluster", Strict: strict}, observer, nil)
	return ctx, observer
}
