package sse

import (
	"sync"
	"testing"
)

func TestPublishRacingDisconnectDoesNotPanic(t *testing.T) {
	svc := New()

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					svc.Broadcast(Event{Type: EventCrisisReported})
				}
			}
		}()
	}

	// Churn connections while the publishers run. A send to a client whose
	// stream just dropped must be a silent drop, never a panic.
	for i := 0; i < 500; i++ {
		cl := &client{channel: DashboardChannel, events: make(chan Event, 4)}
		svc.addClient(cl)
		svc.removeClient(cl)
	}
	close(done)
	wg.Wait()

	if n := svc.ClientCount(DashboardChannel); n != 0 {
		t.Fatalf("clients after churn = %d, want 0", n)
	}
}

func TestPublishAfterRemoveDropsEvent(t *testing.T) {
	svc := New()
	cl := &client{channel: DashboardChannel, events: make(chan Event, 4)}
	svc.addClient(cl)
	svc.removeClient(cl)

	svc.Broadcast(Event{Type: EventCrisisClosed})
	if len(cl.events) != 0 {
		t.Fatalf("removed client received %d events, want 0", len(cl.events))
	}
}

func TestConnectedAgenciesCountsAgencyChannelsOnly(t *testing.T) {
	svc := New()
	svc.addClient(&client{channel: DashboardChannel, events: make(chan Event, 1)})
	svc.addClient(&client{channel: AgencyChannel("med1"), events: make(chan Event, 1)})
	svc.addClient(&client{channel: AgencyChannel("med1"), events: make(chan Event, 1)})
	svc.addClient(&client{channel: AgencyChannel("fire1"), events: make(chan Event, 1)})

	if n := svc.ConnectedAgencies(); n != 2 {
		t.Fatalf("connected agencies = %d, want 2", n)
	}
}
