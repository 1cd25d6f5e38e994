package models

import (
	"container/heap"
	"errors"
	"sync"
	"time"
)

const (
	EventOrderAssembled    = "OrderAssembled"
	EventDeliveryAlert     = "DeliveryAlert"
	EventOrderDelivered    = "OrderDelivered"
	EventCourierWorkStart  = "CourierWorkStart"
	EventCourierWorkEnd    = "CourierWorkEnd"
	EventShopDelivered     = "ShopDelivered"
	EventTaxiDeliveryAlert = "TaxiDeliveryAlert"
)

type EventStatus int

const (
	EventActive EventStatus = iota
	EventExecuted
	EventDisabled
)

var ErrQueueFull = errors.New("event queue capacity exceeded")

// Event represents a simulation event
type Event struct {
	Index  int
	Time   time.Time
	Type   string
	Status EventStatus
	Data   interface{}

	seq uint64
}

// EventQueue is a fixed-capacity ledger of events. Every event keeps the slot
// index it was given, so bundles can cancel their alerts later; a heap over
// the slots yields events by time and then by insertion order.
type EventQueue struct {
	events   []*Event
	pending  eventHeap
	capacity int
	cursor   time.Time
	seq      uint64
	mutex    sync.Mutex
}

// eventHeap implements heap.Interface and holds Events
type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].Time.Equal(h[j].Time) {
		return h[i].seq < h[j].seq
	}
	return h[i].Time.Before(h[j].Time)
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(*Event))
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// NewEventQueue creates an EventQueue that holds at most capacity events.
func NewEventQueue(capacity int) *EventQueue {
	eq := &EventQueue{capacity: capacity}
	eq.Clear()
	return eq
}

// Clear drops every event and resets the cursor.
func (eq *EventQueue) Clear() {
	eq.mutex.Lock()
	defer eq.mutex.Unlock()
	eq.events = make([]*Event, 0, eq.capacity)
	eq.pending = make(eventHeap, 0, eq.capacity)
	eq.cursor = time.Time{}
	eq.seq = 0
}

// AddEvent stores an active event and returns its slot index.
func (eq *EventQueue) AddEvent(t time.Time, eventType string, data interface{}) (int, error) {
	eq.mutex.Lock()
	defer eq.mutex.Unlock()
	if len(eq.events) >= eq.capacity {
		return -1, ErrQueueFull
	}
	eq.seq++
	ev := &Event{
		Index: len(eq.events),
		Time:  t,
		Type:  eventType,
		Data:  data,
		seq:   eq.seq,
	}
	eq.events = append(eq.events, ev)
	heap.Push(&eq.pending, ev)
	return ev.Index, nil
}

// SetQueueCurrentItem positions the cursor: events scheduled before start are
// never returned.
func (eq *EventQueue) SetQueueCurrentItem(start time.Time) {
	eq.mutex.Lock()
	defer eq.mutex.Unlock()
	eq.cursor = start
}

// GetNext returns the next active event at or after the cursor, or nil when
// the queue is exhausted.
func (eq *EventQueue) GetNext() *Event {
	eq.mutex.Lock()
	defer eq.mutex.Unlock()
	for len(eq.pending) > 0 {
		ev := heap.Pop(&eq.pending).(*Event)
		if ev.Status != EventActive || ev.Time.Before(eq.cursor) {
			continue
		}
		eq.cursor = ev.Time
		return ev
	}
	return nil
}

// DisableItems marks events disabled. Unknown indexes and events that already
// ran are ignored.
func (eq *EventQueue) DisableItems(indexes ...int) {
	eq.mutex.Lock()
	defer eq.mutex.Unlock()
	for _, i := range indexes {
		if i < 0 || i >= len(eq.events) {
			continue
		}
		if ev := eq.events[i]; ev.Status == EventActive {
			ev.Status = EventDisabled
		}
	}
}

// Complete marks an active event executed.
func (eq *EventQueue) Complete(index int) bool {
	eq.mutex.Lock()
	defer eq.mutex.Unlock()
	if index < 0 || index >= len(eq.events) {
		return false
	}
	ev := eq.events[index]
	if ev.Status != EventActive {
		return false
	}
	ev.Status = EventExecuted
	return true
}

// Item returns the event stored at index, or nil.
func (eq *EventQueue) Item(index int) *Event {
	eq.mutex.Lock()
	defer eq.mutex.Unlock()
	if index < 0 || index >= len(eq.events) {
		return nil
	}
	return eq.events[index]
}

// Active reports whether the event at index is still waiting to run.
func (eq *EventQueue) Active(index int) bool {
	ev := eq.Item(index)
	return ev != nil && ev.Status == EventActive
}

// Len returns the number of events stored, whatever their status.
func (eq *EventQueue) Len() int {
	eq.mutex.Lock()
	defer eq.mutex.Unlock()
	return len(eq.events)
}

func (eq *EventQueue) Capacity() int { return eq.capacity }

// Pending returns the number of events not yet popped.
func (eq *EventQueue) Pending() int {
	eq.mutex.Lock()
	defer eq.mutex.Unlock()
	return len(eq.pending)
}

// Cursor returns the time of the last event handed out.
func (eq *EventQueue) Cursor() time.Time {
	eq.mutex.Lock()
	defer eq.mutex.Unlock()
	return eq.cursor
}
