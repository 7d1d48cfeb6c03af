// internal/handler/event_bus.go
package handler

import (
	"sync"

	"go.uber.org/zap"

	"pos-service/internal/model"
	"pos-service/pkg/driver"
)

// EventBus fans printer events out to subscribers without blocking the
// publisher
type EventBus struct {
	subscribers []chan *model.PrinterEvent
	events      chan *model.PrinterEvent
	done        chan struct{}
	stopOnce    sync.Once
	mutex       sync.RWMutex
	logger      *zap.Logger
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		events: make(chan *model.PrinterEvent, 1000),
		done:   make(chan struct{}),
		logger: logger.With(zap.String("component", "event-bus")),
	}
}

// Start distributes events until Stop is called
func (eb *EventBus) Start() {
	for {
		select {
		case event := <-eb.events:
			eb.distributeEvent(event)
		case <-eb.done:
			return
		}
	}
}

// Stop ends distribution and closes subscriber channels
func (eb *EventBus) Stop() {
	eb.stopOnce.Do(func() {
		close(eb.done)

		eb.mutex.Lock()
		defer eb.mutex.Unlock()
		for _, subscriber := range eb.subscribers {
			close(subscriber)
		}
		eb.subscribers = nil
	})
}

// Publish queues an event. A full queue drops the event.
func (eb *EventBus) Publish(event *model.PrinterEvent) {
	select {
	case eb.events <- event:
	default:
		eb.logger.Warn("Event bus full, dropping event",
			zap.String("event_type", string(event.EventType)),
		)
	}
}

// Subscribe returns a channel receiving every event
func (eb *EventBus) Subscribe() <-chan *model.PrinterEvent {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subscriber := make(chan *model.PrinterEvent, 100)
	eb.subscribers = append(eb.subscribers, subscriber)
	return subscriber
}

func (eb *EventBus) distributeEvent(event *model.PrinterEvent) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	for _, subscriber := range eb.subscribers {
		select {
		case subscriber <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}

// LinkEventHandler forwards link layer events to the bus. It runs inside the
// driver's lock and must not call back into the driver.
type LinkEventHandler struct {
	bus    *EventBus
	logger *zap.Logger
}

var _ driver.EventHandler = (*LinkEventHandler)(nil)

// NewLinkEventHandler creates a new link event handler
func NewLinkEventHandler(bus *EventBus, logger *zap.Logger) *LinkEventHandler {
	return &LinkEventHandler{
		bus:    bus,
		logger: logger.With(zap.String("component", "link-events")),
	}
}

// OnDeviceConnected handles link opened events
func (h *LinkEventHandler) OnDeviceConnected(deviceID string) {
	h.logger.Debug("Link opened", zap.String("device_id", deviceID))
}

// OnDeviceDisconnected handles link closed events
func (h *LinkEventHandler) OnDeviceDisconnected(deviceID string, reason string) {
	h.logger.Debug("Link closed",
		zap.String("device_id", deviceID),
		zap.String("reason", reason),
	)
}

// OnDeviceError publishes link errors
func (h *LinkEventHandler) OnDeviceError(deviceID string, err error) {
	h.bus.Publish(model.NewPrinterEvent(model.EventLinkError, deviceID, "", model.SeverityError, model.JSONObject{
		"error": err.Error(),
	}))
}

// OnSendCompleted handles delivered buffers
func (h *LinkEventHandler) OnSendCompleted(deviceID string, result *driver.SendResult) {
	h.logger.Debug("Link send completed",
		zap.String("device_id", deviceID),
		zap.Int("bytes", result.Bytes),
		zap.Int("chunks", result.Chunks),
	)
}
