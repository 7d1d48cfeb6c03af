// internal/service/printer_service.go
package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"pos-service/internal/model"
	"pos-service/internal/receipt"
	"pos-service/internal/repository"
	"pos-service/internal/utils"
	"pos-service/pkg/driver"
)

// EventListener receives printer state and print job events
type EventListener func(event *model.PrinterEvent)

// PrinterService owns the printer session. At most one print runs at a time;
// a second print fails fast with ErrBusy. Connect and disconnect wait for an
// in-flight print to finish.
type PrinterService struct {
	transport driver.Transport
	composer  *receipt.Composer
	pairing   repository.PairingRepository
	jobRepo   repository.PrintJobRepository
	logger    *utils.ServiceLogger
	clock     func() time.Time

	printMu sync.Mutex

	mu         sync.RWMutex
	state      model.PrinterState
	lastDevice *model.PairedDevice
	listener   EventListener

	supportOnce sync.Once
	supported   bool
}

// PrinterServiceOption customises a PrinterService
type PrinterServiceOption func(*PrinterService)

// WithClock replaces the receipt timestamp source
func WithClock(clock func() time.Time) PrinterServiceOption {
	return func(ps *PrinterService) {
		ps.clock = clock
	}
}

// NewPrinterService creates a new printer service instance
func NewPrinterService(
	transport driver.Transport,
	composer *receipt.Composer,
	pairing repository.PairingRepository,
	jobRepo repository.PrintJobRepository,
	logger *zap.Logger,
	opts ...PrinterServiceOption,
) *PrinterService {
	ps := &PrinterService{
		transport: transport,
		composer:  composer,
		pairing:   pairing,
		jobRepo:   jobRepo,
		logger:    utils.NewServiceLogger(logger, "printer-service"),
		clock:     time.Now,
		state:     model.PrinterStateDisconnected,
	}
	for _, opt := range opts {
		opt(ps)
	}
	return ps
}

// SetEventListener registers the receiver of printer events
func (ps *PrinterService) SetEventListener(listener EventListener) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.listener = listener
}

// IsSupported probes the host once and caches the answer
func (ps *PrinterService) IsSupported() bool {
	ps.supportOnce.Do(func() {
		ps.supported = ps.transport.IsSupported()
		if !ps.supported {
			ps.logger.Warn("Printer link not supported on this host",
				zap.String("connection_type", string(ps.transport.ConnectionType())),
			)
		}
	})
	return ps.supported
}

// State returns the current connection state
func (ps *PrinterService) State() model.PrinterState {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	return ps.state
}

// IsConnected reports whether a print would be attempted right now
func (ps *PrinterService) IsConnected() bool {
	return ps.State() == model.PrinterStateConnected && ps.transport.IsConnected()
}

// Connect discovers and connects a printer, reporting only the outcome
func (ps *PrinterService) Connect(ctx context.Context) bool {
	return ps.ConnectDevice(ctx, "") == nil
}

// AutoConnect silently reconnects to the last used printer
func (ps *PrinterService) AutoConnect(ctx context.Context) bool {
	if ps.IsConnected() {
		return true
	}

	if err := ps.Reconnect(ctx); err != nil {
		ps.logger.Debug("Auto-connect skipped", zap.Error(err))
		return false
	}
	return true
}

// ConnectDevice connects to deviceID, or discovers a printer when deviceID is
// empty. The connected device becomes the last used device.
func (ps *PrinterService) ConnectDevice(ctx context.Context, deviceID string) error {
	if !ps.IsSupported() {
		return ErrNotSupported
	}

	ps.printMu.Lock()
	defer ps.printMu.Unlock()

	return ps.open(ctx, deviceID, false)
}

// Reconnect connects to the last used printer without discovery
func (ps *PrinterService) Reconnect(ctx context.Context) error {
	if !ps.IsSupported() {
		return ErrNotSupported
	}

	last, err := ps.LastDevice(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	if last == nil {
		return fmt.Errorf("%w: no previously used printer", ErrConnectionFailed)
	}
	if last.ConnectionType != ps.transport.ConnectionType() {
		return fmt.Errorf("%w: last used printer %s is a %s device, link is %s",
			ErrConnectionFailed, last.DeviceID, last.ConnectionType, ps.transport.ConnectionType())
	}

	ps.printMu.Lock()
	defer ps.printMu.Unlock()

	return ps.open(ctx, last.DeviceID, true)
}

func (ps *PrinterService) open(ctx context.Context, deviceID string, reconnect bool) error {
	ps.setState(model.PrinterStateConnecting)

	var err error
	if reconnect {
		err = ps.transport.Reconnect(ctx, deviceID)
	} else {
		err = ps.transport.Connect(ctx, deviceID)
	}
	if err != nil {
		ps.setState(model.PrinterStateDisconnected)
		ps.publish(model.EventPrinterConnectionFailed, deviceID, model.SeverityWarning, model.JSONObject{
			"error":     err.Error(),
			"reconnect": reconnect,
		})
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	connectedID := ps.transport.DeviceID()
	ps.remember(ctx, connectedID)
	ps.setState(model.PrinterStateConnected)
	ps.publish(model.EventPrinterConnected, connectedID, model.SeverityInfo, model.JSONObject{
		"reconnect": reconnect,
	})

	ps.logger.Info("Printer connected",
		zap.String("device_id", connectedID),
		zap.Bool("reconnect", reconnect),
	)
	return nil
}

// remember records the last used device. A persistence failure is logged and
// the device is still kept for this process.
func (ps *PrinterService) remember(ctx context.Context, deviceID string) {
	paired := &model.PairedDevice{
		DeviceID:       deviceID,
		ConnectionType: ps.transport.ConnectionType(),
		PairedAt:       ps.clock(),
	}

	ps.mu.Lock()
	ps.lastDevice = paired
	ps.mu.Unlock()

	if err := ps.pairing.Save(ctx, paired); err != nil {
		ps.logger.Error("Failed to save last used printer", zap.Error(err), zap.String("device_id", deviceID))
	}
}

// LastDevice returns the last used printer, loading it from the pairing store
// on first use
func (ps *PrinterService) LastDevice(ctx context.Context) (*model.PairedDevice, error) {
	ps.mu.RLock()
	last := ps.lastDevice
	ps.mu.RUnlock()
	if last != nil {
		return last, nil
	}

	loaded, err := ps.pairing.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load last used printer: %w", err)
	}

	ps.mu.Lock()
	if ps.lastDevice == nil {
		ps.lastDevice = loaded
	}
	last = ps.lastDevice
	ps.mu.Unlock()
	return last, nil
}

// ForgetDevice clears the last used printer
func (ps *PrinterService) ForgetDevice(ctx context.Context) error {
	ps.mu.Lock()
	ps.lastDevice = nil
	ps.mu.Unlock()

	if err := ps.pairing.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear last used printer: %w", err)
	}
	return nil
}

// Disconnect tears down the session. Safe to call when not connected.
func (ps *PrinterService) Disconnect(ctx context.Context) {
	ps.printMu.Lock()
	defer ps.printMu.Unlock()

	deviceID := ps.transport.DeviceID()
	if err := ps.transport.Disconnect(ctx); err != nil {
		ps.logger.Warn("Printer disconnect reported an error", zap.Error(err))
	}

	if ps.setState(model.PrinterStateDisconnected) {
		ps.publish(model.EventPrinterDisconnected, deviceID, model.SeverityInfo, model.JSONObject{
			"reason": "requested",
		})
	}
}

// CheckLink moves a connected service to DISCONNECTED when the link dropped
// underneath it. It skips the check while a print is in flight and reports
// whether the state changed.
func (ps *PrinterService) CheckLink(ctx context.Context) bool {
	if !ps.printMu.TryLock() {
		return false
	}
	defer ps.printMu.Unlock()

	if ps.State() != model.PrinterStateConnected || ps.transport.IsConnected() {
		return false
	}

	deviceID := ps.transport.DeviceID()
	if err := ps.transport.Disconnect(ctx); err != nil {
		ps.logger.Debug("Closing lost printer link failed", zap.Error(err))
	}
	if !ps.setState(model.PrinterStateDisconnected) {
		return false
	}

	ps.logger.Warn("Printer link lost", zap.String("device_id", deviceID))
	ps.publish(model.EventPrinterDisconnected, deviceID, model.SeverityWarning, model.JSONObject{
		"reason": "link lost",
	})
	return true
}

// Print composes the receipt and sends it to the connected printer. Every
// attempt is recorded as a print job.
func (ps *PrinterService) Print(ctx context.Context, r *model.Receipt, source model.PrintJobSource) (*PrintResult, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: receipt is missing", model.ErrInvalidReceipt)
	}

	job := model.NewPrintJob(r.TransactionNumber, source)
	job.ConnectionType = ps.transport.ConnectionType()
	opLogger := utils.NewOperationLogger(ps.logger.Logger, "print", job.ID.String())

	if !ps.printMu.TryLock() {
		return nil, ps.reject(ctx, job, opLogger, ErrBusy)
	}
	defer ps.printMu.Unlock()

	if err := r.Validate(); err != nil {
		return nil, ps.reject(ctx, job, opLogger, err)
	}
	if !ps.IsSupported() {
		return nil, ps.reject(ctx, job, opLogger, ErrNotSupported)
	}
	if !ps.IsConnected() {
		return nil, ps.reject(ctx, job, opLogger, ErrNotConnected)
	}

	at := ps.clock()
	data := ps.composer.Compose(r, at)

	job.DeviceID = ps.transport.DeviceID()
	job.ByteCount = len(data)
	ps.recordJob(ctx, job, true)
	opLogger.Start(
		zap.String("transaction_number", r.TransactionNumber),
		zap.String("device_id", job.DeviceID),
		zap.Int("bytes", len(data)),
		zap.String("source", string(source)),
	)

	result, err := ps.transport.Send(ctx, data)
	if err != nil {
		return nil, ps.failSend(ctx, job, opLogger, result, err)
	}

	job.Result = model.JSONObject{
		"chunks":      result.Chunks,
		"duration_ms": result.Duration.Milliseconds(),
	}
	job.Complete(model.PrintJobStatusSuccess, nil)
	ps.recordJob(ctx, job, false)
	opLogger.Success(zap.Int("chunks", result.Chunks))

	ps.publish(model.EventPrintCompleted, job.DeviceID, model.SeverityInfo, model.JSONObject{
		"job_id":             job.ID.String(),
		"transaction_number": r.TransactionNumber,
		"bytes":              result.Bytes,
	})

	return &PrintResult{
		JobID:             job.ID.String(),
		TransactionNumber: r.TransactionNumber,
		DeviceID:          job.DeviceID,
		Bytes:             result.Bytes,
		Chunks:            result.Chunks,
		Duration:          result.Duration.String(),
		PrintedAt:         at,
	}, nil
}

// failSend forces the session down so the stale channel is never reused. The
// last used device is kept for a later reconnect.
func (ps *PrinterService) failSend(ctx context.Context, job *model.PrintJob, opLogger *utils.OperationLogger, result *driver.SendResult, sendErr error) error {
	if result != nil {
		job.Result = model.JSONObject{
			"delivered_chunks": result.Chunks,
			"delivered_bytes":  result.Bytes,
		}
	}
	job.Complete(model.PrintJobStatusFailed, sendErr)
	ps.recordJob(ctx, job, false)
	opLogger.Error(sendErr)

	if err := ps.transport.Disconnect(ctx); err != nil {
		ps.logger.Warn("Closing failed printer link reported an error", zap.Error(err))
	}
	ps.setState(model.PrinterStateDisconnected)

	ps.publish(model.EventPrintFailed, job.DeviceID, model.SeverityError, model.JSONObject{
		"job_id":             job.ID.String(),
		"transaction_number": job.TransactionNumber,
		"error":              sendErr.Error(),
	})
	ps.publish(model.EventPrinterDisconnected, job.DeviceID, model.SeverityWarning, model.JSONObject{
		"reason": "send failed",
	})

	return fmt.Errorf("%w: %w", ErrSendFailed, sendErr)
}

func (ps *PrinterService) reject(ctx context.Context, job *model.PrintJob, opLogger *utils.OperationLogger, err error) error {
	job.DeviceID = ps.transport.DeviceID()
	job.Complete(model.PrintJobStatusRejected, err)
	ps.recordJob(ctx, job, true)
	opLogger.Rejected(err, zap.String("transaction_number", job.TransactionNumber))
	return err
}

func (ps *PrinterService) recordJob(ctx context.Context, job *model.PrintJob, create bool) {
	var err error
	if create {
		err = ps.jobRepo.Create(ctx, job)
	} else {
		err = ps.jobRepo.Update(ctx, job)
	}
	if err != nil {
		ps.logger.Error("Failed to record print job",
			zap.Error(err),
			zap.String("job_id", job.ID.String()),
			zap.String("status", string(job.Status)),
		)
	}
}

// Preview composes the receipt without touching the printer
func (ps *PrinterService) Preview(r *model.Receipt) (*PreviewResult, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	at := ps.clock()
	doc := ps.composer.ComposeDocument(r, at)
	data := doc.Bytes()

	return &PreviewResult{
		Bytes:      len(data),
		Hex:        hex.EncodeToString(data),
		Lines:      doc.Lines(),
		ComposedAt: at,
	}, nil
}

// Status returns a snapshot of the printer session
func (ps *PrinterService) Status(ctx context.Context) *PrinterStatus {
	last, err := ps.LastDevice(ctx)
	if err != nil {
		ps.logger.Warn("Failed to read last used printer", zap.Error(err))
	}

	return &PrinterStatus{
		State:             ps.State(),
		Connected:         ps.IsConnected(),
		Supported:         ps.IsSupported(),
		ConnectionType:    ps.transport.ConnectionType(),
		DeviceID:          ps.transport.DeviceID(),
		LastDevice:        last,
		PairingPersistent: ps.pairing.Persistent(),
		Health:            ps.transport.GetHealthMetrics(),
	}
}

// setState reports whether the state changed
func (ps *PrinterService) setState(state model.PrinterState) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.state == state {
		return false
	}
	ps.logger.Debug("Printer state changed",
		zap.String("from", string(ps.state)),
		zap.String("to", string(state)),
	)
	ps.state = state
	return true
}

func (ps *PrinterService) publish(eventType model.EventType, deviceID, severity string, data model.JSONObject) {
	ps.mu.RLock()
	listener := ps.listener
	state := ps.state
	ps.mu.RUnlock()

	if listener == nil {
		return
	}
	listener(model.NewPrinterEvent(eventType, deviceID, state, severity, data))
}

// IsPrinterUnavailable reports whether err means the caller should fall back
// to the HTML receipt
func IsPrinterUnavailable(err error) bool {
	return errors.Is(err, ErrNotConnected) ||
		errors.Is(err, ErrNotSupported) ||
		errors.Is(err, ErrSendFailed) ||
		errors.Is(err, ErrBusy)
}

// PrintResult describes a delivered receipt
type PrintResult struct {
	JobID             string    `json:"job_id"`
	TransactionNumber string    `json:"transaction_number"`
	DeviceID          string    `json:"device_id"`
	Bytes             int       `json:"bytes"`
	Chunks            int       `json:"chunks"`
	Duration          string    `json:"duration"`
	PrintedAt         time.Time `json:"printed_at"`
}

// PreviewResult is the composed ESC/POS stream of a receipt
type PreviewResult struct {
	Bytes      int       `json:"bytes"`
	Hex        string    `json:"hex"`
	Lines      []string  `json:"lines"`
	ComposedAt time.Time `json:"composed_at"`
}

// PrinterStatus is a snapshot of the printer session
type PrinterStatus struct {
	State             model.PrinterState    `json:"state"`
	Connected         bool                  `json:"connected"`
	Supported         bool                  `json:"supported"`
	ConnectionType    model.ConnectionType  `json:"connection_type"`
	DeviceID          string                `json:"device_id,omitempty"`
	LastDevice        *model.PairedDevice   `json:"last_device,omitempty"`
	PairingPersistent bool                  `json:"pairing_persistent"`
	Health            *driver.HealthMetrics `json:"health"`
}
