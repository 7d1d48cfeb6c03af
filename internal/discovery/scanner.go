// internal/discovery/scanner.go
package discovery

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"pos-service/internal/model"
)

// PrinterScanner finds printers reachable over one link type
type PrinterScanner interface {
	Scan(ctx context.Context) ([]*model.DiscoveredPrinter, error)
	GetScannerType() model.ConnectionType
	IsAvailable() bool
}

// ScannerManager runs the registered scanners
type ScannerManager struct {
	mu       sync.RWMutex
	scanners map[model.ConnectionType]PrinterScanner
	logger   *zap.Logger
}

// NewScannerManager creates a new scanner manager
func NewScannerManager(logger *zap.Logger) *ScannerManager {
	return &ScannerManager{
		scanners: make(map[model.ConnectionType]PrinterScanner),
		logger:   logger.With(zap.String("component", "discovery")),
	}
}

// RegisterScanner registers a printer scanner
func (sm *ScannerManager) RegisterScanner(scanner PrinterScanner) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	scannerType := scanner.GetScannerType()
	sm.scanners[scannerType] = scanner
	sm.logger.Info("Scanner registered", zap.String("type", string(scannerType)))
}

// ScanAll runs every available scanner concurrently. A failing scanner is
// logged and skipped.
func (sm *ScannerManager) ScanAll(ctx context.Context) ([]*model.DiscoveredPrinter, error) {
	sm.mu.RLock()
	scanners := make([]PrinterScanner, 0, len(sm.scanners))
	for _, scanner := range sm.scanners {
		scanners = append(scanners, scanner)
	}
	sm.mu.RUnlock()

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		all = []*model.DiscoveredPrinter{}
	)

	for _, scanner := range scanners {
		scannerType := scanner.GetScannerType()
		if !scanner.IsAvailable() {
			sm.logger.Debug("Scanner not available, skipping", zap.String("type", string(scannerType)))
			continue
		}

		wg.Add(1)
		go func(scanner PrinterScanner) {
			defer wg.Done()

			printers, err := scanner.Scan(ctx)
			if err != nil {
				sm.logger.Error("Scanner failed", zap.String("type", string(scannerType)), zap.Error(err))
				return
			}

			sm.logger.Info("Scanner completed",
				zap.String("type", string(scannerType)),
				zap.Int("printers_found", len(printers)),
			)

			mu.Lock()
			all = append(all, printers...)
			mu.Unlock()
		}(scanner)
	}

	wg.Wait()
	sortPrinters(all)
	return all, ctx.Err()
}

// ScanByType runs one scanner
func (sm *ScannerManager) ScanByType(ctx context.Context, scannerType model.ConnectionType) ([]*model.DiscoveredPrinter, error) {
	sm.mu.RLock()
	scanner, exists := sm.scanners[scannerType]
	sm.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("scanner type not found: %s", scannerType)
	}
	if !scanner.IsAvailable() {
		return nil, fmt.Errorf("scanner not available: %s", scannerType)
	}

	printers, err := scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}
	sortPrinters(printers)
	return printers, nil
}

// GetAvailableScanners returns the available scanner types
func (sm *ScannerManager) GetAvailableScanners() []model.ConnectionType {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	available := []model.ConnectionType{}
	for scannerType, scanner := range sm.scanners {
		if scanner.IsAvailable() {
			available = append(available, scannerType)
		}
	}
	sort.Slice(available, func(i, j int) bool { return available[i] < available[j] })
	return available
}

// sortPrinters orders by link type, then strongest signal, then id
func sortPrinters(printers []*model.DiscoveredPrinter) {
	sort.SliceStable(printers, func(i, j int) bool {
		a, b := printers[i], printers[j]
		if a.ConnectionType != b.ConnectionType {
			return a.ConnectionType < b.ConnectionType
		}
		if a.RSSI != nil && b.RSSI != nil && *a.RSSI != *b.RSSI {
			return *a.RSSI > *b.RSSI
		}
		return a.DeviceID < b.DeviceID
	})
}
