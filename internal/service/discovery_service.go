// internal/service/discovery_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"pos-service/internal/discovery"
	"pos-service/internal/model"
	"pos-service/internal/utils"
)

// DiscoveryService runs printer scans and keeps the latest result
type DiscoveryService struct {
	scannerManager *discovery.ScannerManager
	scanTimeout    time.Duration
	logger         *utils.ServiceLogger

	mu       sync.RWMutex
	lastScan *ScanResult
}

// NewDiscoveryService creates a new discovery service instance
func NewDiscoveryService(scannerManager *discovery.ScannerManager, scanTimeout time.Duration, logger *zap.Logger) *DiscoveryService {
	if scanTimeout <= 0 {
		scanTimeout = 10 * time.Second
	}
	return &DiscoveryService{
		scannerManager: scannerManager,
		scanTimeout:    scanTimeout,
		logger:         utils.NewServiceLogger(logger, "discovery-service"),
	}
}

// Scan runs one scanner, or all available scanners when connectionType is empty
func (ds *DiscoveryService) Scan(ctx context.Context, connectionType string) (*ScanResult, error) {
	scanCtx, cancel := context.WithTimeout(ctx, ds.scanTimeout)
	defer cancel()

	startTime := time.Now()

	var (
		printers []*model.DiscoveredPrinter
		err      error
	)
	if connectionType == "" {
		printers, err = ds.scannerManager.ScanAll(scanCtx)
		// ScanAll returns partial results when the scan window closes
		if errors.Is(err, context.DeadlineExceeded) {
			err = nil
		}
	} else {
		var scannerType model.ConnectionType
		scannerType, err = model.ParseConnectionType(connectionType)
		if err != nil {
			return nil, err
		}
		printers, err = ds.scannerManager.ScanByType(scanCtx, scannerType)
	}
	if err != nil {
		return nil, fmt.Errorf("printer scan failed: %w", err)
	}

	result := &ScanResult{
		Printers:  printers,
		Count:     len(printers),
		ScannedAt: startTime,
		Duration:  time.Since(startTime).String(),
	}

	ds.mu.Lock()
	ds.lastScan = result
	ds.mu.Unlock()

	ds.logger.Info("Printer scan completed",
		zap.String("connection_type", connectionType),
		zap.Int("printers_found", len(printers)),
		zap.Duration("duration", time.Since(startTime)),
	)
	return result, nil
}

// LastScan returns the most recent scan result, or nil
func (ds *DiscoveryService) LastScan() *ScanResult {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	return ds.lastScan
}

// AvailableScanners lists the link types that can be scanned on this host
func (ds *DiscoveryService) AvailableScanners() []model.ConnectionType {
	return ds.scannerManager.GetAvailableScanners()
}

// ScanResult is the outcome of one scan
type ScanResult struct {
	Printers  []*model.DiscoveredPrinter `json:"printers"`
	Count     int                        `json:"count"`
	ScannedAt time.Time                  `json:"scanned_at"`
	Duration  string                     `json:"duration"`
}
