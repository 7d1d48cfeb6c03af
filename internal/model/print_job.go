// internal/model/print_job.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// PrintJobStatus represents the outcome of a print job
type PrintJobStatus string

const (
	PrintJobStatusProcessing PrintJobStatus = "PROCESSING"
	PrintJobStatusSuccess    PrintJobStatus = "SUCCESS"
	PrintJobStatusFailed     PrintJobStatus = "FAILED"
	PrintJobStatusRejected   PrintJobStatus = "REJECTED"
)

// PrintJobSource records which flow requested the print
type PrintJobSource string

const (
	PrintJobSourceAPI      PrintJobSource = "API"
	PrintJobSourceCheckout PrintJobSource = "CHECKOUT"
	PrintJobSourceReprint  PrintJobSource = "REPRINT"
)

// PrintJob is one attempt to send a receipt to the printer
type PrintJob struct {
	ID                uuid.UUID      `json:"id" db:"id"`
	TransactionNumber string         `json:"transaction_number" db:"transaction_number"`
	DeviceID          string         `json:"device_id" db:"device_id"`
	ConnectionType    ConnectionType `json:"connection_type" db:"connection_type"`
	Source            PrintJobSource `json:"source" db:"source"`
	Status            PrintJobStatus `json:"status" db:"status"`
	ByteCount         int            `json:"byte_count" db:"byte_count"`
	StartedAt         time.Time      `json:"started_at" db:"started_at"`
	CompletedAt       *time.Time     `json:"completed_at" db:"completed_at"`
	DurationMs        *int           `json:"duration_ms" db:"duration_ms"`
	ErrorMessage      *string        `json:"error_message" db:"error_message"`
	Result            JSONObject     `json:"result" db:"result"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
}

// NewPrintJob starts a job record in the processing state
func NewPrintJob(transactionNumber string, source PrintJobSource) *PrintJob {
	now := time.Now()
	return &PrintJob{
		ID:                uuid.New(),
		TransactionNumber: transactionNumber,
		Source:            source,
		Status:            PrintJobStatusProcessing,
		StartedAt:         now,
		CreatedAt:         now,
	}
}

// Complete marks the job finished with the given status and optional error
func (j *PrintJob) Complete(status PrintJobStatus, err error) {
	now := time.Now()
	duration := int(now.Sub(j.StartedAt).Milliseconds())

	j.Status = status
	j.CompletedAt = &now
	j.DurationMs = &duration
	if err != nil {
		msg := err.Error()
		j.ErrorMessage = &msg
	}
}

// IsCompleted checks if the job has finished
func (j *PrintJob) IsCompleted() bool {
	return j.Status == PrintJobStatusSuccess ||
		j.Status == PrintJobStatusFailed ||
		j.Status == PrintJobStatusRejected
}
