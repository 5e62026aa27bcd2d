package entity

import (
	"time"

	"github.com/google/uuid"
)

// Run is the journal row for one spreadsheet processed by the batch tool.
type Run struct {
	ID           uuid.UUID
	BatchID      uuid.UUID
	SourcePath   string
	OutputPath   string
	IDDomanda    string
	Subject      string
	Status       string
	HTTPStatus   int
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
}
