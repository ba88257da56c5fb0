package model

import (
	"strings"
	"time"

	"coloring-book-generator/internal/domain"

	"github.com/google/uuid"
)

type PageStatus string

const (
	PageStatusPending PageStatus = "pending"
	PageStatusReady   PageStatus = "ready"
	PageStatusFailed  PageStatus = "failed"
)

// DefaultFailureMessage is shown on a failed card when the provider gave no usable text.
const DefaultFailureMessage = "generation failed"

// ColoringPage is one requested artifact and its lifecycle state.
// Result is set only when Ready, ErrorMessage only when Failed.
type ColoringPage struct {
	ID           string     `json:"id"`
	BatchID      string     `json:"batch_id"`
	Status       PageStatus `json:"status"`
	Result       string     `json:"result,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	Selected     bool       `json:"selected"`
	Attempts     int        `json:"attempts"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewColoringPage creates a pending placeholder for a batch.
func NewColoringPage(batchID string) *ColoringPage {
	return &ColoringPage{
		ID:        uuid.NewString(),
		BatchID:   batchID,
		Status:    PageStatusPending,
		UpdatedAt: time.Now(),
	}
}

// MarkPending clears any previous outcome.
func (p *ColoringPage) MarkPending() {
	p.Status = PageStatusPending
	p.Result = ""
	p.ErrorMessage = ""
	p.UpdatedAt = time.Now()
}

// StartAttempt marks the page pending and counts one more generation call.
func (p *ColoringPage) StartAttempt() {
	p.MarkPending()
	p.Attempts++
}

func (p *ColoringPage) MarkReady(result string) error {
	if strings.TrimSpace(result) == "" {
		return domain.ErrInvalidArgument
	}
	p.Status = PageStatusReady
	p.Result = result
	p.ErrorMessage = ""
	p.UpdatedAt = time.Now()
	return nil
}

func (p *ColoringPage) MarkFailed(msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		msg = DefaultFailureMessage
	}
	p.Status = PageStatusFailed
	p.Result = ""
	p.ErrorMessage = msg
	p.UpdatedAt = time.Now()
}

// ToggleSelected flips the selection flag. Only ready pages can be toggled.
func (p *ColoringPage) ToggleSelected() error {
	if p.Status != PageStatusReady {
		return domain.ErrPageNotReady
	}
	p.Selected = !p.Selected
	return nil
}

// Exportable reports whether the page goes into a booklet.
func (p *ColoringPage) Exportable() bool {
	return p.Selected && p.Status == PageStatusReady && p.Result != ""
}

// ShortID is the prefix used in download file names.
func (p *ColoringPage) ShortID() string {
	if len(p.ID) <= 8 {
		return p.ID
	}
	return p.ID[:8]
}
