package model

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"coloring-book-generator/internal/domain"

	"github.com/oklog/ulid/v2"
)

type AppMode string

const (
	AppModeColoring AppMode = "coloring"
	AppModeMandala  AppMode = "mandala"
)

const (
	DefaultPageCount = 1
	MinPageCount     = 1
	MaxPageCount     = 3

	DefaultDifficulty = 5
	MinDifficulty     = 1
	MaxDifficulty     = 10

	DefaultBookTitle = "ColoringBook"
)

// SecretKey is the fixed storage key of the provider credential.
const SecretKey = "gemini_coloring_api_key"

func ParseAppMode(s string) (AppMode, error) {
	switch AppMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", AppModeColoring:
		return AppModeColoring, nil
	case AppModeMandala:
		return AppModeMandala, nil
	default:
		return "", fmt.Errorf("%w: mode %q", domain.ErrInvalidArgument, s)
	}
}

// GenerationParams are shared by every page of a run.
type GenerationParams struct {
	Subject    string  `json:"subject"`
	Difficulty int     `json:"difficulty"`
	Mode       AppMode `json:"mode"`
	Count      int     `json:"count"`
	Provider   string  `json:"provider,omitempty"`
}

// Normalize fills defaults and checks bounds. maxCount <= 0 means MaxPageCount.
func (p *GenerationParams) Normalize(maxCount int) error {
	if maxCount <= 0 {
		maxCount = MaxPageCount
	}
	p.Subject = strings.TrimSpace(p.Subject)
	if p.Subject == "" {
		return domain.ErrMissingSubject
	}
	if p.Difficulty == 0 {
		p.Difficulty = DefaultDifficulty
	}
	if p.Difficulty < MinDifficulty || p.Difficulty > MaxDifficulty {
		return fmt.Errorf("%w: difficulty must be %d..%d", domain.ErrInvalidArgument, MinDifficulty, MaxDifficulty)
	}
	if p.Count == 0 {
		p.Count = DefaultPageCount
	}
	if p.Count < MinPageCount || p.Count > maxCount {
		return fmt.Errorf("%w: count must be %d..%d", domain.ErrInvalidArgument, MinPageCount, maxCount)
	}
	mode, err := ParseAppMode(string(p.Mode))
	if err != nil {
		return err
	}
	p.Mode = mode
	p.Provider = strings.ToLower(strings.TrimSpace(p.Provider))
	return nil
}

// Batch is one run of the generation loop.
type Batch struct {
	ID        string           `json:"id"`
	Params    GenerationParams `json:"params"`
	Pages     []ColoringPage   `json:"pages"`
	StartedAt time.Time        `json:"started_at"`
}

// NewBatchID returns a time-ordered run identifier.
func NewBatchID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

type RunKind string

const (
	RunKindBatch      RunKind = "batch"
	RunKindRegenerate RunKind = "regenerate"
)

// Progress is the status line shown while a run is active.
type Progress struct {
	Running bool    `json:"running"`
	Kind    RunKind `json:"kind,omitempty"`
	Current int     `json:"current"`
	Total   int     `json:"total"`
	Label   string  `json:"label,omitempty"`
}

// ExportResult describes a persisted booklet.
type ExportResult struct {
	FileName string `json:"file_name"`
	Location string `json:"location"`
	Pages    int    `json:"pages"`
	Data     []byte `json:"-"`
}
