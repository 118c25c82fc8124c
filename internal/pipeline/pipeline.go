// Package pipeline runs the batch stages over a BIDS dataset: source
// conversion, respiration-rate estimation and empathic-accuracy scoring.
package pipeline

import (
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/respire/internal/bids"
	"github.com/verte-zerg/respire/internal/eat"
	"github.com/verte-zerg/respire/internal/model"
	"github.com/verte-zerg/respire/internal/store"
)

// Stage names reported in errors.
const (
	StageDiscover  = "discover"
	StageConvert   = "convert"
	StageLoad      = "load"
	StageCycles    = "cycles"
	StageRate      = "rate"
	StageGroup     = "group"
	StageScore     = "score"
	StageAggregate = "aggregate"
	StageMerge     = "merge"
	StageWrite     = "write"
	StageStore     = "store"
)

// batch is the subject label used for errors not tied to one participant.
const batch = "batch"

// Pipeline holds what every stage needs. Config is copied into each stage
// and never modified.
type Pipeline struct {
	Root       string
	Config     model.Config
	Logger     *zap.Logger
	Store      *store.Store
	References eat.ReferenceSource
	Workers    int

	now func() time.Time
}

// New returns a pipeline over root. Store and References are optional and
// may be set afterwards.
func New(root string, cfg model.Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		Root:    root,
		Config:  cfg,
		Logger:  logger,
		Workers: runtime.NumCPU(),
		now:     time.Now,
	}
}

// OutputDir is where derived tables are written.
func (p *Pipeline) OutputDir() string {
	return bids.DerivedDir(p.Root)
}

func (p *Pipeline) workers() int {
	if p.Workers < 1 {
		return 1
	}
	return p.Workers
}
