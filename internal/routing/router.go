// Package routing maps activity kinds to worker-pool tiers. The router is the
// single source of truth for which queue an activity runs on; it does not
// enforce the concurrency ceilings itself, the engine's worker options do.
package routing

import (
	"fmt"

	"github.com/kbforge/kbforge/internal/config"
)

// Tier names one of the three worker pools. The string values are used
// verbatim as orchestration engine task queue names.
type Tier string

const (
	TierHeavyCompute        Tier = "heavy-compute"
	TierStorageIO           Tier = "storage-io"
	TierGeneralCoordination Tier = "general-coordination"
)

// Tiers lists all known tiers.
var Tiers = []Tier{TierHeavyCompute, TierStorageIO, TierGeneralCoordination}

// ActivityKind identifies one schedulable activity.
type ActivityKind string

const (
	KindAssessRelevance      ActivityKind = "assess_relevance"
	KindRecordAssessment     ActivityKind = "record_assessment"
	KindPersistStatus        ActivityKind = "persist_document_status"
	KindRecordReviewDecision ActivityKind = "record_review_decision"
	KindIndexDocument        ActivityKind = "index_document"
	KindEmitSignal           ActivityKind = "emit_signal"
)

// DeclaredKinds is the full set of activity kinds the workflows schedule.
// Adding an activity without extending defaultAssignments is a load-time
// error, never a silent fallback onto the coordination pool.
var DeclaredKinds = []ActivityKind{
	KindAssessRelevance,
	KindRecordAssessment,
	KindPersistStatus,
	KindRecordReviewDecision,
	KindIndexDocument,
	KindEmitSignal,
}

// defaultAssignments maps every declared activity kind to its tier.
var defaultAssignments = map[ActivityKind]Tier{
	KindAssessRelevance:      TierHeavyCompute,
	KindRecordAssessment:     TierStorageIO,
	KindPersistStatus:        TierStorageIO,
	KindRecordReviewDecision: TierStorageIO,
	KindIndexDocument:        TierStorageIO,
	KindEmitSignal:           TierGeneralCoordination,
}

// Assignment is the routing result for one activity kind.
type Assignment struct {
	Tier                       Tier
	MaxConcurrentActivities    int
	MaxConcurrentWorkflowTasks int
}

// Router resolves activity kinds to tiers and concurrency ceilings.
type Router struct {
	assignments map[ActivityKind]Tier
	limits      map[Tier]config.TierLimits
}

// New builds a Router from the routing config and validates it: every
// declared kind assigned exactly once, every assignment naming a known tier.
func New(cfg config.Routing) (*Router, error) {
	r := &Router{
		assignments: defaultAssignments,
		limits: map[Tier]config.TierLimits{
			TierHeavyCompute:        cfg.HeavyCompute,
			TierStorageIO:           cfg.StorageIO,
			TierGeneralCoordination: cfg.GeneralCoordination,
		},
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// validate checks total coverage of the declared kinds and tier sanity.
func (r *Router) validate() error {
	seen := make(map[ActivityKind]bool, len(DeclaredKinds))
	for _, kind := range DeclaredKinds {
		tier, ok := r.assignments[kind]
		if !ok {
			return fmt.Errorf("activity kind %q has no queue assignment", kind)
		}
		if _, ok := r.limits[tier]; !ok {
			return fmt.Errorf("activity kind %q assigned to unknown tier %q", kind, tier)
		}
		if seen[kind] {
			return fmt.Errorf("activity kind %q declared twice", kind)
		}
		seen[kind] = true
	}
	for kind := range r.assignments {
		if !seen[kind] {
			return fmt.Errorf("assignment for undeclared activity kind %q", kind)
		}
	}
	return nil
}

// RouteFor returns the assignment for the given activity kind.
func (r *Router) RouteFor(kind ActivityKind) (Assignment, error) {
	tier, ok := r.assignments[kind]
	if !ok {
		return Assignment{}, fmt.Errorf("activity kind %q has no queue assignment", kind)
	}
	lim := r.limits[tier]
	return Assignment{
		Tier:                       tier,
		MaxConcurrentActivities:    lim.MaxConcurrentActivities,
		MaxConcurrentWorkflowTasks: lim.MaxConcurrentWorkflowTasks,
	}, nil
}

// Limits returns the concurrency ceilings for a tier, for worker sizing.
func (r *Router) Limits(tier Tier) config.TierLimits {
	return r.limits[tier]
}

// QueueFor returns the task queue name for an activity kind using the static
// assignment table. Workflow code calls this when building activity options;
// the table is compile-time constant, so replayed histories stay
// deterministic regardless of runtime configuration.
func QueueFor(kind ActivityKind) string {
	return string(defaultAssignments[kind])
}
