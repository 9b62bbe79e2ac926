package assessment

import "fmt"

// Policy holds the decision thresholds for one deployment. Boundary handling
// is asymmetric on purpose: anything below AutoApprove never approves
// automatically, so borderline documents always get human eyes.
type Policy struct {
	AutoApprove float64 `json:"auto_approve"`
	AutoReject  float64 `json:"auto_reject"`
}

// DefaultPolicy returns the standard thresholds.
func DefaultPolicy() Policy {
	return Policy{AutoApprove: 8.0, AutoReject: 7.0}
}

// Validate checks the thresholds are ordered and within the score range.
func (p Policy) Validate() error {
	if p.AutoReject > p.AutoApprove {
		return fmt.Errorf("auto_reject %.2f exceeds auto_approve %.2f", p.AutoReject, p.AutoApprove)
	}
	if p.AutoApprove < 0 || p.AutoApprove > 10 || p.AutoReject < 0 || p.AutoReject > 10 {
		return fmt.Errorf("thresholds must be within [0,10], got approve=%.2f reject=%.2f", p.AutoApprove, p.AutoReject)
	}
	return nil
}

// Decide maps a relevance score to a decision:
// score >= AutoApprove approves, score < AutoReject rejects,
// [AutoReject, AutoApprove) requires human review.
func (p Policy) Decide(score float64) Decision {
	switch {
	case score >= p.AutoApprove:
		return DecisionAutoApprove
	case score < p.AutoReject:
		return DecisionAutoReject
	default:
		return DecisionNeedsHumanReview
	}
}
