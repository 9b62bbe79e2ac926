package assessment

import "testing"

func TestDecide_AboveApproveThreshold(t *testing.T) {
	p := DefaultPolicy()
	for _, score := range []float64{8.0, 8.01, 9.2, 10.0} {
		if d := p.Decide(score); d != DecisionAutoApprove {
			t.Fatalf("Decide(%v) = %s, want auto_approve", score, d)
		}
	}
}

func TestDecide_BelowRejectThreshold(t *testing.T) {
	p := DefaultPolicy()
	for _, score := range []float64{0, 3.0, 6.99} {
		if d := p.Decide(score); d != DecisionAutoReject {
			t.Fatalf("Decide(%v) = %s, want auto_reject", score, d)
		}
	}
}

func TestDecide_ReviewBand(t *testing.T) {
	p := DefaultPolicy()
	for _, score := range []float64{7.0, 7.5, 7.99} {
		if d := p.Decide(score); d != DecisionNeedsHumanReview {
			t.Fatalf("Decide(%v) = %s, want needs_human_review", score, d)
		}
	}
}

// Exactly 8.0 approves; exactly 7.0 goes to review. The approve boundary is
// inclusive, the reject boundary exclusive, so a tie never auto-approves a
// borderline score.
func TestDecide_ExactBoundaries(t *testing.T) {
	p := DefaultPolicy()
	if d := p.Decide(8.0); d != DecisionAutoApprove {
		t.Fatalf("Decide(8.0) = %s, want auto_approve", d)
	}
	if d := p.Decide(7.0); d != DecisionNeedsHumanReview {
		t.Fatalf("Decide(7.0) = %s, want needs_human_review", d)
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy should validate: %v", err)
	}
	if err := (Policy{AutoApprove: 5, AutoReject: 7}).Validate(); err == nil {
		t.Fatal("expected error for inverted thresholds")
	}
	if err := (Policy{AutoApprove: 12, AutoReject: 7}).Validate(); err == nil {
		t.Fatal("expected error for threshold above score range")
	}
}
