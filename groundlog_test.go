package groundlog_test

import (
	"context"
	"errors"
	"testing"

	"groundlog"
)

func TestBuildRejectsMalformedProgram(t *testing.T) {
	pb := groundlog.NewProgramBuilder()
	pb.Object("a")
	q := pb.Predicate(groundlog.Fluent, "q", 1)
	// q(x) with an empty body: parameter 0 is unreachable.
	pb.Rule(groundlog.Atom{Predicate: q, Kind: groundlog.Fluent, Terms: []groundlog.Term{groundlog.Param(0)}},
		groundlog.Condition{Arity: 1}, 1)

	_, err := groundlog.Build(pb.Build())
	if !errors.Is(err, groundlog.ErrConfiguration) {
		t.Fatalf("want ErrConfiguration, got %v", err)
	}
}

func TestGroundStreamsRules(t *testing.T) {
	pb := groundlog.NewProgramBuilder()
	a := pb.Object("a")
	tp := pb.Predicate(groundlog.Static, "t", 1)
	qp := pb.Predicate(groundlog.Fluent, "q", 1)
	pb.Fact(groundlog.Static, tp, a)
	pb.Rule(
		groundlog.Atom{Predicate: qp, Kind: groundlog.Fluent, Terms: []groundlog.Term{groundlog.Param(0)}},
		groundlog.Condition{
			Arity: 1,
			StaticLiterals: []groundlog.Literal{{
				Atom: groundlog.Atom{Predicate: tp, Kind: groundlog.Static, Terms: []groundlog.Term{groundlog.Param(0)}},
			}},
		},
		1,
	)

	var events []groundlog.Event
	result, err := groundlog.GroundWithListener(context.Background(), pb.Build(), func(ev groundlog.Event) {
		events = append(events, ev)
	}, groundlog.WithWorkers(1))
	if err != nil {
		t.Fatalf("GroundWithListener: %v", err)
	}
	if !result.Complete {
		t.Fatal("expected a complete run")
	}
	if result.RunID == "" {
		t.Error("result should carry a run id")
	}
	if len(events) != 1 {
		t.Fatalf("streamed %d events, want 1", len(events))
	}
	if len(events[0].Binding) != 1 || events[0].Binding[0] != a {
		t.Errorf("event binding = %v, want [%d]", events[0].Binding, a)
	}
	if len(result.GroundRules) != 1 {
		t.Errorf("result lists %d ground rules, want 1", len(result.GroundRules))
	}
}

func TestGroundConvenienceWrapper(t *testing.T) {
	pb := groundlog.NewProgramBuilder()
	rp := pb.Predicate(groundlog.Fluent, "ready", 0)
	pb.Rule(groundlog.Atom{Predicate: rp, Kind: groundlog.Fluent}, groundlog.Condition{}, 1)

	result, err := groundlog.Ground(context.Background(), pb.Build())
	if err != nil {
		t.Fatalf("Ground: %v", err)
	}
	if got := result.Facts.Tagged(groundlog.Fluent).Predicate.Len(); got != 1 {
		t.Errorf("fluent facts = %d, want 1", got)
	}
}
