package core

import "testing"

func TestPeriodicSchedulerFirstCallFiresEveryRate(t *testing.T) {
	var p PeriodicScheduler
	f := p.Due(0)
	if !f.Hz1000 || !f.Hz200 || !f.Hz30 || !f.Hz15 || !f.Hz4 || !f.Hz1 {
		t.Errorf("first Due() call should fire every rate, got %+v", f)
	}
}

func TestPeriodicSchedulerRespectsIntervals(t *testing.T) {
	var p PeriodicScheduler
	p.Due(0)

	f := p.Due(1)
	if !f.Hz1000 {
		t.Error("expected Hz1000 due after 1ms")
	}
	if f.Hz200 || f.Hz30 || f.Hz15 || f.Hz4 || f.Hz1 {
		t.Errorf("only Hz1000 should be due 1ms later, got %+v", f)
	}

	f = p.Due(5)
	if !f.Hz200 {
		t.Error("expected Hz200 due after 5ms")
	}

	f = p.Due(1000)
	if !f.Hz1 {
		t.Error("expected Hz1 due after 1000ms")
	}
}

func TestPeriodicSchedulerDueResetsBaseline(t *testing.T) {
	var p PeriodicScheduler
	p.Due(0)
	p.Due(1) // Hz1000 fires, baseline moves to 1

	f := p.Due(1) // same timestamp again: nothing new should be due
	if f.Hz1000 {
		t.Error("Hz1000 should not re-fire at the same millisecond it just fired at")
	}
}
