package core

import "testing"

func TestRecordAndDrainDiag(t *testing.T) {
	ClearDiag()
	RecordDiag(EvtSyncLoss, 0, 100, 1)
	RecordDiag(EvtScheduleLate, 1, 200, 2)

	events := DrainDiag()
	if len(events) != 2 {
		t.Fatalf("DrainDiag returned %d events, want 2", len(events))
	}
	if events[0].EventType != EvtSyncLoss || events[0].Tick != 100 {
		t.Errorf("events[0] = %+v, want EvtSyncLoss at tick 100", events[0])
	}
	if events[1].EventType != EvtScheduleLate || events[1].Tick != 200 {
		t.Errorf("events[1] = %+v, want EvtScheduleLate at tick 200", events[1])
	}
}

func TestDiagRingWrapsAround(t *testing.T) {
	ClearDiag()
	for i := 0; i < DiagRingSize+5; i++ {
		RecordDiag(EvtCRCError, uint8(i), uint32(i), 0)
	}

	events := DrainDiag()
	if len(events) != DiagRingSize {
		t.Fatalf("DrainDiag returned %d events, want %d (ring capacity)", len(events), DiagRingSize)
	}
	// The oldest surviving event is the 6th recorded (index 5), since the
	// first 5 were overwritten by wraparound.
	if events[0].Channel != 5 {
		t.Errorf("oldest surviving event channel = %d, want 5", events[0].Channel)
	}
}

func TestClearDiagEmptiesRing(t *testing.T) {
	RecordDiag(EvtSyncLoss, 0, 1, 1)
	ClearDiag()
	if events := DrainDiag(); len(events) != 0 {
		t.Errorf("DrainDiag after ClearDiag = %v, want empty", events)
	}
}
