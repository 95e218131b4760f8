package core

import "testing"

func TestInjectorScheduleOpensAndClosesOnTime(t *testing.T) {
	out := &fakeOutputDriver{}
	sc := &InjectorSchedule{Channel: 1}

	const revTime = 18000 // microseconds
	sc.Schedule(1000, revTime, 3000, out)

	if sc.Status != SchedulePending {
		t.Fatalf("status = %v, want SchedulePending", sc.Status)
	}

	sc.Poll(sc.OpenTime-10, out)
	if sc.Status != SchedulePending {
		t.Error("should still be pending before OpenTime")
	}

	sc.Poll(sc.OpenTime, out)
	if sc.Status != ScheduleRunning {
		t.Error("expected RUNNING at OpenTime")
	}
	if len(out.injectorOpen) != 1 || out.injectorOpen[0] != 1 {
		t.Errorf("injectorOpen calls = %v, want [1]", out.injectorOpen)
	}

	sc.Poll(sc.CloseTime, out)
	if sc.Status != ScheduleOff {
		t.Error("expected OFF at CloseTime")
	}
	if len(out.injectorClose) != 1 || out.injectorClose[0] != 1 {
		t.Errorf("injectorClose calls = %v, want [1]", out.injectorClose)
	}
}

func TestInjectorScheduleCancelsPriorRunningEvent(t *testing.T) {
	out := &fakeOutputDriver{}
	sc := &InjectorSchedule{Channel: 2, Status: ScheduleRunning}

	sc.Schedule(5000, 18000, 3000, out)

	if len(out.injectorClose) != 1 {
		t.Errorf("expected the prior RUNNING event to be closed before rescheduling, got %v", out.injectorClose)
	}
	if sc.Status != SchedulePending {
		t.Errorf("status = %v, want SchedulePending", sc.Status)
	}
}

func TestInjectorScheduleCancel(t *testing.T) {
	out := &fakeOutputDriver{}
	sc := &InjectorSchedule{Channel: 0, Status: ScheduleRunning}

	sc.Cancel(out)
	if sc.Status != ScheduleOff {
		t.Error("expected OFF after Cancel")
	}
	if len(out.injectorClose) != 1 {
		t.Errorf("expected one injectorClose call, got %v", out.injectorClose)
	}

	out2 := &fakeOutputDriver{}
	sc2 := &InjectorSchedule{Channel: 0, Status: ScheduleOff}
	sc2.Cancel(out2)
	if len(out2.injectorClose) != 0 {
		t.Error("Cancel on an already-OFF channel should not toggle the output")
	}
}
