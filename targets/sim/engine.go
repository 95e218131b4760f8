package sim

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"goecu/core"
)

// EngineConfig drives the virtual crank/sensor model.
type EngineConfig struct {
	IdleRPM       uint16
	RedlineRPM    uint16
	RampRPMPerSec float64

	Teeth         uint16
	Missing       uint16
	EdgesPerTooth uint8
}

// Engine simulates a spinning crank: it calls trigger.Edge at the tooth
// rate implied by its current RPM, with one tooth's worth of gap skipped
// every revolution for the missing-tooth wheel, and drives the ADC's
// MAP/TPS/coolant/IAT/battery channels from a simple throttle model.
type Engine struct {
	trigger *core.TriggerState
	clock   *Clock
	adc     *ADC
	cfg     EngineConfig

	throttle int32 // percent, 0-100, set via SetThrottle

	rpm      float64
	coolantC float64

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewEngine returns an Engine idling at cfg.IdleRPM with a cold coolant
// reading that warms toward operating temperature while running.
func NewEngine(trigger *core.TriggerState, clock *Clock, adc *ADC, cfg EngineConfig) *Engine {
	return &Engine{
		trigger:  trigger,
		clock:    clock,
		adc:      adc,
		cfg:      cfg,
		rpm:      float64(cfg.IdleRPM),
		coolantC: 10,
		stop:     make(chan struct{}),
	}
}

// SetThrottle sets the simulated throttle position, 0-100.
func (e *Engine) SetThrottle(pct int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	atomic.StoreInt32(&e.throttle, int32(pct))
}

// Throttle returns the current simulated throttle position.
func (e *Engine) Throttle() int {
	return int(atomic.LoadInt32(&e.throttle))
}

// Run drives the virtual crank until Stop is called. It owns its own
// goroutine; callers do not need to pump it from the main loop.
func (e *Engine) Run() {
	e.wg.Add(1)
	go e.loop()
}

// Stop halts the simulation goroutine and waits for it to exit.
func (e *Engine) Stop() {
	close(e.stop)
	e.wg.Wait()
}

func (e *Engine) loop() {
	defer e.wg.Done()

	const sensorInterval = 20 * time.Millisecond
	lastSensorUpdate := time.Now()

	for {
		select {
		case <-e.stop:
			return
		default:
		}

		if since := time.Since(lastSensorUpdate); since >= sensorInterval {
			e.updateRPM(since.Seconds())
			e.updateSensors()
			lastSensorUpdate = time.Now()
		}

		e.fireRevolution()
	}
}

// fireRevolution calls Edge once per actual (non-missing) tooth, spaced
// evenly across one revolution at the engine's current RPM, leaving the
// configured missing-tooth count of gaps unfired so the decoder sees the
// wide gap it syncs on.
func (e *Engine) fireRevolution() {
	revTimeUS := 60_000_000.0 / e.rpm
	toothIntervalUS := revTimeUS / float64(e.cfg.Teeth)
	actualTeeth := int(e.cfg.Teeth - e.cfg.Missing)

	for i := 0; i < actualTeeth; i++ {
		now := e.clock.NowUS()
		e.trigger.Edge(now)
		if i < actualTeeth-1 {
			time.Sleep(time.Duration(toothIntervalUS) * time.Microsecond)
		}
	}
	// The missing-tooth gap elapses without a call, then the next
	// revolution's loop iteration measures it as a double-width gap.
	time.Sleep(time.Duration(toothIntervalUS*float64(e.cfg.Missing+1)) * time.Microsecond)
}

// updateRPM ramps simulated RPM toward an idle/throttle-blended target.
func (e *Engine) updateRPM(dt float64) {
	throttle := float64(e.Throttle()) / 100
	target := float64(e.cfg.IdleRPM) + throttle*(float64(e.cfg.RedlineRPM)-float64(e.cfg.IdleRPM))

	maxStep := e.cfg.RampRPMPerSec * dt
	delta := target - e.rpm
	if math.Abs(delta) > maxStep {
		if delta > 0 {
			delta = maxStep
		} else {
			delta = -maxStep
		}
	}
	e.rpm += delta
	if e.rpm < 50 {
		e.rpm = 50
	}

	if e.coolantC < 90 {
		e.coolantC += dt * 0.3
	}
}

// updateSensors derives MAP/TPS/coolant/IAT/battery readings from the
// current throttle position and RPM and pushes them into the ADC.
func (e *Engine) updateSensors() {
	throttle := float64(e.Throttle())

	// MAP runs near-vacuum at idle, near-ambient at full throttle.
	mapKPa := 30 + throttle*0.7
	tps := throttle

	e.adc.Set(sensorChannels.MAP, scaleToRaw(mapKPa, 0, 105))
	e.adc.Set(sensorChannels.TPS, scaleToRaw(tps, 0, 100))
	e.adc.Set(sensorChannels.Coolant, scaleToRaw(e.coolantC+40, 0, 150))
	e.adc.Set(sensorChannels.IAT, scaleToRaw(25+40, 0, 150))
	e.adc.Set(sensorChannels.O2, scaleToRaw(147, 0, 255))
	e.adc.Set(sensorChannels.Battery, scaleToRaw(138, 0, 180))
	e.adc.Set(sensorChannels.OilP, scaleToRaw(40, 0, 100))
	e.adc.Set(sensorChannels.FuelP, scaleToRaw(60, 0, 100))
}

// scaleToRaw maps a physical value in [lo,hi] onto the 10-bit ADC range.
func scaleToRaw(v, lo, hi float64) core.ADCValue {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return core.ADCValue((v - lo) / (hi - lo) * 1023)
}

// sensorChannels assigns logical channel IDs; targets/rp2040 maps the same
// IDs onto real board pins, so core.SensorChannels configuration is shared
// between the simulator and hardware.
var sensorChannels = core.SensorChannels{
	MAP:     0,
	TPS:     1,
	Coolant: 2,
	IAT:     3,
	O2:      4,
	Battery: 5,
	OilP:    6,
	FuelP:   7,
}

// SensorChannels returns the channel assignment the Engine writes to, for
// wiring into core.SensorSampler.Channels.
func SensorChannels() core.SensorChannels {
	return sensorChannels
}
