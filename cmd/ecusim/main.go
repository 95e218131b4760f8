// Command ecusim runs the engine controller core against a software
// simulated crank and sensor set, serving the tuner protocol on a serial
// port and a read-only live-data feed to a browser dashboard.
package main

import (
	"flag"
	"log"
	"time"

	"go.bug.st/serial"

	"goecu/config"
	"goecu/core"
	"goecu/protocol"
	"goecu/targets/sim"
)

func main() {
	configPath := flag.String("config", "ecusim.yaml", "bootstrap config file")
	portOverride := flag.String("port", "", "override the configured tuner serial port")
	nvPath := flag.String("nvimage", "ecusim.nv", "path to the simulated EEPROM image")
	flag.Parse()

	cfg := config.LoadConfig(*configPath)
	if *portOverride != "" {
		cfg.Serial.Device = *portOverride
	}

	nv := sim.NewNVStore(*nvPath)
	core.SetNonVolatileDriver(nv)

	ecu, err := cfg.NewECU()
	if err != nil {
		log.Fatalf("ecusim: build ECU: %v", err)
	}

	clock := sim.NewClock()
	core.SetClockDriver(clock)

	adc := sim.NewADC()
	core.SetADCDriver(adc)

	outputs := sim.NewOutputs()
	core.SetOutputDriver(outputs)

	ecu.Sensors = &core.SensorSampler{
		Channels: sim.SensorChannels(),
		Alpha: core.IIRAlpha{
			MAP: 32, TPS: 16, Coolant: 200, IAT: 200, O2: 200, Battery: 220, OilP: 200, FuelP: 200,
		},
	}

	engine := sim.NewEngine(ecu.Trigger, clock, adc, sim.EngineConfig{
		IdleRPM:       cfg.Simulator.IdleRPM,
		RedlineRPM:    cfg.Simulator.RedlineRPM,
		RampRPMPerSec: cfg.Simulator.RampRPMPerSec,
		Teeth:         cfg.Trigger.Teeth,
		Missing:       cfg.Trigger.Missing,
		EdgesPerTooth: cfg.Trigger.EdgesPerTooth,
	})

	ecu.Start(clock.NowMS())
	engine.Run()
	defer engine.Stop()

	server := protocol.NewServer(ecu, ecu.Calibration)
	server.OnBurn = func() error { return config.SyncFromCalibration(ecu) }

	dash := newDashboard(ecu, outputs, engine)
	go dash.run(cfg.Dashboard.ListenAddr)

	go runMainLoop(ecu, clock)

	log.Printf("ecusim: serving tuner protocol on %s at %d baud", cfg.Serial.Device, cfg.Serial.Baud)
	serveTunerPort(cfg.Serial.Device, cfg.Serial.Baud, server)
}

// runMainLoop drives the 1000Hz/30Hz/15Hz/4Hz/1Hz periodic dispatch at a
// steady 1000Hz tick, matching the resolution MainLoopTick is specified at.
func runMainLoop(ecu *core.ECU, clock *sim.Clock) {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		ecu.MainLoopTick(clock.NowUS(), clock.NowMS())
	}
}

// serveTunerPort opens the configured serial port and runs the tuner
// protocol's legacy/modern dispatch loop against it until the port fails.
// A missing or unopenable device is logged and retried, so the simulator
// keeps running its engine model even with no tuning tool attached.
func serveTunerPort(device string, baud int, server *protocol.Server) {
	mode := &serial.Mode{BaudRate: baud}
	for {
		port, err := serial.Open(device, mode)
		if err != nil {
			log.Printf("ecusim: open %s: %v, retrying in 5s", device, err)
			time.Sleep(5 * time.Second)
			continue
		}
		runTunerSession(port, server)
		port.Close()
	}
}

func runTunerSession(port serial.Port, server *protocol.Server) {
	receiver := protocol.NewReceiver()
	buf := make([]byte, 256)
	for {
		n, err := port.Read(buf)
		if err != nil {
			log.Printf("ecusim: tuner port read: %v", err)
			return
		}
		data := buf[:n]
		for len(data) > 0 {
			if !protocol.IsModernFrame(data[0]) {
				if resp := server.LegacyDispatch(data[0]); resp != nil {
					if _, err := port.Write(resp); err != nil {
						log.Printf("ecusim: tuner port write: %v", err)
						return
					}
				}
				data = data[1:]
				continue
			}
			for _, resp := range receiver.Feed(data, server.Registry) {
				if _, err := port.Write(resp); err != nil {
					log.Printf("ecusim: tuner port write: %v", err)
					return
				}
			}
			data = nil
		}
	}
}
