// Command touchlamp turns a capacitive touch pad into a DMX lighting
// sequence: it calibrates the sensor at startup, debounces touch and release
// with adaptive thresholds, plays the configured light script on touch, and
// publishes transition events to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Anticdope/cap-test-2/internal/config"
	"github.com/Anticdope/cap-test-2/internal/dmx"
	"github.com/Anticdope/cap-test-2/internal/gpio"
	"github.com/Anticdope/cap-test-2/internal/logic"
	"github.com/Anticdope/cap-test-2/internal/mqtt"
	"github.com/Anticdope/cap-test-2/internal/sequence"
	"github.com/Anticdope/cap-test-2/internal/status"
	"github.com/Anticdope/cap-test-2/internal/web"
)

func main() {
	poll := flag.Duration("poll", 20*time.Millisecond, "Sensor polling interval")
	debounce := flag.Duration("debounce", 50*time.Millisecond, "Minimum time between touch state transitions")
	window := flag.Int("window", 5, "Noise filter window size (odd)")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	serialDev := flag.String("serial", "/dev/ttyUSB0", "DMX adapter serial device")
	baud := flag.Int("baud", 57600, "DMX adapter baud rate")
	pinDrive := flag.Int("pin-drive", gpio.DefaultPinDrive, "BCM pin number for the sensor drive line")
	pinSense := flag.Int("pin-sense", gpio.DefaultPinSense, "BCM pin number for the sensor sense line")
	pinLED := flag.Int("pin-led", gpio.DefaultPinLED, "BCM pin number for the indicator LED")
	configPath := flag.String("config", "", "YAML config file (calibration, fixtures, script)")
	httpAddr := flag.String("http", ":8080", "HTTP status address (empty to disable)")
	printReading := flag.Bool("print-reading", false, "Print one raw and filtered reading and exit")
	verbose := flag.Bool("verbose", false, "Enable debug logging")

	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if err := run(options{
		poll:         *poll,
		debounce:     *debounce,
		window:       *window,
		broker:       *broker,
		heartbeat:    *heartbeat,
		serialDev:    *serialDev,
		baud:         *baud,
		pinDrive:     *pinDrive,
		pinSense:     *pinSense,
		pinLED:       *pinLED,
		configPath:   *configPath,
		httpAddr:     *httpAddr,
		printReading: *printReading,
	}); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

type options struct {
	poll         time.Duration
	debounce     time.Duration
	window       int
	broker       string
	heartbeat    time.Duration
	serialDev    string
	baud         int
	pinDrive     int
	pinSense     int
	pinLED       int
	configPath   string
	httpAddr     string
	printReading bool
}

func run(opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sensor, err := gpio.NewRealSensor(opts.pinDrive, opts.pinSense)
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}
	defer sensor.Close()

	read := safeRead(sensor)

	// Print reading mode
	if opts.printReading {
		raw, err := sensor.Read()
		if err != nil {
			return fmt.Errorf("read sensor: %w", err)
		}
		filter := logic.NewFilter(opts.window)
		filter.Push(raw)
		for i := 1; i < filter.Size(); i++ {
			filter.Push(read())
		}
		fmt.Printf("raw: %d, filtered: %d\n", raw, filter.Value())
		return nil
	}

	indicator, err := gpio.NewRealIndicator(opts.pinLED)
	if err != nil {
		return fmt.Errorf("init indicator: %w", err)
	}
	defer indicator.Close()

	sink, err := dmx.OpenSerialSink(opts.serialDev, opts.baud)
	if err != nil {
		return fmt.Errorf("open dmx sink: %w", err)
	}
	defer sink.Close()

	channels := cfg.ChannelMap()
	script, err := cfg.BuildScript()
	if err != nil {
		return fmt.Errorf("build script: %w", err)
	}
	player := sequence.NewPlayer(script, channels, sink)

	// Known dark state before calibration: fingers hovering over a lit lamp
	// would skew the baseline.
	if err := player.AllOff(); err != nil {
		log.Warnf("startup all-off: %v", err)
	}
	if err := indicator.SetActive(false); err != nil {
		log.Warnf("indicator off: %v", err)
	}

	// Startup calibration. This blocks the whole process for a few seconds,
	// which is fine here and only here.
	calibrator := logic.NewCalibrator(cfg.CalibrationParams())
	log.Info("calibrating, do not touch the lamp")
	cal, err := calibrator.Calibrate(read, time.Now())
	if err != nil {
		return fmt.Errorf("calibrate: %w", err)
	}
	log.Infof("calibrated: baseline=%.1f noise=%.1f touch=%.1f release=%.1f",
		cal.Baseline, cal.NoiseAmplitude, cal.TouchThreshold, cal.ReleaseThreshold)

	filter := logic.NewFilter(opts.window)
	filter.Seed(int(cal.Baseline + 0.5))

	// Initialize MQTT
	publisher := mqtt.NewRealPublisher(opts.broker)
	defer publisher.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:          opts.poll.Milliseconds(),
		DebounceMs:      opts.debounce.Milliseconds(),
		HeartbeatMs:     opts.heartbeat.Milliseconds(),
		AdaptIntervalMs: cfg.CalibrationParams().AdaptInterval.Milliseconds(),
		Broker:          opts.broker,
		HTTPAddr:        opts.httpAddr,
		SerialDevice:    opts.serialDev,
	})
	tracker.SetCalibration(cal)

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Warnf("failed to publish startup event: %v", err)
	} else {
		log.Info("published startup event")
	}

	// Start HTTP status server
	if opts.httpAddr != "" {
		srv := web.New(opts.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infof("http status server listening on %s", opts.httpAddr)
	}

	// Watch the config file for script changes. Reloads are handed to the
	// control loop over a channel so only the loop goroutine touches the
	// player.
	scripts := make(chan sequence.Script, 1)
	watchDone := make(chan struct{})
	defer close(watchDone)
	if opts.configPath != "" {
		go func() {
			err := config.Watch(opts.configPath, func(cfg config.Config) {
				s, err := cfg.BuildScript()
				if err != nil {
					log.Errorf("reloaded config has a bad script: %v", err)
					return
				}
				select {
				case scripts <- s:
				default:
				}
			}, watchDone)
			if err != nil {
				log.Errorf("config watch: %v", err)
			}
		}()
	}

	log.Infof("started: poll=%v debounce=%v broker=%s heartbeat=%v sequence=%v",
		opts.poll, opts.debounce, opts.broker, opts.heartbeat, script.Duration())

	ticker := time.NewTicker(opts.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(loop{
		read:       read,
		indicator:  indicator,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		filter:     filter,
		calibrator: calibrator,
		player:     player,
		debounce:   opts.debounce,
		heartbeat:  opts.heartbeat,
		now:        time.Now,
		tick:       ticker.C,
		sig:        sigCh,
		scripts:    scripts,
	})
}

// loop bundles the control loop collaborators so tests can swap in fakes and
// synthetic clocks.
type loop struct {
	read       func() int
	indicator  gpio.Indicator
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	filter     *logic.Filter
	calibrator *logic.Calibrator
	player     *sequence.Player
	debounce   time.Duration
	heartbeat  time.Duration
	now        func() time.Time
	tick       <-chan time.Time
	sig        <-chan os.Signal
	scripts    <-chan sequence.Script
}

func runLoop(l loop) error {
	startTime := l.now()
	monitor := logic.NewMonitor(l.debounce, startTime)

	for {
		select {
		case s := <-l.sig:
			log.Infof("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if err := l.player.AllOff(); err != nil {
				log.Warnf("shutdown all-off: %v", err)
			}
			if err := l.indicator.SetActive(false); err != nil {
				log.Warnf("shutdown indicator: %v", err)
			}
			event := mqtt.SystemEvent{
				Timestamp: l.now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if l.tracker != nil {
				if l.mqttStatus != nil {
					l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
				}
				snap := l.tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := l.publisher.PublishSystem(event); err != nil {
				log.Warnf("failed to publish shutdown event: %v", err)
			} else {
				log.Info("published shutdown event")
			}
			return nil

		case script := <-l.scripts:
			if err := l.player.SetScript(script); err != nil {
				log.Warnf("script reload deferred: %v", err)
			} else {
				log.Infof("script reloaded: %d steps, %v total", len(script), script.Duration())
			}

		case <-l.tick:
			t := l.now()

			l.filter.Push(l.read())
			filtered := l.filter.Value()

			if l.calibrator.AdaptBaseline(l.read, t, monitor.State()) {
				cal := l.calibrator.Calibration()
				log.Debugf("baseline adapted: %.1f", cal.Baseline)
				l.tracker.SetCalibration(cal)
			}

			if event := monitor.Process(filtered, l.calibrator.Calibration(), t); event != nil {
				log.Infof("event: %s (reading=%d delta=%.1f)", event.Type, event.Filtered, event.Delta)

				touched := event.Type == logic.EventTouch
				if err := l.indicator.SetActive(touched); err != nil {
					log.Warnf("indicator: %v", err)
				}
				if err := l.publisher.Publish(*event); err != nil {
					log.Warnf("publish error: %v", err)
					// Don't crash on publish failure
				}

				if touched {
					if err := l.player.Start(t); err != nil {
						log.Warnf("sequence start: %v", err)
					}
				} else if !l.player.Active() {
					// A release with no sequence running (it already
					// finished) still guarantees a dark lamp.
					if err := l.player.AllOff(); err != nil {
						log.Warnf("release all-off: %v", err)
					}
				}
			}

			done, err := l.player.Tick(t)
			if err != nil {
				log.Warnf("sequence: %v", err)
			}
			if done {
				monitor.CountSequence()
				log.Debug("sequence complete")
			}

			// Check for heartbeat
			if hb := monitor.CheckHeartbeat(t, l.heartbeat); hb != nil {
				counts := hb.Counts
				log.Infof("heartbeat: uptime=%v touches=%d releases=%d sequences=%d",
					hb.Uptime, counts.Touches, counts.Releases, counts.Sequences)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hb.Timestamp,
					Event:     "HEARTBEAT",
				}
				if l.tracker != nil {
					if l.mqttStatus != nil {
						l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
					}
					l.tracker.Update(monitor.State(), filtered, l.player.Active(), monitor.Counts())
					snap := l.tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := l.publisher.PublishSystem(hbEvent); err != nil {
					log.Warnf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			if l.tracker != nil {
				l.tracker.Update(monitor.State(), filtered, l.player.Active(), monitor.Counts())
				if l.mqttStatus != nil {
					l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
				}
			}
		}
	}
}

// safeRead wraps a sensor in a plain read function for the filter and
// calibrator. Read errors fall back to the last good reading so a transient
// fault never injects a zero spike into the pipeline.
func safeRead(sensor gpio.Sensor) func() int {
	last := 0
	return func() int {
		r, err := sensor.Read()
		if err != nil {
			log.Warnf("sensor read error: %v", err)
			return last
		}
		last = r
		return r
	}
}
