// Command midi-button turns a momentary switch into a BLE MIDI controller
// and publishes its lifecycle to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/midi-button/internal/ble"
	"github.com/sweeney/midi-button/internal/clock"
	"github.com/sweeney/midi-button/internal/config"
	"github.com/sweeney/midi-button/internal/gpio"
	"github.com/sweeney/midi-button/internal/logic"
	"github.com/sweeney/midi-button/internal/midi"
	"github.com/sweeney/midi-button/internal/mqtt"
	"github.com/sweeney/midi-button/internal/status"
	"github.com/sweeney/midi-button/internal/web"
)

type options struct {
	configPath  string
	poll        time.Duration
	broker      string
	topicPrefix string
	httpAddr    string
	heartbeat   time.Duration
	printState  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "YAML device profile (empty for defaults)")
	flag.DurationVar(&opts.poll, "poll", 10*time.Millisecond, "Input sampling interval")
	flag.StringVar(&opts.broker, "broker", "", "MQTT broker address (empty to disable telemetry)")
	flag.StringVar(&opts.topicPrefix, "topic-prefix", mqtt.DefaultTopicPrefix, "MQTT topic prefix")
	flag.StringVar(&opts.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.DurationVar(&opts.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.BoolVar(&opts.printState, "print-state", false, "Print current switch state and exit")

	flag.Parse()

	if err := run(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	board, err := gpio.NewRealBoard(cfg.GPIOPins(), cfg.Power.SystemState)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer board.Close()

	if opts.printState {
		trigger, mode, err := board.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Printf("trigger: %s, mode: %s\n", switchString(trigger), switchString(mode))
		return nil
	}

	encoder, err := cfg.Encoder()
	if err != nil {
		return fmt.Errorf("init midi: %w", err)
	}

	mailbox := logic.NewMailbox()
	peripheral, err := ble.NewPeripheral(cfg.BLE.Name, mailbox)
	if err != nil {
		return fmt.Errorf("init ble: %w", err)
	}
	defer peripheral.Close()

	var publisher mqtt.Publisher = mqtt.NopPublisher{}
	var mqttStatus mqtt.ConnectionStatus = mqtt.NopPublisher{}
	if opts.broker != "" {
		p := mqtt.NewRealPublisher(opts.broker, clientID(), opts.topicPrefix)
		publisher, mqttStatus = p, p
	}
	defer publisher.Close()

	timing := cfg.Logic()
	tracker := status.NewTracker(time.Now(), status.Config{
		DeviceName:  cfg.BLE.Name,
		Channel:     encoder.Channel(),
		Controller:  encoder.Controller(),
		PollMs:      opts.poll.Milliseconds(),
		DebounceMs:  timing.Debounce.Milliseconds(),
		LongPressMs: timing.LongPress.Milliseconds(),
		SleepMs:     timing.SleepTimeout.Milliseconds(),
		HeartbeatMs: opts.heartbeat.Milliseconds(),
		Broker:      opts.broker,
		HTTPPort:    opts.httpAddr,
	})

	d := &daemon{publisher: publisher, mqttStatus: mqttStatus, tracker: tracker}
	ctrl, err := logic.NewController(timing, logic.Deps{
		Clock:     clock.System{},
		Inputs:    board,
		Indicator: board,
		Transport: peripheral,
		Mailbox:   mailbox,
		Suspender: board,
		Encoder:   encoder,
		OnEvent:   d.handleEvent,
	})
	if err != nil {
		return fmt.Errorf("init controller: %w", err)
	}
	d.snapshot = ctrl.Snapshot

	d.publishStatus("STARTUP", "")

	if opts.httpAddr != "" {
		srv := web.New(opts.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", opts.httpAddr)
	}

	log.Printf("started: name=%q channel=%d cc=%d poll=%v debounce=%v sleep=%v broker=%q",
		cfg.BLE.Name, encoder.Channel(), encoder.Controller(), opts.poll, timing.Debounce, timing.SleepTimeout, opts.broker)

	if err := ctrl.Start(); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	ticker := time.NewTicker(opts.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctrl, d, opts.heartbeat, time.Now, ticker.C, sigCh)
}

// daemon is the controller's event sink. It logs each event, publishes it
// and keeps the status tracker current.
type daemon struct {
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker

	// snapshot reads the controller state; nil until the controller exists.
	snapshot func() logic.Snapshot
}

func (d *daemon) handleEvent(e logic.Event) {
	switch e.Type {
	case logic.EventPress, logic.EventRelease:
		if e.Delivered {
			log.Printf("ble: %s", midi.Describe(e.Payload))
		} else {
			log.Printf("ble: not connected - MIDI not sent (%s)", midi.Describe(e.Payload))
		}
		d.tracker.RecordMessage(e.Payload, e.Delivered)
	case logic.EventLongPress:
		log.Printf("event: %s held=%v", e.Type, e.Held)
	case logic.EventSleep:
		log.Printf("event: %s, going to sleep", e.Type)
	default:
		log.Printf("event: %s (power=%s connection=%s)", e.Type, e.Power, e.Connection)
	}

	if err := d.publisher.Publish(e); err != nil {
		log.Printf("publish error: %v", err)
	}

	d.refresh()

	if e.Type == logic.EventSleep {
		d.publishStatus("SLEEP", "inactivity")
		// A clean disconnect keeps the broker from replacing the retained
		// SLEEP status with the will message.
		if err := d.publisher.Close(); err != nil {
			log.Printf("mqtt close error: %v", err)
		}
	}
}

// refresh copies controller and broker state into the tracker.
func (d *daemon) refresh() {
	if d.snapshot != nil {
		d.tracker.Update(d.snapshot())
	}
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
}

// publishStatus publishes a retained system event carrying a full status
// snapshot. HEARTBEAT is not retained.
func (d *daemon) publishStatus(event, reason string) {
	d.refresh()
	snap := d.tracker.Snapshot()
	err := d.publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      event,
		Reason:     reason,
		Retained:   event != "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	})
	if err != nil {
		log.Printf("failed to publish %s event: %v", event, err)
		return
	}
	if event != "HEARTBEAT" {
		log.Printf("published %s event", event)
	}
}

func runLoop(ctrl *logic.Controller, d *daemon, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			d.publishStatus("SHUTDOWN", signalName(s))
			return nil

		case <-tick:
			if err := ctrl.Tick(); err != nil {
				return err
			}

			if hb := ctrl.CheckHeartbeat(now(), heartbeat); hb != nil {
				c := hb.Counts
				log.Printf("heartbeat: uptime=%v presses=%d releases=%d dropped=%d pairings=%d",
					hb.Uptime, c.Presses, c.Releases, c.Dropped, c.Pairings)
				d.publishStatus("HEARTBEAT", "")
			}

			d.refresh()
		}
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func switchString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}

func clientID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "midi-button"
	}
	return "midi-button-" + host
}
