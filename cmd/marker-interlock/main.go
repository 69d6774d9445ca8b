// Command marker-interlock watches a camera for ArUco markers and sends
// STOP/CONTINUE to a robot controller over serial while a chosen marker is in view.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/marker-interlock/internal/camera"
	"github.com/sweeney/marker-interlock/internal/config"
	"github.com/sweeney/marker-interlock/internal/gpio"
	"github.com/sweeney/marker-interlock/internal/logger"
	"github.com/sweeney/marker-interlock/internal/logic"
	"github.com/sweeney/marker-interlock/internal/mqtt"
	"github.com/sweeney/marker-interlock/internal/serial"
	"github.com/sweeney/marker-interlock/internal/status"
	"github.com/sweeney/marker-interlock/internal/web"
)

// frameRetryInterval is the first backoff delay when --frame-retries is set.
const frameRetryInterval = 100 * time.Millisecond

// Hardware constructors; tests swap these for fakes.
var (
	openSerial = func(name string, baud int, settle time.Duration) (serial.Channel, error) {
		p, err := serial.Open(name, baud, settle)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	openSource = func(device, width, height int) (camera.Source, error) {
		src, err := camera.OpenSource(device, width, height)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "marker-interlock: %v\n", err)
		os.Exit(1)
	}
	cfg.BindFlags(flag.CommandLine)
	flag.Parse()

	logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := run(cfg, os.Stdin, os.Stdout); err != nil {
		logger.Get().Error().Err(err).Msg("fatal")
		os.Exit(1)
	}
}

func run(cfg config.Config, stdin io.Reader, stdout io.Writer) (err error) {
	log := logger.Get()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	markers, err := cfg.MarkerSet()
	if err != nil {
		return err
	}
	dict, err := camera.ParseDictionary(cfg.Dictionary)
	if err != nil {
		return err
	}
	if err := dict.CheckMarkers(markers); err != nil {
		return fmt.Errorf("markers: %w", err)
	}

	var res resources
	defer func() {
		if cerr := res.closeAll(); cerr != nil {
			log.Warn().Err(cerr).Msg("release resources")
			if err == nil {
				err = cerr
			}
		}
	}()

	// Probe mode: detect once, print, exit
	if cfg.Probe {
		src, det, err := openCamera(cfg, dict, &res)
		if err != nil {
			return err
		}
		return probe(src, det, stdout)
	}

	in := bufio.NewReader(stdin)
	target, err := resolveTarget(cfg.Target, markers, in, stdout)
	if err != nil {
		return err
	}

	// Acquisition order: serial, camera, detector. Released in reverse.
	port, err := openSerial(cfg.SerialPort, cfg.Baud, cfg.Settle)
	if err != nil {
		return err
	}
	res.add("serial", port)

	src, det, err := openCamera(cfg, dict, &res)
	if err != nil {
		return err
	}

	var button gpio.Button = gpio.NoButton{}
	if cfg.StopPin >= 0 {
		b, err := gpio.NewRealButton(cfg.GPIOChip, cfg.StopPin)
		if err != nil {
			return fmt.Errorf("init stop button: %w", err)
		}
		res.add("stop button", b)
		button = b
	}

	var publisher interface {
		mqtt.Publisher
		mqtt.ConnectionStatus
	} = mqtt.NopPublisher{}
	if cfg.Broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.Broker)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		res.add("mqtt", p)
		publisher = p
	}

	runID := uuid.NewString()
	startTime := time.Now()
	tracker := status.NewTracker(startTime, status.Config{
		RunID:       runID,
		Target:      target,
		Markers:     markers.String(),
		SerialPort:  cfg.SerialPort,
		Camera:      cfg.Camera,
		Dictionary:  string(dict),
		CooldownMs:  cfg.Cooldown.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      cfg.Broker,
		HTTPAddr:    cfg.HTTPAddr,
	})
	tracker.SetMQTTConnected(publisher.IsConnected())

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	if err := publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}); err != nil {
		log.Warn().Err(err).Msg("failed to publish startup event")
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		srv.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
	}

	stop := make(chan string, 1)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		if s, ok := <-sigCh; ok {
			requestStop(stop, signalName(s))
		}
	}()
	go watchStdin(in, stop)

	log.Info().
		Str("run_id", runID).
		Int("target", int(target)).
		Dur("cooldown", cfg.Cooldown).
		Str("port", cfg.SerialPort).
		Int("camera", cfg.Camera).
		Str("dictionary", string(dict)).
		Msg("started; enter q to quit")

	interlock := logic.NewInterlock(target, cfg.Cooldown, port, startTime)
	return runLoop(src, det, interlock, button, publisher, publisher, tracker, cfg.Heartbeat, time.Now, stop)
}

func openCamera(cfg config.Config, dict camera.Dictionary, res *resources) (camera.Source, camera.Detector, error) {
	raw, err := openSource(cfg.Camera, cfg.FrameWidth, cfg.FrameHeight)
	if err != nil {
		return nil, nil, fmt.Errorf("init camera: %w", err)
	}
	src := camera.NewRetrySource(raw, cfg.FrameRetries, frameRetryInterval)
	res.add("camera", src)

	det, err := camera.NewArucoDetector(dict)
	if err != nil {
		return nil, nil, fmt.Errorf("init detector: %w", err)
	}
	res.add("detector", det)
	return src, det, nil
}

func runLoop(source camera.Source, detector camera.Detector, interlock *logic.Interlock, button gpio.Button, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, stop <-chan string) error {
	log := logger.Named("loop")

	for {
		frame, err := source.Read()
		if err != nil {
			publishShutdown(publisher, mqttStatus, tracker, interlock, now(), "FRAME_ERROR")
			return fmt.Errorf("read frame: %w", err)
		}

		markers, err := detector.Detect(frame)
		frame.Close()
		if err != nil {
			log.Warn().Err(err).Msg("marker detection failed, treating frame as empty")
			markers = nil
		}
		detection := camera.ToDetection(markers)
		log.Debug().Ints("markers", markerInts(detection.IDs())).Msg("frame")

		t := now()
		suppressed := interlock.Counts().Suppressed
		event, err := interlock.Evaluate(detection, t)
		if err != nil {
			log.Error().Err(err).Msg("command not delivered")
			publishShutdown(publisher, mqttStatus, tracker, interlock, t, "SEND_ERROR")
			return err
		}

		if event != nil {
			log.Info().
				Str("command", string(event.Command)).
				Str("from", string(event.From)).
				Str("to", string(event.To)).
				Ints("markers", markerInts(event.Markers)).
				Msg("command sent")
			if err := publisher.Publish(*event); err != nil {
				log.Warn().Err(err).Msg("publish error")
			}
			if tracker != nil {
				tracker.RecordCommand(*event)
			}
		} else if interlock.Counts().Suppressed > suppressed {
			last, _ := interlock.LastSent()
			log.Debug().
				Str("state", string(interlock.State())).
				Dur("since_last", t.Sub(last)).
				Msg("transition held by cooldown")
		}

		// Update status tracker for HTTP consumers
		if tracker != nil {
			tracker.Update(interlock.State(), interlock.Counts(), detection.IDs())
			if mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}
		}

		if hb := interlock.CheckHeartbeat(t, heartbeat); hb != nil {
			log.Info().
				Dur("uptime", hb.Uptime).
				Str("state", string(hb.State)).
				Int("cycles", hb.Counts.Cycles).
				Int("stops", hb.Counts.Stops).
				Int("continues", hb.Counts.Continues).
				Msg("heartbeat")

			hbEvent := mqtt.SystemEvent{Timestamp: hb.Timestamp, Event: "HEARTBEAT"}
			if tracker != nil {
				hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
			}
			if err := publisher.PublishSystem(hbEvent); err != nil {
				log.Warn().Err(err).Msg("heartbeat publish error")
			}
		}

		if reason, ok := stopRequested(stop, button); ok {
			log.Info().Str("reason", reason).Msg("shutting down")
			publishShutdown(publisher, mqttStatus, tracker, interlock, now(), reason)
			return nil
		}
	}
}

// stopRequested checks, without blocking, whether anything asked the loop to end.
func stopRequested(stop <-chan string, button gpio.Button) (string, bool) {
	select {
	case reason := <-stop:
		return reason, true
	default:
	}

	if button == nil {
		return "", false
	}
	pressed, err := button.Pressed()
	if err != nil {
		logger.Named("loop").Warn().Err(err).Msg("stop button read error")
		return "", false
	}
	if pressed {
		return "BUTTON", true
	}
	return "", false
}

func publishShutdown(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, interlock *logic.Interlock, t time.Time, reason string) {
	event := mqtt.SystemEvent{
		Timestamp: t,
		Event:     "SHUTDOWN",
		Reason:    reason,
		Retained:  true,
	}
	if tracker != nil {
		tracker.Update(interlock.State(), interlock.Counts(), tracker.Snapshot().LastMarkers)
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
		event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", reason)
	}
	if err := publisher.PublishSystem(event); err != nil {
		logger.Named("loop").Warn().Err(err).Msg("failed to publish shutdown event")
	}
}

// requestStop queues a stop reason unless one is already pending.
func requestStop(stop chan<- string, reason string) {
	select {
	case stop <- reason:
	default:
	}
}

// watchStdin requests a stop when the operator enters "q".
func watchStdin(in *bufio.Reader, stop chan<- string) {
	for {
		line, err := in.ReadString('\n')
		if strings.EqualFold(strings.TrimSpace(line), "q") {
			requestStop(stop, "OPERATOR")
			return
		}
		if err != nil {
			return
		}
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}

// resolveTarget parses the configured target, prompting on in when it is empty.
func resolveTarget(raw string, valid logic.MarkerSet, in *bufio.Reader, out io.Writer) (logic.MarkerID, error) {
	if strings.TrimSpace(raw) == "" {
		fmt.Fprintf(out, "Enter the ArUco marker ID (%s) to stop the robot: ", describeSet(valid))
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			return 0, fmt.Errorf("read target: %w", err)
		}
		raw = line
	}

	id, err := logic.ParseTarget(raw, valid)
	if err != nil {
		return 0, fmt.Errorf("target: %w", err)
	}
	return id, nil
}

// describeSet renders a contiguous set as "0 to 3" and anything else in list form.
func describeSet(s logic.MarkerSet) string {
	ids := s.IDs()
	if len(ids) > 1 && int(ids[len(ids)-1]-ids[0])+1 == len(ids) {
		return fmt.Sprintf("%d to %d", ids[0], ids[len(ids)-1])
	}
	return s.String()
}

// probe detects markers in a single frame and prints their ids.
func probe(src camera.Source, det camera.Detector, out io.Writer) error {
	frame, err := src.Read()
	if err != nil {
		return fmt.Errorf("read frame: %w", err)
	}
	defer frame.Close()

	markers, err := det.Detect(frame)
	if err != nil {
		return fmt.Errorf("detect: %w", err)
	}

	w, h := frame.Size()
	d := camera.ToDetection(markers)
	if d.Empty() {
		fmt.Fprintf(out, "frame %dx%d: no markers\n", w, h)
		return nil
	}
	ids := markerInts(d.IDs())
	sort.Ints(ids)
	fmt.Fprintf(out, "frame %dx%d: markers %s\n", w, h, strings.Trim(fmt.Sprint(ids), "[]"))
	return nil
}

func markerInts(ids []logic.MarkerID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

// resources closes what run acquired, newest first.
type resources struct {
	names   []string
	closers []io.Closer
}

func (r *resources) add(name string, c io.Closer) {
	r.names = append(r.names, name)
	r.closers = append(r.closers, c)
}

func (r *resources) closeAll() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", r.names[i], err))
		}
	}
	r.names, r.closers = nil, nil
	return errors.Join(errs...)
}
