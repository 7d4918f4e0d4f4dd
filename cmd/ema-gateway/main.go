// cmd/ema-gateway/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tamzrod/ema-gateway/internal/command"
	"github.com/tamzrod/ema-gateway/internal/companion"
	"github.com/tamzrod/ema-gateway/internal/config"
	"github.com/tamzrod/ema-gateway/internal/diag"
	"github.com/tamzrod/ema-gateway/internal/eventlog"
	"github.com/tamzrod/ema-gateway/internal/instrument"
	"github.com/tamzrod/ema-gateway/internal/proto"
	"github.com/tamzrod/ema-gateway/internal/publish"
	"github.com/tamzrod/ema-gateway/internal/scheduler"
	"github.com/tamzrod/ema-gateway/internal/script"
	"github.com/tamzrod/ema-gateway/internal/serialio"
	"github.com/tamzrod/ema-gateway/internal/syncengine"
	"github.com/tamzrod/ema-gateway/internal/tod"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: ema-gateway <config.ini>")
	}
	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	// --------------------
	// Serial channel + command engine
	// --------------------

	instruments := instrument.Build(cfg)

	events := eventlog.New(256)
	reg := prometheus.NewRegistry()
	metrics := diag.NewMetrics(reg)

	ch, err := serialio.Open(serialio.Config{
		Endpoint:  cfg.Serial.Endpoint,
		BaudRate:  cfg.Serial.BaudRate,
		WritePace: cfg.Serial.WritePace,
	}, log.Default())
	if err != nil {
		log.Printf("serial open failed: %v", err)
		os.Exit(2)
	}
	defer ch.Close()

	engine := command.NewEngine(func(frame []byte) {
		v, err := proto.Decode(frame)
		if err != nil {
			log.Printf("decode: %v", err)
			return
		}
		now := time.Now()
		for _, in := range instruments {
			in.Update(v, now)
		}
		metrics.BulletinsDecoded.Inc()
	}, command.WithHooks(command.Hooks{
		OnSubmit: func(name string) { metrics.CommandsSubmitted.Inc() },
		OnRetry:  func(name string, attempt int) { metrics.CommandsRetried.Inc() },
		OnFailed: func(name string, err error) { metrics.CommandsFailed.Inc() },
		OnDone:   func(name string, d time.Duration) { metrics.CommandsDone.Inc() },
		OnDropped: func(frame []byte) { metrics.FramesDropped.Inc() },
	}))
	go engine.Run(ctx)

	go func() {
		for frame := range ch.Frames() {
			engine.Deliver(ctx, frame)
		}
	}()

	// --------------------
	// Publishers, script launcher, diagnostics
	// --------------------

	var mqttPub *publish.MQTTPublisher
	if cfg.MQTT.Broker != "" {
		mqttPub, err = publish.NewMQTTPublisher(publish.MQTTConfig{
			ClientID:  cfg.MQTT.ClientID,
			Broker:    cfg.MQTT.Broker,
			Username:  cfg.MQTT.Username,
			Password:  cfg.MQTT.Password,
			KeepAlive: cfg.MQTT.KeepAlive,
			Timeout:   cfg.MQTT.Timeout,
			Channel:   cfg.MQTT.Channel,
		}, log.Default())
		if err != nil {
			log.Fatalf("mqtt connect failed: %v", err)
		}
		defer mqttPub.Close()
	}
	htmlSink := publish.NewHTMLSink(os.Stdout, log.Default())
	fanout := publish.NewFanout(mqttPub, htmlSink, cfg.MQTT.ClientID)
	fanout.PublishRegister(instruments, time.Now())

	launcher := script.New(log.Default())

	diagSrv := diag.New(cfg.Web.DiagAddr, reg, events, func() string { return "master" })
	go func() {
		if err := diagSrv.ListenAndServe(ctx); err != nil {
			log.Printf("diag server: %v", err)
		}
	}()

	// --------------------
	// UDP companion
	// --------------------

	if cfg.UDP.RxPort != 0 {
		udpSrv := companion.New(companion.Config{
			RxPort:         cfg.UDP.RxPort,
			TxPort:         cfg.UDP.TxPort,
			MulticastGroup: cfg.UDP.MulticastGroup,
			MulticastPort:  cfg.UDP.MulticastPort,
		}, engine, ch, cfg.EMA.Retries, 4*time.Second, log.Default())
		go func() {
			if err := udpSrv.Run(ctx); err != nil {
				log.Fatalf("companion server: %v", err)
			}
		}()
	}

	// --------------------
	// Sync Engine — startup reconciliation (spec.md §4.6)
	// --------------------

	syncer := syncengine.New(engine, ch, cfg.EMA.Retries, 4*time.Second, log.Default())
	var syncParams []syncengine.Param
	if cfg.Voltmeter.Sync {
		syncParams = append(syncParams, syncengine.Param{
			Name:       "voltmeter_threshold",
			Want:       cfg.Voltmeter.Threshold,
			GetRequest: proto.GetVoltmeterThresholdRequest,
			GetPattern: proto.VoltmeterThresholdPattern,
			BuildSet:   proto.SetVoltmeterThresholdRequest,
			SetPattern: proto.VoltmeterThresholdPattern,
			Parse:      proto.ParseVoltmeterThreshold,
		})
	}
	if len(syncParams) > 0 {
		if err := syncer.Reconcile(ctx, syncParams); err != nil {
			log.Printf("sync: startup reconciliation failed: %v", err)
		}
	}

	// --------------------
	// Scheduler duties (spec.md §4.7)
	// --------------------

	todEval := tod.New(cfg.Scheduler.Intervals)
	historicPending := &historicPullState{}

	watchdogEvery := cfg.Watchdog.Period / 2
	if watchdogEvery <= 0 {
		watchdogEvery = 100 * time.Second
	}
	probe := scheduler.DefaultInternetProbe("8.8.8.8:53", 3*time.Second)

	duties := []scheduler.Duty{
		uploadDuty(instruments, fanout, events, metrics, launcher, cfg),
		syncDuty(syncer, syncParams),
		watchdogDuty(engine, ch, cfg.EMA.Retries, watchdogEvery),
		rtcCheckDuty(engine, ch, cfg, probe),
		historicMinMaxDuty(engine, ch, cfg.EMA.Retries, fanout, events, historicPending),
		historicAverageDuty(engine, ch, cfg.EMA.Retries, fanout, events, historicPending),
		todDuty(todEval, engine, ch, cfg.EMA.Retries, fanout, events, cfg, historicPending),
	}
	sched := scheduler.New(time.Second, duties, log.Default())
	sched.Run(ctx)
}
