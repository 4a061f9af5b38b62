// Command simfw runs the full device-side firmware core: the Simulator
// Process (serial framing in/out, two goroutines) and the System Manager
// Process (shutdown consumer, one goroutine), wired together through one
// in-process Queue Port registry.
//
// The original design ran these as two separate OS processes talking
// over a named shared-memory queue. This port runs them as goroutines in
// one process sharing one Registry instead: the Queue Port's actual
// contract (named lookup, bounded/unbounded capacity, blocking and
// non-blocking ends) is unchanged, only the transport between producer
// and consumer handles collapses from shared memory to a Go channel.
package main

import (
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/cubecore/simfw/events"
	"github.com/cubecore/simfw/internal/config"
	simfwmetrics "github.com/cubecore/simfw/internal/metrics"
	"github.com/cubecore/simfw/queue"
	"github.com/cubecore/simfw/serial"
	"github.com/cubecore/simfw/simulator"
	"github.com/cubecore/simfw/sysmanager"
	"github.com/cubecore/simfw/transport"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
)

func main() {
	fs := pflag.NewFlagSet("simfw", pflag.ExitOnError)
	flags := config.RegisterFlags(fs)
	metricsAddr := fs.String("metrics-addr", "", "if set, serve Prometheus metrics on this address")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	sessionID := uuid.New().String()
	logger := log.Default().With("session", sessionID)

	cfg, err := config.Load(*flags.ConfigPath)
	if err != nil {
		logger.Fatal("load config", "err", err)
	}
	cfg = flags.Apply(fs, cfg)

	var metrics *simfwmetrics.Metrics
	if *metricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics = simfwmetrics.New(reg)
		serveMetrics(*metricsAddr, reg, logger)
	}

	if err := run(cfg, metrics, logger); err != nil {
		logger.Fatal("exiting", "err", err)
	}
}

func run(cfg config.Config, metrics *simfwmetrics.Metrics, logger *log.Logger) error {
	registry := queue.NewRegistry()
	sysData := queue.Fetch[events.Event](registry, queue.SysManagerQueue, 64)
	gfxData := queue.Fetch[events.Event](registry, queue.GraphicsQueue, queue.GraphicsQueueCapacity)
	notify := queue.Fetch[events.EventNotification](registry, queue.EventNotifyQueue, 64)

	sysDispatcher := events.NewDispatcher(events.KindSystem, sysData, nil, logger.With("component", "dispatcher-system"))
	gfxDispatcher := events.NewDispatcher(events.KindGraphics, gfxData, notify, logger.With("component", "dispatcher-graphics"))
	sysDispatcher.SetMetrics(metrics)
	gfxDispatcher.SetMetrics(metrics)

	sysListener := events.NewListener(events.KindSystem, sysData, logger.With("component", "listener-system"))
	gfxListener := events.NewListener(events.KindGraphics, gfxData, logger.With("component", "listener-graphics"))

	mux := events.NewMultiplexer(notify)
	mux.AddListener(gfxListener)

	baud, err := serial.BaudToCFlag(cfg.BaudRate)
	if err != nil {
		return err
	}
	tx, err := transport.Open(cfg.Device, baud, int(cfg.MaxPacketSize))
	if err != nil {
		return err
	}
	tx.SetMetrics(metrics)
	defer tx.Close()

	simProcess := simulator.New(tx, mux, []*events.Dispatcher{sysDispatcher, gfxDispatcher}, logger.With("component", "simulator"))
	sysProcess := sysmanager.New(sysListener, sysmanager.LinuxPlatform{}, logger.With("component", "sysmanager"))

	errs := make(chan error, 2)
	go func() { errs <- simProcess.Run() }()
	go func() { errs <- sysProcess.Run() }()

	return <-errs
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server exited", "err", err)
		}
	}()
}
