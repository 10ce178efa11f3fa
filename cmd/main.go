package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"reflect"
	"sync"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/events"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/aukilabs/octree/featureflag"
	octreehttp "github.com/aukilabs/octree/http"
	"github.com/aukilabs/octree/soak"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
)

var (
	// The octree-soak version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "octree_soak_info",
		Help:        "Octree soak information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// Keeps the config field names readable by the cli package when the binary
// is obfuscated.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	AdminAddr           string        `cli:""        env:"OCTREE_ADMIN_ADDR"            help:"Admin listening address."`
	LogLevel            string        `cli:""        env:"OCTREE_LOG_LEVEL"             help:"Log level (debug|info|warning|error)."`
	LogIndent           bool          `cli:""        env:"OCTREE_LOG_INDENT"            help:"Indent logs."`
	Interval            time.Duration `cli:""        env:"OCTREE_INTERVAL"              help:"The duration between each soak round."`
	LogSummaryInterval  time.Duration `cli:",hidden" env:"OCTREE_LOG_SUMMARY_INTERVAL"  help:"The duration between each soak log summary."`
	StatsStreamInterval time.Duration `cli:",hidden" env:"OCTREE_STATS_STREAM_INTERVAL" help:"The duration between each stats message on the stats stream."`
	Elements            int           `cli:""        env:"OCTREE_ELEMENTS"              help:"The number of elements added to each index per round."`
	WorldSize           float32       `cli:""        env:"OCTREE_WORLD_SIZE"            help:"The side length of the cube where elements are generated."`
	ElementSize         float32       `cli:""        env:"OCTREE_ELEMENT_SIZE"          help:"The maximum side length of a generated bounding box."`
	InitialSize         float32       `cli:""        env:"OCTREE_INITIAL_SIZE"          help:"The initial side length of each octree."`
	MinSize             float32       `cli:""        env:"OCTREE_MIN_SIZE"              help:"The minimum side length of an octree node."`
	Looseness           float32       `cli:""        env:"OCTREE_LOOSENESS"             help:"The looseness of the bounds octree (1-2)."`
	Seed                int64         `cli:""        env:"OCTREE_SEED"                  help:"The workload random seed. Zero picks one from the clock."`
	Events              eventsConfig  `cli:",hidden" env:"-"                            help:"Event pusher configuration."`
	FeatureFlags        []string      `cli:",hidden" env:"OCTREE_FEATURE_FLAGS"         help:"Comma separated feature flags"`
	Version             bool          `cli:""        env:"-"                            help:"Show version."`
	Help                bool          `cli:""        env:"-"                            help:"Show help."`
}

type eventsConfig struct {
	Endpoint      string        `cli:",hidden" env:"OCTREE_EVENTS_ENDPOINT"       help:"Endpoint to where events are pushed."`
	FlushInterval time.Duration `cli:",hidden" env:"OCTREE_EVENTS_FLUSH_INTERVAL" help:"The duration between each event flush."`
	BatchSize     int           `cli:",hidden" env:"OCTREE_EVENTS_BATCH_SIZE"     help:"The maximum number of events sent at once."`
	QueueSize     int           `cli:",hidden" env:"OCTREE_EVENTS_QUEUE_SIZE"     help:"The size of the queue where events are stored."`
}

func main() {
	conf := config{
		AdminAddr:           ":18190",
		LogLevel:            logs.InfoLevel.String(),
		Interval:            time.Second,
		LogSummaryInterval:  time.Minute,
		StatsStreamInterval: time.Second,
		Elements:            1000,
		WorldSize:           1000,
		ElementSize:         4,
		InitialSize:         64,
		MinSize:             1,
		Looseness:           1.25,
		Events: eventsConfig{
			FlushInterval: events.DefaultFlushInterval,
			BatchSize:     events.DefaultBatchSize,
			QueueSize:     events.DefaultQueueSize,
		},
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Runs the octree soak test and serves its stats.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	if conf.Events.Endpoint != "" {
		eventsPusher := events.Pusher{
			Endpoint:      conf.Events.Endpoint,
			FlushInterval: conf.Events.FlushInterval,
			BatchSize:     conf.Events.BatchSize,
			QueueSize:     conf.Events.QueueSize,
			Transport:     metrics.HTTPTransport(http.DefaultTransport),
		}
		go eventsPusher.Start()
		defer eventsPusher.Close()

		eventsLogger := events.Logger{
			Pusher:           &eventsPusher,
			SDKType:          "octree-soak",
			SDKVersionFamily: version,
		}
		logs.SetLogger(eventsLogger.Log)
	}

	seed := conf.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	runner := soak.NewRunner(soak.Options{
		Elements:        conf.Elements,
		WorldSize:       conf.WorldSize,
		ElementSize:     conf.ElementSize,
		InitialSize:     conf.InitialSize,
		MinSize:         conf.MinSize,
		Looseness:       conf.Looseness,
		Seed:            seed,
		Interval:        conf.Interval,
		SummaryInterval: conf.LogSummaryInterval,
		Flags:           featureflag.New(conf.FeatureFlags),
	})

	stats := func() any {
		return runner.Stats()
	}

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", octreehttp.HandleHealthCheck)
	admin.HandleFunc("/version", octreehttp.HandleVersion(version))
	admin.HandleFunc("/stats", octreehttp.HandleStats(stats))
	admin.Handle("/stats/stream", octreehttp.HandleStatsStream(stats, conf.StatsStreamInterval))
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("seed", seed).
		WithTag("feature_flags", conf.FeatureFlags).
		Info("starting octree soak")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runner.Start(ctx)
	}()

	octreehttp.ListenAndServe(ctx, octreehttp.NewServer(
		conf.AdminAddr,
		metrics.HTTPHandler(&admin, octreehttp.MetricsPathFormatter),
	))

	wg.Wait()
}

func validateConfig(conf config) error {
	if conf.Elements <= 0 {
		return errors.New("elements must be positive").
			WithTag("elements", conf.Elements)
	}

	if conf.WorldSize <= 0 || conf.InitialSize <= 0 {
		return errors.New("world size and initial size must be positive").
			WithTag("world_size", conf.WorldSize).
			WithTag("initial_size", conf.InitialSize)
	}

	if conf.MinSize <= 0 {
		return errors.New("min size must be positive").
			WithTag("min_size", conf.MinSize)
	}

	if conf.Interval <= 0 || conf.StatsStreamInterval <= 0 {
		return errors.New("intervals must be positive").
			WithTag("interval", conf.Interval).
			WithTag("stats_stream_interval", conf.StatsStreamInterval)
	}

	return nil
}
