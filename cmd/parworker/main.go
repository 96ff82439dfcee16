// Command parworker runs reference workloads against the parworker backends
// and reports whether they produce the expected results.
//
// Usage:
//
//	parworker [flags]
//
// By default, the workloads run through package parallel, that is, on the
// backend selected at build time. With --compare, they additionally run on
// the thread-pool backend, the work-stealing backend, and sequentially.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/exascience/parworker"
	"github.com/exascience/parworker/config"
	"github.com/exascience/parworker/internal/logging"
	"github.com/exascience/parworker/parallel"
	"github.com/exascience/parworker/scheduler"
	"github.com/exascience/parworker/sequential"
	"github.com/exascience/parworker/threadpool"
	"github.com/exascience/parworker/workertest"
	"github.com/exascience/parworker/workstealing"
)

type runner struct {
	name   string
	For    func(low, high int, w parworker.Worker) error
	Reduce func(low, high int, w *workertest.IndexSum) error
}

func runners(cfg config.Config, log zerolog.Logger, compare bool) (result []runner, closeAll func()) {
	result = append(result, runner{
		name:   "parallel/" + parallel.Backend,
		For:    parallel.For,
		Reduce: parallel.Reduce[*workertest.IndexSum],
	})
	if !compare {
		return result, func() {}
	}
	s := scheduler.New(scheduler.WithWorkers(cfg.Workers), scheduler.WithLogger(log))
	result = append(result,
		runner{
			name:   "threadpool",
			For:    threadpool.For,
			Reduce: threadpool.Reduce[*workertest.IndexSum],
		},
		runner{
			name: "workstealing",
			For: func(low, high int, w parworker.Worker) error {
				return workstealing.ForOn(s, low, high, cfg.Grain, w)
			},
			Reduce: func(low, high int, w *workertest.IndexSum) error {
				return workstealing.ReduceOn(s, low, high, cfg.Grain, w)
			},
		},
		runner{
			name:   "sequential",
			For:    sequential.For,
			Reduce: sequential.Reduce[*workertest.IndexSum],
		},
	)
	return result, s.Close
}

func squares(r runner, size int) error {
	buffer := make([]int, size)
	if err := r.For(0, size, workertest.Squares{Buffer: buffer}); err != nil {
		return err
	}
	for i, v := range buffer {
		if v != i*i {
			return fmt.Errorf("buffer[%v] = %v, want %v", i, v, i*i)
		}
	}
	return nil
}

func coverage(r runner, size int) error {
	l := workertest.NewLedger(0, size)
	if err := r.For(0, size, l); err != nil {
		return err
	}
	return l.Check()
}

func sum(r runner, size int) error {
	var s workertest.IndexSum
	if err := r.Reduce(0, size, &s); err != nil {
		return err
	}
	if want := size * (size - 1) / 2; s.Total != want {
		return fmt.Errorf("sum = %v, want %v", s.Total, want)
	}
	return nil
}

func main() {
	fs := pflag.NewFlagSet("parworker", pflag.ExitOnError)
	config.RegisterFlags(fs)
	size := fs.Int("size", 100, "size of the index range [0, size)")
	compare := fs.Bool("compare", false, "also run every backend explicitly")
	configFile := fs.String("config", "", "YAML configuration file")
	_ = fs.Parse(os.Args[1:])

	opts := []config.Option{
		config.WithFlags(fs),
		config.WithDefault("log.level", "info"),
	}
	if *configFile != "" {
		opts = append(opts, config.WithFile(*configFile))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logging.New(cfg.Log)
	if *size < 0 {
		log.Fatal().Int("size", *size).Msg("size must not be negative")
	}

	rs, closeAll := runners(cfg, log, *compare)
	defer closeAll()

	workloads := []struct {
		name string
		run  func(runner, int) error
	}{
		{"squares", squares},
		{"coverage", coverage},
		{"sum", sum},
	}
	failed := false
	for _, r := range rs {
		for _, wl := range workloads {
			start := time.Now()
			err := wl.run(r, *size)
			var event *zerolog.Event
			if err != nil {
				failed = true
				event = log.Error().Err(err)
			} else {
				event = log.Info()
			}
			event.
				Str("backend", r.name).
				Str("workload", wl.name).
				Int("size", *size).
				Dur("elapsed", time.Since(start)).
				Msg("workload finished")
		}
	}
	if failed {
		closeAll()
		os.Exit(1)
	}
}
