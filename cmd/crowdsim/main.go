// Command crowdsim runs an evacuation scenario and writes its trajectory.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/crookler/crowd-dynamics/internal/status"
	"github.com/crookler/crowd-dynamics/internal/trajectory"
	"github.com/crookler/crowd-dynamics/pkg/scenario"
	"github.com/crookler/crowd-dynamics/pkg/simulation"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"
)

func main() {
	configFile := flag.String("config", "", "scenario file (.json, .gcfg or .ini); empty runs the built-in attractor scenario")
	steps := flag.Uint64("steps", 0, "number of steps, overrides the scenario")
	out := flag.String("out", "", "trajectory file, overrides the scenario")
	seed := flag.Int64("seed", -1, "random seed, overrides the scenario")
	writeIC := flag.String("write-ic", "", "write the initial condition to this file and exit")
	writeConfig := flag.String("write-config", "", "write the resolved scenario as JSON and exit")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := log.InfoLevel
	if *verbose {
		level = log.DebugLevel
	}
	logger := log.New(level, os.Stdout)

	sc := scenario.DefaultScenario()
	if *configFile != "" {
		var err error
		if sc, err = scenario.LoadScenario(*configFile); err != nil {
			logger.Fatal(err)
		}
	}
	if *steps > 0 {
		sc.Steps = *steps
	}
	if *out != "" {
		sc.Output.Trajectory = *out
	}
	if *seed >= 0 {
		sc.Seed = uint64(*seed)
	}

	if *writeConfig != "" {
		if err := sc.WriteJSON(*writeConfig); err != nil {
			logger.Fatal(err)
		}
		logger.Infof("scenario %q written to %s", sc.Name, *writeConfig)
		return
	}

	if *writeIC != "" {
		if err := writeInitialCondition(sc, *writeIC); err != nil {
			logger.Fatal(err)
		}
		logger.Infof("initial condition of %q written to %s", sc.Name, *writeIC)
		return
	}

	if err := run(sc, logger); err != nil {
		logger.Fatal(err)
	}
}

func writeInitialCondition(sc *scenario.Scenario, path string) error {
	snap, err := sc.InitialSnapshot()
	if err != nil {
		return err
	}
	w, err := trajectory.Create(path)
	if err != nil {
		return err
	}
	if err := w.WriteSnapshot(context.Background(), snap); err != nil {
		_ = w.Close(context.Background())
		return err
	}
	return w.Close(context.Background())
}

func run(sc *scenario.Scenario, logger log.Logger) error {
	// ctx only interrupts the physics; shutdown uses bg so the final flush completes.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	bg := context.Background()

	system, err := actor.NewActorSystem("crowdsim", actor.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := system.Start(bg); err != nil {
		return err
	}
	defer func() {
		if err := system.Stop(bg); err != nil {
			logger.Warnf("actor system stop: %v", err)
		}
	}()

	opts := []simulation.Option{simulation.WithLogger(logger)}

	if sc.Output.Trajectory != "" && sc.Output.Every > 0 {
		w, err := trajectory.Create(sc.Output.Trajectory)
		if err != nil {
			return err
		}
		aw, err := trajectory.SpawnWriter(bg, system, "trajectory-writer", sc.Output.Trajectory, w)
		if err != nil {
			_ = w.Close(bg)
			return err
		}
		opts = append(opts, simulation.WithSnapshots(sc.SnapshotTrigger(), aw))
	}

	if interval := sc.StatusInterval(); interval > 0 {
		rep, err := status.SpawnReporter(bg, system, "status")
		if err != nil {
			return err
		}
		defer func() { _ = rep.Stop(bg) }()
		opts = append(opts, simulation.WithStatus(simulation.NewWallClock(interval, nil), rep))
	}

	driver, err := sc.Build(opts...)
	if err != nil {
		return err
	}
	logger.Infof("running %q: %d steps, dt %g, kT %g, seed %d", sc.Name, sc.Steps, sc.DT, sc.KT, sc.Seed)

	runErr := driver.Run(ctx, sc.Steps)
	closeErr := driver.Close(bg)
	logger.Info(status.Format(driver.Progress()))

	if errors.Is(runErr, context.Canceled) {
		logger.Warnf("interrupted: %v", runErr)
		return closeErr
	}
	return errors.Join(runErr, closeErr)
}
