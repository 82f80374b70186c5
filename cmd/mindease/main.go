package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"

	"github.com/hesamdc/mindease/pkg/mindease"
	"github.com/hesamdc/mindease/pkg/mindease/config"
	"github.com/hesamdc/mindease/pkg/mindease/device"
	"github.com/hesamdc/mindease/pkg/mindease/device/file"
	"github.com/hesamdc/mindease/pkg/mindease/device/serialport"
	"github.com/hesamdc/mindease/pkg/mindease/output"
	influxdb2 "github.com/influxdata/influxdb-client-go"
	"golang.org/x/sync/errgroup"
)

const (
	defaultOutputFile = "eeg_data.txt"
	defaultBaudRate   = 57600
	defaultReadSize   = 20
	defaultReadDelay  = time.Millisecond * 2
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)
	configFile := flag.String("config", "mindease.yaml", "YAML config file")

	flag.Parse()
	if configFile == nil {
		flag.Usage()
		os.Exit(1)
	}

	configContents, err := os.ReadFile(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("error reading config file")
	}
	var opts config.Config
	if err := yaml.Unmarshal(configContents, &opts); err != nil {
		log.Fatal().Err(err).Msg("error unmarshaling yaml file")
	}

	if opts.OutputFile == "" {
		opts.OutputFile = defaultOutputFile
	}
	if opts.Serial.BaudRate == 0 {
		opts.Serial.BaudRate = defaultBaudRate
	}
	if opts.Playback.ReadSize == 0 {
		opts.Playback.ReadSize = defaultReadSize
	}
	if opts.Playback.ReadDelay == 0 {
		opts.Playback.ReadDelay = defaultReadDelay
	}

	var dev device.Device

	if opts.Playback.Left != "" {
		opts.Device = "file"
	}

	switch opts.Device {
	case "file":
		log.Info().Str("device", "file").Msg("initializing device...")
		dev, err = file.NewFileDevice(opts.Playback.Left, opts.Playback.Right,
			opts.Playback.ReadSize, opts.Playback.ReadDelay)
		if err != nil {
			log.Fatal().Str("device", "file").Err(err).Msg("failed to init playback reader")
		}
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	default:
		log.Info().
			Str("device", "serial").
			Str("left_port", opts.Serial.LeftPort).
			Str("right_port", opts.Serial.RightPort).
			Msg("initializing device...")
		dev = serialport.NewSerialDevice(opts.Serial.LeftPort, opts.Serial.RightPort, opts.Serial.BaudRate)
	}

	sink, err := output.OpenCSVFile(opts.OutputFile)
	if err != nil {
		log.Fatal().Str("file", opts.OutputFile).Err(err).Msg("failed to open output file")
	}
	defer sink.Close()

	engineOpts := []mindease.EngineOption{mindease.WithLogger(log.Logger)}
	if opts.InfluxDB.Host != "" {
		writeAPI := influxdb2.NewClient(opts.InfluxDB.Host, "").WriteAPI(opts.InfluxDB.Organization, opts.InfluxDB.Bucket)
		engineOpts = append(engineOpts, mindease.WithInfluxDB(writeAPI))
	}

	engine, err := mindease.New(dev, sink,
		mindease.Options{
			RetryAttempts: opts.Retry.Attempts,
			RetryBackoff:  opts.Retry.Backoff,
			StatusPort:    opts.StatusServer.Port,
		}, engineOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create engine")
	}

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eg, ctx := errgroup.WithContext(runCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	eg.Go(func() error {

		select {
		case <-sigChan:
			log.Info().Msg("shutting down, flushing remaining data...")
		case <-ctx.Done():
		}

		return engine.Stop()
	})

	eg.Go(func() error {
		// Unblocks the signal waiter when the stream ends on its own.
		defer cancel()
		return engine.Start(ctx)
	})

	if err := eg.Wait(); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("exited program")
	}
	log.Info().Msg("program stopped, file saved")
}
