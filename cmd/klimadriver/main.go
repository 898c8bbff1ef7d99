// Command klimadriver pairs with a klogg USB RF dongle, runs the
// communication service against the attached base station, and serves
// its current readings and last-contact state over HTTP.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"klimadriver/internal/apiserver"
	"klimadriver/internal/config"
	"klimadriver/internal/driverfacade"
	"klimadriver/internal/historycache"
	"klimadriver/internal/laststat"
	"klimadriver/internal/service"
	"klimadriver/internal/transceiver"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("klimadriver: loading config: %v", err)
	}

	frequency := flag.String("frequency", cfg.TransceiverFrequency, "RF frequency standard: EU or US")
	serial := flag.String("serial", cfg.Serial, "dongle serial to pair with (empty = first found)")
	loggerChannel := flag.Int("logger-channel", cfg.LoggerChannel, "paired base station channel (1..N)")
	commInterval := flag.Int("comm-interval", cfg.CommInterval, "station comm-mode window in seconds")
	apiAddr := flag.String("api-addr", ":8090", "address the read-only HTTP API listens on")
	enableAPI := flag.Bool("api", true, "enable the read-only HTTP API")
	flag.Parse()

	cfg.TransceiverFrequency = *frequency
	cfg.Serial = *serial
	cfg.LoggerChannel = *loggerChannel
	cfg.CommInterval = *commInterval

	logger := log.New(os.Stderr, "klimadriver: ", log.LstdFlags)

	dongle, err := transceiver.Open(transceiver.VendorID, transceiver.ProductID, cfg.Serial)
	if err != nil {
		logger.Fatalf("opening dongle: %v", err)
	}
	defer dongle.Close()

	settings, err := dongle.Init(cfg.TransceiverFrequency)
	if err != nil {
		logger.Fatalf("initializing dongle: %v", err)
	}
	logger.Printf("paired with device %04x, serial %s", settings.DeviceID, settings.SerialNumber)

	var stat laststat.Stat
	cache := historycache.New(cfg.BatchSize)

	svc := service.New(dongle, &stat, cache, service.Options{
		CommModeInterval: byte(cfg.CommInterval),
		LoggerChannel:    byte(cfg.LoggerChannel),
		Labels:           sensorTextLabels(cfg.SensorText),
		BatchSize:        cfg.BatchSize,
		Logger:           logger,
	})
	svc.SetIdentity(service.Identity{DeviceID: settings.DeviceID, SerialNumber: settings.SerialNumber})

	facade := driverfacade.New(svc, &stat, cache, driverfacade.Options{
		PollingInterval: cfg.PollingInterval,
		BatchSize:       cfg.BatchSize,
		Logger:          logger,
	})
	facade.Start()

	var api *apiserver.Server
	if *enableAPI {
		api = apiserver.New(svc, &stat, driverfacade.SensorMap(cfg.SensorMap), *apiAddr)
		apiErrs := api.Start()
		go func() {
			if err := <-apiErrs; err != nil {
				logger.Printf("api server error: %v", err)
			}
		}()
		logger.Printf("api server listening on %s", *apiAddr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runStartupHistoryCatchup(ctx, facade, cfg.MaxHistoryRecords, logger)

	obs, restart := facade.CurrentObservations(ctx)
	go func() {
		for o := range obs {
			if !o.Empty {
				logger.Printf("current: rxCheckPercent=%d channel0 temp=%.1f humidity=%.0f",
					o.Data.SignalQuality, o.Data.Channels[0].Temp, o.Data.Channels[0].Humidity)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Printf("shutting down")
	case <-restart:
		logger.Printf("30 consecutive empty readings - station appears to have gone silent, exiting for restart")
	}

	cancel()
	facade.Stop()

	if api != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := api.Shutdown(shutdownCtx); err != nil {
			logger.Printf("api server shutdown: %v", err)
		}
	}
}

// sensorTextLabels converts the caller's sensor_text1..8 slots into the
// channel-keyed map service.Options.Labels expects.
func sensorTextLabels(text [8]string) map[int]string {
	labels := map[int]string{}
	for i, v := range text {
		if v != "" {
			labels[i+1] = v
		}
	}
	if len(labels) == 0 {
		return nil
	}
	return labels
}

// runStartupHistoryCatchup drains the facade's startup history stream
// to completion before the driver settles into steady-state polling,
// showing a progress bar against the configured record cap so an
// operator watching the console sees the catchup actually moving.
func runStartupHistoryCatchup(ctx context.Context, facade *driverfacade.Facade, maxRecords int, logger *log.Logger) {
	p := mpb.New(mpb.WithWidth(60))
	bar := p.AddBar(int64(maxRecords),
		mpb.PrependDecorators(
			decor.Name("history catchup: "),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO), "done"),
		),
	)

	batches := facade.StartupHistory(ctx, time.Time{}, maxRecords)
	total := 0
	for batch := range batches {
		total += len(batch.Records)
		if total > maxRecords {
			total = maxRecords
		}
		bar.SetCurrent(int64(total))
	}
	if total < maxRecords {
		bar.SetCurrent(int64(maxRecords))
	}
	p.Wait()
	logger.Printf("history catchup drained %d records", total)
}
