package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"pixeler/pkg/config"
	"pixeler/pkg/processor/local"
	"pixeler/pkg/processor/remote"
	"pixeler/pkg/proto"
	"pixeler/pkg/session"
	"pixeler/pkg/store"
)

var cfg = config.Default()
var tgToken = flag.String("tg-token", "", "telegram bot token")
var processor = flag.String("processor", "", "remote processor addr, local when empty")
var dlDir = flag.String("dl-dir", "", "keep downloaded sources in dir")
var history = flag.Int("history", 5, "results kept for /prev")
var debug = flag.Bool("debug", false, "set debug")

func main() {
	cfg.BindFlags(flag.CommandLine)
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	if *tgToken == "" {
		log.Fatal("tg-token is required")
	}

	var logger *zap.Logger
	if *debug {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}

	var proc proto.Processor
	var procErr error

	if strings.Contains(*processor, ":") {
		proc, procErr = remote.New(*processor)
	} else {
		proc = local.New(logger)
	}

	if procErr != nil {
		log.Fatal(procErr)
	}

	st, err := store.NewOs(cfg.WorkDir, store.Options{PaletteDir: cfg.PaletteDir, ImageDir: cfg.ImageDir}, logger)
	if err != nil {
		log.Fatal(err)
	}

	cache, err := session.NewCache(cfg.CacheDir)
	if err != nil {
		log.Fatal(err)
	}

	tmp, err := session.NewTmpFs(cfg.TmpDir)
	if err != nil {
		log.Fatal(err)
	}

	dl, err := session.NewDownloader(*dlDir, logger)
	if err != nil {
		log.Fatal(err)
	}

	params := session.NewParams(cfg)
	conv := session.NewConverter(proc, cfg, params, st, cache, session.NewHistory(*history), logger)

	if p, err := conv.LoadDefaultPalette(); err != nil {
		logger.With(zap.String("file", cfg.DefaultPalette), zap.Error(err)).Info("load default palette failed")
	} else {
		logger.With(zap.String("file", cfg.DefaultPalette), zap.Int("colors", len(p))).Debug("default palette")
	}

	bot, err := session.NewBot(*tgToken, conv, params, dl, tmp, logger)
	if err != nil {
		log.Fatal(err)
	}
	bot.Start()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	<-signals
	logger.Info("shutting down")
	bot.Stop()
	conv.Close()
	logger.Info("exited")
}
