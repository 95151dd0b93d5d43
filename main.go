package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/leonelquinteros/gotext"
	"go.uber.org/zap"

	"duskwalk/pkg/engine/config"
	"duskwalk/pkg/engine/database"
	"duskwalk/pkg/engine/logging"
	"duskwalk/pkg/engine/resource"
	"duskwalk/pkg/game/app"
	ebitenfe "duskwalk/pkg/game/renderer/ebiten"
)

const version = "Duskwalk 0.1"

// Process exit statuses, so wrapper scripts can tell failure sites apart.
const (
	exitDatabase  = 1
	exitConfig    = 2
	exitCommon    = 7
	exitTraversal = 10
	exitScript    = 11
)

// dialogFont is the TTF the text dialog renders with, shipped alongside the
// indicator icons.
const dialogFont = "common/textbox.ttf"

func initGettext() {
	gotext.Configure("locales", "en_GB.utf8", "default")
}

// openDatabase opens the configured session store backend.
func openDatabase(cfg *config.Config, log *zap.Logger) (database.Store, error) {
	switch cfg.Database.Driver {
	case "redis":
		return database.OpenRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password,
			cfg.Database.Redis.DB, "duskwalk", log)
	default:
		return database.OpenFile(cfg.Database.Path, log)
	}
}

// startupStatus maps a startup failure to its process exit status.
func startupStatus(err error) int {
	switch {
	case errors.Is(err, app.ErrCommonImages):
		return exitCommon
	case errors.Is(err, resource.ErrUpwardTraversal):
		return exitTraversal
	}
	return exitConfig
}

func main() {
	initGettext()

	configPath := flag.String("config", "config.json", "path to the engine configuration file")
	flag.Parse()

	color.Bold.Println(gotext.Get("Welcome to %s.", version))
	fmt.Println(gotext.Get("Starting up..."))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, gotext.Get("Could not load configuration: %v", err))
		os.Exit(exitConfig)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, gotext.Get("Could not build logger: %v", err))
		os.Exit(exitConfig)
	}
	defer log.Sync()

	log.Info("Opening session database", zap.String("driver", cfg.Database.Driver))
	db, err := openDatabase(cfg, log)
	if err != nil {
		log.Error("Unable to open session database", zap.Error(err))
		os.Exit(exitDatabase)
	}

	frontend, err := ebitenfe.New(cfg, dialogFont, log)
	if err != nil {
		log.Error("Unable to initialize frontend", zap.Error(err))
		db.Close()
		os.Exit(exitCommon)
	}

	a, err := app.New(cfg, frontend, db, log)
	if err != nil {
		log.Error("Unable to start engine", zap.Error(err))
		db.Close()
		os.Exit(startupStatus(err))
	}

	frontend.SetTitle(a.WorldName())

	runErr := frontend.Run(a)

	log.Info("Shutting down...")
	a.Close()
	if err := db.Close(); err != nil {
		log.Error("Unable to close session database", zap.Error(err))
		os.Exit(exitDatabase)
	}

	switch {
	case errors.Is(runErr, app.ErrScriptExit):
		os.Exit(exitScript)
	case runErr != nil:
		log.Error("Engine stopped with an error", zap.Error(runErr))
		os.Exit(1)
	}
}
