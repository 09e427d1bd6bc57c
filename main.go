package main

import (
	"embed"
	"log"
	"os"

	"binocular/internal/app"
	"binocular/internal/config"
	"binocular/internal/infrastructure/logging"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/logger"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/windows"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	bootLogger := logging.NewLogger(os.Stderr, false)

	loader, err := config.NewLoader(os.Getenv("BINOCULAR_CONFIG"), bootLogger)
	if err != nil {
		log.Fatal(err)
	}
	cfg := loader.Config()

	logging.SetLevel(cfg.Log.Level)
	appLogger := logging.NewLogger(os.Stderr, cfg.Log.Pretty)

	// Create an instance of the app structure
	application := app.NewApp(app.Options{
		Config: cfg,
		Loader: loader,
		Logger: appLogger,
	})

	wailsLevel := logger.INFO
	if cfg.IsDevelopment() {
		wailsLevel = logger.DEBUG
	}

	// Create application with options
	err = wails.Run(&options.App{
		Title:             app.AppName,
		Width:             640,
		Height:            420,
		MinWidth:          360,
		MinHeight:         240,
		DisableResize:     false,
		Fullscreen:        false,
		Frameless:         true,
		StartHidden:       true,
		HideWindowOnClose: true,
		AlwaysOnTop:       true,
		BackgroundColour:  &options.RGBA{R: 0, G: 0, B: 0, A: 0},
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		Menu:             nil,
		Logger:           logging.NewWailsLoggerAdapter(appLogger.WithComponent("wails")),
		LogLevel:         wailsLevel,
		OnStartup:        application.Startup,
		OnDomReady:       application.DomReady,
		OnBeforeClose:    application.BeforeClose,
		OnShutdown:       application.Shutdown,
		WindowStartState: options.Normal,
		Bind: []interface{}{
			application,
		},
		// Windows platform specific options
		Windows: &windows.Options{
			WebviewIsTransparent: true,
			WindowIsTranslucent:  true,
			DisableWindowIcon:    true,
			WebviewUserDataPath:  "",
			ZoomFactor:           1.0,
			BackdropType:         windows.Acrylic,
		},
	})

	if err != nil {
		log.Fatal(err)
	}
}
