package main

import (
	"net/http"

	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"pixeler/pkg/processor/local"
	"pixeler/pkg/processor/remote"
)

var listen = flag.String("listen", ":9123", "listen addr")
var debug = flag.Bool("debug", false, "set debug")

func newLogger() (*zap.Logger, error) {
	if *debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	flag.Parse()

	fx.New(
		fx.Provide(
			newLogger,
			func() *http.Server {
				return &http.Server{Addr: *listen}
			},
			local.New,
		),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		fx.Invoke(
			remote.Proxy,
		),
	).Run()
}
