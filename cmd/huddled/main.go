package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/matheus3301/huddle/internal/config"
	"github.com/matheus3301/huddle/internal/daemon"
	"github.com/matheus3301/huddle/internal/session"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	channelFlag := flag.String("channel", "", "broadcast channel to join (overrides config)")
	nameFlag := flag.String("name", "", "display name (default: random)")
	flag.Parse()

	// A missing .env is normal.
	_ = godotenv.Load()

	cfg, err := config.Resolve(session.ConfigPath())
	if err != nil {
		fail(err)
	}
	if *channelFlag != "" {
		cfg.Channel = *channelFlag
	}
	if *nameFlag != "" {
		cfg.DisplayName = *nameFlag
	}

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName("session", sessionName); err != nil {
		fail(err)
	}
	if err := session.ValidateName("channel", cfg.Channel); err != nil {
		fail(err)
	}

	app := fx.New(
		daemon.Module(daemon.Params{SessionName: sessionName, Config: cfg}),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			l := &fxevent.ZapLogger{Logger: logger.Named("fx")}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
	)

	app.Run()
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
