// Command shade runs a script-driven overlay surface on a Wayland desktop.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gogpu/shade"
)

func main() {
	var (
		script   = flag.String("script", "overlay.js", "overlay script to run")
		logLevel = flag.String("log", "info", "log level (debug, info, warn, error)")
	)
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		log.Fatalf("Bad -log value %q: %v", *logLevel, err)
	}
	shade.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	host, err := shade.LoadScript(*script)
	if err != nil {
		log.Fatalf("Failed to load script: %v", err)
	}
	cfg, err := host.Config()
	if err != nil {
		log.Fatalf("Failed to configure: %v", err)
	}

	session, err := shade.NewSession(cfg, host)
	if err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		session.Exit()
	}()

	err = session.Run()
	session.Close()
	if err != nil {
		log.Fatalf("Session ended: %v", err)
	}
}
