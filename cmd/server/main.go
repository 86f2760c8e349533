package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"meetingd/internal/app"
	"meetingd/internal/config"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handle, err := app.RunServer(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "meetingd: %v\n", err)
		os.Exit(1)
	}
	log.Printf("meetingd listening on %s (uploads %s, room capacity %d)", handle.Addr(), cfg.UploadDir, cfg.RoomCapacity)

	if err := handle.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "meetingd: %v\n", err)
		os.Exit(1)
	}
}
