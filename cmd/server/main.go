package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yungbote/escrow-backend/internal/app"
	"github.com/yungbote/escrow-backend/internal/pkg/shutdown"
)

func main() {
	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		a.Log.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}
