package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	err := newRootCommand().ExecuteContext(ctx)
	if err == nil {
		return
	}
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "mkvbatch: %v\n", err)
	}
	stop()
	os.Exit(1)
}
