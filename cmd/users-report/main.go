package main

import (
	"context"
	"log"

	"github.com/architeacher/specifications/internal/runtime"
)

func main() {
	if err := runtime.New().Run(context.Background()); err != nil {
		log.Fatalf("users report failed: %v", err)
	}
}
