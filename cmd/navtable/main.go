package main

import (
	"log"

	"github.com/haoyun/navtable/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ navtable failed to start: %v", err)
	}
}
