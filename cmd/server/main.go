package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/mannyyang/docubeam/internal/server"
)

func main() {
	_ = godotenv.Load()

	if err := server.Run(context.Background()); err != nil {
		log.Fatal(err)
	}
}
