package main

import (
	"log"

	"github.com/joho/godotenv"

	"devicegate/internal/app"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[env] no .env file, using process environment")
	}
	app.Run()
}
