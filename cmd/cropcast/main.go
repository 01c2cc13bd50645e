package main

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/panyam/cropcast/cmd/cropcast/commands"
)

func main() {
	envfile := ".env"
	if env := os.Getenv("CROPCAST_ENV"); env != "" {
		envfile = ".env." + env
	}
	if err := godotenv.Load(envfile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal("Error loading env file ", envfile, ": ", err)
	}
	commands.Execute()
}
