package main

import (
	"os"

	"drivetrain.fyi/forecourt/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
