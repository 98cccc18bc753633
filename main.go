package main

import (
	"os"

	"github.com/authenticator/authenticator/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
