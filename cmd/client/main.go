package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ndudarev/filevault/internal/client"
)

func main() {
	addr := os.Getenv("SERVER_ADDRESS")
	if addr == "" {
		addr = "http://127.0.0.1:8000"
	}

	api := client.NewAPI(addr)
	app := client.NewApp(api, os.Stdin, os.Stdout)
	if err := app.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
