package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/abalakin-dev/quizkeeper/internal/client/cli"
)

func main() {

	serverAddr := flag.String("s", "http://localhost:5000", "server base URL")
	flag.Parse()

	app := cli.NewApp(*serverAddr, os.Stdin, os.Stdout)

	if err := app.Run(context.Background(), flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "quizctl: %v\n", err)
		os.Exit(1)
	}
}
