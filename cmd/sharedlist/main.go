// Command sharedlist is the terminal client for a sharedlistd server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"sharedlist/internal/cli"
	"sharedlist/internal/client"
	"sharedlist/internal/identity"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sharedlist", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", defaultAddr(), "server address")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ids, err := identity.Default()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return cli.NewRunner(*addr, ids, stdin, stdout, stderr).Run(ctx, fs.Args())
}

func defaultAddr() string {
	if v := strings.TrimSpace(os.Getenv("SHAREDLIST_ADDR")); v != "" {
		return v
	}
	return client.DefaultAddr
}
