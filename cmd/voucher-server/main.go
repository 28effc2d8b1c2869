// Command voucher-server runs the WiFi voucher admin server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/wifi-vouchers/voucher-server/internal/app"
	"github.com/wifi-vouchers/voucher-server/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg config.AppConfig
	flag.StringVar(&cfg.ConfigPath, "config", "", "path to YAML config file (default ./config.yaml or $"+config.ConfigPathEnv+")")
	flag.StringVar(&cfg.Host, "host", "", "listen host, overrides server.host")
	flag.IntVar(&cfg.Port, "port", 0, "listen port, overrides server.port")
	flag.StringVar(&cfg.SSID, "ssid", "", "SSID of the network bootstrapped at startup")
	flag.StringVar(&cfg.Password, "password", "", "passphrase of the network bootstrapped at startup")
	flag.Usage = usage
	flag.Parse()

	command := "serve"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	var err error
	switch command {
	case "serve":
		err = app.RunServer(ctx, cfg)
	case "migrate":
		err = app.Migrate(ctx, cfg)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("voucher-server %s: %v", command, err)
	}
}

func usage() {
	out := flag.CommandLine.Output()
	_, _ = fmt.Fprintf(out, "Usage: %s [flags] [serve|migrate]\n\n", os.Args[0])
	flag.PrintDefaults()
}
