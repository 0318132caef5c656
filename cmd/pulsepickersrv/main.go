package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	yml "gopkg.in/yaml.v2"
)

var (
	// Version is the version number.  Typically injected via ldflags with git build
	Version = "1"

	// ConfigFileName is what it sounds like
	ConfigFileName = "pulsepickersrv.yml"

	// EnvPrefix is the prefix of environment variables that override the config file
	EnvPrefix = "PULSEPICKER_"

	k = koanf.New(".")
)

// DefaultConfig is the configuration in the absence of a file
func DefaultConfig() Config {
	return Config{
		Addr:        ":4007",
		Endpoint:    "/picker",
		ClockSource: "external-80mhz"}
}

func setupconfig() {
	k.Load(structs.Provider(DefaultConfig(), "koanf"), nil)
	if err := k.Load(file.Provider(ConfigFileName), yaml.Parser()); err != nil {
		errtxt := err.Error()
		if !strings.Contains(errtxt, "no such") { // file missing, who cares
			log.Fatalf("error loading config: %v", err)
		}
	}
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		log.Fatalf("error loading environment: %v", err)
	}
}

func root() {
	str := `pulsepickersrv drives a BME_SG08p delay generator to operate a pulse picker
and exposes an HTTP interface to it.

Usage:
	pulsepickersrv <command>

Commands:
	run
	help
	mkconf
	conf
	version`
	fmt.Println(str)
}

func help() {
	str := `pulsepickersrv is amenable to configuration via its .yaml file.  For a primer on YAML, see
https://yaml.org/start.html

Any key may be overridden by an environment variable, e.g. PULSEPICKER_ADDR=:8000
or PULSEPICKER_ALLOW_LONG_PULSES=true.

Keys:
- addr: the address to listen at, ":4007" by default
- endpoint: the path the picker is served under; the card is under <endpoint>/card
- simulation: run without a delay generator
- mock: drive an in-memory delay generator instead of the vendor SDK
- allow_long_pulses: permit optical gates longer than two laser periods
- clock_source: "internal" or "external-80mhz"

The picker outputs are disabled at startup and again at shutdown.  Timing
parameters are all in microseconds.  GET /endpoints lists every route and
/metrics serves Prometheus metrics.`
	fmt.Println(str)
}

func mkconf() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	f, err := os.Create(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	err = yml.NewEncoder(f).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func printconf() {
	c := Config{}
	k.Unmarshal("", &c)
	err := yml.NewEncoder(os.Stdout).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func pversion() {
	fmt.Printf("pulsepickersrv version %v\n", Version)
}

func run() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	reg := prometheus.NewRegistry()
	p, err := Build(c, reg)
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()
	srv := &http.Server{Addr: c.Addr, Handler: p.Mux}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Println("now listening for requests at ", c.Addr)
		err := srv.ListenAndServe()
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		return srv.Shutdown(sctx)
	})
	if err := g.Wait(); err != nil {
		log.Println(err)
	}

	// no request is in flight any more
	if err := p.Ctl.Disable(); err != nil {
		log.Println("disabling outputs:", err)
	}
}

func main() {
	var cmd string
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	setupconfig()
	cmd = args[1]
	cmd = strings.ToLower(cmd)
	switch cmd {
	case "help":
		help()
		return
	case "mkconf":
		mkconf()
		return
	case "conf":
		printconf()
		return
	case "run":
		run()
		return
	case "version":
		pversion()
		return
	default:
		log.Fatal("unknown command")
	}
}
