// Command aog-taskcontroller bridges an ISO 11783 CAN implement bus to
// AgOpenGPS's UDP protocol, acting as the task controller in the
// middle: it accepts a section-control DDOP from the implement, and
// drives its section states from AOG steer/section-control frames.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lansalot/aog-taskcontroller/internal/aogudp"
	"github.com/lansalot/aog-taskcontroller/internal/config"
	"github.com/lansalot/aog-taskcontroller/internal/eventloop"
	"github.com/lansalot/aog-taskcontroller/internal/isobus"
	"github.com/lansalot/aog-taskcontroller/internal/statusweb"
	"github.com/lansalot/aog-taskcontroller/internal/subnet"
	"github.com/lansalot/aog-taskcontroller/internal/tclog"
	"github.com/lansalot/aog-taskcontroller/internal/tcserver"
)

// manufacturerCode and identityNumber are placeholders identifying this
// task controller's own NAME on the bus; a real deployment would read
// these from a manufacturer allocation and a per-unit serial.
const (
	manufacturerCode = 0x7FF
	identityNumber   = 1
	addressClaimWait = 250 * time.Millisecond
	speedBroadcastInterval = 200 * time.Millisecond
)

func main() {
	cfg, err := config.Parse(os.Args[1:], os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if cfg.Help {
		return
	}
	if cfg.Version {
		fmt.Println(config.Version)
		return
	}

	log := tclog.New(cfg.LogLevel)
	defer log.Close()
	if cfg.Log2File {
		dir, err := os.UserConfigDir()
		if err != nil {
			log.Criticalf("resolving config dir for log2file: %v", err)
			os.Exit(1)
		}
		if err := log.EnableFileLogging(dir + "/AOG-TaskController/logs"); err != nil {
			log.Criticalf("enabling file logging: %v", err)
			os.Exit(1)
		}
	}

	subnetPath, err := subnet.DefaultPath()
	if err != nil {
		log.Criticalf("resolving subnet settings path: %v", err)
		os.Exit(1)
	}
	subnetCfg := subnet.New(subnetPath)
	subnetCfg.Load()
	log.Infof("subnet: %s", subnetCfg.String())

	if cfg.CANAdapter != config.AdapterSocketCAN {
		log.Infof("CAN adapter %s has no vendor driver here; using SocketCAN interface %s", cfg.CANAdapter, canInterfaceName(cfg))
	}
	transport, err := isobus.NewCANBusTransport(canInterfaceName(cfg), isobus.PreferredAddress, 64)
	if err != nil {
		log.Criticalf("opening CAN adapter %s channel %d: %v", cfg.CANAdapter, cfg.CANChannel, err)
		os.Exit(1)
	}
	go func() {
		if err := transport.Run(); err != nil {
			log.Errorf("CAN receive loop stopped: %v", err)
		}
	}()

	name := isobus.TaskControllerName(manufacturerCode, identityNumber)
	address, err := isobus.ClaimAddress(transport, name, isobus.PreferredAddress, addressClaimWait)
	if err != nil {
		log.Criticalf("claiming bus address: %v", err)
		os.Exit(1)
	}
	log.Infof("claimed bus address 0x%02X", address)

	server := tcserver.NewServer(log)
	stack := isobus.NewStack(transport, server)
	server.AttachStack(stack)
	speed := isobus.NewSpeedInterface(stack, speedBroadcastInterval)

	handlers := aogudp.Handlers{
		OnSteerData:      eventloop.SteerHandler(server, speed),
		OnSectionControl: eventloop.SectionControlHandler(server),
	}
	codec, err := aogudp.NewCodec(subnetCfg, log, handlers)
	if err != nil {
		log.Criticalf("opening AOG UDP sockets: %v", err)
		os.Exit(1)
	}

	loop := eventloop.New(codec, stack, server, speed, log)

	var status *statusweb.Server
	if cfg.HTTPAddr != "" {
		status = statusweb.Start(cfg.HTTPAddr, server, subnetCfg, log)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigch
		log.Infof("signal received, shutting down")
		if status != nil {
			status.Shutdown()
		}
		cancel()
	}()

	log.Infof("task controller running")
	loop.Run(ctx)
	_ = transport.Close()
}

func canInterfaceName(cfg config.Config) string {
	return fmt.Sprintf("can%d", cfg.CANChannel)
}
