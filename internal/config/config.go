// Package config parses the process's command-line surface. Like every
// main package in this corpus, it reaches for the standard flag package
// rather than a CLI framework.
package config

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/lansalot/aog-taskcontroller/internal/tclog"
)

// Version is stamped at build time via -ldflags; a fixed fallback keeps
// --version usable from a plain `go run`.
var Version = "dev"

// CANAdapter identifies which CAN backend to open.
type CANAdapter string

const (
	AdapterPeakPCAN       CANAdapter = "peak-pcan"
	AdapterInnomakerUSB2CAN CANAdapter = "innomaker-usb2can"
	AdapterRusokuToucan   CANAdapter = "rusoku-toucan"
	AdapterSysTecUSB2CAN  CANAdapter = "sys-tec-usb2can"
	AdapterSocketCAN      CANAdapter = "socketcan"
)

var knownAdapters = map[CANAdapter]bool{
	AdapterPeakPCAN:         true,
	AdapterInnomakerUSB2CAN: true,
	AdapterRusokuToucan:     true,
	AdapterSysTecUSB2CAN:    true,
	AdapterSocketCAN:        true,
}

// Config is the process's static configuration, derived once from argv.
type Config struct {
	Help       bool
	Version    bool
	Log2File   bool
	CANAdapter CANAdapter
	CANChannel int
	LogLevel   tclog.Level
	HTTPAddr   string
}

// Parse parses args (excluding argv[0]) into a Config. Unknown flags are
// errors; an unknown --can_adapter value is also an error (the caller
// treats that as fatal per the configuration error taxonomy).
func Parse(args []string, out io.Writer) (Config, error) {
	fs := flag.NewFlagSet("aog-taskcontroller", flag.ContinueOnError)
	fs.SetOutput(out)

	help := fs.Bool("help", false, "show this help message")
	ver := fs.Bool("version", false, "print version and exit")
	log2file := fs.Bool("log2file", false, "also write logs to a timestamped file")
	adapter := fs.String("can_adapter", string(AdapterSocketCAN), "CAN adapter: peak-pcan|innomaker-usb2can|rusoku-toucan|sys-tec-usb2can|socketcan")
	channel := fs.Int("can_channel", 0, "CAN channel index")
	level := fs.String("log_level", "info", "log level: debug|info|warning|error|critical")
	httpAddr := fs.String("http", ":8081", "HTTP address for the status UI (e.g., :8081), empty to disable")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Help:       *help,
		Version:    *ver,
		Log2File:   *log2file,
		CANAdapter: CANAdapter(strings.ToLower(strings.TrimSpace(*adapter))),
		CANChannel: *channel,
		HTTPAddr:   *httpAddr,
	}

	if cfg.Help {
		fs.PrintDefaults()
	}
	if cfg.Help || cfg.Version {
		return cfg, nil
	}

	if !knownAdapters[cfg.CANAdapter] {
		return Config{}, fmt.Errorf("unknown --can_adapter %q", *adapter)
	}

	lvl, err := tclog.ParseLevel(*level)
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = lvl

	return cfg, nil
}
