// Package eventloop implements the single-threaded cooperative
// scheduler tying the CAN and AOG UDP halves of the task controller
// together.
package eventloop

import (
	"context"
	"time"

	"github.com/lansalot/aog-taskcontroller/internal/aogudp"
	"github.com/lansalot/aog-taskcontroller/internal/isobus"
	"github.com/lansalot/aog-taskcontroller/internal/tclog"
	"github.com/lansalot/aog-taskcontroller/internal/tcserver"
)

const (
	heartbeatInterval = 100 * time.Millisecond
	tickYield         = 2 * time.Millisecond
)

// Loop drives one iteration of: UDP discovery pump, UDP main pump,
// measurement subscription, CAN stack update, speed broadcast, a status
// snapshot refresh, and a 100ms-gated AOG heartbeat — in that order,
// every tick.
type Loop struct {
	codec  *aogudp.Codec
	stack  *isobus.Stack
	server *tcserver.Server
	speed  *isobus.SpeedInterface
	log    *tclog.Logger

	lastHeartbeat time.Time
}

// New constructs a Loop over the given subsystems.
func New(codec *aogudp.Codec, stack *isobus.Stack, server *tcserver.Server, speed *isobus.SpeedInterface, log *tclog.Logger) *Loop {
	return &Loop{codec: codec, stack: stack, server: server, speed: speed, log: log}
}

// Run drives the loop until ctx is cancelled, then terminates the CAN
// stack and closes the UDP sockets on the same goroutine — no async
// cancellation, so shutdown never races a tick in flight.
func (l *Loop) Run(ctx context.Context) {
	defer l.codec.Close()
	defer l.stack.Terminate()

	for {
		select {
		case <-ctx.Done():
			l.log.Infof("eventloop: shutdown requested")
			return
		default:
		}

		l.tick()
		time.Sleep(tickYield)
	}
}

func (l *Loop) tick() {
	l.codec.HandleAddressDetection()
	l.codec.HandleIncomingPackets()
	l.server.RequestMeasurementCommands()
	l.stack.Update()
	l.speed.Update(time.Now())
	l.server.RefreshSnapshot()

	now := time.Now()
	if now.Sub(l.lastHeartbeat) >= heartbeatInterval {
		l.lastHeartbeat = now
		l.emitHeartbeats()
	}
}

func (l *Loop) emitHeartbeats() {
	l.server.Store().Range(func(partner isobus.PartnerID, cs *tcserver.ClientState) {
		payload, ok := l.server.HeartbeatPayload(partner)
		if !ok {
			return
		}
		l.codec.Send(aogudp.SourceTC, aogudp.PGNHeartbeat, payload)
	})
}

// SteerHandler builds the aogudp.Handlers.OnSteerData callback: convert
// speed and forward the desired section bitmap into the server.
func SteerHandler(server *tcserver.Server, speed *isobus.SpeedInterface) func(aogudp.SteerFrame) {
	return func(f aogudp.SteerFrame) {
		speed.SetSpeed(aogudp.SpeedTenthsKmhToMmPerSec(f.SpeedTenthsKmh))
		server.UpdateSectionStates(f.DesiredSections(16))
	}
}

// SectionControlHandler builds the aogudp.Handlers.OnSectionControl
// callback.
func SectionControlHandler(server *tcserver.Server) func(bool) {
	return server.UpdateSectionControlEnabled
}
