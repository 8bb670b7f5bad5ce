package aogudp

import (
	"context"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/lansalot/aog-taskcontroller/internal/subnet"
	"github.com/lansalot/aog-taskcontroller/internal/tclog"
)

const (
	localPort     = 8888
	broadcastPort = 9999
)

// Handlers are the callbacks the codec invokes as it decodes inbound
// frames. Section-state/mode handling itself lives in tcserver; the
// codec only decodes and hands off.
type Handlers struct {
	OnSteerData      func(frame SteerFrame)
	OnSectionControl func(enabled bool)
}

// Codec owns the two non-blocking UDP sockets AOG traffic flows over:
// a main socket bound to the discovered local interface, and a
// discovery socket bound to the wildcard address to catch broadcasts
// on any interface.
type Codec struct {
	subnetCfg *subnet.Config
	log       *tclog.Logger
	handlers  Handlers

	mainConn      *net.UDPConn
	discoveryConn *net.UDPConn
	mainReader    *frameReader
	discReader    *frameReader

	// SkipChecksumValidation disables checksum verification on inbound
	// frames. Default false: the original source disabled checksums
	// pending a known-good wire format; this implementation has one, so
	// validation defaults on.
	SkipChecksumValidation bool

	rxBuf [512]byte
}

// broadcastListenConfig sets SO_REUSEADDR (the wildcard discovery
// socket and the interface-specific main socket both bind port 8888)
// and SO_BROADCAST (outbound sends target the subnet broadcast
// address) before the socket binds, mirroring the two setsockopt
// calls the original source makes on both sockets.
func broadcastListenConfig() *net.ListenConfig {
	return &net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				if err := syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1); err != nil {
					sockErr = fmt.Errorf("set SO_REUSEADDR: %w", err)
					return
				}
				if err := syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_BROADCAST, 1); err != nil {
					sockErr = fmt.Errorf("set SO_BROADCAST: %w", err)
					return
				}
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
}

func listenUDPBroadcast(addr *net.UDPAddr) (*net.UDPConn, error) {
	lp, err := broadcastListenConfig().ListenPacket(context.Background(), "udp4", addr.String())
	if err != nil {
		return nil, err
	}
	return lp.(*net.UDPConn), nil
}

// NewCodec opens both sockets and returns a ready Codec. subnetCfg
// should already be loaded.
func NewCodec(subnetCfg *subnet.Config, log *tclog.Logger, handlers Handlers) (*Codec, error) {
	discoveryConn, err := listenUDPBroadcast(&net.UDPAddr{IP: net.IPv4zero, Port: localPort})
	if err != nil {
		return nil, fmt.Errorf("aogudp: bind discovery socket: %w", err)
	}

	c := &Codec{
		subnetCfg:     subnetCfg,
		log:           log,
		handlers:      handlers,
		discoveryConn: discoveryConn,
	}
	c.discReader = newFrameReader("discovery", log, false, c.dispatchDiscovery)
	c.mainReader = newFrameReader("main", log, false, c.dispatchMain)

	if err := c.rebindMain(); err != nil {
		discoveryConn.Close()
		return nil, err
	}
	return c, nil
}

// localEndpointIP finds the local interface address whose first three
// octets match the current subnet, falling back to loopback.
func localEndpointIP(subnetOctets [3]byte) net.IP {
	ifaces, err := net.Interfaces()
	if err != nil {
		return net.IPv4(127, 0, 0, 1)
	}
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipNet.IP.To4()
			if ip4 == nil {
				continue
			}
			if ip4[0] == subnetOctets[0] && ip4[1] == subnetOctets[1] && ip4[2] == subnetOctets[2] {
				return ip4
			}
		}
	}
	return net.IPv4(127, 0, 0, 1)
}

// rebindMain closes any existing main socket and rebinds it to the
// interface matching the current subnet.
func (c *Codec) rebindMain() error {
	if c.mainConn != nil {
		c.mainConn.Close()
	}
	ip := localEndpointIP(c.subnetCfg.Subnet())
	conn, err := listenUDPBroadcast(&net.UDPAddr{IP: ip, Port: localPort})
	if err != nil {
		return fmt.Errorf("aogudp: bind main socket on %s: %w", ip, err)
	}
	c.mainConn = conn
	c.log.Infof("aogudp: main socket bound to %s:%d", ip, localPort)
	return nil
}

// recvNonBlocking attempts a single read with an immediate deadline,
// emulating the original source's single non-blocking recvfrom per
// tick. A deadline-exceeded error is the Go equivalent of EWOULDBLOCK.
func recvNonBlocking(conn *net.UDPConn, buf []byte) ([]byte, bool) {
	if err := conn.SetReadDeadline(time.Now()); err != nil {
		return nil, false
	}
	n, err := conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, false
		}
		return nil, false
	}
	return buf[:n], true
}

// HandleAddressDetection pumps the discovery socket once.
func (c *Codec) HandleAddressDetection() {
	if data, ok := recvNonBlocking(c.discoveryConn, c.rxBuf[:]); ok {
		c.discReader.skipChecksum = c.SkipChecksumValidation
		c.discReader.feed(data)
	}
}

// HandleIncomingPackets pumps the main socket once.
func (c *Codec) HandleIncomingPackets() {
	if data, ok := recvNonBlocking(c.mainConn, c.rxBuf[:]); ok {
		c.mainReader.skipChecksum = c.SkipChecksumValidation
		c.mainReader.feed(data)
	}
}

func (c *Codec) dispatchMain(f Frame) {
	switch {
	case f.Source == SourceAOG && f.PGN == PGNSteerData:
		steer, ok := DecodeSteerFrame(f.Payload)
		if !ok {
			c.log.Warningf("aogudp: malformed steer data frame")
			return
		}
		if c.handlers.OnSteerData != nil {
			c.handlers.OnSteerData(steer)
		}
	case f.Source == SourceAOG && f.PGN == PGNSectionControl:
		enabled, ok := DecodeSectionControlFrame(f.Payload)
		if !ok {
			c.log.Warningf("aogudp: malformed section control frame")
			return
		}
		if c.handlers.OnSectionControl != nil {
			c.handlers.OnSectionControl(enabled)
		}
	}
}

func (c *Codec) dispatchDiscovery(f Frame) {
	if f.Source != SourceAOG || f.PGN != PGNSubnetAnnounce {
		return
	}
	announce, ok := DecodeSubnetAnnounceFrame(f.Payload)
	if !ok {
		c.log.Warningf("aogudp: malformed subnet announcement")
		return
	}
	octets := [3]byte{announce.A, announce.B, announce.C}
	if err := c.subnetCfg.Set(octets, true); err != nil {
		c.log.Errorf("aogudp: persisting subnet: %v", err)
	}
	c.log.Infof("aogudp: subnet announced: %d.%d.%d.0", octets[0], octets[1], octets[2])
	if err := c.rebindMain(); err != nil {
		c.log.Errorf("aogudp: rebinding main socket: %v", err)
	}
}

// Send broadcasts one AOG frame from src on pgn with the given payload
// to the current subnet's broadcast address on port 9999. Errors are
// swallowed and reported as false, matching the original source's
// error taxonomy for unreachable subnets.
func (c *Codec) Send(src, pgn uint8, payload []byte) bool {
	frame := buildFrame(src, pgn, payload)
	addr := &net.UDPAddr{IP: net.ParseIP(c.subnetCfg.BroadcastAddr()), Port: broadcastPort}
	if _, err := c.mainConn.WriteToUDP(frame, addr); err != nil {
		c.log.Warningf("aogudp: send to %s failed: %v", addr, err)
		return false
	}
	return true
}

// Close releases both sockets.
func (c *Codec) Close() {
	if c.mainConn != nil {
		c.mainConn.Close()
	}
	if c.discoveryConn != nil {
		c.discoveryConn.Close()
	}
}
