package aogudp

import "github.com/lansalot/aog-taskcontroller/internal/tclog"

// frameReader is the inbound framing loop shared by both the main and
// discovery sockets, parameterized by a dispatch function — the
// original source repeats this loop once per socket; this factors it
// into one reader used by both.
type frameReader struct {
	buf          []byte
	dispatch     func(Frame)
	log          *tclog.Logger
	name         string
	skipChecksum bool
}

func newFrameReader(name string, log *tclog.Logger, skipChecksum bool, dispatch func(Frame)) *frameReader {
	return &frameReader{dispatch: dispatch, log: log, name: name, skipChecksum: skipChecksum}
}

// feed appends newly received bytes and drains as many complete frames
// as are buffered, dispatching each in turn.
func (r *frameReader) feed(data []byte) {
	r.buf = append(r.buf, data...)
	if len(r.buf) > maxBufferedBytes {
		r.log.Warningf("aogudp: %s buffer overflow, discarding", r.name)
		r.buf = nil
		return
	}

	for {
		if len(r.buf) < 6 {
			return
		}
		if r.buf[0] != startByte0 || r.buf[1] != startByte1 {
			r.log.Warningf("aogudp: %s bad start-of-packet, discarding %d buffered bytes", r.name, len(r.buf))
			r.buf = nil
			return
		}

		length := int(r.buf[4])
		total := 5 + length + 1
		if len(r.buf) < total {
			return
		}

		got := r.buf[total-1]
		if !r.skipChecksum {
			want := checksum(r.buf[2 : total-1])
			if got != want {
				r.log.Warningf("aogudp: %s checksum mismatch, dropping frame", r.name)
				r.buf = append([]byte(nil), r.buf[total:]...)
				continue
			}
		}

		frame := Frame{
			Source:  r.buf[2],
			PGN:     r.buf[3],
			Payload: append([]byte(nil), r.buf[5:5+length]...),
		}
		r.buf = append([]byte(nil), r.buf[total:]...)
		r.dispatch(frame)
	}
}
