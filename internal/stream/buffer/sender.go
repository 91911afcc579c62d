package buffer

import (
	"context"
	"fmt"
	"time"
)

// Transport is the narrow sink the Sender paces writes to. It receives the
// full Packet (not just the payload) so a muxer-backed Transport can still
// route video/audio to the right stream and preserve the keyframe flag.
type Transport interface {
	Write(pkt Packet) error
}

// Sender drains a Queue at real-time pace. Pacing is anchored to a fixed
// (streamStart, firstPacketDTS) pair rather than the gap between
// consecutive packets, so that a slow Write call cannot compound into
// unbounded drift (spec §4.9): for each packet, target is its DTS offset
// from the first packet, elapsed is wall time since the stream began, and
// the sender only sleeps when it is running ahead of real time, capped at
// 250 ms per packet so a long gap (e.g. after a silence stretch) cannot
// stall delivery indefinitely.
type Sender struct {
	q  *Queue
	tr Transport

	streamStart  time.Time
	firstDTSUS   int64
	haveFirstDTS bool
}

// NewSender returns a Sender that paces writes of q's packets to tr.
func NewSender(q *Queue, tr Transport) *Sender {
	return &Sender{q: q, tr: tr}
}

const (
	paceSlackUS = 2000
	paceCap     = 250 * time.Millisecond
)

// Run drains the queue until ctx is cancelled, blocking between sends to
// preserve real-time pacing. Returns ctx.Err() on cancellation.
func (s *Sender) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		pkt, ok := s.q.Pop()
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Millisecond):
			}
			continue
		}
		if !s.haveFirstDTS {
			s.streamStart = time.Now()
			s.firstDTSUS = pkt.DTSMicros
			s.haveFirstDTS = true
		}

		targetUS := pkt.DTSMicros - s.firstDTSUS
		elapsedUS := time.Since(s.streamStart).Microseconds()
		if targetUS > elapsedUS+paceSlackUS {
			sleep := time.Duration(targetUS-elapsedUS) * time.Microsecond
			if sleep > paceCap {
				sleep = paceCap
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(sleep):
			}
		}

		if err := s.tr.Write(pkt); err != nil {
			return fmt.Errorf("buffer: send packet: %w", err)
		}
	}
}
