package telemetry

import (
	"context"
	"fmt"
	"net"
	"time"
)

// Beacon periodically sends a state datagram to a fixed ground-station
// address. Fire-and-forget UDP: a missed datagram is simply superseded by
// the next one.
type Beacon struct {
	dest     string
	interval time.Duration
	conn     *net.UDPConn
}

func NewBeacon(dest string, interval time.Duration) (*Beacon, error) {
	addr, err := net.ResolveUDPAddr("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("resolve dest: %w", err)
	}

	// DialUDP selects a suitable local address automatically.
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial udp: %w", err)
	}

	if interval <= 0 {
		interval = time.Second
	}
	return &Beacon{dest: dest, interval: interval, conn: conn}, nil
}

// Run sends payload(seq) every interval until ctx is canceled. An empty
// payload skips the send.
func (b *Beacon) Run(ctx context.Context, payload func(seq uint64) []byte) error {
	t := time.NewTicker(b.interval)
	defer t.Stop()

	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			p := payload(seq)
			seq++
			if len(p) == 0 {
				continue
			}
			if _, err := b.conn.Write(p); err != nil {
				return fmt.Errorf("send to %s: %w", b.dest, err)
			}
		}
	}
}

func (b *Beacon) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Close()
}
