package util

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
)

// ──────────────────────────────────────────────────────────────────────────────
// Global stats singleton
// ──────────────────────────────────────────────────────────────────────────────

// Stats is the process-wide packet counter.
var Stats = &stats{}

type stats struct {
	PacketsSent  atomic.Int64 // framed packets handed to the transport
	PacketsRecv  atomic.Int64 // inbound buffers handed to the engine
	BytesSent    atomic.Int64
	BytesRecv    atomic.Int64
	DecodeErrors atomic.Int64 // inbound buffers rejected by the codec
	Anomalies    atomic.Int64 // reportable protocol anomalies
}

func (s *stats) AddSent(n int) {
	s.PacketsSent.Add(1)
	s.BytesSent.Add(int64(n))
}

func (s *stats) AddRecv(n int) {
	s.PacketsRecv.Add(1)
	s.BytesRecv.Add(int64(n))
}

func (s *stats) AddDecodeError() { s.DecodeErrors.Add(1) }
func (s *stats) AddAnomaly()     { s.Anomalies.Add(1) }

// Reset zeroes every counter.
func (s *stats) Reset() {
	s.PacketsSent.Store(0)
	s.PacketsRecv.Store(0)
	s.BytesSent.Store(0)
	s.BytesRecv.Store(0)
	s.DecodeErrors.Store(0)
	s.Anomalies.Store(0)
}

// ──────────────────────────────────────────────────────────────────────────────
// Periodic reporter
// ──────────────────────────────────────────────────────────────────────────────

// StartStatsReporter launches a goroutine that logs traffic statistics
// every interval. It stops when ctx is cancelled.
func StartStatsReporter(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var prevSent, prevRecv, prevErrs int64
		for {
			select {
			case <-ticker.C:
				sent := Stats.PacketsSent.Load()
				recv := Stats.PacketsRecv.Load()
				errs := Stats.DecodeErrors.Load()

				if sent != prevSent || recv != prevRecv || errs != prevErrs {
					pterm.DefaultLogger.Debug(formatStats(
						sent-prevSent, recv-prevRecv, errs-prevErrs,
						Stats.BytesSent.Load(), Stats.BytesRecv.Load(),
					))
				}

				prevSent = sent
				prevRecv = recv
				prevErrs = errs

			case <-ctx.Done():
				return
			}
		}
	}()
}

// byteUnits defines the units for formatting byte counts in a human-readable way.
var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}

// formatBytes formats a byte count into a human-readable string with fixed width (exactly 8 chars)
// for example: "99.0   B", " 1.5 KiB", " 0.1 MiB", "98.9 GiB", etc.
func formatBytes(b float64) string {
	unitIdx := 0

	// to prevent "100.0 KiB", which is 9 chars
	for b > 99 && unitIdx < 5 {
		b /= 1024
		unitIdx++
	}

	return fmt.Sprintf("%4.1f %3s", b, byteUnits[unitIdx])
}

// formatStats returns a formatted string of packet deltas and byte totals.
func formatStats(sent, recv, errs, bytesSent, bytesRecv int64) string {
	return fmt.Sprintf("Packets: %3d↑ %3d↓ | Rejected: %2d | Total: %s↑ %s↓",
		sent,
		recv,
		errs,
		formatBytes(float64(bytesSent)),
		formatBytes(float64(bytesRecv)),
	)
}
