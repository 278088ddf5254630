package memory

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/moonlitstudios/backlot/pkg/streaming"
)

// export writes the trace as the same envelopes the websocket backend
// streams, one per line: start_session, then samples and events in tick
// order, then end_session. Caller holds b.mu.
func (b *Backend) export() error {
	if err := os.MkdirAll(b.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(b.cfg.OutputDir, b.fileName())

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create trace file: %w", err)
	}
	defer f.Close()

	var (
		sink io.Writer = f
		enc  *zstd.Encoder
	)
	if b.cfg.CompressOutput {
		enc, err = zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		sink = enc
	}
	w := bufio.NewWriterSize(sink, 128*1024)

	if err := b.writeLines(w); err != nil {
		if enc != nil {
			_ = enc.Close()
		}
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush trace: %w", err)
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to finish zstd stream: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close trace file: %w", err)
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) writeLines(w *bufio.Writer) error {
	line := func(msgType string, payload any) error {
		data, err := streaming.Marshal(msgType, payload)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		return w.WriteByte('\n')
	}

	if err := line(streaming.TypeStartSession, streaming.StartSessionPayload{Session: b.session}); err != nil {
		return err
	}

	// events of a tick come before the sample taken at its end
	i, j := 0, 0
	for i < len(b.frames) || j < len(b.events) {
		if j < len(b.events) && (i == len(b.frames) || b.events[j].Tick <= b.frames[i].Tick) {
			if err := line(streaming.TypeWorldEvent, b.events[j]); err != nil {
				return err
			}
			j++
			continue
		}
		if err := line(streaming.TypeFrameSample, b.frames[i]); err != nil {
			return err
		}
		i++
	}

	return line(streaming.TypeEndSession, streaming.EndSessionPayload{Outcome: b.session.Outcome})
}

// fileName is "<name>_<start>.jsonl", with ".zst" when compressing.
func (b *Backend) fileName() string {
	name := b.session.Name
	if name == "" {
		name = "session"
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case ' ', ':', '/', '\\':
			return '_'
		}
		return r
	}, name)

	ext := ".jsonl"
	if b.cfg.CompressOutput {
		ext += ".zst"
	}
	return fmt.Sprintf("%s_%d_%s%s", name, b.session.ID, b.session.StartedAt.UTC().Format("20060102_150405"), ext)
}
