package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

var (
	ErrUnsupportedWAV = errors.New("unsupported wav format")
	ErrInvalidWAV     = errors.New("invalid wav file")
)

const (
	formatPCM   = 1
	formatFloat = 3
)

// Info describes the stream inside a RIFF/WAVE file.
type Info struct {
	Format        uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BitsPerSample uint16
	DataOffset    int64
	DataSize      uint32
}

func (i Info) Duration() time.Duration {
	if i.ByteRate == 0 {
		return 0
	}
	return time.Duration(float64(i.DataSize) / float64(i.ByteRate) * float64(time.Second))
}

// Inspect reads the header chunks of a WAV file without loading samples.
func Inspect(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	return readInfo(f)
}

// WAVDuration is Inspect reduced to the playback length.
func WAVDuration(path string) (time.Duration, error) {
	info, err := Inspect(path)
	if err != nil {
		return 0, err
	}
	return info.Duration(), nil
}

func readInfo(r io.ReadSeeker) (Info, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Info{}, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
		}
		return Info{}, fmt.Errorf("read wav header: %w", err)
	}
	if string(riff[:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return Info{}, ErrInvalidWAV
	}

	var (
		info    Info
		hasFmt  bool
		hasData bool
	)

	for !hasData {
		var header [8]byte
		if _, err := io.ReadFull(r, header[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return Info{}, fmt.Errorf("read wav chunk header: %w", err)
		}

		id := string(header[:4])
		size := binary.LittleEndian.Uint32(header[4:8])
		padded := int64(size) + int64(size%2)

		switch id {
		case "fmt ":
			if size < 16 {
				return Info{}, ErrInvalidWAV
			}
			buf := make([]byte, padded)
			if _, err := io.ReadFull(r, buf); err != nil {
				return Info{}, fmt.Errorf("read wav fmt chunk: %w", err)
			}
			info.Format = binary.LittleEndian.Uint16(buf[0:2])
			info.Channels = binary.LittleEndian.Uint16(buf[2:4])
			info.SampleRate = binary.LittleEndian.Uint32(buf[4:8])
			info.ByteRate = binary.LittleEndian.Uint32(buf[8:12])
			info.BitsPerSample = binary.LittleEndian.Uint16(buf[14:16])
			hasFmt = true
		case "data":
			offset, err := r.Seek(0, io.SeekCurrent)
			if err != nil {
				return Info{}, fmt.Errorf("seek wav data chunk: %w", err)
			}
			info.DataOffset = offset
			info.DataSize = size
			hasData = true
		default:
			if _, err := r.Seek(padded, io.SeekCurrent); err != nil {
				return Info{}, fmt.Errorf("skip wav chunk %q: %w", id, err)
			}
		}
	}

	if !hasFmt || !hasData {
		return Info{}, ErrInvalidWAV
	}
	if err := validateFormat(info.Format, info.BitsPerSample); err != nil {
		return Info{}, err
	}
	return info, nil
}

func validateFormat(format, bits uint16) error {
	switch {
	case format == formatPCM && (bits == 8 || bits == 16 || bits == 24 || bits == 32):
		return nil
	case format == formatFloat && (bits == 32 || bits == 64):
		return nil
	default:
		return ErrUnsupportedWAV
	}
}
