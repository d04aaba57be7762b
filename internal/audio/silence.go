package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

type SilenceMetrics struct {
	RMSdBFS  float64
	PeakdBFS float64
	Samples  int64
}

// IsSilentWAV reports whether the RMS level is at or below thresholdDBFS and
// the peak stays within 6 dB of it.
func IsSilentWAV(path string, thresholdDBFS float64) (bool, SilenceMetrics, error) {
	metrics, err := measureWAV(path)
	if err != nil {
		return false, SilenceMetrics{}, err
	}

	if metrics.Samples == 0 || (math.IsInf(metrics.RMSdBFS, -1) && math.IsInf(metrics.PeakdBFS, -1)) {
		return true, metrics, nil
	}

	return metrics.RMSdBFS <= thresholdDBFS && metrics.PeakdBFS <= thresholdDBFS+6, metrics, nil
}

func measureWAV(path string) (SilenceMetrics, error) {
	f, err := os.Open(path)
	if err != nil {
		return SilenceMetrics{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	info, err := readInfo(f)
	if err != nil {
		return SilenceMetrics{}, err
	}
	if _, err := f.Seek(info.DataOffset, io.SeekStart); err != nil {
		return SilenceMetrics{}, fmt.Errorf("seek wav data: %w", err)
	}

	data := make([]byte, info.DataSize)
	n, err := io.ReadFull(f, data)
	if err != nil && err != io.ErrUnexpectedEOF {
		return SilenceMetrics{}, fmt.Errorf("read wav data: %w", err)
	}
	data = data[:n]

	width := int(info.BitsPerSample / 8)
	var peak, sumSquares float64
	var samples int64
	for i := 0; i+width <= len(data); i += width {
		v := decodeSample(data[i:i+width], info.Format, info.BitsPerSample)
		peak = math.Max(peak, math.Abs(v))
		sumSquares += v * v
		samples++
	}

	if samples == 0 {
		return SilenceMetrics{RMSdBFS: math.Inf(-1), PeakdBFS: math.Inf(-1)}, nil
	}

	return SilenceMetrics{
		RMSdBFS:  toDBFS(math.Sqrt(sumSquares / float64(samples))),
		PeakdBFS: toDBFS(peak),
		Samples:  samples,
	}, nil
}

// decodeSample normalizes one sample to [-1, 1]. Callers validate the format.
func decodeSample(b []byte, format, bits uint16) float64 {
	if format == formatFloat {
		if bits == 64 {
			return math.Float64frombits(binary.LittleEndian.Uint64(b))
		}
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	}

	switch bits {
	case 8:
		return (float64(b[0]) - 128) / 128
	case 16:
		return float64(int16(binary.LittleEndian.Uint16(b))) / 32768
	case 24:
		v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if v&0x800000 != 0 {
			v |= ^0xFFFFFF
		}
		return float64(v) / 8388608
	default:
		return float64(int32(binary.LittleEndian.Uint32(b))) / 2147483648
	}
}

func toDBFS(amplitude float64) float64 {
	if amplitude <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(amplitude)
}
