package audio

import (
	"encoding/binary"
	"math"
)

// resample converts pcm captured at fromRate to toRate by linear
// interpolation between neighboring samples — adequate for the speech
// bandwidth a microphone capture path carries, not a general-purpose
// resampler.
func resample(pcm []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate {
		return pcm
	}

	ratio := float64(fromRate) / float64(toRate)
	out := make([]int16, int(float64(len(pcm))/ratio))

	for i := range out {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		if srcIdx >= len(pcm)-1 {
			out[i] = pcm[len(pcm)-1]
			continue
		}

		frac := srcPos - float64(srcIdx)
		a, b := float64(pcm[srcIdx]), float64(pcm[srcIdx+1])
		out[i] = int16(a + (b-a)*frac)
	}
	return out
}

// rms computes the root-mean-square amplitude of pcm, used to log
// whether a captured chunk carried audible signal.
func rms(pcm []int16) float64 {
	if len(pcm) == 0 {
		return 0
	}
	var sum float64
	for _, s := range pcm {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(pcm)))
}

// isSilent reports whether pcm's RMS falls below threshold — debug-log
// gating only, never a capture/encode decision.
func isSilent(pcm []int16, threshold float64) bool {
	return rms(pcm) < threshold
}

// wavHeader builds a 44-byte canonical WAV/RIFF header describing
// dataSize bytes of interleaved PCM at sampleRate/channels/bitDepth.
func wavHeader(dataSize, sampleRate, channels, bitDepth int) []byte {
	header := make([]byte, 44)

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(dataSize+36))
	copy(header[8:12], "WAVE")

	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1)
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))

	byteRate := sampleRate * channels * bitDepth
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))

	blockAlign := channels * bitDepth
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], uint16(bitDepth*8))

	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))

	return header
}

// pcmToWAV prepends a wavHeader to pcm's little-endian byte encoding,
// producing a complete playable WAV file.
func pcmToWAV(pcm []int16, sampleRate, channels, bitDepth int) []byte {
	data := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}

	out := make([]byte, 0, 44+len(data))
	out = append(out, wavHeader(len(data), sampleRate, channels, bitDepth)...)
	out = append(out, data...)
	return out
}
