package gemini

import (
	"encoding/binary"
	"strconv"
	"strings"
)

const (
	defaultSampleRate = 24000
	wavChannels       = 1
	wavBitsPerSample  = 16
	wavHeaderSize     = 44
)

// encodeWAV prepends a 44 byte RIFF header to 16-bit little endian PCM.
func encodeWAV(pcm []byte, sampleRate int) []byte {
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}

	blockAlign := wavChannels * wavBitsPerSample / 8
	dataSize := len(pcm)

	out := make([]byte, wavHeaderSize, wavHeaderSize+dataSize)

	// RIFF header
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+dataSize))
	copy(out[8:12], "WAVE")

	// fmt chunk
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(wavChannels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], uint16(wavBitsPerSample))

	// data chunk
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataSize))

	return append(out, pcm...)
}

// sampleRateFromMIME reads the rate parameter of a mime type such as
// "audio/L16;codec=pcm;rate=24000".
func sampleRateFromMIME(mimeType string) int {
	for _, param := range strings.Split(mimeType, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "rate") {
			continue
		}
		if rate, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && rate > 0 {
			return rate
		}
	}
	return defaultSampleRate
}

func isWAV(mimeType string, data []byte) bool {
	mimeType = strings.ToLower(mimeType)
	if strings.Contains(mimeType, "wav") {
		return true
	}
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}
