package audio

import "time"

// Packet is a fixed-size slice of signed 16-bit PCM samples ready for a
// voice-activity decision, carrying the timestamp passed to the Push call
// that completed it and the speaker it belongs to (empty in mixed mode).
type Packet struct {
	Samples   []int16
	Timestamp time.Time
	SpeakerID string
	SampleRate int
}

// PacketFunc receives each VAD packet as soon as enough samples have
// accumulated to fill one. Emission is synchronous with the Push call that
// completes the packet.
type PacketFunc func(Packet)

// Framer accumulates arbitrary-length platform PCM frames into fixed-size
// VAD packets, either as one mixed stream or as one stream per speaker.
//
// This is the packetization half of what the teacher's single VAD type used
// to do; the speech/silence decision itself is a separate concern (see
// internal/vad) applied downstream of the packets this type emits.
type Framer struct {
	sampleRate    int
	packetSamples int
	perSpeaker    bool
	emit          PacketFunc

	mixedPending []int16
	pending      map[string][]int16
}

// DefaultVadDurationMs is the packet duration used when none is configured.
const DefaultVadDurationMs = 100

// NewFramer builds a Framer. vadDurationMs controls the packet size in
// milliseconds (packet_samples = sampleRate * vadDurationMs / 1000). When
// perSpeaker is true, a separate pending buffer is kept per speaker id;
// otherwise all audio accumulates into one mixed stream.
func NewFramer(sampleRate, vadDurationMs int, perSpeaker bool, emit PacketFunc) *Framer {
	if vadDurationMs <= 0 {
		vadDurationMs = DefaultVadDurationMs
	}
	f := &Framer{
		sampleRate:    sampleRate,
		packetSamples: sampleRate * vadDurationMs / 1000,
		perSpeaker:    perSpeaker,
		emit:          emit,
	}
	if perSpeaker {
		f.pending = make(map[string][]int16)
	}
	return f
}

// PacketSamples returns the configured packet size, in samples.
func (f *Framer) PacketSamples() int { return f.packetSamples }

// Push decodes little-endian signed 16-bit PCM, appends it to the selected
// pending buffer, and emits as many complete packets as the accumulated
// samples allow, retaining any remainder for the next Push.
func (f *Framer) Push(pcmBytes []byte, timestamp time.Time, speakerID string) {
	samples := decodePCM16(pcmBytes)

	key := speakerID
	if !f.perSpeaker {
		key = ""
	}

	buf := f.bufferFor(key)
	buf = append(buf, samples...)

	for len(buf) >= f.packetSamples {
		packet := make([]int16, f.packetSamples)
		copy(packet, buf[:f.packetSamples])
		buf = buf[f.packetSamples:]
		f.emit(Packet{
			Samples:    packet,
			Timestamp:  timestamp,
			SpeakerID:  key,
			SampleRate: f.sampleRate,
		})
	}

	f.setBuffer(key, buf)
}

// Flush discards any partial remainder in every pending buffer. A tail
// shorter than one packet cannot be meaningfully VAD-scored; dropping it is
// safer than padding with silence a downstream VAD might read as speech end.
func (f *Framer) Flush() {
	f.mixedPending = nil
	for k := range f.pending {
		delete(f.pending, k)
	}
}

func (f *Framer) bufferFor(key string) []int16 {
	if !f.perSpeaker {
		return f.mixedPending
	}
	return f.pending[key]
}

func (f *Framer) setBuffer(key string, buf []int16) {
	if !f.perSpeaker {
		f.mixedPending = buf
		return
	}
	f.pending[key] = buf
}

func decodePCM16(data []byte) []int16 {
	n := len(data) / 2
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(uint16(data[i*2]) | uint16(data[i*2+1])<<8)
	}
	return samples
}

// ToFloat32 converts signed 16-bit samples to float32 normalized to
// [-1, 1], matching SpeechProcessor's expected audio_f32 input.
func ToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}
