package audio

import "testing"

func TestEncodePCM16_RoundTripsWithToFloat32(t *testing.T) {
	in := []float32{0, 0.5, -1.0, 1.0}
	encoded := EncodePCM16(in)
	samples := make([]int16, len(in))
	for i := range samples {
		lo := encoded[i*2]
		hi := encoded[i*2+1]
		samples[i] = int16(uint16(lo) | uint16(hi)<<8)
	}
	out := ToFloat32(samples)
	for i := range in {
		diff := out[i] - in[i]
		if diff < -0.01 || diff > 0.01 {
			t.Errorf("index %d: got %v, want ~%v", i, out[i], in[i])
		}
	}
}

func TestEncodePCM16_ClampsOutOfRangeInput(t *testing.T) {
	encoded := EncodePCM16([]float32{2.0, -2.0})
	if len(encoded) != 4 {
		t.Fatalf("expected 4 bytes, got %d", len(encoded))
	}
}
