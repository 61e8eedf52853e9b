package engine

import "dolphinretro/interfaces"

// sampleShim feeds interleaved stereo batches to a host that only accepts
// one sample pair per call.
type sampleShim struct {
	sink interfaces.AudioSampleSink
}

func (s sampleShim) WriteAudioBatch(frames []int16) int {
	n := len(frames) / 2
	for i := 0; i < n; i++ {
		s.sink.WriteAudioSample(frames[i*2], frames[i*2+1])
	}
	return n
}
