package analysis

// Snapshot is the per-tick bundle of computed audio features plus transport
// state, published to every renderer. Slices are freshly allocated each tick,
// so consumers may hold a Snapshot across frames without copying.
type Snapshot struct {
	// FrequencyData holds the byte magnitude spectrum, FFTSize/2 bins.
	FrequencyData []byte
	// TimeData holds waveform bytes centered at 128, same length as FrequencyData.
	TimeData []byte

	Volume     float64 // mean normalized magnitude, [0,1]
	BassEnergy float64 // 20-150 Hz, [0,1]
	MidEnergy  float64 // 150-2000 Hz, [0,1]
	HighEnergy float64 // 2000-20000 Hz, [0,1]

	// Beat is true only on the tick a beat was accepted.
	Beat bool
	// BPM is the tempo estimate in [50,200], or 0 while unknown.
	BPM int

	IsPlaying   bool
	CurrentTime float64 // seconds
	Duration    float64 // seconds

	MicMode     bool
	MicStopping bool // transitional: mic released, file session not yet restored
}

// TransportStatus is the playback-side state merged into each Snapshot.
// The analysis loop never computes these fields itself; the controller owns them.
type TransportStatus struct {
	IsPlaying   bool
	CurrentTime float64
	Duration    float64
	MicMode     bool
	MicStopping bool
}
