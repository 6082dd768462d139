// ABOUTME: Streaming linear resampler for float32 interleaved audio
// ABOUTME: Keeps the previous frame between chunks so output is continuous
package resample

import "math"

// Resampler performs linear interpolation to convert between sample rates.
//
// Positions are measured in frames of a virtual input where index 0 is the
// last frame of the previous chunk and index k is frame k-1 of the current one.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64
	lastFrame  []float32
	primed     bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		lastFrame:  make([]float32, channels),
	}
}

// Ratio returns input frames consumed per output frame
func (r *Resampler) Ratio() float64 { return r.ratio }

// Resample converts input samples to the output rate and returns the number
// of samples written. output should hold OutputCapacity(inputFrames) frames;
// frames that do not fit are dropped.
func (r *Resampler) Resample(input []float32, output []float32) int {
	inputFrames := len(input) / r.channels
	if inputFrames == 0 {
		return 0
	}

	if !r.primed {
		copy(r.lastFrame, input[:r.channels])
		r.position = 1
		r.primed = true
	}

	outputFrames := len(output) / r.channels
	outIdx := 0

	for outIdx < outputFrames && r.position < float64(inputFrames) {
		idx := int(r.position)
		frac := float32(r.position - float64(idx))

		for ch := 0; ch < r.channels; ch++ {
			s1 := r.frameSample(input, idx, ch)
			s2 := input[idx*r.channels+ch]
			output[outIdx*r.channels+ch] = s1 + (s2-s1)*frac
		}

		outIdx++
		r.position += r.ratio
	}

	r.position -= float64(inputFrames)
	if r.position < 0 {
		// output was too small; resume from the start of the next chunk
		r.position = 0
	}
	copy(r.lastFrame, input[(inputFrames-1)*r.channels:inputFrames*r.channels])

	return outIdx * r.channels
}

// frameSample returns sample ch of virtual frame idx
func (r *Resampler) frameSample(input []float32, idx, ch int) float32 {
	if idx == 0 {
		return r.lastFrame[ch]
	}
	return input[(idx-1)*r.channels+ch]
}

// Flush emits the frames still owed after the final input frame by holding
// that frame, and returns the number of samples written
func (r *Resampler) Flush(output []float32) int {
	if !r.primed {
		return 0
	}

	outputFrames := len(output) / r.channels
	outIdx := 0
	for outIdx < outputFrames && r.position < 1 {
		copy(output[outIdx*r.channels:], r.lastFrame)
		outIdx++
		r.position += r.ratio
	}
	r.primed = false
	return outIdx * r.channels
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0.0
	r.primed = false
	for i := range r.lastFrame {
		r.lastFrame[i] = 0
	}
}

// OutputCapacity returns the number of output frames that can be produced
// from inputFrames input frames, with room for the carried-over position
func (r *Resampler) OutputCapacity(inputFrames int) int {
	return int(math.Ceil(float64(inputFrames)/r.ratio)) + 2
}

// InputFramesNeeded returns how many input frames produce roughly outputFrames frames
func (r *Resampler) InputFramesNeeded(outputFrames int) int {
	return int(math.Ceil(float64(outputFrames) * r.ratio))
}
