// ABOUTME: Converts decoded streams into the device sample format
// ABOUTME: Maps channel layouts and resamples so voices can be summed directly
package convert

import (
	"io"

	"github.com/yourgame/yourgame-go/pkg/audio"
	"github.com/yourgame/yourgame-go/pkg/audio/decode"
	"github.com/yourgame/yourgame-go/pkg/audio/resample"
)

const (
	// upper bound on frames pulled from the decoder per read
	maxChunkFrames = 4096

	// consecutive empty reads tolerated before giving up on a stream
	maxEmptyReads = 8
)

// Reader yields frames of a decode.Stream in a fixed target format
type Reader struct {
	src    decode.Stream
	from   audio.Format
	target audio.Format

	resampler *resample.Resampler

	raw     []float32
	mapped  []float32
	pending []float32
	outBuf  []float32

	err        error
	flushed    bool
	emptyReads int
}

// New wraps src so that ReadFrames produces target-format frames
func New(src decode.Stream, target audio.Format) *Reader {
	r := &Reader{
		src:    src,
		from:   src.Format(),
		target: target,
	}
	if r.from.SampleRate != target.SampleRate {
		r.resampler = resample.New(r.from.SampleRate, target.SampleRate, target.Channels)
	}
	return r
}

// Format returns the target format
func (r *Reader) Format() audio.Format { return r.target }

// SourceFormat returns the format of the wrapped stream
func (r *Reader) SourceFormat() audio.Format { return r.from }

// Close closes the wrapped stream
func (r *Reader) Close() error { return r.src.Close() }

// ReadFrames fills dst with interleaved target-format frames. It returns fewer
// frames than dst holds only together with a non-nil error: io.EOF at the end
// of the stream, or the decoder's error.
func (r *Reader) ReadFrames(dst []float32) (int, error) {
	ch := r.target.Channels
	want := len(dst) / ch
	got := 0

	for got < want {
		if len(r.pending) > 0 {
			n := min(len(r.pending)/ch, want-got)
			copy(dst[got*ch:], r.pending[:n*ch])
			r.pending = r.pending[n*ch:]
			got += n
			continue
		}

		if r.err != nil {
			if r.resampler != nil && !r.flushed {
				r.flushed = true
				out := r.ensureOut(r.resampler.OutputCapacity(1))
				r.pending = out[:r.resampler.Flush(out)]
				continue
			}
			return got, r.err
		}

		if r.resampler == nil {
			got += r.fill(dst[got*ch:], want-got)
			continue
		}

		need := r.resampler.InputFramesNeeded(want-got) + 1
		frames := r.pull(need)
		if frames == 0 {
			continue
		}
		out := r.ensureOut(r.resampler.OutputCapacity(frames))
		n := r.resampler.Resample(r.mapped[:frames*ch], out)
		r.pending = out[:n]
	}

	return got, nil
}

// fill reads up to frames frames straight into dst when no resampling is needed
func (r *Reader) fill(dst []float32, frames int) int {
	n := r.pull(frames)
	copy(dst, r.mapped[:n*r.target.Channels])
	return n
}

// pull reads up to frames source frames, maps them into r.mapped and
// records a terminal error in r.err
func (r *Reader) pull(frames int) int {
	frames = max(1, min(frames, maxChunkFrames))

	srcCh := r.from.Channels
	if cap(r.raw) < frames*srcCh {
		r.raw = make([]float32, frames*srcCh)
	}
	raw := r.raw[:frames*srcCh]

	n, err := r.src.Read(raw)
	got := n / srcCh
	if err != nil {
		r.err = err
	} else if got == 0 {
		r.emptyReads++
		if r.emptyReads >= maxEmptyReads {
			r.err = io.ErrNoProgress
		}
	} else {
		r.emptyReads = 0
	}

	dstCh := r.target.Channels
	if cap(r.mapped) < got*dstCh {
		r.mapped = make([]float32, got*dstCh)
	}
	r.mapped = r.mapped[:got*dstCh]
	MapChannels(r.mapped, raw[:got*srcCh], srcCh, dstCh)
	return got
}

func (r *Reader) ensureOut(frames int) []float32 {
	size := frames * r.target.Channels
	if cap(r.outBuf) < size {
		r.outBuf = make([]float32, size)
	}
	return r.outBuf[:size]
}

// MapChannels converts interleaved frames from srcCh to dstCh channels.
// Mono is copied to every output channel, any layout folds to mono by
// averaging, and otherwise shared channels are copied and extra ones silenced.
func MapChannels(dst, src []float32, srcCh, dstCh int) {
	frames := len(src) / srcCh

	switch {
	case srcCh == dstCh:
		copy(dst, src[:frames*srcCh])

	case srcCh == 1:
		for f := range frames {
			v := src[f]
			out := dst[f*dstCh : (f+1)*dstCh]
			for c := range out {
				out[c] = v
			}
		}

	case dstCh == 1:
		scale := 1 / float32(srcCh)
		for f := range frames {
			var sum float32
			for _, v := range src[f*srcCh : (f+1)*srcCh] {
				sum += v
			}
			dst[f] = sum * scale
		}

	default:
		shared := min(srcCh, dstCh)
		for f := range frames {
			in := src[f*srcCh : (f+1)*srcCh]
			out := dst[f*dstCh : (f+1)*dstCh]
			copy(out, in[:shared])
			for c := shared; c < dstCh; c++ {
				out[c] = 0
			}
		}
	}
}
