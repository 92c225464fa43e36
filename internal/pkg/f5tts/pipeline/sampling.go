package pipeline

import (
	"fmt"
	"math"
)

// maxDurationFrames bounds one synthesis pass to the context length the
// checkpoints were trained with (~43 seconds of mel frames at 24 kHz / 256).
const maxDurationFrames = 4096

// timeSteps builds the ODE time grid for nfe Euler steps. A non-zero sway
// coefficient warps the uniform grid toward the start of the trajectory:
//
//	t = u + coef * (cos(pi/2 * u) - 1 + u)
//
// which spends more function evaluations where the flow changes fastest.
func timeSteps(nfe int, swayCoef float64) []float32 {
	if nfe < 1 {
		nfe = 1
	}
	steps := make([]float32, nfe+1)
	for i := 0; i <= nfe; i++ {
		u := float64(i) / float64(nfe)
		t := u
		if swayCoef != 0 {
			t = u + swayCoef*(math.Cos(math.Pi/2*u)-1+u)
		}
		steps[i] = float32(t)
	}
	return steps
}

// estimateDurationFrames predicts the total mel length of reference plus
// generated speech, assuming the generated text is spoken at the same byte
// rate as the reference transcript, stretched by 1/speed. A reference that
// already fills the duration window leaves no frames to generate into and
// is an error.
func estimateDurationFrames(refFrames, refBytes, genBytes int, speed float64) (int, error) {
	if refBytes < 1 {
		refBytes = 1
	}
	if speed <= 0 {
		speed = 1.0
	}

	frames := refFrames + int(float64(refFrames)*float64(genBytes)/float64(refBytes)/speed)
	if frames <= refFrames {
		frames = refFrames + 1
	}
	if frames > maxDurationFrames {
		frames = maxDurationFrames
	}
	if frames <= refFrames {
		return 0, fmt.Errorf("reference audio spans %d mel frames, exceeding the model's duration window of %d", refFrames, maxDurationFrames)
	}
	return frames, nil
}

// applyGuidance combines conditional and unconditional predictions with
// classifier-free guidance, writing the guided velocity into pred.
func applyGuidance(pred, nullPred []float32, strength float32) {
	if strength == 0 || len(nullPred) != len(pred) {
		return
	}
	for i := range pred {
		pred[i] += (pred[i] - nullPred[i]) * strength
	}
}

// gaussianRNG is a deterministic xorshift Box-Muller source used to seed
// the flow-matching trajectory with reproducible noise.
type gaussianRNG struct {
	state uint64
}

func newGaussianRNG(seed uint64) *gaussianRNG {
	if seed == 0 {
		seed = 42
	}
	return &gaussianRNG{state: seed}
}

func (g *gaussianRNG) uniform() float64 {
	g.state ^= g.state << 13
	g.state ^= g.state >> 7
	g.state ^= g.state << 17
	return float64(g.state) / float64(^uint64(0))
}

func (g *gaussianRNG) Next() float64 {
	u1 := g.uniform()
	u2 := g.uniform()
	if u1 <= 0 {
		u1 = math.SmallestNonzeroFloat64
	}
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}
