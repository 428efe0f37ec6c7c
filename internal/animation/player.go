package animation

// DefaultFrameRate is the sampling rate of exported clips, in frames per second.
const DefaultFrameRate = 24

// Player is a fixed-step frame counter. It knows nothing about clips:
// the resolver wraps the index per bone, and the owner calls Wrap or Reset
// when it needs the index kept inside a clip.
type Player struct {
	currentTime       float32
	currentFrameIndex int
	frameTime         float32
}

// NewPlayer returns a player stepping at DefaultFrameRate.
func NewPlayer() *Player {
	return NewPlayerWithFrameRate(DefaultFrameRate)
}

// NewPlayerWithFrameRate returns a player stepping at fps frames per second.
// Non-positive rates fall back to DefaultFrameRate.
func NewPlayerWithFrameRate(fps float32) *Player {
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	return &Player{frameTime: 1 / fps}
}

// Advance accumulates dt seconds. Once a full frame time has accumulated
// the frame index moves by one and the accumulator restarts at zero.
// At most one frame is stepped per call.
func (p *Player) Advance(dt float32) {
	p.currentTime += dt
	if p.currentTime >= p.frameTime {
		p.currentFrameIndex++
		p.currentTime = 0
	}
}

// Reset rewinds to frame 0.
func (p *Player) Reset() {
	p.currentFrameIndex = 0
	p.currentTime = 0
}

// Wrap restarts at frame 0 once the index reaches frameCount.
// It reports whether the index wrapped.
func (p *Player) Wrap(frameCount int) bool {
	if frameCount <= 0 || p.currentFrameIndex < frameCount {
		return false
	}
	p.currentFrameIndex = 0
	return true
}

// Clamp holds the index on the last frame once it reaches frameCount.
func (p *Player) Clamp(frameCount int) {
	if frameCount > 0 && p.currentFrameIndex >= frameCount {
		p.currentFrameIndex = frameCount - 1
	}
}

// FrameIndex returns the current frame index.
func (p *Player) FrameIndex() int { return p.currentFrameIndex }

// CurrentTime returns the time accumulated towards the next frame.
func (p *Player) CurrentTime() float32 { return p.currentTime }

// FrameTime returns the seconds per frame.
func (p *Player) FrameTime() float32 { return p.frameTime }

// SetFrameTime changes the seconds per frame. Non-positive values are ignored.
func (p *Player) SetFrameTime(seconds float32) {
	if seconds > 0 {
		p.frameTime = seconds
	}
}
