package iflytek

// FrameStatus marks the position of an audio frame in the upload.
type FrameStatus int

const (
	StatusFirstFrame    FrameStatus = 0
	StatusContinueFrame FrameStatus = 1
	StatusLastFrame     FrameStatus = 2
)

func (s FrameStatus) String() string {
	switch s {
	case StatusFirstFrame:
		return "first"
	case StatusContinueFrame:
		return "middle"
	case StatusLastFrame:
		return "last"
	default:
		return "unknown"
	}
}

// Frame is one chunk of the audio buffer, addressed by byte offsets.
type Frame struct {
	Index  int
	Start  int
	End    int
	Status FrameStatus
}

// SplitFrames slices total bytes into consecutive chunkSize frames. Frame 0
// is always first; the frame reaching total is last unless it is also frame 0.
func SplitFrames(total, chunkSize int) []Frame {
	if total <= 0 || chunkSize <= 0 {
		return nil
	}

	frames := make([]Frame, 0, (total+chunkSize-1)/chunkSize)
	for start, index := 0, 0; start < total; index++ {
		end := min(start+chunkSize, total)

		status := StatusContinueFrame
		switch {
		case index == 0:
			status = StatusFirstFrame
		case end >= total:
			status = StatusLastFrame
		}

		frames = append(frames, Frame{Index: index, Start: start, End: end, Status: status})
		start = end
	}
	return frames
}
