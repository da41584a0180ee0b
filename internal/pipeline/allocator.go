package pipeline

// questionsToAttempt computes how many questions the next segment should try
// to contribute, spreading the remaining target evenly across the remaining
// segments: ceil(remainingTarget / remainingSegments).
//
// Returns 0 when the target has already been met (or was never positive); the
// caller never invokes this with remainingSegments < 1.
func questionsToAttempt(remainingTarget, remainingSegments int) int {
	if remainingTarget <= 0 {
		return 0
	}
	return (remainingTarget + remainingSegments - 1) / remainingSegments
}
