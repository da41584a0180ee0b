package pipeline

import "testing"

func TestQuestionsToAttempt(t *testing.T) {
	cases := []struct {
		name              string
		remainingTarget   int
		remainingSegments int
		want              int
	}{
		{"even split", 9, 3, 3},
		{"last segment takes the rest", 4, 1, 4},
		{"rounds up", 10, 3, 4},
		{"minimum one per segment", 1, 3, 1},
		{"two across three", 2, 3, 1},
		{"target met", 0, 2, 0},
		{"target exceeded", -3, 2, 0},
		{"single segment", 7, 1, 7},
	}
	for _, c := range cases {
		got := questionsToAttempt(c.remainingTarget, c.remainingSegments)
		if got != c.want {
			t.Errorf("%s: questionsToAttempt(%d, %d) = %d, want %d",
				c.name, c.remainingTarget, c.remainingSegments, got, c.want)
		}
	}
}

// The truncation step intentionally disagrees with the allocator about a zero
// target: the allocator generates nothing, while finalQuestions keeps the
// whole accumulation when target <= 0.
func TestFinalQuestions_Truncation(t *testing.T) {
	qs := makeQuestions("q", 7)

	state := &aggregationState{target: 5, questions: qs}
	got := state.finalQuestions()
	if len(got) != 5 {
		t.Fatalf("truncated: got %d questions, want 5", len(got))
	}
	for i := range got {
		if got[i].Text != qs[i].Text {
			t.Errorf("question[%d]: got %q, want %q (front of accumulation order)", i, got[i].Text, qs[i].Text)
		}
	}

	state = &aggregationState{target: 0, questions: qs}
	if got := state.finalQuestions(); len(got) != 7 {
		t.Errorf("target 0: got %d questions, want all 7", len(got))
	}

	state = &aggregationState{target: -1, questions: qs}
	if got := state.finalQuestions(); len(got) != 7 {
		t.Errorf("negative target: got %d questions, want all 7", len(got))
	}

	state = &aggregationState{target: 10, questions: qs}
	if got := state.finalQuestions(); len(got) != 7 {
		t.Errorf("under-delivery: got %d questions, want 7", len(got))
	}
}
