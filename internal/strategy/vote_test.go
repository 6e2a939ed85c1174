package strategy

import (
	"math"
	"testing"
)

func TestNormalizeAnswer(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"The answer is 42.", "42"},
		{"THE ANSWER IS Paris", "paris"},
		{"Therefore 36", "36"},
		{"So x equals 5", "x equals 5"},
		{"Thus: 7", ": 7"},
		{"  42  ", "42"},
		{"42!?.", "42"},
		{"", ""},
		{"42", "42"},
	}
	for _, tc := range cases {
		if got := NormalizeAnswer(tc.in); got != tc.want {
			t.Errorf("NormalizeAnswer(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeAnswerIdempotent(t *testing.T) {
	inputs := []string{"The answer is 42.", "Paris", "x = 5", "therefore 100!", ""}
	for _, in := range inputs {
		once := NormalizeAnswer(in)
		twice := NormalizeAnswer(once)
		if once != twice {
			t.Errorf("normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestMajorityVote(t *testing.T) {
	candidates := []Candidate{
		{Normalized: "36", Original: "The answer is 36."},
		{Normalized: "36", Original: "36"},
		{Normalized: "72", Original: "72"},
	}
	answer, confidence := MajorityVote(candidates)

	if answer != "The answer is 36." {
		t.Errorf("got answer %q, want first original phrasing of winning group", answer)
	}
	if want := 2.0 / 3.0; math.Abs(confidence-want) > 1e-9 {
		t.Errorf("got confidence %v, want %v", confidence, want)
	}
}

func TestMajorityVoteTieBreaksOnFirstSeen(t *testing.T) {
	candidates := []Candidate{
		{Normalized: "a", Original: "A"},
		{Normalized: "b", Original: "B"},
		{Normalized: "b", Original: "B again"},
		{Normalized: "a", Original: "A again"},
	}
	answer, confidence := MajorityVote(candidates)

	if answer != "A" {
		t.Errorf("got answer %q, want A (first group seen wins ties)", answer)
	}
	if confidence != 0.5 {
		t.Errorf("got confidence %v, want 0.5", confidence)
	}
}

func TestMajorityVoteEmpty(t *testing.T) {
	answer, confidence := MajorityVote(nil)
	if answer != "" || confidence != 0.0 {
		t.Errorf("got (%q, %v), want empty answer and zero confidence", answer, confidence)
	}
}

func TestMajorityVoteSingle(t *testing.T) {
	answer, confidence := MajorityVote([]Candidate{{Normalized: "7", Original: "7"}})
	if answer != "7" || confidence != 1.0 {
		t.Errorf("got (%q, %v), want (7, 1.0)", answer, confidence)
	}
}
