package handlers

import (
	"errors"
	"testing"
)

func TestMsgCapitalizesFirstRune(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{errors.New("thread is locked"), "Thread is locked"},
		{errors.New("comment not found"), "Comment not found"},
		{errors.New("Already capitalized"), "Already capitalized"},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := msg(tc.err); got != tc.want {
			t.Errorf("msg(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
