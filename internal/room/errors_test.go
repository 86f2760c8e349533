package room

import "testing"

func TestWireMessageMapsSentinelsToExactWireText(t *testing.T) {
	cases := map[error]string{
		ErrRoomNotFound:  "Room not found",
		ErrRoomFull:      "Room is full",
		ErrNicknameTaken: "Nickname already taken",
	}
	for err, want := range cases {
		if got := WireMessage(err); got != want {
			t.Errorf("WireMessage(%v) = %q, want %q", err, got, want)
		}
	}
}
