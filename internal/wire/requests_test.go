package wire

import "testing"

func TestRoomCreateRequestValidate(t *testing.T) {
	req := &RoomCreateRequest{PlayerName: "Alice"}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	req = &RoomCreateRequest{PlayerName: ""}
	if err := req.Validate(); err == nil {
		t.Fatalf("expected validation error for empty player name")
	}
}

func TestTimeControlValidate(t *testing.T) {
	tc := &TimeControl{InitialSeconds: 300, IncrementSeconds: 5}
	if err := tc.Validate(); err != nil {
		t.Fatalf("expected valid time control, got %v", err)
	}

	tc = &TimeControl{InitialSeconds: 10, IncrementSeconds: 5}
	if err := tc.Validate(); err == nil {
		t.Fatalf("expected validation error for too-short initial time")
	}
}

func TestGameMoveRequestValidate(t *testing.T) {
	req := &GameMoveRequest{RoomID: "ABC123", From: "e2", To: "e4"}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid move, got %v", err)
	}

	req = &GameMoveRequest{RoomID: "ABC123", From: "e2", To: "e9"}
	if err := req.Validate(); err == nil {
		t.Fatalf("expected validation error for out-of-range square")
	}

	req = &GameMoveRequest{RoomID: "ABC123", From: "e2", To: "e4", Promotion: "k"}
	if err := req.Validate(); err == nil {
		t.Fatalf("expected validation error for invalid promotion piece")
	}
}

func TestChatSendRequestValidate(t *testing.T) {
	req := &ChatSendRequest{RoomID: "ABC123", Message: "gg", ChatType: ChatTypePublic}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid chat request, got %v", err)
	}

	req = &ChatSendRequest{RoomID: "ABC123", Message: "gg", ChatType: "whisper"}
	if err := req.Validate(); err == nil {
		t.Fatalf("expected validation error for unknown chat type")
	}

	req = &ChatSendRequest{RoomID: "ABC123", Message: "", ChatType: ChatTypePublic}
	if err := req.Validate(); err == nil {
		t.Fatalf("expected validation error for empty message")
	}
}

func TestRoomKickRequestValidate(t *testing.T) {
	req := &RoomKickRequest{RoomID: "ABC123"}
	if err := req.Validate(); err == nil {
		t.Fatalf("expected validation error for missing targetId")
	}
}
