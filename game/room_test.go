package game

import (
	"errors"
	"testing"

	"github.com/curetcore/dominodominicano/common/config"
	"github.com/curetcore/dominodominicano/core/infrastructure/message/transfer"
)

func newWaitingRoom(t *testing.T, mode, hostID string) *Room {
	t.Helper()
	room, err := NewRoom(mode, hostID)
	if err != nil {
		t.Fatalf("NewRoom(%s) failed: %v", mode, err)
	}
	return room
}

func TestNewRoomModeValidation(t *testing.T) {
	if _, err := NewRoom("dominican:pairs8", "u1"); !errors.Is(err, transfer.ErrSeatUnsupported) {
		t.Fatalf("unknown mode expected ErrSeatUnsupported, got %v", err)
	}

	pairs := newWaitingRoom(t, string(config.ModePairs4), "u1")
	if pairs.MaxPlayers() != 4 {
		t.Fatalf("pairs room seats expected 4, got %d", pairs.MaxPlayers())
	}

	duo := newWaitingRoom(t, string(config.ModeIndividual2), "u1")
	if duo.MaxPlayers() != 2 {
		t.Fatalf("2p room seats expected 2, got %d", duo.MaxPlayers())
	}
}

func TestRoomAddPlayer(t *testing.T) {
	room := newWaitingRoom(t, string(config.ModePairs4), "u1")

	seat, err := room.AddPlayer("u1", "connector-1")
	if err != nil || seat != 0 {
		t.Fatalf("first player expected seat 0, got %d / %v", seat, err)
	}
	if _, err := room.AddPlayer("u1", "connector-1"); !errors.Is(err, transfer.ErrAlreadyInRoom) {
		t.Fatalf("duplicate join expected ErrAlreadyInRoom, got %v", err)
	}

	for i, userID := range []string{"u2", "u3", "u4"} {
		seat, err := room.AddPlayer(userID, "connector-1")
		if err != nil || seat != i+1 {
			t.Fatalf("player %s expected seat %d, got %d / %v", userID, i+1, seat, err)
		}
	}
	if _, err := room.AddPlayer("u5", "connector-1"); !errors.Is(err, transfer.ErrRoomFull) {
		t.Fatalf("fifth player expected ErrRoomFull, got %v", err)
	}
	if !room.IsFull() {
		t.Fatalf("room should be full")
	}
}

func TestRoomSeatReuse(t *testing.T) {
	room := newWaitingRoom(t, string(config.ModePairs4), "u1")
	room.AddPlayer("u1", "connector-1")
	room.AddPlayer("u2", "connector-1")
	room.AddPlayer("u3", "connector-1")

	if err := room.RemovePlayer("u2"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := room.RemovePlayer("u2"); !errors.Is(err, transfer.ErrNotInRoom) {
		t.Fatalf("second remove expected ErrNotInRoom, got %v", err)
	}

	// 空出来的 1 号座先被补上
	seat, err := room.AddPlayer("u4", "connector-1")
	if err != nil || seat != 1 {
		t.Fatalf("rejoin expected seat 1, got %d / %v", seat, err)
	}
}

func TestRoomReadyAndCanStart(t *testing.T) {
	room := newWaitingRoom(t, string(config.ModeIndividual2), "u1")
	room.AddPlayer("u1", "connector-1")

	if room.CanStart() {
		t.Fatalf("half-empty room should not start")
	}
	room.AddPlayer("u2", "connector-2")
	if room.CanStart() {
		t.Fatalf("room should not start before everyone is ready")
	}

	if err := room.SetReady("ghost", true); !errors.Is(err, transfer.ErrNotInRoom) {
		t.Fatalf("ready for outsider expected ErrNotInRoom, got %v", err)
	}
	room.SetReady("u1", true)
	room.SetReady("u2", true)
	if !room.CanStart() {
		t.Fatalf("full and ready room should start")
	}

	room.SetReady("u2", false)
	if room.CanStart() {
		t.Fatalf("unready player should block the start")
	}
}

func TestRoomBotAutoReady(t *testing.T) {
	room := newWaitingRoom(t, string(config.ModeIndividual2), "u1")
	room.AddPlayer("u1", "connector-1")
	room.SetReady("u1", true)

	seat, err := room.AddBot("bot_1", "Juan", "hard")
	if err != nil || seat != 1 {
		t.Fatalf("bot expected seat 1, got %d / %v", seat, err)
	}
	if !room.CanStart() {
		t.Fatalf("bots are always ready, room should start")
	}
}

func TestRoomHostHandoff(t *testing.T) {
	room := newWaitingRoom(t, string(config.ModePairs4), "u1")
	room.AddPlayer("u1", "connector-1")
	room.AddBot("bot_1", "Juan", "medium")
	room.AddPlayer("u2", "connector-1")
	room.AddPlayer("u3", "connector-1")

	if err := room.RemovePlayer("u1"); err != nil {
		t.Fatalf("remove host failed: %v", err)
	}
	// 跳过机器人，移交给最早入座的真人
	if room.HostID != "u2" {
		t.Fatalf("host expected u2, got %s", room.HostID)
	}
}

func TestRoomMembersSortedBySeat(t *testing.T) {
	room := newWaitingRoom(t, string(config.ModePairs4), "u1")
	room.AddPlayer("u1", "connector-1")
	room.AddPlayer("u2", "connector-2")
	room.AddBot("bot_1", "Juan", "easy")
	room.AddPlayer("u3", "connector-1")
	room.RemovePlayer("u2")

	members := room.Members()
	if len(members) != 3 {
		t.Fatalf("member count expected 3, got %d", len(members))
	}
	for i := 0; i < len(members)-1; i++ {
		if members[i].SeatIndex > members[i+1].SeatIndex {
			t.Fatalf("members not sorted by seat: %+v", members)
		}
	}
	if !members[0].IsHost || members[0].UserID != "u1" {
		t.Fatalf("seat 0 should be the host, got %+v", members[0])
	}
}

func TestRoomConnectorTopicsSkipBots(t *testing.T) {
	room := newWaitingRoom(t, string(config.ModePairs4), "u1")
	room.AddPlayer("u1", "connector-1")
	room.AddPlayer("u2", "connector-1")
	room.AddPlayer("u3", "connector-2")
	room.AddBot("bot_1", "Juan", "medium")

	groups := room.ConnectorTopics()
	if len(groups) != 2 {
		t.Fatalf("connector groups expected 2, got %d", len(groups))
	}
	if len(groups["connector-1"]) != 2 || len(groups["connector-2"]) != 1 {
		t.Fatalf("unexpected grouping: %v", groups)
	}
}

func TestRoomRejectsJoinWhilePlaying(t *testing.T) {
	room := newWaitingRoom(t, string(config.ModeIndividual2), "u1")
	room.AddPlayer("u1", "connector-1")
	room.UpdateStatus(RoomStatusPlaying)

	if _, err := room.AddPlayer("u2", "connector-1"); !errors.Is(err, transfer.ErrGameInProgress) {
		t.Fatalf("join during game expected ErrGameInProgress, got %v", err)
	}
	if _, err := room.AddBot("bot_1", "Juan", "easy"); !errors.Is(err, transfer.ErrGameInProgress) {
		t.Fatalf("bot join during game expected ErrGameInProgress, got %v", err)
	}
}
