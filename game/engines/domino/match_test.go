package domino

import (
	"errors"
	"math/rand"
	"testing"
)

func newTestMatch(t *testing.T, mode Mode, teamMode TeamMode, numPlayers int, seed int64) *Match {
	t.Helper()
	m, err := NewMatch(mode, teamMode, numPlayers, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("NewMatch(%s, %s, %d) failed: %v", mode, teamMode, numPlayers, err)
	}
	return m
}

// craftRound 直接摆出一个进行中的回合，绕过发牌
func craftRound(m *Match, hands [][]Tile, opener int) {
	m.hands = make([][]Tile, len(hands))
	for i, h := range hands {
		m.hands[i] = append([]Tile(nil), h...)
	}
	m.table.Reset()
	m.started = true
	m.roundOver = false
	m.blocked = false
	m.passCount = 0
	m.consecutivePasses = 0
	m.lastPlayerSeat = -1
	m.specialScores = m.specialScores[:0]
	m.currentSeat = opener
	m.openingSeat = opener
}

func TestNewMatchValidation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	if _, err := NewMatch(ModeDominican, TeamPairs, 3, rng); !errors.Is(err, ErrInvalidPlayerCount) {
		t.Fatalf("pairs with 3 players expected ErrInvalidPlayerCount, got %v", err)
	}
	if _, err := NewMatch(ModeDominican, TeamIndividual, 5, rng); !errors.Is(err, ErrInvalidPlayerCount) {
		t.Fatalf("individual with 5 players expected ErrInvalidPlayerCount, got %v", err)
	}
	if _, err := NewMatch(ModeDominican, TeamIndividual, 1, rng); !errors.Is(err, ErrInvalidPlayerCount) {
		t.Fatalf("individual with 1 player expected ErrInvalidPlayerCount, got %v", err)
	}

	dominican := newTestMatch(t, ModeDominican, TeamPairs, 4, 1)
	if dominican.TargetScore != 150 {
		t.Fatalf("dominican target expected 150, got %d", dominican.TargetScore)
	}
	if len(dominican.Scores()) != 2 {
		t.Fatalf("pairs score slots expected 2, got %d", len(dominican.Scores()))
	}

	classic := newTestMatch(t, ModeClassic, TeamIndividual, 2, 1)
	if classic.TargetScore != 100 {
		t.Fatalf("classic target expected 100, got %d", classic.TargetScore)
	}
	if len(classic.Scores()) != 2 {
		t.Fatalf("individual 2p score slots expected 2, got %d", len(classic.Scores()))
	}
}

func TestTeamOf(t *testing.T) {
	pairs := newTestMatch(t, ModeDominican, TeamPairs, 4, 1)
	if pairs.TeamOf(0) != 0 || pairs.TeamOf(2) != 0 || pairs.TeamOf(1) != 1 || pairs.TeamOf(3) != 1 {
		t.Fatalf("pairs teams expected 0/2 vs 1/3")
	}

	solo := newTestMatch(t, ModeDominican, TeamIndividual, 4, 1)
	for seat := 0; seat < 4; seat++ {
		if solo.TeamOf(seat) != seat {
			t.Fatalf("individual TeamOf(%d) expected %d, got %d", seat, seat, solo.TeamOf(seat))
		}
	}
}

func TestStartRoundDealAndOpener(t *testing.T) {
	m := newTestMatch(t, ModeDominican, TeamPairs, 4, 99)
	opener := m.StartRound()

	counts := m.HandCounts()
	for seat, c := range counts {
		if c != 7 {
			t.Fatalf("seat %d hand count expected 7, got %d", seat, c)
		}
	}
	if opener != m.CurrentSeat() {
		t.Fatalf("opener %d != current seat %d", opener, m.CurrentSeat())
	}

	// 4 人局整副牌发完，6|6 必然在场且持有者先出
	burro := Tile{Top: 6, Bottom: 6}
	found := false
	for _, tile := range m.Hand(opener) {
		if tile == burro {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("first-round opener should hold 6|6")
	}
}

func TestTurnAndIndexValidation(t *testing.T) {
	m := newTestMatch(t, ModeDominican, TeamPairs, 4, 5)

	if _, err := m.PlayTile(0, 0, SideAny); !errors.Is(err, ErrRoundNotStarted) {
		t.Fatalf("play before start expected ErrRoundNotStarted, got %v", err)
	}

	craftRound(m, [][]Tile{
		{{Top: 1, Bottom: 2}},
		{{Top: 2, Bottom: 3}},
		{{Top: 3, Bottom: 4}},
		{{Top: 4, Bottom: 5}},
	}, 0)

	if _, err := m.PlayTile(1, 0, SideAny); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("out-of-turn play expected ErrNotYourTurn, got %v", err)
	}
	if _, err := m.Pass(2); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("out-of-turn pass expected ErrNotYourTurn, got %v", err)
	}
	if _, err := m.PlayTile(0, 5, SideAny); !errors.Is(err, ErrInvalidTileIndex) {
		t.Fatalf("bad index expected ErrInvalidTileIndex, got %v", err)
	}
}

func TestValidMovesAndTurnAdvance(t *testing.T) {
	m := newTestMatch(t, ModeDominican, TeamPairs, 4, 5)
	craftRound(m, [][]Tile{
		{{Top: 1, Bottom: 2}, {Top: 5, Bottom: 6}},
		{{Top: 2, Bottom: 3}, {Top: 0, Bottom: 0}},
		{{Top: 3, Bottom: 4}, {Top: 1, Bottom: 1}},
		{{Top: 4, Bottom: 5}, {Top: 6, Bottom: 6}},
	}, 0)

	// 空桌任意一张都可出
	if got := len(m.ValidMoves(0)); got != 2 {
		t.Fatalf("empty-table valid moves expected 2, got %d", got)
	}

	result, err := m.PlayTile(0, 0, SideAny)
	if err != nil {
		t.Fatalf("opening play failed: %v", err)
	}
	if result.NextSeat != 1 || m.CurrentSeat() != 1 {
		t.Fatalf("turn should advance to seat 1, got %d", m.CurrentSeat())
	}

	// 桌面 1|2：2|3 能接，0|0 不能
	moves := m.ValidMoves(1)
	if len(moves) != 1 || moves[0].Tile.String() != "2|3" {
		t.Fatalf("seat 1 valid moves expected only 2|3, got %v", moves)
	}
}

func TestCapicuaAwarded(t *testing.T) {
	m := newTestMatch(t, ModeDominican, TeamPairs, 4, 5)
	craftRound(m, [][]Tile{
		{{Top: 1, Bottom: 2}},
		{{Top: 3, Bottom: 4}},
		{{Top: 5, Bottom: 6}},
		{{Top: 0, Bottom: 0}},
	}, 0)
	mustPlace(t, m.table, Tile{Top: 1, Bottom: 6}, SideAny)
	mustPlace(t, m.table, Tile{Top: 2, Bottom: 6}, SideRight)
	// 桌面两端 (1,2)，1|2 两端都能接

	result, err := m.PlayTile(0, 0, SideAny)
	if err != nil {
		t.Fatalf("capicua play failed: %v", err)
	}
	if result.Special == nil || result.Special.Type != ScoreCapicua {
		t.Fatalf("expected capicua special, got %+v", result.Special)
	}
	if !result.RoundOver || result.Round == nil || result.Round.EndType != "domino" {
		t.Fatalf("capicua on last tile should end the round")
	}
	// 30 卡皮库阿 + 对手剩牌 7+11+0
	if got := m.Scores()[0]; got != 48 {
		t.Fatalf("team 0 score expected 48, got %d", got)
	}
	if result.Round.WinnerSeat != 0 || result.Round.WinnerTeam != 0 {
		t.Fatalf("winner expected seat 0 / team 0, got %+v", result.Round)
	}
}

func TestCapicuaRejectsDoublesAndBlanks(t *testing.T) {
	m := newTestMatch(t, ModeDominican, TeamPairs, 4, 5)

	// 对牌收尾不算卡皮库阿
	craftRound(m, [][]Tile{
		{{Top: 3, Bottom: 3}},
		{{Top: 1, Bottom: 2}},
		{{Top: 4, Bottom: 5}},
		{{Top: 0, Bottom: 6}},
	}, 0)
	mustPlace(t, m.table, Tile{Top: 3, Bottom: 5}, SideAny)
	mustPlace(t, m.table, Tile{Top: 1, Bottom: 5}, SideRight)
	mustPlace(t, m.table, Tile{Top: 1, Bottom: 3}, SideRight)
	// 两端 (3,3)，3|3 两端都能接，但对牌不算卡皮库阿
	result, err := m.PlayTile(0, 0, SideAny)
	if err != nil {
		t.Fatalf("double finish failed: %v", err)
	}
	if result.Special != nil {
		t.Fatalf("double should not score capicua, got %+v", result.Special)
	}

	// 白头收尾也不算
	m2 := newTestMatch(t, ModeDominican, TeamPairs, 4, 5)
	craftRound(m2, [][]Tile{
		{{Top: 0, Bottom: 3}},
		{{Top: 1, Bottom: 2}},
		{{Top: 4, Bottom: 5}},
		{{Top: 5, Bottom: 6}},
	}, 0)
	mustPlace(t, m2.table, Tile{Top: 0, Bottom: 5}, SideAny)
	mustPlace(t, m2.table, Tile{Top: 3, Bottom: 5}, SideRight)
	// 两端 (0,3)，0|3 两端都能接，但带白头不算
	result, err = m2.PlayTile(0, 0, SideAny)
	if err != nil {
		t.Fatalf("blank finish failed: %v", err)
	}
	if result.Special != nil {
		t.Fatalf("blank tile should not score capicua, got %+v", result.Special)
	}
}

func TestPaseSalida(t *testing.T) {
	m := newTestMatch(t, ModeDominican, TeamPairs, 4, 5)
	craftRound(m, [][]Tile{
		{{Top: 6, Bottom: 6}, {Top: 1, Bottom: 2}},
		{{Top: 0, Bottom: 1}, {Top: 2, Bottom: 3}}, // 没有 6
		{{Top: 4, Bottom: 6}, {Top: 3, Bottom: 3}},
		{{Top: 5, Bottom: 6}, {Top: 0, Bottom: 0}},
	}, 0)

	if _, err := m.PlayTile(0, 0, SideAny); err != nil {
		t.Fatalf("opening play failed: %v", err)
	}

	result, err := m.Pass(1)
	if err != nil {
		t.Fatalf("forced pass failed: %v", err)
	}
	if len(result.Specials) != 1 || result.Specials[0].Type != ScorePaseSalida {
		t.Fatalf("expected pase de salida, got %+v", result.Specials)
	}
	if result.Specials[0].Team != 0 || result.Specials[0].Seat != 0 {
		t.Fatalf("pase de salida should credit the opener's team, got %+v", result.Specials[0])
	}
	if m.Scores()[0] != SpecialPoints {
		t.Fatalf("team 0 score expected %d, got %d", SpecialPoints, m.Scores()[0])
	}
	if result.NextSeat != 2 {
		t.Fatalf("turn should advance to seat 2, got %d", result.NextSeat)
	}
}

func TestPaseSalidaOnlyInPairs(t *testing.T) {
	m := newTestMatch(t, ModeDominican, TeamIndividual, 4, 5)
	craftRound(m, [][]Tile{
		{{Top: 6, Bottom: 6}, {Top: 1, Bottom: 2}},
		{{Top: 0, Bottom: 1}, {Top: 2, Bottom: 3}},
		{{Top: 4, Bottom: 6}, {Top: 3, Bottom: 3}},
		{{Top: 5, Bottom: 6}, {Top: 0, Bottom: 0}},
	}, 0)

	if _, err := m.PlayTile(0, 0, SideAny); err != nil {
		t.Fatalf("opening play failed: %v", err)
	}
	result, err := m.Pass(1)
	if err != nil {
		t.Fatalf("forced pass failed: %v", err)
	}
	if len(result.Specials) != 0 {
		t.Fatalf("individual mode should not award pase de salida, got %+v", result.Specials)
	}
}

func TestPaseCorrido(t *testing.T) {
	m := newTestMatch(t, ModeDominican, TeamPairs, 4, 5)
	craftRound(m, [][]Tile{
		{{Top: 0, Bottom: 1}},          // 接不上
		{{Top: 5, Bottom: 6}},          // 上一个出牌的人
		{{Top: 0, Bottom: 2}},          // 已过
		{{Top: 1, Bottom: 2}},          // 已过
	}, 0)
	mustPlace(t, m.table, Tile{Top: 3, Bottom: 4}, SideAny)
	// 桌面两端 (3,4)，四家手牌都接不上
	m.lastPlayerSeat = 1
	m.consecutivePasses = 2
	m.passCount = 2
	m.currentSeat = 0

	result, err := m.Pass(0)
	if err != nil {
		t.Fatalf("third consecutive pass failed: %v", err)
	}
	if len(result.Specials) != 1 || result.Specials[0].Type != ScorePaseCorrido {
		t.Fatalf("expected pase corrido, got %+v", result.Specials)
	}
	if result.Specials[0].Team != 1 || result.Specials[0].Seat != 1 {
		t.Fatalf("pase corrido should credit the last player, got %+v", result.Specials[0])
	}
	if result.NextSeat != 1 || m.CurrentSeat() != 1 {
		t.Fatalf("turn should return to the last player, got %d", m.CurrentSeat())
	}
	if m.Scores()[1] != SpecialPoints {
		t.Fatalf("team 1 score expected %d, got %d", SpecialPoints, m.Scores()[1])
	}
}

func TestIllegalPassPenalty(t *testing.T) {
	m := newTestMatch(t, ModeDominican, TeamPairs, 4, 5)
	craftRound(m, [][]Tile{
		{{Top: 3, Bottom: 5}}, // 能接
		{{Top: 1, Bottom: 2}},
		{{Top: 4, Bottom: 5}},
		{{Top: 5, Bottom: 6}},
	}, 0)
	mustPlace(t, m.table, Tile{Top: 3, Bottom: 4}, SideAny)

	_, err := m.Pass(0)
	if !errors.Is(err, ErrPassWithLegalMove) {
		t.Fatalf("expected ErrPassWithLegalMove, got %v", err)
	}
	if m.Scores()[1] != SpecialPoints {
		t.Fatalf("opposing team should gain %d penalty points, got %d", SpecialPoints, m.Scores()[1])
	}
	if m.CurrentSeat() != 0 {
		t.Fatalf("turn should stay at the offender, got %d", m.CurrentSeat())
	}

	specials := m.SpecialScores()
	if len(specials) != 1 || specials[0].Type != ScorePenaltyPass || specials[0].Seat != 0 {
		t.Fatalf("expected penalty record for seat 0, got %+v", specials)
	}
}

func TestIllegalPassIndividualNoPoints(t *testing.T) {
	m := newTestMatch(t, ModeDominican, TeamIndividual, 4, 5)
	craftRound(m, [][]Tile{
		{{Top: 3, Bottom: 5}},
		{{Top: 1, Bottom: 2}},
		{{Top: 4, Bottom: 5}},
		{{Top: 5, Bottom: 6}},
	}, 0)
	mustPlace(t, m.table, Tile{Top: 3, Bottom: 4}, SideAny)

	if _, err := m.Pass(0); !errors.Is(err, ErrPassWithLegalMove) {
		t.Fatalf("expected ErrPassWithLegalMove, got %v", err)
	}
	for slot, score := range m.Scores() {
		if score != 0 {
			t.Fatalf("individual mode illegal pass should not score, slot %d got %d", slot, score)
		}
	}
}

func TestTranquePairs(t *testing.T) {
	m := newTestMatch(t, ModeDominican, TeamPairs, 4, 5)
	craftRound(m, [][]Tile{
		{{Top: 1, Bottom: 1}}, // 2 分
		{{Top: 3, Bottom: 3}}, // 6 分
		{{Top: 2, Bottom: 2}}, // 4 分
		{{Top: 4, Bottom: 4}}, // 8 分
	}, 0)
	mustPlace(t, m.table, Tile{Top: 6, Bottom: 6}, SideAny)
	mustPlace(t, m.table, Tile{Top: 0, Bottom: 6}, SideRight)
	// 两端 (6,0)，没人能接

	var result *PassResult
	var err error
	for seat := 0; seat < 4; seat++ {
		result, err = m.Pass(seat)
		if err != nil {
			t.Fatalf("pass seat %d failed: %v", seat, err)
		}
	}
	if !result.Blocked || result.Round == nil {
		t.Fatalf("four passes should block the round")
	}
	if !m.IsBlocked() || !m.IsRoundOver() {
		t.Fatalf("match should report blocked round")
	}

	round := result.Round
	if round.EndType != "tranque" {
		t.Fatalf("end type expected tranque, got %s", round.EndType)
	}
	// 队伍 0 剩 6 分，队伍 1 剩 14 分，低分队通吃 20
	if round.WinnerTeam != 0 || round.WinnerSeat != -1 {
		t.Fatalf("team 0 should win the tranque, got %+v", round)
	}
	if round.Points != 20 || m.Scores()[0] != 20 {
		t.Fatalf("tranque points expected 20, got %d / %d", round.Points, m.Scores()[0])
	}

	specials := m.SpecialScores()
	if len(specials) != 1 || specials[0].Type != ScoreTranque {
		t.Fatalf("expected tranque record, got %+v", specials)
	}
}

func TestTranquePairsTieGoesToOpener(t *testing.T) {
	m := newTestMatch(t, ModeDominican, TeamPairs, 4, 5)
	craftRound(m, [][]Tile{
		{{Top: 1, Bottom: 2}}, // 队伍 0: 3+5 = 8
		{{Top: 1, Bottom: 3}}, // 队伍 1: 4+4 = 8
		{{Top: 2, Bottom: 3}},
		{{Top: 2, Bottom: 2}},
	}, 1)
	mustPlace(t, m.table, Tile{Top: 6, Bottom: 6}, SideAny)
	mustPlace(t, m.table, Tile{Top: 0, Bottom: 6}, SideRight)

	for i := 0; i < 4; i++ {
		seat := (1 + i) % 4
		if _, err := m.Pass(seat); err != nil {
			t.Fatalf("pass seat %d failed: %v", seat, err)
		}
	}
	// 平分时首家（座位 1，队伍 1）赢
	if m.Scores()[1] != 16 || m.Scores()[0] != 0 {
		t.Fatalf("tie should go to opener's team, scores %v", m.Scores())
	}
}

func TestTranqueIndividual(t *testing.T) {
	m := newTestMatch(t, ModeDominican, TeamIndividual, 4, 5)
	craftRound(m, [][]Tile{
		{{Top: 4, Bottom: 5}}, // 9
		{{Top: 2, Bottom: 2}}, // 4
		{{Top: 1, Bottom: 3}}, // 4，和座位 1 平分
		{{Top: 3, Bottom: 4}}, // 7
	}, 2)
	mustPlace(t, m.table, Tile{Top: 6, Bottom: 6}, SideAny)
	mustPlace(t, m.table, Tile{Top: 0, Bottom: 6}, SideRight)

	for i := 0; i < 4; i++ {
		seat := (2 + i) % 4
		if _, err := m.Pass(seat); err != nil {
			t.Fatalf("pass seat %d failed: %v", seat, err)
		}
	}
	// 座位 1 和 2 都剩 4 分，离首家（2）更近的座位 2 赢，通吃 24
	scores := m.Scores()
	if scores[2] != 24 {
		t.Fatalf("seat 2 should win the individual tranque, scores %v", scores)
	}
	if scores[1] != 0 {
		t.Fatalf("seat 1 should not score, scores %v", scores)
	}
}

func TestTargetScoreEndsMatch(t *testing.T) {
	m := newTestMatch(t, ModeDominican, TeamPairs, 4, 5)
	m.scores[0] = 140
	craftRound(m, [][]Tile{
		{{Top: 3, Bottom: 4}},
		{{Top: 1, Bottom: 2}}, // 3 分
		{{Top: 4, Bottom: 5}}, // 9 分
		{{Top: 0, Bottom: 6}}, // 6 分
	}, 0)
	mustPlace(t, m.table, Tile{Top: 2, Bottom: 3}, SideAny)

	result, err := m.PlayTile(0, 0, SideAny)
	if err != nil {
		t.Fatalf("winning play failed: %v", err)
	}
	if result.Round == nil || !result.Round.MatchOver {
		t.Fatalf("crossing the target should end the match")
	}
	if result.Round.MatchWinner != 0 {
		t.Fatalf("match winner expected team 0, got %d", result.Round.MatchWinner)
	}
	if !m.IsMatchOver() {
		t.Fatalf("match should be over")
	}
	if _, err := m.PlayTile(0, 0, SideAny); !errors.Is(err, ErrRoundOver) {
		t.Fatalf("play after match over expected ErrRoundOver, got %v", err)
	}
}

func TestResetRoundAndNextOpener(t *testing.T) {
	m := newTestMatch(t, ModeDominican, TeamPairs, 4, 7)
	craftRound(m, [][]Tile{
		{{Top: 1, Bottom: 2}, {Top: 5, Bottom: 5}},
		{{Top: 2, Bottom: 3}},
		{{Top: 3, Bottom: 4}, {Top: 2, Bottom: 4}},
		{{Top: 4, Bottom: 5}},
	}, 0)
	mustPlace(t, m.table, Tile{Top: 1, Bottom: 1}, SideAny)

	if _, err := m.PlayTile(0, 0, SideAny); err != nil {
		t.Fatalf("seat 0 play failed: %v", err)
	}
	// 座位 1 打出 2|3 后出完，赢下回合
	if _, err := m.PlayTile(1, 0, SideAny); err != nil {
		t.Fatalf("seat 1 winning play failed: %v", err)
	}
	if !m.IsRoundOver() {
		t.Fatalf("round should be over")
	}

	before := m.Scores()
	m.ResetRound()
	if m.RoundNumber() != 2 {
		t.Fatalf("round number expected 2, got %d", m.RoundNumber())
	}
	after := m.Scores()
	if before[0] != after[0] || before[1] != after[1] {
		t.Fatalf("reset should keep scores, %v -> %v", before, after)
	}

	opener := m.StartRound()
	if opener != 1 {
		t.Fatalf("previous winner should open the next round, got %d", opener)
	}
}

func TestBlockedRoundOpenerFallsBack(t *testing.T) {
	m := newTestMatch(t, ModeDominican, TeamPairs, 4, 7)
	craftRound(m, [][]Tile{
		{{Top: 1, Bottom: 1}},
		{{Top: 2, Bottom: 2}},
		{{Top: 3, Bottom: 3}},
		{{Top: 4, Bottom: 4}},
	}, 2)
	mustPlace(t, m.table, Tile{Top: 6, Bottom: 6}, SideAny)
	mustPlace(t, m.table, Tile{Top: 0, Bottom: 6}, SideRight)

	for i := 0; i < 4; i++ {
		if _, err := m.Pass((2 + i) % 4); err != nil {
			t.Fatalf("pass failed: %v", err)
		}
	}

	m.ResetRound()
	opener := m.StartRound()
	if opener != 0 {
		t.Fatalf("after a tranque the next round should open at seat 0, got %d", opener)
	}
}
