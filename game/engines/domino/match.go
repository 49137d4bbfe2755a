package domino

import (
	"math/rand"
)

type Mode string

const (
	ModeDominican Mode = "dominican" // 目标 150 分
	ModeClassic   Mode = "classic"   // 目标 100 分
)

type TeamMode string

const (
	TeamPairs      TeamMode = "pairs"      // 2v2，对家一队
	TeamIndividual TeamMode = "individual" // 各自为战
)

// 特殊得分，多米尼加规则全部 30 分
const (
	SpecialPoints = 30

	ScorePaseSalida  = "PASE_SALIDA"  // 首家出牌后下家立刻被迫过牌
	ScorePaseCorrido = "PASE_CORRIDO" // 一手牌让其余三家全部过牌
	ScoreCapicua     = "CAPICUA"      // 最后一张两端都能接
	ScoreTranque     = "TRANQUE"      // 锁局，赢家通吃桌面剩分
	ScorePenaltyPass = "PENALTY_PASS" // 有牌可出却过牌的罚分
)

const tilesPerHand = 7

// SpecialScore 特殊得分记录
type SpecialScore struct {
	Type   string `json:"type"`
	Team   int    `json:"team"`
	Seat   int    `json:"seat"` // -1 表示无具体玩家
	Points int    `json:"points"`
}

// Move 一步合法出牌
type Move struct {
	TileIndex int  `json:"tileIndex"`
	Tile      Tile `json:"tile"`
	Side      Side `json:"side"`
}

// PlayResult 出牌结果
type PlayResult struct {
	Tile      Tile          `json:"tile"`
	Side      Side          `json:"side"` // 实际放置方向
	NextSeat  int           `json:"nextSeat"`
	Special   *SpecialScore `json:"special,omitempty"` // 卡皮库阿
	RoundOver bool          `json:"roundOver"`
	Round     *RoundResult  `json:"round,omitempty"`
}

// PassResult 过牌结果
type PassResult struct {
	NextSeat int            `json:"nextSeat"`
	Specials []SpecialScore `json:"specials,omitempty"` // pase de salida / pase corrido
	Blocked  bool           `json:"blocked"`
	Round    *RoundResult   `json:"round,omitempty"`
}

// RoundResult 回合结算
type RoundResult struct {
	EndType     string `json:"endType"` // "domino" / "tranque"
	WinnerSeat  int    `json:"winnerSeat"`
	WinnerTeam  int    `json:"winnerTeam"`
	Points      int    `json:"points"` // 本回合入账的剩牌分
	HandPips    []int  `json:"handPips"`
	Scores      []int  `json:"scores"` // 结算后的累计分
	MatchOver   bool   `json:"matchOver"`
	MatchWinner int    `json:"matchWinner"` // 队伍或座位，未结束为 -1
}

// Match 一张牌桌上的整局状态，纯规则核心，不感知时钟和网络
// 所有操作以座位号（0 起）为准，非法操作返回有类型的错误
type Match struct {
	Mode        Mode
	TeamMode    TeamMode
	NumPlayers  int
	TargetScore int

	hands   [][]Tile
	table   *Table
	scores  []int // pairs 模式长度 2，individual 模式长度 NumPlayers

	currentSeat       int
	openingSeat       int // 本回合首家
	roundNumber       int
	roundWinnerSeat   int // -1 表示上回合锁局或未结束
	passCount         int
	consecutivePasses int
	lastPlayerSeat    int // -1 表示本回合还没人出过牌
	blocked           bool
	started           bool
	roundOver         bool
	matchOver         bool

	specialScores []SpecialScore
	rng           *rand.Rand
}

// NewMatch 创建整局
// pairs 模式固定 4 人（0/2 一队，1/3 一队），individual 模式 2-4 人
func NewMatch(mode Mode, teamMode TeamMode, numPlayers int, rng *rand.Rand) (*Match, error) {
	switch teamMode {
	case TeamPairs:
		if numPlayers != 4 {
			return nil, ErrInvalidPlayerCount
		}
	case TeamIndividual:
		if numPlayers < 2 || numPlayers > 4 {
			return nil, ErrInvalidPlayerCount
		}
	default:
		return nil, ErrInvalidPlayerCount
	}

	target := 100
	if mode == ModeDominican {
		target = 150
	}

	scoreSlots := numPlayers
	if teamMode == TeamPairs {
		scoreSlots = 2
	}

	return &Match{
		Mode:            mode,
		TeamMode:        teamMode,
		NumPlayers:      numPlayers,
		TargetScore:     target,
		table:           NewTable(),
		scores:          make([]int, scoreSlots),
		roundNumber:     1,
		roundWinnerSeat: -1,
		lastPlayerSeat:  -1,
		rng:             rng,
	}, nil
}

// TeamOf 座位所属的计分槽位
func (m *Match) TeamOf(seat int) int {
	if m.TeamMode == TeamPairs {
		return seat % 2
	}
	return seat
}

// StartRound 发牌并确定首家，返回首家座位
func (m *Match) StartRound() int {
	deck := ShuffledDeck(m.rng)

	m.hands = make([][]Tile, m.NumPlayers)
	for i := 0; i < m.NumPlayers; i++ {
		hand := make([]Tile, tilesPerHand)
		copy(hand, deck[i*tilesPerHand:(i+1)*tilesPerHand])
		m.hands[i] = hand
	}

	m.table.Reset()
	m.blocked = false
	m.roundOver = false
	m.passCount = 0
	m.consecutivePasses = 0
	m.lastPlayerSeat = -1
	m.specialScores = m.specialScores[:0]

	m.currentSeat = m.findStartingSeat()
	m.openingSeat = m.currentSeat
	m.started = true
	return m.currentSeat
}

// findStartingSeat 首回合 6|6 持有者先出，没有则找最大的对牌
// 之后的回合由上回合赢家先出，锁局回合后回到 0 号位
func (m *Match) findStartingSeat() int {
	if m.roundNumber == 1 {
		for v := 6; v >= 0; v-- {
			want := Tile{Top: v, Bottom: v}
			for seat := 0; seat < m.NumPlayers; seat++ {
				for _, t := range m.hands[seat] {
					if t == want {
						return seat
					}
				}
			}
		}
		return 0
	}
	if m.roundWinnerSeat >= 0 {
		return m.roundWinnerSeat
	}
	return 0
}

// CurrentSeat 当前轮到的座位
func (m *Match) CurrentSeat() int {
	return m.currentSeat
}

// RoundNumber 当前回合数（从 1 开始）
func (m *Match) RoundNumber() int {
	return m.roundNumber
}

// Scores 累计分副本
func (m *Match) Scores() []int {
	out := make([]int, len(m.scores))
	copy(out, m.scores)
	return out
}

// Hand 座位手牌副本
func (m *Match) Hand(seat int) []Tile {
	if seat < 0 || seat >= m.NumPlayers || m.hands == nil {
		return nil
	}
	out := make([]Tile, len(m.hands[seat]))
	copy(out, m.hands[seat])
	return out
}

// HandCounts 各座位剩牌数
func (m *Match) HandCounts() []int {
	counts := make([]int, m.NumPlayers)
	for i := range m.hands {
		counts[i] = len(m.hands[i])
	}
	return counts
}

// TableTiles 桌面牌链副本
func (m *Match) TableTiles() []PlacedTile {
	return m.table.Snapshot()
}

// Ends 桌面两端点数
func (m *Match) Ends() (int, int) {
	return m.table.Ends()
}

// IsRoundOver 当前回合是否已结束
func (m *Match) IsRoundOver() bool {
	return m.roundOver
}

// IsMatchOver 整局是否已结束
func (m *Match) IsMatchOver() bool {
	return m.matchOver
}

// IsBlocked 本回合是否锁局
func (m *Match) IsBlocked() bool {
	return m.blocked
}

// SpecialScores 本回合的特殊得分记录副本
func (m *Match) SpecialScores() []SpecialScore {
	out := make([]SpecialScore, len(m.specialScores))
	copy(out, m.specialScores)
	return out
}

// ValidMoves 座位的所有合法出牌
// 空桌时任意一张都可出
func (m *Match) ValidMoves(seat int) []Move {
	if seat < 0 || seat >= m.NumPlayers || m.hands == nil {
		return nil
	}
	moves := make([]Move, 0, len(m.hands[seat])*2)
	left, right := m.table.Ends()
	for i, t := range m.hands[seat] {
		if m.table.Len() == 0 {
			moves = append(moves, Move{TileIndex: i, Tile: t, Side: SideAny})
			continue
		}
		if t.HasValue(left) {
			moves = append(moves, Move{TileIndex: i, Tile: t, Side: SideLeft})
		}
		if t.HasValue(right) {
			moves = append(moves, Move{TileIndex: i, Tile: t, Side: SideRight})
		}
	}
	return moves
}

// PlayTile 出牌
// side 为 SideAny 时左端优先
func (m *Match) PlayTile(seat, tileIndex int, side Side) (*PlayResult, error) {
	if !m.started {
		return nil, ErrRoundNotStarted
	}
	if m.roundOver || m.matchOver {
		return nil, ErrRoundOver
	}
	if seat != m.currentSeat {
		return nil, ErrNotYourTurn
	}

	hand := m.hands[seat]
	if tileIndex < 0 || tileIndex >= len(hand) {
		return nil, ErrInvalidTileIndex
	}
	tile := hand[tileIndex]

	if !m.table.canPlaceSide(tile, side) {
		return nil, ErrIllegalPlacement
	}

	// 卡皮库阿要在放置前判断：最后一张、非对牌、不带白头、两端都能接
	capicua := len(hand) == 1 && m.table.Len() > 0 && m.isCapicua(tile)

	placedSide, err := m.table.Place(tile, side)
	if err != nil {
		return nil, err
	}

	m.hands[seat] = append(hand[:tileIndex], hand[tileIndex+1:]...)

	m.consecutivePasses = 0
	m.passCount = 0
	m.lastPlayerSeat = seat

	result := &PlayResult{Tile: tile, Side: placedSide}

	if capicua {
		sp := SpecialScore{
			Type:   ScoreCapicua,
			Team:   m.TeamOf(seat),
			Seat:   seat,
			Points: SpecialPoints,
		}
		m.scores[sp.Team] += sp.Points
		m.specialScores = append(m.specialScores, sp)
		result.Special = &sp
	}

	if len(m.hands[seat]) == 0 {
		result.RoundOver = true
		result.Round = m.settleDomino(seat)
		return result, nil
	}

	m.currentSeat = (m.currentSeat + 1) % m.NumPlayers
	result.NextSeat = m.currentSeat
	return result, nil
}

// isCapicua 牌两端都能接上桌面
func (m *Match) isCapicua(t Tile) bool {
	if t.IsDouble() || t.HasBlank() {
		return false
	}
	left, right := m.table.Ends()
	return t.HasValue(left) && t.HasValue(right)
}

// Pass 过牌
// 手里有牌能出时禁止过牌：pairs 模式下对方得 30 罚分，回合继续轮到该玩家
func (m *Match) Pass(seat int) (*PassResult, error) {
	if !m.started {
		return nil, ErrRoundNotStarted
	}
	if m.roundOver || m.matchOver {
		return nil, ErrRoundOver
	}
	if seat != m.currentSeat {
		return nil, ErrNotYourTurn
	}

	if len(m.ValidMoves(seat)) > 0 {
		if m.TeamMode == TeamPairs {
			sp := SpecialScore{
				Type:   ScorePenaltyPass,
				Team:   1 - m.TeamOf(seat),
				Seat:   seat,
				Points: SpecialPoints,
			}
			m.scores[sp.Team] += sp.Points
			m.specialScores = append(m.specialScores, sp)
		}
		return nil, ErrPassWithLegalMove
	}

	m.passCount++
	m.consecutivePasses++

	result := &PassResult{}

	// pase de salida：开局第一张打出后，下家立刻被迫过牌，首家队伍得分
	if m.TeamMode == TeamPairs && m.passCount == 1 && m.table.Len() == 1 {
		sp := SpecialScore{
			Type:   ScorePaseSalida,
			Team:   m.TeamOf(m.openingSeat),
			Seat:   m.openingSeat,
			Points: SpecialPoints,
		}
		m.scores[sp.Team] += sp.Points
		m.specialScores = append(m.specialScores, sp)
		result.Specials = append(result.Specials, sp)
	}

	// pase corrido：其余三家连续过牌，最后出牌的人得分并继续出牌
	if m.TeamMode == TeamPairs && m.consecutivePasses == m.NumPlayers-1 && m.lastPlayerSeat >= 0 {
		sp := SpecialScore{
			Type:   ScorePaseCorrido,
			Team:   m.TeamOf(m.lastPlayerSeat),
			Seat:   m.lastPlayerSeat,
			Points: SpecialPoints,
		}
		m.scores[sp.Team] += sp.Points
		m.specialScores = append(m.specialScores, sp)
		result.Specials = append(result.Specials, sp)

		m.currentSeat = m.lastPlayerSeat
		m.consecutivePasses = 0
		result.NextSeat = m.currentSeat
		return result, nil
	}

	// 所有人连续过牌，锁局
	if m.passCount >= m.NumPlayers {
		result.Blocked = true
		result.Round = m.settleBlocked()
		return result, nil
	}

	m.currentSeat = (m.currentSeat + 1) % m.NumPlayers
	result.NextSeat = m.currentSeat
	return result, nil
}

// settleDomino 有人出完牌，赢家队伍吃掉所有对手剩牌分
func (m *Match) settleDomino(winnerSeat int) *RoundResult {
	m.roundOver = true
	m.roundWinnerSeat = winnerSeat

	handPips := make([]int, m.NumPlayers)
	total := 0
	for i := 0; i < m.NumPlayers; i++ {
		handPips[i] = HandPips(m.hands[i])
		total += handPips[i]
	}

	winnerTeam := m.TeamOf(winnerSeat)
	m.scores[winnerTeam] += total

	return m.buildRoundResult("domino", winnerSeat, winnerTeam, total, handPips)
}

// settleBlocked 锁局结算
// pairs：剩牌分少的队伍通吃，平分时首家队伍赢
// individual：剩牌分最少的座位通吃，平分时离首家近的座位赢
func (m *Match) settleBlocked() *RoundResult {
	m.roundOver = true
	m.blocked = true
	m.roundWinnerSeat = -1

	handPips := make([]int, m.NumPlayers)
	total := 0
	for i := 0; i < m.NumPlayers; i++ {
		handPips[i] = HandPips(m.hands[i])
		total += handPips[i]
	}

	var winnerTeam, winnerSeat int
	if m.TeamMode == TeamPairs {
		teamPips := [2]int{}
		for seat := 0; seat < m.NumPlayers; seat++ {
			teamPips[m.TeamOf(seat)] += handPips[seat]
		}
		switch {
		case teamPips[0] < teamPips[1]:
			winnerTeam = 0
		case teamPips[1] < teamPips[0]:
			winnerTeam = 1
		default:
			winnerTeam = m.TeamOf(m.openingSeat)
		}
		winnerSeat = -1
	} else {
		winnerSeat = 0
		best := handPips[0]
		bestDist := m.rotationDistance(0)
		for seat := 1; seat < m.NumPlayers; seat++ {
			dist := m.rotationDistance(seat)
			if handPips[seat] < best || (handPips[seat] == best && dist < bestDist) {
				best = handPips[seat]
				bestDist = dist
				winnerSeat = seat
			}
		}
		winnerTeam = winnerSeat
	}

	m.scores[winnerTeam] += total
	m.specialScores = append(m.specialScores, SpecialScore{
		Type:   ScoreTranque,
		Team:   winnerTeam,
		Seat:   winnerSeat,
		Points: total,
	})

	return m.buildRoundResult("tranque", winnerSeat, winnerTeam, total, handPips)
}

// rotationDistance 座位距离本回合首家的出牌顺位
func (m *Match) rotationDistance(seat int) int {
	return (seat - m.openingSeat + m.NumPlayers) % m.NumPlayers
}

func (m *Match) buildRoundResult(endType string, winnerSeat, winnerTeam, points int, handPips []int) *RoundResult {
	result := &RoundResult{
		EndType:     endType,
		WinnerSeat:  winnerSeat,
		WinnerTeam:  winnerTeam,
		Points:      points,
		HandPips:    handPips,
		Scores:      m.Scores(),
		MatchWinner: -1,
	}

	for slot, score := range m.scores {
		if score >= m.TargetScore {
			m.matchOver = true
			// 多队同回合过线时取分高者
			if result.MatchWinner < 0 || score > m.scores[result.MatchWinner] {
				result.MatchWinner = slot
			}
		}
	}
	result.MatchOver = m.matchOver
	return result
}

// ResetRound 清场进入下一回合，保留累计分和上回合赢家
func (m *Match) ResetRound() {
	m.table.Reset()
	m.hands = nil
	m.blocked = false
	m.roundOver = false
	m.started = false
	m.passCount = 0
	m.consecutivePasses = 0
	m.lastPlayerSeat = -1
	m.specialScores = m.specialScores[:0]
	m.roundNumber++
}
