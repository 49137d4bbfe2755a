package domino

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/curetcore/dominodominicano/common/config"
	"github.com/curetcore/dominodominicano/common/log"
	"github.com/curetcore/dominodominicano/game"
	"github.com/curetcore/dominodominicano/game/engines"
	"github.com/curetcore/dominodominicano/game/share"
)

const (
	DefaultMaxTurnTime      = 30              // 每回合的最多分配时间（秒）
	DefaultTurnCompensation = 5               // 默认回合补偿（秒）
	DefaultWaitStartTime    = 5 * time.Second // 等待游戏开始时间
	DefaultRoundDelay       = 6 * time.Second // 回合结算到下一回合的间隔
)

// 机器人出牌前的思考延迟，难度越高出手越快
var botDelays = map[BotDifficulty]time.Duration{
	BotEasy:   2 * time.Second,
	BotMedium: 1500 * time.Millisecond,
	BotHard:   time.Second,
}

/*
	多米尼加多米诺对局引擎

	规则核心在 Match 里，不感知时钟和网络；引擎负责：
		1.座位、计时器和机器人的生命周期
		2.把 NATS 过来的玩家事件串行化进 actorLoop
		3.出牌/过牌结果的广播和私有手牌推送
		4.断线托管：掉线座位由机器人代打，重连后交还并下发快照
		5.回合结算与下一回合的自动开启，直到有一方过线
*/

// DominicanDomino 多米尼加多米诺引擎
// 同一个结构按模式参数化出三种原型：四人搭档、四人单人、两人单人
type DominicanDomino struct {
	State      engines.GameState
	Worker     *game.Worker               // Game Worker（在 GameContainer 创建原型时注入）
	RoomID     string                     // 房间 ID（用于请求销毁房间）
	UserMap    map[string]*share.UserInfo // Room.Users 的引用（Engine 和 Room 共用）
	Mode       Mode
	TeamMode   TeamMode
	NumPlayers int
	BotLevel   BotDifficulty // 托管和超时代打用的默认难度

	Match       *Match            // 规则核心
	Seats       []*share.UserInfo // 座位索引 -> 玩家
	bots        []*Bot            // 座位索引 -> 策略（机器人或托管时才有）
	left        []bool            // 中途退出的座位，机器人永久接管
	TurnManager *TurnManager
	Persister   *GamePersister
	rng         *rand.Rand

	roundStartTimer *time.Timer // 开局延迟计时器（用于 Close 时停止）
	nextRoundTimer  *time.Timer // 下一回合计时器
	botTimer        *time.Timer // 机器人思考计时器

	gameEvents chan share.GameEvent
	gameDone   chan struct{}
	actorExit  chan struct{}
	closed     atomic.Bool // 接收游戏事件的关闭开关
	closeOnce  sync.Once
}

// TimeoutEvent 出牌超时事件（计时器回调转投）
type TimeoutEvent struct {
	share.GameMessageEvent
	SeatIndex int
}

func (e *TimeoutEvent) GetEventType() string {
	return "Timeout"
}

// StartRoundEvent 回合开始事件
type StartRoundEvent struct {
	share.GameMessageEvent
}

func (e *StartRoundEvent) GetEventType() string {
	return "StartRound"
}

// BotActEvent 机器人出手事件（思考延迟后转投）
type BotActEvent struct {
	share.GameMessageEvent
	SeatIndex int
}

func (e *BotActEvent) GetEventType() string {
	return "BotAct"
}

// NewDominicanDomino 创建多米诺引擎实例（原型）
func NewDominicanDomino(worker *game.Worker, mode Mode, teamMode TeamMode, numPlayers int, botLevel BotDifficulty) *DominicanDomino {
	return &DominicanDomino{
		State:      engines.GameWaiting,
		Worker:     worker,
		RoomID:     "",
		UserMap:    nil,
		Mode:       mode,
		TeamMode:   teamMode,
		NumPlayers: numPlayers,
		BotLevel:   botLevel,
	}
}

// InitializeEngine 初始化游戏引擎
func (eg *DominicanDomino) InitializeEngine(roomID string, userMap map[string]*share.UserInfo) error {
	eg.RoomID = roomID
	eg.UserMap = userMap

	if len(userMap) != eg.NumPlayers {
		return fmt.Errorf("玩家数不匹配: 需要 %d, 实际 %d", eg.NumPlayers, len(userMap))
	}

	eg.closed.Store(false)
	eg.gameEvents = make(chan share.GameEvent, 256)
	eg.gameDone = make(chan struct{})
	eg.actorExit = make(chan struct{})
	eg.rng = rand.New(rand.NewSource(time.Now().UnixNano()))

	// 座位沿用 Room 分配好的索引
	eg.Seats = make([]*share.UserInfo, eg.NumPlayers)
	eg.bots = make([]*Bot, eg.NumPlayers)
	eg.left = make([]bool, eg.NumPlayers)
	tickers := make([]*PlayerTicker, eg.NumPlayers)
	for _, userInfo := range userMap {
		seatIndex := userInfo.SeatIndex
		if seatIndex < 0 || seatIndex >= eg.NumPlayers || eg.Seats[seatIndex] != nil {
			return fmt.Errorf("座位索引非法: user=%s, seat=%d", userInfo.UserID, seatIndex)
		}
		eg.Seats[seatIndex] = userInfo

		ticker := NewPlayerTicker(DefaultMaxTurnTime)
		ticker.SetOnTimeout(eg.makeTimeoutHandler(seatIndex))
		tickers[seatIndex] = ticker

		if userInfo.IsBot {
			eg.bots[seatIndex] = NewBot(BotDifficulty(userInfo.BotDifficulty), eg.rng)
		}
	}
	eg.TurnManager = NewTurnManager(tickers)
	eg.State = engines.GameWaiting

	match, err := NewMatch(eg.Mode, eg.TeamMode, eg.NumPlayers, eg.rng)
	if err != nil {
		return fmt.Errorf("创建对局失败: %v", err)
	}
	eg.Match = match

	// 初始化持久化组件
	if eg.Worker != nil && eg.Worker.GameRecordRepository != nil {
		eg.Persister = NewGamePersister(eg.Worker.GameRecordRepository, roomID, eg.modeName(), match.TargetScore, userMap)
	}

	go eg.pushMatchSuccessMessage(userMap)

	eg.roundStartTimer = time.AfterFunc(DefaultWaitStartTime, func() {
		eg.State = engines.GameInProgress
		eg.NotifyEvent(&StartRoundEvent{})
	})
	go eg.actorLoop()

	return nil
}

// actorLoop 游戏事件循环
func (eg *DominicanDomino) actorLoop() {
	defer func() {
		if eg.actorExit != nil {
			close(eg.actorExit)
		}
	}()
	for {
		select {
		case <-eg.gameDone:
			return
		case event := <-eg.gameEvents:
			eg.processEvent(event)
		}
	}
}

func (eg *DominicanDomino) NotifyEvent(event share.GameEvent) {
	if event == nil {
		return
	}
	if eg.closed.Load() {
		return
	}

	select {
	case <-eg.gameDone:
		return
	case eg.gameEvents <- event:
		return
	default:
		log.Warn("gameEvents 队列已满, eventType=%s", event.GetEventType())
		return
	}
}

func (eg *DominicanDomino) processEvent(event share.GameEvent) {
	if event == nil {
		log.Warn("事件为空")
		return
	}

	eventType := event.GetEventType()
	log.Info("处理游戏事件: %s", eventType)

	switch eventType {
	case "PlaceTile":
		if placeEvent, ok := event.(*share.PlaceTileEvent); ok {
			eg.handlePlaceTileEvent(placeEvent)
		}
	case "PassTurn":
		if passEvent, ok := event.(*share.PassTurnEvent); ok {
			eg.handlePassTurnEvent(passEvent)
		}
	case "Reconnect":
		if reconnectEvent, ok := event.(*share.ReconnectEvent); ok {
			eg.handleReconnectEvent(reconnectEvent)
		}
	case "Disconnect":
		if disconnectEvent, ok := event.(*share.DisconnectEvent); ok {
			eg.handleDisconnectEvent(disconnectEvent)
		}
	case "LeaveGame":
		if leaveEvent, ok := event.(*share.LeaveGameEvent); ok {
			eg.handleLeaveGameEvent(leaveEvent)
		}
	case "Timeout":
		if t, ok := event.(*TimeoutEvent); ok {
			eg.handleTimeoutEvent(t)
		}
	case "BotAct":
		if b, ok := event.(*BotActEvent); ok {
			eg.handleBotActEvent(b)
		}
	case "StartRound":
		if _, ok := event.(*StartRoundEvent); ok {
			eg.handleStartRoundEvent()
		}
	default:
		log.Warn("不支持的事件类型: %s", eventType)
	}
}

func (eg *DominicanDomino) handleStartRoundEvent() {
	if eg.Match == nil {
		eg.HappenDamageError("Match 为空")
		return
	}
	if eg.Match.IsMatchOver() {
		return
	}
	if eg.Match.IsRoundOver() {
		eg.Match.ResetRound()
	}

	opener := eg.Match.StartRound()
	log.Info("回合 %d 开始，首家座位 %d", eg.Match.RoundNumber(), opener)

	// 记录回合开始
	if eg.Persister != nil {
		eg.Persister.StartRound(eg.Match.RoundNumber(), opener)
	}

	// 推送回合开始（每人只看到自己的手牌）
	eg.broadcastRoundStart(opener)

	eg.enterTurn(opener)
}

// enterTurn 进入指定座位的出牌回合
func (eg *DominicanDomino) enterTurn(seatIndex int) {
	if err := eg.TurnManager.EnterPlayPhase(seatIndex, DefaultTurnCompensation); err != nil {
		eg.HappenDamageError(fmt.Sprintf("进入出牌回合异常: %v", err))
		return
	}
	eg.broadcastTurn(seatIndex)

	if eg.seatControlled(seatIndex) {
		eg.scheduleBotAct(seatIndex)
	}
}

// seatControlled 座位是否由机器人代打（机器人座位、掉线、中途退出）
func (eg *DominicanDomino) seatControlled(seatIndex int) bool {
	user := eg.Seats[seatIndex]
	if user == nil {
		return true
	}
	return user.IsBot || !user.IsOnline || eg.left[seatIndex]
}

// botFor 座位的出牌策略，托管座位惰性创建
func (eg *DominicanDomino) botFor(seatIndex int) *Bot {
	if eg.bots[seatIndex] == nil {
		eg.bots[seatIndex] = NewBot(eg.BotLevel, eg.rng)
	}
	return eg.bots[seatIndex]
}

func (eg *DominicanDomino) scheduleBotAct(seatIndex int) {
	delay := botDelays[eg.botFor(seatIndex).Difficulty]
	if delay == 0 {
		delay = botDelays[BotMedium]
	}
	eg.botTimer = time.AfterFunc(delay, func() {
		eg.NotifyEvent(&BotActEvent{SeatIndex: seatIndex})
	})
}

func (eg *DominicanDomino) handleBotActEvent(event *BotActEvent) {
	seatIndex := event.SeatIndex
	if eg.TurnManager.GetState() != TurnStateWaitPlay || eg.TurnManager.GetCurrentPlayer() != seatIndex {
		return
	}
	eg.autoAct(seatIndex)
}

// autoAct 机器人或超时代打：有牌出牌，没牌过牌
func (eg *DominicanDomino) autoAct(seatIndex int) {
	bot := eg.botFor(seatIndex)
	move, ok := bot.ChooseMove(eg.Match, seatIndex)
	if ok {
		eg.applyPlace(seatIndex, move.TileIndex, move.Side)
		return
	}
	eg.applyPass(seatIndex)
}

func (eg *DominicanDomino) handlePlaceTileEvent(event *share.PlaceTileEvent) {
	seatIndex, err := eg.getSeatIndex(event.GetUserID())
	if err != nil {
		log.Warn("获取玩家座位失败: %v", err)
		return
	}
	if eg.TurnManager.GetState() != TurnStateWaitPlay {
		log.Warn("当前状态不是 TurnStateWaitPlay，而是: %v", eg.TurnManager.GetState())
		return
	}
	if seatIndex != eg.TurnManager.GetCurrentPlayer() {
		log.Warn("不是当前玩家的回合，当前玩家: %d, 事件玩家: %d", eg.TurnManager.GetCurrentPlayer(), seatIndex)
		eg.pushError(seatIndex, ErrNotYourTurn)
		return
	}

	eg.applyPlace(seatIndex, event.TileIndex, ParseSide(event.Side))
}

func (eg *DominicanDomino) handlePassTurnEvent(event *share.PassTurnEvent) {
	seatIndex, err := eg.getSeatIndex(event.GetUserID())
	if err != nil {
		log.Warn("获取玩家座位失败: %v", err)
		return
	}
	if eg.TurnManager.GetState() != TurnStateWaitPlay {
		log.Warn("当前状态不是 TurnStateWaitPlay，而是: %v", eg.TurnManager.GetState())
		return
	}
	if seatIndex != eg.TurnManager.GetCurrentPlayer() {
		eg.pushError(seatIndex, ErrNotYourTurn)
		return
	}

	eg.applyPass(seatIndex)
}

// applyPlace 执行出牌并广播结果
func (eg *DominicanDomino) applyPlace(seatIndex, tileIndex int, side Side) {
	result, err := eg.Match.PlayTile(seatIndex, tileIndex, side)
	if err != nil {
		log.Warn("座位 %d 出牌非法: %v", seatIndex, err)
		eg.pushError(seatIndex, err)
		return
	}

	eg.TurnManager.GetPlayerTicker(seatIndex).Stop()

	if eg.Persister != nil {
		eg.Persister.RecordPlaceTile(seatIndex, result.Tile, result.Side)
	}
	eg.broadcastPlace(seatIndex, result)
	eg.pushHandUpdate(seatIndex)

	if result.Special != nil {
		if eg.Persister != nil {
			eg.Persister.RecordSpecialScore(result.Special)
		}
		eg.broadcastSpecialScore(result.Special)
	}

	if result.RoundOver {
		eg.finishRound(result.Round)
		return
	}
	eg.enterTurn(result.NextSeat)
}

// applyPass 执行过牌并广播结果
func (eg *DominicanDomino) applyPass(seatIndex int) {
	result, err := eg.Match.Pass(seatIndex)
	if err != nil {
		log.Warn("座位 %d 过牌非法: %v", seatIndex, err)
		eg.pushError(seatIndex, err)
		// 手里有牌硬过，对家得罚分后继续等该玩家出牌
		specials := eg.Match.SpecialScores()
		for i := len(specials) - 1; i >= 0; i-- {
			if specials[i].Type == ScorePenaltyPass && specials[i].Seat == seatIndex {
				if eg.Persister != nil {
					eg.Persister.RecordSpecialScore(&specials[i])
				}
				eg.broadcastSpecialScore(&specials[i])
				break
			}
		}
		return
	}

	eg.TurnManager.GetPlayerTicker(seatIndex).Stop()

	if eg.Persister != nil {
		eg.Persister.RecordPassTurn(seatIndex)
	}
	eg.broadcastPass(seatIndex, result)

	for i := range result.Specials {
		special := &result.Specials[i]
		if eg.Persister != nil {
			eg.Persister.RecordSpecialScore(special)
		}
		eg.broadcastSpecialScore(special)
	}

	if result.Round != nil {
		eg.finishRound(result.Round)
		return
	}
	eg.enterTurn(result.NextSeat)
}

// finishRound 回合结算，必要时开启下一回合
func (eg *DominicanDomino) finishRound(round *RoundResult) {
	if round == nil {
		eg.HappenDamageError("回合结算结果为空")
		return
	}
	eg.TurnManager.EnterSettlingPhase()

	if eg.Persister != nil {
		bonus := 0
		for _, special := range eg.Match.SpecialScores() {
			bonus += special.Points
		}
		eg.Persister.CompleteRound(round, bonus)
	}
	eg.broadcastRoundEnd(round)

	if round.MatchOver {
		eg.finishMatch(round)
		return
	}

	eg.nextRoundTimer = time.AfterFunc(DefaultRoundDelay, func() {
		eg.NotifyEvent(&StartRoundEvent{})
	})
}

// finishMatch 整局结束，落库后请求销毁房间
func (eg *DominicanDomino) finishMatch(round *RoundResult) {
	eg.State = engines.GameFinished
	log.Info("对局结束, roomID=%s, 胜方=%d", eg.RoomID, round.MatchWinner)

	if eg.Persister != nil {
		eg.Persister.FinalizeGame(round, eg.Match.RoundNumber())
	}
	eg.broadcastGameEnd(round)
	eg.Terminate()
}

func (eg *DominicanDomino) handleTimeoutEvent(event *TimeoutEvent) {
	seatIndex := event.SeatIndex
	log.Info("座位 %d 出牌超时", seatIndex)

	if eg.TurnManager.GetState() != TurnStateWaitPlay || eg.TurnManager.GetCurrentPlayer() != seatIndex {
		return
	}
	// 超时代打一手，不做永久托管
	eg.autoAct(seatIndex)
}

func (eg *DominicanDomino) handleReconnectEvent(event *share.ReconnectEvent) {
	seatIndex, err := eg.getSeatIndex(event.GetUserID())
	if err != nil {
		log.Warn("获取玩家座位失败: %v", err)
		return
	}
	log.Info("处理断线重连: user=%s, seat=%d", event.GetUserID(), seatIndex)

	user := eg.Seats[seatIndex]
	if user != nil {
		user.SetOnline(event.ConnectorTopic)
	}
	if eg.Persister != nil {
		eg.Persister.RecordPlayerReturn(seatIndex)
	}

	eg.pushSnapshot(seatIndex)
	eg.broadcastPresence(seatIndex, true)
}

func (eg *DominicanDomino) handleDisconnectEvent(event *share.DisconnectEvent) {
	seatIndex, err := eg.getSeatIndex(event.GetUserID())
	if err != nil {
		log.Warn("获取玩家座位失败: %v", err)
		return
	}
	log.Info("玩家掉线，座位 %d 转机器人托管", seatIndex)

	user := eg.Seats[seatIndex]
	if user != nil {
		user.SetOffline()
	}
	if eg.Persister != nil {
		eg.Persister.RecordBotTakeover(seatIndex)
	}
	eg.broadcastPresence(seatIndex, false)

	// 正轮到掉线玩家时立刻接管
	if eg.TurnManager.GetState() == TurnStateWaitPlay && eg.TurnManager.GetCurrentPlayer() == seatIndex {
		eg.scheduleBotAct(seatIndex)
	}
}

func (eg *DominicanDomino) handleLeaveGameEvent(event *share.LeaveGameEvent) {
	seatIndex, err := eg.getSeatIndex(event.GetUserID())
	if err != nil {
		log.Warn("获取玩家座位失败: %v", err)
		return
	}
	log.Info("玩家中途退出，座位 %d 由机器人永久接管", seatIndex)

	eg.left[seatIndex] = true
	user := eg.Seats[seatIndex]
	if user != nil {
		user.SetOffline()
	}
	if eg.Persister != nil {
		eg.Persister.RecordBotTakeover(seatIndex)
	}
	eg.broadcastPresence(seatIndex, false)

	// 人类玩家全走光就中止整局
	if !eg.anyHumanLeft() {
		log.Info("房间 %s 已无人类玩家，中止对局", eg.RoomID)
		if eg.Persister != nil {
			eg.Persister.AbortMatch("abandoned")
		}
		eg.Terminate()
		return
	}

	if eg.TurnManager.GetState() == TurnStateWaitPlay && eg.TurnManager.GetCurrentPlayer() == seatIndex {
		eg.scheduleBotAct(seatIndex)
	}
}

func (eg *DominicanDomino) anyHumanLeft() bool {
	for seatIndex, user := range eg.Seats {
		if user != nil && !user.IsBot && !eg.left[seatIndex] {
			return true
		}
	}
	return false
}

// modeName 对外的模式名，和 config.ModePairs4 等保持一致
func (eg *DominicanDomino) modeName() string {
	if eg.TeamMode == TeamPairs {
		return string(config.ModePairs4)
	}
	if eg.NumPlayers == 2 {
		return string(config.ModeIndividual2)
	}
	return string(config.ModeIndividual4)
}

// makeTimeoutHandler 创建超时处理回调
func (eg *DominicanDomino) makeTimeoutHandler(seatIndex int) func() {
	return func() {
		eg.NotifyEvent(&TimeoutEvent{SeatIndex: seatIndex})
	}
}

// getSeatIndex 从 UserMap 中查找玩家座位
func (eg *DominicanDomino) getSeatIndex(userID string) (int, error) {
	if eg.UserMap == nil {
		return -1, fmt.Errorf("UserMap 未初始化")
	}

	userInfo, exists := eg.UserMap[userID]
	if !exists {
		return -1, fmt.Errorf("玩家 %s 不在房间中", userID)
	}

	return userInfo.SeatIndex, nil
}

// Clone 克隆引擎实例（用于原型模式）
func (eg *DominicanDomino) Clone() engines.Engine {
	return &DominicanDomino{
		State:      engines.GameWaiting,
		Worker:     eg.Worker,
		UserMap:    nil,
		Mode:       eg.Mode,
		TeamMode:   eg.TeamMode,
		NumPlayers: eg.NumPlayers,
		BotLevel:   eg.BotLevel,
	}
}

// HappenDamageError 发生游戏房间崩坏的重大事件
func (eg *DominicanDomino) HappenDamageError(err string) {
	log.Warn("游戏房间崩坏: %s", err)
	if eg.Persister != nil {
		eg.Persister.AbortMatch("error")
	}
	eg.Terminate()
}

// Terminate 自毁程序
func (eg *DominicanDomino) Terminate() {
	eg.requestDestroyRoom()
}

func (eg *DominicanDomino) requestDestroyRoom() {
	if eg.Worker == nil {
		return
	}
	if eg.RoomID == "" {
		return
	}
	eg.Worker.RequestDestroyRoom(eg.RoomID)
}

func (eg *DominicanDomino) Close() {
	eg.closeOnce.Do(func() {
		eg.closed.Store(true)
		if eg.gameDone != nil {
			close(eg.gameDone)
		}
		if eg.actorExit != nil {
			<-eg.actorExit
		}

		// gameEvents 不 close：计时器回调可能还停在 NotifyEvent 的 select 上，
		// 留给 GC 回收即可
		eg.Worker = nil
		eg.State = engines.GameFinished

		if eg.roundStartTimer != nil {
			eg.roundStartTimer.Stop()
		}
		if eg.nextRoundTimer != nil {
			eg.nextRoundTimer.Stop()
		}
		if eg.botTimer != nil {
			eg.botTimer.Stop()
		}

		if eg.TurnManager != nil {
			eg.TurnManager.stopAllTickers()
			eg.TurnManager = nil
		}

		eg.UserMap = nil
		eg.Seats = nil
		eg.bots = nil
		eg.Match = nil
	})
}
