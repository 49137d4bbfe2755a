package transfer

const MatchingSuccess = "matching.success"
const JoinQueue = "march.joinqueue"
const CancelQueue = "march.cancelqueue"

// 房间相关路由（connector -> game）
const RoomCreate = "game.room.create"
const RoomJoin = "game.room.join"
const RoomLeave = "game.room.leave"
const RoomReady = "game.room.ready"
const RoomAddBot = "game.room.addbot"
const RoomChat = "game.room.chat"
const RoomPhrase = "game.room.phrase"
const GameReconnect = "game.reconnect"
const GameDisconnect = "game.disconnect"

// 对局操作路由（connector -> game）
const PlayPlace = "game.play.place"
const PlayPass = "game.play.pass"

// GamePush game 节点推给 connector 的服务间路由（connector 再按 PushUser 下发）
const GamePush = "connector.gamepush"

// 游戏推送路由（game -> connector -> 玩家）
const GameplayRoundStart = "gameplay.round.start"   // 回合开始，发牌
const GameplayHandUpdate = "gameplay.hand.update"   // 私有手牌更新
const GameplayPlace = "gameplay.place"              // 有玩家出牌
const GameplayPass = "gameplay.pass"                // 有玩家过牌
const GameplayTurn = "gameplay.turn"                // 轮到谁出牌
const GameplayScore = "gameplay.score"              // 特殊得分事件
const GameplayRoundEnd = "gameplay.round.end"       // 回合结束结算
const GameplayGameEnd = "gameplay.game.end"         // 整局结束
const GameplayStateUpdate = "gameplay.state.update" // 状态更新（重连用全量快照）
const GameplayError = "gameplay.error"              // 非法操作提示（仅操作者可见）
const RoomUpdate = "room.update"                    // 房间成员/准备/房主变更
const RoomChatPush = "room.chat.push"               // 聊天与快捷短语广播
