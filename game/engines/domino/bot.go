package domino

import (
	"math/rand"
	"sort"
)

type BotDifficulty string

const (
	BotEasy   BotDifficulty = "easy"
	BotMedium BotDifficulty = "medium"
	BotHard   BotDifficulty = "hard"
)

// Bot 机器人出牌策略，只依赖公开信息和自己的手牌
// rng 由调用方注入，方便做可复现的测试
type Bot struct {
	Difficulty BotDifficulty
	rng        *rand.Rand
}

func NewBot(difficulty BotDifficulty, rng *rand.Rand) *Bot {
	switch difficulty {
	case BotEasy, BotMedium, BotHard:
	default:
		difficulty = BotMedium
	}
	return &Bot{Difficulty: difficulty, rng: rng}
}

type scoredMove struct {
	move  Move
	score float64
}

// ChooseMove 从合法出牌中挑一步，没有可出的牌时返回 false（只能过牌）
func (b *Bot) ChooseMove(m *Match, seat int) (Move, bool) {
	moves := m.ValidMoves(seat)
	if len(moves) == 0 {
		return Move{}, false
	}

	hand := m.Hand(seat)
	scored := make([]scoredMove, 0, len(moves))
	for _, mv := range moves {
		scored = append(scored, scoredMove{move: mv, score: b.scoreMove(mv, hand, m)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	switch b.Difficulty {
	case BotEasy:
		// 前一半里随机挑
		top := (len(scored) + 1) / 2
		return scored[b.rng.Intn(top)].move, true
	case BotMedium:
		// 两成概率随机，其余选最优
		if b.rng.Float64() > 0.8 {
			return scored[b.rng.Intn(len(scored))].move, true
		}
		return scored[0].move, true
	default:
		return scored[0].move, true
	}
}

// scoreMove 评估一步出牌
// 开局偏好对牌压点，中后期倾向先甩大牌、留卡皮库阿的机会
func (b *Bot) scoreMove(mv Move, hand []Tile, m *Match) float64 {
	t := mv.Tile

	if m.table.Len() == 0 {
		if t.IsDouble() {
			return float64(t.Top*2 + 10)
		}
		return float64(t.Pips())
	}

	score := float64(t.Pips())
	if t.IsDouble() {
		score += 20
	}

	// 剩两三张时，看出掉这张之后另一端的点数还能不能接上做卡皮库阿
	exposed := t.Bottom
	if t.IsDouble() {
		exposed = t.Top
	} else if mv.Side == SideRight {
		exposed = t.Top
	}
	if len(hand) <= 3 {
		for i, other := range hand {
			if i == mv.TileIndex {
				continue
			}
			if other.HasValue(exposed) {
				score += 30
				break
			}
		}
	}

	// 快收尾时避免手里攒着大分
	if len(hand) <= 4 {
		remaining := HandPips(hand) - t.Pips()
		score -= float64(remaining) / 10
	}

	if b.Difficulty == BotMedium {
		score += b.rng.Float64() * 10
	}

	return score
}

// 牌桌事件对应的嘴炮台词
var botReactions = map[string][]string{
	"win": {
		"¡Me pegué! 🎉",
		"¡Eso e' pa' que aprendan!",
		"¡Dominó cerrao'!",
		"¡La victoria es mía!",
	},
	"lose": {
		"Esa estuvo buena...",
		"Pa' la próxima gano yo",
		"Me descuidé un chin",
		"Bien jugao' socio",
	},
	"capicua": {
		"¡Capicúa manito! 💪",
		"¡Esa no la viste venir!",
		"¡30 puntos más!",
	},
	"tranque": {
		"¡Se trancó el juego!",
		"A contar fichas...",
		"Vamo' a ver quién gana",
	},
	"pass": {
		"¡Agua! 💧",
		"Paso mi llave",
		"No tengo na'",
	},
}

// BotReaction 机器人对牌桌事件的台词，没有对应台词时返回空串
func BotReaction(event string, rng *rand.Rand) string {
	options := botReactions[event]
	if len(options) == 0 {
		return ""
	}
	return options[rng.Intn(len(options))]
}
