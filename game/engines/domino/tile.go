package domino

import (
	"fmt"
	"math/rand"
)

// Tile 一张多米诺骨牌，Top/Bottom 为两端点数（0-6）
// 生成时恒有 Top <= Bottom，摆上桌后方向由 Placed 记录
type Tile struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
}

// IsDouble 是否为对牌（两端点数相同）
func (t Tile) IsDouble() bool {
	return t.Top == t.Bottom
}

// HasBlank 是否带白头（任一端为 0）
func (t Tile) HasBlank() bool {
	return t.Top == 0 || t.Bottom == 0
}

// Pips 牌面点数合计
func (t Tile) Pips() int {
	return t.Top + t.Bottom
}

// HasValue 牌面是否含指定点数
func (t Tile) HasValue(v int) bool {
	return t.Top == v || t.Bottom == v
}

func (t Tile) String() string {
	return fmt.Sprintf("%d|%d", t.Top, t.Bottom)
}

// Name 多米尼加民间牌名，没有俗名的牌返回空串
func (t Tile) Name() string {
	return dominoNames[t.String()]
}

// 多米尼加对牌俗名
var dominoNames = map[string]string{
	"6|6": "El burro / La cochina",
	"5|5": "El quinto",
	"4|4": "El cuarto",
	"3|3": "El tres",
	"2|2": "El duque",
	"1|1": "El uno",
	"0|0": "La caja",
}

// NewDeck 生成整副 28 张牌，i<=j 每种组合一张
func NewDeck() []Tile {
	deck := make([]Tile, 0, 28)
	for i := 0; i <= 6; i++ {
		for j := i; j <= 6; j++ {
			deck = append(deck, Tile{Top: i, Bottom: j})
		}
	}
	return deck
}

// ShuffledDeck 生成并洗牌，rng 由调用方注入以便测试
func ShuffledDeck(rng *rand.Rand) []Tile {
	deck := NewDeck()
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

// HandPips 一手牌的点数合计
func HandPips(hand []Tile) int {
	total := 0
	for _, t := range hand {
		total += t.Pips()
	}
	return total
}
