package domino

// Side 放牌方向
type Side int

const (
	SideAny Side = iota // 由引擎自行选择（左优先）
	SideLeft
	SideRight
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return "any"
	}
}

// ParseSide 解析客户端传来的方向字符串
func ParseSide(s string) Side {
	switch s {
	case "left":
		return SideLeft
	case "right":
		return SideRight
	default:
		return SideAny
	}
}

// PlacedTile 摆上桌的牌，Left/Right 为朝向桌面左右两侧的点数
type PlacedTile struct {
	Tile  Tile `json:"tile"`
	Left  int  `json:"left"`
	Right int  `json:"right"`
}

// Table 桌面牌链
// 约定 placed[0] 在最左侧，链从左到右相邻端点数相等
type Table struct {
	placed []PlacedTile
}

func NewTable() *Table {
	return &Table{placed: make([]PlacedTile, 0, 28)}
}

// Len 已摆放的牌数
func (tb *Table) Len() int {
	return len(tb.placed)
}

// Ends 两端暴露的点数，空桌返回 (-1, -1)
func (tb *Table) Ends() (left, right int) {
	if len(tb.placed) == 0 {
		return -1, -1
	}
	return tb.placed[0].Left, tb.placed[len(tb.placed)-1].Right
}

// CanPlace 牌能否接上任一端
func (tb *Table) CanPlace(t Tile) bool {
	if len(tb.placed) == 0 {
		return true
	}
	left, right := tb.Ends()
	return t.HasValue(left) || t.HasValue(right)
}

// canPlaceSide 牌能否接上指定端
func (tb *Table) canPlaceSide(t Tile, side Side) bool {
	if len(tb.placed) == 0 {
		return true
	}
	left, right := tb.Ends()
	switch side {
	case SideLeft:
		return t.HasValue(left)
	case SideRight:
		return t.HasValue(right)
	default:
		return t.HasValue(left) || t.HasValue(right)
	}
}

// Place 把牌接上指定端，需要时翻转方向
// side 为 SideAny 时左端优先，返回实际放置的方向
func (tb *Table) Place(t Tile, side Side) (Side, error) {
	if len(tb.placed) == 0 {
		tb.placed = append(tb.placed, PlacedTile{Tile: t, Left: t.Top, Right: t.Bottom})
		return SideLeft, nil
	}

	if side == SideAny {
		left, _ := tb.Ends()
		if t.HasValue(left) {
			side = SideLeft
		} else {
			side = SideRight
		}
	}

	left, right := tb.Ends()
	switch side {
	case SideLeft:
		if !t.HasValue(left) {
			return side, ErrIllegalPlacement
		}
		pt := PlacedTile{Tile: t, Left: t.Top, Right: t.Bottom}
		if t.Top == left {
			// 翻转，让匹配端朝向链内侧
			pt.Left, pt.Right = t.Bottom, t.Top
		}
		tb.placed = append([]PlacedTile{pt}, tb.placed...)
	case SideRight:
		if !t.HasValue(right) {
			return side, ErrIllegalPlacement
		}
		pt := PlacedTile{Tile: t, Left: t.Top, Right: t.Bottom}
		if t.Bottom == right {
			pt.Left, pt.Right = t.Bottom, t.Top
		}
		tb.placed = append(tb.placed, pt)
	default:
		return side, ErrIllegalPlacement
	}
	return side, nil
}

// Snapshot 返回桌面牌链副本
func (tb *Table) Snapshot() []PlacedTile {
	out := make([]PlacedTile, len(tb.placed))
	copy(out, tb.placed)
	return out
}

// Reset 清空桌面
func (tb *Table) Reset() {
	tb.placed = tb.placed[:0]
}
