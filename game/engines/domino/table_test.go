package domino

import (
	"errors"
	"testing"
)

// mustPlace 接牌失败即终止用例
func mustPlace(t *testing.T, tb *Table, tile Tile, side Side) {
	t.Helper()
	if _, err := tb.Place(tile, side); err != nil {
		t.Fatalf("place %s on %v failed: %v", tile, side, err)
	}
}

// assertChain 校验牌链相邻端点数相等
func assertChain(t *testing.T, tb *Table) {
	t.Helper()
	placed := tb.Snapshot()
	for i := 0; i < len(placed)-1; i++ {
		if placed[i].Right != placed[i+1].Left {
			t.Fatalf("chain broken between %v and %v", placed[i], placed[i+1])
		}
	}
}

func TestTableFirstPlacement(t *testing.T) {
	tb := NewTable()
	left, right := tb.Ends()
	if left != -1 || right != -1 {
		t.Fatalf("empty table ends expected (-1,-1), got (%d,%d)", left, right)
	}

	mustPlace(t, tb, Tile{Top: 2, Bottom: 5}, SideAny)
	left, right = tb.Ends()
	if left != 2 || right != 5 {
		t.Fatalf("ends expected (2,5), got (%d,%d)", left, right)
	}
	if tb.Len() != 1 {
		t.Fatalf("len expected 1, got %d", tb.Len())
	}
}

func TestTablePlacementFlips(t *testing.T) {
	tb := NewTable()
	mustPlace(t, tb, Tile{Top: 2, Bottom: 5}, SideAny)

	// 5|3 只能接右端，5 朝内
	mustPlace(t, tb, Tile{Top: 3, Bottom: 5}, SideRight)
	left, right := tb.Ends()
	if left != 2 || right != 3 {
		t.Fatalf("ends expected (2,3), got (%d,%d)", left, right)
	}

	// 2|6 接左端需要翻转，2 朝内
	mustPlace(t, tb, Tile{Top: 2, Bottom: 6}, SideLeft)
	left, right = tb.Ends()
	if left != 6 || right != 3 {
		t.Fatalf("ends expected (6,3), got (%d,%d)", left, right)
	}

	assertChain(t, tb)
}

func TestTableSideAnyPrefersLeft(t *testing.T) {
	tb := NewTable()
	mustPlace(t, tb, Tile{Top: 3, Bottom: 3}, SideAny)

	// 3|4 两端都能接，SideAny 走左端
	side, err := tb.Place(Tile{Top: 3, Bottom: 4}, SideAny)
	if err != nil {
		t.Fatalf("place failed: %v", err)
	}
	if side != SideLeft {
		t.Fatalf("SideAny expected to resolve to left, got %v", side)
	}
	left, _ := tb.Ends()
	if left != 4 {
		t.Fatalf("left end expected 4, got %d", left)
	}
}

func TestTableIllegalPlacement(t *testing.T) {
	tb := NewTable()
	mustPlace(t, tb, Tile{Top: 2, Bottom: 3}, SideAny)

	bad := Tile{Top: 5, Bottom: 6}
	if tb.CanPlace(bad) {
		t.Fatalf("5|6 should not match ends (2,3)")
	}
	if _, err := tb.Place(bad, SideAny); !errors.Is(err, ErrIllegalPlacement) {
		t.Fatalf("expected ErrIllegalPlacement, got %v", err)
	}

	// 能接右端但硬放左端也算非法
	if _, err := tb.Place(Tile{Top: 3, Bottom: 6}, SideLeft); !errors.Is(err, ErrIllegalPlacement) {
		t.Fatalf("expected ErrIllegalPlacement on wrong side, got %v", err)
	}
}

func TestTableReset(t *testing.T) {
	tb := NewTable()
	mustPlace(t, tb, Tile{Top: 1, Bottom: 1}, SideAny)
	tb.Reset()
	if tb.Len() != 0 {
		t.Fatalf("len after reset expected 0, got %d", tb.Len())
	}
	left, right := tb.Ends()
	if left != -1 || right != -1 {
		t.Fatalf("ends after reset expected (-1,-1), got (%d,%d)", left, right)
	}
}

func TestParseSide(t *testing.T) {
	if ParseSide("left") != SideLeft || ParseSide("right") != SideRight {
		t.Fatalf("ParseSide basic mapping wrong")
	}
	if ParseSide("") != SideAny || ParseSide("middle") != SideAny {
		t.Fatalf("ParseSide fallback expected SideAny")
	}
	if SideLeft.String() != "left" || SideRight.String() != "right" || SideAny.String() != "any" {
		t.Fatalf("Side.String mapping wrong")
	}
}
