package march

import (
	"context"
	"testing"
	"time"

	"github.com/curetcore/dominodominicano/common/config"
	"github.com/curetcore/dominodominicano/common/discovery"
	"github.com/curetcore/dominodominicano/march/application/service"
)

// fakeQueueRepo 内存版队列仓储，只实现测试用到的路径
type fakeQueueRepo struct {
	players map[string]string // userID -> connectorTopic
	expired []string
	popErr  error
}

func newFakeQueueRepo() *fakeQueueRepo {
	return &fakeQueueRepo{players: make(map[string]string)}
}

func (f *fakeQueueRepo) JoinQueue(ctx context.Context, userID, connectorTopic, mode string, score float64) error {
	f.players[userID] = connectorTopic
	return nil
}

func (f *fakeQueueRepo) RemoveFromQueue(ctx context.Context, userID, mode string) error {
	delete(f.players, userID)
	return nil
}

func (f *fakeQueueRepo) PopPlayers(ctx context.Context, mode string, count int) (map[string]string, error) {
	if f.popErr != nil {
		return nil, f.popErr
	}
	if len(f.players) < count {
		return nil, nil
	}
	out := make(map[string]string, count)
	for userID, topic := range f.players {
		if len(out) == count {
			break
		}
		out[userID] = topic
		delete(f.players, userID)
	}
	return out, nil
}

func (f *fakeQueueRepo) GetQueueSize(ctx context.Context, mode string) (int, error) {
	return len(f.players), nil
}

func (f *fakeQueueRepo) IsInQueue(ctx context.Context, userID, mode string) (bool, error) {
	_, ok := f.players[userID]
	return ok, nil
}

func (f *fakeQueueRepo) RemoveExpiredPlayers(ctx context.Context, mode string, maxWaitTime time.Duration) ([]string, error) {
	out := f.expired
	f.expired = nil
	for _, userID := range out {
		delete(f.players, userID)
	}
	return out, nil
}

// 只有内存节点列表的选择器，跳过 etcd
func newFakeNodeSelector(servers ...discovery.Server) *NodeSelector {
	return &NodeSelector{
		gameServers: servers,
		strategy:    discovery.LeastLoad,
		serviceName: gameServiceName,
	}
}

func TestPollStrategyMatch(t *testing.T) {
	repo := newFakeQueueRepo()
	strategy := NewPollStrategy()
	ctx := context.Background()

	players, err := strategy.Match(ctx, repo, "dominican:pairs4", 0)
	if err != nil || players != nil {
		t.Fatalf("zero required players expected (nil, nil), got %v / %v", players, err)
	}

	repo.JoinQueue(ctx, "u1", "connector-1", "dominican:pairs4", 1)
	repo.JoinQueue(ctx, "u2", "connector-2", "dominican:pairs4", 2)

	// 人数不足时一个都不取
	players, err = strategy.Match(ctx, repo, "dominican:pairs4", 4)
	if err != nil || len(players) != 0 {
		t.Fatalf("underfilled queue expected no players, got %v / %v", players, err)
	}

	players, err = strategy.Match(ctx, repo, "dominican:pairs4", 2)
	if err != nil || len(players) != 2 {
		t.Fatalf("expected 2 players, got %v / %v", players, err)
	}
	if players["u1"] != "connector-1" || players["u2"] != "connector-2" {
		t.Fatalf("connector topics lost in match: %v", players)
	}
}

func TestInferRequiredPlayers(t *testing.T) {
	if got := inferRequiredPlayers("classic:individual2"); got != 2 {
		t.Fatalf("individual2 expected 2 players, got %d", got)
	}
	if got := inferRequiredPlayers("dominican:pairs4"); got != 4 {
		t.Fatalf("pairs4 expected 4 players, got %d", got)
	}
	if got := inferRequiredPlayers("dominican:individual4"); got != 4 {
		t.Fatalf("individual4 expected 4 players, got %d", got)
	}
}

func TestCreateStrategy(t *testing.T) {
	if _, err := createStrategy(config.ScorePoll); err != nil {
		t.Fatalf("poll strategy should exist: %v", err)
	}
	if _, err := createStrategy(config.MatchStrategy("elo")); err == nil {
		t.Fatalf("unknown strategy should fail")
	}
}

func TestSelectGameNodeFiltersUnhealthy(t *testing.T) {
	ns := newFakeNodeSelector(
		discovery.Server{NodeID: "game-1", Addr: "1.1.1.1:0", Load: -1},
		discovery.Server{NodeID: "game-2", Addr: "1.1.1.2:0", Load: 0.7},
		discovery.Server{NodeID: "game-3", Addr: "1.1.1.3:0", Load: 0.2},
	)

	selected, err := ns.SelectGameNode(context.Background())
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	// 最小负载优先，且跳过 Load <= 0 的节点
	if selected.NodeID != "game-3" {
		t.Fatalf("expected game-3, got %s", selected.NodeID)
	}

	empty := newFakeNodeSelector(discovery.Server{NodeID: "game-1", Load: 0})
	if _, err := empty.SelectGameNode(context.Background()); err == nil {
		t.Fatalf("all-unhealthy list should fail")
	}
}

func TestTryMatchProducesResult(t *testing.T) {
	repo := newFakeQueueRepo()
	ctx := context.Background()
	for i, userID := range []string{"u1", "u2", "u3", "u4"} {
		repo.JoinQueue(ctx, userID, "connector-1", "dominican:pairs4", float64(i))
	}

	resultChan := make(chan *service.MatchResult, 1)
	pool, err := NewMatchPool(config.MarchPoolConfig{
		PoolID:    config.ModePairs4,
		Strategy:  config.ScorePoll,
		BatchSize: 4,
		Internal:  100,
	}, repo, newFakeNodeSelector(discovery.Server{NodeID: "game-1", Addr: "1.1.1.1:0", Load: 0.5}), resultChan)
	if err != nil {
		t.Fatalf("new pool failed: %v", err)
	}

	result, err := pool.tryMatch()
	if err != nil {
		t.Fatalf("tryMatch failed: %v", err)
	}
	if result == nil {
		t.Fatalf("full queue should produce a match")
	}
	if result.PoolID != string(config.ModePairs4) || result.GameNodeID != "game-1" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.Players) != 4 {
		t.Fatalf("players expected 4, got %d", len(result.Players))
	}

	// 队列空了再 tryMatch 应当安静返回 nil
	result, err = pool.tryMatch()
	if err != nil || result != nil {
		t.Fatalf("empty queue expected (nil, nil), got %v / %v", result, err)
	}
}

func TestMatchPoolEvictExpired(t *testing.T) {
	repo := newFakeQueueRepo()
	ctx := context.Background()
	repo.JoinQueue(ctx, "u1", "connector-1", "dominican:pairs4", 1)
	repo.expired = []string{"u1"}

	resultChan := make(chan *service.MatchResult, 1)
	pool, err := NewMatchPool(config.MarchPoolConfig{
		PoolID:    config.ModePairs4,
		Strategy:  config.ScorePoll,
		BatchSize: 1,
		Internal:  100,
	}, repo, newFakeNodeSelector(), resultChan)
	if err != nil {
		t.Fatalf("new pool failed: %v", err)
	}

	pool.evictExpired()
	if in, _ := repo.IsInQueue(ctx, "u1", "dominican:pairs4"); in {
		t.Fatalf("expired player should be removed from the queue")
	}
}
