package conn

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/curetcore/dominodominicano/common/config"
	"github.com/curetcore/dominodominicano/core/infrastructure/message/transfer"
)

func TestInjectSessionInfo(t *testing.T) {
	out, err := injectSessionInfo([]byte(`{"mode":"dominican:pairs4"}`), "u1", "connector-1")
	if err != nil {
		t.Fatalf("inject failed: %v", err)
	}

	body := make(map[string]any)
	if err := json.Unmarshal(out, &body); err != nil {
		t.Fatalf("output not valid json: %v", err)
	}
	if body["userID"] != "u1" || body["connectorTopic"] != "connector-1" {
		t.Fatalf("session info missing: %v", body)
	}
	// 原有字段不能被覆盖掉
	if body["mode"] != "dominican:pairs4" {
		t.Fatalf("original fields lost: %v", body)
	}
}

func TestInjectSessionInfoEmptyBody(t *testing.T) {
	out, err := injectSessionInfo(nil, "u1", "connector-1")
	if err != nil {
		t.Fatalf("inject failed: %v", err)
	}
	body := make(map[string]any)
	if err := json.Unmarshal(out, &body); err != nil {
		t.Fatalf("output not valid json: %v", err)
	}
	if len(body) != 2 {
		t.Fatalf("empty body should only carry the injected fields, got %v", body)
	}
}

func TestInjectSessionInfoBadJSON(t *testing.T) {
	if _, err := injectSessionInfo([]byte("not json"), "u1", "connector-1"); !errors.Is(err, transfer.ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestAcceptLimiterFromConfig(t *testing.T) {
	cfg := &config.ConnectorConfiguration{AcceptRate: 1, AcceptBurst: 2}
	rl := newAcceptLimiter(cfg)

	for i := 0; i < 2; i++ {
		if !rl.Allow() {
			t.Fatalf("connection %d within configured burst should pass", i)
		}
	}
	if rl.Allow() {
		t.Fatalf("connection beyond configured burst should be rejected")
	}
}

func TestAcceptLimiterDefaults(t *testing.T) {
	rl := newAcceptLimiter(&config.ConnectorConfiguration{})
	// 未配置时走默认突发容量，连续握手不应被立即拒绝
	for i := 0; i < 50; i++ {
		if !rl.Allow() {
			t.Fatalf("connection %d should pass under default limits", i)
		}
	}
}

func TestFnv32Stable(t *testing.T) {
	a, b := fnv32("conn-a"), fnv32("conn-a")
	if a != b {
		t.Fatalf("hash must be stable for the same key")
	}
	if fnv32("conn-a") == fnv32("conn-b") {
		t.Fatalf("different keys should not collide in this fixture")
	}
}
