package discovery

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Server etcd 中注册的节点信息，value 为 json
type Server struct {
	Domain  string  `json:"domain"` // 节点类型，game / march / connector
	Addr    string  `json:"addr"`
	NodeID  string  `json:"nodeID"` // NATS 通信使用的节点 id
	Weight  int     `json:"weight"`
	Version string  `json:"version"`
	Ttl     int     `json:"ttl"`
	Load    float64 `json:"load"` // 负载分数，越小越空闲，<=0 视为不健康
}

func (s Server) buildKey() string {
	return fmt.Sprintf("%s/%s", s.Domain, s.Addr)
}

// ParseValue 存进去的 value 是 json，读出来的也要 json 解析
func ParseValue(value []byte) (Server, error) {
	var server Server
	if err := json.Unmarshal(value, &server); err != nil {
		return server, err
	}
	return server, nil
}

// ParseKey delete 事件只有 key，没有 value，从 key 还原出 Domain/Addr
func ParseKey(key string) (Server, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 2 {
		return Server{}, fmt.Errorf("无效的 etcd key: %s", key)
	}
	return Server{
		Domain: parts[0],
		Addr:   parts[1],
	}, nil
}
