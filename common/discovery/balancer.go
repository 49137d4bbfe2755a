package discovery

import (
	"errors"
	"math/rand"
)

/*
	负载均衡选择器
	用于 march 服务根据负载信息选择 game 节点
*/

// LoadBalanceStrategy 负载均衡策略
type LoadBalanceStrategy int

const (
	// LeastLoad 最小负载优先（根据 Load 字段，值越小负载越低）
	LeastLoad LoadBalanceStrategy = iota
	// Random 随机选择
	Random
)

// SelectServer 根据策略选择服务
func SelectServer(servers []Server, strategy LoadBalanceStrategy) (*Server, error) {
	if len(servers) == 0 {
		return nil, errors.New("服务列表为空")
	}
	if len(servers) == 1 {
		return &servers[0], nil
	}

	switch strategy {
	case Random:
		return &servers[rand.Intn(len(servers))], nil
	default:
		return selectLeastLoad(servers)
	}
}

// selectLeastLoad 选择负载最低的服务
func selectLeastLoad(servers []Server) (*Server, error) {
	selected := &servers[0]
	minLoad := selected.Load

	for i := 1; i < len(servers); i++ {
		if servers[i].Load < minLoad {
			minLoad = servers[i].Load
			selected = &servers[i]
		}
	}

	return selected, nil
}
