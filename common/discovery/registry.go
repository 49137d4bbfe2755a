package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/curetcore/dominodominicano/common/config"
	"github.com/curetcore/dominodominicano/common/log"

	clientv3 "go.etcd.io/etcd/client/v3"
)

/*
etcd 注册器
	1.game 节点注册到 etcd，以供 march 节点负载均衡
	2.需要特别关注 etcd 服务的租约机制
*/

type Registry struct {
	etcdCli     *clientv3.Client
	leaseID     clientv3.LeaseID
	DialTimeout int
	keepAliveCh <-chan *clientv3.LeaseKeepAliveResponse
	info        Server
	closeCh     chan struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		DialTimeout: 3,
	}
}

func (r *Registry) Register(conf config.EtcdConf, info Server) error {
	if info.NodeID == "" {
		return fmt.Errorf("nodeID 不能为空，NATS 通信需要 nodeID")
	}
	if info.Ttl <= 0 {
		info.Ttl = conf.LeaseTTL
	}
	if info.Ttl <= 0 {
		info.Ttl = 10
	}
	r.info = info

	var err error
	r.etcdCli, err = clientv3.New(clientv3.Config{
		Endpoints:   conf.Addrs,
		DialTimeout: time.Duration(r.DialTimeout) * time.Second,
	})
	if err != nil {
		return err
	}

	err = r.doRegister()
	if err != nil {
		return err
	}

	r.closeCh = make(chan struct{})
	go r.watch()
	return nil
}

func (r *Registry) doRegister() error {
	// grantLease 和 bindLease 使用带超时的 context
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.DialTimeout)*time.Second)
	defer cancel()

	err := r.grantLease(ctx, r.info.Ttl)
	if err != nil {
		return err
	}

	// keepAlive 传 context.Background()，续期要跟随整个进程生命周期
	r.keepAliveCh, err = r.keepAlive(context.Background())
	if err != nil {
		return err
	}

	data, _ := json.Marshal(r.info)
	err = r.bindLease(ctx, r.info.buildKey(), string(data))
	log.Info("etcd 注册信息: %s", r.info.buildKey())
	return err
}

func (r *Registry) grantLease(ctx context.Context, ttl int) error {
	lease, err := r.etcdCli.Grant(ctx, int64(ttl))
	if err != nil {
		return err
	}
	r.leaseID = lease.ID
	return nil
}

func (r *Registry) bindLease(ctx context.Context, key, value string) error {
	_, err := r.etcdCli.Put(ctx, key, value, clientv3.WithLease(r.leaseID))
	if err != nil {
		log.Error("租约绑定失败: %v", err)
		return err
	}
	return nil
}

func (r *Registry) keepAlive(ctx context.Context) (<-chan *clientv3.LeaseKeepAliveResponse, error) {
	keepAliveCh, err := r.etcdCli.KeepAlive(ctx, r.leaseID)
	if err != nil {
		log.Error("租约续期失败: %v", err)
		return nil, err
	}
	return keepAliveCh, nil
}

// watch 租约丢失时重新注册，保证节点信息不因网络抖动永久消失
func (r *Registry) watch() {
	ticker := time.NewTicker(time.Duration(r.info.Ttl) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case res := <-r.keepAliveCh:
			if res == nil {
				if err := r.doRegister(); err != nil {
					log.Error("租约丢失后重新注册失败: %v", err)
				}
			}
		case <-ticker.C:
			if r.keepAliveCh == nil {
				if err := r.doRegister(); err != nil {
					log.Error("租约丢失后重新注册失败: %v", err)
				}
			}
		case <-r.closeCh:
			if err := r.unregister(); err != nil {
				log.Error("注销节点失败: %v", err)
			}
			if _, err := r.etcdCli.Revoke(context.Background(), r.leaseID); err != nil {
				log.Error("撤销租约失败: %v", err)
			}
			log.Info("关闭租约续期")
			return
		}
	}
}

// UpdateLoad 更新节点负载信息（复用已有租约，不重新注册）
func (r *Registry) UpdateLoad(load float64) error {
	r.info.Load = load

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.DialTimeout)*time.Second)
	defer cancel()

	data, err := json.Marshal(r.info)
	if err != nil {
		return err
	}

	_, err = r.etcdCli.Put(ctx, r.info.buildKey(), string(data), clientv3.WithLease(r.leaseID))
	return err
}

func (r *Registry) unregister() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.DialTimeout)*time.Second)
	defer cancel()

	_, err := r.etcdCli.Delete(ctx, r.info.buildKey())
	return err
}

func (r *Registry) Close() {
	r.closeCh <- struct{}{}
}
