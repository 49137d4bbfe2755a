package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/curetcore/dominodominicano/common/log"
)

var ConnectorConfig ConnectorConfiguration
var GameNodeConfig GameConfiguration
var MarchNodeConfig MarchConfiguration

type BaseConfig struct {
	ID         string `mapstructure:"id"`
	ServerType string `mapstructure:"serverType"`
	MetricPort int    `mapstructure:"metricPort"`
}

func (cfg *BaseConfig) CallID() string {
	return cfg.ID
}

func (cfg *BaseConfig) CallNodeType() string {
	return cfg.ServerType
}

type ConnectorConfiguration struct {
	BaseConfig   `mapstructure:",squash"`
	DatabaseConf `mapstructure:"database"`
	JwtConf      `mapstructure:"jwt"`
	EtcdConf     `mapstructure:"etcd"`
	LogConf      `mapstructure:"log"`
	NatsConfig   `mapstructure:"nats"`
	WsAddr       string `mapstructure:"wsAddr"`      // websocket 监听地址，例如 0.0.0.0:8100
	MarchTopic   string `mapstructure:"marchTopic"`  // march 节点的 topic
	AcceptRate   int    `mapstructure:"acceptRate"`  // 每秒允许的新连接数，0 走默认值
	AcceptBurst  int    `mapstructure:"acceptBurst"` // 握手突发容量，0 走默认值
}

type GameConfiguration struct {
	BaseConfig   `mapstructure:",squash"`
	DatabaseConf `mapstructure:"database"`
	EtcdConf     `mapstructure:"etcd"`
	LogConf      `mapstructure:"log"`
	NatsConfig   `mapstructure:"nats"`
	GameRules    GameRulesConf `mapstructure:"rules"`
}

type MarchConfiguration struct {
	BaseConfig       `mapstructure:",squash"`
	DatabaseConf     `mapstructure:"database"`
	EtcdConf         `mapstructure:"etcd"`
	LogConf          `mapstructure:"log"`
	NatsConfig       `mapstructure:"nats"`
	MarchPoolConfigs []MarchPoolConfig `mapstructure:"marchPool"`
}

type LogConf struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

type EtcdConf struct {
	Addrs       []string `mapstructure:"addrs"`
	RWTimeout   int      `mapstructure:"rwTimeout"`
	DialTimeout int      `mapstructure:"dialTimeout"`
	LeaseTTL    int      `mapstructure:"leaseTTL"`
}

type JwtConf struct {
	Secret string `mapstructure:"secret"`
	Expire int    `mapstructure:"expire"`
}

type DatabaseConf struct {
	MongoConf MongoConf `mapstructure:"mongo"`
	RedisConf RedisConf `mapstructure:"redis"`
}

type MongoConf struct {
	Url         string `mapstructure:"url"`
	Db          string `mapstructure:"db"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	MinPoolSize int    `mapstructure:"minPoolSize"`
	MaxPoolSize int    `mapstructure:"maxPoolSize"`
}

type RedisConf struct {
	Addr         string   `mapstructure:"addr"`
	ClusterAddrs []string `mapstructure:"clusterAddrs"`
	Password     string   `mapstructure:"password"`
	PoolSize     int      `mapstructure:"poolSize"`
	MinIdleConns int      `mapstructure:"minIdleConns"`
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
}

type NatsConfig struct {
	URL string `json:"url" mapstructure:"url"`
}

// GameRulesConf 对局规则配置
// mode: classic / dominican；teamMode: individual / pairs
type GameRulesConf struct {
	Mode          string `mapstructure:"mode"`
	TeamMode      string `mapstructure:"teamMode"`
	TurnTimeout   int    `mapstructure:"turnTimeout"`   // 单回合出牌时间（秒）
	BotDifficulty string `mapstructure:"botDifficulty"` // easy / medium / hard
	RoundDelay    int    `mapstructure:"roundDelay"`    // 回合结束到下一回合的延迟（秒）
}

type MatchMode string
type MatchStrategy string

const (
	ModePairs4      MatchMode = "dominican:pairs4"
	ModeIndividual4 MatchMode = "dominican:individual4"
	ModeIndividual2 MatchMode = "classic:individual2"

	ScorePoll MatchStrategy = "poll" // zset 控制 + 先来先服务
)

type MarchPoolConfig struct {
	PoolID    MatchMode     `mapstructure:"poolID"`
	Strategy  MatchStrategy `mapstructure:"strategy"`
	BatchSize int           `mapstructure:"batchSize"`
	Internal  int64         `mapstructure:"internal"` // 匹配间隔，单位毫秒
}

// Load 读取配置文件并按 serverType 填充对应的全局配置
// NODE_ID 环境变量覆盖配置里的 id，容器化部署时必填
func Load(configFile string) error {
	v := viper.New()
	v.SetConfigFile(configFile)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	v.WatchConfig()
	v.OnConfigChange(func(in fsnotify.Event) {
		log.Warn("配置文件发生变更: %s，重启后生效", in.Name)
	})

	var base BaseConfig
	if err := v.Unmarshal(&base); err != nil {
		return err
	}
	if nodeID := os.Getenv("NODE_ID"); nodeID != "" {
		base.ID = nodeID
	}
	if base.ID == "" {
		return fmt.Errorf("节点 ID 缺失：配置 id 或 NODE_ID 环境变量必须设置其一")
	}

	switch base.ServerType {
	case "connector":
		var cfg ConnectorConfiguration
		if err := v.Unmarshal(&cfg); err != nil {
			return err
		}
		cfg.ID = base.ID
		ConnectorConfig = cfg
	case "game":
		var cfg GameConfiguration
		if err := v.Unmarshal(&cfg); err != nil {
			return err
		}
		cfg.ID = base.ID
		GameNodeConfig = cfg
	case "march":
		var cfg MarchConfiguration
		if err := v.Unmarshal(&cfg); err != nil {
			return err
		}
		cfg.ID = base.ID
		MarchNodeConfig = cfg
	default:
		return fmt.Errorf("unknown server type: %s", base.ServerType)
	}

	return nil
}
