package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/curetcore/dominodominicano/common/config"
	"github.com/curetcore/dominodominicano/common/log"
	"github.com/curetcore/dominodominicano/common/metrics"
	"github.com/curetcore/dominodominicano/core/app"
)

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "dominodominicano",
	Short: "多米尼加多米诺对战服务",
	Long:  `多米尼加多米诺对战服务，按节点类型分为 connector、game、march 三种进程`,
}

var gameCmd = &cobra.Command{
	Use:   "game",
	Short: "game 对局服务",
	Run: func(cmd *cobra.Command, args []string) {
		bootstrap("game", func() (string, int) {
			return config.GameNodeConfig.ID, config.GameNodeConfig.MetricPort
		}, app.RunGame)
	},
}

var connectorCmd = &cobra.Command{
	Use:   "connector",
	Short: "connector 网关服务",
	Run: func(cmd *cobra.Command, args []string) {
		bootstrap("connector", func() (string, int) {
			return config.ConnectorConfig.ID, config.ConnectorConfig.MetricPort
		}, app.RunConnector)
	},
}

var marchCmd = &cobra.Command{
	Use:   "march",
	Short: "march 匹配服务",
	Run: func(cmd *cobra.Command, args []string) {
		bootstrap("march", func() (string, int) {
			return config.MarchNodeConfig.ID, config.MarchNodeConfig.MetricPort
		}, app.RunMarch)
	},
}

// bootstrap 读配置、起日志、起监控，再进入节点主循环
func bootstrap(nodeType string, nodeInfo func() (string, int), run func(context.Context) error) {
	if err := config.Load(configFile); err != nil {
		fmt.Fprintf(os.Stderr, "配置加载失败: %v\n", err)
		os.Exit(-1)
	}
	nodeID, metricPort := nodeInfo()
	log.InitLog(nodeID, logLevel)
	log.Info("节点启动: type=%s, id=%s, config=%s", nodeType, nodeID, configFile)

	if metricPort > 0 {
		go func() {
			log.Info("启动监控..., URL: http://localhost:%d/debug/statsviz/", metricPort)
			if err := metrics.Serve(fmt.Sprintf("0.0.0.0:%d", metricPort)); err != nil {
				log.Error("监控服务异常: %v", err)
			}
		}()
	}

	if err := run(context.Background()); err != nil {
		log.Error("发生异常: %v", err)
		os.Exit(-1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "resource/application.yml", "config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "logLevel", "info", "log level: debug, info, warn, error")
	rootCmd.AddCommand(gameCmd, connectorCmd, marchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error("error happen: %#v", err)
		os.Exit(1)
	}
}
