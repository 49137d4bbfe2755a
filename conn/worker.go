package conn

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/curetcore/dominodominicano/common/config"
	"github.com/curetcore/dominodominicano/common/jwts"
	"github.com/curetcore/dominodominicano/common/log"
	"github.com/curetcore/dominodominicano/common/utils"
	"github.com/curetcore/dominodominicano/core/domain/repository"
	"github.com/curetcore/dominodominicano/core/infrastructure/cache"
	"github.com/curetcore/dominodominicano/core/infrastructure/message/node"
	"github.com/curetcore/dominodominicano/core/infrastructure/message/protocol"
	"github.com/curetcore/dominodominicano/core/infrastructure/message/transfer"
)

var (
	websocketUpgrade = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		EnableCompression: true,
	}
)

const (
	defaultAcceptRate  = 100 // 每秒放行的新连接数
	defaultAcceptBurst = 100
)

// newAcceptLimiter 按 connector 配置构建握手限流器，未配置的项走默认值
func newAcceptLimiter(cfg *config.ConnectorConfiguration) *utils.RateLimiter {
	rate := cfg.AcceptRate
	if rate <= 0 {
		rate = defaultAcceptRate
	}
	burst := cfg.AcceptBurst
	if burst <= 0 {
		burst = defaultAcceptBurst
	}
	return utils.NewRateLimiter(rate, burst)
}

type CheckOriginHandler func(r *http.Request) bool

type PacketTypeHandler func(packet *protocol.Packet, c Connection) error

type ClientBucket struct {
	sync.RWMutex
	clients map[string]Connection
}

/*
	连接器职责：
	1. 正确处理玩家长连接的生命周期、读写事件
	2. connector.* 路由走本地处理器，march.*、game.* 路由转发到对应节点
	3. 转发时注入 userID 和本节点 topic，下游节点据此鉴别玩家并回推
	4. 监听 nats，收到 game/march 节点的 Push 和 Response 后路由回客户端
	5. 维护 userID -> game 节点的本地路由缓存，未命中再查 redis 路由
	6. 检测到连接断开时通知 game 节点，触发机器人托管

	数据流向 LongConnection.ReadChan=Worker.ClientReadChan -> clientBuckets[connID]
*/

type Worker struct {
	dataLock           sync.RWMutex // 仅用于保护 data 字段
	websocketUpgrade   *websocket.Upgrader
	nodeID             string
	marchTopic         string
	CheckOriginHandler CheckOriginHandler
	data               map[string]any

	clientBuckets     []*ClientBucket
	ClientReadChan    chan *ConnectionPack
	clientWorkers     []chan *ConnectionPack
	clientHandlers    map[protocol.PackageType]PacketTypeHandler
	bucketMask        uint32
	clientWorkerCount int

	MiddleWorker *node.NatsWorker

	LocalHandlers LogicHandler

	maxConnectionCount int
	connSemaphore      chan struct{}
	stats              struct {
		messageProcessed   int64
		messageErrors      int64
		avgProcessingTime  int64
		currentConnections int32
	}

	connMap        sync.Map
	isRunning      bool
	acceptLimiter  *utils.RateLimiter
	GameRouteCache *cache.GameRouteCache
	routerRepo     repository.UserRouterRepository
}

func NewWorker(natsWorker *node.NatsWorker, routerRepo repository.UserRouterRepository) *Worker {
	bucketCount := 32
	bucketMask := uint32(bucketCount - 1)
	workerCount := runtime.NumCPU() * 2

	nodeID := config.ConnectorConfig.ID
	if nodeID == "" {
		log.Fatal("connector 配置 ID 为空")
		return nil
	}

	w := &Worker{
		nodeID:             nodeID,
		marchTopic:         config.ConnectorConfig.MarchTopic,
		ClientReadChan:     make(chan *ConnectionPack, 2048),
		clientHandlers:     make(map[protocol.PackageType]PacketTypeHandler),
		MiddleWorker:       natsWorker,
		data:               make(map[string]any),
		LocalHandlers:      make(LogicHandler),
		bucketMask:         bucketMask,
		clientWorkerCount:  workerCount,
		maxConnectionCount: 100000,
		connSemaphore:      make(chan struct{}, 100000),
		acceptLimiter:      newAcceptLimiter(&config.ConnectorConfig),
		routerRepo:         routerRepo,
	}

	// 初始化客户端分片
	w.clientBuckets = make([]*ClientBucket, bucketCount)
	for i := 0; i < bucketCount; i++ {
		w.clientBuckets[i] = NewClientBucket()
	}

	// 初始化客户端工作池
	w.clientWorkers = make([]chan *ConnectionPack, workerCount)
	for i := 0; i < workerCount; i++ {
		w.clientWorkers[i] = make(chan *ConnectionPack, 256)
	}

	w.CheckOriginHandler = func(r *http.Request) bool {
		return true
	}

	gameRouteCache, err := cache.NewGameRouteCache()
	if err != nil {
		log.Fatal("创建用户路由缓存失败: %v", err)
		return nil
	}
	w.GameRouteCache = gameRouteCache

	return w
}

func NewClientBucket() *ClientBucket {
	return &ClientBucket{
		clients: make(map[string]Connection),
	}
}

// Run 启动 nats 监听和 websocket 服务，阻塞在 http 监听上
func (w *Worker) Run(natsURL string, addr string) error {
	if w.isRunning {
		return nil
	}

	log.Info("connector worker 组件正在配置")
	w.isRunning = true

	w.MiddleWorker.RegisterPushHandler(w.handlePush)
	err := w.MiddleWorker.Run(natsURL, w.nodeID)
	if err != nil {
		log.Fatal("nats 启动失败")
		return err
	}

	log.Info("websocket worker 正在启动服务")
	for i := 0; i < w.clientWorkerCount; i++ {
		go w.clientWorkerRoutine(i)
	}

	go w.clientReadRoutine()
	go w.monitorPerformance()
	w.injectDefaultHandlers()

	http.HandleFunc("/ws/", w.upgradeFunc) // 注意匹配子路径
	log.Info("websocket worker 启动了 %d 个 worker 协程和 %d 个连接分片桶", w.clientWorkerCount, len(w.clientBuckets))
	log.Info("http 监听地址 %s", addr)
	return http.ListenAndServe(addr, nil)
}

func (w *Worker) injectDefaultHandlers() {
	w.clientHandlers[protocol.Handshake] = w.handshakeHandler
	w.clientHandlers[protocol.HandshakeAck] = w.handshakeAckHandler
	w.clientHandlers[protocol.Heartbeat] = w.heartbeatHandler
	w.clientHandlers[protocol.Data] = w.messageHandler
	w.clientHandlers[protocol.Kick] = w.kickHandler

	w.LocalHandlers["connector.joinqueue"] = joinQueueHandler
	w.LocalHandlers["connector.cancelqueue"] = cancelQueueHandler
	w.LocalHandlers["connector.reconnect"] = reconnectHandler
}

func (w *Worker) upgradeFunc(writer http.ResponseWriter, r *http.Request) {
	userID, err := w.identifyUser(r)
	if err != nil {
		http.Error(writer, "unauthorized", http.StatusUnauthorized)
		log.Warn("连接鉴权失败 remote=%s err=%v", r.RemoteAddr, err)
		return
	}
	if !w.acceptLimiter.Allow() {
		http.Error(writer, "Too many connections", http.StatusTooManyRequests)
		log.Warn("连接速率限流 exceeded from %s", r.RemoteAddr)
		return
	}
	if atomic.LoadInt32(&w.stats.currentConnections) >= int32(w.maxConnectionCount) {
		http.Error(writer, "Server is at capacity", http.StatusServiceUnavailable)
		log.Warn("连接达到阈值 %s", r.RemoteAddr)
		return
	}

	var upgrade *websocket.Upgrader
	if w.websocketUpgrade == nil {
		upgrade = &websocketUpgrade
	} else {
		upgrade = w.websocketUpgrade
	}
	header := writer.Header()
	header.Add("Server", "domino-dominicano")
	log.Debug("WebSocket connection attempt from %s, User-Agent: %s", r.RemoteAddr, r.UserAgent())

	conn, err := upgrade.Upgrade(writer, r, nil)
	if err != nil {
		log.Error("websocket 升级失败, err:%#v", err)
		return
	}

	conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))

	client := takeLongConnection(conn, w)
	client.TakeSession().SetUserID(userID)
	w.BindUser(userID, client)
	w.addClient(client)
	client.Run()
	log.Debug("WebSocket connection established: userID=%s cid=%s remote=%s", userID, client.ConnID, r.RemoteAddr)
}

func (w *Worker) addClient(client *LongConnection) {
	bucket := w.getBucket(client.ConnID)

	select {
	case w.connSemaphore <- struct{}{}:
		bucket.Lock()
		bucket.clients[client.ConnID] = client
		bucket.Unlock()

		w.dataLock.RLock()
		client.TakeSession().SetAll(w.data)
		w.dataLock.RUnlock()

		atomic.AddInt32(&w.stats.currentConnections, 1)
	default:
		log.Warn("addClient: 连接数达到上限")
		client.Close()
	}
}

func (w *Worker) removeClient(con *LongConnection) {
	bucket := w.getBucket(con.ConnID)
	removed := false

	bucket.Lock()
	if _, ok := bucket.clients[con.ConnID]; ok {
		delete(bucket.clients, con.ConnID)
		removed = true
	}
	bucket.Unlock()

	if !removed {
		return
	}

	if session := con.TakeSession(); session != nil {
		w.notifyGameDisconnect(session)
		w.UnbindUser(session.GetUserID(), con)
	}

	con.Close()

	if w.connSemaphore != nil {
		select {
		case <-w.connSemaphore:
		default:
		}
	}

	atomic.AddInt32(&w.stats.currentConnections, -1)
}

// notifyGameDisconnect 连接断开时通知 game 节点，让机器人接管
func (w *Worker) notifyGameDisconnect(session *Session) {
	userID := session.GetUserID()
	gameTopic := session.GetGamingTopic()
	if userID == "" || gameTopic == "" {
		return
	}

	data, _ := json.Marshal(map[string]any{"userID": userID})
	packet := &transfer.ServicePacket{
		Source:      w.nodeID,
		Destination: gameTopic,
		Route:       transfer.GameDisconnect,
		Body: &protocol.Message{
			Type:  protocol.Notify,
			Route: transfer.GameDisconnect,
			Data:  data,
		},
	}
	if err := w.MiddleWorker.PushMessage(packet); err != nil {
		log.Warn("connector 通知断线失败 userID=%s err=%v", userID, err)
	}
}

func (w *Worker) Close() {
	if w.isRunning {
		if w.MiddleWorker != nil {
			w.MiddleWorker.Close()
		}
		if w.GameRouteCache != nil {
			w.GameRouteCache.Close()
		}
		w.isRunning = false
	}
}

func (w *Worker) clientWorkerRoutine(workerID int) {
	for messagePack := range w.clientWorkers[workerID] {
		startTime := time.Now()

		w.dealPack(messagePack)

		processingTime := time.Since(startTime).Milliseconds()
		atomic.AddInt64(&w.stats.messageProcessed, 1)
		oldAvg := atomic.LoadInt64(&w.stats.avgProcessingTime)
		newAvg := (oldAvg*9 + processingTime) / 10
		atomic.StoreInt64(&w.stats.avgProcessingTime, newAvg)
	}
}

func (w *Worker) clientReadRoutine() {
	for messagePack := range w.ClientReadChan {
		hash := fnv32(messagePack.ConnID)
		workerID := hash % uint32(w.clientWorkerCount)
		select {
		case w.clientWorkers[workerID] <- messagePack:
			// 分发到工作池
		default:
			atomic.AddInt64(&w.stats.messageErrors, 1)
			log.Warn("工作池满了，直接处理:\n workerID:%#v\n messagePack:%#v", workerID, messagePack)
			w.dealPack(messagePack)
		}
	}
}

func (w *Worker) monitorPerformance() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		log.Debug("性能监控: connections=%d, messages_processed=%d, avg_processing_time=%dms, errors=%d",
			atomic.LoadInt32(&w.stats.currentConnections),
			atomic.LoadInt64(&w.stats.messageProcessed),
			atomic.LoadInt64(&w.stats.avgProcessingTime),
			atomic.LoadInt64(&w.stats.messageErrors))
	}
}

// send 把消息打包成客户端协议帧后发给指定用户
func (w *Worker) send(typ protocol.MessageType, userID, route string, data []byte) error {
	message := &protocol.Message{
		Type:  typ,
		Route: route,
		Data:  data,
	}
	buf, err := protocol.MessageEncode(message)
	if err != nil {
		return err
	}
	res, err := protocol.Wrap(protocol.Data, buf)
	if err != nil {
		return err
	}
	return w.sendRaw(userID, res)
}

func (w *Worker) sendRaw(userID string, buf []byte) error {
	connAny, ok := w.connMap.Load(userID)
	if !ok {
		return fmt.Errorf("找不到在线用户: %s", userID)
	}
	conn, ok := connAny.(Connection)
	if !ok {
		return fmt.Errorf("索引类型断言失败: %s", userID)
	}
	return conn.SendMessage(buf)
}

func (w *Worker) dealPack(messagePack *ConnectionPack) {
	packet, err := protocol.Unwrap(messagePack.Body)
	if err != nil {
		atomic.AddInt64(&w.stats.messageErrors, 1)
		log.Error("解码错误, pack: %#v, err: %#v", packet, err)
		return
	}
	if err := w.doEvent(packet, messagePack.ConnID); err != nil {
		atomic.AddInt64(&w.stats.messageErrors, 1)
		log.Error("事件处理错误, pack: %#v, err: %#v", packet, err)
		return
	}
}

// doEvent 处理协议层的事件
func (w *Worker) doEvent(packet *protocol.Packet, connID string) error {
	bucket := w.getBucket(connID)

	bucket.RLock()
	conn, ok := bucket.clients[connID]
	bucket.RUnlock()

	if !ok {
		return errors.New("找不到客户端桶")
	}

	handler, ok := w.clientHandlers[packet.Type]
	if !ok {
		return errors.New("找不到处理器")
	}

	return handler(packet, conn)
}

func (w *Worker) getBucket(connID string) *ClientBucket {
	hash := fnv32(connID)
	index := hash & w.bucketMask
	return w.clientBuckets[index]
}

func fnv32(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32()
}

// identifyUser 从 url query 的 barrier token 解出 userID
func (w *Worker) identifyUser(r *http.Request) (string, error) {
	token := r.URL.Query().Get("barrier")
	if token == "" {
		return "", errors.New("缺少 barrier token")
	}

	secret := config.ConnectorConfig.JwtConf.Secret
	if secret == "" {
		return "", errors.New("未配置 jwt secret")
	}

	userID, err := jwts.ParseToken(token, secret)
	if err != nil {
		return "", err
	}
	if userID == "" {
		return "", errors.New("token 中 userID 为空")
	}
	return userID, nil
}

func (w *Worker) BindUser(userID string, conn Connection) {
	if userID == "" || conn == nil {
		return
	}

	if oldConn, ok := w.connMap.Load(userID); ok {
		if existing, ok := oldConn.(Connection); ok && existing != conn {
			log.Info("用户 %s 已有连接，踢出旧连接", userID)
			existing.Close()
		}
	}

	w.connMap.Store(userID, conn)
}

func (w *Worker) UnbindUser(userID string, conn Connection) {
	if userID == "" {
		return
	}

	if stored, ok := w.connMap.Load(userID); ok {
		if conn == nil || stored == conn {
			w.connMap.Delete(userID)
		}
	}
}

func (w *Worker) handshakeHandler(packet *protocol.Packet, conn Connection) error {
	log.Debug("握手事件发生: %#v", packet.ParseBody())
	res := protocol.HandshakeResponse{
		Code: 200,
		Sys: protocol.Sys{
			Heartbeat: 3,
		},
	}
	data, _ := json.Marshal(res)
	buf, err := protocol.Wrap(packet.Type, data)
	if err != nil {
		log.Error("handshakeHandler 打包错误 err:%v", err)
		return err
	}
	return conn.SendMessage(buf)
}

func (w *Worker) handshakeAckHandler(packet *protocol.Packet, c Connection) error {
	log.Debug("握手确认事件发生: %#v", packet.ParseBody())
	return nil
}

func (w *Worker) heartbeatHandler(packet *protocol.Packet, conn Connection) error {
	log.Debug("心跳事件发生: %#v", packet.ParseBody())
	var res []byte
	data, _ := json.Marshal(res)
	buf, err := protocol.Wrap(packet.Type, data)
	if err != nil {
		log.Error("heartbeatHandler 打包错误 err:%v", err)
		return err
	}
	return conn.SendMessage(buf)
}

// messageHandler 客户端业务消息入口
// connector.* 走本地处理器，march.* 和 game.* 转发到对应节点
func (w *Worker) messageHandler(packet *protocol.Packet, conn Connection) error {
	parse := packet.ParseBody()
	route := parse.Route // 如 game.play.place
	routeList := strings.Split(route, ".")
	if len(routeList) < 2 {
		return fmt.Errorf("route 格式错误, %v", parse)
	}

	if routeList[0] == "connector" {
		handler, exi := w.LocalHandlers[route]
		if !exi {
			log.Warn("messageHandler 发现不支持的路由, %#v", parse)
			return nil
		}
		data, err := handler(conn.TakeSession(), parse.Data)
		if err != nil {
			return err
		}
		if data == nil {
			return nil
		}
		marshal, _ := json.Marshal(data)
		parse.Type = protocol.Response
		parse.Data = marshal
		encode, err := protocol.MessageEncode(parse)
		if err != nil {
			log.Warn("messageHandler 编码错误, %#v", data)
			return err
		}
		res, err := protocol.Wrap(packet.Type, encode)
		if err != nil {
			log.Warn("messageHandler 打包错误, %#v", data)
			return err
		}
		return conn.SendMessage(res)
	}

	return w.forwardToNode(conn.TakeSession(), parse, routeList[0])
}

// forwardToNode 转发客户端消息到 march 或 game 节点
func (w *Worker) forwardToNode(session *Session, message *protocol.Message, nodeType string) error {
	userID := session.GetUserID()
	if userID == "" {
		return errors.New("转发消息缺少 userID")
	}

	var destination string
	switch nodeType {
	case "march":
		destination = w.marchTopic
	case "game":
		topic, err := w.resolveGameTopic(session)
		if err != nil {
			return err
		}
		destination = topic
	default:
		return transfer.ErrInvalidRoute
	}
	if destination == "" {
		return transfer.ErrNoAvailableInstance
	}

	injected, err := injectSessionInfo(message.Data, userID, w.nodeID)
	if err != nil {
		return err
	}
	message.Data = injected

	packet := &transfer.ServicePacket{
		Source:      w.nodeID,
		Destination: destination,
		Route:       message.Route,
		PushUser:    []string{userID},
		Body:        message,
	}
	return w.MiddleWorker.PushMessage(packet)
}

// resolveGameTopic 定位玩家所在的 game 节点
// session 缓存 -> 本地路由缓存 -> redis 路由
func (w *Worker) resolveGameTopic(session *Session) (string, error) {
	if topic := session.GetGamingTopic(); topic != "" {
		return topic, nil
	}

	userID := session.GetUserID()
	if topic, ok := w.GameRouteCache.Get(userID); ok {
		session.SetGamingTopic(topic)
		return topic, nil
	}

	info, err := w.lookupRouter(userID)
	if err != nil {
		return "", err
	}
	w.GameRouteCache.Set(userID, info.GameTopic)
	session.SetGamingTopic(info.GameTopic)
	return info.GameTopic, nil
}

func (w *Worker) lookupRouter(userID string) (*repository.UserRouterInfo, error) {
	if w.routerRepo == nil {
		return nil, transfer.ErrRouterNotFound
	}
	ctx, cancel := routerContext()
	defer cancel()
	return w.routerRepo.GetRouter(ctx, userID)
}

// injectSessionInfo 把 userID 和 connector topic 注入消息体
// 下游节点只拿得到 body.Data，身份信息必须随包携带
func injectSessionInfo(data []byte, userID, connectorTopic string) ([]byte, error) {
	body := make(map[string]any)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, transfer.ErrInvalidMessage
		}
	}
	body["userID"] = userID
	body["connectorTopic"] = connectorTopic
	return json.Marshal(body)
}

func (w *Worker) kickHandler(packet *protocol.Packet, conn Connection) error {
	log.Debug("踢人事件发生: %#v", packet.ParseBody())

	return nil
}
