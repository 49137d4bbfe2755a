package protocol

import "encoding/json"

type MessageType byte

const (
	Request  MessageType = 0x00 // 客户端请求，需要响应
	Notify   MessageType = 0x01 // 客户端通知，不需要响应
	Response MessageType = 0x02 // 服务端响应
	Push     MessageType = 0x03 // 服务端主动推送
)

// Message Data 包的 body
// Route 形如 room.create / game.play.place
type Message struct {
	Type  MessageType     `json:"type"`
	ID    uint            `json:"id,omitempty"` // Request/Response 的配对 id
	Route string          `json:"route,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func MessageEncode(m *Message) ([]byte, error) {
	return json.Marshal(m)
}

func MessageDecode(data []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Sys 握手响应的系统参数
type Sys struct {
	Heartbeat int `json:"heartbeat"` // 心跳间隔（秒）
}

type HandshakeResponse struct {
	Code int `json:"code"`
	Sys  Sys `json:"sys"`
}
