package protocol

import (
	"encoding/json"
	"errors"
)

/*
	pomelo 风格的包协议
	header: type(1 byte) + length(3 bytes, big endian)，body 为 json
*/

type PackageType byte

const (
	None         PackageType = 0x00
	Handshake    PackageType = 0x01 // 客户端发起握手
	HandshakeAck PackageType = 0x02 // 客户端确认握手
	Heartbeat    PackageType = 0x03
	Data         PackageType = 0x04
	Kick         PackageType = 0x05 // 服务端主动踢下线
)

const HeaderLen = 4
const MaxPacketSize = 1 << 24

var ErrWrongPacketType = errors.New("wrong packet type")
var ErrPacketSizeExceed = errors.New("packet size exceed")

type Packet struct {
	Type   PackageType
	Length int
	Body   []byte
}

// ParseBody 把 Data 包的 body 解析成 Message，解析失败返回空 Message
func (p *Packet) ParseBody() *Message {
	var message Message
	if err := json.Unmarshal(p.Body, &message); err != nil {
		return &Message{}
	}
	return &message
}

// Wrap 打包，header + body
func Wrap(typ PackageType, body []byte) ([]byte, error) {
	if typ < Handshake || typ > Kick {
		return nil, ErrWrongPacketType
	}
	if len(body) > MaxPacketSize {
		return nil, ErrPacketSizeExceed
	}

	buf := make([]byte, HeaderLen+len(body))
	buf[0] = byte(typ)
	copy(buf[1:HeaderLen], intToBytes(len(body)))
	copy(buf[HeaderLen:], body)
	return buf, nil
}

// Unwrap 解包，一条完整的帧对应一个 Packet
func Unwrap(data []byte) (*Packet, error) {
	if len(data) < HeaderLen {
		return nil, ErrWrongPacketType
	}

	typ := PackageType(data[0])
	if typ < Handshake || typ > Kick {
		return nil, ErrWrongPacketType
	}

	length := bytesToInt(data[1:HeaderLen])
	if length > len(data)-HeaderLen {
		return nil, ErrPacketSizeExceed
	}

	return &Packet{
		Type:   typ,
		Length: length,
		Body:   data[HeaderLen : HeaderLen+length],
	}, nil
}

// intToBytes 大端编码 3 字节长度
func intToBytes(n int) []byte {
	return []byte{
		byte((n >> 16) & 0xFF),
		byte((n >> 8) & 0xFF),
		byte(n & 0xFF),
	}
}

func bytesToInt(b []byte) int {
	result := 0
	for _, v := range b {
		result = result<<8 + int(v)
	}
	return result
}
