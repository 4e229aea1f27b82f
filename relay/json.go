// Copyright 2021 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package relay

import (
	"encoding/json"
	"fmt"
)

const vsn = "2.0" // JSON-RPC 协议版本号。

var null = json.RawMessage("null") // JSON 中的 null，解析失败时作为 id 返回。

// jsonrpcMessage is the inbound request and the outbound response. Batches
// are not supported.
//
// 既可以是请求也可以是响应，具体取决于填充了哪些字段。
type jsonrpcMessage struct {
	Version string          `json:"jsonrpc,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"` // 原样回显给调用方。
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"` // 形如 [rawTxHex]。
	Error   *jsonError      `json:"error,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

func (msg *jsonrpcMessage) hasValidID() bool {
	return len(msg.ID) > 0 && msg.ID[0] != '{' && msg.ID[0] != '['
}

// 构造错误响应，仅当请求 id 有效时回显。
func (msg *jsonrpcMessage) errorResponse(err error) *jsonrpcMessage {
	resp := errorMessage(err)
	if msg != nil && msg.hasValidID() {
		resp.ID = msg.ID
	}
	return resp
}

func (msg *jsonrpcMessage) response(result json.RawMessage) *jsonrpcMessage {
	if len(result) == 0 {
		result = null
	}
	id := null
	if msg.hasValidID() {
		id = msg.ID
	}
	return &jsonrpcMessage{Version: vsn, ID: id, Result: result}
}

func errorMessage(err error) *jsonrpcMessage {
	code, message, data := errorObject(err)
	return &jsonrpcMessage{Version: vsn, ID: null, Error: &jsonError{
		Code:    code,
		Message: message,
		Data:    data,
	}}
}

// JSON-RPC 错误对象：code、message 以及可选的 data。
type jsonError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (err *jsonError) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("json-rpc error %d", err.Code)
	}
	return err.Message
}
