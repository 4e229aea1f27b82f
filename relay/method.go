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

// Method is one of the transaction submission methods the relay accepts.
//
// 封闭枚举：新增方法只能通过扩展此枚举完成。
type Method uint8

const (
	SendRawTransaction     Method = iota + 1 // eth_sendRawTransaction
	SendRawTransactionSync                   // eth_sendRawTransactionSync, waits for the receipt
)

var methodNames = map[string]Method{
	"eth_sendRawTransaction":     SendRawTransaction,
	"eth_sendRawTransactionSync": SendRawTransactionSync,
}

// ParseMethod looks up a JSON-RPC method name.
func ParseMethod(name string) (Method, bool) {
	m, ok := methodNames[name]
	return m, ok
}

func (m Method) String() string {
	switch m {
	case SendRawTransaction:
		return "eth_sendRawTransaction"
	case SendRawTransactionSync:
		return "eth_sendRawTransactionSync"
	default:
		return "unknown"
	}
}

// waitsForInclusion reports whether the chain answers only after the
// transaction is mined.
//
// 同步方法会等待交易被打包，因此使用更长的超时。
func (m Method) waitsForInclusion() bool {
	return m == SendRawTransactionSync
}
