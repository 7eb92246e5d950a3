// SPDX-License-Identifier: MIT
/*
Package transport delivers analysis events to external consumers. Two
implementations are provided: a WebSocket broadcaster for browser
visualizers and a logging transport for headless debugging. A UDP
publisher for fixed-rate binary frames lives in the udp subpackage.
*/
package transport

// Transport defines a generic interface for sending processed data or
// events. Implementations must be safe for concurrent use.
type Transport interface {
	Send(data any) error
	Close() error
}
