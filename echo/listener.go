package echo

import (
	"bufio"
	"net"

	proxyproto "github.com/pires/go-proxyproto"
)

// NewListener returns a listener that accepts connections which may begin
// with a PROXY protocol header. When a header is present, the connection's
// addresses are those described by the header.
func NewListener(l net.Listener) net.Listener {
	return &proxyListener{l}
}

type proxyListener struct {
	net.Listener
}

// Accept waits for and returns the next connection to the listener.
// Connections with a malformed PROXY header are closed and skipped.
func (l *proxyListener) Accept() (net.Conn, error) {
	for {
		c, err := l.Listener.Accept()
		if err != nil {
			return nil, err
		}

		pc, err := newProxyConn(c)
		if err == nil {
			return pc, nil
		}

		c.Close()
	}
}

// proxyConn is a net.Conn that has consumed an optional PROXY header.
type proxyConn struct {
	net.Conn

	rd     *bufio.Reader
	local  net.Addr
	remote net.Addr
}

func newProxyConn(c net.Conn) (net.Conn, error) {
	pc := &proxyConn{
		Conn: c,
		rd:   bufio.NewReader(c),
	}

	hdr, err := proxyproto.Read(pc.rd)
	switch err {
	case nil:
		if hdr.Command == proxyproto.PROXY {
			pc.local = &net.TCPAddr{IP: hdr.DestinationAddress, Port: int(hdr.DestinationPort)}
			pc.remote = &net.TCPAddr{IP: hdr.SourceAddress, Port: int(hdr.SourcePort)}
		}
	case proxyproto.ErrNoProxyProtocol, proxyproto.ErrInvalidLength:
		// Not a PROXY header, the connection is used as-is.
	default:
		return nil, err
	}

	return pc, nil
}

func (c *proxyConn) Read(b []byte) (int, error) {
	return c.rd.Read(b)
}

func (c *proxyConn) LocalAddr() net.Addr {
	if c.local != nil {
		return c.local
	}

	return c.Conn.LocalAddr()
}

func (c *proxyConn) RemoteAddr() net.Addr {
	if c.remote != nil {
		return c.remote
	}

	return c.Conn.RemoteAddr()
}
