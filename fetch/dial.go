package fetch

import (
	"context"
	"net"

	proxyproto "github.com/pires/go-proxyproto"
	"go.uber.org/multierr"
)

// dial connects to addr, writing a PROXY protocol header if the client is
// configured to do so.
func (c *Client) dial(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil || !c.ProxyProtocol {
		return conn, err
	}

	if err := writeProxyHeader(conn); err != nil {
		return nil, multierr.Append(err, conn.Close())
	}

	return conn, nil
}

// writeProxyHeader writes a PROXY protocol v2 header describing conn's
// endpoints. If the endpoints are not TCP addresses a LOCAL header is written
// instead.
func writeProxyHeader(conn net.Conn) error {
	header := &proxyproto.Header{
		Command: proxyproto.LOCAL,
		Version: 2,
	}

	src, srcOK := conn.LocalAddr().(*net.TCPAddr)
	dst, dstOK := conn.RemoteAddr().(*net.TCPAddr)

	if srcOK && dstOK {
		header.Command = proxyproto.PROXY
		header.TransportProtocol = proxyproto.TCPv4
		if src.IP.To4() == nil {
			header.TransportProtocol = proxyproto.TCPv6
		}
		header.SourceAddress = src.IP
		header.SourcePort = uint16(src.Port)
		header.DestinationAddress = dst.IP
		header.DestinationPort = uint16(dst.Port)
	}

	_, err := header.WriteTo(conn)
	return err
}
