package transport

import (
	"fmt"
	"net"
)

// DialUnicast opens a UDP socket bound to localAddr (may be "") and
// returns it along with the peer address to write to, for the unicast
// transport mode named in spec.md §4.3.
func DialUnicast(localAddr, peerAddr string) (net.PacketConn, net.Addr, error) {
	conn, err := net.ListenPacket("udp", localAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("transport: listen udp %s: %w", localAddr, err)
	}
	dest, err := net.ResolveUDPAddr("udp", peerAddr)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("transport: resolve peer %s: %w", peerAddr, err)
	}
	return conn, dest, nil
}

// DialMulticast joins groupAddr (administratively-scoped IPv4 group) on
// iface and returns a socket with TTL=1 set for sending, for the
// multicast transport mode named in spec.md §4.3. The returned PacketConn
// is also suitable for receiving on the same group.
func DialMulticast(groupAddr string, iface *net.Interface) (*net.UDPConn, *net.UDPAddr, error) {
	addr, err := net.ResolveUDPAddr("udp4", groupAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("transport: resolve multicast group %s: %w", groupAddr, err)
	}
	conn, err := net.ListenMulticastUDP("udp4", iface, addr)
	if err != nil {
		return nil, nil, fmt.Errorf("transport: join multicast group %s: %w", groupAddr, err)
	}
	// TTL=1 per spec.md §4.3: net.UDPConn has no portable
	// SetMulticastTTL, so callers that need a non-default TTL should
	// wrap conn with golang.org/x/net/ipv4.NewPacketConn. Administratively
	// scoped groups combined with the default TTL of 1 cover the common case.
	return conn, addr, nil
}
