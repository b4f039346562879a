// Package osc delivers event bundles as OSC bundles over UDP.
package osc

import (
	"net"
	"strconv"

	"github.com/pkg/errors"
	"github.com/scgolang/osc"

	"github.com/dudk/auditraq"
)

// ErrUnsupportedArgument is returned for event arguments without OSC type.
var ErrUnsupportedArgument = errors.New("unsupported argument type")

// Transport sends bundles to a single UDP endpoint.
type Transport struct {
	conn *osc.UDPConn
	addr string
}

// Dial resolves the address and opens the UDP connection.
func Dial(host string, port int) (*Transport, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s", addr)
	}
	conn, err := osc.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", addr)
	}
	return &Transport{
		conn: conn,
		addr: addr,
	}, nil
}

// Addr returns the remote address.
func (t *Transport) Addr() string {
	return t.addr
}

// Send encodes the bundle and writes it in a single datagram.
func (t *Transport) Send(b auditraq.Bundle) error {
	bundle, err := Encode(b)
	if err != nil {
		return err
	}
	if err := t.conn.Send(bundle); err != nil {
		return errors.Wrapf(err, "sending bundle to %s", t.addr)
	}
	return nil
}

// Close closes the connection.
func (t *Transport) Close() error {
	return t.conn.Close()
}

// Encode converts events to OSC messages packed into a bundle with the
// immediate time tag.
func Encode(b auditraq.Bundle) (osc.Bundle, error) {
	packets := make([]osc.Packet, 0, len(b))
	for _, e := range b {
		m, err := Message(e)
		if err != nil {
			return osc.Bundle{}, err
		}
		packets = append(packets, m)
	}
	return osc.Bundle{
		Timetag: osc.Immediately,
		Packets: packets,
	}, nil
}

// Message converts a single event. Strings become s, floats become f and
// integers become i.
func Message(e auditraq.Event) (osc.Message, error) {
	args := make(osc.Arguments, 0, len(e.Args))
	for _, a := range e.Args {
		switch v := a.(type) {
		case string:
			args = append(args, osc.String(v))
		case float64:
			args = append(args, osc.Float(v))
		case float32:
			args = append(args, osc.Float(v))
		case int32:
			args = append(args, osc.Int(v))
		case int:
			args = append(args, osc.Int(int32(v)))
		default:
			return osc.Message{}, errors.Wrapf(ErrUnsupportedArgument, "%s: %T", e.Address, a)
		}
	}
	return osc.Message{
		Address:   e.Address,
		Arguments: args,
	}, nil
}
