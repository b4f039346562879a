package osc_test

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/pkg/errors"
	goosc "github.com/scgolang/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/auditraq"
	"github.com/dudk/auditraq/osc"
)

var _ auditraq.Transport = (*osc.Transport)(nil)

func TestMessage(t *testing.T) {
	m, err := osc.Message(auditraq.TimestampEvent(auditraq.AddressBeatRaw, 1546300800000))
	require.NoError(t, err)
	assert.Equal(t, auditraq.AddressBeatRaw, m.Address)
	assert.Len(t, m.Arguments, 1)

	m, err = osc.Message(auditraq.NewEvent(auditraq.AddressBPM, 120.0))
	require.NoError(t, err)
	assert.Len(t, m.Arguments, 1)

	_, err = osc.Message(auditraq.NewEvent(auditraq.AddressBPM, []byte("x")))
	assert.Equal(t, osc.ErrUnsupportedArgument, errors.Cause(err))

	_, err = osc.Encode(auditraq.Bundle{
		auditraq.NewEvent(auditraq.AddressBPM, 120.0),
		auditraq.NewEvent(auditraq.AddressBPM, struct{}{}),
	})
	assert.Error(t, err)
}

func TestEncode(t *testing.T) {
	b, err := osc.Encode(auditraq.Bundle{
		auditraq.TimestampEvent(auditraq.AddressBeatRaw, 1),
		auditraq.NewEvent(auditraq.AddressBPM, 120.0),
	})
	require.NoError(t, err)
	assert.Len(t, b.Packets, 2)
	assert.Equal(t, goosc.Immediately, b.Timetag)
	data := b.Bytes()
	assert.True(t, bytes.HasPrefix(data, []byte("#bundle\x00")))
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 1}, data[8:16])
}

func TestTransport(t *testing.T) {
	laddr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	require.NoError(t, err)
	server, err := net.ListenUDP("udp", laddr)
	require.NoError(t, err)
	defer server.Close()
	port := server.LocalAddr().(*net.UDPAddr).Port

	tr, err := osc.Dial("127.0.0.1", port)
	require.NoError(t, err)
	assert.Equal(t, server.LocalAddr().String(), tr.Addr())
	bundle := auditraq.Bundle{
		auditraq.TimestampEvent(auditraq.AddressBeatCleaned, 1546300800000),
		auditraq.TimestampEvent(auditraq.AddressNextBeat, 1546300802000),
		auditraq.NewEvent(auditraq.AddressLatency, "0 -0.04"),
	}
	require.NoError(t, tr.Send(bundle))

	buf := make([]byte, 2048)
	require.NoError(t, server.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := server.ReadFromUDP(buf)
	require.NoError(t, err)
	data := buf[:n]
	assert.True(t, bytes.HasPrefix(data, []byte("#bundle\x00")))
	cleaned := bytes.Index(data, []byte(auditraq.AddressBeatCleaned))
	next := bytes.Index(data, []byte(auditraq.AddressNextBeat))
	latency := bytes.Index(data, []byte(auditraq.AddressLatency))
	assert.True(t, cleaned > 0)
	assert.True(t, next > cleaned)
	assert.True(t, latency > next)
	assert.True(t, bytes.Contains(data, []byte("1546300800000")))

	assert.NoError(t, tr.Close())
}
