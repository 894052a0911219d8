package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/bsod90/screenhero-sub001/pkg/media"
	"github.com/bsod90/screenhero-sub001/pkg/wireproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSenderReceiverLoopback(t *testing.T) {
	senderConn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer senderConn.Close()

	recvConn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer recvConn.Close()

	sender := NewSender(senderConn, recvConn.LocalAddr(), media.DefaultMTU, nil)

	received := make(chan media.EncodedPacket, 16)
	recv := NewReceiver(recvConn, 16*time.Millisecond, DefaultReassemblyCapacity, Handlers{
		OnVideoPacket: func(p media.EncodedPacket) { received <- p },
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go recv.Run(ctx)

	payload := make([]byte, 4000) // forces multiple fragments under 1400 MTU
	for i := range payload {
		payload[i] = byte(i)
	}
	pkt := media.EncodedPacket{
		FrameID:            7,
		Data:                payload,
		IsKeyframe:          true,
		Codec:               media.CodecH264,
		Width:               1920,
		Height:              1080,
		ParameterSets:       []byte{0, 0, 0, 1, 0x67, 0x42},
		PresentationTimeNs:  123,
	}
	require.NoError(t, sender.SendEncodedPacket(pkt))

	select {
	case got := <-received:
		assert.Equal(t, pkt.FrameID, got.FrameID)
		assert.Equal(t, pkt.Data, got.Data)
		assert.Equal(t, pkt.ParameterSets, got.ParameterSets)
		assert.True(t, got.IsKeyframe)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reassembled packet")
	}
}

func TestSenderReceiverInputAndConfig(t *testing.T) {
	senderConn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer senderConn.Close()

	recvConn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer recvConn.Close()

	sender := NewSender(senderConn, recvConn.LocalAddr(), media.DefaultMTU, nil)

	events := make(chan wireproto.InputEvent, 4)
	configs := make(chan wireproto.ConfigMessage, 4)
	recv := NewReceiver(recvConn, 16*time.Millisecond, DefaultReassemblyCapacity, Handlers{
		OnInputEvent: func(e wireproto.InputEvent) { events <- e },
		OnConfigMsg:  func(c wireproto.ConfigMessage) { configs <- c },
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go recv.Run(ctx)

	require.NoError(t, sender.SendInputEvent(wireproto.InputEvent{Type: wireproto.InputMouseMove, X: 0.5, Y: 0.5}))
	require.NoError(t, sender.SendConfigMessage(wireproto.ConfigMessage{Type: wireproto.ConfigUpdate}))

	select {
	case e := <-events:
		assert.Equal(t, wireproto.InputMouseMove, e.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for input event")
	}
	select {
	case c := <-configs:
		assert.Equal(t, wireproto.ConfigUpdate, c.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for config message")
	}
}
