// Package inputinject synthesizes OS input events from received
// InputEvents, primarily via the GNOME Mutter RemoteDesktop D-Bus
// interface, falling back to the ydotool CLI on compositors that don't
// expose it (spec.md §4.7).
package inputinject

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	remoteDesktopBus          = "org.gnome.Mutter.RemoteDesktop"
	remoteDesktopPath         = "/org/gnome/Mutter/RemoteDesktop"
	remoteDesktopIface        = "org.gnome.Mutter.RemoteDesktop"
	remoteDesktopSessionIface = "org.gnome.Mutter.RemoteDesktop.Session"
)

// DBusSession wraps a GNOME Mutter RemoteDesktop session used for input
// injection. It is created once per host pipeline lifetime and shared by
// the Injector.
type DBusSession struct {
	conn        *dbus.Conn
	sessionPath dbus.ObjectPath
	logger      zerolog.Logger
}

// ConnectDBusSession connects to the session bus and creates a
// RemoteDesktop session, retrying up to 60 times (about a minute, and
// never past ctx) while the compositor's D-Bus service comes up. Grounded
// on the teacher's connectDBus retry loop, reimplemented with retry-go;
// Delay and MaxDelay are both one second, so the wait between attempts
// stays flat at one second.
func ConnectDBusSession(ctx context.Context) (*DBusSession, error) {
	logger := log.With().Str("component", "inputinject").Logger()
	s := &DBusSession{logger: logger}

	err := retry.Do(
		func() error { return s.tryConnect() },
		retry.Context(ctx),
		retry.Attempts(60),
		retry.Delay(time.Second),
		retry.MaxDelay(time.Second),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug().Uint("attempt", n+1).Err(err).Msg("D-Bus not ready")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("inputinject: connect D-Bus after retries: %w", err)
	}

	if err := s.createSession(); err != nil {
		s.conn.Close()
		return nil, fmt.Errorf("inputinject: create RemoteDesktop session: %w", err)
	}
	if err := s.start(); err != nil {
		s.conn.Close()
		return nil, fmt.Errorf("inputinject: start RemoteDesktop session: %w", err)
	}
	logger.Info().Msg("RemoteDesktop session ready")
	return s, nil
}

func (s *DBusSession) tryConnect() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return err
	}
	obj := conn.Object(remoteDesktopBus, remoteDesktopPath)
	if err := obj.Call("org.freedesktop.DBus.Introspectable.Introspect", 0).Err; err != nil {
		conn.Close()
		return err
	}
	s.conn = conn
	return nil
}

func (s *DBusSession) createSession() error {
	rdObj := s.conn.Object(remoteDesktopBus, remoteDesktopPath)
	var sessionPath dbus.ObjectPath
	if err := rdObj.Call(remoteDesktopIface+".CreateSession", 0).Store(&sessionPath); err != nil {
		return err
	}
	s.sessionPath = sessionPath
	return nil
}

func (s *DBusSession) start() error {
	session := s.conn.Object(remoteDesktopBus, s.sessionPath)
	return session.Call(remoteDesktopSessionIface+".Start", 0).Err
}

func (s *DBusSession) session() dbus.BusObject {
	return s.conn.Object(remoteDesktopBus, s.sessionPath)
}

// Close tears down the D-Bus connection.
func (s *DBusSession) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
