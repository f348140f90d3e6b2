// Copyright (c) 2026 Atelier. All rights reserved.

package mail_test

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierhq/atelier-api/internal/mail"
)

// newScriptedListener binds a loopback listener and returns the notifier
// pointed at it.
func newScriptedListener(t *testing.T) (net.Listener, *mail.Notifier) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	port := listener.Addr().(*net.TCPAddr).Port
	notifier := mail.NewNotifier(mail.Config{
		Host: "127.0.0.1",
		Port: port,
		From: "no-reply@atelier.dev",
	})

	return listener, notifier
}

// servePlainSMTP speaks a minimal ESMTP dialogue without STARTTLS and
// captures the DATA body.
func servePlainSMTP(listener net.Listener, gotBody chan<- string) {
	conn, err := listener.Accept()
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	reader := bufio.NewReader(conn)
	write := func(line string) { _, _ = conn.Write([]byte(line + "\r\n")) }

	write("220 scripted ESMTP")
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		command := strings.ToUpper(strings.TrimSpace(line))

		switch {
		case strings.HasPrefix(command, "EHLO"), strings.HasPrefix(command, "HELO"):
			write("250-scripted")
			write("250 8BITMIME")
		case strings.HasPrefix(command, "MAIL"), strings.HasPrefix(command, "RCPT"):
			write("250 OK")
		case strings.HasPrefix(command, "DATA"):
			write("354 Start mail input")
			var body strings.Builder
			for {
				dataLine, err := reader.ReadString('\n')
				if err != nil {
					return
				}
				if strings.TrimRight(dataLine, "\r\n") == "." {
					break
				}
				body.WriteString(dataLine)
			}
			gotBody <- body.String()
			write("250 OK")
		case strings.HasPrefix(command, "QUIT"):
			write("221 Bye")
			return
		default:
			write("250 OK")
		}
	}
}

// serveStartTLSGreeting advertises STARTTLS, accepts the upgrade command,
// and reports the first raw byte the client sends afterwards.
func serveStartTLSGreeting(listener net.Listener, firstByte chan<- byte) {
	conn, err := listener.Accept()
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	reader := bufio.NewReader(conn)
	write := func(line string) { _, _ = conn.Write([]byte(line + "\r\n")) }

	write("220 scripted ESMTP")
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		command := strings.ToUpper(strings.TrimSpace(line))

		switch {
		case strings.HasPrefix(command, "EHLO"), strings.HasPrefix(command, "HELO"):
			write("250-scripted")
			write("250 STARTTLS")
		case strings.HasPrefix(command, "STARTTLS"):
			write("220 Ready to start TLS")
			raw, err := reader.ReadByte()
			if err != nil {
				return
			}
			firstByte <- raw
			return
		default:
			write("250 OK")
		}
	}
}

/*
TestNotifier_SendActivationMail_Plain verifies the full delivery dialogue
against a server without TLS support.
*/
func TestNotifier_SendActivationMail_Plain(t *testing.T) {
	listener, notifier := newScriptedListener(t)

	gotBody := make(chan string, 1)
	go servePlainSMTP(listener, gotBody)

	err := notifier.SendActivationMail(
		context.Background(),
		"alice@example.com",
		"http://localhost:8080/api/v1/auth/activate/some-link",
	)
	require.NoError(t, err)

	body := <-gotBody
	assert.Contains(t, body, "Subject: Activate your Atelier account")
	assert.Contains(t, body, "To: alice@example.com")
	assert.Contains(t, body, "http://localhost:8080/api/v1/auth/activate/some-link")
}

/*
TestNotifier_SendActivationMail_StartTLSHandshake verifies that when the
server advertises STARTTLS, the client actually begins a TLS handshake
instead of aborting on the client side before any bytes are sent.
*/
func TestNotifier_SendActivationMail_StartTLSHandshake(t *testing.T) {
	listener, notifier := newScriptedListener(t)

	firstByte := make(chan byte, 1)
	go serveStartTLSGreeting(listener, firstByte)

	err := notifier.SendActivationMail(context.Background(), "alice@example.com", "http://localhost:8080/activate")

	// The scripted server never completes the handshake, so the send fails,
	// but it must fail mid-handshake rather than on client-side TLS config.
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "ServerName")

	// 0x16 is the TLS handshake record type: the ClientHello reached the wire.
	assert.Equal(t, byte(0x16), <-firstByte)
}

/*
TestNotifier_SendActivationMail_Unreachable verifies the connect failure path.
*/
func TestNotifier_SendActivationMail_Unreachable(t *testing.T) {
	listener, notifier := newScriptedListener(t)
	require.NoError(t, listener.Close())

	err := notifier.SendActivationMail(context.Background(), "alice@example.com", "http://localhost:8080/activate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect")
}
