package server_test

import (
	"bufio"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stellarsql/pool"
	"stellarsql/server"
	"stellarsql/storage"
)

func startServer(t *testing.T) string {
	t.Helper()
	store := storage.New(filepath.Join(t.TempDir(), "base"), false)
	require.NoError(t, store.CreateFileBase())
	p := pool.New(4, store)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	srv := server.New(addr, p)
	go func() {
		_ = srv.ListenAndServe()
	}()
	// give the listener a moment to bind before the first dial.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if conn, err := net.Dial("tcp", addr); err == nil {
			conn.Close()
			return addr
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("server never became reachable")
	return addr
}

func dial(t *testing.T, addr string) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	return conn, bufio.NewReader(conn)
}

func readLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	return line
}

func TestLoginThenCreateDatabaseRoundTrip(t *testing.T) {
	addr := startServer(t)
	conn, r := dial(t, addr)
	defer conn.Close()

	_, err := conn.Write([]byte("alice||||||0\n"))
	require.NoError(t, err)
	assert.Equal(t, "Login OK!\n", readLine(t, r))

	_, err = conn.Write([]byte("alice||shop||create database shop\n"))
	require.NoError(t, err)
	assert.Equal(t, "Query OK!\n", readLine(t, r))
}

func TestRequestBeforeCreateDatabaseFails(t *testing.T) {
	addr := startServer(t)
	conn, r := dial(t, addr)
	defer conn.Close()

	_, err := conn.Write([]byte("bob||||||0\n"))
	require.NoError(t, err)
	assert.Equal(t, "Login OK!\n", readLine(t, r))

	_, err = conn.Write([]byte("bob||||select 1\n"))
	require.NoError(t, err)
	line := readLine(t, r)
	assert.Contains(t, line, "Error:")
	assert.Contains(t, line, "please create a database")
}

func TestMalformedLoginLineFails(t *testing.T) {
	addr := startServer(t)
	conn, r := dial(t, addr)
	defer conn.Close()

	_, err := conn.Write([]byte("not-a-valid-login\n"))
	require.NoError(t, err)
	line := readLine(t, r)
	assert.Contains(t, line, "Error:")
	assert.Contains(t, line, "BadRequest")
}
