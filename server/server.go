// Package server implements the per-connection line protocol dispatch
// (spec.md §5/§6): a TCP listener hands each connection to its own
// goroutine, which reads newline-terminated requests, looks up (or
// creates) the client's pool.Pool session, invokes the SQL lexer/parser/
// worker pipeline, and writes back a single response line per request.
// Grounded on original_source/src/connection/{message,request,response}.rs
// (line framing via '\n', three/four-field '||' splits, "Query OK!"/
// "Error: <msg>" response shapes).
package server

import (
	"bufio"
	"net"
	"strconv"
	"strings"

	"stellarsql/internal/xerr"
	"stellarsql/internal/xlog"
	"stellarsql/pool"
	"stellarsql/sql/lexer"
	"stellarsql/sql/parser"
)

// Server owns the TCP listener and the shared session Pool every
// connection dispatches through.
type Server struct {
	addr string
	pool *pool.Pool
	log  *xlog.Logger

	// users is the set of usernames seen so far (spec.md §6: the login
	// line "registers the user on disk if absent"). StorageCheck against
	// DiskStore.GetUsernames/CreateUsername is the source of truth; this
	// set only short-circuits repeated registration within one process.
	users map[string]struct{}
}

// New returns a Server listening on addr, dispatching through p.
func New(addr string, p *pool.Pool) *Server {
	return &Server{addr: addr, pool: p, log: xlog.Default.With("server"), users: make(map[string]struct{})}
}

// ListenAndServe binds addr and serves connections until the listener is
// closed or accept fails fatally.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	defer ln.Close()
	s.log.Info("listening", xlog.Fields{"addr": s.addr})

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(conn)
	}
}

// handleConn is one connection's cooperative task (spec.md §5): requests
// are read and answered strictly in arrival order; the pool lock is held
// only for the duration of each request's get->parse->execute, never
// across the blocking read/write suspension points.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	addr := conn.RemoteAddr().String()
	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	username := ""
	loggedIn := false

	defer func() {
		if loggedIn {
			s.pool.Lock()
			_ = s.pool.WriteBack(addr)
			s.pool.Unlock()
		}
	}()

	for {
		line, err := reader.ReadString('\n')
		if line == "" && err != nil {
			return
		}
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")

		var resp string
		if !loggedIn {
			username, resp = s.handleLogin(line, addr)
			if resp == loginOK {
				loggedIn = true
			}
		} else {
			resp = s.handleRequest(username, addr, line)
		}

		writer.WriteString(resp)
		writer.WriteString("\n")
		if ferr := writer.Flush(); ferr != nil {
			return
		}
		if err != nil {
			return
		}
	}
}

const loginOK = "Login OK!"

// handleLogin parses the four-field `username||||||key` login line (spec.md
// §6), registering the user on disk if this is the first time it's seen.
func (s *Server) handleLogin(line, addr string) (username, response string) {
	fields := strings.Split(line, "||")
	if len(fields) != 4 || fields[1] != "" || fields[2] != "" {
		return "", errResponse(xerr.New(xerr.BadRequest, "BadRequest", "login line must be username||||||key"))
	}
	username = fields[0]
	if username == "" {
		return "", errResponse(xerr.New(xerr.BadRequest, "UserNotExist", "username is empty"))
	}
	var key int64
	if fields[3] != "" {
		key, _ = strconv.ParseInt(fields[3], 10, 32)
	}

	s.pool.Lock()
	defer s.pool.Unlock()
	w, err := s.pool.Get(username, "", addr, int32(key))
	if err != nil {
		return "", errResponse(err)
	}
	if _, ok := s.users[username]; !ok {
		if err := w.Store.CreateUsername(username); err != nil && xerr.CodeOf(err) != "UsernameExists" {
			return "", errResponse(err)
		}
		s.users[username] = struct{}{}
	}
	return username, loginOK
}

// handleRequest parses a three-field `username||dbname||sql` line (spec.md
// §6) and runs it through the lexer/parser/worker pipeline under the pool
// lock.
func (s *Server) handleRequest(username, addr, line string) string {
	fields := strings.Split(line, "||")
	if len(fields) != 3 {
		return errResponse(xerr.New(xerr.BadRequest, "BadRequest", "request line must be username||dbname||sql"))
	}
	dbname := fields[1]
	sql := strings.TrimSpace(fields[2])
	if sql == "" {
		return errResponse(xerr.New(xerr.BadRequest, "BadRequest", "empty SQL statement"))
	}
	if !strings.HasSuffix(sql, ";") {
		sql += ";"
	}

	s.pool.Lock()
	defer s.pool.Unlock()

	w, err := s.pool.Get(username, dbname, addr, 0)
	if err != nil {
		return errResponse(err)
	}

	if dbname == "" {
		lower := strings.ToLower(strings.TrimSpace(sql))
		if !strings.HasPrefix(lower, "create database") {
			return errResponse(xerr.New(xerr.BadRequest, "CreateDBBeforeCmd", "please create a database before any other commands"))
		}
	}

	scanner := lexer.NewScanner(sql)
	tokens, err := scanner.ScanTokens()
	if err != nil {
		return errResponse(err)
	}
	stmt, err := parser.Parse(tokens)
	if err != nil {
		return errResponse(err)
	}

	result, err := w.Execute(stmt)
	if err != nil {
		return errResponse(err)
	}
	_ = result // SELECT's JSON lives in w.ResultJSON (spec.md §6: "available to the caller but not streamed by the current protocol")

	return "Query OK!"
}

func errResponse(err error) string {
	return "Error: " + err.Error()
}
