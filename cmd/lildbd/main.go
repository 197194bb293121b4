// Command lildbd is the lildb storage daemon: it loads configuration,
// opens a TCP listener, and dispatches internal/wire requests against a
// process-wide internal/session.Manager.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/lildb-project/lildb/internal/bufmgr"
	"github.com/lildb-project/lildb/internal/config"
	"github.com/lildb-project/lildb/internal/heap"
	"github.com/lildb-project/lildb/internal/lilderr"
	"github.com/lildb-project/lildb/internal/schema"
	"github.com/lildb-project/lildb/internal/session"
	"github.com/lildb-project/lildb/internal/wire"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "path to a lildb yaml config file")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if err := config.EnsureDirs(cfg); err != nil {
		slog.Error("ensure data root", "error", err)
		os.Exit(1)
	}

	bp := bufmgr.Global()
	mgr := session.NewManager(cfg.Root, bp, cfg.Database.MaxNameLength)

	addr := net.JoinHostPort(cfg.Server.ListenAddr, strconv.Itoa(cfg.Server.ListenPort))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		slog.Error("listen", "addr", addr, "error", err)
		os.Exit(1)
	}
	defer func() { _ = ln.Close() }()

	slog.Info("lildbd listening", "addr", addr, "root", cfg.Root)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				slog.Info("shutting down", "reason", ctx.Err())
				mgr.CloseAll()
				return
			default:
			}
			slog.Warn("accept", "error", err)
			continue
		}
		go serveConn(ctx, conn, mgr)
	}
}

// connState is the per-connection session: the currently open database
// and any in-flight scans, keyed by a server-minted cursor token.
type connState struct {
	db    *session.Database
	scans map[string]*heap.Scan
	next  uint64
}

func serveConn(ctx context.Context, conn net.Conn, mgr *session.Manager) {
	defer func() { _ = conn.Close() }()
	log := slog.Default().With("component", "lildbd", "remote", conn.RemoteAddr())
	log.Info("connection accepted")

	st := &connState{scans: make(map[string]*heap.Scan)}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		buf, err := wire.ReadFrame(conn)
		if err != nil {
			log.Info("connection closed", "error", err)
			return
		}
		req, err := wire.DecodeRequest(buf)
		if err != nil {
			log.Warn("decode request", "error", err)
			return
		}

		resp := handleRequest(mgr, st, req)
		out := resp.Encode()
		if err := wire.WriteFrame(conn, out); err != nil {
			log.Warn("write response", "error", err)
			return
		}
		if req.Op == wire.OpClose {
			return
		}
	}
}

func handleRequest(mgr *session.Manager, st *connState, req wire.Request) wire.Response {
	switch req.Op {
	case wire.OpCreateDatabase:
		db, err := mgr.CreateDatabase(req.DatabaseName)
		if err != nil {
			return errResponse(err)
		}
		st.db = db
		return wire.Response{OK: true}

	case wire.OpOpenDatabase:
		db, err := mgr.OpenDatabase(req.DatabaseName)
		if err != nil {
			return errResponse(err)
		}
		st.db = db
		return wire.Response{OK: true}

	case wire.OpCreateHeap:
		if st.db == nil {
			return errResponse(noDatabaseOpenErr())
		}
		s, err := schema.Decode(req.Schema)
		if err != nil {
			return errResponse(err)
		}
		if _, err := st.db.CreateHeap(req.HeapName, s); err != nil {
			return errResponse(err)
		}
		return wire.Response{OK: true}

	case wire.OpInsert:
		if st.db == nil {
			return errResponse(noDatabaseOpenErr())
		}
		hf, err := st.db.OpenHeap(req.HeapName)
		if err != nil {
			return errResponse(err)
		}
		if _, err := hf.Insert(req.Tuple); err != nil {
			return errResponse(err)
		}
		return wire.Response{OK: true}

	case wire.OpScanNext:
		if st.db == nil {
			return errResponse(noDatabaseOpenErr())
		}
		return handleScanNext(st, req)

	case wire.OpClose:
		if st.db != nil {
			_ = mgr.Close(st.db.Name())
			st.db = nil
		}
		return wire.Response{OK: true}

	default:
		return errResponse(lilderr.New(lilderr.Validation, "unknown opcode %d", req.Op))
	}
}

func handleScanNext(st *connState, req wire.Request) wire.Response {
	var (
		token string
		sc    *heap.Scan
	)
	if len(req.Cursor) == 0 {
		hf, err := st.db.OpenHeap(req.HeapName)
		if err != nil {
			return errResponse(err)
		}
		sc = hf.NewScan()
		st.next++
		token = strconv.FormatUint(st.next, 10)
		st.scans[token] = sc
	} else {
		token = string(req.Cursor)
		var ok bool
		sc, ok = st.scans[token]
		if !ok {
			return errResponse(lilderr.New(lilderr.Action, "unknown scan cursor"))
		}
	}

	_, tuple, err := sc.Next()
	if err != nil {
		delete(st.scans, token)
		if errors.Is(err, io.EOF) {
			return wire.Response{OK: true, Done: true}
		}
		return errResponse(err)
	}
	return wire.Response{OK: true, Tuple: tuple, Cursor: []byte(token)}
}

func errResponse(err error) wire.Response {
	return wire.Response{OK: false, Error: err.Error()}
}

func noDatabaseOpenErr() error {
	return lilderr.New(lilderr.Action, "no database open on this connection")
}
