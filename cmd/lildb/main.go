// Command lildb is an interactive client for lildbd: it reads statements
// from a readline prompt, parses them with internal/query, and drives a
// remote session over internal/wire.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/lildb-project/lildb/internal/query/parser"
	"github.com/lildb-project/lildb/internal/schema"
	"github.com/lildb-project/lildb/internal/wire"
)

// client owns the TCP connection and the locally-tracked schema of every
// table this session has created, needed to encode insert
// values and decode scanned rows (the wire protocol only ever carries
// opaque tuple bytes).
type client struct {
	conn    net.Conn
	schemas map[string]schema.Schema
}

func dial(addr string, timeout time.Duration) (*client, error) {
	d := net.Dialer{Timeout: timeout}
	c, err := d.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &client{conn: c, schemas: make(map[string]schema.Schema)}, nil
}

func (c *client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *client) roundTrip(req wire.Request) (wire.Response, error) {
	if err := wire.WriteFrame(c.conn, req.Encode()); err != nil {
		return wire.Response{}, err
	}
	buf, err := wire.ReadFrame(c.conn)
	if err != nil {
		return wire.Response{}, err
	}
	resp, err := wire.DecodeResponse(buf)
	if err != nil {
		return wire.Response{}, err
	}
	if !resp.OK {
		return wire.Response{}, errors.New(resp.Error)
	}
	return resp, nil
}

func (c *client) openDatabase(name string, create bool) error {
	op := wire.OpOpenDatabase
	if create {
		op = wire.OpCreateDatabase
	}
	_, err := c.roundTrip(wire.Request{Op: op, DatabaseName: name})
	return err
}

func (c *client) createTable(db string, stmt *parser.CreateTableStmt) error {
	s := schema.New()
	for _, col := range stmt.Columns {
		typ, err := columnType(col.Type)
		if err != nil {
			return err
		}
		s, err = s.WithColumn(col.Name, typ, true)
		if err != nil {
			return err
		}
	}
	encoded, err := s.Encode()
	if err != nil {
		return err
	}
	if _, err := c.roundTrip(wire.Request{
		Op:           wire.OpCreateHeap,
		DatabaseName: db,
		HeapName:     stmt.TableName,
		Schema:       encoded,
	}); err != nil {
		return err
	}
	c.schemas[stmt.TableName] = s
	return nil
}

func (c *client) insert(db string, stmt *parser.InsertStmt) error {
	s, ok := c.schemas[stmt.TableName]
	if !ok {
		return fmt.Errorf("unknown table %q; create it in this session first", stmt.TableName)
	}
	tuple, err := schema.EncodeRow(s, stmt.Values)
	if err != nil {
		return err
	}
	_, err = c.roundTrip(wire.Request{
		Op:           wire.OpInsert,
		DatabaseName: db,
		HeapName:     stmt.TableName,
		Tuple:        tuple,
	})
	return err
}

func (c *client) selectAll(db string, stmt *parser.SelectStmt) error {
	s, ok := c.schemas[stmt.TableName]
	if !ok {
		return fmt.Errorf("unknown table %q; create it in this session first", stmt.TableName)
	}

	var cursor []byte
	rows := 0
	for {
		resp, err := c.roundTrip(wire.Request{
			Op:           wire.OpScanNext,
			DatabaseName: db,
			HeapName:     stmt.TableName,
			Cursor:       cursor,
		})
		if err != nil {
			return err
		}
		if resp.Done {
			break
		}
		values, err := schema.DecodeRow(s, resp.Tuple)
		if err != nil {
			return err
		}
		fmt.Println(formatRow(values))
		rows++
		cursor = resp.Cursor
	}
	fmt.Printf("(%d rows)\n", rows)
	return nil
}

func formatRow(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		if v == nil {
			parts[i] = "NULL"
		} else {
			parts[i] = fmt.Sprintf("%v", v)
		}
	}
	return strings.Join(parts, " | ")
}

var columnTypes = map[string]schema.ColumnType{
	"BOOL": schema.Bool, "XSHORT": schema.XShort, "UXSHORT": schema.UXShort,
	"SHORT": schema.Short, "USHORT": schema.UShort, "INT": schema.Int,
	"UINT": schema.UInt, "LONG": schema.Long, "ULONG": schema.ULong,
	"FLOAT": schema.Float, "DOUBLE": schema.Double,
	"TEXT": schema.Text, "BYTES": schema.Bytes,
}

func columnType(name string) (schema.ColumnType, error) {
	t, ok := columnTypes[strings.ToUpper(name)]
	if !ok {
		return 0, fmt.Errorf("unknown column type %q", name)
	}
	return t, nil
}

// ---- history (own file, matching the original's append-only log) ----

type history struct {
	path  string
	lines []string
}

func newHistory(path string) *history { return &history{path: path} }

func (h *history) Load(max int) error {
	if h.path == "" {
		return nil
	}
	f, err := os.Open(h.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" {
			continue
		}
		h.lines = append(h.lines, s)
		if max > 0 && len(h.lines) > max {
			h.lines = h.lines[len(h.lines)-max:]
		}
	}
	return sc.Err()
}

func (h *history) Append(stmt string) error {
	stmt = strings.TrimSpace(stmt)
	if stmt == "" || h.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if _, err := fmt.Fprintln(f, stmt); err != nil {
		return err
	}
	h.lines = append(h.lines, stmt)
	return nil
}

// ---- REPL ----

func statementComplete(buf string) bool {
	inQuote := false
	escaped := false
	for _, r := range buf {
		if escaped {
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		if r == '\'' {
			inQuote = !inQuote
			continue
		}
		if r == ';' && !inQuote {
			return true
		}
	}
	return false
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".lildb_history"
	}
	return filepath.Join(home, ".lildb_history")
}

func main() {
	var (
		addr     = flag.String("addr", "127.0.0.1:11108", "lildbd address")
		dbName   = flag.String("db", "", "database to open (created if -create is set)")
		create   = flag.Bool("create", false, "create -db instead of opening it")
		timeout  = flag.Duration("timeout", 3*time.Second, "dial timeout")
		histPath = flag.String("history", defaultHistoryPath(), "history file path")
		histMax  = flag.Int("history-max", 2000, "max history lines loaded into memory")
	)
	flag.Parse()

	cli, err := dial(*addr, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = cli.Close() }()

	if *dbName == "" {
		fmt.Fprintln(os.Stderr, "a -db name is required")
		os.Exit(1)
	}
	if err := cli.openDatabase(*dbName, *create); err != nil {
		fmt.Fprintf(os.Stderr, "open database %q: %v\n", *dbName, err)
		os.Exit(1)
	}

	h := newHistory(*histPath)
	_ = h.Load(*histMax)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "lildb> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()
	for _, line := range h.lines {
		_ = rl.SaveHistory(line)
	}

	fmt.Printf("connected to %s, database %q\n", *addr, *dbName)
	fmt.Println("type \\help for help")

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if buf.Len() > 0 {
				buf.Reset()
				rl.SetPrompt("lildb> ")
				continue
			}
			fmt.Println("^C")
			continue
		}
		if err != nil {
			fmt.Println()
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "\\") || line == "quit" || line == "exit" {
			switch line {
			case "\\q", "quit", "exit":
				_, _ = cli.roundTrip(wire.Request{Op: wire.OpClose, DatabaseName: *dbName})
				return
			case "\\help":
				fmt.Println(`meta commands:
  \q | quit | exit       quit
  \help                  show help

sql:
  CREATE TABLE <name> (<col> <type>, ...)
  INSERT INTO <name> VALUES (<literal>, ...)
  SELECT * FROM <name>
  end statement with ';'`)
			default:
				fmt.Printf("unknown command: %s\n", line)
			}
			continue
		}

		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(line)

		if !statementComplete(buf.String()) {
			rl.SetPrompt("...> ")
			continue
		}

		stmt := strings.TrimSpace(buf.String())
		buf.Reset()
		rl.SetPrompt("lildb> ")
		_ = h.Append(stmt)
		_ = rl.SaveHistory(stmt)

		if err := execute(cli, *dbName, stmt); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func execute(cli *client, db, sql string) error {
	st, err := parser.Parse(sql)
	if err != nil {
		return err
	}
	switch s := st.(type) {
	case *parser.CreateTableStmt:
		if err := cli.createTable(db, s); err != nil {
			return err
		}
		fmt.Println("OK")
	case *parser.InsertStmt:
		if err := cli.insert(db, s); err != nil {
			return err
		}
		fmt.Println("OK (1 row)")
	case *parser.SelectStmt:
		return cli.selectAll(db, s)
	default:
		return fmt.Errorf("unsupported statement")
	}
	return nil
}
