// Package lsp serves CoffeeScript symbols to editors over the Language
// Server Protocol.
package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/maypok86/otter"
	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/mvp-joe/coffee-symbols/internal/indexer"
	"github.com/mvp-joe/coffee-symbols/internal/symbols"
)

// ErrExitWithoutShutdown is returned by Serve when the client sent exit
// before shutdown.
var ErrExitWithoutShutdown = errors.New("exit received before shutdown")

// Custom request methods.
const (
	MethodIndexFiles  = "custom/indexFiles"
	MethodRemoveFiles = "custom/removeFiles"
)

// FilesParams is the payload of the custom batch requests.
type FilesParams struct {
	Files []string `json:"files"`
}

// IndexFilesResult acknowledges a queued indexing job.
type IndexFilesResult struct {
	JobID string `json:"jobId"`
	Files int    `json:"files"`
}

// Options configures a Server.
type Options struct {
	Name    string
	Version string
	// CacheSize bounds the number of cached document outlines.
	CacheSize int
	// CodePatterns and IgnorePatterns drive workspace discovery on
	// initialized. Nil uses the discovery defaults.
	CodePatterns   []string
	IgnorePatterns []string
}

// Server answers LSP requests from an indexer.Service.
type Server struct {
	service *indexer.Service
	bg      *indexer.BackgroundIndexer
	opts    Options
	cache   otter.Cache[uint64, []symbols.Symbol]

	mu       sync.Mutex
	docs     map[protocol.DocumentURI]string
	root     string
	shutdown bool

	exitOnce sync.Once
	exited   chan struct{}
	tasks    sync.WaitGroup
}

// NewServer creates a server over service. Close releases the background
// indexer and the outline cache.
func NewServer(service *indexer.Service, opts Options) (*Server, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.Name == "" {
		opts.Name = "coffee-symbols"
	}

	cache, err := otter.MustBuilder[uint64, []symbols.Symbol](opts.CacheSize).
		CollectStats().
		Cost(func(key uint64, value []symbols.Symbol) uint32 { return 1 }).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create outline cache: %w", err)
	}

	return &Server{
		service: service,
		bg:      indexer.NewBackgroundIndexer(service),
		opts:    opts,
		cache:   cache,
		docs:    make(map[protocol.DocumentURI]string),
		exited:  make(chan struct{}),
	}, nil
}

// Serve runs the protocol on rwc until the client disconnects, sends exit,
// or ctx ends.
func (s *Server) Serve(ctx context.Context, rwc io.ReadWriteCloser) error {
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.HandlerWithError(s.handle).SuppressErrClosed())
	defer conn.Close()

	select {
	case <-conn.DisconnectNotify():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.exited:
		s.mu.Lock()
		clean := s.shutdown
		s.mu.Unlock()
		if !clean {
			return ErrExitWithoutShutdown
		}
		return nil
	}
}

// Close stops background indexing and waits for in-flight tasks.
func (s *Server) Close() error {
	err := s.bg.Close()
	s.tasks.Wait()
	s.cache.Close()
	return err
}

func (s *Server) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	s.mu.Lock()
	down := s.shutdown
	s.mu.Unlock()
	if down && req.Method != "exit" {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidRequest, Message: "server is shutting down"}
	}

	switch req.Method {
	case "initialize":
		var params protocol.InitializeParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		return s.initialize(&params), nil

	case "initialized":
		s.indexWorkspace()
		return nil, nil

	case "shutdown":
		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		return nil, nil

	case "exit":
		s.exitOnce.Do(func() { close(s.exited) })
		return nil, nil

	case "textDocument/didOpen":
		var params protocol.DidOpenTextDocumentParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		s.setDocument(params.TextDocument.URI, params.TextDocument.Text)
		return nil, s.publishDiagnostics(ctx, conn, params.TextDocument.URI, params.TextDocument.Text)

	case "textDocument/didChange":
		var params protocol.DidChangeTextDocumentParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		if len(params.ContentChanges) == 0 {
			return nil, nil
		}
		// Full sync: the last change carries the whole document.
		text := params.ContentChanges[len(params.ContentChanges)-1].Text
		s.setDocument(params.TextDocument.URI, text)
		return nil, s.publishDiagnostics(ctx, conn, params.TextDocument.URI, text)

	case "textDocument/didClose":
		var params protocol.DidCloseTextDocumentParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		s.mu.Lock()
		delete(s.docs, params.TextDocument.URI)
		s.mu.Unlock()
		return nil, conn.Notify(ctx, "textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
			URI:         params.TextDocument.URI,
			Diagnostics: []protocol.Diagnostic{},
		})

	case "textDocument/documentSymbol":
		var params protocol.DocumentSymbolParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		return s.documentSymbols(params.TextDocument.URI), nil

	case "workspace/symbol":
		var params protocol.WorkspaceSymbolParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		records, err := s.service.Find(ctx, params.Query)
		if err != nil {
			return nil, fmt.Errorf("failed to find symbols: %w", err)
		}
		return recordsToSymbolInformation(records, s.documentText), nil

	case MethodIndexFiles:
		var params FilesParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		job, err := s.submit(params.Files)
		if err != nil {
			return nil, err
		}
		return IndexFilesResult{JobID: job.ID, Files: len(params.Files)}, nil

	case MethodRemoveFiles:
		var params FilesParams
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
		return nil, s.service.RemoveFiles(ctx, params.Files)
	}

	if req.Notif {
		return nil, nil
	}
	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not supported: " + req.Method}
}

func decodeParams(req *jsonrpc2.Request, v interface{}) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(*req.Params, v); err != nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	return nil
}

func (s *Server) initialize(params *protocol.InitializeParams) *protocol.InitializeResult {
	root := ""
	switch {
	case params.RootURI != "":
		root = string(params.RootURI)
	case len(params.WorkspaceFolders) > 0:
		root = params.WorkspaceFolders[0].URI
	case params.RootPath != "":
		root = params.RootPath
	}
	if root != "" {
		if key, err := indexer.NormalizeURI(root); err == nil {
			root, _ = indexer.URIToPath(key)
		} else {
			log.Printf("Warning: ignoring workspace root %q: %v", root, err)
			root = ""
		}
	}

	s.mu.Lock()
	s.root = root
	s.mu.Unlock()

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
			},
			DocumentSymbolProvider:  true,
			WorkspaceSymbolProvider: true,
		},
		ServerInfo: &protocol.ServerInfo{Name: s.opts.Name, Version: s.opts.Version},
	}
}

// indexWorkspace discovers the workspace root off the connection goroutine
// and queues the files for background indexing.
func (s *Server) indexWorkspace() {
	s.mu.Lock()
	root := s.root
	s.mu.Unlock()
	if root == "" {
		return
	}

	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()

		fd, err := indexer.NewFileDiscovery(root, s.opts.CodePatterns, s.opts.IgnorePatterns)
		if err != nil {
			log.Printf("Error: workspace discovery failed: %v", err)
			return
		}
		files, err := fd.DiscoverFiles()
		if err != nil {
			log.Printf("Error: workspace discovery failed: %v", err)
			return
		}
		if _, err := s.submit(files); err != nil && !errors.Is(err, indexer.ErrIndexerClosed) {
			log.Printf("Error: failed to queue workspace files: %v", err)
		}
	}()
}

// submit queues files and logs the job's outcome when it finishes.
func (s *Server) submit(files []string) (*indexer.Job, error) {
	job, err := s.bg.Submit(files)
	if err != nil {
		return nil, err
	}

	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		result, err := job.Wait(context.Background())
		switch {
		case err != nil:
			log.Printf("Warning: index job %s: %v", job.ID, err)
		case len(result.Failures) > 0:
			log.Printf("Warning: index job %s: %d indexed, %d failed", job.ID, result.Indexed, len(result.Failures))
		default:
			log.Printf("Index job %s: %d indexed, %d unchanged in %v", job.ID, result.Indexed, result.Unchanged, result.Duration)
		}
	}()
	return job, nil
}

func (s *Server) setDocument(uri protocol.DocumentURI, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uri] = text
}

func (s *Server) publishDiagnostics(ctx context.Context, conn *jsonrpc2.Conn, uri protocol.DocumentURI, text string) error {
	return conn.Notify(ctx, "textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: toDiagnostics(text, s.service.Validate(text)),
	})
}

// documentSymbols outlines an open document, or a file on disk when the
// document is not open. Other schemes yield no symbols.
func (s *Server) documentSymbols(uri protocol.DocumentURI) []protocol.SymbolInformation {
	text, ok := s.documentText(uri)
	if !ok {
		return []protocol.SymbolInformation{}
	}

	syms := s.outline(text)
	ls := splitLines(text)
	out := make([]protocol.SymbolInformation, 0, len(syms))
	for _, sym := range syms {
		out = append(out, toSymbolInformation(uri, ls, sym))
	}
	return out
}

// documentText returns the open document's text, or the file's contents
// for an unopened file URI.
func (s *Server) documentText(uri protocol.DocumentURI) (string, bool) {
	s.mu.Lock()
	text, open := s.docs[uri]
	s.mu.Unlock()
	if open {
		return text, true
	}

	if !strings.HasPrefix(string(uri), "file://") {
		return "", false
	}
	path, err := indexer.URIToPath(string(uri))
	if err != nil {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Warning: failed to read %s: %v", path, err)
		return "", false
	}
	return string(data), true
}

// outline returns the document symbols of text, cached by content hash.
func (s *Server) outline(text string) []symbols.Symbol {
	key := xxhash.Sum64String(text)
	if syms, ok := s.cache.Get(key); ok {
		return syms
	}
	syms := s.service.DocumentSymbols(text)
	s.cache.Set(key, syms)
	return syms
}

// CacheStats reports outline cache hits and misses.
func (s *Server) CacheStats() (hits, misses int64) {
	stats := s.cache.Stats()
	return stats.Hits(), stats.Misses()
}

type stdio struct {
	io.Reader
	io.Writer
}

func (stdio) Close() error { return nil }

// Stdio joins a reader and writer into the stream Serve expects. Closing it
// leaves both open.
func Stdio(in io.Reader, out io.Writer) io.ReadWriteCloser {
	return stdio{Reader: in, Writer: out}
}
