package ipc

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/tilewm/tilewm/internal/config"
	"github.com/tilewm/tilewm/internal/model"
	"github.com/tilewm/tilewm/internal/runtimepath"
)

// StatusSource is the read-only model view the server reports over
// GET_STATUS. The event loop's *model.Model satisfies this directly.
type StatusSource interface {
	RLock()
	RUnlock()
	WorkspaceCounts() [model.WorkspaceCount + 1]int
}

// Server handles IPC requests from clients.
type Server struct {
	socketPath   string
	listener     net.Listener
	cfg          *config.Config
	cfgMu        sync.RWMutex
	status       StatusSource
	monitorCount func() int
	activeWS     func() int
	statusBar    func() bool
	startTime    time.Time
	reloadChan   chan struct{}
	exitChan     chan struct{}
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server. monitorCount, activeWS, and
// statusBar let the caller supply thread-safe accessors without the
// server importing reconciler/eventloop.
func NewServer(cfg *config.Config, status StatusSource, monitorCount func() int, activeWS func() int, statusBar func() bool, reloadChan, exitChan chan struct{}) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}

	os.Remove(socketPath)

	return &Server{
		socketPath:   socketPath,
		cfg:          cfg,
		status:       status,
		monitorCount: monitorCount,
		activeWS:     activeWS,
		statusBar:    statusBar,
		startTime:    time.Now(),
		reloadChan:   reloadChan,
		exitChan:     exitChan,
	}, nil
}

// Start begins listening for IPC connections.
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandReload:
		return s.handleReload()
	case CommandExit:
		return s.handleExit()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleGetStatus() *Response {
	s.status.RLock()
	counts := s.status.WorkspaceCounts()
	s.status.RUnlock()

	perWorkspace := make([]WorkspaceStatus, 0, model.WorkspaceCount)
	for n := 1; n <= model.WorkspaceCount; n++ {
		perWorkspace = append(perWorkspace, WorkspaceStatus{Number: n, Count: counts[n]})
	}

	status := StatusData{
		ActiveWorkspace: s.activeWS(),
		MonitorCount:    s.monitorCount(),
		PerWorkspace:    perWorkspace,
		StatusBarShown:  s.statusBar(),
		UptimeSeconds:   int64(time.Since(s.startTime).Seconds()),
		DaemonRunning:   true,
	}

	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")

	newCfg, err := config.Load()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}

	s.cfgMu.Lock()
	s.cfg = newCfg
	s.cfgMu.Unlock()

	select {
	case s.reloadChan <- struct{}{}:
	default:
	}

	log.Println("IPC: Config reloaded successfully")

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleExit() *Response {
	log.Println("IPC: Received EXIT command")
	select {
	case s.exitChan <- struct{}{}:
	default:
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

// GetConfig returns the current config (thread-safe).
func (s *Server) GetConfig() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// UpdateConfig updates the config (thread-safe).
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.cfg = cfg
}
