package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"

	"log/slog"

	"github.com/psych-ds/psychds-r-sub001/internal/api"
	"github.com/psych-ds/psychds-r-sub001/internal/logging"
	"github.com/psych-ds/psychds-r-sub001/internal/preflight"
	"github.com/psych-ds/psychds-r-sub001/internal/services"
	"github.com/psych-ds/psychds-r-sub001/internal/session"
)

// Controller is the wizard runtime surface exposed over the socket.
type Controller interface {
	Status(ctx context.Context) api.ServerStatus
	Stop()
	OpenBrowser(ctx context.Context) error
	ListSessions(ctx context.Context) ([]*session.Session, error)
	GetSession(ctx context.Context, id string) (*session.Session, error)
	DeleteSession(ctx context.Context, id string) error
	RunPreflight(ctx context.Context) []preflight.Result
}

// Server exposes wizard control via JSON-RPC over a Unix domain socket.
type Server struct {
	path       string
	controller Controller
	logger     *slog.Logger
	listener   net.Listener
	rpcServer  *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, controller Controller, logger *slog.Logger) (*Server, error) {
	if controller == nil {
		return nil, errors.New("ipc server requires a controller")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{controller: controller, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Wizard", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:       path,
		controller: controller,
		logger:     logger,
		listener:   listener,
		rpcServer:  rpcServer,
		ctx:        serverCtx,
		cancel:     cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the wizard if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun psychds stop"))
	}
}

type service struct {
	controller Controller
	logger     *slog.Logger
	ctx        context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String("component", "ipc"))
}

// rpcError flattens wrapped service errors so only the human-readable
// message crosses the socket.
func rpcError(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(services.Message(err))
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	resp.Status = s.controller.Status(s.ctx)
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("wizard stop requested")
	s.controller.Stop()
	resp.Stopped = true
	s.log().Info("wizard stopped via IPC",
		logging.String(logging.FieldEventType, "wizard_stop"))
	return nil
}

func (s *service) OpenBrowser(_ OpenBrowserRequest, resp *OpenBrowserResponse) error {
	resp.URL = s.controller.Status(s.ctx).URL
	if err := s.controller.OpenBrowser(s.ctx); err != nil {
		resp.Opened = false
		resp.Message = err.Error()
		return nil
	}
	resp.Opened = true
	return nil
}

func (s *service) SessionList(_ SessionListRequest, resp *SessionListResponse) error {
	sessions, err := s.controller.ListSessions(s.ctx)
	if err != nil {
		return rpcError(err)
	}
	resp.Sessions = make([]SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		if sess == nil {
			continue
		}
		resp.Sessions = append(resp.Sessions, api.FromSession(sess))
	}
	return nil
}

func (s *service) SessionGet(req SessionGetRequest, resp *SessionGetResponse) error {
	if strings.TrimSpace(req.ID) == "" {
		return errors.New("session id is required")
	}
	sess, err := s.controller.GetSession(s.ctx, req.ID)
	if err != nil {
		return rpcError(err)
	}
	resp.Session = api.FromSession(sess)
	return nil
}

func (s *service) SessionDelete(req SessionDeleteRequest, resp *SessionDeleteResponse) error {
	if strings.TrimSpace(req.ID) == "" {
		return errors.New("session id is required")
	}
	if err := s.controller.DeleteSession(s.ctx, req.ID); err != nil {
		return rpcError(err)
	}
	resp.Deleted = true
	s.log().Info("session abandoned via IPC",
		logging.String(logging.FieldEventType, "session_abandon"),
		logging.String("session_id", req.ID))
	return nil
}

func (s *service) Preflight(_ PreflightRequest, resp *PreflightResponse) error {
	s.log().Debug("preflight rerun requested")
	results := s.controller.RunPreflight(s.ctx)
	resp.Checks = api.FromPreflight(results)
	resp.Fatal = preflight.Fatal(results)
	return nil
}
