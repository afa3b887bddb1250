// Package server runs the TCP front end that accepts order submissions
// and cancels from exchangectl and routes them into an engine.Exchange.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	tomb "gopkg.in/tomb.v2"

	"ladderbook/internal/engine"
	"ladderbook/internal/metrics"
	"ladderbook/internal/pool"
	"ladderbook/internal/wire"
)

const (
	maxRecvSize        = 4 * 1024
	defaultNWorkers    = 10
	defaultConnTimeout = 30 * time.Second
)

var ErrClientDoesNotExist = errors.New("server: no session for client address")

// Feed is the subset of internal/ws.Feed the server needs, kept as an
// interface so the server package does not depend on the websocket
// implementation directly.
type Feed interface {
	BroadcastTrade(trade engine.Trade)
}

// Recorder is the subset of internal/store.TradeStore the server needs
// to durably record fills, kept as an interface for the same reason as Feed.
type Recorder interface {
	Add(trades []engine.Trade) error
}

// OrderRecorder is the subset of internal/store.OrderStore the server
// needs to durably record every submitted order, win or reject.
type OrderRecorder interface {
	AddOrUpdate(order engine.Order) error
}

type clientMessage struct {
	clientAddress string
	message       wire.Message
}

// Server is a TCP front end for an Exchange. Each accepted connection
// is handed to the worker pool for its first read; after a message is
// parsed it is pushed to sessionHandler so connection goroutines never
// block on engine access.
type Server struct {
	address string
	port    int
	ex      *engine.Exchange

	pool          *pool.WorkerPool
	logger        zerolog.Logger
	metrics       *metrics.Registry
	feed          Feed
	recorder      Recorder
	orderRecorder OrderRecorder

	nextOrderID uint64

	sessionsMu sync.Mutex
	sessions   map[string]net.Conn

	messages chan clientMessage
}

// New returns a Server bound to address:port, routing submissions into
// ex using a pool of nWorkers connection-handling goroutines.
func New(address string, port, nWorkers int, ex *engine.Exchange, logger zerolog.Logger) *Server {
	if nWorkers <= 0 {
		nWorkers = defaultNWorkers
	}
	return &Server{
		address:  address,
		port:     port,
		ex:       ex,
		pool:     pool.New(nWorkers, logger),
		logger:   logger,
		metrics:  metrics.NewRegistry(),
		sessions: make(map[string]net.Conn),
		messages: make(chan clientMessage, nWorkers),
	}
}

// WithFeed attaches a market-data feed that is notified of every trade.
func (s *Server) WithFeed(feed Feed) *Server {
	s.feed = feed
	return s
}

// WithRecorder attaches a trade store that every fill is persisted to.
func (s *Server) WithRecorder(recorder Recorder) *Server {
	s.recorder = recorder
	return s
}

// WithOrderRecorder attaches an order store that every submitted order
// is persisted to, whether it rested, filled, or was rejected.
func (s *Server) WithOrderRecorder(orderRecorder OrderRecorder) *Server {
	s.orderRecorder = orderRecorder
	return s
}

// Metrics returns the server's latency histogram registry.
func (s *Server) Metrics() *metrics.Registry { return s.metrics }

// Run accepts connections until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	defer listener.Close()
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	t.Go(func() error {
		s.pool.Run(t, s.handleConnection)
		return nil
	})
	t.Go(func() error {
		return s.sessionHandler(t)
	})

	s.logger.Info().Str("address", listener.Addr().String()).Msg("server listening")

	for {
		select {
		case <-ctx.Done():
			return t.Wait()
		default:
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return t.Wait()
				default:
					s.logger.Error().Err(err).Msg("accept failed")
					continue
				}
			}
			s.addSession(conn)
			s.pool.AddTask(conn)
		}
	}
}

func (s *Server) addSession(conn net.Conn) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	s.sessions[conn.RemoteAddr().String()] = conn
}

func (s *Server) removeSession(address string) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	delete(s.sessions, address)
}

// handleConnection reads exactly one message off conn, forwards it to
// sessionHandler, and re-queues the connection for its next message.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return fmt.Errorf("server: unexpected task type %T", task)
	}

	if err := conn.SetReadDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		s.logger.Warn().Err(err).Msg("failed to set read deadline")
	}

	buf := make([]byte, maxRecvSize)
	n, err := conn.Read(buf)
	if err != nil {
		s.removeSession(conn.RemoteAddr().String())
		conn.Close()
		return nil
	}

	msg, err := wire.ParseMessage(buf[:n])
	if err != nil {
		s.logger.Warn().Err(err).Str("address", conn.RemoteAddr().String()).Msg("failed to parse message")
		s.removeSession(conn.RemoteAddr().String())
		conn.Close()
		return nil
	}

	select {
	case <-t.Dying():
		return nil
	case s.messages <- clientMessage{clientAddress: conn.RemoteAddr().String(), message: msg}:
	}

	s.pool.AddTask(conn)
	return nil
}

func (s *Server) sessionHandler(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case cm := <-s.messages:
			s.dispatch(cm)
		}
	}
}

func (s *Server) dispatch(cm clientMessage) {
	switch m := cm.message.(type) {
	case wire.NewOrderMessage:
		timer := s.metrics.Timer("submit")
		id := atomic.AddUint64(&s.nextOrderID, 1)
		order := m.ToOrder(id, uint64(time.Now().UnixNano()))
		trades, err := s.ex.Submit(&order)
		timer.Stop()

		if s.orderRecorder != nil {
			if rerr := s.orderRecorder.AddOrUpdate(order); rerr != nil {
				s.logger.Error().Err(rerr).Uint64("order_id", order.ID).Msg("failed to record order")
			}
		}
		if err != nil {
			s.reportError(cm.clientAddress, order.Symbol, order.ID, err)
			return
		}

		for _, trade := range trades {
			s.reportTrade(trade)
			if s.feed != nil {
				s.feed.BroadcastTrade(trade)
			}
		}
		if s.recorder != nil && len(trades) > 0 {
			if rerr := s.recorder.Add(trades); rerr != nil {
				s.logger.Error().Err(rerr).Int("trade_count", len(trades)).Msg("failed to record trades")
			}
		}

	case wire.CancelOrderMessage:
		timer := s.metrics.Timer("cancel")
		_, err := s.ex.Cancel(m.Symbol, m.OrderID)
		timer.Stop()
		if err != nil {
			s.reportError(cm.clientAddress, m.Symbol, m.OrderID, err)
		}

	case wire.BaseMessage:
		// Heartbeat: nothing to do.

	default:
		s.logger.Warn().Str("address", cm.clientAddress).Msg("unhandled message type")
	}
}

func (s *Server) reportTrade(trade engine.Trade) {
	buyerReport, sellerReport := wire.TradeReports(trade)
	s.writeToOwner(trade.BuyUserID, buyerReport)
	s.writeToOwner(trade.SellUserID, sellerReport)
}

func (s *Server) reportError(clientAddress, symbol string, orderID uint64, err error) {
	s.sessionsMu.Lock()
	conn, ok := s.sessions[clientAddress]
	s.sessionsMu.Unlock()
	if !ok {
		return
	}
	if _, werr := conn.Write(wire.ErrorReportBytes(symbol, orderID, err)); werr != nil {
		s.logger.Error().Err(werr).Msg("failed to write error report")
	}
}

// writeToOwner is a routing seam: the session map is keyed by TCP
// address, not user ID, since the wire protocol carries no login
// handshake. It discards every report it is given, so no execution
// report is written to any connection.
func (s *Server) writeToOwner(userID uint64, report []byte) {
	_ = userID
	_ = report
}
