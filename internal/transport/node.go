// Package transport carries the wire messages of spec.md §6 over HTTP
// (the teacher repo's substrate of choice) and implements the single-writer
// dispatch loop spec.md §5 requires: exactly one worker goroutine per node
// drains an inbound queue and calls into the Replica/Orderer, so every
// mutation to replica state is serialized without per-field locking.
package transport

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"seqkv/internal/wire"
)

// inboundQueueSize bounds how many undispatched messages a node will hold
// before the HTTP handler starts blocking the sender — backpressure rather
// than unbounded buffering.
const inboundQueueSize = 4096

type job struct {
	msgType string
	payload json.RawMessage
}

// Node runs one cluster member's HTTP listener and single dispatch worker.
type Node struct {
	self        wire.Host
	dispatcher  *Dispatcher
	logger      *log.Logger
	orderGetter func() int
	role        string

	inbox chan job
	stop  chan struct{}
	once  sync.Once // guards closing stop, which both Stop and a received exit trigger

	done         chan struct{} // closed once the dispatch loop exits
	shutdownDone chan struct{} // closed once the HTTP server has finished shutting down

	engine *gin.Engine
	srv    *http.Server
}

// NewNode wires a Dispatcher to an HTTP router and dispatch queue. role is
// "orderer" or "replica", reported on /health.
func NewNode(self wire.Host, dispatcher *Dispatcher, logger *log.Logger, role string, orderGetter func() int) *Node {
	n := &Node{
		self:         self,
		dispatcher:   dispatcher,
		logger:       logger,
		orderGetter:  orderGetter,
		role:         role,
		inbox:        make(chan job, inboundQueueSize),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
		shutdownDone: make(chan struct{}),
	}
	n.engine = n.newRouter()
	return n
}

// requestStop signals the dispatch loop to exit. Safe to call more than
// once (Stop and a received exit message can both trigger it) and from any
// goroutine.
func (n *Node) requestStop() {
	n.once.Do(func() { close(n.stop) })
}

// newRouter mirrors the teacher repo's api.Handler.Register: a small gin
// engine with structured request logging and panic recovery middleware.
func (n *Node) newRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(n.requestLogger(), n.recovery())

	r.POST("/message", n.handleMessage)
	r.GET("/health", n.handleHealth)
	return r
}

// handleMessage decodes the envelope and enqueues it for the dispatch
// worker, then returns immediately: spec.md's protocol is asynchronous
// message-passing, so the HTTP response carries no protocol reply — that
// arrives later as a separate outbound message (write_result, a read
// response, or an acknowledge).
func (n *Node) handleMessage(c *gin.Context) {
	var env wire.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	select {
	case n.inbox <- job{msgType: env.Type, payload: env.Payload}:
		c.Status(http.StatusAccepted)
	case <-c.Request.Context().Done():
		c.Status(http.StatusServiceUnavailable)
	}
}

func (n *Node) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"host":        n.self.String(),
		"role":        n.role,
		"order_index": n.orderGetter(),
	})
}

// loop is the single-writer executor: it is the only goroutine that ever
// calls into the Dispatcher, so every Replica/Orderer mutation is
// serialized (spec.md §5). A received exit message requests its own
// shutdown once dispatched, exactly like an operator calling Stop.
func (n *Node) loop() {
	defer close(n.done)
	for {
		select {
		case j := <-n.inbox:
			if err := n.dispatcher.Dispatch(j.msgType, j.payload); err != nil {
				n.logger.Printf("dispatch %s: %v (dropped)", j.msgType, err)
			}
			if j.msgType == wire.TypeExit {
				n.requestStop()
			}
		case <-n.stop:
			return
		}
	}
}

// Run starts the dispatch worker and serves HTTP on addr until the loop
// stops (via Stop or a received exit message) or the server errors.
func (n *Node) Run(addr string) error {
	go n.loop()

	n.srv = &http.Server{
		Addr:         addr,
		Handler:      n.engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- n.srv.ListenAndServe() }()

	// Once the dispatch loop exits for any reason, bring the HTTP server
	// down too: spec.md §7's "on exit, the node closes its socket and
	// stops" applies whether the trigger was a received exit message or an
	// operator-issued Stop.
	go func() {
		<-n.done
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := n.srv.Shutdown(ctx); err != nil {
			n.logger.Printf("shutdown error: %v", err)
		}
		close(n.shutdownDone)
	}()

	if err := <-serveErr; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop implements spec.md §7's exit semantics from the operator side:
// request the dispatch loop to stop and wait for the HTTP server to finish
// shutting down, bounded by ctx.
func (n *Node) Stop(ctx context.Context) error {
	n.requestStop()
	select {
	case <-n.shutdownDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// requestLogger mirrors the teacher repo's api.Logger middleware, adding a
// per-request trace id (the zmux-server example's pattern for correlating
// log lines) to every line.
func (n *Node) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		traceID := uuid.NewString()
		c.Set("trace_id", traceID)

		c.Next()

		n.logger.Printf("[%s] %s %s | %d | %s | trace=%s",
			c.Request.Method, c.Request.URL.Path, c.ClientIP(),
			c.Writer.Status(), time.Since(start), traceID)
	}
}

// recovery mirrors the teacher repo's api.Recovery middleware.
func (n *Node) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				n.logger.Printf("PANIC recovered: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}
