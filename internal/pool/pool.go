// Package pool implementa el worker pool acotado que comparte todo el
// dispatch de emails: workers residentes (core), un techo de workers de
// overflow (max) y una cola acotada.
//
// El contrato es fire-and-forget: Submit encola y retorna; no hay handle
// para cancelar una tarea ya aceptada y no hay garantía de orden entre
// tareas. Si la cola está llena y el techo alcanzado, Submit retorna
// ErrSaturated en lugar de descartar trabajo en silencio.
package pool

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrSaturated indica cola llena y techo de workers alcanzado.
	ErrSaturated = errors.New("pool: saturated")

	// ErrClosed indica que el pool ya fue apagado.
	ErrClosed = errors.New("pool: closed")
)

// Config dimensiona el pool.
type Config struct {
	// Core es la cantidad de workers residentes. Default 50.
	Core int
	// Max es el techo incluyendo workers de overflow. Default 100.
	Max int
	// QueueSize es la capacidad de la cola. Default 2000.
	QueueSize int
	// IdleTimeout es cuánto vive un worker de overflow sin trabajo.
	// Default 60s.
	IdleTimeout time.Duration

	Logger *zap.Logger
}

// Pool es el ejecutor. Construirlo explícitamente e inyectarlo (no hay
// singleton): los tests lo sustituyen por una config sincrónica chica.
type Pool struct {
	tasks chan func()
	idle  time.Duration
	log   *zap.Logger

	mu     sync.Mutex
	active int // workers vivos (core + overflow)
	max    int
	closed bool

	wg sync.WaitGroup
}

// New construye el pool y levanta los workers residentes.
func New(cfg Config) *Pool {
	if cfg.Core <= 0 {
		cfg.Core = 50
	}
	if cfg.Max < cfg.Core {
		cfg.Max = cfg.Core * 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 2000
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	p := &Pool{
		tasks:  make(chan func(), cfg.QueueSize),
		idle:   cfg.IdleTimeout,
		log:    cfg.Logger.Named("pool"),
		active: cfg.Core,
		max:    cfg.Max,
	}
	for i := 0; i < cfg.Core; i++ {
		p.wg.Add(1)
		go p.coreWorker()
	}
	return p
}

// Submit encola una tarea. No bloquea: si la cola está llena intenta
// levantar un worker de overflow; si el techo ya se alcanzó retorna
// ErrSaturated y el caller decide (reintentar, bajar concurrencia).
func (p *Pool) Submit(task func()) error {
	if task == nil {
		return nil
	}
	// El lock cubre el send no bloqueante: Shutdown cierra el canal bajo
	// el mismo lock, así que un Submit concurrente nunca envía a un canal
	// cerrado.
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	select {
	case p.tasks <- task:
		p.mu.Unlock()
		return nil
	default:
	}

	// Cola llena: overflow worker si hay margen. La tarea entra como
	// primera unidad de trabajo del worker nuevo, no via cola.
	if p.active >= p.max {
		p.mu.Unlock()
		return ErrSaturated
	}
	p.active++
	p.mu.Unlock()

	p.wg.Add(1)
	go p.overflowWorker(task)
	return nil
}

// QueueDepth retorna la cantidad de tareas encoladas (para métricas).
func (p *Pool) QueueDepth() int {
	return len(p.tasks)
}

// Shutdown deja de aceptar tareas, drena la cola y espera a los workers,
// o corta cuando el contexto expira.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) coreWorker() {
	defer p.wg.Done()
	defer p.release()
	for task := range p.tasks {
		p.run(task)
	}
}

func (p *Pool) overflowWorker(first func()) {
	defer p.wg.Done()
	defer p.release()
	p.run(first)
	timer := time.NewTimer(p.idle)
	defer timer.Stop()
	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.run(task)
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(p.idle)
		case <-timer.C:
			return
		}
	}
}

func (p *Pool) release() {
	p.mu.Lock()
	p.active--
	p.mu.Unlock()
}

func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("task panicked", zap.Any("panic", r))
		}
	}()
	task()
}
