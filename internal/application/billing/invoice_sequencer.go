package billing

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/jhoicas/retail-inventory/internal/domain"
	"github.com/jhoicas/retail-inventory/internal/domain/repository"
	"github.com/jhoicas/retail-inventory/pkg/logger"
)

// Valores por defecto del secuenciador.
const (
	DefaultInvoicePrefix      = "INV-"
	DefaultInvoiceMaxAttempts = 10
)

// SequencerConfig parámetros del secuenciador.
type SequencerConfig struct {
	Prefix      string
	MaxAttempts int
	RetryDelay  time.Duration    // espera entre intentos; 0 = sin espera
	Now         func() time.Time // nil = time.Now
}

// InvoiceSequencer genera números de factura únicos entre llamadas concurrentes.
//
// Cada candidato combina marca de tiempo en nanosegundos, un hash de la identidad del llamador
// y el número de intento. La unicidad la garantiza la reserva en BD (clave única): un conflicto
// pasa al siguiente intento. Agotados los intentos se devuelve un número derivado de los
// milisegundos (módulo 100000), que puede repetirse: limitación conocida. Si ya estaba reservado
// se devuelve igual y el log de advertencia lo marca con duplicate=true.
type InvoiceSequencer struct {
	repo  repository.InvoiceNumberRepository
	log   *logger.Logger
	cfg   SequencerConfig
	nonce string
	seq   atomic.Uint64
}

// NewInvoiceSequencer construye el secuenciador.
func NewInvoiceSequencer(repo repository.InvoiceNumberRepository, log *logger.Logger, cfg SequencerConfig) *InvoiceSequencer {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultInvoicePrefix
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultInvoiceMaxAttempts
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	var b [8]byte
	_, _ = rand.Read(b[:])
	return &InvoiceSequencer{repo: repo, log: log, cfg: cfg, nonce: hex.EncodeToString(b[:])}
}

// Next reserva y devuelve un número de factura.
func (s *InvoiceSequencer) Next(ctx context.Context) (string, error) {
	caller := CallerFromContext(ctx)
	for attempt := 0; attempt < s.cfg.MaxAttempts; attempt++ {
		if attempt > 0 && s.cfg.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %w", domain.ErrPersistence, ctx.Err())
			case <-time.After(s.cfg.RetryDelay):
			}
		}

		candidate := s.candidate(caller, attempt)
		exists, err := s.repo.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if exists {
			continue
		}
		err = s.repo.Reserve(ctx, candidate)
		if errors.Is(err, domain.ErrConflict) {
			s.log.Debug().Str("candidate", candidate).Int("attempt", attempt).Msg("número de factura en uso, reintentando")
			continue
		}
		if err != nil {
			return "", err
		}
		return candidate, nil
	}

	fallback := fmt.Sprintf("%s%05d", s.cfg.Prefix, s.cfg.Now().UnixMilli()%100000)
	err := s.repo.Reserve(ctx, fallback)
	duplicate := errors.Is(err, domain.ErrConflict)
	if err != nil && !duplicate {
		return "", err
	}
	s.log.Warn().
		Str("invoice_number", fallback).
		Int("attempts", s.cfg.MaxAttempts).
		Bool("duplicate", duplicate).
		Msg("intentos agotados: número de factura de respaldo (puede repetirse)")
	return fallback, nil
}

func (s *InvoiceSequencer) candidate(caller string, attempt int) string {
	n := s.seq.Add(1)
	sum := blake2b.Sum256([]byte(caller + "|" + s.nonce + "|" + strconv.FormatUint(n, 10)))
	ts := strings.ToUpper(strconv.FormatInt(s.cfg.Now().UnixNano(), 36))
	return fmt.Sprintf("%s%s%s%02d", s.cfg.Prefix, ts, strings.ToUpper(hex.EncodeToString(sum[:2])), attempt)
}

type callerKey struct{}

// WithCaller asocia la identidad del llamador (usuario, terminal) al contexto.
func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext devuelve la identidad del llamador o "anonymous".
func CallerFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(callerKey{}).(string); ok && v != "" {
		return v
	}
	return "anonymous"
}
