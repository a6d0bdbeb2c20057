package memory

import (
	"context"

	"mecanica_oficina/internal/domain/entities"
	"mecanica_oficina/internal/usecase/interfaces"
)

type SequenceAllocator struct {
	s *Store
}

var _ interfaces.ISequenceAllocator = (*SequenceAllocator)(nil)

func (a *SequenceAllocator) Next(ctx context.Context, kind entities.SequenceKind, year int) (string, error) {
	if err := alive(ctx); err != nil {
		return "", err
	}
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	key := kind.Key(year)
	a.s.sequences[key]++
	return kind.Format(year, a.s.sequences[key]), nil
}
