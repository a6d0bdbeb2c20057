package interfaces

//go:generate mockgen -source=sequence_allocator_interface.go -destination=mocks/sequence_allocator_interface_mock.go -package=mock_interfaces

import (
	"context"

	"mecanica_oficina/internal/domain/entities"
)

// ISequenceAllocator hands out formatted numbers from an atomic per (kind, year) counter.
// Numbers are never repeated; a failed caller may leave a gap.
type ISequenceAllocator interface {
	Next(ctx context.Context, kind entities.SequenceKind, year int) (string, error)
}
