package partition

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrInvalidPartitionCount = errors.New("partition count must be at least 1")
	ErrInvalidDescriptor     = errors.New("invalid partition descriptor")
	ErrTargetCountMismatch   = errors.New("number of targets does not match the partition count")
	ErrUnknownPartition      = errors.New("unknown partition")
)

// ID identifies a partition. IDs are dense, 0 to N-1.
type ID int

// String renders the ID for logs and labels.
func (id ID) String() string {
	return strconv.Itoa(int(id))
}

// Descriptor is the configuration of one partition.
type Descriptor struct {
	ID   ID
	Name string
	DSN  string
}

// Label returns the name of the partition, or its ID if it has no name.
func (d Descriptor) Label() string {
	if d.Name != "" {
		return d.Name
	}

	return "partition-" + d.ID.String()
}

// Set is an ordered, validated list of partition descriptors.
type Set struct {
	descriptors []Descriptor
}

// NewSet validates the descriptors: IDs must be exactly 0..N-1 and names unique and non-empty.
func NewSet(descriptors []Descriptor) (Set, error) {
	if len(descriptors) == 0 {
		return Set{}, ErrInvalidPartitionCount
	}

	ordered := make([]Descriptor, len(descriptors))
	seenID := make(map[ID]bool, len(descriptors))
	seenName := make(map[string]bool, len(descriptors))

	for _, d := range descriptors {
		if d.ID < 0 || int(d.ID) >= len(descriptors) {
			return Set{}, errors.Join(ErrInvalidDescriptor, fmt.Errorf("partition id %d out of range 0..%d", d.ID, len(descriptors)-1))
		}

		if seenID[d.ID] {
			return Set{}, errors.Join(ErrInvalidDescriptor, fmt.Errorf("duplicate partition id %d", d.ID))
		}

		if d.Name == "" {
			return Set{}, errors.Join(ErrInvalidDescriptor, fmt.Errorf("partition %d has no name", d.ID))
		}

		if seenName[d.Name] {
			return Set{}, errors.Join(ErrInvalidDescriptor, fmt.Errorf("duplicate partition name %q", d.Name))
		}

		seenID[d.ID] = true
		seenName[d.Name] = true
		ordered[d.ID] = d
	}

	return Set{descriptors: ordered}, nil
}

// Len returns the number of partitions.
func (s Set) Len() int {
	return len(s.descriptors)
}

// Descriptors returns a copy of the descriptors ordered by ID.
func (s Set) Descriptors() []Descriptor {
	out := make([]Descriptor, len(s.descriptors))
	copy(out, s.descriptors)

	return out
}

// Get returns the descriptor of one partition.
func (s Set) Get(id ID) (Descriptor, error) {
	if id < 0 || int(id) >= len(s.descriptors) {
		return Descriptor{}, errors.Join(ErrUnknownPartition, fmt.Errorf("partition %d", id))
	}

	return s.descriptors[id], nil
}

// Router returns the router for this set.
func (s Set) Router() Router {
	return Router{count: len(s.descriptors)}
}
