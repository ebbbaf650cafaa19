package cell

import (
	"fmt"

	"github.com/tonbridge/relay/pkg/relayerr"
)

// Slice is a read cursor over a Cell's bits and refs.
type Slice struct {
	bits    *bitString
	pos     int
	refs    []*Cell
	refsPos int
}

func (s *Slice) checkBits(n int) error {
	if s.pos+n > s.bits.len {
		return fmt.Errorf("cell: slice underflow, want %d bits, have %d remaining", n, s.bits.len-s.pos)
	}
	return nil
}

// LoadBool reads a single bit.
func (s *Slice) LoadBool() (bool, error) {
	if err := s.checkBits(1); err != nil {
		return false, err
	}
	v := s.bits.readBits(s.pos, 1)
	s.pos++
	return v == 1, nil
}

// LoadUint reads bitLen bits as an unsigned integer.
func (s *Slice) LoadUint(bitLen int) (uint64, error) {
	if bitLen <= 0 || bitLen > 64 {
		return 0, fmt.Errorf("cell: LoadUint bitLen %d out of range", bitLen)
	}
	if err := s.checkBits(bitLen); err != nil {
		return 0, err
	}
	v := s.bits.readBits(s.pos, bitLen)
	s.pos += bitLen
	return v, nil
}

// LoadInt reads bitLen bits as a sign-extended two's-complement integer.
func (s *Slice) LoadInt(bitLen int) (int64, error) {
	v, err := s.LoadUint(bitLen)
	if err != nil {
		return 0, err
	}
	if bitLen < 64 && v&(1<<uint(bitLen-1)) != 0 {
		v |= ^uint64(0) << uint(bitLen)
	}
	return int64(v), nil
}

// LoadBytes reads n raw bytes.
func (s *Slice) LoadBytes(n int) ([]byte, error) {
	if err := s.checkBits(n * 8); err != nil {
		return nil, err
	}
	b := s.bits.readBytes(s.pos, n)
	s.pos += n * 8
	return b, nil
}

// LoadRef consumes and returns the next child-cell reference.
func (s *Slice) LoadRef() (*Cell, error) {
	if s.refsPos >= len(s.refs) {
		return nil, fmt.Errorf("cell: no more refs to load")
	}
	r := s.refs[s.refsPos]
	s.refsPos++
	return r, nil
}

// RemainingBits reports how many data bits are left unread.
func (s *Slice) RemainingBits() int {
	return s.bits.len - s.pos
}

// RemainingRefs reports how many refs are left unread.
func (s *Slice) RemainingRefs() int {
	return len(s.refs) - s.refsPos
}

// EnsureEmpty returns relayerr.ErrLeftoverInput if the slice was not fully consumed.
func (s *Slice) EnsureEmpty() error {
	if s.RemainingBits() != 0 || s.RemainingRefs() != 0 {
		return fmt.Errorf("%w: %d bits, %d refs left", relayerr.ErrLeftoverInput, s.RemainingBits(), s.RemainingRefs())
	}
	return nil
}

// LoadBytesSnake is the reader counterpart of StoreBytesSnake: it reads all
// remaining bytes in this cell, then follows a continuation ref (if any) and
// appends its bytes recursively.
func LoadBytesSnake(s *Slice) ([]byte, error) {
	n := s.RemainingBits() / 8
	head, err := s.LoadBytes(n)
	if err != nil {
		return nil, err
	}
	if s.RemainingRefs() == 0 {
		return head, nil
	}
	ref, err := s.LoadRef()
	if err != nil {
		return nil, err
	}
	tail, err := LoadBytesSnake(ref.BeginParse())
	if err != nil {
		return nil, err
	}
	return append(head, tail...), nil
}

// LoadBytesSnakeN reads exactly n bytes written by StoreBytesSnake, crossing
// into continuation refs as needed.
func LoadBytesSnakeN(s *Slice, n int) ([]byte, error) {
	avail := s.RemainingBits() / 8
	if n <= avail {
		return s.LoadBytes(n)
	}
	head, err := s.LoadBytes(avail)
	if err != nil {
		return nil, err
	}
	ref, err := s.LoadRef()
	if err != nil {
		return nil, fmt.Errorf("cell: snake underflow, need %d more bytes and no continuation ref", n-avail)
	}
	tail, err := LoadBytesSnakeN(ref.BeginParse(), n-avail)
	if err != nil {
		return nil, err
	}
	return append(head, tail...), nil
}
