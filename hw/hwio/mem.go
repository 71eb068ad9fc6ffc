package hwio

import (
	"nescore/emu/log"
)

// Memory is a linear byte buffer that can be accessed directly, as a
// mirrored area or through fixed-size banks.
type Memory struct {
	Name     string // name of the memory area (for debugging)
	Data     []byte // actual memory buffer
	ReadOnly bool   // writes are dropped (and logged)
}

func NewMemory(name string, size int) *Memory {
	return &Memory{Name: name, Data: make([]byte, size)}
}

// NewROM wraps buf, which must not be modified afterwards, as a read-only
// memory area.
func NewROM(name string, buf []byte) *Memory {
	return &Memory{Name: name, Data: buf, ReadOnly: true}
}

func (m *Memory) Len() int { return len(m.Data) }

func (m *Memory) Read8(off int) uint8 {
	return m.Data[off]
}

func (m *Memory) Write8(off int, val uint8) {
	if m.ReadOnly {
		m.roWrite(off, val)
		return
	}
	m.Data[off] = val
}

// ReadMirrored reads at off modulo the memory size.
func (m *Memory) ReadMirrored(off int) uint8 {
	return m.Data[off%len(m.Data)]
}

func (m *Memory) WriteMirrored(off int, val uint8) {
	m.Write8(off%len(m.Data), val)
}

// BankOffset returns the offset in the buffer of addr within the bank of
// number bank, banks being bankSize bytes wide. Bank numbers higher than the
// number of banks wrap around.
func (m *Memory) BankOffset(bank, bankSize int, addr uint16) int {
	return (bank*bankSize + int(addr)%bankSize) % len(m.Data)
}

func (m *Memory) ReadBanked(bank, bankSize int, addr uint16) uint8 {
	return m.Data[m.BankOffset(bank, bankSize, addr)]
}

func (m *Memory) WriteBanked(bank, bankSize int, addr uint16, val uint8) {
	m.Write8(m.BankOffset(bank, bankSize, addr), val)
}

// NumBanks returns the number of bankSize banks in m, at least 1.
func (m *Memory) NumBanks(bankSize int) int {
	n := len(m.Data) / bankSize
	if n == 0 {
		return 1
	}
	return n
}

func (m *Memory) roWrite(off int, val uint8) {
	log.ModHwIo.DebugZ("write to read-only memory").
		String("area", m.Name).
		Hex32("off", uint32(off)).
		Hex8("val", val).
		End()
}

// Read16 reads a little-endian word from a byte reader.
func Read16(read func(uint16) uint8, addr uint16) uint16 {
	lo := read(addr)
	hi := read(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}
