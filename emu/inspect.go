package emu

import (
	"errors"
	"fmt"

	"nescore/hw"
)

// RegisterKind tells how a debugger front end should display a register.
type RegisterKind uint8

const (
	RegRegular RegisterKind = iota
	RegStack
	RegPC
	RegFlags
)

func (k RegisterKind) String() string {
	switch k {
	case RegStack:
		return "stack"
	case RegPC:
		return "pc"
	case RegFlags:
		return "flags"
	}
	return "regular"
}

type RegisterInfo struct {
	Kind  RegisterKind
	Name  string
	Width int // in bytes
	Value uint16
}

var ErrUnknownRegister = errors.New("unknown register")

// Registers returns the CPU registers.
func (c *Console) Registers() []RegisterInfo {
	if c.bus == nil {
		return nil
	}
	cpu := c.bus.CPU
	return []RegisterInfo{
		{RegRegular, "A", 1, uint16(cpu.A)},
		{RegRegular, "X", 1, uint16(cpu.X)},
		{RegRegular, "Y", 1, uint16(cpu.Y)},
		{RegStack, "SP", 1, uint16(cpu.SP)},
		{RegPC, "PC", 2, cpu.PC},
		{RegFlags, "P", 1, uint16(cpu.P)},
	}
}

// SetRegister modifies a CPU register by name, as returned by Registers.
func (c *Console) SetRegister(name string, value uint16) error {
	if err := c.loaded(); err != nil {
		return err
	}

	cpu := c.bus.CPU
	if name != "PC" && value > 0xFF {
		return fmt.Errorf("register %s: value $%04X overflows 8 bits", name, value)
	}
	switch name {
	case "A":
		cpu.A = uint8(value)
	case "X":
		cpu.X = uint8(value)
	case "Y":
		cpu.Y = uint8(value)
	case "SP":
		cpu.SP = uint8(value)
	case "PC":
		cpu.PC = value
	case "P":
		cpu.P = hw.P(value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRegister, name)
	}
	return nil
}

type InstructionInfo struct {
	Address  uint16
	Bytes    []byte
	Mnemonic string
	Operand  string
}

// Disassemble decodes count instructions starting at address at. Memory is
// read without side effects. A count <= 0 returns nil.
func (c *Console) Disassemble(at uint16, count int) []InstructionInfo {
	if c.bus == nil || count <= 0 {
		return nil
	}
	infos := make([]InstructionInfo, 0, count)
	pc := at
	for range count {
		op := hw.Disasm(c.bus.Peek8, pc)
		infos = append(infos, InstructionInfo{
			Address:  op.PC,
			Bytes:    op.Buf,
			Mnemonic: op.Opcode,
			Operand:  op.Oper,
		})
		pc += uint16(len(op.Buf))
	}
	return infos
}

// Memory returns the content of the CPU address space between lo and hi
// (inclusive), without side effects.
func (c *Console) Memory(lo, hi uint16) []byte {
	if c.bus == nil || hi < lo {
		return nil
	}
	buf := make([]byte, 0, int(hi-lo)+1)
	for addr := int(lo); addr <= int(hi); addr++ {
		buf = append(buf, c.bus.Peek8(uint16(addr)))
	}
	return buf
}

// Peek8 reads a byte of the CPU address space without side effects. It
// returns 0 when no cartridge is loaded.
func (c *Console) Peek8(addr uint16) uint8 {
	if c.bus == nil {
		return 0
	}
	return c.bus.Peek8(addr)
}

// PC returns the program counter.
func (c *Console) PC() uint16 {
	if c.bus == nil {
		return 0
	}
	return c.bus.CPU.PC
}
