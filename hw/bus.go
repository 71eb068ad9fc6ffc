package hw

import (
	"nescore/emu/log"
	"nescore/hw/apu"
	"nescore/hw/hwdefs"
	"nescore/hw/hwio"
	"nescore/hw/mappers"
	"nescore/hw/snapshot"
)

const (
	OAMDMA    = 0x4014
	APUSTATUS = 0x4015
	JOYPAD1   = 0x4016
	JOYPAD2   = 0x4017
)

// Bus connects the CPU, PPU, APU, controllers and cartridge. It decodes the
// CPU and PPU address spaces and carries the NMI and IRQ lines.
//
// CPU memory map:
//
//	$0000-$07FF  2K internal RAM, mirrored up to $1FFF
//	$2000-$2007  PPU registers, mirrored up to $3FFF
//	$4000-$4013  APU channels
//	$4014        OAM DMA
//	$4015        APU status
//	$4016-$4017  controllers (and APU frame counter on write)
//	$4018-$401F  test mode registers (unmapped)
//	$4020-$FFFF  cartridge
type Bus struct {
	RAM    *hwio.Memory
	CPU    *CPU
	PPU    *PPU
	APU    *apu.APU
	Mapper *mappers.Mapper
	Input  InputPorts

	openBus uint8
	nmi     bool
	irq     hwdefs.IRQSource
}

// NewBus creates the whole NES system around a cartridge: the bus the CPU,
// PPU and APU are connected to. The returned bus is at power-on state:
// call Reset with PowerCycle before running it.
func NewBus(mapper *mappers.Mapper, mixer *apu.Mixer) *Bus {
	b := &Bus{
		RAM:    hwio.NewMemory("RAM", 0x800),
		Mapper: mapper,
	}
	b.CPU = NewCPU(b)
	b.PPU = NewPPU(b)
	b.APU = apu.New(b, mixer)

	b.CPU.PPU = b.PPU
	b.CPU.APU = b.APU
	b.CPU.DMA.SetDMC(&b.APU.DMC)

	if mapper != nil {
		mapper.SetClock(b)
	}
	return b
}

// Reset resets all the chips. The order matters: the CPU reset runs cycles,
// clocking the PPU and APU.
func (b *Bus) Reset(kind ResetKind) {
	b.nmi = false
	b.irq = 0
	if kind == PowerCycle {
		b.openBus = 0
		clear(b.RAM.Data)
	}

	if b.Mapper != nil {
		b.Mapper.Reset(kind == PowerCycle)
	}
	b.Input.Reset()
	b.PPU.Reset(kind)
	b.APU.Reset(kind)
	b.CPU.Reset(kind)
}

/* CPU address space */

func (b *Bus) Read8(addr uint16) uint8 {
	val, setOpenBus := b.read(addr)
	if setOpenBus {
		b.openBus = val
	}
	return val
}

func (b *Bus) read(addr uint16) (uint8, bool) {
	switch {
	case addr < 0x2000:
		return b.RAM.ReadMirrored(int(addr)), true
	case addr < 0x4000:
		return b.PPU.ReadPort(addr), true
	case addr == APUSTATUS:
		// $4015 is internal to the 2A03: it doesn't drive the external
		// data bus.
		return b.APU.ReadStatus() | b.openBus&0x20, false
	case addr == JOYPAD1 || addr == JOYPAD2:
		return b.Input.Read(int(addr-JOYPAD1)) | b.openBus&0xE0, true
	case addr < 0x4020:
		return b.openBus, true
	}

	if b.Mapper != nil {
		if val, ok := b.Mapper.CPURead(addr); ok {
			return val, true
		}
	}
	return b.openBus, true
}

// Peek8 reads the CPU address space without side effects.
func (b *Bus) Peek8(addr uint16) uint8 {
	switch {
	case addr < 0x2000:
		return b.RAM.ReadMirrored(int(addr))
	case addr < 0x4000:
		return b.PPU.PeekPort(addr)
	case addr == APUSTATUS:
		return b.APU.PeekStatus() | b.openBus&0x20
	case addr == JOYPAD1 || addr == JOYPAD2:
		return b.Input.Peek(int(addr-JOYPAD1)) | b.openBus&0xE0
	case addr < 0x4020:
		return b.openBus
	}

	if b.Mapper != nil {
		if val, ok := b.Mapper.CPURead(addr); ok {
			return val
		}
	}
	return b.openBus
}

func (b *Bus) Write8(addr uint16, val uint8) {
	b.openBus = val

	switch {
	case addr < 0x2000:
		b.RAM.WriteMirrored(int(addr), val)
	case addr < 0x4000:
		b.PPU.WritePort(addr, val)
	case addr == OAMDMA:
		b.CPU.DMA.StartOAM(val)
	case addr == JOYPAD1:
		b.Input.Write(val)
	case addr < 0x4018:
		b.APU.WriteReg(addr, val)
	case addr < 0x4020:
		log.ModMem.DebugZ("write to test register").
			Hex16("addr", addr).
			Hex8("val", val).
			End()
	default:
		if b.Mapper == nil || !b.Mapper.CPUWrite(addr, val) {
			log.ModMem.DebugZ("unmapped write").
				Hex16("addr", addr).
				Hex8("val", val).
				End()
		}
	}
}

// OpenBus returns the last value seen on the CPU data bus.
func (b *Bus) OpenBus() uint8 { return b.openBus }

// CurrentCycle returns the CPU cycle counter.
func (b *Bus) CurrentCycle() int64 { return b.CPU.Cycles }

/* PPU address space */

// pattern tables and nametables are on the cartridge. $3000-$3EFF mirrors
// the nametables and, for reads, so does the palette range.
func ppuAddr(addr uint16) uint16 {
	addr &= 0x3FFF
	if addr >= 0x3000 {
		addr -= 0x1000
	}
	return addr
}

func (b *Bus) PPURead(addr uint16) uint8 {
	if b.Mapper != nil {
		if val, ok := b.Mapper.PPURead(ppuAddr(addr)); ok {
			return val
		}
	}
	// The PPU data bus keeps the low byte of the address.
	return uint8(addr)
}

func (b *Bus) PPUWrite(addr uint16, val uint8) {
	if b.Mapper == nil || !b.Mapper.PPUWrite(ppuAddr(addr), val) {
		log.ModPPU.DebugZ("unmapped PPU write").
			Hex16("addr", addr).
			Hex8("val", val).
			End()
	}
}

/* interrupt lines */

func (b *Bus) SetNMI(asserted bool) { b.nmi = asserted }
func (b *Bus) NMILine() bool        { return b.nmi }

func (b *Bus) IRQLines() hwdefs.IRQSource { return b.irq }

func (b *Bus) SetIRQSource(src hwdefs.IRQSource)      { b.irq |= src }
func (b *Bus) ClearIRQSource(src hwdefs.IRQSource)    { b.irq &^= src }
func (b *Bus) HasIRQSource(src hwdefs.IRQSource) bool { return b.irq&src != 0 }

/* DMC DMA */

func (b *Bus) StartDMCTransfer() { b.CPU.DMA.StartDMC() }
func (b *Bus) StopDMCTransfer()  { b.CPU.DMA.StopDMC() }

func (b *Bus) State() *snapshot.Bus {
	return &snapshot.Bus{
		OpenBus: b.openBus,
		NMI:     b.nmi,
		IRQ:     uint8(b.irq),
	}
}

func (b *Bus) SetState(state *snapshot.Bus) {
	b.openBus = state.OpenBus
	b.nmi = state.NMI
	b.irq = hwdefs.IRQSource(state.IRQ)
}
