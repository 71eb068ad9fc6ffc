package mappers

import (
	"fmt"

	"nescore/hw/snapshot"
)

func (m *Mapper) State() *snapshot.Mapper {
	state := &snapshot.Mapper{
		Kind:      uint8(m.Kind),
		Mirroring: uint8(m.mirroring),
		PRGRAM:    clone(m.SRAM.Data),
		VRAM:      clone(m.VRAM.Data),
		CHRBank:   m.cnrom.chrbank,
		MMC1: snapshot.MMC1{
			PrevCycle: m.mmc1.prevCycle,
			Serial:    m.mmc1.serial,
			Counter:   m.mmc1.counter,
			Ctrl:      m.mmc1.ctrl,
			CHR0:      m.mmc1.chrbank0,
			CHR1:      m.mmc1.chrbank1,
			PRG:       m.mmc1.prgbank,
		},
	}
	if m.chrRAM {
		state.CHRRAM = clone(m.CHR.Data)
	}
	return state
}

func (m *Mapper) SetState(state *snapshot.Mapper) error {
	if Kind(state.Kind) != m.Kind {
		return fmt.Errorf("snapshot is for a %s board, cartridge is %s", Kind(state.Kind), m.Kind)
	}
	if err := restore("PRG RAM", m.SRAM.Data, state.PRGRAM); err != nil {
		return err
	}
	if err := restore("VRAM", m.VRAM.Data, state.VRAM); err != nil {
		return err
	}
	if m.chrRAM {
		if err := restore("CHR RAM", m.CHR.Data, state.CHRRAM); err != nil {
			return err
		}
	}

	m.mirroring = Mirroring(state.Mirroring)
	m.cnrom.chrbank = state.CHRBank
	m.mmc1 = mmc1{
		prevCycle: state.MMC1.PrevCycle,
		serial:    state.MMC1.Serial,
		counter:   state.MMC1.Counter,
		ctrl:      state.MMC1.Ctrl,
		chrbank0:  state.MMC1.CHR0,
		chrbank1:  state.MMC1.CHR1,
		prgbank:   state.MMC1.PRG,
	}
	return nil
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}

func restore(name string, dst, src []byte) error {
	if len(dst) != len(src) {
		return fmt.Errorf("%s snapshot size mismatch: got %d bytes, want %d", name, len(src), len(dst))
	}
	copy(dst, src)
	return nil
}
