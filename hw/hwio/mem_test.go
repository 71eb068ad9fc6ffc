package hwio

import "testing"

func TestMemoryMirrored(t *testing.T) {
	m := NewMemory("ram", 0x800)
	m.WriteMirrored(0x1801, 0x42)

	for _, off := range []int{0x0001, 0x0801, 0x1001, 0x1801} {
		if got := m.ReadMirrored(off); got != 0x42 {
			t.Errorf("ReadMirrored(%04x) = %02x, want 42", off, got)
		}
	}
}

func TestMemoryBanked(t *testing.T) {
	m := NewMemory("prg", 4*0x4000)
	for bank := range 4 {
		m.Data[bank*0x4000+0x123] = uint8(bank + 1)
	}

	tests := []struct {
		bank int
		addr uint16
		want uint8
	}{
		{0, 0x8123, 1},
		{1, 0xC123, 2},
		{3, 0x0123, 4},
		{4, 0x0123, 1}, // wraps
		{7, 0x4123, 4},
	}
	for _, tt := range tests {
		if got := m.ReadBanked(tt.bank, 0x4000, tt.addr); got != tt.want {
			t.Errorf("ReadBanked(%d, %04x) = %d, want %d", tt.bank, tt.addr, got, tt.want)
		}
	}

	if n := m.NumBanks(0x8000); n != 2 {
		t.Errorf("NumBanks(32K) = %d, want 2", n)
	}
}

func TestMemoryReadOnly(t *testing.T) {
	rom := NewROM("chr", []byte{1, 2, 3, 4})
	rom.Write8(1, 0xFF)
	rom.WriteBanked(0, 2, 1, 0xFF)
	if rom.Data[1] != 2 {
		t.Errorf("read-only memory has been written: %v", rom.Data)
	}
}

func TestRead16(t *testing.T) {
	m := NewMemory("ram", 0x100)
	m.Data[0xFF] = 0x34
	m.Data[0x00] = 0x12
	read := func(addr uint16) uint8 { return m.ReadMirrored(int(addr)) }
	if got := Read16(read, 0xFFFF); got != 0x1234 {
		t.Errorf("Read16 = %04x, want 1234", got)
	}
}
