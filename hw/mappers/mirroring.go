package mappers

// Mirroring is the nametable layout: how the 4 logical nametables of the PPU
// address space map onto the physical VRAM.
type Mirroring uint8

const (
	HorzMirroring Mirroring = iota
	VertMirroring
	OnlyAScreen // single screen, lower bank
	OnlyBScreen // single screen, upper bank
	FourScreen
)

var mirroringNames = [...]string{"horizontal", "vertical", "single-A", "single-B", "four-screen"}

func (m Mirroring) String() string {
	if int(m) < len(mirroringNames) {
		return mirroringNames[m]
	}
	return "unknown"
}

var ntLayout = [...][4]int{
	HorzMirroring: {0, 0, 1, 1},
	VertMirroring: {0, 1, 0, 1},
	OnlyAScreen:   {0, 0, 0, 0},
	OnlyBScreen:   {1, 1, 1, 1},
	FourScreen:    {0, 1, 2, 3},
}

// offset returns the VRAM offset of a nametable address ($2000-$3EFF).
func (m Mirroring) offset(addr uint16) int {
	a := int(addr-0x2000) & 0x0FFF
	return ntLayout[m][a/0x400]*0x400 + a&0x3FF
}
