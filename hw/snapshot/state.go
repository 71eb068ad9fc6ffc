// Package snapshot defines the serialized state of each emulated component.
package snapshot

// Version is incremented each time the layout of a snapshot changes in an
// incompatible way.
const Version = 1

type NES struct {
	Version int
	Bus     *Bus
	CPU     *CPU
	DMA     *DMA
	RAM     []byte
	PPU     *PPU
	APU     *APU
	Mapper  *Mapper
	Input   *Input
}

type Bus struct {
	OpenBus uint8
	NMI     bool
	IRQ     uint8
}

type CPU struct {
	PC uint16
	SP uint8
	P  uint8
	A  uint8
	X  uint8
	Y  uint8

	Cycles      int64
	MasterClock int64

	// Instruction progress.
	Tick    uint8
	Opcode  uint8
	Intr    bool
	InstrPC uint16
	Addr    uint16
	Base    uint16
	Ptr     uint8
	Val     uint8
	Crossed bool

	NMIFlag     bool
	PrevNMIFlag bool
	NeedNMI     bool
	PrevNeedNMI bool
	RunIRQ      bool
	PrevRunIRQ  bool

	Halted bool
}

type DMA struct {
	NeedHalt   bool
	Dummy      bool
	DMCRunning bool
	AbortDMC   bool
	OAMRunning bool
	OAMPage    uint8
}

type PPU struct {
	Cycle       int
	Scanline    int
	Frames      uint64
	MasterClock uint64

	Ctrl uint8
	Mask uint8

	SpriteOverflow bool
	Sprite0Hit     bool
	VBlank         bool
	PreventVBL     bool

	VRAMAddr   uint16
	VRAMTemp   uint16
	FineX      uint8
	WriteLatch bool
	DataBuf    uint8
	BusAddr    uint16

	Palette []byte
	OAM     []byte
	OAMAddr uint8

	SecOAM             []byte
	SecOAMAddr         uint8
	OAMCopyBuffer      uint8
	SpriteInRange      bool
	Sprite0Added       bool
	Sprite0Visible     bool
	SpriteAddrH        uint8
	SpriteAddrL        uint8
	OAMCopyDone        bool
	OverflowBugCounter uint8

	Sprites     []Sprite
	SpriteCount int
	SpriteIndex int
	HasSprite   []bool

	PrevTile  Tile
	CurTile   Tile
	NextTile  Tile
	BgShiftLo uint16
	BgShiftHi uint16

	NeedStateUpdate      bool
	RenderingEnabled     bool
	PrevRenderingEnabled bool
	UpdateVRAMAddr       uint16
	UpdateVRAMAddrDelay  uint8
	IgnoreVRAMRead       uint8

	OpenBus      uint8
	OpenBusDecay []uint64

	Warmup      int
	FrameBuffer []byte
}

type Tile struct {
	Lo, Hi        uint8
	PaletteOffset uint8
	Addr          uint16
}

type Sprite struct {
	Tile       Tile
	X          uint8
	BgPriority bool
	HMirror    bool
}

type APU struct {
	Square1      APUSquare
	Square2      APUSquare
	Triangle     APUTriangle
	Noise        APUNoise
	DMC          APUDMC
	FrameCounter APUFrameCounter
	Mixer        *APUMixer
}

type APUTimer struct {
	Timer      uint16
	Period     uint16
	LastOutput int8
}

type APULengthCounter struct {
	Enabled       bool
	Halt          bool
	NewHalt       bool
	Counter       uint8
	ReloadValue   uint8
	PreviousValue uint8
}

type APUEnvelope struct {
	LengthCounter APULengthCounter
	Constant      bool
	Volume        uint8
	Start         bool
	Divider       int8
	Counter       uint8
}

type APUSquare struct {
	Timer    APUTimer
	Envelope APUEnvelope

	Duty    uint8
	DutyPos uint8

	SweepEnabled      bool
	SweepPeriod       uint8
	SweepNegate       bool
	SweepShift        uint8
	ReloadSweep       bool
	SweepDivider      uint8
	SweepTargetPeriod uint32
	RealPeriod        uint16
}

type APUTriangle struct {
	LengthCounter APULengthCounter
	Timer         APUTimer

	LinearCounter       uint8
	LinearCounterReload uint8
	LinearReload        bool
	LinearCtrl          bool
	Pos                 uint8
}

type APUNoise struct {
	Envelope APUEnvelope
	Timer    APUTimer
	ShiftReg uint16
	Mode     bool
}

type APUDMC struct {
	Timer APUTimer

	SampleAddr   uint16
	SampleLen    uint16
	CurrentAddr  uint16
	Remaining    uint16
	OutputLevel  uint8
	ReadBuf      uint8
	BitsLeft     uint8
	StartDelay   uint8
	DisableDelay uint8
	IRQEnabled   bool
	Loop         bool
	BufEmpty     bool
	ShiftReg     uint8
	Silence      bool
	NeedToRun    bool
}

type APUFrameCounter struct {
	PrevCycle  int32
	CurStep    uint32
	StepMode   uint32
	InhibitIRQ bool
	BlockTick  uint8
	NewValue   int16
	WriteDelay int8
}

type APUMixer struct {
	ClockRate      uint32
	SampleRate     uint32
	PreviousOutput int16
	CurrentOutput  [5]int16
}

type Mapper struct {
	Kind      uint8
	Mirroring uint8
	PRGRAM    []byte
	VRAM      []byte
	CHRRAM    []byte
	CHRBank   uint8
	MMC1      MMC1
}

type MMC1 struct {
	PrevCycle int64
	Serial    uint8
	Counter   uint8
	Ctrl      uint8
	CHR0      uint8
	CHR1      uint8
	PRG       uint8
}

type Input struct {
	Strobe  bool
	Buttons [2]uint8
	Shift   [2]uint8
}
