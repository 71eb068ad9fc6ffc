package hw

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalInstruction is matched by any IllegalInstructionError.
	ErrIllegalInstruction = errors.New("illegal instruction")

	// ErrHalted is returned when stepping a CPU that has been halted by an
	// illegal instruction.
	ErrHalted = errors.New("emulator halted")
)

// An IllegalInstructionError reports the execution of one of the opcodes
// that lock up the 2A03 (the so-called STP or JAM opcodes).
type IllegalInstructionError struct {
	Opcode uint8
	PC     uint16 // address of the opcode
}

func (e *IllegalInstructionError) Error() string {
	return fmt.Sprintf("illegal instruction $%02X at $%04X", e.Opcode, e.PC)
}

func (e *IllegalInstructionError) Is(target error) bool {
	return target == ErrIllegalInstruction
}
