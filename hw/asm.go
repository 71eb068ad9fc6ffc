package hw

import (
	"fmt"
	"strconv"
	"strings"
)

// Assemble assembles src, one instruction per line, as if loaded at pc. The
// syntax is the one produced by Disasm: '$' hexadecimal operands, where the
// number of digits selects between zero page and absolute addressing, and
// branch operands are target addresses. Unofficial opcodes must be prefixed
// by '*'. A ';' starts a comment.
func Assemble(pc uint16, src string) ([]byte, error) {
	var out []byte
	for i, line := range strings.Split(src, "\n") {
		if idx := strings.IndexByte(line, ';'); idx != -1 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		code, err := assembleLine(pc+uint16(len(out)), line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %q: %w", i+1, line, err)
		}
		out = append(out, code...)
	}
	return out, nil
}

type operand struct {
	mode  addrMode
	value uint16
}

func assembleLine(pc uint16, line string) ([]byte, error) {
	mnemonic, oper, _ := strings.Cut(line, " ")
	mnemonic = strings.ToUpper(mnemonic)
	oper = strings.ToUpper(strings.ReplaceAll(oper, " ", ""))

	unofficial := strings.HasPrefix(mnemonic, "*")
	mnemonic = strings.TrimPrefix(mnemonic, "*")
	if mnemonic == "ISB" {
		// Alternative name, used by nestest.
		mnemonic = "ISC"
	}

	modes, err := parseOperand(oper)
	if err != nil {
		return nil, err
	}

	for _, cand := range modes {
		opcode, ok := findOpcode(mnemonic, cand.mode, unofficial)
		if !ok {
			continue
		}

		switch operandSize[cand.mode] {
		case 0:
			return []byte{opcode}, nil
		case 1:
			if cand.mode == modeRel {
				off := int(cand.value) - int(pc+2)
				if off < -128 || off > 127 {
					return nil, fmt.Errorf("branch target $%04X out of range", cand.value)
				}
				return []byte{opcode, uint8(int8(off))}, nil
			}
			return []byte{opcode, uint8(cand.value)}, nil
		default:
			return []byte{opcode, uint8(cand.value), uint8(cand.value >> 8)}, nil
		}
	}
	return nil, fmt.Errorf("unknown instruction")
}

// findOpcode returns the first opcode matching name and mode. Official
// opcodes are looked up first, unless unofficial is set.
func findOpcode(name string, mode addrMode, unofficial bool) (uint8, bool) {
	pass := []bool{false, true}
	if unofficial {
		pass = []bool{true}
	}
	for _, unoff := range pass {
		for i := range opdefs {
			op := &opdefs[i]
			if op.name == name && op.mode == mode && op.unofficial == unoff {
				return uint8(i), true
			}
		}
	}
	return 0, false
}

// parseOperand returns the candidate addressing modes for oper, most
// likely first.
func parseOperand(oper string) ([]operand, error) {
	switch {
	case oper == "":
		return []operand{{mode: modeImp}, {mode: modeAcc}}, nil
	case oper == "A":
		return []operand{{mode: modeAcc}}, nil
	case strings.HasPrefix(oper, "#"):
		v, ndigits, err := parseNumber(oper[1:])
		if err != nil || ndigits > 2 {
			return nil, fmt.Errorf("bad immediate operand %q", oper)
		}
		return []operand{{mode: modeImm, value: v}}, nil
	}

	var zp, abs, rel addrMode = modeZpg, modeAbs, modeRel
	indirect := false
	body := oper

	switch {
	case strings.HasPrefix(body, "(") && strings.HasSuffix(body, ",X)"):
		body = body[1 : len(body)-3]
		zp, abs, indirect = modeIzx, 0xFF, true
	case strings.HasPrefix(body, "(") && strings.HasSuffix(body, "),Y"):
		body = body[1 : len(body)-3]
		zp, abs, indirect = modeIzy, 0xFF, true
	case strings.HasPrefix(body, "(") && strings.HasSuffix(body, ")"):
		body = body[1 : len(body)-1]
		zp, abs, indirect = 0xFF, modeInd, true
	case strings.HasSuffix(body, ",X"):
		body = body[:len(body)-2]
		zp, abs = modeZpx, modeAbx
	case strings.HasSuffix(body, ",Y"):
		body = body[:len(body)-2]
		zp, abs = modeZpy, modeAby
	}
	if indirect || zp != modeZpg {
		rel = 0xFF
	}

	v, ndigits, err := parseNumber(body)
	if err != nil {
		return nil, err
	}

	var modes []operand
	if rel != 0xFF {
		modes = append(modes, operand{mode: rel, value: v})
	}
	if ndigits <= 2 && zp != 0xFF {
		modes = append(modes, operand{mode: zp, value: v})
	}
	if ndigits > 2 && abs != 0xFF {
		modes = append(modes, operand{mode: abs, value: v})
	}
	if len(modes) == 0 {
		return nil, fmt.Errorf("bad operand %q", oper)
	}
	return modes, nil
}

// parseNumber parses a '$' prefixed hexadecimal number, or an address label.
// Labels count as 4 digits.
func parseNumber(s string) (uint16, int, error) {
	if !strings.HasPrefix(s, "$") {
		for label, addr := range labelAddresses {
			if strings.EqualFold(label, s) {
				return addr, 4, nil
			}
		}
		return 0, 0, fmt.Errorf("bad number %q", s)
	}
	s = s[1:]
	if len(s) == 0 || len(s) > 4 {
		return 0, 0, fmt.Errorf("bad number %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("bad number %q: %w", s, err)
	}
	return uint16(v), len(s), nil
}
