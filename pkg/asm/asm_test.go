package asm

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"gochip8/pkg/cpu"
)

// encodeWords converts opcode words to big-endian ROM bytes.
func encodeWords(words ...uint16) []byte {
	out := make([]byte, len(words)*2)
	for i, w := range words {
		out[i*2] = byte(w >> 8)
		out[i*2+1] = byte(w & 0xFF)
	}
	return out
}

func TestHelperFunctions(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"abc", true},
		{"_abc", true},
		{"abc1", true},
		{"1abc", false},
		{"", false},
		{"ab-c", false},
	}
	for _, tc := range tests {
		if got := isIdentifier(tc.input); got != tc.want {
			t.Errorf("isIdentifier(%q) = %v; want %v", tc.input, got, tc.want)
		}
	}

	if got := normalizeLabel("label"); got != "LABEL" {
		t.Errorf("normalizeLabel(\"label\") = %q; want \"LABEL\"", got)
	}

	regTests := []struct {
		token string
		want  uint8
		ok    bool
	}{
		{"V0", 0, true},
		{"va", 0xA, true},
		{"VF", 0xF, true},
		{"V10", 0, false},
		{"VG", 0, false},
		{"R1", 0, false},
	}
	for _, tc := range regTests {
		got, err := parseRegister(tc.token, 1)
		if (err == nil) != tc.ok || got != tc.want {
			t.Errorf("parseRegister(%q) = %d, %v; want %d, ok=%v", tc.token, got, err, tc.want, tc.ok)
		}
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line    string
		want    parsedLine
		wantErr bool
	}{
		{
			"LD V0, 5",
			parsedLine{lineNo: 1, mnemonic: "LD", operands: []string{"V0", "5"}},
			false,
		},
		{
			"  ld v0, v1  ; comment",
			parsedLine{lineNo: 1, mnemonic: "LD", operands: []string{"v0", "v1"}},
			false,
		},
		{
			"loop: JP loop // spin",
			parsedLine{lineNo: 1, labels: []string{"loop"}, mnemonic: "JP", operands: []string{"loop"}},
			false,
		},
		{
			"LD [I], V3",
			parsedLine{lineNo: 1, mnemonic: "LD", operands: []string{"[I]", "V3"}},
			false,
		},
		{
			"start:",
			parsedLine{lineNo: 1, labels: []string{"start"}},
			false,
		},
		{
			"1bad: CLS",
			parsedLine{},
			true,
		},
	}
	for _, tc := range tests {
		got, err := parseLine(tc.line, 1)
		if (err != nil) != tc.wantErr {
			t.Errorf("parseLine(%q) error = %v, wantErr %v", tc.line, err, tc.wantErr)
			continue
		}
		if tc.wantErr {
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("parseLine(%q) = %+v; want %+v", tc.line, got, tc.want)
		}
	}
}

func TestAssembleAllForms(t *testing.T) {
	tests := []struct {
		src  string
		want uint16
	}{
		{"CLS", 0x00E0},
		{"RET", 0x00EE},
		{"SYS 0x123", 0x0123},
		{"JP 0xABC", 0x1ABC},
		{"CALL 0xF00", 0x2F00},
		{"SE VA, 0x42", 0x3A42},
		{"SNE V1, 255", 0x41FF},
		{"SE V3, V4", 0x5340},
		{"LD V5, 0x10", 0x6510},
		{"ADD V3, 0xFF", 0x73FF},
		{"LD V1, V2", 0x8120},
		{"OR V1, V2", 0x8121},
		{"AND V1, V2", 0x8122},
		{"XOR V1, V2", 0x8123},
		{"ADD V1, V2", 0x8124},
		{"SUB V1, V2", 0x8125},
		{"SHR V1", 0x8106},
		{"SHR V1, V2", 0x8126},
		{"SUBN V1, V2", 0x8127},
		{"SHL V1", 0x810E},
		{"SNE V3, V4", 0x9340},
		{"LD I, 0x2F0", 0xA2F0},
		{"JP V0, 0x300", 0xB300},
		{"RND V5, 0x0F", 0xC50F},
		{"DRW V1, V2, 5", 0xD125},
		{"SKP V4", 0xE49E},
		{"SKNP V5", 0xE5A1},
		{"LD V6, DT", 0xF607},
		{"LD V7, K", 0xF70A},
		{"LD DT, V8", 0xF815},
		{"LD ST, V9", 0xF918},
		{"ADD I, VA", 0xFA1E},
		{"LD F, VB", 0xFB29},
		{"LD B, VC", 0xFC33},
		{"LD [I], VD", 0xFD55},
		{"LD VE, [I]", 0xFE65},
	}
	for _, tc := range tests {
		got, _, err := Assemble(tc.src)
		if err != nil {
			t.Errorf("Assemble(%q) failed: %v", tc.src, err)
			continue
		}
		if want := encodeWords(tc.want); !bytes.Equal(got, want) {
			t.Errorf("Assemble(%q) = %X; want %X", tc.src, got, want)
		}
	}
}

func TestAssembleLabelsAndDirectives(t *testing.T) {
	code := `
start:  LD I, sprite
        DRW V0, V1, 5
loop:   JP loop
        CALL sub
sub:    RET
.ORG 0x210
sprite: DB 0xF0, 0x90, 0x90, 0x90, 0xF0
        .WORD 0x1234
`
	got, _, err := Assemble(code)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	want := encodeWords(0xA210, 0xD015, 0x1204, 0x2208, 0x00EE)
	want = append(want, make([]byte, 6)...)
	want = append(want, 0xF0, 0x90, 0x90, 0x90, 0xF0, 0x12, 0x34)
	if !bytes.Equal(got, want) {
		t.Errorf("Assemble = % X\nwant       % X", got, want)
	}
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown mnemonic", "HLT", "unknown instruction"},
		{"undefined label", "JP nowhere", "undefined label"},
		{"duplicate label", "a: CLS\na: CLS", "duplicate label"},
		{"byte range", "LD V0, 0x100", "out of range"},
		{"address range", "JP 0x1000", "out of range"},
		{"nibble range", "DRW V0, V1, 16", "out of range"},
		{"bad register", "LD V0, VG", "undefined label"},
		{"operand count", "CLS V0", "expects 0 operands"},
		{"jp offset register", "JP V1, 0x300", "must use V0"},
		{"origin backward", "CLS\nCLS\n.ORG 0x200", "backward"},
		{"too large", ".ORG 0xFFF\nCLS", "too large"},
		{"empty db", "DB", "at least one"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Assemble(tc.src)
			if err == nil {
				t.Fatalf("Assemble(%q) succeeded; want error containing %q", tc.src, tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Assemble(%q) error = %v; want it to contain %q", tc.src, err, tc.want)
			}
		})
	}
}

func TestAssembleMatchesInstructionString(t *testing.T) {
	// Every decodable opcode prints as text that assembles back to itself.
	for w := 0; w <= 0xFFFF; w++ {
		opcode := uint16(w)
		in, err := cpu.Decode(opcode)
		if err != nil {
			continue
		}
		got, _, err := Assemble(in.String())
		if err != nil {
			t.Fatalf("Assemble(%q) from 0x%04X failed: %v", in.String(), opcode, err)
		}
		want := encodeWords(in.Encode())
		if !bytes.Equal(got, want) {
			t.Fatalf("Assemble(%q) = %X; want %X", in.String(), got, want)
		}
	}
}

func TestDisassembleRoundTrip(t *testing.T) {
	rom := encodeWords(0x00E0, 0x6A02, 0xA20A, 0xDAB5, 0xFFFF, 0x1206)
	rom = append(rom, 0x7F)

	src := Disassemble(rom)
	if !strings.Contains(src, "DRW VA, VB, 5 ; 0x206") {
		t.Errorf("disassembly missing DRW line:\n%s", src)
	}
	if !strings.Contains(src, "DB 0xFF, 0xFF ; 0x208") {
		t.Errorf("disassembly missing DB line for unknown opcode:\n%s", src)
	}

	got, _, err := Assemble(src)
	if err != nil {
		t.Fatalf("reassembly failed: %v\n%s", err, src)
	}
	if !bytes.Equal(got, rom) {
		t.Errorf("round trip = % X; want % X", got, rom)
	}
}

func TestAssembledProgramRuns(t *testing.T) {
	code := `
        LD V0, 5        ; countdown from 5
        LD V1, 1
        LD V2, 0
loop:   SUB V0, V1
        ADD V2, 2
        SE V0, 0
        JP loop
        LD I, 0x300
        LD B, V2
done:   JP done
`
	rom, _, err := Assemble(code)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	c := cpu.NewCPU()
	c.LoadProgram(rom)
	for i := 0; i < 100; i++ {
		if err := c.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if c.V[0] != 0 || c.V[2] != 10 {
		t.Errorf("V0=%d V2=%d; want 0 and 10", c.V[0], c.V[2])
	}
	if got := c.Memory[0x300:0x303]; !bytes.Equal(got, []byte{0, 1, 0}) {
		t.Errorf("BCD = %v; want [0 1 0]", got)
	}
}
