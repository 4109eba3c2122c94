package bytecode

import "testing"

func TestChunkWriteAndReadUint16(t *testing.T) {
	c := &Chunk{}
	c.WriteUint16(0x1234, 1)
	if got := c.ReadUint16(0); got != 0x1234 {
		t.Fatalf("ReadUint16 = %#x, want 0x1234", got)
	}
	if c.Code[0] != 0x12 || c.Code[1] != 0x34 {
		t.Fatalf("expected big-endian encoding, got % x", c.Code)
	}
}

func TestChunkEmitConstantShortAndLong(t *testing.T) {
	c := &Chunk{}
	idx := c.EmitConstant(NumberVal(1), 1)
	if idx != 0 {
		t.Fatalf("first constant index = %d, want 0", idx)
	}
	if Opcode(c.Code[0]) != OpConstant {
		t.Fatalf("expected OP_CONSTANT for a low index, got %v", Opcode(c.Code[0]))
	}

	c2 := &Chunk{}
	for i := 0; i < 300; i++ {
		c2.AddConstant(NumberVal(float64(i)))
	}
	idx = c2.EmitConstant(NumberVal(300), 1)
	if idx != 300 {
		t.Fatalf("index = %d, want 300", idx)
	}
	lastOp := Opcode(c2.Code[len(c2.Code)-3])
	if lastOp != OpConstantLong {
		t.Fatalf("expected OP_CONSTANT_LONG for a high index, got %v", lastOp)
	}
}

func TestChunkJumpPatching(t *testing.T) {
	c := &Chunk{}
	c.WriteOpcode(OpNil, 1)
	jump := c.EmitJump(OpJump, 1)
	c.WriteOpcode(OpNil, 1)
	c.WriteOpcode(OpNil, 1)
	c.PatchJump(jump)

	offset := c.ReadUint16(jump)
	if int(offset) != len(c.Code)-jump-2 {
		t.Fatalf("patched jump offset = %d, want %d", offset, len(c.Code)-jump-2)
	}
}

func TestChunkEmitLoop(t *testing.T) {
	c := &Chunk{}
	loopStart := len(c.Code)
	c.WriteOpcode(OpNil, 1)
	c.WriteOpcode(OpNil, 1)
	c.EmitLoop(loopStart, 1)

	if Opcode(c.Code[2]) != OpJumpBackwards {
		t.Fatalf("expected OP_JUMP_BACKWARDS, got %v", Opcode(c.Code[2]))
	}
	backOffset := c.ReadUint16(3)
	if int(backOffset) != len(c.Code)-loopStart {
		t.Fatalf("loop back-offset = %d, want %d", backOffset, len(c.Code)-loopStart)
	}
}

func TestChunkLinesTrackEachByte(t *testing.T) {
	c := &Chunk{}
	c.WriteOpcode(OpNil, 5)
	c.Write(0x01, 5)
	c.WriteOpcode(OpPop, 6)
	if len(c.Lines) != len(c.Code) {
		t.Fatalf("Lines length %d != Code length %d", len(c.Lines), len(c.Code))
	}
	if c.Lines[0] != 5 || c.Lines[1] != 5 || c.Lines[2] != 6 {
		t.Fatalf("unexpected line map: %v", c.Lines)
	}
}
