package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble(t *testing.T) {
	var testCases = []struct {
		description string
		source      string
		expectOps   []Op
		expectArgs  []int64
		expectData  string
	}{
		{
			description: "empty program",
			source:      "  # nothing here\n\n",
		},
		{
			description: "numbers and comments",
			source: `# worker
compute 15   # burn
sleep 2
syscall -3
exit`,
			expectOps:  []Op{OpCompute, OpSleep, OpSyscall, OpExit},
			expectArgs: []int64{15, 2, -3, 0},
		},
		{
			description: "string literals go to the data segment",
			source:      "write \"hi\\n\"\ncreate \"worker\"\ngetpid\nprint",
			expectOps:   []Op{OpWrite, OpCreate, OpGetPID, OpPrint},
			expectArgs:  []int64{0, 4, 0, 0},
			expectData:  "hi\n\x00worker\x00",
		},
		{
			description: "escaped quote",
			source:      `write "say \"x\""`,
			expectOps:   []Op{OpWrite},
			expectArgs:  []int64{0},
			expectData:  "say \"x\"\x00",
		},
	}

	for _, testCase := range testCases {
		program, err := Assemble("test", []byte(testCase.source))
		require.NoError(t, err, testCase.description)
		var ops []Op
		var args []int64
		for _, instruction := range program.Code {
			ops = append(ops, instruction.Op)
			args = append(args, instruction.Arg)
		}
		assert.Equal(t, testCase.expectOps, ops, testCase.description)
		assert.Equal(t, testCase.expectArgs, args, testCase.description)
		assert.Equal(t, testCase.expectData, string(program.Data), testCase.description)
	}
}

func TestAssemble_StringLength(t *testing.T) {
	program := MustAssemble("init", `write "abc"`)
	require.Len(t, program.Code, 1)
	assert.Equal(t, int64(3), program.Code[0].Len)
	assert.Equal(t, 1, program.Code[0].Line)
}

func TestAssemble_Errors(t *testing.T) {
	var testCases = []struct {
		description string
		source      string
	}{
		{description: "unknown mnemonic", source: "jump 4"},
		{description: "missing number", source: "sleep"},
		{description: "number expected", source: `compute "x"`},
		{description: "missing string", source: "create worker"},
		{description: "unterminated string", source: "write \"abc\nexit"},
		{description: "stray token", source: "exit\n42"},
	}
	for _, testCase := range testCases {
		_, err := Assemble("bad", []byte(testCase.source))
		assert.ErrorIs(t, err, ErrSyntax, testCase.description)
	}
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "getppid", OpGetPPID.String())
	assert.Equal(t, "op(99)", Op(99).String())
}
