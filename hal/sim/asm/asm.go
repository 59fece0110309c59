// Package asm assembles the text programs run by the simulated machine.
//
// A program is a sequence of instructions, one mnemonic with at most one
// argument each. '#' starts a comment running to the end of line.
//
//	# spawn a worker, then wait for it
//	write "init up\n"
//	create "worker"
//	wait
//	print
//	exit
package asm

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/viant/parsly"
)

// ErrSyntax is returned for malformed program text.
var ErrSyntax = errors.New("asm: syntax error")

// Op is an instruction opcode.
type Op int

const (
	OpCompute Op = iota // compute N: burn N ticks in user mode
	OpWrite             // write "text": write syscall
	OpCreate            // create "program": create-process syscall
	OpGetPID            // getpid
	OpGetPPID           // getppid
	OpSleep             // sleep N: sleep syscall, N in seconds
	OpWait              // wait: wait-for-children syscall
	OpExit              // exit: terminate-process syscall
	OpDivZero           // div0: raise an arithmetic exception
	OpFault             // fault: raise a memory exception
	OpSyscall           // syscall N: raw trap with service number N
	OpPrint             // print: echo the return register to the console
)

type argKind int

const (
	argNone argKind = iota
	argNumber
	argString
)

type mnemonic struct {
	op  Op
	arg argKind
}

var mnemonics = map[string]mnemonic{
	"compute": {OpCompute, argNumber},
	"write":   {OpWrite, argString},
	"create":  {OpCreate, argString},
	"getpid":  {OpGetPID, argNone},
	"getppid": {OpGetPPID, argNone},
	"sleep":   {OpSleep, argNumber},
	"wait":    {OpWait, argNone},
	"exit":    {OpExit, argNone},
	"div0":    {OpDivZero, argNone},
	"fault":   {OpFault, argNone},
	"syscall": {OpSyscall, argNumber},
	"print":   {OpPrint, argNone},
}

var opNames = func() map[Op]string {
	ret := make(map[Op]string, len(mnemonics))
	for name, m := range mnemonics {
		ret[m.op] = name
	}
	return ret
}()

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Instruction is one decoded instruction. For string operands Arg is the
// data segment address and Len the byte length.
type Instruction struct {
	Op   Op
	Arg  int64
	Len  int64
	Line int
}

// Program is an assembled executable.
type Program struct {
	Name string
	Code []Instruction
	// Data holds NUL terminated string literals.
	Data []byte
}

// Assemble translates source into a program called name.
func Assemble(name string, source []byte) (*Program, error) {
	ret := &Program{Name: name}
	cursor := parsly.NewCursor(name, source, 0)
	for {
		matched := cursor.MatchAfterOptional(whitespaceToken, commentToken, mnemonicToken)
		switch matched.Code {
		case commentCode:
			continue
		case parsly.EOF:
			return ret, nil
		case mnemonicCode:
		default:
			return nil, syntaxError(name, cursor, cursor.NewError(mnemonicToken))
		}
		line := lineOf(source, cursor.Pos)
		text := matched.Text(cursor)
		m, ok := mnemonics[text]
		if !ok {
			return nil, syntaxError(name, cursor, fmt.Errorf("unknown mnemonic %q", text))
		}
		instruction := Instruction{Op: m.op, Line: line}
		switch m.arg {
		case argNumber:
			matched = cursor.MatchAfterOptional(whitespaceToken, numberToken)
			if matched.Code != numberCode {
				return nil, syntaxError(name, cursor, cursor.NewError(numberToken))
			}
			value, err := strconv.ParseInt(matched.Text(cursor), 10, 64)
			if err != nil {
				return nil, syntaxError(name, cursor, err)
			}
			instruction.Arg = value
		case argString:
			matched = cursor.MatchAfterOptional(whitespaceToken, quotedToken)
			if matched.Code != quotedCode {
				return nil, syntaxError(name, cursor, cursor.NewError(quotedToken))
			}
			literal := unquote(matched.Text(cursor))
			instruction.Arg = int64(len(ret.Data))
			instruction.Len = int64(len(literal))
			ret.Data = append(ret.Data, literal...)
			ret.Data = append(ret.Data, 0)
		}
		ret.Code = append(ret.Code, instruction)
	}
}

// MustAssemble is Assemble for programs known at compile time.
func MustAssemble(name, source string) *Program {
	ret, err := Assemble(name, []byte(source))
	if err != nil {
		panic(err)
	}
	return ret
}

func syntaxError(name string, cursor *parsly.Cursor, err error) error {
	return fmt.Errorf("%w: %s:%d: %v", ErrSyntax, name, lineOf(cursor.Input, cursor.Pos), err)
}

func lineOf(source []byte, pos int) int {
	if pos > len(source) {
		pos = len(source)
	}
	return bytes.Count(source[:pos], []byte{'\n'}) + 1
}

var unescaper = strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\"`, `"`, `\\`, `\`)

func unquote(text string) string {
	return unescaper.Replace(text[1 : len(text)-1])
}
