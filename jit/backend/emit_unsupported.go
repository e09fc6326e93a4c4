//go:build !(amd64 && linux)

package backend

import asm "github.com/twitchyliquid64/golang-asm"

// This core's JIT lowering is only implemented for linux/amd64, mirroring
// wagon's own supportedNativeArchs list at the time it was written
// (exec/internal/compile/native_exec.go registers exactly one entry, for
// amd64/linux). Available() reports false on every other platform, so
// jit.Compile returns jit.ErrUnsupportedPlatform before any of these stubs
// would run; they exist only so this package still type-checks when
// cross-compiled.
func archSupported() bool { return false }

const (
	scratch0    int16 = 0
	scratch1    int16 = 0
	xmmScratch0 int16 = 0
	xmmScratch1 int16 = 0
)

type progEmitter struct{}

func newProgEmitter(*asm.Builder) *progEmitter { return &progEmitter{} }

func (e *progEmitter) emitPreamble()                         { panic("backend: unsupported architecture") }
func (e *progEmitter) newLabel() Label                        { panic("backend: unsupported architecture") }
func (e *progEmitter) bindLabel(Label)                        { panic("backend: unsupported architecture") }
func (e *progEmitter) loadCellGP(int, int16)                  { panic("backend: unsupported architecture") }
func (e *progEmitter) storeCellGP(int, int16)                 { panic("backend: unsupported architecture") }
func (e *progEmitter) loadCellXMM(int, int16)                 { panic("backend: unsupported architecture") }
func (e *progEmitter) storeCellXMM(int, int16)                { panic("backend: unsupported architecture") }
func (e *progEmitter) movConstGP(uint32, int16)               { panic("backend: unsupported architecture") }
func (e *progEmitter) xorConstGP(uint32, int16)               { panic("backend: unsupported architecture") }
func (e *progEmitter) ret()                                   { panic("backend: unsupported architecture") }
func (e *progEmitter) assemble() []byte                       { panic("backend: unsupported architecture") }
func (e *progEmitter) negGP(int16)                            { panic("backend: unsupported architecture") }
func (e *progEmitter) notGP(int16)                            { panic("backend: unsupported architecture") }
func (e *progEmitter) binaryInt(arithKind, int, int, int)     { panic("backend: unsupported architecture") }
func (e *progEmitter) binaryFloat(arithKind, int, int, int)   { panic("backend: unsupported architecture") }
func (e *progEmitter) compareInt(cmpKind, int, int, int)      { panic("backend: unsupported architecture") }
func (e *progEmitter) compareFloat(cmpKind, int, int, int)    { panic("backend: unsupported architecture") }
func (e *progEmitter) jmp(Label)                              { panic("backend: unsupported architecture") }
func (e *progEmitter) jmpIfNonZero(int16, Label)              { panic("backend: unsupported architecture") }
