// Copyright © 2024 The ELPS authors

package analysis

import "sort"

// Universe is an immutable table of names injected by the runtime
// environment.  A Universe may be shared by concurrent analyses.
type Universe struct {
	names map[string]struct{}
}

// NewUniverse returns a Universe holding names.
func NewUniverse(names ...string) *Universe {
	u := &Universe{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		u.names[name] = struct{}{}
	}
	return u
}

// With returns a new Universe holding the names of u and extra.  u is not
// modified.
func (u *Universe) With(extra ...string) *Universe {
	return NewUniverse(append(u.Names(), extra...)...)
}

// Has reports whether name is predeclared.  A nil Universe is empty.
func (u *Universe) Has(name string) bool {
	if u == nil {
		return false
	}
	_, ok := u.names[name]
	return ok
}

// Names returns the predeclared names in sorted order.
func (u *Universe) Names() []string {
	if u == nil {
		return nil
	}
	names := make([]string, 0, len(u.names))
	for name := range u.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of predeclared names.
func (u *Universe) Len() int {
	if u == nil {
		return 0
	}
	return len(u.names)
}

// Builtins holds the names every Python module can reference without
// defining them.
var Builtins = NewUniverse(
	// module attributes
	"__name__", "__file__", "__doc__", "__builtins__", "__spec__", "__loader__",
	"__package__", "__debug__", "__annotations__",

	// constants
	"Ellipsis", "NotImplemented",

	// functions
	"abs", "aiter", "all", "anext", "any", "ascii", "bin", "breakpoint", "callable",
	"chr", "compile", "delattr", "dir", "divmod", "eval", "exec", "exit", "format",
	"getattr", "globals", "hasattr", "hash", "help", "hex", "id", "input",
	"isinstance", "issubclass", "iter", "len", "locals", "max", "min", "next",
	"oct", "open", "ord", "pow", "print", "quit", "repr", "round", "setattr",
	"sorted", "sum", "vars", "__import__",

	// types
	"bool", "bytearray", "bytes", "classmethod", "complex", "dict", "enumerate",
	"filter", "float", "frozenset", "int", "list", "map", "memoryview", "object",
	"property", "range", "reversed", "set", "slice", "staticmethod", "str",
	"super", "tuple", "type", "zip",

	// exceptions
	"ArithmeticError", "AssertionError", "AttributeError", "BaseException",
	"BaseExceptionGroup", "BlockingIOError", "BrokenPipeError", "BufferError",
	"ChildProcessError", "ConnectionAbortedError", "ConnectionError",
	"ConnectionRefusedError", "ConnectionResetError", "EOFError",
	"EnvironmentError", "Exception", "ExceptionGroup", "FileExistsError",
	"FileNotFoundError", "FloatingPointError", "GeneratorExit", "IOError",
	"ImportError", "IndentationError", "IndexError", "InterruptedError",
	"IsADirectoryError", "KeyError", "KeyboardInterrupt", "LookupError",
	"MemoryError", "ModuleNotFoundError", "NameError", "NotADirectoryError",
	"NotImplementedError", "OSError", "OverflowError", "PermissionError",
	"ProcessLookupError", "RecursionError", "ReferenceError", "RuntimeError",
	"StopAsyncIteration", "StopIteration", "SyntaxError", "SystemError",
	"SystemExit", "TabError", "TimeoutError", "TypeError", "UnboundLocalError",
	"UnicodeDecodeError", "UnicodeEncodeError", "UnicodeError",
	"UnicodeTranslateError", "ValueError", "ZeroDivisionError",

	// warnings
	"BytesWarning", "DeprecationWarning", "EncodingWarning", "FutureWarning",
	"ImportWarning", "PendingDeprecationWarning", "ResourceWarning",
	"RuntimeWarning", "SyntaxWarning", "UnicodeWarning", "UserWarning", "Warning",
)

// IPython is Builtins extended with the names an interactive notebook
// kernel injects.
var IPython = Builtins.With("get_ipython", "display", "In", "Out", "_", "__", "___")
