//go:build llama

package engine

// cgo link directives for the in-process llama.cpp engine. The rpath of
// $ORIGIN lets the loader find libllama.so next to the built binary in ./bin.
/*
#cgo LDFLAGS: -Wl,-rpath,'$ORIGIN' -L${SRCDIR}/../../bin -lllama
*/
import "C"
