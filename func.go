// SPDX-License-Identifier: GPL-3.0-or-later

package lanconsole

import (
	"context"
	"net/netip"
)

// Func is a single step of the pipeline used to reach the listener.
//
// Steps are chained with [Compose2] through [Compose5] so that the compiler
// verifies that each output matches the next input. [*WebSocketDialer]
// builds its dial pipeline this way.
//
// Resource cleanup contract: a Func receiving a closeable resource that
// fails must close the resource before returning.
type Func[A, B any] interface {
	Call(ctx context.Context, input A) (B, error)
}

// FuncAdapter wraps a function as a [Func] implementation.
type FuncAdapter[A, B any] func(ctx context.Context, input A) (B, error)

// Call implements [Func].
func (f FuncAdapter[A, B]) Call(ctx context.Context, input A) (B, error) {
	return f(ctx, input)
}

// Unit is the input of pipelines that start from a constant.
type Unit struct{}

// ConstFunc returns a [Func] that ignores its input and returns value.
func ConstFunc[B any](value B) Func[Unit, B] {
	return FuncAdapter[Unit, B](func(ctx context.Context, _ Unit) (B, error) {
		return value, nil
	})
}

// NewEndpointFunc returns a [Func] yielding the listener endpoint.
func NewEndpointFunc(endpoint netip.AddrPort) Func[Unit, netip.AddrPort] {
	return ConstFunc(endpoint)
}

// Compose2 chains two [Func] instances.
//
// If op1 fails, op2 is not called and the error is returned.
func Compose2[A, B, C any](op1 Func[A, B], op2 Func[B, C]) Func[A, C] {
	return FuncAdapter[A, C](func(ctx context.Context, input A) (C, error) {
		res, err := op1.Call(ctx, input)
		if err != nil {
			var zero C
			return zero, err
		}
		return op2.Call(ctx, res)
	})
}

// Compose3 chains three [Func] instances.
func Compose3[A, B, C, D any](op1 Func[A, B], op2 Func[B, C], op3 Func[C, D]) Func[A, D] {
	return Compose2(op1, Compose2(op2, op3))
}

// Compose4 chains four [Func] instances.
func Compose4[A, B, C, D, E any](op1 Func[A, B], op2 Func[B, C], op3 Func[C, D], op4 Func[D, E]) Func[A, E] {
	return Compose2(op1, Compose3(op2, op3, op4))
}

// Compose5 chains five [Func] instances.
func Compose5[A, B, C, D, E, F any](
	op1 Func[A, B], op2 Func[B, C], op3 Func[C, D], op4 Func[D, E], op5 Func[E, F]) Func[A, F] {
	return Compose2(op1, Compose4(op2, op3, op4, op5))
}
