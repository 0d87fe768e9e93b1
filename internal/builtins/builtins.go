// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package builtins holds the static table of MSL built-in types and
// functions, a plain Go map literal in the same "small static lookup
// table, no magic" shape used elsewhere in the codebase for per-language
// extraction tables.
package builtins

// Entry is one built-in's canned documentation, returned verbatim by
// hover when the identifier under the cursor matches a name in Table.
type Entry struct {
	Name string
	Doc  string
}

// Table maps a built-in identifier to its documentation. It covers MSL
// scalar/vector/matrix/texture/sampler/atomic types and the built-in
// math/geometric/relational/SIMD/atomic functions.
var Table = map[string]Entry{
	// Scalar types.
	"bool":  {"bool", "Boolean scalar type."},
	"char":  {"char", "8-bit signed integer scalar type."},
	"short": {"short", "16-bit signed integer scalar type."},
	"int":   {"int", "32-bit signed integer scalar type."},
	"long":  {"long", "64-bit signed integer scalar type."},
	"half":  {"half", "16-bit floating-point scalar type."},
	"float": {"float", "32-bit floating-point scalar type."},

	// Vector types (a representative subset; each arity/base-type pair
	// documents the same way).
	"float2": {"float2", "2-component vector of float."},
	"float3": {"float3", "3-component vector of float."},
	"float4": {"float4", "4-component vector of float."},
	"int2":   {"int2", "2-component vector of int."},
	"int3":   {"int3", "3-component vector of int."},
	"int4":   {"int4", "4-component vector of int."},
	"half2":  {"half2", "2-component vector of half."},
	"half3":  {"half3", "3-component vector of half."},
	"half4":  {"half4", "4-component vector of half."},

	// Matrix types.
	"float2x2": {"float2x2", "2x2 matrix of float."},
	"float3x3": {"float3x3", "3x3 matrix of float."},
	"float4x4": {"float4x4", "4x4 matrix of float."},

	// Texture / sampler / atomic types.
	"texture2d":       {"texture2d", "Two-dimensional texture resource type."},
	"texture2d_array": {"texture2d_array", "Array of two-dimensional textures."},
	"texturecube":     {"texturecube", "Cube-map texture resource type."},
	"depth2d":         {"depth2d", "Two-dimensional depth texture resource type."},
	"sampler":         {"sampler", "Texture sampling state type."},
	"atomic_int":      {"atomic_int", "Atomic 32-bit signed integer type."},
	"atomic_uint":     {"atomic_uint", "Atomic 32-bit unsigned integer type."},

	// Math functions.
	"abs":   {"abs", "Returns the absolute value of the argument."},
	"floor": {"floor", "Returns the largest integer not greater than the argument."},
	"ceil":  {"ceil", "Returns the smallest integer not less than the argument."},
	"pow":   {"pow", "Returns the first argument raised to the power of the second."},
	"sqrt":  {"sqrt", "Returns the square root of the argument."},
	"fma":   {"fma", "Returns a * b + c, computed with a single rounding."},

	// Geometric functions.
	"normalize": {"normalize", "Geometric function. Returns the input vector scaled to unit length."},
	"dot":       {"dot", "Geometric function. Returns the dot product of two vectors."},
	"cross":     {"cross", "Geometric function. Returns the cross product of two 3-component vectors."},
	"length":    {"length", "Geometric function. Returns the length of the input vector."},
	"distance":  {"distance", "Geometric function. Returns the distance between two points."},
	"reflect":   {"reflect", "Geometric function. Reflects an incident vector about a normal."},

	// Relational functions.
	"select": {"select", "Relational function. Component-wise selection between two values."},
	"isnan":  {"isnan", "Relational function. Tests whether the argument is NaN."},
	"isinf":  {"isinf", "Relational function. Tests whether the argument is infinite."},

	// SIMD-group functions.
	"simd_sum":               {"simd_sum", "SIMD-group function. Sums a value across the active SIMD group."},
	"simd_shuffle":           {"simd_shuffle", "SIMD-group function. Broadcasts a value from one lane to another."},
	"simd_ballot":            {"simd_ballot", "SIMD-group function. Returns a mask of lanes for which the predicate is true."},
	"simd_is_first":          {"simd_is_first", "SIMD-group function. True for exactly one lane in the active group."},
	"threadgroup_barrier":    {"threadgroup_barrier", "Synchronizes threads within a threadgroup."},
	"simdgroup_barrier":      {"simdgroup_barrier", "Synchronizes threads within a SIMD-group."},

	// Atomic functions.
	"atomic_load_explicit":           {"atomic_load_explicit", "Atomically loads the value of an atomic variable."},
	"atomic_store_explicit":          {"atomic_store_explicit", "Atomically stores a value into an atomic variable."},
	"atomic_fetch_add_explicit":      {"atomic_fetch_add_explicit", "Atomically adds to an atomic variable, returning the prior value."},
	"atomic_compare_exchange_weak_explicit": {"atomic_compare_exchange_weak_explicit", "Atomic compare-and-swap, may spuriously fail."},
}

// Lookup returns the built-in entry for name and whether it was found.
func Lookup(name string) (Entry, bool) {
	e, ok := Table[name]
	return e, ok
}
