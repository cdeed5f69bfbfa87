package catalog

import (
	"sync"

	"optdbg/internal/diag"
)

var builtin = sync.OnceValue(func() *Catalog {
	b := NewBuilder()
	inliningPatterns(b)
	loopVectorizePatterns(b)
	slpVectorizerPatterns(b)
	sroaPatterns(b)
	loopUnrollPatterns(b)
	tailCallElimPatterns(b)
	gvnPatterns(b)
	memcpyOptPatterns(b)
	loopInterchangePatterns(b)
	genericPatterns(b)
	c, err := b.Build()
	if err != nil {
		panic("catalog: invalid builtin table: " + err.Error())
	}
	return c
})

// Builtin returns the shared catalog of known missed-optimization patterns.
// Registration order matters: on equal scores the earlier pattern wins.
func Builtin() *Catalog {
	return builtin()
}

func inliningPatterns(b *Builder) {
	b.Add(Pattern{
		ID:          "inline/too-costly",
		Pass:        "inline",
		Remark:      "NotInlined",
		Message:     "too costly",
		ShortReason: "Inlining rejected: callee too large",
		DetailedExplanation: "The inliner evaluated the cost of copying the callee's body into " +
			"the call site and found it would exceed the configured threshold. " +
			"LLVM computes an abstract cost based on instruction count, call " +
			"overhead, and attribute bonuses. When this cost exceeds " +
			"InlineThreshold (default 225), inlining is refused to avoid " +
			"binary size blowup.",
		RootCause: "The callee function body is too large for the inliner to justify " +
			"duplicating at this call site.",
		WhatOptimizerWanted: "The optimizer wanted to replace the call instruction with a " +
			"direct copy of the callee body, eliminating call overhead, " +
			"enabling further constant propagation and dead code elimination " +
			"at the call site.",
		Fixes: []diag.Fix{
			diag.SourceFix("Mark the function __attribute__((always_inline)) to force " +
				"inlining regardless of cost",
				"__attribute__((always_inline)) int myFunc() { ... }"),
			diag.SourceFix("Split the callee into smaller helper functions so the hot path is " +
				"small enough to inline", ""),
			diag.SourceFix("Pass -mllvm -inline-threshold=500 (or higher) to raise the " +
				"inlining budget for this translation unit", ""),
			diag.IRFix("Add !llvm.inline.hint metadata to the call instruction",
				"call i32 @foo() !llvm.inline.hint !{i32 1}"),
		},
		Severity: diag.SevHigh,
		Speedup:  1.3,
	})

	b.Add(Pattern{
		ID:          "inline/recursive",
		Pass:        "inline",
		Remark:      "NotInlined",
		Message:     "recursive",
		ShortReason: "Inlining rejected: recursive function",
		DetailedExplanation: "The inliner never inlines recursive functions because doing so " +
			"could produce infinite code duplication. Even mutual recursion (A " +
			"calls B calls A) blocks inlining across the entire call chain.",
		RootCause: "The function is directly or indirectly recursive.",
		WhatOptimizerWanted: "The optimizer would have eliminated the call frame and replaced " +
			"the call with inlined code, but recursion makes this impossible.",
		Fixes: []diag.Fix{
			diag.SourceFix("Refactor to an iterative implementation using an explicit stack, " +
				"which can then be inlined normally", ""),
			diag.SourceFix("Use trampolining / continuation-passing style for tail-recursive " +
				"cases; the tail call eliminator will then handle the recursion", ""),
			diag.SourceFix("If only the base case is hot, manually inline it and dispatch to " +
				"the recursive version only for the general case", ""),
		},
		Severity: diag.SevMedium,
		Speedup:  0,
	})

	b.Add(Pattern{
		ID:          "inline/noinline",
		Pass:        "inline",
		Remark:      "NotInlined",
		Message:     "noinline",
		ShortReason: "Inlining rejected: noinline attribute present",
		DetailedExplanation: "The function has the 'noinline' attribute set, which is an " +
			"explicit programmer directive telling LLVM's inliner to never " +
			"inline this function. This takes precedence over all cost " +
			"heuristics.",
		RootCause: "The 'noinline' attribute on the function or call site is " +
			"preventing the inliner from proceeding.",
		WhatOptimizerWanted: "The optimizer would have inlined this function to eliminate the " +
			"call overhead and unlock downstream optimizations.",
		Fixes: []diag.Fix{
			diag.SourceFix("Remove the __attribute__((noinline)) or [[gnu::noinline]] " +
				"annotation from the function declaration if it was added by " +
				"mistake or is no longer needed", ""),
			diag.SourceFix("If noinline was added for debugging, use a compilation flag " +
				"instead so you can easily toggle it", ""),
			diag.IRFix("Remove the 'noinline' attribute from the function definition in " +
				"the IR",
				"define i32 @foo() { ... }  ; remove 'noinline' from attrs"),
		},
		Severity: diag.SevHigh,
		Speedup:  1.25,
	})

	b.Add(Pattern{
		ID:          "inline/indirect-call",
		Pass:        "inline",
		Remark:      "NotInlined",
		Message:     "indirect call",
		ShortReason: "Inlining rejected: indirect call site",
		DetailedExplanation: "The call is made through a function pointer or virtual dispatch, " +
			"so the inliner cannot determine the callee statically. LLVM can " +
			"inline indirect calls only after devirtualization resolves the " +
			"callee.",
		RootCause: "The call target is not known at compile time (function pointer, " +
			"vtable dispatch, or unresolved COMDAT).",
		WhatOptimizerWanted: "The optimizer wanted to devirtualize the call and then inline the " +
			"resolved callee to eliminate the indirect branch overhead.",
		Fixes: []diag.Fix{
			diag.SourceFix("Use final/override on virtual methods to allow devirtualization, " +
				"or seal the class with [[clang::final]]",
				"class Derived final : public Base { ... };"),
			diag.SourceFix("Replace function pointer callbacks with templates/lambdas so the " +
				"callee is known at the call site", ""),
			diag.SourceFix("Use Profile-Guided Optimization (PGO) which gives LLVM runtime " +
				"frequency data to speculatively devirtualize hot indirect calls", ""),
			diag.IRFix("Add !callees metadata to hint the indirect call targets",
				"call void %fp() !callees !{void ()* @concrete_impl}"),
		},
		Severity: diag.SevHigh,
		Speedup:  1.5,
	})

	b.Add(Pattern{
		ID:          "inline/unavailable-definition",
		Pass:        "inline",
		Remark:      "NotInlined",
		Message:     "unavailable definition",
		ShortReason: "Inlining rejected: callee definition not available",
		DetailedExplanation: "The inliner cannot inline a function whose definition is in a " +
			"different translation unit and has not been provided via LTO. " +
			"When building without LTO, each .o file is compiled independently " +
			"and definitions across files are invisible to each other.",
		RootCause: "The callee is declared but not defined in this translation unit, " +
			"and Link-Time Optimization (LTO) is not enabled.",
		WhatOptimizerWanted: "The optimizer wanted to inline the callee body but could not " +
			"access the function definition.",
		Fixes: []diag.Fix{
			diag.SourceFix("Enable Link-Time Optimization with -flto (thin LTO) or -flto=full " +
				"(full LTO) to make cross-module inlining possible",
				"clang -O2 -flto=thin source.cpp -o binary"),
			diag.SourceFix("Move the function definition to a header and mark it inline or " +
				"put it in the same translation unit as its primary caller", ""),
			diag.SourceFix("Use __attribute__((visibility(\"default\"))) with LTO to ensure the " +
				"symbol is available across module boundaries", ""),
		},
		Severity: diag.SevMedium,
		Speedup:  1.4,
	})
}

func loopVectorizePatterns(b *Builder) {
	b.Add(Pattern{
		ID:          "loop-vectorize/not-vectorized",
		Pass:        "loop-vectorize",
		Remark:      "MissedDetails",
		Message:     "loop not vectorized",
		ShortReason: "Loop vectorization failed",
		DetailedExplanation: "The Loop Vectorizer (LV) attempted to transform the scalar loop " +
			"into a SIMD loop but was blocked. LV requires: a countable trip " +
			"count, no loop-carried dependencies on the vectorized elements, " +
			"no function calls with side effects inside the loop body, and no " +
			"pointer aliasing between loop operands. When any of these " +
			"preconditions fail, LV emits a missed remark.",
		RootCause: "One or more preconditions for loop vectorization are not " +
			"satisfied.",
		WhatOptimizerWanted: "The optimizer wanted to transform the loop to process 4-16 " +
			"elements per iteration using SIMD instructions (SSE/AVX/SVE), " +
			"potentially yielding 4-8x throughput improvement on CPU-bound " +
			"loops.",
		Fixes: []diag.Fix{
			diag.SourceFix("Add __restrict__ qualifiers to pointer parameters to eliminate " +
				"aliasing uncertainty",
				"void f(float* __restrict__ a, float* __restrict__ b, int n)"),
			diag.SourceFix("Annotate the loop with #pragma clang loop vectorize(enable) to " +
				"force vectorization with safety checks",
				"#pragma clang loop vectorize(enable)\nfor(int i=0;i<n;++i)..."),
			diag.SourceFix("Ensure the loop has a simple induction variable and no early " +
				"exits (break/continue) inside the body", ""),
			diag.SourceFix("Remove any function calls from the loop body that have unknown " +
				"side effects; consider marking them with __attribute__((const))", ""),
			diag.IRFix("Add !llvm.loop metadata with vectorize.enable=true",
				"br i1 %cond, label %loop, label %exit, !llvm.loop !{!{!\"llvm.loop.vectorize.enable\", i1 true}}"),
		},
		Severity: diag.SevHigh,
		Speedup:  4.0,
	})

	b.Add(Pattern{
		ID:          "loop-vectorize/unknown-array-bounds",
		Pass:        "loop-vectorize",
		Remark:      "",
		Message:     "cannot identify array bounds",
		ShortReason: "Loop vectorization blocked: unknown array bounds",
		DetailedExplanation: "The vectorizer requires knowledge of the loop trip count at the " +
			"point it builds the vector loop. If pointer arithmetic is used " +
			"and LLVM cannot prove the distance between start and end pointers " +
			"at compile time, it cannot generate the scalar remainder loop " +
			"safely.",
		RootCause: "LLVM cannot statically or dynamically determine the iteration " +
			"count of the loop, blocking the vector preamble/remainder " +
			"generation.",
		WhatOptimizerWanted: "The optimizer wanted to peel a scalar prologue to align memory, " +
			"run a SIMD body for the bulk of iterations, and a scalar epilogue " +
			"for the remainder, but it needs a known upper bound for this.",
		Fixes: []diag.Fix{
			diag.SourceFix("Use index-based loops with an explicit integer bound instead of " +
				"pointer arithmetic",
				"for (int i = 0; i < n; ++i)  // instead of while (p < end)"),
			diag.SourceFix("Add __builtin_assume(n > 0 && n % 4 == 0) before the loop to " +
				"provide bound information to the optimizer", ""),
			diag.SourceFix("Replace raw pointer iteration with std::span<T> which carries " +
				"size information", ""),
		},
		Severity: diag.SevHigh,
		Speedup:  4.0,
	})

	b.Add(Pattern{
		ID:          "loop-vectorize/unsafe-dependence",
		Pass:        "loop-vectorize",
		Remark:      "",
		Message:     "unsafe dependent memory operations",
		ShortReason: "Loop vectorization blocked: memory dependency / aliasing",
		DetailedExplanation: "The Loop Access Analysis (LAA) detected or could not disprove a " +
			"memory-carried dependency between loop iterations. If element i " +
			"of array A is read while element i+k of A is written in the same " +
			"loop, vectorizing would read future writes, changing program " +
			"semantics.",
		RootCause: "A read-after-write, write-after-read, or write-after-write " +
			"dependency between iterations was found or could not be ruled out " +
			"by alias analysis.",
		WhatOptimizerWanted: "The optimizer wanted to load/store multiple elements " +
			"simultaneously using SIMD gather/scatter or contiguous loads, but " +
			"the dependency prevents reordering memory operations.",
		Fixes: []diag.Fix{
			diag.SourceFix("If you know the arrays do not alias, add __restrict__ to all " +
				"pointer parameters",
				"void f(int* __restrict__ out, const int* __restrict__ in, int n)"),
			diag.SourceFix("Add #pragma clang loop vectorize(assume_safety) to assert there " +
				"are no dependencies (only safe if you know this is true)",
				"#pragma clang loop vectorize(assume_safety)"),
			diag.SourceFix("If a read-after-write dependency actually exists (e.g., a[i] = " +
				"a[i-1] + c), consider restructuring the loop to use a temporary " +
				"buffer, or accept that the loop cannot be vectorized", ""),
			diag.IRFix("Add !alias.scope and !noalias metadata to loads/stores to provide " +
				"aliasing proof to the backend", ""),
		},
		Severity: diag.SevCritical,
		Speedup:  4.0,
	})

	b.Add(Pattern{
		ID:          "loop-vectorize/unidentified-reduction",
		Pass:        "loop-vectorize",
		Remark:      "",
		Message:     "value that could not be identified as reduction",
		ShortReason: "Loop vectorization blocked: non-reducible accumulator",
		DetailedExplanation: "The vectorizer recognizes a limited set of reduction patterns: " +
			"sum, product, min, max, bitwise AND/OR/XOR. When a loop " +
			"accumulates into a variable in a way that does not match these " +
			"patterns (e.g., conditional updates, chains of dependent stores), " +
			"LV cannot safely split the computation across SIMD lanes.",
		RootCause: "The loop accumulator update cannot be expressed as a vectorizable " +
			"reduction operation.",
		WhatOptimizerWanted: "The optimizer wanted to compute partial reductions in each SIMD " +
			"lane and combine them with a horizontal reduction at the end of " +
			"the loop.",
		Fixes: []diag.Fix{
			diag.SourceFix("Ensure reductions use simple operators: +=, *=, &=, |=, ^= or " +
				"std::min/std::max without conditionals inside", ""),
			diag.SourceFix("Replace conditional updates like 'if (x > 0) sum += x' with " +
				"SIMD-friendly forms like 'sum += std::max(0, x)'", ""),
			diag.SourceFix("Split a multi-accumulator loop into separate loops, each with a " +
				"single reduction variable", ""),
		},
		Severity: diag.SevMedium,
		Speedup:  3.0,
	})

	b.Add(Pattern{
		ID:          "loop-vectorize/call-not-vectorizable",
		Pass:        "loop-vectorize",
		Remark:      "",
		Message:     "call instruction cannot be vectorized",
		ShortReason: "Loop vectorization blocked: non-vectorizable function call",
		DetailedExplanation: "A function call inside the loop body prevents vectorization. To " +
			"vectorize a call, LLVM needs either a SIMD vector variant " +
			"declared via #pragma omp declare simd or a known vectorizable " +
			"intrinsic (e.g., llvm.sqrt, llvm.fabs). Calls to opaque library " +
			"functions are treated as barriers.",
		RootCause: "A function call in the loop body has no known SIMD vector variant.",
		WhatOptimizerWanted: "The optimizer wanted to replace the scalar function call with a " +
			"vectorized intrinsic that processes all loop elements " +
			"simultaneously.",
		Fixes: []diag.Fix{
			diag.SourceFix("Replace library calls with equivalent intrinsics: use sqrtf() " +
				"instead of custom sqrt, fabsf() for fabs, etc. which have " +
				"SIMD-vectorizable forms", ""),
			diag.SourceFix("Mark your function with #pragma omp declare simd to declare a " +
				"vector variant for the loop vectorizer",
				"#pragma omp declare simd\nfloat myFunc(float x);"),
			diag.SourceFix("If the function has no side effects, mark it " +
				"__attribute__((const)) or __attribute__((pure)) to allow LLVM to " +
				"treat it as a math function", ""),
			diag.SourceFix("Manually vectorize the call site by extracting loop body into a " +
				"SIMD function using SIMD intrinsics or Eigen/xsimd", ""),
		},
		Severity: diag.SevHigh,
		Speedup:  3.5,
	})
}

func slpVectorizerPatterns(b *Builder) {
	b.Add(Pattern{
		ID:          "slp-vectorizer/not-vectorized",
		Pass:        "slp-vectorizer",
		Remark:      "NotVectorized",
		Message:     "",
		ShortReason: "SLP vectorization failed",
		DetailedExplanation: "The Superword-Level Parallelism (SLP) vectorizer looks for " +
			"independent scalar operations that could be packed into a single " +
			"SIMD instruction. Unlike loop vectorization, SLP works on " +
			"straight-line code. It fails when there are memory dependency " +
			"chains between the candidate operations, when target-specific " +
			"costs show vectorizing is not beneficial, or when the operations " +
			"don't form a tree-shaped computation graph.",
		RootCause: "The scalar operations could not be packed into SIMD because of " +
			"dependencies, cost model rejection, or irregular access patterns.",
		WhatOptimizerWanted: "The optimizer wanted to combine independent scalar arithmetic " +
			"operations into a single SIMD instruction, e.g., packing four f32 " +
			"adds into one _mm_add_ps.",
		Fixes: []diag.Fix{
			diag.SourceFix("Ensure independent scalar computations operate on contiguous " +
				"memory (struct-of-arrays layout is more SLP-friendly than " +
				"array-of-structs)",
				"float xs[N], ys[N];  // SoA, not struct{float x,y;}[N]"),
			diag.SourceFix("Avoid breaking operation chains with conditionals or function " +
				"calls between the independent computations", ""),
			diag.SourceFix("Use #pragma clang loop unroll(full) on small loops to expose more " +
				"SLP opportunities to the vectorizer", ""),
		},
		Severity: diag.SevMedium,
		Speedup:  2.0,
	})
}

func sroaPatterns(b *Builder) {
	b.Add(Pattern{
		ID:          "sroa/cannot-split",
		Pass:        "sroa",
		Remark:      "CannotSROAElement",
		Message:     "",
		ShortReason: "SROA failed: aggregate cannot be decomposed",
		DetailedExplanation: "Scalar Replacement of Aggregates (SROA) decomposes alloca'd " +
			"struct or array allocations into individual scalar SSA values, " +
			"enabling downstream optimizations like register allocation and " +
			"load elimination. SROA fails when the address of the aggregate " +
			"escapes (e.g., passed to an opaque function, stored in memory, or " +
			"cast to a different type), because in that case the aggregate " +
			"must remain as a memory object.",
		RootCause: "The address of the alloca'd aggregate escapes the function or is " +
			"used in a way that prevents SROA from replacing it with scalars.",
		WhatOptimizerWanted: "The optimizer wanted to replace the alloca with individual scalar " +
			"variables, one per struct field, enabling them to be allocated in " +
			"registers rather than stack memory.",
		Fixes: []diag.Fix{
			diag.SourceFix("Avoid taking the address of local structs and passing it to " +
				"external functions; pass fields individually instead", ""),
			diag.SourceFix("If you must pass a struct by pointer, consider using a temporary " +
				"local copy instead of the original alloca", ""),
			diag.SourceFix("Remove memcpy calls on the struct and use field-by-field " +
				"assignment instead, which SROA can handle", ""),
			diag.IRFix("Ensure the alloca is only used with getelementptr and load/store " +
				"- any bitcast or call using the alloca pointer blocks SROA", ""),
		},
		Severity: diag.SevHigh,
		Speedup:  1.5,
	})

	b.Add(Pattern{
		ID:          "sroa/address-taken",
		Pass:        "sroa",
		Remark:      "",
		Message:     "address taken",
		ShortReason: "SROA failed: address of local variable is taken",
		DetailedExplanation: "When a local variable's address is taken (e.g., '&localVar'), " +
			"LLVM cannot track all reads and writes to it through SSA form. " +
			"The variable must remain as an alloca in memory. This blocks " +
			"mem2reg and prevents the variable from being promoted to a " +
			"register.",
		RootCause: "The alloca's address escapes the current function via a pointer, " +
			"preventing SROA and mem2reg from eliminating the stack slot.",
		WhatOptimizerWanted: "The optimizer wanted to promote this stack variable to a register " +
			"(SSA value) and completely eliminate the alloca instruction.",
		Fixes: []diag.Fix{
			diag.SourceFix("Remove address-taking: if the address is only needed for a single " +
				"call, restructure the call to take the value directly", ""),
			diag.SourceFix("If the address is stored in a struct, consider using an index or " +
				"ID instead of a raw pointer", ""),
			diag.SourceFix("For output parameters, prefer returning values directly or using " +
				"std::optional<T> / std::tuple<T,U> instead of T*", ""),
		},
		Severity: diag.SevMedium,
		Speedup:  1.4,
	})
}

func loopUnrollPatterns(b *Builder) {
	b.Add(Pattern{
		ID:          "loop-unroll/unknown-trip-count",
		Pass:        "loop-unroll",
		Remark:      "FullUnrollAssumed",
		Message:     "unknown trip count",
		ShortReason: "Loop unrolling skipped: trip count not statically known",
		DetailedExplanation: "Full loop unrolling requires the loop to execute a fixed, " +
			"statically known number of times. When the trip count depends on " +
			"a runtime value, LLVM cannot generate separate iterations. " +
			"Partial unrolling is still possible but requires a known " +
			"divisibility property.",
		RootCause: "The loop's iteration count is a runtime variable with no " +
			"statically known value or upper bound.",
		WhatOptimizerWanted: "The optimizer wanted to fully unroll the loop, eliminating the " +
			"branch and induction variable update overhead, and exposing all " +
			"loop body instructions to the instruction scheduler.",
		Fixes: []diag.Fix{
			diag.SourceFix("If the trip count is always a small constant, use a template " +
				"parameter or constexpr variable",
				"template<int N>\nvoid process() { for (int i = 0; i < N; ++i) ... }"),
			diag.SourceFix("Add __builtin_expect or __builtin_assume to hint the probable " +
				"trip count to the optimizer", ""),
			diag.SourceFix("Use #pragma clang loop unroll_count(N) to request partial " +
				"unrolling by a factor of N even without a known trip count",
				"#pragma clang loop unroll_count(4)\nfor(int i=0; i<n; ++i)..."),
		},
		Severity: diag.SevLow,
		Speedup:  1.15,
	})

	b.Add(Pattern{
		ID:          "loop-unroll/too-large",
		Pass:        "loop-unroll",
		Remark:      "",
		Message:     "instruction count too high",
		ShortReason: "Loop unrolling rejected: code size would be too large",
		DetailedExplanation: "LLVM's loop unroller uses a cost model to estimate the " +
			"instruction count after unrolling. If unrolling by factor F would " +
			"produce more instructions than the UnrollThreshold limit, the " +
			"unroll is rejected. This prevents binary bloat and instruction " +
			"cache pressure.",
		RootCause: "Unrolling the loop body would produce too many instructions, " +
			"exceeding the unroll threshold.",
		WhatOptimizerWanted: "The optimizer wanted to replicate the loop body N times to reduce " +
			"branch overhead and improve the instruction scheduler's window.",
		Fixes: []diag.Fix{
			diag.SourceFix("Request a smaller unroll factor with #pragma clang loop " +
				"unroll_count(2)",
				"#pragma clang loop unroll_count(2)"),
			diag.SourceFix("Simplify the loop body to reduce its instruction count, making " +
				"full unrolling feasible", ""),
			diag.SourceFix("Pass -mllvm -unroll-max-count=8 to control the maximum unroll " +
				"factor globally", ""),
		},
		Severity: diag.SevLow,
		Speedup:  1.1,
	})
}

func tailCallElimPatterns(b *Builder) {
	b.Add(Pattern{
		ID:          "tailcallelim/unable-to-transform",
		Pass:        "tailcallelim",
		Remark:      "UnableToTransform",
		Message:     "",
		ShortReason: "Tail call elimination failed",
		DetailedExplanation: "Tail call elimination (TCE) converts a recursive call in tail " +
			"position into a jump, eliminating stack frame growth. TCE " +
			"requires: the call is in strict tail position (no computation " +
			"after it), the calling and callee conventions match, no live " +
			"variables on the stack are needed after the call, and the " +
			"function does not use byval arguments that would be clobbered.",
		RootCause: "The call is not in proper tail position, or there are live values " +
			"on the stack needed after the call, or calling conventions differ.",
		WhatOptimizerWanted: "The optimizer wanted to replace the recursive call with a jump to " +
			"the function's entry block, turning recursion into an efficient " +
			"loop without stack growth.",
		Fixes: []diag.Fix{
			diag.SourceFix("Ensure the recursive call is the very last operation: return " +
				"f(n-1) not return f(n-1) + 1",
				"int f(int n) { return n <= 0 ? base : f(n-1); }  // good tail position"),
			diag.SourceFix("Move accumulator updates into extra parameters " +
				"(accumulator-passing style) so the tail call is the final " +
				"expression",
				"int f(int n, int acc) { return n == 0 ? acc : f(n-1, acc+n); }"),
			diag.SourceFix("Ensure the function is marked [[clang::musttail]] if you require " +
				"guaranteed TCE, which will give a compiler error if TCE cannot be " +
				"applied rather than silent fallback", ""),
		},
		Severity: diag.SevMedium,
		Speedup:  1.3,
	})
}

func gvnPatterns(b *Builder) {
	b.Add(Pattern{
		ID:          "gvn/load-elim",
		Pass:        "gvn",
		Remark:      "LoadElim",
		Message:     "",
		ShortReason: "GVN failed to eliminate redundant load",
		DetailedExplanation: "Global Value Numbering (GVN) eliminates redundant loads by " +
			"proving that two loads from the same address return the same " +
			"value. This proof requires: no intervening stores to the same or " +
			"aliasing address, no function calls that could modify the " +
			"location, and a dominator relationship between the two loads.",
		RootCause: "An intervening store, aliased write, or unknown function call " +
			"prevents GVN from proving the load is redundant.",
		WhatOptimizerWanted: "The optimizer wanted to replace the second load with the " +
			"already-computed value from the first load, eliminating the " +
			"memory access.",
		Fixes: []diag.Fix{
			diag.SourceFix("Cache loaded values in local variables to make the redundancy " +
				"syntactically obvious",
				"int v = *ptr;  use(v); use(v);  // instead of use(*ptr); use(*ptr)"),
			diag.SourceFix("Mark functions that don't modify memory as __attribute__((pure)) " +
				"or __attribute__((const)) to prevent them from blocking GVN", ""),
			diag.SourceFix("Use __restrict__ on pointers to allow alias analysis to prove the " +
				"locations don't overlap", ""),
		},
		Severity: diag.SevMedium,
		Speedup:  1.2,
	})
}

func memcpyOptPatterns(b *Builder) {
	b.Add(Pattern{
		ID:          "memcpyopt/missed",
		Pass:        "memcpyopt",
		Remark:      "",
		Message:     "",
		ShortReason: "MemCpyOpt failed to optimize memory copy",
		DetailedExplanation: "MemCpyOpt looks for patterns like a series of scalar stores " +
			"followed by a use of those values via a copy, and tries to merge " +
			"them into a single memcpy. It also tries to eliminate redundant " +
			"memcpy chains (A -> B -> C becomes A -> C). These transforms " +
			"require the source and destination to not alias, the copy to " +
			"cover the full object, and no intervening modifications.",
		RootCause: "Aliasing, partial copies, or intervening modifications prevent " +
			"the memory copy optimization.",
		WhatOptimizerWanted: "The optimizer wanted to merge or eliminate memory copy operations " +
			"to reduce unnecessary data movement.",
		Fixes: []diag.Fix{
			diag.SourceFix("Use __restrict__ on pointers to enable aliasing proof", ""),
			diag.SourceFix("Ensure struct copies use value assignment (a = b) rather than " +
				"byte-level memcpy for better optimization opportunities", ""),
			diag.SourceFix("Pass destination buffers directly to the producer instead of " +
				"using an intermediate buffer", ""),
		},
		Severity: diag.SevLow,
		Speedup:  1.1,
	})
}

func loopInterchangePatterns(b *Builder) {
	b.Add(Pattern{
		ID:          "loop-interchange/missed",
		Pass:        "loop-interchange",
		Remark:      "",
		Message:     "",
		ShortReason: "Loop interchange failed",
		DetailedExplanation: "Loop interchange reorders nested loops to improve memory locality " +
			"(making the innermost loop access memory sequentially). This " +
			"requires the loop nest to be perfectly nested (no code between " +
			"loop headers), the loops to be interchangeable without changing " +
			"semantics (checked via dependency analysis), and both loops to " +
			"have at least one common induction variable dependency.",
		RootCause: "The loop nest is not perfectly nested, has disqualifying " +
			"dependencies, or the interchange is not profitable according to " +
			"the cost model.",
		WhatOptimizerWanted: "The optimizer wanted to swap the loop order to make the inner " +
			"loop stride-1 through memory, improving cache line utilization.",
		Fixes: []diag.Fix{
			diag.SourceFix("Make the loop nest perfectly nested: remove all statements " +
				"between the outer and inner loop headers",
				"for(i) { for(j) { body; } }  // no stmts between for-loops"),
			diag.SourceFix("Change array access from A[j][i] to A[i][j] in the source to " +
				"manually achieve the cache-friendly access pattern", ""),
			diag.SourceFix("Use row-major (C-style) array storage and ensure the innermost " +
				"loop iterates over the last index", ""),
		},
		Severity: diag.SevMedium,
		Speedup:  2.0,
	})
}

func genericPatterns(b *Builder) {
	b.Add(Pattern{
		ID:          "generic/never-inline",
		Pass:        "",
		Remark:      "NeverInline",
		Message:     "",
		ShortReason: "Optimization blocked by attribute",
		DetailedExplanation: "An explicit attribute on the function or call site is preventing " +
			"the optimization from being applied. LLVM respects programmer " +
			"annotations as final authority over the optimizer's heuristics.",
		RootCause: "An explicit attribute (noinline, optnone, volatile, etc.) " +
			"overrides the optimizer's decision.",
		WhatOptimizerWanted: "The optimizer identified a beneficial transformation but an " +
			"explicit annotation prevented it from being applied.",
		Fixes: []diag.Fix{
			diag.SourceFix("Review whether the attribute is still necessary; remove it if it " +
				"was added for debugging or as a temporary workaround", ""),
		},
		Severity: diag.SevHigh,
		Speedup:  1.2,
	})

	b.Add(Pattern{
		ID:          "generic/optnone",
		Pass:        "",
		Remark:      "",
		Message:     "optnone",
		ShortReason: "Optimization skipped: optnone function",
		DetailedExplanation: "The function was compiled with -O0 or has the " +
			"__attribute__((optnone)) annotation, which completely disables " +
			"all IR optimizations for that function. This is typically used " +
			"during debugging to prevent the optimizer from eliminating " +
			"variables or reordering operations.",
		RootCause: "The 'optnone' attribute on the function disables all " +
			"optimizations.",
		WhatOptimizerWanted: "The optimizer skipped all transformations for this function " +
			"because 'optnone' was set.",
		Fixes: []diag.Fix{
			diag.SourceFix("Remove __attribute__((optnone)) from the function, or compile " +
				"without -O0 for production builds", ""),
			diag.SourceFix("Use __attribute__((noinline)) to prevent inlining into other " +
				"functions while still allowing optimization of the function body", ""),
		},
		Severity: diag.SevCritical,
		Speedup:  2.0,
	})

	b.Add(Pattern{
		ID:          "gvn/load-clobbered",
		Pass:        "gvn",
		Remark:      "LoadClobbered",
		Message:     "",
		ShortReason: "Global Value Numbering failed: load clobbered by store",
		DetailedExplanation: "The optimizer found a load that could potentially be replaced by " +
			"a previous value (redundant load elimination), but it found a " +
			"store instruction that might modify the memory location between " +
			"the source and the load. This is often caused by pointer aliasing " +
			"uncertainty.",
		RootCause: "A store instruction clobbers the memory location of a load, " +
			"preventing redundant load elimination.",
		WhatOptimizerWanted: "The optimizer wanted to eliminate the load instruction and reuse " +
			"a value already in a register.",
		Fixes: []diag.Fix{
			diag.SourceFix("Use __restrict__ if you know the store does not affect the load's " +
				"pointer", ""),
			diag.SourceFix("Hoists the load before the store if they are independent", ""),
		},
		Severity: diag.SevMedium,
		Speedup:  1.2,
	})

	b.Add(Pattern{
		ID:          "loop-vectorize/faulting-early-exit",
		Pass:        "loop-vectorize",
		Remark:      "",
		Message:     "Cannot vectorize potentially faulting early exit loop",
		ShortReason: "Loop Vectorization failed: Non-canonical early exit",
		DetailedExplanation: "The loop contains a conditional 'break', 'return', or 'goto' that " +
			"exits the loop before the induction variable reaches its end. " +
			"Most SIMD lanes cannot easily handle unpredictable exits without " +
			"specialized predication support. This forces the optimizer to " +
			"fall back to scalar execution to ensure correctness and avoid " +
			"faults.",
		RootCause: "An 'early exit' branch inside the loop body blocks vectorization.",
		WhatOptimizerWanted: "The vectorizer wanted to process multiple iterations in parallel, " +
			"but cannot guarantee safety when iterations might stop " +
			"prematurely.",
		Fixes: []diag.Fix{
			diag.SourceFix("Restructure the loop to avoid early exits; use a boolean flag or " +
				"sentinel value and process it after the loop if possible", ""),
			diag.SourceFix("If using C++20, consider using algorithms like std::find_if which " +
				"may have internal optimizations for such patterns", ""),
			diag.SourceFix("Try to hoist the early-exit check if it depends on data invariant " +
				"to the loop", ""),
		},
		Severity: diag.SevHigh,
		Speedup:  3.5,
	})

	b.Add(Pattern{
		ID:          "inline/no-definition",
		Pass:        "inline",
		Remark:      "NoDefinition",
		Message:     "",
		ShortReason: "Inlining failed: No function definition available",
		DetailedExplanation: "The inliner cannot inline a function if its body is not available " +
			"in the current translation unit. This happens for functions " +
			"defined in other .cpp files or external libraries, unless Link " +
			"Time Optimization (LTO) is enabled.",
		RootCause: "The function body is missing in the current module.",
		WhatOptimizerWanted: "The optimizer wanted to eliminate the call overhead by copying " +
			"the function body into the caller.",
		Fixes: []diag.Fix{
			diag.SourceFix("Enable Link Time Optimization (LTO) with -flto", ""),
			diag.SourceFix("Move the function definition to a header or the same file", ""),
		},
		Severity: diag.SevMedium,
		Speedup:  1.3,
	})
}
