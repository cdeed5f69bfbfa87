package irdiff_test

import (
	"context"
	"testing"

	"optdbg/internal/ir"
	"optdbg/internal/irdiff"
	"optdbg/internal/testkit"
)

const invBefore = `define i32 @a(i32 %x) {
entry:
  %1 = add i32 %x, 1
  %2 = mul i32 %1, 2
  br label %exit

exit:
  ret i32 %2
}

define void @gone() {
  ret void
}

declare void @ext()
`

const invAfter = `define i32 @a(i32 %x) {
entry:
  %1 = shl i32 %x, 1
  ret i32 %1
}

define internal void @new() {
  ret void
}

declare void @ext() nounwind
`

// a second @a with a multi-line switch
const invDuplicate = `
define i32 @a(i32 %x) {
entry:
  switch i32 %x, label %exit [
    i32 0, label %zero
  ]

zero:
  ret i32 0

exit:
  ret i32 1
}
`

func TestDiffInvariants(t *testing.T) {
	before, err := ir.ParseBytes("before.ll", []byte(invBefore))
	if err != nil {
		t.Fatal(err)
	}
	after, err := ir.ParseBytes("after.ll", []byte(invAfter))
	if err != nil {
		t.Fatal(err)
	}

	cases := map[string]*irdiff.ModuleDiff{
		"self":    irdiff.Diff(before, before),
		"forward": irdiff.Diff(before, after),
		"reverse": irdiff.Diff(after, before),
		"empty":   irdiff.Diff(nil, after),
	}
	md, err := irdiff.DiffConcurrent(context.Background(), before, after, 3)
	if err != nil {
		t.Fatal(err)
	}
	cases["concurrent"] = md

	dupBefore, err := ir.ParseBytes("dup.ll", []byte(invBefore+invDuplicate))
	if err != nil {
		t.Fatal(err)
	}
	cases["duplicates"] = irdiff.Diff(dupBefore, after)
	cases["duplicates reverse"] = irdiff.Diff(after, dupBefore)

	for name, md := range cases {
		if err := testkit.CheckDiff(md); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}
