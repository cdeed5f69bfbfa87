package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB, ограничение для тестового корпуса
	maxFuzzInput = 1 << 16
)

var irSeeds = []string{
	"",
	"define void @f() {\n  ret void\n}\n",
	`source_filename = "a.c"
target triple = "x86_64-unknown-linux-gnu"

define i32 @sum(ptr %a, i32 %n) #0 !dbg !10 {
entry:
  %cmp = icmp sgt i32 %n, 0, !dbg !14
  br i1 %cmp, label %loop, label %exit

loop:                                             ; preds = %loop, %entry
  %i = phi i32 [ 0, %entry ], [ %inc, %loop ]
  %inc = add nsw i32 %i, 1
  %done = icmp eq i32 %inc, %n
  br i1 %done, label %exit, label %loop

exit:
  ret i32 0
}

declare i32 @helper(i32)

attributes #0 = { noinline nounwind }

!1 = !DIFile(filename: "a.c", directory: "/tmp")
!10 = distinct !DISubprogram(name: "sum", scope: !1, file: !1, line: 2, unit: !0)
!14 = !DILocation(line: 3, column: 9, scope: !10)
`,
	"define internal void @\"odd name\"() {\n  br label %2\n\n2:\n  ret void\n}\n",
	"define void @open() {\nentry:\n  ret void\n",
	"BC\xc0\xde\x35\x14",
}

var yamlSeeds = []string{
	"",
	"--- !Missed\nPass: loop-vectorize\nName: MissedDetails\nFunction: f\nArgs:\n  - String: loop not vectorized\n...\n",
	"--- !Passed\nPass: inline\nName: Inlined\nDebugLoc: { File: a.c, Line: 4, Column: 3 }\nFunction: main\nArgs:\n  - Callee: foo\n  - String: ' inlined into '\n  - Caller: main\n...\n",
	"--- !Analysis\nPass: regalloc\nName: SpillReload\nFunction: g\nArgs:\n  - NumSpills: '3'\n",
	"--- !Unknown\nPass: x\n...\n--- !Missed\nName: NoPass\n",
	"--- !Missed\nDebugLoc: { File: 'a b.c', Line: x, Column: \n",
}

var textSeeds = []string{
	"",
	"a.c:12:3: remark: loop not vectorized [-Rpass-missed=loop-vectorize]\n",
	"a.c:4:1: remark: foo inlined into main [-Rpass=inline]\nnoise\n",
	"b.c:9:7: remark: 3 spills [-Rpass-analysis=regalloc]\n",
	"c.c:x:1: remark: broken [-Rpass=inline]\n",
}

func addSeeds(f *testing.F, inline []string, exts ...string) {
	for _, s := range inline {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f, exts...)
}

func addTestdataSeeds(f *testing.F, exts ...string) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	// проходим по дереву testdata, добавляем файлы с нужными расширениями
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return nil
		}
		ok := false
		for _, ext := range exts {
			if filepath.Ext(path) == ext {
				ok = true
			}
		}
		if !ok {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}

func clampInput(input []byte, limit int) []byte {
	if len(input) > limit {
		return append([]byte(nil), input[:limit]...)
	}
	return append([]byte(nil), input...)
}

// truncateForLog truncates input for logging purposes
func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(input[:maxLen:maxLen], []byte("...")...)
}
