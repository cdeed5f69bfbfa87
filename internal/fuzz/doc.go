// Package fuzztests houses Go fuzz harnesses for the input readers: textual
// IR, YAML remark streams and clang -Rpass output. Its goal is to smoke test
// robustness and guard against panics or hangs on arbitrary inputs, and to
// check the structural diff invariants on whatever the IR reader accepts.
//
// Назначение: прогонять произвольные байты через ir.ParseBytes,
// remarks.ParseYAML, remarks.ParseText и align.
//
// Не делает: генерацию корпусов, запуск opt, выполнение CLI.
//
// Зависимости: internal/ir, internal/irdiff, internal/remarks, internal/align,
// internal/testkit.

package fuzztests
