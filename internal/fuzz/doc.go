// Package fuzztests houses Go fuzz harnesses for the template scanner and
// the literal escaper. They guard against panics, nondeterministic output
// and broken region spans on arbitrary input.
//
// Назначение: прогонять произвольные байты через FileSet, сканер и все
// встроенные языки, проверяя инварианты из internal/testkit.
//
// Не делает: запись файлов, выполнение CLI.
//
// Зависимости: internal/source, internal/scan, internal/lang, internal/escape,
// internal/diag, internal/testkit.

package fuzztests
